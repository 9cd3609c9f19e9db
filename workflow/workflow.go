// Package workflow orders the steps of a workflow so that every step comes
// after the steps it consumes outputs from, and groups them into levels
// of mutually independent steps.
package workflow

import (
	"fmt"
	"strings"
)

// Position is the location of a step or comment on the editor canvas.
type Position struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// Workflow is a graph of steps plus free-floating comments.
type Workflow struct {
	Name     string
	Steps    []*Step
	Comments []*Comment
	// HasCycles marks a workflow whose steps couldn't be ordered.
	// Such a workflow can't be run until it is fixed.
	HasCycles bool
}

// Step is one node of a workflow.
type Step struct {
	ID               string
	Label            string
	OrderIndex       int
	Position         *Position
	InputConnections []*Connection
	// Subworkflow is set for steps which run a nested workflow.
	Subworkflow *Workflow
}

// Connection feeds an output of one step into an input of another.
type Connection struct {
	// Output is the producing step.
	Output     *Step
	OutputName string
	// Input is the consuming step.
	Input     *Step
	InputName string
}

// Comment is an annotation on the editor canvas.
type Comment struct {
	OrderIndex int
	Position   *Position
	// Freehand comments are drawn by hand and have no anchor to sort by.
	Freehand bool
	Text     string
}

// CycleError is returned when the steps of a workflow depend on each other
// in a cycle.
type CycleError struct {
	// IDs of the steps which couldn't be ordered.
	Steps []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("workflow steps form a cycle: %s", strings.Join(e.Steps, ", "))
}

// String returns a display name for the step.
func (s *Step) String() string {
	if s.Label != "" {
		return s.Label
	}
	return s.ID
}
