// Package order contains the "gxrunner order" command.
package order

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/galaxyproject/gxrunner/workflow"
	"github.com/spf13/cobra"
)

// ErrCyclic is returned when a workflow can't be ordered.
var ErrCyclic = errors.New("workflow has cycles")

// NewCommand returns the "order" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "order <workflow.yml>",
		Short: "Print the execution order and levels of a workflow's steps.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(args[0], cmd.OutOrStdout())
		},
	}
}

// Run orders the workflow described in the given file and prints its steps,
// nested workflows included.
func Run(path string, w io.Writer) error {
	wf, err := workflow.Load(path)
	if err != nil {
		return err
	}
	// cycles are reported per workflow below
	workflow.OrderWorkflow(wf)

	if err := printWorkflow(w, wf, ""); err != nil {
		return err
	}
	if wf.HasCycles {
		return ErrCyclic
	}
	return nil
}

func printWorkflow(w io.Writer, wf *workflow.Workflow, indent string) error {
	if wf.HasCycles {
		fmt.Fprintf(w, "%sworkflow has cycles, steps left in their original order\n", indent)
		for _, s := range wf.Steps {
			fmt.Fprintf(w, "%s- %s\n", indent, s)
			if s.Subworkflow != nil {
				printWorkflow(w, s.Subworkflow, indent+"    ")
			}
		}
		return nil
	}

	levels, err := workflow.Levels(wf.Steps)
	if err != nil {
		return err
	}
	for i, level := range levels {
		names := make([]string, len(level))
		for j, s := range level {
			names[j] = s.String()
		}
		fmt.Fprintf(w, "%slevel %d: %s\n", indent, i, strings.Join(names, ", "))
	}
	for _, s := range wf.Steps {
		fmt.Fprintf(w, "%s%d. %s\n", indent, s.OrderIndex, s)
		if s.Subworkflow != nil {
			if err := printWorkflow(w, s.Subworkflow, indent+"    "); err != nil {
				return err
			}
		}
	}
	return nil
}
