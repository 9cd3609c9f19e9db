package workflow

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
)

type document struct {
	Name     string            `json:"name"`
	Steps    []stepDocument    `json:"steps"`
	Comments []commentDocument `json:"comments"`
}

type stepDocument struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	Position    *Position       `json:"position"`
	Inputs      []inputDocument `json:"inputs"`
	Subworkflow *document       `json:"subworkflow"`
}

type inputDocument struct {
	Step   string `json:"step"`
	Output string `json:"output"`
	Input  string `json:"input"`
}

type commentDocument struct {
	Position *Position `json:"position"`
	Freehand bool      `json:"freehand"`
	Text     string    `json:"text"`
}

// Load reads a workflow description from a YAML or JSON file.
func Load(path string) (*Workflow, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow: %v", err)
	}
	wf, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return wf, nil
}

// Parse parses a workflow description:
//
//	name: example
//	steps:
//	  - id: cat
//	    position: {left: 10, top: 20}
//	    inputs:
//	      - {step: upload, output: output, input: input1}
//	comments:
//	  - {text: "note", position: {left: 0, top: 0}}
//
// Steps are given order indexes in the order they are listed.
func Parse(b []byte) (*Workflow, error) {
	doc := &document{}
	if err := yaml.Unmarshal(b, doc); err != nil {
		return nil, fmt.Errorf("parsing workflow: %v", err)
	}
	return doc.build()
}

func (d *document) build() (*Workflow, error) {
	wf := &Workflow{Name: d.Name}
	byID := make(map[string]*Step, len(d.Steps))

	for i, sd := range d.Steps {
		if sd.ID == "" {
			return nil, fmt.Errorf("step %d has no id", i)
		}
		if _, dup := byID[sd.ID]; dup {
			return nil, fmt.Errorf("duplicate step id %q", sd.ID)
		}
		s := &Step{
			ID:         sd.ID,
			Label:      sd.Label,
			OrderIndex: i,
			Position:   sd.Position,
		}
		if sd.Subworkflow != nil {
			sub, err := sd.Subworkflow.build()
			if err != nil {
				return nil, fmt.Errorf("subworkflow of step %q: %v", sd.ID, err)
			}
			s.Subworkflow = sub
		}
		byID[sd.ID] = s
		wf.Steps = append(wf.Steps, s)
	}

	for i, sd := range d.Steps {
		s := wf.Steps[i]
		for _, in := range sd.Inputs {
			from, ok := byID[in.Step]
			if !ok {
				return nil, fmt.Errorf("step %q consumes unknown step %q", sd.ID, in.Step)
			}
			s.InputConnections = append(s.InputConnections, &Connection{
				Output:     from,
				OutputName: in.Output,
				Input:      s,
				InputName:  in.Input,
			})
		}
	}

	for i, cd := range d.Comments {
		wf.Comments = append(wf.Comments, &Comment{
			OrderIndex: i,
			Position:   cd.Position,
			Freehand:   cd.Freehand,
			Text:       cd.Text,
		})
	}
	return wf, nil
}
