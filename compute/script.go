package compute

import (
	"fmt"
	"os"
	"text/template"

	"github.com/kballard/go-shellquote"
)

var scriptTpl = template.Must(template.New("script").Parse(`#!/bin/sh
{{if .LibraryPath -}}
{{.LibraryPathVar}}={{.LibraryPath}}:${{.LibraryPathVar}}
export {{.LibraryPathVar}}
{{end -}}
cd {{.WorkDir}}
{{.CommandLine}}
`))

type scriptData struct {
	LibraryPathVar string
	LibraryPath    string
	WorkDir        string
	CommandLine    string
}

// writeScript writes the submission script of a job. The script is only
// readable by its owner.
func writeScript(path, libVar, libPath, workdir, cmdline string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0700)
	if err != nil {
		return fmt.Errorf("creating job script: %v", err)
	}
	defer f.Close()

	// an existing file keeps its mode on open
	if err := f.Chmod(0700); err != nil {
		return fmt.Errorf("setting job script mode: %v", err)
	}

	data := scriptData{
		LibraryPathVar: libVar,
		WorkDir:        shellquote.Join(workdir),
		CommandLine:    cmdline,
	}
	if libPath != "" {
		data.LibraryPath = shellquote.Join(libPath)
	}
	if err := scriptTpl.Execute(f, data); err != nil {
		return fmt.Errorf("writing job script: %v", err)
	}
	return f.Close()
}
