package drm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Command is a configured scheduler command line, such as "qsub -V".
type Command string

// Argv splits the command line into arguments.
func (c Command) Argv() ([]string, error) {
	argv, err := shellquote.Split(string(c))
	if err != nil {
		return nil, fmt.Errorf("parsing command %q: %v", string(c), err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return argv, nil
}

// Check verifies the command's executable can be found.
func (c Command) Check() error {
	argv, err := c.Argv()
	if err != nil {
		return err
	}
	_, err = exec.LookPath(argv[0])
	return err
}

// Run executes the command with the given extra arguments and returns its
// stdout. A non-zero exit is returned as *CommandError.
func (c Command) Run(ctx context.Context, args ...string) (string, error) {
	argv, err := c.Argv()
	if err != nil {
		return "", err
	}
	argv = append(argv, args...)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), &CommandError{
			Cmd:    shellquote.Join(argv...),
			Stdout: stdout.String(),
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

// CommandError describes a scheduler command which exited unsuccessfully.
type CommandError struct {
	Cmd    string
	Stdout string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Stdout)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Cmd, e.Err, msg)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error { return e.Err }

// Output returns everything the command printed.
func (e *CommandError) Output() string {
	return e.Stdout + e.Stderr
}

// CheckAll verifies every non-empty command can be found.
func CheckAll(backend string, cmds ...Command) error {
	for _, c := range cmds {
		if c == "" {
			continue
		}
		if err := c.Check(); err != nil {
			return Unavailable(backend, err)
		}
	}
	return nil
}
