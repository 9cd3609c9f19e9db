// Package htcondor contains a scheduler client for HTCondor.
package htcondor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/drm"
)

const name = "htcondor"

// Client drives HTCondor through condor_submit, condor_q, condor_history
// and condor_rm.
type Client struct {
	Submitter drm.Command
	Queue     drm.Command
	History   drm.Command
	Remove    drm.Command
}

// NewOpener returns an Opener for HTCondor sessions.
func NewOpener(conf config.HPC) drm.Opener {
	return func() (drm.Client, error) {
		return &Client{
			Submitter: drm.Command(conf.SubmitCmd),
			Queue:     drm.Command(conf.StatusCmd),
			History:   drm.Command(conf.HistoryCmd),
			Remove:    drm.Command(conf.CancelCmd),
		}, nil
	}
}

// Open checks the HTCondor tools are installed.
func (c *Client) Open() error {
	return drm.CheckAll(name, c.Submitter, c.Queue, c.History, c.Remove)
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}

var submitTpl = template.Must(template.New("condor").Parse(`universe = vanilla
executable = {{.ScriptPath}}
output = {{.StdoutPath}}
error = {{.StderrPath}}
{{if .WorkDir}}initialdir = {{.WorkDir}}
{{end}}{{if .Queue}}requirements = (TARGET.Machine == "{{.Queue}}")
{{end}}getenv = true
should_transfer_files = NO
queue
`))

// Submit writes a submit description next to the script and submits it
// via "condor_submit".
func (c *Client) Submit(ctx context.Context, tpl *drm.JobTemplate) (string, error) {
	var buf bytes.Buffer
	if err := submitTpl.Execute(&buf, tpl); err != nil {
		return "", &drm.SubmissionError{Backend: name, Err: err}
	}
	descPath := drm.DescriptionPath(tpl.ScriptPath)
	if err := os.WriteFile(descPath, buf.Bytes(), 0600); err != nil {
		return "", &drm.SubmissionError{Backend: name, Err: err}
	}

	out, err := c.Submitter.Run(ctx, descPath)
	if err != nil {
		return "", &drm.SubmissionError{Backend: name, Err: err}
	}
	id := extractID(out)
	if id == "" {
		return "", &drm.SubmissionError{Backend: name, Err: fmt.Errorf("unexpected condor_submit output: %q", out)}
	}
	return id, nil
}

// Poll reads JobStatus from "condor_q", or from "condor_history" once the
// job has left the queue.
func (c *Client) Poll(ctx context.Context, id string) (drm.Status, error) {
	out, err := c.Queue.Run(ctx, id, "-af", "JobStatus", "ExitCode")
	if err != nil {
		return drm.Undetermined, &drm.PollError{Backend: name, ID: id, Err: err}
	}
	if s, ok := parseStatus(out); ok {
		return s, nil
	}

	if c.History == "" {
		return drm.Undetermined, drm.ErrUnknownJob
	}
	out, err = c.History.Run(ctx, id, "-af", "JobStatus", "ExitCode")
	if err != nil {
		return drm.Undetermined, &drm.PollError{Backend: name, ID: id, Err: err}
	}
	if s, ok := parseStatus(out); ok {
		return s, nil
	}
	return drm.Undetermined, drm.ErrUnknownJob
}

// Cancel removes a job via "condor_rm".
func (c *Client) Cancel(ctx context.Context, id string) error {
	_, err := c.Remove.Run(ctx, id)
	var cerr *drm.CommandError
	if errors.As(err, &cerr) && strings.Contains(cerr.Output(), "Couldn't find") {
		return drm.ErrUnknownJob
	}
	return err
}

var submittedRe = regexp.MustCompile(`submitted to cluster ([0-9]+)\.`)

// extractID extracts the cluster id from the response returned by "condor_submit".
// Example response:
// Submitting job(s).
// 1 job(s) submitted to cluster 1.
func extractID(in string) string {
	if m := submittedRe.FindStringSubmatch(in); m != nil {
		return m[1]
	}
	return ""
}

// parseStatus reads "JobStatus ExitCode" as printed by -af.
func parseStatus(out string) (drm.Status, bool) {
	f := strings.Fields(out)
	if len(f) == 0 {
		return drm.Undetermined, false
	}
	switch f[0] {
	case "1":
		return drm.QueuedActive, true
	case "2", "6":
		return drm.Running, true
	case "3":
		return drm.Failed, true
	case "4":
		if len(f) > 1 && f[1] != "0" && f[1] != "undefined" {
			return drm.Failed, true
		}
		return drm.Done, true
	case "5":
		return drm.UserOnHold, true
	case "7":
		return drm.UserSuspended, true
	}
	return drm.Undetermined, true
}
