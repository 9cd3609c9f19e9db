// Package gridengine contains a scheduler client for (Sun/Univa/Son of) Grid Engine.
package gridengine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/drm"
)

const name = "gridengine"

// Client drives Grid Engine through qsub, qstat, qacct and qdel.
type Client struct {
	Qsub  drm.Command
	Qstat drm.Command
	Qacct drm.Command
	Qdel  drm.Command
}

// NewOpener returns an Opener for Grid Engine sessions.
func NewOpener(conf config.HPC) drm.Opener {
	return func() (drm.Client, error) {
		return &Client{
			Qsub:  drm.Command(conf.SubmitCmd),
			Qstat: drm.Command(conf.StatusCmd),
			Qacct: drm.Command(conf.HistoryCmd),
			Qdel:  drm.Command(conf.CancelCmd),
		}, nil
	}
}

// Open checks the Grid Engine tools are installed.
func (c *Client) Open() error {
	return drm.CheckAll(name, c.Qsub, c.Qstat, c.Qacct, c.Qdel)
}

// Close is a no-op; command line sessions hold no resources.
func (c *Client) Close() error {
	return nil
}

// Submit submits a job via "qsub".
func (c *Client) Submit(ctx context.Context, tpl *drm.JobTemplate) (string, error) {
	args := []string{"-terse", "-S", "/bin/sh", "-o", tpl.StdoutPath, "-e", tpl.StderrPath}
	if tpl.Name != "" {
		args = append(args, "-N", tpl.Name)
	}
	if tpl.WorkDir != "" {
		args = append(args, "-wd", tpl.WorkDir)
	}
	if q := tpl.Target(); q != "" {
		args = append(args, "-q", q)
	}
	args = append(args, tpl.ScriptPath)

	out, err := c.Qsub.Run(ctx, args...)
	if err != nil {
		return "", &drm.SubmissionError{Backend: name, Err: err}
	}
	id := extractID(out)
	if id == "" {
		return "", &drm.SubmissionError{Backend: name, Err: fmt.Errorf("unexpected qsub output: %q", out)}
	}
	return id, nil
}

// Poll looks the job up in "qstat", falling back to "qacct" once the job
// has left the queue.
func (c *Client) Poll(ctx context.Context, id string) (drm.Status, error) {
	out, err := c.Qstat.Run(ctx, "-u", "*")
	if err != nil {
		return drm.Undetermined, &drm.PollError{Backend: name, ID: id, Err: err}
	}
	if code, ok := findJob(out, id); ok {
		return mapState(code), nil
	}

	if c.Qacct == "" {
		return drm.Undetermined, drm.ErrUnknownJob
	}
	out, err = c.Qacct.Run(ctx, "-j", id)
	if err != nil {
		var cerr *drm.CommandError
		if errors.As(err, &cerr) && strings.Contains(cerr.Output(), "not found") {
			return drm.Undetermined, drm.ErrUnknownJob
		}
		return drm.Undetermined, &drm.PollError{Backend: name, ID: id, Err: err}
	}
	return parseAccounting(out), nil
}

// Cancel cancels a job via "qdel".
func (c *Client) Cancel(ctx context.Context, id string) error {
	_, err := c.Qdel.Run(ctx, id)
	if err != nil {
		var cerr *drm.CommandError
		if errors.As(err, &cerr) && strings.Contains(cerr.Output(), "does not exist") {
			return drm.ErrUnknownJob
		}
		return err
	}
	return nil
}

var submittedRe = regexp.MustCompile(`Your job ([0-9]+) \(".*"\) has been submitted`)

// extractID extracts the job id from the response returned by "qsub".
// With -terse, qsub prints only the id, e.g. "1234" or "1234.1-10:1" for
// array jobs. Otherwise:
// Your job 1234 ("name") has been submitted
func extractID(in string) string {
	if m := submittedRe.FindStringSubmatch(in); m != nil {
		return m[1]
	}
	id := strings.TrimSpace(in)
	if i := strings.IndexByte(id, '.'); i > 0 {
		id = id[:i]
	}
	if _, err := strconv.Atoi(id); err != nil {
		return ""
	}
	return id
}

// findJob scans "qstat" table output for the job and returns its state code.
//
// job-ID  prior   name       user   state submit/start at     queue  slots
// -----------------------------------------------------------------------
//   1234 0.55500 galaxy_1   galaxy r     01/01/2024 10:00:00 all.q@n1  1
func findJob(out, id string) (string, bool) {
	s := bufio.NewScanner(strings.NewReader(out))
	for s.Scan() {
		f := strings.Fields(s.Text())
		if len(f) < 5 || f[0] != id {
			continue
		}
		return f[4], true
	}
	return "", false
}

func mapState(code string) drm.Status {
	switch {
	case strings.Contains(code, "E"):
		return drm.Failed
	case strings.Contains(code, "h"):
		return drm.UserOnHold
	case strings.Contains(code, "s"), strings.Contains(code, "S"), strings.Contains(code, "T"):
		return drm.UserSuspended
	case strings.Contains(code, "r"), strings.Contains(code, "t"), strings.Contains(code, "R"):
		return drm.Running
	case strings.Contains(code, "q"), strings.Contains(code, "w"):
		return drm.QueuedActive
	}
	return drm.Undetermined
}

// parseAccounting reads the "failed" and "exit_status" fields of "qacct -j".
func parseAccounting(out string) drm.Status {
	failed, exit := "0", "0"
	s := bufio.NewScanner(strings.NewReader(out))
	for s.Scan() {
		f := strings.Fields(s.Text())
		if len(f) < 2 {
			continue
		}
		switch f[0] {
		case "failed":
			failed = f[1]
		case "exit_status":
			exit = f[1]
		}
	}
	if failed != "0" || exit != "0" {
		return drm.Failed
	}
	return drm.Done
}
