// Package pbs contains a scheduler client for PBS/Torque.
package pbs

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/drm"
)

const name = "pbs"

// Client drives PBS/Torque through qsub, qstat and qdel.
type Client struct {
	Qsub  drm.Command
	Qstat drm.Command
	Qdel  drm.Command
}

// NewOpener returns an Opener for PBS sessions.
func NewOpener(conf config.HPC) drm.Opener {
	return func() (drm.Client, error) {
		return &Client{
			Qsub:  drm.Command(conf.SubmitCmd),
			Qstat: drm.Command(conf.StatusCmd),
			Qdel:  drm.Command(conf.CancelCmd),
		}, nil
	}
}

// Open checks the PBS tools are installed.
func (c *Client) Open() error {
	return drm.CheckAll(name, c.Qsub, c.Qstat, c.Qdel)
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}

// Submit submits a job via "qsub". For PBS / Torque systems, qsub prints
// the job id, e.g. "123.server".
func (c *Client) Submit(ctx context.Context, tpl *drm.JobTemplate) (string, error) {
	args := []string{"-o", tpl.StdoutPath, "-e", tpl.StderrPath}
	if tpl.Name != "" {
		args = append(args, "-N", tpl.Name)
	}
	if tpl.WorkDir != "" {
		args = append(args, "-d", tpl.WorkDir)
	}
	if q := tpl.Target(); q != "" {
		args = append(args, "-q", q)
	}
	args = append(args, tpl.ScriptPath)

	out, err := c.Qsub.Run(ctx, args...)
	if err != nil {
		return "", &drm.SubmissionError{Backend: name, Err: err}
	}
	id := strings.TrimSpace(out)
	if id == "" {
		return "", &drm.SubmissionError{Backend: name, Err: fmt.Errorf("qsub printed no job id")}
	}
	return id, nil
}

// Poll reads the job's state from "qstat -x -f". Completed jobs are kept
// by the server for keep_completed seconds, after which the job is unknown.
func (c *Client) Poll(ctx context.Context, id string) (drm.Status, error) {
	out, err := c.Qstat.Run(ctx, "-x", "-f", id)
	if isUnknown(err) {
		return drm.Undetermined, drm.ErrUnknownJob
	}
	if err != nil {
		return drm.Undetermined, &drm.PollError{Backend: name, ID: id, Err: err}
	}

	res := xmlRecord{}
	if err := xml.Unmarshal([]byte(out), &res); err != nil {
		return drm.Undetermined, &drm.PollError{
			Backend: name, ID: id, Err: fmt.Errorf("failed to unmarshal qstat output: %v", err),
		}
	}
	for _, j := range res.Job {
		if j.JobID == id {
			return mapState(j), nil
		}
	}
	return drm.Undetermined, drm.ErrUnknownJob
}

// Cancel cancels a job via "qdel".
func (c *Client) Cancel(ctx context.Context, id string) error {
	_, err := c.Qdel.Run(ctx, id)
	if isUnknown(err) {
		return drm.ErrUnknownJob
	}
	return err
}

func isUnknown(err error) bool {
	var cerr *drm.CommandError
	return errors.As(err, &cerr) && strings.Contains(cerr.Output(), "Unknown Job Id")
}

type job struct {
	JobID      string `xml:"Job_Id"`
	JobState   string `xml:"job_state"`
	ExitStatus *int   `xml:"exit_status"`
}

type xmlRecord struct {
	XMLName xml.Name `xml:"Data"`
	Job     []job
}

func mapState(j job) drm.Status {
	switch j.JobState {
	case "C", "F":
		if j.ExitStatus != nil && *j.ExitStatus != 0 {
			return drm.Failed
		}
		return drm.Done
	case "Q", "W", "T":
		return drm.QueuedActive
	case "H":
		return drm.UserOnHold
	case "R", "E", "B":
		return drm.Running
	case "S":
		return drm.SystemSuspended
	}
	return drm.Undetermined
}
