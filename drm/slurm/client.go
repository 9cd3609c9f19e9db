// Package slurm contains a scheduler client for Slurm.
package slurm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/drm"
)

const name = "slurm"

// Client drives Slurm through sbatch, squeue, sacct and scancel.
type Client struct {
	Sbatch  drm.Command
	Squeue  drm.Command
	Sacct   drm.Command
	Scancel drm.Command
}

// NewOpener returns an Opener for Slurm sessions.
func NewOpener(conf config.HPC) drm.Opener {
	return func() (drm.Client, error) {
		return &Client{
			Sbatch:  drm.Command(conf.SubmitCmd),
			Squeue:  drm.Command(conf.StatusCmd),
			Sacct:   drm.Command(conf.HistoryCmd),
			Scancel: drm.Command(conf.CancelCmd),
		}, nil
	}
}

// Open checks the Slurm tools are installed.
func (c *Client) Open() error {
	return drm.CheckAll(name, c.Sbatch, c.Squeue, c.Sacct, c.Scancel)
}

// Close is a no-op.
func (c *Client) Close() error {
	return nil
}

// Submit submits a job via "sbatch".
func (c *Client) Submit(ctx context.Context, tpl *drm.JobTemplate) (string, error) {
	args := []string{"-o", tpl.StdoutPath, "-e", tpl.StderrPath}
	if tpl.Name != "" {
		args = append(args, "-J", tpl.Name)
	}
	if tpl.WorkDir != "" {
		args = append(args, "-D", tpl.WorkDir)
	}
	if tpl.Cell != "" {
		args = append(args, "-M", tpl.Cell)
	}
	if tpl.Queue != "" {
		args = append(args, "-p", tpl.Queue)
	}
	args = append(args, tpl.ScriptPath)

	out, err := c.Sbatch.Run(ctx, args...)
	if err != nil {
		return "", &drm.SubmissionError{Backend: name, Err: err}
	}
	id := extractID(out)
	if id == "" {
		return "", &drm.SubmissionError{Backend: name, Err: fmt.Errorf("unexpected sbatch output: %q", out)}
	}
	if tpl.Cell != "" {
		id += ";" + tpl.Cell
	}
	return id, nil
}

// Poll asks "squeue" for the job state, falling back to "sacct" for jobs
// which have left the queue.
//
// Ids of jobs submitted to another cluster carry the cluster name after a
// semicolon, the way "sbatch --parsable" prints them.
func (c *Client) Poll(ctx context.Context, id string) (drm.Status, error) {
	jobID, cluster := clusterArgs(id)
	out, err := c.Squeue.Run(ctx, append(cluster, "-h", "-j", jobID, "-o", "%T")...)
	if err != nil && !isInvalidID(err) {
		return drm.Undetermined, &drm.PollError{Backend: name, ID: id, Err: err}
	}
	if state := firstLine(out); err == nil && state != "" {
		return mapState(state), nil
	}

	if c.Sacct == "" {
		return drm.Undetermined, drm.ErrUnknownJob
	}
	out, err = c.Sacct.Run(ctx, append(cluster, "-n", "-X", "-P", "-j", jobID, "-o", "State")...)
	if err != nil {
		return drm.Undetermined, &drm.PollError{Backend: name, ID: id, Err: err}
	}
	state := firstLine(out)
	if state == "" {
		return drm.Undetermined, drm.ErrUnknownJob
	}
	return mapState(state), nil
}

// Cancel cancels a job via "scancel".
func (c *Client) Cancel(ctx context.Context, id string) error {
	jobID, cluster := clusterArgs(id)
	_, err := c.Scancel.Run(ctx, append(cluster, jobID)...)
	if isInvalidID(err) {
		return drm.ErrUnknownJob
	}
	return err
}

// clusterArgs splits an "id;cluster" job id into the bare id and the
// "-M cluster" arguments which address it.
func clusterArgs(id string) (string, []string) {
	i := strings.IndexByte(id, ';')
	if i < 0 {
		return id, nil
	}
	return id[:i], []string{"-M", id[i+1:]}
}

func isInvalidID(err error) bool {
	var cerr *drm.CommandError
	return errors.As(err, &cerr) && strings.Contains(cerr.Output(), "Invalid job id")
}

var submittedRe = regexp.MustCompile(`Submitted batch job ([0-9]+)`)

// extractID extracts the job id from the response returned by "sbatch".
// Example response:
// Submitted batch job 2
// With --parsable, sbatch prints "2" or "2;cluster".
func extractID(in string) string {
	if m := submittedRe.FindStringSubmatch(in); m != nil {
		return m[1]
	}
	id := strings.TrimSpace(in)
	if i := strings.IndexByte(id, ';'); i >= 0 {
		id = id[:i]
	}
	if id == "" || strings.ContainsAny(id, " \n\t") {
		return ""
	}
	return id
}

func firstLine(out string) string {
	out = strings.TrimSpace(out)
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	// sacct appends the reason to some states, e.g. "CANCELLED by 1000"
	if f := strings.Fields(out); len(f) > 0 {
		return f[0]
	}
	return ""
}

func mapState(state string) drm.Status {
	switch state {
	case "PENDING", "CONFIGURING", "REQUEUED", "RESIZING":
		return drm.QueuedActive
	case "REQUEUE_HOLD", "REQUEUE_FED", "SPECIAL_EXIT":
		return drm.SystemOnHold
	case "RUNNING", "COMPLETING", "STAGE_OUT", "SIGNALING":
		return drm.Running
	case "SUSPENDED", "STOPPED":
		return drm.SystemSuspended
	case "COMPLETED":
		return drm.Done
	case "FAILED", "CANCELLED", "TIMEOUT", "NODE_FAIL", "PREEMPTED",
		"BOOT_FAIL", "DEADLINE", "OUT_OF_MEMORY", "REVOKED":
		return drm.Failed
	}
	return drm.Undetermined
}
