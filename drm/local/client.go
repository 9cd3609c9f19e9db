// Package local contains a scheduler client which runs submission scripts
// as child processes of the current process. It is meant for development
// and for single machine deployments.
package local

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"

	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/drm"
	"github.com/shirou/gopsutil/process"
)

const name = "local"

// processTable tracks the processes started by every session of one opener.
type processTable struct {
	mu    sync.Mutex
	procs map[string]*proc
}

type proc struct {
	cmd  *exec.Cmd
	done bool
	err  error
}

// NewOpener returns an Opener whose sessions share one process table, so
// that a job submitted through one session can be polled through another.
func NewOpener(conf config.Local) drm.Opener {
	table := &processTable{procs: map[string]*proc{}}
	return func() (drm.Client, error) {
		return &Client{Shell: conf.Shell, table: table}, nil
	}
}

// Client is one session of the local backend.
type Client struct {
	Shell string
	table *processTable
}

// Open checks the shell exists.
func (c *Client) Open() error {
	if c.Shell == "" {
		c.Shell = "/bin/sh"
	}
	return drm.CheckAll(name, drm.Command(c.Shell))
}

// Close is a no-op; running processes are left alone.
func (c *Client) Close() error {
	return nil
}

// Submit starts the script and returns its pid as the job id.
func (c *Client) Submit(ctx context.Context, tpl *drm.JobTemplate) (string, error) {
	stdout, err := os.Create(tpl.StdoutPath)
	if err != nil {
		return "", &drm.SubmissionError{Backend: name, Err: err}
	}
	stderr, err := os.Create(tpl.StderrPath)
	if err != nil {
		stdout.Close()
		return "", &drm.SubmissionError{Backend: name, Err: err}
	}

	cmd := exec.Command(c.Shell, tpl.ScriptPath)
	cmd.Dir = tpl.WorkDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return "", &drm.SubmissionError{Backend: name, Err: err}
	}

	id := strconv.Itoa(cmd.Process.Pid)
	p := &proc{cmd: cmd}

	c.table.mu.Lock()
	c.table.procs[id] = p
	c.table.mu.Unlock()

	go func() {
		err := cmd.Wait()
		stdout.Close()
		stderr.Close()

		c.table.mu.Lock()
		p.done = true
		p.err = err
		c.table.mu.Unlock()
	}()
	return id, nil
}

// Poll reports on processes started by this table. For any other pid,
// such as a job recovered after a restart, it can only tell whether the
// process still exists.
func (c *Client) Poll(ctx context.Context, id string) (drm.Status, error) {
	c.table.mu.Lock()
	p, ok := c.table.procs[id]
	var done bool
	var exitErr error
	if ok {
		done, exitErr = p.done, p.err
		if done {
			delete(c.table.procs, id)
		}
	}
	c.table.mu.Unlock()

	if ok {
		switch {
		case !done:
			return drm.Running, nil
		case exitErr != nil:
			return drm.Failed, nil
		default:
			return drm.Done, nil
		}
	}

	pid, err := strconv.Atoi(id)
	if err != nil {
		return drm.Undetermined, &drm.PollError{Backend: name, ID: id, Err: fmt.Errorf("invalid pid")}
	}
	exists, err := process.PidExists(int32(pid))
	if err != nil {
		return drm.Undetermined, &drm.PollError{Backend: name, ID: id, Err: err}
	}
	if !exists {
		return drm.Undetermined, drm.ErrUnknownJob
	}
	return drm.Running, nil
}

// Cancel kills the process.
func (c *Client) Cancel(ctx context.Context, id string) error {
	c.table.mu.Lock()
	p, ok := c.table.procs[id]
	done := ok && p.done
	c.table.mu.Unlock()

	if ok {
		if done {
			return nil
		}
		return p.cmd.Process.Kill()
	}

	pid, err := strconv.Atoi(id)
	if err != nil {
		return drm.ErrUnknownJob
	}
	exists, err := process.PidExists(int32(pid))
	if err != nil {
		return err
	}
	if !exists {
		return drm.ErrUnknownJob
	}
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return drm.ErrUnknownJob
	}
	return proc.Kill()
}
