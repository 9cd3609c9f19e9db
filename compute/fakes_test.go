package compute

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/drm"
	"github.com/galaxyproject/gxrunner/job"
	"github.com/galaxyproject/gxrunner/logger"
)

func testLogger() *logger.Logger {
	log := logger.NewLogger("compute-test", logger.DebugConfig())
	log.Discard()
	return log
}

func testConfig(t *testing.T) config.Runner {
	return config.Runner{
		WorkDir:            t.TempDir(),
		ScriptPrefix:       "galaxy",
		LibraryPathVar:     "PYTHONPATH",
		MonitorRate:        config.Duration(time.Millisecond),
		QueueSize:          100,
		Workers:            2,
		DefaultDestination: "fake:///",
	}
}

type pollResult struct {
	status drm.Status
	err    error
}

// fakeClient is a scripted scheduler. Both sessions of a runner share one
// fakeClient.
type fakeClient struct {
	mu        sync.Mutex
	opened    int
	closed    int
	nextID    int
	submitErr error
	submitted []*drm.JobTemplate
	// onSubmit runs for every accepted submission, e.g. to write output.
	onSubmit  func(tpl *drm.JobTemplate)
	scripts   map[string][]pollResult
	polls     map[string]int
	pollOrder []string
	cancelErr error
	cancelled []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		scripts: map[string][]pollResult{},
		polls:   map[string]int{},
	}
}

func (f *fakeClient) opener() drm.Opener {
	return func() (drm.Client, error) { return f, nil }
}

// script sets the poll results of the job with the given id. The last
// result repeats once the script runs out.
func (f *fakeClient) script(id string, results ...pollResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[id] = results
}

func (f *fakeClient) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeClient) Submit(ctx context.Context, tpl *drm.JobTemplate) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.nextID++
	f.submitted = append(f.submitted, tpl)
	if f.onSubmit != nil {
		f.onSubmit(tpl)
	}
	return fmt.Sprintf("%d", 1000+f.nextID), nil
}

func (f *fakeClient) Poll(ctx context.Context, id string) (drm.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollOrder = append(f.pollOrder, id)
	n := f.polls[id]
	f.polls[id] = n + 1

	script := f.scripts[id]
	if len(script) == 0 {
		return drm.QueuedActive, nil
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	return script[n].status, script[n].err
}

func (f *fakeClient) Cancel(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return f.cancelErr
}

func (f *fakeClient) pollCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[id]
}

func (f *fakeClient) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

// calls records the callbacks a fakeWrapper received.
type calls struct {
	states    []job.State
	running   int
	finished  int
	failed    int
	cleanedUp int
	failMsg   string
	failErr   error
	stdout    string
	stderr    string
}

// fakeWrapper records every callback the runner makes.
type fakeWrapper struct {
	id         string
	kind       job.Kind
	cmdline    string
	lib        string
	workdir    string
	prepareErr error

	mu    sync.Mutex
	dest  string
	extID string
	state job.State
	calls calls

	once     sync.Once
	terminal chan struct{}
}

func newFakeWrapper(id, cmdline string) *fakeWrapper {
	return &fakeWrapper{
		id:       id,
		kind:     job.Tool,
		cmdline:  cmdline,
		state:    job.New,
		terminal: make(chan struct{}),
	}
}

func (w *fakeWrapper) ID() string                        { return w.id }
func (w *fakeWrapper) Kind() job.Kind                    { return w.kind }
func (w *fakeWrapper) Prepare(ctx context.Context) error { return w.prepareErr }
func (w *fakeWrapper) CommandLine() string               { return w.cmdline }
func (w *fakeWrapper) LibraryPath() string               { return w.lib }
func (w *fakeWrapper) WorkingDirectory() string          { return w.workdir }

func (w *fakeWrapper) State() job.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *fakeWrapper) ExternalID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.extID
}

func (w *fakeWrapper) DestinationURL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dest
}

func (w *fakeWrapper) ChangeState(ctx context.Context, s job.State) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
	w.calls.states = append(w.calls.states, s)
	if s == job.Running {
		w.calls.running++
	}
	return nil
}

func (w *fakeWrapper) Fail(ctx context.Context, msg string, err error) {
	w.mu.Lock()
	w.state = job.Error
	w.calls.failed++
	w.calls.failMsg = msg
	w.calls.failErr = err
	w.mu.Unlock()
	w.once.Do(func() { close(w.terminal) })
}

func (w *fakeWrapper) Finish(ctx context.Context, stdout, stderr string) error {
	w.mu.Lock()
	w.state = job.OK
	w.calls.finished++
	w.calls.stdout = stdout
	w.calls.stderr = stderr
	w.mu.Unlock()
	w.once.Do(func() { close(w.terminal) })
	return nil
}

func (w *fakeWrapper) Cleanup(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls.cleanedUp++
}

func (w *fakeWrapper) SetRunner(ctx context.Context, url, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dest = url
	w.extID = id
	return nil
}

// snapshot returns a copy of the recorded callbacks.
func (w *fakeWrapper) snapshot() calls {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.calls
	c.states = append([]job.State(nil), w.calls.states...)
	return c
}

func waitTerminal(t *testing.T, w *fakeWrapper) {
	t.Helper()
	select {
	case <-w.terminal:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for job %s", w.id)
	}
}
