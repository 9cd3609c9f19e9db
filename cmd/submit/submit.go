// Package submit contains the "gxrunner submit" command.
package submit

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/galaxyproject/gxrunner/cmd/util"
	"github.com/galaxyproject/gxrunner/compute"
	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/job"
	"github.com/galaxyproject/gxrunner/logger"
	gxutil "github.com/galaxyproject/gxrunner/util"
	"github.com/spf13/cobra"
)

// Options describes the job to submit.
type Options struct {
	CommandLine string
	Kind        string
	WorkDir     string
	LibraryPath string
	Destination string
	// Run the job to completion instead of only recording it.
	Wait bool
}

// NewCommand returns the "submit" command.
func NewCommand() *cobra.Command {
	var configFile string
	flagConf := config.Config{}
	opts := Options{}

	cmd := &cobra.Command{
		Use:   "submit [flags] -- <command line>",
		Short: "Record a new job, and optionally run it to completion.",
		Long: `Records a new job in the job store. The job is run by the next
"gxrunner monitor", or right away with --wait.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			opts.CommandLine = strings.Join(args, " ")

			ctx := gxutil.SignalContext(context.Background(), time.Millisecond, syscall.SIGINT, syscall.SIGTERM)
			return Run(ctx, conf, opts, cmd.OutOrStdout())
		},
	}
	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)

	f := cmd.Flags()
	f.AddFlagSet(util.RunnerFlags(&flagConf, &configFile))
	f.StringVar(&opts.Kind, "kind", string(job.Tool), "Job kind: tool, task or set_metadata")
	f.StringVar(&opts.WorkDir, "workdir", "", "Directory the command runs in (default {Runner.WorkDir}/{id})")
	f.StringVar(&opts.LibraryPath, "library-path", "", "Library path exported before running the command")
	f.StringVar(&opts.Destination, "destination", "", "Destination URL, e.g. sge://cell/queue")
	f.BoolVar(&opts.Wait, "wait", false, "Run the job and wait for it to finish")
	return cmd
}

// Run records a new job and, with Options.Wait, runs it to completion,
// writing its stdout to w.
func Run(ctx context.Context, conf config.Config, opts Options, w io.Writer) error {
	logger.Configure(conf.Logger)
	log := logger.NewSubLogger("submit")

	kind := job.Kind(opts.Kind)
	switch kind {
	case job.Tool, job.Task, job.SetMetadata:
	default:
		return fmt.Errorf("unknown job kind %q", opts.Kind)
	}

	store, err := util.NewStore(conf)
	if err != nil {
		return err
	}
	defer store.Close()

	id := gxutil.GenJobID()
	workdir := opts.WorkDir
	if workdir == "" {
		workdir = filepath.Join(conf.Runner.WorkDir, id)
	}
	now := time.Now()
	rec := &job.Record{
		ID:             id,
		Kind:           kind,
		State:          job.New,
		CommandLine:    opts.CommandLine,
		WorkDir:        workdir,
		LibraryPath:    opts.LibraryPath,
		DestinationURL: opts.Destination,
		Created:        now,
		Updated:        now,
	}
	if err := store.PutJob(ctx, rec); err != nil {
		return fmt.Errorf("recording job: %v", err)
	}
	log.Info("recorded job", "job", id, "kind", string(kind))

	if !opts.Wait {
		fmt.Fprintln(w, id)
		return nil
	}
	return runJob(ctx, conf, store, rec, w, log)
}

func runJob(ctx context.Context, conf config.Config, store job.Store, rec *job.Record, w io.Writer, log *logger.Logger) error {
	open, err := util.NewOpener(conf)
	if err != nil {
		return err
	}
	r, err := compute.NewRunner(conf.Runner, open, log)
	if err != nil {
		return err
	}
	defer func() {
		r.Shutdown()
		r.Wait()
	}()

	wrapper := r.Wrap(rec, store)
	if err := r.Submit(ctx, wrapper); err != nil {
		return err
	}

	err = util.WaitJobs(ctx, store, time.Duration(conf.Runner.MonitorRate), rec.Key())
	if err != nil {
		log.Info("stopped waiting, the job will be recovered by the next monitor", "job", rec.ID)
		return err
	}

	final, err := store.GetJob(ctx, rec.Key())
	if err != nil {
		return err
	}
	fmt.Fprint(w, final.Stdout)
	if final.State != job.OK {
		return fmt.Errorf("job %s is %s: %s", final.ID, final.State, final.Info)
	}
	return nil
}
