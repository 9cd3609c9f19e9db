// Package monitor contains the "gxrunner monitor" command.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"syscall"
	"time"

	"github.com/galaxyproject/gxrunner/cmd/util"
	"github.com/galaxyproject/gxrunner/compute"
	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/job"
	"github.com/galaxyproject/gxrunner/logger"
	gxutil "github.com/galaxyproject/gxrunner/util"
	"github.com/galaxyproject/gxrunner/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// NewCommand returns the "monitor" command.
func NewCommand() *cobra.Command {
	var configFile string
	flagConf := config.Config{}

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run every pending job to completion.",
		Long: `Re-attaches to jobs left queued or running by an earlier process,
cancels jobs deleted since, submits every new job, and watches them until
none is left. Interrupting the monitor leaves running jobs to be recovered
by the next one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
			if err != nil {
				return fmt.Errorf("error processing config: %v", err)
			}
			ctx := gxutil.SignalContext(context.Background(), time.Millisecond, syscall.SIGINT, syscall.SIGTERM)
			return Run(ctx, conf)
		},
	}
	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	cmd.Flags().AddFlagSet(util.RunnerFlags(&flagConf, &configFile))
	return cmd
}

// Run recovers, stops and submits the jobs in the store, then blocks until
// none of them is pending or ctx is canceled.
func Run(ctx context.Context, conf config.Config) error {
	logger.Configure(conf.Logger)
	log := logger.NewSubLogger("monitor")
	log.Info("starting monitor", version.LogFields()...)

	store, err := util.NewStore(conf)
	if err != nil {
		return err
	}
	defer store.Close()

	open, err := util.NewOpener(conf)
	if err != nil {
		return err
	}

	if conf.Metrics.Addr != "" {
		srv := serveMetrics(conf.Metrics.Addr, log)
		defer srv.Close()
	}

	r, err := compute.NewRunner(conf.Runner, open, log)
	if err != nil {
		return err
	}
	defer func() {
		r.Shutdown()
		r.Wait()
	}()

	n, err := compute.RecoverJobs(ctx, r, store, log)
	if err != nil {
		log.Error("couldn't recover every job", "recovered", n, "error", err)
	}
	if err := stopDeleted(ctx, r, store, log); err != nil {
		return err
	}
	if err := submitNew(r, store, log); err != nil {
		return err
	}
	return waitIdle(ctx, store, time.Duration(conf.Runner.MonitorRate))
}

// stopDeleted cancels jobs deleted while no monitor was running.
func stopDeleted(ctx context.Context, r *compute.Runner, store job.Store, log *logger.Logger) error {
	recs, err := store.ListJobs(ctx, job.Deleted)
	if err != nil {
		return fmt.Errorf("listing deleted jobs: %v", err)
	}
	for _, rec := range recs {
		if rec.ExternalID == "" {
			continue
		}
		w := r.Wrap(rec, store)
		if err := r.Stop(ctx, w); err != nil {
			log.Error("couldn't stop deleted job", "job", rec.ID, "error", err)
			continue
		}
		w.Cleanup(ctx)
	}
	return nil
}

func submitNew(r *compute.Runner, store job.Store, log *logger.Logger) error {
	recs, err := store.ListJobs(context.Background(), job.New)
	if err != nil {
		return fmt.Errorf("listing new jobs: %v", err)
	}
	for _, rec := range recs {
		if err := r.Put(r.Wrap(rec, store)); err != nil {
			return err
		}
	}
	log.Info("submitting new jobs", "count", len(recs))
	return nil
}

// waitIdle blocks until no job in the store is new or being watched.
func waitIdle(ctx context.Context, store job.Store, every time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for range gxutil.Ticker(ctx, every) {
		recs, err := store.ListJobs(ctx, job.New, job.Queued, job.Running)
		if err != nil {
			return err
		}
		pending := 0
		for _, rec := range recs {
			if rec.State == job.New || compute.Recoverable(rec) {
				pending++
			}
		}
		if pending == 0 {
			return nil
		}
	}
	return ctx.Err()
}

func serveMetrics(addr string, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)
	return srv
}
