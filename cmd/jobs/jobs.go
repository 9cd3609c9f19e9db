// Package jobs contains the "gxrunner jobs" commands, which inspect and
// edit the job store.
package jobs

import (
	"context"
	"fmt"
	"io"

	"github.com/galaxyproject/gxrunner/cmd/util"
	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/job"
	"github.com/ghodss/yaml"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewCommand returns the "jobs" subcommands.
func NewCommand() *cobra.Command {
	cmd, _ := newCommandHooks()
	return cmd
}

type hooks struct {
	List   func(ctx context.Context, store job.Store, states []string, view string, w io.Writer) error
	Get    func(ctx context.Context, store job.Store, kind string, ids []string, w io.Writer) error
	Delete func(ctx context.Context, store job.Store, kind string, ids []string, w io.Writer) error
}

func newCommandHooks() (*cobra.Command, *hooks) {
	h := &hooks{
		List:   List,
		Get:    Get,
		Delete: Delete,
	}

	var configFile string
	flagConf := config.Config{}

	// withStore opens the configured store around f.
	withStore := func(f func(job.Store) error) error {
		conf, err := util.MergeConfigFileWithFlags(configFile, flagConf)
		if err != nil {
			return fmt.Errorf("error processing config: %v", err)
		}
		store, err := util.NewStore(conf)
		if err != nil {
			return err
		}
		defer store.Close()
		return f(store)
	}

	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Inspect and edit the job store.",
	}
	cmd.SetGlobalNormalizationFunc(util.NormalizeFlags)
	cmd.PersistentFlags().AddFlagSet(util.StoreFlags(&flagConf, &configFile))

	var (
		states   []string
		listView string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List jobs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store job.Store) error {
				return h.List(cmd.Context(), store, states, listView, cmd.OutOrStdout())
			})
		},
	}
	lf := list.Flags()
	lf.StringSliceVarP(&states, "state", "s", nil, "Only list jobs in these states")
	lf.StringVarP(&listView, "view", "v", "basic", "Job view: basic or full")

	var kind string
	get := &cobra.Command{
		Use:   "get [jobID ...]",
		Short: "Get one or more jobs by ID.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store job.Store) error {
				return h.Get(cmd.Context(), store, kind, args, cmd.OutOrStdout())
			})
		},
	}
	get.Flags().StringVar(&kind, "kind", string(job.Tool), "Job kind")

	del := &cobra.Command{
		Use:   "delete [jobID ...]",
		Short: "Mark one or more jobs as deleted. The next monitor cancels them.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store job.Store) error {
				return h.Delete(cmd.Context(), store, kind, args, cmd.OutOrStdout())
			})
		},
	}
	del.Flags().StringVar(&kind, "kind", string(job.Tool), "Job kind")

	cmd.AddCommand(list, get, del)
	return cmd, h
}

// List writes the jobs in the given states, or all jobs, to w. The basic
// view is a table; the full view is YAML.
func List(ctx context.Context, store job.Store, states []string, view string, w io.Writer) error {
	var filter []job.State
	for _, s := range states {
		st, err := job.ParseState(s)
		if err != nil {
			return err
		}
		filter = append(filter, st)
	}

	recs, err := store.ListJobs(ctx, filter...)
	if err != nil {
		return err
	}

	switch view {
	case "full":
		b, err := yaml.Marshal(recs)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case "basic":
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"ID", "Kind", "State", "External ID", "Destination"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetAutoWrapText(false)
		table.SetBorder(false)
		table.SetColumnSeparator("")
		for _, r := range recs {
			table.Append([]string{r.ID, string(r.Kind), string(r.State), r.ExternalID, r.DestinationURL})
		}
		table.Render()
		return nil
	}
	return fmt.Errorf("unknown view %q", view)
}

// Get writes the given jobs to w as YAML.
func Get(ctx context.Context, store job.Store, kind string, ids []string, w io.Writer) error {
	var recs []*job.Record
	for _, id := range ids {
		rec, err := store.GetJob(ctx, job.Key(job.Kind(kind), id))
		if err != nil {
			return fmt.Errorf("job %s: %v", id, err)
		}
		recs = append(recs, rec)
	}
	b, err := yaml.Marshal(recs)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Delete marks jobs as deleted. Jobs which already finished are left alone.
func Delete(ctx context.Context, store job.Store, kind string, ids []string, w io.Writer) error {
	for _, id := range ids {
		rec, err := store.GetJob(ctx, job.Key(job.Kind(kind), id))
		if err != nil {
			return fmt.Errorf("job %s: %v", id, err)
		}
		if rec.State.Terminal() {
			fmt.Fprintf(w, "%s: already %s\n", id, rec.State)
			continue
		}
		rec.State = job.Deleted
		if err := store.PutJob(ctx, rec); err != nil {
			return fmt.Errorf("job %s: %v", id, err)
		}
		fmt.Fprintf(w, "%s: deleted\n", id)
	}
	return nil
}
