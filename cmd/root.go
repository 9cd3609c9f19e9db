// Package cmd contains the gxrunner CLI commands.
package cmd

import (
	"github.com/galaxyproject/gxrunner/cmd/jobs"
	"github.com/galaxyproject/gxrunner/cmd/monitor"
	"github.com/galaxyproject/gxrunner/cmd/order"
	"github.com/galaxyproject/gxrunner/cmd/submit"
	"github.com/galaxyproject/gxrunner/cmd/version"
	"github.com/spf13/cobra"
)

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:           "gxrunner",
	Short:         "Run jobs on cluster schedulers and order workflow steps.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	RootCmd.AddCommand(completionCmd)
	RootCmd.AddCommand(jobs.NewCommand())
	RootCmd.AddCommand(monitor.NewCommand())
	RootCmd.AddCommand(order.NewCommand())
	RootCmd.AddCommand(submit.NewCommand())
	RootCmd.AddCommand(version.Cmd)
}
