package util

import (
	"strings"

	"github.com/galaxyproject/gxrunner/config"
	"github.com/spf13/pflag"
)

func normalize(name string) string {
	from := []string{"-", "_"}
	to := "."
	for _, sep := range from {
		name = strings.Replace(name, sep, to, -1)
	}
	return strings.ToLower(name)
}

// NormalizeFlags allows for flags to be case and separator insensitive.
// Use it by passing it to cobra.Command.SetGlobalNormalizationFunc
func NormalizeFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	lookup := map[string]string{"help": "help", normalize(name): name}

	f.VisitAll(func(f *pflag.Flag) {
		lookup[normalize(f.Name)] = f.Name
	})

	return pflag.NormalizedName(lookup[normalize(name)])
}

// RunnerFlags returns a new flag set for configuring the cluster runner.
func RunnerFlags(flagConf *config.Config, configFile *string) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVarP(configFile, "config", "c", *configFile, "Config File")

	f.AddFlagSet(selectorFlags(flagConf))
	f.AddFlagSet(runnerFlags(flagConf))
	f.AddFlagSet(dbFlags(flagConf))
	f.AddFlagSet(loggerFlags(flagConf))

	return f
}

// StoreFlags returns a new flag set for commands which only read or write
// the job store.
func StoreFlags(flagConf *config.Config, configFile *string) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVarP(configFile, "config", "c", *configFile, "Config File")

	f.StringVar(&flagConf.Database, "Database", flagConf.Database, "Name of database backend to use.")
	f.AddFlagSet(dbFlags(flagConf))
	f.AddFlagSet(loggerFlags(flagConf))

	return f
}

func selectorFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Backend, "Backend", flagConf.Backend, "Name of scheduler backend to use.")
	f.StringVar(&flagConf.Database, "Database", flagConf.Database, "Name of database backend to use.")

	return f
}

func runnerFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Runner.WorkDir, "Runner.WorkDir", flagConf.Runner.WorkDir, "Directory for job scripts and output captures")
	f.StringVar(&flagConf.Runner.LibraryPath, "Runner.LibraryPath", flagConf.Runner.LibraryPath, "Library path exported into job scripts")
	f.StringVar(&flagConf.Runner.DefaultDestination, "Runner.DefaultDestination", flagConf.Runner.DefaultDestination, "Destination of jobs which don't name one")
	f.BoolVar(&flagConf.Runner.Debug, "Runner.Debug", flagConf.Runner.Debug, "Keep job scripts and output captures")
	f.Var(&flagConf.Runner.MonitorRate, "Runner.MonitorRate", "How often the monitor loop checks job status")
	f.Float64Var(&flagConf.Runner.PollRate, "Runner.PollRate", flagConf.Runner.PollRate, "Maximum status queries per second (0 is unlimited)")
	f.IntVar(&flagConf.Runner.Workers, "Runner.Workers", flagConf.Runner.Workers, "Number of concurrent submissions")
	f.StringVar(&flagConf.Metrics.Addr, "Metrics.Addr", flagConf.Metrics.Addr, "Address to serve prometheus metrics on")

	return f
}

func dbFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.BoltDB.Path, "BoltDB.Path", flagConf.BoltDB.Path, "Path to BoltDB database")
	f.StringVar(&flagConf.Badger.Path, "Badger.Path", flagConf.Badger.Path, "Path to Badger database directory")

	return f
}

func loggerFlags(flagConf *config.Config) *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)

	f.StringVar(&flagConf.Logger.Level, "Logger.Level", flagConf.Logger.Level, "Level of logging")
	f.StringVar(&flagConf.Logger.OutputFile, "Logger.OutputFile", flagConf.Logger.OutputFile, "File path to write logs to")
	f.StringVar(&flagConf.Logger.Formatter, "Logger.Formatter", flagConf.Logger.Formatter, "Logs formatter. One of ['text', 'json']")

	return f
}
