package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Command line flag names shared by the CLI and ApplyFlags
const (
	FlagFormat         = "format"
	FlagStats          = "stats"
	FlagColor          = "color"
	FlagDump           = "dump"
	FlagDeclarations   = "declarations"
	FlagMaxSteps       = "max-steps"
	FlagCheckEveryStep = "check"
	FlagNoCache        = "no-cache"
	FlagInclude        = "include"
	FlagExclude        = "exclude"
	FlagRecursive      = "recursive"
	FlagJobs           = "jobs"
	FlagTimeout        = "timeout"
)

// ApplyFlags overrides config values with the flags the user set explicitly.
// Flags left at their default never override the config file.
func ApplyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	fs.Visit(func(f *pflag.Flag) {
		var err error
		switch f.Name {
		case FlagFormat:
			cfg.Output.Format, err = fs.GetString(f.Name)
		case FlagStats:
			cfg.Output.ShowStats, err = fs.GetBool(f.Name)
		case FlagColor:
			cfg.Output.Color, err = fs.GetBool(f.Name)
		case FlagDump:
			cfg.Output.ShowDump, err = fs.GetBool(f.Name)
		case FlagDeclarations:
			cfg.Output.ShowDeclarations, err = fs.GetBool(f.Name)
		case FlagMaxSteps:
			cfg.Engine.MaxSteps, err = fs.GetInt(f.Name)
		case FlagCheckEveryStep:
			cfg.Engine.CheckEveryStep, err = fs.GetBool(f.Name)
		case FlagNoCache:
			var noCache bool
			noCache, err = fs.GetBool(f.Name)
			cfg.Cache.Enabled = !noCache
		case FlagInclude:
			var patterns []string
			patterns, err = fs.GetStringSlice(f.Name)
			if len(patterns) > 0 {
				cfg.Input.IncludePatterns = patterns
			}
		case FlagExclude:
			cfg.Input.ExcludePatterns, err = fs.GetStringSlice(f.Name)
		case FlagRecursive:
			cfg.Input.Recursive, err = fs.GetBool(f.Name)
		case FlagJobs:
			cfg.Performance.MaxGoroutines, err = fs.GetInt(f.Name)
		case FlagTimeout:
			cfg.Performance.TimeoutSeconds, err = fs.GetInt(f.Name)
		}
		if err != nil {
			record(fmt.Errorf("flag --%s: %w", f.Name, err))
		}
	})
	if firstErr != nil {
		return firstErr
	}
	return cfg.Validate()
}
