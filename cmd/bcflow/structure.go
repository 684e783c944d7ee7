package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ludo-technologies/bcflow/app"
	"github.com/ludo-technologies/bcflow/domain"
	"github.com/ludo-technologies/bcflow/internal/config"
	"github.com/ludo-technologies/bcflow/internal/logging"
	"github.com/ludo-technologies/bcflow/service"
)

// Exit codes
const (
	exitOK       = 0
	exitError    = 1
	exitFailures = 2
)

// ExitError carries the process exit code of a command failure.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return exitError
}

// StructureCommand represents the structure command
type StructureCommand struct {
	configPath    string
	outputPath    string
	json          bool
	yaml          bool
	quiet         bool
	allowFailures bool
}

// NewStructureCommand creates a new structure command
func NewStructureCommand() *StructureCommand {
	return &StructureCommand{}
}

// CreateCobraCommand creates the cobra command for structuring method files
func (c *StructureCommand) CreateCobraCommand() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "structure [paths...]",
		Short: "Structure the methods of bytecode method files",
		Long: `Structure every method found in the given method files or directories.

Each method's control-flow graph is reduced to nested if/else, loop, try/catch
and synchronized blocks and printed as Java-like pseudo source. Methods whose
graph cannot be reduced are reported as failed together with the partial tree.

Settings are read from .bcflow.toml (see 'bcflow init'); flags given on the
command line take precedence.

Examples:
  # Structure every method file below the current directory
  bcflow structure .

  # Show reduction statistics without the dumps
  bcflow structure --dump=false --stats classes/

  # Verify the tree after every reduction step
  bcflow structure --check Foo.yaml

  # Write a JSON report
  bcflow structure --json -o report.json classes/

Exit codes:
  0  every method was structured
  1  the command failed
  2  some methods or files failed (disable with --allow-failures)`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.runStructure,
	}

	flags := cmd.Flags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Configuration file path")
	flags.StringVarP(&c.outputPath, "output", "o", "", "Write the report to a file")
	flags.BoolVar(&c.json, "json", false, "Shortcut for --format json")
	flags.BoolVar(&c.yaml, "yaml", false, "Shortcut for --format yaml")
	flags.BoolVarP(&c.quiet, "quiet", "q", false, "Suppress progress output")
	flags.BoolVar(&c.allowFailures, "allow-failures", false, "Exit 0 even if some methods failed")

	// Flags below override the configuration file when set
	flags.String(config.FlagFormat, defaults.Output.Format, "Output format (text|json|yaml)")
	flags.Bool(config.FlagStats, defaults.Output.ShowStats, "Show reduction statistics per method")
	flags.Bool(config.FlagColor, defaults.Output.Color, "Colorize text output")
	flags.Bool(config.FlagDump, defaults.Output.ShowDump, "Print the structured dump of each method")
	flags.Bool(config.FlagDeclarations, defaults.Output.ShowDeclarations, "Print variable declarations in dumps")
	flags.Int(config.FlagMaxSteps, defaults.Engine.MaxSteps, "Abort a method after this many reductions (0 = no limit)")
	flags.Bool(config.FlagCheckEveryStep, defaults.Engine.CheckEveryStep, "Check tree consistency after every reduction")
	flags.Bool(config.FlagNoCache, false, "Do not read or write the result cache")
	flags.StringSlice(config.FlagInclude, nil, "Include file patterns")
	flags.StringSlice(config.FlagExclude, nil, "Exclude file patterns")
	flags.Bool(config.FlagRecursive, defaults.Input.Recursive, "Recursively collect method files")
	flags.IntP(config.FlagJobs, "j", defaults.Performance.MaxGoroutines, "Files structured in parallel (0 = unlimited)")
	flags.Int(config.FlagTimeout, defaults.Performance.TimeoutSeconds, "Overall timeout in seconds (0 = none)")

	return cmd
}

// resolveRequest loads the configuration, applies the changed flags and
// builds the request.
func (c *StructureCommand) resolveRequest(cmd *cobra.Command, args []string) (*domain.StructureRequest, error) {
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration", err)
	}
	if err := config.ApplyFlags(cfg, cmd.Flags()); err != nil {
		return nil, domain.NewConfigError("invalid flags", err)
	}

	format, ext, err := service.NewOutputFormatResolver().Determine(cfg.Output.Format, c.json, c.yaml)
	if err != nil {
		return nil, domain.NewInvalidInputError("invalid output format", err)
	}
	cfg.Output.Format = string(format)

	req := service.RequestFromConfig(cfg)
	req.Paths = args
	req.OutputWriter = cmd.OutOrStdout()
	req.OutputPath = c.outputPath
	if req.OutputPath != "" && filepath.Ext(req.OutputPath) == "" {
		req.OutputPath += "." + ext
	}
	if req.OutputPath != "" {
		// Escape codes do not belong in report files
		req.Color = false
		req.Engine.Color = false
	}
	return req, nil
}

func (c *StructureCommand) runStructure(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	req, err := c.resolveRequest(cmd, args)
	if err != nil {
		c.reportError(cmd.ErrOrStderr(), err)
		return &ExitError{Code: exitError, Err: err}
	}
	logger.Debugw("resolved request", "paths", req.Paths, "format", req.OutputFormat, "engine", req.Engine)

	useCase, progress, err := c.buildUseCase(cmd, req, logger)
	if err != nil {
		return &ExitError{Code: exitError, Err: err}
	}
	defer progress.Close()

	response, err := useCase.Execute(cmd.Context(), *req)
	if err != nil {
		c.reportError(cmd.ErrOrStderr(), err)
		return &ExitError{Code: exitError, Err: err}
	}

	if response.HasFailures() && !c.allowFailures {
		return &ExitError{
			Code: exitFailures,
			Err: fmt.Errorf("%d of %d method(s) failed, %d file(s) could not be read",
				response.Summary.FailedMethods, response.Summary.TotalMethods, len(response.Errors)),
		}
	}
	return nil
}

func (c *StructureCommand) buildUseCase(cmd *cobra.Command, req *domain.StructureRequest, logger *zap.SugaredLogger) (*app.StructureUseCase, *service.ProgressManagerImpl, error) {
	reader := service.NewMethodFileReader()

	svc := service.NewStructureService(reader, logger)
	if req.UseCache {
		svc.SetCache(service.NewResultCache(req.CacheDir))
	}

	executor := service.NewParallelExecutor()
	executor.SetLogger(logger)
	svc.SetExecutor(executor)

	progress := service.NewProgressManager()
	progress.SetWriter(cmd.ErrOrStderr())
	if c.quiet {
		progress.SetInteractive(false)
	}
	svc.SetProgress(progress)

	useCase, err := app.NewStructureUseCaseBuilder().
		WithService(svc).
		WithFileReader(reader).
		WithFormatter(service.NewOutputFormatter()).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create structure use case: %w", err)
	}
	return useCase, progress, nil
}

// reportError prints a categorized error with recovery suggestions.
func (c *StructureCommand) reportError(w io.Writer, err error) {
	categorizer := service.NewErrorCategorizer()
	categorized := categorizer.Categorize(err)

	fmt.Fprintf(w, "Error [%s]: %s\n", categorized.Category, categorized.Message)
	if categorized.Message != err.Error() {
		fmt.Fprintf(w, "  %v\n", err)
	}
	suggestions := categorizer.GetRecoverySuggestions(categorized.Category)
	if len(suggestions) > 0 {
		fmt.Fprintln(w, "\nSuggestions:")
		for _, s := range suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}

// NewStructureCmd creates and returns the structure cobra command
func NewStructureCmd() *cobra.Command {
	return NewStructureCommand().CreateCobraCommand()
}
