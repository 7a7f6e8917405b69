package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/limaJavier/ilpenum/internal/config"
	"github.com/limaJavier/ilpenum/pkg/enumerate"
	"github.com/limaJavier/ilpenum/pkg/logging"
	"github.com/limaJavier/ilpenum/pkg/model"
	"github.com/limaJavier/ilpenum/pkg/results"
	"github.com/limaJavier/ilpenum/pkg/solver"
	"github.com/limaJavier/ilpenum/pkg/workspace"
)

type enumerateFlags struct {
	configPath   string
	minimum      int64
	quiet        bool
	resultFile   string
	maxSolutions int
	workspace    string
	force        bool
	solver       string
	strategy     string
	poolSize     int
	timeout      time.Duration
	format       string
	logBackend   string
	noColor      bool
}

func newEnumerateCommand(stdout, stderr io.Writer) *cobra.Command {
	flags := &enumerateFlags{}
	command := &cobra.Command{
		Use:   "enumerate <ilp-file>",
		Short: "Enumerates the solutions of a 0/1 ILP",
		Long: `Solves the model, records the solution, adds a constraint forbidding its variables at 1 from
being selected together again and solves again, until the model becomes infeasible, a solution
reaches the minimum objective or enough solutions were recorded. For instance:
maximize a + b + c
such that
a + b <= 1
binary
a
b
c
end
`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return errors.Errorf("file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			settings, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runEnumeration(cmd.Context(), args[0], settings, stdout, stderr)
		},
	}

	defaults := config.Default()
	command.Flags().StringVar(&flags.configPath, "config", "", fmt.Sprintf("Path to the config file, %v next to the executable is used otherwise", config.FileName))
	command.Flags().Int64VarP(&flags.minimum, "min", "m", defaults.Minimum, "Stop once a solution's objective is at or below this value, that solution is not recorded")
	command.Flags().BoolVarP(&flags.quiet, "quiet", "q", defaults.Quiet, "Keep solver output out of the console, it is still written to every run's output.txt")
	command.Flags().StringVarP(&flags.resultFile, "resultfile", "r", defaults.ResultFile, fmt.Sprintf("File the solutions are appended to, %v inside the workspace by default", workspace.ResultsName))
	command.Flags().IntVarP(&flags.maxSolutions, "num-sols", "n", defaults.MaxSolutions, "Stop after recording this many solutions, 0 means no limit")
	command.Flags().StringVarP(&flags.workspace, "workspace", "w", defaults.Workspace, "Workspace directory, a new results_NNN directory is created otherwise")
	command.Flags().BoolVarP(&flags.force, "force", "f", defaults.Force, "Override the workspace directory if it already exists")
	command.Flags().StringVarP(&flags.solver, "solver", "s", defaults.Solver, fmt.Sprintf("Solver to use, one of %v", solver.Names()))
	command.Flags().StringVar(&flags.strategy, "strategy", defaults.Strategy, fmt.Sprintf("Solutions per solver call, one of %v", enumerate.Strategies))
	command.Flags().IntVar(&flags.poolSize, "pool-size", defaults.PoolSize, "Solutions requested per call by the pool strategy")
	command.Flags().DurationVar(&flags.timeout, "timeout", defaults.Timeout, "Time limit of every solver call, 0 means none")
	command.Flags().StringVar(&flags.format, "format", defaults.ResultFormat, fmt.Sprintf("Result file format, one of %v", results.Formats))
	command.Flags().StringVar(&flags.logBackend, "log-backend", defaults.LogBackend, fmt.Sprintf("Logging backend, one of %v", config.LogBackends))
	command.Flags().BoolVar(&flags.noColor, "no-color", !defaults.Color, "Disable colored output")
	return command
}

// resolveConfig layers the config file over the defaults and the flags given explicitly over both
func resolveConfig(cmd *cobra.Command, flags *enumerateFlags) (config.Config, error) {
	settings := config.Default()
	path, found := flags.configPath, flags.configPath != ""
	if !found {
		path, found = config.Locate()
	}
	if found {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		settings = loaded
	}

	changed := cmd.Flags().Changed
	if changed("min") {
		settings.Minimum = flags.minimum
	}
	if changed("quiet") {
		settings.Quiet = flags.quiet
	}
	if changed("resultfile") {
		settings.ResultFile = flags.resultFile
	}
	if changed("num-sols") {
		settings.MaxSolutions = flags.maxSolutions
	}
	if changed("workspace") {
		settings.Workspace = flags.workspace
	}
	if changed("force") {
		settings.Force = flags.force
	}
	if changed("solver") {
		settings.Solver = flags.solver
	}
	if changed("strategy") {
		settings.Strategy = flags.strategy
	}
	if changed("pool-size") {
		settings.PoolSize = flags.poolSize
	}
	if changed("timeout") {
		settings.Timeout = flags.timeout
	}
	if changed("format") {
		settings.ResultFormat = flags.format
	}
	if changed("log-backend") {
		settings.LogBackend = flags.logBackend
	}
	if changed("no-color") {
		settings.Color = !flags.noColor
	}
	return settings, settings.Validate()
}

func runEnumeration(ctx context.Context, modelPath string, settings config.Config, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logger logging.Logger
	if settings.LogBackend == "glog" {
		logger = logging.NewGlog("Solver")
	} else {
		logger = logging.NewConsole(stdout, stderr, "Solver", !settings.Color)
	}

	var (
		work *workspace.Workspace
		err  error
	)
	if settings.Workspace != "" {
		work, err = workspace.Create(settings.Workspace, settings.Force, logger)
	} else {
		work, err = workspace.CreateNumbered(".", logger)
	}
	if err != nil {
		return err
	}
	logger.Printf("Workspace: %v", work.Root())

	basePath, err := work.CopyBaseModel(modelPath)
	if err != nil {
		return err
	}
	document, err := model.LoadFile(basePath)
	if err != nil {
		return err
	}

	resultPath := settings.ResultFile
	if resultPath == "" {
		resultPath = work.Join(workspace.ResultsName)
	}
	sink, err := results.NewFileSink(resultPath, results.Format(settings.ResultFormat))
	if err != nil {
		return err
	}

	backend, err := solver.New(settings.Solver, solver.Settings{
		Logger:     logger,
		Quiet:      settings.Quiet,
		GurobiPath: settings.GurobiPath,
		Parameters: settings.GurobiParameters,
	})
	if err != nil {
		return err
	}

	loop, err := enumerate.NewLoop(document, backend, enumerate.Options{
		Minimum:      settings.Minimum,
		MaxSolutions: settings.MaxSolutions,
		Timeout:      settings.Timeout,
		Strategy:     enumerate.Strategy(settings.Strategy),
		PoolSize:     settings.PoolSize,
		Runs:         work,
		Sink:         sink,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	summary, err := loop.Run(ctx)
	logger.Printf("%v after %d runs: %d solutions written to %v", summary.State, summary.Runs, len(summary.Solutions), resultPath)
	if err != nil {
		return err
	} else if summary.State == enumerate.StoppedCancelled {
		return errCancelled
	}
	return nil
}
