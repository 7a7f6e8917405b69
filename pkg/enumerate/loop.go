package enumerate

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/limaJavier/ilpenum/pkg/logging"
	"github.com/limaJavier/ilpenum/pkg/model"
	"github.com/limaJavier/ilpenum/pkg/results"
	"github.com/limaJavier/ilpenum/pkg/solution"
	"github.com/limaJavier/ilpenum/pkg/solver"
)

type State int

const (
	Init State = iota
	Iterating
	StoppedInfeasible // The solver found nothing, or nothing set to 1
	StoppedThreshold  // A solution reached the minimum objective, it was not recorded
	StoppedLimit      // The requested number of solutions was recorded
	StoppedCancelled  // The context was done between runs
)

func (state State) String() string {
	switch state {
	case Init:
		return "INIT"
	case Iterating:
		return "ITERATING"
	case StoppedInfeasible:
		return "STOPPED_INFEASIBLE"
	case StoppedThreshold:
		return "STOPPED_THRESHOLD"
	case StoppedLimit:
		return "STOPPED_LIMIT"
	case StoppedCancelled:
		return "STOPPED_CANCELLED"
	}
	return "UNKNOWN"
}

func (state State) Terminal() bool {
	return state >= StoppedInfeasible
}

// RunDirectories hands out the scratch directory of every run; workspace.Workspace is one
type RunDirectories interface {
	CreateRun(run int) (string, error)
}

type Options struct {
	Minimum      int64         // Solutions at or below it stop the loop
	MaxSolutions int           // 0 means no limit
	Timeout      time.Duration // Per solver call, 0 means none
	Strategy     Strategy
	PoolSize     int
	Runs         RunDirectories
	Sink         results.Sink
	Logger       logging.Logger
	OnSolution   func(run int, record *solution.Record)
}

type Summary struct {
	State            State
	Runs             int
	Solutions        []results.Entry
	ConstraintsAdded int
}

// Loop enumerates the solutions of a model by solving it, recording the solution, forbidding
// its variables at 1 from being selected together again and solving again. The model only grows.
type Loop struct {
	document *model.Document
	invoker  invoker
	options  Options
	logger   logging.Logger
	run      int
	summary  Summary
}

func NewLoop(document *model.Document, backend solver.ILPSolver, options Options) (*Loop, error) {
	if options.Runs == nil {
		return nil, errors.New("a run directory provider is required")
	} else if options.MaxSolutions < 0 {
		return nil, errors.Errorf("the number of solutions cannot be negative, got %d", options.MaxSolutions)
	}
	if options.PoolSize <= 0 {
		options.PoolSize = DefaultPoolSize
	}
	if options.Logger == nil {
		options.Logger = logging.Discard()
	}

	maximize := true
	if objective, err := model.ParseObjective(document.Objective()); err == nil {
		maximize = objective.Maximize
	}
	invoker, err := newInvoker(options.Strategy, backend, maximize)
	if err != nil {
		return nil, err
	}

	return &Loop{
		document: document,
		invoker:  invoker,
		options:  options,
		logger:   options.Logger.Named("Enumerate", logging.DefaultTag),
		run:      1,
		summary:  Summary{State: Init},
	}, nil
}

func (loop *Loop) State() State { return loop.summary.State }

// Run iterates until a stop state is reached. Solver, sink and run directory failures end the
// loop with an error; the summary still tells how far it went.
func (loop *Loop) Run(ctx context.Context) (Summary, error) {
	if loop.summary.State.Terminal() {
		return loop.Summary(), nil
	}
	loop.summary.State = Iterating

	for !loop.summary.State.Terminal() {
		if ctx.Err() != nil {
			loop.stop(StoppedCancelled, "cancelled before run #%d", loop.run)
			break
		}

		directory, err := loop.options.Runs.CreateRun(loop.run)
		if err != nil {
			return loop.Summary(), err
		}

		loop.logger.Printf("Starting Run #%d", loop.run)
		batch, err := loop.solve(ctx, directory)
		loop.summary.Runs++
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				loop.stop(StoppedCancelled, "cancelled during run #%d", loop.run)
				break
			}
			return loop.Summary(), errors.Wrapf(err, "run #%d", loop.run)
		}

		if err := loop.consume(batch); err != nil {
			return loop.Summary(), errors.Wrapf(err, "run #%d", loop.run)
		}
		loop.run++
	}
	return loop.Summary(), nil
}

func (loop *Loop) Summary() Summary {
	summary := loop.summary
	summary.Solutions = append([]results.Entry(nil), loop.summary.Solutions...)
	return summary
}

func (loop *Loop) solve(ctx context.Context, directory string) ([]*solution.Record, error) {
	if loop.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, loop.options.Timeout)
		defer cancel()
	}

	size := loop.options.PoolSize
	if loop.options.MaxSolutions > 0 {
		size = min(size, loop.options.MaxSolutions-len(loop.summary.Solutions))
	}
	return loop.invoker.invoke(ctx, loop.document, directory, size)
}

// consume applies the stop rules to every record of a batch in order and excludes each
// accepted one before looking at the next
func (loop *Loop) consume(batch []*solution.Record) error {
	if len(batch) == 0 {
		loop.stop(StoppedInfeasible, "the solver returned no solution at run #%d", loop.run)
		return nil
	}

	for _, record := range batch {
		ones := record.Ones()
		if !record.Feasible || len(ones) == 0 {
			loop.stop(StoppedInfeasible, "no feasible solution with a variable at 1 at run #%d", loop.run)
			return nil
		}
		if record.Objective <= loop.options.Minimum {
			loop.stop(StoppedThreshold, "objective %d reached the minimum %d at run #%d", record.Objective, loop.options.Minimum, loop.run)
			return nil
		}

		if loop.options.Sink != nil {
			if err := loop.options.Sink.Record(record); err != nil {
				return err
			}
		}
		loop.summary.Solutions = append(loop.summary.Solutions, results.Entry{Objective: record.Objective, Variables: ones})
		loop.logger.Printf("Run #%d found objective %d with %d variables at 1", loop.run, record.Objective, len(ones))
		if loop.options.OnSolution != nil {
			loop.options.OnSolution(loop.run, record)
		}

		exclusion, err := model.Exclusion(ones)
		if err != nil {
			return err
		}
		loop.document.AppendConstraint(exclusion)
		loop.summary.ConstraintsAdded++

		if loop.options.MaxSolutions > 0 && len(loop.summary.Solutions) >= loop.options.MaxSolutions {
			loop.stop(StoppedLimit, "%d solutions recorded", len(loop.summary.Solutions))
			return nil
		}
	}
	return nil
}

func (loop *Loop) stop(state State, format string, args ...any) {
	loop.summary.State = state
	loop.logger.Printf("Stopping (%v): "+format, append([]any{state}, args...)...)
}
