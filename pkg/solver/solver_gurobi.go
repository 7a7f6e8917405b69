package solver

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/limaJavier/ilpenum/pkg/logging"
	"github.com/limaJavier/ilpenum/pkg/model"
	"github.com/limaJavier/ilpenum/pkg/solution"
)

const (
	defaultGurobiPath = "gurobi_cl"
	poolPrefix        = "pool"
	outputGrace       = 2 * time.Second
)

type gurobiSolver struct {
	path       string
	parameters map[string]string
	quiet      bool
	logger     logging.Logger
}

// NewGurobiSolver returns a backend running gurobi_cl; it also serves solution pools
func NewGurobiSolver(settings Settings) ILPSolver {
	path := settings.GurobiPath
	if path == "" {
		path = defaultGurobiPath
	} else if strings.ContainsRune(path, filepath.Separator) {
		// Relative paths would otherwise resolve against the run directory
		if absolute, err := filepath.Abs(path); err == nil {
			path = absolute
		}
	}
	logger := settings.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &gurobiSolver{
		path:       path,
		parameters: settings.Parameters,
		quiet:      settings.Quiet,
		logger:     logger.Named("Gurobi", logging.SolverTag),
	}
}

func (solver *gurobiSolver) Solve(ctx context.Context, document *model.Document, workingDirectory string) (*solution.Record, error) {
	workingDirectory, err := filepath.Abs(workingDirectory)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot resolve run directory %q", workingDirectory)
	}
	files, err := prepareRun(document, workingDirectory)
	if err != nil {
		return nil, err
	}

	if err := solver.run(ctx, workingDirectory, files); err != nil {
		return nil, err
	}
	return solution.ParseFile(files.result)
}

// SolvePool asks gurobi_cl for up to size solutions in one call. The optimum comes from the result
// file and the other members from the solutions written under SolFiles, newest first since each
// one improves on the previous.
func (solver *gurobiSolver) SolvePool(ctx context.Context, document *model.Document, workingDirectory string, size int) ([]*solution.Record, error) {
	workingDirectory, err := filepath.Abs(workingDirectory)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot resolve run directory %q", workingDirectory)
	}
	files, err := prepareRun(document, workingDirectory)
	if err != nil {
		return nil, err
	}
	prefix := filepath.Join(workingDirectory, poolPrefix)
	stale, err := poolFiles(prefix)
	if err != nil {
		return nil, err
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return nil, errors.Wrapf(err, "cannot remove stale pool member %q", path)
		}
	}

	if err := solver.run(ctx, workingDirectory, files,
		"PoolSearchMode=2", fmt.Sprintf("PoolSolutions=%d", size), "SolFiles="+prefix,
	); err != nil {
		return nil, err
	}

	best, err := solution.ParseFile(files.result)
	if err != nil {
		return nil, err
	} else if !best.Feasible {
		return nil, nil
	}

	members, err := poolFiles(prefix)
	if err != nil {
		return nil, err
	}
	pool := []*solution.Record{best}
	for _, path := range lo.Reverse(members) {
		record, err := solution.ParseFile(path)
		if err != nil {
			return nil, err
		} else if record.Feasible {
			pool = append(pool, record)
		}
	}
	pool = lo.UniqBy(pool, func(record *solution.Record) string { return strings.Join(record.Ones(), " ") })
	if len(pool) > size {
		pool = pool[:size]
	}
	return pool, nil
}

type streamed struct {
	tail []string
	err  error
}

// run executes gurobi_cl in the run directory, streaming its output to output.txt and the logger
func (solver *gurobiSolver) run(ctx context.Context, workingDirectory string, files runFiles, extra ...string) error {
	output, err := os.Create(files.output)
	if err != nil {
		return errors.Wrapf(err, "cannot create solver output %q", files.output)
	}
	defer output.Close()

	// Stdout and stderr share one pipe so that output.txt keeps their interleaving
	reader, writer, err := os.Pipe()
	if err != nil {
		return errors.Wrap(err, "cannot create solver output pipe")
	}
	defer reader.Close()

	cmd := exec.CommandContext(ctx, solver.path, solver.arguments(files, extra...)...)
	cmd.Dir = workingDirectory // gurobi.log lands in the run directory
	cmd.Stdout = writer
	cmd.Stderr = writer
	cmd.WaitDelay = outputGrace
	killProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		writer.Close()
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return errors.Wrapf(ErrSolverNotFound, "%v: make sure Gurobi is installed and %v is in PATH", err, solver.path)
		}
		return errors.Wrapf(err, "cannot start %v", solver.path)
	}
	writer.Close() // The child holds its own copy

	done := make(chan streamed, 1)
	go func() {
		tail, err := streamOutput(reader, output, solver.logger, solver.quiet)
		if err != nil {
			io.Copy(io.Discard, reader) // The solver would block on a full pipe otherwise
		}
		done <- streamed{tail, err}
	}()

	waitErr := cmd.Wait()
	var stream streamed
	select {
	case stream = <-done:
	case <-time.After(outputGrace):
		reader.Close() // A process outliving the solver still holds the pipe
		if stream = <-done; errors.Is(stream.err, os.ErrClosed) {
			stream.err = nil
		}
	}

	if waitErr != nil {
		if ctx.Err() != nil {
			return contextError(ctx)
		}
		return errors.Errorf("%v failed (%v):\n%v", solver.path, waitErr, strings.Join(stream.tail, "\n"))
	}
	if stream.err != nil {
		return errors.Wrapf(stream.err, "cannot stream the output of %v", solver.path)
	}
	return nil
}

// arguments puts ResultFile first, then extra, then the configured parameters sorted by name
func (solver *gurobiSolver) arguments(files runFiles, extra ...string) []string {
	names := lo.Keys(solver.parameters)
	slices.Sort(names)

	arguments := append([]string{"ResultFile=" + files.result}, extra...)
	for _, name := range names {
		arguments = append(arguments, fmt.Sprintf("%v=%v", name, solver.parameters[name]))
	}
	return append(arguments, files.model)
}

// poolFiles lists the <prefix>_<n>.sol files in n order
func poolFiles(prefix string) ([]string, error) {
	paths, err := filepath.Glob(prefix + "_*.sol")
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list pool members of %q", prefix)
	}
	index := func(path string) int {
		number, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(path, prefix+"_"), ".sol"))
		if err != nil {
			return -1
		}
		return number
	}
	paths = lo.Filter(paths, func(path string, _ int) bool { return index(path) >= 0 })
	slices.SortFunc(paths, func(a, b string) int { return index(a) - index(b) })
	return paths, nil
}
