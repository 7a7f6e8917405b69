package solver

import (
	"context"
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/limaJavier/ilpenum/pkg/logging"
	"github.com/limaJavier/ilpenum/pkg/model"
	"github.com/limaJavier/ilpenum/pkg/solution"
)

var (
	ErrSolverNotFound   = errors.New("solver executable not found")
	ErrSolverTimeout    = errors.New("solver run exceeded its time limit")
	ErrUnsupportedModel = errors.New("model is not supported by the solver")
)

// Files every backend leaves in a run directory
const (
	ModelFile  = "ilp.lp"
	OutputFile = "output.txt"
	ResultFile = "results.sol"
)

// ILPSolver solves a 0/1 ILP inside workingDirectory. An infeasible model is reported as an
// infeasible record, never as an error.
type ILPSolver interface {
	Solve(ctx context.Context, document *model.Document, workingDirectory string) (*solution.Record, error)
}

// PoolSolver returns up to size distinct optimal-first solutions of a model in a single call
type PoolSolver interface {
	ILPSolver
	SolvePool(ctx context.Context, document *model.Document, workingDirectory string, size int) ([]*solution.Record, error)
}

type Settings struct {
	Logger     logging.Logger
	Quiet      bool              // Keep solver output out of the logger, it is still written to OutputFile
	GurobiPath string            // Executable of the gurobi backend, looked up in PATH when relative
	Parameters map[string]string // Passed to the external solver as Name=Value
}

var backends = map[string]func(Settings) ILPSolver{
	"gurobi":    NewGurobiSolver,
	"gophersat": NewGophersatSolver,
}

// New returns the backend registered under name
func New(name string, settings Settings) (ILPSolver, error) {
	constructor, ok := backends[name]
	if !ok {
		return nil, errors.Errorf("unknown solver %q, available solvers are %v", name, Names())
	}
	if settings.Logger == nil {
		settings.Logger = logging.Discard()
	}
	return constructor(settings), nil
}

func Names() []string {
	names := lo.Keys(backends)
	slices.Sort(names)
	return names
}
