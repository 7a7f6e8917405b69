//go:build highs

package solver

import (
	"context"
	"fmt"
	"math"

	"github.com/lanl/highs"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/limaJavier/ilpenum/pkg/logging"
	"github.com/limaJavier/ilpenum/pkg/model"
	"github.com/limaJavier/ilpenum/pkg/solution"
)

func init() {
	backends["highs"] = NewHighsSolver
}

type highsSolver struct {
	quiet  bool
	logger logging.Logger
}

// NewHighsSolver returns a backend running the HiGHS MIP solver through cgo. It is only built
// with the "highs" build tag.
func NewHighsSolver(settings Settings) ILPSolver {
	logger := settings.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &highsSolver{quiet: settings.Quiet, logger: logger.Named("HiGHS", logging.SolverTag)}
}

func (solver *highsSolver) Solve(ctx context.Context, document *model.Document, workingDirectory string) (*solution.Record, error) {
	files, err := prepareRun(document, workingDirectory)
	if err != nil {
		return nil, err
	}

	program, err := newHighsProgram(document)
	if err != nil {
		return nil, err
	}
	if err := writeOutput(files.output, solver.logger, solver.quiet, fmt.Sprintf(
		"Read model with %d columns and %d rows", len(program.variables), len(program.constraints),
	)); err != nil {
		return nil, err
	}

	record, err := runCancellable(ctx, program.solve)
	if err != nil {
		return nil, err
	}

	summary := "Model is infeasible"
	if record.Feasible {
		summary = fmt.Sprintf("Optimal solution found, objective value %d", record.Objective)
	}
	if err := writeOutput(files.output, solver.logger, solver.quiet, summary); err != nil {
		return nil, err
	}
	if err := record.WriteFile(files.result); err != nil {
		return nil, err
	}
	return solution.ParseFile(files.result)
}

type highsProgram struct {
	variables   []string
	columns     map[string]int
	objective   model.Objective
	constraints []model.Constraint
}

func newHighsProgram(document *model.Document) (*highsProgram, error) {
	program := &highsProgram{objective: model.Objective{Maximize: true}}
	if document.Objective() != "" {
		objective, err := model.ParseObjective(document.Objective())
		if err != nil {
			return nil, errors.Wrap(ErrUnsupportedModel, err.Error())
		}
		program.objective = objective
	}
	program.objective.Expression = program.objective.Expression.Normalize()

	variables := document.Binaries()
	for _, line := range document.Constraints() {
		constraint, err := model.ParseConstraint(line)
		if err != nil {
			return nil, errors.Wrap(ErrUnsupportedModel, err.Error())
		}
		constraint.Expression = constraint.Expression.Normalize()
		program.constraints = append(program.constraints, constraint)
		variables = append(variables, constraint.Expression.Variables()...)
	}
	variables = append(variables, program.objective.Expression.Variables()...)

	program.variables = lo.Uniq(variables)
	program.columns = make(map[string]int, len(program.variables))
	for column, name := range program.variables {
		program.columns[name] = column
	}
	return program, nil
}

func (program *highsProgram) build() *highs.Model {
	columns := len(program.variables)

	lp := new(highs.Model)
	lp.Maximize = program.objective.Maximize
	lp.Offset = program.objective.Expression.Constant
	lp.VarTypes = make([]highs.VariableType, columns)
	lp.ColLower = make([]float64, columns)
	lp.ColUpper = make([]float64, columns)
	lp.ColCosts = make([]float64, columns)
	for j := range columns {
		lp.VarTypes[j] = highs.IntegerType
		lp.ColUpper[j] = 1
	}
	for _, term := range program.objective.Expression.Terms {
		lp.ColCosts[program.columns[term.Variable]] += term.Coefficient
	}

	if len(program.constraints) == 0 {
		return lp
	}
	rows := mat.NewDense(len(program.constraints), columns, nil)
	for i, constraint := range program.constraints {
		for _, term := range constraint.Expression.Terms {
			rows.Set(i, program.columns[term.Variable], term.Coefficient)
		}

		lower, upper := math.Inf(-1), math.Inf(1)
		switch constraint.Sense {
		case model.LessEqual:
			upper = constraint.RHS
		case model.GreaterEqual:
			lower = constraint.RHS
		case model.Equal:
			lower, upper = constraint.RHS, constraint.RHS
		}
		lp.AddDenseRow(lower, rows.RawRowView(i), upper)
	}
	return lp
}

func (program *highsProgram) solve() (*solution.Record, error) {
	if len(program.variables) == 0 {
		return solution.NewRecord(int64(math.Round(program.objective.Expression.Constant))), nil
	}

	result, err := program.build().Solve()
	if err != nil {
		return nil, errors.Wrap(err, "highs")
	}
	switch result.Status {
	case highs.Optimal:
	case highs.Infeasible:
		return solution.Infeasible(), nil
	default:
		return nil, errors.Errorf("highs stopped with status %v", result.Status.String())
	}

	values := make(map[string]int64, len(program.variables))
	for column, name := range program.variables {
		values[name] = int64(math.Round(result.ColumnPrimal[column]))
	}
	objective := program.objective.Expression.Value(values)

	record := solution.NewRecord(int64(math.Round(objective)))
	for _, name := range program.variables {
		record.Assign(name, values[name])
	}
	return record, nil
}
