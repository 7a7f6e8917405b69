package solver

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/crillab/gophersat/maxsat"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/limaJavier/ilpenum/pkg/logging"
	"github.com/limaJavier/ilpenum/pkg/model"
	"github.com/limaJavier/ilpenum/pkg/solution"
)

// gophersatSolver solves 0/1 ILPs in process by translating them into weighted MaxSAT: every
// constraint becomes hard pseudo-boolean constraints and every objective term a weighted clause
type gophersatSolver struct {
	quiet  bool
	logger logging.Logger
}

func NewGophersatSolver(settings Settings) ILPSolver {
	logger := settings.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &gophersatSolver{quiet: settings.Quiet, logger: logger.Named("Gophersat", logging.SolverTag)}
}

func (solver *gophersatSolver) Solve(ctx context.Context, document *model.Document, workingDirectory string) (*solution.Record, error) {
	files, err := prepareRun(document, workingDirectory)
	if err != nil {
		return nil, err
	}

	record, err := solver.optimize(ctx, document, files.output)
	if err != nil {
		return nil, err
	}
	if err := record.WriteFile(files.result); err != nil {
		return nil, err
	}
	return solution.ParseFile(files.result)
}

// SolvePool solves the model, excludes the solution found and solves again until size solutions
// were found, the model became infeasible or a solution with no variable at 1 showed up
func (solver *gophersatSolver) SolvePool(ctx context.Context, document *model.Document, workingDirectory string, size int) ([]*solution.Record, error) {
	files, err := prepareRun(document, workingDirectory)
	if err != nil {
		return nil, err
	}

	working := document.Clone()
	pool := make([]*solution.Record, 0, size)
	for len(pool) < size {
		record, err := solver.optimize(ctx, working, files.output)
		if err != nil {
			return nil, err
		} else if !record.Feasible {
			break
		}

		member := filepath.Join(workingDirectory, fmt.Sprintf("pool_%03d.sol", len(pool)+1))
		if err := record.WriteFile(member); err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			if err := record.WriteFile(files.result); err != nil {
				return nil, err
			}
		}
		pool = append(pool, record)

		ones := record.Ones()
		if len(ones) == 0 {
			break
		}
		exclusion, err := model.Exclusion(ones)
		if err != nil {
			return nil, err
		}
		working.AppendConstraint(exclusion)
	}
	return pool, nil
}

func (solver *gophersatSolver) optimize(ctx context.Context, document *model.Document, output string) (*solution.Record, error) {
	problem, err := translate(document)
	if err != nil {
		return nil, err
	}
	if err := writeOutput(output, solver.logger, solver.quiet, fmt.Sprintf(
		"Read model with %d variables, %d constraints and %d objective terms",
		len(problem.variables), len(document.Constraints()), len(problem.objective.Expression.Terms),
	)); err != nil {
		return nil, err
	}

	record, err := runCancellable(ctx, problem.solve)
	if err != nil {
		return nil, err
	}

	summary := "Model is infeasible"
	if record.Feasible {
		summary = fmt.Sprintf("Optimal solution found, objective value %d", record.Objective)
	}
	if err := writeOutput(output, solver.logger, solver.quiet, summary); err != nil {
		return nil, err
	}
	return record, nil
}

type maxsatProblem struct {
	variables []string // Declared binaries first, then in order of appearance
	objective model.Objective
	hard      []maxsat.Constr
	soft      []maxsat.Constr
}

func translate(document *model.Document) (*maxsatProblem, error) {
	problem := &maxsatProblem{objective: model.Objective{Maximize: true}}
	if document.Objective() != "" {
		objective, err := model.ParseObjective(document.Objective())
		if err != nil {
			return nil, errors.Wrap(ErrUnsupportedModel, err.Error())
		}
		problem.objective = objective
	}
	problem.objective.Expression = problem.objective.Expression.Normalize()

	variables := document.Binaries()
	for _, line := range document.Constraints() {
		constraint, err := model.ParseConstraint(line)
		if err != nil {
			return nil, errors.Wrap(ErrUnsupportedModel, err.Error())
		}
		hard, err := hardConstraints(constraint)
		if err != nil {
			return nil, err
		}
		problem.hard = append(problem.hard, hard...)
		variables = append(variables, constraint.Expression.Variables()...)
	}

	for _, term := range problem.objective.Expression.Terms {
		weight, ok := integral(term.Coefficient)
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedModel, "objective coefficient %v of %v is not an integer", term.Coefficient, term.Variable)
		} else if weight == 0 {
			continue // A null weight would make the clause hard
		}
		// Maximizing c*x is rewarding x when c > 0 and rewarding not x when c < 0
		literal := maxsat.Var(term.Variable)
		if (weight > 0) != problem.objective.Maximize {
			literal = maxsat.Not(term.Variable)
		}
		if weight < 0 {
			weight = -weight
		}
		problem.soft = append(problem.soft, maxsat.WeightedClause([]maxsat.Lit{literal}, weight))
		variables = append(variables, term.Variable)
	}

	problem.variables = lo.Uniq(variables)
	return problem, nil
}

// hardConstraints rewrites a constraint as "sum >= bound" pseudo-boolean constraints
func hardConstraints(constraint model.Constraint) ([]maxsat.Constr, error) {
	expression := constraint.Expression.Normalize()
	literals := make([]maxsat.Lit, len(expression.Terms))
	coefficients := make([]int, len(expression.Terms))
	for i, term := range expression.Terms {
		coefficient, ok := integral(term.Coefficient)
		if !ok {
			return nil, errors.Wrapf(ErrUnsupportedModel, "coefficient %v of %v in %q is not an integer", term.Coefficient, term.Variable, constraint)
		}
		literals[i] = maxsat.Var(term.Variable)
		coefficients[i] = coefficient
	}

	// The left-hand side is integral so fractional bounds tighten to the next integer
	atLeast := int(math.Ceil(constraint.RHS - integralTolerance))
	atMost := int(math.Floor(constraint.RHS + integralTolerance))

	switch constraint.Sense {
	case model.GreaterEqual:
		return []maxsat.Constr{maxsat.HardPBConstr(literals, coefficients, atLeast)}, nil
	case model.LessEqual:
		return []maxsat.Constr{maxsat.HardPBConstr(literals, negate(coefficients), -atMost)}, nil
	}
	if atLeast > atMost {
		return []maxsat.Constr{maxsat.HardPBConstr(nil, nil, 1)}, nil // Unsatisfiable
	}
	return []maxsat.Constr{
		maxsat.HardPBConstr(literals, coefficients, atLeast),
		maxsat.HardPBConstr(literals, negate(coefficients), -atMost),
	}, nil
}

func negate(coefficients []int) []int {
	return lo.Map(coefficients, func(coefficient int, _ int) int { return -coefficient })
}

func (problem *maxsatProblem) solve() (*solution.Record, error) {
	values := make(map[string]int64, len(problem.variables))
	if len(problem.hard)+len(problem.soft) > 0 {
		assignment, _ := maxsat.New(append(problem.hard, problem.soft...)...).Solve()
		if assignment == nil {
			return solution.Infeasible(), nil
		}
		for name, value := range assignment {
			if value {
				values[name] = 1
			}
		}
	}

	record := solution.NewRecord(int64(math.Round(problem.objective.Expression.Value(values))))
	for _, name := range problem.variables {
		record.Assign(name, values[name])
	}
	return record, nil
}
