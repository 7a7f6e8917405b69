package solver

import (
	"context"
	"sync"

	"github.com/limaJavier/ilpenum/pkg/model"
	"github.com/limaJavier/ilpenum/pkg/solution"
)

// Step is one scripted answer: a single record, a pool of records or an error
type Step struct {
	Record  *solution.Record
	Pool    []*solution.Record
	Err     error
	Blocked bool // Wait for the context to be done instead of answering
}

// ScriptedSolver answers with predefined steps in order and keeps every model it was given.
// Once the steps run out every call reports an infeasible model.
type ScriptedSolver struct {
	mutex  sync.Mutex
	steps  []Step
	models []string
	sizes  []int
}

func NewScriptedSolver(records ...*solution.Record) *ScriptedSolver {
	solver := &ScriptedSolver{}
	for _, record := range records {
		solver.Then(Step{Record: record})
	}
	return solver
}

func (solver *ScriptedSolver) Then(step Step) *ScriptedSolver {
	solver.mutex.Lock()
	defer solver.mutex.Unlock()
	solver.steps = append(solver.steps, step)
	return solver
}

func (solver *ScriptedSolver) Solve(ctx context.Context, document *model.Document, workingDirectory string) (*solution.Record, error) {
	step, err := solver.next(ctx, document, 1, workingDirectory)
	if err != nil {
		return nil, err
	} else if step.Record == nil && len(step.Pool) > 0 {
		return step.Pool[0], nil
	} else if step.Record == nil {
		return solution.Infeasible(), nil
	}
	return step.Record, nil
}

func (solver *ScriptedSolver) SolvePool(ctx context.Context, document *model.Document, workingDirectory string, size int) ([]*solution.Record, error) {
	step, err := solver.next(ctx, document, size, workingDirectory)
	if err != nil {
		return nil, err
	} else if step.Pool != nil {
		return step.Pool, nil
	} else if step.Record != nil {
		return []*solution.Record{step.Record}, nil
	}
	return nil, nil
}

// Models returns the serialized models received so far, in call order
func (solver *ScriptedSolver) Models() []string {
	solver.mutex.Lock()
	defer solver.mutex.Unlock()
	return append([]string(nil), solver.models...)
}

// Sizes returns the pool size requested by every call, Solve counts as 1
func (solver *ScriptedSolver) Sizes() []int {
	solver.mutex.Lock()
	defer solver.mutex.Unlock()
	return append([]int(nil), solver.sizes...)
}

func (solver *ScriptedSolver) next(ctx context.Context, document *model.Document, size int, workingDirectory string) (Step, error) {
	solver.mutex.Lock()
	solver.models = append(solver.models, document.Serialize())
	solver.sizes = append(solver.sizes, size)
	step := Step{}
	if len(solver.steps) > 0 {
		step = solver.steps[0]
		solver.steps = solver.steps[1:]
	}
	solver.mutex.Unlock()

	if workingDirectory != "" {
		if _, err := prepareRun(document, workingDirectory); err != nil {
			return Step{}, err
		}
	}
	if step.Blocked {
		<-ctx.Done()
		return Step{}, contextError(ctx)
	}
	return step, step.Err
}
