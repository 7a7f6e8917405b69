package enumerate

import (
	"context"

	"github.com/pkg/errors"
	"gopkg.in/dnaeon/go-priorityqueue.v1"

	"github.com/limaJavier/ilpenum/pkg/model"
	"github.com/limaJavier/ilpenum/pkg/solution"
	"github.com/limaJavier/ilpenum/pkg/solver"
)

type Strategy string

const (
	Single Strategy = "single" // One solution per solver call
	Pool   Strategy = "pool"   // A batch of solutions per solver call
)

var Strategies = []Strategy{Single, Pool}

const DefaultPoolSize = 10

// invoker gets the next batch of candidate solutions from a backend
type invoker interface {
	invoke(ctx context.Context, document *model.Document, directory string, size int) ([]*solution.Record, error)
}

type singleInvoker struct {
	solver solver.ILPSolver
}

func (invoker singleInvoker) invoke(ctx context.Context, document *model.Document, directory string, _ int) ([]*solution.Record, error) {
	record, err := invoker.solver.Solve(ctx, document, directory)
	if err != nil {
		return nil, err
	}
	return []*solution.Record{record}, nil
}

type poolInvoker struct {
	solver   solver.PoolSolver
	maximize bool
}

// invoke returns the pool best objective first; ties keep the order the solver reported
func (invoker poolInvoker) invoke(ctx context.Context, document *model.Document, directory string, size int) ([]*solution.Record, error) {
	pool, err := invoker.solver.SolvePool(ctx, document, directory, size)
	if err != nil {
		return nil, err
	}

	kind := priorityqueue.MinHeap
	if invoker.maximize {
		kind = priorityqueue.MaxHeap
	}
	// One queue entry per distinct objective; members sharing it stay in the solver's order
	queue := priorityqueue.New[int64, int64](kind)
	buckets := make(map[int64][]*solution.Record)
	infeasible := make([]*solution.Record, 0)
	for _, record := range pool {
		if !record.Feasible {
			infeasible = append(infeasible, record)
			continue
		}
		if _, queued := buckets[record.Objective]; !queued {
			queue.Put(record.Objective, record.Objective)
		}
		buckets[record.Objective] = append(buckets[record.Objective], record)
	}

	ordered := make([]*solution.Record, 0, len(pool))
	for !queue.IsEmpty() {
		ordered = append(ordered, buckets[queue.Get().Value]...)
	}
	ordered = append(ordered, infeasible...) // They end the enumeration
	return ordered, nil
}

func newInvoker(strategy Strategy, backend solver.ILPSolver, maximize bool) (invoker, error) {
	switch strategy {
	case "", Single:
		return singleInvoker{solver: backend}, nil
	case Pool:
		pool, ok := backend.(solver.PoolSolver)
		if !ok {
			return nil, errors.Errorf("the %v strategy needs a solver with solution pools", Pool)
		}
		return poolInvoker{solver: pool, maximize: maximize}, nil
	}
	return nil, errors.Errorf("unknown strategy %q, available strategies are %v", strategy, Strategies)
}
