package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task pairs an input with the outcome of processing it.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// ProcessFunc processes a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs a ProcessFunc over many inputs with bounded concurrency.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
	name    string
}

// NewPool creates a new worker pool. Fewer than one worker means one.
func NewPool[T any, R any](name string, workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	return &Pool[T, R]{
		workers: max(workers, 1),
		process: fn,
		name:    name,
	}
}

// Execute runs all inputs through the pool. The returned slice is in input
// order. Inputs not processed because ctx was cancelled carry ctx's error.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	done := make([]bool, len(inputs))
	inputCh := make(chan int)

	var wg sync.WaitGroup
	for w := range min(p.workers, max(len(inputs), 1)) {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				result, err := p.process(ctx, inputs[idx])
				results[idx] = Task[T, R]{Input: inputs[idx], Result: result, Err: err}
				done[idx] = true
				if err != nil {
					log.Error().Err(err).Str("pool", p.name).Int("worker", workerID).Int("index", idx).Msg("Task failed")
				}
			}
		}(w)
	}

send:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break send
		case inputCh <- i:
		}
	}
	close(inputCh)
	wg.Wait()

	for i, ok := range done {
		if !ok {
			results[i] = Task[T, R]{Input: inputs[i], Err: ctx.Err()}
		}
	}
	return results
}

// Batch splits items into consecutive batches of at most batchSize.
func Batch[T any](items []T, batchSize int) [][]T {
	batchSize = max(batchSize, 1)
	batches := make([][]T, 0, (len(items)+batchSize-1)/batchSize)
	for i := 0; i < len(items); i += batchSize {
		batches = append(batches, items[i:min(i+batchSize, len(items))])
	}
	return batches
}
