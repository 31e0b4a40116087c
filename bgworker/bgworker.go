// Package bgworker runs batches of independent jobs, such as validating many
// machine configs, on a bounded worker pool.
package bgworker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alitto/pond/v2"
	"github.com/caarlos0/env/v11"
)

const defaultWorkerCount = 10

type config struct {
	Workers int `env:"BACKGROUND_WORKER_COUNT" envDefault:"10"`
}

// WorkerCount returns BACKGROUND_WORKER_COUNT, or a default when it is unset
// or not a positive number.
func WorkerCount() int {
	var cfg config
	if err := env.Parse(&cfg); err != nil || cfg.Workers <= 0 {
		return defaultWorkerCount
	}

	return cfg.Workers
}

// Map calls fn for every input on a pool of at most workers goroutines and
// returns the results in input order. A workers value of zero or less means
// WorkerCount. A job that panics, or is not started before ctx is done,
// leaves the zero value in its slot and contributes to the returned error.
func Map[I, R any](ctx context.Context, workers int, inputs []I, fn func(context.Context, I) R) ([]R, error) {
	if workers <= 0 {
		workers = WorkerCount()
	}

	slog.DebugContext(ctx, "Starting worker pool", "workers", workers, "jobs", len(inputs))

	pool := pond.NewResultPool[R](workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	tasks := make([]pond.Result[R], len(inputs))
	for i, input := range inputs {
		tasks[i] = pool.Submit(func() R {
			return fn(ctx, input)
		})
	}

	results := make([]R, len(inputs))

	var errs []error

	for i, task := range tasks {
		result, err := task.Wait()
		if err != nil {
			errs = append(errs, fmt.Errorf("job %d: %w", i, err))

			continue
		}

		results[i] = result
	}

	return results, errors.Join(errs...)
}
