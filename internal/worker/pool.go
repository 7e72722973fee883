// Package worker runs texture generation tasks on a bounded pool of goroutines.
package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MeKo-Tech/noisetex/internal/texture"
)

// Generator produces one texture for a task and reports where it went.
// pipeline.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, task Task) (path string, err error)
}

// Task is one texture to generate.
type Task struct {
	// Name is the output base name, e.g. "Noise12".
	Name   string
	Params texture.Params
	// Force regenerates even when the output already exists.
	Force bool
}

// Result is the outcome of a Task.
type Result struct {
	Task    Task
	Path    string
	Err     error
	Elapsed time.Duration
	index   int
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Generator  Generator
	OnProgress ProgressFunc
}

// Pool fans tasks out to a fixed number of workers.
type Pool struct {
	workers    int
	generator  Generator
	onProgress ProgressFunc
}

type indexedTask struct {
	Task
	index int
}

// New creates a new worker pool. Fewer than one worker means one.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		generator:  cfg.Generator,
		onProgress: cfg.OnProgress,
	}
}

// Run executes all tasks and blocks until they finish or ctx is cancelled.
// Results come back in task order. Tasks not started before cancellation
// carry ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan indexedTask, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	// The channel is buffered for every task, so feeding never blocks.
	for i, task := range tasks {
		taskCh <- indexedTask{Task: task, index: i}
	}
	close(taskCh)

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		defer close(done)
		var failed int
		for result := range resultCh {
			results = append(results, result)
			if result.Err != nil {
				failed++
			}
			if p.onProgress != nil {
				p.onProgress(len(results), len(tasks), failed)
			}
		}
	}()

	wg.Wait()
	close(resultCh)
	<-done

	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })
	return results
}

func (p *Pool) worker(ctx context.Context, tasks <-chan indexedTask, results chan<- Result) {
	for task := range tasks {
		if err := ctx.Err(); err != nil {
			results <- Result{Task: task.Task, Err: err, index: task.index}
			continue
		}

		start := time.Now()
		path, err := p.generator.Generate(ctx, task.Task)

		results <- Result{
			Task:    task.Task,
			Path:    path,
			Err:     err,
			Elapsed: time.Since(start),
			index:   task.index,
		}
	}
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
