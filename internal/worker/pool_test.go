package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MeKo-Tech/noisetex/internal/texture"
)

// mockGenerator simulates texture generation.
type mockGenerator struct {
	fail      map[int64]bool // seeds that should fail
	delay     time.Duration
	callCount atomic.Int32
}

func (m *mockGenerator) Generate(ctx context.Context, task Task) (string, error) {
	m.callCount.Add(1)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(m.delay):
	}

	if m.fail[task.Params.Seed] {
		return "", errors.New("simulated failure")
	}
	return "/tmp/" + task.Name + ".png", nil
}

func seedTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		p := texture.DefaultParams()
		p.Seed = int64(i)
		tasks[i] = Task{Name: fmt.Sprintf("Noise%d", i), Params: p}
	}
	return tasks
}

func TestPool_ResultsInTaskOrder(t *testing.T) {
	gen := &mockGenerator{delay: 5 * time.Millisecond}
	pool := New(Config{Workers: 3, Generator: gen})

	tasks := seedTasks(7)
	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Fatalf("Expected %d results, got %d", len(tasks), len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("Unexpected error for %s: %v", r.Task.Name, r.Err)
		}
		if r.Task.Name != tasks[i].Name {
			t.Errorf("result %d is %s, want %s", i, r.Task.Name, tasks[i].Name)
		}
		if r.Path != "/tmp/"+tasks[i].Name+".png" {
			t.Errorf("unexpected path %s", r.Path)
		}
	}
	if gen.callCount.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d generator calls, got %d", len(tasks), gen.callCount.Load())
	}
}

func TestPool_Parallelism(t *testing.T) {
	gen := &mockGenerator{delay: 50 * time.Millisecond}
	pool := New(Config{Workers: 4, Generator: gen})

	start := time.Now()
	results := pool.Run(context.Background(), seedTasks(8))
	elapsed := time.Since(start)

	// Two rounds of 50ms with four workers.
	if elapsed > 300*time.Millisecond {
		t.Errorf("Expected parallel execution in ~100ms, took %v", elapsed)
	}
	if len(results) != 8 {
		t.Errorf("Expected 8 results, got %d", len(results))
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	gen := &mockGenerator{delay: time.Millisecond, fail: map[int64]bool{1: true}}
	pool := New(Config{Workers: 2, Generator: gen})

	results := pool.Run(context.Background(), seedTasks(3))

	failed := Failed(results)
	if len(failed) != 1 {
		t.Fatalf("Expected 1 failure, got %d", len(failed))
	}
	if failed[0].Task.Name != "Noise1" {
		t.Errorf("Unexpected failure for %s", failed[0].Task.Name)
	}
}

func TestPool_Cancellation(t *testing.T) {
	gen := &mockGenerator{delay: 100 * time.Millisecond}
	pool := New(Config{Workers: 2, Generator: gen})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, seedTasks(10))
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Errorf("Expected early cancellation, took %v", elapsed)
	}
	if len(results) != 10 {
		t.Fatalf("Expected a result per task, got %d", len(results))
	}
	for _, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("Expected %s to be cancelled, got %v", r.Task.Name, r.Err)
		}
	}
}

func TestPool_ProgressCallback(t *testing.T) {
	gen := &mockGenerator{delay: time.Millisecond, fail: map[int64]bool{0: true}}

	var calls atomic.Int32
	var lastCompleted, lastTotal, lastFailed int

	pool := New(Config{
		Workers:   2,
		Generator: gen,
		OnProgress: func(completed, total, failed int) {
			calls.Add(1)
			lastCompleted, lastTotal, lastFailed = completed, total, failed
		},
	})

	pool.Run(context.Background(), seedTasks(3))

	if calls.Load() != 3 {
		t.Errorf("Expected 3 progress callbacks, got %d", calls.Load())
	}
	if lastCompleted != 3 || lastTotal != 3 || lastFailed != 1 {
		t.Errorf("final progress = %d/%d (%d failed)", lastCompleted, lastTotal, lastFailed)
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	gen := &mockGenerator{}
	pool := New(Config{Workers: 0, Generator: gen})

	if results := pool.Run(context.Background(), nil); len(results) != 0 {
		t.Errorf("Expected 0 results for empty tasks, got %d", len(results))
	}
	if pool.workers != 1 {
		t.Errorf("Expected worker count to default to 1, got %d", pool.workers)
	}
}
