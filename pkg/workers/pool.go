// Package workers runs index ranges on a fixed set of goroutines.
package workers

import (
	"errors"
	"runtime"
	"sync"
)

// RangeFunc processes the half-open index range [start, end)
type RangeFunc func(workerID, start, end int) error

// Task is one contiguous range of work
type Task struct {
	ID    int
	Start int
	End   int
}

// Result reports the completion of a task
type Result struct {
	TaskID int
	Error  error
}

// Pool manages parallel range processing
type Pool struct {
	taskQueue   chan Task
	resultQueue chan Result
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker executes tasks from the shared queue
type Worker struct {
	ID          int
	fn          RangeFunc
	taskQueue   chan Task
	resultQueue chan Result
}

// NewPool creates a pool; numWorkers <= 0 uses one worker per CPU.
// queueSize bounds the number of tasks and results buffered at once.
func NewPool(numWorkers, queueSize int, fn RangeFunc) *Pool {
	numWorkers = Count(numWorkers)
	if queueSize <= 0 {
		queueSize = numWorkers
	}

	p := &Pool{
		taskQueue:   make(chan Task, queueSize),
		resultQueue: make(chan Result, queueSize),
		numWorkers:  numWorkers,
	}
	for i := 0; i < numWorkers; i++ {
		p.workers = append(p.workers, &Worker{
			ID:          i,
			fn:          fn,
			taskQueue:   p.taskQueue,
			resultQueue: p.resultQueue,
		})
	}
	return p
}

// Count resolves a configured worker count
func Count(numWorkers int) int {
	if numWorkers <= 0 {
		return runtime.NumCPU()
	}
	return numWorkers
}

// Start begins all workers
func (p *Pool) Start() {
	for _, worker := range p.workers {
		p.wg.Add(1)
		go worker.run(&p.wg)
	}
}

// Stop waits for queued tasks to finish and shuts the workers down
func (p *Pool) Stop() {
	close(p.taskQueue)
	p.wg.Wait()
	close(p.resultQueue)
}

// Submit queues a task
func (p *Pool) Submit(task Task) {
	p.taskQueue <- task
}

// Result retrieves a completed task result
func (p *Pool) Result() (Result, bool) {
	result, ok := <-p.resultQueue
	return result, ok
}

// NumWorkers returns the number of workers in the pool
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for task := range w.taskQueue {
		w.resultQueue <- Result{
			TaskID: task.ID,
			Error:  w.fn(w.ID, task.Start, task.End),
		}
	}
}

// Split cuts [0, total) into consecutive tasks of at most chunk indices
func Split(total, chunk int) []Task {
	if chunk <= 0 {
		chunk = 1
	}
	tasks := make([]Task, 0, (total+chunk-1)/chunk)
	for start := 0; start < total; start += chunk {
		tasks = append(tasks, Task{ID: len(tasks), Start: start, End: min(start+chunk, total)})
	}
	return tasks
}

// Run processes [0, total) in chunks on numWorkers goroutines and returns
// once every chunk has finished. All task errors are joined.
func Run(numWorkers, total, chunk int, fn RangeFunc) error {
	tasks := Split(total, chunk)
	if len(tasks) == 0 {
		return nil
	}

	pool := NewPool(numWorkers, len(tasks), fn)
	pool.Start()
	for _, task := range tasks {
		pool.Submit(task)
	}

	var errs []error
	for range tasks {
		result, _ := pool.Result()
		if result.Error != nil {
			errs = append(errs, result.Error)
		}
	}
	pool.Stop()
	return errors.Join(errs...)
}
