package worker

import (
	"context"
	"log/slog"
	"sync"
)

type WorkingPool struct {
	NumWorkers int
	jobChan    chan Job
}

func NewWorkingPool(numWorkers int, queueSize int) *WorkingPool {
	return &WorkingPool{
		NumWorkers: numWorkers,
		jobChan:    make(chan Job, queueSize),
	}
}

func (p *WorkingPool) SubmitJob(job Job) {
	p.jobChan <- job
}

func (p *WorkingPool) Start(ctx context.Context, managerWg *sync.WaitGroup) {
	defer managerWg.Done()

	var workerWg sync.WaitGroup

	for i := range p.NumWorkers {
		workerWg.Add(1)
		go p.worker(ctx, &workerWg, i+1)
	}

	// Wait for the global shutdown signal
	<-ctx.Done()

	slog.Info("working pool shutdown signaled, closing job channel")
	close(p.jobChan)

	// Wait for all workers to finish their current job and exit
	workerWg.Wait()
	slog.Info("all workers stopped")
}

// worker is the internal goroutine for a single worker
func (p *WorkingPool) worker(ctx context.Context, wg *sync.WaitGroup, id int) {
	defer wg.Done()
	slog.Info("worker started", "worker_id", id)

	for {
		select {
		case job, ok := <-p.jobChan:
			if !ok {
				slog.Info("job channel closed, worker exiting", "worker_id", id)
				return
			}

			p.safeExecution(ctx, job, id)

		case <-ctx.Done():
			// Exit immediately, even if the job channel is not closed.
			slog.Info("context canceled, worker exiting", "worker_id", id)
			return
		}
	}
}

func (p *WorkingPool) JobChan() chan<- Job {
	return p.jobChan
}

func (p *WorkingPool) safeExecution(ctx context.Context, job Job, workerID int) error {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered in job", "worker_id", workerID, "panic", r)
		}
	}()

	err := job(ctx)
	if err != nil {
		slog.Error("job execution failed", "worker_id", workerID, "error", err)
	}
	return err
}
