package qlinalg

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Worker processes jobs
type Worker struct {
	pool    *Pool
	jobs    chan Job
	service *Service
}

func (w *Worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case w.pool.workers <- w.jobs:
		}

		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			result, err := w.processJob(job)
			w.pool.space.Store(job.ID, result, err, job.TTL)
		}
	}
}

func (w *Worker) processJob(job Job) (*Result, error) {
	result, err := w.service.Submit(job)

	var brk *BreakError
	w.pool.metrics.recordJobExecution(job.StartTime, err == nil, errors.As(err, &brk))

	if err != nil {
		w.pool.logger.Warn("job failed", "job", job.ID, "err", err)
		return nil, err
	}

	w.pool.logger.Debug("job done", "job", job.ID, "samples", len(result.RawData), "took", time.Since(job.StartTime))
	return result, nil
}
