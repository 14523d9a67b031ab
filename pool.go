package qlinalg

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/theapemachine/errnie"
)

/*
Pool runs independent simulation jobs on a fixed set of workers. Each worker
owns its own Simulator, so executions never share a state vector or a
random source. Results are kept in a ResultSpace until they expire.
*/
type Pool struct {
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	workers   chan chan Job
	jobs      chan Job
	space     *ResultSpace
	metrics   *Metrics
	config    *Config
	logger    *log.Logger
	closeOnce sync.Once
}

// NewPool starts cfg.Workers workers.
func NewPool(ctx context.Context, cfg *Config) (*Pool, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(chan Job, cfg.Workers*10),
		workers: make(chan chan Job, cfg.Workers),
		space:   NewResultSpace(),
		metrics: NewMetrics(),
		config:  cfg,
		logger:  NewLogger(nil, cfg.LogLevel),
	}

	for i := 0; i < cfg.Workers; i++ {
		if err := p.startWorker(i); err != nil {
			cancel()
			p.wg.Wait()
			p.space.Close()
			return nil, err
		}
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.manage()
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.collectMetrics()
	}()

	errnie.Info("pool started with %d workers", cfg.Workers)
	return p, nil
}

func (p *Pool) manage() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.jobs:
			select {
			case <-p.ctx.Done():
				return
			case workerChan := <-p.workers:
				select {
				case workerChan <- job:
				case <-p.ctx.Done():
					return
				}
			case <-time.After(p.schedulingTimeout()):
				p.logger.Warn("no available worker", "job", job.ID)
				p.metrics.recordSchedulingFailure()
				p.space.Store(job.ID, nil, fmt.Errorf("no available workers for job %s", job.ID), job.TTL)
			}
		}
	}
}

func (p *Pool) collectMetrics() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.metrics.mu.Lock()
			p.metrics.JobQueueSize = len(p.jobs)
			p.metrics.IdleWorkers = len(p.workers)
			p.metrics.mu.Unlock()
		}
	}
}

/*
Submit queues a job and returns its id together with a channel that receives
the result once. A job without an id gets a random one.
*/
func (p *Pool) Submit(job Job) (string, <-chan JobResult) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.TTL == 0 {
		job.TTL = p.config.ResultTTL
	}
	job.StartTime = time.Now()

	if err := p.ctx.Err(); err != nil {
		return job.ID, closedResult(job.ID, fmt.Errorf("pool closed: %w", err))
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.schedulingTimeout())
	defer cancel()

	select {
	case p.jobs <- job:
		return job.ID, p.space.Await(job.ID)
	case <-ctx.Done():
		p.metrics.recordSchedulingFailure()
		return job.ID, closedResult(job.ID, fmt.Errorf("job scheduling timeout: %w", ctx.Err()))
	}
}

// Await returns a channel for the result of a previously submitted job.
func (p *Pool) Await(id string) <-chan JobResult {
	return p.space.Await(id)
}

/*
Subscribe streams the results of every job finished after the call. A nil
filter receives all of them. The channel is closed by Unsubscribe or Close.
*/
func (p *Pool) Subscribe(id string, bufferSize int, filter FilterFunc) <-chan JobResult {
	return p.space.Subscribe(id, bufferSize, filter)
}

// Unsubscribe ends a stream opened with Subscribe.
func (p *Pool) Unsubscribe(id string) {
	p.space.Unsubscribe(id)
}

// Metrics exposes the pool's counters.
func (p *Pool) Metrics() *Metrics {
	return p.metrics
}

func (p *Pool) startWorker(index int) error {
	opts, err := p.config.SimulatorOptions()
	if err != nil {
		return err
	}
	if p.config.Seeded {
		opts = append(opts, WithSeed(p.config.Seed+uint64(index)))
	}
	opts = append(opts, WithLogger(p.logger.With("worker", index)))

	worker := &Worker{
		pool:    p,
		jobs:    make(chan Job),
		service: NewService(NewSimulator(opts...), p.config),
	}

	p.metrics.mu.Lock()
	p.metrics.WorkerCount++
	p.metrics.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		worker.run(p.ctx)
	}()
	return nil
}

func (p *Pool) schedulingTimeout() time.Duration {
	if p.config != nil && p.config.SchedulingTimeout > 0 {
		return p.config.SchedulingTimeout
	}
	return 5 * time.Second
}

// Close stops the workers and waits for them to exit.
func (p *Pool) Close() {
	if p == nil {
		return
	}

	p.closeOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
		p.space.Close()

		errnie.Info("pool closed")
	})
}

func closedResult(id string, err error) <-chan JobResult {
	ch := make(chan JobResult, 1)
	ch <- JobResult{JobID: id, Error: err, CreatedAt: time.Now()}
	close(ch)
	return ch
}
