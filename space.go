package qlinalg

import (
	"sync"
	"time"
)

// JobResult wraps a job's result with metadata
type JobResult struct {
	JobID     string
	Result    *Result
	Error     error
	CreatedAt time.Time
	TTL       time.Duration
}

// ResultSpace stores job results and hands them to waiting callers.
type ResultSpace struct {
	mu      sync.Mutex
	values  map[string]JobResult
	waiting map[string][]chan JobResult
	group   *BroadcastGroup
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func NewResultSpace() *ResultSpace {
	rs := &ResultSpace{
		values:  make(map[string]JobResult),
		waiting: make(map[string][]chan JobResult),
		group:   NewBroadcastGroup(),
		done:    make(chan struct{}),
	}

	rs.wg.Add(1)
	go func() {
		defer rs.wg.Done()
		rs.cleanup(time.Minute)
	}()

	return rs
}

// Store records a result and delivers it to every waiting channel.
func (rs *ResultSpace) Store(id string, result *Result, err error, ttl time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	jr := JobResult{
		JobID:     id,
		Result:    result,
		Error:     err,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
	rs.values[id] = jr

	for _, ch := range rs.waiting[id] {
		ch <- jr
		close(ch)
	}
	delete(rs.waiting, id)

	rs.group.Send(jr)
}

// Await returns a channel that will receive the result when it's available
func (rs *ResultSpace) Await(id string) <-chan JobResult {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	ch := make(chan JobResult, 1)
	if jr, ok := rs.values[id]; ok {
		ch <- jr
		close(ch)
		return ch
	}

	rs.waiting[id] = append(rs.waiting[id], ch)
	return ch
}

// Subscribe streams every result stored from now on that passes filter.
func (rs *ResultSpace) Subscribe(id string, bufferSize int, filter FilterFunc) <-chan JobResult {
	return rs.group.Subscribe(id, bufferSize, filter)
}

// Unsubscribe closes a stream opened with Subscribe.
func (rs *ResultSpace) Unsubscribe(id string) {
	rs.group.Unsubscribe(id)
}

func (rs *ResultSpace) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rs.done:
			return
		case <-ticker.C:
			rs.expire(time.Now())
		}
	}
}

// expire drops results older than their TTL; a zero TTL never expires.
func (rs *ResultSpace) expire(now time.Time) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	for id, jr := range rs.values {
		if jr.TTL > 0 && now.Sub(jr.CreatedAt) > jr.TTL {
			delete(rs.values, id)
		}
	}
}

// Close stops the cleanup loop and ends every subscription.
func (rs *ResultSpace) Close() {
	rs.once.Do(func() {
		close(rs.done)
		rs.group.Close()
	})
	rs.wg.Wait()
}
