package qlinalg

import (
	"sync"
	"time"
)

/*
FilterFunc decides whether a finished job is delivered to a subscriber.
*/
type FilterFunc func(JobResult) bool

/*
BroadcastGroup fans every finished job out to its subscribers.

Sends never block: a subscriber whose buffer is full misses the result and
the drop is counted. Results stay available through ResultSpace.Await, so a
subscriber only loses the notification.
*/
type BroadcastGroup struct {
	mu sync.RWMutex

	subscribers map[string]chan JobResult
	filters     map[string]FilterFunc
	metrics     BroadcastMetrics
	closed      bool
}

// BroadcastMetrics counts deliveries of the broadcast group.
type BroadcastMetrics struct {
	MessagesSent      int64
	MessagesDropped   int64
	ActiveSubscribers int
	LastBroadcastTime time.Time
}

func NewBroadcastGroup() *BroadcastGroup {
	return &BroadcastGroup{
		subscribers: make(map[string]chan JobResult),
		filters:     make(map[string]FilterFunc),
	}
}

/*
Subscribe registers a buffered channel under id. A nil filter receives every
result. Subscribing an existing id replaces its channel and closes the old
one.
*/
func (bg *BroadcastGroup) Subscribe(id string, bufferSize int, filter FilterFunc) <-chan JobResult {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	ch := make(chan JobResult, bufferSize)
	if bg.closed {
		close(ch)
		return ch
	}

	if old, ok := bg.subscribers[id]; ok {
		close(old)
		bg.metrics.ActiveSubscribers--
	}

	bg.subscribers[id] = ch
	if filter != nil {
		bg.filters[id] = filter
	} else {
		delete(bg.filters, id)
	}

	bg.metrics.ActiveSubscribers++
	return ch
}

// Unsubscribe closes and forgets the channel registered under id.
func (bg *BroadcastGroup) Unsubscribe(id string) {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	if ch, ok := bg.subscribers[id]; ok {
		close(ch)
		delete(bg.subscribers, id)
		delete(bg.filters, id)
		bg.metrics.ActiveSubscribers--
	}
}

// Send delivers jr to every subscriber whose filter accepts it.
func (bg *BroadcastGroup) Send(jr JobResult) {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	if bg.closed {
		return
	}

	for id, ch := range bg.subscribers {
		if filter, ok := bg.filters[id]; ok && !filter(jr) {
			continue
		}

		select {
		case ch <- jr:
			bg.metrics.MessagesSent++
		default:
			bg.metrics.MessagesDropped++
		}
	}

	bg.metrics.LastBroadcastTime = time.Now()
}

// GetMetrics returns a copy of the delivery counters.
func (bg *BroadcastGroup) GetMetrics() BroadcastMetrics {
	bg.mu.RLock()
	defer bg.mu.RUnlock()
	return bg.metrics
}

// Close closes every subscriber channel. Later sends are ignored.
func (bg *BroadcastGroup) Close() {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	if bg.closed {
		return
	}
	bg.closed = true

	for id, ch := range bg.subscribers {
		close(ch)
		delete(bg.subscribers, id)
	}
	bg.filters = nil
	bg.metrics.ActiveSubscribers = 0
}
