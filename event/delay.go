package event

import (
	"container/heap"
	"sync"
	"time"
)

// DelayWheel schedules single-shot delayed sends and supports O(log n)
// cancellation by send-id. The donor's TimerEventSource
// (internal/extensibility/eventsource.go) only knows how to repeat on
// a fixed ticker; SCXML's <send delay="..."> needs a one-shot,
// cancelable-by-id timer instead, so this generalizes the idea onto a
// container/heap min-heap ordered by fire time, the structure
// container/heap exists for.
type DelayWheel struct {
	mu      sync.Mutex
	pq      delayHeap
	index   map[string]*delayItem
	timer   *time.Timer
	fire    func(Event)
	closed  bool
}

type delayItem struct {
	at     time.Time
	event  Event
	sendId string
	idx    int
	dead   bool
}

type delayHeap []*delayItem

func (h delayHeap) Len() int            { return len(h) }
func (h delayHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h delayHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].idx = i; h[j].idx = j }
func (h *delayHeap) Push(x interface{}) {
	item := x.(*delayItem)
	item.idx = len(*h)
	*h = append(*h, item)
}
func (h *delayHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// NewDelayWheel creates a wheel that invokes fire(event) when a
// scheduled send comes due. fire is called on the wheel's own timer
// goroutine; callers typically just push onto an ExternalQueue.
func NewDelayWheel(fire func(Event)) *DelayWheel {
	return &DelayWheel{index: make(map[string]*delayItem), fire: fire}
}

// Schedule arranges for e to fire after delay, addressable by sendId
// for later cancellation. An empty sendId disables cancellation.
func (w *DelayWheel) Schedule(sendId string, e Event, delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	item := &delayItem{at: time.Now().Add(delay), event: e, sendId: sendId}
	heap.Push(&w.pq, item)
	if sendId != "" {
		w.index[sendId] = item
	}
	w.rescheduleTimerLocked()
}

// Cancel removes a pending send by id in O(log n) via lazy deletion:
// the item is marked dead and skipped when popped.
func (w *DelayWheel) Cancel(sendId string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	item, ok := w.index[sendId]
	if !ok {
		return false
	}
	item.dead = true
	delete(w.index, sendId)
	return true
}

func (w *DelayWheel) rescheduleTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if len(w.pq) == 0 {
		return
	}
	next := w.pq[0]
	d := time.Until(next.at)
	if d < 0 {
		d = 0
	}
	w.timer = time.AfterFunc(d, w.onTimer)
}

func (w *DelayWheel) onTimer() {
	w.mu.Lock()
	now := time.Now()
	var due []*delayItem
	for len(w.pq) > 0 && !w.pq[0].at.After(now) {
		item := heap.Pop(&w.pq).(*delayItem)
		if item.dead {
			continue
		}
		delete(w.index, item.sendId)
		due = append(due, item)
	}
	w.rescheduleTimerLocked()
	w.mu.Unlock()

	for _, item := range due {
		w.fire(item.event)
	}
}

// Close stops the underlying timer. Already-scheduled sends are
// discarded.
func (w *DelayWheel) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
}
