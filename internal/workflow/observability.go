package workflow

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type NodeLatencyObserver interface {
	ObserveNodeLatency(nodeID string, duration time.Duration)
}

type NodeLatencyLogger struct {
	logger *slog.Logger
}

func NewNodeLatencyLogger(logger *slog.Logger) *NodeLatencyLogger {
	return &NodeLatencyLogger{logger: logger}
}

func (l *NodeLatencyLogger) ObserveNodeLatency(nodeID string, duration time.Duration) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Debug("workflow_node_latency", "node", nodeID, "duration_ms", float64(duration.Microseconds())/1000.0)
}

func (l *NodeLatencyLogger) ObserveFragments(nodeID string, in, out int) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Debug("workflow_node_fragments", "node", nodeID, "in", in, "out", out)
}

// Observers fans every event out to each observer that handles it.
type Observers []NodeLatencyObserver

func (o Observers) ObserveNodeLatency(nodeID string, duration time.Duration) {
	for _, obs := range o {
		if obs != nil {
			obs.ObserveNodeLatency(nodeID, duration)
		}
	}
}

func (o Observers) ObserveFragments(nodeID string, in, out int) {
	for _, obs := range o {
		if fo, ok := obs.(FragmentObserver); ok {
			fo.ObserveFragments(nodeID, in, out)
		}
	}
}

// AsyncNodeLatencyObserver moves observation off the routing path. Events
// are dropped, not queued, when the buffer is full or after Close.
type AsyncNodeLatencyObserver struct {
	next    NodeLatencyObserver
	events  chan nodeEvent
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

type nodeEvent struct {
	nodeID    string
	duration  time.Duration
	fragments bool
	in, out   int
}

func NewAsyncNodeLatencyObserver(next NodeLatencyObserver, buffer int) *AsyncNodeLatencyObserver {
	if buffer <= 0 {
		buffer = 1
	}

	o := &AsyncNodeLatencyObserver{
		next:   next,
		events: make(chan nodeEvent, buffer),
	}

	fo, _ := next.(FragmentObserver)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for ev := range o.events {
			switch {
			case ev.fragments && fo != nil:
				fo.ObserveFragments(ev.nodeID, ev.in, ev.out)
			case !ev.fragments && o.next != nil:
				o.next.ObserveNodeLatency(ev.nodeID, ev.duration)
			}
		}
	}()

	return o
}

func (o *AsyncNodeLatencyObserver) ObserveNodeLatency(nodeID string, duration time.Duration) {
	o.send(nodeEvent{nodeID: nodeID, duration: duration})
}

func (o *AsyncNodeLatencyObserver) ObserveFragments(nodeID string, in, out int) {
	o.send(nodeEvent{nodeID: nodeID, fragments: true, in: in, out: out})
}

func (o *AsyncNodeLatencyObserver) send(ev nodeEvent) {
	if o == nil {
		return
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.dropped.Add(1)
		return
	}
	select {
	case o.events <- ev:
	default:
		o.dropped.Add(1)
	}
}

func (o *AsyncNodeLatencyObserver) Dropped() uint64 {
	if o == nil {
		return 0
	}
	return o.dropped.Load()
}

// Close flushes buffered events and stops the worker.
func (o *AsyncNodeLatencyObserver) Close() {
	if o == nil {
		return
	}
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.events)
		o.mu.Unlock()
		o.wg.Wait()
	})
}
