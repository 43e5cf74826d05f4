package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/vocdoni/privacy-pool/log"
	"github.com/vocdoni/privacy-pool/pool"
)

// EventHandler is called for each event emitted by the pool, in order.
type EventHandler func(*pool.Event)

// EventMonitor represents a service that follows the events emitted by a
// pool and hands them to a handler.
type EventMonitor struct {
	pool    *pool.Pool
	handler EventHandler
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewEventMonitor creates a new EventMonitor service. If handler is nil,
// the events are logged.
func NewEventMonitor(p *pool.Pool, handler EventHandler) *EventMonitor {
	if handler == nil {
		handler = logEvent
	}
	return &EventMonitor{
		pool:    p,
		handler: handler,
	}
}

// Start begins following the pool events. It returns an error if the
// service is already running.
func (em *EventMonitor) Start(ctx context.Context) error {
	em.mu.Lock()
	defer em.mu.Unlock()

	if em.cancel != nil {
		return fmt.Errorf("service already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	em.cancel = cancel
	em.done = make(chan struct{})

	events, unsubscribe := em.pool.Subscribe()
	go func() {
		defer close(em.done)
		defer unsubscribe()
		em.monitorEvents(ctx, events)
	}()
	return nil
}

// Stop halts the monitoring service and waits for the handler to return.
func (em *EventMonitor) Stop() {
	em.mu.Lock()
	defer em.mu.Unlock()

	if em.cancel != nil {
		em.cancel()
		<-em.done
		em.cancel = nil
	}
}

func (em *EventMonitor) monitorEvents(ctx context.Context, events <-chan *pool.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			em.handler(ev)
		}
	}
}

func logEvent(ev *pool.Event) {
	kv := []any{"seq", ev.Seq, "account", ev.Account.Hex()}
	switch {
	case ev.Commitment != nil:
		kv = append(kv, "commitment", ev.Commitment.String())
	case ev.NullifierHash != nil:
		kv = append(kv, "nullifierHash", ev.NullifierHash.String())
	}
	if ev.Value != nil {
		kv = append(kv, "value", ev.Value.String())
	}
	log.Infow(string(ev.Type), kv...)
}
