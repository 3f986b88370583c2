package probe

import (
	"sync"

	"FloodSight/internal/model"
)

// Funnel routes flow records from concurrent subscriber callbacks to the one
// ingesting goroutine. Deliver never sends on a closed channel: after Stop it
// drops records instead, so a NATS callback still in flight during shutdown
// cannot panic the engine.
type Funnel struct {
	flows chan *model.FlowRecord
	quit  chan struct{}
	once  sync.Once
}

// NewFunnel creates a funnel with the given channel capacity.
func NewFunnel(size int) *Funnel {
	return &Funnel{
		flows: make(chan *model.FlowRecord, size),
		quit:  make(chan struct{}),
	}
}

// Deliver hands a record to the consumer. Safe to call from any goroutine;
// records arriving after Stop are dropped.
func (f *Funnel) Deliver(flow *model.FlowRecord) {
	select {
	case f.flows <- flow:
	case <-f.quit:
	}
}

// Stop ends delivery. Consume drains what is already buffered and returns.
func (f *Funnel) Stop() {
	f.once.Do(func() { close(f.quit) })
}

// Consume runs handler for every delivered record until Stop is called and
// the buffer is drained. It blocks; run it on the ingesting goroutine.
func (f *Funnel) Consume(handler FlowHandler) {
	for {
		select {
		case flow := <-f.flows:
			handler(flow)
		case <-f.quit:
			for {
				select {
				case flow := <-f.flows:
					handler(flow)
				default:
					return
				}
			}
		}
	}
}
