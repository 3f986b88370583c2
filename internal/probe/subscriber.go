package probe

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"FloodSight/internal/config"
	"FloodSight/internal/model"
)

// FlowHandler is a function that processes a received flow record.
type FlowHandler func(flow *model.FlowRecord)

// Subscriber is responsible for subscribing to a NATS subject and decoding
// the flow records it carries.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(cfg config.NATSConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// Start subscribes to the configured subject and feeds every decoded flow
// record to the handler. The handler runs on the NATS delivery goroutine;
// with the single-writer graph, route records through a Funnel to the
// ingesting goroutine rather than into the graph directly.
func (s *Subscriber) Start(handler FlowHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		var flow model.FlowRecord
		if err := json.Unmarshal(msg.Data, &flow); err != nil {
			log.Printf("Error unmarshalling flow record: %v", err)
			return
		}
		handler(&flow)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for flow records...", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
}
