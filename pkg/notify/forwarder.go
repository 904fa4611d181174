package notify

import (
	"github.com/pennywise/pennywise/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// Forwarder republishes in-process domain events to the broker.
type Forwarder struct {
	publisher Publisher
}

func NewForwarder(publisher Publisher) *Forwarder {
	return &Forwarder{publisher: publisher}
}

// Register subscribes to every forwarded event type. The returned func removes the subscriptions.
func (f *Forwarder) Register(bus *event_bus.EventBus) func() {
	unsubscribers := []func(){
		event_bus.SubscribeTyped(bus, event_bus.TransactionCreated, forward(f, func(d event_bus.TransactionChanged) int { return d.UserId })),
		event_bus.SubscribeTyped(bus, event_bus.TransactionUpdated, forward(f, func(d event_bus.TransactionChanged) int { return d.UserId })),
		event_bus.SubscribeTyped(bus, event_bus.TransactionsDeleted, forward(f, func(d event_bus.TransactionsRemoved) int { return d.UserId })),
		event_bus.SubscribeTyped(bus, event_bus.DefaultAccountChanged, forward(f, func(d event_bus.DefaultAccountSet) int { return d.UserId })),
	}
	return func() {
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
	}
}

func forward[T any](f *Forwarder, owner func(T) int) func(event_bus.EventT[T]) error {
	return func(e event_bus.EventT[T]) error {
		body, err := Message{
			Type:       string(e.Type),
			UserId:     owner(e.Data),
			OccurredAt: e.Timestamp,
			Payload:    e.Data,
		}.ToJSON()
		if err != nil {
			return err
		}
		if err := f.publisher.Publish(e.Context(), body); err != nil {
			log.Warnf("could not forward %s event: %v", e.Type, err)
			return err
		}
		return nil
	}
}
