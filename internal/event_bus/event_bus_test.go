package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_SubscribeTyped(t *testing.T) {
	t.Run("should deliver typed payloads to matching subscribers", func(t *testing.T) {
		// given
		bus := NewEventBus()
		var received []TransactionChanged
		SubscribeTyped(bus, TransactionCreated, func(e EventT[TransactionChanged]) error {
			received = append(received, e.Data)
			return nil
		})
		payload := TransactionChanged{UserId: 1, TransactionId: uuid.New(), Amount: decimal.NewFromInt(50)}

		// when
		err := bus.Publish(NewEvent(context.Background(), TransactionCreated, payload))

		// then
		require.NoError(t, err)
		require.Len(t, received, 1)
		assert.Equal(t, payload.TransactionId, received[0].TransactionId)
	})

	t.Run("should skip payloads of another type", func(t *testing.T) {
		bus := NewEventBus()
		called := false
		SubscribeTyped(bus, TransactionCreated, func(e EventT[TransactionChanged]) error {
			called = true
			return nil
		})

		err := bus.Publish(NewEvent(context.Background(), TransactionCreated, "not a transaction"))

		assert.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("should stop delivering after unsubscribe", func(t *testing.T) {
		bus := NewEventBus()
		calls := 0
		unsubscribe := SubscribeTyped(bus, DefaultAccountChanged, func(e EventT[DefaultAccountSet]) error {
			calls++
			return nil
		})

		_ = bus.Publish(NewEvent(context.Background(), DefaultAccountChanged, DefaultAccountSet{UserId: 1}))
		unsubscribe()
		_ = bus.Publish(NewEvent(context.Background(), DefaultAccountChanged, DefaultAccountSet{UserId: 1}))

		assert.Equal(t, 1, calls)
	})
}

func TestEventBus_Publish(t *testing.T) {
	t.Run("should collect handler errors and recover panics", func(t *testing.T) {
		bus := NewEventBus()
		bus.Subscribe(TransactionsDeleted, func(e Event) error { return errors.New("broker down") })
		bus.Subscribe(TransactionsDeleted, func(e Event) error { panic("boom") })

		err := bus.Publish(NewEvent(context.Background(), TransactionsDeleted, TransactionsRemoved{}))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "2 handler(s) failed")
	})

	t.Run("should run handlers in subscription order", func(t *testing.T) {
		bus := NewEventBus()
		var order []int
		for i := 1; i <= 5; i++ {
			n := i
			bus.Subscribe(TransactionUpdated, func(e Event) error {
				order = append(order, n)
				return nil
			})
		}

		err := bus.Publish(NewEvent(context.Background(), TransactionUpdated, TransactionChanged{}))

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, order)
	})

	t.Run("should refuse to publish on a cancelled context", func(t *testing.T) {
		bus := NewEventBus()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := bus.Publish(NewEvent(ctx, TransactionCreated, TransactionChanged{}))

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEventBus_Emit(t *testing.T) {
	t.Run("should deliver even when the request context is already cancelled", func(t *testing.T) {
		bus := NewEventBus()
		delivered := false
		bus.Subscribe(TransactionUpdated, func(e Event) error {
			delivered = true
			return errors.New("ignored")
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bus.Emit(ctx, TransactionUpdated, TransactionChanged{})

		assert.True(t, delivered)
	})

	t.Run("should tolerate a nil bus", func(t *testing.T) {
		var bus *EventBus
		assert.NotPanics(t, func() { bus.Emit(context.Background(), TransactionCreated, nil) })
	})
}
