package account

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pennywise/pennywise/internal/errs"
	"github.com/pennywise/pennywise/internal/event_bus"
	"github.com/pennywise/pennywise/pkg/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

const userId = 7

var repoStub = NewStubAccountRepo()

type transactionListerStub struct {
	transactions []transaction.Transaction
	lastFilter   transaction.Filter
}

func (s *transactionListerStub) List(ctx context.Context, userId int, filter transaction.Filter) ([]transaction.Transaction, error) {
	s.lastFilter = filter
	return s.transactions, nil
}

var (
	service  *ServiceImpl
	lister   *transactionListerStub
	eventBus *event_bus.EventBus
)

func setup(t *testing.T) func() {
	lister = &transactionListerStub{}
	eventBus = event_bus.NewEventBus()
	service = NewService(repoStub, lister, eventBus)
	return func() {
		t.Log("Teardown after test")
		repoStub.Cleanup()
	}
}

func savings(name string) Input {
	return Input{Name: name, Type: Savings, Balance: decimal.RequireFromString("250.00")}
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should make the first account the default one", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		var defaults []event_bus.DefaultAccountSet
		event_bus.SubscribeTyped(eventBus, event_bus.DefaultAccountChanged, func(e event_bus.EventT[event_bus.DefaultAccountSet]) error {
			defaults = append(defaults, e.Data)
			return nil
		})

		// when
		first, err := service.Create(ctx, userId, savings("Rainy day"))
		require.NoError(t, err)
		second, err := service.Create(ctx, userId, savings("Holidays"))
		require.NoError(t, err)

		// then
		assert.True(t, first.IsDefault)
		assert.False(t, second.IsDefault)
		assert.Equal(t, 1, repoStub.DefaultCount(userId))
		require.Len(t, defaults, 1)
		assert.Equal(t, first.Id, defaults[0].AccountId)
	})

	t.Run("should move the default flag to a new default account", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		first, err := service.Create(ctx, userId, savings("Main"))
		require.NoError(t, err)
		in := savings("New main")
		in.IsDefault = true

		second, err := service.Create(ctx, userId, in)
		require.NoError(t, err)

		assert.True(t, second.IsDefault)
		reloaded, err := service.Get(ctx, userId, first.Id)
		require.NoError(t, err)
		assert.False(t, reloaded.IsDefault)
		assert.Equal(t, 1, repoStub.DefaultCount(userId))
	})

	t.Run("should reject invalid input", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Create(ctx, userId, Input{Type: "CHECKING", Balance: decimal.RequireFromString("1.001")})

		var verr *errs.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "name")
		assert.Contains(t, verr.Fields, "type")
		assert.Contains(t, verr.Fields, "balance")
	})
}

func TestServiceImpl_SetDefault(t *testing.T) {
	t.Run("should leave exactly one default account", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		first, _ := service.Create(ctx, userId, savings("A"))
		second, _ := service.Create(ctx, userId, savings("B"))

		// when
		updated, err := service.SetDefault(ctx, userId, second.Id)

		// then
		require.NoError(t, err)
		assert.True(t, updated.IsDefault)
		accounts, err := service.List(ctx, userId)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, second.Id, accounts[0].Id)
		assert.Equal(t, first.Id, accounts[1].Id)
		assert.Equal(t, 1, repoStub.DefaultCount(userId))
	})

	t.Run("should keep the previous default when the target is not owned", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		first, _ := service.Create(ctx, userId, savings("A"))
		foreign, _ := service.Create(ctx, userId+1, savings("Foreign"))

		_, err := service.SetDefault(ctx, userId, foreign.Id)

		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.ErrorIs(t, err, errs.ErrNotFound)
		reloaded, err := service.Get(ctx, userId, first.Id)
		require.NoError(t, err)
		assert.True(t, reloaded.IsDefault)
	})

	t.Run("should be idempotent", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		first, _ := service.Create(ctx, userId, savings("A"))

		_, err := service.SetDefault(ctx, userId, first.Id)
		require.NoError(t, err)
		_, err = service.SetDefault(ctx, userId, first.Id)
		require.NoError(t, err)

		assert.Equal(t, 1, repoStub.DefaultCount(userId))
	})
}

func TestServiceImpl_GetWithTransactions(t *testing.T) {
	t.Run("should return the account with its transactions", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		created, _ := service.Create(ctx, userId, savings("A"))
		lister.transactions = []transaction.Transaction{{Id: uuid.New(), AccountId: created.Id}}

		details, err := service.GetWithTransactions(ctx, userId, created.Id)

		require.NoError(t, err)
		assert.Equal(t, created.Id, details.Account.Id)
		assert.Len(t, details.Transactions, 1)
		require.NotNil(t, lister.lastFilter.AccountId)
		assert.Equal(t, created.Id, *lister.lastFilter.AccountId)
	})

	t.Run("should not reveal foreign accounts", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		foreign, _ := service.Create(ctx, userId+1, savings("Foreign"))

		_, err := service.GetWithTransactions(ctx, userId, foreign.Id)

		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}
