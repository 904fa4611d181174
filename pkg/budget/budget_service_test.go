package budget

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pennywise/pennywise/internal/errs"
	"github.com/pennywise/pennywise/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

const userId = 3

var budgetRepoStub = NewStubBudgetRepo()

var (
	budgetService *BudgetServiceImpl
	clock         *utils.MockClock
)

func setup(t *testing.T) func() {
	clock = utils.NewMockClock(time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC))
	budgetService = NewBudgetServiceImpl(budgetRepoStub, clock)
	return func() {
		t.Log("Teardown after test")
		budgetRepoStub.Cleanup()
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBudgetServiceImpl_GetCurrentBudget(t *testing.T) {
	t.Run("should sum expenses of the current month only", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		accountId := uuid.New()
		_, err := budgetService.UpdateBudget(ctx, userId, dec("1000"))
		require.NoError(t, err)
		budgetRepoStub.AddExpense(userId, accountId, dec("100"), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		budgetRepoStub.AddExpense(userId, accountId, dec("50.25"), time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC))
		budgetRepoStub.AddExpense(userId, accountId, dec("999"), time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC))
		budgetRepoStub.AddExpense(userId, accountId, dec("999"), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
		budgetRepoStub.AddExpense(userId+1, accountId, dec("999"), time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))

		// when
		current, err := budgetService.GetCurrentBudget(ctx, userId, nil)

		// then
		require.NoError(t, err)
		require.NotNil(t, current.Budget)
		assert.True(t, dec("1000").Equal(current.Budget.Amount))
		assert.True(t, dec("150.25").Equal(current.CurrentExpenses))
		assert.True(t, dec("849.75").Equal(current.Remaining()))
		assert.True(t, dec("15").Equal(current.PercentUsed()))
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), current.PeriodStart)
		assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999000000, time.UTC), current.PeriodEnd)
	})

	t.Run("should filter by account", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		wanted, other := uuid.New(), uuid.New()
		budgetRepoStub.AddExpense(userId, wanted, dec("10"), time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC))
		budgetRepoStub.AddExpense(userId, other, dec("20"), time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC))

		current, err := budgetService.GetCurrentBudget(ctx, userId, &wanted)

		require.NoError(t, err)
		assert.True(t, dec("10").Equal(current.CurrentExpenses))
	})

	t.Run("should report zero without a budget or expenses", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		current, err := budgetService.GetCurrentBudget(ctx, userId, nil)

		require.NoError(t, err)
		assert.Nil(t, current.Budget)
		assert.True(t, current.CurrentExpenses.IsZero())
		assert.True(t, current.PercentUsed().IsZero())
	})

	t.Run("should use the UTC month even when the clock is in another zone", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// 1 March 01:00 in UTC+2 is still 29 February in UTC
		zone := time.FixedZone("UTC+2", 2*60*60)
		clock.SetNow(time.Date(2024, 3, 1, 1, 0, 0, 0, zone))

		current, err := budgetService.GetCurrentBudget(ctx, userId, nil)

		require.NoError(t, err)
		assert.Equal(t, time.February, current.PeriodStart.Month())
	})
}

func TestBudgetServiceImpl_UpdateBudget(t *testing.T) {
	t.Run("should keep a single budget per user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		first, err := budgetService.UpdateBudget(ctx, userId, dec("500"))
		require.NoError(t, err)
		second, err := budgetService.UpdateBudget(ctx, userId, dec("750.50"))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		current, err := budgetService.GetCurrentBudget(ctx, userId, nil)
		require.NoError(t, err)
		assert.True(t, dec("750.50").Equal(current.Budget.Amount))
	})

	t.Run("should reject non positive amounts", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		for _, amount := range []string{"0", "-10", "10.001"} {
			_, err := budgetService.UpdateBudget(ctx, userId, dec(amount))
			assert.ErrorIs(t, err, errs.ErrValidation, amount)
		}
	})
}
