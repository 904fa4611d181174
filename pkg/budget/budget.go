package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is the monthly spending ceiling of a user. There is at most one per user.
type Budget struct {
	ID        int
	Amount    decimal.Decimal
	UpdatedAt time.Time
}

type CurrentBudget struct {
	// Budget is nil when the user has not set one yet.
	Budget          *Budget
	CurrentExpenses decimal.Decimal
	PeriodStart     time.Time
	PeriodEnd       time.Time
}

// Remaining is the part of the budget not spent yet; negative once overspent. Zero without a budget.
func (c CurrentBudget) Remaining() decimal.Decimal {
	if c.Budget == nil {
		return decimal.Zero
	}
	return c.Budget.Amount.Sub(c.CurrentExpenses)
}

// PercentUsed is the share of the budget spent so far, rounded to one decimal place.
func (c CurrentBudget) PercentUsed() decimal.Decimal {
	if c.Budget == nil || !c.Budget.Amount.IsPositive() {
		return decimal.Zero
	}
	return c.CurrentExpenses.Div(c.Budget.Amount).Mul(decimal.NewFromInt(100)).Round(1)
}
