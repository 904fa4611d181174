package stats

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pennywise/pennywise/internal/errs"
	"github.com/pennywise/pennywise/pkg/account"
	"github.com/pennywise/pennywise/pkg/budget"
	"github.com/pennywise/pennywise/pkg/transaction"
	"github.com/shopspring/decimal"
)

const recentTransactionsLimit = 5

// Range selects how far back the daily series goes.
type Range string

const (
	Range7D  Range = "7D"
	Range1M  Range = "1M"
	Range3M  Range = "3M"
	Range6M  Range = "6M"
	RangeAll Range = "ALL"
)

var rangeDays = map[Range]int{
	Range7D: 7,
	Range1M: 30,
	Range3M: 90,
	Range6M: 180,
}

// ParseRange defaults to one month when raw is empty.
func ParseRange(raw string) (Range, error) {
	if raw == "" {
		return Range1M, nil
	}
	r := Range(raw)
	if _, ok := rangeDays[r]; ok || r == RangeAll {
		return r, nil
	}
	return "", errs.NewValidationError().Add("range", fmt.Sprintf("Range must be one of 7D, 1M, 3M, 6M, ALL, got %q", raw))
}

type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

type Overview struct {
	Accounts []account.Account
	// SelectedAccountId is nil when the user has no accounts yet.
	SelectedAccountId  *uuid.UUID
	RecentTransactions []transaction.Transaction
	ExpensesByCategory []CategoryTotal
	Budget             budget.CurrentBudget
}

type DailyTotals struct {
	Date    time.Time
	Income  decimal.Decimal
	Expense decimal.Decimal
}

func (d DailyTotals) Net() decimal.Decimal {
	return d.Income.Sub(d.Expense)
}

type DailySeries struct {
	Range Range
	// From is zero for RangeAll.
	From         time.Time
	To           time.Time
	Days         []DailyTotals
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
}

func (s DailySeries) Net() decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpense)
}
