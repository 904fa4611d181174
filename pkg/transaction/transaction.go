package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/pennywise/pennywise/pkg/ledger"
	"github.com/shopspring/decimal"
)

type Type string

const (
	Expense Type = "EXPENSE"
	Income  Type = "INCOME"
)

func (t Type) Valid() bool {
	return t == Expense || t == Income
}

type RecurringInterval string

const (
	Daily   RecurringInterval = "DAILY"
	Weekly  RecurringInterval = "WEEKLY"
	Monthly RecurringInterval = "MONTHLY"
	Yearly  RecurringInterval = "YEARLY"
)

func (i RecurringInterval) Valid() bool {
	switch i {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

type Transaction struct {
	Id                uuid.UUID
	AccountId         uuid.UUID
	Type              Type
	Amount            decimal.Decimal
	Description       string
	Category          string
	Date              time.Time
	ReceiptUrl        string
	IsRecurring       bool
	RecurringInterval RecurringInterval
	NextRecurringDate *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (t Transaction) entry() ledger.Entry {
	return ledger.Entry{AccountId: t.AccountId, Amount: t.Amount, Income: t.Type == Income}
}

// Input carries the user editable fields of a transaction for create and update.
type Input struct {
	Type              Type
	Amount            decimal.Decimal
	Description       string
	Category          string
	Date              time.Time
	AccountId         uuid.UUID
	ReceiptUrl        string
	IsRecurring       bool
	RecurringInterval RecurringInterval
}

// apply copies the input onto t and derives the recurrence fields.
func (in Input) apply(t Transaction) Transaction {
	t.Type = in.Type
	t.Amount = in.Amount
	t.Description = in.Description
	t.Category = in.Category
	t.Date = in.Date
	t.AccountId = in.AccountId
	t.ReceiptUrl = in.ReceiptUrl
	t.IsRecurring = in.IsRecurring
	t.RecurringInterval = ""
	t.NextRecurringDate = nil
	if in.IsRecurring {
		t.RecurringInterval = in.RecurringInterval
		next := NextRecurringDate(in.Date, in.RecurringInterval)
		t.NextRecurringDate = &next
	}
	return t
}

// Filter narrows List. Zero values mean "no restriction".
type Filter struct {
	AccountId *uuid.UUID
	Type      Type
	From      *time.Time
	To        *time.Time
	Limit     int
}
