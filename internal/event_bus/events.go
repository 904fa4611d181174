package event_bus

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionCreated    EventType = "transaction.created"
	TransactionUpdated    EventType = "transaction.updated"
	TransactionsDeleted   EventType = "transaction.deleted"
	DefaultAccountChanged EventType = "account.default_changed"
)

// TransactionChanged describes a transaction after it was created or updated.
type TransactionChanged struct {
	UserId        int
	TransactionId uuid.UUID
	AccountId     uuid.UUID
	Type          string
	Amount        decimal.Decimal
	Category      string
	Date          time.Time
}

type TransactionsRemoved struct {
	UserId         int
	TransactionIds []uuid.UUID
	AccountIds     []uuid.UUID
}

type DefaultAccountSet struct {
	UserId    int
	AccountId uuid.UUID
}
