package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pennywise/pennywise/internal/errs"
	"github.com/shopspring/decimal"
)

type Type string

const (
	Current Type = "CURRENT"
	Savings Type = "SAVINGS"
)

func (t Type) Valid() bool {
	return t == Current || t == Savings
}

const maxNameLength = 100

type Account struct {
	Id        uuid.UUID
	Name      string
	Type      Type
	Balance   decimal.Decimal
	IsDefault bool
	// TransactionCount is filled on reads only.
	TransactionCount int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Input struct {
	Name      string
	Type      Type
	Balance   decimal.Decimal
	IsDefault bool
}

func (in Input) Validate() error {
	verr := errs.NewValidationError()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		verr.Add("name", "Name is required")
	} else if len(name) > maxNameLength {
		verr.Add("name", "Name is too long")
	}
	if !in.Type.Valid() {
		verr.Add("type", "Type must be CURRENT or SAVINGS")
	}
	if !in.Balance.Equal(in.Balance.Round(2)) {
		verr.Add("balance", "Balance must have at most 2 decimal places")
	}
	return verr.OrNil()
}
