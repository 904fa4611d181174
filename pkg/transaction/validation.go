package transaction

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pennywise/pennywise/internal/errs"
)

const maxDescriptionLength = 500

// Validate checks the input the same way for manual entry and for receipt-scanned data.
func (in Input) Validate() error {
	verr := errs.NewValidationError()

	if !in.Type.Valid() {
		verr.Add("type", "Type must be EXPENSE or INCOME")
	}
	if !in.Amount.IsPositive() {
		verr.Add("amount", "Amount must be greater than zero")
	} else if !in.Amount.Equal(in.Amount.Round(2)) {
		verr.Add("amount", "Amount must have at most 2 decimal places")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		verr.Add("description", "Description is required")
	} else if len(description) > maxDescriptionLength {
		verr.Add("description", "Description is too long")
	}
	if strings.TrimSpace(in.Category) == "" {
		verr.Add("category", "Category is required")
	}
	if in.Date.IsZero() {
		verr.Add("date", "Date is required")
	}
	if in.AccountId == uuid.Nil {
		verr.Add("accountId", "Account is required")
	}
	if in.IsRecurring && in.RecurringInterval == "" {
		verr.Add("recurringInterval", "Recurring interval is required for recurring transactions")
	} else if in.RecurringInterval != "" && !in.RecurringInterval.Valid() {
		verr.Add("recurringInterval", "Recurring interval must be one of DAILY, WEEKLY, MONTHLY, YEARLY")
	}

	return verr.OrNil()
}
