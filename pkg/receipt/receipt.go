package receipt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pennywise/pennywise/internal/errs"
	"github.com/shopspring/decimal"
)

const fallbackCategory = "other-expense"

// ExpenseCategories are the category ids a scanned receipt may be filed under.
var ExpenseCategories = []string{
	"housing",
	"transportation",
	"groceries",
	"utilities",
	"entertainment",
	"food",
	"shopping",
	"healthcare",
	"education",
	"personal",
	"travel",
	"insurance",
	"gifts",
	"bills",
	fallbackCategory,
}

var ErrNotAReceipt = fmt.Errorf("image is not a receipt: %w", errs.ErrInvalidExternalResponse)

// Receipt is the data extracted from a receipt image, ready to prefill an expense.
type Receipt struct {
	Amount       decimal.Decimal
	Date         time.Time
	Description  string
	MerchantName string
	Category     string
}

type rawReceipt struct {
	Amount       *decimal.Decimal `json:"amount"`
	Date         string           `json:"date"`
	Description  string           `json:"description"`
	MerchantName string           `json:"merchantName"`
	Category     string           `json:"category"`
}

var fencePattern = regexp.MustCompile("```(?:json)?\\n?")

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Parse reads the model answer. The answer is untrusted: anything that does not describe a
// plausible receipt is rejected with ErrInvalidExternalResponse.
func Parse(text string) (Receipt, error) {
	clean := strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &fields); err != nil {
		return Receipt{}, fmt.Errorf("receipt response is not a JSON object: %w", errs.ErrInvalidExternalResponse)
	}
	if len(fields) == 0 {
		return Receipt{}, ErrNotAReceipt
	}

	var raw rawReceipt
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return Receipt{}, fmt.Errorf("receipt response has unexpected fields: %w", errs.ErrInvalidExternalResponse)
	}
	if raw.Amount == nil || !raw.Amount.IsPositive() {
		return Receipt{}, fmt.Errorf("receipt amount is missing or not positive: %w", errs.ErrInvalidExternalResponse)
	}
	date, err := parseDate(raw.Date)
	if err != nil {
		return Receipt{}, fmt.Errorf("receipt date %q is invalid: %w", raw.Date, errs.ErrInvalidExternalResponse)
	}

	return Receipt{
		Amount:       raw.Amount.Round(2),
		Date:         date,
		Description:  strings.TrimSpace(raw.Description),
		MerchantName: strings.TrimSpace(raw.MerchantName),
		Category:     normalizeCategory(raw.Category),
	}, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	for _, known := range ExpenseCategories {
		if category == known {
			return known
		}
	}
	return fallbackCategory
}
