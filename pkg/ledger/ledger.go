// Package ledger keeps an account's cached balance equal to the signed sum of its transactions.
// Every mutation of a transaction row is paired with the adjustments computed here, and both are
// written inside the same database transaction.
package ledger

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is the part of a transaction the ledger cares about.
type Entry struct {
	AccountId uuid.UUID
	Amount    decimal.Decimal
	Income    bool
}

// Adjustment is a signed change to apply to one account's balance.
type Adjustment struct {
	AccountId uuid.UUID
	Delta     decimal.Decimal
}

// BalanceWriter applies a delta with a single atomic increment, never a read followed by a write.
type BalanceWriter interface {
	IncrementBalance(ctx context.Context, userId int, accountId uuid.UUID, delta decimal.Decimal) error
}

// Delta is the effect an entry has on its account balance.
func Delta(e Entry) decimal.Decimal {
	if e.Income {
		return e.Amount
	}
	return e.Amount.Neg()
}

func ForCreate(e Entry) []Adjustment {
	return compact([]Adjustment{{AccountId: e.AccountId, Delta: Delta(e)}})
}

// ForUpdate reverses the old entry and applies the new one. When both live on the same account
// this collapses to a single newDelta - oldDelta adjustment.
func ForUpdate(old, updated Entry) []Adjustment {
	if old.AccountId == updated.AccountId {
		return compact([]Adjustment{{AccountId: updated.AccountId, Delta: Delta(updated).Sub(Delta(old))}})
	}
	return compact([]Adjustment{
		{AccountId: old.AccountId, Delta: Delta(old).Neg()},
		{AccountId: updated.AccountId, Delta: Delta(updated)},
	})
}

// ForDelete reverses every entry, grouped so each account receives one increment.
func ForDelete(entries []Entry) []Adjustment {
	byAccount := make(map[uuid.UUID]decimal.Decimal)
	for _, e := range entries {
		byAccount[e.AccountId] = byAccount[e.AccountId].Sub(Delta(e))
	}
	adjustments := make([]Adjustment, 0, len(byAccount))
	for accountId, delta := range byAccount {
		adjustments = append(adjustments, Adjustment{AccountId: accountId, Delta: delta})
	}
	return compact(adjustments)
}

// Apply writes the adjustments in account id order, so concurrent multi-account mutations lock rows in the same order.
func Apply(ctx context.Context, w BalanceWriter, userId int, adjustments []Adjustment) error {
	for _, a := range adjustments {
		if err := w.IncrementBalance(ctx, userId, a.AccountId, a.Delta); err != nil {
			return fmt.Errorf("failed to adjust balance of account %s: %w", a.AccountId, err)
		}
	}
	return nil
}

// Balance is the balance implied by a set of entries starting from zero.
func Balance(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(Delta(e))
	}
	return total
}

func compact(adjustments []Adjustment) []Adjustment {
	result := make([]Adjustment, 0, len(adjustments))
	for _, a := range adjustments {
		if !a.Delta.IsZero() {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].AccountId[:], result[j].AccountId[:]) < 0
	})
	return result
}
