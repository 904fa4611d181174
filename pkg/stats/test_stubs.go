package stats

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/pennywise/pennywise/pkg/account"
	"github.com/pennywise/pennywise/pkg/budget"
	"github.com/pennywise/pennywise/pkg/transaction"
	"github.com/shopspring/decimal"
)

type accountListerStub struct {
	accounts []account.Account
}

func (s *accountListerStub) List(ctx context.Context, userId int) ([]account.Account, error) {
	return s.accounts, nil
}

// transactionListerStub applies the account, type, date and limit filters like the real repository.
type transactionListerStub struct {
	transactions []transaction.Transaction
	err          error
}

func (s *transactionListerStub) List(ctx context.Context, userId int, filter transaction.Filter) ([]transaction.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make([]transaction.Transaction, 0)
	for _, t := range s.transactions {
		if filter.AccountId != nil && t.AccountId != *filter.AccountId {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.From != nil && t.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.Date.After(*filter.To) {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

type budgetReaderStub struct {
	amount        *decimal.Decimal
	lastAccountId *uuid.UUID
}

func (s *budgetReaderStub) GetCurrentBudget(ctx context.Context, userId int, accountId *uuid.UUID) (budget.CurrentBudget, error) {
	s.lastAccountId = accountId
	current := budget.CurrentBudget{CurrentExpenses: decimal.Zero}
	if s.amount != nil {
		current.Budget = &budget.Budget{ID: 1, Amount: *s.amount}
	}
	return current, nil
}

var errListFailed = errors.New("list failed")
