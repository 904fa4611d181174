package budget

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubExpense struct {
	userId    int
	accountId uuid.UUID
	amount    decimal.Decimal
	date      time.Time
}

type StubBudgetRepo struct {
	nextId   int
	data     map[int]Budget
	expenses []stubExpense
}

func NewStubBudgetRepo() *StubBudgetRepo {
	return &StubBudgetRepo{nextId: 0, data: map[int]Budget{}}
}

// AddExpense records an expense that SumExpenses will consider.
func (s *StubBudgetRepo) AddExpense(userId int, accountId uuid.UUID, amount decimal.Decimal, date time.Time) {
	s.expenses = append(s.expenses, stubExpense{userId, accountId, amount, date})
}

func (s *StubBudgetRepo) Get(ctx context.Context, userId int) (*Budget, error) {
	budget, ok := s.data[userId]
	if !ok {
		return nil, nil
	}
	return &budget, nil
}

func (s *StubBudgetRepo) Upsert(ctx context.Context, userId int, amount decimal.Decimal) (Budget, error) {
	budget, ok := s.data[userId]
	if !ok {
		s.nextId++
		budget.ID = s.nextId
	}
	budget.Amount = amount
	budget.UpdatedAt = time.Now()
	s.data[userId] = budget
	return budget, nil
}

func (s *StubBudgetRepo) SumExpenses(ctx context.Context, userId int, accountId *uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range s.expenses {
		if e.userId != userId || e.date.Before(from) || e.date.After(to) {
			continue
		}
		if accountId != nil && e.accountId != *accountId {
			continue
		}
		sum = sum.Add(e.amount)
	}
	return sum, nil
}

func (s *StubBudgetRepo) Cleanup() {
	s.data = map[int]Budget{}
	s.expenses = nil
}
