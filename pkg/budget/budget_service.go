package budget

import (
	"context"

	"github.com/google/uuid"
	"github.com/pennywise/pennywise/internal/errs"
	"github.com/pennywise/pennywise/internal/utils"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BudgetService interface {
	GetCurrentBudget(ctx context.Context, userId int, accountId *uuid.UUID) (CurrentBudget, error)
	UpdateBudget(ctx context.Context, userId int, amount decimal.Decimal) (Budget, error)
}

type BudgetServiceImpl struct {
	repo  BudgetRepo
	clock utils.Clock
}

func NewBudgetServiceImpl(repo BudgetRepo, clock utils.Clock) *BudgetServiceImpl {
	return &BudgetServiceImpl{repo: repo, clock: clock}
}

// GetCurrentBudget reports the budget together with the expenses of the current calendar month in UTC.
func (s *BudgetServiceImpl) GetCurrentBudget(ctx context.Context, userId int, accountId *uuid.UUID) (CurrentBudget, error) {
	budget, err := s.repo.Get(ctx, userId)
	if err != nil {
		return CurrentBudget{}, err
	}

	from, to := utils.MonthBounds(s.clock.Now().UTC())
	expenses, err := s.repo.SumExpenses(ctx, userId, accountId, from, to)
	if err != nil {
		return CurrentBudget{}, err
	}

	return CurrentBudget{
		Budget:          budget,
		CurrentExpenses: expenses,
		PeriodStart:     from,
		PeriodEnd:       to,
	}, nil
}

func (s *BudgetServiceImpl) UpdateBudget(ctx context.Context, userId int, amount decimal.Decimal) (Budget, error) {
	verr := errs.NewValidationError()
	if !amount.IsPositive() {
		verr.Add("amount", "Amount must be greater than zero")
	} else if !amount.Equal(amount.Round(2)) {
		verr.Add("amount", "Amount must have at most 2 decimal places")
	}
	if err := verr.OrNil(); err != nil {
		return Budget{}, err
	}

	budget, err := s.repo.Upsert(ctx, userId, amount)
	if err != nil {
		return Budget{}, err
	}
	log.Debugf("user %d set monthly budget to %s", userId, amount)
	return budget, nil
}
