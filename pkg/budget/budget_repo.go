package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BudgetRepo interface {
	// Get returns nil when the user has no budget.
	Get(ctx context.Context, userId int) (*Budget, error)
	Upsert(ctx context.Context, userId int, amount decimal.Decimal) (Budget, error)
	// SumExpenses adds up EXPENSE amounts dated within [from, to], optionally for one account only.
	SumExpenses(ctx context.Context, userId int, accountId *uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}

type BudgetRepoImpl struct {
	db *pgxpool.Pool
}

func NewBudgetRepo(db *pgxpool.Pool) *BudgetRepoImpl {
	return &BudgetRepoImpl{db: db}
}

func (bi BudgetRepoImpl) Get(ctx context.Context, userId int) (*Budget, error) {
	query := `SELECT id, amount::text, updated_at FROM budgets WHERE user_id = $1`
	budget, err := scanBudget(bi.db.QueryRow(ctx, query, userId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		err := fmt.Errorf("could not get budget: %w", err)
		log.Error(err)
		return nil, err
	}
	return &budget, nil
}

func (bi BudgetRepoImpl) Upsert(ctx context.Context, userId int, amount decimal.Decimal) (Budget, error) {
	query := `INSERT INTO budgets (user_id, amount) VALUES ($1, $2::numeric)
				ON CONFLICT (user_id) DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()
				RETURNING id, amount::text, updated_at`
	budget, err := scanBudget(bi.db.QueryRow(ctx, query, userId, amount.String()))
	if err != nil {
		err := fmt.Errorf("could not upsert budget: %w", err)
		log.Error(err)
		return Budget{}, err
	}
	return budget, nil
}

func (bi BudgetRepoImpl) SumExpenses(ctx context.Context, userId int, accountId *uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0)::text FROM transactions
				WHERE user_id = $1 AND type = 'EXPENSE' AND date >= $2 AND date <= $3
				  AND ($4::uuid IS NULL OR account_id = $4)`
	var raw string
	if err := bi.db.QueryRow(ctx, query, userId, from, to, accountId).Scan(&raw); err != nil {
		err := fmt.Errorf("could not sum expenses: %w", err)
		log.Error(err)
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

func scanBudget(row pgx.Row) (Budget, error) {
	var (
		budget    Budget
		rawAmount string
	)
	if err := row.Scan(&budget.ID, &rawAmount, &budget.UpdatedAt); err != nil {
		return Budget{}, err
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return Budget{}, fmt.Errorf("invalid budget amount %q: %w", rawAmount, err)
	}
	budget.Amount = amount
	return budget, nil
}
