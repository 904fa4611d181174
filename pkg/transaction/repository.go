package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennywise/pennywise/internal/errs"
	"github.com/pennywise/pennywise/pkg/ledger"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrTransactionNotFound = fmt.Errorf("transaction not found: %w", errs.ErrNotFound)
var ErrAccountNotFound = fmt.Errorf("account not found: %w", errs.ErrNotFound)

type Repository interface {
	ledger.BalanceWriter
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	AccountOwned(ctx context.Context, userId int, accountId uuid.UUID) (bool, error)
	Store(ctx context.Context, userId int, t Transaction) (Transaction, error)
	Get(ctx context.Context, userId int, id uuid.UUID) (Transaction, error)
	// GetForUpdate loads the transaction and locks its row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, userId int, id uuid.UUID) (Transaction, error)
	Update(ctx context.Context, userId int, t Transaction) (Transaction, error)
	// FindForDelete returns the owned transactions among ids, locked. Unknown ids are skipped.
	FindForDelete(ctx context.Context, userId int, ids []uuid.UUID) ([]Transaction, error)
	DeleteMany(ctx context.Context, userId int, ids []uuid.UUID) (int, error)
	List(ctx context.Context, userId int, filter Filter) ([]Transaction, error)
}

type repositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepo(db *pgxpool.Pool) Repository {
	return &repositoryImpl{db: db}
}

const selectColumns = `id, account_id, type, amount::text, description, category, date, COALESCE(receipt_url, ''),
				is_recurring, COALESCE(recurring_interval, ''), next_recurring_date, created_at, updated_at`

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *repositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// no-op when the transaction was already committed
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&repositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *repositoryImpl) AccountOwned(ctx context.Context, userId int, accountId uuid.UUID) (bool, error) {
	var exists bool
	err := r.getQueryer().QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1 AND user_id = $2)`, accountId, userId).
		Scan(&exists)
	if err != nil {
		err := fmt.Errorf("could not check account ownership: %w", err)
		log.Error(err)
		return false, err
	}
	return exists, nil
}

func (r *repositoryImpl) IncrementBalance(ctx context.Context, userId int, accountId uuid.UUID, delta decimal.Decimal) error {
	query := `UPDATE accounts SET balance = balance + $1::numeric, updated_at = now() WHERE id = $2 AND user_id = $3`
	result, err := r.getQueryer().Exec(ctx, query, delta.String(), accountId, userId)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *repositoryImpl) Store(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	query := `INSERT INTO transactions (
					id, user_id, account_id, type, amount, description, category, date,
					receipt_url, is_recurring, recurring_interval, next_recurring_date
				) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, NULLIF($9, ''), $10, NULLIF($11, ''), $12)
				RETURNING ` + selectColumns

	stored, err := scanTransaction(r.getQueryer().QueryRow(ctx, query,
		t.Id,
		userId,
		t.AccountId,
		string(t.Type),
		t.Amount.String(),
		t.Description,
		t.Category,
		t.Date,
		t.ReceiptUrl,
		t.IsRecurring,
		string(t.RecurringInterval),
		t.NextRecurringDate,
	))
	if err != nil {
		err := fmt.Errorf("could not store transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return stored, nil
}

func (r *repositoryImpl) Get(ctx context.Context, userId int, id uuid.UUID) (Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE id = $1 AND user_id = $2`
	return r.getOne(ctx, query, id, userId)
}

func (r *repositoryImpl) GetForUpdate(ctx context.Context, userId int, id uuid.UUID) (Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE id = $1 AND user_id = $2 FOR UPDATE`
	return r.getOne(ctx, query, id, userId)
}

func (r *repositoryImpl) getOne(ctx context.Context, query string, id uuid.UUID, userId int) (Transaction, error) {
	t, err := scanTransaction(r.getQueryer().QueryRow(ctx, query, id, userId))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not query transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return t, nil
}

func (r *repositoryImpl) Update(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	query := `UPDATE transactions SET
					account_id = $1, type = $2, amount = $3::numeric, description = $4, category = $5, date = $6,
					receipt_url = NULLIF($7, ''), is_recurring = $8, recurring_interval = NULLIF($9, ''),
					next_recurring_date = $10, updated_at = now()
				WHERE id = $11 AND user_id = $12
				RETURNING ` + selectColumns

	updated, err := scanTransaction(r.getQueryer().QueryRow(ctx, query,
		t.AccountId,
		string(t.Type),
		t.Amount.String(),
		t.Description,
		t.Category,
		t.Date,
		t.ReceiptUrl,
		t.IsRecurring,
		string(t.RecurringInterval),
		t.NextRecurringDate,
		t.Id,
		userId,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		err := fmt.Errorf("could not update transaction: %w", err)
		log.Error(err)
		return Transaction{}, err
	}
	return updated, nil
}

func (r *repositoryImpl) FindForDelete(ctx context.Context, userId int, ids []uuid.UUID) ([]Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions
				WHERE user_id = $1 AND id = ANY($2::uuid[]) ORDER BY id FOR UPDATE`
	return r.query(ctx, query, userId, uuidStrings(ids))
}

func (r *repositoryImpl) DeleteMany(ctx context.Context, userId int, ids []uuid.UUID) (int, error) {
	result, err := r.getQueryer().Exec(ctx,
		`DELETE FROM transactions WHERE user_id = $1 AND id = ANY($2::uuid[])`, userId, uuidStrings(ids))
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

func (r *repositoryImpl) List(ctx context.Context, userId int, filter Filter) ([]Transaction, error) {
	conditions := []string{"user_id = $1"}
	args := []any{userId}
	addCondition := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}
	if filter.AccountId != nil {
		addCondition("account_id = $%d", *filter.AccountId)
	}
	if filter.Type != "" {
		addCondition("type = $%d", string(filter.Type))
	}
	if filter.From != nil {
		addCondition("date >= $%d", *filter.From)
	}
	if filter.To != nil {
		addCondition("date <= $%d", *filter.To)
	}

	query := `SELECT ` + selectColumns + ` FROM transactions WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY date DESC, created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return r.query(ctx, query, args...)
}

func (r *repositoryImpl) query(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := r.getQueryer().Query(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query transactions: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	transactions := make([]Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return transactions, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t        Transaction
		txType   string
		amount   string
		interval string
	)
	err := row.Scan(
		&t.Id,
		&t.AccountId,
		&txType,
		&amount,
		&t.Description,
		&t.Category,
		&t.Date,
		&t.ReceiptUrl,
		&t.IsRecurring,
		&interval,
		&t.NextRecurringDate,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return Transaction{}, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	t.Type = Type(txType)
	t.Amount = parsed
	t.RecurringInterval = RecurringInterval(interval)
	return t, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		result = append(result, id.String())
	}
	return result
}
