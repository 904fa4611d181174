package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennywise/pennywise/internal/errs"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrAccountNotFound = fmt.Errorf("account not found: %w", errs.ErrNotFound)

type Repo interface {
	WithTransaction(ctx context.Context, fn func(repo Repo) error) error
	// LockOwner serializes default-account changes of a single user.
	LockOwner(ctx context.Context, userId int) error
	Create(ctx context.Context, userId int, account Account) (Account, error)
	Get(ctx context.Context, userId int, id uuid.UUID) (Account, error)
	List(ctx context.Context, userId int) ([]Account, error)
	Count(ctx context.Context, userId int) (int, error)
	ClearDefault(ctx context.Context, userId int) error
	// MarkDefault reports false when the account does not exist or belongs to someone else.
	MarkDefault(ctx context.Context, userId int, id uuid.UUID) (bool, error)
}

type RepoImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepo(db *pgxpool.Pool) *RepoImpl {
	return &RepoImpl{db: db}
}

const accountColumns = `a.id, a.name, a.type, a.balance::text, a.is_default, a.created_at, a.updated_at,
				(SELECT count(*) FROM transactions t WHERE t.account_id = a.id)`

func (r *RepoImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepoImpl) WithTransaction(ctx context.Context, fn func(repo Repo) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&RepoImpl{db: r.db, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *RepoImpl) LockOwner(ctx context.Context, userId int) error {
	_, err := r.getQueryer().Exec(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userId)
	if err != nil {
		err := fmt.Errorf("could not lock owner %d: %w", userId, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepoImpl) Create(ctx context.Context, userId int, account Account) (Account, error) {
	query := `INSERT INTO accounts (id, user_id, name, type, balance, is_default)
				VALUES ($1, $2, $3, $4, $5::numeric, $6)
				RETURNING id, name, type, balance::text, is_default, created_at, updated_at, 0`
	created, err := scanAccount(r.getQueryer().QueryRow(ctx, query,
		account.Id, userId, account.Name, string(account.Type), account.Balance.String(), account.IsDefault))
	if err != nil {
		err := fmt.Errorf("could not create account: %w", err)
		log.Error(err)
		return Account{}, err
	}
	return created, nil
}

func (r *RepoImpl) Get(ctx context.Context, userId int, id uuid.UUID) (Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.id = $1 AND a.user_id = $2`
	account, err := scanAccount(r.getQueryer().QueryRow(ctx, query, id, userId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		err := fmt.Errorf("could not get account: %w", err)
		log.Error(err)
		return Account{}, err
	}
	return account, nil
}

func (r *RepoImpl) List(ctx context.Context, userId int) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.user_id = $1
				ORDER BY a.is_default DESC, a.created_at, a.id`
	rows, err := r.getQueryer().Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not list accounts: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	accounts := make([]Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *RepoImpl) Count(ctx context.Context, userId int) (int, error) {
	var count int
	err := r.getQueryer().QueryRow(ctx, `SELECT count(*) FROM accounts WHERE user_id = $1`, userId).Scan(&count)
	if err != nil {
		err := fmt.Errorf("could not count accounts: %w", err)
		log.Error(err)
		return 0, err
	}
	return count, nil
}

func (r *RepoImpl) ClearDefault(ctx context.Context, userId int) error {
	_, err := r.getQueryer().Exec(ctx,
		`UPDATE accounts SET is_default = FALSE, updated_at = now() WHERE user_id = $1 AND is_default`, userId)
	if err != nil {
		err := fmt.Errorf("could not clear default account: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepoImpl) MarkDefault(ctx context.Context, userId int, id uuid.UUID) (bool, error) {
	result, err := r.getQueryer().Exec(ctx,
		`UPDATE accounts SET is_default = TRUE, updated_at = now() WHERE id = $1 AND user_id = $2`, id, userId)
	if err != nil {
		err := fmt.Errorf("could not mark default account: %w", err)
		log.Error(err)
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		a          Account
		accType    string
		rawBalance string
	)
	err := row.Scan(&a.Id, &a.Name, &accType, &rawBalance, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt, &a.TransactionCount)
	if err != nil {
		return Account{}, err
	}
	a.Type = Type(accType)
	a.Balance, err = decimal.NewFromString(rawBalance)
	if err != nil {
		return Account{}, fmt.Errorf("invalid balance %q: %w", rawBalance, err)
	}
	return a, nil
}
