package test_utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// CreateUser inserts a fresh owner row so every test works on isolated data.
func CreateUser(t *testing.T, db *pgxpool.Pool) int {
	t.Helper()
	var id int
	err := db.QueryRow(context.Background(),
		`INSERT INTO users (uid, email, name) VALUES ($1, $2, $3) RETURNING id`,
		"test-"+uuid.NewString(), "test@example.com", "Test User",
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateAccount inserts an account directly, bypassing the service rules.
func CreateAccount(t *testing.T, db *pgxpool.Pool, userId int, balance string, isDefault bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(context.Background(),
		`INSERT INTO accounts (id, user_id, name, type, balance, is_default) VALUES ($1, $2, $3, 'CURRENT', $4::numeric, $5)`,
		id, userId, "Account "+id.String()[:8], balance, isDefault,
	)
	require.NoError(t, err)
	return id
}

// AccountBalance reads the stored balance of an account.
func AccountBalance(t *testing.T, db *pgxpool.Pool, accountId uuid.UUID) decimal.Decimal {
	t.Helper()
	var raw string
	err := db.QueryRow(context.Background(), `SELECT balance::text FROM accounts WHERE id = $1`, accountId).Scan(&raw)
	require.NoError(t, err)
	balance, err := decimal.NewFromString(raw)
	require.NoError(t, err)
	return balance
}
