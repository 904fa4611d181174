package budget

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennywise/pennywise/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db *pgxpool.Pool

func TestMain(m *testing.M) {
	var cleanup func()
	db, cleanup = test_utils.TestWithDB()
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func insertTransaction(t *testing.T, owner int, accountId uuid.UUID, kind, amount string, date time.Time) {
	t.Helper()
	_, err := db.Exec(ctx,
		`INSERT INTO transactions (id, user_id, account_id, type, amount, description, category, date)
		 VALUES ($1, $2, $3, $4, $5::numeric, 'test', 'other-expense', $6)`,
		uuid.New(), owner, accountId, kind, amount, date)
	require.NoError(t, err)
}

func TestBudgetRepoImpl_Upsert(t *testing.T) {
	// given
	repo := NewBudgetRepo(db)
	owner := test_utils.CreateUser(t, db)

	// when
	missing, err := repo.Get(ctx, owner)
	require.NoError(t, err)
	first, err := repo.Upsert(ctx, owner, dec("100.10"))
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, owner, dec("200"))
	require.NoError(t, err)
	stored, err := repo.Get(ctx, owner)
	require.NoError(t, err)

	// then
	assert.Nil(t, missing)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, stored)
	assert.True(t, dec("200").Equal(stored.Amount))
}

func TestBudgetRepoImpl_SumExpenses(t *testing.T) {
	repo := NewBudgetRepo(db)
	owner := test_utils.CreateUser(t, db)
	a := test_utils.CreateAccount(t, db, owner, "0", true)
	b := test_utils.CreateAccount(t, db, owner, "0", false)
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 29, 23, 59, 59, 999000000, time.UTC)
	insertTransaction(t, owner, a, "EXPENSE", "10.50", from)
	insertTransaction(t, owner, b, "EXPENSE", "4.50", to)
	insertTransaction(t, owner, a, "INCOME", "1000", from.Add(time.Hour))
	insertTransaction(t, owner, a, "EXPENSE", "99", to.Add(time.Millisecond))

	all, err := repo.SumExpenses(ctx, owner, nil, from, to)
	require.NoError(t, err)
	onlyA, err := repo.SumExpenses(ctx, owner, &a, from, to)
	require.NoError(t, err)
	nothing, err := repo.SumExpenses(ctx, owner+1000, nil, from, to)
	require.NoError(t, err)

	assert.True(t, dec("15").Equal(all))
	assert.True(t, dec("10.5").Equal(onlyA))
	assert.True(t, nothing.IsZero())
}
