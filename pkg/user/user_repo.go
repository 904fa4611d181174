package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennywise/pennywise/internal/errs"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = fmt.Errorf("user not found: %w", errs.ErrNotFound)

type Repo interface {
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	// CreateUser inserts the user unless one with the same uid exists, and returns the stored row either way.
	CreateUser(ctx context.Context, user User) (User, error)
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	query := `SELECT id, uid, email, name, created_at FROM users WHERE id = $1`
	return u.scanUser(u.db.QueryRow(ctx, query, id))
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	query := `SELECT id, uid, email, name, created_at FROM users WHERE uid = $1`
	return u.scanUser(u.db.QueryRow(ctx, query, uid))
}

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (User, error) {
	// concurrent first requests of the same user race on the uid constraint; the loser reads the winner's row
	query := `INSERT INTO users (uid, email, name) VALUES ($1, $2, $3)
				ON CONFLICT (uid) DO UPDATE SET uid = EXCLUDED.uid
				RETURNING id, uid, email, name, created_at`
	created, err := u.scanUser(u.db.QueryRow(ctx, query, user.Uid, user.Email, user.Name))
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return User{}, err
	}
	return created, nil
}

func (u *UserRepoImpl) scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.Id, &user.Uid, &user.Email, &user.Name, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}
