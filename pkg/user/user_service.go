package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pennywise/pennywise/internal/errs"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// SyncUser returns the user matching the identity, creating it on first sight.
	SyncUser(ctx context.Context, identity Identity) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (u *UserServiceImpl) SyncUser(ctx context.Context, identity Identity) (User, error) {
	uid := strings.TrimSpace(identity.Uid)
	if uid == "" {
		return User{}, fmt.Errorf("empty subject id: %w", errs.ErrUnauthorized)
	}

	existing, err := u.repo.GetUserByUid(ctx, uid)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = defaultName
	}
	created, err := u.repo.CreateUser(ctx, User{Uid: uid, Email: strings.TrimSpace(identity.Email), Name: name})
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	log.Infof("registered new user %d", created.Id)
	return created, nil
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}
