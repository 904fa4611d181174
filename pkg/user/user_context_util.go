package user

import (
	"context"
	"fmt"

	"github.com/pennywise/pennywise/internal/errs"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const UserKey contextKey = "user"

var ErrNoUser = fmt.Errorf("no user in request context: %w", errs.ErrUnauthorized)

// CurrentUser returns the user the identity middleware resolved for this request.
func CurrentUser(ctx context.Context) (User, error) {
	u, ok := ctx.Value(UserKey).(User)
	if !ok {
		log.Trace("anonymous request")
		return User{}, ErrNoUser
	}
	return u, nil
}

// CurrentId is the owner id handlers pass to services.
func CurrentId(ctx context.Context) (int, error) {
	u, err := CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	return u.Id, nil
}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}
