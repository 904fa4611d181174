package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pennywise/pennywise/internal/config"
	"github.com/pennywise/pennywise/internal/rest"
	"github.com/pennywise/pennywise/pkg/user"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {
	r.Use(identityMiddleware(deps.UserService, cfg.Auth))
}

// identityMiddleware resolves the identity provider headers into a user row and puts it in the request context.
// Requests without a subject header pass through anonymous and are rejected by the handlers.
func identityMiddleware(userService user.Service, auth config.Auth) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			uid := req.Header.Get(auth.UserIdHeader)
			ctx := req.Context()

			if uid != "" {
				u, err := userService.SyncUser(ctx, user.Identity{
					Uid:   uid,
					Email: req.Header.Get(auth.EmailHeader),
					Name:  req.Header.Get(auth.NameHeader),
				})
				if err != nil {
					log.Errorf("failed to resolve user %s: %v", uid, err)
					rest.WriteError(w, err)
					return
				}
				log.Tracef("request by user %d", u.Id)
				ctx = user.WithUser(ctx, u)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
