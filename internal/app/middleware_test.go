package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/pennywise/pennywise/internal/config"
	"github.com/pennywise/pennywise/internal/rest"
	"github.com/pennywise/pennywise/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*mux.Router, *user.StubUserRepository) {
	repo := user.NewStubUserRepository()
	t.Cleanup(repo.Cleanup)

	r := mux.NewRouter()
	r.Use(identityMiddleware(user.NewUserService(repo), config.Defaults().Auth))
	r.HandleFunc("/whoami", func(w http.ResponseWriter, req *http.Request) {
		u, err := user.CurrentUser(req.Context())
		if err != nil {
			rest.WriteError(w, err)
			return
		}
		rest.WriteJSON(w, http.StatusOK, u.Name)
	})
	return r, repo
}

func TestIdentityMiddleware(t *testing.T) {
	t.Run("should create the user on first request and reuse it afterwards", func(t *testing.T) {
		// given
		r, repo := setupRouter(t)

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set("X-User-Id", "idp|42")
			req.Header.Set("X-User-Name", "Jane")
			rr := httptest.NewRecorder()

			// when
			r.ServeHTTP(rr, req)

			// then
			require.Equal(t, http.StatusOK, rr.Code)
			assert.JSONEq(t, `{"success":true,"data":"Jane"}`, rr.Body.String())
		}
		assert.Equal(t, 1, repo.Creates)
	})

	t.Run("should leave the request anonymous without the subject header", func(t *testing.T) {
		r, _ := setupRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("should reject a blank subject", func(t *testing.T) {
		r, repo := setupRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("X-User-Id", "   ")
		rr := httptest.NewRecorder()

		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, 0, repo.Creates)
	})
}
