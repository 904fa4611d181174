package transaction

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/pennywise/pennywise/pkg/ratelimit"
	"github.com/pennywise/pennywise/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func newRouter() *mux.Router {
	handler := NewHandler(service)
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(user.WithUser(req.Context(), user.User{Id: userId})))
		})
	})
	r.HandleFunc("/api/transaction", handler.Create).Methods("POST")
	r.HandleFunc("/api/transaction", handler.List).Methods("GET")
	r.HandleFunc("/api/transaction/bulk-delete", handler.BulkDelete).Methods("POST")
	r.HandleFunc("/api/transaction/{transactionId}", handler.Get).Methods("GET")
	return r
}

func serve(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestHandler_Create(t *testing.T) {
	t.Run("should create a transaction from a date only payload", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		accountId := repoStub.AddAccount(userId, dec("100"))
		body := `{"type":"expense","amount":12.5,"description":"Taxi","category":"transportation","date":"2024-01-10","accountId":"` + accountId.String() + `"}`

		// when
		rec, env := serve(t, http.MethodPost, "/api/transaction", body)

		// then
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, env.Success)
		var dto TransactionDTO
		require.NoError(t, json.Unmarshal(env.Data, &dto))
		assert.Equal(t, "EXPENSE", dto.Type)
		assert.Equal(t, 2024, dto.Date.Year())
		assert.True(t, dec("87.5").Equal(repoStub.Balance(accountId)))
	})

	t.Run("should report field errors", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		rec, env := serve(t, http.MethodPost, "/api/transaction", `{"type":"EXPENSE","accountId":"nope","date":"yesterday"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
		assert.Contains(t, env.Error.Fields, "accountId")
		assert.Contains(t, env.Error.Fields, "date")
	})

	t.Run("should answer 429 with Retry-After once the bucket is empty", func(t *testing.T) {
		teardown := setupWithLimits(t, ratelimit.DefaultConfig())
		defer teardown()

		accountId := repoStub.AddAccount(userId, dec("100"))
		body := `{"type":"EXPENSE","amount":"1","description":"Coffee","category":"food","date":"2024-01-10","accountId":"` + accountId.String() + `"}`
		serve(t, http.MethodPost, "/api/transaction", body)
		serve(t, http.MethodPost, "/api/transaction", body)

		rec, env := serve(t, http.MethodPost, "/api/transaction", body)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "1800", rec.Header().Get("Retry-After"))
		assert.Equal(t, "RATE_LIMITED", env.Error.Code)
	})
}

func TestHandler_Get(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	rec, env := serve(t, http.MethodGet, "/api/transaction/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	rec, env = serve(t, http.MethodGet, "/api/transaction/6f1c7f5e-8a3e-4b7e-9a47-0d8f0f3f9c11", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestHandler_BulkDelete(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	// given
	accountId := repoStub.AddAccount(userId, dec("100"))
	created, err := service.Create(ctx, userId, expenseInput(accountId, "40"))
	require.NoError(t, err)
	body := `{"ids":["` + created.Id.String() + `","6f1c7f5e-8a3e-4b7e-9a47-0d8f0f3f9c11"]}`

	// when
	rec, env := serve(t, http.MethodPost, "/api/transaction/bulk-delete", body)

	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	var result BulkDeleteResultDTO
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.Deleted)
	assert.True(t, dec("100").Equal(repoStub.Balance(accountId)))
}

func TestHandler_List(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	rec, env := serve(t, http.MethodGet, "/api/transaction?type=BOGUS&limit=-1", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error.Fields, "type")
	assert.Contains(t, env.Error.Fields, "limit")
}
