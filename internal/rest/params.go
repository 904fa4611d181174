package rest

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pennywise/pennywise/internal/errs"
)

// PathUUID reads a uuid route variable registered with gorilla/mux.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, errs.NewValidationError().Add(name, "Invalid id format")
	}
	return id, nil
}

// QueryUUID reads an optional uuid query parameter. Absent parameters yield nil.
func QueryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errs.NewValidationError().Add(name, "Invalid id format")
	}
	return &id, nil
}
