package account

import (
	"net/http"
	"strings"
	"time"

	"github.com/pennywise/pennywise/internal/rest"
	"github.com/pennywise/pennywise/pkg/transaction"
	"github.com/pennywise/pennywise/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type AccountDTO struct {
	Id               string          `json:"id"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	Balance          decimal.Decimal `json:"balance"`
	IsDefault        bool            `json:"isDefault"`
	TransactionCount int             `json:"transactionCount"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type AccountDetailsDTO struct {
	AccountDTO
	Transactions []transaction.TransactionDTO `json:"transactions"`
}

type CreateAccountDTO struct {
	Name      string           `json:"name"`
	Type      string           `json:"type"`
	Balance   *decimal.Decimal `json:"balance"`
	IsDefault bool             `json:"isDefault"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List accounts
// @Description Default account first, then by creation time
// @Tags Account
// @Produce json
// @Success 200 {array} AccountDTO
// @Failure 401 {object} rest.ErrorResponse "Unauthorized"
// @Router /api/account [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log.Trace("Listing accounts")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	accounts, err := h.service.List(r.Context(), userId)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, toDTO(a))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Create godoc
// @Summary Create an account
// @Tags Account
// @Accept json
// @Produce json
// @Param account body CreateAccountDTO true "Account"
// @Success 201 {object} AccountDTO
// @Failure 400 {object} rest.ErrorResponse "Validation failed"
// @Router /api/account [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating account")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	var req CreateAccountDTO
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}
	in := Input{Name: req.Name, Type: Type(strings.ToUpper(req.Type)), IsDefault: req.IsDefault}
	if req.Balance != nil {
		in.Balance = *req.Balance
	}

	created, err := h.service.Create(r.Context(), userId, in)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, toDTO(created))
}

// Get godoc
// @Summary Get an account with its transactions
// @Tags Account
// @Produce json
// @Param accountId path string true "Account ID"
// @Success 200 {object} AccountDetailsDTO
// @Failure 404 {object} rest.ErrorResponse "Account not found"
// @Router /api/account/{accountId} [get]
// @Security XUserId
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	id, err := rest.PathUUID(r, "accountId")
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	details, err := h.service.GetWithTransactions(r.Context(), userId, id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, AccountDetailsDTO{
		AccountDTO:   toDTO(details.Account),
		Transactions: transaction.ToDTOs(details.Transactions),
	})
}

// SetDefault godoc
// @Summary Make an account the default one
// @Description Clears the previous default in the same database transaction
// @Tags Account
// @Produce json
// @Param accountId path string true "Account ID"
// @Success 200 {object} AccountDTO
// @Failure 404 {object} rest.ErrorResponse "Account not found"
// @Router /api/account/{accountId}/default [put]
// @Security XUserId
func (h *Handler) SetDefault(w http.ResponseWriter, r *http.Request) {
	log.Debug("Setting default account")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	id, err := rest.PathUUID(r, "accountId")
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	updated, err := h.service.SetDefault(r.Context(), userId, id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toDTO(updated))
}

func toDTO(a Account) AccountDTO {
	return AccountDTO{
		Id:               a.Id.String(),
		Name:             a.Name,
		Type:             string(a.Type),
		Balance:          a.Balance,
		IsDefault:        a.IsDefault,
		TransactionCount: a.TransactionCount,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}
