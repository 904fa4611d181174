package transaction

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pennywise/pennywise/internal/errs"
	"github.com/pennywise/pennywise/internal/rest"
	"github.com/pennywise/pennywise/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const dateOnlyLayout = "2006-01-02"

type TransactionDTO struct {
	Id                string          `json:"id"`
	AccountId         string          `json:"accountId"`
	Type              string          `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Date              time.Time       `json:"date"`
	ReceiptUrl        string          `json:"receiptUrl,omitempty"`
	IsRecurring       bool            `json:"isRecurring"`
	RecurringInterval string          `json:"recurringInterval,omitempty"`
	NextRecurringDate *time.Time      `json:"nextRecurringDate,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

type TransactionRequestDTO struct {
	Type              string           `json:"type"`
	Amount            *decimal.Decimal `json:"amount"`
	Description       string           `json:"description"`
	Category          string           `json:"category"`
	Date              string           `json:"date"`
	AccountId         string           `json:"accountId"`
	ReceiptUrl        string           `json:"receiptUrl"`
	IsRecurring       bool             `json:"isRecurring"`
	RecurringInterval string           `json:"recurringInterval"`
}

type BulkDeleteRequestDTO struct {
	Ids []string `json:"ids"`
}

type BulkDeleteResultDTO struct {
	Deleted int `json:"deleted"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List transactions
// @Description Newest first. Optional filters: accountId, type, from, to, limit
// @Tags Transaction
// @Produce json
// @Success 200 {array} TransactionDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid filter"
// @Failure 401 {object} rest.ErrorResponse "Unauthorized"
// @Router /api/transaction [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log.Trace("Listing transactions")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	transactions, err := h.service.List(r.Context(), userId, filter)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTOs(transactions))
}

// Create godoc
// @Summary Create a transaction
// @Description Stores the transaction and moves the account balance in the same database transaction
// @Tags Transaction
// @Accept json
// @Produce json
// @Param transaction body TransactionRequestDTO true "Transaction"
// @Success 201 {object} TransactionDTO
// @Failure 400 {object} rest.ErrorResponse "Validation failed"
// @Failure 404 {object} rest.ErrorResponse "Account not found"
// @Failure 429 {object} rest.ErrorResponse "Rate limited"
// @Router /api/transaction [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating transaction")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	in, err := decodeInput(r)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), userId, in)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, ToDTO(created))
}

// Get godoc
// @Summary Get a transaction
// @Tags Transaction
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} TransactionDTO
// @Failure 404 {object} rest.ErrorResponse "Transaction not found"
// @Router /api/transaction/{transactionId} [get]
// @Security XUserId
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	id, err := rest.PathUUID(r, "transactionId")
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	t, err := h.service.Get(r.Context(), userId, id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(t))
}

// Update godoc
// @Summary Update a transaction
// @Description Replaces the transaction and reconciles the balances of the old and new account
// @Tags Transaction
// @Accept json
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Param transaction body TransactionRequestDTO true "Transaction"
// @Success 200 {object} TransactionDTO
// @Failure 400 {object} rest.ErrorResponse "Validation failed"
// @Failure 404 {object} rest.ErrorResponse "Transaction or account not found"
// @Router /api/transaction/{transactionId} [put]
// @Security XUserId
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating transaction")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	id, err := rest.PathUUID(r, "transactionId")
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	in, err := decodeInput(r)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), userId, id, in)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ToDTO(updated))
}

// Delete godoc
// @Summary Delete a transaction
// @Tags Transaction
// @Param transactionId path string true "Transaction ID"
// @Success 204
// @Failure 404 {object} rest.ErrorResponse "Transaction not found"
// @Router /api/transaction/{transactionId} [delete]
// @Security XUserId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log.Debug("Deleting transaction")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	id, err := rest.PathUUID(r, "transactionId")
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), userId, id); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkDelete godoc
// @Summary Delete many transactions
// @Description Unknown or foreign ids are ignored. Repeating the call is a no-op.
// @Tags Transaction
// @Accept json
// @Produce json
// @Param ids body BulkDeleteRequestDTO true "Ids to delete"
// @Success 200 {object} BulkDeleteResultDTO
// @Failure 400 {object} rest.ErrorResponse "Validation failed"
// @Router /api/transaction/bulk-delete [post]
// @Security XUserId
func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	log.Debug("Bulk deleting transactions")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	var req BulkDeleteRequestDTO
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.Ids))
	for _, raw := range req.Ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			rest.WriteError(w, errs.NewValidationError().Add("ids", "Invalid id format: "+raw))
			return
		}
		ids = append(ids, id)
	}

	deleted, err := h.service.BulkDelete(r.Context(), userId, ids)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BulkDeleteResultDTO{Deleted: deleted})
}

func decodeInput(r *http.Request) (Input, error) {
	var req TransactionRequestDTO
	if err := rest.DecodeJSON(r, &req); err != nil {
		return Input{}, err
	}
	return req.ToInput()
}

// ToInput converts the wire representation. Shape errors (unparsable ids or dates) are reported here,
// business rules are left to Input.Validate.
func (req TransactionRequestDTO) ToInput() (Input, error) {
	verr := errs.NewValidationError()
	in := Input{
		Type:              Type(strings.ToUpper(req.Type)),
		Description:       req.Description,
		Category:          req.Category,
		ReceiptUrl:        req.ReceiptUrl,
		IsRecurring:       req.IsRecurring,
		RecurringInterval: RecurringInterval(strings.ToUpper(req.RecurringInterval)),
	}
	if req.Amount != nil {
		in.Amount = *req.Amount
	}
	if req.AccountId != "" {
		accountId, err := uuid.Parse(req.AccountId)
		if err != nil {
			verr.Add("accountId", "Invalid id format")
		}
		in.AccountId = accountId
	}
	if req.Date != "" {
		date, err := ParseDate(req.Date)
		if err != nil {
			verr.Add("date", "Date must be RFC3339 or YYYY-MM-DD")
		}
		in.Date = date
	}
	return in, verr.OrNil()
}

// ParseDate accepts a full RFC3339 timestamp or a calendar date, which is read as midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(dateOnlyLayout, raw)
}

func filterFromQuery(r *http.Request) (Filter, error) {
	verr := errs.NewValidationError()
	query := r.URL.Query()
	var filter Filter

	accountId, err := rest.QueryUUID(r, "accountId")
	if err != nil {
		verr.Add("accountId", "Invalid id format")
	}
	filter.AccountId = accountId

	if raw := query.Get("type"); raw != "" {
		filter.Type = Type(strings.ToUpper(raw))
		if !filter.Type.Valid() {
			verr.Add("type", "Type must be EXPENSE or INCOME")
		}
	}
	for name, target := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		t, err := ParseDate(raw)
		if err != nil {
			verr.Add(name, "Date must be RFC3339 or YYYY-MM-DD")
			continue
		}
		*target = &t
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			verr.Add("limit", "Limit must be a non-negative number")
		}
		filter.Limit = limit
	}
	return filter, verr.OrNil()
}

func ToDTO(t Transaction) TransactionDTO {
	return TransactionDTO{
		Id:                t.Id.String(),
		AccountId:         t.AccountId.String(),
		Type:              string(t.Type),
		Amount:            t.Amount,
		Description:       t.Description,
		Category:          t.Category,
		Date:              t.Date,
		ReceiptUrl:        t.ReceiptUrl,
		IsRecurring:       t.IsRecurring,
		RecurringInterval: string(t.RecurringInterval),
		NextRecurringDate: t.NextRecurringDate,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func ToDTOs(transactions []Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		dtos = append(dtos, ToDTO(t))
	}
	return dtos
}
