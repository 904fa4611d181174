package budget

import (
	"net/http"
	"time"

	"github.com/pennywise/pennywise/internal/errs"
	"github.com/pennywise/pennywise/internal/rest"
	"github.com/pennywise/pennywise/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type BudgetDTO struct {
	ID        int             `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type CurrentBudgetDTO struct {
	Budget          *BudgetDTO      `json:"budget"`
	CurrentExpenses decimal.Decimal `json:"currentExpenses"`
	Remaining       decimal.Decimal `json:"remaining"`
	PercentUsed     decimal.Decimal `json:"percentUsed"`
	PeriodStart     time.Time       `json:"periodStart"`
	PeriodEnd       time.Time       `json:"periodEnd"`
}

type UpdateBudgetDTO struct {
	Amount *decimal.Decimal `json:"amount"`
}

type BudgetHandler struct {
	budgetService BudgetService
}

func NewBudgetHandler(budgetService BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService}
}

// GetCurrent godoc
// @Summary Current month budget progress
// @Tags Budget
// @Produce json
// @Param accountId query string false "Only count expenses of this account"
// @Success 200 {object} CurrentBudgetDTO
// @Router /api/budget/current [get]
// @Security XUserId
func (handler *BudgetHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting current budget")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	accountId, err := rest.QueryUUID(r, "accountId")
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	current, err := handler.budgetService.GetCurrentBudget(r.Context(), userId, accountId)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, CurrentBudgetToDTO(current))
}

// Update godoc
// @Summary Set the monthly budget
// @Tags Budget
// @Accept json
// @Produce json
// @Param budget body UpdateBudgetDTO true "Budget"
// @Success 200 {object} BudgetDTO
// @Failure 400 {object} rest.ErrorResponse "Validation failed"
// @Router /api/budget [put]
// @Security XUserId
func (handler *BudgetHandler) Update(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating budget")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	var req UpdateBudgetDTO
	if err := rest.DecodeJSON(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}
	if req.Amount == nil {
		rest.WriteError(w, errs.NewValidationError().Add("amount", "Amount is required"))
		return
	}

	budget, err := handler.budgetService.UpdateBudget(r.Context(), userId, *req.Amount)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, BudgetToDTO(budget))
}

func BudgetToDTO(budget Budget) BudgetDTO {
	return BudgetDTO{
		ID:        budget.ID,
		Amount:    budget.Amount,
		UpdatedAt: budget.UpdatedAt,
	}
}

func CurrentBudgetToDTO(current CurrentBudget) CurrentBudgetDTO {
	var budget *BudgetDTO
	if current.Budget != nil {
		dto := BudgetToDTO(*current.Budget)
		budget = &dto
	}
	return CurrentBudgetDTO{
		Budget:          budget,
		CurrentExpenses: current.CurrentExpenses,
		Remaining:       current.Remaining(),
		PercentUsed:     current.PercentUsed(),
		PeriodStart:     current.PeriodStart,
		PeriodEnd:       current.PeriodEnd,
	}
}
