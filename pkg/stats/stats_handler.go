package stats

import (
	"net/http"
	"strings"
	"time"

	"github.com/pennywise/pennywise/internal/rest"
	"github.com/pennywise/pennywise/pkg/account"
	"github.com/pennywise/pennywise/pkg/budget"
	"github.com/pennywise/pennywise/pkg/transaction"
	"github.com/pennywise/pennywise/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type CategoryTotalDTO struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type OverviewAccountDTO struct {
	Id        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	IsDefault bool            `json:"isDefault"`
}

type OverviewDTO struct {
	Accounts           []OverviewAccountDTO         `json:"accounts"`
	SelectedAccountId  *string                      `json:"selectedAccountId"`
	RecentTransactions []transaction.TransactionDTO `json:"recentTransactions"`
	ExpensesByCategory []CategoryTotalDTO           `json:"expensesByCategory"`
	Budget             budget.CurrentBudgetDTO      `json:"budget"`
}

type DailyTotalsDTO struct {
	Date    string          `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

type DailySeriesDTO struct {
	Range        string           `json:"range"`
	From         *time.Time       `json:"from,omitempty"`
	To           time.Time        `json:"to"`
	Days         []DailyTotalsDTO `json:"days"`
	TotalIncome  decimal.Decimal  `json:"totalIncome"`
	TotalExpense decimal.Decimal  `json:"totalExpense"`
	Net          decimal.Decimal  `json:"net"`
}

type StatsHandler struct {
	statsService     StatsService
	csvStatsRenderer StatsRenderer
}

func NewStatsHandler(statsService StatsService, csvStatsRenderer StatsRenderer) *StatsHandler {
	return &StatsHandler{statsService, csvStatsRenderer}
}

// GetOverview godoc
// @Summary Dashboard overview
// @Tags Stats
// @Produce json
// @Param accountId query string false "Account to focus on, the default account when omitted"
// @Success 200 {object} OverviewDTO
// @Router /api/stats/overview [get]
// @Security XUserId
func (handler *StatsHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting dashboard overview")
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

	overview, err := handler.statsService.Overview(r.Context(), userId, accountId)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, overviewToDTO(overview))
}

// GetDaily godoc
// @Summary Income and expense per day
// @Tags Stats
// @Produce json,text/csv
// @Param accountId query string false "Account, all accounts when omitted"
// @Param range query string false "7D, 1M, 3M, 6M or ALL" default(1M)
// @Success 200 {object} DailySeriesDTO
// @Router /api/stats/daily [get]
// @Security XUserId
func (handler *StatsHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
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
	statsRange, err := ParseRange(strings.ToUpper(r.URL.Query().Get("range")))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	series, err := handler.statsService.Daily(r.Context(), userId, accountId, statsRange)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := handler.csvStatsRenderer.RenderDaily(series)
		if err != nil {
			rest.WriteError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(csv)); err != nil {
			log.Errorf("failed to write csv response: %v", err)
		}
		return
	}
	rest.WriteJSON(w, http.StatusOK, dailyToDTO(series))
}

func overviewToDTO(overview Overview) OverviewDTO {
	accounts := make([]OverviewAccountDTO, 0, len(overview.Accounts))
	for _, a := range overview.Accounts {
		accounts = append(accounts, accountToDTO(a))
	}
	categories := make([]CategoryTotalDTO, 0, len(overview.ExpensesByCategory))
	for _, c := range overview.ExpensesByCategory {
		categories = append(categories, CategoryTotalDTO{Category: c.Category, Amount: c.Amount})
	}
	var selected *string
	if overview.SelectedAccountId != nil {
		id := overview.SelectedAccountId.String()
		selected = &id
	}
	return OverviewDTO{
		Accounts:           accounts,
		SelectedAccountId:  selected,
		RecentTransactions: transaction.ToDTOs(overview.RecentTransactions),
		ExpensesByCategory: categories,
		Budget:             budget.CurrentBudgetToDTO(overview.Budget),
	}
}

func accountToDTO(a account.Account) OverviewAccountDTO {
	return OverviewAccountDTO{
		Id:        a.Id.String(),
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   a.Balance,
		IsDefault: a.IsDefault,
	}
}

func dailyToDTO(series DailySeries) DailySeriesDTO {
	days := make([]DailyTotalsDTO, 0, len(series.Days))
	for _, d := range series.Days {
		days = append(days, DailyTotalsDTO{
			Date:    d.Date.Format("2006-01-02"),
			Income:  d.Income,
			Expense: d.Expense,
			Net:     d.Net(),
		})
	}
	var from *time.Time
	if !series.From.IsZero() {
		from = &series.From
	}
	return DailySeriesDTO{
		Range:        string(series.Range),
		From:         from,
		To:           series.To,
		Days:         days,
		TotalIncome:  series.TotalIncome,
		TotalExpense: series.TotalExpense,
		Net:          series.Net(),
	}
}
