package stats

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pennywise/pennywise/internal/utils"
	"github.com/pennywise/pennywise/pkg/account"
	"github.com/pennywise/pennywise/pkg/budget"
	"github.com/pennywise/pennywise/pkg/transaction"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type AccountLister interface {
	List(ctx context.Context, userId int) ([]account.Account, error)
}

type TransactionLister interface {
	List(ctx context.Context, userId int, filter transaction.Filter) ([]transaction.Transaction, error)
}

type BudgetReader interface {
	GetCurrentBudget(ctx context.Context, userId int, accountId *uuid.UUID) (budget.CurrentBudget, error)
}

type StatsService interface {
	// Overview collects the dashboard for accountId, or for the default account when accountId is nil.
	Overview(ctx context.Context, userId int, accountId *uuid.UUID) (Overview, error)
	// Daily groups income and expense per UTC day. A nil accountId covers all accounts.
	Daily(ctx context.Context, userId int, accountId *uuid.UUID, r Range) (DailySeries, error)
}

type StatsServiceImpl struct {
	accounts     AccountLister
	transactions TransactionLister
	budgets      BudgetReader
	clock        utils.Clock
}

func NewStatsServiceImpl(accounts AccountLister, transactions TransactionLister, budgets BudgetReader, clock utils.Clock) *StatsServiceImpl {
	return &StatsServiceImpl{
		accounts:     accounts,
		transactions: transactions,
		budgets:      budgets,
		clock:        clock,
	}
}

func (s *StatsServiceImpl) Overview(ctx context.Context, userId int, accountId *uuid.UUID) (Overview, error) {
	accounts, err := s.accounts.List(ctx, userId)
	if err != nil {
		return Overview{}, err
	}
	overview := Overview{Accounts: accounts}

	selected, err := selectAccount(accounts, accountId)
	if err != nil {
		return Overview{}, err
	}
	if selected == nil {
		log.Debugf("user %d has no accounts, returning an empty overview", userId)
		current, err := s.budgets.GetCurrentBudget(ctx, userId, nil)
		if err != nil {
			return Overview{}, err
		}
		overview.Budget = current
		return overview, nil
	}
	overview.SelectedAccountId = selected

	monthStart, monthEnd := utils.MonthBounds(s.clock.Now().UTC())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recent, err := s.transactions.List(gctx, userId, transaction.Filter{AccountId: selected, Limit: recentTransactionsLimit})
		overview.RecentTransactions = recent
		return err
	})
	g.Go(func() error {
		expenses, err := s.transactions.List(gctx, userId, transaction.Filter{
			AccountId: selected,
			Type:      transaction.Expense,
			From:      &monthStart,
			To:        &monthEnd,
		})
		overview.ExpensesByCategory = byCategory(expenses)
		return err
	})
	g.Go(func() error {
		current, err := s.budgets.GetCurrentBudget(gctx, userId, selected)
		overview.Budget = current
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return overview, nil
}

func (s *StatsServiceImpl) Daily(ctx context.Context, userId int, accountId *uuid.UUID, r Range) (DailySeries, error) {
	now := s.clock.Now().UTC()
	series := DailySeries{
		Range:        r,
		To:           utils.EndOfDay(now),
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	filter := transaction.Filter{AccountId: accountId, To: &series.To}
	if days, ok := rangeDays[r]; ok {
		series.From = utils.StartOfDay(now.AddDate(0, 0, -days))
		filter.From = &series.From
	}

	transactions, err := s.transactions.List(ctx, userId, filter)
	if err != nil {
		return DailySeries{}, err
	}

	byDay := map[time.Time]*DailyTotals{}
	for _, t := range transactions {
		day := utils.StartOfDay(t.Date.UTC())
		totals, ok := byDay[day]
		if !ok {
			totals = &DailyTotals{Date: day, Income: decimal.Zero, Expense: decimal.Zero}
			byDay[day] = totals
		}
		if t.Type == transaction.Income {
			totals.Income = totals.Income.Add(t.Amount)
			series.TotalIncome = series.TotalIncome.Add(t.Amount)
		} else {
			totals.Expense = totals.Expense.Add(t.Amount)
			series.TotalExpense = series.TotalExpense.Add(t.Amount)
		}
	}

	series.Days = make([]DailyTotals, 0, len(byDay))
	for _, totals := range byDay {
		series.Days = append(series.Days, *totals)
	}
	sort.Slice(series.Days, func(i, j int) bool {
		return series.Days[i].Date.Before(series.Days[j].Date)
	})
	return series, nil
}

// selectAccount returns the requested owned account, the default one when nothing was requested,
// or nil when the user has no accounts.
func selectAccount(accounts []account.Account, requested *uuid.UUID) (*uuid.UUID, error) {
	if requested != nil {
		for _, a := range accounts {
			if a.Id == *requested {
				id := a.Id
				return &id, nil
			}
		}
		return nil, account.ErrAccountNotFound
	}
	for _, a := range accounts {
		if a.IsDefault {
			id := a.Id
			return &id, nil
		}
	}
	if len(accounts) > 0 {
		id := accounts[0].Id
		return &id, nil
	}
	return nil, nil
}

// byCategory sums amounts per category, largest first.
func byCategory(transactions []transaction.Transaction) []CategoryTotal {
	sums := map[string]decimal.Decimal{}
	for _, t := range transactions {
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}
	totals := make([]CategoryTotal, 0, len(sums))
	for category, amount := range sums {
		totals = append(totals, CategoryTotal{Category: category, Amount: amount})
	}
	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].Amount.Equal(totals[j].Amount) {
			return totals[i].Amount.GreaterThan(totals[j].Amount)
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}
