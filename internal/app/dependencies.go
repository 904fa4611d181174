package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennywise/pennywise/internal/config"
	"github.com/pennywise/pennywise/internal/event_bus"
	"github.com/pennywise/pennywise/internal/utils"
	"github.com/pennywise/pennywise/pkg/account"
	"github.com/pennywise/pennywise/pkg/budget"
	"github.com/pennywise/pennywise/pkg/notify"
	"github.com/pennywise/pennywise/pkg/ratelimit"
	"github.com/pennywise/pennywise/pkg/receipt"
	"github.com/pennywise/pennywise/pkg/stats"
	"github.com/pennywise/pennywise/pkg/transaction"
	"github.com/pennywise/pennywise/pkg/user"
	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	UserService user.Service
	UserHandler *user.Handler

	Limiter ratelimit.Limiter

	TransactionService *transaction.ServiceImpl
	TransactionHandler *transaction.Handler

	AccountService *account.ServiceImpl
	AccountHandler *account.Handler

	BudgetService *budget.BudgetServiceImpl
	BudgetHandler *budget.BudgetHandler

	// ReceiptHandler stays nil when no Gemini client could be created.
	ReceiptHandler *receipt.Handler

	StatsService     *stats.StatsServiceImpl
	CsvStatsRenderer *stats.CsvStatsRendererImpl
	StatsHandler     *stats.StatsHandler

	Publisher         notify.Publisher
	unsubscribeNotify func()
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(ctx context.Context, db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	limitCfg := ratelimit.Config{Capacity: cfg.RateLimit.Capacity, RefillPerHour: cfg.RateLimit.RefillPerHour}
	switch cfg.RateLimit.Store {
	case config.RateLimitStorePostgres:
		deps.Limiter = ratelimit.NewPostgresLimiter(db, limitCfg, deps.Clock)
	default:
		deps.Limiter = ratelimit.NewTokenBucket(limitCfg, deps.Clock)
	}
	log.Infof("rate limiter store: %s", cfg.RateLimit.Store)

	deps.TransactionService = transaction.NewService(transaction.NewRepo(db), deps.Limiter, deps.EventBus)
	deps.TransactionHandler = transaction.NewHandler(deps.TransactionService)

	deps.AccountService = account.NewService(account.NewRepo(db), deps.TransactionService, deps.EventBus)
	deps.AccountHandler = account.NewHandler(deps.AccountService)

	deps.BudgetService = budget.NewBudgetServiceImpl(budget.NewBudgetRepo(db), deps.Clock)
	deps.BudgetHandler = budget.NewBudgetHandler(deps.BudgetService)

	if cfg.Gemini.ApiKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.ApiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, err
		}
		deps.ReceiptHandler = receipt.NewHandler(receipt.NewGeminiScanner(client.Models, cfg.Gemini.Model))
	} else {
		log.Warn("gemini api key is not configured, receipt scanning is disabled")
	}

	deps.StatsService = stats.NewStatsServiceImpl(deps.AccountService, deps.TransactionService, deps.BudgetService, deps.Clock)
	deps.CsvStatsRenderer = stats.NewCsvStatsRenderer(cfg.Currency)
	deps.StatsHandler = stats.NewStatsHandler(deps.StatsService, deps.CsvStatsRenderer)

	if cfg.Amqp.Enabled {
		publisher, err := notify.NewAmqpPublisher(cfg.Amqp.Url, cfg.Amqp.Exchange, cfg.Amqp.Queue)
		if err != nil {
			return nil, err
		}
		deps.Publisher = publisher
		deps.unsubscribeNotify = notify.NewForwarder(publisher).Register(deps.EventBus)
		log.Infof("forwarding domain events to exchange %s", cfg.Amqp.Exchange)
	}

	return deps, nil
}

func (d *Dependencies) Close() {
	if d.unsubscribeNotify != nil {
		d.unsubscribeNotify()
	}
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			log.Warnf("failed to close publisher: %v", err)
		}
	}
}
