package transaction

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pennywise/pennywise/internal/errs"
	"github.com/pennywise/pennywise/internal/event_bus"
	"github.com/pennywise/pennywise/pkg/ledger"
	"github.com/pennywise/pennywise/pkg/ratelimit"
	log "github.com/sirupsen/logrus"
)

const maxBulkDelete = 500

type Service interface {
	Create(ctx context.Context, userId int, in Input) (Transaction, error)
	Get(ctx context.Context, userId int, id uuid.UUID) (Transaction, error)
	Update(ctx context.Context, userId int, id uuid.UUID, in Input) (Transaction, error)
	Delete(ctx context.Context, userId int, id uuid.UUID) error
	// BulkDelete removes the owned transactions among ids and reports how many were removed.
	// Ids that do not exist or belong to someone else are ignored.
	BulkDelete(ctx context.Context, userId int, ids []uuid.UUID) (int, error)
	List(ctx context.Context, userId int, filter Filter) ([]Transaction, error)
}

type ServiceImpl struct {
	repo     Repository
	limiter  ratelimit.Limiter
	eventBus *event_bus.EventBus
	newId    func() uuid.UUID
}

func NewService(repo Repository, limiter ratelimit.Limiter, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		repo:     repo,
		limiter:  limiter,
		eventBus: eventBus,
		newId:    uuid.New,
	}
}

func (s *ServiceImpl) Create(ctx context.Context, userId int, in Input) (Transaction, error) {
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}

	decision, err := s.limiter.TryConsume(ctx, userId, 1)
	if err != nil {
		return Transaction{}, fmt.Errorf("rate limiter failure: %w", err)
	}
	if !decision.Allowed {
		return Transaction{}, &errs.RateLimitError{RetryAfter: decision.RetryAfter}
	}

	var created Transaction
	err = s.repo.WithTransaction(ctx, func(repo Repository) error {
		owned, err := repo.AccountOwned(ctx, userId, in.AccountId)
		if err != nil {
			return err
		}
		if !owned {
			return ErrAccountNotFound
		}

		created, err = repo.Store(ctx, userId, in.apply(Transaction{Id: s.newId()}))
		if err != nil {
			return err
		}
		return ledger.Apply(ctx, repo, userId, ledger.ForCreate(created.entry()))
	})
	if err != nil {
		return Transaction{}, err
	}

	log.Debugf("user %d created transaction %s", userId, created.Id)
	s.eventBus.Emit(ctx, event_bus.TransactionCreated, changedEvent(userId, created))
	return created, nil
}

func (s *ServiceImpl) Get(ctx context.Context, userId int, id uuid.UUID) (Transaction, error) {
	return s.repo.Get(ctx, userId, id)
}

func (s *ServiceImpl) Update(ctx context.Context, userId int, id uuid.UUID, in Input) (Transaction, error) {
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}

	var updated Transaction
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		original, err := repo.GetForUpdate(ctx, userId, id)
		if err != nil {
			return err
		}
		if in.AccountId != original.AccountId {
			owned, err := repo.AccountOwned(ctx, userId, in.AccountId)
			if err != nil {
				return err
			}
			if !owned {
				return ErrAccountNotFound
			}
		}

		updated, err = repo.Update(ctx, userId, in.apply(original))
		if err != nil {
			return err
		}
		return ledger.Apply(ctx, repo, userId, ledger.ForUpdate(original.entry(), updated.entry()))
	})
	if err != nil {
		return Transaction{}, err
	}

	s.eventBus.Emit(ctx, event_bus.TransactionUpdated, changedEvent(userId, updated))
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, userId int, id uuid.UUID) error {
	deleted, err := s.BulkDelete(ctx, userId, []uuid.UUID{id})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (s *ServiceImpl) BulkDelete(ctx context.Context, userId int, ids []uuid.UUID) (int, error) {
	ids = distinct(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) > maxBulkDelete {
		return 0, errs.NewValidationError().Add("ids", fmt.Sprintf("At most %d transactions can be deleted at once", maxBulkDelete))
	}

	var removed []Transaction
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		found, err := repo.FindForDelete(ctx, userId, ids)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return nil
		}

		foundIds := make([]uuid.UUID, 0, len(found))
		entries := make([]ledger.Entry, 0, len(found))
		for _, t := range found {
			foundIds = append(foundIds, t.Id)
			entries = append(entries, t.entry())
		}
		if _, err := repo.DeleteMany(ctx, userId, foundIds); err != nil {
			return err
		}
		if err := ledger.Apply(ctx, repo, userId, ledger.ForDelete(entries)); err != nil {
			return err
		}
		removed = found
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(removed) > 0 {
		log.Debugf("user %d deleted %d transaction(s)", userId, len(removed))
		s.eventBus.Emit(ctx, event_bus.TransactionsDeleted, removedEvent(userId, removed))
	}
	return len(removed), nil
}

func (s *ServiceImpl) List(ctx context.Context, userId int, filter Filter) ([]Transaction, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, errs.NewValidationError().Add("type", "Type must be EXPENSE or INCOME")
	}
	return s.repo.List(ctx, userId, filter)
}

func distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func changedEvent(userId int, t Transaction) event_bus.TransactionChanged {
	return event_bus.TransactionChanged{
		UserId:        userId,
		TransactionId: t.Id,
		AccountId:     t.AccountId,
		Type:          string(t.Type),
		Amount:        t.Amount,
		Category:      t.Category,
		Date:          t.Date,
	}
}

func removedEvent(userId int, removed []Transaction) event_bus.TransactionsRemoved {
	event := event_bus.TransactionsRemoved{UserId: userId}
	accounts := map[uuid.UUID]struct{}{}
	for _, t := range removed {
		event.TransactionIds = append(event.TransactionIds, t.Id)
		if _, ok := accounts[t.AccountId]; !ok {
			accounts[t.AccountId] = struct{}{}
			event.AccountIds = append(event.AccountIds, t.AccountId)
		}
	}
	return event
}
