package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/pennywise/pennywise/internal/event_bus"
	"github.com/pennywise/pennywise/pkg/transaction"
	log "github.com/sirupsen/logrus"
)

// TransactionLister is the read side of the transaction service used for account details.
type TransactionLister interface {
	List(ctx context.Context, userId int, filter transaction.Filter) ([]transaction.Transaction, error)
}

type WithTransactions struct {
	Account      Account
	Transactions []transaction.Transaction
}

type Service interface {
	Create(ctx context.Context, userId int, in Input) (Account, error)
	List(ctx context.Context, userId int) ([]Account, error)
	Get(ctx context.Context, userId int, id uuid.UUID) (Account, error)
	GetWithTransactions(ctx context.Context, userId int, id uuid.UUID) (WithTransactions, error)
	SetDefault(ctx context.Context, userId int, id uuid.UUID) (Account, error)
}

type ServiceImpl struct {
	repo         Repo
	transactions TransactionLister
	eventBus     *event_bus.EventBus
}

func NewService(repo Repo, transactions TransactionLister, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{
		repo:         repo,
		transactions: transactions,
		eventBus:     eventBus,
	}
}

// Create stores a new account. The first account of a user always becomes the default one.
func (s *ServiceImpl) Create(ctx context.Context, userId int, in Input) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}

	var created Account
	err := s.repo.WithTransaction(ctx, func(repo Repo) error {
		if err := repo.LockOwner(ctx, userId); err != nil {
			return err
		}
		count, err := repo.Count(ctx, userId)
		if err != nil {
			return err
		}
		isDefault := in.IsDefault || count == 0
		if isDefault {
			if err := repo.ClearDefault(ctx, userId); err != nil {
				return err
			}
		}

		created, err = repo.Create(ctx, userId, Account{
			Id:        uuid.New(),
			Name:      in.Name,
			Type:      in.Type,
			Balance:   in.Balance,
			IsDefault: isDefault,
		})
		return err
	})
	if err != nil {
		return Account{}, err
	}

	log.Debugf("user %d created account %s (default: %t)", userId, created.Id, created.IsDefault)
	if created.IsDefault {
		s.eventBus.Emit(ctx, event_bus.DefaultAccountChanged, event_bus.DefaultAccountSet{UserId: userId, AccountId: created.Id})
	}
	return created, nil
}

func (s *ServiceImpl) List(ctx context.Context, userId int) ([]Account, error) {
	return s.repo.List(ctx, userId)
}

func (s *ServiceImpl) Get(ctx context.Context, userId int, id uuid.UUID) (Account, error) {
	return s.repo.Get(ctx, userId, id)
}

func (s *ServiceImpl) GetWithTransactions(ctx context.Context, userId int, id uuid.UUID) (WithTransactions, error) {
	account, err := s.repo.Get(ctx, userId, id)
	if err != nil {
		return WithTransactions{}, err
	}
	transactions, err := s.transactions.List(ctx, userId, transaction.Filter{AccountId: &id})
	if err != nil {
		return WithTransactions{}, err
	}
	return WithTransactions{Account: account, Transactions: transactions}, nil
}

// SetDefault makes id the only default account of the user. When id is not an owned account nothing changes.
func (s *ServiceImpl) SetDefault(ctx context.Context, userId int, id uuid.UUID) (Account, error) {
	var updated Account
	err := s.repo.WithTransaction(ctx, func(repo Repo) error {
		if err := repo.LockOwner(ctx, userId); err != nil {
			return err
		}
		if err := repo.ClearDefault(ctx, userId); err != nil {
			return err
		}
		marked, err := repo.MarkDefault(ctx, userId, id)
		if err != nil {
			return err
		}
		if !marked {
			return ErrAccountNotFound
		}
		updated, err = repo.Get(ctx, userId, id)
		return err
	})
	if err != nil {
		return Account{}, err
	}

	s.eventBus.Emit(ctx, event_bus.DefaultAccountChanged, event_bus.DefaultAccountSet{UserId: userId, AccountId: id})
	return updated, nil
}
