package transaction

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubAccount struct {
	userId  int
	balance decimal.Decimal
}

type stubTransaction struct {
	userId int
	t      Transaction
}

type RepositoryStub struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]stubAccount
	transactions map[uuid.UUID]stubTransaction
	// FailIncrement makes the next IncrementBalance fail, to exercise rollback.
	FailIncrement error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		accounts:     make(map[uuid.UUID]stubAccount),
		transactions: make(map[uuid.UUID]stubTransaction),
	}
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = make(map[uuid.UUID]stubAccount)
	r.transactions = make(map[uuid.UUID]stubTransaction)
	r.FailIncrement = nil
}

func (r *RepositoryStub) AddAccount(userId int, balance decimal.Decimal) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.accounts[id] = stubAccount{userId: userId, balance: balance}
	return id
}

func (r *RepositoryStub) Balance(accountId uuid.UUID) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[accountId].balance
}

func (r *RepositoryStub) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transactions)
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	originalAccounts := make(map[uuid.UUID]stubAccount, len(r.accounts))
	for k, v := range r.accounts {
		originalAccounts[k] = v
	}
	originalTransactions := make(map[uuid.UUID]stubTransaction, len(r.transactions))
	for k, v := range r.transactions {
		originalTransactions[k] = v
	}
	r.mu.Unlock()

	err := fn(r)

	if err != nil {
		r.mu.Lock()
		r.accounts = originalAccounts
		r.transactions = originalTransactions
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) AccountOwned(ctx context.Context, userId int, accountId uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountId]
	return ok && account.userId == userId, nil
}

func (r *RepositoryStub) IncrementBalance(ctx context.Context, userId int, accountId uuid.UUID, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailIncrement != nil {
		err := r.FailIncrement
		r.FailIncrement = nil
		return err
	}
	account, ok := r.accounts[accountId]
	if !ok || account.userId != userId {
		return ErrAccountNotFound
	}
	account.balance = account.balance.Add(delta)
	r.accounts[accountId] = account
	return nil
}

func (r *RepositoryStub) Store(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.transactions[t.Id] = stubTransaction{userId: userId, t: t}
	return t, nil
}

func (r *RepositoryStub) Get(ctx context.Context, userId int, id uuid.UUID) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.transactions[id]
	if !ok || stored.userId != userId {
		return Transaction{}, ErrTransactionNotFound
	}
	return stored.t, nil
}

func (r *RepositoryStub) GetForUpdate(ctx context.Context, userId int, id uuid.UUID) (Transaction, error) {
	return r.Get(ctx, userId, id)
}

func (r *RepositoryStub) Update(ctx context.Context, userId int, t Transaction) (Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.transactions[t.Id]
	if !ok || stored.userId != userId {
		return Transaction{}, ErrTransactionNotFound
	}
	t.UpdatedAt = time.Now()
	r.transactions[t.Id] = stubTransaction{userId: userId, t: t}
	return t, nil
}

func (r *RepositoryStub) FindForDelete(ctx context.Context, userId int, ids []uuid.UUID) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Transaction
	for _, id := range ids {
		if stored, ok := r.transactions[id]; ok && stored.userId == userId {
			result = append(result, stored.t)
		}
	}
	return result, nil
}

func (r *RepositoryStub) DeleteMany(ctx context.Context, userId int, ids []uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for _, id := range ids {
		if stored, ok := r.transactions[id]; ok && stored.userId == userId {
			delete(r.transactions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *RepositoryStub) List(ctx context.Context, userId int, filter Filter) ([]Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Transaction, 0)
	for _, stored := range r.transactions {
		t := stored.t
		if stored.userId != userId {
			continue
		}
		if filter.AccountId != nil && t.AccountId != *filter.AccountId {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.From != nil && t.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.Date.After(*filter.To) {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}
