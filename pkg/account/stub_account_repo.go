package account

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type stubAccount struct {
	userId  int
	account Account
}

type StubAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]stubAccount
	seq      int
}

func NewStubAccountRepo() *StubAccountRepo {
	return &StubAccountRepo{accounts: make(map[uuid.UUID]stubAccount)}
}

func (s *StubAccountRepo) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = make(map[uuid.UUID]stubAccount)
	s.seq = 0
}

// DefaultCount is the number of default accounts the user currently has.
func (s *StubAccountRepo) DefaultCount(userId int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, stored := range s.accounts {
		if stored.userId == userId && stored.account.IsDefault {
			count++
		}
	}
	return count
}

func (s *StubAccountRepo) WithTransaction(ctx context.Context, fn func(repo Repo) error) error {
	s.mu.Lock()
	snapshot := make(map[uuid.UUID]stubAccount, len(s.accounts))
	for k, v := range s.accounts {
		snapshot[k] = v
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.accounts = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *StubAccountRepo) LockOwner(ctx context.Context, userId int) error {
	return nil
}

func (s *StubAccountRepo) Create(ctx context.Context, userId int, account Account) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	// strictly increasing creation times keep ordering deterministic
	account.CreatedAt = time.Date(2024, 1, 1, 0, 0, s.seq, 0, time.UTC)
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.Id] = stubAccount{userId: userId, account: account}
	return account, nil
}

func (s *StubAccountRepo) Get(ctx context.Context, userId int, id uuid.UUID) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[id]
	if !ok || stored.userId != userId {
		return Account{}, ErrAccountNotFound
	}
	return stored.account, nil
}

func (s *StubAccountRepo) List(ctx context.Context, userId int) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Account, 0)
	for _, stored := range s.accounts {
		if stored.userId == userId {
			result = append(result, stored.account)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsDefault != result[j].IsDefault {
			return result[i].IsDefault
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *StubAccountRepo) Count(ctx context.Context, userId int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, stored := range s.accounts {
		if stored.userId == userId {
			count++
		}
	}
	return count, nil
}

func (s *StubAccountRepo) ClearDefault(ctx context.Context, userId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, stored := range s.accounts {
		if stored.userId == userId && stored.account.IsDefault {
			stored.account.IsDefault = false
			s.accounts[id] = stored
		}
	}
	return nil
}

func (s *StubAccountRepo) MarkDefault(ctx context.Context, userId int, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[id]
	if !ok || stored.userId != userId {
		return false, nil
	}
	stored.account.IsDefault = true
	s.accounts[id] = stored
	return true, nil
}
