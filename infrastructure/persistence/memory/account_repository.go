package memory

import (
	"context"
	"sync"

	"wmsadmin/domain/core/entities"
	apperrors "wmsadmin/pkg/errors"
)

// InMemoryAccountRepository stores local accounts and failure counters.
// Counters are kept for unknown usernames too, so a probe for a missing
// account is answered the same way as one for an existing account.
type InMemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]entities.Account
	failures map[string]int
	locked   map[string]bool
}

func NewInMemoryAccountRepository(accounts []entities.Account) *InMemoryAccountRepository {
	r := &InMemoryAccountRepository{
		accounts: make(map[string]entities.Account, len(accounts)),
		failures: make(map[string]int),
		locked:   make(map[string]bool),
	}
	for _, a := range accounts {
		r.accounts[a.Username] = a
		if a.FailedAttempts > 0 {
			r.failures[a.Username] = a.FailedAttempts
		}
		if a.Locked {
			r.locked[a.Username] = true
		}
	}
	return r
}

// FindByUsername returns a copy of the account with its current counters
func (r *InMemoryAccountRepository) FindByUsername(ctx context.Context, username string) (*entities.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[username]
	if !ok {
		return nil, apperrors.NewNotFoundError("account")
	}
	return r.withCounters(a), nil
}

// RecordFailure increments the counter and locks at threshold
func (r *InMemoryAccountRepository) RecordFailure(ctx context.Context, username string, threshold int) (*entities.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures[username]++
	if threshold > 0 && r.failures[username] >= threshold {
		r.locked[username] = true
	}

	a, ok := r.accounts[username]
	if !ok {
		a = entities.Account{Username: username}
	}
	return r.withCounters(a), nil
}

func (r *InMemoryAccountRepository) ResetFailures(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.failures, username)
	delete(r.locked, username)
	return nil
}

func (r *InMemoryAccountRepository) withCounters(a entities.Account) *entities.Account {
	a.Roles = append([]string{}, a.Roles...)
	a.Permissions = append([]string{}, a.Permissions...)
	a.FailedAttempts = r.failures[a.Username]
	a.Locked = r.locked[a.Username]
	return &a
}
