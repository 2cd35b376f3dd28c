package account

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jdholdren/roost/internal/roost"
)

const accountNamespace = "-acct"

// Registry is the set of accounts, loaded once at startup and mutated only
// through it. It is the single writer for all feed state: everything that
// touches a feed goes through Do or one of the locking methods, which keeps
// the unsynchronized Feed internals safe.
type Registry struct {
	mu sync.Mutex

	repo     Repository
	notifier roost.Notifier
	accounts map[string]*Account
}

func NewRegistry(repo Repository, n roost.Notifier) *Registry {
	return &Registry{
		repo:     repo,
		notifier: n,
		accounts: map[string]*Account{},
	}
}

// Open loads every account and its feed state from the repository.
func (r *Registry) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.repo.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("error loading accounts: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		r.accounts[row.ID] = newAccount(row, r.notifier)
		ids = append(ids, row.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	feedRows, err := r.repo.FeedRows(ctx, ids)
	if err != nil {
		return fmt.Errorf("error loading feed records: %w", err)
	}
	for _, row := range feedRows {
		if acct, ok := r.accounts[row.AccountID]; ok {
			acct.restore(row)
		}
	}

	unreadRows, err := r.repo.UnreadRows(ctx, ids)
	if err != nil {
		return fmt.Errorf("error loading unread counts: %w", err)
	}
	for _, row := range unreadRows {
		if acct, ok := r.accounts[row.AccountID]; ok {
			acct.unread[row.FeedID] = row.Count
		}
	}

	return nil
}

// CreateAccount makes a new empty account and persists it immediately.
func (r *Registry) CreateAccount(ctx context.Context, name string) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := Row{
		ID:   uuid.NewString() + accountNamespace,
		Name: name,
	}
	if err := r.repo.InsertAccount(ctx, row); err != nil {
		return nil, fmt.Errorf("error inserting account: %w", err)
	}

	acct := newAccount(row, r.notifier)
	r.accounts[row.ID] = acct

	return acct, nil
}

// Account returns the account with the given id.
func (r *Registry) Account(id string) (*Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]

	return acct, ok
}

// Accounts returns all accounts, sorted by name for stable listings.
func (r *Registry) Accounts() []*Account {
	r.mu.Lock()
	defer r.mu.Unlock()

	accts := make([]*Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		accts = append(accts, a)
	}
	sort.Slice(accts, func(i, j int) bool { return accts[i].name < accts[j].name })

	return accts
}

// RemoveAccount deletes the account and its persisted state. The account's
// feeds are detached, not destroyed: anything still holding one keeps a
// working identity with zeroed reads.
func (r *Registry) RemoveAccount(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return fmt.Errorf("account %q: %w", id, roost.ErrNotFound)
	}
	if err := r.repo.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("error deleting account: %w", err)
	}

	acct.detachAll()
	delete(r.accounts, id)

	return nil
}

// RemoveFeed unsubscribes a feed and deletes its persisted record.
func (r *Registry) RemoveFeed(ctx context.Context, accountID, feedID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %q: %w", accountID, roost.ErrNotFound)
	}
	if _, ok := acct.removeFeed(feedID); !ok {
		return fmt.Errorf("feed %q: %w", feedID, roost.ErrNotFound)
	}
	if err := r.repo.DeleteFeedRow(ctx, accountID, feedID); err != nil {
		return fmt.Errorf("error deleting feed record: %w", err)
	}

	return nil
}

// Do runs fn while holding the registry lock. Handlers and the refresher
// use this for any multi-step read or mutation of feeds.
func (r *Registry) Do(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn()
}

// Flush writes all accounts' feed state through the repository.
func (r *Registry) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, acct := range r.accounts {
		if err := acct.flush(ctx, r.repo); err != nil {
			return fmt.Errorf("error flushing account %q: %w", acct.id, err)
		}
	}

	return nil
}
