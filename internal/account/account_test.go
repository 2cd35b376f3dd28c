package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/roost/internal/account"
	"github.com/jdholdren/roost/internal/roost"
)

// memRepo keeps everything in maps so registry behavior can be tested
// without a database.
type memRepo struct {
	accounts map[string]account.Row
	feeds    map[[2]string]account.FeedRow
	unread   map[[2]string]account.UnreadRow
}

func newMemRepo() *memRepo {
	return &memRepo{
		accounts: map[string]account.Row{},
		feeds:    map[[2]string]account.FeedRow{},
		unread:   map[[2]string]account.UnreadRow{},
	}
}

func (m *memRepo) Accounts(context.Context) ([]account.Row, error) {
	rows := make([]account.Row, 0, len(m.accounts))
	for _, row := range m.accounts {
		rows = append(rows, row)
	}

	return rows, nil
}

func (m *memRepo) InsertAccount(_ context.Context, row account.Row) error {
	if _, ok := m.accounts[row.ID]; ok {
		return roost.ErrConflict
	}
	m.accounts[row.ID] = row

	return nil
}

func (m *memRepo) DeleteAccount(_ context.Context, id string) error {
	delete(m.accounts, id)
	for key := range m.feeds {
		if key[0] == id {
			delete(m.feeds, key)
		}
	}

	return nil
}

func (m *memRepo) FeedRows(_ context.Context, accountIDs []string) ([]account.FeedRow, error) {
	var rows []account.FeedRow
	for _, id := range accountIDs {
		for key, row := range m.feeds {
			if key[0] == id {
				rows = append(rows, row)
			}
		}
	}

	return rows, nil
}

func (m *memRepo) UpsertFeedRow(_ context.Context, row account.FeedRow) error {
	m.feeds[[2]string{row.AccountID, row.FeedID}] = row

	return nil
}

func (m *memRepo) DeleteFeedRow(_ context.Context, accountID, feedID string) error {
	delete(m.feeds, [2]string{accountID, feedID})

	return nil
}

func (m *memRepo) UnreadRows(_ context.Context, accountIDs []string) ([]account.UnreadRow, error) {
	var rows []account.UnreadRow
	for _, id := range accountIDs {
		for key, row := range m.unread {
			if key[0] == id {
				rows = append(rows, row)
			}
		}
	}

	return rows, nil
}

func (m *memRepo) UpsertUnreadRow(_ context.Context, row account.UnreadRow) error {
	m.unread[[2]string{row.AccountID, row.FeedID}] = row

	return nil
}

func TestCreateAccountAndSubscribe(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newMemRepo()
		reg  = account.NewRegistry(repo, roost.NewHub())
	)

	acct, err := reg.CreateAccount(ctx, "Home")
	require.NoError(t, err)
	assert.Equal(t, "Home", acct.Name())
	assert.Contains(t, repo.accounts, acct.AccountID())

	f, err := acct.NewFeed("http://example.com/feed", "")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/feed", f.ID(), "feed id defaults to the url")
	assert.Equal(t, acct.AccountID(), f.AccountID())

	// Subscribing twice to the same id conflicts.
	_, err = acct.NewFeed("http://example.com/feed", "")
	assert.ErrorIs(t, err, roost.ErrConflict)
}

func TestFlushAndReload(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newMemRepo()
		hub  = roost.NewHub()
		reg  = account.NewRegistry(repo, hub)
	)

	acct, err := reg.CreateAccount(ctx, "Home")
	require.NoError(t, err)
	f, err := acct.NewFeed("http://example.com/feed", "feed-1")
	require.NoError(t, err)

	f.SetName("Example")
	f.SetEditedName("Mine")
	f.SetHomePageURL("http://example.com")
	f.SetAuthors([]roost.Author{{Name: "Alice"}})
	f.SetConditionalGetInfo(roost.ConditionalGetInfo{Etag: `"v1"`})
	f.SetContentHash("abc123")
	f.SetUnreadCount(7)

	require.NoError(t, reg.Flush(ctx))

	// A fresh registry over the same repo sees the same state.
	reg2 := account.NewRegistry(repo, hub)
	require.NoError(t, reg2.Open(ctx))

	acct2, ok := reg2.Account(acct.AccountID())
	require.True(t, ok)
	f2, ok := acct2.Feed("feed-1")
	require.True(t, ok)

	assert.Equal(t, "Example", f2.Name())
	assert.Equal(t, "Mine", f2.EditedName())
	assert.Equal(t, "Mine", f2.NameForDisplay())
	assert.Equal(t, "http://example.com", f2.HomePageURL())
	assert.Equal(t, []roost.Author{{Name: "Alice"}}, f2.Authors())
	assert.Equal(t, `"v1"`, f2.ConditionalGetInfo().Etag)
	assert.Equal(t, "abc123", f2.ContentHash())
	assert.Equal(t, 7, f2.UnreadCount())
	assert.True(t, f.Equal(f2))
}

func TestRemoveFeed(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newMemRepo()
		reg  = account.NewRegistry(repo, roost.NewHub())
	)

	acct, err := reg.CreateAccount(ctx, "Home")
	require.NoError(t, err)
	f, err := acct.NewFeed("http://example.com/feed", "feed-1")
	require.NoError(t, err)
	require.NoError(t, reg.Flush(ctx))

	require.NoError(t, reg.RemoveFeed(ctx, acct.AccountID(), "feed-1"))

	_, ok := acct.Feed("feed-1")
	assert.False(t, ok)
	assert.Empty(t, repo.feeds)
	// The removed feed is detached but keeps its identity.
	assert.Zero(t, f.UnreadCount())
	assert.Equal(t, "feed-1", f.ID())

	err = reg.RemoveFeed(ctx, acct.AccountID(), "feed-1")
	assert.ErrorIs(t, err, roost.ErrNotFound)
}

func TestRemoveAccountDetachesFeeds(t *testing.T) {
	var (
		ctx  = context.Background()
		repo = newMemRepo()
		reg  = account.NewRegistry(repo, roost.NewHub())
	)

	acct, err := reg.CreateAccount(ctx, "Home")
	require.NoError(t, err)
	f, err := acct.NewFeed("http://example.com/feed", "feed-1")
	require.NoError(t, err)
	f.SetUnreadCount(4)

	require.NoError(t, reg.RemoveAccount(ctx, acct.AccountID()))

	_, ok := reg.Account(acct.AccountID())
	assert.False(t, ok)
	assert.Zero(t, f.UnreadCount())
	assert.Equal(t, acct.AccountID(), f.AccountID(), "identity survives teardown")

	err = reg.RemoveAccount(ctx, acct.AccountID())
	assert.ErrorIs(t, err, roost.ErrNotFound)
}

func TestUnreadCountTotal(t *testing.T) {
	var (
		ctx = context.Background()
		reg = account.NewRegistry(newMemRepo(), roost.NewHub())
	)

	acct, err := reg.CreateAccount(ctx, "Home")
	require.NoError(t, err)

	f1, err := acct.NewFeed("http://one.example.com/feed", "feed-1")
	require.NoError(t, err)
	f2, err := acct.NewFeed("http://two.example.com/feed", "feed-2")
	require.NoError(t, err)

	f1.SetUnreadCount(2)
	f2.SetUnreadCount(5)

	assert.Equal(t, 7, acct.UnreadCountTotal())
}
