// Package account owns the state feeds only borrow: metadata records and
// unread counts, grouped per account and persisted through a Repository.
package account

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jdholdren/roost/internal/roost"
)

type (
	// Row is an account as persisted.
	Row struct {
		ID        string    `db:"id"`
		Name      string    `db:"name"`
		CreatedAt time.Time `db:"created_at"`
	}

	// FeedRow is one feed's full persisted record.
	FeedRow struct {
		AccountID    string  `db:"account_id"`
		FeedID       string  `db:"feed_id"`
		URL          string  `db:"url"`
		Name         *string `db:"name"`
		EditedName   *string `db:"edited_name"`
		HomePageURL  *string `db:"home_page_url"`
		IconURL      *string `db:"icon_url"`
		FaviconURL   *string `db:"favicon_url"`
		Authors      *string `db:"authors"` // JSON array
		Etag         *string `db:"etag"`
		LastModified *string `db:"last_modified"`
		ContentHash  *string `db:"content_hash"`
	}

	// UnreadRow is one feed's unread count.
	UnreadRow struct {
		AccountID string `db:"account_id"`
		FeedID    string `db:"feed_id"`
		Count     int    `db:"count"`
	}

	// Repository persists accounts and their feed state.
	Repository interface {
		Accounts(ctx context.Context) ([]Row, error)
		InsertAccount(ctx context.Context, row Row) error
		DeleteAccount(ctx context.Context, id string) error

		FeedRows(ctx context.Context, accountIDs []string) ([]FeedRow, error)
		UpsertFeedRow(ctx context.Context, row FeedRow) error
		DeleteFeedRow(ctx context.Context, accountID, feedID string) error

		UnreadRows(ctx context.Context, accountIDs []string) ([]UnreadRow, error)
		UpsertUnreadRow(ctx context.Context, row UnreadRow) error
	}
)

// Account is one subscription account: a set of feeds plus the records
// backing them. It implements [roost.Account], the narrow surface feeds
// read through.
//
// All lookups are in-memory; persistence happens in Flush. Access is
// synchronized by the owning [Registry], not here.
type Account struct {
	id        string
	name      string
	createdAt time.Time

	notifier roost.Notifier

	feeds    map[string]*roost.Feed // keyed by feed id
	metadata map[string]*roost.FeedMetadata
	unread   map[string]int
}

func newAccount(row Row, n roost.Notifier) *Account {
	return &Account{
		id:        row.ID,
		name:      row.Name,
		createdAt: row.CreatedAt,
		notifier:  n,
		feeds:     map[string]*roost.Feed{},
		metadata:  map[string]*roost.FeedMetadata{},
		unread:    map[string]int{},
	}
}

func (a *Account) AccountID() string    { return a.id }
func (a *Account) Name() string         { return a.name }
func (a *Account) CreatedAt() time.Time { return a.createdAt }

// Metadata returns the record backing the given feed, creating an empty one
// for feeds this account has never seen. Never nil, so feed writes always
// land somewhere the account can persist.
func (a *Account) Metadata(f *roost.Feed) *roost.FeedMetadata {
	md, ok := a.metadata[f.ID()]
	if !ok {
		md = &roost.FeedMetadata{}
		a.metadata[f.ID()] = md
	}

	return md
}

func (a *Account) UnreadCount(f *roost.Feed) int { return a.unread[f.ID()] }

func (a *Account) SetUnreadCount(n int, f *roost.Feed) { a.unread[f.ID()] = n }

// UnreadCountTotal sums the unread counts across the account's feeds.
func (a *Account) UnreadCountTotal() int {
	total := 0
	for id := range a.feeds {
		total += a.unread[id]
	}

	return total
}

// NewFeed subscribes this account to a feed. The feed id defaults to the
// url when empty, mirroring how persisted records decode.
func (a *Account) NewFeed(feedURL, feedID string) (*roost.Feed, error) {
	if feedID == "" {
		feedID = feedURL
	}
	if _, ok := a.feeds[feedID]; ok {
		return nil, fmt.Errorf("feed %q: %w", feedID, roost.ErrConflict)
	}

	f := roost.New(a, feedURL, feedID, a.notifier)
	a.feeds[feedID] = f

	return f, nil
}

// Feed returns the subscribed feed with the given id.
func (a *Account) Feed(feedID string) (*roost.Feed, bool) {
	f, ok := a.feeds[feedID]

	return f, ok
}

// Feeds returns all of the account's feeds, in no particular order.
func (a *Account) Feeds() []*roost.Feed {
	feeds := make([]*roost.Feed, 0, len(a.feeds))
	for _, f := range a.feeds {
		feeds = append(feeds, f)
	}

	return feeds
}

// restore rebuilds a feed from its persisted row without touching the
// repository again.
func (a *Account) restore(row FeedRow) {
	a.metadata[row.FeedID] = rowMetadata(row)
	a.feeds[row.FeedID] = roost.New(a, row.URL, row.FeedID, a.notifier)
}

// removeFeed drops the feed from the in-memory maps and detaches it.
func (a *Account) removeFeed(feedID string) (*roost.Feed, bool) {
	f, ok := a.feeds[feedID]
	if !ok {
		return nil, false
	}
	f.Detach()
	delete(a.feeds, feedID)
	delete(a.metadata, feedID)
	delete(a.unread, feedID)

	return f, true
}

// detachAll clears every feed's back-reference; used when the account is
// being removed while feeds may still be referenced elsewhere.
func (a *Account) detachAll() {
	for _, f := range a.feeds {
		f.Detach()
	}
}

// flush writes every feed's record and unread count through the repository.
func (a *Account) flush(ctx context.Context, repo Repository) error {
	for id, f := range a.feeds {
		md := a.metadata[id]
		if md == nil {
			md = &roost.FeedMetadata{}
		}
		if err := repo.UpsertFeedRow(ctx, feedRow(a.id, f, md)); err != nil {
			return fmt.Errorf("error persisting feed %q: %w", id, err)
		}
		if err := repo.UpsertUnreadRow(ctx, UnreadRow{
			AccountID: a.id,
			FeedID:    id,
			Count:     a.unread[id],
		}); err != nil {
			return fmt.Errorf("error persisting unread count for %q: %w", id, err)
		}
	}

	return nil
}

func rowMetadata(row FeedRow) *roost.FeedMetadata {
	md := &roost.FeedMetadata{
		Name:        orEmpty(row.Name),
		EditedName:  orEmpty(row.EditedName),
		HomePageURL: orEmpty(row.HomePageURL),
		IconURL:     orEmpty(row.IconURL),
		FaviconURL:  orEmpty(row.FaviconURL),
		ContentHash: orEmpty(row.ContentHash),
		ConditionalGetInfo: roost.ConditionalGetInfo{
			Etag:         orEmpty(row.Etag),
			LastModified: orEmpty(row.LastModified),
		},
	}
	if row.Authors != nil {
		// A row that fails to parse just loses its authors.
		_ = json.Unmarshal([]byte(*row.Authors), &md.Authors)
	}

	return md
}

func feedRow(accountID string, f *roost.Feed, md *roost.FeedMetadata) FeedRow {
	row := FeedRow{
		AccountID:    accountID,
		FeedID:       f.ID(),
		URL:          f.URL(),
		Name:         nullable(md.Name),
		EditedName:   nullable(md.EditedName),
		HomePageURL:  nullable(md.HomePageURL),
		IconURL:      nullable(md.IconURL),
		FaviconURL:   nullable(md.FaviconURL),
		Etag:         nullable(md.ConditionalGetInfo.Etag),
		LastModified: nullable(md.ConditionalGetInfo.LastModified),
		ContentHash:  nullable(md.ContentHash),
	}
	if len(md.Authors) > 0 {
		if byts, err := json.Marshal(md.Authors); err == nil {
			s := string(byts)
			row.Authors = &s
		}
	}

	return row
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func orEmpty(p *string) string {
	if p == nil {
		return ""
	}

	return *p
}
