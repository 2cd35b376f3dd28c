package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdholdren/roost/internal/account"
)

func (r Repo) FeedRows(ctx context.Context, accountIDs []string) ([]account.FeedRow, error) {
	if len(accountIDs) == 0 {
		return []account.FeedRow{}, nil
	}

	query, args, err := sq.Select("*").From("feed_records").Where(sq.Eq{"account_id": accountIDs}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	var rows []account.FeedRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching feed records: %s", err)
	}

	return rows, nil
}

func (r Repo) UpsertFeedRow(ctx context.Context, row account.FeedRow) error {
	const q = `INSERT INTO feed_records (
		account_id, feed_id, url, name, edited_name, home_page_url,
		icon_url, favicon_url, authors, etag, last_modified, content_hash
	) VALUES (
		:account_id, :feed_id, :url, :name, :edited_name, :home_page_url,
		:icon_url, :favicon_url, :authors, :etag, :last_modified, :content_hash
	)
	ON CONFLICT(account_id, feed_id) DO UPDATE SET
		url = excluded.url,
		name = excluded.name,
		edited_name = excluded.edited_name,
		home_page_url = excluded.home_page_url,
		icon_url = excluded.icon_url,
		favicon_url = excluded.favicon_url,
		authors = excluded.authors,
		etag = excluded.etag,
		last_modified = excluded.last_modified,
		content_hash = excluded.content_hash;`

	if _, err := r.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("error upserting feed record: %s", err)
	}

	return nil
}

func (r Repo) DeleteFeedRow(ctx context.Context, accountID, feedID string) error {
	const q = `DELETE FROM feed_records WHERE account_id = ? AND feed_id = ?;`

	if _, err := r.db.ExecContext(ctx, q, accountID, feedID); err != nil {
		return fmt.Errorf("error deleting feed record: %s", err)
	}

	return nil
}

func (r Repo) UnreadRows(ctx context.Context, accountIDs []string) ([]account.UnreadRow, error) {
	if len(accountIDs) == 0 {
		return []account.UnreadRow{}, nil
	}

	query, args, err := sq.Select("*").From("unread_counts").Where(sq.Eq{"account_id": accountIDs}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	var rows []account.UnreadRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching unread counts: %s", err)
	}

	return rows, nil
}

func (r Repo) UpsertUnreadRow(ctx context.Context, row account.UnreadRow) error {
	const q = `INSERT INTO unread_counts (account_id, feed_id, count)
	VALUES (:account_id, :feed_id, :count)
	ON CONFLICT(account_id, feed_id) DO UPDATE SET count = excluded.count;`

	if _, err := r.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("error upserting unread count: %s", err)
	}

	return nil
}
