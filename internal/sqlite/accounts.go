package sqlite

import (
	"context"
	"errors"
	"fmt"

	"modernc.org/sqlite"

	"github.com/jdholdren/roost/internal/account"
	"github.com/jdholdren/roost/internal/roost"
)

func (r Repo) Accounts(ctx context.Context) ([]account.Row, error) {
	const q = `SELECT * FROM accounts;`

	var rows []account.Row
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("error selecting accounts: %s", err)
	}

	return rows, nil
}

func (r Repo) InsertAccount(ctx context.Context, row account.Row) error {
	const q = `INSERT INTO accounts (id, name) VALUES (:id, :name);`

	_, err := r.db.NamedExecContext(ctx, q, row)
	if sqliteErr := (&sqlite.Error{}); errors.As(err, &sqliteErr) && sqliteErr.Code() == 2067 {
		return fmt.Errorf("account already exists: %w", roost.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("error inserting account: %s", err)
	}

	return nil
}

// DeleteAccount removes the account; its feed records and unread counts go
// with it via the schema's cascades.
func (r Repo) DeleteAccount(ctx context.Context, id string) error {
	const q = `DELETE FROM accounts WHERE id = ?;`

	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("error deleting account: %s", err)
	}

	return nil
}
