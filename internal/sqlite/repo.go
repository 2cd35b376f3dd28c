// Package sqlite implements the account repository on top of sqlite.
package sqlite

import (
	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/roost/internal/account"
)

// Ensure Repo implements the repository interface
var _ account.Repository = (*Repo)(nil)

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repo {
	return Repo{db: db}
}
