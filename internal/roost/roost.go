// Package roost holds the domain types for the feed registry: the Feed
// entity, its metadata record, and the change events feeds emit.
package roost

import "errors"

var (
	ErrConflict = errors.New("resource already exists")
	ErrNotFound = errors.New("resource not found")
)

// Account is the surface a Feed needs from its owning account.
//
// A Feed holds on to this loosely: the reference may be cleared while the
// Feed is still alive, and every method here degrades to a zero value when
// it is.
type Account interface {
	AccountID() string

	// Metadata returns the metadata record for the given feed, or nil if
	// the account has none. Feeds call this at most once and cache the
	// result for their lifetime.
	Metadata(f *Feed) *FeedMetadata

	UnreadCount(f *Feed) int
	SetUnreadCount(n int, f *Feed)
}
