package roost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/roost/internal/roost"
)

func TestIsFeedRecord(t *testing.T) {
	assert.True(t, roost.IsFeedRecord(roost.Record{"url": "http://x"}))
	assert.False(t, roost.IsFeedRecord(roost.Record{"name": "X"}))
	assert.False(t, roost.IsFeedRecord(roost.Record{}))
}

func TestFromRecord(t *testing.T) {
	acct := newStubAccount("acct-a")

	f, ok := roost.FromRecord(acct, nil, roost.Record{
		"url":  "http://x",
		"name": "X",
	})
	require.True(t, ok)

	assert.Equal(t, "http://x", f.URL())
	assert.Equal(t, "http://x", f.ID(), "feed id falls back to the url")
	assert.Equal(t, "acct-a", f.AccountID())
	assert.Equal(t, "X", f.Name())
	assert.Empty(t, f.EditedName())
}

func TestFromRecordMissingURL(t *testing.T) {
	f, ok := roost.FromRecord(newStubAccount("acct-a"), nil, roost.Record{
		"feedID": "feed-1",
		"name":   "X",
	})

	assert.False(t, ok)
	assert.Nil(t, f)
}

func TestFromRecordExplicitID(t *testing.T) {
	f, ok := roost.FromRecord(newStubAccount("acct-a"), nil, roost.Record{
		"url":        "http://x",
		"feedID":     "feed-1",
		"editedName": "Mine",
	})
	require.True(t, ok)

	assert.Equal(t, "feed-1", f.ID())
	assert.Equal(t, "Mine", f.EditedName())
	assert.Equal(t, "Mine", f.NameForDisplay())
}

func TestFromRecordNotificationOrdering(t *testing.T) {
	var rec recorder

	// The edited name goes in before the reported name, so the reported
	// name lands behind the edit and never fires a second event.
	_, ok := roost.FromRecord(newStubAccount("acct-a"), rec.notifier(), roost.Record{
		"url":        "http://x",
		"editedName": "Mine",
		"name":       "Theirs",
	})
	require.True(t, ok)

	assert.Equal(t, []roost.EventKind{roost.DisplayNameDidChange}, rec.kinds())
}
