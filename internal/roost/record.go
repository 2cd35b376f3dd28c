package roost

// Keys used in a feed's persisted record. The decode path only reads url,
// feedID, name, and editedName; the rest name the full shape of the record
// for the layers that store it.
const (
	RecordKeyURL          = "url"
	RecordKeyFeedID       = "feedID"
	RecordKeyName         = "name"
	RecordKeyEditedName   = "editedName"
	RecordKeyHomePageURL  = "homePageURL"
	RecordKeyIconURL      = "iconURL"
	RecordKeyFaviconURL   = "faviconURL"
	RecordKeyAuthors      = "authors"
	RecordKeyEtag         = "conditionalGetEtag"
	RecordKeyLastModified = "conditionalGetLastModified"
	RecordKeyContentHash  = "contentHash"
)

// Record is a feed as persisted: a loose string-keyed map.
type Record map[string]any

// IsFeedRecord reports whether rec could decode into a feed, which only
// requires a url entry.
func IsFeedRecord(rec Record) bool {
	_, ok := rec[RecordKeyURL]

	return ok
}

// FromRecord decodes a persisted record into a feed owned by account. The
// second return is false when rec has no usable url. The feed id falls back
// to the url when the record carries none.
//
// The edited name is applied before the reported name, so the name setters'
// event rules see the same sequence a live rename would produce.
func FromRecord(account Account, n Notifier, rec Record) (*Feed, bool) {
	feedURL, ok := rec[RecordKeyURL].(string)
	if !ok || feedURL == "" {
		return nil, false
	}

	feedID := feedURL
	if v, ok := rec[RecordKeyFeedID].(string); ok {
		feedID = v
	}

	f := New(account, feedURL, feedID, n)
	if v, ok := rec[RecordKeyEditedName].(string); ok {
		f.SetEditedName(v)
	}
	if v, ok := rec[RecordKeyName].(string); ok {
		f.SetName(v)
	}

	return f, true
}
