package roost

import (
	"hash/fnv"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

// Placeholder shown when a feed has no name at all.
const untitledName = "Untitled"

// Feed is a single subscribed feed within one account.
//
// The Feed itself is only an identity: url, id, and the owning account's id,
// all fixed at construction. Everything mutable lives in a FeedMetadata
// record owned by the account, which the Feed fetches once on first use and
// holds for its lifetime.
//
// A Feed is not safe for concurrent use; confine each instance to a single
// goroutine.
type Feed struct {
	url       string
	id        string
	accountID string

	// The owning account. May be cleared via Detach when the account goes
	// away; identity never depends on it.
	account  Account
	notifier Notifier

	md        *FeedMetadata
	mdFetched bool
}

// New creates a feed owned by the given account. The account's id is
// captured immediately so equality survives the account being detached.
// Events are published to n; a nil notifier drops them.
func New(account Account, feedURL, feedID string, n Notifier) *Feed {
	f := &Feed{
		url:      feedURL,
		id:       feedID,
		notifier: n,
	}
	if account != nil {
		f.account = account
		f.accountID = account.AccountID()
	}

	return f
}

func (f *Feed) URL() string       { return f.url }
func (f *Feed) ID() string        { return f.id }
func (f *Feed) AccountID() string { return f.accountID }

// Detach clears the back-reference to the owning account. The feed keeps
// working: unread counts read as zero and metadata writes stay local.
func (f *Feed) Detach() {
	f.account = nil
}

// metadata returns the cached record, asking the account for it on the
// first call only. A nil result (detached feed, or the account has no
// record) is cached too; there is no refresh path.
func (f *Feed) metadata() *FeedMetadata {
	if f.mdFetched {
		return f.md
	}
	f.mdFetched = true
	if f.account != nil {
		f.md = f.account.Metadata(f)
	}

	return f.md
}

// writableMetadata is metadata for the setters: when there is no record to
// write through, one is allocated locally so writes are not dropped.
func (f *Feed) writableMetadata() *FeedMetadata {
	if md := f.metadata(); md != nil {
		return md
	}
	f.md = &FeedMetadata{}

	return f.md
}

// HomePageURL returns the feed's home page, or "" when unknown.
func (f *Feed) HomePageURL() string {
	md := f.metadata()
	if md == nil {
		return ""
	}

	return md.HomePageURL
}

// SetHomePageURL stores the home page after normalizing it. An empty string
// clears it.
func (f *Feed) SetHomePageURL(u string) {
	f.writableMetadata().HomePageURL = normalizeURL(u)
}

func (f *Feed) IconURL() string {
	md := f.metadata()
	if md == nil {
		return ""
	}

	return md.IconURL
}

func (f *Feed) SetIconURL(u string) {
	f.writableMetadata().IconURL = u
}

func (f *Feed) FaviconURL() string {
	md := f.metadata()
	if md == nil {
		return ""
	}

	return md.FaviconURL
}

func (f *Feed) SetFaviconURL(u string) {
	f.writableMetadata().FaviconURL = u
}

func (f *Feed) ContentHash() string {
	md := f.metadata()
	if md == nil {
		return ""
	}

	return md.ContentHash
}

func (f *Feed) SetContentHash(hash string) {
	f.writableMetadata().ContentHash = hash
}

func (f *Feed) ConditionalGetInfo() ConditionalGetInfo {
	md := f.metadata()
	if md == nil {
		return ConditionalGetInfo{}
	}

	return md.ConditionalGetInfo
}

func (f *Feed) SetConditionalGetInfo(info ConditionalGetInfo) {
	f.writableMetadata().ConditionalGetInfo = info
}

// Authors returns the feed's authors with duplicates removed. Callers must
// not rely on the order.
func (f *Feed) Authors() []Author {
	md := f.metadata()
	if md == nil {
		return nil
	}

	return lo.Uniq(md.Authors)
}

func (f *Feed) SetAuthors(authors []Author) {
	f.writableMetadata().Authors = lo.Uniq(authors)
}

// Name is the name the feed reported for itself, or "" when unknown.
func (f *Feed) Name() string {
	md := f.metadata()
	if md == nil {
		return ""
	}

	return md.Name
}

// SetName stores the feed-reported name. A display-name event fires only if
// the name users actually see changed; an edited name masks this entirely.
func (f *Feed) SetName(name string) {
	before := f.NameForDisplay()
	f.writableMetadata().Name = name
	if f.NameForDisplay() != before {
		f.publish(DisplayNameDidChange)
	}
}

// EditedName is the user's override for the feed name, or "" when unset.
func (f *Feed) EditedName() string {
	md := f.metadata()
	if md == nil {
		return ""
	}

	return md.EditedName
}

// SetEditedName stores a user override for the name. Setting the current
// value (including clearing an already-clear name) is a no-op; any real
// change fires a display-name event even when the displayed name ends up
// the same, since an edit is always presentation-relevant.
func (f *Feed) SetEditedName(name string) {
	if name == f.EditedName() {
		return
	}
	f.writableMetadata().EditedName = name
	f.publish(DisplayNameDidChange)
}

// Rename is SetEditedName under the name the UI uses.
func (f *Feed) Rename(newName string) {
	f.SetEditedName(newName)
}

// NameForDisplay resolves the name to show users: the edited name, else the
// feed-reported name, else a placeholder. Never empty.
func (f *Feed) NameForDisplay() string {
	if name := f.EditedName(); name != "" {
		return name
	}
	if name := f.Name(); name != "" {
		return name
	}

	return untitledName
}

// UnreadCount reads this feed's unread count from the owning account, zero
// when detached.
func (f *Feed) UnreadCount() int {
	if f.account == nil {
		return 0
	}

	return f.account.UnreadCount(f)
}

// SetUnreadCount stores a new unread count on the owning account. The
// current value is read first so an unchanged count fires nothing.
func (f *Feed) SetUnreadCount(n int) {
	if n == f.UnreadCount() {
		return
	}
	if f.account != nil {
		f.account.SetUnreadCount(n, f)
	}
	f.publish(UnreadCountDidChange)
}

// DropConditionalGetInfo clears the HTTP validators and the content hash so
// the next fetch runs unconditionally. Fires nothing.
func (f *Feed) DropConditionalGetInfo() {
	md := f.metadata()
	if md == nil {
		return
	}
	md.ConditionalGetInfo = ConditionalGetInfo{}
	md.ContentHash = ""
}

// Key is the comparable identity of a feed, usable as a map key. Two feeds
// are the same feed exactly when their Keys are equal.
type Key struct {
	ID        string
	AccountID string
}

func (f *Feed) Key() Key {
	return Key{ID: f.id, AccountID: f.accountID}
}

// Equal reports whether two feeds are the same feed: same id within the
// same account. The account reference itself never participates, so
// equality is stable across Detach.
func (f *Feed) Equal(other *Feed) bool {
	if other == nil {
		return false
	}

	return f.id == other.id && f.accountID == other.accountID
}

// Hash folds the identity fields into a single value. Equal feeds hash
// identically.
func (f *Feed) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(f.id))
	h.Write([]byte{0})
	h.Write([]byte(f.accountID))

	return h.Sum64()
}

// FeedIDs returns the distinct feed ids in the given feeds. Meaningful
// within a single account; across accounts two different feeds may share
// an id.
func FeedIDs(feeds []*Feed) []string {
	return lo.Uniq(lo.Map(feeds, func(f *Feed, _ int) string {
		return f.ID()
	}))
}

func (f *Feed) publish(kind EventKind) {
	if f.notifier == nil {
		return
	}
	f.notifier.Publish(Event{Kind: kind, Feed: f})
}

// normalizeURL trims whitespace and lowercases the scheme and host.
// Anything unparseable is stored as-is.
func normalizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	return u.String()
}
