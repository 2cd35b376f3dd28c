package roost

import (
	"fmt"
	"strings"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// OPMLString renders the feed as a single self-closing outline element,
// newline-terminated and indented with indentLevel tabs.
//
// The name here deliberately skips the display placeholder: a feed with no
// name at all exports an empty one, so a synthetic "Untitled" never gets
// written out as if the feed had chosen it.
func (f *Feed) OPMLString(indentLevel int) string {
	name := f.EditedName()
	if name == "" {
		name = f.Name()
	}

	var (
		escapedName     = xmlEscaper.Replace(name)
		escapedHomePage = xmlEscaper.Replace(f.HomePageURL())
		escapedURL      = xmlEscaper.Replace(f.url)
	)

	return fmt.Sprintf("%s<outline text=\"%s\" title=\"%s\" description=\"\" type=\"rss\" version=\"RSS\" htmlUrl=\"%s\" xmlUrl=\"%s\"/>\n",
		strings.Repeat("\t", indentLevel), escapedName, escapedName, escapedHomePage, escapedURL)
}
