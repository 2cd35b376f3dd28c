// Package opml renders and reads whole OPML subscription documents. Each
// feed's own outline line comes from the entity; this package wraps the
// head/body around them and walks documents coming the other way.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/jdholdren/roost/internal/roost"
)

// Export renders the feeds as a complete OPML document.
func Export(title string, feeds []*roost.Feed) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<opml version=\"1.1\">\n")
	b.WriteString("\t<head>\n")
	fmt.Fprintf(&b, "\t\t<title>%s</title>\n", escape(title))
	b.WriteString("\t</head>\n")
	b.WriteString("\t<body>\n")
	for _, f := range feeds {
		b.WriteString(f.OPMLString(2))
	}
	b.WriteString("\t</body>\n")
	b.WriteString("</opml>\n")

	return b.String()
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

func escape(s string) string {
	return escaper.Replace(s)
}

type (
	document struct {
		XMLName xml.Name `xml:"opml"`
		Body    body     `xml:"body"`
	}

	body struct {
		Outlines []outline `xml:"outline"`
	}

	outline struct {
		Text     string    `xml:"text,attr"`
		Title    string    `xml:"title,attr"`
		XMLURL   string    `xml:"xmlUrl,attr"`
		HTMLURL  string    `xml:"htmlUrl,attr"`
		Outlines []outline `xml:"outline"`
	}
)

// Parse reads an OPML document and returns one feed record per outline
// that carries a feed url, folders flattened away. The records feed
// straight into [roost.FromRecord].
func Parse(r io.Reader) ([]roost.Record, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("error decoding opml: %w", err)
	}

	var records []roost.Record
	var walk func(outlines []outline)
	walk = func(outlines []outline) {
		for _, o := range outlines {
			if o.XMLURL != "" {
				rec := roost.Record{roost.RecordKeyURL: o.XMLURL}
				if name := firstNonEmpty(o.Title, o.Text); name != "" {
					rec[roost.RecordKeyName] = name
				}
				if o.HTMLURL != "" {
					rec[roost.RecordKeyHomePageURL] = o.HTMLURL
				}
				records = append(records, rec)
			}
			walk(o.Outlines)
		}
	}
	walk(doc.Body.Outlines)

	return records, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
