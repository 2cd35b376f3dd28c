package opml_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/roost/internal/opml"
	"github.com/jdholdren/roost/internal/roost"
)

func TestExport(t *testing.T) {
	var (
		f1 = roost.New(nil, "http://one.example.com/feed", "feed-1", nil)
		f2 = roost.New(nil, "http://two.example.com/feed", "feed-2", nil)
	)
	f1.SetName("One & Only")
	f2.SetEditedName("Two")

	got := opml.Export("Subscriptions & Things", []*roost.Feed{f1, f2})

	assert.True(t, strings.HasPrefix(got, xmlHeader))
	assert.Contains(t, got, "<title>Subscriptions &amp; Things</title>")
	assert.Contains(t, got, "\t\t<outline text=\"One &amp; Only\"")
	assert.Contains(t, got, `xmlUrl="http://two.example.com/feed"`)
	assert.True(t, strings.HasSuffix(got, "</opml>\n"))
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>`

func TestParse(t *testing.T) {
	const doc = `<?xml version="1.0" encoding="UTF-8"?>
<opml version="1.1">
	<head>
		<title>Subscriptions</title>
	</head>
	<body>
		<outline text="Tech">
			<outline text="One" title="One" type="rss" htmlUrl="http://one.example.com" xmlUrl="http://one.example.com/feed"/>
		</outline>
		<outline text="Two" type="rss" xmlUrl="http://two.example.com/feed"/>
		<outline text="Just a folder"/>
	</body>
</opml>`

	records, err := opml.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, roost.Record{
		"url":         "http://one.example.com/feed",
		"name":        "One",
		"homePageURL": "http://one.example.com",
	}, records[0])
	assert.Equal(t, "http://two.example.com/feed", records[1]["url"])

	// The records round-trip through the entity decoder.
	f, ok := roost.FromRecord(nil, nil, records[0])
	require.True(t, ok)
	assert.Equal(t, "One", f.NameForDisplay())
}

func TestParseGarbage(t *testing.T) {
	_, err := opml.Parse(strings.NewReader("not xml at all"))
	assert.Error(t, err)
}
