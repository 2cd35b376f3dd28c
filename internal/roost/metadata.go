package roost

type (
	// FeedMetadata is the mutable state of a feed. It is owned by the
	// account, not the feed: feeds borrow a record and write through it.
	//
	// An empty string in any field means "unset".
	FeedMetadata struct {
		HomePageURL        string
		IconURL            string
		FaviconURL         string
		Name               string
		EditedName         string
		Authors            []Author
		ConditionalGetInfo ConditionalGetInfo
		ContentHash        string
	}

	// Author of a feed or item.
	Author struct {
		Name         string `json:"name,omitempty"`
		URL          string `json:"url,omitempty"`
		AvatarURL    string `json:"avatar_url,omitempty"`
		EmailAddress string `json:"email_address,omitempty"`
	}

	// ConditionalGetInfo carries the HTTP validators from the last fetch.
	ConditionalGetInfo struct {
		LastModified string `json:"last_modified,omitempty"`
		Etag         string `json:"etag,omitempty"`
	}
)

func (c ConditionalGetInfo) IsZero() bool {
	return c.LastModified == "" && c.Etag == ""
}
