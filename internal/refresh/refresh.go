// Package refresh fetches subscribed feeds over HTTP and folds what came
// back into the feed entities. Fetches are conditional: each request
// carries the validators from the feed's last fetch, and unchanged bodies
// are detected by content hash before parsing.
package refresh

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"github.com/sethvargo/go-retry"

	"github.com/jdholdren/roost/internal/account"
	"github.com/jdholdren/roost/internal/roost"
	"github.com/jdholdren/roost/logger"
)

type Refresher struct {
	client   *http.Client
	registry *account.Registry
	interval time.Duration
}

func New(registry *account.Registry, interval time.Duration) *Refresher {
	return &Refresher{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		registry: registry,
		interval: interval,
	}
}

// Run refreshes every account's feeds immediately and then on each tick
// until the context is canceled.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.refreshAll(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Refresher) refreshAll(ctx context.Context) {
	for _, acct := range r.registry.Accounts() {
		// Snapshot what each fetch needs under the lock, fetch outside it.
		type target struct {
			feed *roost.Feed
			url  string
			info roost.ConditionalGetInfo
			hash string
		}
		var targets []target
		r.registry.Do(func() {
			for _, f := range acct.Feeds() {
				targets = append(targets, target{
					feed: f,
					url:  f.URL(),
					info: f.ConditionalGetInfo(),
					hash: f.ContentHash(),
				})
			}
		})

		for _, tgt := range targets {
			fctx := logger.Ctx(ctx, logger.Feed(tgt.feed.ID(), tgt.feed.AccountID())...)

			res, err := r.fetch(fctx, tgt.url, tgt.info, tgt.hash)
			if err != nil {
				slog.ErrorContext(fctx, "error refreshing feed", "url", tgt.url, "error", err)
				continue
			}
			if res == nil {
				continue
			}
			r.registry.Do(func() {
				apply(tgt.feed, res)
			})
		}
	}
}

// RefreshFeed fetches one feed and applies the result directly. The caller
// is responsible for holding whatever lock guards the feed.
func (r *Refresher) RefreshFeed(ctx context.Context, f *roost.Feed) error {
	res, err := r.fetch(ctx, f.URL(), f.ConditionalGetInfo(), f.ContentHash())
	if err != nil {
		return err
	}
	if res != nil {
		apply(f, res)
	}

	return nil
}

// result of a fetch that produced something to store. A nil parsed feed
// means the body was byte-identical to last time and only the validators
// moved.
type result struct {
	parsed *gofeed.Feed
	info   roost.ConditionalGetInfo
	hash   string
}

func (r *Refresher) fetch(ctx context.Context, feedURL string, info roost.ConditionalGetInfo, prevHash string) (*result, error) {
	var res *result
	err := retry.Do(ctx, retry.WithMaxRetries(3, retry.NewFibonacci(time.Second)), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
		if err != nil {
			return fmt.Errorf("error building request: %w", err)
		}
		if info.Etag != "" {
			req.Header.Set("If-None-Match", info.Etag)
		}
		if info.LastModified != "" {
			req.Header.Set("If-Modified-Since", info.LastModified)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("error getting feed url: %w", err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotModified:
			res = nil
			return nil
		case resp.StatusCode >= http.StatusInternalServerError:
			return retry.RetryableError(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("error reading feed body: %w", err))
		}

		sum := sha256.Sum256(body)
		res = &result{
			hash: hex.EncodeToString(sum[:]),
			info: roost.ConditionalGetInfo{
				Etag:         resp.Header.Get("Etag"),
				LastModified: resp.Header.Get("Last-Modified"),
			},
		}
		if res.hash == prevHash {
			// Same bytes as last time; skip the parse.
			return nil
		}

		parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("error parsing feed: %w", err)
		}
		res.parsed = parsed

		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func apply(f *roost.Feed, res *result) {
	f.SetConditionalGetInfo(res.info)
	f.SetContentHash(res.hash)
	if res.parsed == nil {
		return
	}

	if title := sanitize(res.parsed.Title); title != "" {
		f.SetName(title)
	}
	if res.parsed.Link != "" {
		f.SetHomePageURL(res.parsed.Link)
	}
	if res.parsed.Image != nil && res.parsed.Image.URL != "" {
		f.SetIconURL(res.parsed.Image.URL)
	}
	if len(res.parsed.Authors) > 0 {
		authors := make([]roost.Author, 0, len(res.parsed.Authors))
		for _, a := range res.parsed.Authors {
			if a == nil {
				continue
			}
			authors = append(authors, roost.Author{
				Name:         a.Name,
				EmailAddress: a.Email,
			})
		}
		f.SetAuthors(authors)
	}
}

var stripPolicy = bluemonday.StrictPolicy()

// Removes all html tags from the string, usually a title some generator
// stuffed markup into.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	s = stripPolicy.Sanitize(s)
	if len(s) > 2048 {
		s = s[:2048]
	}

	return s
}
