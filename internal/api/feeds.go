package api

import (
	"fmt"
	"net/http"

	rsterrs "github.com/jdholdren/roost/internal/errors"
	"github.com/jdholdren/roost/internal/opml"
	"github.com/jdholdren/roost/internal/roost"
	"github.com/jdholdren/roost/internal/serverutil"
)

// FeedResp is the structured data about one subscribed feed.
type FeedResp struct {
	FeedID         string `json:"feed_id"`
	URL            string `json:"url"`
	Name           string `json:"name,omitempty"`
	EditedName     string `json:"edited_name,omitempty"`
	NameForDisplay string `json:"name_for_display"`
	HomePageURL    string `json:"home_page_url,omitempty"`
	UnreadCount    int    `json:"unread_count"`
}

func feedResp(f *roost.Feed) FeedResp {
	return FeedResp{
		FeedID:         f.ID(),
		URL:            f.URL(),
		Name:           f.Name(),
		EditedName:     f.EditedName(),
		NameForDisplay: f.NameForDisplay(),
		HomePageURL:    f.HomePageURL(),
		UnreadCount:    f.UnreadCount(),
	}
}

func (s *Server) getFeeds(w http.ResponseWriter, r *http.Request) error {
	acct, err := s.account(r)
	if err != nil {
		return err
	}

	resps := []FeedResp{}
	s.registry.Do(func() {
		for _, f := range acct.Feeds() {
			resps = append(resps, feedResp(f))
		}
	})

	return serverutil.WriteJSON(w, http.StatusOK, resps)
}

type createFeedReq struct {
	URL    string `json:"url"`
	FeedID string `json:"feed_id"`
}

func (c createFeedReq) Validate() error {
	if c.URL == "" {
		return rsterrs.E(http.StatusBadRequest, "url is required", rsterrs.Detail{
			Field: "url",
			Error: "cannot be empty",
		})
	}

	return nil
}

func (s *Server) postFeeds(w http.ResponseWriter, r *http.Request) error {
	acct, err := s.account(r)
	if err != nil {
		return err
	}
	req, err := serverutil.DecodeValid[createFeedReq](r.Body)
	if err != nil {
		return rsterrs.E(http.StatusBadRequest, err)
	}

	var resp FeedResp
	var newErr error
	s.registry.Do(func() {
		f, err := acct.NewFeed(req.URL, req.FeedID)
		if err != nil {
			newErr = err
			return
		}
		resp = feedResp(f)
	})
	if newErr != nil {
		return coerceDomainErr(newErr)
	}

	if err := s.registry.Flush(r.Context()); err != nil {
		return fmt.Errorf("error persisting new feed: %w", err)
	}
	s.opmlCache.Remove(acct.AccountID())

	return serverutil.WriteJSON(w, http.StatusCreated, resp)
}

func (s *Server) deleteFeed(w http.ResponseWriter, r *http.Request) error {
	acct, err := s.account(r)
	if err != nil {
		return err
	}
	feedID := r.URL.Query().Get("feed_id")
	if feedID == "" {
		return rsterrs.E(http.StatusBadRequest, "feed_id is required", rsterrs.Detail{
			Field: "feed_id",
			Error: "cannot be empty",
		})
	}

	if err := s.registry.RemoveFeed(r.Context(), acct.AccountID(), feedID); err != nil {
		return coerceDomainErr(err)
	}
	s.opmlCache.Remove(acct.AccountID())

	w.WriteHeader(http.StatusNoContent)

	return nil
}

type renameFeedReq struct {
	FeedID  string `json:"feed_id"`
	NewName string `json:"new_name"`
}

func (c renameFeedReq) Validate() error {
	if c.FeedID == "" {
		return rsterrs.E(http.StatusBadRequest, "feed_id is required", rsterrs.Detail{
			Field: "feed_id",
			Error: "cannot be empty",
		})
	}

	return nil
}

func (s *Server) postRenameFeed(w http.ResponseWriter, r *http.Request) error {
	acct, err := s.account(r)
	if err != nil {
		return err
	}
	req, err := serverutil.DecodeValid[renameFeedReq](r.Body)
	if err != nil {
		return rsterrs.E(http.StatusBadRequest, err)
	}

	var resp FeedResp
	found := false
	s.registry.Do(func() {
		f, ok := acct.Feed(req.FeedID)
		if !ok {
			return
		}
		found = true
		f.Rename(req.NewName)
		resp = feedResp(f)
	})
	if !found {
		return rsterrs.E(http.StatusNotFound, fmt.Errorf("feed %q: %w", req.FeedID, roost.ErrNotFound))
	}

	if err := s.registry.Flush(r.Context()); err != nil {
		return fmt.Errorf("error persisting rename: %w", err)
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

type unreadCountReq struct {
	FeedID string `json:"feed_id"`
	Count  int    `json:"count"`
}

func (c unreadCountReq) Validate() error {
	if c.FeedID == "" {
		return rsterrs.E(http.StatusBadRequest, "feed_id is required", rsterrs.Detail{
			Field: "feed_id",
			Error: "cannot be empty",
		})
	}
	if c.Count < 0 {
		return rsterrs.E(http.StatusBadRequest, "count cannot be negative", rsterrs.Detail{
			Field: "count",
			Error: "must be zero or more",
		})
	}

	return nil
}

func (s *Server) postUnreadCount(w http.ResponseWriter, r *http.Request) error {
	acct, err := s.account(r)
	if err != nil {
		return err
	}
	req, err := serverutil.DecodeValid[unreadCountReq](r.Body)
	if err != nil {
		return rsterrs.E(http.StatusBadRequest, err)
	}

	var resp FeedResp
	found := false
	s.registry.Do(func() {
		f, ok := acct.Feed(req.FeedID)
		if !ok {
			return
		}
		found = true
		f.SetUnreadCount(req.Count)
		resp = feedResp(f)
	})
	if !found {
		return rsterrs.E(http.StatusNotFound, fmt.Errorf("feed %q: %w", req.FeedID, roost.ErrNotFound))
	}

	if err := s.registry.Flush(r.Context()); err != nil {
		return fmt.Errorf("error persisting unread count: %w", err)
	}

	return serverutil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) getOPML(w http.ResponseWriter, r *http.Request) error {
	acct, err := s.account(r)
	if err != nil {
		return err
	}

	doc, ok := s.opmlCache.Get(acct.AccountID())
	if !ok {
		s.registry.Do(func() {
			doc = opml.Export(acct.Name(), acct.Feeds())
		})
		s.opmlCache.Add(acct.AccountID(), doc)
	}

	w.Header().Set("Content-Type", "text/x-opml")
	_, err = w.Write([]byte(doc))

	return err
}

func (s *Server) postOPML(w http.ResponseWriter, r *http.Request) error {
	acct, err := s.account(r)
	if err != nil {
		return err
	}

	records, err := opml.Parse(r.Body)
	if err != nil {
		return rsterrs.E(http.StatusBadRequest, err)
	}

	imported := []FeedResp{}
	s.registry.Do(func() {
		for _, rec := range records {
			feedURL, _ := rec[roost.RecordKeyURL].(string)
			f, err := acct.NewFeed(feedURL, "")
			if err != nil {
				// Already subscribed; skip.
				continue
			}
			if name, ok := rec[roost.RecordKeyName].(string); ok {
				f.SetName(name)
			}
			if home, ok := rec[roost.RecordKeyHomePageURL].(string); ok {
				f.SetHomePageURL(home)
			}
			imported = append(imported, feedResp(f))
		}
	})

	if err := s.registry.Flush(r.Context()); err != nil {
		return fmt.Errorf("error persisting import: %w", err)
	}
	s.opmlCache.Remove(acct.AccountID())

	return serverutil.WriteJSON(w, http.StatusCreated, imported)
}
