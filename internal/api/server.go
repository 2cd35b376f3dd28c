// Package api serves the HTTP surface over the account registry: account
// and feed management, renames, unread counts, and OPML import/export.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jdholdren/roost/internal/account"
	"github.com/jdholdren/roost/internal/roost"
	"github.com/jdholdren/roost/internal/serverutil"
)

type (
	// Server handles requests to manage accounts and their feeds.
	Server struct {
		*http.Server

		registry  *account.Registry
		opmlCache *lru.Cache[string, string]
	}

	ServerConfig struct {
		Port       int
		CorsOrigin string
	}
)

func NewServer(config ServerConfig, registry *account.Registry, hub *roost.Hub) *Server {
	var (
		r        = serverutil.ErrRouter{Router: mux.NewRouter()}
		cache, _ = lru.New[string, string](128)
	)

	srvr := Server{
		registry:  registry,
		opmlCache: cache,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsOrigin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
			)(r),
		},
	}

	// A rename or reported-name change makes any cached OPML export for
	// that account stale.
	hub.Subscribe(func(e roost.Event) {
		if e.Kind == roost.DisplayNameDidChange {
			srvr.opmlCache.Remove(e.Feed.AccountID())
		}
	})

	r.Use(serverutil.AccessLogMiddleware) // Log everything

	r.HandleFuncE("/api/accounts", srvr.getAccounts).Methods(http.MethodGet)
	r.HandleFuncE("/api/accounts", srvr.postAccounts).Methods(http.MethodPost)
	r.HandleFuncE("/api/accounts/{accountID}", srvr.deleteAccount).Methods(http.MethodDelete)

	r.HandleFuncE("/api/accounts/{accountID}/feeds", srvr.getFeeds).Methods(http.MethodGet)
	r.HandleFuncE("/api/accounts/{accountID}/feeds", srvr.postFeeds).Methods(http.MethodPost)
	r.HandleFuncE("/api/accounts/{accountID}/feeds", srvr.deleteFeed).Methods(http.MethodDelete)
	r.HandleFuncE("/api/accounts/{accountID}/feeds:rename", srvr.postRenameFeed).Methods(http.MethodPost)
	r.HandleFuncE("/api/accounts/{accountID}/feeds:unread", srvr.postUnreadCount).Methods(http.MethodPost)

	r.HandleFuncE("/api/accounts/{accountID}/opml", srvr.getOPML).Methods(http.MethodGet)
	r.HandleFuncE("/api/accounts/{accountID}/opml", srvr.postOPML).Methods(http.MethodPost)

	slog.Debug("configured api server", "port", config.Port)

	return &srvr
}
