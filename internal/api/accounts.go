package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jdholdren/roost/internal/account"
	rsterrs "github.com/jdholdren/roost/internal/errors"
	"github.com/jdholdren/roost/internal/roost"
	"github.com/jdholdren/roost/internal/serverutil"
)

// AccountResp is the structured data about one account.
type AccountResp struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	UnreadTotal int       `json:"unread_total"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) getAccounts(w http.ResponseWriter, r *http.Request) error {
	accts := s.registry.Accounts()

	var resps []AccountResp
	s.registry.Do(func() {
		for _, acct := range accts {
			resps = append(resps, AccountResp{
				ID:          acct.AccountID(),
				Name:        acct.Name(),
				UnreadTotal: acct.UnreadCountTotal(),
				CreatedAt:   acct.CreatedAt(),
			})
		}
	})
	if resps == nil {
		resps = []AccountResp{}
	}

	return serverutil.WriteJSON(w, http.StatusOK, resps)
}

type createAccountReq struct {
	Name string `json:"name"`
}

func (c createAccountReq) Validate() error {
	if c.Name == "" {
		return rsterrs.E(http.StatusBadRequest, "name is required", rsterrs.Detail{
			Field: "name",
			Error: "cannot be empty",
		})
	}

	return nil
}

func (s *Server) postAccounts(w http.ResponseWriter, r *http.Request) error {
	req, err := serverutil.DecodeValid[createAccountReq](r.Body)
	if err != nil {
		return rsterrs.E(http.StatusBadRequest, err)
	}

	acct, err := s.registry.CreateAccount(r.Context(), req.Name)
	if err != nil {
		return fmt.Errorf("error creating account: %w", err)
	}

	return serverutil.WriteJSON(w, http.StatusCreated, AccountResp{
		ID:        acct.AccountID(),
		Name:      acct.Name(),
		CreatedAt: acct.CreatedAt(),
	})
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["accountID"]
	if err := s.registry.RemoveAccount(r.Context(), id); err != nil {
		return coerceDomainErr(err)
	}
	s.opmlCache.Remove(id)

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// account resolves the account named in the request path.
func (s *Server) account(r *http.Request) (*account.Account, error) {
	id := mux.Vars(r)["accountID"]
	acct, ok := s.registry.Account(id)
	if !ok {
		return nil, rsterrs.E(http.StatusNotFound, fmt.Errorf("account %q: %w", id, roost.ErrNotFound))
	}

	return acct, nil
}

// coerceDomainErr maps the domain sentinels onto statuses.
func coerceDomainErr(err error) error {
	switch {
	case errors.Is(err, roost.ErrNotFound):
		return rsterrs.E(http.StatusNotFound, err)
	case errors.Is(err, roost.ErrConflict):
		return rsterrs.E(http.StatusConflict, err)
	default:
		return err
	}
}
