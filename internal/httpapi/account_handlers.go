package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"fraxion.org/internal/account"
	"fraxion.org/internal/auth"
)

type updateAccountRequest struct {
	Name        *string    `json:"name"`
	Email       *string    `json:"email"`
	Description *string    `json:"description"`
	Referral    *string    `json:"referral"`
	Role        *auth.Role `json:"role"`
}

type statusRequest struct {
	Reason string `json:"reason"`
}

type listAccountsResponse struct {
	Items  []*account.Account `json:"items"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
	AsOf   time.Time          `json:"as_of"`
}

type balanceResponse struct {
	Address string `json:"address"`
	// Wei as a decimal string; the value does not fit int64.
	Balance string `json:"balance"`
}

func (a *API) handleAccountsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createAccount(w, r)
	case http.MethodGet:
		a.listAccounts(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAccountResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/admin/accounts/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	id, action, hasAction := strings.Cut(path, "/")
	if id == "" || (hasAction && strings.Contains(action, "/")) {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if hasAction {
		switch action {
		case "balance":
			if r.Method != http.MethodGet {
				methodNotAllowed(w, r, http.MethodGet)
				return
			}
			a.getBalance(w, r, id)
		case "deactivate":
			if r.Method != http.MethodPost {
				methodNotAllowed(w, r, http.MethodPost)
				return
			}
			a.setAccountStatus(w, r, id, account.StatusDeactivated)
		case "activate":
			if r.Method != http.MethodPost {
				methodNotAllowed(w, r, http.MethodPost)
				return
			}
			a.setAccountStatus(w, r, id, account.StatusActive)
		default:
			writeError(w, r, http.StatusNotFound, "resource not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getAccount(w, r, id)
	case http.MethodPut:
		a.updateAccount(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) createAccount(w http.ResponseWriter, r *http.Request) {
	identity, ok := actor(w, r)
	if !ok {
		return
	}

	var req account.NewAccount
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := a.accounts.Create(r.Context(), identity, req)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	w.Header().Set("Location", "/admin/accounts/"+acc.ID)
	writeJSON(w, http.StatusCreated, acc)
}

func (a *API) listAccounts(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(w, r); !ok {
		return
	}

	limit, err := parseQueryInt(r.URL.Query().Get("limit"), 50)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "limit must be an integer")
		return
	}
	offset, err := parseQueryInt(r.URL.Query().Get("offset"), 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "offset must be an integer")
		return
	}

	items, err := a.accounts.List(r.Context(), limit, offset)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listAccountsResponse{
		Items:  items,
		Limit:  limit,
		Offset: offset,
		AsOf:   time.Now().UTC(),
	})
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := actor(w, r); !ok {
		return
	}
	acc, err := a.accounts.Get(r.Context(), id)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) updateAccount(w http.ResponseWriter, r *http.Request, id string) {
	identity, ok := actor(w, r)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := a.accounts.Modify(r.Context(), identity, id, account.Update{
		Name:        req.Name,
		Email:       req.Email,
		Description: req.Description,
		Referral:    req.Referral,
		Role:        req.Role,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) setAccountStatus(w http.ResponseWriter, r *http.Request, id, status string) {
	identity, ok := actor(w, r)
	if !ok {
		return
	}

	// Reason body is optional for activation.
	var req statusRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	var (
		acc *account.Account
		err error
	)
	if status == account.StatusDeactivated {
		acc, err = a.accounts.Deactivate(r.Context(), identity, id, req.Reason)
	} else {
		acc, err = a.accounts.Activate(r.Context(), identity, id, req.Reason)
	}
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) getBalance(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := actor(w, r); !ok {
		return
	}
	if a.balances == nil {
		writeError(w, r, http.StatusServiceUnavailable, "balance lookups are not configured")
		return
	}

	acc, err := a.accounts.Get(r.Context(), id)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	bal, err := a.balances.Balance(r.Context(), acc.Address)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		Address: acc.Address,
		Balance: bal.String(),
	})
}

func parseQueryInt(raw string, def int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
