package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"fraxion.org/internal/audit"
	"fraxion.org/internal/auth"
	"fraxion.org/internal/obs"
)

type loginRequest struct {
	WalletAddress string `json:"walletAddress"`
	SignData      string `json:"signData"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.WalletAddress) == "" || strings.TrimSpace(req.SignData) == "" {
		writeError(w, r, http.StatusBadRequest, "walletAddress and signData are required")
		return
	}

	pair, err := a.auth.Login(r.Context(), req.WalletAddress, req.SignData)
	if err != nil {
		obs.CountLogin(loginOutcome(err))
		_ = audit.LogEvent(r.Context(), "auth.login.denied", map[string]any{
			"address": auth.NormalizeAddress(req.WalletAddress),
			"reason":  loginOutcome(err),
		})
		handleAuthError(w, r, err)
		return
	}

	obs.CountLogin("success")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"address": auth.NormalizeAddress(req.WalletAddress),
	})
	writeJSON(w, http.StatusOK, pair)
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, auth.ErrDeactivated):
		return "deactivated"
	case errors.Is(err, auth.ErrUpstream):
		return "upstream_failure"
	default:
		return "error"
	}
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		writeError(w, r, http.StatusBadRequest, "refreshToken is required")
		return
	}

	access, err := a.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{AccessToken: access})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	identity, ok := actor(w, r)
	if !ok {
		return
	}

	acc, err := a.accounts.Get(r.Context(), identity.AccountID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}
