// Package httpapi is the HTTP surface of the admin API: routing, middleware,
// the auth guard, and the JSON error envelope.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/big"
	"net/http"

	"fraxion.org/internal/account"
	"fraxion.org/internal/auth"
	"fraxion.org/internal/obs"
)

// ReadyProbe checks the dependencies a pod must reach before taking traffic.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// BalanceReader reads a wallet's native-token balance. The chain client
// implements it; tests substitute a stub.
type BalanceReader interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	auth     *auth.Service
	accounts *account.Service
	balances BalanceReader

	rateBurst  int
	ratePerSec int
}

// APIOption configures the API.
type APIOption func(*API)

// WithRateLimit overrides the default per-IP rate limit.
func WithRateLimit(burst, perSecond int) APIOption {
	return func(a *API) {
		if burst > 0 {
			a.rateBurst = burst
		}
		if perSecond > 0 {
			a.ratePerSec = perSecond
		}
	}
}

// New wires the routes. All dependencies are required except balances, which
// may be nil when no chain node is configured.
func New(rp ReadyProbe, version string, authSvc *auth.Service, accounts *account.Service, balances BalanceReader, opts ...APIOption) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		auth:       authSvc,
		accounts:   accounts,
		balances:   balances,
		rateBurst:  20,
		ratePerSec: 10,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// session endpoints
	a.mux.HandleFunc("/admin/auth/login", a.handleLogin)
	a.mux.HandleFunc("/admin/auth/refreshToken", a.handleRefresh)
	a.mux.HandleFunc("/admin/auth/profile", a.handleProfile)

	// account registry
	a.mux.HandleFunc("/admin/accounts", a.handleAccountsCollection)
	a.mux.HandleFunc("/admin/accounts/", a.handleAccountResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler assembles the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "fraxion-admin-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
