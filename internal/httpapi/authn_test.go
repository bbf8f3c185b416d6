package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"fraxion.org/internal/account"
)

func TestGuardRejectsMissingToken(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.do(http.MethodGet, "/admin/accounts", nil, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	body := decodeEnvelope(t, rr)
	if body.StatusCode != http.StatusUnauthorized || body.Message == "" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestGuardRejectsWrongScheme(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/accounts", bytes.NewReader(nil))
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestGuardRejectsExpiredOrForgedToken(t *testing.T) {
	f := newAPIFixture(t)

	rr := f.do(http.MethodGet, "/admin/accounts", nil, "eyJhbGciOiJIUzI1NiJ9.forged.sig")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestGuardRejectsDeactivatedAccount(t *testing.T) {
	f := newAPIFixture(t)
	pair := f.login(f.ownerKey)

	if _, err := f.store.SetStatus(context.Background(), f.ownerID, account.StatusDeactivated, "ops", "offboarded"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	// The token is still cryptographically valid; the live status check wins.
	rr := f.do(http.MethodGet, "/admin/accounts", nil, pair.AccessToken)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if body := decodeEnvelope(t, rr); body.Code != codeAccountDeactivated {
		t.Fatalf("expected code %s, got %q", codeAccountDeactivated, body.Code)
	}
}

func TestGuardAllowsPublicPaths(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := f.do(http.MethodGet, path, nil, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
	}
}

func TestGuardAllowsAnonymousRefresh(t *testing.T) {
	f := newAPIFixture(t)

	// No Authorization header: the request must still reach the handler,
	// which rejects the empty body itself.
	rr := f.do(http.MethodPost, "/admin/auth/refreshToken", map[string]string{}, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected handler-level 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGuardAttachesIdentity(t *testing.T) {
	f := newAPIFixture(t)
	pair := f.login(f.ownerKey)

	rr := f.do(http.MethodPost, "/admin/auth/profile", nil, pair.AccessToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}
