package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"fraxion.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/admin/auth/login",
	"/metrics",
	"/healthz",
	"/readyz",
}

// optionalAuthPaths accept anonymous callers but still attach the identity
// when a valid token is presented, so audit lines carry the actor.
var optionalAuthPaths = []string{
	"/admin/auth/refreshToken",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		optional := isOptionalAuthPath(r.URL.Path)

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			if optional {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		identity, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			if optional {
				next.ServeHTTP(w, r)
				return
			}
			switch {
			case errors.Is(err, auth.ErrDeactivated):
				writeErrorCode(w, r, http.StatusUnauthorized, codeAccountDeactivated, "account is deactivated")
			case errors.Is(err, auth.ErrInvalidToken):
				writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), identity)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actor returns the authenticated identity, writing the 401 envelope when the
// guard did not attach one.
func actor(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Identity{}, false
	}
	return identity, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

func isOptionalAuthPath(path string) bool {
	for _, p := range optionalAuthPaths {
		if path == p {
			return true
		}
	}
	return false
}
