package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuerName = "fraxion-admin"

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Identity is the payload embedded into session tokens.
type Identity struct {
	AccountID   string `json:"accountId"`
	Address     string `json:"address"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	Deactivated bool   `json:"-"`
}

// Claims are the JWT claims carried by access and refresh tokens.
type Claims struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Role      Role   `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Identity reconstructs the embedded identity from verified claims.
func (c *Claims) Identity() Identity {
	return Identity{
		AccountID: c.Subject,
		Address:   c.Address,
		Email:     c.Email,
		Name:      c.Name,
		Role:      c.Role,
	}
}

// TokenPair is the credential pair returned by a successful login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Issuer mints and validates session tokens. Tokens are self-contained:
// validity is signature plus expiry, revocation happens only through the
// live account-status check in the calling flow.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// NewIssuer constructs an Issuer with independent secrets and lifetimes for
// access and refresh tokens.
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, opts ...IssuerOption) (*Issuer, error) {
	if strings.TrimSpace(accessSecret) == "" || strings.TrimSpace(refreshSecret) == "" {
		return nil, errors.New("auth: both token secrets are required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be greater than zero")
	}
	iss := &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(iss)
	}
	return iss, nil
}

// IssuePair mints an access and refresh token for the identity.
func (i *Issuer) IssuePair(id Identity) (TokenPair, error) {
	access, err := i.sign(id, tokenTypeAccess, i.accessSecret, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(id, tokenTypeRefresh, i.refreshSecret, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess mints a fresh access token, used by the refresh flow.
func (i *Issuer) IssueAccess(id Identity) (string, error) {
	return i.sign(id, tokenTypeAccess, i.accessSecret, i.accessTTL)
}

// ParseAccess verifies an access token and returns its claims.
func (i *Issuer) ParseAccess(token string) (*Claims, error) {
	return i.parse(token, tokenTypeAccess, i.accessSecret)
}

// ParseRefresh verifies a refresh token and returns its claims.
func (i *Issuer) ParseRefresh(token string) (*Claims, error) {
	return i.parse(token, tokenTypeRefresh, i.refreshSecret)
}

func (i *Issuer) sign(id Identity, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	if strings.TrimSpace(id.AccountID) == "" {
		return "", fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if id.Role == RoleDeactivated {
		return "", fmt.Errorf("%w: cannot issue tokens for the deactivated sentinel", ErrInvalidInput)
	}
	now := i.now().UTC()
	claims := Claims{
		Email:     id.Email,
		Name:      id.Name,
		Address:   id.Address,
		Role:      id.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   id.AccountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) parse(token, wantType string, secret []byte) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now().UTC() }))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != issuerName || claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
