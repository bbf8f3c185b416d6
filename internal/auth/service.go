package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// RoleResolver looks up the authorization role for an address from the
// external role ledger. Implementations must not default the role on
// infrastructure failure.
type RoleResolver interface {
	ResolveRole(ctx context.Context, address string) (Role, error)
}

// Directory provides live account lookups for authentication decisions.
// The account registry implements it; tests substitute an in-memory double.
type Directory interface {
	Identity(ctx context.Context, address string) (Identity, error)
	IdentityByID(ctx context.Context, id string) (Identity, error)
}

// Service orchestrates the login, refresh, and per-request authentication
// flows: signature verification, role resolution, status checks, and token
// issuance.
type Service struct {
	resolver  RoleResolver
	directory Directory
	issuer    *Issuer
	challenge string
}

// NewService wires the authentication flow. challenge is the fixed message
// administrators sign during login.
func NewService(resolver RoleResolver, directory Directory, issuer *Issuer, challenge string) (*Service, error) {
	if resolver == nil {
		return nil, errors.New("auth: role resolver is required")
	}
	if directory == nil {
		return nil, errors.New("auth: account directory is required")
	}
	if issuer == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	if strings.TrimSpace(challenge) == "" {
		return nil, errors.New("auth: login challenge is required")
	}
	return &Service{resolver: resolver, directory: directory, issuer: issuer, challenge: challenge}, nil
}

// Login authenticates a wallet signature and issues a session token pair.
func (s *Service) Login(ctx context.Context, walletAddress, signData string) (TokenPair, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if !IsHexAddress(walletAddress) {
		return TokenPair{}, ErrInvalidCredential
	}
	if !VerifySignature(walletAddress, s.challenge, signData) {
		return TokenPair{}, ErrInvalidCredential
	}

	role, err := s.resolver.ResolveRole(ctx, walletAddress)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: resolve role: %v", ErrUpstream, err)
	}
	if role == RoleDeactivated {
		return TokenPair{}, ErrDeactivated
	}

	identity, err := s.directory.Identity(ctx, NormalizeAddress(walletAddress))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrInvalidCredential
		}
		return TokenPair{}, err
	}
	if identity.Deactivated {
		return TokenPair{}, ErrDeactivated
	}

	// The ledger, not the stored snapshot, is authoritative for the role.
	identity.Role = role
	return s.issuer.IssuePair(identity)
}

// Refresh exchanges a valid refresh token for a new access token. The live
// account record is re-checked so a deactivated account cannot keep minting
// access tokens from an old refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	identity, err := s.directory.IdentityByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if identity.Deactivated {
		return "", ErrDeactivated
	}
	return s.issuer.IssueAccess(claims.Identity())
}

// Authenticate validates an access token for one request and returns the
// identity with a freshly verified active status.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (Identity, error) {
	claims, err := s.issuer.ParseAccess(accessToken)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	identity, err := s.directory.IdentityByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, ErrInvalidToken
		}
		return Identity{}, err
	}
	if identity.Deactivated {
		return Identity{}, ErrDeactivated
	}
	identity.Role = claims.Role
	return identity, nil
}
