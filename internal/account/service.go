package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fraxion.org/internal/audit"
	"fraxion.org/internal/auth"
	"fraxion.org/internal/ids"
)

// Service validates input and enforces role gating for registry operations.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the registry service.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("account store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create registers a new admin account. Only account-managing roles may
// create accounts, and nobody below Owner may create an Owner.
func (s *Service) Create(ctx context.Context, actor auth.Identity, input NewAccount) (*Account, error) {
	if !actor.Role.ManagesAccounts() {
		return nil, fmt.Errorf("%w: role %s may not create accounts", auth.ErrForbidden, actor.Role)
	}
	if input.Role == auth.RoleOwner && actor.Role != auth.RoleOwner {
		return nil, fmt.Errorf("%w: only an owner may create an owner", auth.ErrForbidden)
	}
	if !input.Role.Valid() || input.Role == auth.RoleDeactivated {
		return nil, fmt.Errorf("%w: unsupported role %d", auth.ErrInvalidInput, input.Role)
	}
	if !auth.IsHexAddress(input.Address) {
		return nil, fmt.Errorf("%w: invalid address", auth.ErrInvalidInput)
	}
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", auth.ErrInvalidInput)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", auth.ErrInvalidInput)
	}

	now := s.now().UTC()
	acc := &Account{
		ID:          ids.New(),
		Address:     auth.NormalizeAddress(input.Address),
		Name:        name,
		Email:       email,
		Description: strings.TrimSpace(input.Description),
		Referral:    strings.TrimSpace(input.Referral),
		Role:        input.Role,
		Status:      StatusActive,
		CreatedBy:   actor.AccountID,
		UpdatedBy:   actor.AccountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, acc); err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "account.create", map[string]any{
		"account_id": acc.ID,
		"address":    acc.Address,
		"role":       acc.Role.String(),
	})
	return acc, nil
}

// Get fetches one account by id.
func (s *Service) Get(ctx context.Context, id string) (*Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: account id is required", auth.ErrInvalidInput)
	}
	return s.store.FindByID(ctx, id)
}

// List returns a page of accounts.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Account, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.List(ctx, limit, offset)
}

// Modify applies field updates to an account. Owners may only be edited by
// owners, and role changes follow the same gate as Create.
func (s *Service) Modify(ctx context.Context, actor auth.Identity, id string, upd Update) (*Account, error) {
	if !actor.Role.ManagesAccounts() {
		return nil, fmt.Errorf("%w: role %s may not update accounts", auth.ErrForbidden, actor.Role)
	}
	existing, err := s.store.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if existing.Role == auth.RoleOwner && actor.Role != auth.RoleOwner {
		return nil, fmt.Errorf("%w: only an owner may update an owner", auth.ErrForbidden)
	}
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: valid email is required", auth.ErrInvalidInput)
		}
		upd.Email = &email
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", auth.ErrInvalidInput)
		}
		upd.Name = &name
	}
	if upd.Role != nil {
		role := *upd.Role
		if !role.Valid() || role == auth.RoleDeactivated {
			return nil, fmt.Errorf("%w: unsupported role %d", auth.ErrInvalidInput, role)
		}
		if role == auth.RoleOwner && actor.Role != auth.RoleOwner {
			return nil, fmt.Errorf("%w: only an owner may grant the owner role", auth.ErrForbidden)
		}
	}

	updated, err := s.store.Update(ctx, existing.ID, upd, actor.AccountID)
	if err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "account.update", map[string]any{
		"account_id": updated.ID,
	})
	return updated, nil
}

// Deactivate soft-deletes an account with a reason. Self-deactivation is
// refused so the last owner cannot lock everyone out.
func (s *Service) Deactivate(ctx context.Context, actor auth.Identity, id, reason string) (*Account, error) {
	return s.setStatus(ctx, actor, id, StatusDeactivated, reason)
}

// Activate restores a previously deactivated account.
func (s *Service) Activate(ctx context.Context, actor auth.Identity, id, reason string) (*Account, error) {
	return s.setStatus(ctx, actor, id, StatusActive, reason)
}

func (s *Service) setStatus(ctx context.Context, actor auth.Identity, id, status, reason string) (*Account, error) {
	if !actor.Role.ManagesAccounts() {
		return nil, fmt.Errorf("%w: role %s may not change account status", auth.ErrForbidden, actor.Role)
	}
	id = strings.TrimSpace(id)
	if id == actor.AccountID && status == StatusDeactivated {
		return nil, fmt.Errorf("%w: cannot deactivate your own account", auth.ErrInvalidInput)
	}
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Role == auth.RoleOwner && actor.Role != auth.RoleOwner {
		return nil, fmt.Errorf("%w: only an owner may change an owner's status", auth.ErrForbidden)
	}

	updated, err := s.store.SetStatus(ctx, id, status, actor.AccountID, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}
	_ = audit.LogEvent(ctx, "account.status", map[string]any{
		"account_id": updated.ID,
		"status":     status,
		"reason":     strings.TrimSpace(reason),
	})
	return updated, nil
}

// Identity implements auth.Directory: live lookup by address for login.
func (s *Service) Identity(ctx context.Context, address string) (auth.Identity, error) {
	acc, err := s.store.FindByAddress(ctx, auth.NormalizeAddress(address))
	if err != nil {
		return auth.Identity{}, err
	}
	return identityOf(acc), nil
}

// IdentityByID implements auth.Directory: live lookup for guard and refresh.
func (s *Service) IdentityByID(ctx context.Context, id string) (auth.Identity, error) {
	acc, err := s.store.FindByID(ctx, id)
	if err != nil {
		return auth.Identity{}, err
	}
	return identityOf(acc), nil
}

func identityOf(acc *Account) auth.Identity {
	return auth.Identity{
		AccountID:   acc.ID,
		Address:     acc.Address,
		Email:       acc.Email,
		Name:        acc.Name,
		Role:        acc.Role,
		Deactivated: acc.Deactivated(),
	}
}
