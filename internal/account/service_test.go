package account

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fraxion.org/internal/auth"
)

type memoryStore struct {
	byID      map[string]*Account
	byAddress map[string]*Account
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		byID:      make(map[string]*Account),
		byAddress: make(map[string]*Account),
	}
}

func (m *memoryStore) Create(ctx context.Context, acc *Account) error {
	if _, ok := m.byAddress[acc.Address]; ok {
		return auth.ErrConflict
	}
	clone := *acc
	m.byID[acc.ID] = &clone
	m.byAddress[acc.Address] = &clone
	return nil
}

func (m *memoryStore) FindByID(ctx context.Context, id string) (*Account, error) {
	acc, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *acc
	return &clone, nil
}

func (m *memoryStore) FindByAddress(ctx context.Context, address string) (*Account, error) {
	acc, ok := m.byAddress[address]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *acc
	return &clone, nil
}

func (m *memoryStore) List(ctx context.Context, limit, offset int) ([]*Account, error) {
	var out []*Account
	for _, acc := range m.byID {
		clone := *acc
		out = append(out, &clone)
	}
	return out, nil
}

func (m *memoryStore) Update(ctx context.Context, id string, upd Update, actor string) (*Account, error) {
	acc, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.Name != nil {
		acc.Name = *upd.Name
	}
	if upd.Email != nil {
		acc.Email = *upd.Email
	}
	if upd.Description != nil {
		acc.Description = *upd.Description
	}
	if upd.Referral != nil {
		acc.Referral = *upd.Referral
	}
	if upd.Role != nil {
		acc.Role = *upd.Role
	}
	acc.UpdatedBy = actor
	acc.UpdatedAt = time.Now().UTC()
	clone := *acc
	return &clone, nil
}

func (m *memoryStore) SetStatus(ctx context.Context, id, status, actor, reason string) (*Account, error) {
	acc, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	acc.Status = status
	acc.StatusReason = reason
	if status == StatusDeactivated {
		acc.DeactivatedBy = actor
		now := time.Now().UTC()
		acc.DeactivatedAt = &now
	}
	clone := *acc
	return &clone, nil
}

var (
	superAdmin = auth.Identity{AccountID: "actor-super", Role: auth.RoleSuperAdmin}
	owner      = auth.Identity{AccountID: "actor-owner", Role: auth.RoleOwner}
	plainAdmin = auth.Identity{AccountID: "actor-plain", Role: auth.RoleAdmin}
)

func validInput() NewAccount {
	return NewAccount{
		Address: "0x" + strings.Repeat("ab", 20),
		Name:    "New Admin",
		Email:   "Admin@Fraxion.org",
		Role:    auth.RoleAdmin,
	}
}

func newTestService(t *testing.T) (*Service, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func TestCreateNormalizesAndStores(t *testing.T) {
	svc, store := newTestService(t)

	acc, err := svc.Create(context.Background(), superAdmin, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if acc.ID == "" {
		t.Fatalf("expected generated id")
	}
	if acc.Email != "admin@fraxion.org" {
		t.Fatalf("email not lower-cased: %s", acc.Email)
	}
	if acc.Status != StatusActive {
		t.Fatalf("new accounts must be active, got %s", acc.Status)
	}
	if acc.CreatedBy != superAdmin.AccountID {
		t.Fatalf("created_by not recorded: %s", acc.CreatedBy)
	}
	if _, err := store.FindByAddress(context.Background(), acc.Address); err != nil {
		t.Fatalf("account not persisted: %v", err)
	}
}

func TestCreateGatesByRole(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Create(context.Background(), plainAdmin, validInput()); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("ordinary admin must not create accounts: %v", err)
	}

	input := validInput()
	input.Role = auth.RoleOwner
	if _, err := svc.Create(context.Background(), superAdmin, input); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("super-admin must not create an owner: %v", err)
	}
	if _, err := svc.Create(context.Background(), owner, input); err != nil {
		t.Fatalf("owner creating an owner should succeed: %v", err)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)

	bad := validInput()
	bad.Address = "nope"
	if _, err := svc.Create(context.Background(), superAdmin, bad); !errors.Is(err, auth.ErrInvalidInput) {
		t.Fatalf("expected invalid address rejection: %v", err)
	}

	bad = validInput()
	bad.Email = "no-at-sign"
	if _, err := svc.Create(context.Background(), superAdmin, bad); !errors.Is(err, auth.ErrInvalidInput) {
		t.Fatalf("expected invalid email rejection: %v", err)
	}

	bad = validInput()
	bad.Role = auth.RoleDeactivated
	if _, err := svc.Create(context.Background(), superAdmin, bad); !errors.Is(err, auth.ErrInvalidInput) {
		t.Fatalf("expected deactivated role rejection: %v", err)
	}
}

func TestModifyOwnerRequiresOwner(t *testing.T) {
	svc, _ := newTestService(t)

	input := validInput()
	input.Role = auth.RoleOwner
	acc, err := svc.Create(context.Background(), owner, input)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	name := "Renamed"
	if _, err := svc.Modify(context.Background(), superAdmin, acc.ID, Update{Name: &name}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("super-admin must not edit an owner: %v", err)
	}
	if _, err := svc.Modify(context.Background(), owner, acc.ID, Update{Name: &name}); err != nil {
		t.Fatalf("owner editing an owner should succeed: %v", err)
	}
}

func TestDeactivateAndActivate(t *testing.T) {
	svc, _ := newTestService(t)

	acc, err := svc.Create(context.Background(), superAdmin, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	deactivated, err := svc.Deactivate(context.Background(), superAdmin, acc.ID, "policy violation")
	if err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if !deactivated.Deactivated() {
		t.Fatalf("account should be deactivated")
	}
	if deactivated.DeactivatedBy != superAdmin.AccountID || deactivated.StatusReason != "policy violation" {
		t.Fatalf("deactivation audit fields missing: %+v", deactivated)
	}

	restored, err := svc.Activate(context.Background(), superAdmin, acc.ID, "appeal accepted")
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if restored.Deactivated() {
		t.Fatalf("account should be active again")
	}
}

func TestDeactivateSelfRefused(t *testing.T) {
	svc, store := newTestService(t)
	store.byID[superAdmin.AccountID] = &Account{ID: superAdmin.AccountID, Role: auth.RoleSuperAdmin, Status: StatusActive}

	if _, err := svc.Deactivate(context.Background(), superAdmin, superAdmin.AccountID, "oops"); !errors.Is(err, auth.ErrInvalidInput) {
		t.Fatalf("expected self-deactivation refusal: %v", err)
	}
}

func TestDirectoryLookups(t *testing.T) {
	svc, _ := newTestService(t)

	acc, err := svc.Create(context.Background(), superAdmin, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	id, err := svc.Identity(context.Background(), strings.ToUpper(acc.Address))
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if id.AccountID != acc.ID || id.Deactivated {
		t.Fatalf("unexpected identity: %+v", id)
	}

	if _, err := svc.Deactivate(context.Background(), superAdmin, acc.ID, "test"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	id, err = svc.IdentityByID(context.Background(), acc.ID)
	if err != nil {
		t.Fatalf("IdentityByID: %v", err)
	}
	if !id.Deactivated {
		t.Fatalf("directory must reflect live deactivation")
	}

	if _, err := svc.Identity(context.Background(), "0x"+strings.Repeat("00", 20)); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
