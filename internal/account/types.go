// Package account manages the administrative account registry: who may call
// the admin API, with which role snapshot, and whether they are deactivated.
package account

import (
	"time"

	"fraxion.org/internal/auth"
)

const (
	StatusActive      = "active"
	StatusDeactivated = "deactivated"
)

// Account is an administrative identity. Accounts are never physically
// deleted; deactivation flips Status and records who did it and why.
type Account struct {
	ID          string    `json:"id"`
	Address     string    `json:"address"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Description string    `json:"description,omitempty"`
	Referral    string    `json:"referral,omitempty"`
	Role        auth.Role `json:"role"`
	Status      string    `json:"status"`

	CreatedBy     string     `json:"created_by,omitempty"`
	UpdatedBy     string     `json:"updated_by,omitempty"`
	DeactivatedBy string     `json:"deactivated_by,omitempty"`
	StatusReason  string     `json:"status_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// Deactivated reports whether the account is soft-deleted.
func (a Account) Deactivated() bool {
	return a.Status == StatusDeactivated
}

// NewAccount is the input for creating an admin account.
type NewAccount struct {
	Address     string    `json:"address"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Description string    `json:"description"`
	Referral    string    `json:"referral"`
	Role        auth.Role `json:"role"`
}

// Update carries optional field changes; nil pointers leave the stored value
// untouched.
type Update struct {
	Name        *string
	Email       *string
	Description *string
	Referral    *string
	Role        *auth.Role
}
