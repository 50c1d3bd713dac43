// Package auth issues and verifies access tokens and turns them into
// capabilities: either the owner of one user account or the single admin.
package auth

import "storefront/internal/domain"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Capability is what a verified credential allows. The zero value allows
// nothing.
type Capability struct {
	Role   Role
	UserID string
}

// OwnerCap grants access to the account (cart, orders) of userID.
func OwnerCap(userID string) Capability { return Capability{Role: RoleUser, UserID: userID} }

// AdminCap grants catalog and order-status management.
func AdminCap() Capability { return Capability{Role: RoleAdmin} }

func (c Capability) IsAdmin() bool { return c.Role == RoleAdmin }

// Owner returns the user id the capability owns.
func (c Capability) Owner() (string, bool) {
	if c.Role != RoleUser || c.UserID == "" {
		return "", false
	}
	return c.UserID, true
}

// RequireOwner returns the owned user id or an auth error.
func (c Capability) RequireOwner() (string, error) {
	id, ok := c.Owner()
	if !ok {
		return "", domain.Unauthorized("Not Authorized, Please login again")
	}
	return id, nil
}

// RequireAdmin fails unless c is the admin capability.
func (c Capability) RequireAdmin() error {
	if !c.IsAdmin() {
		return domain.Unauthorized("Not Authorized, admin login required")
	}
	return nil
}
