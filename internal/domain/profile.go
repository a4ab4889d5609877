package domain

import (
	"fmt"
	"strings"
)

// Role distinguishes the marketplace parties plus the platform operator.
type Role string

const (
	RoleBrand      Role = "brand"
	RoleInfluencer Role = "influencer"
	RoleAdmin      Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleBrand || r == RoleInfluencer || r == RoleAdmin
}

// IsParty reports whether the role is a side of a transaction. Admins
// operate the platform; they are never a party to money movement.
func (r Role) IsParty() bool {
	return r == RoleBrand || r == RoleInfluencer
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: invalid role %q", ErrValidation, s)
	}
	return r, nil
}

// Profile is the subset of the managed user record this service reads and
// mirrors processor capability flags onto. The auth provider owns the rest.
type Profile struct {
	ID              string
	Email           string
	Role            Role
	StripeAccountID *string
	ChargesEnabled  bool
	PayoutsEnabled  bool
}

// PayoutReady reports whether funds can be transferred directly to the
// influencer's connected account.
func (p *Profile) PayoutReady() bool {
	return p.StripeAccountID != nil && *p.StripeAccountID != "" && p.PayoutsEnabled
}
