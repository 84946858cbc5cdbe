package domain

import (
	"fmt"
	"time"
)

// ProfileKind tags the role-specific side record of a user
type ProfileKind string

const (
	ProfileCustomer  ProfileKind = "customer"
	ProfileModerator ProfileKind = "moderator"
)

// ApprovalStatus of a moderator store
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ProfileKindFor maps a role to the profile kind it owns. Admins own none.
func ProfileKindFor(r Role) (ProfileKind, bool) {
	switch r {
	case RoleUser:
		return ProfileCustomer, true
	case RoleModerator:
		return ProfileModerator, true
	}
	return "", false
}

// CustomerProfile holds shopper data
type CustomerProfile struct {
	ShippingAddress string   `json:"shippingAddress"`
	Wishlist        []string `json:"wishlist"`
}

// ModeratorProfile holds vendor store data
type ModeratorProfile struct {
	StoreName      string         `json:"storeName"`
	StoreAddress   string         `json:"storeAddress"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
}

// RoleProfile is the active role-specific record of a user.
// Exactly one of Customer or Moderator is set, matching Kind.
type RoleProfile struct {
	UserID    uint              `json:"userId"`
	Kind      ProfileKind       `json:"kind"`
	Customer  *CustomerProfile  `json:"customer,omitempty"`
	Moderator *ModeratorProfile `json:"moderator,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Validate checks that the payload matches the kind tag
func (p *RoleProfile) Validate() error {
	switch p.Kind {
	case ProfileCustomer:
		if p.Customer == nil || p.Moderator != nil {
			return fmt.Errorf("%w: customer profile payload mismatch", ErrInvalidProfile)
		}
	case ProfileModerator:
		if p.Moderator == nil || p.Customer != nil {
			return fmt.Errorf("%w: moderator profile payload mismatch", ErrInvalidProfile)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidProfile, p.Kind)
	}
	return nil
}

// ProfileArchive is a superseded profile kept for restore on role reversal
type ProfileArchive struct {
	ID         uint        `json:"id"`
	UserID     uint        `json:"userId"`
	Kind       ProfileKind `json:"kind"`
	Profile    RoleProfile `json:"profile"`
	ArchivedAt time.Time   `json:"archivedAt"`
	ArchivedBy *uint       `json:"archivedBy,omitempty"`
}

// RoleData carries optional overrides for the incoming role profile
type RoleData struct {
	ShippingAddress string   `json:"shippingAddress,omitempty"`
	Wishlist        []string `json:"wishlist,omitempty"`
	StoreName       string   `json:"storeName,omitempty"`
	StoreAddress    string   `json:"storeAddress,omitempty"`
}

// ChangeRoleInput is the request of a role transition
type ChangeRoleInput struct {
	UserID   uint
	NewRole  Role
	RoleData *RoleData
	ActorID  *uint
}

// RoleChangeResult describes the outcome of a role transition
type RoleChangeResult struct {
	Message  string
	OldRole  Role
	NewRole  Role
	Changed  bool
	Restored bool
}
