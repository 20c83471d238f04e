package organization

import (
	"context"
	"time"
)

// Organization is a tenant. Every session, workflow binding and connector
// account hangs off one organization.
type Organization struct {
	ID        uint
	PublicID  string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership links a user to an organization.
type Membership struct {
	ID             uint
	OrganizationID string
	UserID         string
	Role           string
	CreatedAt      time.Time

	Organization *Organization
}

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Repository defines persistence operations for organizations.
type Repository interface {
	FindByPublicID(ctx context.Context, publicID string) (*Organization, error)
	ListMemberships(ctx context.Context, userID string) ([]*Membership, error)
	FindMembership(ctx context.Context, userID, organizationID string) (*Membership, error)
}
