package entities

import (
	"time"

	"invision-server/internal/domain/organization"
)

// Organization represents the database schema for organizations.
type Organization struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name     string `gorm:"type:varchar(256);not null"`
	Slug     string `gorm:"type:varchar(256);uniqueIndex;not null"`
}

// TableName specifies the table name for Organization.
func (Organization) TableName() string {
	return "organizations"
}

// OrganizationMember represents the database schema for memberships.
type OrganizationMember struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	OrganizationID string `gorm:"type:varchar(50);index:idx_member_org_user,unique;not null"`
	UserID         string `gorm:"type:varchar(64);index:idx_member_org_user,unique;index;not null"`
	Role           string `gorm:"type:varchar(32);not null;default:'member'"`
}

// TableName specifies the table name for OrganizationMember.
func (OrganizationMember) TableName() string {
	return "organization_members"
}

// EtoD converts database entity to domain model.
func (o *Organization) EtoD() *organization.Organization {
	return &organization.Organization{
		ID:        o.ID,
		PublicID:  o.PublicID,
		Name:      o.Name,
		Slug:      o.Slug,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// EtoD converts database entity to domain model.
func (m *OrganizationMember) EtoD() *organization.Membership {
	return &organization.Membership{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		Role:           m.Role,
		CreatedAt:      m.CreatedAt,
	}
}
