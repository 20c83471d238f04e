package workflow

import (
	"context"
	"time"

	"invision-server/internal/utils/functional"
	"invision-server/internal/utils/idgen"
)

// Definition describes a flow-engine workflow that sessions can run against.
// Empty allow-lists mean no restriction on that axis.
type Definition struct {
	ID                   uint
	PublicID             string
	Name                 string
	Slug                 string
	Description          string
	Category             string
	FlowID               string
	Tweaks               map[string]any
	RequiredConnectors   []string
	AllowedOrganizations []string
	AllowedRoles         []string
	AllowedUsers         []string
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CategoryOrchestrator marks the workflow new sessions fall back to when
// none is named explicitly.
const CategoryOrchestrator = "orchestrator"

// NewDefinition creates a workflow definition with a generated public ID.
func NewDefinition(name, description, flowID string, tweaks map[string]any, requiredConnectors []string) (*Definition, error) {
	publicID, err := idgen.GenerateSecureID("wf", 16)
	if err != nil {
		return nil, err
	}

	return &Definition{
		PublicID:           publicID,
		Name:               name,
		Slug:               Slugify(name),
		Description:        description,
		FlowID:             flowID,
		Tweaks:             tweaks,
		RequiredConnectors: requiredConnectors,
		Active:             true,
	}, nil
}

// Access identifies the caller asking to run a workflow.
type Access struct {
	OrganizationID string
	UserID         string
	Role           string
}

// AccessibleBy reports whether the caller passes every configured
// allow-list.
func (d *Definition) AccessibleBy(access Access) bool {
	if !allowListed(d.AllowedOrganizations, access.OrganizationID) {
		return false
	}
	if !allowListed(d.AllowedRoles, access.Role) {
		return false
	}
	return allowListed(d.AllowedUsers, access.UserID)
}

func allowListed(list []string, value string) bool {
	if len(list) == 0 {
		return true
	}
	return functional.Any(list, func(entry string) bool {
		return entry == value
	})
}

// Repository defines persistence operations for workflow definitions.
type Repository interface {
	Create(ctx context.Context, definition *Definition) error
	Update(ctx context.Context, definition *Definition) error
	Delete(ctx context.Context, definition *Definition) error
	FindByPublicID(ctx context.Context, publicID string) (*Definition, error)
	List(ctx context.Context, organizationID string) ([]*Definition, error)
}
