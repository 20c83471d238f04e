package workflow

import (
	"context"
	"strings"

	"invision-server/internal/utils/functional"
	"invision-server/internal/utils/platformerrors"
)

// Service provides workflow definition management and resolution.
type Service struct {
	workflows Repository
}

// NewService creates a workflow service.
func NewService(workflows Repository) *Service {
	return &Service{workflows: workflows}
}

// CreateDefinitionInput carries the fields for a new workflow definition.
type CreateDefinitionInput struct {
	Name                 string
	Description          string
	Category             string
	FlowID               string
	Tweaks               map[string]any
	RequiredConnectors   []string
	AllowedOrganizations []string
	AllowedRoles         []string
	AllowedUsers         []string
}

// CreateDefinition validates and persists a new workflow definition.
func (s *Service) CreateDefinition(ctx context.Context, input CreateDefinitionInput) (*Definition, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "workflow name is required", nil, "ef62e10c-6ff6-401a-a672-8426faff5fc9")
	}
	if strings.TrimSpace(input.FlowID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "workflow flow ID is required", nil, "b5da2eb8-16c3-42be-88ae-638ad088a095")
	}

	definition, err := NewDefinition(input.Name, input.Description, input.FlowID, input.Tweaks, input.RequiredConnectors)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create workflow definition")
	}
	definition.Category = input.Category
	definition.AllowedOrganizations = input.AllowedOrganizations
	definition.AllowedRoles = input.AllowedRoles
	definition.AllowedUsers = input.AllowedUsers

	if err := s.workflows.Create(ctx, definition); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to persist workflow definition")
	}

	return definition, nil
}

// UpdateDefinitionInput carries optional updates for a workflow definition.
type UpdateDefinitionInput struct {
	Name                 *string
	Description          *string
	Category             *string
	FlowID               *string
	Tweaks               map[string]any
	RequiredConnectors   []string
	AllowedOrganizations []string
	AllowedRoles         []string
	AllowedUsers         []string
	Active               *bool
}

// UpdateDefinition applies partial updates to an existing definition.
func (s *Service) UpdateDefinition(ctx context.Context, publicID string, input UpdateDefinitionInput) (*Definition, error) {
	definition, err := s.getByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "workflow name cannot be empty", nil, "c8d02d45-2c70-4a88-b3ff-9f092b89a4db")
		}
		definition.Name = *input.Name
		definition.Slug = Slugify(*input.Name)
	}
	if input.Description != nil {
		definition.Description = *input.Description
	}
	if input.Category != nil {
		definition.Category = *input.Category
	}
	if input.FlowID != nil {
		if strings.TrimSpace(*input.FlowID) == "" {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "workflow flow ID cannot be empty", nil, "0cec4656-1d0b-4fe5-b99d-859651b31a5e")
		}
		definition.FlowID = *input.FlowID
	}
	if input.Tweaks != nil {
		definition.Tweaks = input.Tweaks
	}
	if input.RequiredConnectors != nil {
		definition.RequiredConnectors = input.RequiredConnectors
	}
	if input.AllowedOrganizations != nil {
		definition.AllowedOrganizations = input.AllowedOrganizations
	}
	if input.AllowedRoles != nil {
		definition.AllowedRoles = input.AllowedRoles
	}
	if input.AllowedUsers != nil {
		definition.AllowedUsers = input.AllowedUsers
	}
	if input.Active != nil {
		definition.Active = *input.Active
	}

	if err := s.workflows.Update(ctx, definition); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update workflow definition")
	}

	return definition, nil
}

// DeleteDefinition removes a workflow definition.
func (s *Service) DeleteDefinition(ctx context.Context, publicID string) error {
	definition, err := s.getByPublicID(ctx, publicID)
	if err != nil {
		return err
	}

	if err := s.workflows.Delete(ctx, definition); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete workflow definition")
	}

	return nil
}

// GetDefinition fetches a definition by public ID.
func (s *Service) GetDefinition(ctx context.Context, publicID string) (*Definition, error) {
	return s.getByPublicID(ctx, publicID)
}

// ListDefinitions returns the definitions visible to a tenant, which
// includes global definitions alongside tenant-scoped ones.
func (s *Service) ListDefinitions(ctx context.Context, organizationID string) ([]*Definition, error) {
	definitions, err := s.workflows.List(ctx, organizationID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list workflow definitions")
	}
	return definitions, nil
}

// ListAccessible returns the definitions the caller may run, applying the
// role and user allow-lists on top of the tenant filter.
func (s *Service) ListAccessible(ctx context.Context, access Access) ([]*Definition, error) {
	definitions, err := s.ListDefinitions(ctx, access.OrganizationID)
	if err != nil {
		return nil, err
	}

	return functional.Filter(definitions, func(d *Definition) bool {
		return d.AccessibleBy(access)
	}), nil
}

// ResolveActive returns the definition when it is active and visible to
// the tenant. Inactive or out-of-scope definitions surface as not found so
// the caller cannot distinguish them from missing ones.
func (s *Service) ResolveActive(ctx context.Context, publicID, organizationID string) (*Definition, error) {
	definition, err := s.getByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	if !definition.Active || !allowListed(definition.AllowedOrganizations, organizationID) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "workflow not found", nil, "de98c8be-dcad-4202-8713-30487d3ba609")
	}

	return definition, nil
}

// ResolveDefault returns the tenant's orchestrator workflow, used when a
// session is created without naming one.
func (s *Service) ResolveDefault(ctx context.Context, organizationID string) (*Definition, error) {
	definitions, err := s.ListDefinitions(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	definition, found := functional.Find(definitions, func(d *Definition) bool {
		return d.Category == CategoryOrchestrator
	})
	if !found {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "no default workflow configured", nil, "0f7a9a70-effd-40a2-8721-a467d24303ee")
	}

	return definition, nil
}

func (s *Service) getByPublicID(ctx context.Context, publicID string) (*Definition, error) {
	if strings.TrimSpace(publicID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "workflow public ID is required", nil, "0ac579d6-99cc-4521-b5fa-bbad5a33369e")
	}

	definition, err := s.workflows.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to find workflow definition")
	}
	if definition == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "workflow not found", nil, "2e064b0d-7ec1-4d7d-8030-781738d596fe")
	}

	return definition, nil
}
