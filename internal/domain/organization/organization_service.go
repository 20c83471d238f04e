package organization

import (
	"context"

	"invision-server/internal/utils/platformerrors"
)

// Service resolves tenant context for authenticated users.
type Service struct {
	organizations Repository
}

// NewService creates an organization service.
func NewService(organizations Repository) *Service {
	return &Service{organizations: organizations}
}

// ResolveActive determines the tenant a request operates in. A claimed
// organization from the token is honoured when the user is a member of it.
// Without a claim the most recent membership wins.
func (s *Service) ResolveActive(ctx context.Context, userID, claimedOrganizationID string) (string, error) {
	if claimedOrganizationID != "" {
		membership, err := s.organizations.FindMembership(ctx, userID, claimedOrganizationID)
		if err != nil {
			return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to find membership")
		}
		if membership == nil {
			return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "not a member of the requested organization", nil, "9e9732fe-1a02-4806-91b7-7ff8ad7bd739")
		}
		return membership.OrganizationID, nil
	}

	memberships, err := s.organizations.ListMemberships(ctx, userID)
	if err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list memberships")
	}
	if len(memberships) == 0 {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden, "user has no organization membership", nil, "c8ea4a6a-098e-454a-9e24-f36629aad0f0")
	}

	latest := memberships[0]
	for _, membership := range memberships[1:] {
		if membership.CreatedAt.After(latest.CreatedAt) {
			latest = membership
		}
	}
	return latest.OrganizationID, nil
}

// ListForUser returns the user's memberships with organizations preloaded.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*Membership, error) {
	memberships, err := s.organizations.ListMemberships(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list memberships")
	}
	return memberships, nil
}
