package organization

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"invision-server/internal/domain/organization"
	"invision-server/internal/infrastructure/database/entities"
	"invision-server/internal/utils/platformerrors"
)

// Repository implements organization.Repository backed by Postgres.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new organization repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ organization.Repository = (*Repository)(nil)

func (r *Repository) FindByPublicID(ctx context.Context, publicID string) (*organization.Organization, error) {
	var entity entities.Organization
	err := r.db.WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find organization",
			err,
			"564c484e-aeaa-4b92-9749-cb643efffe9f",
		)
	}

	return entity.EtoD(), nil
}

func (r *Repository) ListMemberships(ctx context.Context, userID string) ([]*organization.Membership, error) {
	var rows []*entities.OrganizationMember
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list memberships",
			err,
			"44612401-7be3-441f-a57d-99be99791f7f",
		)
	}

	memberships := make([]*organization.Membership, 0, len(rows))
	for _, row := range rows {
		membership := row.EtoD()
		membership.Organization, err = r.FindByPublicID(ctx, row.OrganizationID)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, membership)
	}
	return memberships, nil
}

func (r *Repository) FindMembership(ctx context.Context, userID, organizationID string) (*organization.Membership, error) {
	var entity entities.OrganizationMember
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, organizationID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to find membership",
			err,
			"cf1068be-da92-4ead-b6e5-1b44ab6d6a93",
		)
	}

	membership := entity.EtoD()
	membership.Organization, err = r.FindByPublicID(ctx, entity.OrganizationID)
	if err != nil {
		return nil, err
	}
	return membership, nil
}
