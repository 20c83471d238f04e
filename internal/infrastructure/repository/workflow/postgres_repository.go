package workflow

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"invision-server/internal/domain/workflow"
	"invision-server/internal/infrastructure/database/entities"
	"invision-server/internal/utils/functional"
	"invision-server/internal/utils/platformerrors"
)

// Repository implements workflow.Repository backed by Postgres.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new workflow repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ workflow.Repository = (*Repository)(nil)

func (r *Repository) Create(ctx context.Context, definition *workflow.Definition) error {
	entity := entities.NewSchemaWorkflow(definition)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create workflow",
			err,
			"27a5cd79-6fd1-4446-a238-47111002c745",
		)
	}

	definition.ID = entity.ID
	definition.CreatedAt = entity.CreatedAt
	definition.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, definition *workflow.Definition) error {
	entity := entities.NewSchemaWorkflow(definition)
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update workflow",
			err,
			"686eb250-7b83-417f-a5bd-e4fd8b0d0983",
		)
	}

	definition.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *Repository) Delete(ctx context.Context, definition *workflow.Definition) error {
	result := r.db.WithContext(ctx).
		Where("public_id = ?", definition.PublicID).
		Delete(&entities.Workflow{})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete workflow",
			result.Error,
			"7d577309-eb0d-456b-9f93-680272df0c6b",
		)
	}
	return nil
}

func (r *Repository) FindByPublicID(ctx context.Context, publicID string) (*workflow.Definition, error) {
	var entity entities.Workflow
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
			"failed to find workflow",
			err,
			"a449ba22-e3aa-41ee-9433-fc80ccf8ab31",
		)
	}

	return entity.EtoD(), nil
}

// List returns active workflows visible to the given organization. An empty
// allow list means the workflow is visible to every organization.
func (r *Repository) List(ctx context.Context, organizationID string) ([]*workflow.Definition, error) {
	var rows []*entities.Workflow
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list workflows",
			err,
			"73cbe4cb-3018-491c-b319-506512582411",
		)
	}

	definitions := functional.Map(rows, func(row *entities.Workflow) *workflow.Definition {
		return row.EtoD()
	})

	return functional.Filter(definitions, func(d *workflow.Definition) bool {
		if len(d.AllowedOrganizations) == 0 {
			return true
		}
		for _, org := range d.AllowedOrganizations {
			if org == organizationID {
				return true
			}
		}
		return false
	}), nil
}
