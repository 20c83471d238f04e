package chatsession

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"invision-server/internal/domain/chatsession"
	"invision-server/internal/infrastructure/database/entities"
	"invision-server/internal/utils/functional"
	"invision-server/internal/utils/platformerrors"
)

// Repository implements chatsession.Repository backed by Postgres.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new chat session repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ chatsession.Repository = (*Repository)(nil)

func (r *Repository) Create(ctx context.Context, session *chatsession.ChatSession) error {
	entity := entities.NewSchemaChatSession(session)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create chat session",
			err,
			"d096b1d6-4770-4136-918e-a9fbfc732517",
		)
	}

	session.ID = entity.ID
	session.CreatedAt = entity.CreatedAt
	session.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, session *chatsession.ChatSession) error {
	entity := entities.NewSchemaChatSession(session)
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update chat session",
			err,
			"eefecccc-93b5-45d3-b2c8-993322b706ef",
		)
	}

	session.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *Repository) Delete(ctx context.Context, session *chatsession.ChatSession) error {
	result := r.db.WithContext(ctx).
		Where("public_id = ?", session.PublicID).
		Delete(&entities.ChatSession{})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete chat session",
			result.Error,
			"a05a4686-076f-4cbd-a559-049871c6535f",
		)
	}
	return nil
}

func (r *Repository) FindByPublicID(ctx context.Context, publicID string) (*chatsession.ChatSession, error) {
	var entity entities.ChatSession
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
			"failed to find chat session",
			err,
			"60167969-0eca-492c-97fc-5972eb9afbaf",
		)
	}

	return entity.EtoD(), nil
}

// listLimit caps session listings to the most recent entries.
const listLimit = 50

func (r *Repository) FindByUser(ctx context.Context, userID, organizationID string) ([]*chatsession.ChatSession, error) {
	var rows []*entities.ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, organizationID).
		Order("updated_at DESC").
		Limit(listLimit).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list chat sessions",
			err,
			"59720635-8dd7-4c9f-bd20-28f679a45fdc",
		)
	}

	return functional.Map(rows, func(row *entities.ChatSession) *chatsession.ChatSession {
		return row.EtoD()
	}), nil
}
