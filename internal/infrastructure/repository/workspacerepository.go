package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/domain/workspace"
	"github.com/lumahq/luma/internal/infrastructure/persistence/mappers"
	"github.com/lumahq/luma/internal/infrastructure/persistence/models"
	"github.com/lumahq/luma/internal/shared/db"
	apperrors "github.com/lumahq/luma/internal/shared/errors"
	"github.com/lumahq/luma/internal/shared/logger"
)

type WorkspaceRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.WorkspaceMapper
	logger logger.Interface
}

func NewWorkspaceRepository(db *gorm.DB, logger logger.Interface) workspace.WorkspaceRepository {
	return &WorkspaceRepositoryImpl{
		db:     db,
		mapper: mappers.NewWorkspaceMapper(),
		logger: logger,
	}
}

func (r *WorkspaceRepositoryImpl) Create(ctx context.Context, ws *workspace.Workspace) error {
	model, err := r.mapper.ToModel(ws)
	if err != nil {
		return fmt.Errorf("failed to map workspace entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create workspace", "name", model.Name, "error", err)
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	if err := ws.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set workspace ID: %w", err)
	}
	return nil
}

func (r *WorkspaceRepositoryImpl) GetByID(ctx context.Context, id uint) (*workspace.Workspace, error) {
	var model models.WorkspaceModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("workspace not found")
		}
		r.logger.Errorw("failed to get workspace by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *WorkspaceRepositoryImpl) Update(ctx context.Context, ws *workspace.Workspace) error {
	model, err := r.mapper.ToModel(ws)
	if err != nil {
		return fmt.Errorf("failed to map workspace entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.WorkspaceModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"name":             model.Name,
			"billing_email":    model.BillingEmail,
			"features_enabled": model.FeaturesEnabled,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update workspace", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update workspace: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("workspace not found")
	}
	return nil
}
