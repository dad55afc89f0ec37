package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/domain/billing"
	"github.com/lumahq/luma/internal/infrastructure/persistence/mappers"
	"github.com/lumahq/luma/internal/infrastructure/persistence/models"
	"github.com/lumahq/luma/internal/shared/db"
	apperrors "github.com/lumahq/luma/internal/shared/errors"
	"github.com/lumahq/luma/internal/shared/logger"
)

type RetentionAttemptRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.RetentionAttemptMapper
	logger logger.Interface
}

func NewRetentionAttemptRepository(db *gorm.DB, logger logger.Interface) billing.RetentionAttemptRepository {
	return &RetentionAttemptRepositoryImpl{
		db:     db,
		mapper: mappers.NewRetentionAttemptMapper(),
		logger: logger,
	}
}

func (r *RetentionAttemptRepositoryImpl) Create(ctx context.Context, attempt *billing.RetentionAttempt) error {
	model, err := r.mapper.ToModel(attempt)
	if err != nil {
		return fmt.Errorf("failed to map retention attempt entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create retention attempt", "subscription_id", model.SubscriptionID, "error", err)
		return fmt.Errorf("failed to create retention attempt: %w", err)
	}

	if err := attempt.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set retention attempt ID: %w", err)
	}

	r.logger.Infow("retention attempt created", "id", model.ID, "subscription_id", model.SubscriptionID, "reason", model.Reason)
	return nil
}

func (r *RetentionAttemptRepositoryImpl) GetByID(ctx context.Context, id uint) (*billing.RetentionAttempt, error) {
	var model models.RetentionAttemptModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("retention attempt not found")
		}
		r.logger.Errorw("failed to get retention attempt by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get retention attempt: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// GetOpenBySubscriptionID returns the unresolved attempt for a subscription,
// or nil when the save flow is not in progress.
func (r *RetentionAttemptRepositoryImpl) GetOpenBySubscriptionID(ctx context.Context, subscriptionID uint) (*billing.RetentionAttempt, error) {
	var model models.RetentionAttemptModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Where("subscription_id = ? AND resolved_at IS NULL", subscriptionID).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get open retention attempt", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to get open retention attempt: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *RetentionAttemptRepositoryImpl) ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*billing.RetentionAttempt, error) {
	var attemptModels []*models.RetentionAttemptModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("subscription_id = ?", subscriptionID).Order("created_at DESC").Find(&attemptModels).Error; err != nil {
		r.logger.Errorw("failed to list retention attempts", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to list retention attempts: %w", err)
	}

	return r.mapper.ToEntities(attemptModels)
}

func (r *RetentionAttemptRepositoryImpl) Update(ctx context.Context, attempt *billing.RetentionAttempt) error {
	model, err := r.mapper.ToModel(attempt)
	if err != nil {
		return fmt.Errorf("failed to map retention attempt entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.RetentionAttemptModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"success":        model.Success,
			"offered_offers": model.OfferedOffers,
			"chosen_offer":   model.ChosenOffer,
			"resolved_at":    model.ResolvedAt,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update retention attempt", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update retention attempt: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("retention attempt not found")
	}
	return nil
}
