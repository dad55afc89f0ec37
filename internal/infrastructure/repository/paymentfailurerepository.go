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

type PaymentFailureRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PaymentFailureMapper
	logger logger.Interface
}

func NewPaymentFailureRepository(db *gorm.DB, logger logger.Interface) billing.PaymentFailureRepository {
	return &PaymentFailureRepositoryImpl{
		db:     db,
		mapper: mappers.NewPaymentFailureMapper(),
		logger: logger,
	}
}

func (r *PaymentFailureRepositoryImpl) Create(ctx context.Context, failure *billing.PaymentFailure) error {
	model, err := r.mapper.ToModel(failure)
	if err != nil {
		return fmt.Errorf("failed to map payment failure entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create payment failure", "subscription_id", model.SubscriptionID, "error", err)
		return fmt.Errorf("failed to create payment failure: %w", err)
	}

	if err := failure.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set payment failure ID: %w", err)
	}

	r.logger.Infow("payment failure created", "id", model.ID, "subscription_id", model.SubscriptionID, "invoice_id", model.InvoiceID)
	return nil
}

func (r *PaymentFailureRepositoryImpl) GetByID(ctx context.Context, id uint) (*billing.PaymentFailure, error) {
	var model models.PaymentFailureModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("payment failure not found")
		}
		r.logger.Errorw("failed to get payment failure by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get payment failure: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// GetOpenBySubscriptionID returns the open failure record for a subscription,
// or nil when none exists. Callers use nil to distinguish "no failure" from a
// lookup error.
func (r *PaymentFailureRepositoryImpl) GetOpenBySubscriptionID(ctx context.Context, subscriptionID uint) (*billing.PaymentFailure, error) {
	var model models.PaymentFailureModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Where("subscription_id = ? AND resolved_at IS NULL", subscriptionID).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get open payment failure", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to get open payment failure: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PaymentFailureRepositoryImpl) ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*billing.PaymentFailure, error) {
	var failureModels []*models.PaymentFailureModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("subscription_id = ?", subscriptionID).Order("created_at DESC").Find(&failureModels).Error; err != nil {
		r.logger.Errorw("failed to list payment failures", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to list payment failures: %w", err)
	}

	return r.mapper.ToEntities(failureModels)
}

func (r *PaymentFailureRepositoryImpl) Update(ctx context.Context, failure *billing.PaymentFailure) error {
	model, err := r.mapper.ToModel(failure)
	if err != nil {
		return fmt.Errorf("failed to map payment failure entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	result := tx.Model(&models.PaymentFailureModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"attempt_count":    model.AttemptCount,
			"next_retry_at":    model.NextRetryAt,
			"resolved_at":      model.ResolvedAt,
			"resolution_cause": model.ResolutionCause,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update payment failure", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update payment failure: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("payment failure not found")
	}
	return nil
}
