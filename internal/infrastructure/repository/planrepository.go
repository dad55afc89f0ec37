package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/domain/subscription"
	"github.com/lumahq/luma/internal/infrastructure/persistence/mappers"
	"github.com/lumahq/luma/internal/infrastructure/persistence/models"
	"github.com/lumahq/luma/internal/shared/db"
	apperrors "github.com/lumahq/luma/internal/shared/errors"
	"github.com/lumahq/luma/internal/shared/logger"
)

type PlanRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PlanMapper
	logger logger.Interface
}

func NewPlanRepository(db *gorm.DB, logger logger.Interface) subscription.PlanRepository {
	return &PlanRepositoryImpl{
		db:     db,
		mapper: mappers.NewPlanMapper(),
		logger: logger,
	}
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *subscription.Plan) error {
	model, err := r.mapper.ToModel(plan)
	if err != nil {
		return fmt.Errorf("failed to map plan entity: %w", err)
	}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create plan", "code", model.Code, "error", err)
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if err := plan.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set plan ID: %w", err)
	}
	return nil
}

func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Plan, error) {
	var model models.PlanModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("plan not found")
		}
		r.logger.Errorw("failed to get plan by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlanRepositoryImpl) GetByCode(ctx context.Context, code string) (*subscription.Plan, error) {
	var model models.PlanModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("plan not found")
		}
		r.logger.Errorw("failed to get plan by code", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlanRepositoryImpl) ListActive(ctx context.Context) ([]*subscription.Plan, error) {
	var planModels []*models.PlanModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("active = ?", true).Order("price_cents").Find(&planModels).Error; err != nil {
		r.logger.Errorw("failed to list active plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return r.mapper.ToEntities(planModels)
}

func (r *PlanRepositoryImpl) FindCheapestBelow(ctx context.Context, priceCents int64) (*subscription.Plan, error) {
	var model models.PlanModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Where("active = ? AND price_cents < ?", true, priceCents).
		Order("price_cents DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to find cheaper plan", "price_cents", priceCents, "error", err)
		return nil, fmt.Errorf("failed to find cheaper plan: %w", err)
	}

	return r.mapper.ToEntity(&model)
}
