package mappers

import (
	"fmt"

	"github.com/lumahq/luma/internal/domain/subscription"
	"github.com/lumahq/luma/internal/infrastructure/persistence/models"
)

type PlanMapper interface {
	ToEntity(model *models.PlanModel) (*subscription.Plan, error)
	ToModel(entity *subscription.Plan) (*models.PlanModel, error)
	ToEntities(models []*models.PlanModel) ([]*subscription.Plan, error)
}

type PlanMapperImpl struct{}

func NewPlanMapper() PlanMapper {
	return &PlanMapperImpl{}
}

func (m *PlanMapperImpl) ToEntity(model *models.PlanModel) (*subscription.Plan, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := subscription.ReconstructPlan(
		model.ID,
		model.PID,
		model.Code,
		model.Name,
		model.PriceCents,
		subscription.BillingInterval(model.Interval),
		model.Active,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct plan entity: %w", err)
	}
	return entity, nil
}

func (m *PlanMapperImpl) ToModel(entity *subscription.Plan) (*models.PlanModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.PlanModel{
		ID:         entity.ID(),
		PID:        entity.PID(),
		Code:       entity.Code(),
		Name:       entity.Name(),
		PriceCents: entity.PriceCents(),
		Interval:   string(entity.Interval()),
		Active:     entity.IsActive(),
		CreatedAt:  entity.CreatedAt(),
		UpdatedAt:  entity.UpdatedAt(),
	}, nil
}

func (m *PlanMapperImpl) ToEntities(planModels []*models.PlanModel) ([]*subscription.Plan, error) {
	entities := make([]*subscription.Plan, 0, len(planModels))
	for _, model := range planModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
