package mappers

import (
	"fmt"

	"github.com/lumahq/luma/internal/domain/billing"
	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	"github.com/lumahq/luma/internal/infrastructure/persistence/models"
)

type PaymentFailureMapper interface {
	ToEntity(model *models.PaymentFailureModel) (*billing.PaymentFailure, error)
	ToModel(entity *billing.PaymentFailure) (*models.PaymentFailureModel, error)
	ToEntities(models []*models.PaymentFailureModel) ([]*billing.PaymentFailure, error)
}

type PaymentFailureMapperImpl struct{}

func NewPaymentFailureMapper() PaymentFailureMapper {
	return &PaymentFailureMapperImpl{}
}

func (m *PaymentFailureMapperImpl) ToEntity(model *models.PaymentFailureModel) (*billing.PaymentFailure, error) {
	if model == nil {
		return nil, nil
	}

	var cause *bvo.ResolutionCause
	if model.ResolutionCause != nil {
		c := bvo.ResolutionCause(*model.ResolutionCause)
		cause = &c
	}

	entity, err := billing.ReconstructPaymentFailure(
		model.ID,
		model.FID,
		model.SubscriptionID,
		model.InvoiceID,
		model.Reason,
		model.Code,
		model.AttemptCount,
		model.NextRetryAt,
		model.ResolvedAt,
		cause,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct payment failure entity: %w", err)
	}
	return entity, nil
}

func (m *PaymentFailureMapperImpl) ToModel(entity *billing.PaymentFailure) (*models.PaymentFailureModel, error) {
	if entity == nil {
		return nil, nil
	}

	var cause *string
	if entity.ResolutionCause() != nil {
		c := entity.ResolutionCause().String()
		cause = &c
	}

	return &models.PaymentFailureModel{
		ID:              entity.ID(),
		FID:             entity.FID(),
		SubscriptionID:  entity.SubscriptionID(),
		InvoiceID:       entity.InvoiceID(),
		Reason:          entity.Reason(),
		Code:            entity.Code(),
		AttemptCount:    entity.AttemptCount(),
		NextRetryAt:     entity.NextRetryAt(),
		ResolvedAt:      entity.ResolvedAt(),
		ResolutionCause: cause,
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}, nil
}

func (m *PaymentFailureMapperImpl) ToEntities(failureModels []*models.PaymentFailureModel) ([]*billing.PaymentFailure, error) {
	entities := make([]*billing.PaymentFailure, 0, len(failureModels))
	for _, model := range failureModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
