package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/lumahq/luma/internal/domain/billing"
	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	"github.com/lumahq/luma/internal/infrastructure/persistence/models"
)

type RetentionAttemptMapper interface {
	ToEntity(model *models.RetentionAttemptModel) (*billing.RetentionAttempt, error)
	ToModel(entity *billing.RetentionAttempt) (*models.RetentionAttemptModel, error)
	ToEntities(models []*models.RetentionAttemptModel) ([]*billing.RetentionAttempt, error)
}

type RetentionAttemptMapperImpl struct{}

func NewRetentionAttemptMapper() RetentionAttemptMapper {
	return &RetentionAttemptMapperImpl{}
}

func (m *RetentionAttemptMapperImpl) ToEntity(model *models.RetentionAttemptModel) (*billing.RetentionAttempt, error) {
	if model == nil {
		return nil, nil
	}

	var offered []bvo.RetentionOffer
	if model.OfferedOffers != nil {
		if err := json.Unmarshal(model.OfferedOffers, &offered); err != nil {
			return nil, fmt.Errorf("failed to unmarshal offered offers: %w", err)
		}
	}

	var chosen *bvo.RetentionOffer
	if model.ChosenOffer != nil {
		var offer bvo.RetentionOffer
		if err := json.Unmarshal(model.ChosenOffer, &offer); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chosen offer: %w", err)
		}
		chosen = &offer
	}

	entity, err := billing.ReconstructRetentionAttempt(
		model.ID,
		model.RID,
		model.SubscriptionID,
		billing.AttemptType(model.AttemptType),
		bvo.CancellationReason(model.Reason),
		model.Feedback,
		model.Success,
		offered,
		chosen,
		model.ResolvedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct retention attempt entity: %w", err)
	}
	return entity, nil
}

func (m *RetentionAttemptMapperImpl) ToModel(entity *billing.RetentionAttempt) (*models.RetentionAttemptModel, error) {
	if entity == nil {
		return nil, nil
	}

	var offeredJSON datatypes.JSON
	if offered := entity.OfferedOffers(); len(offered) > 0 {
		data, err := json.Marshal(offered)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal offered offers: %w", err)
		}
		offeredJSON = data
	}

	var chosenJSON datatypes.JSON
	if chosen := entity.ChosenOffer(); chosen != nil {
		data, err := json.Marshal(chosen)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal chosen offer: %w", err)
		}
		chosenJSON = data
	}

	return &models.RetentionAttemptModel{
		ID:             entity.ID(),
		RID:            entity.RID(),
		SubscriptionID: entity.SubscriptionID(),
		AttemptType:    string(entity.Type()),
		Reason:         string(entity.Reason()),
		Feedback:       entity.Feedback(),
		Success:        entity.Success(),
		OfferedOffers:  offeredJSON,
		ChosenOffer:    chosenJSON,
		ResolvedAt:     entity.ResolvedAt(),
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}, nil
}

func (m *RetentionAttemptMapperImpl) ToEntities(attemptModels []*models.RetentionAttemptModel) ([]*billing.RetentionAttempt, error) {
	entities := make([]*billing.RetentionAttempt, 0, len(attemptModels))
	for _, model := range attemptModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
