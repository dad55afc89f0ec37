// Package mappers converts between domain entities and persistence models.
// This is the anti-corruption layer between domain and database.
package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	"github.com/lumahq/luma/internal/domain/subscription"
	vo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
	"github.com/lumahq/luma/internal/infrastructure/persistence/models"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	status := vo.SubscriptionStatus(model.Status)
	if !vo.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid subscription status: %s", model.Status)
	}

	var modifiers []vo.Modifier
	if model.Modifiers != nil {
		if err := json.Unmarshal(model.Modifiers, &modifiers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal modifiers: %w", err)
		}
	}

	var pendingOffers []bvo.RetentionOffer
	if model.PendingOffers != nil {
		if err := json.Unmarshal(model.PendingOffers, &pendingOffers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pending offers: %w", err)
		}
	}

	entity, err := subscription.Reconstruct(subscription.ReconstructParams{
		ID:                 model.ID,
		SID:                model.SID,
		WorkspaceID:        model.WorkspaceID,
		PlanID:             model.PlanID,
		Status:             status,
		CurrentPeriodStart: model.CurrentPeriodStart,
		CurrentPeriodEnd:   model.CurrentPeriodEnd,
		GracePeriodEndsAt:  model.GracePeriodEndsAt,
		RetryCount:         model.RetryCount,
		CancelledAt:        model.CancelledAt,
		CancelReason:       model.CancelReason,
		CancelFeedback:     model.CancelFeedback,
		CancelAtPeriodEnd:  model.CancelAtPeriodEnd,
		Modifiers:          modifiers,
		PendingOffers:      pendingOffers,
		Version:            model.Version,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}
	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}

	var modifiersJSON datatypes.JSON
	if modifiers := entity.Modifiers(); len(modifiers) > 0 {
		data, err := json.Marshal(modifiers)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal modifiers: %w", err)
		}
		modifiersJSON = data
	}

	var pendingOffersJSON datatypes.JSON
	if offers := entity.PendingOffers(); len(offers) > 0 {
		data, err := json.Marshal(offers)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal pending offers: %w", err)
		}
		pendingOffersJSON = data
	}

	return &models.SubscriptionModel{
		ID:                 entity.ID(),
		SID:                entity.SID(),
		WorkspaceID:        entity.WorkspaceID(),
		PlanID:             entity.PlanID(),
		Status:             entity.Status().String(),
		CurrentPeriodStart: entity.CurrentPeriodStart(),
		CurrentPeriodEnd:   entity.CurrentPeriodEnd(),
		GracePeriodEndsAt:  entity.GracePeriodEndsAt(),
		RetryCount:         entity.RetryCount(),
		CancelledAt:        entity.CancelledAt(),
		CancelReason:       entity.CancelReason(),
		CancelFeedback:     entity.CancelFeedback(),
		CancelAtPeriodEnd:  entity.CancelAtPeriodEnd(),
		Modifiers:          modifiersJSON,
		PendingOffers:      pendingOffersJSON,
		Version:            entity.Version(),
		CreatedAt:          entity.CreatedAt(),
		UpdatedAt:          entity.UpdatedAt(),
	}, nil
}

func (m *SubscriptionMapperImpl) ToEntities(subscriptionModels []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	entities := make([]*subscription.Subscription, 0, len(subscriptionModels))
	for _, model := range subscriptionModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
