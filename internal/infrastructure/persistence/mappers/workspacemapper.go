package mappers

import (
	"fmt"

	"github.com/lumahq/luma/internal/domain/workspace"
	"github.com/lumahq/luma/internal/infrastructure/persistence/models"
)

type WorkspaceMapper interface {
	ToEntity(model *models.WorkspaceModel) (*workspace.Workspace, error)
	ToModel(entity *workspace.Workspace) (*models.WorkspaceModel, error)
}

type WorkspaceMapperImpl struct{}

func NewWorkspaceMapper() WorkspaceMapper {
	return &WorkspaceMapperImpl{}
}

func (m *WorkspaceMapperImpl) ToEntity(model *models.WorkspaceModel) (*workspace.Workspace, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := workspace.ReconstructWorkspace(
		model.ID,
		model.WSID,
		model.Name,
		model.BillingEmail,
		model.FeaturesEnabled,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct workspace entity: %w", err)
	}
	return entity, nil
}

func (m *WorkspaceMapperImpl) ToModel(entity *workspace.Workspace) (*models.WorkspaceModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.WorkspaceModel{
		ID:              entity.ID(),
		WSID:            entity.WSID(),
		Name:            entity.Name(),
		BillingEmail:    entity.BillingEmail(),
		FeaturesEnabled: entity.FeaturesEnabled(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}, nil
}
