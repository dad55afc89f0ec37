package workspace

import "context"

// WorkspaceRepository persists the workspace aggregate.
type WorkspaceRepository interface {
	Create(ctx context.Context, ws *Workspace) error
	GetByID(ctx context.Context, id uint) (*Workspace, error)
	Update(ctx context.Context, ws *Workspace) error
}
