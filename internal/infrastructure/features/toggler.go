// Package features flips workspace-wide feature access on suspension and
// reactivation. Access is a single flag; workspace data is never touched.
package features

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/infrastructure/cache"
	"github.com/lumahq/luma/internal/infrastructure/persistence/models"
	"github.com/lumahq/luma/internal/shared/db"
	apperrors "github.com/lumahq/luma/internal/shared/errors"
	"github.com/lumahq/luma/internal/shared/logger"
)

type Toggler struct {
	db     *gorm.DB
	cache  cache.FeatureAccessCache
	logger logger.Interface
}

func NewToggler(gormDB *gorm.DB, accessCache cache.FeatureAccessCache, log logger.Interface) *Toggler {
	return &Toggler{db: gormDB, cache: accessCache, logger: log}
}

func (t *Toggler) DisableAllFeatures(ctx context.Context, workspaceID uint) error {
	return t.setEnabled(ctx, workspaceID, false)
}

func (t *Toggler) EnableAllFeatures(ctx context.Context, workspaceID uint) error {
	return t.setEnabled(ctx, workspaceID, true)
}

func (t *Toggler) setEnabled(ctx context.Context, workspaceID uint, enabled bool) error {
	tx := db.GetTxFromContext(ctx, t.db)
	result := tx.Model(&models.WorkspaceModel{}).
		Where("id = ?", workspaceID).
		Updates(map[string]interface{}{
			"features_enabled": enabled,
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		t.logger.Errorw("failed to toggle workspace features",
			"workspace_id", workspaceID,
			"enabled", enabled,
			"error", result.Error,
		)
		return fmt.Errorf("failed to toggle workspace features: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("workspace not found")
	}

	// Entitlement checks read through the cache, so the stale flag must go.
	// Invalidation failure is logged, not fatal: the TTL bounds the window.
	if t.cache != nil {
		if err := t.cache.Invalidate(ctx, workspaceID); err != nil {
			t.logger.Warnw("failed to invalidate feature access cache", "workspace_id", workspaceID, "error", err)
		}
	}

	t.logger.Infow("workspace features toggled", "workspace_id", workspaceID, "enabled", enabled)
	return nil
}
