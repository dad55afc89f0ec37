package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/lumahq/luma/internal/shared/constants"
)

// NotificationModel stores in-app notifications shown in the workspace
// dashboard.
type NotificationModel struct {
	ID          uint           `gorm:"primarykey"`
	NID         string         `gorm:"column:nid;size:20;uniqueIndex;not null"`
	WorkspaceID uint           `gorm:"not null;index:idx_workspace_notifications"`
	Kind        string         `gorm:"size:64;not null"`
	Data        datatypes.JSON `gorm:"type:json"`
	ReadAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (NotificationModel) TableName() string {
	return constants.TableNotifications
}
