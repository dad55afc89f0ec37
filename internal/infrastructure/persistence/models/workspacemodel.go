package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/shared/constants"
)

// WorkspaceModel is the persistence model for workspaces.
type WorkspaceModel struct {
	ID              uint   `gorm:"primarykey"`
	WSID            string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: ws_xxx"`
	Name            string `gorm:"not null;size:200"`
	BillingEmail    string `gorm:"not null;size:255"`
	FeaturesEnabled bool   `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (WorkspaceModel) TableName() string {
	return constants.TableWorkspaces
}
