package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/shared/constants"
)

// SubscriptionModel is the persistence model for subscriptions. Modifiers and
// pending retention offers are stored as JSON snapshots.
type SubscriptionModel struct {
	ID                 uint   `gorm:"primarykey"`
	SID                string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: sub_xxx"`
	WorkspaceID        uint   `gorm:"not null;uniqueIndex:idx_workspace_subscription"`
	PlanID             uint   `gorm:"not null;index:idx_plan_subscription"`
	Status             string `gorm:"not null;size:20;index:idx_status"`
	CurrentPeriodStart time.Time `gorm:"not null"`
	CurrentPeriodEnd   time.Time `gorm:"not null;index:idx_period_end"`
	GracePeriodEndsAt  *time.Time
	RetryCount         int `gorm:"not null;default:0"`
	CancelledAt        *time.Time
	CancelReason       *string `gorm:"size:100"`
	CancelFeedback     *string `gorm:"size:2000"`
	CancelAtPeriodEnd  bool    `gorm:"not null;default:false"`
	Modifiers          datatypes.JSON
	PendingOffers      datatypes.JSON
	Version            int `gorm:"not null;default:1"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
