package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/shared/constants"
)

// RetentionAttemptModel is the persistence model for cancellation-save audit
// records. Offered and chosen offers are stored as JSON snapshots so the
// record stays readable after the plan catalog changes.
type RetentionAttemptModel struct {
	ID             uint   `gorm:"primarykey"`
	RID            string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: ra_xxx"`
	SubscriptionID uint   `gorm:"not null;index:idx_attempt_subscription"`
	AttemptType    string `gorm:"not null;size:50"`
	Reason         string `gorm:"not null;size:50"`
	Feedback       string `gorm:"size:2000"`
	Success        bool   `gorm:"not null;default:false"`
	OfferedOffers  datatypes.JSON
	ChosenOffer    datatypes.JSON
	ResolvedAt     *time.Time `gorm:"index:idx_attempt_resolved"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (RetentionAttemptModel) TableName() string {
	return constants.TableRetentionAttempts
}
