package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/shared/constants"
)

// PaymentFailureModel is the persistence model for payment failure records.
// A NULL ResolvedAt marks the failure as open; at most one open record exists
// per subscription.
type PaymentFailureModel struct {
	ID              uint   `gorm:"primarykey"`
	FID             string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: pf_xxx"`
	SubscriptionID  uint   `gorm:"not null;index:idx_failure_subscription"`
	InvoiceID       string `gorm:"not null;size:100;index:idx_failure_invoice"`
	Reason          string `gorm:"size:500"`
	Code            string `gorm:"size:100"`
	AttemptCount    int    `gorm:"not null;default:0"`
	NextRetryAt     *time.Time `gorm:"index:idx_next_retry"`
	ResolvedAt      *time.Time `gorm:"index:idx_failure_resolved"`
	ResolutionCause *string    `gorm:"size:50"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (PaymentFailureModel) TableName() string {
	return constants.TablePaymentFailures
}
