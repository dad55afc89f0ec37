package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/shared/constants"
)

// PlanModel is the persistence model for the plan catalog. Prices are stored
// in minor currency units.
type PlanModel struct {
	ID         uint   `gorm:"primarykey"`
	PID        string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: plan_xxx"`
	Code       string `gorm:"uniqueIndex;not null;size:50"`
	Name       string `gorm:"not null;size:100"`
	PriceCents int64  `gorm:"not null"`
	Interval   string `gorm:"not null;size:20"`
	Active     bool   `gorm:"not null;default:true;index:idx_plan_active"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (PlanModel) TableName() string {
	return constants.TablePlans
}
