package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/shared/constants"
)

// Scheduled job states. Jobs move pending -> running -> completed/failed;
// failed jobs with remaining attempts go back to pending.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// ScheduledJobModel is the durable delayed-work queue. Rows survive process
// restarts, which matters for win-back emails scheduled up to 90 days out.
type ScheduledJobModel struct {
	ID          uint   `gorm:"primarykey"`
	JID         string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: job_xxx"`
	JobType     string `gorm:"not null;size:50;index:idx_job_type"`
	Payload     datatypes.JSON
	RunAt       time.Time `gorm:"not null;index:idx_job_due,priority:2"`
	Status      string    `gorm:"not null;size:20;default:pending;index:idx_job_due,priority:1"`
	Attempts    int       `gorm:"not null;default:0"`
	MaxAttempts int       `gorm:"not null;default:3"`
	LastError   *string   `gorm:"size:1000"`
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (ScheduledJobModel) TableName() string {
	return constants.TableScheduledJobs
}
