package billing

import "context"

// PaymentFailureRepository persists payment failure records.
type PaymentFailureRepository interface {
	Create(ctx context.Context, failure *PaymentFailure) error
	GetByID(ctx context.Context, id uint) (*PaymentFailure, error)
	GetOpenBySubscriptionID(ctx context.Context, subscriptionID uint) (*PaymentFailure, error)
	ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*PaymentFailure, error)
	Update(ctx context.Context, failure *PaymentFailure) error
}

// RetentionAttemptRepository persists cancellation-save audit records.
type RetentionAttemptRepository interface {
	Create(ctx context.Context, attempt *RetentionAttempt) error
	GetByID(ctx context.Context, id uint) (*RetentionAttempt, error)
	GetOpenBySubscriptionID(ctx context.Context, subscriptionID uint) (*RetentionAttempt, error)
	ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*RetentionAttempt, error)
	Update(ctx context.Context, attempt *RetentionAttempt) error
}
