// Package billing wires the subscription billing lifecycle: payment failure
// recording, retry scheduling and execution, suspension with win-back, and
// the retention offer engine.
package billing

import (
	"context"
	"time"
)

// Invoice is the slice of gateway invoice state the engine consumes. Amounts
// are in minor currency units.
type Invoice struct {
	ID             string
	CustomerID     string
	AmountDueCents int64
	Currency       string
	Paid           bool
}

// GatewayClient is the payment gateway collaborator. All calls are opaque
// remote operations; the engine only consumes success/failure and reason
// codes.
type GatewayClient interface {
	RetryPayment(ctx context.Context, invoiceID string) (bool, error)
	PayInvoice(ctx context.Context, invoiceID string) (bool, error)
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
	GetUpcomingInvoice(ctx context.Context, customerID string) (*Invoice, error)
	CreateOrGetCustomer(ctx context.Context, email, name string) (string, error)
	CreateSubscription(ctx context.Context, customerID, priceID string) (string, error)
	UpdateSubscription(ctx context.Context, gatewaySubscriptionID, priceID string) error
	CancelSubscription(ctx context.Context, gatewaySubscriptionID string, atPeriodEnd bool) error
	CreateRefund(ctx context.Context, paymentID string, amountCents int64) error
}

// NotificationDispatcher delivers templated emails and in-app alerts. The
// engine supplies template selection and data; delivery details are the
// collaborator's problem. Failures are logged, never fatal to billing flows.
type NotificationDispatcher interface {
	SendTemplatedEmail(ctx context.Context, recipient, templateKey string, data map[string]any) error
	SendInAppNotification(ctx context.Context, workspaceID uint, kind string, data map[string]any) error
}

// FeatureToggler revokes or restores workspace feature access. Data is
// always retained.
type FeatureToggler interface {
	DisableAllFeatures(ctx context.Context, workspaceID uint) error
	EnableAllFeatures(ctx context.Context, workspaceID uint) error
}

// JobScheduler enqueues durable delayed work. Implementations must survive
// process restarts and support delays up to ~90 days.
type JobScheduler interface {
	Enqueue(ctx context.Context, jobType string, payload any, runAt time.Time) error
}
