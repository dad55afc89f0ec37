package subscription

import (
	"context"

	vo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
)

// SubscriptionRepository persists the subscription aggregate.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	GetBySID(ctx context.Context, sid string) (*Subscription, error)
	GetByWorkspaceID(ctx context.Context, workspaceID uint) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	ListByStatus(ctx context.Context, status vo.SubscriptionStatus) ([]*Subscription, error)
}

// PlanRepository reads the plan catalog.
type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, id uint) (*Plan, error)
	GetByCode(ctx context.Context, code string) (*Plan, error)
	ListActive(ctx context.Context) ([]*Plan, error)
	// FindCheapestBelow returns the most expensive active plan priced strictly
	// under priceCents, or nil when no cheaper plan exists.
	FindCheapestBelow(ctx context.Context, priceCents int64) (*Plan, error)
}
