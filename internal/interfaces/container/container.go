// Package container wires the billing engine's repositories, services, and
// use cases for the server and worker processes.
package container

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/application/billing/services"
	"github.com/lumahq/luma/internal/application/billing/usecases"
	"github.com/lumahq/luma/internal/domain/billing"
	"github.com/lumahq/luma/internal/domain/shared/events"
	"github.com/lumahq/luma/internal/domain/subscription"
	"github.com/lumahq/luma/internal/domain/workspace"
	"github.com/lumahq/luma/internal/infrastructure/cache"
	"github.com/lumahq/luma/internal/infrastructure/config"
	"github.com/lumahq/luma/internal/infrastructure/features"
	"github.com/lumahq/luma/internal/infrastructure/notification"
	"github.com/lumahq/luma/internal/infrastructure/payment"
	"github.com/lumahq/luma/internal/infrastructure/repository"
	"github.com/lumahq/luma/internal/infrastructure/scheduler"
	"github.com/lumahq/luma/internal/shared/db"
	"github.com/lumahq/luma/internal/shared/logger"
)

// Container holds the wired application graph.
type Container struct {
	Config *config.Config
	Logger logger.Interface

	DB         *gorm.DB
	Redis      *redis.Client
	Dispatcher *events.InMemoryEventDispatcher
	TxManager  *db.TransactionManager

	SubscriptionRepo subscription.SubscriptionRepository
	PlanRepo         subscription.PlanRepository
	FailureRepo      billing.PaymentFailureRepository
	AttemptRepo      billing.RetentionAttemptRepository
	WorkspaceRepo    workspace.WorkspaceRepository

	JobQueue *scheduler.JobQueue
	Gateway  *payment.StripeGateway
	Notifier *notification.Dispatcher
	Features *features.Toggler

	RetrySchedule  *services.RetrySchedule
	OfferGenerator *services.OfferGenerator

	GetSubscriptionUC      *usecases.GetSubscriptionUseCase
	HandlePaymentFailureUC *usecases.HandlePaymentFailureUseCase
	ExecutePaymentRetryUC  *usecases.ExecutePaymentRetryUseCase
	SuspendUC              *usecases.SuspendSubscriptionUseCase
	RequestCancellationUC  *usecases.RequestCancellationUseCase
	AcceptOfferUC          *usecases.AcceptRetentionOfferUseCase
	FinalizeCancellationUC *usecases.FinalizeCancellationUseCase
	ResumeUC               *usecases.ResumeSubscriptionUseCase
	ReactivateUC           *usecases.ReactivateSubscriptionUseCase
	SendWinbackEmailUC     *usecases.SendWinbackEmailUseCase
}

// New wires the full graph on top of an established database connection.
func New(cfg *config.Config, gormDB *gorm.DB, log logger.Interface) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: log,
		DB:     gormDB,
	}

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	c.Dispatcher = events.NewInMemoryEventDispatcher(256, func(event events.DomainEvent, err error) {
		log.Errorw("event handler failed",
			"event_type", event.GetEventType(),
			"aggregate_id", event.GetAggregateID(),
			"error", err,
		)
	})

	c.TxManager = db.NewTransactionManager(gormDB)

	c.SubscriptionRepo = repository.NewSubscriptionRepository(gormDB, log)
	c.PlanRepo = repository.NewPlanRepository(gormDB, log)
	c.FailureRepo = repository.NewPaymentFailureRepository(gormDB, log)
	c.AttemptRepo = repository.NewRetentionAttemptRepository(gormDB, log)
	c.WorkspaceRepo = repository.NewWorkspaceRepository(gormDB, log)

	c.JobQueue = scheduler.NewJobQueue(gormDB, log)
	c.Gateway = payment.NewStripeGateway(&cfg.Stripe, log)
	c.Notifier = notification.NewDispatcher(&cfg.Email, gormDB, log)

	accessCache := cache.NewRedisFeatureAccessCache(c.Redis, log)
	c.Features = features.NewToggler(gormDB, accessCache, log)

	schedule, err := services.NewRetrySchedule(cfg.Billing.RetryOffsetDays, cfg.Billing.Holidays)
	if err != nil {
		return nil, err
	}
	c.RetrySchedule = schedule
	c.OfferGenerator = services.NewOfferGenerator(c.PlanRepo, log)

	c.GetSubscriptionUC = usecases.NewGetSubscriptionUseCase(
		c.SubscriptionRepo, c.PlanRepo, c.FailureRepo, c.AttemptRepo, log,
	)
	c.HandlePaymentFailureUC = usecases.NewHandlePaymentFailureUseCase(
		c.SubscriptionRepo, c.FailureRepo, c.WorkspaceRepo,
		c.RetrySchedule, c.JobQueue, c.Notifier, c.Dispatcher, c.TxManager,
		cfg.Billing.GracePeriodDays, log,
	)
	c.SuspendUC = usecases.NewSuspendSubscriptionUseCase(
		c.SubscriptionRepo, c.PlanRepo, c.FailureRepo, c.WorkspaceRepo,
		c.OfferGenerator, c.Features, c.JobQueue, c.Notifier, c.Dispatcher, c.TxManager,
		cfg.Billing.SuspensionWinbackOffsetDays, log,
	)
	c.ExecutePaymentRetryUC = usecases.NewExecutePaymentRetryUseCase(
		c.SubscriptionRepo, c.FailureRepo, c.WorkspaceRepo,
		c.RetrySchedule, c.Gateway, c.Notifier, c.Dispatcher, c.TxManager,
		c.SuspendUC, log,
	)
	c.RequestCancellationUC = usecases.NewRequestCancellationUseCase(
		c.SubscriptionRepo, c.PlanRepo, c.AttemptRepo,
		c.OfferGenerator, c.Dispatcher, c.TxManager, log,
	)
	c.AcceptOfferUC = usecases.NewAcceptRetentionOfferUseCase(
		c.SubscriptionRepo, c.AttemptRepo, c.FailureRepo, c.WorkspaceRepo,
		c.Features, c.JobQueue, c.Notifier, c.Dispatcher, c.TxManager, log,
	)
	c.FinalizeCancellationUC = usecases.NewFinalizeCancellationUseCase(
		c.SubscriptionRepo, c.AttemptRepo, c.FailureRepo, c.WorkspaceRepo,
		c.Features, c.JobQueue, c.Notifier, c.Dispatcher, c.TxManager,
		cfg.Billing.CancellationWinbackOffsetDays, log,
	)
	c.ResumeUC = usecases.NewResumeSubscriptionUseCase(
		c.SubscriptionRepo, c.WorkspaceRepo, c.Notifier, c.TxManager, log,
	)
	c.ReactivateUC = usecases.NewReactivateSubscriptionUseCase(
		c.SubscriptionRepo, c.PlanRepo, c.FailureRepo, c.WorkspaceRepo,
		c.Gateway, c.Features, c.Notifier, c.Dispatcher, c.TxManager, log,
	)
	c.SendWinbackEmailUC = usecases.NewSendWinbackEmailUseCase(
		c.SubscriptionRepo, c.WorkspaceRepo, c.Notifier, log,
	)

	return c, nil
}

// Start brings up the background collaborators.
func (c *Container) Start() error {
	return c.Dispatcher.Start()
}

// Stop shuts them down in reverse order.
func (c *Container) Stop() error {
	if err := c.Dispatcher.Stop(); err != nil {
		return err
	}
	return c.Redis.Close()
}
