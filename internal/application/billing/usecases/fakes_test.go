package usecases

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	"github.com/lumahq/luma/internal/application/billing/services"
	"github.com/lumahq/luma/internal/domain/billing"
	"github.com/lumahq/luma/internal/domain/shared/events"
	"github.com/lumahq/luma/internal/domain/subscription"
	vo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
	"github.com/lumahq/luma/internal/domain/workspace"
	"github.com/lumahq/luma/internal/shared/db"
	apperrors "github.com/lumahq/luma/internal/shared/errors"
	"github.com/lumahq/luma/internal/shared/logger"
)

// In-memory fakes for the collaborator ports. The transaction manager runs
// against an in-memory sqlite database so context plumbing behaves like
// production; the fakes themselves ignore transactionality.

type fakeSubscriptionRepo struct {
	subs   map[uint]*subscription.Subscription
	nextID uint
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[uint]*subscription.Subscription), nextID: 1}
}

func (r *fakeSubscriptionRepo) Create(ctx context.Context, sub *subscription.Subscription) error {
	if err := sub.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.subs[sub.ID()] = sub
	return nil
}

func (r *fakeSubscriptionRepo) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	sub, ok := r.subs[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("subscription not found")
	}
	return sub, nil
}

func (r *fakeSubscriptionRepo) GetBySID(ctx context.Context, sid string) (*subscription.Subscription, error) {
	for _, sub := range r.subs {
		if sub.SID() == sid {
			return sub, nil
		}
	}
	return nil, apperrors.NewNotFoundError("subscription not found")
}

func (r *fakeSubscriptionRepo) GetByWorkspaceID(ctx context.Context, workspaceID uint) (*subscription.Subscription, error) {
	for _, sub := range r.subs {
		if sub.WorkspaceID() == workspaceID {
			return sub, nil
		}
	}
	return nil, apperrors.NewNotFoundError("subscription not found")
}

func (r *fakeSubscriptionRepo) Update(ctx context.Context, sub *subscription.Subscription) error {
	if _, ok := r.subs[sub.ID()]; !ok {
		return apperrors.NewNotFoundError("subscription not found")
	}
	r.subs[sub.ID()] = sub
	return nil
}

func (r *fakeSubscriptionRepo) ListByStatus(ctx context.Context, status vo.SubscriptionStatus) ([]*subscription.Subscription, error) {
	var out []*subscription.Subscription
	for _, sub := range r.subs {
		if sub.Status() == status {
			out = append(out, sub)
		}
	}
	return out, nil
}

type fakePlanRepo struct {
	plans    map[uint]*subscription.Plan
	cheapest *subscription.Plan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[uint]*subscription.Plan)}
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *subscription.Plan) error {
	r.plans[plan.ID()] = plan
	return nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, id uint) (*subscription.Plan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("plan not found")
	}
	return plan, nil
}

func (r *fakePlanRepo) GetByCode(ctx context.Context, code string) (*subscription.Plan, error) {
	for _, plan := range r.plans {
		if plan.Code() == code {
			return plan, nil
		}
	}
	return nil, apperrors.NewNotFoundError("plan not found")
}

func (r *fakePlanRepo) ListActive(ctx context.Context) ([]*subscription.Plan, error) {
	var out []*subscription.Plan
	for _, plan := range r.plans {
		if plan.IsActive() {
			out = append(out, plan)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) FindCheapestBelow(ctx context.Context, priceCents int64) (*subscription.Plan, error) {
	return r.cheapest, nil
}

type fakeFailureRepo struct {
	failures map[uint]*billing.PaymentFailure
	nextID   uint
}

func newFakeFailureRepo() *fakeFailureRepo {
	return &fakeFailureRepo{failures: make(map[uint]*billing.PaymentFailure), nextID: 1}
}

func (r *fakeFailureRepo) Create(ctx context.Context, failure *billing.PaymentFailure) error {
	if err := failure.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.failures[failure.ID()] = failure
	return nil
}

func (r *fakeFailureRepo) GetByID(ctx context.Context, id uint) (*billing.PaymentFailure, error) {
	failure, ok := r.failures[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("payment failure not found")
	}
	return failure, nil
}

func (r *fakeFailureRepo) GetOpenBySubscriptionID(ctx context.Context, subscriptionID uint) (*billing.PaymentFailure, error) {
	for _, failure := range r.failures {
		if failure.SubscriptionID() == subscriptionID && !failure.IsResolved() {
			return failure, nil
		}
	}
	return nil, nil
}

func (r *fakeFailureRepo) ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*billing.PaymentFailure, error) {
	var out []*billing.PaymentFailure
	for _, failure := range r.failures {
		if failure.SubscriptionID() == subscriptionID {
			out = append(out, failure)
		}
	}
	return out, nil
}

func (r *fakeFailureRepo) Update(ctx context.Context, failure *billing.PaymentFailure) error {
	r.failures[failure.ID()] = failure
	return nil
}

type fakeAttemptRepo struct {
	attempts map[uint]*billing.RetentionAttempt
	nextID   uint
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: make(map[uint]*billing.RetentionAttempt), nextID: 1}
}

func (r *fakeAttemptRepo) Create(ctx context.Context, attempt *billing.RetentionAttempt) error {
	if err := attempt.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.attempts[attempt.ID()] = attempt
	return nil
}

func (r *fakeAttemptRepo) GetByID(ctx context.Context, id uint) (*billing.RetentionAttempt, error) {
	attempt, ok := r.attempts[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("retention attempt not found")
	}
	return attempt, nil
}

func (r *fakeAttemptRepo) GetOpenBySubscriptionID(ctx context.Context, subscriptionID uint) (*billing.RetentionAttempt, error) {
	for _, attempt := range r.attempts {
		if attempt.SubscriptionID() == subscriptionID && !attempt.IsResolved() {
			return attempt, nil
		}
	}
	return nil, nil
}

func (r *fakeAttemptRepo) ListBySubscriptionID(ctx context.Context, subscriptionID uint) ([]*billing.RetentionAttempt, error) {
	var out []*billing.RetentionAttempt
	for _, attempt := range r.attempts {
		if attempt.SubscriptionID() == subscriptionID {
			out = append(out, attempt)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) Update(ctx context.Context, attempt *billing.RetentionAttempt) error {
	r.attempts[attempt.ID()] = attempt
	return nil
}

type fakeWorkspaceRepo struct {
	workspaces map[uint]*workspace.Workspace
	nextID     uint
}

func newFakeWorkspaceRepo() *fakeWorkspaceRepo {
	return &fakeWorkspaceRepo{workspaces: make(map[uint]*workspace.Workspace), nextID: 1}
}

func (r *fakeWorkspaceRepo) Create(ctx context.Context, ws *workspace.Workspace) error {
	if err := ws.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.workspaces[ws.ID()] = ws
	return nil
}

func (r *fakeWorkspaceRepo) GetByID(ctx context.Context, id uint) (*workspace.Workspace, error) {
	ws, ok := r.workspaces[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("workspace not found")
	}
	return ws, nil
}

func (r *fakeWorkspaceRepo) Update(ctx context.Context, ws *workspace.Workspace) error {
	r.workspaces[ws.ID()] = ws
	return nil
}

type enqueuedJob struct {
	JobType string
	Payload any
	RunAt   time.Time
}

type fakeJobScheduler struct {
	jobs []enqueuedJob
}

func (s *fakeJobScheduler) Enqueue(ctx context.Context, jobType string, payload any, runAt time.Time) error {
	s.jobs = append(s.jobs, enqueuedJob{JobType: jobType, Payload: payload, RunAt: runAt})
	return nil
}

func (s *fakeJobScheduler) byType(jobType string) []enqueuedJob {
	var out []enqueuedJob
	for _, j := range s.jobs {
		if j.JobType == jobType {
			out = append(out, j)
		}
	}
	return out
}

type sentEmail struct {
	Recipient string
	Template  string
	Data      map[string]any
}

type fakeNotifier struct {
	emails []sentEmail
	inApp  []string
}

func (n *fakeNotifier) SendTemplatedEmail(ctx context.Context, recipient, templateKey string, data map[string]any) error {
	n.emails = append(n.emails, sentEmail{Recipient: recipient, Template: templateKey, Data: data})
	return nil
}

func (n *fakeNotifier) SendInAppNotification(ctx context.Context, workspaceID uint, kind string, data map[string]any) error {
	n.inApp = append(n.inApp, kind)
	return nil
}

type fakeToggler struct {
	disabled []uint
	enabled  []uint
}

func (f *fakeToggler) DisableAllFeatures(ctx context.Context, workspaceID uint) error {
	f.disabled = append(f.disabled, workspaceID)
	return nil
}

func (f *fakeToggler) EnableAllFeatures(ctx context.Context, workspaceID uint) error {
	f.enabled = append(f.enabled, workspaceID)
	return nil
}

type fakeEventPublisher struct {
	published []events.DomainEvent
}

func (p *fakeEventPublisher) Publish(event events.DomainEvent) error {
	p.published = append(p.published, event)
	return nil
}

func (p *fakeEventPublisher) PublishAll(evts []events.DomainEvent) error {
	p.published = append(p.published, evts...)
	return nil
}

type fakeGateway struct {
	retryPaid   bool
	retryErr    error
	payPaid     bool
	payErr      error
	retryCalls  int
	payCalls    int
	lastInvoice string
}

func (g *fakeGateway) RetryPayment(ctx context.Context, invoiceID string) (bool, error) {
	g.retryCalls++
	g.lastInvoice = invoiceID
	return g.retryPaid, g.retryErr
}

func (g *fakeGateway) PayInvoice(ctx context.Context, invoiceID string) (bool, error) {
	g.payCalls++
	g.lastInvoice = invoiceID
	return g.payPaid, g.payErr
}

func (g *fakeGateway) GetInvoice(ctx context.Context, invoiceID string) (*appbilling.Invoice, error) {
	return nil, nil
}

func (g *fakeGateway) GetUpcomingInvoice(ctx context.Context, customerID string) (*appbilling.Invoice, error) {
	return nil, nil
}

func (g *fakeGateway) CreateOrGetCustomer(ctx context.Context, email, name string) (string, error) {
	return "cus_fake", nil
}

func (g *fakeGateway) CreateSubscription(ctx context.Context, customerID, priceID string) (string, error) {
	return "sub_fake", nil
}

func (g *fakeGateway) UpdateSubscription(ctx context.Context, gatewaySubscriptionID, priceID string) error {
	return nil
}

func (g *fakeGateway) CancelSubscription(ctx context.Context, gatewaySubscriptionID string, atPeriodEnd bool) error {
	return nil
}

func (g *fakeGateway) CreateRefund(ctx context.Context, paymentID string, amountCents int64) error {
	return nil
}

// testEnv bundles the fakes plus the shared services every use case needs.
type testEnv struct {
	subs       *fakeSubscriptionRepo
	plans      *fakePlanRepo
	failures   *fakeFailureRepo
	attempts   *fakeAttemptRepo
	workspaces *fakeWorkspaceRepo
	jobs       *fakeJobScheduler
	notifier   *fakeNotifier
	features   *fakeToggler
	events     *fakeEventPublisher
	gateway    *fakeGateway
	tx         *db.TransactionManager
	schedule   *services.RetrySchedule
	offers     *services.OfferGenerator
	logger     logger.Interface
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	log := logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
	plans := newFakePlanRepo()

	return &testEnv{
		subs:       newFakeSubscriptionRepo(),
		plans:      plans,
		failures:   newFakeFailureRepo(),
		attempts:   newFakeAttemptRepo(),
		workspaces: newFakeWorkspaceRepo(),
		jobs:       &fakeJobScheduler{},
		notifier:   &fakeNotifier{},
		features:   &fakeToggler{},
		events:     &fakeEventPublisher{},
		gateway:    &fakeGateway{},
		tx:         db.NewTransactionManager(gormDB),
		schedule:   services.NewDefaultRetrySchedule(),
		offers:     services.NewOfferGenerator(plans, log),
		logger:     log,
	}
}

func (e *testEnv) seedWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.NewWorkspace("Acme", "billing@acme.test")
	require.NoError(t, err)
	require.NoError(t, e.workspaces.Create(context.Background(), ws))
	return ws
}

func (e *testEnv) seedPlan(t *testing.T, id uint, code, name string, priceCents int64) *subscription.Plan {
	t.Helper()
	plan, err := subscription.ReconstructPlan(id, "plan_"+code, code, name, priceCents, subscription.IntervalMonthly, true, time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, e.plans.Create(context.Background(), plan))
	return plan
}

func (e *testEnv) seedSubscription(t *testing.T, workspaceID, planID uint, status vo.SubscriptionStatus) *subscription.Subscription {
	t.Helper()
	now := time.Now().UTC()
	p := subscription.ReconstructParams{
		ID:                 e.subs.nextID,
		SID:                "sub_test00000000",
		WorkspaceID:        workspaceID,
		PlanID:             planID,
		Status:             status,
		CurrentPeriodStart: now.AddDate(0, 0, -10),
		CurrentPeriodEnd:   now.AddDate(0, 0, 20),
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if status == vo.StatusPastDue {
		grace := now.AddDate(0, 0, 25)
		p.GracePeriodEndsAt = &grace
	}
	sub, err := subscription.Reconstruct(p)
	require.NoError(t, err)
	e.subs.subs[sub.ID()] = sub
	e.subs.nextID++
	return sub
}

func (e *testEnv) seedOpenFailure(t *testing.T, subscriptionID uint, invoiceID string) *billing.PaymentFailure {
	t.Helper()
	failure, err := billing.NewPaymentFailure(subscriptionID, invoiceID, "card declined", "card_declined")
	require.NoError(t, err)
	require.NoError(t, e.failures.Create(context.Background(), failure))
	return failure
}
