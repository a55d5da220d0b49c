package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/config"
	"github.com/DebasishBarai/remind-me/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	mu            sync.Mutex
	created       []OrderRequest
	captured      []string
	captureStatus string
	createErr     error
	captureErr    error
}

func (f *fakeProcessor) CreateOrder(_ context.Context, req OrderRequest) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &Order{ID: "ORDER-1", Status: "CREATED"}, nil
}

func (f *fakeProcessor) CaptureOrder(_ context.Context, orderID string) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	f.captured = append(f.captured, orderID)
	return &Order{ID: orderID, Status: f.captureStatus}, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []models.Tier
	err   error
}

func (n *recordingNotifier) PaymentConfirmed(_ context.Context, _ *models.User, tier models.Tier, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, tier)
	return n.err
}

type paymentFixture struct {
	svc       *PaymentService
	processor *fakeProcessor
	notifier  *recordingNotifier
	user      *models.User
	tier      func() models.Tier
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	store := newTestStore(t)
	user := seedUser(t, store, "payer@example.com")
	prices, err := config.ParsePriceTable("basic:monthly=19,premium:monthly=29,premium:yearly=199")
	require.NoError(t, err)

	processor := &fakeProcessor{captureStatus: OrderStatusCompleted}
	notifier := &recordingNotifier{}
	return &paymentFixture{
		svc:       NewPaymentService(processor, store, prices, "USD", notifier, zerolog.Nop()),
		processor: processor,
		notifier:  notifier,
		user:      user,
		tier: func() models.Tier {
			u, err := store.FindUserByID(context.Background(), user.ID)
			require.NoError(t, err)
			return u.SubscriptionTier
		},
	}
}

func TestCreateUsesConfiguredPrice(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	order, err := f.svc.Create(ctx, f.user.ID, "Premium", "")
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", order.ID)

	_, err = f.svc.Create(ctx, f.user.ID, "premium", "yearly")
	require.NoError(t, err)

	require.Len(t, f.processor.created, 2)
	assert.Equal(t, OrderRequest{Amount: "29.00", Currency: "USD", Description: "RemindMe Premium Plan"}, f.processor.created[0])
	assert.Equal(t, "199.00", f.processor.created[1].Amount)
}

func TestCreateRejectsInvalidPlan(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	for _, plan := range []string{"", "free", "gold"} {
		_, err := f.svc.Create(ctx, f.user.ID, plan, "monthly")
		assert.ErrorIs(t, err, ErrInvalidPlan, plan)
		assert.Equal(t, 400, apperr.Status(err))
	}

	_, err := f.svc.Create(ctx, f.user.ID, "basic", "yearly")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput, "no yearly basic price configured")
	assert.Empty(t, f.processor.created)
}

func TestCreateProcessorFailure(t *testing.T) {
	f := newPaymentFixture(t)
	f.processor.createErr = errors.New("dial tcp: timeout")

	_, err := f.svc.Create(context.Background(), f.user.ID, "basic", "monthly")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Equal(t, "Failed to create PayPal order", apperr.Message(err, ""))
}

func TestCaptureCompletedUpgrades(t *testing.T) {
	f := newPaymentFixture(t)

	require.NoError(t, f.svc.Capture(context.Background(), f.user.ID, "ORDER-1", "premium"))
	assert.Equal(t, models.TierPremium, f.tier())
	assert.Equal(t, []models.Tier{models.TierPremium}, f.notifier.calls)
}

func TestCapturePendingLeavesTier(t *testing.T) {
	f := newPaymentFixture(t)
	f.processor.captureStatus = "PENDING"

	err := f.svc.Capture(context.Background(), f.user.ID, "ORDER-1", "premium")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Equal(t, "Payment not completed", apperr.Message(err, ""))
	assert.Equal(t, models.TierFree, f.tier())
	assert.Empty(t, f.notifier.calls)
}

func TestCaptureProcessorErrorLeavesTier(t *testing.T) {
	f := newPaymentFixture(t)
	f.processor.captureErr = apperr.Upstream("paypal.capture_order", "Order already captured", errors.New("422"))

	err := f.svc.Capture(context.Background(), f.user.ID, "ORDER-1", "basic")
	require.Error(t, err)
	assert.Equal(t, "Order already captured", apperr.Message(err, ""))
	assert.Equal(t, 500, apperr.Status(err))
	assert.Equal(t, models.TierFree, f.tier())
}

func TestCaptureTwiceReappliesTier(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Capture(ctx, f.user.ID, "ORDER-1", "basic"))
	require.NoError(t, f.svc.Capture(ctx, f.user.ID, "ORDER-1", "premium"))

	assert.Equal(t, []string{"ORDER-1", "ORDER-1"}, f.processor.captured)
	assert.Equal(t, models.TierPremium, f.tier())
	assert.Len(t, f.notifier.calls, 2)
}

func TestCaptureValidatesInput(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Capture(ctx, f.user.ID, "ORDER-1", "gold"), ErrInvalidPlan)
	assert.ErrorIs(t, f.svc.Capture(ctx, f.user.ID, "  ", "basic"), apperr.ErrInvalidInput)
	assert.Empty(t, f.processor.captured)
}

func TestCaptureNotifierFailureKeepsUpgrade(t *testing.T) {
	f := newPaymentFixture(t)
	f.notifier.err = errors.New("smtp down")

	require.NoError(t, f.svc.Capture(context.Background(), f.user.ID, "ORDER-1", "basic"))
	assert.Equal(t, models.TierBasic, f.tier())
}

func TestPlanDescription(t *testing.T) {
	assert.Equal(t, "RemindMe Basic Plan", PlanDescription(models.TierBasic))
	assert.Equal(t, "RemindMe Premium Plan", PlanDescription(models.TierPremium))
}
