package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/config"
	"github.com/DebasishBarai/remind-me/metrics"
	"github.com/DebasishBarai/remind-me/models"
	"github.com/rs/zerolog"
)

type TierStore interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserTier(ctx context.Context, userID string, tier models.Tier) error
}

// PaymentNotifier is told about completed upgrades. Failures are logged and
// never undo the upgrade.
type PaymentNotifier interface {
	PaymentConfirmed(ctx context.Context, user *models.User, tier models.Tier, orderID string) error
}

// PaymentService runs the create/capture protocol against an OrderProcessor
// and commits the tier change once funds are captured.
type PaymentService struct {
	processor OrderProcessor
	users     TierStore
	prices    config.PriceTable
	currency  string
	notifier  PaymentNotifier
	log       zerolog.Logger
}

func NewPaymentService(processor OrderProcessor, users TierStore, prices config.PriceTable, currency string, notifier PaymentNotifier, log zerolog.Logger) *PaymentService {
	if currency == "" {
		currency = "USD"
	}
	return &PaymentService{
		processor: processor,
		users:     users,
		prices:    prices,
		currency:  currency,
		notifier:  notifier,
		log:       log.With().Str("component", "payment").Logger(),
	}
}

func (s *PaymentService) Prices() []config.PriceEntry {
	return s.prices.Entries()
}

func (s *PaymentService) Currency() string { return s.currency }

// Create opens a pending order for the configured price of plan and cycle.
func (s *PaymentService) Create(ctx context.Context, userID, plan, cycle string) (*Order, error) {
	const op = "payment.create"
	tier, err := ParsePlan(plan)
	if err != nil {
		metrics.PaymentPhases.WithLabelValues("create", "invalid").Inc()
		return nil, err
	}
	if cycle == "" {
		cycle = config.DefaultCycle
	}
	amount, ok := s.prices.Lookup(string(tier), cycle)
	if !ok {
		metrics.PaymentPhases.WithLabelValues("create", "invalid").Inc()
		return nil, apperr.InvalidInput(op, "No price configured for "+string(tier)+" ("+strings.ToLower(cycle)+")")
	}

	start := time.Now()
	order, err := s.processor.CreateOrder(ctx, OrderRequest{
		Amount:      amount,
		Currency:    s.currency,
		Description: PlanDescription(tier),
	})
	metrics.ProcessorDuration.WithLabelValues("create").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PaymentPhases.WithLabelValues("create", "failed").Inc()
		s.log.Error().Err(err).Str("user_id", userID).Str("plan", string(tier)).Msg("Create order failed")
		return nil, asUpstream(op, "Failed to create PayPal order", err)
	}

	metrics.PaymentPhases.WithLabelValues("create", "ok").Inc()
	s.log.Info().Str("user_id", userID).Str("plan", string(tier)).Str("order_id", order.ID).Msg("Order created")
	return order, nil
}

// Capture collects funds for orderID and, only when the processor reports
// COMPLETED, sets the caller's tier to plan. There is no local record of
// captured orders, so a second completed capture writes the tier again.
func (s *PaymentService) Capture(ctx context.Context, userID, orderID, plan string) error {
	const op = "payment.capture"
	tier, err := ParsePlan(plan)
	if err != nil {
		metrics.PaymentPhases.WithLabelValues("capture", "invalid").Inc()
		return err
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		metrics.PaymentPhases.WithLabelValues("capture", "invalid").Inc()
		return apperr.InvalidInput(op, "orderID is required")
	}

	start := time.Now()
	order, err := s.processor.CaptureOrder(ctx, orderID)
	metrics.ProcessorDuration.WithLabelValues("capture").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PaymentPhases.WithLabelValues("capture", "failed").Inc()
		s.log.Error().Err(err).Str("user_id", userID).Str("order_id", orderID).Msg("Capture failed")
		return asUpstream(op, "Payment verification failed", err)
	}
	if order.Status != OrderStatusCompleted {
		metrics.PaymentPhases.WithLabelValues("capture", "incomplete").Inc()
		s.log.Warn().Str("user_id", userID).Str("order_id", orderID).Str("status", order.Status).Msg("Capture not completed")
		return apperr.Upstream(op, "Payment not completed", nil)
	}

	if err := s.users.UpdateUserTier(ctx, userID, tier); err != nil {
		metrics.PaymentPhases.WithLabelValues("capture", "failed").Inc()
		s.log.Error().Err(err).Str("user_id", userID).Str("order_id", orderID).Msg("Tier update after capture failed")
		return err
	}
	metrics.PaymentPhases.WithLabelValues("capture", "ok").Inc()
	metrics.TierChanges.WithLabelValues(string(tier), "capture").Inc()
	s.log.Info().Str("user_id", userID).Str("order_id", orderID).Str("tier", string(tier)).Msg("Subscription upgraded")

	s.confirm(ctx, userID, tier, orderID)
	return nil
}

func (s *PaymentService) confirm(ctx context.Context, userID string, tier models.Tier, orderID string) {
	if s.notifier == nil {
		return
	}
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Skipping payment confirmation")
		return
	}
	if err := s.notifier.PaymentConfirmed(ctx, user, tier, orderID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Payment confirmation not sent")
	}
}

// asUpstream keeps typed errors from the processor and wraps anything else.
func asUpstream(op, fallback string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Upstream(op, fallback, err)
}
