package services

import (
	"context"
	"fmt"
	"time"

	"github.com/DebasishBarai/remind-me/metrics"
	"github.com/DebasishBarai/remind-me/models"
	"github.com/rs/zerolog"
)

const (
	dispatchBatchSize = 100

	// A reminder that fails this many times in a row is given up on.
	maxDeliveryAttempts = 5
	retryBaseDelay      = time.Minute
	retryMaxDelay       = time.Hour
)

type DispatchStore interface {
	DueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error)
	GroupPhones(ctx context.Context, groupID string) ([]string, error)
	MarkReminderSent(ctx context.Context, id string) error
	RescheduleReminder(ctx context.Context, id string, next time.Time) error
	RecordDeliveryFailure(ctx context.Context, id string, retryAt time.Time) error
}

// Dispatcher delivers due reminders and moves recurring ones forward.
type Dispatcher struct {
	store  DispatchStore
	sender Sender
	log    zerolog.Logger
	now    func() time.Time
}

func NewDispatcher(store DispatchStore, sender Sender, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		sender: sender,
		log:    log.With().Str("component", "dispatcher").Logger(),
		now:    time.Now,
	}
}

// Run ticks every interval until ctx is cancelled. A panic inside one tick
// is logged and the loop carries on.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	d.log.Info().Dur("interval", interval).Msg("Dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("Dispatcher stopped")
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Msg("Dispatcher tick panic")
		}
	}()
	if _, err := d.RunOnce(ctx); err != nil {
		d.log.Error().Err(err).Msg("Dispatch failed")
	}
}

// RunOnce processes one batch of due reminders and returns how many were
// delivered. A reminder whose delivery fails is held back with an
// exponential delay, and given up after maxDeliveryAttempts failures.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	now := d.now()
	due, err := d.store.DueReminders(ctx, now, dispatchBatchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, r := range due {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		log := d.log.With().Str("reminder_id", r.ID).Str("user_id", r.UserID).Logger()

		phones, err := d.targets(ctx, r)
		if err != nil {
			d.fail(ctx, log, r, now, err)
			continue
		}
		if len(phones) == 0 {
			log.Warn().Msg("Reminder group has no contacts, skipping delivery")
		}
		if err := d.deliver(ctx, phones, FormatReminder(r)); err != nil {
			d.fail(ctx, log, r, now, err)
			continue
		}

		if err := d.advance(ctx, r, now, "sent"); err != nil {
			log.Error().Err(err).Msg("Update reminder after delivery failed")
			continue
		}
		delivered++
		log.Info().Int("recipients", len(phones)).Str("frequency", string(r.Frequency)).Msg("Reminder delivered")
	}
	return delivered, nil
}

func (d *Dispatcher) targets(ctx context.Context, r models.Reminder) ([]string, error) {
	if r.Phone != nil {
		return []string{*r.Phone}, nil
	}
	if r.GroupID == nil {
		return nil, fmt.Errorf("reminder %s has no target", r.ID)
	}
	return d.store.GroupPhones(ctx, *r.GroupID)
}

func (d *Dispatcher) deliver(ctx context.Context, phones []string, text string) error {
	for _, phone := range phones {
		if err := d.sender.Send(ctx, phone, text); err != nil {
			return err
		}
	}
	return nil
}

// fail records a failed delivery. The reminder waits out a growing delay so
// it leaves the front of the due queue; once it has failed
// maxDeliveryAttempts times it is advanced as if it had been sent.
func (d *Dispatcher) fail(ctx context.Context, log zerolog.Logger, r models.Reminder, now time.Time, cause error) {
	attempt := r.Attempts + 1
	if attempt >= maxDeliveryAttempts {
		log.Error().Err(cause).Int("attempts", attempt).Msg("Reminder delivery abandoned")
		if err := d.advance(ctx, r, now, "abandoned"); err != nil {
			log.Error().Err(err).Msg("Update abandoned reminder failed")
		}
		return
	}

	metrics.Dispatches.WithLabelValues("failed").Inc()
	retryAt := now.Add(retryDelay(attempt))
	log.Warn().Err(cause).Int("attempt", attempt).Time("retry_at", retryAt).Msg("Reminder delivery failed, will retry")
	if err := d.store.RecordDeliveryFailure(ctx, r.ID, retryAt); err != nil {
		log.Error().Err(err).Msg("Record delivery failure failed")
	}
}

// retryDelay doubles from retryBaseDelay per attempt, capped at retryMaxDelay.
func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 16 {
		return retryMaxDelay
	}
	delay := retryBaseDelay << (attempt - 1)
	if delay > retryMaxDelay {
		return retryMaxDelay
	}
	return delay
}

// advance marks one-shot reminders done and moves recurring ones to their
// first occurrence after now, so a long outage does not replay every
// missed period.
func (d *Dispatcher) advance(ctx context.Context, r models.Reminder, now time.Time, result string) error {
	next, ok := r.Frequency.Next(r.RemindAt)
	if !ok {
		metrics.Dispatches.WithLabelValues(result).Inc()
		return d.store.MarkReminderSent(ctx, r.ID)
	}
	for !next.After(now) {
		next, _ = r.Frequency.Next(next)
	}
	if result == "sent" {
		result = "rescheduled"
	}
	metrics.Dispatches.WithLabelValues(result).Inc()
	return d.store.RescheduleReminder(ctx, r.ID, next)
}

// FormatReminder renders the WhatsApp message body.
func FormatReminder(r models.Reminder) string {
	return fmt.Sprintf("*%s*\n\n%s", r.Title, r.Message)
}
