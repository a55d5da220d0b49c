package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/models"
)

const reminderColumns = `id, user_id, title, message, remind_at, frequency, phone, group_id, sent, attempts, retry_at, created_at`

func scanReminder(row interface{ Scan(...any) error }) (*models.Reminder, error) {
	var (
		r         models.Reminder
		frequency string
		phone     sql.NullString
		groupID   sql.NullString
		retryAt   sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Message, &r.RemindAt, &frequency,
		&phone, &groupID, &r.Sent, &r.Attempts, &retryAt, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Frequency = models.Frequency(frequency)
	r.Phone = stringPtr(phone)
	r.GroupID = stringPtr(groupID)
	if retryAt.Valid {
		t := retryAt.Time
		r.RetryAt = &t
	}
	return &r, nil
}

func (s *Store) CreateReminder(ctx context.Context, r *models.Reminder) error {
	const op = "db.CreateReminder"
	r.ID = s.newID()
	r.CreatedAt = s.timestamp()
	r.RemindAt = dbTime(r.RemindAt)
	r.Sent = false
	r.Attempts = 0
	r.RetryAt = nil
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (id, user_id, title, message, remind_at, frequency, phone, group_id, sent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.ID, r.UserID, r.Title, r.Message, r.RemindAt, string(r.Frequency),
		nullString(r.Phone), nullString(r.GroupID), r.Sent, r.CreatedAt)
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return nil
}

// ListReminders returns the user's reminders, newest first.
func (s *Store) ListReminders(ctx context.Context, userID string) ([]models.Reminder, error) {
	const op = "db.ListReminders"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	defer rows.Close()
	return collectReminders(op, rows)
}

func (s *Store) GetReminder(ctx context.Context, userID, id string) (*models.Reminder, error) {
	const op = "db.GetReminder"
	r, err := scanReminder(s.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "Reminder not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return r, nil
}

func (s *Store) DeleteReminder(ctx context.Context, userID, id string) error {
	const op = "db.DeleteReminder"
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(op, "Reminder not found")
	}
	return nil
}

// DueReminders returns unsent reminders whose time is at or before now and
// that are not waiting out a retry delay, oldest first. A retried reminder
// queues by its retry time.
func (s *Store) DueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	const op = "db.DueReminders"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE sent = $1 AND remind_at <= $2 AND (retry_at IS NULL OR retry_at <= $2)
		ORDER BY COALESCE(retry_at, remind_at) ASC
		LIMIT $3
	`, false, dbTime(now), limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	defer rows.Close()
	return collectReminders(op, rows)
}

func (s *Store) MarkReminderSent(ctx context.Context, id string) error {
	const op = "db.MarkReminderSent"
	if _, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET sent = $1, retry_at = NULL WHERE id = $2`, true, id,
	); err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return nil
}

// RescheduleReminder moves a recurring reminder to its next occurrence and
// clears its failure count.
func (s *Store) RescheduleReminder(ctx context.Context, id string, next time.Time) error {
	const op = "db.RescheduleReminder"
	if _, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET remind_at = $1, attempts = 0, retry_at = NULL WHERE id = $2`, dbTime(next), id,
	); err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return nil
}

// RecordDeliveryFailure counts a failed delivery and holds the reminder back
// until retryAt.
func (s *Store) RecordDeliveryFailure(ctx context.Context, id string, retryAt time.Time) error {
	const op = "db.RecordDeliveryFailure"
	if _, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET attempts = attempts + 1, retry_at = $1 WHERE id = $2`, dbTime(retryAt), id,
	); err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return nil
}

func collectReminders(op string, rows *sql.Rows) ([]models.Reminder, error) {
	reminders := []models.Reminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
		reminders = append(reminders, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return reminders, nil
}
