package db

import (
	"context"

	"github.com/DebasishBarai/remind-me/apperr"
)

type Overview struct {
	TotalReminders     int `json:"total_reminders"`
	PendingReminders   int `json:"pending_reminders"`
	SentReminders      int `json:"sent_reminders"`
	RecurringReminders int `json:"recurring_reminders"`
	Contacts           int `json:"contacts"`
	Groups             int `json:"groups"`
}

// StatsOverview counts the user's reminders, contacts and groups.
func (s *Store) StatsOverview(ctx context.Context, userID string) (*Overview, error) {
	const op = "db.StatsOverview"
	var o Overview
	queries := []struct {
		dest  *int
		query string
		args  []any
	}{
		{&o.TotalReminders, `SELECT COUNT(*) FROM reminders WHERE user_id = $1`, []any{userID}},
		{&o.SentReminders, `SELECT COUNT(*) FROM reminders WHERE user_id = $1 AND sent = $2`, []any{userID, true}},
		{&o.RecurringReminders, `SELECT COUNT(*) FROM reminders WHERE user_id = $1 AND frequency <> $2`, []any{userID, "once"}},
		{&o.Contacts, `SELECT COUNT(*) FROM contacts WHERE user_id = $1`, []any{userID}},
		{&o.Groups, `SELECT COUNT(*) FROM contact_groups WHERE user_id = $1`, []any{userID}},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dest); err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
	}
	o.PendingReminders = o.TotalReminders - o.SentReminders
	return &o, nil
}
