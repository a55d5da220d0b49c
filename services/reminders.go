package services

import (
	"context"
	"strings"
	"time"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/models"
)

type ReminderStore interface {
	CreateReminder(ctx context.Context, r *models.Reminder) error
	ListReminders(ctx context.Context, userID string) ([]models.Reminder, error)
	DeleteReminder(ctx context.Context, userID, id string) error
	CountGroupContacts(ctx context.Context, userID, groupID string) (int, error)
}

// ReminderInput is a reminder as submitted by a client.
type ReminderInput struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	DateTime  string `json:"dateTime"`
	Frequency string `json:"frequency"`
	Phone     string `json:"phone"`
	GroupID   string `json:"groupId"`
}

// datetime-local form values carry no zone and are taken as UTC.
var reminderTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

type ReminderService struct {
	store ReminderStore
}

func NewReminderService(store ReminderStore) *ReminderService {
	return &ReminderService{store: store}
}

// Create validates in and stores it as an unsent reminder. Exactly one of
// phone or group must be given, and a group must have at least one contact.
func (s *ReminderService) Create(ctx context.Context, userID string, in ReminderInput) (*models.Reminder, error) {
	const op = "reminders.create"
	title := strings.TrimSpace(in.Title)
	message := strings.TrimSpace(in.Message)
	phone := strings.TrimSpace(in.Phone)
	groupID := strings.TrimSpace(in.GroupID)

	if title == "" || message == "" || strings.TrimSpace(in.DateTime) == "" {
		return nil, apperr.InvalidInput(op, "Missing required fields")
	}
	switch {
	case phone == "" && groupID == "":
		return nil, apperr.InvalidInput(op, "Either phone or groupId is required")
	case phone != "" && groupID != "":
		return nil, apperr.InvalidInput(op, "Provide either phone or groupId, not both")
	}
	if phone != "" {
		normalized, ok := models.NormalizePhone(phone)
		if !ok {
			return nil, apperr.InvalidInput(op, "Invalid phone number")
		}
		phone = normalized
	}

	frequency := models.FrequencyOnce
	if strings.TrimSpace(in.Frequency) != "" {
		f, ok := models.ParseFrequency(in.Frequency)
		if !ok {
			return nil, apperr.InvalidInput(op, "Invalid frequency. Must be once, daily, weekly or monthly")
		}
		frequency = f
	}

	remindAt, err := parseReminderTime(in.DateTime)
	if err != nil {
		return nil, apperr.InvalidInput(op, "Invalid dateTime")
	}

	r := &models.Reminder{
		UserID:    userID,
		Title:     title,
		Message:   message,
		RemindAt:  remindAt,
		Frequency: frequency,
	}
	if groupID != "" {
		n, err := s.store.CountGroupContacts(ctx, userID, groupID)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, apperr.InvalidInput(op, "Group has no contacts")
		}
		r.GroupID = &groupID
	} else {
		r.Phone = &phone
	}

	if err := s.store.CreateReminder(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReminderService) List(ctx context.Context, userID string) ([]models.Reminder, error) {
	return s.store.ListReminders(ctx, userID)
}

func (s *ReminderService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteReminder(ctx, userID, id)
}

func parseReminderTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range reminderTimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
