package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/models"
)

// Phone numbers are unique across the whole store, not per user, and are
// compared in their normalized E.164 form.
const (
	msgPhoneTaken   = "Phone number already exists"
	msgPhoneInvalid = "Invalid phone number"
)

func (s *Store) ListContacts(ctx context.Context, userID string) ([]models.Contact, error) {
	const op = "db.ListContacts"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, phone, created_at
		FROM contacts WHERE user_id = $1
		ORDER BY name ASC
	`, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return contacts, nil
}

func (s *Store) GetContact(ctx context.Context, userID, id string) (*models.Contact, error) {
	const op = "db.GetContact"
	var c models.Contact
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, phone, created_at
		FROM contacts WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "Contact not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return &c, nil
}

// CreateContact inserts c. Phone numbers are unique across all users.
func (s *Store) CreateContact(ctx context.Context, c *models.Contact) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.insertContact(ctx, tx, c)
	})
}

func (s *Store) insertContact(ctx context.Context, tx *sql.Tx, c *models.Contact) error {
	const op = "db.CreateContact"
	phone, ok := models.NormalizePhone(c.Phone)
	if !ok {
		return apperr.InvalidInput(op, msgPhoneInvalid)
	}
	c.Phone = phone
	taken, err := phoneTaken(ctx, tx, c.Phone, "")
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	if taken {
		return apperr.InvalidInput(op, msgPhoneTaken)
	}

	c.ID = s.newID()
	c.CreatedAt = s.timestamp()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO contacts (id, user_id, name, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.UserID, c.Name, c.Phone, c.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.InvalidInput(op, msgPhoneTaken)
	}
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return nil
}

func (s *Store) UpdateContact(ctx context.Context, userID, id, name, phone string) (*models.Contact, error) {
	const op = "db.UpdateContact"
	phone, ok := models.NormalizePhone(phone)
	if !ok {
		return nil, apperr.InvalidInput(op, msgPhoneInvalid)
	}
	var updated *models.Contact
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		taken, err := phoneTaken(ctx, tx, phone, id)
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
		if taken {
			return apperr.InvalidInput(op, msgPhoneTaken)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE contacts SET name = $1, phone = $2 WHERE id = $3 AND user_id = $4`,
			name, phone, id, userID,
		)
		if isUniqueViolation(err) {
			return apperr.InvalidInput(op, msgPhoneTaken)
		}
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound(op, "Contact not found")
		}

		var c models.Contact
		if err := tx.QueryRowContext(ctx,
			`SELECT id, user_id, name, phone, created_at FROM contacts WHERE id = $1`, id,
		).Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.CreatedAt); err != nil {
			return apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
		updated = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteContact removes the contact and its group memberships. The groups
// themselves are left in place.
func (s *Store) DeleteContact(ctx context.Context, userID, id string) error {
	const op = "db.DeleteContact"
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM contacts WHERE id = $1 AND user_id = $2`, id, userID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound(op, "Contact not found")
		}
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, op, "", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM group_contacts WHERE contact_id = $1`, id); err != nil {
			return apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id); err != nil {
			return apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
		return nil
	})
}

func phoneTaken(ctx context.Context, tx *sql.Tx, phone, exceptID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM contacts WHERE phone = $1`, phone).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return id != exceptID, nil
}
