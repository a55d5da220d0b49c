package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/models"
)

// ListGroups returns the user's groups with their members.
func (s *Store) ListGroups(ctx context.Context, userID string) ([]models.Group, error) {
	const op = "db.ListGroups"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM contact_groups WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}

	groups := []models.Group{}
	index := map[string]int{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.CreatedAt); err != nil {
			rows.Close()
			return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
		g.Contacts = []models.Contact{}
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}

	members, err := s.db.QueryContext(ctx, `
		SELECT gc.group_id, c.id, c.user_id, c.name, c.phone, c.created_at
		FROM group_contacts gc
		JOIN contacts c ON c.id = gc.contact_id
		JOIN contact_groups g ON g.id = gc.group_id
		WHERE g.user_id = $1
		ORDER BY c.name ASC
	`, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	defer members.Close()
	for members.Next() {
		var (
			groupID string
			c       models.Contact
		)
		if err := members.Scan(&groupID, &c.ID, &c.UserID, &c.Name, &c.Phone, &c.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
		if i, ok := index[groupID]; ok {
			groups[i].Contacts = append(groups[i].Contacts, c)
		}
	}
	if err := members.Err(); err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return groups, nil
}

func (s *Store) GetGroup(ctx context.Context, userID, id string) (*models.Group, error) {
	const op = "db.GetGroup"
	var g models.Group
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM contact_groups WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&g.ID, &g.UserID, &g.Name, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "Group not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.name, c.phone, c.created_at
		FROM group_contacts gc JOIN contacts c ON c.id = gc.contact_id
		WHERE gc.group_id = $1
		ORDER BY c.name ASC
	`, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	defer rows.Close()

	g.Contacts = []models.Contact{}
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
		g.Contacts = append(g.Contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return &g, nil
}

func (s *Store) CreateGroup(ctx context.Context, g *models.Group) error {
	const op = "db.CreateGroup"
	g.ID = s.newID()
	g.CreatedAt = s.timestamp()
	if g.Contacts == nil {
		g.Contacts = []models.Contact{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contact_groups (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		g.ID, g.UserID, g.Name, g.CreatedAt,
	)
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return nil
}

// DeleteGroup removes the group, its memberships and the reminders that
// target it. Member contacts are kept.
func (s *Store) DeleteGroup(ctx context.Context, userID, id string) error {
	const op = "db.DeleteGroup"
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := groupOwned(ctx, tx, op, userID, id); err != nil {
			return err
		}
		for _, stmt := range []string{
			`DELETE FROM reminders WHERE group_id = $1`,
			`DELETE FROM group_contacts WHERE group_id = $1`,
			`DELETE FROM contact_groups WHERE id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return apperr.Wrap(apperr.ErrInternal, op, "", err)
			}
		}
		return nil
	})
}

// AddGroupContact links an existing contact of the user to the group.
// Adding a contact that is already a member is a no-op.
func (s *Store) AddGroupContact(ctx context.Context, userID, groupID, contactID string) error {
	const op = "db.AddGroupContact"
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := groupOwned(ctx, tx, op, userID, groupID); err != nil {
			return err
		}
		return linkContact(ctx, tx, op, userID, groupID, contactID)
	})
}

// AddNewGroupContact creates a contact and adds it to the group atomically.
func (s *Store) AddNewGroupContact(ctx context.Context, userID, groupID string, c *models.Contact) error {
	const op = "db.AddNewGroupContact"
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := groupOwned(ctx, tx, op, userID, groupID); err != nil {
			return err
		}
		c.UserID = userID
		if err := s.insertContact(ctx, tx, c); err != nil {
			return err
		}
		return linkContact(ctx, tx, op, userID, groupID, c.ID)
	})
}

func (s *Store) RemoveGroupContact(ctx context.Context, userID, groupID, contactID string) error {
	const op = "db.RemoveGroupContact"
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := groupOwned(ctx, tx, op, userID, groupID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM group_contacts WHERE group_id = $1 AND contact_id = $2`, groupID, contactID)
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound(op, "Contact is not in this group")
		}
		return nil
	})
}

// CountGroupContacts returns the member count of a group owned by userID.
func (s *Store) CountGroupContacts(ctx context.Context, userID, groupID string) (int, error) {
	const op = "db.CountGroupContacts"
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM contact_groups WHERE id = $1`, groupID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return 0, apperr.NotFound(op, "Group not found")
	}
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_contacts WHERE group_id = $1`, groupID,
	).Scan(&n); err != nil {
		return 0, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return n, nil
}

// GroupPhones lists the phone numbers of every member of a group.
func (s *Store) GroupPhones(ctx context.Context, groupID string) ([]string, error) {
	const op = "db.GroupPhones"
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.phone FROM group_contacts gc JOIN contacts c ON c.id = gc.contact_id
		WHERE gc.group_id = $1
	`, groupID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	defer rows.Close()

	var phones []string
	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
		}
		phones = append(phones, phone)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return phones, nil
}

func groupOwned(ctx context.Context, tx *sql.Tx, op, userID, groupID string) error {
	var exists int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM contact_groups WHERE id = $1 AND user_id = $2`, groupID, userID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(op, "Group not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return nil
}

func linkContact(ctx context.Context, tx *sql.Tx, op, userID, groupID, contactID string) error {
	var exists int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM contacts WHERE id = $1 AND user_id = $2`, contactID, userID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(op, "Contact not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO group_contacts (group_id, contact_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, groupID, contactID); err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return nil
}
