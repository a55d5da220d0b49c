package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/DebasishBarai/remind-me/models"
)

const userColumns = `id, email, password_hash, name, subscription_tier, subscription_end, email_verified, created_at`

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		u    models.User
		hash sql.NullString
		tier string
		end  sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &hash, &u.Name, &tier, &end, &u.EmailVerified, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.PasswordHash = hash.String
	u.SubscriptionTier = models.Tier(tier)
	if end.Valid {
		t := end.Time
		u.SubscriptionEnd = &t
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "db.FindUserByEmail"
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, NormalizeEmail(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "User not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "db.FindUserByID"
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "User not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return u, nil
}

// GetAccessProfile loads only the fields the access policy reads.
func (s *Store) GetAccessProfile(ctx context.Context, userID string) (*models.AccessProfile, error) {
	const op = "db.GetAccessProfile"
	var (
		p    models.AccessProfile
		tier string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, subscription_tier, created_at FROM users WHERE id = $1`, userID,
	).Scan(&p.ID, &tier, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(op, "User not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	p.Tier = models.Tier(tier)
	return &p, nil
}

// CreateUser inserts u, filling in ID, CreatedAt and a free tier when unset.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	const op = "db.CreateUser"
	if u.ID == "" {
		u.ID = s.newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.timestamp()
	} else {
		u.CreatedAt = dbTime(u.CreatedAt)
	}
	if u.SubscriptionTier == "" {
		u.SubscriptionTier = models.TierFree
	}
	u.Email = NormalizeEmail(u.Email)

	var hash sql.NullString
	if u.PasswordHash != "" {
		hash = sql.NullString{String: u.PasswordHash, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, subscription_tier, email_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Email, hash, u.Name, string(u.SubscriptionTier), u.EmailVerified, u.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.New(apperr.ErrConflict, op, "Email already registered")
	}
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	return nil
}

// UpdateUserTier sets the tier and clears any subscription end date.
func (s *Store) UpdateUserTier(ctx context.Context, userID string, tier models.Tier) error {
	const op = "db.UpdateUserTier"
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET subscription_tier = $1, subscription_end = NULL WHERE id = $2`,
		string(tier), userID,
	)
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, op, "", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound(op, "User not found")
	}
	return nil
}
