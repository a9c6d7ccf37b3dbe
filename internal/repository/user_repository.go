package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/orgbridge/bulletin-api/internal/models"
)

// UserRepository provides read access to users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns the user with the given email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, email_notifications_enabled, created_at
FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns the user with the given id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, email_notifications_enabled, created_at
FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListNotifiable returns the emails of users who opted into notifications.
// When groupID is non-nil the set is intersected with the group's members.
func (r *UserRepository) ListNotifiable(ctx context.Context, groupID *string) ([]string, error) {
	var emails []string
	if groupID != nil && *groupID != "" {
		const query = `SELECT u.email FROM users u
JOIN group_members gm ON gm.user_id = u.id
WHERE u.email_notifications_enabled = true AND gm.group_id = $1`
		if err := r.db.SelectContext(ctx, &emails, query, *groupID); err != nil {
			return nil, fmt.Errorf("list group recipients: %w", err)
		}
		return emails, nil
	}

	const query = `SELECT email FROM users WHERE email_notifications_enabled = true`
	if err := r.db.SelectContext(ctx, &emails, query); err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return emails, nil
}
