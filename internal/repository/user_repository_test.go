package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "email_notifications_enabled", "created_at"}).
		AddRow("1", "user@example.com", "hash", "User", true, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, email_notifications_enabled, created_at\nFROM users WHERE email = $1 LIMIT 1")).
		WithArgs("user@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	assert.True(t, user.EmailNotifications)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListNotifiableAllOptedIn(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"email"}).
		AddRow("a@example.com").
		AddRow("b@example.com")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT email FROM users WHERE email_notifications_enabled = true")).
		WillReturnRows(rows)

	emails, err := repo.ListNotifiable(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, emails)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListNotifiableIntersectsGroup(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"email"}).AddRow("member@example.com")
	mock.ExpectQuery("SELECT u.email FROM users u").
		WithArgs("g1").
		WillReturnRows(rows)

	groupID := "g1"
	emails, err := repo.ListNotifiable(context.Background(), &groupID)
	require.NoError(t, err)
	assert.Equal(t, []string{"member@example.com"}, emails)
	assert.NoError(t, mock.ExpectationsWereMet())
}
