package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgbridge/bulletin-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestCreateAnnouncementWithFiles(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO announcement ").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO announcement_files").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO announcement_files").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	groupID := "g1"
	announcement := &models.Announcement{
		Title:      "Title",
		Content:    "<p>hi</p>",
		Visibility: models.VisibilityPrivate,
		GroupID:    &groupID,
		UserID:     "u1",
	}
	files := []models.AnnouncementFile{
		{URL: "announcement/a-1.png", Name: "a.jpg", Type: "image/jpeg"},
		{URL: "announcement/b-2.png", Name: "b.pdf", Type: "application/pdf"},
	}

	err := repo.Create(context.Background(), announcement, files)
	require.NoError(t, err)
	assert.NotEmpty(t, announcement.ID)
	assert.Equal(t, announcement.ID, files[0].AnnouncementID)
	assert.Equal(t, announcement.ID, files[1].AnnouncementID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAnnouncementRollsBackOnFileError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO announcement ").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO announcement_files").WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	announcement := &models.Announcement{
		Title:      "Title",
		Content:    "body",
		Visibility: models.VisibilityPublic,
		UserID:     "u1",
	}
	files := []models.AnnouncementFile{{URL: "announcement/a-1.png", Name: "a.png", Type: "image/png"}}

	err := repo.Create(context.Background(), announcement, files)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPublicJoinsFilesAndAuthor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	now := time.Now()
	earlier := now.Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "title", "content", "visibility", "group_id", "user_id", "created_at", "author_name", "author_email"}).
		AddRow("a2", "Newest", "body", "public", nil, "u1", now, "Alice", "alice@example.com").
		AddRow("a1", "Older", "body", "public", nil, "u2", earlier, "Bob", "bob@example.com")
	mock.ExpectQuery("SELECT a.id, a.title, a.content").WillReturnRows(rows)

	fileRows := sqlmock.NewRows([]string{"id", "announcement_id", "url", "name", "type"}).
		AddRow("f1", "a2", "announcement/pic-1.png", "pic.png", "image/png")
	mock.ExpectQuery("SELECT id, announcement_id, url, name, type").WillReturnRows(fileRows)

	details, err := repo.ListPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, "a2", details[0].ID)
	assert.Equal(t, "Alice", details[0].Author.FullName)
	require.Len(t, details[0].Files, 1)
	assert.Equal(t, "pic.png", details[0].Files[0].Name)
	assert.Empty(t, details[1].Files)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPublicEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "content", "visibility", "group_id", "user_id", "created_at", "author_name", "author_email"})
	mock.ExpectQuery("SELECT a.id, a.title, a.content").WillReturnRows(rows)

	details, err := repo.ListPublic(context.Background())
	require.NoError(t, err)
	assert.Empty(t, details)
	assert.NoError(t, mock.ExpectationsWereMet())
}
