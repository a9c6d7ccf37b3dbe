package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/orgbridge/bulletin-api/internal/dto"
	"github.com/orgbridge/bulletin-api/internal/models"
)

// AnnouncementRepository provides persistence for announcements and their files.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create inserts an announcement and its file rows in one transaction, so a
// failed file insert never leaves a fileless announcement visible.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement, files []models.AnnouncementFile) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create announcement: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertAnnouncement = `INSERT INTO announcement (id, title, content, visibility, group_id, user_id, created_at)
VALUES (:id, :title, :content, :visibility, :group_id, :user_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertAnnouncement, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}

	const insertFile = `INSERT INTO announcement_files (id, announcement_id, url, name, type)
VALUES (:id, :announcement_id, :url, :name, :type)`
	for i := range files {
		if files[i].ID == "" {
			files[i].ID = uuid.NewString()
		}
		files[i].AnnouncementID = announcement.ID
		if _, err := tx.NamedExecContext(ctx, insertFile, files[i]); err != nil {
			return fmt.Errorf("create announcement file: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create announcement: %w", err)
	}
	return nil
}

type announcementRow struct {
	models.Announcement
	AuthorName  string `db:"author_name"`
	AuthorEmail string `db:"author_email"`
}

// ListPublic returns public announcements newest first, each joined with its
// files and the authoring user's name and email.
func (r *AnnouncementRepository) ListPublic(ctx context.Context) ([]dto.AnnouncementDetail, error) {
	const query = `SELECT a.id, a.title, a.content, a.visibility, a.group_id, a.user_id, a.created_at,
u.full_name AS author_name, u.email AS author_email
FROM announcement a
JOIN users u ON u.id = a.user_id
WHERE a.visibility = 'public'
ORDER BY a.created_at DESC`

	var rows []announcementRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list public announcements: %w", err)
	}

	details := make([]dto.AnnouncementDetail, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		details = append(details, dto.AnnouncementDetail{
			Announcement: row.Announcement,
			Files:        []models.AnnouncementFile{},
			Author:       dto.Author{FullName: row.AuthorName, Email: row.AuthorEmail},
		})
		ids = append(ids, row.Announcement.ID)
	}
	if len(ids) == 0 {
		return details, nil
	}

	const fileQuery = `SELECT id, announcement_id, url, name, type
FROM announcement_files WHERE announcement_id = ANY($1)`
	var files []models.AnnouncementFile
	if err := r.db.SelectContext(ctx, &files, fileQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list announcement files: %w", err)
	}

	byAnnouncement := make(map[string][]models.AnnouncementFile, len(ids))
	for _, f := range files {
		byAnnouncement[f.AnnouncementID] = append(byAnnouncement[f.AnnouncementID], f)
	}
	for i := range details {
		if fs, ok := byAnnouncement[details[i].ID]; ok {
			details[i].Files = fs
		}
	}
	return details, nil
}

// ListFiles returns the file rows belonging to one announcement.
func (r *AnnouncementRepository) ListFiles(ctx context.Context, announcementID string) ([]models.AnnouncementFile, error) {
	const query = `SELECT id, announcement_id, url, name, type
FROM announcement_files WHERE announcement_id = $1`
	var files []models.AnnouncementFile
	if err := r.db.SelectContext(ctx, &files, query, announcementID); err != nil {
		return nil, fmt.Errorf("list files for announcement %s: %w", announcementID, err)
	}
	return files, nil
}
