package models

import "time"

// AnnouncementVisibility scopes who can read an announcement.
type AnnouncementVisibility string

const (
	VisibilityPublic  AnnouncementVisibility = "public"
	VisibilityPrivate AnnouncementVisibility = "private"
)

// Announcement represents a persisted announcement row. Rows are immutable
// after creation; there is no update or delete surface.
type Announcement struct {
	ID         string                 `db:"id" json:"id"`
	Title      string                 `db:"title" json:"title"`
	Content    string                 `db:"content" json:"content"`
	Visibility AnnouncementVisibility `db:"visibility" json:"visibility"`
	GroupID    *string                `db:"group_id" json:"group_id,omitempty"`
	UserID     string                 `db:"user_id" json:"user_id"`
	CreatedAt  time.Time              `db:"created_at" json:"created_at"`
}

// VisibilityForGroup derives visibility solely from the presence of a group id.
func VisibilityForGroup(groupID *string) AnnouncementVisibility {
	if groupID != nil && *groupID != "" {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// AnnouncementFile is a stored attachment belonging to one announcement.
type AnnouncementFile struct {
	ID             string `db:"id" json:"id"`
	AnnouncementID string `db:"announcement_id" json:"announcement_id"`
	URL            string `db:"url" json:"url"`
	Name           string `db:"name" json:"name"`
	Type           string `db:"type" json:"type"`
}
