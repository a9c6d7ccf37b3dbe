package dto

import "github.com/orgbridge/bulletin-api/internal/models"

// CreateAnnouncementRequest carries the multipart form fields.
type CreateAnnouncementRequest struct {
	Title   string `form:"title" json:"title" validate:"required"`
	Content string `form:"content" json:"content" validate:"required"`
	GroupID string `form:"groupId" json:"groupId"`
}

// FileUpload is an in-memory descriptor for one uploaded attachment.
type FileUpload struct {
	Name     string
	MimeType string
	Bytes    []byte
}

// Author is the announcement creator as exposed in listings.
type Author struct {
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

// AnnouncementDetail joins an announcement with its files and author.
type AnnouncementDetail struct {
	models.Announcement
	Files  []models.AnnouncementFile `json:"files"`
	Author Author                    `json:"author"`
}
