package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orgbridge/bulletin-api/internal/dto"
	appErrors "github.com/orgbridge/bulletin-api/pkg/errors"
	"github.com/orgbridge/bulletin-api/pkg/response"
)

type announcementService interface {
	Create(ctx context.Context, req dto.CreateAnnouncementRequest, uploads []dto.FileUpload, userID string, groupID *string) (*dto.AnnouncementDetail, error)
	CreateForGroup(ctx context.Context, req dto.CreateAnnouncementRequest, uploads []dto.FileUpload, userID, groupID string) (*dto.AnnouncementDetail, error)
	ListPublic(ctx context.Context) ([]dto.AnnouncementDetail, error)
}

// AnnouncementHandler manages announcement HTTP endpoints.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(service announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: service}
}

// Create godoc
// @Summary Publish an announcement
// @Tags Announcements
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param content formData string true "Content (HTML)"
// @Param groupId formData string false "Group scope"
// @Param files formData file false "Attachments"
// @Success 201 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	req, uploads, err := bindAnnouncementForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var groupID *string
	if req.GroupID != "" {
		groupID = &req.GroupID
	}
	detail, err := h.service.Create(c.Request.Context(), req, uploads, claims.UserID, groupID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// CreateForGroup godoc
// @Summary Publish an announcement into a group
// @Tags Announcements
// @Accept multipart/form-data
// @Produce json
// @Param groupId path string true "Group ID"
// @Param title formData string true "Title"
// @Param content formData string true "Content (HTML)"
// @Param files formData file false "Attachments"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /announcements/group/{groupId} [post]
func (h *AnnouncementHandler) CreateForGroup(c *gin.Context) {
	req, uploads, err := bindAnnouncementForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	detail, err := h.service.CreateForGroup(c.Request.Context(), req, uploads, claims.UserID, c.Param("groupId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// List godoc
// @Summary List public announcements
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	details, err := h.service.ListPublic(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details)
}

func bindAnnouncementForm(c *gin.Context) (dto.CreateAnnouncementRequest, []dto.FileUpload, error) {
	var req dto.CreateAnnouncementRequest
	if err := c.ShouldBind(&req); err != nil {
		return req, nil, appErrors.Clone(appErrors.ErrValidation, "invalid announcement payload")
	}

	form, err := c.MultipartForm()
	if err != nil {
		// No multipart body means no attachments.
		return req, nil, nil
	}

	var uploads []dto.FileUpload
	for _, header := range form.File["files"] {
		upload, err := readUpload(header)
		if err != nil {
			return req, nil, err
		}
		uploads = append(uploads, upload)
	}
	return req, uploads, nil
}

func readUpload(header *multipart.FileHeader) (dto.FileUpload, error) {
	src, err := header.Open()
	if err != nil {
		return dto.FileUpload{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return dto.FileUpload{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file")
	}
	return dto.FileUpload{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Bytes:    data,
	}, nil
}
