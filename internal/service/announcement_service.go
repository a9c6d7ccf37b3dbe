package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/orgbridge/bulletin-api/internal/dto"
	"github.com/orgbridge/bulletin-api/internal/models"
	appErrors "github.com/orgbridge/bulletin-api/pkg/errors"
	"github.com/orgbridge/bulletin-api/pkg/storage"
)

const publicListingCacheKey = "announcements:public"

type announcementStore interface {
	Create(ctx context.Context, announcement *models.Announcement, files []models.AnnouncementFile) error
	ListPublic(ctx context.Context) ([]dto.AnnouncementDetail, error)
}

type membershipChecker interface {
	IsMember(ctx context.Context, userID, groupID string) (bool, error)
}

type announcementNotifier interface {
	Notify(ctx context.Context, announcement *models.Announcement, files []models.AnnouncementFile)
}

// AnnouncementService orchestrates the publish pipeline: attachment uploads,
// transactional persistence, notification fan-out, and the public listing.
type AnnouncementService struct {
	repo      announcementStore
	groups    membershipChecker
	store     storage.ObjectStore
	notifier  announcementNotifier
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementStore, groups membershipChecker, store storage.ObjectStore, notifier announcementNotifier, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{
		repo:      repo,
		groups:    groups,
		store:     store,
		notifier:  notifier,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Create publishes an announcement. Uploads run concurrently and any upload
// failure aborts the whole operation; the announcement and its file rows are
// persisted atomically; notification failures never surface to the caller.
func (s *AnnouncementService) Create(ctx context.Context, req dto.CreateAnnouncementRequest, uploads []dto.FileUpload, userID string, groupID *string) (*dto.AnnouncementDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}

	files, err := s.uploadAll(ctx, uploads)
	if err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		Title:      req.Title,
		Content:    req.Content,
		Visibility: models.VisibilityForGroup(groupID),
		GroupID:    normalizeGroupID(groupID),
		UserID:     userID,
	}
	if err := s.repo.Create(ctx, announcement, files); err != nil {
		s.cleanupUploads(ctx, files)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}

	s.invalidateListing(ctx)

	// Sends must survive a client disconnect after the write commits.
	s.notifier.Notify(context.WithoutCancel(ctx), announcement, files)

	detail := &dto.AnnouncementDetail{Announcement: *announcement, Files: files}
	if detail.Files == nil {
		detail.Files = []models.AnnouncementFile{}
	}
	return detail, nil
}

// CreateForGroup verifies the caller's membership before publishing into the group.
func (s *AnnouncementService) CreateForGroup(ctx context.Context, req dto.CreateAnnouncementRequest, uploads []dto.FileUpload, userID, groupID string) (*dto.AnnouncementDetail, error) {
	member, err := s.groups.IsMember(ctx, userID, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group membership")
	}
	if !member {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not a member of this group")
	}
	return s.Create(ctx, req, uploads, userID, &groupID)
}

// ListPublic returns all public announcements newest first, served from cache
// when warm.
func (s *AnnouncementService) ListPublic(ctx context.Context) ([]dto.AnnouncementDetail, error) {
	var cached []dto.AnnouncementDetail
	if hit, _ := s.cache.Get(ctx, publicListingCacheKey, &cached); hit {
		return cached, nil
	}

	details, err := s.repo.ListPublic(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	_ = s.cache.Set(ctx, publicListingCacheKey, details, 0)
	return details, nil
}

// uploadAll pushes every attachment to object storage concurrently. The first
// failure aborts the operation and already-stored keys are removed best effort.
func (s *AnnouncementService) uploadAll(ctx context.Context, uploads []dto.FileUpload) ([]models.AnnouncementFile, error) {
	files := make([]models.AnnouncementFile, len(uploads))
	errs := make([]error, len(uploads))

	var wg sync.WaitGroup
	for i, upload := range uploads {
		wg.Add(1)
		go func(i int, upload dto.FileUpload) {
			defer wg.Done()
			key := storageKey(upload.Name)
			if err := s.store.Upload(ctx, key, upload.Bytes, upload.MimeType); err != nil {
				errs[i] = err
				return
			}
			files[i] = models.AnnouncementFile{
				URL:  key,
				Name: upload.Name,
				Type: upload.MimeType,
			}
		}(i, upload)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			s.cleanupUploads(ctx, files)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upload attachment")
		}
	}
	return files[:len(uploads)], nil
}

func (s *AnnouncementService) cleanupUploads(ctx context.Context, files []models.AnnouncementFile) {
	for _, f := range files {
		if f.URL == "" {
			continue
		}
		if err := s.store.Delete(ctx, f.URL); err != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("key", f.URL), zap.Error(err))
		}
	}
}

func (s *AnnouncementService) invalidateListing(ctx context.Context) {
	if err := s.cache.Delete(ctx, publicListingCacheKey); err != nil {
		s.logger.Warn("failed to invalidate listing cache", zap.Error(err))
	}
}

// storageKey derives the stored object key from the original filename's base.
// Keys keep the legacy fixed .png suffix regardless of the uploaded MIME type;
// derived public URLs depend on this shape.
func storageKey(filename string) string {
	base := filename
	if idx := strings.Index(filename, "."); idx >= 0 {
		base = filename[:idx]
	}
	return fmt.Sprintf("announcement/%s-%d.png", base, time.Now().UnixNano())
}

func normalizeGroupID(groupID *string) *string {
	if groupID == nil || *groupID == "" {
		return nil
	}
	return groupID
}
