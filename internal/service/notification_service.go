package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/orgbridge/bulletin-api/internal/models"
	"github.com/orgbridge/bulletin-api/pkg/mailer"
)

type recipientLister interface {
	ListNotifiable(ctx context.Context, groupID *string) ([]string, error)
}

type publicURLResolver interface {
	PublicURL(key string) string
}

// Every recipient receives the same document; nothing is personalized.
const emailTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
<h1>{{.Title}}</h1>
<div>{{.Content}}</div>
{{range .Images}}<img src="{{.}}" alt="attachment" style="max-width: 100%;" />
{{end}}
</body>
</html>`

// NotificationService resolves the audience for an announcement and fans the
// email out per recipient with isolated failures.
type NotificationService struct {
	users    recipientLister
	mailer   mailer.Mailer
	urls     publicURLResolver
	metrics  *MetricsService
	logger   *zap.Logger
	template *template.Template
}

// NewNotificationService constructs the service.
func NewNotificationService(users recipientLister, m mailer.Mailer, urls publicURLResolver, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		users:    users,
		mailer:   m,
		urls:     urls,
		metrics:  metrics,
		logger:   logger,
		template: template.Must(template.New("announcement").Parse(emailTemplate)),
	}
}

// Notify emails every eligible recipient about the announcement. All failures
// are logged and swallowed; a publish never fails because of its notifications.
func (s *NotificationService) Notify(ctx context.Context, announcement *models.Announcement, files []models.AnnouncementFile) {
	recipients, err := s.users.ListNotifiable(ctx, announcement.GroupID)
	if err != nil {
		s.logger.Error("failed to resolve notification audience",
			zap.String("announcement_id", announcement.ID), zap.Error(err))
		return
	}
	if len(recipients) == 0 {
		return
	}

	html, err := s.render(announcement, files)
	if err != nil {
		s.logger.Error("failed to render notification email",
			zap.String("announcement_id", announcement.ID), zap.Error(err))
		return
	}

	subject := fmt.Sprintf("New announcement: %s", announcement.Title)

	var wg sync.WaitGroup
	for _, recipient := range recipients {
		wg.Add(1)
		go func(to string) {
			defer wg.Done()
			if err := s.mailer.Send(ctx, to, subject, html); err != nil {
				s.metrics.RecordEmailSend(false)
				s.logger.Warn("failed to send announcement email",
					zap.String("announcement_id", announcement.ID),
					zap.String("recipient", to), zap.Error(err))
				return
			}
			s.metrics.RecordEmailSend(true)
		}(recipient)
	}
	wg.Wait()
}

type emailData struct {
	Title   string
	Content template.HTML
	Images  []string
}

func (s *NotificationService) render(announcement *models.Announcement, files []models.AnnouncementFile) (string, error) {
	data := emailData{
		Title: announcement.Title,
		// Content is rich text from a trusted author and is embedded verbatim.
		Content: template.HTML(announcement.Content), //nolint:gosec
	}
	for _, f := range files {
		if strings.HasPrefix(f.Type, "image/") {
			data.Images = append(data.Images, s.urls.PublicURL(f.URL))
		}
	}

	var buf bytes.Buffer
	if err := s.template.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
