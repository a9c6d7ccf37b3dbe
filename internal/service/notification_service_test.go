package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orgbridge/bulletin-api/internal/models"
)

type mockRecipientLister struct {
	emails      []string
	err         error
	lastGroupID *string
}

func (m *mockRecipientLister) ListNotifiable(ctx context.Context, groupID *string) ([]string, error) {
	m.lastGroupID = groupID
	return m.emails, m.err
}

type mockMailer struct {
	mu      sync.Mutex
	sent    []string
	lastSub string
	lastNTM string
	failFor string
}

func (m *mockMailer) Send(ctx context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if to == m.failFor {
		return errors.New("smtp rejected")
	}
	m.sent = append(m.sent, to)
	m.lastSub = subject
	m.lastNTM = html
	return nil
}

type staticURLs struct{}

func (staticURLs) PublicURL(key string) string { return "https://cdn.example.com/" + key }

func newNotificationService(users *mockRecipientLister, m *mockMailer) *NotificationService {
	return NewNotificationService(users, m, staticURLs{}, nil, zap.NewNop())
}

func TestNotifySendsToEveryRecipient(t *testing.T) {
	users := &mockRecipientLister{emails: []string{"a@example.com", "b@example.com", "c@example.com"}}
	mail := &mockMailer{}
	svc := newNotificationService(users, mail)

	svc.Notify(context.Background(), &models.Announcement{ID: "a1", Title: "Hello", Content: "<p>hi</p>"}, nil)

	assert.Len(t, mail.sent, 3)
	assert.Equal(t, "New announcement: Hello", mail.lastSub)
	assert.Contains(t, mail.lastNTM, "<p>hi</p>")
}

func TestNotifyPassesGroupScope(t *testing.T) {
	users := &mockRecipientLister{emails: []string{"member@example.com"}}
	mail := &mockMailer{}
	svc := newNotificationService(users, mail)

	groupID := "g1"
	svc.Notify(context.Background(), &models.Announcement{ID: "a1", Title: "T", Content: "c", GroupID: &groupID}, nil)

	require.NotNil(t, users.lastGroupID)
	assert.Equal(t, "g1", *users.lastGroupID)
}

func TestNotifyEmptyAudienceShortCircuits(t *testing.T) {
	users := &mockRecipientLister{emails: nil}
	mail := &mockMailer{}
	svc := newNotificationService(users, mail)

	svc.Notify(context.Background(), &models.Announcement{ID: "a1", Title: "T", Content: "c"}, nil)

	assert.Empty(t, mail.sent)
}

func TestNotifyIsolatesPerRecipientFailures(t *testing.T) {
	users := &mockRecipientLister{emails: []string{"ok1@example.com", "broken@example.com", "ok2@example.com"}}
	mail := &mockMailer{failFor: "broken@example.com"}
	svc := newNotificationService(users, mail)

	svc.Notify(context.Background(), &models.Announcement{ID: "a1", Title: "T", Content: "c"}, nil)

	assert.Len(t, mail.sent, 2)
	assert.NotContains(t, mail.sent, "broken@example.com")
}

func TestNotifySwallowsAudienceErrors(t *testing.T) {
	users := &mockRecipientLister{err: errors.New("db down")}
	mail := &mockMailer{}
	svc := newNotificationService(users, mail)

	// Must not panic and must not send.
	svc.Notify(context.Background(), &models.Announcement{ID: "a1", Title: "T", Content: "c"}, nil)
	assert.Empty(t, mail.sent)
}

func TestNotifyEmbedsOnlyImageAttachments(t *testing.T) {
	users := &mockRecipientLister{emails: []string{"a@example.com"}}
	mail := &mockMailer{}
	svc := newNotificationService(users, mail)

	files := []models.AnnouncementFile{
		{URL: "announcement/pic-1.png", Name: "pic.png", Type: "image/png"},
		{URL: "announcement/doc-2.png", Name: "doc.pdf", Type: "application/pdf"},
	}
	svc.Notify(context.Background(), &models.Announcement{ID: "a1", Title: "T", Content: "c"}, files)

	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.lastNTM, "https://cdn.example.com/announcement/pic-1.png")
	assert.NotContains(t, mail.lastNTM, "doc-2")
}
