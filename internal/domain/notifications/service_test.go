package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hris/internal/domain/feedback"
	"hris/internal/domain/performance"
	"hris/internal/platform/email"
)

type created struct {
	userID, ntype, title string
}

type fakeStore struct {
	StoreAPI
	settings Settings
	users    map[string]string
	created  []created
}

func (f *fakeStore) CreateNotification(_ context.Context, _, userID, ntype, title, _ string) error {
	f.created = append(f.created, created{userID, ntype, title})
	return nil
}

func (f *fakeStore) EmailSettings(context.Context, string) (Settings, error) { return f.settings, nil }

func (f *fakeStore) UserEmail(_ context.Context, _, userID string) (string, error) {
	return userID + "@example.com", nil
}

func (f *fakeStore) UserIDsByEmail(context.Context, string, []string) (map[string]string, error) {
	return f.users, nil
}

type fakeMailer struct {
	sent []email.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg email.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) Provider() string { return "http" }

func TestCreateMirrorsEmailOnlyWhenEnabled(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{}
	svc := New(store, mailer, nil, "default@example.com")

	require.NoError(t, svc.Create(context.Background(), "t1", "u1", TypeLeaveApproved, "Approved", "enjoy"))
	assert.Len(t, store.created, 1)
	assert.Empty(t, mailer.sent)

	store.settings = Settings{EmailEnabled: true}
	require.NoError(t, svc.Create(context.Background(), "t1", "u1", TypeLeaveApproved, "Approved", "enjoy"))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "default@example.com", mailer.sent[0].From)
	assert.Equal(t, []string{"u1@example.com"}, mailer.sent[0].To)
}

func TestSendEmailRendersMarkdownAndNotifiesUsers(t *testing.T) {
	store := &fakeStore{users: map[string]string{"ana@example.com": "u-ana"}, settings: Settings{EmailFrom: "hr@example.com"}}
	mailer := &fakeMailer{}
	svc := New(store, mailer, nil, "default@example.com")

	result, err := svc.SendEmail(context.Background(), "t1", EmailRequest{
		To:       []string{"ana@example.com", " outside@example.org "},
		Subject:  "Welcome",
		Markdown: "**hello**",
	})
	require.NoError(t, err)
	assert.True(t, result.Delivered)
	assert.Equal(t, 2, result.Recipients)
	assert.Equal(t, 1, result.InApp)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].HTML, "<strong>hello</strong>")
	assert.Equal(t, "hr@example.com", mailer.sent[0].From)
	require.Len(t, store.created, 1)
	assert.Equal(t, TypeEmail, store.created[0].ntype)
}

func TestSendEmailPropagatesProviderErrors(t *testing.T) {
	svc := New(&fakeStore{}, &fakeMailer{err: email.ErrRateLimited}, nil, "")
	_, err := svc.SendEmail(context.Background(), "t1", EmailRequest{To: []string{"a@b.c"}, Subject: "x"})
	require.True(t, errors.Is(err, email.ErrRateLimited))

	_, err = svc.SendEmail(context.Background(), "t1", EmailRequest{Subject: "x"})
	require.ErrorIs(t, err, ErrNoRecipients)
}

type dueSources struct{}

func (dueSources) RequestsDue(context.Context, string, time.Duration) ([]feedback.Reminder, error) {
	return []feedback.Reminder{{ReviewerUserID: "r1", SubjectName: "Ana", CycleName: "Q1", Deadline: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)}}, nil
}

func (dueSources) SelfReviewsDue(context.Context, string, time.Duration) ([]performance.SelfReviewReminder, error) {
	return []performance.SelfReviewReminder{{UserID: "e1", CycleName: "2025"}, {UserID: "e2", CycleName: "2025"}}, nil
}

func TestSendReminders(t *testing.T) {
	store := &fakeStore{}
	svc := New(store, nil, nil, "")
	summary, err := svc.SendReminders(context.Background(), "t1", dueSources{}, dueSources{}, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ReminderSummary{FeedbackReminders: 1, SelfReviewReminders: 2}, summary)
	assert.Equal(t, TypeFeedbackDue, store.created[0].ntype)
}
