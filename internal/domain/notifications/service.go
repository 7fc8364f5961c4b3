package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hris/internal/domain/feedback"
	"hris/internal/domain/performance"
	"hris/internal/platform/email"
	"hris/internal/platform/events"
	"hris/internal/platform/localdate"
	"hris/internal/platform/requestctx"
)

type Service struct {
	store       StoreAPI
	mailer      email.Mailer
	events      events.Publisher
	defaultFrom string
}

func New(store StoreAPI, mailer email.Mailer, publisher events.Publisher, defaultFrom string) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{store: store, mailer: mailer, events: publisher, defaultFrom: defaultFrom}
}

// Create stores an in-app notification and mirrors it by email when the tenant enabled it.
// Email failures are logged, never returned.
func (s *Service) Create(ctx context.Context, tenantID, userID, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, tenantID, userID, ntype, title, body); err != nil {
		return err
	}
	if s.mailer == nil {
		return nil
	}
	settings, err := s.store.EmailSettings(ctx, tenantID)
	if err != nil || !settings.EmailEnabled {
		return nil
	}
	logger := requestctx.Logger(ctx)
	address, err := s.store.UserEmail(ctx, tenantID, userID)
	if err != nil || address == "" {
		logger.Warn("notification email lookup failed", "userId", userID, "err", err)
		return nil
	}
	msg := email.Message{From: s.from(settings), To: []string{address}, Subject: title, Text: body}
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.Warn("notification email send failed", "userId", userID, "err", err)
	}
	return nil
}

func (s *Service) from(settings Settings) string {
	if settings.EmailFrom != "" {
		return settings.EmailFrom
	}
	return s.defaultFrom
}

func (s *Service) List(ctx context.Context, tenantID, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, tenantID, userID, limit, offset)
}

func (s *Service) Count(ctx context.Context, tenantID, userID string) (int, error) {
	return s.store.CountNotifications(ctx, tenantID, userID)
}

func (s *Service) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	return s.store.MarkRead(ctx, tenantID, userID, notificationID)
}

func (s *Service) GetSettings(ctx context.Context, tenantID string) (Settings, error) {
	return s.store.EmailSettings(ctx, tenantID)
}

func (s *Service) UpdateSettings(ctx context.Context, tenantID string, settings Settings) error {
	settings.EmailFrom = strings.TrimSpace(settings.EmailFrom)
	return s.store.UpdateSettings(ctx, tenantID, settings)
}

// SendEmail renders markdown to HTML and delivers it through the configured provider.
// Recipients who are tenant users also get an in-app notification. Provider errors
// such as email.ErrRateLimited are returned unchanged.
func (s *Service) SendEmail(ctx context.Context, tenantID string, req EmailRequest) (EmailResult, error) {
	var to []string
	for _, addr := range req.To {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			to = append(to, trimmed)
		}
	}
	if len(to) == 0 {
		return EmailResult{}, ErrNoRecipients
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return EmailResult{}, ErrSubjectRequired
	}
	html, err := email.RenderMarkdown(req.Markdown)
	if err != nil {
		return EmailResult{}, err
	}
	settings, err := s.store.EmailSettings(ctx, tenantID)
	if err != nil {
		return EmailResult{}, err
	}

	result := EmailResult{Provider: s.mailer.Provider(), Recipients: len(to)}
	if err := s.mailer.Send(ctx, email.Message{From: s.from(settings), To: to, Subject: subject, Text: req.Markdown, HTML: html}); err != nil {
		return result, fmt.Errorf("send email: %w", err)
	}
	result.Delivered = true

	userIDs, err := s.store.UserIDsByEmail(ctx, tenantID, to)
	if err != nil {
		return result, err
	}
	ntype := req.Type
	if ntype == "" {
		ntype = TypeEmail
	}
	for _, userID := range userIDs {
		if err := s.store.CreateNotification(ctx, tenantID, userID, ntype, subject, req.Markdown); err != nil {
			return result, err
		}
		result.InApp++
	}
	events.Emit(ctx, s.events, events.Event{
		Type:     events.EmailSent,
		TenantID: tenantID,
		Payload:  map[string]any{"subject": subject, "recipients": len(to), "provider": result.Provider},
	})
	return result, nil
}

type FeedbackDueSource interface {
	RequestsDue(ctx context.Context, tenantID string, window time.Duration) ([]feedback.Reminder, error)
}

type SelfReviewDueSource interface {
	SelfReviewsDue(ctx context.Context, tenantID string, window time.Duration) ([]performance.SelfReviewReminder, error)
}

// SendReminders notifies reviewers with feedback due and employees with a self review due within window.
func (s *Service) SendReminders(ctx context.Context, tenantID string, fb FeedbackDueSource, perf SelfReviewDueSource, window time.Duration) (ReminderSummary, error) {
	var summary ReminderSummary
	if fb != nil {
		due, err := fb.RequestsDue(ctx, tenantID, window)
		if err != nil {
			return summary, err
		}
		for _, r := range due {
			body := fmt.Sprintf("Your feedback for %s in %s is due on %s.", r.SubjectName, r.CycleName, localdate.ToDateString(r.Deadline))
			if err := s.Create(ctx, tenantID, r.ReviewerUserID, TypeFeedbackDue, "Feedback due soon", body); err != nil {
				return summary, err
			}
			summary.FeedbackReminders++
		}
	}
	if perf != nil {
		due, err := perf.SelfReviewsDue(ctx, tenantID, window)
		if err != nil {
			return summary, err
		}
		for _, r := range due {
			body := fmt.Sprintf("Your self review for %s is due on %s.", r.CycleName, localdate.ToDateString(r.Deadline))
			if err := s.Create(ctx, tenantID, r.UserID, TypeSelfReviewDue, "Self review due soon", body); err != nil {
				return summary, err
			}
			summary.SelfReviewReminders++
		}
	}
	return summary, nil
}
