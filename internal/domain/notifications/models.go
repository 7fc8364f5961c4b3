package notifications

import "time"

type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Settings struct {
	EmailEnabled bool   `json:"emailEnabled"`
	EmailFrom    string `json:"emailFrom"`
}

type EmailRequest struct {
	To       []string
	Subject  string
	Markdown string
	Type     string
}

type EmailResult struct {
	Provider   string `json:"provider"`
	Delivered  bool   `json:"delivered"`
	Recipients int    `json:"recipients"`
	InApp      int    `json:"inAppNotifications"`
}

type ReminderSummary struct {
	FeedbackReminders   int `json:"feedbackReminders"`
	SelfReviewReminders int `json:"selfReviewReminders"`
}
