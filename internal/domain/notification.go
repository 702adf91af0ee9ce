package domain

import "time"

// Notification severities.
const (
	SeverityInfo     = "info"
	SeveritySuccess  = "success"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	StaffID        string    `json:"staff_id" dynamodbav:"staff_id"`
	Title          string    `json:"title" dynamodbav:"title"`
	Message        string    `json:"message" dynamodbav:"message"`
	Severity       string    `json:"severity" dynamodbav:"severity"`
	Icon           string    `json:"icon" dynamodbav:"icon"`
	Link           string    `json:"link,omitempty" dynamodbav:"link,omitempty"`
	Read           int       `json:"read" dynamodbav:"read"` // 0 | 1, numeric so it can be filtered on
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}

// BroadcastRequest is the admin payload for a fan-out notification.
type BroadcastRequest struct {
	Title    string `json:"title" validate:"required,max=120"`
	Message  string `json:"message" validate:"required,max=1000"`
	Severity string `json:"severity" validate:"omitempty,oneof=info success warning critical"`
	Link     string `json:"link"`
	Role     string `json:"role" validate:"omitempty,oneof=Admin Doctor Nurse"`
}

// IconForSeverity returns the default icon class for a severity.
func IconForSeverity(severity string) string {
	switch severity {
	case SeveritySuccess:
		return "fa-check-circle"
	case SeverityWarning:
		return "fa-exclamation-triangle"
	case SeverityCritical:
		return "fa-exclamation-circle"
	default:
		return "fa-info-circle"
	}
}

// FanOutResult counts the outcome of a multi-recipient notification.
type FanOutResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
