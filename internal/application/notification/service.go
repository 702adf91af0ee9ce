package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/infrastructure/websocket"
	"github.com/shefaa-icu/internal/pkg/id"
	"github.com/shefaa-icu/internal/pkg/validate"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service interface {
	NotifyAll(ctx context.Context, req domain.BroadcastRequest) (domain.FanOutResult, error)
	NotifyAdmins(ctx context.Context, req domain.BroadcastRequest) (domain.FanOutResult, error)
	NotifyStaff(ctx context.Context, staffID string, req domain.BroadcastRequest) error
	List(ctx context.Context, staffID string, limit int) ([]domain.Notification, error)
	ListUnread(ctx context.Context, staffID string) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, staffID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID, staffID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, staffID string) (int, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	List(ctx context.Context, staffID string, limit int32) ([]domain.Notification, error)
	ListUnread(ctx context.Context, staffID string) ([]domain.Notification, error)
	CountUnread(ctx context.Context, staffID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID string) error
}

type staffStore interface {
	Get(ctx context.Context, staffID string) (*domain.Staff, error)
	ListActive(ctx context.Context, role string) ([]domain.Staff, error)
}

type pusher interface {
	SendTo(staffID string, msg websocket.Message) int
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type service struct {
	repo   notificationStore
	staff  staffStore
	hub    pusher
	sms    smsSender
	events publisher
	smsOn  bool
	now    func() time.Time
}

type ServiceDeps struct {
	NotificationRepo notificationStore
	StaffRepo        staffStore
	Hub              pusher    // optional
	SMSSender        smsSender // optional
	Publisher        publisher // optional
	SMSEnabled       bool
	Now              func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:   deps.NotificationRepo,
		staff:  deps.StaffRepo,
		hub:    deps.Hub,
		sms:    deps.SMSSender,
		events: deps.Publisher,
		smsOn:  deps.SMSEnabled && deps.SMSSender != nil,
		now:    deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// NotifyAll writes one notification per active staff member (optionally one role).
// A failure for one recipient is logged and counted; the rest still receive it.
func (s *service) NotifyAll(ctx context.Context, req domain.BroadcastRequest) (domain.FanOutResult, error) {
	var res domain.FanOutResult
	if err := validate.Struct(&req); err != nil {
		return res, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	recipients, err := s.staff.ListActive(ctx, req.Role)
	if err != nil {
		return res, err
	}
	for i := range recipients {
		if err := s.deliver(ctx, &recipients[i], req); err != nil {
			slog.Warn("notification delivery failed", "staff_id", recipients[i].StaffID, "err", err)
			res.Failed++
			continue
		}
		res.Sent++
	}
	return res, nil
}

func (s *service) NotifyAdmins(ctx context.Context, req domain.BroadcastRequest) (domain.FanOutResult, error) {
	req.Role = domain.RoleAdmin
	return s.NotifyAll(ctx, req)
}

func (s *service) NotifyStaff(ctx context.Context, staffID string, req domain.BroadcastRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	st, err := s.staff.Get(ctx, staffID)
	if err != nil {
		return err
	}
	return s.deliver(ctx, st, req)
}

// deliver stores the row, then fires the side channels. Only the store
// write decides success.
func (s *service) deliver(ctx context.Context, st *domain.Staff, req domain.BroadcastRequest) error {
	severity := req.Severity
	if severity == "" {
		severity = domain.SeverityInfo
	}
	now := s.now().UTC()
	n := &domain.Notification{
		NotificationID: id.NewAt(now),
		StaffID:        st.StaffID,
		Title:          req.Title,
		Message:        req.Message,
		Severity:       severity,
		Icon:           domain.IconForSeverity(severity),
		Link:           req.Link,
		CreatedAt:      now,
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.SendTo(st.StaffID, websocket.Message{Type: "notification", Data: n})
	}
	if severity == domain.SeverityCritical && s.smsOn && st.Phone != nil && strings.TrimSpace(*st.Phone) != "" {
		if err := s.sms.SendSMS(ctx, *st.Phone, n.Title+": "+n.Message); err != nil {
			slog.Warn("critical sms failed", "staff_id", st.StaffID, "err", err)
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, domain.EventNotificationCreated, n); err != nil {
			slog.Warn("publish event failed", "subject", domain.EventNotificationCreated, "err", err)
		}
	}
	return nil
}

func (s *service) List(ctx context.Context, staffID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.List(ctx, staffID, int32(limit))
}

func (s *service) ListUnread(ctx context.Context, staffID string) ([]domain.Notification, error) {
	return s.repo.ListUnread(ctx, staffID)
}

func (s *service) UnreadCount(ctx context.Context, staffID string) (int, error) {
	return s.repo.CountUnread(ctx, staffID)
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, staffID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.StaffID != staffID {
		return nil, fmt.Errorf("notification belongs to another staff member: %w", domain.ErrForbidden)
	}
	if n.Read == 1 {
		return n, nil
	}
	if err := s.repo.MarkAsRead(ctx, notificationID); err != nil {
		return nil, err
	}
	n.Read = 1
	return n, nil
}

// MarkAllRead marks every unread notification of staffID and returns how many changed.
func (s *service) MarkAllRead(ctx context.Context, staffID string) (int, error) {
	unread, err := s.repo.ListUnread(ctx, staffID)
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, n := range unread {
		if err := s.repo.MarkAsRead(ctx, n.NotificationID); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}
