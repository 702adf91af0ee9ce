package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/infrastructure/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeRepo struct {
	mu     sync.Mutex
	rows   []domain.Notification
	failOn map[string]bool // staff ids whose writes fail
	marked []string
	limit  int32
}

func (f *fakeRepo) Put(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[n.StaffID] {
		return errors.New("throughput exceeded")
	}
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*domain.Notification, error) {
	for _, n := range f.rows {
		if n.NotificationID == id {
			n := n
			return &n, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) List(_ context.Context, staffID string, limit int32) ([]domain.Notification, error) {
	f.limit = limit
	var out []domain.Notification
	for _, n := range f.rows {
		if n.StaffID == staffID && int32(len(out)) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListUnread(_ context.Context, staffID string) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range f.rows {
		if n.StaffID == staffID && n.Read == 0 {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountUnread(ctx context.Context, staffID string) (int, error) {
	unread, _ := f.ListUnread(ctx, staffID)
	return len(unread), nil
}

func (f *fakeRepo) MarkAsRead(_ context.Context, id string) error {
	for i := range f.rows {
		if f.rows[i].NotificationID == id {
			f.rows[i].Read = 1
		}
	}
	f.marked = append(f.marked, id)
	return nil
}

type mockStaffStore struct{ mock.Mock }

func (m *mockStaffStore) Get(ctx context.Context, staffID string) (*domain.Staff, error) {
	args := m.Called(ctx, staffID)
	if s, _ := args.Get(0).(*domain.Staff); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStaffStore) ListActive(ctx context.Context, role string) ([]domain.Staff, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]domain.Staff), args.Error(1)
}

type fakeHub struct{ pushed []string }

func (h *fakeHub) SendTo(staffID string, _ websocket.Message) int {
	h.pushed = append(h.pushed, staffID)
	return 1
}

type fakeSMS struct{ to []string }

func (f *fakeSMS) SendSMS(_ context.Context, to, _ string) error {
	f.to = append(f.to, to)
	return nil
}

type fakePublisher struct{ subjects []string }

func (f *fakePublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

// --- helpers ---

func strPtr(s string) *string { return &s }

func team() []domain.Staff {
	return []domain.Staff{
		{StaffID: "s1", FullName: "Dr. Salma", Role: domain.RoleDoctor, Phone: strPtr("+201000000001"), Enable: 1},
		{StaffID: "s2", FullName: "Nurse Omar", Role: domain.RoleNurse, Enable: 1},
		{StaffID: "s3", FullName: "Admin Hana", Role: domain.RoleAdmin, Phone: strPtr("+201000000003"), Enable: 1},
	}
}

func newTestService(repo *fakeRepo, staff *mockStaffStore, smsOn bool) (Service, *fakeHub, *fakeSMS, *fakePublisher) {
	hub, sms, pub := &fakeHub{}, &fakeSMS{}, &fakePublisher{}
	svc := NewService(ServiceDeps{
		NotificationRepo: repo,
		StaffRepo:        staff,
		Hub:              hub,
		SMSSender:        sms,
		Publisher:        pub,
		SMSEnabled:       smsOn,
		Now:              func() time.Time { return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC) },
	})
	return svc, hub, sms, pub
}

// --- tests ---

func TestNotifyAll_ContinuesAfterRecipientFailure(t *testing.T) {
	repo := &fakeRepo{failOn: map[string]bool{"s2": true}}
	staff := &mockStaffStore{}
	staff.On("ListActive", mock.Anything, "").Return(team(), nil)
	svc, hub, _, pub := newTestService(repo, staff, false)

	res, err := svc.NotifyAll(context.Background(), domain.BroadcastRequest{Title: "Drill", Message: "Fire drill at 10"})

	require.NoError(t, err)
	assert.Equal(t, domain.FanOutResult{Sent: 2, Failed: 1}, res)
	require.Len(t, repo.rows, 2)
	assert.Equal(t, "s1", repo.rows[0].StaffID)
	assert.Equal(t, "s3", repo.rows[1].StaffID)
	assert.Equal(t, []string{"s1", "s3"}, hub.pushed)
	assert.Len(t, pub.subjects, 2)
	staff.AssertExpectations(t)
}

func TestNotifyAll_IconDerivedFromSeverity(t *testing.T) {
	cases := map[string]string{
		"":                      "fa-info-circle",
		domain.SeverityInfo:     "fa-info-circle",
		domain.SeveritySuccess:  "fa-check-circle",
		domain.SeverityWarning:  "fa-exclamation-triangle",
		domain.SeverityCritical: "fa-exclamation-circle",
	}
	for severity, icon := range cases {
		repo := &fakeRepo{}
		staff := &mockStaffStore{}
		staff.On("ListActive", mock.Anything, "").Return(team()[:1], nil)
		svc, _, _, _ := newTestService(repo, staff, false)

		_, err := svc.NotifyAll(context.Background(), domain.BroadcastRequest{Title: "t", Message: "m", Severity: severity})
		require.NoError(t, err)
		require.Len(t, repo.rows, 1)
		assert.Equal(t, icon, repo.rows[0].Icon, "severity %q", severity)
		assert.NotEmpty(t, repo.rows[0].Severity)
		assert.Equal(t, 0, repo.rows[0].Read)
	}
}

func TestNotifyAll_InvalidSeverityWritesNothing(t *testing.T) {
	repo := &fakeRepo{}
	staff := &mockStaffStore{}
	svc, _, _, _ := newTestService(repo, staff, false)

	_, err := svc.NotifyAll(context.Background(), domain.BroadcastRequest{Title: "t", Message: "m", Severity: "urgent"})

	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.Empty(t, repo.rows)
	staff.AssertNotCalled(t, "ListActive", mock.Anything, mock.Anything)
}

func TestNotifyAll_CriticalSendsSMSToStaffWithPhone(t *testing.T) {
	repo := &fakeRepo{}
	staff := &mockStaffStore{}
	staff.On("ListActive", mock.Anything, "").Return(team(), nil)
	svc, _, sms, _ := newTestService(repo, staff, true)

	_, err := svc.NotifyAll(context.Background(), domain.BroadcastRequest{
		Title: "Code blue", Message: "Room 4", Severity: domain.SeverityCritical,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"+201000000001", "+201000000003"}, sms.to)
}

func TestNotifyAll_SMSDisabled(t *testing.T) {
	repo := &fakeRepo{}
	staff := &mockStaffStore{}
	staff.On("ListActive", mock.Anything, "").Return(team(), nil)
	svc, _, sms, _ := newTestService(repo, staff, false)

	_, err := svc.NotifyAll(context.Background(), domain.BroadcastRequest{
		Title: "Code blue", Message: "Room 4", Severity: domain.SeverityCritical,
	})

	require.NoError(t, err)
	assert.Empty(t, sms.to)
}

func TestNotifyAdmins_RestrictsRole(t *testing.T) {
	repo := &fakeRepo{}
	staff := &mockStaffStore{}
	staff.On("ListActive", mock.Anything, domain.RoleAdmin).Return(team()[2:], nil)
	svc, _, _, _ := newTestService(repo, staff, false)

	res, err := svc.NotifyAdmins(context.Background(), domain.BroadcastRequest{Title: "New patient", Message: "Admitted"})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	staff.AssertExpectations(t)
}

func TestNotifyStaff_UnknownStaff(t *testing.T) {
	staff := &mockStaffStore{}
	staff.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)
	svc, _, _, _ := newTestService(&fakeRepo{}, staff, false)

	err := svc.NotifyStaff(context.Background(), "ghost", domain.BroadcastRequest{Title: "t", Message: "m"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestMarkAsRead_Ownership(t *testing.T) {
	repo := &fakeRepo{rows: []domain.Notification{{NotificationID: "n1", StaffID: "s1"}}}
	svc, _, _, _ := newTestService(repo, &mockStaffStore{}, false)

	_, err := svc.MarkAsRead(context.Background(), "n1", "s2")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	assert.Empty(t, repo.marked)

	n, err := svc.MarkAsRead(context.Background(), "n1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, n.Read)
}

func TestMarkAllRead_AndUnreadCount(t *testing.T) {
	repo := &fakeRepo{rows: []domain.Notification{
		{NotificationID: "n1", StaffID: "s1"},
		{NotificationID: "n2", StaffID: "s1", Read: 1},
		{NotificationID: "n3", StaffID: "s1"},
		{NotificationID: "n4", StaffID: "s2"},
	}}
	svc, _, _, _ := newTestService(repo, &mockStaffStore{}, false)
	ctx := context.Background()

	count, err := svc.UnreadCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	marked, err := svc.MarkAllRead(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	count, err = svc.UnreadCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	count, err = svc.UnreadCount(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestList_ClampsLimit(t *testing.T) {
	repo := &fakeRepo{}
	svc, _, _, _ := newTestService(repo, &mockStaffStore{}, false)

	_, err := svc.List(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(50), repo.limit)

	_, err = svc.List(context.Background(), "s1", 10_000)
	require.NoError(t, err)
	assert.Equal(t, int32(200), repo.limit)
}
