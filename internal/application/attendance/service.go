package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shefaa-icu/internal/domain"
)

// maxRangeDays caps ListByStaff so one request cannot page a whole year.
const maxRangeDays = 92

type Service interface {
	CheckIn(ctx context.Context, staffID string) (*domain.AttendanceLog, error)
	CheckOut(ctx context.Context, staffID string) (*domain.AttendanceLog, error)
	ListByDate(ctx context.Context, date string) ([]domain.AttendanceLog, error)
	ListByStaff(ctx context.Context, staffID, from, to string) ([]domain.AttendanceLog, error)
}

type attendanceStore interface {
	CheckIn(ctx context.Context, l *domain.AttendanceLog) error
	Get(ctx context.Context, staffID, workDate string) (*domain.AttendanceLog, error)
	CheckOut(ctx context.Context, staffID, workDate string, at time.Time, workedMinutes int) error
	ListByDate(ctx context.Context, workDate string) ([]domain.AttendanceLog, error)
	ListByStaff(ctx context.Context, staffID, from, to string) ([]domain.AttendanceLog, error)
}

type staffStore interface {
	Get(ctx context.Context, staffID string) (*domain.Staff, error)
}

type service struct {
	repo  attendanceStore
	staff staffStore
	now   func() time.Time
}

type ServiceDeps struct {
	AttendanceRepo attendanceStore
	StaffRepo      staffStore
	Now            func() time.Time // work dates follow this clock's location
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.AttendanceRepo, staff: deps.StaffRepo, now: deps.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) CheckIn(ctx context.Context, staffID string) (*domain.AttendanceLog, error) {
	st, err := s.staff.Get(ctx, staffID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	l := &domain.AttendanceLog{
		StaffID:   staffID,
		WorkDate:  now.Format(domain.DateLayout),
		StaffName: st.FullName,
		CheckIn:   now.UTC(),
	}
	if err := s.repo.CheckIn(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *service) CheckOut(ctx context.Context, staffID string) (*domain.AttendanceLog, error) {
	now := s.now()
	today := now.Format(domain.DateLayout)
	l, err := s.repo.Get(ctx, staffID, today)
	if err != nil {
		return nil, err
	}
	if l.CheckOut != nil {
		return nil, fmt.Errorf("already checked out today: %w", domain.ErrConflict)
	}
	out := now.UTC()
	minutes := int(out.Sub(l.CheckIn).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	if err := s.repo.CheckOut(ctx, staffID, today, out, minutes); err != nil {
		return nil, err
	}
	l.CheckOut = &out
	l.WorkedMinutes = minutes
	return l, nil
}

func (s *service) ListByDate(ctx context.Context, date string) ([]domain.AttendanceLog, error) {
	if date == "" {
		date = s.now().Format(domain.DateLayout)
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, fmt.Errorf("date must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
	}
	logs, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].CheckIn.Before(logs[j].CheckIn) })
	return logs, nil
}

// ListByStaff defaults to the 30 days ending today.
func (s *service) ListByStaff(ctx context.Context, staffID, from, to string) ([]domain.AttendanceLog, error) {
	if _, err := s.staff.Get(ctx, staffID); err != nil {
		return nil, err
	}
	end := s.now()
	if to != "" {
		t, err := time.Parse(domain.DateLayout, to)
		if err != nil {
			return nil, fmt.Errorf("to must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
		}
		end = t
	}
	start := end.AddDate(0, 0, -30)
	if from != "" {
		f, err := time.Parse(domain.DateLayout, from)
		if err != nil {
			return nil, fmt.Errorf("from must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
		}
		start = f
	}
	fromDate, toDate := start.Format(domain.DateLayout), end.Format(domain.DateLayout)
	if fromDate > toDate {
		return nil, fmt.Errorf("from must not be after to: %w", domain.ErrBadRequest)
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("range must not exceed %d days: %w", maxRangeDays, domain.ErrBadRequest)
	}
	return s.repo.ListByStaff(ctx, staffID, fromDate, toDate)
}
