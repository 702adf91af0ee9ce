package dashboard

import (
	"context"
	"time"

	"github.com/shefaa-icu/internal/domain"
	"golang.org/x/sync/errgroup"
)

type Service interface {
	Summary(ctx context.Context, staffID string) (*domain.DashboardSummary, error)
}

type patientStore interface {
	ListByStatus(ctx context.Context, status string) ([]domain.Patient, error)
}

type roomStore interface {
	List(ctx context.Context) ([]domain.Room, error)
}

type staffStore interface {
	ListActive(ctx context.Context, role string) ([]domain.Staff, error)
}

type scheduleReader interface {
	Day(ctx context.Context, date string) (*domain.DayView, error)
}

type attendanceStore interface {
	ListByDate(ctx context.Context, workDate string) ([]domain.AttendanceLog, error)
}

type notificationCounter interface {
	CountUnread(ctx context.Context, staffID string) (int, error)
}

type service struct {
	patients      patientStore
	rooms         roomStore
	staff         staffStore
	schedules     scheduleReader
	attendance    attendanceStore
	notifications notificationCounter
	now           func() time.Time
}

type ServiceDeps struct {
	PatientRepo      patientStore
	RoomRepo         roomStore
	StaffRepo        staffStore
	Schedules        scheduleReader
	AttendanceRepo   attendanceStore
	NotificationRepo notificationCounter
	Now              func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		patients:      deps.PatientRepo,
		rooms:         deps.RoomRepo,
		staff:         deps.StaffRepo,
		schedules:     deps.Schedules,
		attendance:    deps.AttendanceRepo,
		notifications: deps.NotificationRepo,
		now:           deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Summary gathers every section concurrently; any failing read fails the summary.
func (s *service) Summary(ctx context.Context, staffID string) (*domain.DashboardSummary, error) {
	today := s.now().Format(domain.DateLayout)
	sum := &domain.DashboardSummary{Date: today, StaffByRole: map[string]int{}}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		patients, err := s.patients.ListByStatus(ctx, domain.PatientAdmitted)
		if err != nil {
			return err
		}
		sum.Patients.Admitted = len(patients)
		for _, p := range patients {
			if p.Condition == domain.ConditionCritical {
				sum.Patients.Critical++
			}
		}
		return nil
	})
	g.Go(func() error {
		rooms, err := s.rooms.List(ctx)
		if err != nil {
			return err
		}
		sum.Rooms.Total = len(rooms)
		for i := range rooms {
			switch {
			case rooms[i].Occupied():
				sum.Rooms.Occupied++
			case rooms[i].Status == domain.RoomMaintenance:
				sum.Rooms.Maintenance++
			default:
				sum.Rooms.Available++
			}
		}
		return nil
	})
	byRole := map[string]int{}
	g.Go(func() error {
		members, err := s.staff.ListActive(ctx, "")
		if err != nil {
			return err
		}
		sum.ActiveStaff = len(members)
		for _, m := range members {
			byRole[m.Role]++
		}
		return nil
	})
	g.Go(func() error {
		day, err := s.schedules.Day(ctx, today)
		if err != nil {
			return err
		}
		sum.TodaySchedule = day.Shifts
		return nil
	})
	g.Go(func() error {
		logs, err := s.attendance.ListByDate(ctx, today)
		if err != nil {
			return err
		}
		sum.CheckedInToday = len(logs)
		return nil
	})
	g.Go(func() error {
		n, err := s.notifications.CountUnread(ctx, staffID)
		if err != nil {
			return err
		}
		sum.UnreadNotifications = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	sum.StaffByRole = byRole
	return sum, nil
}
