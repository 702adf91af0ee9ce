package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/pkg/id"
	"github.com/shefaa-icu/internal/pkg/validate"
)

type Service interface {
	CheckConflicts(ctx context.Context, q domain.ConflictCheckRequest) (*domain.ConflictResult, error)
	SaveSchedule(ctx context.Context, req domain.SaveScheduleRequest, actorID string) (*domain.ScheduleResult, error)
	UpdateEntry(ctx context.Context, entryID string, req domain.UpdateEntryRequest) (*domain.ScheduleResult, error)
	DeleteEntry(ctx context.Context, entryID string) error
	Week(ctx context.Context, anyDate string) (*domain.WeekView, error)
	Day(ctx context.Context, date string) (*domain.DayView, error)
}

type scheduleStore interface {
	ListByDate(ctx context.Context, date string) ([]domain.ScheduleEntry, error)
	GetByID(ctx context.Context, entryID string) (*domain.ScheduleEntry, error)
	InsertMany(ctx context.Context, entries []domain.ScheduleEntry) error
	UpdateNotes(ctx context.Context, e *domain.ScheduleEntry) error
	Move(ctx context.Context, old, next *domain.ScheduleEntry) error
	Delete(ctx context.Context, e *domain.ScheduleEntry) error
}

type staffStore interface {
	Get(ctx context.Context, staffID string) (*domain.Staff, error)
}

type notifier interface {
	NotifyStaff(ctx context.Context, staffID string, req domain.BroadcastRequest) error
}

type publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type service struct {
	repo     scheduleStore
	staff    staffStore
	notifier notifier
	events   publisher
	now      func() time.Time
}

type ServiceDeps struct {
	ScheduleRepo scheduleStore
	StaffRepo    staffStore
	Notifier     notifier  // optional
	Publisher    publisher // optional
	Now          func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:     deps.ScheduleRepo,
		staff:    deps.StaffRepo,
		notifier: deps.Notifier,
		events:   deps.Publisher,
		now:      deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CheckConflicts reads every entry on the date once and classifies each candidate.
// The entry named by ExcludeEntryID is ignored so an edit never conflicts with itself.
func (s *service) CheckConflicts(ctx context.Context, q domain.ConflictCheckRequest) (*domain.ConflictResult, error) {
	if err := validate.Struct(&q); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	entries, err := s.repo.ListByDate(ctx, q.Date)
	if err != nil {
		return nil, err
	}
	return classify(q, entries), nil
}

func classify(q domain.ConflictCheckRequest, entries []domain.ScheduleEntry) *domain.ConflictResult {
	res := &domain.ConflictResult{
		Date:      q.Date,
		ShiftType: q.ShiftType,
		Conflicts: []domain.StaffConflict{},
		SameDay:   []domain.StaffConflict{},
	}
	byStaff := make(map[string][]domain.ScheduleEntry)
	for _, e := range entries {
		if q.ExcludeEntryID != "" && e.EntryID == q.ExcludeEntryID {
			continue
		}
		byStaff[e.StaffID] = append(byStaff[e.StaffID], e)
	}
	for _, staffID := range dedupe(q.StaffIDs) {
		for _, e := range byStaff[staffID] {
			c := domain.StaffConflict{StaffID: e.StaffID, StaffName: e.StaffName, ShiftType: e.ShiftType, EntryID: e.EntryID}
			if e.ShiftType == q.ShiftType {
				res.Conflicts = append(res.Conflicts, c)
			} else {
				res.SameDay = append(res.SameDay, c)
			}
		}
	}
	return res
}

// SaveSchedule schedules every candidate not already in the shift. Without
// Confirm, any conflict or same-day warning stops the save before writing.
func (s *service) SaveSchedule(ctx context.Context, req domain.SaveScheduleRequest, actorID string) (*domain.ScheduleResult, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	staffIDs := dedupe(req.StaffIDs)
	members, err := s.activeStaff(ctx, staffIDs)
	if err != nil {
		return nil, err
	}

	check, err := s.CheckConflicts(ctx, domain.ConflictCheckRequest{
		Date: req.Date, ShiftType: req.ShiftType, StaffIDs: staffIDs,
	})
	if err != nil {
		return nil, err
	}
	if check.NeedsConfirmation() && !req.Confirm {
		return &domain.ScheduleResult{RequiresConfirmation: true, Check: *check, Entries: []domain.ScheduleEntry{}}, nil
	}

	taken := make(map[string]bool, len(check.Conflicts))
	for _, c := range check.Conflicts {
		taken[c.StaffID] = true
	}
	now := s.now().UTC()
	entries := make([]domain.ScheduleEntry, 0, len(members))
	for _, m := range members {
		if taken[m.StaffID] {
			continue
		}
		entries = append(entries, domain.ScheduleEntry{
			EntryID:   id.NewAt(now),
			Date:      req.Date,
			ShiftType: req.ShiftType,
			StaffID:   m.StaffID,
			StaffName: m.FullName,
			StaffRole: m.Role,
			Notes:     strings.TrimSpace(req.Notes),
			CreatedBy: actorID,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err := s.repo.InsertMany(ctx, entries); err != nil {
		return nil, err
	}

	for i := range entries {
		s.notifyScheduled(ctx, &entries[i])
	}
	if len(entries) > 0 {
		s.publish(ctx, domain.EventScheduleSaved, entries)
	}
	return &domain.ScheduleResult{Check: *check, Entries: entries}, nil
}

func (s *service) UpdateEntry(ctx context.Context, entryID string, req domain.UpdateEntryRequest) (*domain.ScheduleResult, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	old, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	members, err := s.activeStaff(ctx, []string{req.StaffID})
	if err != nil {
		return nil, err
	}
	member := members[0]

	check, err := s.CheckConflicts(ctx, domain.ConflictCheckRequest{
		Date: req.Date, ShiftType: req.ShiftType, StaffIDs: []string{req.StaffID}, ExcludeEntryID: entryID,
	})
	if err != nil {
		return nil, err
	}
	if len(check.Conflicts) > 0 {
		return nil, fmt.Errorf("%s is already scheduled for the %s shift on %s: %w",
			member.FullName, req.ShiftType, req.Date, domain.ErrConflict)
	}
	if check.NeedsConfirmation() && !req.Confirm {
		return &domain.ScheduleResult{RequiresConfirmation: true, Check: *check, Entries: []domain.ScheduleEntry{}}, nil
	}

	now := s.now().UTC()
	next := *old
	next.Date = req.Date
	next.ShiftType = req.ShiftType
	next.StaffID = member.StaffID
	next.StaffName = member.FullName
	next.StaffRole = member.Role
	next.Notes = strings.TrimSpace(req.Notes)
	next.UpdatedAt = now

	if next.Date == old.Date && next.ShiftType == old.ShiftType && next.StaffID == old.StaffID {
		if err := s.repo.UpdateNotes(ctx, &next); err != nil {
			return nil, err
		}
	} else {
		if err := s.repo.Move(ctx, old, &next); err != nil {
			return nil, err
		}
		s.notifyScheduled(ctx, &next)
	}
	next.Slot = domain.SlotKey(next.ShiftType, next.StaffID)
	s.publish(ctx, domain.EventScheduleUpdated, next)
	return &domain.ScheduleResult{Check: *check, Entries: []domain.ScheduleEntry{next}}, nil
}

func (s *service) DeleteEntry(ctx context.Context, entryID string) error {
	e, err := s.repo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, e); err != nil {
		return err
	}
	s.publish(ctx, domain.EventScheduleDeleted, e)
	return nil
}

func (s *service) Week(ctx context.Context, anyDate string) (*domain.WeekView, error) {
	d, err := parseDate(anyDate)
	if err != nil {
		return nil, err
	}
	start := WeekStart(d)
	week := &domain.WeekView{
		WeekStart: start.Format(domain.DateLayout),
		WeekEnd:   start.AddDate(0, 0, 6).Format(domain.DateLayout),
		Days:      make([]domain.DayView, 0, 7),
	}
	for i := 0; i < 7; i++ {
		day, err := s.day(ctx, start.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		week.Days = append(week.Days, *day)
	}
	return week, nil
}

func (s *service) Day(ctx context.Context, date string) (*domain.DayView, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	return s.day(ctx, d)
}

func (s *service) day(ctx context.Context, d time.Time) (*domain.DayView, error) {
	date := d.Format(domain.DateLayout)
	entries, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].StaffName < entries[j].StaffName })

	view := &domain.DayView{Date: date, Weekday: d.Weekday().String(), Shifts: make([]domain.ShiftView, 0, len(domain.ShiftTypes))}
	for _, shift := range domain.ShiftTypes {
		sv := domain.ShiftView{ShiftType: shift, Entries: []domain.ScheduleEntry{}}
		for _, e := range entries {
			if e.ShiftType == shift {
				sv.Entries = append(sv.Entries, e)
			}
		}
		view.Shifts = append(view.Shifts, sv)
	}
	return view, nil
}

// activeStaff loads every id, failing on the first unknown or deactivated member.
func (s *service) activeStaff(ctx context.Context, staffIDs []string) ([]domain.Staff, error) {
	members := make([]domain.Staff, 0, len(staffIDs))
	for _, sid := range staffIDs {
		m, err := s.staff.Get(ctx, sid)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("staff member %s not found: %w", sid, domain.ErrBadRequest)
		}
		if err != nil {
			return nil, err
		}
		if !m.Active() {
			return nil, fmt.Errorf("staff member %s is deactivated: %w", m.FullName, domain.ErrBadRequest)
		}
		members = append(members, *m)
	}
	return members, nil
}

func (s *service) notifyScheduled(ctx context.Context, e *domain.ScheduleEntry) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.NotifyStaff(ctx, e.StaffID, domain.BroadcastRequest{
		Title:    "New shift assigned",
		Message:  fmt.Sprintf("You are scheduled for the %s shift on %s.", e.ShiftType, e.Date),
		Severity: domain.SeverityInfo,
		Link:     "/schedules?date=" + e.Date,
	})
	if err != nil {
		slog.Warn("shift notification failed", "staff_id", e.StaffID, "err", err)
	}
}

func (s *service) publish(ctx context.Context, subject string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish event failed", "subject", subject, "err", err)
	}
}

// WeekStart returns the Monday of the week containing d.
func WeekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return time.Date(d.Year(), d.Month(), d.Day()-offset, 0, 0, 0, 0, time.UTC)
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
	}
	return d, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, sid := range ids {
		sid = strings.TrimSpace(sid)
		if sid == "" || seen[sid] {
			continue
		}
		seen[sid] = true
		out = append(out, sid)
	}
	return out
}
