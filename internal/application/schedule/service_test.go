package schedule

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shefaa-icu/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

// memSchedules keys rows by date and slot the same way the table does.
type memSchedules struct {
	mu   sync.Mutex
	rows map[string]domain.ScheduleEntry
}

func newMemSchedules() *memSchedules {
	return &memSchedules{rows: make(map[string]domain.ScheduleEntry)}
}

func rowKey(e *domain.ScheduleEntry) string {
	return e.Date + "|" + domain.SlotKey(e.ShiftType, e.StaffID)
}

func (m *memSchedules) ListByDate(_ context.Context, date string) ([]domain.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ScheduleEntry
	for _, e := range m.rows {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memSchedules) GetByID(_ context.Context, entryID string) (*domain.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.rows {
		if e.EntryID == entryID {
			e := e
			return &e, nil
		}
	}
	return nil, fmt.Errorf("schedule entry not found: %w", domain.ErrNotFound)
}

func (m *memSchedules) InsertMany(_ context.Context, entries []domain.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range entries {
		if _, ok := m.rows[rowKey(&entries[i])]; ok {
			return fmt.Errorf("staff already scheduled: %w", domain.ErrConflict)
		}
	}
	for _, e := range entries {
		m.rows[rowKey(&e)] = e
	}
	return nil
}

func (m *memSchedules) UpdateNotes(_ context.Context, e *domain.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[rowKey(e)] = *e
	return nil
}

func (m *memSchedules) Move(_ context.Context, old, next *domain.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[rowKey(next)]; ok {
		return fmt.Errorf("staff already scheduled: %w", domain.ErrConflict)
	}
	delete(m.rows, rowKey(old))
	m.rows[rowKey(next)] = *next
	return nil
}

func (m *memSchedules) Delete(_ context.Context, e *domain.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, rowKey(e))
	return nil
}

type fakeStaff map[string]*domain.Staff

func (f fakeStaff) Get(_ context.Context, staffID string) (*domain.Staff, error) {
	if s, ok := f[staffID]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

type fakeNotifier struct {
	mu       sync.Mutex
	staffIDs []string
}

func (f *fakeNotifier) NotifyStaff(_ context.Context, staffID string, _ domain.BroadcastRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staffIDs = append(f.staffIDs, staffID)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (f *fakePublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return nil
}

// --- helpers ---

type fixture struct {
	svc      Service
	store    *memSchedules
	notifier *fakeNotifier
	events   *fakePublisher
}

func newFixture() *fixture {
	staff := fakeStaff{
		"S1": {StaffID: "S1", FullName: "Dr. Amal", Role: domain.RoleDoctor, Enable: 1},
		"S2": {StaffID: "S2", FullName: "Nurse Basma", Role: domain.RoleNurse, Enable: 1},
		"S3": {StaffID: "S3", FullName: "Nurse Carim", Role: domain.RoleNurse, Enable: 0},
	}
	f := &fixture{store: newMemSchedules(), notifier: &fakeNotifier{}, events: &fakePublisher{}}
	f.svc = NewService(ServiceDeps{
		ScheduleRepo: f.store,
		StaffRepo:    staff,
		Notifier:     f.notifier,
		Publisher:    f.events,
		Now:          func() time.Time { return time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC) },
	})
	return f
}

func (f *fixture) save(t *testing.T, date, shift string, confirm bool, ids ...string) *domain.ScheduleResult {
	t.Helper()
	res, err := f.svc.SaveSchedule(context.Background(), domain.SaveScheduleRequest{
		Date: date, ShiftType: shift, StaffIDs: ids, Confirm: confirm,
	}, "admin-1")
	require.NoError(t, err)
	return res
}

// --- tests ---

func TestCheckConflicts_SameShiftConflictsOtherShiftWarns(t *testing.T) {
	f := newFixture()
	f.save(t, "2024-01-10", domain.ShiftMorning, false, "S1")

	res, err := f.svc.CheckConflicts(context.Background(), domain.ConflictCheckRequest{
		Date: "2024-01-10", ShiftType: domain.ShiftMorning, StaffIDs: []string{"S1", "S2"},
	})
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "S1", res.Conflicts[0].StaffID)
	assert.Equal(t, []string{"Dr. Amal"}, res.ConflictNames())

	res, err = f.svc.CheckConflicts(context.Background(), domain.ConflictCheckRequest{
		Date: "2024-01-10", ShiftType: domain.ShiftEvening, StaffIDs: []string{"S1"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)
	require.Len(t, res.SameDay, 1)
	assert.Equal(t, domain.ShiftMorning, res.SameDay[0].ShiftType)
}

func TestCheckConflicts_OtherDateIsClear(t *testing.T) {
	f := newFixture()
	f.save(t, "2024-01-10", domain.ShiftMorning, false, "S1")

	res, err := f.svc.CheckConflicts(context.Background(), domain.ConflictCheckRequest{
		Date: "2024-01-11", ShiftType: domain.ShiftMorning, StaffIDs: []string{"S1"},
	})
	require.NoError(t, err)
	assert.False(t, res.NeedsConfirmation())
}

func TestCheckConflicts_ExcludesOwnEntry(t *testing.T) {
	f := newFixture()
	saved := f.save(t, "2024-01-10", domain.ShiftMorning, false, "S1")

	res, err := f.svc.CheckConflicts(context.Background(), domain.ConflictCheckRequest{
		Date: "2024-01-10", ShiftType: domain.ShiftMorning, StaffIDs: []string{"S1"},
		ExcludeEntryID: saved.Entries[0].EntryID,
	})
	require.NoError(t, err)
	assert.False(t, res.NeedsConfirmation())
}

func TestCheckConflicts_InvalidInput(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CheckConflicts(context.Background(), domain.ConflictCheckRequest{
		Date: "10/01/2024", ShiftType: domain.ShiftMorning, StaffIDs: []string{"S1"},
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = f.svc.CheckConflicts(context.Background(), domain.ConflictCheckRequest{
		Date: "2024-01-10", ShiftType: "Afternoon", StaffIDs: []string{"S1"},
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestSaveSchedule_CreatesEntriesAndNotifies(t *testing.T) {
	f := newFixture()
	res := f.save(t, "2024-01-10", domain.ShiftNight, false, "S1", "S2", "S1")

	assert.False(t, res.RequiresConfirmation)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, "Dr. Amal", res.Entries[0].StaffName)
	assert.Equal(t, "admin-1", res.Entries[0].CreatedBy)
	assert.ElementsMatch(t, []string{"S1", "S2"}, f.notifier.staffIDs)
	assert.Equal(t, []string{domain.EventScheduleSaved}, f.events.subjects)
}

func TestSaveSchedule_RequiresConfirmation(t *testing.T) {
	f := newFixture()
	f.save(t, "2024-01-10", domain.ShiftMorning, false, "S1")

	res := f.save(t, "2024-01-10", domain.ShiftMorning, false, "S1", "S2")
	assert.True(t, res.RequiresConfirmation)
	assert.Empty(t, res.Entries)

	rows, _ := f.store.ListByDate(context.Background(), "2024-01-10")
	assert.Len(t, rows, 1, "nothing written without confirmation")
}

func TestSaveSchedule_ConfirmedSkipsConflicting(t *testing.T) {
	f := newFixture()
	f.save(t, "2024-01-10", domain.ShiftMorning, false, "S1")

	res := f.save(t, "2024-01-10", domain.ShiftMorning, true, "S1", "S2")
	assert.False(t, res.RequiresConfirmation)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "S2", res.Entries[0].StaffID)
	require.Len(t, res.Check.Conflicts, 1)

	rows, _ := f.store.ListByDate(context.Background(), "2024-01-10")
	assert.Len(t, rows, 2)
}

func TestSaveSchedule_SameDayWarningNeedsConfirm(t *testing.T) {
	f := newFixture()
	f.save(t, "2024-01-10", domain.ShiftMorning, false, "S1")

	res := f.save(t, "2024-01-10", domain.ShiftEvening, false, "S1")
	assert.True(t, res.RequiresConfirmation)

	res = f.save(t, "2024-01-10", domain.ShiftEvening, true, "S1")
	require.Len(t, res.Entries, 1)
}

func TestSaveSchedule_UnknownOrInactiveStaff(t *testing.T) {
	f := newFixture()
	_, err := f.svc.SaveSchedule(context.Background(), domain.SaveScheduleRequest{
		Date: "2024-01-10", ShiftType: domain.ShiftMorning, StaffIDs: []string{"nobody"},
	}, "admin-1")
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = f.svc.SaveSchedule(context.Background(), domain.SaveScheduleRequest{
		Date: "2024-01-10", ShiftType: domain.ShiftMorning, StaffIDs: []string{"S3"},
	}, "admin-1")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestSaveSchedule_ConcurrentSavesKeepOneRow(t *testing.T) {
	f := newFixture()
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SaveSchedule(context.Background(), domain.SaveScheduleRequest{
				Date: "2024-01-10", ShiftType: domain.ShiftMorning, StaffIDs: []string{"S1"}, Confirm: true,
			}, "admin-1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	rows, _ := f.store.ListByDate(context.Background(), "2024-01-10")
	assert.Len(t, rows, 1)
}

func TestUpdateEntry_NotesOnlyDoesNotConflictWithItself(t *testing.T) {
	f := newFixture()
	saved := f.save(t, "2024-01-10", domain.ShiftMorning, false, "S1")
	entryID := saved.Entries[0].EntryID

	res, err := f.svc.UpdateEntry(context.Background(), entryID, domain.UpdateEntryRequest{
		Date: "2024-01-10", ShiftType: domain.ShiftMorning, StaffID: "S1", Notes: "covering bed 4",
	})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "covering bed 4", res.Entries[0].Notes)

	got, err := f.store.GetByID(context.Background(), entryID)
	require.NoError(t, err)
	assert.Equal(t, "covering bed 4", got.Notes)
}

func TestUpdateEntry_MoveToTakenSlotConflicts(t *testing.T) {
	f := newFixture()
	f.save(t, "2024-01-10", domain.ShiftMorning, false, "S1")
	saved := f.save(t, "2024-01-10", domain.ShiftMorning, false, "S2")

	_, err := f.svc.UpdateEntry(context.Background(), saved.Entries[0].EntryID, domain.UpdateEntryRequest{
		Date: "2024-01-10", ShiftType: domain.ShiftMorning, StaffID: "S1",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdateEntry_MoveKeepsEntryID(t *testing.T) {
	f := newFixture()
	saved := f.save(t, "2024-01-10", domain.ShiftMorning, false, "S1")
	entryID := saved.Entries[0].EntryID

	res, err := f.svc.UpdateEntry(context.Background(), entryID, domain.UpdateEntryRequest{
		Date: "2024-01-12", ShiftType: domain.ShiftNight, StaffID: "S1",
	})
	require.NoError(t, err)
	assert.Equal(t, entryID, res.Entries[0].EntryID)

	old, _ := f.store.ListByDate(context.Background(), "2024-01-10")
	assert.Empty(t, old)
	moved, err := f.store.GetByID(context.Background(), entryID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-12", moved.Date)
	assert.Contains(t, f.events.subjects, domain.EventScheduleUpdated)
}

func TestUpdateEntry_SameDayNeedsConfirm(t *testing.T) {
	f := newFixture()
	f.save(t, "2024-01-10", domain.ShiftMorning, false, "S1")
	saved := f.save(t, "2024-01-11", domain.ShiftMorning, false, "S1")

	res, err := f.svc.UpdateEntry(context.Background(), saved.Entries[0].EntryID, domain.UpdateEntryRequest{
		Date: "2024-01-10", ShiftType: domain.ShiftEvening, StaffID: "S1",
	})
	require.NoError(t, err)
	assert.True(t, res.RequiresConfirmation)

	moved, _ := f.store.GetByID(context.Background(), saved.Entries[0].EntryID)
	assert.Equal(t, "2024-01-11", moved.Date)
}

func TestDeleteEntry(t *testing.T) {
	f := newFixture()
	saved := f.save(t, "2024-01-10", domain.ShiftMorning, false, "S1")

	require.NoError(t, f.svc.DeleteEntry(context.Background(), saved.Entries[0].EntryID))
	err := f.svc.DeleteEntry(context.Background(), saved.Entries[0].EntryID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWeek_MondayToSunday(t *testing.T) {
	f := newFixture()
	f.save(t, "2024-01-10", domain.ShiftEvening, false, "S2", "S1")

	week, err := f.svc.Week(context.Background(), "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", week.WeekStart)
	assert.Equal(t, "2024-01-14", week.WeekEnd)
	require.Len(t, week.Days, 7)
	assert.Equal(t, "Monday", week.Days[0].Weekday)

	wed := week.Days[2]
	assert.Equal(t, "2024-01-10", wed.Date)
	require.Len(t, wed.Shifts, 3)
	evening := wed.Shifts[1]
	assert.Equal(t, domain.ShiftEvening, evening.ShiftType)
	require.Len(t, evening.Entries, 2)
	assert.Equal(t, "Dr. Amal", evening.Entries[0].StaffName)
}

func TestWeekStart_Sunday(t *testing.T) {
	sunday := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-08", WeekStart(sunday).Format(domain.DateLayout))
}

func TestDay_BadDate(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Day(context.Background(), "2024-13-01")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
