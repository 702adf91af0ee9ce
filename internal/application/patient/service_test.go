package patient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shefaa-icu/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type memPatients struct {
	rows  map[string]*domain.Patient
	codes map[string]bool
}

func (m *memPatients) Create(_ context.Context, p *domain.Patient) error {
	if m.codes[p.PatientCode] {
		return fmt.Errorf("patient code %s already taken: %w", p.PatientCode, domain.ErrConflict)
	}
	m.codes[p.PatientCode] = true
	cp := *p
	m.rows[p.PatientID] = &cp
	return nil
}

func (m *memPatients) Get(_ context.Context, patientID string) (*domain.Patient, error) {
	if p, ok := m.rows[patientID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("patient not found: %w", domain.ErrNotFound)
}

func (m *memPatients) ListByStatus(_ context.Context, status string) ([]domain.Patient, error) {
	var out []domain.Patient
	for _, p := range m.rows {
		if status == "" || p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPatients) Update(_ context.Context, patientID string, updates map[string]interface{}) error {
	p := m.rows[patientID]
	for k, v := range updates {
		switch k {
		case "condition":
			p.Condition = v.(string)
		case "diagnosis":
			p.Diagnosis = v.(string)
		case "status":
			p.Status = v.(string)
		case "discharged_at":
			at := v.(time.Time)
			p.DischargedAt = &at
		case "attending_doctor_id":
			if v == nil {
				p.AttendingDoctorID = nil
				continue
			}
			doc := v.(string)
			p.AttendingDoctorID = &doc
		}
	}
	return nil
}

type fakeRooms struct {
	patients *memPatients
	rooms    map[string]*domain.Room
	released []string
}

func (f *fakeRooms) Get(_ context.Context, roomID string) (*domain.Room, error) {
	if r, ok := f.rooms[roomID]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("room not found: %w", domain.ErrNotFound)
}

func (f *fakeRooms) AssignPatient(_ context.Context, roomID, patientID string) (*domain.Room, error) {
	r := f.rooms[roomID]
	pid := patientID
	r.PatientID, r.Status = &pid, domain.RoomOccupied
	rid := roomID
	f.patients.rows[patientID].RoomID = &rid
	return r, nil
}

func (f *fakeRooms) Release(_ context.Context, roomID string) (*domain.Room, error) {
	r := f.rooms[roomID]
	if r.PatientID != nil {
		f.patients.rows[*r.PatientID].RoomID = nil
	}
	r.PatientID, r.Status = nil, domain.RoomAvailable
	f.released = append(f.released, roomID)
	return r, nil
}

type fakeStaff map[string]*domain.Staff

func (f fakeStaff) Get(_ context.Context, staffID string) (*domain.Staff, error) {
	if s, ok := f[staffID]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

type sentNotice struct {
	everyone bool
	severity string
}

type fakeNotifier struct{ sent []sentNotice }

func (f *fakeNotifier) NotifyAll(_ context.Context, req domain.BroadcastRequest) (domain.FanOutResult, error) {
	f.sent = append(f.sent, sentNotice{everyone: true, severity: req.Severity})
	return domain.FanOutResult{Sent: 3}, nil
}

func (f *fakeNotifier) NotifyAdmins(_ context.Context, req domain.BroadcastRequest) (domain.FanOutResult, error) {
	f.sent = append(f.sent, sentNotice{severity: req.Severity})
	return domain.FanOutResult{Sent: 1}, nil
}

type fakePublisher struct{ subjects []string }

func (f *fakePublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

// --- helpers ---

type fixture struct {
	svc      Service
	patients *memPatients
	rooms    *fakeRooms
	notifier *fakeNotifier
	events   *fakePublisher
}

func newFixture(random func(int64) (int64, error)) *fixture {
	patients := &memPatients{rows: map[string]*domain.Patient{}, codes: map[string]bool{}}
	rooms := &fakeRooms{patients: patients, rooms: map[string]*domain.Room{
		"r-1": {RoomID: "r-1", RoomNumber: "101", Status: domain.RoomAvailable},
		"r-2": {RoomID: "r-2", RoomNumber: "102", Status: domain.RoomMaintenance},
	}}
	f := &fixture{patients: patients, rooms: rooms, notifier: &fakeNotifier{}, events: &fakePublisher{}}
	f.svc = NewService(ServiceDeps{
		PatientRepo: patients,
		Rooms:       rooms,
		StaffRepo: fakeStaff{
			"doc-1":   {StaffID: "doc-1", Role: domain.RoleDoctor, Enable: 1},
			"nurse-1": {StaffID: "nurse-1", Role: domain.RoleNurse, Enable: 1},
		},
		Notifier:  f.notifier,
		Publisher: f.events,
		Now:       func() time.Time { return time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC) },
		Random:    random,
	})
	return f
}

func sequence(values ...int64) func(int64) (int64, error) {
	i := 0
	return func(int64) (int64, error) {
		v := values[i%len(values)]
		i++
		return v, nil
	}
}

func admitReq() domain.AdmitPatientRequest {
	return domain.AdmitPatientRequest{
		FullName: "Omar Said", DateOfBirth: "1960-04-02", Gender: "Male", Diagnosis: "Sepsis",
	}
}

func strPtr(s string) *string { return &s }

// --- tests ---

func TestAdmit_GeneratesCodeAndDefaults(t *testing.T) {
	f := newFixture(sequence(42))

	p, err := f.svc.Admit(context.Background(), admitReq())
	require.NoError(t, err)
	assert.Equal(t, "ICU-20240110-0042", p.PatientCode)
	assert.Equal(t, domain.PatientAdmitted, p.Status)
	assert.Equal(t, domain.ConditionStable, p.Condition)
	assert.Equal(t, []sentNotice{{severity: domain.SeverityInfo}}, f.notifier.sent)
	assert.Equal(t, []string{domain.EventPatientAdmitted}, f.events.subjects)
}

func TestAdmit_RetriesOnCodeCollision(t *testing.T) {
	f := newFixture(sequence(7, 7, 8))

	first, err := f.svc.Admit(context.Background(), admitReq())
	require.NoError(t, err)
	second, err := f.svc.Admit(context.Background(), admitReq())
	require.NoError(t, err)

	assert.Equal(t, "ICU-20240110-0007", first.PatientCode)
	assert.Equal(t, "ICU-20240110-0008", second.PatientCode)
}

func TestAdmit_GivesUpAfterFiveCollisions(t *testing.T) {
	f := newFixture(sequence(1))
	_, err := f.svc.Admit(context.Background(), admitReq())
	require.NoError(t, err)

	_, err = f.svc.Admit(context.Background(), admitReq())
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, f.patients.rows, 1)
}

func TestAdmit_WithRoom(t *testing.T) {
	f := newFixture(sequence(1))
	req := admitReq()
	req.RoomID = strPtr("r-1")

	p, err := f.svc.Admit(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, p.RoomID)
	assert.Equal(t, "r-1", *p.RoomID)
	assert.Equal(t, domain.RoomOccupied, f.rooms.rooms["r-1"].Status)
}

func TestAdmit_RoomUnavailable(t *testing.T) {
	f := newFixture(sequence(1))
	req := admitReq()
	req.RoomID = strPtr("r-2")

	_, err := f.svc.Admit(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, f.patients.rows)
}

func TestAdmit_AttendingMustBeDoctor(t *testing.T) {
	f := newFixture(sequence(1))
	req := admitReq()
	req.AttendingDoctorID = strPtr("nurse-1")

	_, err := f.svc.Admit(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	req.AttendingDoctorID = strPtr("doc-1")
	_, err = f.svc.Admit(context.Background(), req)
	assert.NoError(t, err)
}

func TestAdmit_Validation(t *testing.T) {
	f := newFixture(sequence(1))
	req := admitReq()
	req.Gender = "Unknown"
	_, err := f.svc.Admit(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdate_CriticalNotifiesEveryone(t *testing.T) {
	f := newFixture(sequence(1))
	p, err := f.svc.Admit(context.Background(), admitReq())
	require.NoError(t, err)
	f.notifier.sent = nil

	got, err := f.svc.Update(context.Background(), p.PatientID, domain.UpdatePatientRequest{Condition: strPtr(domain.ConditionCritical)})
	require.NoError(t, err)
	assert.Equal(t, domain.ConditionCritical, got.Condition)
	assert.Equal(t, []sentNotice{{everyone: true, severity: domain.SeverityCritical}}, f.notifier.sent)

	_, err = f.svc.Update(context.Background(), p.PatientID, domain.UpdatePatientRequest{Condition: strPtr(domain.ConditionCritical)})
	require.NoError(t, err)
	assert.Len(t, f.notifier.sent, 1, "already critical, no second alert")
}

func TestAdmit_BlankDoctorIsUnset(t *testing.T) {
	f := newFixture(sequence(1))
	req := admitReq()
	req.AttendingDoctorID = strPtr("  ")

	p, err := f.svc.Admit(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, p.AttendingDoctorID)
}

func TestUpdate_AttendingDoctor(t *testing.T) {
	f := newFixture(sequence(1))
	req := admitReq()
	req.AttendingDoctorID = strPtr("doc-1")
	p, err := f.svc.Admit(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), p.PatientID, domain.UpdatePatientRequest{AttendingDoctorID: strPtr("nurse-1")})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	got, err := f.svc.Update(context.Background(), p.PatientID, domain.UpdatePatientRequest{AttendingDoctorID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, got.AttendingDoctorID)

	got, err = f.svc.Update(context.Background(), p.PatientID, domain.UpdatePatientRequest{AttendingDoctorID: strPtr("doc-1")})
	require.NoError(t, err)
	require.NotNil(t, got.AttendingDoctorID)
	assert.Equal(t, "doc-1", *got.AttendingDoctorID)
}

func TestDischarge_ReleasesRoom(t *testing.T) {
	f := newFixture(sequence(1))
	req := admitReq()
	req.RoomID = strPtr("r-1")
	p, err := f.svc.Admit(context.Background(), req)
	require.NoError(t, err)

	got, err := f.svc.Discharge(context.Background(), p.PatientID)
	require.NoError(t, err)
	assert.Equal(t, domain.PatientDischarged, got.Status)
	require.NotNil(t, got.DischargedAt)
	assert.Nil(t, got.RoomID)
	assert.Equal(t, []string{"r-1"}, f.rooms.released)
	assert.Contains(t, f.events.subjects, domain.EventPatientDischarged)

	_, err = f.svc.Discharge(context.Background(), p.PatientID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.svc.Update(context.Background(), p.PatientID, domain.UpdatePatientRequest{Diagnosis: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestList_StatusFilter(t *testing.T) {
	f := newFixture(sequence(1, 2))
	a, err := f.svc.Admit(context.Background(), admitReq())
	require.NoError(t, err)
	_, err = f.svc.Admit(context.Background(), admitReq())
	require.NoError(t, err)
	_, err = f.svc.Discharge(context.Background(), a.PatientID)
	require.NoError(t, err)

	admitted, err := f.svc.List(context.Background(), domain.PatientAdmitted)
	require.NoError(t, err)
	assert.Len(t, admitted, 1)

	all, err := f.svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.List(context.Background(), "Transferred")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
