package patient

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/pkg/id"
	"github.com/shefaa-icu/internal/pkg/validate"
)

// codeAttempts bounds how many patient codes Admit tries before giving up.
const codeAttempts = 5

type Service interface {
	Admit(ctx context.Context, req domain.AdmitPatientRequest) (*domain.Patient, error)
	List(ctx context.Context, status string) ([]domain.Patient, error)
	Get(ctx context.Context, patientID string) (*domain.Patient, error)
	Update(ctx context.Context, patientID string, req domain.UpdatePatientRequest) (*domain.Patient, error)
	Discharge(ctx context.Context, patientID string) (*domain.Patient, error)
}

type patientStore interface {
	Create(ctx context.Context, p *domain.Patient) error
	Get(ctx context.Context, patientID string) (*domain.Patient, error)
	ListByStatus(ctx context.Context, status string) ([]domain.Patient, error)
	Update(ctx context.Context, patientID string, updates map[string]interface{}) error
}

type roomService interface {
	Get(ctx context.Context, roomID string) (*domain.Room, error)
	AssignPatient(ctx context.Context, roomID, patientID string) (*domain.Room, error)
	Release(ctx context.Context, roomID string) (*domain.Room, error)
}

type staffStore interface {
	Get(ctx context.Context, staffID string) (*domain.Staff, error)
}

type notifier interface {
	NotifyAll(ctx context.Context, req domain.BroadcastRequest) (domain.FanOutResult, error)
	NotifyAdmins(ctx context.Context, req domain.BroadcastRequest) (domain.FanOutResult, error)
}

type publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type service struct {
	repo     patientStore
	rooms    roomService
	staff    staffStore
	notifier notifier
	events   publisher
	now      func() time.Time
	random   func(max int64) (int64, error)
}

type ServiceDeps struct {
	PatientRepo patientStore
	Rooms       roomService
	StaffRepo   staffStore
	Notifier    notifier  // optional
	Publisher   publisher // optional
	Now         func() time.Time
	Random      func(max int64) (int64, error) // defaults to crypto/rand
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:     deps.PatientRepo,
		rooms:    deps.Rooms,
		staff:    deps.StaffRepo,
		notifier: deps.Notifier,
		events:   deps.Publisher,
		now:      deps.Now,
		random:   deps.Random,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.random == nil {
		s.random = func(max int64) (int64, error) {
			n, err := rand.Int(rand.Reader, big.NewInt(max))
			if err != nil {
				return 0, err
			}
			return n.Int64(), nil
		}
	}
	return s
}

// Admit creates the patient under a fresh ICU-<yyyymmdd>-<NNNN> code and,
// when a room is requested, assigns it. A failed assignment leaves the
// patient admitted without a room.
func (s *service) Admit(ctx context.Context, req domain.AdmitPatientRequest) (*domain.Patient, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	var doctorID *string
	if req.AttendingDoctorID != nil {
		if docID := strings.TrimSpace(*req.AttendingDoctorID); docID != "" {
			if err := s.checkDoctor(ctx, docID); err != nil {
				return nil, err
			}
			doctorID = &docID
		}
	}
	roomID := ""
	if req.RoomID != nil {
		roomID = strings.TrimSpace(*req.RoomID)
	}
	if roomID != "" {
		r, err := s.rooms.Get(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if r.Occupied() || r.Status == domain.RoomMaintenance {
			return nil, fmt.Errorf("room %s is not available: %w", r.RoomNumber, domain.ErrConflict)
		}
	}

	condition := req.Condition
	if condition == "" {
		condition = domain.ConditionStable
	}
	now := s.now().UTC()
	p := &domain.Patient{
		PatientID:         id.NewAt(now),
		FullName:          strings.TrimSpace(req.FullName),
		DateOfBirth:       req.DateOfBirth,
		Gender:            req.Gender,
		BloodType:         req.BloodType,
		Diagnosis:         strings.TrimSpace(req.Diagnosis),
		Condition:         condition,
		Status:            domain.PatientAdmitted,
		AttendingDoctorID: doctorID,
		EmergencyContact:  strings.TrimSpace(req.EmergencyContact),
		AdmittedAt:        now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.create(ctx, p); err != nil {
		return nil, err
	}

	if roomID != "" {
		if _, err := s.rooms.AssignPatient(ctx, roomID, p.PatientID); err != nil {
			slog.Warn("room assignment on admission failed", "patient_id", p.PatientID, "room_id", roomID, "err", err)
		} else {
			p.RoomID = &roomID
		}
	}

	s.broadcast(ctx, false, domain.BroadcastRequest{
		Title:    "Patient admitted",
		Message:  fmt.Sprintf("%s (%s) was admitted: %s.", p.FullName, p.PatientCode, p.Diagnosis),
		Severity: domain.SeverityInfo,
		Link:     "/patients/" + p.PatientID,
	})
	if p.Condition == domain.ConditionCritical {
		s.criticalAlert(ctx, p)
	}
	s.publish(ctx, domain.EventPatientAdmitted, p)
	return p, nil
}

func (s *service) create(ctx context.Context, p *domain.Patient) error {
	day := p.AdmittedAt.Format("20060102")
	for i := 0; i < codeAttempts; i++ {
		n, err := s.random(10000)
		if err != nil {
			return err
		}
		p.PatientCode = fmt.Sprintf("ICU-%s-%04d", day, n)
		err = s.repo.Create(ctx, p)
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("could not allocate a patient code, try again: %w", domain.ErrConflict)
}

func (s *service) List(ctx context.Context, status string) ([]domain.Patient, error) {
	switch status {
	case "", domain.PatientAdmitted, domain.PatientDischarged:
	default:
		return nil, fmt.Errorf("status must be one of [Admitted Discharged]: %w", domain.ErrBadRequest)
	}
	patients, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	sort.Slice(patients, func(i, j int) bool { return patients[i].AdmittedAt.After(patients[j].AdmittedAt) })
	return patients, nil
}

func (s *service) Get(ctx context.Context, patientID string) (*domain.Patient, error) {
	return s.repo.Get(ctx, patientID)
}

func (s *service) Update(ctx context.Context, patientID string, req domain.UpdatePatientRequest) (*domain.Patient, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	current, err := s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.PatientAdmitted {
		return nil, fmt.Errorf("discharged patients cannot be edited: %w", domain.ErrConflict)
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Diagnosis != nil {
		updates["diagnosis"] = strings.TrimSpace(*req.Diagnosis)
	}
	if req.BloodType != nil {
		updates["blood_type"] = *req.BloodType
	}
	if req.EmergencyContact != nil {
		updates["emergency_contact"] = strings.TrimSpace(*req.EmergencyContact)
	}
	if req.AttendingDoctorID != nil {
		doctorID := strings.TrimSpace(*req.AttendingDoctorID)
		if doctorID == "" {
			// Empty string clears the attending doctor.
			updates["attending_doctor_id"] = nil
		} else {
			if err := s.checkDoctor(ctx, doctorID); err != nil {
				return nil, err
			}
			updates["attending_doctor_id"] = doctorID
		}
	}
	becameCritical := false
	if req.Condition != nil {
		updates["condition"] = *req.Condition
		becameCritical = *req.Condition == domain.ConditionCritical && current.Condition != domain.ConditionCritical
	}
	if len(updates) == 0 {
		return current, nil
	}
	if err := s.repo.Update(ctx, patientID, updates); err != nil {
		return nil, err
	}

	p, err := s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if becameCritical {
		s.criticalAlert(ctx, p)
	}
	return p, nil
}

// Discharge frees the patient's room before marking the discharge.
func (s *service) Discharge(ctx context.Context, patientID string) (*domain.Patient, error) {
	p, err := s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if p.Status == domain.PatientDischarged {
		return nil, fmt.Errorf("patient is already discharged: %w", domain.ErrConflict)
	}
	if p.RoomID != nil && *p.RoomID != "" {
		if _, err := s.rooms.Release(ctx, *p.RoomID); err != nil {
			return nil, err
		}
	}
	now := s.now().UTC()
	if err := s.repo.Update(ctx, patientID, map[string]interface{}{
		"status":        domain.PatientDischarged,
		"discharged_at": now,
	}); err != nil {
		return nil, err
	}

	p, err = s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	s.broadcast(ctx, false, domain.BroadcastRequest{
		Title:    "Patient discharged",
		Message:  fmt.Sprintf("%s (%s) was discharged.", p.FullName, p.PatientCode),
		Severity: domain.SeverityInfo,
		Link:     "/patients/" + p.PatientID,
	})
	s.publish(ctx, domain.EventPatientDischarged, p)
	return p, nil
}

func (s *service) checkDoctor(ctx context.Context, staffID string) error {
	st, err := s.staff.Get(ctx, staffID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("attending doctor not found: %w", domain.ErrBadRequest)
	}
	if err != nil {
		return err
	}
	if st.Role != domain.RoleDoctor || !st.Active() {
		return fmt.Errorf("attending doctor must be an active doctor: %w", domain.ErrBadRequest)
	}
	return nil
}

func (s *service) criticalAlert(ctx context.Context, p *domain.Patient) {
	s.broadcast(ctx, true, domain.BroadcastRequest{
		Title:    "Critical patient",
		Message:  fmt.Sprintf("%s (%s) is in critical condition.", p.FullName, p.PatientCode),
		Severity: domain.SeverityCritical,
		Link:     "/patients/" + p.PatientID,
	})
}

func (s *service) broadcast(ctx context.Context, everyone bool, req domain.BroadcastRequest) {
	if s.notifier == nil {
		return
	}
	var err error
	if everyone {
		_, err = s.notifier.NotifyAll(ctx, req)
	} else {
		_, err = s.notifier.NotifyAdmins(ctx, req)
	}
	if err != nil {
		slog.Warn("patient notification failed", "title", req.Title, "err", err)
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
