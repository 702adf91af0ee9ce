package clinical

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/pkg/id"
	"github.com/shefaa-icu/internal/pkg/validate"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type Service interface {
	RecordVitals(ctx context.Context, patientID string, req domain.RecordVitalsRequest, recordedBy string) (*domain.Vital, error)
	ListVitals(ctx context.Context, patientID string, limit int) ([]domain.Vital, error)
	Prescribe(ctx context.Context, patientID string, req domain.PrescribeRequest, prescribedBy string) (*domain.Medication, error)
	ListMedications(ctx context.Context, patientID string) ([]domain.Medication, error)
	Administer(ctx context.Context, medicationID, staffID string) (*domain.Medication, error)
	Stop(ctx context.Context, medicationID string) (*domain.Medication, error)
	AddNote(ctx context.Context, patientID string, req domain.AddNoteRequest, authorID string) (*domain.ClinicalNote, error)
	ListNotes(ctx context.Context, patientID string, limit int) ([]domain.ClinicalNote, error)
}

type patientStore interface {
	Get(ctx context.Context, patientID string) (*domain.Patient, error)
}

type vitalStore interface {
	Put(ctx context.Context, v *domain.Vital) error
	ListByPatient(ctx context.Context, patientID string, limit int32) ([]domain.Vital, error)
}

type medicationStore interface {
	Put(ctx context.Context, m *domain.Medication) error
	Get(ctx context.Context, medicationID string) (*domain.Medication, error)
	ListByPatient(ctx context.Context, patientID string) ([]domain.Medication, error)
	UpdateActive(ctx context.Context, medicationID string, updates map[string]interface{}) error
}

type noteStore interface {
	Put(ctx context.Context, n *domain.ClinicalNote) error
	ListByPatient(ctx context.Context, patientID string, limit int32) ([]domain.ClinicalNote, error)
}

type staffStore interface {
	Get(ctx context.Context, staffID string) (*domain.Staff, error)
}

type notifier interface {
	NotifyAdmins(ctx context.Context, req domain.BroadcastRequest) (domain.FanOutResult, error)
	NotifyStaff(ctx context.Context, staffID string, req domain.BroadcastRequest) error
}

type publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type service struct {
	patients    patientStore
	vitals      vitalStore
	medications medicationStore
	notes       noteStore
	staff       staffStore
	notifier    notifier
	events      publisher
	now         func() time.Time
}

type ServiceDeps struct {
	PatientRepo    patientStore
	VitalRepo      vitalStore
	MedicationRepo medicationStore
	NoteRepo       noteStore
	StaffRepo      staffStore
	Notifier       notifier  // optional
	Publisher      publisher // optional
	Now            func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		patients:    deps.PatientRepo,
		vitals:      deps.VitalRepo,
		medications: deps.MedicationRepo,
		notes:       deps.NoteRepo,
		staff:       deps.StaffRepo,
		notifier:    deps.Notifier,
		events:      deps.Publisher,
		now:         deps.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CheckVitals returns one alert per reading outside its safe range.
func CheckVitals(req domain.RecordVitalsRequest) []string {
	var alerts []string
	if req.HeartRate < 40 || req.HeartRate > 130 {
		alerts = append(alerts, fmt.Sprintf("heart rate %d bpm", req.HeartRate))
	}
	if req.SpO2 < 90 {
		alerts = append(alerts, fmt.Sprintf("SpO2 %d%%", req.SpO2))
	}
	if req.Systolic < 90 || req.Systolic > 180 {
		alerts = append(alerts, fmt.Sprintf("systolic pressure %d mmHg", req.Systolic))
	}
	if req.Temperature < 35 || req.Temperature > 39.5 {
		alerts = append(alerts, fmt.Sprintf("temperature %.1f C", req.Temperature))
	}
	if req.RespiratoryRate < 8 || req.RespiratoryRate > 30 {
		alerts = append(alerts, fmt.Sprintf("respiratory rate %d/min", req.RespiratoryRate))
	}
	return alerts
}

func (s *service) RecordVitals(ctx context.Context, patientID string, req domain.RecordVitalsRequest, recordedBy string) (*domain.Vital, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	p, err := s.admitted(ctx, patientID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	alerts := CheckVitals(req)
	v := &domain.Vital{
		VitalID:         id.NewAt(now),
		PatientID:       patientID,
		HeartRate:       req.HeartRate,
		Systolic:        req.Systolic,
		Diastolic:       req.Diastolic,
		Temperature:     req.Temperature,
		SpO2:            req.SpO2,
		RespiratoryRate: req.RespiratoryRate,
		Abnormal:        len(alerts) > 0,
		Alerts:          alerts,
		RecordedBy:      recordedBy,
		RecordedAt:      now,
	}
	if err := s.vitals.Put(ctx, v); err != nil {
		return nil, err
	}
	if v.Abnormal {
		s.alertAbnormal(ctx, p, v)
	}
	return v, nil
}

func (s *service) alertAbnormal(ctx context.Context, p *domain.Patient, v *domain.Vital) {
	req := domain.BroadcastRequest{
		Title:    "Abnormal vitals",
		Message:  fmt.Sprintf("%s (%s): %s.", p.FullName, p.PatientCode, strings.Join(v.Alerts, ", ")),
		Severity: domain.SeverityCritical,
		Link:     "/patients/" + p.PatientID,
	}
	if s.notifier != nil {
		if _, err := s.notifier.NotifyAdmins(ctx, req); err != nil {
			slog.Warn("abnormal vitals notification failed", "patient_id", p.PatientID, "err", err)
		}
		if p.AttendingDoctorID != nil && *p.AttendingDoctorID != "" {
			if err := s.notifier.NotifyStaff(ctx, *p.AttendingDoctorID, req); err != nil {
				slog.Warn("abnormal vitals notification failed", "patient_id", p.PatientID, "staff_id", *p.AttendingDoctorID, "err", err)
			}
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, domain.EventVitalsAbnormal, v); err != nil {
			slog.Warn("publish event failed", "subject", domain.EventVitalsAbnormal, "err", err)
		}
	}
}

func (s *service) ListVitals(ctx context.Context, patientID string, limit int) ([]domain.Vital, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.vitals.ListByPatient(ctx, patientID, clamp(limit))
}

func (s *service) Prescribe(ctx context.Context, patientID string, req domain.PrescribeRequest, prescribedBy string) (*domain.Medication, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	if _, err := s.admitted(ctx, patientID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	start := req.StartDate
	if start == "" {
		start = now.Format(domain.DateLayout)
	}
	if req.EndDate != nil && *req.EndDate < start {
		return nil, fmt.Errorf("end_date must not be before start_date: %w", domain.ErrBadRequest)
	}
	m := &domain.Medication{
		MedicationID: id.NewAt(now),
		PatientID:    patientID,
		Name:         strings.TrimSpace(req.Name),
		Dosage:       strings.TrimSpace(req.Dosage),
		Route:        req.Route,
		Frequency:    strings.TrimSpace(req.Frequency),
		Status:       domain.MedicationActive,
		PrescribedBy: prescribedBy,
		StartDate:    start,
		EndDate:      req.EndDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.medications.Put(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) ListMedications(ctx context.Context, patientID string) ([]domain.Medication, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.medications.ListByPatient(ctx, patientID)
}

func (s *service) Administer(ctx context.Context, medicationID, staffID string) (*domain.Medication, error) {
	if _, err := s.medications.Get(ctx, medicationID); err != nil {
		return nil, err
	}
	if err := s.medications.UpdateActive(ctx, medicationID, map[string]interface{}{
		"last_administered_at": s.now().UTC(),
		"last_administered_by": staffID,
	}); err != nil {
		return nil, err
	}
	return s.medications.Get(ctx, medicationID)
}

func (s *service) Stop(ctx context.Context, medicationID string) (*domain.Medication, error) {
	if _, err := s.medications.Get(ctx, medicationID); err != nil {
		return nil, err
	}
	if err := s.medications.UpdateActive(ctx, medicationID, map[string]interface{}{
		"status":   domain.MedicationStopped,
		"end_date": s.now().UTC().Format(domain.DateLayout),
	}); err != nil {
		return nil, err
	}
	return s.medications.Get(ctx, medicationID)
}

// AddNote is allowed after discharge so discharge summaries can be filed.
func (s *service) AddNote(ctx context.Context, patientID string, req domain.AddNoteRequest, authorID string) (*domain.ClinicalNote, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	author, err := s.staff.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	n := &domain.ClinicalNote{
		NoteID:     id.NewAt(now),
		PatientID:  patientID,
		AuthorID:   authorID,
		AuthorName: author.FullName,
		NoteType:   req.NoteType,
		Content:    strings.TrimSpace(req.Content),
		CreatedAt:  now,
	}
	if err := s.notes.Put(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *service) ListNotes(ctx context.Context, patientID string, limit int) ([]domain.ClinicalNote, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.notes.ListByPatient(ctx, patientID, clamp(limit))
}

func (s *service) admitted(ctx context.Context, patientID string) (*domain.Patient, error) {
	p, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PatientAdmitted {
		return nil, fmt.Errorf("patient %s is discharged: %w", p.PatientCode, domain.ErrConflict)
	}
	return p, nil
}

func clamp(limit int) int32 {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return int32(limit)
	}
}
