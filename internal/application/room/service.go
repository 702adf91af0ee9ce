package room

import (
	"context"
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
	List(ctx context.Context) ([]domain.Room, error)
	Get(ctx context.Context, roomID string) (*domain.Room, error)
	Create(ctx context.Context, req domain.CreateRoomRequest) (*domain.Room, error)
	Update(ctx context.Context, roomID string, req domain.UpdateRoomRequest) (*domain.Room, error)
	Delete(ctx context.Context, roomID string) error
	AssignPatient(ctx context.Context, roomID, patientID string) (*domain.Room, error)
	Release(ctx context.Context, roomID string) (*domain.Room, error)
}

type roomStore interface {
	Create(ctx context.Context, r *domain.Room) error
	Get(ctx context.Context, roomID string) (*domain.Room, error)
	List(ctx context.Context) ([]domain.Room, error)
	Update(ctx context.Context, roomID string, updates map[string]interface{}) error
	Delete(ctx context.Context, r *domain.Room) error
	Assign(ctx context.Context, roomID string, p *domain.Patient) error
	Release(ctx context.Context, roomID, patientID string) error
}

type patientStore interface {
	Get(ctx context.Context, patientID string) (*domain.Patient, error)
}

type publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type service struct {
	repo     roomStore
	patients patientStore
	events   publisher
	now      func() time.Time
}

type ServiceDeps struct {
	RoomRepo    roomStore
	PatientRepo patientStore
	Publisher   publisher // optional
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.RoomRepo, patients: deps.PatientRepo, events: deps.Publisher, now: deps.Now}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// List returns rooms ordered by floor then number.
func (s *service) List(ctx context.Context) ([]domain.Room, error) {
	rooms, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Floor != rooms[j].Floor {
			return rooms[i].Floor < rooms[j].Floor
		}
		return rooms[i].RoomNumber < rooms[j].RoomNumber
	})
	return rooms, nil
}

func (s *service) Get(ctx context.Context, roomID string) (*domain.Room, error) {
	return s.repo.Get(ctx, roomID)
}

func (s *service) Create(ctx context.Context, req domain.CreateRoomRequest) (*domain.Room, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	now := s.now().UTC()
	r := &domain.Room{
		RoomID:     id.NewAt(now),
		RoomNumber: strings.TrimSpace(req.RoomNumber),
		RoomType:   req.RoomType,
		Floor:      req.Floor,
		Status:     domain.RoomAvailable,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) Update(ctx context.Context, roomID string, req domain.UpdateRoomRequest) (*domain.Room, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	current, err := s.repo.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.RoomType != nil {
		updates["room_type"] = *req.RoomType
	}
	if req.Floor != nil {
		updates["floor"] = *req.Floor
	}
	if req.Status != nil && *req.Status != current.Status {
		if current.Occupied() {
			return nil, fmt.Errorf("cannot change the status of an occupied room: %w", domain.ErrConflict)
		}
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return current, nil
	}
	if err := s.repo.Update(ctx, roomID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, roomID)
}

// Delete refuses rooms with an assigned patient. The store re-checks that
// condition atomically, so a concurrent assignment also fails the delete.
func (s *service) Delete(ctx context.Context, roomID string) error {
	r, err := s.repo.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if r.Occupied() {
		return fmt.Errorf("cannot delete a room with an assigned patient: %w", domain.ErrConflict)
	}
	return s.repo.Delete(ctx, r)
}

func (s *service) AssignPatient(ctx context.Context, roomID, patientID string) (*domain.Room, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, fmt.Errorf("patient_id is required: %w", domain.ErrBadRequest)
	}
	r, err := s.repo.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	switch {
	case r.Occupied():
		return nil, fmt.Errorf("room %s is already occupied: %w", r.RoomNumber, domain.ErrConflict)
	case r.Status == domain.RoomMaintenance:
		return nil, fmt.Errorf("room %s is under maintenance: %w", r.RoomNumber, domain.ErrConflict)
	}
	p, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	switch {
	case p.Status != domain.PatientAdmitted:
		return nil, fmt.Errorf("patient %s is not admitted: %w", p.PatientCode, domain.ErrConflict)
	case p.RoomID != nil && *p.RoomID != "":
		return nil, fmt.Errorf("patient %s already has a room: %w", p.PatientCode, domain.ErrConflict)
	}

	if err := s.repo.Assign(ctx, roomID, p); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.EventRoomAssigned, map[string]string{"room_id": roomID, "patient_id": patientID})
	return s.repo.Get(ctx, roomID)
}

// Release frees the room. Releasing an empty room only resets its status.
func (s *service) Release(ctx context.Context, roomID string) (*domain.Room, error) {
	r, err := s.repo.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	var patientID string
	if r.Occupied() {
		patientID = *r.PatientID
	}
	if err := s.repo.Release(ctx, roomID, patientID); err != nil {
		return nil, err
	}
	if patientID != "" {
		s.publish(ctx, domain.EventRoomReleased, map[string]string{"room_id": roomID, "patient_id": patientID})
	}
	return s.repo.Get(ctx, roomID)
}

func (s *service) publish(ctx context.Context, subject string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish event failed", "subject", subject, "err", err)
	}
}
