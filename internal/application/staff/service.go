package staff

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/pkg/email"
	"github.com/shefaa-icu/internal/pkg/id"
	"github.com/shefaa-icu/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	List(ctx context.Context, role string, includeInactive bool) ([]domain.Staff, error)
	Get(ctx context.Context, staffID string) (*domain.Staff, error)
	Create(ctx context.Context, req domain.CreateStaffRequest) (*domain.Staff, error)
	Update(ctx context.Context, staffID string, req domain.UpdateStaffRequest) (*domain.Staff, error)
	Deactivate(ctx context.Context, staffID, actorID string) error
	Reactivate(ctx context.Context, staffID string) error
}

type staffStore interface {
	Create(ctx context.Context, s *domain.Staff) error
	Get(ctx context.Context, staffID string) (*domain.Staff, error)
	Update(ctx context.Context, staffID string, updates map[string]interface{}) error
	ChangeEmail(ctx context.Context, staffID, oldEmail, newEmail string, updates map[string]interface{}) error
	SetEnable(ctx context.Context, staffID string, enable int) error
	ListActive(ctx context.Context, role string) ([]domain.Staff, error)
	List(ctx context.Context) ([]domain.Staff, error)
}

type service struct {
	repo       staffStore
	bcryptCost int
	now        func() time.Time
}

type ServiceDeps struct {
	StaffRepo  staffStore
	BcryptCost int
	Now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{repo: deps.StaffRepo, bcryptCost: deps.BcryptCost, now: deps.Now}
	if s.bcryptCost == 0 {
		s.bcryptCost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// List returns staff sorted by name. Without includeInactive only enabled
// members are returned.
func (s *service) List(ctx context.Context, role string, includeInactive bool) ([]domain.Staff, error) {
	if role != "" && !domain.ValidRole(role) {
		return nil, fmt.Errorf("role must be one of %v: %w", domain.Roles, domain.ErrBadRequest)
	}
	var members []domain.Staff
	var err error
	if includeInactive {
		members, err = s.repo.List(ctx)
		if err == nil && role != "" {
			filtered := members[:0]
			for _, m := range members {
				if m.Role == role {
					filtered = append(filtered, m)
				}
			}
			members = filtered
		}
	} else {
		members, err = s.repo.ListActive(ctx, role)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(members, func(i, j int) bool { return members[i].FullName < members[j].FullName })
	return members, nil
}

func (s *service) Get(ctx context.Context, staffID string) (*domain.Staff, error) {
	return s.repo.Get(ctx, staffID)
}

func (s *service) Create(ctx context.Context, req domain.CreateStaffRequest) (*domain.Staff, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	st := &domain.Staff{
		StaffID:      id.NewAt(now),
		Username:     strings.TrimSpace(req.Username),
		Email:        email.Normalize(req.Email),
		Phone:        req.Phone,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		Specialty:    strings.TrimSpace(req.Specialty),
		Enable:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) Update(ctx context.Context, staffID string, req domain.UpdateStaffRequest) (*domain.Staff, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	current, err := s.repo.Get(ctx, staffID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, fmt.Errorf("full_name must not be empty: %w", domain.ErrBadRequest)
		}
		updates["full_name"] = name
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.Specialty != nil {
		updates["specialty"] = strings.TrimSpace(*req.Specialty)
	}

	newEmail := ""
	if req.Email != nil {
		if e := email.Normalize(*req.Email); e != current.Email {
			newEmail = e
		}
	}
	switch {
	case newEmail != "":
		err = s.repo.ChangeEmail(ctx, staffID, current.Email, newEmail, updates)
	case len(updates) > 0:
		err = s.repo.Update(ctx, staffID, updates)
	default:
		return current, nil
	}
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, staffID)
}

func (s *service) Deactivate(ctx context.Context, staffID, actorID string) error {
	if staffID == actorID {
		return fmt.Errorf("you cannot deactivate your own account: %w", domain.ErrBadRequest)
	}
	if _, err := s.repo.Get(ctx, staffID); err != nil {
		return err
	}
	return s.repo.SetEnable(ctx, staffID, 0)
}

func (s *service) Reactivate(ctx context.Context, staffID string) error {
	if _, err := s.repo.Get(ctx, staffID); err != nil {
		return err
	}
	return s.repo.SetEnable(ctx, staffID, 1)
}
