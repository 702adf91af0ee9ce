package role

import (
	"context"

	"github.com/shefaa-icu/internal/domain"
)

type Service interface {
	List(ctx context.Context) []domain.RoleInfo
}

type service struct{}

func NewService() Service {
	return &service{}
}

// List returns every role in display order with what it may do.
func (s *service) List(_ context.Context) []domain.RoleInfo {
	out := make([]domain.RoleInfo, 0, len(domain.Roles))
	for _, r := range domain.Roles {
		out = append(out, domain.RoleInfo{
			Name:         r,
			Description:  roleDescriptions[r],
			SelfRegister: r != domain.RoleAdmin,
		})
	}
	return out
}

var roleDescriptions = map[string]string{
	domain.RoleAdmin:  "Manages rooms, staff, schedules and broadcasts",
	domain.RoleDoctor: "Admits patients, prescribes and writes clinical notes",
	domain.RoleNurse:  "Records vitals, administers medication and writes nursing notes",
}
