package domain

// Staff roles. Admins manage rooms, staff, schedules and broadcasts;
// doctors and nurses work the clinical side.
const (
	RoleAdmin  = "Admin"
	RoleDoctor = "Doctor"
	RoleNurse  = "Nurse"
)

// Roles lists every assignable role in display order.
var Roles = []string{RoleAdmin, RoleDoctor, RoleNurse}

// ValidRole reports whether r is one of Roles.
func ValidRole(r string) bool {
	for _, role := range Roles {
		if role == r {
			return true
		}
	}
	return false
}

// RoleInfo describes a role for clients building role pickers.
type RoleInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SelfRegister bool   `json:"self_register"`
}
