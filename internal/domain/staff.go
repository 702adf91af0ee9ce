package domain

import "time"

// Staff is an ICU staff member and the login principal of the application.
type Staff struct {
	StaffID      string    `json:"id" dynamodbav:"staff_id"`
	Username     string    `json:"username" dynamodbav:"username"`
	Email        string    `json:"email" dynamodbav:"email"`
	Phone        *string   `json:"phone" dynamodbav:"phone"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	FullName     string    `json:"full_name" dynamodbav:"full_name"`
	Role         string    `json:"role" dynamodbav:"role"`
	Specialty    string    `json:"specialty,omitempty" dynamodbav:"specialty"`
	Enable       int       `json:"enable" dynamodbav:"enable"` // 1 = active, 0 = deactivated
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Active reports whether the staff member may log in and receive work.
func (s *Staff) Active() bool { return s.Enable == 1 }

type CreateStaffRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=50"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone"`
	FullName  string  `json:"full_name" validate:"required"`
	Role      string  `json:"role" validate:"required,oneof=Admin Doctor Nurse"`
	Specialty string  `json:"specialty"`
}

type UpdateStaffRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
	FullName  *string `json:"full_name"`
	Role      *string `json:"role" validate:"omitempty,oneof=Admin Doctor Nurse"`
	Specialty *string `json:"specialty"`
}

// RegisterRequest is the self-service registration payload; it is only
// accepted after the email passed OTP verification.
type RegisterRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=50"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone"`
	FullName  string  `json:"full_name" validate:"required"`
	Role      string  `json:"role" validate:"required,oneof=Doctor Nurse"`
	Specialty string  `json:"specialty"`
}
