package domain

import "time"

// Patient statuses.
const (
	PatientAdmitted   = "Admitted"
	PatientDischarged = "Discharged"
)

// Patient conditions.
const (
	ConditionStable   = "Stable"
	ConditionCritical = "Critical"
)

type Patient struct {
	PatientID         string     `json:"id" dynamodbav:"patient_id"`
	PatientCode       string     `json:"patient_code" dynamodbav:"patient_code"`
	FullName          string     `json:"full_name" dynamodbav:"full_name"`
	DateOfBirth       string     `json:"date_of_birth" dynamodbav:"date_of_birth"` // YYYY-MM-DD
	Gender            string     `json:"gender" dynamodbav:"gender"`
	BloodType         string     `json:"blood_type,omitempty" dynamodbav:"blood_type"`
	Diagnosis         string     `json:"diagnosis" dynamodbav:"diagnosis"`
	Condition         string     `json:"condition" dynamodbav:"condition"`
	Status            string     `json:"status" dynamodbav:"status"`
	RoomID            *string    `json:"room_id" dynamodbav:"room_id,omitempty"`
	AttendingDoctorID *string    `json:"attending_doctor_id" dynamodbav:"attending_doctor_id,omitempty"`
	EmergencyContact  string     `json:"emergency_contact,omitempty" dynamodbav:"emergency_contact"`
	AdmittedAt        time.Time  `json:"admitted_at" dynamodbav:"admitted_at"`
	DischargedAt      *time.Time `json:"discharged_at,omitempty" dynamodbav:"discharged_at,omitempty"`
	CreatedAt         time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt         time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type AdmitPatientRequest struct {
	FullName          string  `json:"full_name" validate:"required"`
	DateOfBirth       string  `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender            string  `json:"gender" validate:"required,oneof=Male Female"`
	BloodType         string  `json:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Diagnosis         string  `json:"diagnosis" validate:"required"`
	Condition         string  `json:"condition" validate:"omitempty,oneof=Stable Critical"`
	EmergencyContact  string  `json:"emergency_contact"`
	AttendingDoctorID *string `json:"attending_doctor_id"`
	RoomID            *string `json:"room_id"`
}

type UpdatePatientRequest struct {
	FullName          *string `json:"full_name"`
	Diagnosis         *string `json:"diagnosis"`
	Condition         *string `json:"condition" validate:"omitempty,oneof=Stable Critical"`
	BloodType         *string `json:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	EmergencyContact  *string `json:"emergency_contact"`
	AttendingDoctorID *string `json:"attending_doctor_id"`
}
