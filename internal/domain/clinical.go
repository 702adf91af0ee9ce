package domain

import "time"

type Vital struct {
	VitalID         string    `json:"id" dynamodbav:"vital_id"`
	PatientID       string    `json:"patient_id" dynamodbav:"patient_id"`
	HeartRate       int       `json:"heart_rate" dynamodbav:"heart_rate"`
	Systolic        int       `json:"systolic" dynamodbav:"systolic"`
	Diastolic       int       `json:"diastolic" dynamodbav:"diastolic"`
	Temperature     float64   `json:"temperature" dynamodbav:"temperature"`
	SpO2            int       `json:"spo2" dynamodbav:"spo2"`
	RespiratoryRate int       `json:"respiratory_rate" dynamodbav:"respiratory_rate"`
	Abnormal        bool      `json:"abnormal" dynamodbav:"abnormal"`
	Alerts          []string  `json:"alerts,omitempty" dynamodbav:"alerts,omitempty"`
	RecordedBy      string    `json:"recorded_by" dynamodbav:"recorded_by"`
	RecordedAt      time.Time `json:"recorded_at" dynamodbav:"recorded_at"`
}

type RecordVitalsRequest struct {
	HeartRate       int     `json:"heart_rate" validate:"required,gt=0,lt=300"`
	Systolic        int     `json:"systolic" validate:"required,gt=0,lt=300"`
	Diastolic       int     `json:"diastolic" validate:"required,gt=0,lt=200"`
	Temperature     float64 `json:"temperature" validate:"required,gt=25,lt=45"`
	SpO2            int     `json:"spo2" validate:"required,gt=0,lte=100"`
	RespiratoryRate int     `json:"respiratory_rate" validate:"required,gt=0,lt=80"`
}

// Medication statuses.
const (
	MedicationActive  = "Active"
	MedicationStopped = "Stopped"
)

type Medication struct {
	MedicationID       string     `json:"id" dynamodbav:"medication_id"`
	PatientID          string     `json:"patient_id" dynamodbav:"patient_id"`
	Name               string     `json:"name" dynamodbav:"name"`
	Dosage             string     `json:"dosage" dynamodbav:"dosage"`
	Route              string     `json:"route" dynamodbav:"route"`
	Frequency          string     `json:"frequency" dynamodbav:"frequency"`
	Status             string     `json:"status" dynamodbav:"status"`
	PrescribedBy       string     `json:"prescribed_by" dynamodbav:"prescribed_by"`
	StartDate          string     `json:"start_date" dynamodbav:"start_date"`
	EndDate            *string    `json:"end_date,omitempty" dynamodbav:"end_date,omitempty"`
	LastAdministeredAt *time.Time `json:"last_administered_at,omitempty" dynamodbav:"last_administered_at,omitempty"`
	LastAdministeredBy string     `json:"last_administered_by,omitempty" dynamodbav:"last_administered_by,omitempty"`
	CreatedAt          time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt          time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type PrescribeRequest struct {
	Name      string  `json:"name" validate:"required"`
	Dosage    string  `json:"dosage" validate:"required"`
	Route     string  `json:"route" validate:"required,oneof=Oral IV IM SC Inhalation Topical"`
	Frequency string  `json:"frequency" validate:"required"`
	StartDate string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type ClinicalNote struct {
	NoteID     string    `json:"id" dynamodbav:"note_id"`
	PatientID  string    `json:"patient_id" dynamodbav:"patient_id"`
	AuthorID   string    `json:"author_id" dynamodbav:"author_id"`
	AuthorName string    `json:"author_name" dynamodbav:"author_name"`
	NoteType   string    `json:"note_type" dynamodbav:"note_type"`
	Content    string    `json:"content" dynamodbav:"content"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}

type AddNoteRequest struct {
	NoteType string `json:"note_type" validate:"required,oneof=Progress Admission Procedure Discharge Nursing"`
	Content  string `json:"content" validate:"required,max=5000"`
}
