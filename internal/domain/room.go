package domain

import "time"

// Room statuses. Occupancy is derived from PatientID; Maintenance blocks assignment.
const (
	RoomAvailable   = "Available"
	RoomOccupied    = "Occupied"
	RoomMaintenance = "Maintenance"
)

type Room struct {
	RoomID      string    `json:"id" dynamodbav:"room_id"`
	RoomNumber  string    `json:"room_number" dynamodbav:"room_number"`
	RoomType    string    `json:"room_type" dynamodbav:"room_type"`
	Floor       int       `json:"floor" dynamodbav:"floor"`
	Status      string    `json:"status" dynamodbav:"status"`
	PatientID   *string   `json:"patient_id" dynamodbav:"patient_id,omitempty"`
	PatientName string    `json:"patient_name,omitempty" dynamodbav:"patient_name,omitempty"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Occupied reports whether a patient is assigned to the room.
func (r *Room) Occupied() bool { return r.PatientID != nil && *r.PatientID != "" }

type CreateRoomRequest struct {
	RoomNumber string `json:"room_number" validate:"required,max=20"`
	RoomType   string `json:"room_type" validate:"required,oneof=Standard Isolation Cardiac Neuro"`
	Floor      int    `json:"floor" validate:"gte=0"`
}

type UpdateRoomRequest struct {
	RoomType *string `json:"room_type" validate:"omitempty,oneof=Standard Isolation Cardiac Neuro"`
	Floor    *int    `json:"floor" validate:"omitempty,gte=0"`
	Status   *string `json:"status" validate:"omitempty,oneof=Available Maintenance"`
}

type AssignPatientRequest struct {
	PatientID string `json:"patient_id" validate:"required"`
}
