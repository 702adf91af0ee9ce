package domain

import "time"

// AttendanceLog records one staff member's working day.
// PK: staff_id, SK: work_date, so there is at most one log per staff per day.
type AttendanceLog struct {
	StaffID       string     `json:"staff_id" dynamodbav:"staff_id"`
	WorkDate      string     `json:"work_date" dynamodbav:"work_date"`
	StaffName     string     `json:"staff_name" dynamodbav:"staff_name"`
	CheckIn       time.Time  `json:"check_in" dynamodbav:"check_in"`
	CheckOut      *time.Time `json:"check_out,omitempty" dynamodbav:"check_out,omitempty"`
	WorkedMinutes int        `json:"worked_minutes" dynamodbav:"worked_minutes"`
}
