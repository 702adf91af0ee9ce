package domain

import "time"

// Shift types.
const (
	ShiftMorning = "Morning"
	ShiftEvening = "Evening"
	ShiftNight   = "Night"
)

// ShiftTypes lists the shifts of a day in order.
var ShiftTypes = []string{ShiftMorning, ShiftEvening, ShiftNight}

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// ValidShiftType reports whether s is one of ShiftTypes.
func ValidShiftType(s string) bool {
	for _, t := range ShiftTypes {
		if t == s {
			return true
		}
	}
	return false
}

// ScheduleEntry assigns one staff member to one shift on one date.
// PK: shift_date, SK: slot (shift_type#staff_id), so (date, shift, staff) is unique by construction.
type ScheduleEntry struct {
	EntryID   string    `json:"id" dynamodbav:"entry_id"`
	Date      string    `json:"date" dynamodbav:"shift_date"`
	Slot      string    `json:"-" dynamodbav:"slot"`
	ShiftType string    `json:"shift_type" dynamodbav:"shift_type"`
	StaffID   string    `json:"staff_id" dynamodbav:"staff_id"`
	StaffName string    `json:"staff_name" dynamodbav:"staff_name"`
	StaffRole string    `json:"staff_role" dynamodbav:"staff_role"`
	Notes     string    `json:"notes,omitempty" dynamodbav:"notes"`
	CreatedBy string    `json:"created_by" dynamodbav:"created_by"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// SlotKey builds the sort key of a schedule entry.
func SlotKey(shiftType, staffID string) string {
	return shiftType + "#" + staffID
}

type ConflictCheckRequest struct {
	Date           string   `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftType      string   `json:"shift_type" validate:"required,oneof=Morning Evening Night"`
	StaffIDs       []string `json:"staff_ids" validate:"required,min=1,max=100,dive,required"`
	ExcludeEntryID string   `json:"exclude_entry_id"`
}

type SaveScheduleRequest struct {
	Date      string   `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftType string   `json:"shift_type" validate:"required,oneof=Morning Evening Night"`
	StaffIDs  []string `json:"staff_ids" validate:"required,min=1,max=100,dive,required"`
	Notes     string   `json:"notes" validate:"max=500"`
	Confirm   bool     `json:"confirm"`
}

type UpdateEntryRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftType string `json:"shift_type" validate:"required,oneof=Morning Evening Night"`
	StaffID   string `json:"staff_id" validate:"required"`
	Notes     string `json:"notes" validate:"max=500"`
	Confirm   bool   `json:"confirm"`
}

// StaffConflict names a candidate already scheduled on the target date.
type StaffConflict struct {
	StaffID   string `json:"staff_id"`
	StaffName string `json:"staff_name"`
	ShiftType string `json:"shift_type"`
	EntryID   string `json:"entry_id"`
}

// ConflictResult is the derived conflict set for one (date, shift) request.
// Conflicts are candidates already in the requested shift; SameDay are
// candidates working a different shift that date.
type ConflictResult struct {
	Date      string          `json:"date"`
	ShiftType string          `json:"shift_type"`
	Conflicts []StaffConflict `json:"conflicts"`
	SameDay   []StaffConflict `json:"same_day"`
}

// NeedsConfirmation reports whether the caller must confirm before saving.
func (r *ConflictResult) NeedsConfirmation() bool {
	return len(r.Conflicts) > 0 || len(r.SameDay) > 0
}

// ConflictNames lists the names of staff in Conflicts.
func (r *ConflictResult) ConflictNames() []string {
	names := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		names = append(names, c.StaffName)
	}
	return names
}

// ScheduleResult is returned by save and update. When RequiresConfirmation
// is set nothing was written.
type ScheduleResult struct {
	RequiresConfirmation bool            `json:"requires_confirmation"`
	Check                ConflictResult  `json:"check"`
	Entries              []ScheduleEntry `json:"entries"`
}

type ShiftView struct {
	ShiftType string          `json:"shift_type"`
	Entries   []ScheduleEntry `json:"entries"`
}

type DayView struct {
	Date    string      `json:"date"`
	Weekday string      `json:"weekday"`
	Shifts  []ShiftView `json:"shifts"`
}

// WeekView is a Monday to Sunday schedule grid.
type WeekView struct {
	WeekStart string    `json:"week_start"`
	WeekEnd   string    `json:"week_end"`
	Days      []DayView `json:"days"`
}
