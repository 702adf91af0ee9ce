package domain

type PatientCounts struct {
	Admitted int `json:"admitted"`
	Critical int `json:"critical"`
}

type RoomCounts struct {
	Total       int `json:"total"`
	Occupied    int `json:"occupied"`
	Available   int `json:"available"`
	Maintenance int `json:"maintenance"`
}

// DashboardSummary is the landing-page snapshot for one signed-in staff member.
type DashboardSummary struct {
	Date                string         `json:"date"`
	Patients            PatientCounts  `json:"patients"`
	Rooms               RoomCounts     `json:"rooms"`
	ActiveStaff         int            `json:"active_staff"`
	StaffByRole         map[string]int `json:"staff_by_role"`
	TodaySchedule       []ShiftView    `json:"today_schedule"`
	CheckedInToday      int            `json:"checked_in_today"`
	UnreadNotifications int            `json:"unread_notifications"`
}
