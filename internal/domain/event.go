package domain

// Event subjects published on the message bus.
const (
	EventScheduleSaved       = "schedule.saved"
	EventScheduleUpdated     = "schedule.updated"
	EventScheduleDeleted     = "schedule.deleted"
	EventNotificationCreated = "notification.created"
	EventPatientAdmitted     = "patient.admitted"
	EventPatientDischarged   = "patient.discharged"
	EventRoomAssigned        = "room.assigned"
	EventRoomReleased        = "room.released"
	EventStaffRegistered     = "staff.registered"
	EventVitalsAbnormal      = "vitals.abnormal"
)
