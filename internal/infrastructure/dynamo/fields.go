package dynamo

// DynamoDB attribute names used in update and condition expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable       = "enable"
	fieldEmail        = "email"
	fieldRead         = "read"
	fieldStatus       = "status"
	fieldPatientID    = "patient_id"
	fieldPatientName  = "patient_name"
	fieldRoomID       = "room_id"
	fieldNotes        = "notes"
	fieldCheckOut     = "check_out"
	fieldWorkedMins   = "worked_minutes"
	fieldAttempts     = "attempts"
	fieldUpdatedAt    = "updated_at"
	fieldPasswordHash = "password_hash"
)
