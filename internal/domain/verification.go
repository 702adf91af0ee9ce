package domain

import "time"

// OTP purposes.
const (
	PurposeRegister = "register"
	PurposeReset    = "reset"
)

// OTP record kinds. A "code" record holds the emailed code; a "verified"
// record is the short-lived marker that gates the follow-up action.
const (
	OTPKindCode     = "code"
	OTPKindVerified = "verified"
)

// OTPRecord is one entry of the expiring OTP cache.
// PK: otp_key (purpose#email), SK: kind. ExpiresAt doubles as the DynamoDB TTL attribute.
type OTPRecord struct {
	Key       string    `json:"otp_key" dynamodbav:"otp_key"`
	Kind      string    `json:"kind" dynamodbav:"kind"`
	Code      string    `json:"-" dynamodbav:"code,omitempty"`
	Attempts  int       `json:"attempts" dynamodbav:"attempts"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds
}

// Expired reports whether the record is past its lifetime at now.
func (r *OTPRecord) Expired(now time.Time) bool {
	return now.Unix() >= r.ExpiresAt
}

// OTPKey builds the namespaced cache key for a purpose and normalized email.
func OTPKey(purpose, email string) string {
	return purpose + "#" + email
}
