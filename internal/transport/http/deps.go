package http

import (
	"github.com/shefaa-icu/internal/application/otp"
	"github.com/shefaa-icu/internal/infrastructure/dynamo"
	"github.com/shefaa-icu/internal/infrastructure/google"
	jwtinfra "github.com/shefaa-icu/internal/infrastructure/jwt"
	natsinfra "github.com/shefaa-icu/internal/infrastructure/nats"
	"github.com/shefaa-icu/internal/infrastructure/pdf"
	s3infra "github.com/shefaa-icu/internal/infrastructure/s3"
	"github.com/shefaa-icu/internal/infrastructure/smtp"
	"github.com/shefaa-icu/internal/infrastructure/sns"
	"github.com/shefaa-icu/internal/infrastructure/websocket"
)

// Deps holds all infrastructure dependencies for the router.
// Nil optional fields disable the feature that needs them.
type Deps struct {
	StaffRepo        *dynamo.StaffRepo
	PatientRepo      *dynamo.PatientRepo
	RoomRepo         *dynamo.RoomRepo
	ScheduleRepo     *dynamo.ScheduleRepo
	VitalRepo        *dynamo.VitalRepo
	MedicationRepo   *dynamo.MedicationRepo
	NoteRepo         *dynamo.NoteRepo
	AttendanceRepo   *dynamo.AttendanceRepo
	NotificationRepo *dynamo.NotificationRepo

	OTPStore    otp.Store
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender       // optional
	Publisher   natsinfra.Publisher // optional
	Hub         *websocket.Hub
	JWTProvider *jwtinfra.Provider

	GoogleVerifier *google.Verifier // optional
	PDFRenderer    *pdf.Renderer    // optional
	S3Store        *s3infra.Store   // optional
}
