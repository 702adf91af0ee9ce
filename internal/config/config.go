package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3BucketName string
	ReportURLTTL time.Duration

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	MailProvider     string // "smtp" | "mailersend"
	SMTPHost         string
	SMTPPort         string
	SMTPFrom         string
	SMTPUsername     string
	SMTPPassword     string
	MailerSendAPIKey string
	MailerFromName   string

	SNSRegion  string
	SMSEnabled bool

	OTPStore          string // "dynamo" | "redis"
	RedisURL          string
	OTPTTL            time.Duration
	OTPVerifiedTTL    time.Duration
	OTPMaxAttempts    int
	OTPResendCooldown time.Duration

	NATSURL        string
	GoogleClientID string

	ChromePDFTimeout time.Duration

	AllowedOrigins []string // CORS allowed origins
	TrustedProxies []string // IPs/CIDRs whose X-Forwarded-For is believed
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Staff          string
	Uniques        string
	Patients       string
	Rooms          string
	Schedules      string
	Vitals         string
	Medications    string
	ClinicalNotes  string
	AttendanceLogs string
	Notifications  string
	OTPCodes       string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Staff:          getEnv("DYNAMO_TABLE_STAFF", "staff"),
			Uniques:        getEnv("DYNAMO_TABLE_UNIQUES", "uniques"),
			Patients:       getEnv("DYNAMO_TABLE_PATIENTS", "patients"),
			Rooms:          getEnv("DYNAMO_TABLE_ROOMS", "rooms"),
			Schedules:      getEnv("DYNAMO_TABLE_SCHEDULES", "schedules"),
			Vitals:         getEnv("DYNAMO_TABLE_VITALS", "vitals"),
			Medications:    getEnv("DYNAMO_TABLE_MEDICATIONS", "medications"),
			ClinicalNotes:  getEnv("DYNAMO_TABLE_CLINICAL_NOTES", "clinical_notes"),
			AttendanceLogs: getEnv("DYNAMO_TABLE_ATTENDANCE_LOGS", "attendance_logs"),
			Notifications:  getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			OTPCodes:       getEnv("DYNAMO_TABLE_OTP_CODES", "otp_codes"),
		},

		S3BucketName: getEnv("S3_BUCKET_NAME", "shefaa-icu-reports"),
		ReportURLTTL: getEnvDuration("REPORT_URL_TTL", 15*time.Minute),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 12*time.Hour),

		MailProvider:     getEnv("MAIL_PROVIDER", "smtp"),
		SMTPHost:         getEnv("SMTP_HOST", "localhost"),
		SMTPPort:         getEnv("SMTP_PORT", "1025"),
		SMTPFrom:         getEnv("SMTP_FROM", "noreply@shefaa-icu.local"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		MailerSendAPIKey: getEnv("MAILERSEND_API_KEY", ""),
		MailerFromName:   getEnv("MAILER_FROM_NAME", "Shefaa ICU"),

		SNSRegion:  getEnv("SNS_REGION", "us-east-1"),
		SMSEnabled: getEnvBool("SMS_ENABLED", false),

		OTPStore:          getEnv("OTP_STORE", "dynamo"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		OTPTTL:            getEnvDuration("OTP_TTL", 10*time.Minute),
		OTPVerifiedTTL:    getEnvDuration("OTP_VERIFIED_TTL", 15*time.Minute),
		OTPMaxAttempts:    getEnvInt("OTP_MAX_ATTEMPTS", 5),
		OTPResendCooldown: getEnvDuration("OTP_RESEND_COOLDOWN", time.Minute),

		NATSURL:        getEnv("NATS_URL", ""),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		ChromePDFTimeout: getEnvDuration("CHROME_PDF_TIMEOUT", 30*time.Second),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
