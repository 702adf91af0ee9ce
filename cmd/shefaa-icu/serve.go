package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/shefaa-icu/internal/application/otp"
	"github.com/shefaa-icu/internal/config"
	"github.com/shefaa-icu/internal/infrastructure/dynamo"
	"github.com/shefaa-icu/internal/infrastructure/google"
	jwtinfra "github.com/shefaa-icu/internal/infrastructure/jwt"
	"github.com/shefaa-icu/internal/infrastructure/mailersend"
	natsinfra "github.com/shefaa-icu/internal/infrastructure/nats"
	"github.com/shefaa-icu/internal/infrastructure/pdf"
	redisinfra "github.com/shefaa-icu/internal/infrastructure/redis"
	s3infra "github.com/shefaa-icu/internal/infrastructure/s3"
	"github.com/shefaa-icu/internal/infrastructure/smtp"
	"github.com/shefaa-icu/internal/infrastructure/sns"
	"github.com/shefaa-icu/internal/infrastructure/websocket"
	transporthttp "github.com/shefaa-icu/internal/transport/http"
	appmiddleware "github.com/shefaa-icu/internal/transport/http/middleware"
	"github.com/spf13/cobra"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), cfg)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if _, err := appmiddleware.ParseTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	otpStore, closeOTP, err := newOTPStore(ctx, cfg, dynamoClient)
	if err != nil {
		return err
	}
	defer closeOTP()

	publisher, err := natsinfra.NewPublisher(cfg.NATSURL)
	if err != nil {
		slog.Warn("event publishing disabled", "err", err)
		publisher = natsinfra.Noop{}
	}
	defer publisher.Close()

	// SNS sender is optional; critical alerts still go out in-app without it.
	var smsSender sns.SMSSender
	if cfg.SMSEnabled {
		if sender, err := sns.NewSender(ctx, cfg); err == nil {
			smsSender = sender
		} else {
			slog.Warn("SNS sender not available", "err", err)
		}
	}

	renderer := pdf.NewRenderer(cfg.ChromePDFTimeout)
	defer renderer.Close()

	deps := &transporthttp.Deps{
		StaffRepo:        dynamo.NewStaffRepo(dynamoClient, cfg.DynamoTables.Staff, cfg.DynamoTables.Uniques),
		PatientRepo:      dynamo.NewPatientRepo(dynamoClient, cfg.DynamoTables.Patients, cfg.DynamoTables.Uniques),
		RoomRepo:         dynamo.NewRoomRepo(dynamoClient, cfg.DynamoTables.Rooms, cfg.DynamoTables.Patients, cfg.DynamoTables.Uniques),
		ScheduleRepo:     dynamo.NewScheduleRepo(dynamoClient, cfg.DynamoTables.Schedules),
		VitalRepo:        dynamo.NewVitalRepo(dynamoClient, cfg.DynamoTables.Vitals),
		MedicationRepo:   dynamo.NewMedicationRepo(dynamoClient, cfg.DynamoTables.Medications),
		NoteRepo:         dynamo.NewNoteRepo(dynamoClient, cfg.DynamoTables.ClinicalNotes),
		AttendanceRepo:   dynamo.NewAttendanceRepo(dynamoClient, cfg.DynamoTables.AttendanceLogs),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		OTPStore:         otpStore,
		Mailer:           newMailer(cfg),
		SMSSender:        smsSender,
		Publisher:        publisher,
		Hub:              websocket.NewHub(slog.Default()),
		JWTProvider:      jwtProvider,
		PDFRenderer:      renderer,
		S3Store:          s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName),
	}
	if cfg.GoogleClientID != "" {
		deps.GoogleVerifier = google.NewVerifier(cfg.GoogleClientID)
	} else {
		slog.Info("GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.AppPort),
		Handler:     transporthttp.NewRouter(cfg, deps),
		ReadTimeout: 15 * time.Second,
		// PDF export waits on headless Chrome.
		WriteTimeout: cfg.ChromePDFTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newOTPStore picks the OTP backend named by OTP_STORE.
func newOTPStore(ctx context.Context, cfg *config.Config, dynamoClient *dynamodb.Client) (otp.Store, func(), error) {
	switch cfg.OTPStore {
	case "redis":
		client, err := redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return redisinfra.NewOTPStore(client), func() { _ = client.Close() }, nil
	case "dynamo", "":
		return dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.OTPCodes), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown OTP_STORE %q (want dynamo or redis)", cfg.OTPStore)
	}
}

// newMailer picks the email transport named by MAIL_PROVIDER.
func newMailer(cfg *config.Config) smtp.Mailer {
	if cfg.MailProvider == "mailersend" {
		return mailersend.NewMailer(cfg)
	}
	return smtp.NewMailer(cfg)
}
