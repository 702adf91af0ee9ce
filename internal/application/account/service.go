package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/infrastructure/google"
	"github.com/shefaa-icu/internal/pkg/email"
	"github.com/shefaa-icu/internal/pkg/id"
	"github.com/shefaa-icu/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	SendRegisterOtp(ctx context.Context, addr string) error
	VerifyRegisterOtp(ctx context.Context, req domain.VerifyOTPRequest) error
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.Staff, error)
	SendResetOtp(ctx context.Context, addr string) error
	VerifyResetOtp(ctx context.Context, req domain.VerifyOTPRequest) error
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error)
	GoogleLogin(ctx context.Context, idToken string) (*domain.AuthResult, error)
	ChangePassword(ctx context.Context, staffID string, req domain.ChangePasswordRequest) error
	Me(ctx context.Context, staffID string) (*domain.Staff, error)
}

type staffStore interface {
	Get(ctx context.Context, staffID string) (*domain.Staff, error)
	GetByUsername(ctx context.Context, username string) (*domain.Staff, error)
	GetByEmail(ctx context.Context, email string) (*domain.Staff, error)
	Create(ctx context.Context, s *domain.Staff) error
	SetPassword(ctx context.Context, staffID, hash string) error
}

type otpService interface {
	RequestCode(ctx context.Context, addr, purpose string) error
	VerifyCode(ctx context.Context, addr, purpose, code string) error
	ConsumeVerification(ctx context.Context, addr, purpose string) error
	IsVerified(ctx context.Context, addr, purpose string) (bool, error)
}

type tokenSigner interface {
	Sign(staffID, username, role string) (string, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type adminNotifier interface {
	NotifyAdmins(ctx context.Context, req domain.BroadcastRequest) (domain.FanOutResult, error)
}

type publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type service struct {
	staff      staffStore
	otp        otpService
	signer     tokenSigner
	google     googleVerifier
	notifier   adminNotifier
	events     publisher
	bcryptCost int
	now        func() time.Time
}

type ServiceDeps struct {
	StaffRepo      staffStore
	OTP            otpService
	Signer         tokenSigner
	GoogleVerifier googleVerifier // nil disables Google sign-in
	Notifier       adminNotifier  // optional
	Publisher      publisher      // optional
	BcryptCost     int
	Now            func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		staff:      deps.StaffRepo,
		otp:        deps.OTP,
		signer:     deps.Signer,
		google:     deps.GoogleVerifier,
		notifier:   deps.Notifier,
		events:     deps.Publisher,
		bcryptCost: deps.BcryptCost,
		now:        deps.Now,
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

var errBadCredentials = fmt.Errorf("invalid username or password: %w", domain.ErrUnauthorized)

func (s *service) SendRegisterOtp(ctx context.Context, addr string) error {
	addr, err := checkEmail(addr)
	if err != nil {
		return err
	}
	_, err = s.staff.GetByEmail(ctx, addr)
	switch {
	case err == nil:
		return fmt.Errorf("email is already registered: %w", domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}
	return s.otp.RequestCode(ctx, addr, domain.PurposeRegister)
}

func (s *service) VerifyRegisterOtp(ctx context.Context, req domain.VerifyOTPRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	return s.otp.VerifyCode(ctx, req.Email, domain.PurposeRegister, req.Code)
}

// Register creates a Doctor or Nurse account for an email that passed OTP
// verification. The verified marker is spent only after every other check
// passed, so a rejected form can be corrected and resubmitted.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Staff, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	addr := email.Normalize(req.Email)
	username := strings.TrimSpace(req.Username)

	verified, err := s.otp.IsVerified(ctx, addr, domain.PurposeRegister)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, fmt.Errorf("email not verified: %w", domain.ErrUnauthorized)
	}
	if err := s.ensureAvailable(ctx, username, addr); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	if err := s.otp.ConsumeVerification(ctx, addr, domain.PurposeRegister); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	st := &domain.Staff{
		StaffID:      id.NewAt(now),
		Username:     username,
		Email:        addr,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		Specialty:    strings.TrimSpace(req.Specialty),
		Enable:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.staff.Create(ctx, st); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		_, err := s.notifier.NotifyAdmins(ctx, domain.BroadcastRequest{
			Title:    "New staff registration",
			Message:  fmt.Sprintf("%s registered as %s.", st.FullName, st.Role),
			Severity: domain.SeverityInfo,
			Link:     "/staff/" + st.StaffID,
		})
		if err != nil {
			slog.Warn("registration notification failed", "staff_id", st.StaffID, "err", err)
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, domain.EventStaffRegistered, st); err != nil {
			slog.Warn("publish event failed", "subject", domain.EventStaffRegistered, "err", err)
		}
	}
	return st, nil
}

func (s *service) ensureAvailable(ctx context.Context, username, addr string) error {
	if _, err := s.staff.GetByUsername(ctx, username); err == nil {
		return fmt.Errorf("username is already taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.staff.GetByEmail(ctx, addr); err == nil {
		return fmt.Errorf("email is already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *service) SendResetOtp(ctx context.Context, addr string) error {
	addr, err := checkEmail(addr)
	if err != nil {
		return err
	}
	if _, err := s.staff.GetByEmail(ctx, addr); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no account with this email: %w", domain.ErrNotFound)
		}
		return err
	}
	return s.otp.RequestCode(ctx, addr, domain.PurposeReset)
}

func (s *service) VerifyResetOtp(ctx context.Context, req domain.VerifyOTPRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	return s.otp.VerifyCode(ctx, req.Email, domain.PurposeReset, req.Code)
}

func (s *service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	addr := email.Normalize(req.Email)
	st, err := s.staff.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no account with this email: %w", domain.ErrNotFound)
		}
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.otp.ConsumeVerification(ctx, addr, domain.PurposeReset); err != nil {
		return err
	}
	return s.staff.SetPassword(ctx, st.StaffID, string(hash))
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	login := strings.TrimSpace(req.Login)
	var st *domain.Staff
	var err error
	if strings.Contains(login, "@") {
		st, err = s.staff.GetByEmail(ctx, email.Normalize(login))
	} else {
		st, err = s.staff.GetByUsername(ctx, login)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(req.Password)) != nil {
		return nil, errBadCredentials
	}
	return s.issue(st)
}

func (s *service) GoogleLogin(ctx context.Context, idToken string) (*domain.AuthResult, error) {
	if s.google == nil {
		return nil, fmt.Errorf("google sign-in is not configured: %w", domain.ErrUnavailable)
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("id_token is required: %w", domain.ErrBadRequest)
	}
	p, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if !p.EmailVerified || p.Email == "" {
		return nil, fmt.Errorf("google account email is not verified: %w", domain.ErrUnauthorized)
	}
	st, err := s.staff.GetByEmail(ctx, email.Normalize(p.Email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no staff account for this google account: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	return s.issue(st)
}

func (s *service) issue(st *domain.Staff) (*domain.AuthResult, error) {
	if !st.Active() {
		return nil, fmt.Errorf("account is deactivated: %w", domain.ErrForbidden)
	}
	bearer, err := s.signer.Sign(st.StaffID, st.Username, st.Role)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{Bearer: bearer, Staff: st}, nil
}

func (s *service) ChangePassword(ctx context.Context, staffID string, req domain.ChangePasswordRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	st, err := s.staff.Get(ctx, staffID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	if req.CurrentPassword == req.NewPassword {
		return fmt.Errorf("new password must differ from the current one: %w", domain.ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.staff.SetPassword(ctx, staffID, string(hash))
}

func (s *service) Me(ctx context.Context, staffID string) (*domain.Staff, error) {
	return s.staff.Get(ctx, staffID)
}

func checkEmail(addr string) (string, error) {
	req := domain.EmailRequest{Email: email.Normalize(addr)}
	if err := validate.Struct(&req); err != nil {
		return "", fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	return req.Email, nil
}
