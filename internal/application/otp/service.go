package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/pkg/email"
)

// Store is the expiring key-value cache behind OTP codes and verified markers.
// Implemented by dynamo.VerificationRepo and redisinfra.OTPStore.
type Store interface {
	Put(ctx context.Context, v *domain.OTPRecord) error
	Get(ctx context.Context, key, kind string) (*domain.OTPRecord, error)
	// Consume deletes the record and fails with domain.ErrNotFound when it is already gone.
	Consume(ctx context.Context, key, kind string) error
	Delete(ctx context.Context, key, kind string) error
	IncrementAttempts(ctx context.Context, key, kind string) (int, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type Service interface {
	RequestCode(ctx context.Context, addr, purpose string) error
	VerifyCode(ctx context.Context, addr, purpose, code string) error
	ConsumeVerification(ctx context.Context, addr, purpose string) error
	IsVerified(ctx context.Context, addr, purpose string) (bool, error)
}

type service struct {
	store          Store
	mailer         mailer
	ttl            time.Duration
	verifiedTTL    time.Duration
	resendCooldown time.Duration
	maxAttempts    int
	now            func() time.Time
	random         io.Reader
}

type ServiceDeps struct {
	Store          Store
	Mailer         mailer
	TTL            time.Duration
	VerifiedTTL    time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
	Now            func() time.Time // defaults to time.Now
	Random         io.Reader        // defaults to crypto/rand.Reader
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:          deps.Store,
		mailer:         deps.Mailer,
		ttl:            deps.TTL,
		verifiedTTL:    deps.VerifiedTTL,
		resendCooldown: deps.ResendCooldown,
		maxAttempts:    deps.MaxAttempts,
		now:            deps.Now,
		random:         deps.Random,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.random == nil {
		s.random = rand.Reader
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = 5
	}
	return s
}

var errInvalidCode = fmt.Errorf("invalid or expired code: %w", domain.ErrUnauthorized)

func (s *service) RequestCode(ctx context.Context, addr, purpose string) error {
	key, err := recordKey(addr, purpose)
	if err != nil {
		return err
	}
	now := s.now()

	existing, err := s.store.Get(ctx, key, domain.OTPKindCode)
	switch {
	case err == nil:
		if !existing.Expired(now) && now.Sub(existing.CreatedAt) < s.resendCooldown {
			return fmt.Errorf("please wait before requesting another code: %w", domain.ErrTooManyRequests)
		}
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	code, err := s.generateCode()
	if err != nil {
		return err
	}
	rec := &domain.OTPRecord{
		Key:       key,
		Kind:      domain.OTPKindCode,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return err
	}

	subject, body := message(purpose, code, s.ttl)
	if err := s.mailer.SendEmail(email.Normalize(addr), subject, body); err != nil {
		slog.Error("otp email delivery failed", "purpose", purpose, "err", err)
		if delErr := s.store.Delete(ctx, key, domain.OTPKindCode); delErr != nil {
			slog.Warn("failed to delete undelivered otp", "purpose", purpose, "err", delErr)
		}
		return fmt.Errorf("could not send verification email: %w", domain.ErrUnavailable)
	}
	return nil
}

func (s *service) VerifyCode(ctx context.Context, addr, purpose, code string) error {
	key, err := recordKey(addr, purpose)
	if err != nil {
		return err
	}
	now := s.now()

	rec, err := s.store.Get(ctx, key, domain.OTPKindCode)
	if errors.Is(err, domain.ErrNotFound) {
		return errInvalidCode
	}
	if err != nil {
		return err
	}
	if rec.Expired(now) {
		s.discard(ctx, key, domain.OTPKindCode)
		return errInvalidCode
	}
	if rec.Attempts >= s.maxAttempts {
		s.discard(ctx, key, domain.OTPKindCode)
		return fmt.Errorf("too many failed attempts, request a new code: %w", domain.ErrTooManyRequests)
	}

	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(strings.TrimSpace(code))) != 1 {
		attempts, err := s.store.IncrementAttempts(ctx, key, domain.OTPKindCode)
		if errors.Is(err, domain.ErrNotFound) {
			return errInvalidCode
		}
		if err != nil {
			return err
		}
		if attempts >= s.maxAttempts {
			s.discard(ctx, key, domain.OTPKindCode)
		}
		return errInvalidCode
	}

	// A concurrent verifier that consumed the code first wins.
	if err := s.store.Consume(ctx, key, domain.OTPKindCode); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errInvalidCode
		}
		return err
	}
	return s.store.Put(ctx, &domain.OTPRecord{
		Key:       key,
		Kind:      domain.OTPKindVerified,
		CreatedAt: now,
		ExpiresAt: now.Add(s.verifiedTTL).Unix(),
	})
}

func (s *service) ConsumeVerification(ctx context.Context, addr, purpose string) error {
	key, err := recordKey(addr, purpose)
	if err != nil {
		return err
	}
	notVerified := fmt.Errorf("email not verified: %w", domain.ErrUnauthorized)

	rec, err := s.store.Get(ctx, key, domain.OTPKindVerified)
	if errors.Is(err, domain.ErrNotFound) {
		return notVerified
	}
	if err != nil {
		return err
	}
	if rec.Expired(s.now()) {
		s.discard(ctx, key, domain.OTPKindVerified)
		return notVerified
	}
	if err := s.store.Consume(ctx, key, domain.OTPKindVerified); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return notVerified
		}
		return err
	}
	return nil
}

func (s *service) IsVerified(ctx context.Context, addr, purpose string) (bool, error) {
	key, err := recordKey(addr, purpose)
	if err != nil {
		return false, err
	}
	rec, err := s.store.Get(ctx, key, domain.OTPKindVerified)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !rec.Expired(s.now()), nil
}

func (s *service) discard(ctx context.Context, key, kind string) {
	if err := s.store.Delete(ctx, key, kind); err != nil {
		slog.Warn("failed to delete otp record", "kind", kind, "err", err)
	}
}

// generateCode draws a uniformly random six-digit code, leading zeros allowed.
func (s *service) generateCode() (string, error) {
	n, err := rand.Int(s.random, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func recordKey(addr, purpose string) (string, error) {
	if purpose != domain.PurposeRegister && purpose != domain.PurposeReset {
		return "", fmt.Errorf("unknown verification purpose %q: %w", purpose, domain.ErrBadRequest)
	}
	e := email.Normalize(addr)
	if e == "" {
		return "", fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}
	return domain.OTPKey(purpose, e), nil
}

func message(purpose, code string, ttl time.Duration) (subject, body string) {
	minutes := int(ttl.Minutes())
	if purpose == domain.PurposeReset {
		return "Shefaa ICU password reset code",
			fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.\n\nIf you did not request a reset, ignore this email.", code, minutes)
	}
	return "Shefaa ICU verification code",
		fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes)
}
