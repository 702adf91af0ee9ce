package otp

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shefaa-icu/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type memStore struct {
	mu      sync.Mutex
	records map[string]domain.OTPRecord
}

func newMemStore() *memStore { return &memStore{records: map[string]domain.OTPRecord{}} }

func (m *memStore) Put(_ context.Context, v *domain.OTPRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[v.Key+"|"+v.Kind] = *v
	return nil
}

func (m *memStore) Get(_ context.Context, key, kind string) (*domain.OTPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.records[key+"|"+kind]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (m *memStore) Consume(_ context.Context, key, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[key+"|"+kind]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, key+"|"+kind)
	return nil
}

func (m *memStore) Delete(_ context.Context, key, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key+"|"+kind)
	return nil
}

func (m *memStore) IncrementAttempts(_ context.Context, key, kind string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.records[key+"|"+kind]
	if !ok {
		return 0, domain.ErrNotFound
	}
	v.Attempts++
	m.records[key+"|"+kind] = v
	return v.Attempts, nil
}

func (m *memStore) has(key, kind string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[key+"|"+kind]
	return ok
}

type fakeMailer struct {
	sent []string // bodies
	to   []string
	err  error
}

func (f *fakeMailer) SendEmail(to, _, body string) error {
	if f.err != nil {
		return f.err
	}
	f.to = append(f.to, to)
	f.sent = append(f.sent, body)
	return nil
}

var codeRe = regexp.MustCompile(`\b(\d{6})\b`)

func (f *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	m := codeRe.FindStringSubmatch(f.sent[len(f.sent)-1])
	require.Len(t, m, 2)
	return m[1]
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

// --- helpers ---

const addr = "nurse@icu.test"

func newTestService() (Service, *memStore, *fakeMailer, *clock) {
	store := newMemStore()
	mail := &fakeMailer{}
	clk := &clock{t: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)}
	svc := NewService(ServiceDeps{
		Store:          store,
		Mailer:         mail,
		TTL:            10 * time.Minute,
		VerifiedTTL:    15 * time.Minute,
		ResendCooldown: time.Minute,
		MaxAttempts:    5,
		Now:            clk.now,
	})
	return svc, store, mail, clk
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

// --- tests ---

func TestRequestThenVerify_SucceedsOnce(t *testing.T) {
	svc, _, mail, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, addr, domain.PurposeRegister))
	code := mail.lastCode(t)

	require.NoError(t, svc.VerifyCode(ctx, addr, domain.PurposeRegister, code))

	err := svc.VerifyCode(ctx, addr, domain.PurposeRegister, code)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRequestCode_SixDigitCodeSentToNormalizedAddress(t *testing.T) {
	svc, _, mail, _ := newTestService()

	require.NoError(t, svc.RequestCode(context.Background(), "  Nurse@ICU.test ", domain.PurposeRegister))

	assert.Regexp(t, `^\d{6}$`, mail.lastCode(t))
	assert.Equal(t, []string{addr}, mail.to)
}

func TestVerifyCode_ExpiredCodeRejectedEvenWhenCorrect(t *testing.T) {
	svc, _, mail, clk := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, addr, domain.PurposeReset))
	code := mail.lastCode(t)
	clk.advance(10*time.Minute + time.Second)

	err := svc.VerifyCode(ctx, addr, domain.PurposeReset, code)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestVerifyCode_JustBeforeExpiryAccepted(t *testing.T) {
	svc, _, mail, clk := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, addr, domain.PurposeReset))
	clk.advance(9*time.Minute + 59*time.Second)

	assert.NoError(t, svc.VerifyCode(ctx, addr, domain.PurposeReset, mail.lastCode(t)))
}

func TestVerifyCode_PurposesAreIsolated(t *testing.T) {
	svc, _, mail, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, addr, domain.PurposeRegister))

	err := svc.VerifyCode(ctx, addr, domain.PurposeReset, mail.lastCode(t))
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestConsumeVerification_ExactlyOnce(t *testing.T) {
	svc, _, mail, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, addr, domain.PurposeRegister))
	require.NoError(t, svc.VerifyCode(ctx, addr, domain.PurposeRegister, mail.lastCode(t)))

	ok, err := svc.IsVerified(ctx, addr, domain.PurposeRegister)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.ConsumeVerification(ctx, addr, domain.PurposeRegister))

	err = svc.ConsumeVerification(ctx, addr, domain.PurposeRegister)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	ok, err = svc.IsVerified(ctx, addr, domain.PurposeRegister)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsumeVerification_ExpiresAfterVerifiedTTL(t *testing.T) {
	svc, _, mail, clk := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, addr, domain.PurposeReset))
	require.NoError(t, svc.VerifyCode(ctx, addr, domain.PurposeReset, mail.lastCode(t)))
	clk.advance(15 * time.Minute)

	err := svc.ConsumeVerification(ctx, addr, domain.PurposeReset)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestConsumeVerification_WithoutVerify(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.ConsumeVerification(context.Background(), addr, domain.PurposeRegister)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestVerifyCode_LockoutAfterMaxAttempts(t *testing.T) {
	svc, store, mail, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, addr, domain.PurposeRegister))
	code := mail.lastCode(t)

	for i := 0; i < 5; i++ {
		err := svc.VerifyCode(ctx, addr, domain.PurposeRegister, wrongCode(code))
		require.True(t, errors.Is(err, domain.ErrUnauthorized), "attempt %d", i+1)
	}
	assert.False(t, store.has(domain.OTPKey(domain.PurposeRegister, addr), domain.OTPKindCode))

	err := svc.VerifyCode(ctx, addr, domain.PurposeRegister, code)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestVerifyCode_StoredAttemptsAtMaxIsTooMany(t *testing.T) {
	svc, store, _, clk := newTestService()
	ctx := context.Background()
	key := domain.OTPKey(domain.PurposeRegister, addr)
	require.NoError(t, store.Put(ctx, &domain.OTPRecord{
		Key: key, Kind: domain.OTPKindCode, Code: "123456", Attempts: 5,
		CreatedAt: clk.now(), ExpiresAt: clk.now().Add(10 * time.Minute).Unix(),
	}))

	err := svc.VerifyCode(ctx, addr, domain.PurposeRegister, "123456")
	assert.True(t, errors.Is(err, domain.ErrTooManyRequests))
	assert.False(t, store.has(key, domain.OTPKindCode))
}

func TestRequestCode_ResendCooldown(t *testing.T) {
	svc, _, mail, clk := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, addr, domain.PurposeRegister))
	first := mail.lastCode(t)

	clk.advance(30 * time.Second)
	err := svc.RequestCode(ctx, addr, domain.PurposeRegister)
	assert.True(t, errors.Is(err, domain.ErrTooManyRequests))

	clk.advance(31 * time.Second)
	require.NoError(t, svc.RequestCode(ctx, addr, domain.PurposeRegister))
	assert.Len(t, mail.sent, 2)

	// the new code replaces the old one
	second := mail.lastCode(t)
	if first != second {
		err = svc.VerifyCode(ctx, addr, domain.PurposeRegister, first)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	}
	assert.NoError(t, svc.VerifyCode(ctx, addr, domain.PurposeRegister, second))
}

func TestRequestCode_MailerFailureDeletesCode(t *testing.T) {
	svc, store, mail, _ := newTestService()
	mail.err = errors.New("dial tcp: connection refused")

	err := svc.RequestCode(context.Background(), addr, domain.PurposeReset)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
	assert.NotContains(t, err.Error(), "connection refused")
	assert.False(t, store.has(domain.OTPKey(domain.PurposeReset, addr), domain.OTPKindCode))
}

func TestRequestCode_UnknownPurpose(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.RequestCode(context.Background(), addr, "login")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRequestCode_EmptyEmail(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.RequestCode(context.Background(), "   ", domain.PurposeRegister)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestVerifyCode_ConcurrentVerifiersOnlyOneWins(t *testing.T) {
	svc, _, mail, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.RequestCode(ctx, addr, domain.PurposeRegister))
	code := mail.lastCode(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.VerifyCode(ctx, addr, domain.PurposeRegister, code) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
