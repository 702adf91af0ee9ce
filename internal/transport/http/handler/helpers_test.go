package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shefaa-icu/internal/config"
	jwtinfra "github.com/shefaa-icu/internal/infrastructure/jwt"
	"github.com/shefaa-icu/internal/transport/http/middleware"
	"github.com/stretchr/testify/require"
)

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         time.Hour,
	})
	require.NoError(t, err)
	return p
}

// bearerReq builds a request carrying a signed token for staffID and role.
func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target, staffID, role string, body any) *http.Request {
	t.Helper()
	token, err := p.Sign(staffID, "user-"+staffID, role)
	require.NoError(t, err)
	r := jsonReq(t, method, target, body)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func jsonReq(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, target, nil)
	}
	if s, ok := body.(string); ok {
		return httptest.NewRequest(method, target, bytes.NewBufferString(s))
	}
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(method, target, bytes.NewReader(b))
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	return withURLParam(r, "id", id)
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.HandlerFunc, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p)(h).ServeHTTP(w, r)
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}
