package google

import (
	"context"
	"fmt"

	"github.com/shefaa-icu/internal/domain"
	"google.golang.org/api/idtoken"
)

// Payload holds the verified claims extracted from a Google ID token.
type Payload struct {
	Email         string
	EmailVerified bool
}

// Verifier verifies Google ID tokens against a specific client ID.
type Verifier struct {
	clientID string
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID}
}

// Verify validates the Google ID token and returns the extracted payload.
// Returns a domain.ErrUnauthorized-wrapped error if the token is invalid.
func (v *Verifier) Verify(ctx context.Context, token string) (*Payload, error) {
	p, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", domain.ErrUnauthorized)
	}
	return payloadFromClaims(p.Claims), nil
}

func payloadFromClaims(claims map[string]interface{}) *Payload {
	email, _ := claims["email"].(string)
	verified, _ := claims["email_verified"].(bool)
	return &Payload{Email: email, EmailVerified: verified}
}
