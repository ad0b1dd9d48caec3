package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/api/idtoken"
)

var (
	ErrProviderNotConfigured = errors.New("identity provider is not configured")
	ErrInvalidExternalToken  = errors.New("invalid external identity token")
)

// ExternalIdentity is what a verified provider token tells us about a person.
type ExternalIdentity struct {
	SubjectID string
	Email     string
	Name      string
	Picture   string
}

// IdentityVerifier verifies a third-party identity token.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*ExternalIdentity, error)
}

type validateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// GoogleVerifier checks Google ID tokens against the configured OAuth client id.
type GoogleVerifier struct {
	clientID string
	validate validateFunc
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*ExternalIdentity, error) {
	if v.clientID == "" {
		return nil, ErrProviderNotConfigured
	}
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrInvalidExternalToken
	}

	payload, err := v.validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, errors.Join(ErrInvalidExternalToken, err)
	}

	identity := &ExternalIdentity{
		SubjectID: payload.Subject,
		Email:     stringClaim(payload.Claims, "email"),
		Name:      stringClaim(payload.Claims, "name"),
		Picture:   stringClaim(payload.Claims, "picture"),
	}
	if identity.SubjectID == "" || identity.Email == "" {
		return nil, ErrInvalidExternalToken
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, ErrInvalidExternalToken
	}
	identity.Email = strings.ToLower(identity.Email)
	return identity, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
