package identity

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

var ErrNoEmail = errors.New("identity token has no email claim")

type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// GoogleVerifier checks Google ID tokens against Google's published keys and the client id.
type GoogleVerifier struct {
	Audience string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(audience string) *GoogleVerifier {
	return &GoogleVerifier{Audience: audience, validate: idtoken.Validate}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if v.Audience == "" {
		return nil, errors.New("google client id is not configured")
	}
	payload, err := v.validate(ctx, token, v.Audience)
	if err != nil {
		return nil, fmt.Errorf("validate id token: %w", err)
	}
	return fromClaims(payload.Subject, payload.Claims)
}

func fromClaims(subject string, claims map[string]any) (*Identity, error) {
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, ErrNoEmail
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return nil, errors.New("identity email is not verified")
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	return &Identity{
		Subject: subject,
		Email:   email,
		Name:    name,
		Picture: picture,
	}, nil
}
