package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"devfolio/internal/common"
)

// Identity is the subset of OIDC claims the user service needs to create or
// look up a federated account.
type Identity struct {
	Provider  string
	Subject   string
	Email     string
	FirstName string
	LastName  string
}

// IdentityVerifier validates a raw ID token and extracts the identity.
// The user service depends on this interface so tests can stub it.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*Identity, error)
}

// OIDCVerifier validates ID tokens against a single OIDC provider.
type OIDCVerifier struct {
	provider string
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider configuration and prepares a
// verifier bound to the given client id.
func NewOIDCVerifier(ctx context.Context, providerName, issuerURL, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	return &OIDCVerifier{
		provider: providerName,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	var claims struct {
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, common.ErrInvalidToken
	}

	return &Identity{
		Provider:  v.provider,
		Subject:   idToken.Subject,
		Email:     claims.Email,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
	}, nil
}
