// internal/adapters/out/firebaseauth/token_verifier.go
package firebaseauth

import (
	"context"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"

	"anusswar/internal/domain/identity"
)

// IDTokenVerifier is the subset of the Admin client needed to check bearer tokens.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// TokenVerifier turns a Firebase ID token into an Identity.
type TokenVerifier struct {
	client IDTokenVerifier
}

func NewTokenVerifier(client IDTokenVerifier) *TokenVerifier {
	return &TokenVerifier{client: client}
}

func (v *TokenVerifier) Verify(ctx context.Context, idToken string) (*identity.Identity, error) {
	if v == nil || v.client == nil {
		return nil, errors.New("firebaseauth: verifier not initialized")
	}

	tok, err := v.client.VerifyIDToken(ctx, strings.TrimSpace(idToken))
	if err != nil {
		return nil, errors.Wrap(identity.ErrNotSignedIn, err.Error())
	}

	uid := strings.TrimSpace(tok.UID)
	if uid == "" {
		return nil, errors.Wrap(identity.ErrNotSignedIn, "token has no uid")
	}

	who := &identity.Identity{
		UID:         uid,
		Email:       claimString(tok.Claims, "email"),
		DisplayName: claimString(tok.Claims, "name"),
		Admin:       adminClaim(tok.Claims),
	}
	if tok.Expires > 0 {
		who.ExpiresAt = time.Unix(tok.Expires, 0).UTC()
	}
	return who, nil
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}
