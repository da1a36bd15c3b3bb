// internal/adapters/out/firebaseauth/provider.go
package firebaseauth

import (
	"context"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"anusswar/internal/domain/identity"
	"anusswar/internal/pkg/clock"
)

// AdminClient is the subset of the Firebase Admin auth client used here.
type AdminClient interface {
	CreateUser(ctx context.Context, user *fbauth.UserToCreate) (*fbauth.UserRecord, error)
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// PasswordSignIn exchanges email and password for provider tokens.
type PasswordSignIn interface {
	VerifyPassword(ctx context.Context, email, password string) (*identitytoolkit.VerifyPasswordResponse, error)
}

// Toolkit calls the Identity Toolkit REST API with the project's web API key.
type Toolkit struct {
	svc *identitytoolkit.Service
}

func NewToolkit(ctx context.Context, apiKey string) (*Toolkit, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("firebaseauth: web api key is empty")
	}
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "firebaseauth: identity toolkit")
	}
	return &Toolkit{svc: svc}, nil
}

func (t *Toolkit) VerifyPassword(ctx context.Context, email, password string) (*identitytoolkit.VerifyPasswordResponse, error) {
	return t.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
}

// Provider implements auth.Provider on Firebase Authentication.
type Provider struct {
	admin    AdminClient
	password PasswordSignIn
	clock    clock.Clock
	log      *logrus.Logger
}

func NewProvider(admin AdminClient, password PasswordSignIn, clk clock.Clock, log *logrus.Logger) *Provider {
	if clk == nil {
		clk = clock.Real()
	}
	return &Provider{admin: admin, password: password, clock: clk, log: log}
}

func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (*identity.Identity, error) {
	if p.admin == nil {
		return nil, errors.New("firebaseauth: admin client is nil")
	}

	user := (&fbauth.UserToCreate{}).Email(email).Password(password).DisplayName(displayName)
	rec, err := p.admin.CreateUser(ctx, user)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return nil, identity.ErrEmailExists
		}
		return nil, errors.Wrap(err, "firebaseauth: create user")
	}
	p.log.WithField("uid", rec.UID).Info("[firebaseauth] user created")

	who, err := p.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if who.DisplayName == "" {
		who.DisplayName = displayName
	}
	return who, nil
}

// SignIn verifies the password, then reads custom claims from the issued token.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	if p.password == nil {
		return nil, errors.New("firebaseauth: password sign-in is not configured")
	}

	res, err := p.password.VerifyPassword(ctx, email, password)
	if err != nil {
		if credentialError(err) {
			return nil, identity.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "firebaseauth: verify password")
	}

	who := &identity.Identity{
		UID:          res.LocalId,
		Email:        res.Email,
		DisplayName:  res.DisplayName,
		IDToken:      res.IdToken,
		RefreshToken: res.RefreshToken,
	}
	if secs := res.ExpiresIn; secs > 0 {
		who.ExpiresAt = p.clock.Now().Add(time.Duration(secs) * time.Second)
	}

	if p.admin != nil && who.IDToken != "" {
		tok, err := p.admin.VerifyIDToken(ctx, who.IDToken)
		if err != nil {
			p.log.WithField("uid", who.UID).WithError(err).Warn("[firebaseauth] claims unavailable")
		} else {
			who.Admin = adminClaim(tok.Claims)
		}
	}
	return who, nil
}

// credentialError reports provider rejections that mean wrong email or password.
func credentialError(err error) bool {
	msg := err.Error()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg = gerr.Message
	}
	msg = strings.ToUpper(msg)
	for _, code := range []string{"EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}

func adminClaim(claims map[string]interface{}) bool {
	v, ok := claims["admin"].(bool)
	return ok && v
}
