// internal/infra/secrets/secret_manager.go
package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotConfigured = errors.New("secrets: not configured")
	ErrNotFound      = errors.New("secrets: secret not found")
)

// Accessor reads the latest version of a secret.
type Accessor struct {
	Client    *secretmanager.Client
	ProjectID string
}

func NewAccessor(ctx context.Context, projectID string) (*Accessor, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return nil, errors.Wrap(ErrNotConfigured, "projectID is empty")
	}

	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "secrets: create client")
	}
	return &Accessor{Client: c, ProjectID: pid}, nil
}

// Latest returns the payload of secretID's latest version, trimmed.
// secretID may also be a full resource name.
func (a *Accessor) Latest(ctx context.Context, secretID string) (string, error) {
	if a == nil || a.Client == nil {
		return "", ErrNotConfigured
	}
	id := strings.TrimSpace(secretID)
	if id == "" {
		return "", errors.Wrap(ErrNotConfigured, "secret id is empty")
	}

	name := id
	if !strings.HasPrefix(id, "projects/") {
		name = fmt.Sprintf("projects/%s/secrets/%s/versions/latest", a.ProjectID, id)
	}

	res, err := a.Client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", errors.Wrap(ErrNotFound, id)
		}
		return "", errors.Wrapf(err, "secrets: access %s", id)
	}
	if res == nil || res.Payload == nil {
		return "", errors.Wrap(ErrNotFound, id)
	}

	s := strings.TrimSpace(string(res.Payload.Data))
	if s == "" {
		return "", errors.Wrap(ErrNotFound, id)
	}
	return s, nil
}

// Resolve returns plain when set, otherwise the named secret. Both empty is "".
func (a *Accessor) Resolve(ctx context.Context, plain, secretID string) (string, error) {
	if v := strings.TrimSpace(plain); v != "" {
		return v, nil
	}
	if strings.TrimSpace(secretID) == "" {
		return "", nil
	}
	return a.Latest(ctx, secretID)
}

func (a *Accessor) Close() error {
	if a == nil || a.Client == nil {
		return nil
	}
	return a.Client.Close()
}
