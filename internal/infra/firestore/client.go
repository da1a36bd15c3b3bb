// internal/infra/firestore/client.go
package firestoreinfra

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ClientWrapper owns a Firestore client.
type ClientWrapper struct {
	Client    *firestore.Client
	ProjectID string
}

// NewClient uses credentialsFile when set, otherwise Application Default Credentials.
func NewClient(ctx context.Context, projectID, credentialsFile string, log *logrus.Logger) (*ClientWrapper, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "firestore: create client")
	}

	log.WithField("project", projectID).Info("[firestore] connected")
	return &ClientWrapper{Client: client, ProjectID: projectID}, nil
}

// Ping performs a cheap read; Firestore has no ping call.
func (cw *ClientWrapper) Ping(ctx context.Context) error {
	if cw == nil || cw.Client == nil {
		return errors.New("firestore: client is nil")
	}
	if _, err := cw.Client.Collections(ctx).Next(); err != nil && !errors.Is(err, iterator.Done) {
		return errors.Wrap(err, "firestore: ping")
	}
	return nil
}

func (cw *ClientWrapper) Close() error {
	if cw == nil || cw.Client == nil {
		return nil
	}
	return cw.Client.Close()
}
