// internal/adapters/out/gcs/image_store_gcs.go
package gcs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"

	"anusswar/internal/domain/request"
	"anusswar/internal/pkg/clock"
)

const defaultPublicBaseURL = "https://storage.googleapis.com"

// ImageStoreGCS implements request.ImageStore. Objects are assumed publicly
// readable through bucket IAM.
type ImageStoreGCS struct {
	Client        *storage.Client
	Bucket        string
	PublicBaseURL string

	clock clock.Clock
}

var _ request.ImageStore = (*ImageStoreGCS)(nil)

func NewImageStoreGCS(client *storage.Client, bucket string, clk clock.Clock) *ImageStoreGCS {
	if clk == nil {
		clk = clock.Real()
	}
	return &ImageStoreGCS{
		Client:        client,
		Bucket:        strings.TrimSpace(bucket),
		PublicBaseURL: defaultPublicBaseURL,
		clock:         clk,
	}
}

func (s *ImageStoreGCS) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if s == nil || s.Client == nil {
		return "", errors.New("image_store_gcs: client is nil")
	}
	if s.Bucket == "" {
		return "", errors.New("image_store_gcs: bucket is empty")
	}
	obj := strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	if obj == "" {
		return "", errors.New("image_store_gcs: objectPath is empty")
	}

	w := s.Client.Bucket(s.Bucket).Object(obj).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	w.Metadata = map[string]string{"uploadedAt": s.clock.Now().UTC().Format(time.RFC3339)}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", errors.Wrapf(err, "image_store_gcs: write %s", obj)
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrapf(err, "image_store_gcs: close %s", obj)
	}
	return s.PublicURL(obj), nil
}

// PublicURL escapes each path segment and keeps the separators.
func (s *ImageStoreGCS) PublicURL(objectPath string) string {
	base := strings.TrimSpace(s.PublicBaseURL)
	if base == "" {
		base = defaultPublicBaseURL
	}
	parts := strings.Split(objectPath, "/")
	for i := range parts {
		parts[i] = url.PathEscape(parts[i])
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), s.Bucket, strings.Join(parts, "/"))
}
