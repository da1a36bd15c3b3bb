// internal/adapters/out/firestore/user_profile_repository_fs.go
package firestore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"anusswar/internal/domain/identity"
)

// UserProfileRepositoryFS keeps users/{uid}.
type UserProfileRepositoryFS struct {
	Client *firestore.Client
}

func NewUserProfileRepositoryFS(client *firestore.Client) *UserProfileRepositoryFS {
	return &UserProfileRepositoryFS{Client: client}
}

func (r *UserProfileRepositoryFS) doc(uid string) *firestore.DocumentRef {
	return r.Client.Collection("users").Doc(uid)
}

func (r *UserProfileRepositoryFS) Create(ctx context.Context, p identity.Profile) error {
	if r == nil || r.Client == nil {
		return errors.New("user_profile_repository_fs: firestore client is nil")
	}
	uid := strings.TrimSpace(p.UID)
	if uid == "" {
		return errors.New("user_profile_repository_fs: uid is empty")
	}

	_, err := r.doc(uid).Set(ctx, map[string]any{
		"uid":       uid,
		"email":     p.Email,
		"fullName":  p.FullName,
		"createdAt": timeOrServer(p.CreatedAt),
		"lastLogin": timeOrServer(p.LastLogin),
	})
	return errors.Wrapf(err, "user_profile_repository_fs: create uid=%s", uid)
}

// TouchLastLogin merges lastLogin, creating the doc when an account predates profiles.
func (r *UserProfileRepositoryFS) TouchLastLogin(ctx context.Context, uid string, at time.Time) error {
	if r == nil || r.Client == nil {
		return errors.New("user_profile_repository_fs: firestore client is nil")
	}
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return errors.New("user_profile_repository_fs: uid is empty")
	}

	_, err := r.doc(uid).Set(ctx, map[string]any{"lastLogin": timeOrServer(at)}, firestore.MergeAll)
	return errors.Wrapf(err, "user_profile_repository_fs: touch uid=%s", uid)
}
