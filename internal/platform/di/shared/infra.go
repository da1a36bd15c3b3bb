// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	appcfg "anusswar/internal/infra/config"
	firestoreinfra "anusswar/internal/infra/firestore"
	"anusswar/internal/infra/secrets"
)

// Infra owns the external clients shared by cmd/api and cmd/storefront.
// It must not depend on routers or handlers.
type Infra struct {
	Config    *appcfg.Config
	Log       *logrus.Logger
	ProjectID string

	// Owned; Close-managed.
	Firestore    *firestoreinfra.ClientWrapper
	GCS          *storage.Client
	FirebaseApp  *firebase.App
	FirebaseAuth *firebaseauth.Client
	Secrets      *secrets.Accessor
	Redis        redis.UniversalClient
}

// NewInfra initializes shared infra.
// Firestore is strict. GCS, Firebase Auth, Secret Manager and Redis are
// best-effort (warn and continue); features that need them are disabled.
func NewInfra(ctx context.Context, cfg *appcfg.Config, log *logrus.Logger) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, errors.New("shared.infra: projectID is empty (set GCP_PROJECT_ID or FIRESTORE_PROJECT_ID)")
	}

	inf := &Infra{Config: cfg, Log: log, ProjectID: projectID}

	credFile := strings.TrimSpace(cfg.CredentialsFile)
	var clientOpts []option.ClientOption
	if credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.WithField("file", redactPath(credFile)).Info("[shared.infra] using credentials file for GCP clients")
	} else {
		log.Info("[shared.infra] using Application Default Credentials")
	}

	// Firestore (strict)
	fs, err := firestoreinfra.NewClient(ctx, projectID, credFile, log)
	if err != nil {
		return nil, errors.Wrapf(err, "shared.infra: firestore (project=%s)", projectID)
	}
	inf.Firestore = fs

	// Secret Manager (best-effort)
	if acc, err := secrets.NewAccessor(ctx, projectID); err != nil {
		log.WithError(err).Warn("[shared.infra] secret manager unavailable; secret-backed settings disabled")
	} else {
		inf.Secrets = acc
	}

	// GCS (best-effort, only when a bucket is configured)
	if strings.TrimSpace(cfg.ImageBucket) != "" {
		gcs, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			log.WithError(err).Warn("[shared.infra] storage client init failed; image uploads disabled")
		} else {
			inf.GCS = gcs
			log.WithField("bucket", cfg.ImageBucket).Info("[shared.infra] GCS storage client initialized")
		}
	} else {
		log.Warn("[shared.infra] GCS_BUCKET is empty; image uploads disabled")
	}

	// Firebase App/Auth (best-effort)
	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, clientOpts...)
	if err != nil {
		log.WithError(err).Warn("[shared.infra] firebase app init failed")
	} else {
		inf.FirebaseApp = fbApp
		authClient, err := fbApp.Auth(ctx)
		if err != nil {
			log.WithError(err).Warn("[shared.infra] firebase auth init failed")
		} else {
			inf.FirebaseAuth = authClient
			log.Info("[shared.infra] Firebase Auth initialized")
		}
	}

	// Redis (best-effort)
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.WithError(err).WithField("addr", addr).Warn("[shared.infra] redis unreachable; cache and rate limit disabled")
			_ = rdb.Close()
		} else {
			inf.Redis = rdb
			log.WithField("addr", addr).Info("[shared.infra] redis connected")
		}
	}

	return inf, nil
}

// Resolve returns plain when set, otherwise the named secret. A missing
// Secret Manager client is only an error when a secret is actually needed.
func (i *Infra) Resolve(ctx context.Context, plain, secretID string) (string, error) {
	return i.Secrets.Resolve(ctx, plain, secretID)
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.GCS != nil {
		_ = i.GCS.Close()
	}
	if i.Secrets != nil {
		_ = i.Secrets.Close()
	}
	return i.Firestore.Close()
}

// ----------------------------
// Helpers
// ----------------------------

// redactPath keeps only the last path segment.
func redactPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "***"
	}
	return "***/" + last
}
