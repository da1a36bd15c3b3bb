// internal/application/auth/service.go
package auth

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"anusswar/internal/domain/identity"
	"anusswar/internal/pkg/clock"
)

// SessionKey is the device store key holding the signed-in identity.
const SessionKey = "auth.session"

// Provider talks to the identity backend.
type Provider interface {
	SignUp(ctx context.Context, email, password, displayName string) (*identity.Identity, error)
	SignIn(ctx context.Context, email, password string) (*identity.Identity, error)
}

// ProfileRepository keeps users/{uid}. Optional.
type ProfileRepository interface {
	Create(ctx context.Context, p identity.Profile) error
	TouchLastLogin(ctx context.Context, uid string, at time.Time) error
}

// KV is device key/value storage for the session.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Service is the device-side identity service. Observers are notified outside
// the service lock, one change at a time.
type Service struct {
	provider Provider
	profiles ProfileRepository
	kv       KV
	clock    clock.Clock
	log      *logrus.Logger

	// notifyMu serializes identity changes with their deliveries.
	notifyMu sync.Mutex

	mu        sync.Mutex
	current   *identity.Identity
	observers map[int]func(*identity.Identity)
	nextID    int
}

func NewService(provider Provider, profiles ProfileRepository, kv KV, clk clock.Clock, logger *logrus.Logger) *Service {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		provider:  provider,
		profiles:  profiles,
		kv:        kv,
		clock:     clk,
		log:       logger,
		observers: map[int]func(*identity.Identity){},
	}
}

// Restore loads the session persisted on this device. A missing or unreadable
// session means signed out.
func (s *Service) Restore() error {
	raw, ok, err := s.kv.Get(SessionKey)
	if err != nil {
		return errors.Wrap(err, "auth: read session")
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}

	var who identity.Identity
	if err := json.Unmarshal([]byte(raw), &who); err != nil || strings.TrimSpace(who.UID) == "" {
		s.log.WithError(err).Warn("[auth] stored session unreadable; signed out")
		return nil
	}
	if !who.ExpiresAt.IsZero() && s.clock.Now().After(who.ExpiresAt) {
		s.log.WithField("uid", who.UID).Debug("[auth] stored id token expired; sign in again for API calls")
	}

	s.mu.Lock()
	s.current = &who
	s.mu.Unlock()
	return nil
}

func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*identity.Identity, error) {
	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)
	if err := identity.ValidateSignUp(email, password, displayName); err != nil {
		return nil, err
	}

	who, err := s.provider.SignUp(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}

	if s.profiles != nil {
		now := s.clock.Now()
		p := identity.Profile{UID: who.UID, Email: who.Email, FullName: displayName, CreatedAt: now, LastLogin: now}
		if err := s.profiles.Create(ctx, p); err != nil {
			s.log.WithField("uid", who.UID).WithError(err).Warn("[auth] profile create failed")
		}
	}

	if err := s.set(who); err != nil {
		return nil, err
	}
	s.log.WithField("uid", who.UID).Info("[auth] signed up")
	return copyOf(who), nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	email = strings.TrimSpace(email)
	if err := identity.ValidateSignIn(email, password); err != nil {
		return nil, err
	}

	who, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if s.profiles != nil {
		if err := s.profiles.TouchLastLogin(ctx, who.UID, s.clock.Now()); err != nil {
			s.log.WithField("uid", who.UID).WithError(err).Warn("[auth] lastLogin update failed")
		}
	}

	if err := s.set(who); err != nil {
		return nil, err
	}
	s.log.WithField("uid", who.UID).Info("[auth] signed in")
	return copyOf(who), nil
}

func (s *Service) SignOut() error {
	return s.set(nil)
}

// Current returns the signed-in identity or nil.
func (s *Service) Current() *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyOf(s.current)
}

// OnIdentityChange delivers the current identity immediately, then every change.
func (s *Service) OnIdentityChange(fn func(*identity.Identity)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	cur := copyOf(s.current)
	s.mu.Unlock()

	fn(cur)

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// ----------------------------
// Helpers
// ----------------------------

func (s *Service) set(who *identity.Identity) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	raw := ""
	if who != nil {
		b, err := json.Marshal(who)
		if err != nil {
			return errors.Wrap(err, "auth: encode session")
		}
		raw = string(b)
	}
	if err := s.kv.Set(SessionKey, raw); err != nil {
		return errors.Wrap(err, "auth: persist session")
	}

	s.mu.Lock()
	changed := !identity.Same(s.current, who)
	s.current = copyOf(who)
	fns := make([]func(*identity.Identity), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if !changed {
		return nil
	}
	for _, fn := range fns {
		fn(copyOf(who))
	}
	return nil
}

func copyOf(who *identity.Identity) *identity.Identity {
	if who == nil {
		return nil
	}
	c := *who
	return &c
}
