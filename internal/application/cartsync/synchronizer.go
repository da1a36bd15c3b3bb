// internal/application/cartsync/synchronizer.go
package cartsync

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"anusswar/internal/domain/cart"
	"anusswar/internal/domain/identity"
)

var (
	// ErrRemoteUnavailable marks remote fetch/write/watch failures. They are logged, never returned.
	ErrRemoteUnavailable = errors.New("cartsync: remote unavailable")
	// ErrParseFailure marks unreadable local state. The cart starts empty.
	ErrParseFailure = errors.New("cartsync: local cart unreadable")
)

// DefaultStorageKey is the local store key holding the cart.
const DefaultStorageKey = "cart"

// Synchronizer owns the in-memory cart and keeps it in step with the local
// store and, while an identity is attached, the remote store.
//
// Every public operation holds one mutex for its whole run, remote writes
// included. Remote notifications take the same mutex.
type Synchronizer struct {
	local  LocalStore
	remote RemoteStore
	ids    IdentitySource
	log    *logrus.Logger

	key       string
	observers []Observer

	mu          sync.Mutex
	ctx         context.Context
	cart        cart.Cart
	sess        *session
	initialized bool
	unsubscribe func()
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) Option {
	return func(s *Synchronizer) {
		if k := strings.TrimSpace(key); k != "" {
			s.key = k
		}
	}
}

// WithObserver registers a render callback.
func WithObserver(obs Observer) Option {
	return func(s *Synchronizer) {
		if obs != nil {
			s.observers = append(s.observers, obs)
		}
	}
}

// New builds a Synchronizer. remote and ids may be nil for a local-only cart.
func New(local LocalStore, remote RemoteStore, ids IdentitySource, logger *logrus.Logger, opts ...Option) *Synchronizer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Synchronizer{
		local:  local,
		remote: remote,
		ids:    ids,
		log:    logger,
		key:    DefaultStorageKey,
		ctx:    context.Background(),
		cart:   cart.Cart{Lines: []cart.Line{}},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Initialize loads the local cart, renders it and starts following identity
// changes. Unreadable local state is logged and replaced by an empty cart.
// ctx bounds the remote calls made on identity changes.
func (s *Synchronizer) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	s.ctx = ctx
	s.cart = s.loadLocal()
	s.render()
	s.mu.Unlock()

	if s.ids == nil {
		return nil
	}

	// Registration may deliver synchronously; the mutex must be free.
	unsub := s.ids.OnIdentityChange(func(who *identity.Identity) {
		if who == nil || strings.TrimSpace(who.UID) == "" {
			s.DetachRemote()
			return
		}
		_ = s.AttachRemote(ctx, who)
	})

	s.mu.Lock()
	s.unsubscribe = unsub
	s.mu.Unlock()
	return nil
}

// AttachRemote merges the local cart with who's remote cart, writes the result
// to both stores and opens a live subscription. It is a no-op when a session
// for who is already open; a session for another identity is detached first.
// Remote failures are logged and leave the local cart active.
func (s *Synchronizer) AttachRemote(ctx context.Context, who *identity.Identity) error {
	if who == nil || strings.TrimSpace(who.UID) == "" {
		return errors.New("cartsync: attach requires an identity")
	}

	// Stop a foreign session without the lock: its delivery goroutine may be waiting on it.
	for {
		s.mu.Lock()
		if s.sess == nil {
			break
		}
		if s.sess.uid() == who.UID {
			s.mu.Unlock()
			return nil
		}
		prev := s.sess
		s.sess = nil
		s.mu.Unlock()
		stop(prev)
	}
	defer s.mu.Unlock()

	sess := newSession(who)
	s.sess = sess
	entry := s.log.WithField("uid", who.UID)

	if s.remote == nil {
		entry.WithError(ErrRemoteUnavailable).Warn("[cartsync] no remote store configured; cart stays local")
		return nil
	}

	if s.reconcile(ctx, sess, nil) {
		s.render()
	}

	sub, err := s.remote.WatchLines(context.WithoutCancel(ctx), who.UID,
		func(lines []cart.Line) { s.onRemote(sess, lines) },
		func(err error) { s.onRemoteError(sess, err) },
	)
	if err != nil {
		entry.WithError(errors.Wrapf(ErrRemoteUnavailable, "watch: %v", err)).Warn("[cartsync] subscription failed")
		return nil
	}
	sess.sub = sub
	entry.WithField("lines", len(s.cart.Lines)).Info("[cartsync] attached")
	return nil
}

// DetachRemote closes the live subscription. No remote notification is applied
// after it returns. The in-memory cart is kept; later mutations persist locally only.
func (s *Synchronizer) DetachRemote() {
	s.mu.Lock()
	sess := s.sess
	s.sess = nil
	s.mu.Unlock()

	if sess == nil {
		return
	}
	stop(sess)
	s.log.WithField("uid", sess.uid()).Info("[cartsync] detached")
}

// Close stops following identity changes and detaches.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	s.DetachRemote()
}

// AddItem adds qty of p, incrementing an existing line.
func (s *Synchronizer) AddItem(ctx context.Context, p cart.Product, qty int) error {
	return s.mutate(ctx, "add", p.ItemID, func(c *cart.Cart) error { return c.Add(p, qty) })
}

// SetQuantity replaces a line's quantity. On error the cart is unchanged.
func (s *Synchronizer) SetQuantity(ctx context.Context, itemID string, qty int) error {
	return s.mutate(ctx, "set", itemID, func(c *cart.Cart) error { return c.SetQuantity(itemID, qty) })
}

func (s *Synchronizer) Increment(ctx context.Context, itemID string) error {
	return s.mutate(ctx, "increment", itemID, func(c *cart.Cart) error { return c.Increment(itemID) })
}

// Decrement removes the line when its quantity is 1.
func (s *Synchronizer) Decrement(ctx context.Context, itemID string) error {
	return s.mutate(ctx, "decrement", itemID, func(c *cart.Cart) error { return c.Decrement(itemID) })
}

func (s *Synchronizer) RemoveItem(ctx context.Context, itemID string) error {
	return s.mutate(ctx, "remove", itemID, func(c *cart.Cart) error { return c.Remove(itemID) })
}

// Clear empties the cart in every active store.
func (s *Synchronizer) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", "", func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

// Cart returns a snapshot.
func (s *Synchronizer) Cart() cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Count is the badge number.
func (s *Synchronizer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Count()
}

// Attached returns the uid of the open session, if any.
func (s *Synchronizer) Attached() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return "", false
	}
	return s.sess.uid(), true
}

// ----------------------------
// Internals (mu held)
// ----------------------------

// mutate applies fn to a copy so a failing operation leaves the cart untouched.
func (s *Synchronizer) mutate(ctx context.Context, op, itemID string, fn func(*cart.Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	if err := fn(&next); err != nil {
		entry := s.log.WithFields(logrus.Fields{"op": op, "itemId": itemID}).WithError(err)
		if errors.Is(err, cart.ErrItemNotFound) {
			entry.Warn("[cartsync] item not in cart")
		} else {
			entry.Debug("[cartsync] rejected")
		}
		return err
	}
	s.cart = next
	s.persist(ctx)
	s.render()
	return nil
}

// persist writes the cart to the local store and, when attached, to the remote store.
// The local write never depends on the remote outcome.
func (s *Synchronizer) persist(ctx context.Context) {
	s.saveLocal()

	sess := s.sess
	if sess == nil || s.remote == nil {
		return
	}
	if !sess.merged {
		// Attach-time fetch failed earlier; merge before the first remote write.
		s.reconcile(ctx, sess, nil)
		return
	}
	_ = s.push(ctx, sess)
}

// reconcile merges the in-memory cart with remote and writes the result to both
// stores. remote == nil means fetch it. Fetch failure leaves everything as is
// and reports false. The caller renders.
func (s *Synchronizer) reconcile(ctx context.Context, sess *session, remote *cart.Cart) bool {
	if remote == nil {
		lines, err := s.remote.FetchLines(ctx, sess.uid())
		if err != nil {
			s.log.WithField("uid", sess.uid()).
				WithError(errors.Wrapf(ErrRemoteUnavailable, "fetch: %v", err)).
				Warn("[cartsync] remote fetch failed; keeping local cart")
			return false
		}
		fetched := cart.New(lines)
		remote = &fetched
	}

	sess.setRemoteIDs(remote.IDs())
	s.cart = cart.Merge(s.cart, *remote)
	s.saveLocal()

	// push clears this again when the write fails: the remote still holds its
	// old state and the next notification must be merged, not applied.
	sess.merged = true
	_ = s.push(ctx, sess)
	return true
}

// push writes the cart as one batch: every line upserted, remote-only ids deleted.
// A failed batch marks the session unmerged so local lines missing remotely survive.
func (s *Synchronizer) push(ctx context.Context, sess *session) error {
	image := s.cart.Clone()
	deletes := sess.stale(image)
	token := sess.expect(image)

	if err := s.remote.WriteLines(ctx, sess.uid(), image.Lines, deletes); err != nil {
		sess.drop(token)
		sess.merged = false
		s.log.WithFields(logrus.Fields{"uid": sess.uid(), "token": token}).
			WithError(errors.Wrapf(ErrRemoteUnavailable, "write: %v", err)).
			Warn("[cartsync] remote write failed; local copy kept")
		return err
	}
	sess.setRemoteIDs(image.IDs())
	return nil
}

func (s *Synchronizer) onRemote(sess *session, lines []cart.Line) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess != sess {
		return
	}

	incoming := cart.New(lines)
	if !sess.merged {
		s.reconcile(s.ctx, sess, &incoming)
		s.render()
		return
	}

	sess.setRemoteIDs(incoming.IDs())
	if sess.consume(incoming) {
		return
	}
	if incoming.Equal(s.cart) {
		return
	}

	s.cart = incoming
	s.saveLocal()
	s.render()
	s.log.WithFields(logrus.Fields{"uid": sess.uid(), "lines": len(incoming.Lines)}).Debug("[cartsync] applied remote change")
}

func (s *Synchronizer) onRemoteError(sess *session, err error) {
	s.mu.Lock()
	current := s.sess == sess
	s.mu.Unlock()
	if !current {
		return
	}
	s.log.WithField("uid", sess.uid()).
		WithError(errors.Wrapf(ErrRemoteUnavailable, "watch: %v", err)).
		Warn("[cartsync] subscription error")
}

func (s *Synchronizer) loadLocal() cart.Cart {
	empty := cart.Cart{Lines: []cart.Line{}}

	raw, ok, err := s.local.Get(s.key)
	if err != nil {
		s.log.WithField("key", s.key).WithError(errors.Wrapf(ErrParseFailure, "read: %v", err)).Warn("[cartsync] local cart unreadable; starting empty")
		return empty
	}
	if !ok {
		return empty
	}

	c, err := cart.Decode(raw)
	if err != nil {
		s.log.WithField("key", s.key).WithError(errors.Wrap(ErrParseFailure, err.Error())).Warn("[cartsync] local cart unreadable; starting empty")
		return empty
	}
	return c
}

func (s *Synchronizer) saveLocal() {
	raw, err := cart.Encode(s.cart)
	if err == nil {
		err = s.local.Set(s.key, raw)
	}
	if err != nil {
		s.log.WithField("key", s.key).WithError(err).Error("[cartsync] local write failed")
	}
}

func (s *Synchronizer) render() {
	for _, obs := range s.observers {
		obs(s.cart.Clone())
	}
}

func stop(sess *session) {
	if sess != nil && sess.sub != nil {
		sess.sub.Stop()
	}
}
