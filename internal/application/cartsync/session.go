// internal/application/cartsync/session.go
package cartsync

import (
	"sort"

	"anusswar/internal/domain/cart"
	"anusswar/internal/domain/identity"
)

// maxPendingEchoes bounds the echo guard when notifications never arrive
// (watch down while writes succeed).
const maxPendingEchoes = 16

// echo is a cart image this session wrote and expects to see again.
type echo struct {
	token uint64
	image cart.Cart
}

// session is one identity's live link to the remote store.
type session struct {
	who *identity.Identity
	sub Subscription

	// merged is false until local and remote state were reconciled and written,
	// and again after any failed write. While false, remote writes re-fetch and
	// merge first, and notifications are merged instead of applied.
	merged bool

	// remoteIDs are the ids last known to exist remotely.
	remoteIDs map[string]struct{}

	seq     uint64
	pending []echo
}

func newSession(who *identity.Identity) *session {
	return &session{who: who, remoteIDs: map[string]struct{}{}}
}

func (s *session) uid() string { return s.who.UID }

// expect records the image about to be written and returns its token.
func (s *session) expect(image cart.Cart) uint64 {
	s.seq++
	s.pending = append(s.pending, echo{token: s.seq, image: image})
	if over := len(s.pending) - maxPendingEchoes; over > 0 {
		s.pending = append([]echo(nil), s.pending[over:]...)
	}
	return s.seq
}

// drop forgets a token whose batch failed. An atomic batch that failed never echoes.
func (s *session) drop(token uint64) {
	for i, e := range s.pending {
		if e.token == token {
			s.pending = append(s.pending[:i:i], s.pending[i+1:]...)
			return
		}
	}
}

// consume reports whether incoming is the echo of a pending write. A match
// retires that token and every older one: the store delivers states in order,
// so earlier writes can no longer echo on their own.
func (s *session) consume(incoming cart.Cart) bool {
	for i, e := range s.pending {
		if e.image.Equal(incoming) {
			s.pending = append([]echo(nil), s.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (s *session) setRemoteIDs(ids []string) {
	s.remoteIDs = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.remoteIDs[id] = struct{}{}
	}
}

// stale returns remote ids absent from c, sorted.
func (s *session) stale(c cart.Cart) []string {
	var out []string
	for id := range s.remoteIDs {
		if _, ok := c.Find(id); !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
