package cartsync

import (
	"context"
	"sync"

	"anusswar/internal/domain/cart"
	"anusswar/internal/domain/identity"
)

// ----------------------------
// Local store
// ----------------------------

type memLocal struct {
	mu     sync.Mutex
	data   map[string]string
	sets   int
	getErr error
}

func newMemLocal() *memLocal { return &memLocal{data: map[string]string{}} }

func (m *memLocal) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memLocal) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *memLocal) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// ----------------------------
// Remote store
// ----------------------------

type writeCall struct {
	uid     string
	upserts []cart.Line
	deletes []string
}

type fakeRemote struct {
	mu       sync.Mutex
	state    map[string][]cart.Line
	fetchErr error
	writeErr error
	fetches  int
	writes   []writeCall
	subs     []*fakeSub
}

func newFakeRemote() *fakeRemote { return &fakeRemote{state: map[string][]cart.Line{}} }

func (f *fakeRemote) seed(uid string, lines ...cart.Line) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state[uid] = append([]cart.Line(nil), lines...)
}

func (f *fakeRemote) FetchLines(_ context.Context, uid string) ([]cart.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]cart.Line(nil), f.state[uid]...), nil
}

func (f *fakeRemote) WriteLines(_ context.Context, uid string, upserts []cart.Line, deletes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, writeCall{
		uid:     uid,
		upserts: append([]cart.Line(nil), upserts...),
		deletes: append([]string(nil), deletes...),
	})

	gone := map[string]bool{}
	for _, id := range deletes {
		gone[id] = true
	}
	for _, l := range upserts {
		gone[l.ItemID] = true
	}
	next := append([]cart.Line(nil), upserts...)
	for _, l := range f.state[uid] {
		if !gone[l.ItemID] {
			next = append(next, l)
		}
	}
	f.state[uid] = next
	return nil
}

func (f *fakeRemote) WatchLines(_ context.Context, uid string, onChange func([]cart.Line), onError func(error)) (Subscription, error) {
	f.mu.Lock()
	initial := append([]cart.Line(nil), f.state[uid]...)
	f.mu.Unlock()

	sub := &fakeSub{
		uid:        uid,
		initial:    initial,
		deliveries: make(chan delivery),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go func() {
		defer close(sub.done)
		for {
			select {
			case d := <-sub.deliveries:
				if d.err != nil {
					onError(d.err)
				} else {
					onChange(d.lines)
				}
				close(d.ack)
			case <-sub.quit:
				return
			}
		}
	}()

	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub, nil
}

// current returns the remote state for uid, as a notification would carry it.
func (f *fakeRemote) current(uid string) []cart.Line {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cart.Line(nil), f.state[uid]...)
}

func (f *fakeRemote) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeRemote) lastWrite() writeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[len(f.writes)-1]
}

func (f *fakeRemote) sub(i int) *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[i]
}

func (f *fakeRemote) subCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type delivery struct {
	lines []cart.Line
	err   error
	ack   chan struct{}
}

type fakeSub struct {
	uid        string
	initial    []cart.Line // remote state when the watch opened
	deliveries chan delivery
	quit       chan struct{}
	done       chan struct{}
	once       sync.Once
}

func (s *fakeSub) Stop() {
	s.once.Do(func() { close(s.quit) })
	<-s.done
}

// emit delivers lines on the subscription goroutine and waits for the
// callback to return. It reports false when the subscription has stopped.
func (s *fakeSub) emit(lines []cart.Line) bool {
	return s.send(delivery{lines: lines, ack: make(chan struct{})})
}

// emitInitial delivers the snapshot every Firestore listener sends first:
// the remote state as it was when the watch opened.
func (s *fakeSub) emitInitial() bool {
	return s.emit(s.initial)
}

func (s *fakeSub) fail(err error) bool {
	return s.send(delivery{err: err, ack: make(chan struct{})})
}

func (s *fakeSub) send(d delivery) bool {
	select {
	case s.deliveries <- d:
		<-d.ack
		return true
	case <-s.done:
		return false
	}
}

func (s *fakeSub) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// ----------------------------
// Identity source
// ----------------------------

type fakeIdentity struct {
	mu   sync.Mutex
	cur  *identity.Identity
	fns  map[int]func(*identity.Identity)
	next int
}

func newFakeIdentity(cur *identity.Identity) *fakeIdentity {
	return &fakeIdentity{cur: cur, fns: map[int]func(*identity.Identity){}}
}

func (f *fakeIdentity) OnIdentityChange(fn func(*identity.Identity)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.fns[id] = fn
	cur := f.cur
	f.mu.Unlock()

	fn(cur)
	return func() {
		f.mu.Lock()
		delete(f.fns, id)
		f.mu.Unlock()
	}
}

func (f *fakeIdentity) set(who *identity.Identity) {
	f.mu.Lock()
	f.cur = who
	fns := make([]func(*identity.Identity), 0, len(f.fns))
	for _, fn := range f.fns {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(who)
	}
}

func (f *fakeIdentity) listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fns)
}
