package cartsync

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"anusswar/internal/domain/cart"
	"anusswar/internal/domain/identity"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var alice = &identity.Identity{UID: "alice", Email: "alice@example.com"}

func line(id string, qty int) cart.Line {
	return cart.Line{ItemID: id, Name: "Item " + id, UnitPrice: decimal.NewFromInt(100), ImageRef: id + ".jpg", Quantity: qty}
}

func product(id string, price int64) cart.Product {
	return cart.Product{ItemID: id, Name: "Item " + id, UnitPrice: decimal.NewFromInt(price), ImageRef: id + ".jpg"}
}

type renders struct {
	mu   sync.Mutex
	n    int
	last cart.Cart
}

func (r *renders) observe(c cart.Cart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	r.last = c
}

func (r *renders) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

type harness struct {
	sync   *Synchronizer
	local  *memLocal
	remote *fakeRemote
	r      *renders
	hook   *logtest.Hook
}

func newHarness(t *testing.T, ids IdentitySource) *harness {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	h := &harness{local: newMemLocal(), remote: newFakeRemote(), r: &renders{}, hook: hook}
	h.sync = New(h.local, h.remote, ids, logger, WithObserver(h.r.observe))
	t.Cleanup(h.sync.Close)
	return h
}

func (h *harness) storedCart(t *testing.T) cart.Cart {
	t.Helper()
	raw, ok, err := h.local.Get(DefaultStorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	c, err := cart.Decode(raw)
	require.NoError(t, err)
	return c
}

func (h *harness) seedLocal(t *testing.T, lines ...cart.Line) {
	t.Helper()
	raw, err := cart.Encode(cart.New(lines))
	require.NoError(t, err)
	require.NoError(t, h.local.Set(DefaultStorageKey, raw))
}

func loggedErr(hook *logtest.Hook, target error) bool {
	for _, e := range hook.AllEntries() {
		if err, ok := e.Data[logrus.ErrorKey].(error); ok && errors.Is(err, target) {
			return true
		}
	}
	return false
}

func TestInitialize_LoadsLocalCart(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.seedLocal(t, line("A", 2))

	require.NoError(t, h.sync.Initialize(ctx))

	assert.Equal(t, 2, h.sync.Count())
	assert.Equal(t, 1, h.r.count())
}

func TestInitialize_UnreadableLocalStartsEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed json", func(t *testing.T) {
		h := newHarness(t, nil)
		require.NoError(t, h.local.Set(DefaultStorageKey, `{"id":"A"}`))

		require.NoError(t, h.sync.Initialize(ctx))
		assert.True(t, h.sync.Cart().IsEmpty())
		assert.True(t, loggedErr(h.hook, ErrParseFailure))
	})

	t.Run("read error", func(t *testing.T) {
		h := newHarness(t, nil)
		h.local.getErr = errors.New("disk gone")

		require.NoError(t, h.sync.Initialize(ctx))
		assert.True(t, h.sync.Cart().IsEmpty())
		assert.True(t, loggedErr(h.hook, ErrParseFailure))
	})
}

func TestAttach_MergesAndWritesBothSides(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.seedLocal(t, line("A", 2))
	h.remote.seed(alice.UID, line("A", 5), line("B", 1))
	require.NoError(t, h.sync.Initialize(ctx))

	require.NoError(t, h.sync.AttachRemote(ctx, alice))

	got := h.sync.Cart()
	assert.Equal(t, []string{"A", "B"}, got.IDs())
	a, _ := got.Find("A")
	assert.Equal(t, 5, a.Quantity)
	assert.True(t, h.storedCart(t).Equal(got))

	require.Equal(t, 1, h.remote.writeCount())
	w := h.remote.lastWrite()
	assert.Len(t, w.upserts, 2)
	assert.Empty(t, w.deletes)
	assert.Equal(t, 1, h.remote.subCount())

	uid, ok := h.sync.Attached()
	assert.True(t, ok)
	assert.Equal(t, alice.UID, uid)
}

func TestAttach_SameIdentityIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.sync.Initialize(ctx))

	require.NoError(t, h.sync.AttachRemote(ctx, alice))
	require.NoError(t, h.sync.AttachRemote(ctx, &identity.Identity{UID: alice.UID}))

	assert.Equal(t, 1, h.remote.fetches)
	assert.Equal(t, 1, h.remote.subCount())
}

func TestAttach_OtherIdentityReplacesSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.sync.Initialize(ctx))

	require.NoError(t, h.sync.AttachRemote(ctx, alice))
	require.NoError(t, h.sync.AttachRemote(ctx, &identity.Identity{UID: "bob"}))

	require.Equal(t, 2, h.remote.subCount())
	assert.True(t, h.remote.sub(0).stopped())
	assert.False(t, h.remote.sub(1).stopped())
	uid, _ := h.sync.Attached()
	assert.Equal(t, "bob", uid)
}

func TestEchoSuppression(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.sync.Initialize(ctx))
	require.NoError(t, h.sync.AttachRemote(ctx, alice))
	sub := h.remote.sub(0)

	require.NoError(t, h.sync.AddItem(ctx, product("X", 100), 1))
	before := h.r.count()
	want := h.sync.Cart()

	require.True(t, sub.emit(h.remote.current(alice.UID)))

	assert.Equal(t, before, h.r.count(), "echo of our own write must not render again")
	assert.True(t, h.sync.Cart().Equal(want))
}

func TestEchoSuppression_StaleEchoDoesNotRevert(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.sync.Initialize(ctx))
	require.NoError(t, h.sync.AttachRemote(ctx, alice))
	sub := h.remote.sub(0)

	require.NoError(t, h.sync.AddItem(ctx, product("X", 100), 1))
	first := h.remote.current(alice.UID)
	require.NoError(t, h.sync.Increment(ctx, "X"))
	second := h.remote.current(alice.UID)
	before := h.r.count()

	// The store delivers the first write's state after the second write went out.
	require.True(t, sub.emit(first))
	l, _ := h.sync.Cart().Find("X")
	assert.Equal(t, 2, l.Quantity)

	require.True(t, sub.emit(second))
	assert.Equal(t, before, h.r.count())

	h.sync.mu.Lock()
	assert.Empty(t, h.sync.sess.pending)
	h.sync.mu.Unlock()
}

func TestRemoteChangeIsApplied(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.sync.Initialize(ctx))
	require.NoError(t, h.sync.AttachRemote(ctx, alice))
	before := h.r.count()

	// Another device set X to 3 and added Y.
	require.True(t, h.remote.sub(0).emit([]cart.Line{line("X", 3), line("Y", 1)}))

	got := h.sync.Cart()
	assert.Equal(t, 4, got.Count())
	assert.Equal(t, before+1, h.r.count())
	assert.True(t, h.storedCart(t).Equal(got))

	// Removing Y deletes it remotely as well.
	require.NoError(t, h.sync.RemoveItem(ctx, "Y"))
	assert.Equal(t, []string{"Y"}, h.remote.lastWrite().deletes)
}

func TestRemoteWriteFailure_KeepsLocalAndDropsToken(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.sync.Initialize(ctx))
	require.NoError(t, h.sync.AttachRemote(ctx, alice))

	h.sync.mu.Lock()
	pending := len(h.sync.sess.pending)
	h.sync.mu.Unlock()

	h.remote.mu.Lock()
	h.remote.writeErr = errors.New("unavailable")
	h.remote.mu.Unlock()

	require.NoError(t, h.sync.AddItem(ctx, product("X", 100), 2))

	assert.Equal(t, 2, h.storedCart(t).Count())
	assert.True(t, loggedErr(h.hook, ErrRemoteUnavailable))

	h.sync.mu.Lock()
	assert.Len(t, h.sync.sess.pending, pending, "a failed batch leaves no token behind")
	h.sync.mu.Unlock()
}

func TestPendingEchoesAreBounded(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.sync.Initialize(ctx))
	require.NoError(t, h.sync.AttachRemote(ctx, alice))

	for i := 0; i < maxPendingEchoes+10; i++ {
		require.NoError(t, h.sync.AddItem(ctx, product("X", 100), 1))
	}

	h.sync.mu.Lock()
	assert.LessOrEqual(t, len(h.sync.sess.pending), maxPendingEchoes)
	h.sync.mu.Unlock()
}

func TestDetach_LaterNotificationsIgnored(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.sync.Initialize(ctx))
	require.NoError(t, h.sync.AttachRemote(ctx, alice))
	require.NoError(t, h.sync.AddItem(ctx, product("X", 100), 1))

	h.sync.mu.Lock()
	old := h.sync.sess
	h.sync.mu.Unlock()

	h.sync.DetachRemote()
	want := h.sync.Cart()
	writes := h.remote.writeCount()

	assert.False(t, h.remote.sub(0).emit([]cart.Line{line("Z", 9)}))
	h.sync.onRemote(old, []cart.Line{line("Z", 9)})
	assert.True(t, h.sync.Cart().Equal(want))

	require.NoError(t, h.sync.AddItem(ctx, product("Y", 5), 1))
	assert.Equal(t, writes, h.remote.writeCount(), "local store is the only target after detach")
	assert.Equal(t, 2, h.storedCart(t).Count())

	_, ok := h.sync.Attached()
	assert.False(t, ok)
}

func TestAttach_FetchFailureMergesOnFirstNotification(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.seedLocal(t, line("A", 4))
	h.remote.fetchErr = errors.New("offline")
	require.NoError(t, h.sync.Initialize(ctx))

	require.NoError(t, h.sync.AttachRemote(ctx, alice))

	assert.Equal(t, []string{"A"}, h.sync.Cart().IDs())
	assert.Equal(t, 0, h.remote.writeCount())
	require.Equal(t, 1, h.remote.subCount(), "subscription is attempted after a failed fetch")
	assert.True(t, loggedErr(h.hook, ErrRemoteUnavailable))

	require.True(t, h.remote.sub(0).emit([]cart.Line{line("A", 1), line("B", 2)}))

	got := h.sync.Cart()
	a, _ := got.Find("A")
	assert.Equal(t, 4, a.Quantity)
	assert.Equal(t, []string{"A", "B"}, got.IDs())
	assert.Equal(t, 1, h.remote.writeCount())
}

func TestAttach_InitialSnapshotIsConsumedAsEcho(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.seedLocal(t, line("A", 2))
	h.remote.seed(alice.UID, line("B", 1))
	require.NoError(t, h.sync.Initialize(ctx))
	require.NoError(t, h.sync.AttachRemote(ctx, alice))

	want := h.sync.Cart()
	before := h.r.count()

	require.True(t, h.remote.sub(0).emitInitial())

	assert.Equal(t, before, h.r.count(), "the listener's first snapshot is our merge write")
	assert.True(t, h.sync.Cart().Equal(want))
	h.sync.mu.Lock()
	assert.Empty(t, h.sync.sess.pending)
	h.sync.mu.Unlock()
}

func TestAttach_WriteFailureKeepsLocalOnlyLines(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.seedLocal(t, line("A", 2))
	h.remote.seed(alice.UID, line("B", 1))
	h.remote.writeErr = errors.New("unavailable")
	require.NoError(t, h.sync.Initialize(ctx))
	require.NoError(t, h.sync.AttachRemote(ctx, alice))
	assert.Equal(t, []string{"B", "A"}, h.sync.Cart().IDs())

	// The remote still holds [B]; that is what the listener reports first.
	require.True(t, h.remote.sub(0).emitInitial())

	got := h.sync.Cart()
	a, ok := got.Find("A")
	require.True(t, ok, "local-only line survives the initial snapshot")
	assert.Equal(t, 2, a.Quantity)
	_, ok = got.Find("B")
	assert.True(t, ok)
	_, ok = h.storedCart(t).Find("A")
	assert.True(t, ok, "local store keeps the local-only line")

	h.remote.mu.Lock()
	h.remote.writeErr = nil
	h.remote.mu.Unlock()

	require.NoError(t, h.sync.Increment(ctx, "A"))

	remote := cart.New(h.remote.current(alice.UID))
	a, ok = remote.Find("A")
	require.True(t, ok, "next write re-merges and pushes the local-only line")
	assert.Equal(t, 3, a.Quantity)
	_, ok = remote.Find("B")
	assert.True(t, ok)
	h.sync.mu.Lock()
	assert.True(t, h.sync.sess.merged)
	h.sync.mu.Unlock()
}

func TestAddItemTwice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.sync.Initialize(ctx))

	require.NoError(t, h.sync.AddItem(ctx, product("X", 100), 1))
	require.NoError(t, h.sync.AddItem(ctx, product("X", 100), 1))

	got := h.sync.Cart()
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "X", got.Lines[0].ItemID)
	assert.Equal(t, 2, got.Lines[0].Quantity)
}

func TestRejectedOperationsDoNotMutate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.sync.Initialize(ctx))
	require.NoError(t, h.sync.AddItem(ctx, product("A", 10), 1))

	sets, rendered := h.local.setCount(), h.r.count()
	want := h.sync.Cart()

	assert.ErrorIs(t, h.sync.SetQuantity(ctx, "Z", 0), cart.ErrItemNotFound)
	assert.ErrorIs(t, h.sync.SetQuantity(ctx, "A", 0), cart.ErrInvalidQuantity)
	assert.ErrorIs(t, h.sync.RemoveItem(ctx, "Z"), cart.ErrItemNotFound)
	assert.ErrorIs(t, h.sync.AddItem(ctx, product("B", 1), 0), cart.ErrInvalidQuantity)

	assert.True(t, h.sync.Cart().Equal(want))
	assert.Equal(t, sets, h.local.setCount())
	assert.Equal(t, rendered, h.r.count())
}

func TestDecrementAndClear(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.sync.Initialize(ctx))
	require.NoError(t, h.sync.AttachRemote(ctx, alice))

	require.NoError(t, h.sync.AddItem(ctx, product("A", 10), 1))
	require.NoError(t, h.sync.AddItem(ctx, product("B", 10), 2))

	require.NoError(t, h.sync.Decrement(ctx, "A"))
	_, ok := h.sync.Cart().Find("A")
	assert.False(t, ok)

	require.NoError(t, h.sync.Clear(ctx))
	assert.True(t, h.sync.Cart().IsEmpty())
	assert.True(t, h.storedCart(t).IsEmpty())
	assert.Empty(t, h.remote.current(alice.UID))
	assert.Equal(t, []string{"B"}, h.remote.lastWrite().deletes)
}

func TestIdentityChangesDriveSessions(t *testing.T) {
	ctx := context.Background()
	ids := newFakeIdentity(alice)
	h := newHarness(t, ids)

	require.NoError(t, h.sync.Initialize(ctx))
	uid, ok := h.sync.Attached()
	require.True(t, ok, "identity present at startup attaches")
	assert.Equal(t, alice.UID, uid)

	ids.set(nil)
	_, ok = h.sync.Attached()
	assert.False(t, ok)
	assert.True(t, h.remote.sub(0).stopped())

	ids.set(&identity.Identity{UID: "bob"})
	uid, _ = h.sync.Attached()
	assert.Equal(t, "bob", uid)

	h.sync.Close()
	assert.Equal(t, 0, ids.listeners())
	_, ok = h.sync.Attached()
	assert.False(t, ok)
}

func TestSubscriptionErrorIsLogged(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	require.NoError(t, h.sync.Initialize(ctx))
	require.NoError(t, h.sync.AttachRemote(ctx, alice))

	require.True(t, h.remote.sub(0).fail(errors.New("permission denied")))
	assert.True(t, loggedErr(h.hook, ErrRemoteUnavailable))
}

func TestLocalOnlyWithoutRemote(t *testing.T) {
	ctx := context.Background()
	local := newMemLocal()
	s := New(local, nil, nil, nil)
	require.NoError(t, s.Initialize(ctx))
	require.NoError(t, s.AttachRemote(ctx, alice))

	require.NoError(t, s.AddItem(ctx, product("A", 10), 3))
	assert.Equal(t, 3, s.Count())

	raw, ok, err := local.Get(DefaultStorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"quantity":3`)
	s.Close()
}
