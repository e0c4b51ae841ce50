package cache

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/gr/device"
)

type fakeResource struct {
	id       uint64
	size     int64
	released int
}

var fakeIDs uint64

func newFake(size int64) *fakeResource {
	fakeIDs++
	return &fakeResource{id: fakeIDs, size: size}
}

func (f *fakeResource) ID() uint64       { return f.id }
func (f *fakeResource) SizeBytes() int64 { return f.size }
func (f *fakeResource) Release()         { f.released++ }
func (f *fakeResource) Abandon()         {}
func (f *fakeResource) IsValid() bool    { return f.released == 0 }

func scratchKey(w, h int) Key {
	return ScratchKey(device.TextureDesc{Width: w, Height: h, Format: gputypes.TextureFormatRGBA8Unorm})
}

func TestFindAndLockKinds(t *testing.T) {
	c := New(10, 1<<20, nil)
	key := StencilKey(64, 64, 1)
	res := newFake(100)
	e, err := c.CreateAndLock(key, res)
	require.NoError(t, err)
	assert.Equal(t, 1, e.LockCount())

	assert.Nil(t, c.FindAndLock(key, LockSingle), "single lock must skip locked entries")
	nested := c.FindAndLock(key, LockNested)
	require.Same(t, e, nested)
	assert.Equal(t, 2, e.LockCount())

	c.Unlock(e)
	c.Unlock(e)
	assert.Same(t, e, c.FindAndLock(key, LockSingle))

	st := c.Stats()
	assert.EqualValues(t, 2, st.Hits)
	assert.EqualValues(t, 1, st.Misses)
}

func TestCreateAndLockDuplicateKey(t *testing.T) {
	c := New(10, 1<<20, nil)
	key := scratchKey(16, 16)
	_, err := c.CreateAndLock(key, newFake(1))
	require.NoError(t, err)

	other := newFake(1)
	_, err = c.CreateAndLock(key, other)
	assert.ErrorIs(t, err, ErrKeyExists)
	assert.Zero(t, other.released)
	assert.Equal(t, 1, c.Count())
}

func TestAddAndLockSharesKey(t *testing.T) {
	c := New(10, 1<<20, nil)
	key := StencilKey(32, 32, 1)
	a := c.AddAndLock(key, newFake(10))
	b := c.AddAndLock(key, newFake(10))
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, c.Count())
	assert.Nil(t, c.FindAndLock(key, LockSingle))

	c.Unlock(b)
	assert.Same(t, b, c.FindAndLock(key, LockSingle))
}

func TestEvictionLeastRecentlyUnlocked(t *testing.T) {
	c := New(2, 1<<20, nil)
	a, b, d := newFake(10), newFake(10), newFake(10)

	ea, _ := c.CreateAndLock(scratchKey(1, 1), a)
	eb, _ := c.CreateAndLock(scratchKey(2, 2), b)
	c.Unlock(eb)
	c.Unlock(ea)

	_, err := c.CreateAndLock(scratchKey(3, 3), d)
	require.NoError(t, err)

	assert.Equal(t, 1, b.released, "first unlocked is evicted first")
	assert.Zero(t, a.released)
	assert.False(t, c.HasKey(scratchKey(2, 2)))
	assert.EqualValues(t, 1, c.Stats().Evictions)
}

func TestEvictionHookRunsBeforeRelease(t *testing.T) {
	c := New(1, 1<<20, nil)
	a := newFake(10)
	var calls, releasedAtHook int
	c.SetEvictionHook(func() {
		calls++
		releasedAtHook = a.released
	})

	ea, _ := c.CreateAndLock(scratchKey(1, 1), a)
	c.Unlock(ea)
	assert.Zero(t, calls, "no sweep while within budget")

	_, err := c.CreateAndLock(scratchKey(2, 2), newFake(10))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Zero(t, releasedAtHook, "the hook sees the entry before it is released")
	assert.Equal(t, 1, a.released)

	// Nothing evictable: the hook is not needed.
	_, err = c.CreateAndLock(scratchKey(3, 3), newFake(10))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestEvictionNeverTouchesLocked(t *testing.T) {
	c := New(1, 15, nil)
	var fakes []*fakeResource
	for i := range 4 {
		f := newFake(10)
		fakes = append(fakes, f)
		_, err := c.CreateAndLock(scratchKey(i+1, 1), f)
		require.NoError(t, err)
	}
	for _, f := range fakes {
		assert.Zero(t, f.released)
	}
	assert.Equal(t, 4, c.Count())
	assert.EqualValues(t, 40, c.Bytes())
}

func TestDetachHidesFromLookup(t *testing.T) {
	c := New(10, 1<<20, nil)
	key := scratchKey(8, 8)
	e, _ := c.CreateAndLock(key, newFake(4))
	c.Detach(e)

	assert.False(t, c.HasKey(key))
	assert.Nil(t, c.FindAndLock(key, LockNested))
	assert.Equal(t, 1, c.Stats().Detached)

	c.ReattachAndUnlock(e)
	assert.True(t, c.HasKey(key))
	assert.Same(t, e, c.FindAndLock(key, LockSingle))
}

func TestAttachIsImmediatelyReusable(t *testing.T) {
	c := New(10, 1<<20, nil)
	res := newFake(4)
	e := c.Attach(scratchKey(4, 4), res)
	assert.False(t, e.IsLocked())
	assert.Same(t, e, c.EntryFor(res))
	assert.Same(t, e, c.FindAndLock(scratchKey(4, 4), LockSingle))
}

func TestRemoveAllLeaksLocked(t *testing.T) {
	c := New(10, 1<<20, nil)
	l1, l2, u := newFake(1), newFake(1), newFake(1)
	e1, _ := c.CreateAndLock(scratchKey(1, 1), l1)
	e2, _ := c.CreateAndLock(scratchKey(2, 1), l2)
	eu, _ := c.CreateAndLock(scratchKey(3, 1), u)
	c.Unlock(eu)

	c.RemoveAll()
	assert.Zero(t, c.Count())
	assert.Zero(t, c.Bytes())
	assert.Equal(t, 1, u.released)
	assert.Zero(t, l1.released)
	assert.False(t, e1.IsValid())
	assert.Same(t, e1, c.EntryFor(l1), "locked entries stay reachable until unlocked")

	c.Unlock(e1)
	c.Unlock(e2)
	assert.Equal(t, 1, l1.released)
	assert.Equal(t, 1, l2.released)
	assert.Zero(t, c.Count())
	assert.Nil(t, c.EntryFor(l1))
}

func TestSetLimitsDefersSweep(t *testing.T) {
	c := New(10, 1<<20, nil)
	for i := range 3 {
		e, _ := c.CreateAndLock(scratchKey(i+1, 1), newFake(1))
		c.Unlock(e)
	}
	c.SetLimits(1, 1<<20)
	assert.Equal(t, 3, c.Count())

	n, b := c.Limits()
	assert.Equal(t, 1, n)
	assert.EqualValues(t, 1<<20, b)

	c.PurgeAsNeeded()
	assert.Equal(t, 1, c.Count())
}

func TestFreeEntry(t *testing.T) {
	c := New(10, 1<<20, nil)
	res := newFake(1)
	e, _ := c.CreateAndLock(scratchKey(1, 1), res)
	assert.ErrorIs(t, c.FreeEntry(e), ErrEntryLocked)

	c.Unlock(e)
	require.NoError(t, c.FreeEntry(e))
	assert.Equal(t, 1, res.released)
	assert.ErrorIs(t, c.FreeEntry(e), ErrUnknownEntry)
	assert.Nil(t, c.EntryFor(res))
}

func TestKeyFingerprint(t *testing.T) {
	desc := device.TextureDesc{Width: 256, Height: 128, Format: gputypes.TextureFormatRGBA8Unorm, Flags: device.FlagRenderTarget}
	a, b := ScratchKey(desc), ScratchKey(desc)
	assert.Equal(t, a, b)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	desc.Width = 512
	assert.NotEqual(t, a.Fingerprint(), ScratchKey(desc).Fingerprint())
	assert.NotEqual(t, a, TextureKey(0, device.TextureDesc{Width: 256, Height: 128, Format: gputypes.TextureFormatRGBA8Unorm, Flags: device.FlagRenderTarget}, 0))
	assert.Contains(t, a.String(), "scratch[256x128 rgba8 rt")
}

func TestStatsString(t *testing.T) {
	c := New(DefaultMaxCount, DefaultMaxBytes, nil)
	_, err := c.CreateAndLock(scratchKey(1, 1), newFake(2048))
	require.NoError(t, err)
	assert.Equal(t, "Cache[1/256 entries, 2/16384 KB, 1 locked, 0 detached, 0 hits, 0 misses, 0 evictions]", c.Stats().String())
}
