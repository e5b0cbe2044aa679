package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stargo/server/internal/net/packet"
)

func makeInput(player int32, frame int64, thrustX float64) *Input {
	c := &Input{ThrustX: thrustX}
	c.PlayerNumber = player
	c.TargetFrame = frame
	return c
}

func TestCommand_AuthorityNotOnWire(t *testing.T) {
	spec := makeInput(1, 10, 0.5)
	auth := makeInput(1, 10, 0.5)
	auth.SetAuthoritative(true)

	// The trust flag is transport metadata: the speculative command and
	// its authoritative confirmation must packetize identically.
	assert.Equal(t, Bytes(spec), Bytes(auth))
	assert.Equal(t, Hash(spec), Hash(auth))
	assert.True(t, Equal(spec, auth))
}

func TestCommand_EqualDistinguishesPayload(t *testing.T) {
	a := makeInput(1, 10, 0.5)
	b := makeInput(1, 10, 0.75)
	assert.False(t, Equal(a, b))

	c := makeInput(2, 10, 0.5)
	assert.False(t, Equal(a, c))

	d := makeInput(1, 11, 0.5)
	assert.False(t, Equal(a, d))
}

func TestCommand_EqualDistinguishesKind(t *testing.T) {
	in := makeInput(1, 10, 0)
	sp := &Spawn{Archetype: "ship"}
	sp.PlayerNumber = 1
	sp.TargetFrame = 10
	assert.False(t, Equal(in, sp))
}

func TestCommand_WireRoundTrip(t *testing.T) {
	reg := packet.NewTypeRegistry()
	require.NoError(t, Register(reg))

	orig := makeInput(3, 42, 1.25)
	orig.Turn = -0.5
	orig.Fire = true

	w := packet.NewWriter()
	reg.WritePacketizable(w, orig)

	v, err := reg.ReadPacketizable(packet.NewReader(w.Bytes()))
	require.NoError(t, err)
	got, ok := v.(*Input)
	require.True(t, ok)

	assert.Equal(t, orig.PlayerNumber, got.PlayerNumber)
	assert.Equal(t, orig.TargetFrame, got.TargetFrame)
	assert.Equal(t, orig.ThrustX, got.ThrustX)
	assert.Equal(t, orig.Turn, got.Turn)
	assert.Equal(t, orig.Fire, got.Fire)
	// Authority never travels.
	assert.False(t, got.Authoritative())
}

func TestQueue_StageRejectsUnauthorized(t *testing.T) {
	q := NewQueue()

	sp := &Spawn{Archetype: "ship"}
	sp.PlayerNumber = 1
	sp.TargetFrame = 5
	err := q.Stage(sp)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, q.StagedLen())

	sp.SetAuthoritative(true)
	require.NoError(t, q.Stage(sp))
	assert.Equal(t, 1, q.StagedLen())
}

func TestQueue_DrainBucketsAndApplyOrder(t *testing.T) {
	q := NewQueue()

	// Staged out of player order within one frame.
	require.NoError(t, q.Stage(makeInput(2, 7, 0.2)))
	require.NoError(t, q.Stage(makeInput(1, 7, 0.1)))
	require.NoError(t, q.Stage(makeInput(1, 8, 0.3)))

	accepted, late := q.DrainStaged(7)
	assert.Equal(t, 3, accepted)
	assert.Empty(t, late)

	bucket := q.TakeFrame(7)
	require.Len(t, bucket, 2)
	assert.Equal(t, int32(1), bucket[0].Player())
	assert.Equal(t, int32(2), bucket[1].Player())

	next := q.TakeFrame(8)
	require.Len(t, next, 1)
	assert.Equal(t, int32(1), next[0].Player())

	// Bucket is gone after taking.
	assert.Nil(t, q.TakeFrame(7))
}

func TestQueue_StableOrderWithinPlayer(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Stage(makeInput(1, 7, 0.1)))
	require.NoError(t, q.Stage(makeInput(1, 7, 0.2)))

	q.DrainStaged(7)
	bucket := q.TakeFrame(7)
	require.Len(t, bucket, 2)
	assert.Equal(t, 0.1, bucket[0].(*Input).ThrustX)
	assert.Equal(t, 0.2, bucket[1].(*Input).ThrustX)
}

func TestQueue_LateDetection(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Stage(makeInput(1, 5, 0)))
	require.NoError(t, q.Stage(makeInput(1, 10, 0)))

	accepted, late := q.DrainStaged(8)
	assert.Equal(t, 1, accepted)
	require.Len(t, late, 1)
	assert.Equal(t, int64(5), late[0].Frame())
}

func TestQueue_DuplicateCollapses(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Stage(makeInput(1, 7, 0.5)))
	require.NoError(t, q.Stage(makeInput(1, 7, 0.5)))

	q.DrainStaged(7)
	assert.Equal(t, 1, q.Pending())
}

func TestQueue_DuplicatePromotesInPlace(t *testing.T) {
	q := NewQueue()

	spec := makeInput(1, 7, 0.5)
	require.NoError(t, q.Stage(spec))
	q.DrainStaged(7)

	auth := makeInput(1, 7, 0.5)
	auth.SetAuthoritative(true)
	require.NoError(t, q.Stage(auth))
	q.DrainStaged(7)

	assert.Equal(t, 1, q.Pending())
	bucket := q.TakeFrame(7)
	require.Len(t, bucket, 1)
	assert.True(t, bucket[0].Authoritative())
	// The queued instance kept its identity; only the flag changed.
	assert.Same(t, spec, bucket[0])
}

func TestQueue_Promote(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Stage(makeInput(1, 7, 0.5)))
	q.DrainStaged(7)

	assert.True(t, q.Promote(makeInput(1, 7, 0.5)))
	assert.False(t, q.Promote(makeInput(1, 7, 0.9)))
	assert.False(t, q.Promote(makeInput(2, 7, 0.5)))

	bucket := q.TakeFrame(7)
	require.Len(t, bucket, 1)
	assert.True(t, bucket[0].Authoritative())
}

func TestQueue_ConcurrentStaging(t *testing.T) {
	q := NewQueue()
	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				_ = q.Stage(makeInput(int32(g), 10, float64(i)))
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}

	assert.Equal(t, 800, q.StagedLen())
	accepted, late := q.DrainStaged(10)
	assert.Equal(t, 800, accepted)
	assert.Empty(t, late)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Queued", StateQueued.String())
	assert.Equal(t, "Applied", StateApplied.String())
}
