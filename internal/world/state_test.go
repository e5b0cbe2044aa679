package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_AddRemoveLookups(t *testing.T) {
	s := NewState()
	p := &PlayerInfo{
		SessionID:   7,
		Player:      s.NextPlayerNumber(),
		AccountName: "orca",
	}
	s.AddPlayer(p)

	assert.Equal(t, 1, s.PlayerCount())
	assert.Same(t, p, s.GetBySession(7))
	assert.Same(t, p, s.GetByPlayer(p.Player))
	assert.Same(t, p, s.GetByAccount("orca"))

	removed := s.RemovePlayer(7)
	require.Same(t, p, removed)
	assert.Equal(t, 0, s.PlayerCount())
	assert.Nil(t, s.GetBySession(7))
	assert.Nil(t, s.GetByPlayer(p.Player))
	assert.Nil(t, s.GetByAccount("orca"))

	// Removing twice returns nil.
	assert.Nil(t, s.RemovePlayer(7))
}

func TestState_PlayerNumbersNeverReused(t *testing.T) {
	s := NewState()
	a := s.NextPlayerNumber()
	p := &PlayerInfo{SessionID: 1, Player: a, AccountName: "a"}
	s.AddPlayer(p)
	s.RemovePlayer(1)

	b := s.NextPlayerNumber()
	assert.NotEqual(t, a, b)
	assert.Greater(t, b, a)
}

func TestState_AllPlayers(t *testing.T) {
	s := NewState()
	for i := uint64(1); i <= 3; i++ {
		s.AddPlayer(&PlayerInfo{
			SessionID:   i,
			Player:      s.NextPlayerNumber(),
			AccountName: string(rune('a' + i)),
		})
	}

	seen := make(map[uint64]bool)
	s.AllPlayers(func(p *PlayerInfo) { seen[p.SessionID] = true })
	assert.Len(t, seen, 3)
}
