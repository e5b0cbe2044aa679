package world

import (
	"github.com/stargo/server/internal/net"
)

// PlayerInfo holds in-memory data for a player currently in the
// simulation. Accessed only from the game loop goroutine — no locks
// needed.
type PlayerInfo struct {
	SessionID   uint64
	Session     *net.Session
	Player      int32 // assigned player number, unique per server run
	AccountName string

	// Last frame acknowledged by the client (from command target frames);
	// used to notice clients that have stopped keeping up.
	LastAckFrame int64
}

// State tracks all connected participants. Single-goroutine access only
// (game loop).
type State struct {
	bySession map[uint64]*PlayerInfo
	byPlayer  map[int32]*PlayerInfo
	byAccount map[string]*PlayerInfo

	nextPlayer int32
}

func NewState() *State {
	return &State{
		bySession: make(map[uint64]*PlayerInfo),
		byPlayer:  make(map[int32]*PlayerInfo),
		byAccount: make(map[string]*PlayerInfo),
	}
}

// NextPlayerNumber hands out the next free player number. Numbers are
// never reused within a server run, so late packets from a leaver can
// never be attributed to a newcomer.
func (s *State) NextPlayerNumber() int32 {
	s.nextPlayer++
	return s.nextPlayer
}

// AddPlayer registers a joined participant.
func (s *State) AddPlayer(p *PlayerInfo) {
	s.bySession[p.SessionID] = p
	s.byPlayer[p.Player] = p
	s.byAccount[p.AccountName] = p
}

// RemovePlayer removes a participant, returning its info or nil.
func (s *State) RemovePlayer(sessionID uint64) *PlayerInfo {
	p, ok := s.bySession[sessionID]
	if !ok {
		return nil
	}
	delete(s.bySession, sessionID)
	delete(s.byPlayer, p.Player)
	delete(s.byAccount, p.AccountName)
	return p
}

// GetBySession returns a participant by session ID.
func (s *State) GetBySession(sessionID uint64) *PlayerInfo {
	return s.bySession[sessionID]
}

// GetByPlayer returns a participant by player number.
func (s *State) GetByPlayer(player int32) *PlayerInfo {
	return s.byPlayer[player]
}

// GetByAccount returns a participant by account name.
func (s *State) GetByAccount(account string) *PlayerInfo {
	return s.byAccount[account]
}

// PlayerCount returns the number of joined participants.
func (s *State) PlayerCount() int {
	return len(s.bySession)
}

// AllPlayers iterates all joined participants.
func (s *State) AllPlayers(fn func(*PlayerInfo)) {
	for _, p := range s.bySession {
		fn(p)
	}
}
