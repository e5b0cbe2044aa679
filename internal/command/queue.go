package command

import (
	"fmt"
	"sort"
	"sync"
)

// State is the lifecycle of a queued command.
type State uint8

const (
	StateCreated State = iota
	StateQueued
	StateApplied
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateQueued:
		return "Queued"
	case StateApplied:
		return "Applied"
	case StateDiscarded:
		return "Discarded"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

type entry struct {
	cmd   FrameCommand
	bytes []byte
	hash  uint64
	order int // staging sequence, breaks ties within (frame, player)
	state State
}

// Queue holds frame commands awaiting their target frame. Staging is
// the only concurrency boundary in the engine: network goroutines call
// Stage, the game loop drains once per tick at a single point, and the
// drained set for that tick is immutable afterwards.
//
// The queue never reorders commands across frames. Within one frame,
// apply order is a stable sort by player number then staging order, so
// every machine folds the same frame bucket in the same sequence.
type Queue struct {
	mu     sync.Mutex
	staged []FrameCommand

	buckets map[int64][]*entry
	seq     int
}

func NewQueue() *Queue {
	return &Queue{
		buckets: make(map[int64][]*entry, 16),
	}
}

// Stage hands a command from the network side to the game loop. Kinds
// reserved for trusted input are rejected here, before they can touch
// any simulation state.
func (q *Queue) Stage(c FrameCommand) error {
	if c.RequiresAuthority() && !c.Authoritative() {
		return fmt.Errorf("%w: %T from player %d", ErrUnauthorized, c, c.Player())
	}
	q.mu.Lock()
	q.staged = append(q.staged, c)
	q.mu.Unlock()
	return nil
}

// DrainStaged moves all staged commands into frame buckets. cursor is
// the next frame the simulation will run; commands targeting an earlier
// frame are returned as late for the engine's configured policy
// (rollback or reject) — never applied silently, never fatal.
//
// Duplicates — identical packetized bytes for the same player and
// frame — collapse to one queued instance; an authoritative duplicate
// of a speculative command promotes it in place.
func (q *Queue) DrainStaged(cursor int64) (accepted int, late []FrameCommand) {
	q.mu.Lock()
	staged := q.staged
	q.staged = nil
	q.mu.Unlock()

	for _, c := range staged {
		if c.Frame() < cursor {
			late = append(late, c)
			continue
		}
		if q.enqueue(c) {
			accepted++
		}
	}
	return accepted, late
}

// Enqueue inserts a single command, bypassing staging. Game-loop
// goroutine only (used when re-queueing during a rollback).
func (q *Queue) Enqueue(c FrameCommand) bool {
	return q.enqueue(c)
}

func (q *Queue) enqueue(c FrameCommand) bool {
	bytes := Bytes(c)
	hash := Hash(c)
	bucket := q.buckets[c.Frame()]
	for _, e := range bucket {
		if e.cmd.Player() == c.Player() && e.hash == hash && string(e.bytes) == string(bytes) {
			// Retransmission. An authoritative copy of a speculative
			// command changes the trust flag only, nothing else.
			if c.Authoritative() && !e.cmd.Authoritative() {
				e.cmd.SetAuthoritative(true)
			}
			return false
		}
	}
	q.seq++
	q.buckets[c.Frame()] = append(bucket, &entry{
		cmd:   c,
		bytes: bytes,
		hash:  hash,
		order: q.seq,
		state: StateQueued,
	})
	return true
}

// TakeFrame removes and returns the bucket for one frame in apply
// order. The returned commands are Applied; the bucket is gone.
func (q *Queue) TakeFrame(frame int64) []FrameCommand {
	bucket, ok := q.buckets[frame]
	if !ok {
		return nil
	}
	delete(q.buckets, frame)

	sort.SliceStable(bucket, func(i, j int) bool {
		if bucket[i].cmd.Player() != bucket[j].cmd.Player() {
			return bucket[i].cmd.Player() < bucket[j].cmd.Player()
		}
		return bucket[i].order < bucket[j].order
	})

	out := make([]FrameCommand, len(bucket))
	for i, e := range bucket {
		e.state = StateApplied
		out[i] = e.cmd
	}
	return out
}

// Promote marks the queued command matching c (same frame, player, and
// packetized bytes) as authoritative. Promotion changes the trust flag
// only; it never replaces the queued command or any applied state.
func (q *Queue) Promote(c FrameCommand) bool {
	bytes := Bytes(c)
	hash := Hash(c)
	for _, e := range q.buckets[c.Frame()] {
		if e.cmd.Player() == c.Player() && e.hash == hash && string(e.bytes) == string(bytes) {
			e.cmd.SetAuthoritative(true)
			return true
		}
	}
	return false
}

// Pending returns the number of queued commands across all frames.
func (q *Queue) Pending() int {
	n := 0
	for _, bucket := range q.buckets {
		n += len(bucket)
	}
	return n
}

// StagedLen reports how many commands await the next drain.
func (q *Queue) StagedLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.staged)
}
