package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/stargo/server/internal/core/system"
	"github.com/stargo/server/internal/handler"
	"github.com/stargo/server/internal/net"
	"github.com/stargo/server/internal/net/packet"
)

// InputSystem drains network queues at the start of every tick: new
// connections are registered, pending packets are dispatched to their
// handlers, and dead sessions are cleaned out of the simulation. All
// handler code runs here, on the tick goroutine, so handlers never
// race the simulation.
type InputSystem struct {
	netServer  *net.Server
	store      *net.SessionStore
	registry   *packet.Registry
	deps       *handler.Deps
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(
	netServer *net.Server,
	store *net.SessionStore,
	registry *packet.Registry,
	deps *handler.Deps,
	maxPerTick int,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		netServer:  netServer,
		store:      store,
		registry:   registry,
		deps:       deps,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(dt time.Duration) {
	s.acceptNew()
	s.reapDead()
	s.dispatchPackets()
}

// acceptNew registers sessions handed over by the accept loop. Their
// I/O goroutines are already running — the accept loop starts each
// session before queueing it here.
func (s *InputSystem) acceptNew() {
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
		default:
			return
		}
	}
}

// reapDead removes sessions whose goroutines reported death through
// the server. The session may already have been cleaned up by the
// packet path; Remove on an absent ID is a no-op.
func (s *InputSystem) reapDead() {
	for {
		select {
		case id := <-s.netServer.DeadSessions():
			if sess, ok := s.store.Get(id); ok {
				s.disconnect(sess)
			}
			s.store.Remove(id)
		default:
			return
		}
	}
}

func (s *InputSystem) dispatchPackets() {
	for id, sess := range s.store.Raw() {
		handled := 0
		for handled < s.maxPerTick {
			select {
			case data := <-sess.InQueue:
				handled++
				if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
					s.log.Warn("封包分派錯誤",
						zap.Uint64("session", sess.ID),
						zap.Error(err))
				}
			default:
				handled = s.maxPerTick
			}
		}

		if sess.IsClosed() {
			s.drainClosed(sess)
			s.disconnect(sess)
			s.netServer.NotifyDead(sess.ID)
			s.store.Remove(id)
		}
	}

	// Flush handler replies before the simulation phase so login and
	// snapshot packets reach the client ahead of this tick's bundle.
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

// drainClosed consumes whatever packets arrived before the session
// died so the quit handler observes the final client state.
func (s *InputSystem) drainClosed(sess *net.Session) {
	for {
		select {
		case data := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
				s.log.Warn("封包分派錯誤",
					zap.Uint64("session", sess.ID),
					zap.Error(err))
			}
		default:
			return
		}
	}
}

func (s *InputSystem) disconnect(sess *net.Session) {
	handler.LeaveSimulation(sess, s.deps)
	sess.FlushOutput()
	sess.Close()
}

// SessionCount reports how many sessions the store currently tracks.
func (s *InputSystem) SessionCount() int {
	return s.store.Len()
}
