package system

import (
	"time"

	coresys "github.com/stargo/server/internal/core/system"
	"github.com/stargo/server/internal/handler"
	"github.com/stargo/server/internal/net"
	"github.com/stargo/server/internal/net/packet"
)

// OutputSystem broadcasts the tick's frame bundle to every session
// that is inside the simulation, then flushes all output queues. The
// bundle is encoded once and shared across sessions.
type OutputSystem struct {
	store *net.SessionStore
	simul *SimulationSystem
	types *packet.TypeRegistry
}

func NewOutputSystem(store *net.SessionStore, simul *SimulationSystem, types *packet.TypeRegistry) *OutputSystem {
	return &OutputSystem{
		store: store,
		simul: simul,
		types: types,
	}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(dt time.Duration) {
	res := s.simul.Result()
	if res.Frame == 0 {
		return
	}

	bundle := handler.BuildFrameBundle(s.types, res)
	s.store.ForEach(func(sess *net.Session) {
		if sess.State() != packet.StateInSimulation {
			return
		}
		sess.Send(bundle)
		sess.FlushOutput()
	})
}
