package system

import (
	"time"

	coresys "github.com/stargo/server/internal/core/system"
	"github.com/stargo/server/internal/sim"
)

// SimulationSystem advances the lockstep engine exactly one frame per
// tick and holds the result for the output and persistence phases.
type SimulationSystem struct {
	engine *sim.Engine
	last   sim.FrameResult
}

func NewSimulationSystem(engine *sim.Engine) *SimulationSystem {
	return &SimulationSystem{engine: engine}
}

func (s *SimulationSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SimulationSystem) Update(dt time.Duration) {
	s.last = s.engine.Advance()
}

// Result returns the frame simulated by the most recent tick.
func (s *SimulationSystem) Result() sim.FrameResult {
	return s.last
}
