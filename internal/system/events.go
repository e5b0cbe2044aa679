package system

import (
	"time"

	"github.com/stargo/server/internal/core/event"
	coresys "github.com/stargo/server/internal/core/system"
)

// EventSystem delivers the previous tick's buffered events before the
// simulation advances. Double buffering means handlers always observe
// a settled world: nothing they read is mid-mutation.
type EventSystem struct {
	bus *event.Bus
}

func NewEventSystem(bus *event.Bus) *EventSystem {
	return &EventSystem{bus: bus}
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventSystem) Update(dt time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
