package system

import "time"

// Phase defines execution ordering within a single tick. Phases with a
// data dependency (simulation writes positions, output reads them) are
// strictly ordered; nothing in the runner executes concurrently.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain session queues, stage commands
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseUpdate                  // 2: advance the lockstep simulation
	PhasePostUpdate              // 3: derived state, bookkeeping
	PhaseOutput                  // 4: build + send frame bundles
	PhasePersist                 // 5: journal flush + snapshots
	PhaseCleanup                 // 6: destroy queued entities
)

// System is the interface every engine phase system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
