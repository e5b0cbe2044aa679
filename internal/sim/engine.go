package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/stargo/server/internal/command"
	"github.com/stargo/server/internal/core/ecs"
	"github.com/stargo/server/internal/core/event"
	"github.com/stargo/server/internal/data"
	"github.com/stargo/server/internal/net/packet"
)

// LatePolicy decides what happens to a command whose target frame has
// already been simulated.
type LatePolicy int

const (
	// LateReject drops late commands and reports them.
	LateReject LatePolicy = iota
	// LateRollback rewinds to the trailing state and resimulates with
	// the late command in place, as long as it lands inside the window.
	LateRollback
)

func ParseLatePolicy(s string) (LatePolicy, error) {
	switch s {
	case "reject":
		return LateReject, nil
	case "rollback":
		return LateRollback, nil
	default:
		return 0, fmt.Errorf("unknown late-command policy %q", s)
	}
}

// FrameResult is what one Advance produced: the frame number, the
// commands folded into it (apply order), and the state fingerprint.
// Broadcast to participants so they can apply the same bucket and
// verify the same hash.
type FrameResult struct {
	Frame    int64
	Commands []command.FrameCommand
	Hash     uint64
}

// journalEntry remembers the exact command bucket applied at a frame,
// for resimulation after a rollback and for persistence.
type journalEntry struct {
	frame int64
	cmds  []command.FrameCommand
}

// Engine drives the lockstep loop: one leading simulation at the
// current frame and one trailing deep copy window frames behind. The
// journal holds the applied buckets for every frame in between, so the
// leading state can always be rebuilt from the trailing one.
type Engine struct {
	leading  *Simulation
	trailing *Simulation
	queue    *command.Queue
	journal  []journalEntry

	window int64
	dt     float64
	policy LatePolicy

	bus *event.Bus
	log *zap.Logger

	rollbacks int64 // lifetime count, surfaced by the console
}

type EngineConfig struct {
	FrameDT        float64
	RollbackWindow int64
	Policy         LatePolicy
	Params         Params
}

func NewEngine(cfg EngineConfig, reg *packet.TypeRegistry, arch *data.ArchetypeTable, bus *event.Bus, log *zap.Logger) *Engine {
	return &Engine{
		leading:  NewSimulation(reg, arch, bus, cfg.Params),
		trailing: NewSimulation(reg, arch, nil, cfg.Params),
		queue:    command.NewQueue(),
		window:   cfg.RollbackWindow,
		dt:       cfg.FrameDT,
		policy:   cfg.Policy,
		bus:      bus,
		log:      log,
	}
}

func (e *Engine) Leading() *Simulation  { return e.leading }
func (e *Engine) Bus() *event.Bus       { return e.bus }
func (e *Engine) Queue() *command.Queue { return e.queue }
func (e *Engine) Frame() int64          { return e.leading.Frame() }
func (e *Engine) Rollbacks() int64      { return e.rollbacks }

// SetScripts installs the console runner on the leading simulation only.
// The trailing copy receives script effects through resimulation of the
// journaled Script commands, so it needs its own runner too.
func (e *Engine) SetScripts(r ScriptRunner) {
	e.leading.SetScripts(r)
	e.trailing.SetScripts(r)
}

// Seed runs fn against the leading world before the first frame and
// mirrors the result into the trailing copy. Boot-time only.
func (e *Engine) Seed(fn func(*Simulation) error) error {
	if e.leading.Frame() != 0 || len(e.journal) > 0 {
		return fmt.Errorf("seed after frame %d", e.leading.Frame())
	}
	if err := fn(e.leading); err != nil {
		return err
	}
	e.leading.CopyInto(e.trailing)
	return nil
}

// Restore loads a snapshot into both states. Journaled commands after
// the snapshot frame are replayed by the caller via Replay.
func (e *Engine) Restore(r *packet.Reader) error {
	if err := e.leading.Depacketize(r); err != nil {
		return err
	}
	e.leading.CopyInto(e.trailing)
	e.journal = e.journal[:0]
	return nil
}

// Replay re-enqueues persisted commands and steps the leading state to
// toFrame. Used at boot to catch a restored snapshot up to the last
// journaled frame.
func (e *Engine) Replay(cmds []command.FrameCommand, toFrame int64) error {
	for _, c := range cmds {
		if c.Frame() <= e.leading.Frame() {
			return fmt.Errorf("replay command for frame %d behind state frame %d", c.Frame(), e.leading.Frame())
		}
		e.queue.Enqueue(c)
	}
	for e.leading.Frame() < toFrame {
		e.stepLeading()
	}
	e.advanceTrailing()
	return nil
}

// Advance runs exactly one frame of the lockstep loop: drain staged
// commands, resolve late ones per policy, fold the frame bucket, and
// move the trailing state up to window distance. Game-loop goroutine
// only.
func (e *Engine) Advance() FrameResult {
	_, late := e.queue.DrainStaged(e.leading.Frame() + 1)
	if len(late) > 0 {
		e.resolveLate(late)
	}

	result := e.stepLeading()
	e.advanceTrailing()
	return result
}

// stepLeading advances the leading simulation one frame with its bucket
// and journals the applied commands.
func (e *Engine) stepLeading() FrameResult {
	frame := e.leading.Frame() + 1
	cmds := e.queue.TakeFrame(frame)
	e.leading.Step(cmds, e.dt)
	e.journal = append(e.journal, journalEntry{frame: frame, cmds: cmds})
	return FrameResult{
		Frame:    frame,
		Commands: cmds,
		Hash:     e.leading.Hash(),
	}
}

// advanceTrailing replays journal heads into the trailing state until
// it is at most window frames behind, dropping the entries it consumed.
func (e *Engine) advanceTrailing() {
	consumed := 0
	for e.leading.Frame()-e.trailing.Frame() > e.window && consumed < len(e.journal) {
		je := e.journal[consumed]
		e.trailing.Step(je.cmds, e.dt)
		consumed++
	}
	if consumed > 0 {
		e.journal = append(e.journal[:0], e.journal[consumed:]...)
	}
}

// resolveLate handles commands whose target frame is already simulated.
// Under LateRollback, any command landing inside the window triggers a
// single rewind-and-resimulate covering all of them; anything behind
// the trailing state is beyond repair and is rejected.
func (e *Engine) resolveLate(late []command.FrameCommand) {
	rewind := false
	for _, c := range late {
		if e.policy == LateRollback && c.Frame() > e.trailing.Frame() {
			e.queue.Enqueue(c)
			rewind = true
			continue
		}
		e.reject(c)
	}
	if rewind {
		e.rollback()
	}
}

func (e *Engine) reject(c command.FrameCommand) {
	if e.log != nil {
		e.log.Warn("丟棄過期指令",
			zap.Int32("player", c.Player()),
			zap.Int64("targetFrame", c.Frame()),
			zap.Int64("currentFrame", e.leading.Frame()),
			zap.Error(command.ErrLateCommand))
	}
	if e.bus != nil {
		event.Emit(e.bus, event.CommandRejected{
			Player: c.Player(),
			Frame:  c.Frame(),
			Reason: command.ErrLateCommand.Error(),
		})
	}
}

// rollback rebuilds the leading state from the trailing copy: journaled
// buckets go back into the queue (joined there by the late arrivals),
// then the frames are resimulated in order. Promotion survives — the
// re-enqueued authoritative copies dedup against nothing and keep their
// trust flags.
func (e *Engine) rollback() {
	from := e.leading.Frame()
	e.trailing.CopyInto(e.leading)

	for _, je := range e.journal {
		for _, c := range je.cmds {
			e.queue.Enqueue(c)
		}
	}
	e.journal = e.journal[:0]

	for e.leading.Frame() < from {
		e.stepLeading()
	}
	e.rollbacks++

	if e.log != nil {
		e.log.Info("回滾重演完成",
			zap.Int64("fromFrame", e.trailing.Frame()),
			zap.Int64("toFrame", from))
	}
}

// PromoteApplied sets the trust flag on a journaled command matching c
// by frame, player, and packetized bytes. Authority retransmissions for
// frames already simulated land here; state is untouched.
func (e *Engine) PromoteApplied(c command.FrameCommand) bool {
	for _, je := range e.journal {
		if je.frame != c.Frame() {
			continue
		}
		for _, applied := range je.cmds {
			if applied.Player() == c.Player() && command.Equal(applied, c) {
				applied.SetAuthoritative(true)
				return true
			}
		}
	}
	return false
}

// DespawnEntity stages an authoritative despawn from server-side logic
// (e.g. a player disconnect) targeting the next frame.
func (e *Engine) DespawnEntity(player int32, id ecs.EntityID) error {
	cmd := &command.Despawn{Target: id}
	cmd.PlayerNumber = player
	cmd.TargetFrame = e.leading.Frame() + 1
	cmd.SetAuthoritative(true)
	return e.queue.Stage(cmd)
}
