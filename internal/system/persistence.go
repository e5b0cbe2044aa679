package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stargo/server/internal/command"
	coresys "github.com/stargo/server/internal/core/system"
	"github.com/stargo/server/internal/net/packet"
	"github.com/stargo/server/internal/persist"
	"github.com/stargo/server/internal/sim"
)

// snapshotKeep is how many historical snapshots stay in the database.
const snapshotKeep = 5

// PersistenceSystem journals every applied frame command and saves a
// full snapshot every snapshotEvery frames. Journal plus latest
// snapshot is exactly what boot needs to rebuild the leading state, so
// a frame's commands are written before its snapshot could ever be.
type PersistenceSystem struct {
	journal       *persist.JournalRepo
	snapshots     *persist.SnapshotRepo
	engine        *sim.Engine
	simul         *SimulationSystem
	snapshotEvery int64
	timeout       time.Duration
	log           *zap.Logger
}

func NewPersistenceSystem(
	journal *persist.JournalRepo,
	snapshots *persist.SnapshotRepo,
	engine *sim.Engine,
	simul *SimulationSystem,
	snapshotEvery int64,
	log *zap.Logger,
) *PersistenceSystem {
	return &PersistenceSystem{
		journal:       journal,
		snapshots:     snapshots,
		engine:        engine,
		simul:         simul,
		snapshotEvery: snapshotEvery,
		timeout:       5 * time.Second,
		log:           log,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	res := s.simul.Result()
	if res.Frame == 0 {
		return
	}

	s.appendJournal(res)

	if s.snapshotEvery > 0 && res.Frame%s.snapshotEvery == 0 {
		s.saveSnapshot(res)
	}
}

func (s *PersistenceSystem) appendJournal(res sim.FrameResult) {
	if len(res.Commands) == 0 {
		return
	}

	entries := make([]persist.JournalEntry, 0, len(res.Commands))
	for i, c := range res.Commands {
		entries = append(entries, persist.JournalEntry{
			Frame:         res.Frame,
			Player:        c.Player(),
			ApplyOrder:    int32(i),
			Authoritative: c.Authoritative(),
			Payload:       command.Bytes(c),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.journal.Append(ctx, entries); err != nil {
		s.log.Error("指令日誌寫入失敗",
			zap.Int64("frame", res.Frame),
			zap.Int("commands", len(entries)),
			zap.Error(err))
	}
}

func (s *PersistenceSystem) saveSnapshot(res sim.FrameResult) {
	w := packet.NewWriter()
	s.engine.Leading().Packetize(w)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := s.snapshots.Save(ctx, persist.SnapshotRow{
		Frame:     res.Frame,
		StateHash: int64(res.Hash),
		State:     w.Bytes(),
	})
	if err != nil {
		s.log.Error("快照儲存失敗", zap.Int64("frame", res.Frame), zap.Error(err))
		return
	}
	s.log.Info("快照已儲存", zap.Int64("frame", res.Frame))

	// Journal entries older than the oldest retained snapshot can never
	// be replayed again.
	if err := s.snapshots.PruneOld(ctx, snapshotKeep); err != nil {
		s.log.Warn("快照清理失敗", zap.Error(err))
	}
	if err := s.journal.PruneBefore(ctx, res.Frame-snapshotKeep*s.snapshotEvery); err != nil {
		s.log.Warn("指令日誌清理失敗", zap.Error(err))
	}
}
