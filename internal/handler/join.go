package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/stargo/server/internal/command"
	"github.com/stargo/server/internal/core/event"
	"github.com/stargo/server/internal/net"
	"github.com/stargo/server/internal/net/packet"
	"github.com/stargo/server/internal/world"
)

// HandleJoin admits an authenticated session into the lockstep
// simulation: assign a player number, stage the avatar spawn as a
// trusted command, and hand the client everything it needs to simulate
// from the current frame.
func HandleJoin(sess *net.Session, r *packet.Reader, deps *Deps) {
	player := deps.World.NextPlayerNumber()

	// Spacing joiners out keeps spawns from stacking on one point.
	spawnX := float64(player) * 40.0
	spawnY := 0.0

	cmd := &command.Spawn{
		Archetype: deps.Config.Simulation.AvatarArchetype,
		X:         spawnX,
		Y:         spawnY,
	}
	cmd.PlayerNumber = player
	cmd.TargetFrame = deps.Engine.Frame() + 1
	cmd.SetAuthoritative(true)
	if err := deps.Engine.Queue().Stage(cmd); err != nil {
		deps.Log.Error("加入模擬失敗", zap.Int32("player", player), zap.Error(err))
		sendDisconnect(sess, "join failed")
		sess.Close()
		return
	}

	sess.Player = player
	sess.SetState(packet.StateInSimulation)
	deps.World.AddPlayer(&world.PlayerInfo{
		SessionID:   sess.ID,
		Session:     sess,
		Player:      player,
		AccountName: sess.AccountName,
	})

	sendJoinResult(sess, deps, player)
	sendSnapshot(sess, deps)

	event.Emit(deps.Engine.Bus(), event.PlayerJoined{
		Player:    player,
		SessionID: sess.ID,
	})

	deps.Log.Info(fmt.Sprintf("玩家加入模擬  帳號=%s  player=%d", sess.AccountName, player))
}

// sendJoinResult 發送加入結果。
// Format: [opcode][i32 player][i64 current frame][i32 frame rate][i64 rollback window]
func sendJoinResult(sess *net.Session, deps *Deps, player int32) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_JOIN_RESULT)
	w.WriteInt32(player)
	w.WriteInt64(deps.Engine.Frame())
	w.WriteInt32(int32(deps.Config.Simulation.FrameRate))
	w.WriteInt64(deps.Config.Simulation.RollbackWindow)
	sess.Send(w.Bytes())
}
