package handler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stargo/server/internal/core/event"
	"github.com/stargo/server/internal/net"
	"github.com/stargo/server/internal/net/packet"
)

// HandleQuit processes a graceful disconnect request.
func HandleQuit(sess *net.Session, r *packet.Reader, deps *Deps) {
	LeaveSimulation(sess, deps)
	sess.Close()
}

// LeaveSimulation removes a session's presence from the simulation and
// marks the account offline. Safe to call for sessions that never
// joined; also used by the input phase when a connection dies without a
// quit packet.
func LeaveSimulation(sess *net.Session, deps *Deps) {
	if p := deps.World.RemovePlayer(sess.ID); p != nil {
		if id, ok := deps.Engine.Leading().AvatarEntity(p.Player); ok {
			if err := deps.Engine.DespawnEntity(p.Player, id); err != nil {
				deps.Log.Error("離開時移除化身失敗", zap.Int32("player", p.Player), zap.Error(err))
			}
		}
		event.Emit(deps.Engine.Bus(), event.PlayerLeft{
			Player:    p.Player,
			SessionID: sess.ID,
		})
		deps.Log.Info(fmt.Sprintf("玩家離開模擬  帳號=%s  player=%d", p.AccountName, p.Player))
	}

	if sess.AccountName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := deps.AccountRepo.SetOnline(ctx, sess.AccountName, false); err != nil {
			deps.Log.Error("設定離線狀態資料庫錯誤", zap.Error(err))
		}
		sess.AccountName = ""
	}

	sess.SetState(packet.StateDisconnecting)
}
