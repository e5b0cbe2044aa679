package handler

import (
	"errors"

	"go.uber.org/zap"

	"github.com/stargo/server/internal/command"
	"github.com/stargo/server/internal/net"
	"github.com/stargo/server/internal/net/packet"
	"github.com/stargo/server/internal/world"
)

// HandleCommand stages a simulation command from a client.
// Format: [u16 type discriminator][command payload]
//
// The player number inside the payload must match the session's
// assigned number — a session can never speak for another player. The
// authority flag is never read from the wire; it is derived from the
// session's trust level here, on the receiving side.
func HandleCommand(sess *net.Session, r *packet.Reader, deps *Deps) {
	v, err := deps.Types.ReadPacketizable(r)
	if err != nil {
		deps.Log.Warn("指令解碼失敗", zap.Uint64("session", sess.ID), zap.Error(err))
		return
	}
	if chat, ok := v.(*command.Chat); ok {
		relayChat(sess, chat, deps)
		return
	}

	cmd, ok := v.(command.FrameCommand)
	if !ok {
		deps.Log.Warn("封包內容不是指令",
			zap.Uint64("session", sess.ID),
			zap.Uint16("type", v.TypeID()),
		)
		return
	}

	if cmd.Player() != sess.Player {
		deps.Log.Warn("指令玩家編號不符，丟棄",
			zap.Uint64("session", sess.ID),
			zap.Int32("claimed", cmd.Player()),
			zap.Int32("assigned", sess.Player),
		)
		return
	}

	cmd.SetAuthoritative(sess.Authority)

	if err := deps.Engine.Queue().Stage(cmd); err != nil {
		if errors.Is(err, command.ErrUnauthorized) {
			deps.Log.Warn("未授權指令已拒絕",
				zap.Int32("player", sess.Player),
				zap.Uint16("type", cmd.TypeID()),
			)
			return
		}
		deps.Log.Error("指令暫存失敗", zap.Error(err))
		return
	}

	if p := deps.World.GetBySession(sess.ID); p != nil && cmd.Frame() > p.LastAckFrame {
		p.LastAckFrame = cmd.Frame()
	}
}

// relayChat broadcasts a chat line to everyone in the simulation. Chat
// is unframed: it never enters the command stream and cannot affect
// state, so it bypasses the queue entirely.
func relayChat(sess *net.Session, chat *command.Chat, deps *Deps) {
	if chat.Player() != sess.Player {
		return
	}
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAT)
	w.WriteInt32(sess.Player)
	w.WriteString(chat.Text)
	data := w.Bytes()

	deps.World.AllPlayers(func(p *world.PlayerInfo) {
		p.Session.Send(data)
	})
}
