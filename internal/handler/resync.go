package handler

import (
	"go.uber.org/zap"

	"github.com/stargo/server/internal/net"
	"github.com/stargo/server/internal/net/packet"
)

// HandleResync answers a client that detected a state-hash divergence
// with a full snapshot of the current leading state.
// Format: [i64 client frame][u64 client hash] — logged for diagnosis.
func HandleResync(sess *net.Session, r *packet.Reader, deps *Deps) {
	clientFrame, err := r.ReadInt64()
	if err != nil {
		sess.Close()
		return
	}
	clientHash, err := r.ReadUint64()
	if err != nil {
		sess.Close()
		return
	}

	deps.Log.Warn("狀態雜湊不符，重新同步",
		zap.Int32("player", sess.Player),
		zap.Int64("clientFrame", clientFrame),
		zap.Uint64("clientHash", clientHash),
		zap.Int64("serverFrame", deps.Engine.Frame()),
	)

	sendSnapshot(sess, deps)
}
