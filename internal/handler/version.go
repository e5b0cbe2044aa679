package handler

import (
	"go.uber.org/zap"

	"github.com/stargo/server/internal/net"
	"github.com/stargo/server/internal/net/packet"
)

// HandleVersion processes the client's protocol version check.
// Format: [u32 client protocol version]
func HandleVersion(sess *net.Session, r *packet.Reader, deps *Deps) {
	clientVersion, err := r.ReadUint32()
	if err != nil {
		deps.Log.Warn("版本封包格式錯誤", zap.Uint64("session", sess.ID), zap.Error(err))
		sess.Close()
		return
	}

	if clientVersion != net.ProtocolVersion {
		deps.Log.Info("協定版本不符，斷開連線",
			zap.Uint64("session", sess.ID),
			zap.Uint32("client", clientVersion),
			zap.Uint32("server", net.ProtocolVersion),
		)
		sendDisconnect(sess, "protocol version mismatch")
		sess.Close()
		return
	}

	sess.VersionOK = true
}
