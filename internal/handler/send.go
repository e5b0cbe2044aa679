package handler

import (
	"github.com/stargo/server/internal/net"
	"github.com/stargo/server/internal/net/packet"
	"github.com/stargo/server/internal/sim"
)

// sendDisconnect 通知客戶端斷線原因，之後由呼叫端關閉連線。
func sendDisconnect(sess *net.Session, reason string) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_DISCONNECT)
	w.WriteString(reason)
	sess.Send(w.Bytes())
}

// sendSnapshot 傳送完整模擬狀態快照，用於加入與重新同步。
func sendSnapshot(sess *net.Session, deps *Deps) {
	body := packet.NewWriter()
	deps.Engine.Leading().Packetize(body)

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_SNAPSHOT)
	w.WriteBytes(body.Bytes())
	sess.Send(w.Bytes())
}

// BuildFrameBundle encodes one simulated frame for broadcast: the frame
// number, the post-frame state hash, and every command applied in that
// frame in apply order. Clients verify the hash against their own
// speculative state and request a resync on mismatch.
func BuildFrameBundle(types *packet.TypeRegistry, res sim.FrameResult) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_FRAME_BUNDLE)
	w.WriteInt64(res.Frame)
	w.WriteUint64(res.Hash)
	w.WriteUint16(uint16(len(res.Commands)))
	for _, c := range res.Commands {
		types.WritePacketizable(w, c)
	}
	return w.Bytes()
}
