package command

import (
	"errors"

	"github.com/cespare/xxhash/v2"
	"github.com/stargo/server/internal/net/packet"
)

// Command kind discriminators. Commands share the wire schema space
// with components (see internal/component); the split keeps both
// registries in one TypeRegistry without collisions.
const (
	TypeInput   uint16 = 0x0101
	TypeSpawn   uint16 = 0x0102
	TypeDespawn uint16 = 0x0103
	TypeScript  uint16 = 0x0104
	TypeChat    uint16 = 0x0105
)

var (
	ErrLateCommand  = errors.New("command: target frame already simulated")
	ErrUnauthorized = errors.New("command: requires authoritative origin")
)

// Command is a player or server intent. The authority flag is transport
// metadata assigned by the receiving side — it is deliberately NOT part
// of the packetized bytes, so a speculative command and its later
// authoritative confirmation packetize identically and can be matched.
type Command interface {
	packet.Packetizable

	Player() int32
	Authoritative() bool
	SetAuthoritative(v bool)

	// RequiresAuthority marks kinds reserved for trusted input; the
	// queue rejects unauthoritative submissions of such kinds without
	// touching world state.
	RequiresAuthority() bool
}

// FrameCommand is a Command tagged with the simulation frame at which
// it must be applied. Every participant applies the same set of frame
// commands in the same frame-bucketed order to reach the same state.
type FrameCommand interface {
	Command
	Frame() int64
}

// Header carries the fields common to all commands. Wire format: the
// player number only.
type Header struct {
	PlayerNumber    int32
	IsAuthoritative bool
}

func (h *Header) Player() int32           { return h.PlayerNumber }
func (h *Header) Authoritative() bool     { return h.IsAuthoritative }
func (h *Header) SetAuthoritative(v bool) { h.IsAuthoritative = v }
func (h *Header) RequiresAuthority() bool { return false }

func (h *Header) packetize(w *packet.Writer) {
	w.WriteInt32(h.PlayerNumber)
}

func (h *Header) depacketize(r *packet.Reader) error {
	p, err := r.ReadInt32()
	if err != nil {
		return err
	}
	h.PlayerNumber = p
	return nil
}

// FrameHeader extends Header with the target frame, appended after the
// base fields on the wire.
type FrameHeader struct {
	Header
	TargetFrame int64
}

func (h *FrameHeader) Frame() int64 { return h.TargetFrame }

func (h *FrameHeader) packetize(w *packet.Writer) {
	h.Header.packetize(w)
	w.WriteInt64(h.TargetFrame)
}

func (h *FrameHeader) depacketize(r *packet.Reader) error {
	if err := h.Header.depacketize(r); err != nil {
		return err
	}
	f, err := r.ReadInt64()
	if err != nil {
		return err
	}
	h.TargetFrame = f
	return nil
}

// Bytes returns the command's canonical packetized form: discriminator
// followed by the command's own encoding. Two commands are equal iff
// these bytes are equal.
func Bytes(c Command) []byte {
	w := packet.NewWriter()
	w.WriteUint16(c.TypeID())
	c.Packetize(w)
	return w.Bytes()
}

// Hash is the fast path for byte equality (collisions are resolved by
// comparing the bytes themselves).
func Hash(c Command) uint64 {
	return xxhash.Sum64(Bytes(c))
}

// Equal reports structural equality: same kind, same packetized bytes.
func Equal(a, b Command) bool {
	if a.TypeID() != b.TypeID() {
		return false
	}
	return string(Bytes(a)) == string(Bytes(b))
}
