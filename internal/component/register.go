package component

import "github.com/stargo/server/internal/net/packet"

// Component kind discriminators. Components occupy 0x0001–0x00ff of the
// wire schema space; command kinds start at 0x0100.
const (
	TypeTransform      uint16 = 0x0001
	TypeVelocity       uint16 = 0x0002
	TypeSphereCollider uint16 = 0x0003
	TypeBoxCollider    uint16 = 0x0004
	TypeHealth         uint16 = 0x0005
	TypeAvatar         uint16 = 0x0006
)

// Register adds every component kind to the wire schema. Called once at
// startup, before any snapshot or command is depacketized.
func Register(reg *packet.TypeRegistry) error {
	for id, factory := range map[uint16]func() packet.Packetizable{
		TypeTransform:      func() packet.Packetizable { return &Transform{} },
		TypeVelocity:       func() packet.Packetizable { return &Velocity{} },
		TypeSphereCollider: func() packet.Packetizable { return &SphereCollider{} },
		TypeBoxCollider:    func() packet.Packetizable { return &BoxCollider{} },
		TypeHealth:         func() packet.Packetizable { return &Health{} },
		TypeAvatar:         func() packet.Packetizable { return &Avatar{} },
	} {
		if err := reg.Register(id, factory); err != nil {
			return err
		}
	}
	return nil
}
