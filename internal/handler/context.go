package handler

import (
	"go.uber.org/zap"

	"github.com/stargo/server/internal/config"
	"github.com/stargo/server/internal/net"
	"github.com/stargo/server/internal/net/packet"
	"github.com/stargo/server/internal/persist"
	"github.com/stargo/server/internal/sim"
	"github.com/stargo/server/internal/world"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	AccountRepo *persist.AccountRepo
	Config      *config.Config
	Log         *zap.Logger
	Engine      *sim.Engine
	World       *world.State
	Types       *packet.TypeRegistry
	Logins      *LoginLimiter
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.C_OPCODE_VERSION,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleVersion(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_LOGIN,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleLogin(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_JOIN,
		[]packet.SessionState{packet.StateAuthenticated},
		func(sess any, r *packet.Reader) {
			HandleJoin(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_COMMAND,
		[]packet.SessionState{packet.StateInSimulation},
		func(sess any, r *packet.Reader) {
			HandleCommand(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_RESYNC,
		[]packet.SessionState{packet.StateInSimulation},
		func(sess any, r *packet.Reader) {
			HandleResync(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_QUIT,
		[]packet.SessionState{
			packet.StateHandshake, packet.StateAuthenticated, packet.StateInSimulation,
		},
		func(sess any, r *packet.Reader) {
			HandleQuit(sess.(*net.Session), r, deps)
		},
	)
}
