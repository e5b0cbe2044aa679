package event

import "github.com/stargo/server/internal/core/ecs"

// Engine event types.

type PlayerJoined struct {
	Player    int32
	SessionID uint64
}

type PlayerLeft struct {
	Player    int32
	SessionID uint64
}

type CollisionOccurred struct {
	Frame  int64
	Sphere ecs.EntityID
	Box    ecs.EntityID
}

type EntityDestroyed struct {
	Frame  int64
	Entity ecs.EntityID
}

type CommandRejected struct {
	Player int32
	Frame  int64
	Reason string
}
