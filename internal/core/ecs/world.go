package ecs

// World is the top-level ECS container. It owns the entity pool, the
// component manager, and a deferred destruction queue flushed at the
// cleanup phase of each tick.
type World struct {
	pool         *EntityPool
	manager      *Manager
	destroyQueue []EntityID
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		manager:      NewManager(),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

func (w *World) Pool() *EntityPool  { return w.pool }
func (w *World) Manager() *Manager  { return w.manager }

func (w *World) CreateEntity() EntityID {
	id := w.pool.Create()
	w.manager.AddEntity(id)
	return id
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue destroys all queued entities, releasing every owned
// component. Called at the end of each tick.
func (w *World) FlushDestroyQueue() {
	for _, id := range w.destroyQueue {
		if !w.pool.Alive(id) {
			continue // double-queued within one tick
		}
		w.manager.RemoveAll(id)
		w.pool.Destroy(id)
	}
	w.destroyQueue = w.destroyQueue[:0]
}

// CopyInto makes dst a value-complete copy of the world: pool state,
// entity/component state, and the pending destroy queue.
func (w *World) CopyInto(dst *World) {
	w.pool.CopyInto(dst.pool)
	w.manager.CopyInto(dst.manager)
	dst.destroyQueue = append(dst.destroyQueue[:0], w.destroyQueue...)
}
