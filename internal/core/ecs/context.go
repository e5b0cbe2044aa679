package ecs

// UpdateContext is the standard parameterization for simulation phases:
// the world being advanced, the frame being computed, and the fixed
// delta time in seconds. Stateless across ticks — the engine rewrites
// Frame each tick and rebinds World when a simulation copy is made.
type UpdateContext struct {
	World *World
	Frame int64
	DT    float64
}

func (c *UpdateContext) Clone() Parameterization {
	cp := *c
	return &cp
}
