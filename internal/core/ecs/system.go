package ecs

// ComponentSystem orders and drives Update over all components of one
// declared kind. A system owns an indexed collection of its components
// and exposes iteration; it never hands the raw collection to callers.
type ComponentSystem interface {
	Name() string

	// Accepts reports whether the system drives this component kind.
	Accepts(c Component) bool

	// Attach/Detach keep the system's collection in sync with the
	// manager. Attach order equals insertion order and is preserved.
	Attach(c Component)
	Detach(c Component)

	// Update iterates the component set exactly once, calling each
	// enabled component's update with the system's parameterization.
	Update()

	// Clone produces an independent system with a cloned, never
	// aliased parameterization. copyComponents selects whether the
	// clone starts with a deep-copied component list or an empty one
	// (empty when the caller re-attaches during a world copy).
	Clone(copyComponents bool) ComponentSystem
}

// KindSystem is the standard ComponentSystem: a predicate for the kind
// it drives, a parameterization, and the component list in attach order.
type KindSystem struct {
	name       string
	accepts    func(Component) bool
	param      Parameterization
	components []Component
}

func NewKindSystem(name string, accepts func(Component) bool, param Parameterization) *KindSystem {
	return &KindSystem{
		name:    name,
		accepts: accepts,
		param:   param,
	}
}

// Accept builds an accepts-predicate for one concrete component type.
func Accept[T Component]() func(Component) bool {
	return func(c Component) bool {
		_, ok := c.(T)
		return ok
	}
}

func (s *KindSystem) Name() string { return s.name }

func (s *KindSystem) Accepts(c Component) bool { return s.accepts(c) }

func (s *KindSystem) Attach(c Component) {
	s.components = append(s.components, c)
}

func (s *KindSystem) Detach(c Component) {
	for i, have := range s.components {
		if have == c {
			s.components = append(s.components[:i], s.components[i+1:]...)
			return
		}
	}
}

func (s *KindSystem) Update() {
	for _, c := range s.components {
		if c.Enabled() {
			c.Update(s.param)
		}
	}
}

// Parameterization exposes the system's context so the simulation can
// rebind per-copy state (e.g. the manager pointer) after a clone.
func (s *KindSystem) Parameterization() Parameterization { return s.param }

func (s *KindSystem) Clone(copyComponents bool) ComponentSystem {
	clone := &KindSystem{
		name:    s.name,
		accepts: s.accepts,
		param:   s.param.Clone(),
	}
	if copyComponents {
		clone.components = make([]Component, len(s.components))
		for i, c := range s.components {
			clone.components[i] = c.CopyInto(nil)
		}
	}
	return clone
}

// CompositeSystem drives member systems strictly in configured order,
// once each per tick. The order is a correctness invariant: a phase
// that mutates positions must complete before the phase that reads
// them. Members are never run concurrently.
type CompositeSystem struct {
	systems []ComponentSystem
}

func NewCompositeSystem(systems ...ComponentSystem) *CompositeSystem {
	return &CompositeSystem{systems: systems}
}

func (cs *CompositeSystem) Append(s ComponentSystem) {
	cs.systems = append(cs.systems, s)
}

// Update runs each member once, in list order.
func (cs *CompositeSystem) Update() {
	for _, s := range cs.systems {
		s.Update()
	}
}

// ComponentAdded offers a new component to every member; hook this into
// the manager so per-kind lists stay in sync with entity state.
func (cs *CompositeSystem) ComponentAdded(c Component) {
	for _, s := range cs.systems {
		if s.Accepts(c) {
			s.Attach(c)
		}
	}
}

func (cs *CompositeSystem) ComponentRemoved(c Component) {
	for _, s := range cs.systems {
		if s.Accepts(c) {
			s.Detach(c)
		}
	}
}

// Clone deep-copies the composite: every member system is cloned with
// an independent parameterization and an empty component list; callers
// re-attach by copying the manager with the clone's hooks installed.
func (cs *CompositeSystem) Clone() *CompositeSystem {
	clone := &CompositeSystem{systems: make([]ComponentSystem, len(cs.systems))}
	for i, s := range cs.systems {
		clone.systems[i] = s.Clone(false)
	}
	return clone
}

// Each visits member systems in configured order.
func (cs *CompositeSystem) Each(fn func(ComponentSystem)) {
	for _, s := range cs.systems {
		fn(s)
	}
}
