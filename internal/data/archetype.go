package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stargo/server/internal/component"
	"github.com/stargo/server/internal/core/ecs"
)

// ComponentSpec is one component entry inside an archetype definition.
// Kind selects the concrete component; the remaining fields are initial
// values and only some apply per kind.
type ComponentSpec struct {
	Kind string `yaml:"kind"`

	// velocity
	VX   float64 `yaml:"vx"`
	VY   float64 `yaml:"vy"`
	Spin float64 `yaml:"spin"`

	// sphere collider
	Radius float64 `yaml:"radius"`

	// box collider
	HalfX float64 `yaml:"half_x"`
	HalfY float64 `yaml:"half_y"`

	// health
	MaxHealth int32 `yaml:"max_health"`
}

// Archetype is a named, data-defined component recipe for spawning.
type Archetype struct {
	Name       string          `yaml:"name"`
	Components []ComponentSpec `yaml:"components"`
}

type archetypeFile struct {
	Archetypes []Archetype `yaml:"archetypes"`
}

// ArchetypeTable indexes archetypes by name.
type ArchetypeTable struct {
	byName map[string]*Archetype
}

// Get returns an archetype by name, or nil if not defined.
func (t *ArchetypeTable) Get(name string) *Archetype {
	return t.byName[name]
}

// Count returns the number of archetypes loaded.
func (t *ArchetypeTable) Count() int {
	return len(t.byName)
}

// Instantiate builds fresh component instances for the named archetype,
// in definition order. The caller assigns position and ownership before
// adding them to an entity.
func (t *ArchetypeTable) Instantiate(name string) ([]ecs.Component, error) {
	a := t.byName[name]
	if a == nil {
		return nil, fmt.Errorf("unknown archetype %q", name)
	}
	out := make([]ecs.Component, 0, len(a.Components))
	for i := range a.Components {
		c, err := buildComponent(&a.Components[i])
		if err != nil {
			return nil, fmt.Errorf("archetype %q: %w", name, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func buildComponent(spec *ComponentSpec) (ecs.Component, error) {
	switch spec.Kind {
	case "transform":
		return &component.Transform{}, nil
	case "velocity":
		return &component.Velocity{VX: spec.VX, VY: spec.VY, Spin: spec.Spin}, nil
	case "sphere_collider":
		if spec.Radius <= 0 {
			return nil, fmt.Errorf("sphere_collider needs radius > 0, got %v", spec.Radius)
		}
		return &component.SphereCollider{Radius: spec.Radius}, nil
	case "box_collider":
		if spec.HalfX <= 0 || spec.HalfY <= 0 {
			return nil, fmt.Errorf("box_collider needs positive half extents, got %v,%v", spec.HalfX, spec.HalfY)
		}
		return &component.BoxCollider{HalfX: spec.HalfX, HalfY: spec.HalfY}, nil
	case "health":
		if spec.MaxHealth <= 0 {
			return nil, fmt.Errorf("health needs max_health > 0, got %d", spec.MaxHealth)
		}
		return &component.Health{Current: spec.MaxHealth, Max: spec.MaxHealth}, nil
	case "avatar":
		return &component.Avatar{}, nil
	default:
		return nil, fmt.Errorf("unknown component kind %q", spec.Kind)
	}
}

// LoadArchetypeTable loads archetype definitions from YAML.
func LoadArchetypeTable(path string) (*ArchetypeTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archetype table: %w", err)
	}
	return ParseArchetypeTable(raw)
}

// ParseArchetypeTable builds a table from raw YAML bytes.
func ParseArchetypeTable(raw []byte) (*ArchetypeTable, error) {
	var file archetypeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse archetype table: %w", err)
	}
	t := &ArchetypeTable{byName: make(map[string]*Archetype, len(file.Archetypes))}
	for i := range file.Archetypes {
		a := &file.Archetypes[i]
		if a.Name == "" {
			return nil, fmt.Errorf("archetype %d: missing name", i)
		}
		if _, dup := t.byName[a.Name]; dup {
			return nil, fmt.Errorf("duplicate archetype %q", a.Name)
		}
		if len(a.Components) == 0 {
			return nil, fmt.Errorf("archetype %q: no components", a.Name)
		}
		t.byName[a.Name] = a
	}
	return t, nil
}
