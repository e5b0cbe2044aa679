package scripting

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/stargo/server/internal/component"
	"github.com/stargo/server/internal/core/ecs"
	"github.com/stargo/server/internal/data"
)

// Engine executes console and boot scripts against a world. Each Run
// gets a fresh Lua VM: scripts cannot carry state between runs, so
// replaying the same source against the same world always produces the
// same effects. Single-goroutine access only (game loop).
type Engine struct {
	arch *data.ArchetypeTable
	log  *zap.Logger
}

func NewEngine(arch *data.ArchetypeTable, log *zap.Logger) *Engine {
	return &Engine{arch: arch, log: log}
}

// Run executes a chunk of Lua source with world bindings installed.
func (e *Engine) Run(source string, w *ecs.World) error {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	defer vm.Close()

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	e.installBindings(vm, w)

	if err := vm.DoString(source); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// RunFile executes a script file (boot seeding).
func (e *Engine) RunFile(path string, w *ecs.World) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script %s: %w", path, err)
	}
	if err := e.Run(string(src), w); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	e.log.Info("腳本執行完成", zap.String("file", path))
	return nil
}

// installBindings exposes the world API to Lua:
//
//	spawn(archetype, x, y) -> entity id (0 on failure)
//	despawn(id)
//	set_velocity(id, vx, vy)
//	set_health(id, hp)
//	entity_count() -> n
//	log(msg)
func (e *Engine) installBindings(vm *lua.LState, w *ecs.World) {
	vm.SetGlobal("spawn", vm.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		x := float64(L.CheckNumber(2))
		y := float64(L.CheckNumber(3))

		components, err := e.arch.Instantiate(name)
		if err != nil {
			e.log.Warn("腳本生成失敗", zap.String("archetype", name), zap.Error(err))
			L.Push(lua.LNumber(0))
			return 1
		}
		id := w.CreateEntity()
		for _, c := range components {
			if t, ok := c.(*component.Transform); ok {
				t.X, t.Y = x, y
				t.PrevX, t.PrevY = x, y
			}
			if err := w.Manager().Add(id, c); err != nil {
				e.log.Warn("腳本加入組件失敗", zap.Error(err))
				L.Push(lua.LNumber(0))
				return 1
			}
		}
		L.Push(lua.LNumber(id))
		return 1
	}))

	vm.SetGlobal("despawn", vm.NewFunction(func(L *lua.LState) int {
		id := ecs.EntityID(L.CheckNumber(1))
		if w.Alive(id) {
			w.MarkForDestruction(id)
		}
		return 0
	}))

	vm.SetGlobal("set_velocity", vm.NewFunction(func(L *lua.LState) int {
		id := ecs.EntityID(L.CheckNumber(1))
		vx := float64(L.CheckNumber(2))
		vy := float64(L.CheckNumber(3))
		if v, ok := ecs.First[*component.Velocity](w.Manager(), id); ok {
			v.VX, v.VY = vx, vy
		}
		return 0
	}))

	vm.SetGlobal("set_health", vm.NewFunction(func(L *lua.LState) int {
		id := ecs.EntityID(L.CheckNumber(1))
		hp := int32(L.CheckNumber(2))
		if h, ok := ecs.First[*component.Health](w.Manager(), id); ok {
			h.Current = hp
		}
		return 0
	}))

	vm.SetGlobal("entity_count", vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(w.Manager().EntityCount()))
		return 1
	}))

	vm.SetGlobal("log", vm.NewFunction(func(L *lua.LState) int {
		e.log.Info("script", zap.String("msg", L.CheckString(1)))
		return 0
	}))
}
