package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stargo/server/internal/command"
	"github.com/stargo/server/internal/component"
	"github.com/stargo/server/internal/config"
	"github.com/stargo/server/internal/core/event"
	coresys "github.com/stargo/server/internal/core/system"
	"github.com/stargo/server/internal/data"
	"github.com/stargo/server/internal/handler"
	gonet "github.com/stargo/server/internal/net"
	"github.com/stargo/server/internal/net/packet"
	"github.com/stargo/server/internal/persist"
	"github.com/stargo/server/internal/scripting"
	"github.com/stargo/server/internal/sim"
	"github.com/stargo/server/internal/system"
	"github.com/stargo/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           StarGo-Orca  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      確定性鎖步模擬 · Go 伺服器           \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	// Use rune count for CJK width calculation (each CJK char = 2 columns)
	displayWidth := 0
	for _, r := range title {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	lineLen := 46 - displayWidth - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	displayWidth := 0
	for _, r := range label {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	dotsLen := 42 - displayWidth - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("STARGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations
	printSection("資料庫")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL 連線成功")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("資料庫遷移完成")

	// 4. Create repositories; clear stale online flags from a crash
	accountRepo := persist.NewAccountRepo(db)
	journalRepo := persist.NewJournalRepo(db)
	snapshotRepo := persist.NewSnapshotRepo(db)

	if err := accountRepo.ResetOnline(ctx); err != nil {
		return fmt.Errorf("reset online flags: %w", err)
	}
	printOK("線上狀態已重設")
	fmt.Println()

	// 5. Load archetype data and build the wire type registry
	printSection("資料載入")

	archTable, err := data.LoadArchetypeTable(cfg.Simulation.ArchetypePath)
	if err != nil {
		return fmt.Errorf("load archetypes: %w", err)
	}
	printStat("實體原型", archTable.Count())

	types := packet.NewTypeRegistry()
	if err := component.Register(types); err != nil {
		return fmt.Errorf("register components: %w", err)
	}
	if err := command.Register(types); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}

	// 6. Build the lockstep engine
	policy, err := sim.ParseLatePolicy(cfg.Simulation.LatePolicy)
	if err != nil {
		return fmt.Errorf("late policy: %w", err)
	}

	bus := event.NewBus()
	engine := sim.NewEngine(sim.EngineConfig{
		FrameDT:        cfg.Simulation.FrameDT(),
		RollbackWindow: cfg.Simulation.RollbackWindow,
		Policy:         policy,
		Params: sim.Params{
			CollisionDamage: cfg.Simulation.CollisionDamage,
		},
	}, types, archTable, bus, log)

	luaEngine := scripting.NewEngine(archTable, log)
	engine.SetScripts(luaEngine)

	// 7. Restore persisted state, or seed a fresh world from script
	restored, err := restoreState(ctx, engine, types, journalRepo, snapshotRepo)
	if err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	if restored {
		printOK(fmt.Sprintf("狀態還原完成 (frame %d)", engine.Frame()))
	} else if cfg.Simulation.ScriptPath != "" {
		err := engine.Seed(func(s *sim.Simulation) error {
			return luaEngine.RunFile(cfg.Simulation.ScriptPath, s.World())
		})
		if err != nil {
			return fmt.Errorf("seed script: %w", err)
		}
		printOK("初始世界腳本完成")
	}
	fmt.Println()

	// 8. Create packet handler registry and network server
	worldState := world.NewState()
	pktReg := packet.NewRegistry(log)
	loginLimit := 0
	if cfg.RateLimit.Enabled {
		loginLimit = cfg.RateLimit.LoginAttemptsPerMinute
	}
	deps := &handler.Deps{
		AccountRepo: accountRepo,
		Config:      cfg,
		Log:         log,
		Engine:      engine,
		World:       worldState,
		Types:       types,
		Logins:      handler.NewLoginLimiter(loginLimit),
	}
	handler.RegisterAll(pktReg, deps)

	netServer, err := gonet.NewServer(cfg.Network, cfg.RateLimit, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 9. Create phase systems and register with the runner
	store := gonet.NewSessionStore()
	simSys := system.NewSimulationSystem(engine)

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(netServer, store, pktReg, deps, cfg.Network.MaxPacketsPerTick, log))
	runner.Register(system.NewEventSystem(bus))
	runner.Register(simSys)
	runner.Register(system.NewOutputSystem(store, simSys, types))
	runner.Register(system.NewPersistenceSystem(journalRepo, snapshotRepo, engine, simSys, cfg.Database.SnapshotEvery, log))

	// 10. Start the fixed-rate frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	interval := cfg.Simulation.FrameInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("監聽位址 %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("模擬迴圈啟動 (%d fps, 回滾窗 %d)", cfg.Simulation.FrameRate, cfg.Simulation.RollbackWindow))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(interval)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			shutdown(engine, snapshotRepo, accountRepo, log)
			netServer.Shutdown()
			log.Info("伺服器已停止")
			return nil
		}
	}
}

// restoreState loads the latest snapshot and replays the journaled
// commands recorded after it. Returns false when the database holds no
// snapshot and the simulation should start from frame zero.
func restoreState(
	ctx context.Context,
	engine *sim.Engine,
	types *packet.TypeRegistry,
	journalRepo *persist.JournalRepo,
	snapshotRepo *persist.SnapshotRepo,
) (bool, error) {
	snap, err := snapshotRepo.LoadLatest(ctx)
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, nil
	}

	if err := engine.Restore(packet.NewReader(snap.State)); err != nil {
		return false, fmt.Errorf("snapshot frame %d: %w", snap.Frame, err)
	}

	entries, err := journalRepo.LoadAfter(ctx, snap.Frame)
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return true, nil
	}

	cmds := make([]command.FrameCommand, 0, len(entries))
	lastFrame := snap.Frame
	for _, e := range entries {
		v, err := types.ReadPacketizable(packet.NewReader(e.Payload))
		if err != nil {
			return false, fmt.Errorf("decode journal frame %d: %w", e.Frame, err)
		}
		fc, ok := v.(command.FrameCommand)
		if !ok {
			return false, fmt.Errorf("journal frame %d: not a frame command", e.Frame)
		}
		fc.SetAuthoritative(e.Authoritative)
		cmds = append(cmds, fc)
		if e.Frame > lastFrame {
			lastFrame = e.Frame
		}
	}

	if err := engine.Replay(cmds, lastFrame); err != nil {
		return false, err
	}
	return true, nil
}

// shutdown saves a final snapshot so the next boot resumes at the
// exact frame clients last acknowledged.
func shutdown(engine *sim.Engine, snapshotRepo *persist.SnapshotRepo, accountRepo *persist.AccountRepo, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if f := engine.Frame(); f > 0 {
		w := packet.NewWriter()
		engine.Leading().Packetize(w)
		err := snapshotRepo.Save(ctx, persist.SnapshotRow{
			Frame:     f,
			StateHash: int64(engine.Leading().Hash()),
			State:     w.Bytes(),
		})
		if err != nil {
			log.Error("關機快照儲存失敗", zap.Error(err))
		} else {
			log.Info("關機快照已儲存", zap.Int64("frame", f))
		}
	}

	if err := accountRepo.ResetOnline(ctx); err != nil {
		log.Error("重設線上狀態失敗", zap.Error(err))
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
