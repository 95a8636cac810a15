package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mallardworks/duckhunt/internal/bootstrap"
	"github.com/mallardworks/duckhunt/internal/config"
	"github.com/mallardworks/duckhunt/internal/logger"
	"github.com/mallardworks/duckhunt/internal/player"
	"github.com/mallardworks/duckhunt/internal/scheduler"
	"github.com/mallardworks/duckhunt/internal/server"
	"github.com/mallardworks/duckhunt/internal/utils"
	"github.com/mallardworks/duckhunt/internal/worker"
)

const (
	logDir          = "logs"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "duckhunt: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration failed: %w", err)
	}

	logFile, err := bootstrap.SetupLogger(cfg, logDir)
	if err != nil {
		return fmt.Errorf("logger setup failed: %w", err)
	}
	defer logFile.Close()

	nets, err := config.LoadNetworks(cfg.NetworksFile)
	if err != nil {
		return fmt.Errorf("networks config failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Legacy flat records migrate under the first configured channel.
	defaultChannel := firstChannel(nets)

	repo, err := bootstrap.NewPlayerRepository(ctx, cfg, defaultChannel)
	if err != nil {
		return err
	}

	records, err := repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load player records: %w", err)
	}
	store := player.NewStore(defaultChannel)
	store.Load(records)
	logger.Info(bootstrap.LogMsgPlayersLoaded, "players", len(records), "backend", cfg.StoreBackend)

	rng := utils.NewLockedRand(time.Now().UnixNano())

	pool := worker.NewPool(bootstrap.WorkerCount, bootstrap.WorkerQueueSize)
	pool.Start()
	saveJob := worker.NewSaveJob(store, repo, cfg.StoreBackend)
	// Mutating commands enqueue a flush; the periodic schedule below is the
	// safety net for anything that slips past (despawn forgiveness, crashes).
	persist := func() { pool.Enqueue(saveJob) }

	engines := make([]*bootstrap.Engine, 0, len(nets.Networks))
	for _, netCfg := range nets.Networks {
		engine, err := bootstrap.BuildEngine(netCfg, store, rng, persist)
		if err != nil {
			return err
		}
		engines = append(engines, engine)
	}

	// Periodic jobs: one duck tick per network plus the persistence flush.
	sched := scheduler.New(pool)
	for _, engine := range engines {
		sched.Schedule(bootstrap.DuckTickInterval, engine.TickJob)
	}
	sched.Schedule(cfg.SaveInterval, saveJob)

	srv := server.NewServer(cfg.Port, repo)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ops server failed", "error", err)
			stop()
		}
	}()

	var wg sync.WaitGroup
	for _, engine := range engines {
		wg.Add(1)
		go func(e *bootstrap.Engine) {
			defer wg.Done()
			logger.Info(bootstrap.LogMsgNetworkStarting, "network", e.Name)
			if err := e.Run(ctx); err != nil {
				logger.Error("Network failed", "network", e.Name, "error", err)
				stop()
				return
			}
			logger.Info(bootstrap.LogMsgNetworkStopped, "network", e.Name)
		}(engine)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	bootstrap.GracefulShutdown(shutdownCtx, bootstrap.ShutdownComponents{
		Server:    srv,
		Scheduler: sched,
		Pool:      pool,
		SaveJob:   saveJob,
		Repo:      repo,
	})

	wg.Wait()
	return nil
}

// firstChannel returns the first configured channel across networks; it seeds
// the legacy-record migration target.
func firstChannel(nets *config.Networks) string {
	for _, n := range nets.Networks {
		if len(n.Channels) > 0 {
			return n.Channels[0]
		}
	}
	return "#duckhunt"
}
