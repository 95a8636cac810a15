package bootstrap

import (
	"context"
	"fmt"

	"github.com/mallardworks/duckhunt/internal/concurrency"
	"github.com/mallardworks/duckhunt/internal/config"
	"github.com/mallardworks/duckhunt/internal/discord"
	"github.com/mallardworks/duckhunt/internal/duck"
	"github.com/mallardworks/duckhunt/internal/handler"
	"github.com/mallardworks/duckhunt/internal/hunt"
	"github.com/mallardworks/duckhunt/internal/irc"
	"github.com/mallardworks/duckhunt/internal/loot"
	"github.com/mallardworks/duckhunt/internal/player"
	"github.com/mallardworks/duckhunt/internal/shop"
	"github.com/mallardworks/duckhunt/internal/utils"
)

// Engine is one connected network: its frontend, dispatcher, and duck
// scheduler job.
type Engine struct {
	Name       string
	Dispatcher *handler.Dispatcher
	TickJob    *handler.DuckTickJob

	// Run connects the frontend and blocks until ctx is cancelled.
	Run func(ctx context.Context) error
}

// BuildEngine assembles the game services and frontend for one network.
// The player store is shared across networks; duck scheduling and command
// dispatch are per-network. persist schedules an asynchronous state flush
// after mutating commands.
func BuildEngine(netCfg config.NetworkConfig, store *player.Store, rng utils.Rand, persist func()) (*Engine, error) {
	ducks := duck.NewManager(duck.Settings{
		MinSpawn:     netCfg.Spawn.MinSpawn.Std(),
		MaxSpawn:     netCfg.Spawn.MaxSpawn.Std(),
		GoldRatio:    netCfg.Spawn.GoldRatio,
		MaxDucks:     netCfg.Spawn.MaxDucks,
		DespawnAfter: netCfg.Spawn.DespawnAfter.Std(),
	}, rng)

	huntSvc := hunt.NewService(store, ducks, loot.NewService(rng), rng, netCfg.Spawn.DuckXP, netCfg.Nick)

	var (
		notifier handler.Notifier
		control  handler.ChannelController
		bind     func(*handler.Dispatcher)
		run      func(context.Context) error
	)

	switch netCfg.Type {
	case "irc":
		client := irc.New(netCfg)
		notifier = client
		control = client
		bind = func(d *handler.Dispatcher) { client.Bind(d) }
		run = client.Run

	case "discord":
		bot, err := discord.New(netCfg)
		if err != nil {
			return nil, fmt.Errorf("network %s: %w", netCfg.Name, err)
		}
		notifier = bot
		bind = func(d *handler.Dispatcher) { bot.Bind(d) }
		run = bot.Run

	default:
		return nil, fmt.Errorf("network %s: unknown type %q", netCfg.Name, netCfg.Type)
	}

	dispatcher := handler.NewDispatcher(handler.Config{
		Network:  netCfg.Name,
		Prefix:   netCfg.Prefix,
		BotNick:  netCfg.Nick,
		Store:    store,
		Ducks:    ducks,
		Hunt:     huntSvc,
		Shop:     shop.NewService(rng),
		Locks:    concurrency.NewLockManager(),
		Notifier: notifier,
		Control:  control,
		Owners:   netCfg.Owners,
		Admins:   netCfg.Admins,
		Persist:  persist,
	})
	bind(dispatcher)

	// Pre-seed schedules so ducks start arriving without waiting for the
	// first channel line.
	for _, ch := range netCfg.Channels {
		ducks.EnsureChannel(ch)
	}

	return &Engine{
		Name:       netCfg.Name,
		Dispatcher: dispatcher,
		TickJob:    handler.NewDuckTickJob(dispatcher),
		Run:        run,
	}, nil
}
