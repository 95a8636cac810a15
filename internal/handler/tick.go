package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/mallardworks/duckhunt/internal/domain"
	"github.com/mallardworks/duckhunt/internal/duck"
	"github.com/mallardworks/duckhunt/internal/logger"
	"github.com/mallardworks/duckhunt/internal/metrics"
	"github.com/mallardworks/duckhunt/internal/utils"
)

// DuckTickJob advances the network's duck scheduler and translates its events
// into chat. Runs on a short fixed cadence via the periodic scheduler.
type DuckTickJob struct {
	d *Dispatcher
}

// NewDuckTickJob wraps the dispatcher's scheduler pass as a worker job.
func NewDuckTickJob(d *Dispatcher) *DuckTickJob {
	return &DuckTickJob{d: d}
}

// Process runs one scheduler tick.
func (j *DuckTickJob) Process(ctx context.Context) error {
	d := j.d
	log := logger.FromContext(ctx)

	for _, ev := range d.ducks.Tick() {
		switch ev.Type {
		case duck.EventSpawn:
			log.Info(LogMsgDuckSpawned,
				"network", d.network, "channel", ev.Channel, "golden", ev.Duck != nil && ev.Duck.Golden)
			d.announceSpawn(ev.Channel, ev.Duck)

		case duck.EventDespawn:
			// Forgiveness runs under the channel lock, same as commands.
			lock := d.locks.GetLock(utils.NormalizeKey(ev.Channel))
			lock.Lock()
			d.store.UnconfiscateAll(ev.Channel)
			lock.Unlock()

			metrics.DucksFlownAway.WithLabelValues(d.network).Inc()
			log.Info(LogMsgDuckDespawned, "network", d.network, "channel", ev.Channel)
			d.notifier.SendMessage(ev.Channel, MsgDuckFlewAway)

		case duck.EventPreNotice:
			d.sendDetectorNotices(ctx, ev)
		}
	}
	return nil
}

// sendDetectorNotices warns recently active players holding an armed ducks
// detector that a spawn is imminent. Detector expirations are written by
// command handlers under the channel lock, so the reads take it too; the
// notices go out after it is released.
func (j *DuckTickJob) sendDetectorNotices(ctx context.Context, ev duck.Event) {
	d := j.d
	now := d.clock().Unix()

	lock := d.locks.GetLock(utils.NormalizeKey(ev.Channel))
	lock.Lock()
	var recipients []string
	for _, nick := range d.ducks.Occupants(ev.Channel) {
		stats, ok := d.store.Lookup(nick, ev.Channel)
		if !ok || !domain.Active(stats.DucksDetectorUntil, now) {
			continue
		}
		recipients = append(recipients, nick)
	}
	lock.Unlock()

	for _, nick := range recipients {
		logger.FromContext(ctx).Debug(LogMsgDetectorNotified,
			"network", d.network, "channel", ev.Channel, "nick", nick)
		d.notifier.SendNotice(nick,
			fmt.Sprintf("Your ducks detector pings: a duck will arrive in about %s.", ev.Until.Round(time.Second)))
	}
}
