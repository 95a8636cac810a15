package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mallardworks/duckhunt/internal/domain"
	"github.com/mallardworks/duckhunt/internal/hunt"
	"github.com/mallardworks/duckhunt/internal/loot"
	"github.com/mallardworks/duckhunt/internal/metrics"
	"github.com/mallardworks/duckhunt/internal/player"
	"github.com/mallardworks/duckhunt/internal/progression"
	"github.com/mallardworks/duckhunt/internal/shop"
)

// renderHuntResult turns a structured hunt outcome into chat lines and
// increments the matching counters.
func (d *Dispatcher) renderHuntResult(msg Message, res hunt.Result) {
	switch res.Kind {
	case hunt.KindConfiscated:
		d.notifier.SendNotice(msg.Nick, MsgConfiscated)

	case hunt.KindJammedGun:
		d.notifier.SendNotice(msg.Nick, MsgJammedGun)

	case hunt.KindNoAmmo:
		d.notifier.SendNotice(msg.Nick, MsgNoAmmo)

	case hunt.KindSoaked:
		d.notifier.SendNotice(msg.Nick, MsgSoaked)

	case hunt.KindTriggerLocked:
		d.notifier.SendNotice(msg.Nick, MsgTriggerLocked)

	case hunt.KindWildFire:
		metrics.ShotsFired.WithLabelValues(d.network).Inc()
		d.notifier.SendMessage(msg.Channel,
			fmt.Sprintf("%s fires at... nothing. There was no duck. [gun confiscated] [%d xp]", msg.Nick, res.Penalty))
		d.renderAccident(msg, res)

	case hunt.KindJam:
		d.notifier.SendNotice(msg.Nick, MsgJam)

	case hunt.KindMiss:
		metrics.ShotsFired.WithLabelValues(d.network).Inc()
		line := fmt.Sprintf("%s misses the duck. [%d xp]", msg.Nick, res.Penalty)
		if res.Confiscated {
			line += " [gun confiscated: ricochet]"
		}
		d.notifier.SendMessage(msg.Channel, line)
		d.renderAccident(msg, res)

	case hunt.KindReveal:
		metrics.ShotsFired.WithLabelValues(d.network).Inc()
		d.notifier.SendMessage(msg.Channel, fmt.Sprintf("%s: %s", msg.Nick, MsgGoldenReveal))

	case hunt.KindHit:
		metrics.ShotsFired.WithLabelValues(d.network).Inc()
		d.notifier.SendMessage(msg.Channel, fmt.Sprintf("%s: %s", msg.Nick, MsgGoldenHit))

	case hunt.KindDuckGone:
		d.notifier.SendNotice(msg.Nick, MsgDuckGone)

	case hunt.KindKill:
		metrics.ShotsFired.WithLabelValues(d.network).Inc()
		metrics.DucksShot.WithLabelValues(d.network, duckKind(res.Duck)).Inc()
		metrics.XPAwarded.Add(float64(res.XPGained))

		line := fmt.Sprintf("%s you shot down the duck in %.3fs! [+%d xp]", msg.Nick, res.ReactionTime, res.XPGained)
		if res.Duck != nil && res.Duck.Golden {
			line = fmt.Sprintf("%s you shot down the golden duck in %.3fs! [+%d xp]", msg.Nick, res.ReactionTime, res.XPGained)
		}
		if res.BestTime {
			line += " New personal best!"
		}
		d.notifier.SendMessage(msg.Channel, line)
		d.renderLoot(msg, res.Loot)

	case hunt.KindBefNoDuck:
		d.notifier.SendMessage(msg.Channel,
			fmt.Sprintf("%s: %s [%d xp]", msg.Nick, MsgNoDuckBefriended, res.Penalty))

	case hunt.KindBefFail:
		d.notifier.SendMessage(msg.Channel,
			fmt.Sprintf("%s the duck does not trust you. [%d xp]", msg.Nick, res.Penalty))

	case hunt.KindBefriended:
		metrics.DucksBefriended.WithLabelValues(d.network, duckKind(res.Duck)).Inc()
		metrics.XPAwarded.Add(float64(res.XPGained))

		line := fmt.Sprintf("%s you befriended the duck in %.3fs! [+%d xp]", msg.Nick, res.ReactionTime, res.XPGained)
		if res.Duck != nil && res.Duck.Golden {
			line = fmt.Sprintf("%s you befriended the golden duck in %.3fs! [+%d xp]", msg.Nick, res.ReactionTime, res.XPGained)
		}
		d.notifier.SendMessage(msg.Channel, line)
		d.renderLoot(msg, res.Loot)
	}
}

// renderAccident reports the bystander, if any.
func (d *Dispatcher) renderAccident(msg Message, res hunt.Result) {
	if res.Victim == "" {
		return
	}
	metrics.Accidents.WithLabelValues(d.network).Inc()
	line := fmt.Sprintf("The stray bullet hits %s!", res.Victim)
	if res.MirrorGlare {
		line += " Their mirror glare made it worse."
	}
	d.notifier.SendMessage(msg.Channel, line)
}

func (d *Dispatcher) renderLoot(msg Message, l *loot.Result) {
	if l == nil {
		return
	}
	metrics.LootDropped.WithLabelValues(l.Outcome.Key).Inc()

	switch {
	case l.Outcome.ItemID == 0:
		d.notifier.SendMessage(msg.Channel,
			fmt.Sprintf("While picking up the duck, %s digs up %s.", msg.Nick, l.Flavor))
	case l.Refunded:
		d.notifier.SendMessage(msg.Channel,
			fmt.Sprintf("%s found %s, but already has one. Sold for %d xp.", msg.Nick, l.Flavor, l.RefundXP))
	default:
		d.notifier.SendMessage(msg.Channel,
			fmt.Sprintf("While picking up the duck, %s found %s!", msg.Nick, l.Flavor))
	}
}

func (d *Dispatcher) renderShopError(nick string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownItem):
		d.notifier.SendNotice(nick, "No such item. Use shop with no arguments for the catalog.")
	case errors.Is(err, domain.ErrInsufficientXP):
		d.notifier.SendNotice(nick, fmt.Sprintf("You cannot afford that: %v.", err))
	case errors.Is(err, domain.ErrTargetRequired):
		d.notifier.SendNotice(nick, MsgTargetRequired)
	default:
		d.notifier.SendNotice(nick, "The shopkeeper shrugs. Try again.")
	}
}

func (d *Dispatcher) renderShopResult(msg Message, res shop.Result, target string) {
	if res.Refunded {
		d.notifier.SendNotice(msg.Nick, fmt.Sprintf("Purchase refunded: %s.", res.Message))
		return
	}
	line := fmt.Sprintf("%s buys %s for %d xp: %s.", msg.Nick, res.Item.Name, res.Price, res.Message)
	if target != "" {
		line = fmt.Sprintf("%s buys %s (target: %s) for %d xp: %s.", msg.Nick, res.Item.Name, target, res.Price, res.Message)
	}
	d.notifier.SendMessage(msg.Channel, line)
}

// sendShopCatalog lists the catalog as notices, a handful of items per line.
func (d *Dispatcher) sendShopCatalog(nick string, stats *domain.ChannelStats) {
	const perLine = 6
	items := shop.Catalog()

	var line []string
	for i, item := range items {
		price := item.Price
		switch item.ID {
		case shop.ItemUpgradeMagazine:
			price = shop.UpgradePrice(stats.MagUpgradeLevel)
		case shop.ItemExtraMagCapacity:
			price = shop.UpgradePrice(stats.MagCapacityLevel)
		}
		line = append(line, fmt.Sprintf("%d- %s (%d xp)", item.ID, item.Name, price))
		if len(line) == perLine || i == len(items)-1 {
			d.notifier.SendNotice(nick, strings.Join(line, " | "))
			line = line[:0]
		}
	}
	d.notifier.SendNotice(nick, fmt.Sprintf("You have %d xp. Buy with: shop <id> [target]", stats.XP))
}

func (d *Dispatcher) announceSpawn(channel string, duckPtr *domain.Duck) {
	metrics.DucksSpawned.WithLabelValues(d.network, duckKind(duckPtr)).Inc()
	art := MsgDuckArt
	if duckPtr != nil && duckPtr.Golden {
		art = MsgGoldenDuckArt
	}
	d.notifier.SendMessage(channel, art)
}

// announceLevelChange posts promotions and demotions after an XP change.
func (d *Dispatcher) announceLevelChange(channel, nick string, before, after int) {
	switch {
	case after > before:
		d.notifier.SendMessage(channel, fmt.Sprintf("%s levels up to level %d!", nick, after))
	case after < before:
		d.notifier.SendMessage(channel, fmt.Sprintf("%s is demoted to level %d.", nick, after))
	}
}

func duckKind(d *domain.Duck) string {
	if d != nil && d.Golden {
		return "golden"
	}
	return "regular"
}

// formatStats renders one player's channel record.
func formatStats(name string, stats *domain.ChannelStats) string {
	level := progression.Level(stats.XP)
	avg := 0.0
	if kills := stats.DucksShot; kills > 0 {
		avg = stats.TotalReactionTime / float64(kills)
	}

	parts := []string{
		fmt.Sprintf("%s: level %d, %d xp", name, level, stats.XP),
		fmt.Sprintf("ducks: %d shot (%d golden), %d befriended", stats.DucksShot, stats.GoldenDucks, stats.BefriendedDucks),
		fmt.Sprintf("misses: %d, accidents: %d, wild fires: %d", stats.Misses, stats.Accidents, stats.WildFires),
		fmt.Sprintf("ammo: %d/%d, magazines: %d/%d", stats.Ammo, stats.ClipSize, stats.Magazines, stats.MagazinesMax),
	}
	if stats.BestTime > 0 {
		parts = append(parts, fmt.Sprintf("best time: %.3fs, average: %.3fs", stats.BestTime, avg))
	}
	return strings.Join(parts, " | ")
}

// formatLeaderboard renders the topduck output.
func formatLeaderboard(entries []player.LeaderboardEntry, byDucks bool) string {
	metric := "xp"
	if byDucks {
		metric = "ducks"
	}

	parts := make([]string, 0, len(entries))
	for i, e := range entries {
		value := e.XP
		if byDucks {
			value = e.Ducks
		}
		parts = append(parts, fmt.Sprintf("%d. %s (%d %s)", i+1, e.Name, value, metric))
	}
	return "Top hunters by " + metric + ": " + strings.Join(parts, "  ")
}
