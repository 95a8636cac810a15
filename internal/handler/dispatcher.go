// Package handler routes inbound chat commands to the game services and
// formats outbound text. One Dispatcher serves one network; commands within a
// channel are serialized through the named lock manager.
package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/mallardworks/duckhunt/internal/concurrency"
	"github.com/mallardworks/duckhunt/internal/domain"
	"github.com/mallardworks/duckhunt/internal/duck"
	"github.com/mallardworks/duckhunt/internal/hunt"
	"github.com/mallardworks/duckhunt/internal/logger"
	"github.com/mallardworks/duckhunt/internal/metrics"
	"github.com/mallardworks/duckhunt/internal/player"
	"github.com/mallardworks/duckhunt/internal/progression"
	"github.com/mallardworks/duckhunt/internal/shop"
	"github.com/mallardworks/duckhunt/internal/utils"
)

// Message is one inbound chat line, normalized by the frontend.
type Message struct {
	Channel  string
	Nick     string
	Text     string
	Authed   bool // network-authenticated account
	FromSelf bool
}

// Notifier sends outbound text. Implemented by the IRC and Discord frontends.
type Notifier interface {
	SendMessage(channel, text string)
	SendNotice(nick, text string)
}

// ChannelController joins and parts channels. Optional; frontends that have
// no notion of joining (Discord) leave it nil.
type ChannelController interface {
	JoinChannel(channel string)
	PartChannel(channel string)
}

// Config wires a Dispatcher.
type Config struct {
	Network  string
	Prefix   string
	BotNick  string
	Store    *player.Store
	Ducks    *duck.Manager
	Hunt     *hunt.Service
	Shop     *shop.Service
	Locks    *concurrency.LockManager
	Notifier Notifier
	Control  ChannelController
	Owners   []string
	Admins   []string

	// Persist schedules an asynchronous state flush. Called after any command
	// that left the store dirty.
	Persist func()
}

// Dispatcher routes commands for one network.
type Dispatcher struct {
	network  string
	prefix   string
	botNick  string
	store    *player.Store
	ducks    *duck.Manager
	hunt     *hunt.Service
	shop     *shop.Service
	locks    *concurrency.LockManager
	notifier Notifier
	control  ChannelController
	owners   map[string]struct{}
	admins   map[string]struct{}
	persist  func()
	clock    func() time.Time
}

// commandList drives unknown-command suggestions.
var commandList = []string{
	CmdBang, CmdBef, CmdReload, CmdShop, CmdDuckStats, CmdTopDuck,
	CmdLastDuck, CmdDuckHelp, CmdSpawnDuck, CmdSpawnGold, CmdRearm,
	CmdDisarm, CmdJoin, CmdPart, CmdClear, CmdNextDuck,
}

// NewDispatcher creates a dispatcher. Owners are implicitly admins.
func NewDispatcher(cfg Config) *Dispatcher {
	d := &Dispatcher{
		network:  cfg.Network,
		prefix:   cfg.Prefix,
		botNick:  utils.NormalizeKey(cfg.BotNick),
		store:    cfg.Store,
		ducks:    cfg.Ducks,
		hunt:     cfg.Hunt,
		shop:     cfg.Shop,
		locks:    cfg.Locks,
		notifier: cfg.Notifier,
		control:  cfg.Control,
		persist:  cfg.Persist,
		owners:   make(map[string]struct{}, len(cfg.Owners)),
		admins:   make(map[string]struct{}, len(cfg.Owners)+len(cfg.Admins)),
		clock:    time.Now,
	}
	for _, o := range cfg.Owners {
		key := utils.NormalizeKey(o)
		d.owners[key] = struct{}{}
		d.admins[key] = struct{}{}
	}
	for _, a := range cfg.Admins {
		d.admins[utils.NormalizeKey(a)] = struct{}{}
	}
	return d
}

// WithClock substitutes the time source. Test hook.
func (d *Dispatcher) WithClock(clock func() time.Time) *Dispatcher {
	d.clock = clock
	return d
}

// HandleMessage processes one inbound line. Non-command chatter still counts
// as channel presence for accident and detector-notice selection.
func (d *Dispatcher) HandleMessage(msg Message) {
	if msg.FromSelf || msg.Nick == "" || msg.Channel == "" {
		return
	}
	// Echoed lines from our own nick must never count as a hunter.
	if utils.NormalizeKey(msg.Nick) == d.botNick {
		return
	}
	d.ducks.TouchOccupant(msg.Channel, msg.Nick)

	if !strings.HasPrefix(msg.Text, d.prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(msg.Text, d.prefix))
	if len(fields) == 0 {
		return
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	ctx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
	log := logger.FromContext(ctx)

	// One command at a time per channel: hunt, shop, and scheduler state for
	// the channel mutate under the same named lock.
	lock := d.locks.GetLock(utils.NormalizeKey(msg.Channel))
	lock.Lock()
	defer lock.Unlock()

	metrics.CommandsHandled.WithLabelValues(d.network, cmd).Inc()
	log.Info(LogMsgCommandHandled,
		"network", d.network, "channel", msg.Channel, "nick", msg.Nick, "command", cmd)

	switch cmd {
	case CmdBang:
		d.requireAuthed(msg, func() { d.handleBang(msg) })
	case CmdBef:
		d.requireAuthed(msg, func() { d.handleBef(msg) })
	case CmdReload:
		d.requireAuthed(msg, func() { d.handleReload(msg) })
	case CmdShop:
		d.requireAuthed(msg, func() { d.handleShop(msg, args) })
	case CmdDuckStats:
		d.handleDuckStats(msg, args)
	case CmdTopDuck:
		d.handleTopDuck(msg, args)
	case CmdLastDuck:
		d.handleLastDuck(msg)
	case CmdDuckHelp:
		d.notifier.SendNotice(msg.Nick, MsgDuckHelp)
	case CmdSpawnDuck:
		d.requireAdmin(msg, func() { d.handleSpawnDuck(msg, args, false) })
	case CmdSpawnGold:
		d.requireAdmin(msg, func() { d.handleSpawnDuck(msg, args, true) })
	case CmdRearm:
		d.requireAdmin(msg, func() { d.handleRearm(msg, args) })
	case CmdDisarm:
		d.requireAdmin(msg, func() { d.handleDisarm(msg, args) })
	case CmdJoin:
		d.requireOwner(msg, func() { d.handleJoinPart(msg, args, true) })
	case CmdPart:
		d.requireOwner(msg, func() { d.handleJoinPart(msg, args, false) })
	case CmdClear:
		d.requireOwner(msg, func() { d.handleClear(msg, args) })
	case CmdNextDuck:
		d.requireOwner(msg, func() { d.handleNextDuck(msg) })
	default:
		d.suggestCommand(msg.Nick, cmd)
	}

	// Mutating commands hand their state off for persistence once the handler
	// completes; the flush itself runs off the command path.
	if d.persist != nil && d.store.Dirty() {
		d.persist()
	}
}

func (d *Dispatcher) isOwner(msg Message) bool {
	if !msg.Authed {
		return false
	}
	_, ok := d.owners[utils.NormalizeKey(msg.Nick)]
	return ok
}

func (d *Dispatcher) isAdmin(msg Message) bool {
	if !msg.Authed {
		return false
	}
	_, ok := d.admins[utils.NormalizeKey(msg.Nick)]
	return ok
}

func (d *Dispatcher) requireAuthed(msg Message, fn func()) {
	if !msg.Authed {
		d.notifier.SendNotice(msg.Nick, MsgNotAuthed)
		return
	}
	fn()
}

func (d *Dispatcher) requireAdmin(msg Message, fn func()) {
	if !d.isAdmin(msg) {
		d.notifier.SendNotice(msg.Nick, MsgNotAuthorized)
		return
	}
	fn()
}

func (d *Dispatcher) requireOwner(msg Message, fn func()) {
	if !d.isOwner(msg) {
		d.notifier.SendNotice(msg.Nick, MsgNotAuthorized)
		return
	}
	fn()
}

func (d *Dispatcher) handleBang(msg Message) {
	stats := d.store.GetOrCreateChannelStats(msg.Nick, msg.Channel)
	before := progression.Level(stats.XP)

	res := d.hunt.Shoot(msg.Nick, msg.Channel)
	d.renderHuntResult(msg, res)

	d.announceLevelChange(msg.Channel, msg.Nick, before, progression.Level(stats.XP))
}

func (d *Dispatcher) handleBef(msg Message) {
	stats := d.store.GetOrCreateChannelStats(msg.Nick, msg.Channel)
	before := progression.Level(stats.XP)

	res := d.hunt.Befriend(msg.Nick, msg.Channel)
	d.renderHuntResult(msg, res)

	d.announceLevelChange(msg.Channel, msg.Nick, before, progression.Level(stats.XP))
}

func (d *Dispatcher) handleReload(msg Message) {
	res := d.hunt.Reload(msg.Nick, msg.Channel)
	switch res.Kind {
	case hunt.KindConfiscated:
		d.notifier.SendNotice(msg.Nick, MsgConfiscated)
	case hunt.KindUnjammed:
		d.notifier.SendNotice(msg.Nick, MsgUnjammed)
	case hunt.KindUnsabotaged:
		d.notifier.SendNotice(msg.Nick, MsgUnsabotaged)
	case hunt.KindReloaded:
		stats := d.store.GetOrCreateChannelStats(msg.Nick, msg.Channel)
		d.notifier.SendNotice(msg.Nick, fmt.Sprintf("*CLACK CLACK* Reloaded. [%d/%d] magazines left: %d",
			stats.Ammo, stats.ClipSize, stats.Magazines))
	case hunt.KindMagazinesEmpty:
		d.notifier.SendNotice(msg.Nick, MsgMagazinesEmpty)
	default:
		d.notifier.SendNotice(msg.Nick, MsgNoReloadNeeded)
	}
}

func (d *Dispatcher) handleShop(msg Message, args []string) {
	stats := d.store.GetOrCreateChannelStats(msg.Nick, msg.Channel)
	now := d.clock().Unix()

	if len(args) == 0 {
		d.sendShopCatalog(msg.Nick, stats)
		return
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		d.suggestShopItem(msg.Nick, args[0])
		return
	}

	var target *domain.ChannelStats
	targetName := ""
	if item, ok := shop.ItemByID(id); ok && item.NeedsTarget {
		if len(args) < 2 {
			d.notifier.SendNotice(msg.Nick, MsgTargetRequired)
			return
		}
		targetName = args[1]
		target = d.store.GetOrCreateChannelStats(targetName, msg.Channel)
	}

	before := progression.Level(stats.XP)
	res, err := d.shop.Buy(stats, target, id, now)
	if err != nil {
		logger.Warn(LogMsgCommandFailed,
			"network", d.network, "command", CmdShop, "nick", msg.Nick, "error", err)
		d.renderShopError(msg.Nick, err)
		return
	}

	metrics.ShopPurchases.WithLabelValues(res.Item.Name).Inc()
	d.renderShopResult(msg, res, targetName)
	d.announceLevelChange(msg.Channel, msg.Nick, before, progression.Level(stats.XP))
}

func (d *Dispatcher) handleDuckStats(msg Message, args []string) {
	target := msg.Nick
	if len(args) > 0 {
		target = args[0]
	}
	stats, ok := d.store.Lookup(target, msg.Channel)
	if !ok {
		d.notifier.SendNotice(msg.Nick, fmt.Sprintf("No hunting record for %s here.", target))
		return
	}
	d.notifier.SendMessage(msg.Channel, formatStats(target, stats))
}

func (d *Dispatcher) handleTopDuck(msg Message, args []string) {
	byDucks := len(args) > 0 && strings.EqualFold(args[0], "duck")
	entries := d.store.TopPlayers(msg.Channel, byDucks, 5)
	if len(entries) == 0 {
		d.notifier.SendMessage(msg.Channel, "Nobody has hunted here yet.")
		return
	}
	d.notifier.SendMessage(msg.Channel, formatLeaderboard(entries, byDucks))
}

func (d *Dispatcher) handleLastDuck(msg Message) {
	last, ok := d.ducks.LastSpawn(msg.Channel)
	if !ok {
		d.notifier.SendMessage(msg.Channel, "No duck has been seen here yet.")
		return
	}
	d.notifier.SendMessage(msg.Channel,
		fmt.Sprintf("The last duck was seen %s ago.", d.clock().Sub(last).Round(time.Second)))
}

func (d *Dispatcher) handleNextDuck(msg Message) {
	remaining, _ := d.ducks.NextSpawnIn(msg.Channel)
	d.notifier.SendNotice(msg.Nick,
		fmt.Sprintf("Next duck in ~%s.", remaining.Round(time.Second)))
}

func (d *Dispatcher) handleSpawnDuck(msg Message, args []string, golden bool) {
	n := 1
	if !golden && len(args) > 0 {
		if parsed, err := strconv.Atoi(args[0]); err == nil && parsed > 0 {
			n = parsed
		}
	}

	forced := golden
	for i := 0; i < n; i++ {
		duckPtr, err := d.ducks.Spawn(msg.Channel, &forced, true)
		if err != nil {
			d.notifier.SendNotice(msg.Nick, "The sky is full of ducks.")
			return
		}
		d.announceSpawn(msg.Channel, duckPtr)
	}
}

func (d *Dispatcher) handleRearm(msg Message, args []string) {
	if len(args) == 0 {
		d.notifier.SendNotice(msg.Nick, "Usage: rearm <player>")
		return
	}
	target := args[0]
	stats := d.store.GetOrCreateChannelStats(target, msg.Channel)
	stats.Confiscated = false
	stats.Jammed = false
	stats.Sabotaged = false
	stats.Ammo = stats.ClipSize
	stats.Magazines = stats.MagazinesMax
	d.store.MarkDirty()

	logger.FromContext(context.Background()).Info(LogMsgPlayerRearmed,
		"network", d.network, "channel", msg.Channel, "target", target, "by", msg.Nick)
	d.notifier.SendMessage(msg.Channel, fmt.Sprintf("%s is rearmed and ready.", target))
}

func (d *Dispatcher) handleDisarm(msg Message, args []string) {
	if len(args) == 0 {
		d.notifier.SendNotice(msg.Nick, "Usage: disarm <player>")
		return
	}
	target := args[0]
	stats := d.store.GetOrCreateChannelStats(target, msg.Channel)
	stats.Confiscated = true
	d.store.MarkDirty()

	logger.FromContext(context.Background()).Info(LogMsgPlayerDisarmed,
		"network", d.network, "channel", msg.Channel, "target", target, "by", msg.Nick)
	d.notifier.SendMessage(msg.Channel, fmt.Sprintf("%s's weapon is confiscated.", target))
}

func (d *Dispatcher) handleJoinPart(msg Message, args []string, join bool) {
	if d.control == nil {
		d.notifier.SendNotice(msg.Nick, "This network does not support joining channels.")
		return
	}
	if len(args) == 0 {
		d.notifier.SendNotice(msg.Nick, "Usage: join|part <channel>")
		return
	}
	if join {
		d.control.JoinChannel(args[0])
		d.ducks.EnsureChannel(args[0])
	} else {
		d.control.PartChannel(args[0])
	}
}

func (d *Dispatcher) handleClear(msg Message, args []string) {
	channel := msg.Channel
	if len(args) > 0 {
		channel = args[0]
	}
	cleared := d.store.ClearChannel(channel)
	d.ducks.ClearChannel(channel)

	logger.FromContext(context.Background()).Info(LogMsgChannelCleared,
		"network", d.network, "channel", channel, "records", cleared, "by", msg.Nick)
	d.notifier.SendNotice(msg.Nick,
		fmt.Sprintf("Cleared %d hunting records and all ducks in %s.", cleared, channel))
}

// suggestCommand offers the closest known command for a typo.
func (d *Dispatcher) suggestCommand(nick, cmd string) {
	best, dist := "", suggestionMaxDistance+1
	for _, candidate := range commandList {
		if dd := levenshtein.ComputeDistance(cmd, candidate); dd < dist {
			best, dist = candidate, dd
		}
	}
	if best != "" && dist <= suggestionMaxDistance {
		d.notifier.SendNotice(nick, fmt.Sprintf("Unknown command %q. Did you mean %s%s?", cmd, d.prefix, best))
	}
}

// suggestShopItem matches a misspelled item name against the catalog.
func (d *Dispatcher) suggestShopItem(nick, name string) {
	lowered := strings.ToLower(name)
	best, bestID, dist := "", 0, suggestionMaxDistance+2
	for _, item := range shop.Catalog() {
		if dd := levenshtein.ComputeDistance(lowered, strings.ToLower(item.Name)); dd < dist {
			best, bestID, dist = item.Name, item.ID, dd
		}
	}
	if best != "" && dist <= suggestionMaxDistance+1 {
		d.notifier.SendNotice(nick, fmt.Sprintf("Items are bought by id. Did you mean %d (%s)?", bestID, best))
		return
	}
	d.notifier.SendNotice(nick, "Usage: shop <id> [target]. Run shop with no arguments for the catalog.")
}
