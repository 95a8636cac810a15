package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallardworks/duckhunt/internal/concurrency"
	"github.com/mallardworks/duckhunt/internal/duck"
	"github.com/mallardworks/duckhunt/internal/hunt"
	"github.com/mallardworks/duckhunt/internal/loot"
	"github.com/mallardworks/duckhunt/internal/player"
	"github.com/mallardworks/duckhunt/internal/shop"
)

const testChannel = "#ducks"

// seqRand replays scripted values; exhausted queues return 0.999 for floats
// (fails every chance gate) and 0 for ints.
type seqRand struct {
	floats []float64
	ints   []int
}

func (r *seqRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.999
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *seqRand) Intn(int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// recordingNotifier captures outbound traffic for assertions. Guarded so
// tests can drive the dispatcher and the tick job concurrently.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string // "channel|text"
	notices  []string // "nick|text"
}

func (n *recordingNotifier) SendMessage(channel, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, channel+"|"+text)
}

func (n *recordingNotifier) SendNotice(nick, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, nick+"|"+text)
}

func (n *recordingNotifier) lastMessage() string {
	if len(n.messages) == 0 {
		return ""
	}
	return n.messages[len(n.messages)-1]
}

func (n *recordingNotifier) lastNotice() string {
	if len(n.notices) == 0 {
		return ""
	}
	return n.notices[len(n.notices)-1]
}

func (n *recordingNotifier) allText() string {
	return strings.Join(n.messages, "\n") + "\n" + strings.Join(n.notices, "\n")
}

type recordingControl struct {
	joined []string
	parted []string
}

func (c *recordingControl) JoinChannel(channel string) { c.joined = append(c.joined, channel) }
func (c *recordingControl) PartChannel(channel string) { c.parted = append(c.parted, channel) }

type dispEnv struct {
	store    *player.Store
	ducks    *duck.Manager
	hunt     *hunt.Service
	disp     *Dispatcher
	out      *recordingNotifier
	control  *recordingControl
	rng      *seqRand
	clock    *fakeClock
	persists int
}

func newEnv(t *testing.T) *dispEnv {
	t.Helper()

	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	rng := &seqRand{}
	out := &recordingNotifier{}
	control := &recordingControl{}

	store := player.NewStore(testChannel)
	ducks := duck.NewManager(duck.Settings{
		MinSpawn:     10 * time.Minute,
		MaxSpawn:     20 * time.Minute,
		GoldRatio:    0,
		MaxDucks:     5,
		DespawnAfter: 10 * time.Minute,
	}, rng).WithClock(clock.Now)

	huntSvc := hunt.NewService(store, ducks, loot.NewService(rng), rng, 10, "duckbot").WithClock(clock.Now)

	env := &dispEnv{
		store: store, ducks: ducks, hunt: huntSvc,
		out: out, control: control, rng: rng, clock: clock,
	}

	disp := NewDispatcher(Config{
		Network:  "testnet",
		Prefix:   "!",
		BotNick:  "duckbot",
		Store:    store,
		Ducks:    ducks,
		Hunt:     huntSvc,
		Shop:     shop.NewService(rng),
		Locks:    concurrency.NewLockManager(),
		Notifier: out,
		Control:  control,
		Owners:   []string{"olga"},
		Admins:   []string{"adam"},
		Persist:  func() { env.persists++ },
	}).WithClock(clock.Now)

	env.disp = disp
	return env
}

func (e *dispEnv) say(nick, text string) {
	e.disp.HandleMessage(Message{Channel: testChannel, Nick: nick, Text: text, Authed: true})
}

func (e *dispEnv) sayUnauthed(nick, text string) {
	e.disp.HandleMessage(Message{Channel: testChannel, Nick: nick, Text: text})
}

func (e *dispEnv) spawnDuck(t *testing.T, golden bool) {
	t.Helper()
	_, err := e.ducks.Spawn(testChannel, &golden, true)
	require.NoError(t, err)
}

func TestChatterWithoutPrefixCountsAsPresence(t *testing.T) {
	env := newEnv(t)

	env.say("alice", "what a lovely day")

	assert.Empty(t, env.out.messages)
	assert.Empty(t, env.out.notices)
	assert.Contains(t, env.ducks.Occupants(testChannel), "alice")
}

func TestUnknownCommandSuggestsClosest(t *testing.T) {
	env := newEnv(t)

	env.say("alice", "!bangg")

	require.NotEmpty(t, env.out.notices)
	assert.Contains(t, env.out.lastNotice(), "Did you mean !bang?")
}

func TestUnknownCommandFarFromAnythingStaysSilent(t *testing.T) {
	env := newEnv(t)

	env.say("alice", "!weathertoday")

	assert.Empty(t, env.out.notices)
}

func TestBangRequiresAuth(t *testing.T) {
	env := newEnv(t)
	env.spawnDuck(t, false)

	env.sayUnauthed("alice", "!bang")

	assert.Contains(t, env.out.lastNotice(), MsgNotAuthed)
	assert.Equal(t, 1, env.ducks.Count(testChannel), "the duck is untouched")
}

func TestBangShootsDownDuck(t *testing.T) {
	env := newEnv(t)
	env.spawnDuck(t, false)
	env.clock.Advance(2 * time.Second)

	// reliability, accuracy pass; loot gate fails via default.
	env.rng.floats = []float64{0.0, 0.0}
	env.say("alice", "!bang")

	require.NotEmpty(t, env.out.messages)
	assert.Contains(t, env.out.lastMessage(), "you shot down the duck in 2.000s")
	assert.Contains(t, env.out.lastMessage(), "[+10 xp]")
	assert.Equal(t, 0, env.ducks.Count(testChannel))

	stats, ok := env.store.Lookup("alice", testChannel)
	require.True(t, ok)
	assert.Equal(t, 10, stats.XP)
	assert.Equal(t, 1, stats.DucksShot)
}

func TestBangPromotionAnnounced(t *testing.T) {
	env := newEnv(t)
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.AddXP(15) // one kill away from the level 2 threshold at 20

	env.spawnDuck(t, false)
	env.clock.Advance(time.Second)

	env.rng.floats = []float64{0.0, 0.0}
	env.say("alice", "!bang")

	assert.Contains(t, env.out.allText(), "alice levels up to level 2!")
}

func TestBefriendNoDuckAppliesPenalty(t *testing.T) {
	env := newEnv(t)
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.AddXP(50)

	env.rng.ints = []int{4} // penalty roll 1..10 -> 5
	env.say("alice", "!bef")

	assert.Contains(t, env.out.lastMessage(), MsgNoDuckBefriended)
	assert.Equal(t, 45, stats.XP)
}

func TestMutatingCommandSchedulesSave(t *testing.T) {
	env := newEnv(t)
	env.spawnDuck(t, false)
	env.clock.Advance(2 * time.Second)
	env.rng.floats = []float64{0, 0}

	env.say("alice", "!bang")
	assert.Equal(t, 1, env.persists)

	env.store.ClearDirty()
	env.say("alice", "!lastduck")
	assert.Equal(t, 1, env.persists, "read-only commands do not schedule a save")
}

func TestReloadWithFullClip(t *testing.T) {
	env := newEnv(t)

	env.say("alice", "!reload")

	assert.Contains(t, env.out.lastNotice(), MsgNoReloadNeeded)
}

func TestShopListsCatalog(t *testing.T) {
	env := newEnv(t)

	env.say("alice", "!shop")

	require.NotEmpty(t, env.out.notices)
	assert.Contains(t, env.out.allText(), "1- Extra bullet (7 xp)")
	assert.Contains(t, env.out.lastNotice(), "You have 0 xp")
}

func TestShopPurchase(t *testing.T) {
	env := newEnv(t)
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.AddXP(50)

	env.say("alice", "!shop 7")

	assert.Contains(t, env.out.lastMessage(), "alice buys Sight for 6 xp")
	assert.True(t, stats.SightNextShot)
	assert.Equal(t, 44, stats.XP)
}

func TestShopTargetedItemNeedsTarget(t *testing.T) {
	env := newEnv(t)
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.AddXP(50)

	env.say("alice", "!shop 14")
	assert.Contains(t, env.out.lastNotice(), MsgTargetRequired)

	env.say("alice", "!shop 14 bob")
	assert.Contains(t, env.out.lastMessage(), "target: bob")

	victim, ok := env.store.Lookup("bob", testChannel)
	require.True(t, ok)
	assert.Greater(t, victim.MirrorUntil, int64(0))
}

func TestShopInsufficientXP(t *testing.T) {
	env := newEnv(t)

	env.say("alice", "!shop 20") // bread costs 50

	assert.Contains(t, env.out.lastNotice(), "cannot afford")
}

func TestShopNameSuggestion(t *testing.T) {
	env := newEnv(t)

	env.say("alice", "!shop mirro")

	assert.Contains(t, env.out.lastNotice(), "Did you mean 14 (Mirror)?")
}

func TestDuckStatsForSelf(t *testing.T) {
	env := newEnv(t)
	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.AddXP(25)

	env.say("alice", "!duckstats")

	assert.Contains(t, env.out.lastMessage(), "alice: level 2, 25 xp")
}

func TestDuckStatsUnknownPlayer(t *testing.T) {
	env := newEnv(t)

	env.say("alice", "!duckstats ghost")

	assert.Contains(t, env.out.lastNotice(), "No hunting record for ghost")
}

func TestTopDuckOrdersByXP(t *testing.T) {
	env := newEnv(t)
	env.store.GetOrCreateChannelStats("alice", testChannel).AddXP(100)
	env.store.GetOrCreateChannelStats("bob", testChannel).AddXP(200)

	env.say("carol", "!topduck")

	msg := env.out.lastMessage()
	assert.Contains(t, msg, "1. bob (200 xp)")
	assert.Contains(t, msg, "2. alice (100 xp)")
}

func TestTopDuckByDucks(t *testing.T) {
	env := newEnv(t)
	env.store.GetOrCreateChannelStats("alice", testChannel).DucksShot = 7
	env.store.GetOrCreateChannelStats("bob", testChannel).DucksShot = 3

	env.say("carol", "!topduck duck")

	assert.Contains(t, env.out.lastMessage(), "1. alice (7 ducks)")
}

func TestLastDuck(t *testing.T) {
	env := newEnv(t)

	env.say("alice", "!lastduck")
	assert.Contains(t, env.out.lastMessage(), "No duck has been seen")

	env.spawnDuck(t, false)
	env.clock.Advance(3 * time.Minute)

	env.say("alice", "!lastduck")
	assert.Contains(t, env.out.lastMessage(), "3m0s ago")
}

func TestSpawnDuckRequiresAdmin(t *testing.T) {
	env := newEnv(t)

	env.say("alice", "!spawnduck")
	assert.Contains(t, env.out.lastNotice(), MsgNotAuthorized)
	assert.Equal(t, 0, env.ducks.Count(testChannel))

	env.say("adam", "!spawnduck")
	assert.Equal(t, 1, env.ducks.Count(testChannel))
	assert.Contains(t, env.out.lastMessage(), "QUACK")
}

func TestSpawnDuckCount(t *testing.T) {
	env := newEnv(t)

	env.say("adam", "!spawnduck 3")

	assert.Equal(t, 3, env.ducks.Count(testChannel))
}

func TestSpawnGoldUsesGoldenArt(t *testing.T) {
	env := newEnv(t)

	env.say("adam", "!spawngold")

	assert.Equal(t, testChannel+"|"+MsgGoldenDuckArt, env.out.lastMessage())
}

func TestAdminPrivilegeNeedsAuth(t *testing.T) {
	env := newEnv(t)

	// Right nick, unauthenticated session: privilege does not apply.
	env.sayUnauthed("adam", "!spawnduck")

	assert.Contains(t, env.out.lastNotice(), MsgNotAuthorized)
	assert.Equal(t, 0, env.ducks.Count(testChannel))
}

func TestRearmAndDisarm(t *testing.T) {
	env := newEnv(t)
	stats := env.store.GetOrCreateChannelStats("bob", testChannel)

	env.say("adam", "!disarm bob")
	assert.True(t, stats.Confiscated)

	env.say("adam", "!rearm bob")
	assert.False(t, stats.Confiscated)
	assert.Equal(t, stats.ClipSize, stats.Ammo)
	assert.Equal(t, stats.MagazinesMax, stats.Magazines)
}

func TestOwnerCommandsRejectAdmins(t *testing.T) {
	env := newEnv(t)

	env.say("adam", "!clear")

	assert.Contains(t, env.out.lastNotice(), MsgNotAuthorized)
}

func TestClearWipesChannel(t *testing.T) {
	env := newEnv(t)
	env.store.GetOrCreateChannelStats("alice", testChannel)
	env.spawnDuck(t, false)

	env.say("olga", "!clear")

	_, ok := env.store.Lookup("alice", testChannel)
	assert.False(t, ok)
	assert.Equal(t, 0, env.ducks.Count(testChannel))
	assert.Contains(t, env.out.lastNotice(), "Cleared 1 hunting records")
}

func TestJoinAndPart(t *testing.T) {
	env := newEnv(t)

	env.say("olga", "!join #pond")
	env.say("olga", "!part #pond")

	assert.Equal(t, []string{"#pond"}, env.control.joined)
	assert.Equal(t, []string{"#pond"}, env.control.parted)
}

func TestNextDuckProbe(t *testing.T) {
	env := newEnv(t)
	env.ducks.EnsureChannel(testChannel)

	env.say("olga", "!nextduck")

	assert.Contains(t, env.out.lastNotice(), "Next duck in ~")
}

func TestTickAnnouncesSpawn(t *testing.T) {
	env := newEnv(t)
	env.ducks.EnsureChannel(testChannel) // schedules at min interval (ints default 0)
	job := NewDuckTickJob(env.disp)

	env.clock.Advance(11 * time.Minute)
	require.NoError(t, job.Process(context.Background()))

	require.NotEmpty(t, env.out.messages)
	assert.Equal(t, testChannel+"|"+MsgDuckArt, env.out.lastMessage())
	assert.Equal(t, 1, env.ducks.Count(testChannel))
}

func TestTickDespawnForgivesConfiscations(t *testing.T) {
	env := newEnv(t)
	// Push the automatic spawn out to +20m so it stays clear of the despawn.
	env.rng.ints = []int{int(10 * time.Minute)}
	env.spawnDuck(t, false)

	stats := env.store.GetOrCreateChannelStats("bob", testChannel)
	stats.Confiscated = true

	job := NewDuckTickJob(env.disp)
	env.clock.Advance(10 * time.Minute)
	require.NoError(t, job.Process(context.Background()))

	assert.Contains(t, env.out.allText(), MsgDuckFlewAway)
	assert.False(t, stats.Confiscated)
	assert.Equal(t, 0, env.ducks.Count(testChannel))
}

func TestTickDetectorNotice(t *testing.T) {
	env := newEnv(t)
	env.ducks.EnsureChannel(testChannel)
	env.ducks.TouchOccupant(testChannel, "alice")

	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.DucksDetectorUntil = env.clock.Now().Unix() + 3600

	job := NewDuckTickJob(env.disp)
	env.clock.Advance(9*time.Minute + 30*time.Second) // inside the pre-notice lead
	require.NoError(t, job.Process(context.Background()))

	require.NotEmpty(t, env.out.notices)
	assert.Contains(t, env.out.lastNotice(), "alice|Your ducks detector pings")

	// The notice fires once per scheduled spawn.
	before := len(env.out.notices)
	env.clock.Advance(10 * time.Second)
	require.NoError(t, job.Process(context.Background()))
	assert.Equal(t, before, len(env.out.notices))
}

func TestDetectorNoticeConcurrentWithPurchase(t *testing.T) {
	env := newEnv(t)
	env.ducks.EnsureChannel(testChannel)
	env.ducks.TouchOccupant(testChannel, "alice")

	stats := env.store.GetOrCreateChannelStats("alice", testChannel)
	stats.XP = 1000
	stats.DucksDetectorUntil = env.clock.Now().Unix() + 3600

	job := NewDuckTickJob(env.disp)
	env.clock.Advance(9*time.Minute + 30*time.Second)

	// A tick reading the detector expiration races a purchase extending it;
	// both sides take the channel lock, so the race detector stays quiet.
	done := make(chan struct{}, 2)
	go func() {
		env.say("alice", "!shop 21")
		done <- struct{}{}
	}()
	go func() {
		assert.NoError(t, job.Process(context.Background()))
		done <- struct{}{}
	}()
	<-done
	<-done

	assert.Contains(t, env.out.allText(), "Your ducks detector pings")
	assert.Contains(t, env.out.allText(), "buys Ducks detector")
}

func TestCommandsSerializePerChannel(t *testing.T) {
	env := newEnv(t)
	env.spawnDuck(t, false)
	env.clock.Advance(time.Second)

	// Two shooters race for one duck; exactly one kill lands.
	env.rng.floats = []float64{0.0, 0.0, 0.0} // winner's rolls; loser wild-fires
	env.rng.ints = []int{0, 0}

	done := make(chan struct{}, 2)
	for _, nick := range []string{"alice", "bob"} {
		go func(n string) {
			env.say(n, "!bang")
			done <- struct{}{}
		}(nick)
	}
	<-done
	<-done

	assert.Equal(t, 0, env.ducks.Count(testChannel))
	kills := 0
	for _, m := range env.out.messages {
		if strings.Contains(m, "you shot down the duck") {
			kills++
		}
	}
	assert.Equal(t, 1, kills)
}

func TestHelpNotice(t *testing.T) {
	env := newEnv(t)

	env.say("alice", "!duckhelp")

	assert.Equal(t, fmt.Sprintf("alice|%s", MsgDuckHelp), env.out.lastNotice())
}
