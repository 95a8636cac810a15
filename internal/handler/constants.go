package handler

// Command names
const (
	CmdBang      = "bang"
	CmdBef       = "bef"
	CmdReload    = "reload"
	CmdShop      = "shop"
	CmdDuckStats = "duckstats"
	CmdTopDuck   = "topduck"
	CmdLastDuck  = "lastduck"
	CmdDuckHelp  = "duckhelp"
	CmdSpawnDuck = "spawnduck"
	CmdSpawnGold = "spawngold"
	CmdRearm     = "rearm"
	CmdDisarm    = "disarm"
	CmdJoin      = "join"
	CmdPart      = "part"
	CmdClear     = "clear"
	CmdNextDuck  = "nextduck"
)

// Suggestion threshold: unknown commands within this edit distance of a real
// one get a "did you mean" notice.
const suggestionMaxDistance = 2

// Duck announcements
const (
	MsgDuckArt       = `・゜゜・。。・゜゜\_o< QUACK`
	MsgGoldenDuckArt = `・゜゜・。。・゜゜\_O< QUAACK`
	MsgDuckFlewAway  = "The duck flew away without a scratch."
)

// Player-facing messages
const (
	MsgNotAuthed        = "You must be authenticated to hunt."
	MsgConfiscated      = "Your weapon is confiscated. Wait for forgiveness or buy it back (shop 5)."
	MsgJammedGun        = "*CLACK* Your gun is jammed. Reload to clear it."
	MsgJam              = "*CLACK* Your gun jammed."
	MsgNoAmmo           = "*CLICK* Empty clip. Reload."
	MsgSoaked           = "You are soaked. Buy spare clothes (shop 12) or dry off."
	MsgTriggerLocked    = "Your infrared detector locked the trigger. There is no duck."
	MsgUnjammed         = "You unjam your gun."
	MsgUnsabotaged      = "You clear the sabotage and reload."
	MsgMagazinesEmpty   = "You are out of magazines. Buy more (shop 2)."
	MsgNoReloadNeeded   = "Your gun does not need reloading."
	MsgNoDuckBefriended = "There is no duck to befriend."
	MsgDuckGone         = "Too slow! The duck flew away before your shot landed."
	MsgGoldenHit        = "The duck is hit but still flying!"
	MsgGoldenReveal     = "*PING* This duck is golden! It will take more than that."
	MsgDuckHelp         = "Commands: bang, bef, reload, shop [id [target]], duckstats [player], topduck [duck|xp], lastduck, duckhelp"
	MsgTargetRequired   = "That item needs a target: shop <id> <player>"
	MsgNotAuthorized    = "You are not allowed to do that."
)

// Log messages
const (
	LogMsgCommandHandled   = "Command handled"
	LogMsgCommandFailed    = "Command failed"
	LogMsgDuckSpawned      = "Duck spawned"
	LogMsgDuckDespawned    = "Duck despawned"
	LogMsgChannelCleared   = "Channel cleared"
	LogMsgPlayerRearmed    = "Player rearmed"
	LogMsgPlayerDisarmed   = "Player disarmed"
	LogMsgDetectorNotified = "Detector notice sent"
)
