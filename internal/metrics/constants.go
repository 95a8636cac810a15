package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Game metric names
const (
	MetricNameCommandsHandled  = "commands_handled_total"
	MetricNameDucksSpawned     = "ducks_spawned_total"
	MetricNameDucksShot        = "ducks_shot_total"
	MetricNameDucksBefriended  = "ducks_befriended_total"
	MetricNameDucksFlownAway   = "ducks_flown_away_total"
	MetricNameShotsFired       = "shots_fired_total"
	MetricNameAccidents        = "accidents_total"
	MetricNameLootDropped      = "loot_dropped_total"
	MetricNameShopPurchases    = "shop_purchases_total"
	MetricNameXPAwarded        = "xp_awarded_total"
	MetricNamePersistenceSaves = "persistence_saves_total"
	MetricNamePersistenceFails = "persistence_failures_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Game metric help text
const (
	HelpTextCommandsHandled  = "Total number of chat commands handled"
	HelpTextDucksSpawned     = "Total number of ducks spawned"
	HelpTextDucksShot        = "Total number of ducks shot"
	HelpTextDucksBefriended  = "Total number of ducks befriended"
	HelpTextDucksFlownAway   = "Total number of ducks that despawned unharmed"
	HelpTextShotsFired       = "Total number of shots fired"
	HelpTextAccidents        = "Total number of hunting accidents"
	HelpTextLootDropped      = "Total number of loot drops by outcome"
	HelpTextShopPurchases    = "Total number of shop purchases by item"
	HelpTextXPAwarded        = "Total experience points awarded from kills"
	HelpTextPersistenceSaves = "Total number of successful state saves"
	HelpTextPersistenceFails = "Total number of failed state saves"
)

// Metric label names
const (
	LabelMethod  = "method"
	LabelPath    = "path"
	LabelStatus  = "status"
	LabelNetwork = "network"
	LabelCommand = "command"
	LabelKind    = "kind"
	LabelOutcome = "outcome"
	LabelItem    = "item"
	LabelBackend = "backend"
)

// HTTPLatencyBuckets are the histogram buckets for HTTP request latency
var HTTPLatencyBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
