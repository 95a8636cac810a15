package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Game Metrics
var (
	CommandsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCommandsHandled,
			Help: HelpTextCommandsHandled,
		},
		[]string{LabelNetwork, LabelCommand},
	)

	DucksSpawned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameDucksSpawned,
			Help: HelpTextDucksSpawned,
		},
		[]string{LabelNetwork, LabelKind},
	)

	DucksShot = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameDucksShot,
			Help: HelpTextDucksShot,
		},
		[]string{LabelNetwork, LabelKind},
	)

	DucksBefriended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameDucksBefriended,
			Help: HelpTextDucksBefriended,
		},
		[]string{LabelNetwork, LabelKind},
	)

	DucksFlownAway = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameDucksFlownAway,
			Help: HelpTextDucksFlownAway,
		},
		[]string{LabelNetwork},
	)

	ShotsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameShotsFired,
			Help: HelpTextShotsFired,
		},
		[]string{LabelNetwork},
	)

	Accidents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameAccidents,
			Help: HelpTextAccidents,
		},
		[]string{LabelNetwork},
	)

	LootDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameLootDropped,
			Help: HelpTextLootDropped,
		},
		[]string{LabelOutcome},
	)

	ShopPurchases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameShopPurchases,
			Help: HelpTextShopPurchases,
		},
		[]string{LabelItem},
	)

	XPAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameXPAwarded,
			Help: HelpTextXPAwarded,
		},
	)
)

// Persistence Metrics
var (
	PersistenceSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePersistenceSaves,
			Help: HelpTextPersistenceSaves,
		},
		[]string{LabelBackend},
	)

	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePersistenceFails,
			Help: HelpTextPersistenceFails,
		},
		[]string{LabelBackend},
	)
)
