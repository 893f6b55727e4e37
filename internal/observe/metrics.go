package observe

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evolsim/evol/internal/engine"
)

var (
	populationDesc = prometheus.NewDesc(
		"evol_engine_population",
		"Live lifeforms on the engine's arena.",
		[]string{"engine"}, nil,
	)
	deathsDesc = prometheus.NewDesc(
		"evol_engine_deaths_total",
		"Lifetime deaths on the engine's arena.",
		[]string{"engine"}, nil,
	)
	birthsDesc = prometheus.NewDesc(
		"evol_engine_births_total",
		"Lifetime births on the engine's arena.",
		[]string{"engine"}, nil,
	)
	turnsDesc = prometheus.NewDesc(
		"evol_engine_turns_total",
		"Ticks the engine has completed.",
		[]string{"engine"}, nil,
	)
	tickLatencyDesc = prometheus.NewDesc(
		"evol_engine_tick_latency_microseconds",
		"Tick latency over the engine's sample window.",
		[]string{"engine", "stat"}, nil,
	)
	asteroidWaitingDesc = prometheus.NewDesc(
		"evol_asteroid_waiting",
		"Lifeforms currently aboard the asteroid.",
		nil, nil,
	)
	asteroidLaunchedDesc = prometheus.NewDesc(
		"evol_asteroid_launched_total",
		"Lifetime asteroid launches.",
		nil, nil,
	)
	asteroidLandedDesc = prometheus.NewDesc(
		"evol_asteroid_landed_total",
		"Lifetime asteroid landings.",
		nil, nil,
	)
)

// Collector exposes engine and asteroid counters as prometheus metrics. It
// reads engine summaries at scrape time, locking one engine at a time.
type Collector struct {
	supervisor *engine.Supervisor
}

// NewCollector builds a collector over the supervised engines.
func NewCollector(supervisor *engine.Supervisor) *Collector {
	return &Collector{supervisor: supervisor}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- populationDesc
	ch <- deathsDesc
	ch <- birthsDesc
	ch <- turnsDesc
	ch <- tickLatencyDesc
	ch <- asteroidWaitingDesc
	ch <- asteroidLaunchedDesc
	ch <- asteroidLandedDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, e := range c.supervisor.Engines() {
		sum := e.Summary()
		label := strconv.Itoa(sum.EngineID)

		ch <- prometheus.MustNewConstMetric(populationDesc, prometheus.GaugeValue, float64(sum.Population), label)
		ch <- prometheus.MustNewConstMetric(deathsDesc, prometheus.CounterValue, float64(sum.Dead), label)
		ch <- prometheus.MustNewConstMetric(birthsDesc, prometheus.CounterValue, float64(sum.Births), label)
		ch <- prometheus.MustNewConstMetric(turnsDesc, prometheus.CounterValue, float64(sum.Turns), label)

		ch <- prometheus.MustNewConstMetric(tickLatencyDesc, prometheus.GaugeValue, float64(sum.Timer.MinMicros), label, "min")
		ch <- prometheus.MustNewConstMetric(tickLatencyDesc, prometheus.GaugeValue, float64(sum.Timer.MaxMicros), label, "max")
		ch <- prometheus.MustNewConstMetric(tickLatencyDesc, prometheus.GaugeValue, float64(sum.Timer.AvgMicros), label, "avg")
	}

	asteroid := c.supervisor.Asteroid()
	ch <- prometheus.MustNewConstMetric(asteroidWaitingDesc, prometheus.GaugeValue, float64(asteroid.NumWaiting()))
	ch <- prometheus.MustNewConstMetric(asteroidLaunchedDesc, prometheus.CounterValue, float64(asteroid.NumLaunched()))
	ch <- prometheus.MustNewConstMetric(asteroidLandedDesc, prometheus.CounterValue, float64(asteroid.NumLanded()))
}

// Handler registers the collector on a fresh registry and returns the
// scrape handler for it.
func Handler(supervisor *engine.Supervisor) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollector(supervisor))
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
