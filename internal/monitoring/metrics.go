// internal/monitoring/metrics.go
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stepwright/stepwright/internal/scraper"
)

// Metrics exposes engine activity as Prometheus series. It plugs into
// the engine as an Observer, usually fanned out next to the logger.
type Metrics struct {
	stepsTotal   *prometheus.CounterVec
	stepRetries  *prometheus.CounterVec
	pagesTotal   *prometheus.CounterVec
	tabsTotal    prometheus.Counter
	recordsTotal prometheus.Counter
	warnings     prometheus.Counter
}

// NewMetrics registers the engine series with reg. Pass
// prometheus.DefaultRegisterer for the usual global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		stepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepwright",
			Name:      "steps_total",
			Help:      "Steps executed, by action and outcome.",
		}, []string{"action", "status"}),
		stepRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepwright",
			Name:      "step_retries_total",
			Help:      "Retry attempts, by action.",
		}, []string{"action"}),
		pagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepwright",
			Name:      "pages_total",
			Help:      "Page iterations, by tab.",
		}, []string{"tab"}),
		tabsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "stepwright",
			Name:      "tabs_total",
			Help:      "Tab templates executed.",
		}),
		recordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "stepwright",
			Name:      "records_total",
			Help:      "Records emitted.",
		}),
		warnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "stepwright",
			Name:      "warnings_total",
			Help:      "Tolerated failures logged as warnings.",
		}),
	}
}

func action(step *scraper.Step) string {
	if step == nil {
		return "none"
	}
	return string(step.Action)
}

func (m *Metrics) TabStarted(string) { m.tabsTotal.Inc() }

func (m *Metrics) TabFinished(string, int) {}

func (m *Metrics) PageStarted(tab string, _ int) {
	m.pagesTotal.WithLabelValues(tab).Inc()
}

func (m *Metrics) StepStarted(step *scraper.Step) {
	m.stepsTotal.WithLabelValues(action(step), "started").Inc()
}

func (m *Metrics) StepSkipped(step *scraper.Step, _ string) {
	m.stepsTotal.WithLabelValues(action(step), "skipped").Inc()
}

func (m *Metrics) StepRetried(step *scraper.Step, _ int, _ error) {
	m.stepRetries.WithLabelValues(action(step)).Inc()
}

func (m *Metrics) StepFailed(step *scraper.Step, _ error, terminal bool) {
	status := "failed"
	if terminal {
		status = "failed_terminal"
	}
	m.stepsTotal.WithLabelValues(action(step), status).Inc()
}

func (m *Metrics) Warning(*scraper.Step, string, error) { m.warnings.Inc() }

func (m *Metrics) ItemEmitted(int) { m.recordsTotal.Inc() }
