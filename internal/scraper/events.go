// internal/scraper/events.go
package scraper

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observer receives engine lifecycle events. The engine calls it
// unconditionally; rendering and verbosity are the host's concern.
type Observer interface {
	TabStarted(tab string)
	TabFinished(tab string, records int)
	PageStarted(tab string, pageIndex int)
	StepStarted(step *Step)
	StepSkipped(step *Step, reason string)
	StepRetried(step *Step, attempt int, err error)
	// StepFailed fires when a step exhausts its retries. terminal reports
	// whether the failure propagates to the enclosing step list.
	StepFailed(step *Step, err error, terminal bool)
	// Warning reports a tolerated failure (element missing, callback
	// error, transform error) that degraded gracefully.
	Warning(step *Step, msg string, err error)
	ItemEmitted(index int)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) TabStarted(string)             {}
func (NopObserver) TabFinished(string, int)       {}
func (NopObserver) PageStarted(string, int)       {}
func (NopObserver) StepStarted(*Step)             {}
func (NopObserver) StepSkipped(*Step, string)     {}
func (NopObserver) StepRetried(*Step, int, error) {}
func (NopObserver) StepFailed(*Step, error, bool) {}
func (NopObserver) Warning(*Step, string, error)  {}
func (NopObserver) ItemEmitted(int)               {}

// ZapObserver renders events through a structured logger. Each observer
// carries a unique run id so interleaved runs stay distinguishable.
type ZapObserver struct {
	log *zap.Logger
}

// NewZapObserver wraps logger with a fresh run id.
func NewZapObserver(logger *zap.Logger) *ZapObserver {
	return &ZapObserver{log: logger.With(zap.String("run_id", uuid.NewString()))}
}

func stepFields(step *Step) []zap.Field {
	if step == nil {
		return nil
	}
	return []zap.Field{
		zap.String("step", step.ID),
		zap.String("action", string(step.Action)),
	}
}

func (o *ZapObserver) TabStarted(tab string) {
	o.log.Info("tab started", zap.String("tab", tab))
}

func (o *ZapObserver) TabFinished(tab string, records int) {
	o.log.Info("tab finished", zap.String("tab", tab), zap.Int("records", records))
}

func (o *ZapObserver) PageStarted(tab string, pageIndex int) {
	o.log.Info("page iteration", zap.String("tab", tab), zap.Int("page", pageIndex))
}

func (o *ZapObserver) StepStarted(step *Step) {
	o.log.Debug("step started", stepFields(step)...)
}

func (o *ZapObserver) StepSkipped(step *Step, reason string) {
	o.log.Debug("step skipped", append(stepFields(step), zap.String("reason", reason))...)
}

func (o *ZapObserver) StepRetried(step *Step, attempt int, err error) {
	o.log.Warn("step retried", append(stepFields(step), zap.Int("attempt", attempt), zap.Error(err))...)
}

func (o *ZapObserver) StepFailed(step *Step, err error, terminal bool) {
	o.log.Warn("step failed", append(stepFields(step), zap.Bool("terminal", terminal), zap.Error(err))...)
}

func (o *ZapObserver) Warning(step *Step, msg string, err error) {
	o.log.Warn(msg, append(stepFields(step), zap.Error(err))...)
}

func (o *ZapObserver) ItemEmitted(index int) {
	o.log.Debug("item emitted", zap.Int("index", index))
}

// MultiObserver fans events out to several observers, e.g. logging plus
// metrics.
type MultiObserver []Observer

func (m MultiObserver) TabStarted(tab string) {
	for _, o := range m {
		o.TabStarted(tab)
	}
}

func (m MultiObserver) TabFinished(tab string, records int) {
	for _, o := range m {
		o.TabFinished(tab, records)
	}
}

func (m MultiObserver) PageStarted(tab string, pageIndex int) {
	for _, o := range m {
		o.PageStarted(tab, pageIndex)
	}
}

func (m MultiObserver) StepStarted(step *Step) {
	for _, o := range m {
		o.StepStarted(step)
	}
}

func (m MultiObserver) StepSkipped(step *Step, reason string) {
	for _, o := range m {
		o.StepSkipped(step, reason)
	}
}

func (m MultiObserver) StepRetried(step *Step, attempt int, err error) {
	for _, o := range m {
		o.StepRetried(step, attempt, err)
	}
}

func (m MultiObserver) StepFailed(step *Step, err error, terminal bool) {
	for _, o := range m {
		o.StepFailed(step, err, terminal)
	}
}

func (m MultiObserver) Warning(step *Step, msg string, err error) {
	for _, o := range m {
		o.Warning(step, msg, err)
	}
}

func (m MultiObserver) ItemEmitted(index int) {
	for _, o := range m {
		o.ItemEmitted(index)
	}
}
