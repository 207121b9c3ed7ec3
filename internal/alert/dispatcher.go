package alert

import (
	"log/slog"
	"sync"

	"github.com/ppiankov/compliancewatch/internal/logging"
)

// Dispatcher fans out alert events to matching webhook configurations.
type Dispatcher struct {
	configs []AlertConfig
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher from webhook configurations.
// Returns nil if configs is empty (callers should nil-check).
func NewDispatcher(configs []AlertConfig) *Dispatcher {
	if len(configs) == 0 {
		return nil
	}
	return &Dispatcher{configs: configs}
}

// Dispatch sends the event to all webhooks whose Events list matches the
// event level or one of its signal codes. Sends run in the background.
func (d *Dispatcher) Dispatch(event AlertEvent) {
	for _, cfg := range d.configs {
		if matches(cfg.Events, event) {
			d.wg.Add(1)
			go func(cfg AlertConfig) {
				defer d.wg.Done()
				if err := Send(cfg, event); err != nil {
					logging.Default().Warn("alert delivery failed",
						slog.String("url", cfg.URL),
						slog.String("assessment_id", event.AssessmentID),
						slog.Any("error", err))
				}
			}(cfg)
		}
	}
}

// Wait blocks until in-flight sends finish. One-shot commands call it
// before exiting.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}

func matches(events []string, event AlertEvent) bool {
	for _, e := range events {
		if e == event.Level {
			return true
		}
		for _, code := range event.Signals {
			if e == code {
				return true
			}
		}
	}
	return false
}
