package alert

import (
	"context"
	"log"
	"time"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/ports"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/metrics"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/retry"
)

// Notifier fans alerts out to every configured sink. Delivery failures
// are logged and counted, never surfaced to the sync run: a dead
// webhook must not fail ingestion.
type Notifier struct {
	sinks  []ports.Sink
	policy retry.Policy
}

func NewNotifier(sinks []ports.Sink, maxAttempts int) *Notifier {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Notifier{
		sinks: sinks,
		policy: retry.Policy{
			MaxAttempts: maxAttempts,
			Base:        time.Second,
			Max:         30 * time.Second,
		},
	}
}

// LogSink writes alerts to the process log. It is the fallback when
// no external sink is configured.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Send(_ context.Context, message string) error {
	log.Printf("ALERT: %s", message)
	return nil
}

func (n *Notifier) Notify(ctx context.Context, alerts []domain.Alert) {
	for _, a := range alerts {
		for _, s := range n.sinks {
			if err := n.policy.Do(ctx, func() error {
				return s.Send(ctx, a.Message)
			}); err != nil {
				metrics.AlertsDropped.WithLabelValues(s.Name()).Inc()
				log.Printf("alert %q dropped on %s: %v", a.Rule, s.Name(), err)
				continue
			}
			metrics.AlertsSent.WithLabelValues(s.Name()).Inc()
		}
	}
}
