package alert

import (
	"context"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
)

// Trigger couples rule evaluation with delivery. It runs after every
// sync run, including partial ones, so new data always gets evaluated.
type Trigger struct {
	evaluator *Evaluator
	notifier  *Notifier
}

func NewTrigger(evaluator *Evaluator, notifier *Notifier) *Trigger {
	return &Trigger{evaluator: evaluator, notifier: notifier}
}

func (t *Trigger) Fire(ctx context.Context, batches []domain.MergeBatch) {
	alerts := t.evaluator.Evaluate(batches)
	if len(alerts) == 0 {
		return
	}
	t.notifier.Notify(ctx, alerts)
}
