// Package alert evaluates declarative rules against newly merged
// records and delivers matches to the configured operator channels.
package alert

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/config"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
)

// Evaluator applies the rule set to merge batches. Volume rules carry
// rolling state across runs, so one Evaluator should live for the
// lifetime of the process.
type Evaluator struct {
	rules []config.Rule
	now   func() time.Time

	mu      sync.Mutex
	volumes map[string][]time.Time // rule name -> insert timestamps inside the window
}

func NewEvaluator(rules []config.Rule) *Evaluator {
	return &Evaluator{
		rules:   rules,
		now:     time.Now,
		volumes: make(map[string][]time.Time),
	}
}

// Evaluate inspects only the records a batch actually inserted;
// duplicates skipped by the merge engine never re-trigger a rule.
func (e *Evaluator) Evaluate(batches []domain.MergeBatch) []domain.Alert {
	var alerts []domain.Alert
	for _, r := range e.rules {
		for _, b := range batches {
			if r.Source != "" && r.Source != string(b.Source) {
				continue
			}
			switch r.Type {
			case "engagement":
				alerts = append(alerts, e.evalEngagement(r, b)...)
			case "keyword":
				alerts = append(alerts, e.evalKeyword(r, b)...)
			case "volume":
				if a, ok := e.evalVolume(r, b); ok {
					alerts = append(alerts, a)
				}
			}
		}
	}
	return alerts
}

func (e *Evaluator) evalEngagement(r config.Rule, b domain.MergeBatch) []domain.Alert {
	var alerts []domain.Alert
	for _, rec := range b.Records {
		v, ok := rec.Engagement[r.Metric]
		if !ok || v < r.Threshold {
			continue
		}
		alerts = append(alerts, domain.Alert{
			Rule:     r.Name,
			Source:   rec.Source,
			NativeID: rec.NativeID,
			Message: fmt.Sprintf("[%s] %s/%s: %s=%d (>= %d)\n%s",
				r.Name, rec.Source, rec.NativeID, r.Metric, v, r.Threshold, snippet(rec)),
		})
	}
	return alerts
}

func (e *Evaluator) evalKeyword(r config.Rule, b domain.MergeBatch) []domain.Alert {
	var alerts []domain.Alert
	for _, rec := range b.Records {
		text := strings.ToLower(rec.Text)
		for _, term := range r.Contains {
			if term == "" || !strings.Contains(text, strings.ToLower(term)) {
				continue
			}
			alerts = append(alerts, domain.Alert{
				Rule:     r.Name,
				Source:   rec.Source,
				NativeID: rec.NativeID,
				Message: fmt.Sprintf("[%s] %s/%s matched %q\n%s",
					r.Name, rec.Source, rec.NativeID, term, snippet(rec)),
			})
			break // one alert per record, not per term
		}
	}
	return alerts
}

// evalVolume counts inserts per rule over a rolling window. It emits
// at most one aggregate alert per batch, when the count first meets
// the threshold.
func (e *Evaluator) evalVolume(r config.Rule, b domain.MergeBatch) (domain.Alert, bool) {
	if b.Inserted == 0 {
		return domain.Alert{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	cutoff := now.Add(-r.Window)
	hist := e.volumes[r.Name]
	kept := hist[:0]
	for _, t := range hist {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	before := int64(len(kept))
	for i := 0; i < b.Inserted; i++ {
		kept = append(kept, now)
	}
	e.volumes[r.Name] = kept

	after := int64(len(kept))
	if before >= r.Threshold || after < r.Threshold {
		return domain.Alert{}, false
	}
	return domain.Alert{
		Rule:   r.Name,
		Source: b.Source,
		Message: fmt.Sprintf("[%s] %d new %s records in %s (threshold %d)",
			r.Name, after, b.Source, r.Window, r.Threshold),
	}, true
}

func snippet(rec domain.Record) string {
	text := rec.Text
	if len(text) > 200 {
		// Back up to a rune start so multi-byte text is never split.
		cut := 200
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "…"
	}
	if rec.URL != "" {
		return text + "\n" + rec.URL
	}
	return text
}
