package brain

import (
	"strings"
	"testing"
	"time"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/ports"
)

func TestBuildPrompt(t *testing.T) {
	got := buildPrompt("Go 1.25 release", ports.GenerateOptions{
		ContentType: "tweet",
		Tone:        "playful",
		Keywords:    []string{"golang", "performance"},
	})
	for _, want := range []string{"tweet", "playful", "Go 1.25 release", "golang, performance"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestBuildPromptDefaults(t *testing.T) {
	got := buildPrompt("topic", ports.GenerateOptions{})
	if !strings.Contains(got, "short social media post") {
		t.Errorf("default content type missing:\n%s", got)
	}
	if strings.Contains(got, "keywords") {
		t.Errorf("keyword line present without keywords:\n%s", got)
	}
}

func TestBudgetFor(t *testing.T) {
	known := budgetFor("gemini-2.5-flash")
	if known.RPM != 10 || known.RPD != 250 {
		t.Errorf("known model budget = %+v", known)
	}
	unknown := budgetFor("gemini-experimental")
	if unknown.Name != "gemini-experimental" || unknown.RPM <= 0 || unknown.RPD <= 0 {
		t.Errorf("unknown model budget = %+v", unknown)
	}
}

func TestModelBudgetExhaustion(t *testing.T) {
	b := &GeminiBrain{
		dailyCount:   make(map[string]int),
		minuteCount:  make(map[string]int),
		lastResetDay: time.Now(),
		lastResetMin: time.Now(),
	}
	cfg := modelConfig{Name: "m", RPM: 2, RPD: 100}

	if !b.canUseModel(cfg) {
		t.Fatal("fresh model should be usable")
	}
	b.recordUsage(cfg)
	b.recordUsage(cfg)
	if b.canUseModel(cfg) {
		t.Error("model usable past its per-minute budget")
	}

	// The minute window rolling over restores the budget.
	b.lastResetMin = time.Now().Add(-2 * time.Minute)
	if !b.canUseModel(cfg) {
		t.Error("budget not restored after minute reset")
	}
}

func TestDailyBudgetExhaustion(t *testing.T) {
	b := &GeminiBrain{
		dailyCount:   make(map[string]int),
		minuteCount:  make(map[string]int),
		lastResetDay: time.Now(),
		lastResetMin: time.Now(),
	}
	cfg := modelConfig{Name: "m", RPM: 100, RPD: 1}

	b.recordUsage(cfg)
	if b.canUseModel(cfg) {
		t.Error("model usable past its daily budget")
	}
}
