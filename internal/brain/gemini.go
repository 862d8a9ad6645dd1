// Package brain wraps the Gemini API behind the ports.Brain interface.
package brain

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/ports"
)

type modelConfig struct {
	Name string
	RPM  int
	RPD  int
}

// defaultModels is the ordered fallback chain with free-tier budgets.
var defaultModels = []modelConfig{
	{Name: "gemini-2.5-flash", RPM: 10, RPD: 250},
	{Name: "gemini-2.5-flash-lite", RPM: 15, RPD: 1000},
}

// GeminiBrain generates marketing copy with per-model request budgets
// and ordered model fallback on quota or availability errors.
type GeminiBrain struct {
	Client *genai.Client
	Models []modelConfig

	dailyCount   map[string]int
	minuteCount  map[string]int
	lastResetDay time.Time
	lastResetMin time.Time
	mu           sync.Mutex
}

var _ ports.Brain = (*GeminiBrain)(nil)

// NewGeminiBrain reads GEMINI_API_KEY when apiKey is empty. models
// overrides the fallback order; unknown names get the last default
// budget.
func NewGeminiBrain(ctx context.Context, apiKey string, models []string) (*GeminiBrain, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, err
	}

	chain := defaultModels
	if len(models) > 0 {
		chain = make([]modelConfig, 0, len(models))
		for _, name := range models {
			chain = append(chain, budgetFor(name))
		}
	}

	return &GeminiBrain{
		Client:       client,
		Models:       chain,
		dailyCount:   make(map[string]int),
		minuteCount:  make(map[string]int),
		lastResetDay: time.Now(),
		lastResetMin: time.Now(),
	}, nil
}

func budgetFor(name string) modelConfig {
	for _, m := range defaultModels {
		if m.Name == name {
			return m
		}
	}
	return modelConfig{Name: name, RPM: defaultModels[len(defaultModels)-1].RPM, RPD: defaultModels[len(defaultModels)-1].RPD}
}

// Generate runs the prompt through the first model with remaining
// budget, falling through the chain on quota or not-found errors. It
// returns the model that produced the text.
func (b *GeminiBrain) Generate(ctx context.Context, prompt string, opts ports.GenerateOptions) (string, string, error) {
	full := buildPrompt(prompt, opts)

	var lastErr error
	for _, cfg := range b.Models {
		if !b.canUseModel(cfg) {
			continue
		}

		result, err := b.Client.Models.GenerateContent(ctx, cfg.Name, genai.Text(full), nil)
		if err != nil {
			errStr := strings.ToLower(err.Error())
			if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "exhausted") || strings.Contains(errStr, "404") || strings.Contains(errStr, "not found") {
				lastErr = err
				continue
			}
			return "", "", err
		}

		if result != nil && len(result.Candidates) > 0 && len(result.Candidates[0].Content.Parts) > 0 {
			b.recordUsage(cfg)
			return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), cfg.Name, nil
		}
	}

	return "", "", fmt.Errorf("all models failed or over budget: %v", lastErr)
}

// buildPrompt frames the request as a copywriting task so the output
// is directly usable without post-editing.
func buildPrompt(topic string, opts ports.GenerateOptions) string {
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "short social media post"
	}
	tone := opts.Tone
	if tone == "" {
		tone = "engaging"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a marketing copywriter. Write a %s about the following topic.\n\n", contentType)
	fmt.Fprintf(&sb, "Topic: %s\nTone: %s\n", topic, tone)
	if len(opts.Keywords) > 0 {
		fmt.Fprintf(&sb, "Work these keywords in naturally: %s\n", strings.Join(opts.Keywords, ", "))
	}
	sb.WriteString("\nOutput only the finished copy, no preamble or markdown fences.")
	return sb.String()
}

func (b *GeminiBrain) canUseModel(cfg modelConfig) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	if now.YearDay() != b.lastResetDay.YearDay() {
		b.dailyCount = make(map[string]int)
		b.lastResetDay = now
	}
	if now.Sub(b.lastResetMin) >= time.Minute {
		b.minuteCount = make(map[string]int)
		b.lastResetMin = now
	}
	if b.dailyCount[cfg.Name] >= cfg.RPD {
		return false
	}
	if b.minuteCount[cfg.Name] >= cfg.RPM {
		return false
	}
	return true
}

func (b *GeminiBrain) recordUsage(cfg modelConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dailyCount[cfg.Name]++
	b.minuteCount[cfg.Name]++
}
