package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/alert"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/brain"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/config"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/ports"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/merge"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/orchestrator"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/sources/forum"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/sources/shortpost"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/sources/trends"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/sources/video"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/storage"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"

	configPath string
)

// Exit codes: 0 all adapters clean, 1 nothing ingested, 3 partial.
const exitPartial = 3

// errPartialRun marks a sync that ingested data from some adapters but
// not all. It propagates through cobra so deferred cleanup still runs
// before main maps it to exitPartial.
var errPartialRun = errors.New("sync completed with partial failures")

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "optimizer",
		Short: "Multi-source content collection and sync pipeline",
		Long: `Optimizer collects posts, videos, forum threads and search-trend
series from their public APIs, merges them into a single deduplicated
store, and raises alerts when configured rules match new data.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "Path to config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("optimizer %s (%s, %s)\n", version, commit, buildDate)
		},
	})

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(generateCmd())

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errPartialRun) {
			os.Exit(exitPartial)
		}
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			store, desc, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Printf("✓ Store initialized: %s\n", desc)
			return nil
		},
	}
}

func syncCmd() *cobra.Command {
	var only string
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync across all enabled sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			store, _, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			srcs, err := buildSources(cfg, only)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				go serveMetrics(metricsAddr)
			}

			runner := orchestrator.New(srcs, merge.New(store), store, buildTrigger(cfg))
			runner.Deadline = cfg.Run.Deadline
			runner.AdapterDeadline = cfg.Run.AdapterDeadline

			run, err := runner.Sync(cmd.Context())
			printRun(run)
			if err != nil {
				return err
			}
			if run.Status == domain.RunPartialFailure {
				return errPartialRun
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&only, "source", "", "Sync only one source (shortpost, video, forum, trends)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-listen", "", "Serve Prometheus metrics on this address during the run")
	return cmd
}

func generateCmd() *cobra.Command {
	var contentType, tone, fromSource string
	var keywords []string

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate marketing copy for a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			store, _, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			b, err := brain.NewGeminiBrain(cmd.Context(), "", cfg.Generation.Models)
			if err != nil {
				return err
			}

			topic := args[0]
			if fromSource != "" {
				recent, err := store.RecentRecords(cmd.Context(), domain.Source(fromSource), 10)
				if err != nil {
					return fmt.Errorf("load recent %s records: %w", fromSource, err)
				}
				topic = withTrendingContext(topic, recent)
			}

			opts := ports.GenerateOptions{ContentType: contentType, Tone: tone, Keywords: keywords}
			text, model, err := b.Generate(cmd.Context(), topic, opts)
			if err != nil {
				return err
			}

			gc := domain.GeneratedContent{
				Prompt:      topic,
				Content:     text,
				Model:       model,
				ContentType: contentType,
				Tone:        tone,
			}
			if err := store.SaveGenerated(cmd.Context(), gc); err != nil {
				log.Printf("save generated content: %v", err)
			}

			fmt.Println(text)
			return nil
		},
	}
	cmd.Flags().StringVar(&contentType, "type", "short social media post", "Content type to generate")
	cmd.Flags().StringVar(&tone, "tone", "engaging", "Tone of voice")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "Keywords to work into the copy")
	cmd.Flags().StringVar(&fromSource, "from-source", "", "Seed the prompt with recently collected records from this source")
	return cmd
}

// withTrendingContext appends recently collected titles and the terms
// recurring across them so the copy references what is actually trending.
func withTrendingContext(topic string, recent []domain.Record) string {
	if len(recent) == 0 {
		return topic
	}
	var sb strings.Builder
	sb.WriteString(topic)
	sb.WriteString("\n\nCurrently trending on this channel:\n")
	for _, r := range recent {
		fmt.Fprintf(&sb, "- %s\n", truncate(r.Text, 120))
	}
	if kws := topKeywords(recent, 5); len(kws) > 0 {
		fmt.Fprintf(&sb, "Effective keywords in recent high-engagement content: %s\n", strings.Join(kws, ", "))
	}
	return sb.String()
}

// seedStopwords filters filler terms out of the keyword summary.
var seedStopwords = map[string]bool{
	"about": true, "after": true, "because": true, "been": true,
	"every": true, "from": true, "have": true,
	"here": true, "into": true, "just": true, "like": true,
	"more": true, "most": true, "over": true, "some": true,
	"such": true, "than": true, "that": true, "their": true,
	"them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "what": true, "when": true,
	"where": true, "which": true, "will": true, "with": true,
	"would": true, "your": true,
}

// topKeywords counts the words appearing across the collected texts and
// returns the n most frequent, ties broken alphabetically so the prompt
// is stable run to run.
func topKeywords(recs []domain.Record, n int) []string {
	counts := make(map[string]int)
	for _, r := range recs {
		for _, w := range strings.Fields(strings.ToLower(r.Text)) {
			w = strings.Trim(w, ".,!?;:\"'()[]#@")
			if len(w) < 4 || seedStopwords[w] {
				continue
			}
			counts[w]++
		}
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		if counts[w] > 1 {
			words = append(words, w)
		}
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// openStore prefers Postgres when a DSN is configured and falls back
// to the embedded SQLite store otherwise.
func openStore(ctx context.Context, cfg config.Config) (ports.Store, string, error) {
	if cfg.Store.DatabaseURL != "" {
		s, err := storage.NewPostgresStore(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres: %w", err)
		}
		return s, "postgres", nil
	}
	path := cfg.SQLitePathOrDefault()
	s, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, "", fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return s, "sqlite " + path, nil
}

func buildSources(cfg config.Config, only string) ([]ports.Source, error) {
	var srcs []ports.Source
	if cfg.Sources.ShortPost.Enabled {
		srcs = append(srcs, shortpost.NewClient(cfg.Sources.ShortPost))
	}
	if cfg.Sources.Video.Enabled {
		srcs = append(srcs, video.NewClient(cfg.Sources.Video))
	}
	if cfg.Sources.Forum.Enabled {
		srcs = append(srcs, forum.NewClient(cfg.Sources.Forum))
	}
	if cfg.Sources.Trends.Enabled {
		srcs = append(srcs, trends.NewClient(cfg.Sources.Trends))
	}

	if only != "" {
		for _, s := range srcs {
			if string(s.Name()) == only {
				return []ports.Source{s}, nil
			}
		}
		return nil, fmt.Errorf("source %q is unknown or not enabled", only)
	}
	if len(srcs) == 0 {
		return nil, fmt.Errorf("no sources enabled")
	}
	return srcs, nil
}

func buildTrigger(cfg config.Config) *alert.Trigger {
	if len(cfg.Alerts.Rules) == 0 {
		return nil
	}

	var sinks []ports.Sink
	if cfg.Alerts.SlackWebhookURL != "" {
		sinks = append(sinks, alert.NewSlackSink(cfg.Alerts.SlackWebhookURL, cfg.Alerts.SlackUsername, cfg.Alerts.SlackIconEmoji))
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" && cfg.Alerts.TelegramChatID != "" {
		t, err := alert.NewTelegramSink(token, cfg.Alerts.TelegramChatID)
		if err != nil {
			log.Printf("telegram sink disabled: %v", err)
		} else {
			sinks = append(sinks, t)
		}
	}
	if len(sinks) == 0 {
		log.Printf("alert rules configured but no sinks available; alerts will be logged only")
		sinks = append(sinks, alert.LogSink{})
	}

	return alert.NewTrigger(alert.NewEvaluator(cfg.Alerts.Rules), alert.NewNotifier(sinks, cfg.Alerts.MaxAttempts))
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("metrics listener: %v", err)
	}
}

func printRun(run domain.SyncRun) {
	fmt.Printf("sync %s: %s\n", run.ID, run.Status)
	for _, b := range run.Batches {
		line := fmt.Sprintf("  %-10s fetched=%d inserted=%d skipped=%d failed=%d",
			b.Source, b.Attempted, b.Inserted, b.Skipped, b.Failed)
		if b.FetchError != "" {
			line += " error=" + strings.SplitN(b.FetchError, "\n", 2)[0]
		}
		fmt.Println(line)
	}
}
