package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/ports"
	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/httpx"
)

// SlackSink posts alert messages to an incoming webhook.
type SlackSink struct {
	webhookURL string
	username   string
	iconEmoji  string
	client     *http.Client
}

var _ ports.Sink = (*SlackSink)(nil)

func NewSlackSink(webhookURL, username, iconEmoji string) *SlackSink {
	if username == "" {
		username = "Content Optimizer"
	}
	if iconEmoji == "" {
		iconEmoji = ":robot_face:"
	}
	return &SlackSink{
		webhookURL: webhookURL,
		username:   username,
		iconEmoji:  iconEmoji,
		client:     httpx.New(10 * time.Second),
	}
}

func (s *SlackSink) Name() string { return "slack" }

func (s *SlackSink) Send(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{
		"text":       message,
		"username":   s.username,
		"icon_emoji": s.iconEmoji,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return httpx.DefaultClassify(resp.StatusCode, nil)
	}
	return nil
}
