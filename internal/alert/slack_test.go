package alert

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/domain"
)

func TestSlackSendPayload(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
	}))
	defer srv.Close()

	s := NewSlackSink(srv.URL, "Optimizer", ":chart_with_upwards_trend:")
	if err := s.Send(context.Background(), "views spiked"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if payload["text"] != "views spiked" {
		t.Errorf("text = %q", payload["text"])
	}
	if payload["username"] != "Optimizer" || payload["icon_emoji"] != ":chart_with_upwards_trend:" {
		t.Errorf("payload = %v", payload)
	}
}

func TestSlackSendDefaults(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
	}))
	defer srv.Close()

	s := NewSlackSink(srv.URL, "", "")
	if err := s.Send(context.Background(), "m"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if payload["username"] == "" || payload["icon_emoji"] == "" {
		t.Errorf("defaults not applied: %v", payload)
	}
}

func TestSlackSendClassifiesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSlackSink(srv.URL, "", "")
	err := s.Send(context.Background(), "m")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("err = %v, want transient classification for 500", err)
	}
}
