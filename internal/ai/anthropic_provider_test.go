package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/atsexpert/internal/model"
)

func anthropicMessage(text string) map[string]any {
	return map[string]any{
		"id":            "msg_01",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-sonnet-4-5",
		"content":       []map[string]any{{"type": "text", "text": text}},
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage":         map[string]any{"input_tokens": 10, "output_tokens": 5},
	}
}

func TestAnthropicComplete_Success(t *testing.T) {
	var gotKey, gotPath string
	var gotBody struct {
		Messages []struct {
			Content []struct {
				Type   string `json:"type"`
				Source *struct {
					Type      string `json:"type"`
					MediaType string `json:"media_type"`
				} `json:"source"`
			} `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicMessage("Red flags: none found"))
	}))
	defer srv.Close()

	p := NewAnthropicProvider(srv.URL, "ant-key", "claude-sonnet-4-5", srv.Client())
	got, err := p.Complete(context.Background(), "red flags", testImage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Red flags: none found" {
		t.Errorf("got %q", got)
	}
	if gotKey != "ant-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotPath != "/v1/messages" {
		t.Errorf("path = %q", gotPath)
	}
	if len(gotBody.Messages) != 1 || len(gotBody.Messages[0].Content) != 2 {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
	img := gotBody.Messages[0].Content[0]
	if img.Type != "image" || img.Source == nil || img.Source.MediaType != "image/jpeg" {
		t.Errorf("image block = %+v", img)
	}
}

func TestAnthropicComplete_InvalidKeyIsAuthenticationError(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusUnauthorized, map[string]any{
		"type":  "error",
		"error": map[string]any{"type": "authentication_error", "message": "invalid x-api-key"},
	})

	p := NewAnthropicProvider(srv.URL, "bad", "claude-sonnet-4-5", client)
	_, err := p.Complete(context.Background(), "score", testImage())
	var authErr *model.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
}

func TestAnthropicComplete_OverloadedIsServiceErrorWithoutRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(529)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "overloaded_error", "message": "Overloaded"},
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider(srv.URL, "key", "claude-sonnet-4-5", srv.Client())
	_, err := p.Complete(context.Background(), "score", testImage())
	var svcErr *model.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.StatusCode != 529 {
		t.Errorf("StatusCode = %d, want 529", svcErr.StatusCode)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1", calls)
	}
}
