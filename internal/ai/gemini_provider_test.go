package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amishk599/jobharvest/internal/model"
)

func TestGeminiComplete_Success(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": `{"job_category":"auditor"}`}},
				},
			}},
		})
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), srv.URL, "test-key", "", srv.Client())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	got, err := p.Complete(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"job_category":"auditor"}` {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(gotPath, DefaultGeminiModel) {
		t.Errorf("path %q does not name model %s", gotPath, DefaultGeminiModel)
	}
}

func TestGeminiComplete_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), srv.URL, "test-key", "gemini-2.0-flash", srv.Client())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	_, err = p.Complete(context.Background(), "analyze this")
	if !errors.Is(err, model.ErrEnrichmentService) {
		t.Fatalf("expected ErrEnrichmentService, got %v", err)
	}
}
