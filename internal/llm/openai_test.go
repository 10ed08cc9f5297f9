package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIEmbedder_Embed(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		expectedSize int
		wantLen      int
		wantErr      error
		anyErr       bool
	}{
		{
			name:         "success",
			status:       http.StatusOK,
			body:         `{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}],"model":"m"}`,
			expectedSize: 3,
			wantLen:      3,
		},
		{
			name:    "empty data",
			status:  http.StatusOK,
			body:    `{"object":"list","data":[],"model":"m"}`,
			wantErr: ErrEmptyResponse,
		},
		{
			name:         "wrong dimension",
			status:       http.StatusOK,
			body:         `{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1]}],"model":"m"}`,
			expectedSize: 768,
			wantErr:      ErrDimensionMismatch,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"message":"boom"}}`,
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("path = %q, want /v1/embeddings", r.URL.Path)
				}
				var req map[string]any
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if req["model"] != "text-embedding-004" {
					t.Errorf("model = %v", req["model"])
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			e := NewOpenAIEmbedder(server.URL+"/v1/", "key", "text-embedding-004", tt.expectedSize)
			vec, err := e.Embed(context.Background(), "hello", ModeQuery)
			if tt.wantErr != nil || tt.anyErr {
				if err == nil {
					t.Fatalf("Embed() expected error, got nil")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("Embed() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Embed() unexpected error: %v", err)
			}
			if len(vec) != tt.wantLen {
				t.Errorf("Embed() len = %d, want %d", len(vec), tt.wantLen)
			}
		})
	}
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{
			name: "success",
			body: `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Grand Clio went to X."},"finish_reason":"stop"}]}`,
			want: "Grand Clio went to X.",
		},
		{
			name:    "no choices",
			body:    `{"id":"1","object":"chat.completion","choices":[]}`,
			wantErr: ErrEmptyResponse,
		},
		{
			name:    "blank content",
			body:    `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"   "}}]}`,
			wantErr: ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
				}
				var req struct {
					Model       string  `json:"model"`
					Temperature float32 `json:"temperature"`
					MaxTokens   int     `json:"max_tokens"`
					Messages    []struct {
						Role    string `json:"role"`
						Content string `json:"content"`
					} `json:"messages"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if req.MaxTokens != 1024 {
					t.Errorf("max_tokens = %d, want 1024", req.MaxTokens)
				}
				if len(req.Messages) != 1 || req.Messages[0].Content != "the prompt" {
					t.Errorf("messages = %+v", req.Messages)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			g := NewOpenAIGenerator(server.URL+"/v1", "key", "local-model")
			got, err := g.Generate(context.Background(), "the prompt", GenerateParams{Temperature: 0.7, MaxTokens: 1024})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Generate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Generate() = %q, want %q", got, tt.want)
			}
		})
	}
}
