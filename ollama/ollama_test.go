package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	mathverify "github.com/datar-psa/mathverify"
)

func TestGenerate(t *testing.T) {
	var gotReq generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "FINAL_ANSWER: 42\n", Done: true})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithModel("test-model"))
	got, err := client.Generate(context.Background(), "What is 6*7?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "FINAL_ANSWER: 42" {
		t.Errorf("Generate = %q, want trimmed response", got)
	}

	if gotReq.Model != "test-model" {
		t.Errorf("request model = %q, want test-model", gotReq.Model)
	}
	if gotReq.Prompt != "What is 6*7?" {
		t.Errorf("request prompt = %q", gotReq.Prompt)
	}
	if gotReq.System != DefaultSystemPrompt {
		t.Errorf("request system prompt does not match default")
	}
	if gotReq.Stream {
		t.Errorf("streaming must be disabled")
	}
	if gotReq.Options.Temperature != 0.3 || gotReq.Options.TopP != 0.9 ||
		gotReq.Options.TopK != 40 || gotReq.Options.NumPredict != 2048 {
		t.Errorf("unexpected generation options: %+v", gotReq.Options)
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "   ", Done: true})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Generate(context.Background(), "question")
	if !errors.Is(err, mathverify.ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestGenerateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Generate(context.Background(), "question")
	if !errors.Is(err, mathverify.ErrGenerationFailed) {
		t.Errorf("err = %v, want ErrGenerationFailed", err)
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(tagsResponse{})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestPingServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(WithBaseURL(server.URL))
	err := client.Ping(context.Background())
	if !errors.Is(err, mathverify.ErrServerUnavailable) {
		t.Errorf("err = %v, want ErrServerUnavailable", err)
	}
}

func TestHasModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"gemma3:4b"},{"name":"llama3:8b"}]}`))
	}))
	defer server.Close()

	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "exact name", model: "gemma3:4b", want: true},
		{name: "prefix match", model: "gemma3", want: true},
		{name: "missing model", model: "mistral", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(WithBaseURL(server.URL), WithModel(tt.model))
			got, err := client.HasModel(context.Background())
			if err != nil {
				t.Fatalf("HasModel: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasModel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient()
	if client.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %q", client.baseURL)
	}
	if client.Model() != "gemma3:4b" {
		t.Errorf("model = %q", client.Model())
	}
	if client.systemPrompt != DefaultSystemPrompt {
		t.Errorf("system prompt not defaulted")
	}
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	client := NewClient(WithBaseURL("http://example.com/"))
	if client.baseURL != "http://example.com" {
		t.Errorf("baseURL = %q, want trailing slash removed", client.baseURL)
	}
}
