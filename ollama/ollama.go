// Package ollama provides a client for a local Ollama server implementing
// the Generator interface consumed by the batch runner.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	mathverify "github.com/datar-psa/mathverify"
)

// DefaultSystemPrompt steers the model toward showing its work and closing
// with the FINAL_ANSWER: marker the extractor treats as highest-confidence.
const DefaultSystemPrompt = `You are a mathematics expert. When solving math problems, please:

1. THINK STEP BY STEP and show ALL your work
2. Explain your reasoning clearly at each step
3. Show all calculations, substitutions, and algebraic manipulations
4. If using formulas, state them explicitly
5. Verify your work when possible

After showing your complete solution process, provide your final answer in this exact format:
FINAL_ANSWER: [your answer here]

Examples of final answer formats:
- Numeric answers: FINAL_ANSWER: 42.67
- Fractions: FINAL_ANSWER: 54584/99000
- Expressions: FINAL_ANSWER: f'(x) = 12x^5
- Integrals: FINAL_ANSWER: (9/2)x^2 + C
- Text answers: FINAL_ANSWER: Rational
- Ranges: FINAL_ANSWER: 5 and 6

Remember: Show your thinking process first, then provide the final answer!`

// Client talks to an Ollama server's REST API.
type Client struct {
	baseURL      string
	model        string
	systemPrompt string
	httpClient   *http.Client
}

// ClientOptions configures Client creation
type ClientOptions struct {
	baseURL      string
	model        string
	systemPrompt string
	httpClient   *http.Client
}

// WithBaseURL sets the server address (default http://localhost:11434)
func WithBaseURL(baseURL string) func(*ClientOptions) {
	return func(opts *ClientOptions) {
		opts.baseURL = baseURL
	}
}

// WithModel sets the model to query (default gemma3:4b)
func WithModel(model string) func(*ClientOptions) {
	return func(opts *ClientOptions) {
		opts.model = model
	}
}

// WithSystemPrompt overrides the default math system prompt
func WithSystemPrompt(prompt string) func(*ClientOptions) {
	return func(opts *ClientOptions) {
		opts.systemPrompt = prompt
	}
}

// WithHTTPClient sets the underlying HTTP client, e.g. a caching client in
// tests
func WithHTTPClient(httpClient *http.Client) func(*ClientOptions) {
	return func(opts *ClientOptions) {
		opts.httpClient = httpClient
	}
}

// NewClient creates a new Ollama client using functional options.
func NewClient(opts ...func(*ClientOptions)) *Client {
	options := &ClientOptions{
		baseURL:      "http://localhost:11434",
		model:        "gemma3:4b",
		systemPrompt: DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.httpClient == nil {
		options.httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{
		baseURL:      strings.TrimRight(options.baseURL, "/"),
		model:        options.model,
		systemPrompt: options.systemPrompt,
		httpClient:   options.httpClient,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Ping checks that the server is running and reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", mathverify.ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", mathverify.ErrServerUnavailable, resp.StatusCode)
	}
	return nil
}

// HasModel reports whether the configured model is installed on the server.
func (c *Client) HasModel(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", mathverify.ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: HTTP %d", mathverify.ErrServerUnavailable, resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Errorf("decode tags response: %w", err)
	}
	for _, m := range tags.Models {
		if strings.HasPrefix(m.Name, c.model) {
			return true, nil
		}
	}
	return false, nil
}

// Generate implements Generator.Generate: it sends the question with the
// math system prompt and returns the full, non-streamed response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: c.systemPrompt,
		Stream: false,
		Options: generateOptions{
			Temperature: 0.3,
			TopP:        0.9,
			TopK:        40,
			NumPredict:  2048,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", mathverify.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: HTTP %d: %s", mathverify.ErrGenerationFailed, resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}

	text := strings.TrimSpace(gen.Response)
	if text == "" {
		return "", mathverify.ErrEmptyResponse
	}
	return text, nil
}

// Verify that Client implements Generator
var _ mathverify.Generator = (*Client)(nil)
