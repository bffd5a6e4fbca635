// Package gemini provides a Generator backed by the Gemini API, for running
// the benchmark against hosted models instead of a local Ollama server.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	mathverify "github.com/datar-psa/mathverify"
	"github.com/datar-psa/mathverify/ollama"
)

// Generator wraps a genai.Client to implement the Generator interface
type Generator struct {
	client    *genai.Client
	modelName string
}

// NewGenerator creates a new Gemini generator
// client: genai.Client from google.golang.org/genai
// modelName: the model to use (e.g., "gemini-2.5-flash")
func NewGenerator(client *genai.Client, modelName string) *Generator {
	return &Generator{
		client:    client,
		modelName: modelName,
	}
}

// Generate implements Generator.Generate. The math system prompt is sent as
// a system instruction so responses follow the FINAL_ANSWER: contract.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	content := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
		},
	}

	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.modelName,
		[]*genai.Content{content},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{
					{Text: ollama.DefaultSystemPrompt},
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", mathverify.ErrGenerationFailed, err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	if len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no parts in response")
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", mathverify.ErrEmptyResponse
	}
	return text, nil
}

// Verify that Generator implements Generator
var _ mathverify.Generator = (*Generator)(nil)
