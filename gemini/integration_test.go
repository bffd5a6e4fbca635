package gemini_test

import (
	"context"
	"testing"

	"github.com/datar-psa/mathverify/internal/testutils"
	"github.com/datar-psa/mathverify/verify"

	"github.com/datar-psa/mathverify/api"
)

// TestGenerator_Integration exercises the Gemini generator against the real
// API, with hypert caching the HTTP exchanges. Requires Google Cloud
// credentials when recording (UPDATE_TESTS=true).
func TestGenerator_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	gen := testutils.NewGeminiGenerator(t, testutils.DefaultGeminiTestConfig("generate"), "publishers/google/models/gemini-2.5-flash")

	tests := []struct {
		name       string
		question   string
		expected   string
		alternate  string
		wantStatus string
	}{
		{
			name:       "integer arithmetic",
			question:   "What is 6*7?",
			expected:   "42",
			wantStatus: api.StatusCorrect,
		},
		{
			name:       "fraction addition",
			question:   "What is 1/2 + 1/4? Give the answer as a fraction.",
			expected:   "3/4",
			alternate:  "0.75",
			wantStatus: api.StatusCorrect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := gen.Generate(ctx, tt.question)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if response == "" {
				t.Fatal("empty response")
			}

			v := verify.Answer(response, tt.expected, tt.alternate)
			if v.VerificationStatus != tt.wantStatus {
				t.Errorf("VerificationStatus = %q, want %q (extracted %q via %s: %s)",
					v.VerificationStatus, tt.wantStatus, v.ExtractedAnswer, v.ExtractionMethod, v.Details)
			}
		})
	}
}
