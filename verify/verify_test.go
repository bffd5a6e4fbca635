package verify

import (
	"testing"

	"github.com/datar-psa/mathverify/api"
)

func TestAnswer(t *testing.T) {
	tests := []struct {
		name          string
		response      string
		expected      string
		alternate     string
		wantStatus    string
		wantMethod    string
		wantMatchType string
		wantSide      string
	}{
		{
			name:          "exact integer via marker",
			response:      "The derivative gives us the slope.\nFINAL_ANSWER: -133",
			expected:      "-133",
			wantStatus:    api.StatusCorrect,
			wantMethod:    api.MethodPrimaryKeyword,
			wantMatchType: api.MatchExact,
			wantSide:      api.SidePrimary,
		},
		{
			name:          "decimal against fraction is a type mismatch",
			response:      "FINAL_ANSWER: 0.25",
			expected:      "1/4",
			wantStatus:    api.StatusIncorrect,
			wantMethod:    api.MethodPrimaryKeyword,
			wantMatchType: api.MatchTypeMismatch,
			wantSide:      api.SideNone,
		},
		{
			name:          "alternate answer rescues the response",
			response:      "FINAL_ANSWER: R",
			expected:      "Rational",
			alternate:     "R",
			wantStatus:    api.StatusCorrect,
			wantMethod:    api.MethodPrimaryKeyword,
			wantMatchType: api.MatchExact,
			wantSide:      api.SideAlternate,
		},
		{
			name:          "nothing extractable",
			response:      "I cannot solve this.",
			expected:      "42",
			wantStatus:    api.StatusUnverifiable,
			wantMethod:    api.MethodNone,
			wantMatchType: api.MatchExtractionFailed,
			wantSide:      api.SideNone,
		},
		{
			name:          "thousands separator stripped on the expected side",
			response:      "Computing 3^8 step by step.\nFINAL_ANSWER: 6561",
			expected:      "6,561",
			wantStatus:    api.StatusCorrect,
			wantMethod:    api.MethodPrimaryKeyword,
			wantMatchType: api.MatchExact,
			wantSide:      api.SidePrimary,
		},
		{
			name:          "latex radical meets canonical spelling",
			response:      `FINAL_ANSWER: 4\sqrt{3}`,
			expected:      "4*SQRT(3)",
			wantStatus:    api.StatusCorrect,
			wantMethod:    api.MethodPrimaryKeyword,
			wantMatchType: api.MatchExact,
			wantSide:      api.SidePrimary,
		},
		{
			name:          "alternate also fails keeps primary explanation",
			response:      "FINAL_ANSWER: 5",
			expected:      "6",
			alternate:     "7",
			wantStatus:    api.StatusIncorrect,
			wantMethod:    api.MethodPrimaryKeyword,
			wantMatchType: api.MatchNone,
			wantSide:      api.SideNone,
		},
		{
			name:          "boxed fallback",
			response:      `Thus the area is \boxed{42}.`,
			expected:      "42",
			wantStatus:    api.StatusCorrect,
			wantMethod:    api.MethodBoxedNotation,
			wantMatchType: api.MatchExact,
			wantSide:      api.SidePrimary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Answer(tt.response, tt.expected, tt.alternate)
			if got.VerificationStatus != tt.wantStatus {
				t.Errorf("VerificationStatus = %q, want %q (%s)", got.VerificationStatus, tt.wantStatus, got.Details)
			}
			if got.ExtractionMethod != tt.wantMethod {
				t.Errorf("ExtractionMethod = %q, want %q", got.ExtractionMethod, tt.wantMethod)
			}
			if got.MatchType != tt.wantMatchType {
				t.Errorf("MatchType = %q, want %q (%s)", got.MatchType, tt.wantMatchType, got.Details)
			}
			if got.MatchedAnswer != tt.wantSide {
				t.Errorf("MatchedAnswer = %q, want %q", got.MatchedAnswer, tt.wantSide)
			}
		})
	}
}

func TestAnswerExtractionFailureStillNormalizesExpected(t *testing.T) {
	got := Answer("no numbers here at all... sorry", "1/4", "0.25")
	if got.VerificationStatus != api.StatusUnverifiable {
		t.Fatalf("VerificationStatus = %q, want %q", got.VerificationStatus, api.StatusUnverifiable)
	}
	if got.Expected == nil || got.Expected.Kind != api.KindFraction {
		t.Errorf("Expected side not normalized: %+v", got.Expected)
	}
	if got.Alternate == nil || got.Alternate.Kind != api.KindDecimal {
		t.Errorf("Alternate side not normalized: %+v", got.Alternate)
	}
	if got.ErrorMessage == "" {
		t.Errorf("extraction failure should carry an error message")
	}
}

func TestAnswerRecordsTypes(t *testing.T) {
	got := Answer("FINAL_ANSWER: 0.25", "1/4", "")
	if got.ExtractedType != api.KindDecimal {
		t.Errorf("ExtractedType = %v, want decimal", got.ExtractedType)
	}
	if got.ExpectedType != api.KindFraction {
		t.Errorf("ExpectedType = %v, want fraction", got.ExpectedType)
	}
	if got.ExtractionConfidence != 1.0 {
		t.Errorf("ExtractionConfidence = %v, want 1.0", got.ExtractionConfidence)
	}
}

func TestAnswerToleranceConfidence(t *testing.T) {
	// A coordinate with a fraction value keeps a fixed 2-digit precision, so
	// 1/3 against 0.33 lands inside the tolerance band rather than on top of it.
	got := Answer("FINAL_ANSWER: x = 1/3", "0.33", "")
	if got.VerificationStatus != api.StatusCorrect {
		t.Fatalf("VerificationStatus = %q, want correct (%s)", got.VerificationStatus, got.Details)
	}
	if got.MatchType != api.MatchTolerance {
		t.Errorf("MatchType = %q, want %q", got.MatchType, api.MatchTolerance)
	}
	if got.ComparisonConfidence <= 0 || got.ComparisonConfidence >= 1 {
		t.Errorf("ComparisonConfidence = %v, want in (0, 1)", got.ComparisonConfidence)
	}
}
