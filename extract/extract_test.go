package extract

import (
	"testing"

	"github.com/datar-psa/mathverify/api"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name           string
		response       string
		wantAnswer     string
		wantFound      bool
		wantMethod     string
		wantConfidence float64
	}{
		{
			name:           "final answer marker",
			response:       "The slope is 2.\nFINAL_ANSWER: 42",
			wantAnswer:     "42",
			wantFound:      true,
			wantMethod:     api.MethodPrimaryKeyword,
			wantConfidence: 1.0,
		},
		{
			name:           "final answer marker lowercase",
			response:       "final_answer: 1/4",
			wantAnswer:     "1/4",
			wantFound:      true,
			wantMethod:     api.MethodPrimaryKeyword,
			wantConfidence: 1.0,
		},
		{
			name:           "final answer inside text wrapper",
			response:       `So we conclude. \text{FINAL_ANSWER: } 3/4`,
			wantAnswer:     "3/4",
			wantFound:      true,
			wantMethod:     api.MethodPrimaryKeyword,
			wantConfidence: 1.0,
		},
		{
			name:           "marker beats boxed",
			response:       `\boxed{7}` + "\nFINAL_ANSWER: 8",
			wantAnswer:     "8",
			wantFound:      true,
			wantMethod:     api.MethodPrimaryKeyword,
			wantConfidence: 1.0,
		},
		{
			name:           "boxed answer",
			response:       `The result is \boxed{42}.`,
			wantAnswer:     "42",
			wantFound:      true,
			wantMethod:     api.MethodBoxedNotation,
			wantConfidence: 0.8,
		},
		{
			name:           "nested boxed braces",
			response:       `Thus \boxed{\frac{1}{4}} concludes the proof.`,
			wantAnswer:     `\frac{1}{4}`,
			wantFound:      true,
			wantMethod:     api.MethodBoxedNotation,
			wantConfidence: 0.8,
		},
		{
			name:           "last boxed wins",
			response:       `First \boxed{41}, corrected to \boxed{42}.`,
			wantAnswer:     "42",
			wantFound:      true,
			wantMethod:     api.MethodBoxedNotation,
			wantConfidence: 0.8,
		},
		{
			name:           "secondary keyword",
			response:       "We solve step by step. The answer is 17.5",
			wantAnswer:     "17.5",
			wantFound:      true,
			wantMethod:     api.MethodSecondaryKeyword,
			wantConfidence: 0.6,
		},
		{
			name:           "therefore keyword",
			response:       "Therefore, x = 3",
			wantAnswer:     "x = 3",
			wantFound:      true,
			wantMethod:     api.MethodSecondaryKeyword,
			wantConfidence: 0.6,
		},
		{
			name:           "last value fallback number",
			response:       "We get 12 then refine to 15",
			wantAnswer:     "15",
			wantFound:      true,
			wantMethod:     api.MethodLastValue,
			wantConfidence: 0.4,
		},
		{
			name:           "last value prefers coordinate",
			response:       "Given 7 we find x = 3",
			wantAnswer:     "x = 3",
			wantFound:      true,
			wantMethod:     api.MethodLastValue,
			wantConfidence: 0.4,
		},
		{
			name:           "last value fraction over number",
			response:       "So 3 quarters is 3/4 roughly",
			wantAnswer:     "3/4",
			wantFound:      true,
			wantMethod:     api.MethodLastValue,
			wantConfidence: 0.4,
		},
		{
			name:       "empty response",
			response:   "",
			wantFound:  false,
			wantMethod: api.MethodNone,
		},
		{
			name:       "whitespace response",
			response:   "   \n  ",
			wantFound:  false,
			wantMethod: api.MethodNone,
		},
		{
			name:       "no numeric content",
			response:   "I cannot solve this problem.",
			wantFound:  false,
			wantMethod: api.MethodNone,
		},
		{
			name:           "dollar wrapper stripped",
			response:       "FINAL_ANSWER: $1/4$",
			wantAnswer:     "1/4",
			wantFound:      true,
			wantMethod:     api.MethodPrimaryKeyword,
			wantConfidence: 1.0,
		},
		{
			name:           "leading brace stripped",
			response:       "FINAL_ANSWER: } 42",
			wantAnswer:     "42",
			wantFound:      true,
			wantMethod:     api.MethodPrimaryKeyword,
			wantConfidence: 1.0,
		},
		{
			name:           "marker takes rest of line only",
			response:       "FINAL_ANSWER: 42\nBut wait, maybe 43.",
			wantAnswer:     "42",
			wantFound:      true,
			wantMethod:     api.MethodPrimaryKeyword,
			wantConfidence: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.response)
			if got.Found != tt.wantFound {
				t.Fatalf("Extract(%q).Found = %v, want %v", tt.response, got.Found, tt.wantFound)
			}
			if got.Answer != tt.wantAnswer {
				t.Errorf("Extract(%q).Answer = %q, want %q", tt.response, got.Answer, tt.wantAnswer)
			}
			if got.Method != tt.wantMethod {
				t.Errorf("Extract(%q).Method = %q, want %q", tt.response, got.Method, tt.wantMethod)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Extract(%q).Confidence = %v, want %v", tt.response, got.Confidence, tt.wantConfidence)
			}
		})
	}
}

func TestBoxedNotationUnbalanced(t *testing.T) {
	// An unbalanced box ends the nested scan; earlier complete boxes still
	// count, and the simple fallback handles the degenerate remainder.
	answer, ok := boxedNotation(`\boxed{42} then \boxed{1 + (2`)
	if !ok || answer != "42" {
		t.Errorf("boxedNotation = %q, %v, want %q, true", answer, ok, "42")
	}
}

func TestSecondaryKeywordPatternOrder(t *testing.T) {
	// Matches are collected pattern by pattern, so a Therefore line outranks
	// an earlier-seen Answer line only because its pattern runs later.
	answer, ok := secondaryKeyword("Therefore 5\nAnswer: 4")
	if !ok || answer != "5" {
		t.Errorf("secondaryKeyword = %q, %v, want %q, true", answer, ok, "5")
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: " 42 ", want: "42"},
		{name: "dollars", in: "$1/4$", want: "1/4"},
		{name: "leading brace", in: "} 42", want: "42"},
		{name: "dollars then brace", in: "$} 42$", want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clean(tt.in); got != tt.want {
				t.Errorf("clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
