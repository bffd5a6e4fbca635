package api

import "context"

// AnswerKind classifies the mathematical form an answer is written in.
// Representation is load-bearing for grading: 1/4 and 0.25 denote the same
// rational number but are different kinds and never compare equal.
type AnswerKind string

const (
	KindFraction   AnswerKind = "fraction"   // 54584/99000
	KindDecimal    AnswerKind = "decimal"    // 8.1, 42.67
	KindInteger    AnswerKind = "integer"    // 7, -133
	KindExpression AnswerKind = "expression" // f'(x) = 12x^5, (9/2)x^2 + C
	KindText       AnswerKind = "text"       // Rational, Irrational
	KindRange      AnswerKind = "range"      // 5 and 6
	KindScientific AnswerKind = "scientific" // 5 * 10^3
	KindCoordinate AnswerKind = "coordinate" // x = 1.67
	KindUnknown    AnswerKind = "unknown"
)

// NormalizedValue is the typed, comparable form of one answer string.
// Exactly one payload group is populated, selected by Kind. Values are
// created once by the normalizer and never mutated.
type NormalizedValue struct {
	Kind AnswerKind

	// Fraction payload. Numerator and denominator are kept unreduced so the
	// comparator can distinguish exact from equivalent matches.
	Numerator   int64
	Denominator int64

	// Decimal payload; also the numeric half of the Coordinate payload.
	Float float64

	// Integer payload.
	Int int64

	// Expression and Text payload (canonicalized string).
	Text string

	// Range payload: deduplicated, order-insignificant member set.
	Members map[int64]struct{}

	// Scientific notation payload.
	Coefficient int64
	Exponent    int64

	// Coordinate payload: single-letter variable name; value is in Float.
	Variable string

	// OriginalText preserves the pre-normalization input for display/audit.
	OriginalText string

	// Precision is the decimal-place count for Decimal and Coordinate
	// values; it sizes the comparison tolerance. HasPrecision reports
	// whether it was recorded.
	Precision    int
	HasPrecision bool

	// Diagnostic names the failure when normalization could not fully
	// succeed and Kind is KindUnknown.
	Diagnostic string
}

// Extraction method names. Confidence is fixed per method.
const (
	MethodPrimaryKeyword   = "primary_keyword"   // FINAL_ANSWER: marker, confidence 1.0
	MethodBoxedNotation    = "boxed_notation"    // \boxed{...}, confidence 0.8
	MethodSecondaryKeyword = "secondary_keyword" // "Answer:", "The answer is", "Therefore", confidence 0.6
	MethodLastValue        = "last_value"        // trailing numeric token, confidence 0.4
	MethodNone             = "none"              // nothing matched, confidence 0.0
)

// Extraction is the result of locating the literal answer inside a verbose
// model response.
type Extraction struct {
	// Answer is the extracted substring; empty when Method is MethodNone.
	Answer string
	// Found reports whether any strategy produced an answer.
	Found bool
	// Method identifies the strategy that matched.
	Method string
	// Confidence is fixed per method, in [0,1].
	Confidence float64
}

// Comparison categories.
const (
	MatchExact        = "exact"
	MatchEquivalent   = "equivalent"
	MatchTolerance    = "tolerance"
	MatchNone         = "no_match"
	MatchTypeMismatch = "type_mismatch"
	MatchUnknown      = "unknown"
)

// Matched-side labels for Comparison and Verification.
const (
	SidePrimary   = "primary"
	SideAlternate = "alternate"
	SideNone      = "none"
)

// Comparison is the verdict of comparing two normalized answers.
type Comparison struct {
	IsMatch    bool
	Confidence float64
	Category   string
	// Explanation is a human-readable account of the values compared and,
	// for tolerance branches, the gap against the bound.
	Explanation string
	// MatchedSide records which ground-truth answer matched.
	MatchedSide string
}

// Verification statuses.
const (
	StatusCorrect      = "correct"
	StatusIncorrect    = "incorrect"
	StatusUnverifiable = "unable_to_verify"
	StatusError        = "error"

	// MatchExtractionFailed is the match type reported when no extraction
	// strategy produced an answer and comparison was never attempted.
	MatchExtractionFailed = "extraction_failed"
)

// Verification aggregates one full pipeline run for a graded item. It is the
// sole artifact handed to persistence and reporting; the JSON field names are
// read downstream and must stay stable.
type Verification struct {
	ExtractedAnswer      string  `json:"extracted_answer"`
	ExtractionMethod     string  `json:"extraction_method"`
	ExtractionConfidence float64 `json:"extraction_confidence"`

	ExtractedType AnswerKind `json:"extracted_type"`
	ExpectedType  AnswerKind `json:"expected_type"`

	Extracted *NormalizedValue `json:"-"`
	Expected  *NormalizedValue `json:"-"`
	Alternate *NormalizedValue `json:"-"`

	IsCorrect            bool    `json:"is_correct"`
	ComparisonConfidence float64 `json:"comparison_confidence"`
	MatchType            string  `json:"match_type"`
	MatchedAnswer        string  `json:"matched_answer"`

	VerificationStatus string `json:"verification_status"`
	ErrorMessage       string `json:"error_message,omitempty"`
	Details            string `json:"details"`
}

// Generator produces a free-form response for a question prompt.
// This interface must be implemented by library consumers; Ollama and Gemini
// implementations are provided in the ollama and gemini subpackages.
type Generator interface {
	// Generate sends the prompt and returns the full response text.
	Generate(ctx context.Context, prompt string) (string, error)
}
