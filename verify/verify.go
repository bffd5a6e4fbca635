// Package verify chains extraction, normalization, and comparison into the
// full grading pipeline for one response. The pipeline is a pure function of
// its string inputs: no shared state, no I/O, safe to call concurrently.
package verify

import (
	"fmt"

	"github.com/datar-psa/mathverify/api"
	"github.com/datar-psa/mathverify/compare"
	"github.com/datar-psa/mathverify/extract"
	"github.com/datar-psa/mathverify/normalize"
)

// Answer grades a model response against the expected answer, falling back
// to the alternate answer when one is supplied (pass "" for none).
//
// Terminal statuses: correct, incorrect, unable_to_verify (nothing could be
// extracted), error (an unexpected failure inside the pipeline). Nothing in
// here is allowed to abort a batch run; panics are recovered at this
// boundary and reported as status error.
func Answer(response, expected, alternate string) (v api.Verification) {
	defer func() {
		if r := recover(); r != nil {
			expectedNorm := safeNormalize(expected)
			v = api.Verification{
				ExtractionMethod:   api.MethodNone,
				Expected:           expectedNorm,
				ExpectedType:       kindOf(expectedNorm),
				MatchType:          "error",
				MatchedAnswer:      api.SideNone,
				VerificationStatus: api.StatusError,
				ErrorMessage:       fmt.Sprintf("%v", r),
				Details:            fmt.Sprintf("verification failed with panic: %v", r),
			}
		}
	}()

	extraction := extract.Extract(response)

	if !extraction.Found {
		// The expected answer is still normalized for audit purposes.
		expectedNorm := normalize.Normalize(expected)
		var alternateNorm *api.NormalizedValue
		if alternate != "" {
			n := normalize.Normalize(alternate)
			alternateNorm = &n
		}
		return api.Verification{
			ExtractionMethod:   extraction.Method,
			Expected:           &expectedNorm,
			ExpectedType:       expectedNorm.Kind,
			Alternate:          alternateNorm,
			MatchType:          api.MatchExtractionFailed,
			MatchedAnswer:      api.SideNone,
			VerificationStatus: api.StatusUnverifiable,
			ErrorMessage:       "could not extract answer from response",
			Details: fmt.Sprintf("tried all extraction methods, none succeeded; response length: %d chars",
				len(response)),
		}
	}

	extractedNorm := normalize.Normalize(extraction.Answer)
	expectedNorm := normalize.Normalize(expected)
	var alternateNorm *api.NormalizedValue
	if alternate != "" {
		n := normalize.Normalize(alternate)
		alternateNorm = &n
	}

	comparison := compare.Answers(extractedNorm, expectedNorm)
	comparison.MatchedSide = api.SideNone
	if comparison.IsMatch {
		comparison.MatchedSide = api.SidePrimary
	} else if alternateNorm != nil {
		// A failed primary comparison keeps its explanation even when the
		// alternate also fails, so the audit trail names the main answer.
		if alt := compare.Answers(extractedNorm, *alternateNorm); alt.IsMatch {
			alt.MatchedSide = api.SideAlternate
			comparison = alt
		}
	}

	status := api.StatusIncorrect
	if comparison.IsMatch {
		status = api.StatusCorrect
	}

	return api.Verification{
		ExtractedAnswer:      extraction.Answer,
		ExtractionMethod:     extraction.Method,
		ExtractionConfidence: extraction.Confidence,
		Extracted:            &extractedNorm,
		Expected:             &expectedNorm,
		Alternate:            alternateNorm,
		ExtractedType:        extractedNorm.Kind,
		ExpectedType:         expectedNorm.Kind,
		IsCorrect:            comparison.IsMatch,
		ComparisonConfidence: comparison.Confidence,
		MatchType:            comparison.Category,
		MatchedAnswer:        comparison.MatchedSide,
		VerificationStatus:   status,
		Details:              comparison.Explanation,
	}
}

// safeNormalize is used on the panic-recovery path, where normalization
// itself may be the thing that failed.
func safeNormalize(text string) (out *api.NormalizedValue) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	n := normalize.Normalize(text)
	return &n
}

func kindOf(v *api.NormalizedValue) api.AnswerKind {
	if v == nil {
		return ""
	}
	return v.Kind
}
