// Package mathverify grades free-form model answers for math problems
// against known-correct answers. The pipeline extracts the literal final
// answer from a verbose response, normalizes both sides into typed values,
// and compares them under type-aware rules: a numerically equal value of the
// wrong represented type (1/4 vs. 0.25) is not correct.
//
// The root package re-exports the api types and offers the whole pipeline
// as plain functions; the subpackages expose the individual stages.
package mathverify

import (
	"github.com/datar-psa/mathverify/compare"
	"github.com/datar-psa/mathverify/extract"
	"github.com/datar-psa/mathverify/normalize"
	"github.com/datar-psa/mathverify/verify"
)

// Verify runs the full pipeline for one response against the expected
// answer.
func Verify(response, expected string) Verification {
	return verify.Answer(response, expected, "")
}

// VerifyWithAlternate additionally accepts a second ground-truth literal
// that is tried when the primary expected answer does not match.
func VerifyWithAlternate(response, expected, alternate string) Verification {
	return verify.Answer(response, expected, alternate)
}

// Extract locates the literal final answer inside a verbose response.
func Extract(response string) Extraction {
	return extract.Extract(response)
}

// Normalize classifies an answer string and converts it into a typed value.
func Normalize(text string) NormalizedValue {
	return normalize.Normalize(text)
}

// Compare decides equality of two normalized answers under type-specific
// rules.
func Compare(extracted, expected NormalizedValue) Comparison {
	return compare.Answers(extracted, expected)
}
