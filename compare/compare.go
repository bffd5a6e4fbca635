// Package compare decides equality of two normalized answers under
// type-specific rules. Dispatch is strictly type-gated: differing kinds are
// a hard type_mismatch, with one deliberate exception for coordinates
// against bare scalars.
package compare

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/datar-psa/mathverify/api"
)

// Answers compares an extracted answer against one ground-truth answer.
// MatchedSide is left empty; the orchestrator records which ground-truth
// side matched.
func Answers(extracted, expected api.NormalizedValue) api.Comparison {
	if extracted.Kind != expected.Kind {
		// Graders and models disagree on whether a single-variable result
		// needs its variable restated, so "x = 1.67" may be compared
		// against a bare scalar. Every other kind pair is a hard failure.
		if extracted.Kind == api.KindCoordinate && isScalar(expected.Kind) {
			return coordinateVersusScalar(extracted, expected)
		}
		if expected.Kind == api.KindCoordinate && isScalar(extracted.Kind) {
			return coordinateVersusScalar(expected, extracted)
		}

		return api.Comparison{
			IsMatch:     false,
			Confidence:  1.0,
			Category:    api.MatchTypeMismatch,
			Explanation: fmt.Sprintf("type mismatch: %s vs %s", extracted.Kind, expected.Kind),
		}
	}

	switch extracted.Kind {
	case api.KindFraction:
		return fractions(extracted, expected)
	case api.KindDecimal:
		return decimals(extracted, expected)
	case api.KindInteger:
		return integers(extracted, expected)
	case api.KindExpression:
		return expressions(extracted, expected)
	case api.KindText:
		return texts(extracted, expected)
	case api.KindRange:
		return ranges(extracted, expected)
	case api.KindScientific:
		return scientific(extracted, expected)
	case api.KindCoordinate:
		return coordinates(extracted, expected)
	default:
		return api.Comparison{
			IsMatch:     false,
			Confidence:  0.0,
			Category:    api.MatchUnknown,
			Explanation: fmt.Sprintf("unknown answer kind: %s", extracted.Kind),
		}
	}
}

func isScalar(kind api.AnswerKind) bool {
	switch kind {
	case api.KindInteger, api.KindDecimal, api.KindFraction, api.KindScientific:
		return true
	}
	return false
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// reduce brings a fraction to lowest terms with the sign on the numerator.
func reduce(num, den int64) (int64, int64) {
	if g := gcd(num, den); g != 0 {
		num /= g
		den /= g
	}
	if den < 0 {
		num, den = -num, -den
	}
	return num, den
}

// fractions match when both reduce to the same lowest-terms pair; the match
// is exact only when the unreduced pairs were already identical.
func fractions(a, b api.NormalizedValue) api.Comparison {
	n1, d1 := reduce(a.Numerator, a.Denominator)
	n2, d2 := reduce(b.Numerator, b.Denominator)

	if n1 == n2 && d1 == d2 {
		category := api.MatchEquivalent
		if a.Numerator == b.Numerator && a.Denominator == b.Denominator {
			category = api.MatchExact
		}
		return api.Comparison{
			IsMatch:    true,
			Confidence: 1.0,
			Category:   category,
			Explanation: fmt.Sprintf("fractions equivalent: %d/%d = %d/%d (reduced: %d/%d)",
				a.Numerator, a.Denominator, b.Numerator, b.Denominator, n1, d1),
		}
	}
	return api.Comparison{
		IsMatch:     false,
		Confidence:  1.0,
		Category:    api.MatchNone,
		Explanation: fmt.Sprintf("fractions not equal: %d/%d != %d/%d", n1, d1, n2, d2),
	}
}

// precisionOrDefault treats an unset or zero precision as 2 decimal places.
func precisionOrDefault(v api.NormalizedValue) int {
	if !v.HasPrecision || v.Precision == 0 {
		return 2
	}
	return v.Precision
}

// toleranceMatch applies the shared numeric rule: tolerance is
// 0.5*10^-precision, zero difference is exact, the boundary itself is
// excluded, and confidence decays linearly to zero at the boundary.
func toleranceMatch(v1, v2 float64, precision int, label string) api.Comparison {
	tolerance := 0.5 * math.Pow(10, float64(-precision))
	diff := math.Abs(v1 - v2)

	switch {
	case diff == 0:
		return api.Comparison{
			IsMatch:     true,
			Confidence:  1.0,
			Category:    api.MatchExact,
			Explanation: fmt.Sprintf("exact %s match: %v = %v", label, v1, v2),
		}
	case diff < tolerance:
		return api.Comparison{
			IsMatch:    true,
			Confidence: 1.0 - diff/tolerance,
			Category:   api.MatchTolerance,
			Explanation: fmt.Sprintf("%ss within tolerance: |%v - %v| = %.6f < %v",
				label, v1, v2, diff, tolerance),
		}
	default:
		return api.Comparison{
			IsMatch:    false,
			Confidence: 1.0,
			Category:   api.MatchNone,
			Explanation: fmt.Sprintf("%ss differ: |%v - %v| = %.6f >= %v",
				label, v1, v2, diff, tolerance),
		}
	}
}

func decimals(a, b api.NormalizedValue) api.Comparison {
	precision := max(precisionOrDefault(a), precisionOrDefault(b))
	return toleranceMatch(a.Float, b.Float, precision, "decimal")
}

func integers(a, b api.NormalizedValue) api.Comparison {
	if a.Int == b.Int {
		return api.Comparison{
			IsMatch:     true,
			Confidence:  1.0,
			Category:    api.MatchExact,
			Explanation: fmt.Sprintf("integer exact match: %d = %d", a.Int, b.Int),
		}
	}
	return api.Comparison{
		IsMatch:     false,
		Confidence:  1.0,
		Category:    api.MatchNone,
		Explanation: fmt.Sprintf("integers not equal: %d != %d", a.Int, b.Int),
	}
}

func texts(a, b api.NormalizedValue) api.Comparison {
	if a.Text == b.Text {
		return api.Comparison{
			IsMatch:     true,
			Confidence:  1.0,
			Category:    api.MatchExact,
			Explanation: fmt.Sprintf("text match: %s", a.Text),
		}
	}
	return api.Comparison{
		IsMatch:     false,
		Confidence:  1.0,
		Category:    api.MatchNone,
		Explanation: fmt.Sprintf("text mismatch: %q vs %q", a.Text, b.Text),
	}
}

func formatMembers(members map[int64]struct{}) string {
	values := make([]int64, 0, len(members))
	for m := range members {
		values = append(values, m)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ranges match on set equality; member order never matters.
func ranges(a, b api.NormalizedValue) api.Comparison {
	equal := len(a.Members) == len(b.Members)
	if equal {
		for m := range a.Members {
			if _, ok := b.Members[m]; !ok {
				equal = false
				break
			}
		}
	}
	if equal {
		return api.Comparison{
			IsMatch:     true,
			Confidence:  1.0,
			Category:    api.MatchExact,
			Explanation: fmt.Sprintf("range match: %s", formatMembers(a.Members)),
		}
	}
	return api.Comparison{
		IsMatch:     false,
		Confidence:  1.0,
		Category:    api.MatchNone,
		Explanation: fmt.Sprintf("range mismatch: %s vs %s", formatMembers(a.Members), formatMembers(b.Members)),
	}
}

// scientific values must agree on both coefficient and exponent exactly;
// 50 * 10^2 is not accepted for 5 * 10^3.
func scientific(a, b api.NormalizedValue) api.Comparison {
	if a.Coefficient == b.Coefficient && a.Exponent == b.Exponent {
		return api.Comparison{
			IsMatch:     true,
			Confidence:  1.0,
			Category:    api.MatchExact,
			Explanation: fmt.Sprintf("scientific notation match: %d * 10^%d", a.Coefficient, a.Exponent),
		}
	}
	return api.Comparison{
		IsMatch:    false,
		Confidence: 1.0,
		Category:   api.MatchNone,
		Explanation: fmt.Sprintf("scientific notation mismatch: %d*10^%d vs %d*10^%d",
			a.Coefficient, a.Exponent, b.Coefficient, b.Exponent),
	}
}

func coordinates(a, b api.NormalizedValue) api.Comparison {
	if a.Variable != b.Variable {
		return api.Comparison{
			IsMatch:     false,
			Confidence:  1.0,
			Category:    api.MatchNone,
			Explanation: fmt.Sprintf("different variables: %s vs %s", a.Variable, b.Variable),
		}
	}
	precision := max(precisionOrDefault(a), precisionOrDefault(b))
	return toleranceMatch(a.Float, b.Float, precision, "coordinate value")
}

// coordinateVersusScalar reduces a bare scalar to a float and applies
// coordinate-tolerance rules against the coordinate's value.
func coordinateVersusScalar(coord, scalar api.NormalizedValue) api.Comparison {
	var value float64
	var precision int

	switch scalar.Kind {
	case api.KindInteger:
		value = float64(scalar.Int)
		precision = 0
	case api.KindDecimal:
		value = scalar.Float
		if scalar.HasPrecision {
			precision = scalar.Precision
		} else {
			precision = 2
		}
	case api.KindFraction:
		if scalar.Denominator == 0 {
			return api.Comparison{
				IsMatch:     false,
				Confidence:  1.0,
				Category:    api.MatchNone,
				Explanation: "invalid fraction denominator 0 in scalar answer",
			}
		}
		value = float64(scalar.Numerator) / float64(scalar.Denominator)
		precision = 6
	case api.KindScientific:
		value = float64(scalar.Coefficient) * math.Pow(10, float64(scalar.Exponent))
		precision = 6
	default:
		return api.Comparison{
			IsMatch:     false,
			Confidence:  1.0,
			Category:    api.MatchTypeMismatch,
			Explanation: fmt.Sprintf("type mismatch: coordinate vs %s", scalar.Kind),
		}
	}

	coordPrecision := coord.Precision
	if !coord.HasPrecision || coordPrecision == 0 {
		coordPrecision = 2
	}
	if precision < coordPrecision {
		precision = coordPrecision
	}

	result := toleranceMatch(coord.Float, value, precision, "coordinate/scalar")
	if result.IsMatch {
		result.Explanation = fmt.Sprintf("coordinate/scalar match: %s=%v and %v", coord.Variable, coord.Float, value)
	} else {
		result.Explanation = fmt.Sprintf("coordinate/scalar values differ: %s=%v vs %v", coord.Variable, coord.Float, value)
	}
	return result
}

var (
	spaceRE = regexp.MustCompile(`\s+`)
	labelRE = regexp.MustCompile(`^[a-zA-Z]\w*(?:'+)?(?:\([^=+\-*/^]+\))?$`)
)

// stripAssignmentLabel removes a simple assignment-style label (f'(x)=, y=,
// a bare variable) from the front of an expression. "x+1=0" is an equation,
// not a label, and is left alone.
func stripAssignmentLabel(expr string) (string, bool) {
	expr = spaceRE.ReplaceAllString(expr, "")
	eq := strings.Index(expr, "=")
	if eq < 0 {
		return expr, false
	}
	left, right := expr[:eq], expr[eq+1:]
	if labelRE.MatchString(left) {
		return right, true
	}
	return expr, false
}

// expressions are matched in three stages: verbatim after whitespace
// removal, verbatim after assignment-label stripping, then the sample-point
// numeric fallback for algebraically equivalent forms.
func expressions(a, b api.NormalizedValue) api.Comparison {
	exprA := strings.TrimSpace(a.Text)
	exprB := strings.TrimSpace(b.Text)

	cleanA := spaceRE.ReplaceAllString(exprA, "")
	cleanB := spaceRE.ReplaceAllString(exprB, "")

	if cleanA == cleanB {
		return api.Comparison{
			IsMatch:     true,
			Confidence:  1.0,
			Category:    api.MatchExact,
			Explanation: fmt.Sprintf("expression match: %s", exprA),
		}
	}

	rhsA, strippedA := stripAssignmentLabel(exprA)
	rhsB, strippedB := stripAssignmentLabel(exprB)
	if (strippedA || strippedB) && rhsA == rhsB {
		return api.Comparison{
			IsMatch:     true,
			Confidence:  1.0,
			Category:    api.MatchEquivalent,
			Explanation: fmt.Sprintf("expression match after removing assignment label: %q", rhsA),
		}
	}

	if numericallyEquivalent(rhsA, rhsB) {
		return api.Comparison{
			IsMatch:     true,
			Confidence:  0.95,
			Category:    api.MatchEquivalent,
			Explanation: "expression match by numeric equivalence at sample points",
		}
	}

	return api.Comparison{
		IsMatch:     false,
		Confidence:  1.0,
		Category:    api.MatchNone,
		Explanation: fmt.Sprintf("expression mismatch: %q vs %q", exprA, exprB),
	}
}
