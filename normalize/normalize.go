// Package normalize classifies raw answer strings into a closed set of
// answer kinds and converts them into typed, comparable values.
//
// Detection order matters: more specific shapes are tested before more
// general ones, because several surface forms are textually ambiguous (a
// thousands-separated integer must not be read as a range, an expression cue
// must pre-empt numeric detection).
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/datar-psa/mathverify/api"
)

var (
	coordDecimalRE  = regexp.MustCompile(`(?i)^([a-z])\s*=\s*(-?\d+\.?\d*)$`)
	coordFractionRE = regexp.MustCompile(`(?i)^([a-z])\s*=\s*(-?\d+)\s*/\s*(-?\d+)$`)
	scientificRE    = regexp.MustCompile(`^(\d+)\s*\*\s*10\^\(?(-?\d+)\)?$`)
	scientificCueRE = regexp.MustCompile(`^\d+\s*\*\s*10\^`)
	thousandsRE     = regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
	rangePairRE     = regexp.MustCompile(`^\d+,\s*\d+$`)
	latexFractionRE = regexp.MustCompile(`^([+-]?)\s*\\frac\s*\{(-?\d+)\}\s*\{(-?\d+)\}$`)
	fractionCueRE   = regexp.MustCompile(`^\(?\s*-?\d+\s*/\s*-?\d+\s*\)?$`)
	fractionRE      = regexp.MustCompile(`^(-?\d+)\s*/\s*(-?\d+)$`)
	decimalRE       = regexp.MustCompile(`^-?\d+\.\d+$`)
	integerRE       = regexp.MustCompile(`^-?\d+$`)
)

// textLabels are short non-numeric answers that look like identifiers but
// are graded as plain text.
var textLabels = map[string]bool{
	"rational":   true,
	"irrational": true,
	"r":          true,
	"i":          true,
}

// Detect classifies an answer string into an AnswerKind without converting
// it. Callers that also need the typed payload should use Normalize, which
// applies the Unicode pre-pass before detecting.
func Detect(text string) api.AnswerKind {
	text = stripWrappers(text)

	// Expression cues pre-empt everything: derivative/function notation,
	// an explicit constant of integration, or a multiplication dot.
	if strings.Contains(text, "f'(x)") || strings.Contains(text, "f(x)") ||
		strings.Contains(text, "+ C") || strings.Contains(text, "·") {
		return api.KindExpression
	}

	if coordDecimalRE.MatchString(text) || coordFractionRE.MatchString(text) {
		return api.KindCoordinate
	}

	if scientificCueRE.MatchString(text) {
		return api.KindScientific
	}

	// Thousands-separated numbers before ranges: "6,561" is one integer,
	// not the pair {6, 561}.
	if strings.Contains(text, ",") && thousandsRE.MatchString(text) {
		if strings.Contains(text, ".") {
			return api.KindDecimal
		}
		return api.KindInteger
	}

	if strings.Contains(text, " and ") || rangePairRE.MatchString(text) {
		return api.KindRange
	}

	if latexFractionRE.MatchString(text) || fractionCueRE.MatchString(text) {
		return api.KindFraction
	}

	if decimalRE.MatchString(text) {
		return api.KindDecimal
	}

	if integerRE.MatchString(text) {
		return api.KindInteger
	}

	if !strings.ContainsAny(text, "0123456789") {
		return api.KindText
	}

	if strings.IndexFunc(text, isLetter) >= 0 {
		if textLabels[strings.ToLower(text)] {
			return api.KindText
		}
		return api.KindExpression
	}

	return api.KindUnknown
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Normalize auto-detects the answer kind and converts the text into a typed
// value. Text that matches a kind pattern but fails to parse into that
// kind's payload comes back as KindUnknown with a diagnostic; it is never an
// error.
func Normalize(text string) api.NormalizedValue {
	original := text

	if strings.TrimSpace(text) == "" {
		return api.NormalizedValue{
			Kind:         api.KindUnknown,
			Text:         text,
			OriginalText: original,
			Diagnostic:   "empty text",
		}
	}

	text = stripWrappers(preprocess(text))

	switch kind := Detect(text); kind {
	case api.KindFraction:
		return normalizeFraction(text, original)
	case api.KindDecimal:
		return normalizeDecimal(text, original)
	case api.KindInteger:
		return normalizeInteger(text, original)
	case api.KindExpression:
		return normalizeExpression(text, original)
	case api.KindText:
		return api.NormalizedValue{
			Kind:         api.KindText,
			Text:         strings.ToLower(strings.TrimSpace(text)),
			OriginalText: original,
		}
	case api.KindRange:
		return normalizeRange(text, original)
	case api.KindScientific:
		return normalizeScientific(text, original)
	case api.KindCoordinate:
		return normalizeCoordinate(text, original)
	default:
		return api.NormalizedValue{
			Kind:         api.KindUnknown,
			Text:         text,
			OriginalText: original,
			Diagnostic:   "unrecognized answer shape",
		}
	}
}

func unknown(text, original, diagnostic string) api.NormalizedValue {
	return api.NormalizedValue{
		Kind:         api.KindUnknown,
		Text:         text,
		OriginalText: original,
		Diagnostic:   diagnostic,
	}
}

// normalizeFraction parses a signed numerator/denominator pair. The pair is
// deliberately left unreduced: reduction happens at comparison time so exact
// and equivalent matches stay distinguishable.
func normalizeFraction(text, original string) api.NormalizedValue {
	text = strings.TrimSpace(text)

	if m := latexFractionRE.FindStringSubmatch(text); m != nil {
		num, errN := strconv.ParseInt(m[2], 10, 64)
		den, errD := strconv.ParseInt(m[3], 10, 64)
		if errN != nil || errD != nil {
			return unknown(text, original, "could not parse fraction")
		}
		if m[1] == "-" {
			num = -num
		}
		return api.NormalizedValue{
			Kind:         api.KindFraction,
			Numerator:    num,
			Denominator:  den,
			OriginalText: original,
		}
	}

	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}

	m := fractionRE.FindStringSubmatch(text)
	if m == nil {
		return unknown(text, original, "could not parse fraction")
	}
	num, errN := strconv.ParseInt(m[1], 10, 64)
	den, errD := strconv.ParseInt(m[2], 10, 64)
	if errN != nil || errD != nil {
		return unknown(text, original, "could not parse fraction")
	}
	return api.NormalizedValue{
		Kind:         api.KindFraction,
		Numerator:    num,
		Denominator:  den,
		OriginalText: original,
	}
}

// normalizeDecimal parses a decimal and records its printed precision.
// A ".0"-suffixed token is an integer in disguise and normalizes as one.
func normalizeDecimal(text, original string) api.NormalizedValue {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")

	if strings.HasSuffix(text, ".0") {
		return normalizeInteger(strings.TrimSuffix(text, ".0"), original)
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return unknown(text, original, "could not parse decimal")
	}

	precision := 0
	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		precision = len(text) - dot - 1
	}

	return api.NormalizedValue{
		Kind:         api.KindDecimal,
		Float:        value,
		OriginalText: original,
		Precision:    precision,
		HasPrecision: true,
	}
}

func normalizeInteger(text, original string) api.NormalizedValue {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")

	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return unknown(text, original, "could not parse integer")
	}
	return api.NormalizedValue{
		Kind:         api.KindInteger,
		Int:          value,
		OriginalText: original,
	}
}

func normalizeRange(text, original string) api.NormalizedValue {
	text = strings.TrimSpace(text)

	var parts []string
	if strings.Contains(text, " and ") {
		parts = strings.Split(text, " and ")
	} else if strings.Contains(text, ",") {
		parts = strings.Split(text, ",")
	}
	if parts == nil {
		return unknown(text, original, "could not parse range")
	}

	members := make(map[int64]struct{}, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return unknown(text, original, "could not parse range")
		}
		members[v] = struct{}{}
	}

	return api.NormalizedValue{
		Kind:         api.KindRange,
		Members:      members,
		OriginalText: original,
	}
}

func normalizeScientific(text, original string) api.NormalizedValue {
	m := scientificRE.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return unknown(text, original, "could not parse scientific notation")
	}
	coef, errC := strconv.ParseInt(m[1], 10, 64)
	exp, errE := strconv.ParseInt(m[2], 10, 64)
	if errC != nil || errE != nil {
		return unknown(text, original, "could not parse scientific notation")
	}
	return api.NormalizedValue{
		Kind:         api.KindScientific,
		Coefficient:  coef,
		Exponent:     exp,
		OriginalText: original,
	}
}

// normalizeCoordinate parses "x = 1.67" or "x = 1/2". Fraction values are
// converted to a float with a fixed 2-digit precision so coordinate-vs-
// decimal tolerance is the same regardless of which side used fraction
// notation.
func normalizeCoordinate(text, original string) api.NormalizedValue {
	text = strings.TrimSpace(text)

	if m := coordDecimalRE.FindStringSubmatch(text); m != nil {
		value, err := strconv.ParseFloat(m[2], 64)
		if err == nil {
			precision := 0
			if dot := strings.IndexByte(m[2], '.'); dot >= 0 {
				precision = len(m[2]) - dot - 1
			}
			return api.NormalizedValue{
				Kind:         api.KindCoordinate,
				Variable:     strings.ToLower(m[1]),
				Float:        value,
				OriginalText: original,
				Precision:    precision,
				HasPrecision: true,
			}
		}
	}

	if m := coordFractionRE.FindStringSubmatch(text); m != nil {
		num, errN := strconv.ParseInt(m[2], 10, 64)
		den, errD := strconv.ParseInt(m[3], 10, 64)
		if errN == nil && errD == nil && den != 0 {
			return api.NormalizedValue{
				Kind:         api.KindCoordinate,
				Variable:     strings.ToLower(m[1]),
				Float:        float64(num) / float64(den),
				OriginalText: original,
				Precision:    2,
				HasPrecision: true,
			}
		}
	}

	return unknown(text, original, "could not parse coordinate")
}

var (
	latexFracAnyRE  = regexp.MustCompile(`\\frac\s*\{([^{}]+)\}\s*\{([^{}]+)\}`)
	latexFuncRE     = regexp.MustCompile(`\\(sin|cos|tan|sec|csc|cot|ln|log|exp)\b`)
	equalsSpacingRE = regexp.MustCompile(`\s*=\s*`)
	powerOneMidRE   = regexp.MustCompile(`([^0-9])x\^1([^0-9])`)
	powerOneEndRE   = regexp.MustCompile(`([^0-9])x\^1$`)
	polyTermRE      = regexp.MustCompile(`[+-]?\s*(?:\d*x(?:\^\d+)?|\d+)`)
	termExponentRE  = regexp.MustCompile(`x\^(\d+)`)
)

// normalizeExpression canonicalizes notation aliases and, for simple labeled
// polynomial sums, reorders additive terms by descending exponent so term
// order cannot cause a false mismatch. Anything containing grouping,
// multiplication, or division is left untouched; reordering is unsafe there.
func normalizeExpression(text, original string) api.NormalizedValue {
	text = strings.TrimSpace(text)
	text = rewriteSuperscripts(text)

	text = latexFracAnyRE.ReplaceAllString(text, "($1/$2)")
	text = strings.ReplaceAll(text, `\cdot`, "·")
	text = strings.ReplaceAll(text, `\times`, "·")
	text = strings.ReplaceAll(text, `\left`, "")
	text = strings.ReplaceAll(text, `\right`, "")
	text = strings.ReplaceAll(text, `\,`, "")
	text = latexFuncRE.ReplaceAllString(text, "$1")
	text = rewriteRadicals(text)

	text = equalsSpacingRE.ReplaceAllString(text, " = ")

	// x^1 is x when it stands alone as a term.
	text = powerOneMidRE.ReplaceAllString(text, "${1}x${2}")
	text = powerOneEndRE.ReplaceAllString(text, "${1}x")

	if strings.Contains(text, "f'(x)") || strings.Contains(text, "f(x)") {
		text = sortPolynomialTerms(text)
	}

	return api.NormalizedValue{
		Kind:         api.KindExpression,
		Text:         text,
		OriginalText: original,
	}
}

// sortPolynomialTerms reorders the right-hand side of a labeled equation when
// it is a plain polynomial sum. The coverage is deliberately narrow: any
// grouping, multiplication, or division on the right side leaves the text
// unchanged rather than risking a corrupting rewrite.
func sortPolynomialTerms(text string) string {
	eq := strings.Index(text, "=")
	if eq < 0 {
		return text
	}
	left := strings.TrimSpace(text[:eq])
	right := strings.TrimSpace(text[eq+1:])

	if strings.ContainsAny(right, "()*/") || strings.Contains(right, "·") {
		return text
	}

	terms := polyTermRE.FindAllString(right, -1)
	if len(terms) == 0 {
		return text
	}

	// The terms must tile the whole right side or reordering would drop
	// whatever fell between them.
	var joined strings.Builder
	for _, t := range terms {
		joined.WriteString(strings.ReplaceAll(t, " ", ""))
	}
	if joined.String() != strings.ReplaceAll(right, " ", "") {
		return text
	}

	sort.SliceStable(terms, func(i, j int) bool {
		return termExponent(terms[i]) > termExponent(terms[j])
	})

	cleaned := make([]string, len(terms))
	for i, t := range terms {
		cleaned[i] = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "+"))
	}
	sorted := strings.Join(cleaned, " + ")
	sorted = strings.ReplaceAll(sorted, "+ -", "- ")

	return fmt.Sprintf("%s = %s", left, sorted)
}

func termExponent(term string) int {
	if m := termExponentRE.FindStringSubmatch(term); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n
		}
	}
	if strings.Contains(term, "x") {
		return 1
	}
	return 0
}
