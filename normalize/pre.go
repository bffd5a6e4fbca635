package normalize

import (
	"regexp"
	"strings"
)

// superscripts maps Unicode superscript runes to their ASCII digits.
var superscripts = map[rune]rune{
	'⁰': '0',
	'¹': '1',
	'²': '2',
	'³': '3',
	'⁴': '4',
	'⁵': '5',
	'⁶': '6',
	'⁷': '7',
	'⁸': '8',
	'⁹': '9',
	'⁻': '-',
}

var (
	latexSqrtRE   = regexp.MustCompile(`\\sqrt\s*\{([^}]+)\}`)
	radicalTermRE = regexp.MustCompile(`√\(([^)]+)\)`)
	radicalWordRE = regexp.MustCompile(`√(\w+)`)
	bareSqrtRE    = regexp.MustCompile(`\bsqrt\s*\(`)
	digitSqrtRE   = regexp.MustCompile(`(\d)(SQRT)`)
	innerParenRE  = regexp.MustCompile(`^[^()]+$`)
)

// rewriteSuperscripts converts Unicode superscript runs into ^-style
// exponents: x³ -> x^3, 10⁻⁸ -> 10^-8. A run only counts when it follows a
// letter, digit, or closing parenthesis; stray superscripts pass through.
func rewriteSuperscripts(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		_, isSuper := superscripts[runes[i]]
		if !isSuper || i == 0 || !isSuperscriptBase(runes[i-1]) {
			b.WriteRune(runes[i])
			continue
		}
		b.WriteByte('^')
		for i < len(runes) {
			ascii, ok := superscripts[runes[i]]
			if !ok {
				i--
				break
			}
			b.WriteRune(ascii)
			i++
		}
	}
	return b.String()
}

func isSuperscriptBase(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ')':
		return true
	}
	_, isSuper := superscripts[r]
	return isSuper
}

// rewriteRadicals normalizes radical notation to the canonical SQRT(...)
// spelling: \sqrt{3}, √(3), √3, sqrt(3) all become SQRT(3), and implicit
// multiplication is made explicit (4SQRT -> 4*SQRT).
func rewriteRadicals(text string) string {
	text = latexSqrtRE.ReplaceAllString(text, "SQRT($1)")
	text = radicalTermRE.ReplaceAllString(text, "SQRT($1)")
	text = radicalWordRE.ReplaceAllString(text, "SQRT($1)")
	text = bareSqrtRE.ReplaceAllString(text, "SQRT(")
	text = digitSqrtRE.ReplaceAllString(text, "$1*$2")
	return text
}

// preprocess rewrites Unicode math notation into one canonical ASCII surface
// form so detection and numeric evaluation see a single spelling.
func preprocess(text string) string {
	text = strings.ReplaceAll(text, "×", "*")
	text = strings.ReplaceAll(text, "⋅", "*")
	text = rewriteSuperscripts(text)
	text = rewriteRadicals(text)
	return text
}

// stripWrappers removes one layer of common math delimiters surrounding the
// whole value: $...$, \(...\), \[...\], {...}, and (...) when the inner text
// has no parentheses of its own.
func stripWrappers(text string) string {
	text = strings.TrimSpace(text)

	if len(text) >= 2 && strings.HasPrefix(text, "$") && strings.HasSuffix(text, "$") {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	if len(text) >= 4 && strings.HasPrefix(text, `\(`) && strings.HasSuffix(text, `\)`) {
		text = strings.TrimSpace(text[2 : len(text)-2])
	}
	if len(text) >= 4 && strings.HasPrefix(text, `\[`) && strings.HasSuffix(text, `\]`) {
		text = strings.TrimSpace(text[2 : len(text)-2])
	}

	if len(text) >= 2 && strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	if len(text) >= 2 && strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		inner := strings.TrimSpace(text[1 : len(text)-1])
		if innerParenRE.MatchString(inner) {
			text = inner
		}
	}

	return strings.TrimSpace(text)
}
