// Package extract locates the literal final answer inside a verbose model
// response. Strategies are tried strictly in priority order, each returning
// an optional result; the first hit wins and fixes the confidence score.
package extract

import (
	"regexp"
	"strings"

	"github.com/datar-psa/mathverify/api"
)

var (
	// FINAL_ANSWER: marker, either bare or leaking out of a LaTeX \text{}
	// wrapper. The wrapped variant must be tried first or the generic
	// pattern captures a stray closing brace.
	primaryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)\\text\{FINAL_ANSWER:\s*\}\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?im)FINAL_ANSWER:\s*(.+?)(?:\n|$)`),
	}

	secondaryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)Answer:\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?im)The answer is\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?im)Therefore[,:]?\s*(.+?)(?:\n|$)`),
	}

	simpleBoxedRE = regexp.MustCompile(`\\boxed\{([^}\n]+)\}`)

	lastCoordinateRE = regexp.MustCompile(`(?i)[a-z]\s*=\s*-?\d+\.?\d*`)
	lastFractionRE   = regexp.MustCompile(`-?\d+/-?\d+`)
	lastNumberRE     = regexp.MustCompile(`-?\d+\.?\d*`)

	leadingBraceRE = regexp.MustCompile(`^\}\s*`)
)

// Extract runs the prioritized strategies over a full response text.
// An empty or all-whitespace response yields MethodNone at confidence 0.
func Extract(response string) api.Extraction {
	if strings.TrimSpace(response) == "" {
		return api.Extraction{Method: api.MethodNone}
	}

	strategies := []struct {
		method     string
		confidence float64
		fn         func(string) (string, bool)
	}{
		{api.MethodPrimaryKeyword, 1.0, primaryKeyword},
		{api.MethodBoxedNotation, 0.8, boxedNotation},
		{api.MethodSecondaryKeyword, 0.6, secondaryKeyword},
		{api.MethodLastValue, 0.4, lastValue},
	}

	for _, s := range strategies {
		if answer, ok := s.fn(response); ok {
			return api.Extraction{
				Answer:     answer,
				Found:      true,
				Method:     s.method,
				Confidence: s.confidence,
			}
		}
	}

	return api.Extraction{Method: api.MethodNone}
}

// clean strips one layer of surrounding $...$ math delimiters and a stray
// leading closing brace left behind by \text{} leakage.
func clean(answer string) string {
	answer = strings.TrimSpace(answer)

	if len(answer) >= 2 && strings.HasPrefix(answer, "$") && strings.HasSuffix(answer, "$") {
		answer = strings.TrimSpace(answer[1 : len(answer)-1])
	}
	answer = leadingBraceRE.ReplaceAllString(answer, "")

	return strings.TrimSpace(answer)
}

func primaryKeyword(text string) (string, bool) {
	for _, re := range primaryPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if answer := clean(m[1]); answer != "" {
				return answer, true
			}
		}
	}
	return "", false
}

// boxedNotation extracts the contents of LaTeX \boxed{...}, tracking nested
// brace pairs. Models often restate a cleaner answer later, so the last
// complete box wins. An unbalanced box aborts the scan.
func boxedNotation(text string) (string, bool) {
	const marker = `\boxed{`

	var contents []string
	rest := text
	for {
		idx := strings.Index(rest, marker)
		if idx < 0 {
			break
		}
		body := rest[idx+len(marker):]

		depth := 1
		end := -1
		for i := 0; i < len(body); i++ {
			switch body[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					end = i
				}
			}
			if end >= 0 {
				break
			}
		}
		if end < 0 {
			// Unbalanced braces; stop scanning boxed sections.
			rest = ""
			break
		}
		if c := strings.TrimSpace(body[:end]); c != "" {
			contents = append(contents, c)
		}
		rest = body[end+1:]
	}

	if len(contents) > 0 {
		if answer := clean(contents[len(contents)-1]); answer != "" {
			return answer, true
		}
	}

	// Simple non-nested fallback.
	if ms := simpleBoxedRE.FindAllStringSubmatch(text, -1); ms != nil {
		if answer := clean(ms[len(ms)-1][1]); answer != "" {
			return answer, true
		}
	}

	return "", false
}

func secondaryKeyword(text string) (string, bool) {
	var all []string
	for _, re := range secondaryPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			all = append(all, m[1])
		}
	}
	if len(all) == 0 {
		return "", false
	}
	if answer := clean(all[len(all)-1]); answer != "" {
		return answer, true
	}
	return "", false
}

// lastValue is the lowest-confidence guess: the last labeled-coordinate
// token, else the last fraction, else the last bare number in the text.
func lastValue(text string) (string, bool) {
	for _, re := range []*regexp.Regexp{lastCoordinateRE, lastFractionRE, lastNumberRE} {
		if ms := re.FindAllString(text, -1); ms != nil {
			if answer := clean(ms[len(ms)-1]); answer != "" {
				return answer, true
			}
		}
	}
	return "", false
}
