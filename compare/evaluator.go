package compare

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// The numeric-equivalence fallback evaluates residual expressions itself
// with a small recursive-descent evaluator over a deliberately minimal
// grammar: the four arithmetic operators, parentheses, exponentiation,
// decimal literals, and single-letter variables. Input containing anything
// outside that alphabet is rejected before parsing; model output is never
// handed to a general-purpose expression-execution facility.

var (
	safeAlphabetRE = regexp.MustCompile(`^[0-9a-zA-Z+\-*/().^]+$`)
	whitespaceRE   = regexp.MustCompile(`\s+`)

	implicitBeforeParenRE = regexp.MustCompile(`([0-9a-zA-Z)])\(`)
	implicitBeforeVarRE   = regexp.MustCompile(`([0-9)])([a-zA-Z])`)
	implicitBeforeNumRE   = regexp.MustCompile(`([a-zA-Z)])([0-9])`)
)

// toEvaluable rewrites a residual expression into evaluator input: notation
// aliases collapsed, whitespace removed, sign runs folded, implicit
// multiplication made explicit. Returns ok=false when the text contains
// characters outside the safe alphabet.
func toEvaluable(expr string) (string, bool) {
	replacer := strings.NewReplacer(
		"·", "*",
		"⋅", "*",
		"×", "*",
		"−", "-",
	)
	expr = replacer.Replace(expr)
	expr = whitespaceRE.ReplaceAllString(expr, "")

	for strings.Contains(expr, "+-") || strings.Contains(expr, "--") || strings.Contains(expr, "-+") {
		expr = strings.ReplaceAll(expr, "+-", "-")
		expr = strings.ReplaceAll(expr, "--", "+")
		expr = strings.ReplaceAll(expr, "-+", "-")
	}

	if expr == "" || !safeAlphabetRE.MatchString(expr) {
		return "", false
	}

	expr = implicitBeforeParenRE.ReplaceAllString(expr, "$1*(")
	expr = implicitBeforeVarRE.ReplaceAllString(expr, "$1*$2")
	expr = implicitBeforeNumRE.ReplaceAllString(expr, "$1*$2")

	return expr, true
}

// variables returns the set of single-letter names appearing in an evaluable
// expression. The fallback assumes one shared free variable: the same sample
// value is substituted for every name.
func variables(exprs ...string) []string {
	seen := make(map[byte]bool)
	var out []string
	for _, expr := range exprs {
		for i := 0; i < len(expr); i++ {
			c := expr[i]
			if (c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') && !seen[c] {
				seen[c] = true
				out = append(out, string(c))
			}
		}
	}
	return out
}

var errUnexpectedEnd = errors.New("unexpected end of expression")

// evaluator is a recursive-descent parser-evaluator over the safe grammar.
// It never panics; malformed input yields an error for that evaluation only.
type evaluator struct {
	expr string
	pos  int
	env  map[string]float64
}

func evaluate(expr string, env map[string]float64) (float64, error) {
	e := &evaluator{expr: expr, env: env}
	v, err := e.parseExpr()
	if err != nil {
		return 0, err
	}
	if e.pos != len(e.expr) {
		return 0, fmt.Errorf("unexpected %q at offset %d", e.expr[e.pos], e.pos)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("non-finite result")
	}
	return v, nil
}

func (e *evaluator) peek() (byte, bool) {
	if e.pos >= len(e.expr) {
		return 0, false
	}
	return e.expr[e.pos], true
}

// expr := term (('+'|'-') term)*
func (e *evaluator) parseExpr() (float64, error) {
	v, err := e.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		c, ok := e.peek()
		if !ok || (c != '+' && c != '-') {
			return v, nil
		}
		e.pos++
		rhs, err := e.parseTerm()
		if err != nil {
			return 0, err
		}
		if c == '+' {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

// term := unary (('*'|'/') unary)*
func (e *evaluator) parseTerm() (float64, error) {
	v, err := e.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		c, ok := e.peek()
		if !ok || (c != '*' && c != '/') {
			return v, nil
		}
		e.pos++
		rhs, err := e.parseUnary()
		if err != nil {
			return 0, err
		}
		if c == '*' {
			v *= rhs
		} else {
			if rhs == 0 {
				return 0, errors.New("division by zero")
			}
			v /= rhs
		}
	}
}

// unary := ('-'|'+')* power
func (e *evaluator) parseUnary() (float64, error) {
	neg := false
	for {
		c, ok := e.peek()
		if !ok {
			return 0, errUnexpectedEnd
		}
		if c == '-' {
			neg = !neg
			e.pos++
			continue
		}
		if c == '+' {
			e.pos++
			continue
		}
		break
	}
	v, err := e.parsePower()
	if err != nil {
		return 0, err
	}
	if neg {
		v = -v
	}
	return v, nil
}

// power := primary ('^' unary)?   (right-associative)
func (e *evaluator) parsePower() (float64, error) {
	base, err := e.parsePrimary()
	if err != nil {
		return 0, err
	}
	c, ok := e.peek()
	if !ok || c != '^' {
		return base, nil
	}
	e.pos++
	exp, err := e.parseUnary()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

// primary := number | variable | '(' expr ')'
func (e *evaluator) parsePrimary() (float64, error) {
	c, ok := e.peek()
	if !ok {
		return 0, errUnexpectedEnd
	}

	if c == '(' {
		e.pos++
		v, err := e.parseExpr()
		if err != nil {
			return 0, err
		}
		cl, ok := e.peek()
		if !ok || cl != ')' {
			return 0, errors.New("missing closing parenthesis")
		}
		e.pos++
		return v, nil
	}

	if c >= '0' && c <= '9' || c == '.' {
		start := e.pos
		for e.pos < len(e.expr) {
			c := e.expr[e.pos]
			if (c < '0' || c > '9') && c != '.' {
				break
			}
			e.pos++
		}
		v, err := strconv.ParseFloat(e.expr[start:e.pos], 64)
		if err != nil {
			return 0, fmt.Errorf("bad number %q", e.expr[start:e.pos])
		}
		return v, nil
	}

	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
		// Multi-letter runs are unknown names, not products: SQRT(3)
		// fails here exactly as it should.
		if e.pos+1 < len(e.expr) {
			n := e.expr[e.pos+1]
			if n >= 'a' && n <= 'z' || n >= 'A' && n <= 'Z' {
				return 0, fmt.Errorf("unknown identifier at offset %d", e.pos)
			}
		}
		name := string(c)
		v, ok := e.env[name]
		if !ok {
			return 0, fmt.Errorf("unbound variable %q", name)
		}
		e.pos++
		return v, nil
	}

	return 0, fmt.Errorf("unexpected %q at offset %d", c, e.pos)
}

// samplePoints are the fixed, non-trivial probe values for the numeric
// equivalence check.
var samplePoints = [7]float64{-2.5, -1.7, -0.9, -0.3, 0.4, 1.1, 2.2}

// numericallyEquivalent reports whether two residual expressions agree at
// the sample points. Per-point evaluation failures are swallowed and only
// reduce the successful-evaluation count; at least three points must succeed
// and every successful pair must agree within a relative-plus-absolute
// tolerance.
func numericallyEquivalent(exprA, exprB string) bool {
	evalA, okA := toEvaluable(exprA)
	evalB, okB := toEvaluable(exprB)
	if !okA || !okB {
		return false
	}

	vars := variables(evalA, evalB)

	checked := 0
	for _, p := range samplePoints {
		env := make(map[string]float64, len(vars))
		for _, v := range vars {
			env[v] = p
		}

		a, errA := evaluate(evalA, env)
		if errA != nil {
			continue
		}
		b, errB := evaluate(evalB, env)
		if errB != nil {
			continue
		}

		checked++
		tol := math.Max(1e-8, 1e-6*math.Max(1.0, math.Max(math.Abs(a), math.Abs(b))))
		if math.Abs(a-b) > tol {
			return false
		}
	}

	return checked >= 3
}
