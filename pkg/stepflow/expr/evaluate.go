// Package expr evaluates the small boolean condition language used by
// Branch nodes. It deliberately stays tiny: comparisons, and/or/not, and
// truthiness checks over the variable environment. Anything richer belongs
// in the workflow author's own nodes.
package expr

import (
	"fmt"
	"strings"
)

// Eval evaluates a condition against vars.
//
// Supported forms:
//
//	flag                      truthiness of a variable
//	age >= 18                 comparison (==, !=, <, >, <=, >=, contains)
//	name == "Alice"           quoted literals, numbers, true/false/null
//	a == 1 and b == 2         boolean combinators: and, or, not, !
func Eval(condition string, vars map[string]any) (bool, error) {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return false, fmt.Errorf("empty condition")
	}
	return eval(condition, vars)
}

func eval(cond string, vars map[string]any) (bool, error) {
	cond = strings.TrimSpace(cond)

	if rest, ok := strings.CutPrefix(cond, "not "); ok {
		v, err := eval(rest, vars)
		return !v, err
	}
	if rest, ok := strings.CutPrefix(cond, "!"); ok && !strings.HasPrefix(rest, "=") {
		v, err := eval(rest, vars)
		return !v, err
	}

	// Combinators bind looser than comparisons; split left-to-right.
	if left, right, ok := strings.Cut(cond, " and "); ok {
		l, err := eval(left, vars)
		if err != nil {
			return false, err
		}
		if !l {
			return false, nil
		}
		return eval(right, vars)
	}
	if left, right, ok := strings.Cut(cond, " or "); ok {
		l, err := eval(left, vars)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return eval(right, vars)
	}

	// Comparison operators, longest first so "<=" wins over "<".
	for _, op := range []string{"==", "!=", "<=", ">=", "<", ">", " contains "} {
		if left, right, ok := strings.Cut(cond, op); ok {
			return compare(Resolve(left, vars), Resolve(right, vars), strings.TrimSpace(op))
		}
	}

	// Bare term: truthiness of a variable or literal. An unquoted name
	// with no binding is false, not the name itself.
	v := Resolve(cond, vars)
	if s, ok := v.(string); ok && s == cond {
		if _, bound := vars[cond]; !bound {
			return false, nil
		}
	}
	return IsTruthy(v), nil
}
