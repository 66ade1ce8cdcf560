package expr

import (
	"fmt"
	"strings"
)

// compare applies op to two resolved values. Equality uses string forms so
// "1" == 1 holds across YAML/JSON decoding differences; ordering uses
// numeric coercion.
func compare(left, right any, op string) (bool, error) {
	switch op {
	case "==":
		return stringForm(left) == stringForm(right), nil
	case "!=":
		return stringForm(left) != stringForm(right), nil
	case "<":
		return toFloat(left) < toFloat(right), nil
	case ">":
		return toFloat(left) > toFloat(right), nil
	case "<=":
		return toFloat(left) <= toFloat(right), nil
	case ">=":
		return toFloat(left) >= toFloat(right), nil
	case "contains":
		return strings.Contains(stringForm(left), stringForm(right)), nil
	default:
		return false, fmt.Errorf("unknown operator: %s", op)
	}
}

func stringForm(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
