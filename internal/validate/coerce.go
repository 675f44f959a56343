package validate

import (
	"strconv"
	"strings"
)

// CoercedKind names the GraphQL scalar a loosely-typed value was
// opportunistically coerced to.
type CoercedKind string

// Coercion target kinds.
const (
	CoercedInt     CoercedKind = "Int"
	CoercedFloat   CoercedKind = "Float"
	CoercedBoolean CoercedKind = "Boolean"
)

// CoerceToInteger accepts an integer-valued float64 or a string whose
// base-10 parseInt round-trips exactly back to that string; it rejects
// booleans and any other shape.
func CoerceToInteger(v any) (int64, bool) {
	switch x := v.(type) {
	case bool:
		return 0, false
	case float64:
		if x != float64(int64(x)) {
			return 0, false
		}
		return int64(x), true
	case int64:
		return x, true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, false
		}
		if strconv.FormatInt(n, 10) != x {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// CoerceToFloat accepts a finite float64 or a numeric string parseable
// as a float.
func CoerceToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case bool:
		return 0, false
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// CoerceToBoolean accepts a bool or the case-insensitive strings "true"
// and "false"; it rejects numbers.
func CoerceToBoolean(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(x) {
		case "true":
			return true, true
		case "false":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

// CoerceStringValue opportunistically detects that a string looks like a
// number or boolean. It reports the detected kind and a warning message
// to surface to the agent, or ("", "") if s should be left as a plain
// string.
func CoerceStringValue(s string) (kind CoercedKind, warning string) {
	intValue, intOK := CoerceToInteger(s)
	floatValue, floatOK := CoerceToFloat(s)
	if intOK {
		return CoercedInt, warningMessage(s, CoercedInt)
	}
	// A string like "42" already returned as Int above, so this branch
	// sees only strings int coercion rejected; any of them that parses as
	// a float ("4.2", "007", "1e3") is reported as Float.
	if floatOK && (!intOK || floatValue != float64(intValue)) {
		return CoercedFloat, warningMessage(s, CoercedFloat)
	}
	if _, ok := CoerceToBoolean(s); ok {
		return CoercedBoolean, warningMessage(s, CoercedBoolean)
	}
	return "", ""
}

func warningMessage(s string, kind CoercedKind) string {
	return "Value '" + s + "' looks like a " + string(kind) + ". Consider using set-typed-argument."
}
