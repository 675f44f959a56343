package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// SerializeGraphQLValue prints a generic JSON value using GraphQL value
// literal syntax: null, quoted strings (unless the string is a variable
// reference beginning "$", printed verbatim), Int/Float numeric literals,
// booleans, lists, and input-object literals. Anything that cannot be
// decoded falls back to its JSON text.
func SerializeGraphQLValue(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return serializeValue(v)
}

func serializeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case string:
		if strings.HasPrefix(x, "$") {
			return x
		}
		return quoteGraphQLString(x)
	case float64:
		return serializeNumber(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return string(x)
		}
		return serializeNumber(f)
	case []any:
		parts := make([]string, len(x))
		for i, elem := range x {
			parts[i] = serializeValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + serializeValue(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func serializeNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// quoteGraphQLString renders s as a GraphQL String literal, escaping the
// characters the String grammar requires.
func quoteGraphQLString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
