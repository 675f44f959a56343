package querystate

import (
	"encoding/json"

	"golang.org/x/xerrors"
)

// ArgValue is the tagged-union argument value described by the data
// model: exactly one of a variable reference, an enum member, an
// explicitly typed literal, a pre-quoted literal (renderer-internal
// only), or a generic JSON value. The wire encoding sniffs the value's
// shape rather than carrying a separate discriminant byte, but the
// variants are kept as named fields instead of a single interface{}
// slot so the "exactly one set" invariant is visible at the type level.
type ArgValue struct {
	Variable  string          // non-empty: a "$name"-less variable reference
	Enum      string          // non-empty: a bare enum member symbol
	Typed     *TypedValue     // non-nil: an explicitly typed literal
	PreQuoted string          // non-empty: renderer-internal, bypasses quoting
	Raw       json.RawMessage // generic JSON scalar/null/object/list
}

// TypedValue is an argument value whose GraphQL type was resolved from
// the schema at set-argument time, so the renderer can print it with
// scalar-aware literal syntax instead of falling back to generic
// serialization.
type TypedValue struct {
	Value    json.RawMessage
	TypeName string
}

// ArgKind names which of ArgValue's variants is populated.
type ArgKind int

// Kinds of ArgValue.
const (
	KindRaw ArgKind = iota
	KindVariable
	KindEnum
	KindTyped
	KindPreQuoted
)

// Kind reports which variant a is.
func (a *ArgValue) Kind() ArgKind {
	switch {
	case a == nil:
		return KindRaw
	case a.Variable != "":
		return KindVariable
	case a.Enum != "":
		return KindEnum
	case a.Typed != nil:
		return KindTyped
	case a.PreQuoted != "":
		return KindPreQuoted
	default:
		return KindRaw
	}
}

// NewVariableArg builds the is_variable variant. name must not carry a
// leading "$"; render prefixes it.
func NewVariableArg(name string) *ArgValue {
	return &ArgValue{Variable: name}
}

// NewEnumArg builds the is_enum variant.
func NewEnumArg(symbol string) *ArgValue {
	return &ArgValue{Enum: symbol}
}

// NewTypedArg builds the is_typed variant, carrying the schema-resolved
// type name alongside the raw JSON literal.
func NewTypedArg(value json.RawMessage, typeName string) *ArgValue {
	return &ArgValue{Typed: &TypedValue{Value: value, TypeName: typeName}}
}

// NewRawArg builds the generic variant.
func NewRawArg(value json.RawMessage) *ArgValue {
	return &ArgValue{Raw: value}
}

// NewPreQuotedArg builds the renderer-internal variant for a value that
// has already been quoted: text is emitted into the document verbatim.
func NewPreQuotedArg(text string) *ArgValue {
	return &ArgValue{PreQuoted: text}
}

// ParseShorthand recognizes the plain-string-with-leading-"$" shorthand
// for a variable reference and, if it matches, returns the normalized
// variant; otherwise it returns nil to signal that the caller should
// treat raw as a generic value.
func ParseShorthand(raw json.RawMessage) *ArgValue {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if len(s) < 2 || s[0] != '$' {
		return nil
	}
	return NewVariableArg(s[1:])
}

type argValueWire struct {
	IsVariable bool            `json:"is_variable,omitempty"`
	IsEnum     bool            `json:"is_enum,omitempty"`
	IsTyped    bool            `json:"is_typed,omitempty"`
	TypeName   string          `json:"typeName,omitempty"`
	Value      json.RawMessage `json:"value"`
}

// MarshalJSON renders ArgValue using the tagged-variant shapes from the
// data model; PreQuoted has no wire shape (it is renderer-internal) and
// marshals as its generic counterpart.
func (a *ArgValue) MarshalJSON() ([]byte, error) {
	switch a.Kind() {
	case KindVariable:
		v, err := json.Marshal("$" + a.Variable)
		if err != nil {
			return nil, err
		}
		return json.Marshal(argValueWire{IsVariable: true, Value: v})
	case KindEnum:
		v, err := json.Marshal(a.Enum)
		if err != nil {
			return nil, err
		}
		return json.Marshal(argValueWire{IsEnum: true, Value: v})
	case KindTyped:
		return json.Marshal(argValueWire{IsTyped: true, TypeName: a.Typed.TypeName, Value: a.Typed.Value})
	case KindPreQuoted:
		v, err := json.Marshal(a.PreQuoted)
		if err != nil {
			return nil, err
		}
		return json.Marshal(argValueWire{Value: v})
	default:
		raw := a.Raw
		if raw == nil {
			raw = json.RawMessage("null")
		}
		return json.Marshal(argValueWire{Value: raw})
	}
}

// UnmarshalJSON parses any of the tagged-variant shapes, or a bare JSON
// scalar/object/list (the generic variant written without the wrapper
// object), by sniffing the first non-space byte: a tagged variant is
// always a JSON object, so anything else is the generic case.
func (a *ArgValue) UnmarshalJSON(data []byte) error {
	trimmed := trimLeadingSpace(data)
	if len(trimmed) == 0 {
		return xerrors.New("querystate: empty argument value")
	}
	if trimmed[0] != '{' {
		*a = ArgValue{Raw: append(json.RawMessage{}, data...)}
		return nil
	}
	var wire argValueWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return xerrors.Errorf("querystate: decode argument value: %w", err)
	}
	switch {
	case wire.IsVariable:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return xerrors.Errorf("querystate: variable argument value must be a string: %w", err)
		}
		if len(s) > 0 && s[0] == '$' {
			s = s[1:]
		}
		*a = ArgValue{Variable: s}
	case wire.IsEnum:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return xerrors.Errorf("querystate: enum argument value must be a string: %w", err)
		}
		*a = ArgValue{Enum: s}
	case wire.IsTyped:
		*a = ArgValue{Typed: &TypedValue{Value: append(json.RawMessage{}, wire.Value...), TypeName: wire.TypeName}}
	default:
		if wire.Value == nil {
			*a = ArgValue{Raw: append(json.RawMessage{}, data...)}
			return nil
		}
		*a = ArgValue{Raw: append(json.RawMessage{}, wire.Value...)}
	}
	return nil
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}
