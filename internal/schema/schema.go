// Package schema holds a typed representation of an upstream GraphQL
// schema, built once from a standard introspection response and cached for
// the life of the process.
package schema

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"
)

// Kind is one of the eight introspection type kinds.
// https://graphql.github.io/graphql-spec/June2018/#sec-Schema-Introspection
type Kind string

// Introspection type kinds.
const (
	Scalar      Kind = "SCALAR"
	Object      Kind = "OBJECT"
	Interface   Kind = "INTERFACE"
	Union       Kind = "UNION"
	Enum        Kind = "ENUM"
	InputObject Kind = "INPUT_OBJECT"
	List        Kind = "LIST"
	NonNull     Kind = "NON_NULL"
)

// TypeRef is a possibly-wrapped reference to a named type: a named type, a
// list of some TypeRef, or a non-null wrapping of some TypeRef.
type TypeRef struct {
	Kind   Kind
	Name   string
	OfType *TypeRef
}

// String renders the type reference using GraphQL type syntax, e.g.
// "[Int!]!".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case NonNull:
		return t.OfType.String() + "!"
	case List:
		return "[" + t.OfType.String() + "]"
	default:
		return t.Name
	}
}

// IsNullable reports whether the type reference permits null at its
// outermost level.
func (t *TypeRef) IsNullable() bool {
	return t == nil || t.Kind != NonNull
}

// Unwrap strips NON_NULL and LIST wrappers, returning the innermost named
// type.
func (t *TypeRef) Unwrap() *TypeRef {
	for t != nil && (t.Kind == NonNull || t.Kind == List) {
		t = t.OfType
	}
	return t
}

// ListDepth returns how many LIST wrappers (ignoring intervening NON_NULL)
// enclose the named type.
func (t *TypeRef) ListDepth() int {
	depth := 0
	for t != nil {
		switch t.Kind {
		case NonNull:
			t = t.OfType
		case List:
			depth++
			t = t.OfType
		default:
			return depth
		}
	}
	return depth
}

// InputValue is a named, typed input: an argument or an input object field.
type InputValue struct {
	Name         string
	Type         *TypeRef
	DefaultValue *string
}

// Field is an output field of an object or interface type.
type Field struct {
	Name string
	Args []*InputValue
	Type *TypeRef
}

// Arg returns the field's argument with the given name, or nil.
func (f *Field) Arg(name string) *InputValue {
	if f == nil {
		return nil
	}
	for _, a := range f.Args {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// ArgNames returns the names of all of the field's arguments, in
// declaration order.
func (f *Field) ArgNames() []string {
	if f == nil {
		return nil
	}
	names := make([]string, len(f.Args))
	for i, a := range f.Args {
		names[i] = a.Name
	}
	return names
}

// EnumValue is a single permitted symbol of an enum type.
type EnumValue struct {
	Name string
}

// NamedType is a single entry from the schema's type list.
type NamedType struct {
	Kind          Kind
	Name          string
	Fields        []*Field
	InputFields   []*InputValue
	EnumValues    []*EnumValue
	PossibleTypes []string
}

// Field returns the named field on this type, or nil if it has no such
// field (or is not a composite type).
func (t *NamedType) Field(name string) *Field {
	if t == nil {
		return nil
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// InputField returns the named input field on this input object type, or
// nil.
func (t *NamedType) InputField(name string) *InputValue {
	if t == nil {
		return nil
	}
	for _, f := range t.InputFields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldNames returns the names of all selectable fields on this type, in
// schema declaration order.
func (t *NamedType) FieldNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// HasEnumValue reports whether sym is one of this enum type's symbols.
func (t *NamedType) HasEnumValue(sym string) bool {
	if t == nil {
		return false
	}
	for _, v := range t.EnumValues {
		if v.Name == sym {
			return true
		}
	}
	return false
}

// IsComposite reports whether selections may be taken on this type, i.e. it
// is an object, interface, or union.
func (t *NamedType) IsComposite() bool {
	return t != nil && (t.Kind == Object || t.Kind == Interface || t.Kind == Union)
}

// Schema is the typed form of an upstream's introspection response.
type Schema struct {
	QueryTypeName        string
	MutationTypeName      string
	SubscriptionTypeName  string
	Types                 map[string]*NamedType
	Raw                   []byte // the raw introspection JSON, retained verbatim
	Endpoint              string // the endpoint this schema was fetched from
}

// RootType returns the object type backing the given operation type
// ("query", "mutation", or "subscription"), or nil if the schema does not
// support that operation.
func (s *Schema) RootType(operationType string) *NamedType {
	switch operationType {
	case "query":
		return s.Types[s.QueryTypeName]
	case "mutation":
		return s.Types[s.MutationTypeName]
	case "subscription":
		return s.Types[s.SubscriptionTypeName]
	default:
		return nil
	}
}

// Type looks up a named type by name.
func (s *Schema) Type(name string) *NamedType {
	if s == nil {
		return nil
	}
	return s.Types[name]
}

// GetFields returns the selectable fields of the named type, or an error if
// the type does not exist or does not carry fields.
func (s *Schema) GetFields(typeName string) ([]*Field, error) {
	t := s.Type(typeName)
	if t == nil {
		return nil, xerrors.Errorf("schema: unknown type %q", typeName)
	}
	if !t.IsComposite() {
		return nil, xerrors.Errorf("schema: type %q has no fields", typeName)
	}
	return t.Fields, nil
}

// GetArgumentType navigates a dotted field path from the given root type,
// following each segment's field type (unwrapped to its named form) to
// reach the next segment, and returns the named argument's type on the
// terminal field.
//
// An empty path denotes the root type itself, which has no argument to
// resolve, so GetArgumentType returns an error in that case; callers
// resolve arguments on fields, never on types.
func (s *Schema) GetArgumentType(rootType, fieldPath, argName string) (*TypeRef, error) {
	typ := s.Type(rootType)
	if typ == nil {
		return nil, xerrors.Errorf("schema: unknown type %q", rootType)
	}
	segments := strings.Split(fieldPath, ".")
	if fieldPath == "" {
		segments = nil
	}
	if len(segments) == 0 {
		return nil, xerrors.New("schema: empty field path has no argument")
	}
	var field *Field
	for i, seg := range segments {
		field = typ.Field(seg)
		if field == nil {
			return nil, xerrors.Errorf("schema: field %q not found on type %q", seg, typ.Name)
		}
		if i < len(segments)-1 {
			typ = s.Type(field.Type.Unwrap().Name)
			if typ == nil {
				return nil, xerrors.Errorf("schema: field %q has no composite type to navigate into", seg)
			}
		}
	}
	arg := field.Arg(argName)
	if arg == nil {
		return nil, nil
	}
	return arg.Type, nil
}

// String implements fmt.Stringer for diagnostics.
func (s *Schema) String() string {
	return fmt.Sprintf("schema(query=%s, mutation=%s, types=%d)", s.QueryTypeName, s.MutationTypeName, len(s.Types))
}
