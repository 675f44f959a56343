package validate

import (
	"encoding/json"
	"strings"

	"querysculptor/internal/apperr"
	"querysculptor/internal/schema"
)

// ValidateFieldInSchema rejects a field name not present on parentType,
// suggesting the closest sibling field name by edit distance.
func ValidateFieldInSchema(parentType *schema.NamedType, fieldName string) *apperr.Error {
	if parentType.Field(fieldName) != nil {
		return nil
	}
	err := apperr.Newf(apperr.Schema, "Field '%s' not found on type '%s'.", fieldName, parentType.Name)
	if suggestion := Suggest(fieldName, parentType.FieldNames()); suggestion != "" {
		return err.WithSuggestion(DidYouMean(suggestion))
	}
	return err
}

const maxListedArguments = 5

// ValidateArgumentInSchema rejects an argument name not declared on
// fieldDef, suggesting the closest declared argument name, or listing up
// to 5 available argument names when no close match exists.
func ValidateArgumentInSchema(fieldDef *schema.Field, argName, path string) *apperr.Error {
	if fieldDef.Arg(argName) != nil {
		return nil
	}
	err := apperr.Newf(apperr.Schema, "Argument '%s' not found on field '%s'.", argName, fieldDef.Name).WithPath(path)
	names := fieldDef.ArgNames()
	if len(names) == 0 {
		return err.WithSuggestion("This field does not accept any arguments.")
	}
	if suggestion := Suggest(argName, names); suggestion != "" {
		return err.WithSuggestion(DidYouMean(suggestion))
	}
	listed := names
	if len(listed) > maxListedArguments {
		listed = listed[:maxListedArguments]
	}
	return err.WithSuggestion("Available arguments: " + strings.Join(listed, ", ") + ".")
}

// ValidateValueAgainstType checks a generic JSON value against a schema
// type reference, unwrapping non-null and list wrappers and dispatching
// scalar coercion for the innermost named type. It returns an error
// message, or "" if the value is acceptable.
func ValidateValueAgainstType(raw json.RawMessage, typ *schema.TypeRef) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "Value is not valid JSON."
	}
	return validateValue(v, typ)
}

func validateValue(v any, typ *schema.TypeRef) string {
	if typ == nil {
		return ""
	}
	if typ.Kind == schema.NonNull {
		if v == nil {
			return "Value must not be null."
		}
		return validateValue(v, typ.OfType)
	}
	if v == nil {
		return ""
	}
	if typ.Kind == schema.List {
		list, ok := v.([]any)
		if !ok {
			// Per the single-element-list coercion rule, a bare value
			// is treated as a one-element list.
			list = []any{v}
		}
		for _, elem := range list {
			if msg := validateValue(elem, typ.OfType); msg != "" {
				return msg
			}
		}
		return ""
	}
	switch typ.Name {
	case "String":
		if _, ok := v.(string); !ok {
			return "Expected a String value."
		}
		return ""
	case "ID":
		switch v.(type) {
		case string, float64:
			return ""
		default:
			return "Expected an ID (string or number) value."
		}
	case "Int":
		if _, ok := CoerceToInteger(v); !ok {
			return "Expected an Int value."
		}
		return ""
	case "Float":
		if _, ok := CoerceToFloat(v); !ok {
			return "Expected a Float value."
		}
		return ""
	case "Boolean":
		if _, ok := CoerceToBoolean(v); !ok {
			return "Expected a Boolean value."
		}
		return ""
	default:
		return ""
	}
}

// ValidateRequiredArguments resolves the single field at fieldPath
// against the schema and returns a non-fatal warning for each of its
// non-null, default-less arguments missing from argNames.
func ValidateRequiredArguments(s *schema.Schema, rootTypeName string, fieldPath string, argNames map[string]bool) []string {
	field, err := lookupField(s, rootTypeName, fieldPath)
	if err != nil || field == nil {
		return nil
	}
	var warnings []string
	for _, arg := range field.Args {
		if arg.Type.Kind != schema.NonNull || arg.DefaultValue != nil {
			continue
		}
		if !argNames[arg.Name] {
			warnings = append(warnings, "Field '"+fieldPath+"' is missing required argument '"+arg.Name+"'.")
		}
	}
	return warnings
}

func lookupField(s *schema.Schema, rootTypeName, fieldPath string) (*schema.Field, error) {
	typ := s.Type(rootTypeName)
	if typ == nil {
		return nil, apperr.Newf(apperr.Schema, "Unknown type '%s'.", rootTypeName)
	}
	segs := strings.Split(fieldPath, ".")
	var field *schema.Field
	for i, seg := range segs {
		field = typ.Field(seg)
		if field == nil {
			return nil, apperr.Newf(apperr.Schema, "Field '%s' not found on type '%s'.", seg, typ.Name)
		}
		if i < len(segs)-1 {
			typ = s.Type(field.Type.Unwrap().Name)
			if typ == nil {
				return nil, apperr.Newf(apperr.Internal, "Type for field '%s' has no composite definition.", seg)
			}
		}
	}
	return field, nil
}

// GetArgumentType is a schema-library-agnostic wrapper mirroring the
// design notes' getArgumentType(path, argName) helper, so validator call
// sites never reach into schema internals directly.
func GetArgumentType(s *schema.Schema, rootTypeName, fieldPath, argName string) (*schema.TypeRef, error) {
	return s.GetArgumentType(rootTypeName, fieldPath, argName)
}
