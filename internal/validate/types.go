package validate

import (
	"strings"

	"querysculptor/internal/apperr"
	"querysculptor/internal/gqlang"
)

var builtinScalars = map[string]bool{
	"Int":     true,
	"Float":   true,
	"String":  true,
	"Boolean": true,
	"ID":      true,
}

// commonTypeMistakes maps a frequently-typed-wrong type spelling to the
// scalar name it probably meant.
var commonTypeMistakes = map[string]string{
	"integer": "Int",
	"int":     "Int",
	"bool":    "Boolean",
	"string":  "String",
	"str":     "String",
	"number":  "Int",
	"float":   "Float",
	"double":  "Float",
	"id":      "ID",
}

// stripTypeWrappers removes any combination of trailing "!" and
// surrounding "[...]" list wrappers, returning the innermost named type.
func stripTypeWrappers(typeString string) string {
	s := strings.TrimSpace(typeString)
	for {
		s = strings.TrimSuffix(s, "!")
		if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
			s = s[1 : len(s)-1]
			continue
		}
		break
	}
	return strings.TrimSuffix(s, "!")
}

func maxBracketDepth(typeString string) int {
	depth, max := 0, 0
	for _, r := range typeString {
		switch r {
		case '[':
			depth++
			if depth > max {
				max = depth
			}
		case ']':
			depth--
		}
	}
	return max
}

// probeParse checks that typeString can appear as a variable's declared
// type by parsing a throwaway operation that declares it.
func probeParse(typeString string) bool {
	src := "query Test($v: " + typeString + ") { __typename }"
	_, errs := gqlang.Parse(src)
	return len(errs) == 0
}

// ValidateVariableType rejects an empty type string, a list nesting
// depth beyond 5, a named type that is a common non-GraphQL spelling of
// a builtin scalar (flagged with a suggestion even though it would
// otherwise parse as a syntactically valid, if nonexistent, named
// type), or a type string that fails to parse as a variable
// declaration.
func ValidateVariableType(typeString string) *apperr.Error {
	if strings.TrimSpace(typeString) == "" {
		return apperr.New(apperr.Validation, "Variable type must not be empty.")
	}
	if maxBracketDepth(typeString) > 5 {
		return apperr.Newf(apperr.Validation, "Variable type %q nests lists too deeply (max 5).", typeString)
	}
	return ValidateGraphQLType(typeString)
}

// ValidateGraphQLType recognizes the five built-in scalar names (after
// stripping "!" and "[...]" wrappers) as always valid. A base name
// matching the common-mistake table is always rejected with a
// suggestion, even though names like "integer" are syntactically valid
// GraphQL type references on their own (the grammar can't tell a typo
// from a real custom scalar); anything else falls back to a probe
// parse.
func ValidateGraphQLType(typeString string) *apperr.Error {
	base := stripTypeWrappers(typeString)
	if builtinScalars[base] {
		return nil
	}
	if suggestion, ok := commonTypeMistakes[strings.ToLower(base)]; ok {
		return apperr.Newf(apperr.Validation, "Invalid type '%s'.", base).WithSuggestion(DidYouMean(suggestion))
	}
	if probeParse(typeString) {
		return nil
	}
	return apperr.Newf(apperr.Validation, "Invalid type '%s'.", base)
}
