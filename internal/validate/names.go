package validate

import (
	"encoding/json"
	"regexp"
	"strconv"
	"unicode/utf8"

	"querysculptor/internal/apperr"
)

// nameRE is the GraphQL Name grammar production, shared by operation
// names, fragment names, variable names (without their leading "$"), and
// field aliases.
var nameRE = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// IsValidGraphQLName reports whether s is a syntactically valid GraphQL
// name.
func IsValidGraphQLName(s string) bool {
	return nameRE.MatchString(s)
}

// ValidateOperationName rejects a malformed operation name.
func ValidateOperationName(name string) *apperr.Error {
	if !IsValidGraphQLName(name) {
		return apperr.Newf(apperr.Validation, "Invalid operation name '%s'.", name)
	}
	return nil
}

// ValidateVariableName rejects a variable name that does not begin "$" or
// whose remainder is not a valid GraphQL name.
func ValidateVariableName(name string) *apperr.Error {
	if len(name) < 2 || name[0] != '$' {
		return apperr.Newf(apperr.Validation, "Variable name '%s' must start with '$'.", name)
	}
	if !IsValidGraphQLName(name[1:]) {
		return apperr.Newf(apperr.Validation, "Invalid variable name '%s'.", name)
	}
	return nil
}

// ValidateFieldAlias rejects a malformed field alias.
func ValidateFieldAlias(alias string) *apperr.Error {
	if !IsValidGraphQLName(alias) {
		return apperr.Newf(apperr.Validation, "Invalid field alias '%s'.", alias)
	}
	return nil
}

const maxStringLength = 8192

// ValidateStringLength rejects a string longer than 8192 characters.
func ValidateStringLength(value, name string) *apperr.Error {
	if utf8.RuneCountInString(value) > maxStringLength {
		return apperr.Newf(apperr.Limit, "%s exceeds maximum length of %d characters.", name, maxStringLength)
	}
	return nil
}

// ValidateNoControlCharacters rejects a string containing a Unicode C0 or
// C1 control character.
func ValidateNoControlCharacters(value, name string) *apperr.Error {
	for _, r := range value {
		if (r >= 0x0000 && r <= 0x001F) || (r >= 0x007F && r <= 0x009F) {
			return apperr.Newf(apperr.Validation, "%s contains a control character.", name)
		}
	}
	return nil
}

const (
	maxInputBlobDepth    = 10
	maxInputBlobElements = 1000
)

// ValidateInputBlob decodes raw as a generic JSON value and rejects it if
// any string leaf exceeds the maximum length or contains a control
// character, if the value nests deeper than maxInputBlobDepth, or if it
// contains more than maxInputBlobElements array items and object members
// combined. A raw value that fails to decode is left to whatever
// type-shape check runs next; this function only bounds values that do
// decode.
func ValidateInputBlob(raw json.RawMessage, name string) *apperr.Error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	count := 0
	return validateBlobValue(v, name, 1, &count)
}

func validateBlobValue(v any, name string, depth int, count *int) *apperr.Error {
	switch val := v.(type) {
	case string:
		if err := ValidateStringLength(val, name); err != nil {
			return err
		}
		return ValidateNoControlCharacters(val, name)
	case []any:
		if depth > maxInputBlobDepth {
			return apperr.Newf(apperr.Limit, "%s nesting depth exceeds maximum of %d.", name, maxInputBlobDepth)
		}
		for _, elem := range val {
			*count++
			if *count > maxInputBlobElements {
				return apperr.Newf(apperr.Limit, "%s exceeds maximum element count of %d.", name, maxInputBlobElements)
			}
			if err := validateBlobValue(elem, name, depth+1, count); err != nil {
				return err
			}
		}
	case map[string]any:
		if depth > maxInputBlobDepth {
			return apperr.Newf(apperr.Limit, "%s nesting depth exceeds maximum of %d.", name, maxInputBlobDepth)
		}
		for _, elem := range val {
			*count++
			if *count > maxInputBlobElements {
				return apperr.Newf(apperr.Limit, "%s exceeds maximum element count of %d.", name, maxInputBlobElements)
			}
			if err := validateBlobValue(elem, name, depth+1, count); err != nil {
				return err
			}
		}
	}
	return nil
}

// paginationArgNames are the argument names whose numeric value is
// interpreted as a page size and capped.
var paginationArgNames = map[string]bool{
	"first": true,
	"last":  true,
	"limit": true,
	"top":   true,
	"count": true,
}

const maxPaginationValue = 500

// IsPaginationArg reports whether argName is treated as a pagination
// size argument.
func IsPaginationArg(argName string) bool {
	return paginationArgNames[argName]
}

// ValidatePaginationValue rejects a pagination-style argument whose
// numeric value exceeds 500.
func ValidatePaginationValue(argName string, n float64) *apperr.Error {
	if !IsPaginationArg(argName) {
		return nil
	}
	if n > maxPaginationValue {
		return apperr.Newf(apperr.Limit, "Pagination value for '%s' (%s) exceeds maximum of %d.", argName, formatNumber(n), maxPaginationValue)
	}
	return nil
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
