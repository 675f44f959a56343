// Package querystate holds the in-memory representation of a GraphQL
// operation under construction, the invariants that every tool-driven
// mutation must preserve, and the deterministic renderer that turns a
// QueryState into document text.
package querystate

import (
	"time"

	"golang.org/x/xerrors"
)

// Session is a server-held workspace identified by a 32-hex-character
// random id, wrapping a single QueryState.
type Session struct {
	ID    string     `json:"id"`
	State *QueryState `json:"state"`
}

// QueryState is the full, serializable description of an operation under
// construction. Every field is required by the wire contract, though maps
// and lists may be empty.
type QueryState struct {
	Headers           map[string]string    `json:"headers"`
	OperationType     string                `json:"operationType"`
	OperationTypeName string                `json:"operationTypeName"`
	OperationName     string                `json:"operationName"`
	QueryStructure    *FieldNode            `json:"queryStructure"`
	Fragments         map[string]*Fragment  `json:"fragments"`
	VariablesSchema   *orderedStringMap     `json:"variablesSchema"`
	VariablesDefaults map[string]string     `json:"variablesDefaults"`
	VariablesValues   map[string]any        `json:"variablesValues"`
	OperationDirectives []*Directive        `json:"operationDirectives"`
	CreatedAt         string                `json:"createdAt"`

	// SchemaEndpoint and SchemaFingerprint are diagnostics-only: they
	// identify which cached schema this state was built against. Neither
	// participates in cache invalidation.
	SchemaEndpoint    string `json:"schemaEndpoint,omitempty"`
	SchemaFingerprint string `json:"schemaFingerprint,omitempty"`
}

// Fragment is a named, reusable selection set bound to a type condition.
type Fragment struct {
	OnType string               `json:"onType"`
	Fields *orderedFieldMap     `json:"fields"`
}

// FieldNode is one selected field: its own name/alias/args/directives, and
// its own nested selection (child fields, fragment spreads, inline
// fragments).
type FieldNode struct {
	FieldName       string            `json:"fieldName"`
	Alias           string            `json:"alias,omitempty"`
	Args            *orderedArgMap    `json:"args"`
	Directives      []*Directive      `json:"directives"`
	Fields          *orderedFieldMap  `json:"fields"`
	FragmentSpreads []string          `json:"fragmentSpreads"`
	InlineFragments []*InlineFragment `json:"inlineFragments"`
}

// SelectionKey is the name a field is addressed by within its parent's
// selection set: its alias if present, otherwise its field name.
func (f *FieldNode) SelectionKey() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.FieldName
}

// Directive is a `@name(arg: val, ...)` annotation attached to a field,
// fragment, inline fragment, or the operation itself.
type Directive struct {
	Name      string              `json:"name"`
	Arguments []*DirectiveArgument `json:"arguments"`
}

// DirectiveArgument is a single named argument of a Directive.
type DirectiveArgument struct {
	Name  string    `json:"name"`
	Value *ArgValue `json:"value"`
}

// InlineFragment is a type-conditioned `... on Type { ... }` selection.
type InlineFragment struct {
	OnType     string           `json:"on_type"`
	Selections *orderedFieldMap `json:"selections"`
}

// NewInlineFragment builds an inline fragment on onType with an empty,
// non-nil selection set ready for InsertField-style population.
func NewInlineFragment(onType string) *InlineFragment {
	return &InlineFragment{OnType: onType, Selections: newOrderedFieldMap()}
}

// NewQueryState builds an empty state for the given operation, with an
// empty root selection set on the supplied root type name.
func NewQueryState(operationType, operationTypeName string, headers map[string]string) *QueryState {
	if headers == nil {
		headers = map[string]string{}
	}
	return &QueryState{
		Headers:             headers,
		OperationType:       operationType,
		OperationTypeName:   operationTypeName,
		QueryStructure:      newFieldNode("", ""),
		Fragments:           map[string]*Fragment{},
		VariablesSchema:     newOrderedStringMap(),
		VariablesDefaults:   map[string]string{},
		VariablesValues:     map[string]any{},
		OperationDirectives: nil,
		CreatedAt:           time.Now().UTC().Format(time.RFC3339),
	}
}

func newFieldNode(fieldName, alias string) *FieldNode {
	return &FieldNode{
		FieldName: fieldName,
		Alias:     alias,
		Args:      newOrderedArgMap(),
		Fields:    newOrderedFieldMap(),
	}
}

// IsOperationType reports whether s names one of the three operation
// kinds query/mutation/subscription.
func IsOperationType(s string) bool {
	switch s {
	case "query", "mutation", "subscription":
		return true
	default:
		return false
	}
}

var errPathNotFound = xerrors.New("querystate: path not found")

// ResolvePath walks a dotted selection-key path from the root selection
// set and returns the FieldNode it addresses. An empty path returns the
// synthetic root node, whose own Fields member is the top-level selection
// set.
func (s *QueryState) ResolvePath(path string) (*FieldNode, error) {
	node := s.QueryStructure
	if path == "" {
		return node, nil
	}
	for _, seg := range splitPath(path) {
		child, ok := node.Fields.get(seg)
		if !ok {
			return nil, xerrors.Errorf("querystate: resolve path %q: %w", path, errPathNotFound)
		}
		node = child
	}
	return node, nil
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	var segs []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	segs = append(segs, path[start:])
	return segs
}

// InsertField adds a new child FieldNode to the selection set addressed
// by parentPath, returning an error if the selection key is already
// taken by a sibling.
func (s *QueryState) InsertField(parentPath, fieldName, alias string) (*FieldNode, error) {
	parent, err := s.ResolvePath(parentPath)
	if err != nil {
		return nil, err
	}
	key := alias
	if key == "" {
		key = fieldName
	}
	if _, exists := parent.Fields.get(key); exists {
		return nil, xerrors.Errorf("querystate: duplicate selection key %q", key)
	}
	node := newFieldNode(fieldName, alias)
	parent.Fields.set(key, node)
	return node, nil
}

// RemoveField deletes the FieldNode (and its subtree) addressed by path,
// reporting an error if no such path exists.
func (s *QueryState) RemoveField(path string) error {
	if path == "" {
		return xerrors.New("querystate: cannot remove root selection set")
	}
	segs := splitPath(path)
	parentPath := ""
	if len(segs) > 1 {
		parentPath = joinPath(segs[:len(segs)-1])
	}
	parent, err := s.ResolvePath(parentPath)
	if err != nil {
		return err
	}
	key := segs[len(segs)-1]
	if !parent.Fields.delete(key) {
		return xerrors.Errorf("querystate: remove field: %w", errPathNotFound)
	}
	return nil
}

func joinPath(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "."
		}
		out += s
	}
	return out
}
