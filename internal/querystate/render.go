package querystate

import (
	"sort"
	"strings"

	"querysculptor/internal/validate"
)

const indentUnit = "  "

// Render deterministically serializes state into GraphQL document text,
// following the seven rendering rules: document header, variable
// definitions, operation directives, the selection set (with aliases,
// arguments, field directives, fragment spreads, and inline fragments),
// and trailing fragment definitions. It returns "" only when the state
// has nothing to render at all.
func Render(s *QueryState) string {
	if isEmptyState(s) {
		return ""
	}
	var b strings.Builder
	b.WriteString(s.OperationType)
	varDefs := renderVariableDefinitions(s)
	switch {
	case s.OperationName != "":
		b.WriteByte(' ')
		b.WriteString(s.OperationName)
	case varDefs != "":
		// No operation name, but variable definitions still need a
		// separator from the bare operation keyword.
		b.WriteByte(' ')
	}
	if varDefs != "" {
		b.WriteByte('(')
		b.WriteString(varDefs)
		b.WriteByte(')')
	}
	for _, d := range s.OperationDirectives {
		b.WriteByte(' ')
		b.WriteString(renderDirective(d))
	}
	b.WriteString(" {\n")
	renderSelectionSet(&b, s.QueryStructure, 1)
	b.WriteString("}")
	for _, name := range sortedFragmentNames(s.Fragments) {
		frag := s.Fragments[name]
		b.WriteString("\n\nfragment ")
		b.WriteString(name)
		b.WriteString(" on ")
		b.WriteString(frag.OnType)
		b.WriteString(" {\n")
		renderFields(&b, frag.Fields, 1)
		b.WriteString("}")
	}
	return strings.TrimRight(b.String(), " \t\n")
}

func isEmptyState(s *QueryState) bool {
	if s == nil {
		return true
	}
	root := s.QueryStructure
	hasRootContent := root != nil && (root.Fields.Len() > 0 ||
		len(root.FragmentSpreads) > 0 || len(root.InlineFragments) > 0)
	return !hasRootContent && len(s.Fragments) == 0
}

func renderVariableDefinitions(s *QueryState) string {
	keys := s.VariablesSchema.Keys()
	if len(keys) == 0 {
		return ""
	}
	parts := make([]string, len(keys))
	for i, key := range keys {
		typ, _ := s.VariablesSchema.get(key)
		name := strings.TrimPrefix(key, "$")
		def := "$" + name + ": " + typ
		if dflt, ok := s.VariablesDefaults[key]; ok {
			def += " = " + dflt
		}
		parts[i] = def
	}
	return strings.Join(parts, ", ")
}

func renderDirective(d *Directive) string {
	var b strings.Builder
	b.WriteByte('@')
	b.WriteString(d.Name)
	if len(d.Arguments) > 0 {
		b.WriteByte('(')
		parts := make([]string, len(d.Arguments))
		for i, arg := range d.Arguments {
			parts[i] = arg.Name + ": " + renderArgValue(arg.Value)
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteByte(')')
	}
	return b.String()
}

func renderArgValue(a *ArgValue) string {
	switch a.Kind() {
	case KindVariable:
		return "$" + a.Variable
	case KindEnum:
		return a.Enum
	case KindTyped:
		return validate.SerializeGraphQLValue(a.Typed.Value)
	case KindPreQuoted:
		return a.PreQuoted
	default:
		return validate.SerializeGraphQLValue(a.Raw)
	}
}

func renderSelectionSet(b *strings.Builder, node *FieldNode, depth int) {
	renderFields(b, node.Fields, depth)
	indent := strings.Repeat(indentUnit, depth)
	for _, name := range node.FragmentSpreads {
		b.WriteString(indent)
		b.WriteString("...")
		b.WriteString(name)
		b.WriteString("\n")
	}
	for _, inline := range node.InlineFragments {
		b.WriteString(indent)
		b.WriteString("... on ")
		b.WriteString(inline.OnType)
		b.WriteString(" {\n")
		renderFields(b, inline.Selections, depth+1)
		b.WriteString(indent)
		b.WriteString("}\n")
	}
}

func renderFields(b *strings.Builder, fields *orderedFieldMap, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	for _, field := range fields.Values() {
		b.WriteString(indent)
		if field.Alias != "" {
			b.WriteString(field.Alias)
			b.WriteString(": ")
		}
		b.WriteString(field.FieldName)
		if field.Args.Len() > 0 {
			b.WriteByte('(')
			parts := make([]string, 0, field.Args.Len())
			for _, key := range field.Args.Keys() {
				v, _ := field.Args.get(key)
				parts = append(parts, key+": "+renderArgValue(v))
			}
			b.WriteString(strings.Join(parts, ", "))
			b.WriteByte(')')
		}
		for _, d := range field.Directives {
			b.WriteByte(' ')
			b.WriteString(renderDirective(d))
		}
		hasChildren := field.Fields.Len() > 0 || len(field.FragmentSpreads) > 0 || len(field.InlineFragments) > 0
		if hasChildren {
			b.WriteString(" {\n")
			renderSelectionSet(b, field, depth+1)
			b.WriteString(indent)
			b.WriteString("}")
		}
		b.WriteString("\n")
	}
}

func sortedFragmentNames(fragments map[string]*Fragment) []string {
	// Fragment definitions have no inherent ordering in the data model
	// (a plain map keyed by name), so rendering sorts by name for
	// determinism across repeated renders of the same state.
	names := make([]string, 0, len(fragments))
	for name := range fragments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

