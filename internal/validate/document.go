package validate

import (
	"querysculptor/internal/apperr"
	"querysculptor/internal/gqlang"
	"querysculptor/internal/schema"
)

// ValidateQuerySyntax parses src and returns one structured error per
// parse failure; a nil result means src parsed cleanly.
func ValidateQuerySyntax(src string) []*apperr.Error {
	_, errs := gqlang.Parse(src)
	if len(errs) == 0 {
		return nil
	}
	out := make([]*apperr.Error, len(errs))
	for i, e := range errs {
		out[i] = apperr.Newf(apperr.Validation, "Syntax error: %s", e.Error())
	}
	return out
}

// ValidateAgainstSchema parses src and, if it parses, validates every
// operation's selections against sch: field existence, argument
// existence, duplicate arguments, declared-variable references, fragment
// spread resolution, and inline-fragment type conditions. It does not
// check argument values against their declared types, nor a named
// fragment's type condition. It does not repeat structural checks (duplicate
// selection keys, name syntax) already enforced at mutation time by the
// query-state model. The second return value holds non-fatal warnings,
// currently just missing-required-argument coverage notices.
func ValidateAgainstSchema(src string, sch *schema.Schema) ([]*apperr.Error, []string) {
	doc, errs := gqlang.Parse(src)
	if len(errs) > 0 {
		out := make([]*apperr.Error, len(errs))
		for i, e := range errs {
			out[i] = apperr.Newf(apperr.Validation, "Syntax error: %s", e.Error())
		}
		return out, nil
	}
	v := &docValidator{sch: sch, fragments: map[string]*gqlang.FragmentDefinition{}}
	for _, defn := range doc.Definitions {
		if defn.Fragment != nil {
			v.fragments[defn.Fragment.Name.Value] = defn.Fragment
		}
	}
	var out []*apperr.Error
	for _, defn := range doc.Definitions {
		if defn.Operation == nil {
			continue
		}
		rootName := rootTypeName(sch, defn.Operation.Type)
		v.rootTypeName = rootName
		v.declaredVars = declaredVariableNames(defn.Operation.VariableDefinitions)
		out = append(out, v.validateSelectionSet(defn.Operation.SelectionSet, rootName, "", map[string]bool{})...)
	}
	return out, v.warnings
}

// declaredVariableNames collects the "$"-prefixed variable names an
// operation declares, so argument and directive values referencing an
// undeclared variable can be caught at validate time rather than
// surfacing as an opaque upstream error.
func declaredVariableNames(defs *gqlang.VariableDefinitions) map[string]bool {
	out := map[string]bool{}
	if defs == nil {
		return out
	}
	for _, d := range defs.Defs {
		out["$"+d.Var.Name.Value] = true
	}
	return out
}

func rootTypeName(sch *schema.Schema, opType gqlang.OperationType) string {
	switch opType {
	case gqlang.Mutation:
		return sch.MutationTypeName
	case gqlang.Subscription:
		return sch.SubscriptionTypeName
	default:
		return sch.QueryTypeName
	}
}

type docValidator struct {
	sch          *schema.Schema
	fragments    map[string]*gqlang.FragmentDefinition
	rootTypeName string
	declaredVars map[string]bool
	warnings     []string
}

// checkArguments reports a Validation error for every argument value
// (including values nested inside lists and input objects) that
// references a variable outside declaredVars.
func (v *docValidator) checkArguments(args *gqlang.Arguments) []*apperr.Error {
	if args == nil {
		return nil
	}
	var out []*apperr.Error
	for _, arg := range args.Args {
		out = append(out, v.checkInputValue(arg.Value)...)
	}
	return out
}

func (v *docValidator) checkInputValue(val *gqlang.InputValue) []*apperr.Error {
	if val == nil {
		return nil
	}
	switch {
	case val.VariableRef != nil:
		name := "$" + val.VariableRef.Name.Value
		if !v.declaredVars[name] {
			return []*apperr.Error{apperr.Newf(apperr.Validation, "Variable '%s' is not defined.", name)}
		}
	case val.List != nil:
		var out []*apperr.Error
		for _, elem := range val.List.Values {
			out = append(out, v.checkInputValue(elem)...)
		}
		return out
	case val.InputObject != nil:
		var out []*apperr.Error
		for _, f := range val.InputObject.Fields {
			out = append(out, v.checkInputValue(f.Value)...)
		}
		return out
	}
	return nil
}

// checkDirectives applies checkArguments to every directive in dirs.
func (v *docValidator) checkDirectives(dirs gqlang.Directives) []*apperr.Error {
	var out []*apperr.Error
	for _, d := range dirs {
		out = append(out, v.checkArguments(d.Arguments)...)
	}
	return out
}

// visiting guards fragment-spread recursion so a cycle produces a single
// structured error instead of infinite recursion. path is the
// dot-separated field path from the operation root, used to report
// required-argument warnings against the same addressing scheme as
// GetArgumentType; it is not extended across a fragment boundary, since
// ValidateRequiredArguments resolves paths against the schema's type
// graph rather than the document's fragment structure.
func (v *docValidator) validateSelectionSet(set *gqlang.SelectionSet, typeName, path string, visiting map[string]bool) []*apperr.Error {
	if set == nil {
		return nil
	}
	typ := v.sch.Type(typeName)
	var out []*apperr.Error
	for _, sel := range set.Sel {
		switch {
		case sel.Field != nil:
			out = append(out, v.validateField(sel.Field, typ, path, visiting)...)
		case sel.FragmentSpread != nil:
			out = append(out, v.validateFragmentSpread(sel.FragmentSpread, visiting)...)
		case sel.InlineFragment != nil:
			out = append(out, v.validateInlineFragment(sel.InlineFragment, path, visiting)...)
		}
	}
	return out
}

func (v *docValidator) validateField(f *gqlang.Field, parentType *schema.NamedType, parentPath string, visiting map[string]bool) []*apperr.Error {
	if parentType == nil {
		return nil
	}
	if f.Name.Value == "__typename" {
		return nil
	}
	fieldDef := parentType.Field(f.Name.Value)
	if fieldDef == nil {
		err := apperr.Newf(apperr.Schema, "Field '%s' not found on type '%s'.", f.Name.Value, parentType.Name)
		if suggestion := Suggest(f.Name.Value, parentType.FieldNames()); suggestion != "" {
			err = err.WithSuggestion(DidYouMean(suggestion))
		}
		return []*apperr.Error{err}
	}
	path := f.Name.Value
	if parentPath != "" {
		path = parentPath + "." + path
	}
	var out []*apperr.Error
	seen := map[string]bool{}
	if f.Arguments != nil {
		for _, arg := range f.Arguments.Args {
			if seen[arg.Name.Value] {
				out = append(out, apperr.Newf(apperr.Validation, "Multiple values for argument '%s'.", arg.Name.Value))
				continue
			}
			seen[arg.Name.Value] = true
			if fieldDef.Arg(arg.Name.Value) == nil {
				out = append(out, ValidateArgumentInSchema(fieldDef, arg.Name.Value, f.Name.Value))
			}
		}
		out = append(out, v.checkArguments(f.Arguments)...)
	}
	out = append(out, v.checkDirectives(f.Directives)...)
	v.warnings = append(v.warnings, ValidateRequiredArguments(v.sch, v.rootTypeName, path, seen)...)
	childType := fieldDef.Type.Unwrap().Name
	if f.SelectionSet != nil {
		out = append(out, v.validateSelectionSet(f.SelectionSet, childType, path, visiting)...)
	}
	return out
}

func (v *docValidator) validateFragmentSpread(spread *gqlang.FragmentSpread, visiting map[string]bool) []*apperr.Error {
	name := spread.Name.Value
	if visiting[name] {
		return []*apperr.Error{apperr.Newf(apperr.Validation, "Fragment '%s' is self-referential.", name)}
	}
	def, ok := v.fragments[name]
	if !ok {
		return []*apperr.Error{apperr.Newf(apperr.Schema, "Fragment '%s' is not defined.", name)}
	}
	visiting[name] = true
	defer delete(visiting, name)
	out := v.checkDirectives(spread.Directives)
	return append(out, v.validateSelectionSet(def.SelectionSet, def.Type.Name.Value, "", visiting)...)
}

func (v *docValidator) validateInlineFragment(frag *gqlang.InlineFragment, path string, visiting map[string]bool) []*apperr.Error {
	typeName := frag.Type.Name.Value
	if v.sch.Type(typeName) == nil {
		return []*apperr.Error{apperr.Newf(apperr.Schema, "Type '%s' not found in schema.", typeName)}
	}
	out := v.checkDirectives(frag.Directives)
	return append(out, v.validateSelectionSet(frag.SelectionSet, typeName, path, visiting)...)
}
