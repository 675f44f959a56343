// Package tools implements the named tool-dispatch contracts: thin
// shims over the query-state model, validator, schema cache, complexity
// analyzer, session store, and executor. Every exported function here
// corresponds to one entry in the tool surface; none of them reach for
// an ambient global — everything they need arrives through AppContext,
// per the no-ambient-globals design note.
package tools

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"

	"querysculptor/internal/apperr"
	"querysculptor/internal/config"
	"querysculptor/internal/executor"
	"querysculptor/internal/querystate"
	"querysculptor/internal/schema"
	"querysculptor/internal/store"
	"querysculptor/internal/validate"
)

// AppContext wires every component a tool handler needs. It is
// constructed once at process startup and passed explicitly into every
// handler, replacing the implicit singletons (schema cache, store,
// executor) a naive port would reach for as globals.
type AppContext struct {
	Schema   *schema.Cache
	Store    *store.Store
	Exec     *executor.Executor
	Config   *config.Config
	HTTPClient schema.HTTPClient

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewAppContext builds an AppContext from its components.
func NewAppContext(sch *schema.Cache, st *store.Store, exec *executor.Executor, cfg *config.Config, client schema.HTTPClient) *AppContext {
	return &AppContext{
		Schema:     sch,
		Store:      st,
		Exec:       exec,
		Config:     cfg,
		HTTPClient: client,
		locks:      map[string]*sync.Mutex{},
	}
}

// sessionLock returns the per-session mutex for id, creating it on first
// use. Concurrent tool calls for the same session serialize on this
// lock; different sessions proceed independently.
func (c *AppContext) sessionLock(id string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

// withSession loads id's state, holds its per-session lock for the
// duration of fn, and — if fn succeeds — persists whatever mutation fn
// made before releasing the lock.
func (c *AppContext) withSession(ctx context.Context, id string, fn func(*querystate.QueryState) (any, *apperr.Error, []string)) *Response {
	lock := c.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	state, err := c.Store.Load(ctx, id)
	if err != nil {
		return errorResponse(apperr.Newf(apperr.Session, "Session '%s' not found or expired.", id))
	}

	result, appErr, warnings := fn(state)
	if appErr != nil {
		return errorResponse(appErr)
	}
	if err := c.Store.Save(ctx, id, state); err != nil {
		return errorResponse(apperr.Newf(apperr.Store, "Failed to persist session: %v", err))
	}
	return &Response{OK: true, Result: result, Warnings: warnings}
}

// Response is the uniform shape every tool returns.
type Response struct {
	OK       bool            `json:"ok"`
	Result   any             `json:"result,omitempty"`
	Error    *apperr.Error   `json:"error,omitempty"`
	Errors   []*apperr.Error `json:"errors,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

func errorResponse(err *apperr.Error) *Response {
	return &Response{OK: false, Error: err}
}

func errorsResponse(errs []*apperr.Error) *Response {
	return &Response{OK: false, Errors: errs}
}

// newSessionID produces the 32-hex-character session id the data model
// requires: a v4 UUID with its hyphens stripped, following the same
// uuid.New().String() idiom used for request/trace ids across the
// example pack.
func newSessionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// StartSession creates a session for the given operation type, resolving
// its root type name from the cached schema.
func (c *AppContext) StartSession(ctx context.Context, headers map[string]string, operationType, operationName string) *Response {
	if !querystate.IsOperationType(operationType) {
		return errorResponse(apperr.Newf(apperr.Validation, "Unknown operation type '%s'.", operationType))
	}
	merged := config.MergeHeaders(c.Config.DefaultHeaders, headers)
	sch, err := c.Schema.Get(ctx, c.HTTPClient, c.Config.GraphQLEndpoint, merged)
	if err != nil {
		return errorResponse(apperr.Newf(apperr.Schema, "Could not load upstream schema: %v", err))
	}
	root := sch.RootType(operationType)
	if root == nil {
		return errorResponse(apperr.Newf(apperr.Schema, "Schema has no root type for operation '%s'.", operationType))
	}
	if operationName != "" {
		if verr := validate.ValidateOperationName(operationName); verr != nil {
			return errorResponse(verr)
		}
	}

	state := querystate.NewQueryState(operationType, root.Name, headers)
	state.OperationName = operationName
	state.SchemaEndpoint = c.Config.GraphQLEndpoint
	state.SchemaFingerprint = fingerprint(sch)

	id := newSessionID()
	if err := c.Store.Save(ctx, id, state); err != nil {
		return errorResponse(apperr.Newf(apperr.Store, "Failed to create session: %v", err))
	}
	return &Response{OK: true, Result: map[string]string{"sessionId": id}}
}

func fingerprint(sch *schema.Schema) string {
	names := sch.String()
	sum := 0
	for _, r := range names {
		sum = sum*31 + int(r)
	}
	return hex.EncodeToString([]byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)})
}

// SetOperationName validates and sets the session's operation name.
func (c *AppContext) SetOperationName(ctx context.Context, sessionID, name string) *Response {
	return c.withSession(ctx, sessionID, func(state *querystate.QueryState) (any, *apperr.Error, []string) {
		if err := validate.ValidateOperationName(name); err != nil {
			return nil, err, nil
		}
		state.OperationName = name
		return nil, nil, nil
	})
}

// SelectField inserts a new field at parentPath, validating that it
// exists on the parent type and that the resulting selection key is
// unique among its siblings.
func (c *AppContext) SelectField(ctx context.Context, sessionID, parentPath, fieldName, alias string) *Response {
	return c.withSession(ctx, sessionID, func(state *querystate.QueryState) (any, *apperr.Error, []string) {
		sch, schErr := c.Schema.Get(ctx, c.HTTPClient, c.Config.GraphQLEndpoint, state.Headers)
		if schErr != nil {
			return nil, apperr.Newf(apperr.Schema, "Could not load upstream schema: %v", schErr), nil
		}
		parentTypeName, err := resolveParentType(state, sch, parentPath)
		if err != nil {
			return nil, err, nil
		}
		parentType := sch.Type(parentTypeName)
		if verr := validate.ValidateFieldInSchema(parentType, fieldName); verr != nil {
			return nil, verr.WithPath(parentPath), nil
		}
		if alias != "" {
			if verr := validate.ValidateFieldAlias(alias); verr != nil {
				return nil, verr, nil
			}
		}
		if _, err := state.InsertField(parentPath, fieldName, alias); err != nil {
			return nil, apperr.Newf(apperr.Validation, "duplicate selection key: %v", err).WithPath(parentPath), nil
		}
		return nil, nil, nil
	})
}

// resolveParentType walks parentPath from the operation's root type,
// following each segment's field type to the next. Each segment is a
// selection key (alias or field name); the underlying field name, which
// may differ from the key, is read off the already-built FieldNode.
func resolveParentType(state *querystate.QueryState, sch *schema.Schema, parentPath string) (string, *apperr.Error) {
	typeName := state.OperationTypeName
	if parentPath == "" {
		return typeName, nil
	}
	node := state.QueryStructure
	typ := sch.Type(typeName)
	for _, seg := range splitDotted(parentPath) {
		child, ok := node.Fields.Get(seg)
		if !ok {
			return "", apperr.Newf(apperr.Validation, "Unknown path '%s'.", parentPath).WithPath(parentPath)
		}
		field := typ.Field(child.FieldName)
		if field == nil {
			return "", apperr.Newf(apperr.Schema, "Field '%s' not found on type '%s'.", child.FieldName, typ.Name).WithPath(parentPath)
		}
		typ = sch.Type(field.Type.Unwrap().Name)
		node = child
	}
	return typ.Name, nil
}

// SetArgument validates and sets an argument on a field, producing a
// LIMIT error on an out-of-range pagination value and an opportunistic
// coercion warning for ambiguous string literals.
func (c *AppContext) SetArgument(ctx context.Context, sessionID, fieldPath, argName string, raw json.RawMessage, isVariable, isEnum, isTyped bool) *Response {
	return c.withSession(ctx, sessionID, func(state *querystate.QueryState) (any, *apperr.Error, []string) {
		node, err := state.ResolvePath(fieldPath)
		if err != nil {
			return nil, apperr.Newf(apperr.Validation, "Unknown path '%s'.", fieldPath).WithPath(fieldPath), nil
		}
		sch, schErr := c.Schema.Get(ctx, c.HTTPClient, c.Config.GraphQLEndpoint, state.Headers)
		if schErr != nil {
			return nil, apperr.Newf(apperr.Schema, "Could not load upstream schema: %v", schErr), nil
		}
		parentTypeName, perr := resolveParentPathType(state, sch, fieldPath)
		if perr != nil {
			return nil, perr, nil
		}
		field := sch.Type(parentTypeName).Field(node.FieldName)
		if field == nil {
			return nil, apperr.Newf(apperr.Schema, "Field '%s' not found on type '%s'.", node.FieldName, parentTypeName).WithPath(fieldPath), nil
		}
		if verr := validate.ValidateArgumentInSchema(field, argName, fieldPath); verr != nil {
			return nil, verr, nil
		}
		if verr := validate.ValidateInputBlob(raw, argName); verr != nil {
			return nil, verr.WithPath(fieldPath), nil
		}

		var warnings []string
		var value *querystate.ArgValue
		switch {
		case isVariable:
			var name string
			_ = json.Unmarshal(raw, &name)
			if len(name) > 0 && name[0] == '$' {
				name = name[1:]
			}
			if _, ok := state.VariablesSchema.Get("$" + name); !ok {
				return nil, apperr.Newf(apperr.Validation, "Unknown variable '$%s'.", name).WithPath(fieldPath), nil
			}
			value = querystate.NewVariableArg(name)
		case isEnum:
			var sym string
			_ = json.Unmarshal(raw, &sym)
			value = querystate.NewEnumArg(sym)
		case isTyped:
			argType := field.Arg(argName).Type
			if msg := validate.ValidateValueAgainstType(raw, argType); msg != "" {
				return nil, apperr.New(apperr.Validation, msg).WithPath(fieldPath), nil
			}
			if n, ok := numericFromRaw(raw); ok {
				if verr := validate.ValidatePaginationValue(argName, n); verr != nil {
					return nil, verr.WithPath(fieldPath), nil
				}
			}
			value = querystate.NewTypedArg(raw, argType.Unwrap().Name)
		default:
			if shorthand := querystate.ParseShorthand(raw); shorthand != nil {
				if _, ok := state.VariablesSchema.Get("$" + shorthand.Variable); !ok {
					return nil, apperr.Newf(apperr.Validation, "Unknown variable '$%s'.", shorthand.Variable).WithPath(fieldPath), nil
				}
				value = shorthand
			} else {
				var s string
				if err := json.Unmarshal(raw, &s); err == nil {
					if kind, warn := validate.CoerceStringValue(s); kind != "" {
						warnings = append(warnings, warn)
					}
				}
				if n, ok := numericFromRaw(raw); ok {
					if verr := validate.ValidatePaginationValue(argName, n); verr != nil {
						return nil, verr.WithPath(fieldPath), nil
					}
				}
				value = querystate.NewRawArg(raw)
			}
		}
		node.Args.Set(argName, value)
		return nil, nil, warnings
	})
}

func resolveParentPathType(state *querystate.QueryState, sch *schema.Schema, fieldPath string) (string, *apperr.Error) {
	segs := splitDotted(fieldPath)
	if len(segs) == 0 {
		return "", apperr.New(apperr.Internal, "empty field path")
	}
	parentPath := joinDotted(segs[:len(segs)-1])
	return resolveParentType(state, sch, parentPath)
}

func splitDotted(path string) []string {
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
	return append(segs, path[start:])
}

func joinDotted(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "."
		}
		out += s
	}
	return out
}

func numericFromRaw(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

// SetVariable declares a variable's type and optional default.
func (c *AppContext) SetVariable(ctx context.Context, sessionID, varName, typeString string, defaultLiteral string, hasDefault bool) *Response {
	return c.withSession(ctx, sessionID, func(state *querystate.QueryState) (any, *apperr.Error, []string) {
		if err := validate.ValidateVariableName(varName); err != nil {
			return nil, err, nil
		}
		if err := validate.ValidateVariableType(typeString); err != nil {
			return nil, err, nil
		}
		state.VariablesSchema.Set(varName, typeString)
		if hasDefault {
			state.VariablesDefaults[varName] = defaultLiteral
		}
		return nil, nil, nil
	})
}

// SetVariableValue sets a declared variable's runtime value.
func (c *AppContext) SetVariableValue(ctx context.Context, sessionID, varName string, value json.RawMessage) *Response {
	return c.withSession(ctx, sessionID, func(state *querystate.QueryState) (any, *apperr.Error, []string) {
		if _, ok := state.VariablesSchema.Get(varName); !ok {
			return nil, apperr.Newf(apperr.Validation, "Unknown variable '%s'.", varName), nil
		}
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, apperr.Newf(apperr.Validation, "Invalid value for variable '%s'.", varName), nil
		}
		if verr := validate.ValidateInputBlob(value, varName); verr != nil {
			return nil, verr, nil
		}
		state.VariablesValues[varName] = v
		return nil, nil, nil
	})
}

// AddDirective appends a directive to the field at path, or to the
// operation itself when path is the literal string "operation".
func (c *AppContext) AddDirective(ctx context.Context, sessionID, path, name string, args []*querystate.DirectiveArgument) *Response {
	return c.withSession(ctx, sessionID, func(state *querystate.QueryState) (any, *apperr.Error, []string) {
		if !validate.IsValidGraphQLName(name) {
			return nil, apperr.Newf(apperr.Validation, "Invalid directive name '%s'.", name), nil
		}
		d := &querystate.Directive{Name: name, Arguments: args}
		if path == "operation" {
			state.OperationDirectives = append(state.OperationDirectives, d)
			return nil, nil, nil
		}
		node, err := state.ResolvePath(path)
		if err != nil {
			return nil, apperr.Newf(apperr.Validation, "Unknown path '%s'.", path).WithPath(path), nil
		}
		node.Directives = append(node.Directives, d)
		return nil, nil, nil
	})
}

// SpreadFragment appends a fragment name to the selection set at path.
func (c *AppContext) SpreadFragment(ctx context.Context, sessionID, path, fragmentName string) *Response {
	return c.withSession(ctx, sessionID, func(state *querystate.QueryState) (any, *apperr.Error, []string) {
		if !validate.IsValidGraphQLName(fragmentName) {
			return nil, apperr.Newf(apperr.Validation, "Invalid fragment name '%s'.", fragmentName), nil
		}
		node, err := state.ResolvePath(path)
		if err != nil {
			return nil, apperr.Newf(apperr.Validation, "Unknown path '%s'.", path).WithPath(path), nil
		}
		node.FragmentSpreads = append(node.FragmentSpreads, fragmentName)
		return nil, nil, nil
	})
}

// DefineFragment defines or replaces a named fragment, validating that
// onType exists in the cached schema.
func (c *AppContext) DefineFragment(ctx context.Context, sessionID, name, onType string, fields *querystate.Fragment) *Response {
	return c.withSession(ctx, sessionID, func(state *querystate.QueryState) (any, *apperr.Error, []string) {
		if !validate.IsValidGraphQLName(name) {
			return nil, apperr.Newf(apperr.Validation, "Invalid fragment name '%s'.", name), nil
		}
		sch, err := c.Schema.Get(ctx, c.HTTPClient, c.Config.GraphQLEndpoint, state.Headers)
		if err != nil {
			return nil, apperr.Newf(apperr.Schema, "Could not load upstream schema: %v", err), nil
		}
		if sch.Type(onType) == nil {
			return nil, apperr.Newf(apperr.Schema, "Type '%s' not found in schema.", onType), nil
		}
		state.Fragments[name] = &querystate.Fragment{OnType: onType, Fields: fields.Fields}
		return nil, nil, nil
	})
}

// AddInlineFragment appends an inline fragment to the selection set at
// path, validating that onType exists in the cached schema.
func (c *AppContext) AddInlineFragment(ctx context.Context, sessionID, path, onType string) *Response {
	return c.withSession(ctx, sessionID, func(state *querystate.QueryState) (any, *apperr.Error, []string) {
		sch, err := c.Schema.Get(ctx, c.HTTPClient, c.Config.GraphQLEndpoint, state.Headers)
		if err != nil {
			return nil, apperr.Newf(apperr.Schema, "Could not load upstream schema: %v", err), nil
		}
		if sch.Type(onType) == nil {
			return nil, apperr.Newf(apperr.Schema, "Type '%s' not found in schema.", onType), nil
		}
		node, rerr := state.ResolvePath(path)
		if rerr != nil {
			return nil, apperr.Newf(apperr.Validation, "Unknown path '%s'.", path).WithPath(path), nil
		}
		node.InlineFragments = append(node.InlineFragments, querystate.NewInlineFragment(onType))
		return nil, nil, nil
	})
}

// BuildQuery renders and returns the document text without validating
// it.
func (c *AppContext) BuildQuery(ctx context.Context, sessionID string) *Response {
	return c.withSession(ctx, sessionID, func(state *querystate.QueryState) (any, *apperr.Error, []string) {
		return map[string]string{"document": querystate.Render(state)}, nil, nil
	})
}

// ValidateQuery renders, parses, validates against the schema, and
// analyzes complexity, returning structured errors and warnings without
// performing an outbound request.
func (c *AppContext) ValidateQuery(ctx context.Context, sessionID string) *Response {
	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := c.Store.Load(ctx, sessionID)
	if err != nil {
		return errorResponse(apperr.Newf(apperr.Session, "Session '%s' not found or expired.", sessionID))
	}
	plan, perr := c.Exec.Plan(ctx, state)
	if perr != nil {
		return errorResponse(apperr.Newf(apperr.Internal, "%v", perr))
	}
	if len(plan.Errors) > 0 {
		resp := errorsResponse(plan.Errors)
		resp.Warnings = plan.Warnings
		return resp
	}
	return &Response{OK: true, Result: map[string]any{"document": plan.Document}, Warnings: plan.Warnings}
}

// ExecuteQuery validates then POSTs to the configured upstream with the
// execute-path timeout, returning the upstream response verbatim.
func (c *AppContext) ExecuteQuery(ctx context.Context, sessionID string) *Response {
	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := c.Store.Load(ctx, sessionID)
	if err != nil {
		return errorResponse(apperr.Newf(apperr.Session, "Session '%s' not found or expired.", sessionID))
	}
	result, errs := c.Exec.Execute(ctx, state)
	if len(errs) > 0 {
		resp := errorsResponse(errs)
		return resp
	}
	return &Response{OK: true, Result: map[string]any{"response": json.RawMessage(result.Body)}, Warnings: result.Warnings}
}

// EndSession deletes the stored state for sessionID.
func (c *AppContext) EndSession(ctx context.Context, sessionID string) *Response {
	if err := c.Store.Delete(ctx, sessionID); err != nil {
		return errorResponse(apperr.Newf(apperr.Store, "Failed to end session: %v", err))
	}
	return &Response{OK: true}
}

// RemoveField deletes a field (and its subtree) from its parent
// selection set. This supplements the named contract set, which never
// names select-field's inverse.
func (c *AppContext) RemoveField(ctx context.Context, sessionID, path string) *Response {
	return c.withSession(ctx, sessionID, func(state *querystate.QueryState) (any, *apperr.Error, []string) {
		if err := state.RemoveField(path); err != nil {
			return nil, apperr.Newf(apperr.Validation, "Unknown path '%s'.", path).WithPath(path), nil
		}
		return nil, nil, nil
	})
}

// ListSession returns a read-only dump of the current QueryState plus a
// best-effort rendered preview, never failing on an incomplete state.
func (c *AppContext) ListSession(ctx context.Context, sessionID string) *Response {
	state, err := c.Store.Load(ctx, sessionID)
	if err != nil {
		return errorResponse(apperr.Newf(apperr.Session, "Session '%s' not found or expired.", sessionID))
	}
	return &Response{OK: true, Result: map[string]any{
		"state":   state,
		"preview": querystate.Render(state),
	}}
}

// GetSchemaType exposes the cached schema's fields and arguments for a
// given type name, letting an agent discover what select-field would
// accept before calling it.
func (c *AppContext) GetSchemaType(ctx context.Context, sessionID, typeName string) *Response {
	state, err := c.Store.Load(ctx, sessionID)
	if err != nil {
		return errorResponse(apperr.Newf(apperr.Session, "Session '%s' not found or expired.", sessionID))
	}
	sch, schErr := c.Schema.Get(ctx, c.HTTPClient, c.Config.GraphQLEndpoint, state.Headers)
	if schErr != nil {
		return errorResponse(apperr.Newf(apperr.Schema, "Could not load upstream schema: %v", schErr))
	}
	typ := sch.Type(typeName)
	if typ == nil {
		respErr := apperr.Newf(apperr.Schema, "Type '%s' not found in schema.", typeName)
		if suggestion := validate.Suggest(typeName, schemaTypeNames(sch)); suggestion != "" {
			respErr = respErr.WithSuggestion(validate.DidYouMean(suggestion))
		}
		return errorResponse(respErr)
	}
	return &Response{OK: true, Result: typ}
}

func schemaTypeNames(sch *schema.Schema) []string {
	names := make([]string, 0, len(sch.Types))
	for name := range sch.Types {
		names = append(names, name)
	}
	return names
}
