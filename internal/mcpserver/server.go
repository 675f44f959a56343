// Package mcpserver exposes QuerySculptor's tool-dispatch contracts over
// the Model Context Protocol, registering one MCP tool per contract and
// translating between JSON-string tool arguments and the typed
// AppContext handlers in internal/tools.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"querysculptor/internal/querystate"
	"querysculptor/internal/tools"
)

// Server wraps the MCP server and the AppContext every handler dispatches
// through.
type Server struct {
	mcpServer *server.MCPServer
	app       *tools.AppContext
}

// New builds a Server with every tool contract registered.
func New(app *tools.AppContext) *Server {
	mcpServer := server.NewMCPServer(
		"querysculptor",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	s := &Server{mcpServer: mcpServer, app: app}
	s.registerAll()
	return s
}

// ServeStdio runs the server over stdio until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerAll() {
	s.mcpServer.AddTool(mcp.NewTool("start-session",
		mcp.WithDescription("Open a new query-building session for a query, mutation, or subscription operation against the configured upstream schema."),
		mcp.WithString("operationType", mcp.Required(), mcp.Description("One of query, mutation, subscription.")),
		mcp.WithString("operationName", mcp.Description("Optional operation name.")),
		mcp.WithString("headers", mcp.Description("Optional JSON object of string headers to merge over the configured defaults.")),
	), s.handleStartSession)

	s.mcpServer.AddTool(mcp.NewTool("set-operation-name",
		mcp.WithDescription("Set or rename the session's operation name."),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("name", mcp.Required()),
	), s.handleSetOperationName)

	s.mcpServer.AddTool(mcp.NewTool("select-field",
		mcp.WithDescription("Add a field to the selection set at parentPath (empty for the operation root)."),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("parentPath", mcp.Description("Dotted selection-key path of the parent field; empty selects at the root.")),
		mcp.WithString("fieldName", mcp.Required()),
		mcp.WithString("alias", mcp.Description("Optional alias; becomes the field's selection key if set.")),
	), s.handleSelectField)

	s.mcpServer.AddTool(mcp.NewTool("remove-field",
		mcp.WithDescription("Remove a field (and its subtree) from the selection set."),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("path", mcp.Required()),
	), s.handleRemoveField)

	s.mcpServer.AddTool(mcp.NewTool("set-argument",
		mcp.WithDescription("Set an argument on the field at fieldPath. value is a JSON literal; set isVariable/isEnum to reference a variable or enum symbol by name instead."),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("fieldPath", mcp.Required()),
		mcp.WithString("argName", mcp.Required()),
		mcp.WithString("value", mcp.Required(), mcp.Description("JSON-encoded literal, or the bare name for isVariable/isEnum.")),
		mcp.WithBoolean("isVariable", mcp.Description("Treat value as a variable name (without the leading $).")),
		mcp.WithBoolean("isEnum", mcp.Description("Treat value as a bare enum member symbol.")),
	), s.handleSetArgument)

	s.mcpServer.AddTool(mcp.NewTool("set-typed-argument",
		mcp.WithDescription("Set an argument on a field with its GraphQL type resolved from the schema, so it renders with scalar-aware literal syntax."),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("fieldPath", mcp.Required()),
		mcp.WithString("argName", mcp.Required()),
		mcp.WithString("value", mcp.Required(), mcp.Description("JSON-encoded literal.")),
	), s.handleSetTypedArgument)

	s.mcpServer.AddTool(mcp.NewTool("set-variable",
		mcp.WithDescription("Declare an operation variable's GraphQL type and optional default literal."),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("name", mcp.Required(), mcp.Description("Variable name including the leading $, e.g. $n.")),
		mcp.WithString("type", mcp.Required(), mcp.Description("GraphQL type string, e.g. Int! or [String].")),
		mcp.WithString("defaultValue", mcp.Description("Optional default literal, rendered verbatim after '='.")),
	), s.handleSetVariable)

	s.mcpServer.AddTool(mcp.NewTool("set-variable-value",
		mcp.WithDescription("Set the runtime value sent for a declared variable when the operation executes."),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("name", mcp.Required(), mcp.Description("Declared variable name including the leading $.")),
		mcp.WithString("value", mcp.Required(), mcp.Description("JSON-encoded value.")),
	), s.handleSetVariableValue)

	s.mcpServer.AddTool(mcp.NewTool("add-directive",
		mcp.WithDescription("Attach a directive to a field (by path) or to the operation itself (path \"operation\")."),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("path", mcp.Required()),
		mcp.WithString("name", mcp.Required(), mcp.Description("Directive name without the leading @.")),
		mcp.WithString("arguments", mcp.Description("Optional JSON object of argument name to JSON literal value.")),
	), s.handleAddDirective)

	s.mcpServer.AddTool(mcp.NewTool("spread-fragment",
		mcp.WithDescription("Spread a previously defined fragment into the selection set at path."),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("path", mcp.Required()),
		mcp.WithString("fragmentName", mcp.Required()),
	), s.handleSpreadFragment)

	s.mcpServer.AddTool(mcp.NewTool("define-fragment",
		mcp.WithDescription("Define (or replace) a named fragment bound to a type condition."),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("name", mcp.Required()),
		mcp.WithString("onType", mcp.Required()),
		mcp.WithString("fields", mcp.Required(), mcp.Description("JSON object in the fragment's fields wire shape.")),
	), s.handleDefineFragment)

	s.mcpServer.AddTool(mcp.NewTool("add-inline-fragment",
		mcp.WithDescription("Add a type-conditioned inline fragment ('... on Type { ... }') to the selection set at path."),
		mcp.WithString("sessionId", mcp.Required()),
		mcp.WithString("path", mcp.Required()),
		mcp.WithString("onType", mcp.Required()),
	), s.handleAddInlineFragment)

	s.mcpServer.AddTool(mcp.NewTool("build-query",
		mcp.WithDescription("Render the session's current state to GraphQL document text, without validating it."),
		mcp.WithString("sessionId", mcp.Required()),
	), s.handleBuildQuery)

	s.mcpServer.AddTool(mcp.NewTool("validate-query",
		mcp.WithDescription("Render, parse, and validate the session's query against the upstream schema, and run the complexity analyzer, without executing it."),
		mcp.WithString("sessionId", mcp.Required()),
	), s.handleValidateQuery)

	s.mcpServer.AddTool(mcp.NewTool("execute-query",
		mcp.WithDescription("Validate and execute the session's query against the configured upstream, returning the response verbatim."),
		mcp.WithString("sessionId", mcp.Required()),
	), s.handleExecuteQuery)

	s.mcpServer.AddTool(mcp.NewTool("end-session",
		mcp.WithDescription("Discard a session and free its stored state."),
		mcp.WithString("sessionId", mcp.Required()),
	), s.handleEndSession)

	s.mcpServer.AddTool(mcp.NewTool("list-session",
		mcp.WithDescription("Return the session's current state and a best-effort rendered preview."),
		mcp.WithString("sessionId", mcp.Required()),
	), s.handleListSession)

	s.mcpServer.AddTool(mcp.NewTool("get-schema-type",
		mcp.WithDescription("Look up a type's fields and arguments in the upstream schema, to discover what select-field would accept."),
		mcp.WithString("sessionId", mcp.Required(), mcp.Description("Used only to resolve which cached schema/headers to query.")),
		mcp.WithString("typeName", mcp.Required()),
	), s.handleGetSchemaType)
}

// toolResult marshals an AppContext response into the tool result text.
// Failures surface as ordinary Response JSON (ok:false, error:...), not
// as MCP-protocol-level errors, so a client can always parse the result
// uniformly.
func toolResult(resp *tools.Response) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(resp)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) handleStartSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	operationType := req.GetString("operationType", "")
	operationName := req.GetString("operationName", "")
	headers, err := parseStringMap(req.GetString("headers", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(s.app.StartSession(ctx, headers, operationType, operationName))
}

func (s *Server) handleSetOperationName(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.SetOperationName(ctx, req.GetString("sessionId", ""), req.GetString("name", "")))
}

func (s *Server) handleSelectField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.SelectField(ctx,
		req.GetString("sessionId", ""),
		req.GetString("parentPath", ""),
		req.GetString("fieldName", ""),
		req.GetString("alias", ""),
	))
}

func (s *Server) handleRemoveField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.RemoveField(ctx, req.GetString("sessionId", ""), req.GetString("path", "")))
}

func (s *Server) handleSetArgument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	isVariable, _ := args["isVariable"].(bool)
	isEnum, _ := args["isEnum"].(bool)
	value := req.GetString("value", "")
	var raw json.RawMessage
	if isVariable || isEnum {
		encoded, err := json.Marshal(value)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		raw = encoded
	} else {
		raw = json.RawMessage(value)
	}
	return toolResult(s.app.SetArgument(ctx,
		req.GetString("sessionId", ""),
		req.GetString("fieldPath", ""),
		req.GetString("argName", ""),
		raw, isVariable, isEnum, false,
	))
}

func (s *Server) handleSetTypedArgument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.SetArgument(ctx,
		req.GetString("sessionId", ""),
		req.GetString("fieldPath", ""),
		req.GetString("argName", ""),
		json.RawMessage(req.GetString("value", "")), false, false, true,
	))
}

func (s *Server) handleSetVariable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	defaultValue := req.GetString("defaultValue", "")
	_, hasDefault := req.GetArguments()["defaultValue"]
	return toolResult(s.app.SetVariable(ctx,
		req.GetString("sessionId", ""),
		req.GetString("name", ""),
		req.GetString("type", ""),
		defaultValue, hasDefault,
	))
}

func (s *Server) handleSetVariableValue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.SetVariableValue(ctx,
		req.GetString("sessionId", ""),
		req.GetString("name", ""),
		json.RawMessage(req.GetString("value", "")),
	))
}

func (s *Server) handleAddDirective(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseDirectiveArguments(req.GetString("arguments", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolResult(s.app.AddDirective(ctx,
		req.GetString("sessionId", ""),
		req.GetString("path", ""),
		req.GetString("name", ""),
		args,
	))
}

func (s *Server) handleSpreadFragment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.SpreadFragment(ctx,
		req.GetString("sessionId", ""),
		req.GetString("path", ""),
		req.GetString("fragmentName", ""),
	))
}

func (s *Server) handleDefineFragment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var frag querystate.Fragment
	if err := json.Unmarshal([]byte(req.GetString("fields", "{}")), &frag.Fields); err != nil {
		return mcp.NewToolResultError("fields: " + err.Error()), nil
	}
	return toolResult(s.app.DefineFragment(ctx,
		req.GetString("sessionId", ""),
		req.GetString("name", ""),
		req.GetString("onType", ""),
		&frag,
	))
}

func (s *Server) handleAddInlineFragment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.AddInlineFragment(ctx,
		req.GetString("sessionId", ""),
		req.GetString("path", ""),
		req.GetString("onType", ""),
	))
}

func (s *Server) handleBuildQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.BuildQuery(ctx, req.GetString("sessionId", "")))
}

func (s *Server) handleValidateQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.ValidateQuery(ctx, req.GetString("sessionId", "")))
}

func (s *Server) handleExecuteQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.ExecuteQuery(ctx, req.GetString("sessionId", "")))
}

func (s *Server) handleEndSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.EndSession(ctx, req.GetString("sessionId", "")))
}

func (s *Server) handleListSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.ListSession(ctx, req.GetString("sessionId", "")))
}

func (s *Server) handleGetSchemaType(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.app.GetSchemaType(ctx, req.GetString("sessionId", ""), req.GetString("typeName", "")))
}

func parseStringMap(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func parseDirectiveArguments(raw string) ([]*querystate.DirectiveArgument, error) {
	if raw == "" {
		return nil, nil
	}
	return querystate.DecodeOrderedArguments([]byte(raw))
}
