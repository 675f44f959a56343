// Package executor implements the render-parse-validate-analyze-POST
// pipeline shared by the validate-query and execute-query tool
// contracts.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.opencensus.io/trace"
	"golang.org/x/xerrors"

	"querysculptor/internal/apperr"
	"querysculptor/internal/complexity"
	"querysculptor/internal/config"
	"querysculptor/internal/querystate"
	"querysculptor/internal/schema"
	"querysculptor/internal/validate"
)

const (
	defaultTimeout = 30 * time.Second
	executeTimeout = 60 * time.Second
)

// Plan is the outcome of the render/parse/validate/analyze pipeline,
// shared by both the validate-only and execute paths.
type Plan struct {
	Document   string
	Errors     []*apperr.Error
	Warnings   []string
	Complexity *complexity.Result
}

// Executor wires the schema cache, HTTP client, and configuration needed
// to validate and execute a rendered query state against the single
// configured upstream.
type Executor struct {
	cache  *schema.Cache
	client schema.HTTPClient
	cfg    *config.Config
}

// New builds an Executor over the given schema cache, HTTP client, and
// configuration.
func New(cache *schema.Cache, client schema.HTTPClient, cfg *config.Config) *Executor {
	return &Executor{cache: cache, client: client, cfg: cfg}
}

func (e *Executor) mergedHeaders(state *querystate.QueryState) map[string]string {
	return config.MergeHeaders(e.cfg.DefaultHeaders, state.Headers)
}

// Plan renders state, parses the result, validates it against the
// cached schema, and runs the complexity analyzer. It never performs an
// outbound POST; it is shared by execute-query (which POSTs its result)
// and validate-query (which does not).
func (e *Executor) Plan(ctx context.Context, state *querystate.QueryState) (*Plan, error) {
	doc := querystate.Render(state)
	plan := &Plan{Document: doc}
	if doc == "" {
		return plan, nil
	}

	if syntaxErrs := validate.ValidateQuerySyntax(doc); len(syntaxErrs) > 0 {
		plan.Errors = append(plan.Errors, syntaxErrs...)
		return plan, nil
	}

	introspectCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	sch, err := e.cache.Get(introspectCtx, e.client, e.cfg.GraphQLEndpoint, e.mergedHeaders(state))
	if err != nil {
		plan.Errors = append(plan.Errors, apperr.Newf(apperr.Schema, "Could not load upstream schema: %v", err))
		return plan, nil
	}

	schemaErrs, schemaWarnings := validate.ValidateAgainstSchema(doc, sch)
	plan.Errors = append(plan.Errors, schemaErrs...)
	plan.Warnings = append(plan.Warnings, schemaWarnings...)

	result := complexity.Analyze(state)
	plan.Complexity = result
	plan.Errors = append(plan.Errors, result.Errors...)
	plan.Warnings = append(plan.Warnings, result.Warnings...)

	return plan, nil
}

// UpstreamResult is the verbatim upstream JSON response plus any
// warnings accumulated earlier in the pipeline.
type UpstreamResult struct {
	Body     json.RawMessage
	Warnings []string
}

// Execute runs Plan and, if it produced no errors, POSTs the rendered
// document to the configured endpoint with the 60-second execute-path
// timeout, returning the upstream response verbatim.
func (e *Executor) Execute(ctx context.Context, state *querystate.QueryState) (*UpstreamResult, []*apperr.Error) {
	plan, err := e.Plan(ctx, state)
	if err != nil {
		return nil, []*apperr.Error{apperr.Newf(apperr.Internal, "%v", err)}
	}
	if len(plan.Errors) > 0 {
		return nil, plan.Errors
	}

	ctx, cancel := context.WithTimeout(ctx, executeTimeout)
	defer cancel()
	ctx, span := trace.StartSpan(ctx, "executor.Execute")
	defer span.End()

	body, err := json.Marshal(upstreamRequest{
		Query:         plan.Document,
		Variables:     state.VariablesValues,
		OperationName: state.OperationName,
	})
	if err != nil {
		return nil, []*apperr.Error{apperr.Newf(apperr.Internal, "encode request: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.GraphQLEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, []*apperr.Error{apperr.Newf(apperr.Internal, "build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range e.mergedHeaders(state) {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if xerrors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, []*apperr.Error{apperr.New(apperr.Timeout, "Upstream request timed out.")}
		}
		return nil, []*apperr.Error{apperr.Newf(apperr.Upstream, "Upstream request failed: %v", err)}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, []*apperr.Error{apperr.Newf(apperr.Upstream, "Reading upstream response failed: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, []*apperr.Error{apperr.Newf(apperr.Upstream, "Upstream returned status %d.", resp.StatusCode)}
	}

	return &UpstreamResult{Body: respBody, Warnings: plan.Warnings}, nil
}

type upstreamRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName,omitempty"`
}
