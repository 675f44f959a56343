package executor

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"querysculptor/internal/config"
	"querysculptor/internal/querystate"
	"querysculptor/internal/schema"
)

const pokemonIntrospectionJSON = `{
  "data": {
    "__schema": {
      "queryType": {"name": "Query"},
      "mutationType": null,
      "subscriptionType": null,
      "types": [
        {
          "kind": "OBJECT", "name": "Query",
          "fields": [
            {"name": "pokemons", "args": [
              {"name": "first", "type": {"kind": "SCALAR", "name": "Int", "ofType": null}, "defaultValue": null}
            ], "type": {"kind": "LIST", "name": null, "ofType": {"kind": "OBJECT", "name": "Pokemon", "ofType": null}}}
          ],
          "inputFields": [], "enumValues": [], "possibleTypes": []
        },
        {
          "kind": "OBJECT", "name": "Pokemon",
          "fields": [
            {"name": "name", "args": [], "type": {"kind": "SCALAR", "name": "String", "ofType": null}}
          ],
          "inputFields": [], "enumValues": [], "possibleTypes": []
        }
      ]
    }
  }
}`

type scriptedClient struct {
	responses []scriptedResponse
	i         int
	calls     int
	lastReq   *http.Request
}

type scriptedResponse struct {
	status int
	body   string
	err    error
}

func (c *scriptedClient) Do(req *http.Request) (*http.Response, error) {
	c.lastReq = req
	c.calls++
	r := c.responses[c.i]
	if c.i < len(c.responses)-1 {
		c.i++
	}
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{StatusCode: r.status, Body: io.NopCloser(strings.NewReader(r.body))}, nil
}

func testConfig() *config.Config {
	return &config.Config{GraphQLEndpoint: "https://example.test/graphql", DefaultHeaders: map[string]string{}}
}

func TestPlanEmptyDocumentShortCircuits(t *testing.T) {
	state := querystate.NewQueryState("query", "Query", nil)
	exec := New(schema.NewCache(), &scriptedClient{}, testConfig())

	plan, err := exec.Plan(context.Background(), state)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Document != "" {
		t.Errorf("Document = %q, want empty", plan.Document)
	}
	if len(plan.Errors) != 0 {
		t.Errorf("Errors = %v, want none", plan.Errors)
	}
}

func TestPlanValidQueryHasNoErrors(t *testing.T) {
	state := querystate.NewQueryState("query", "Query", nil)
	if _, err := state.InsertField("", "pokemons", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := state.InsertField("pokemons", "name", ""); err != nil {
		t.Fatal(err)
	}

	client := &scriptedClient{responses: []scriptedResponse{{status: http.StatusOK, body: pokemonIntrospectionJSON}}}
	exec := New(schema.NewCache(), client, testConfig())

	plan, err := exec.Plan(context.Background(), state)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Errors) != 0 {
		t.Errorf("Errors = %v, want none", plan.Errors)
	}
	if plan.Complexity == nil {
		t.Error("Complexity = nil, want a result")
	}
}

func TestPlanUnknownFieldProducesSchemaValidationError(t *testing.T) {
	state := querystate.NewQueryState("query", "Query", nil)
	if _, err := state.InsertField("", "pokemn", ""); err != nil {
		t.Fatal(err)
	}

	client := &scriptedClient{responses: []scriptedResponse{{status: http.StatusOK, body: pokemonIntrospectionJSON}}}
	exec := New(schema.NewCache(), client, testConfig())

	plan, err := exec.Plan(context.Background(), state)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Errors) == 0 {
		t.Fatal("want a validation error for unknown field")
	}
}

func TestPlanIntrospectionFailureReportsSchemaError(t *testing.T) {
	state := querystate.NewQueryState("query", "Query", nil)
	if _, err := state.InsertField("", "pokemons", ""); err != nil {
		t.Fatal(err)
	}

	client := &scriptedClient{responses: []scriptedResponse{{status: http.StatusInternalServerError, body: ""}}}
	exec := New(schema.NewCache(), client, testConfig())

	plan, err := exec.Plan(context.Background(), state)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Errors) == 0 {
		t.Fatal("want an error when introspection fails")
	}
}

func TestExecuteSuccessfulPOSTReturnsUpstreamBodyAndHeaders(t *testing.T) {
	state := querystate.NewQueryState("query", "Query", map[string]string{"Authorization": "Bearer tok"})
	if _, err := state.InsertField("", "pokemons", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := state.InsertField("pokemons", "name", ""); err != nil {
		t.Fatal(err)
	}

	client := &scriptedClient{responses: []scriptedResponse{
		{status: http.StatusOK, body: pokemonIntrospectionJSON},
		{status: http.StatusOK, body: `{"data": {"pokemons": []}}`},
	}}
	exec := New(schema.NewCache(), client, testConfig())

	result, errs := exec.Execute(context.Background(), state)
	if len(errs) != 0 {
		t.Fatalf("Errors = %v, want none", errs)
	}
	if string(result.Body) != `{"data": {"pokemons": []}}` {
		t.Errorf("Body = %s", result.Body)
	}
	if got := client.lastReq.Header.Get("Authorization"); got != "Bearer tok" {
		t.Errorf("Authorization header on POST = %q", got)
	}
}

func TestExecuteValidationFailureShortCircuitsBeforePOST(t *testing.T) {
	state := querystate.NewQueryState("query", "Query", nil)
	if _, err := state.InsertField("", "pokemn", ""); err != nil {
		t.Fatal(err)
	}

	client := &scriptedClient{responses: []scriptedResponse{{status: http.StatusOK, body: pokemonIntrospectionJSON}}}
	exec := New(schema.NewCache(), client, testConfig())

	_, errs := exec.Execute(context.Background(), state)
	if len(errs) == 0 {
		t.Fatal("want validation errors")
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1 (introspection only; Plan's failure must skip Execute's own POST)", client.calls)
	}
}

func TestExecuteNon2xxUpstreamStatusReported(t *testing.T) {
	state := querystate.NewQueryState("query", "Query", nil)
	if _, err := state.InsertField("", "pokemons", ""); err != nil {
		t.Fatal(err)
	}

	client := &scriptedClient{responses: []scriptedResponse{
		{status: http.StatusOK, body: pokemonIntrospectionJSON},
		{status: http.StatusBadGateway, body: "upstream down"},
	}}
	exec := New(schema.NewCache(), client, testConfig())

	_, errs := exec.Execute(context.Background(), state)
	if len(errs) == 0 {
		t.Fatal("want an error for a 502 upstream status")
	}
}
