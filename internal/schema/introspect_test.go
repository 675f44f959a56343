package schema

import "testing"

const sampleIntrospectionJSON = `{
  "data": {
    "__schema": {
      "queryType": {"name": "Query"},
      "mutationType": null,
      "subscriptionType": null,
      "types": [
        {
          "kind": "OBJECT",
          "name": "Query",
          "fields": [
            {
              "name": "pokemons",
              "args": [
                {"name": "first", "type": {"kind": "SCALAR", "name": "Int", "ofType": null}, "defaultValue": null}
              ],
              "type": {
                "kind": "LIST", "name": null,
                "ofType": {"kind": "OBJECT", "name": "Pokemon", "ofType": null}
              }
            }
          ],
          "inputFields": [],
          "enumValues": [],
          "possibleTypes": []
        },
        {
          "kind": "OBJECT",
          "name": "Pokemon",
          "fields": [
            {
              "name": "name",
              "args": [],
              "type": {
                "kind": "NON_NULL", "name": null,
                "ofType": {"kind": "SCALAR", "name": "String", "ofType": null}
              }
            }
          ],
          "inputFields": [],
          "enumValues": [],
          "possibleTypes": []
        }
      ]
    }
  }
}`

func TestBuildParsesQueryTypeAndFields(t *testing.T) {
	s, err := Build([]byte(sampleIntrospectionJSON))
	if err != nil {
		t.Fatal(err)
	}
	if s.QueryTypeName != "Query" {
		t.Errorf("QueryTypeName = %q, want Query", s.QueryTypeName)
	}
	field := s.Type("Query").Field("pokemons")
	if field == nil {
		t.Fatal("Query.pokemons not found")
	}
	if got := field.Type.String(); got != "[Pokemon]" {
		t.Errorf("pokemons type = %q, want [Pokemon]", got)
	}
	arg := field.Arg("first")
	if arg == nil || arg.Type.Name != "Int" {
		t.Errorf("pokemons(first:) = %v", arg)
	}
	nameField := s.Type("Pokemon").Field("name")
	if got := nameField.Type.String(); got != "String!" {
		t.Errorf("Pokemon.name type = %q, want String!", got)
	}
}

func TestBuildRejectsTopLevelErrors(t *testing.T) {
	body := `{"data": null, "errors": [{"message": "boom"}]}`
	if _, err := Build([]byte(body)); err == nil {
		t.Error("Build with top-level errors: want error, got nil")
	}
}

func TestBuildRejectsMissingData(t *testing.T) {
	body := `{"data": null}`
	if _, err := Build([]byte(body)); err == nil {
		t.Error("Build with nil data: want error, got nil")
	}
}

func TestBuildRejectsUnresolvableQueryRoot(t *testing.T) {
	body := `{"data": {"__schema": {"queryType": {"name": "Query"}, "types": []}}}`
	if _, err := Build([]byte(body)); err == nil {
		t.Error("Build with no matching query type in types[]: want error, got nil")
	}
}

func TestBuildRejectsInvalidJSON(t *testing.T) {
	if _, err := Build([]byte("not json")); err == nil {
		t.Error("Build(invalid JSON): want error, got nil")
	}
}
