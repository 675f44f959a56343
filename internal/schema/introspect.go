package schema

import (
	"encoding/json"

	"golang.org/x/xerrors"
)

// IntrospectionQuery is the standard GraphQL introspection query. Its field
// list mirrors the __Schema/__Type/__Field/__InputValue/__EnumValue shapes
// defined by https://graphql.github.io/graphql-spec/June2018/#sec-Schema-Introspection.
const IntrospectionQuery = `query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      ...FullType
    }
  }
}

fragment FullType on __Type {
  kind
  name
  fields(includeDeprecated: true) {
    name
    args {
      ...InputValue
    }
    type {
      ...TypeRef
    }
  }
  inputFields {
    ...InputValue
  }
  enumValues(includeDeprecated: true) {
    name
  }
  possibleTypes {
    name
  }
}

fragment InputValue on __InputValue {
  name
  type { ...TypeRef }
  defaultValue
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType {
                kind
                name
              }
            }
          }
        }
      }
    }
  }
}`

// introspectionResponse is the envelope returned by a standard GraphQL
// execution endpoint for the introspection query.
type introspectionResponse struct {
	Data   *introspectionData `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type introspectionData struct {
	Schema introspectionSchema `json:"__schema"`
}

type introspectionSchema struct {
	QueryType        *introspectionNamedRef `json:"queryType"`
	MutationType     *introspectionNamedRef `json:"mutationType"`
	SubscriptionType *introspectionNamedRef `json:"subscriptionType"`
	Types            []introspectionFullType `json:"types"`
}

type introspectionNamedRef struct {
	Name string `json:"name"`
}

type introspectionFullType struct {
	Kind          string                     `json:"kind"`
	Name          string                     `json:"name"`
	Fields        []introspectionField       `json:"fields"`
	InputFields   []introspectionInputValue  `json:"inputFields"`
	EnumValues    []introspectionEnumValue   `json:"enumValues"`
	PossibleTypes []introspectionNamedRef    `json:"possibleTypes"`
}

type introspectionField struct {
	Name string                    `json:"name"`
	Args []introspectionInputValue `json:"args"`
	Type introspectionTypeRef      `json:"type"`
}

type introspectionInputValue struct {
	Name         string               `json:"name"`
	Type         introspectionTypeRef `json:"type"`
	DefaultValue *string              `json:"defaultValue"`
}

// introspectionTypeRef mirrors the recursive __Type.ofType chain used to
// express NON_NULL and LIST wrapping around a named type.
type introspectionTypeRef struct {
	Kind   string                 `json:"kind"`
	Name   string                 `json:"name"`
	OfType *introspectionTypeRef `json:"ofType"`
}

func (ref *introspectionTypeRef) toTypeRef() *TypeRef {
	if ref == nil {
		return nil
	}
	return &TypeRef{
		Kind:   Kind(ref.Kind),
		Name:   ref.Name,
		OfType: ref.OfType.toTypeRef(),
	}
}

type introspectionEnumValue struct {
	Name string `json:"name"`
}

// Build parses a standard introspection response body and constructs a
// Schema from its "data.__schema" payload. It requires the response to
// carry no top-level "errors".
func Build(body []byte) (*Schema, error) {
	var resp introspectionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, xerrors.Errorf("build schema: decode introspection response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, xerrors.Errorf("build schema: introspection returned errors: %s", resp.Errors[0].Message)
	}
	if resp.Data == nil {
		return nil, xerrors.New("build schema: introspection response has no data")
	}
	s := &Schema{
		Types: make(map[string]*NamedType, len(resp.Data.Schema.Types)),
		Raw:   body,
	}
	if resp.Data.Schema.QueryType != nil {
		s.QueryTypeName = resp.Data.Schema.QueryType.Name
	}
	if resp.Data.Schema.MutationType != nil {
		s.MutationTypeName = resp.Data.Schema.MutationType.Name
	}
	if resp.Data.Schema.SubscriptionType != nil {
		s.SubscriptionTypeName = resp.Data.Schema.SubscriptionType.Name
	}
	for _, ft := range resp.Data.Schema.Types {
		nt := &NamedType{
			Kind: Kind(ft.Kind),
			Name: ft.Name,
		}
		for _, f := range ft.Fields {
			nf := &Field{
				Name: f.Name,
				Type: f.Type.toTypeRef(),
			}
			for _, a := range f.Args {
				nf.Args = append(nf.Args, &InputValue{
					Name:         a.Name,
					Type:         a.Type.toTypeRef(),
					DefaultValue: a.DefaultValue,
				})
			}
			nt.Fields = append(nt.Fields, nf)
		}
		for _, a := range ft.InputFields {
			nt.InputFields = append(nt.InputFields, &InputValue{
				Name:         a.Name,
				Type:         a.Type.toTypeRef(),
				DefaultValue: a.DefaultValue,
			})
		}
		for _, v := range ft.EnumValues {
			nt.EnumValues = append(nt.EnumValues, &EnumValue{Name: v.Name})
		}
		for _, p := range ft.PossibleTypes {
			nt.PossibleTypes = append(nt.PossibleTypes, p.Name)
		}
		s.Types[nt.Name] = nt
	}
	if s.QueryTypeName == "" || s.Types[s.QueryTypeName] == nil {
		return nil, xerrors.New("build schema: could not resolve query root type")
	}
	return s, nil
}
