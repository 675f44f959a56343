package schema

import "testing"

func TestTypeRefString(t *testing.T) {
	tests := []struct {
		name string
		ref  *TypeRef
		want string
	}{
		{"named", &TypeRef{Kind: Scalar, Name: "Int"}, "Int"},
		{"nonNull", &TypeRef{Kind: NonNull, OfType: &TypeRef{Kind: Scalar, Name: "Int"}}, "Int!"},
		{"list", &TypeRef{Kind: List, OfType: &TypeRef{Kind: Scalar, Name: "Int"}}, "[Int]"},
		{
			"nonNullListOfNonNull",
			&TypeRef{Kind: NonNull, OfType: &TypeRef{Kind: List, OfType: &TypeRef{
				Kind: NonNull, OfType: &TypeRef{Kind: Scalar, Name: "Int"},
			}}},
			"[Int!]!",
		},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeRefIsNullable(t *testing.T) {
	nonNull := &TypeRef{Kind: NonNull, OfType: &TypeRef{Kind: Scalar, Name: "Int"}}
	if nonNull.IsNullable() {
		t.Error("NonNull(Int).IsNullable() = true, want false")
	}
	nullable := &TypeRef{Kind: Scalar, Name: "Int"}
	if !nullable.IsNullable() {
		t.Error("Int.IsNullable() = false, want true")
	}
	var nilRef *TypeRef
	if !nilRef.IsNullable() {
		t.Error("nil TypeRef.IsNullable() = false, want true")
	}
}

func TestTypeRefUnwrap(t *testing.T) {
	named := &TypeRef{Kind: Scalar, Name: "Int"}
	wrapped := &TypeRef{Kind: NonNull, OfType: &TypeRef{Kind: List, OfType: named}}
	got := wrapped.Unwrap()
	if got != named {
		t.Errorf("Unwrap() = %v, want %v", got, named)
	}
}

func TestTypeRefListDepth(t *testing.T) {
	named := &TypeRef{Kind: Scalar, Name: "Int"}
	tests := []struct {
		name string
		ref  *TypeRef
		want int
	}{
		{"bare", named, 0},
		{"oneList", &TypeRef{Kind: List, OfType: named}, 1},
		{"nonNullList", &TypeRef{Kind: NonNull, OfType: &TypeRef{Kind: List, OfType: named}}, 1},
		{"listOfList", &TypeRef{Kind: List, OfType: &TypeRef{Kind: List, OfType: named}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.ListDepth(); got != tt.want {
				t.Errorf("ListDepth() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFieldArgAndArgNames(t *testing.T) {
	f := &Field{
		Name: "pokemons",
		Args: []*InputValue{
			{Name: "first", Type: &TypeRef{Kind: Scalar, Name: "Int"}},
			{Name: "after", Type: &TypeRef{Kind: Scalar, Name: "String"}},
		},
	}
	if got := f.Arg("first"); got == nil || got.Name != "first" {
		t.Errorf("Arg(first) = %v", got)
	}
	if got := f.Arg("missing"); got != nil {
		t.Errorf("Arg(missing) = %v, want nil", got)
	}
	want := []string{"first", "after"}
	got := f.ArgNames()
	if len(got) != len(want) {
		t.Fatalf("ArgNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ArgNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNamedTypeFieldLookups(t *testing.T) {
	nt := &NamedType{
		Kind: Object,
		Name: "Pokemon",
		Fields: []*Field{
			{Name: "name", Type: &TypeRef{Kind: Scalar, Name: "String"}},
			{Name: "hp", Type: &TypeRef{Kind: Scalar, Name: "Int"}},
		},
		InputFields: []*InputValue{
			{Name: "limit", Type: &TypeRef{Kind: Scalar, Name: "Int"}},
		},
		EnumValues: []*EnumValue{{Name: "FIRE"}, {Name: "WATER"}},
	}
	if got := nt.Field("name"); got == nil || got.Name != "name" {
		t.Errorf("Field(name) = %v", got)
	}
	if got := nt.Field("missing"); got != nil {
		t.Errorf("Field(missing) = %v, want nil", got)
	}
	if got := nt.InputField("limit"); got == nil {
		t.Error("InputField(limit) = nil")
	}
	wantNames := []string{"name", "hp"}
	got := nt.FieldNames()
	for i := range wantNames {
		if got[i] != wantNames[i] {
			t.Errorf("FieldNames()[%d] = %q, want %q", i, got[i], wantNames[i])
		}
	}
	if !nt.HasEnumValue("FIRE") {
		t.Error("HasEnumValue(FIRE) = false")
	}
	if nt.HasEnumValue("GRASS") {
		t.Error("HasEnumValue(GRASS) = true")
	}
}

func TestNamedTypeIsComposite(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{Object, true},
		{Interface, true},
		{Union, true},
		{Scalar, false},
		{Enum, false},
		{InputObject, false},
	}
	for _, tt := range tests {
		nt := &NamedType{Kind: tt.kind}
		if got := nt.IsComposite(); got != tt.want {
			t.Errorf("IsComposite(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestNamedTypeNilReceiverSafety(t *testing.T) {
	var nt *NamedType
	if nt.Field("x") != nil {
		t.Error("nil.Field() != nil")
	}
	if nt.InputField("x") != nil {
		t.Error("nil.InputField() != nil")
	}
	if nt.FieldNames() != nil {
		t.Error("nil.FieldNames() != nil")
	}
	if nt.HasEnumValue("x") {
		t.Error("nil.HasEnumValue() = true")
	}
	if nt.IsComposite() {
		t.Error("nil.IsComposite() = true")
	}
}

func buildTestSchema() *Schema {
	pokemonType := &NamedType{
		Kind: Object,
		Name: "Pokemon",
		Fields: []*Field{
			{Name: "name", Type: &TypeRef{Kind: Scalar, Name: "String"}},
			{Name: "trainer", Type: &TypeRef{Kind: Scalar, Name: "Trainer"}},
		},
	}
	trainerType := &NamedType{
		Kind: Object,
		Name: "Trainer",
		Fields: []*Field{
			{Name: "name", Type: &TypeRef{Kind: Scalar, Name: "String"}, Args: []*InputValue{
				{Name: "locale", Type: &TypeRef{Kind: Scalar, Name: "String"}},
			}},
		},
	}
	queryType := &NamedType{
		Kind: Object,
		Name: "Query",
		Fields: []*Field{
			{Name: "pokemons", Type: &TypeRef{Kind: List, OfType: &TypeRef{Kind: Scalar, Name: "Pokemon"}}, Args: []*InputValue{
				{Name: "first", Type: &TypeRef{Kind: Scalar, Name: "Int"}},
			}},
		},
	}
	return &Schema{
		QueryTypeName: "Query",
		Types: map[string]*NamedType{
			"Query":   queryType,
			"Pokemon": pokemonType,
			"Trainer": trainerType,
		},
	}
}

func TestSchemaRootType(t *testing.T) {
	s := buildTestSchema()
	if got := s.RootType("query"); got == nil || got.Name != "Query" {
		t.Errorf("RootType(query) = %v", got)
	}
	if got := s.RootType("mutation"); got != nil {
		t.Errorf("RootType(mutation) = %v, want nil", got)
	}
	if got := s.RootType("bogus"); got != nil {
		t.Errorf("RootType(bogus) = %v, want nil", got)
	}
}

func TestSchemaGetFields(t *testing.T) {
	s := buildTestSchema()
	fields, err := s.GetFields("Pokemon")
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 2 {
		t.Errorf("GetFields(Pokemon) = %d fields, want 2", len(fields))
	}
	if _, err := s.GetFields("DoesNotExist"); err == nil {
		t.Error("GetFields(unknown type): want error")
	}
}

func TestSchemaGetFieldsRejectsNonComposite(t *testing.T) {
	s := &Schema{Types: map[string]*NamedType{
		"Color": {Kind: Enum, Name: "Color"},
	}}
	if _, err := s.GetFields("Color"); err == nil {
		t.Error("GetFields(enum type): want error, got nil")
	}
}

func TestSchemaGetArgumentType(t *testing.T) {
	s := buildTestSchema()

	typ, err := s.GetArgumentType("Query", "pokemons", "first")
	if err != nil {
		t.Fatal(err)
	}
	if typ == nil || typ.Name != "Int" {
		t.Errorf("GetArgumentType(Query, pokemons, first) = %v, want Int", typ)
	}

	typ, err = s.GetArgumentType("Query", "pokemons.trainer.name", "locale")
	if err != nil {
		t.Fatal(err)
	}
	if typ == nil || typ.Name != "String" {
		t.Errorf("GetArgumentType(nested path) = %v, want String", typ)
	}

	typ, err = s.GetArgumentType("Query", "pokemons", "missing")
	if err != nil {
		t.Fatal(err)
	}
	if typ != nil {
		t.Errorf("GetArgumentType(missing arg) = %v, want nil, nil", typ)
	}

	if _, err := s.GetArgumentType("Query", "", "first"); err == nil {
		t.Error("GetArgumentType(empty path): want error")
	}

	if _, err := s.GetArgumentType("Query", "nosuchfield", "x"); err == nil {
		t.Error("GetArgumentType(unknown field): want error")
	}
}

func TestSchemaType(t *testing.T) {
	s := buildTestSchema()
	if got := s.Type("Pokemon"); got == nil {
		t.Error("Type(Pokemon) = nil")
	}
	if got := s.Type("Missing"); got != nil {
		t.Errorf("Type(Missing) = %v, want nil", got)
	}
	var nilSchema *Schema
	if got := nilSchema.Type("Pokemon"); got != nil {
		t.Errorf("nil.Type() = %v, want nil", got)
	}
}
