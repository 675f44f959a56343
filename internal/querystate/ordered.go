package querystate

import (
	"bytes"
	"encoding/json"

	"golang.org/x/xerrors"
)

var xerrorsOrderedObjectExpected = xerrors.New("querystate: expected JSON object")

// decodeOrderedObject streams a JSON object's keys in their wire order,
// invoking add for each raw value in turn. encoding/json's map-based
// Unmarshal loses key order, which would make save/load round-trips
// non-deterministic, so every ordered map decodes this way instead.
func decodeOrderedObject(data []byte, add func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return xerrorsOrderedObjectExpected
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := add(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// DecodeOrderedArguments decodes a JSON object of directive argument
// values into a slice ordered the same way the object's keys appeared on
// the wire, so a multi-argument directive renders deterministically
// instead of depending on Go's randomized map iteration order.
func DecodeOrderedArguments(data []byte) ([]*DirectiveArgument, error) {
	var args []*DirectiveArgument
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		args = append(args, &DirectiveArgument{Name: key, Value: NewRawArg(raw)})
		return nil
	})
	return args, err
}

// orderedStringMap preserves insertion order for variablesSchema, whose
// rendering order (§4.3 rule 3) is insertion order, not lexical order.
type orderedStringMap struct {
	keys   []string
	values map[string]string
}

func newOrderedStringMap() *orderedStringMap {
	return &orderedStringMap{values: map[string]string{}}
}

func (m *orderedStringMap) set(key, value string) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *orderedStringMap) get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Get returns the value stored for key, matching the package-external
// callers (tool handlers) that only see the exported surface.
func (m *orderedStringMap) Get(key string) (string, bool) { return m.get(key) }

// Set stores value for key, appending key to the insertion order on
// first use.
func (m *orderedStringMap) Set(key, value string) { m.set(key, value) }

func (m *orderedStringMap) delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

func (m *orderedStringMap) Keys() []string {
	return m.keys
}

func (m *orderedStringMap) Len() int {
	return len(m.keys)
}

func (m *orderedStringMap) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range m.keys {
		kv, err := json.Marshal(map[string]string{k: m.values[k]})
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, kv[1:len(kv)-1]...)
	}
	return append(buf, '}'), nil
}

func (m *orderedStringMap) UnmarshalJSON(data []byte) error {
	*m = *newOrderedStringMap()
	return decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		m.set(key, v)
		return nil
	})
}

// orderedFieldMap preserves child-insertion order for a FieldNode's
// selection set, since the renderer emits child fields in the order they
// were selected.
type orderedFieldMap struct {
	keys   []string
	values map[string]*FieldNode
}

func newOrderedFieldMap() *orderedFieldMap {
	return &orderedFieldMap{values: map[string]*FieldNode{}}
}

func (m *orderedFieldMap) set(key string, node *FieldNode) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = node
}

func (m *orderedFieldMap) get(key string) (*FieldNode, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Get returns the child FieldNode stored for key.
func (m *orderedFieldMap) Get(key string) (*FieldNode, bool) { return m.get(key) }

// Set stores node for key, appending key to the insertion order on first
// use.
func (m *orderedFieldMap) Set(key string, node *FieldNode) { m.set(key, node) }

// Delete removes key, reporting whether it was present.
func (m *orderedFieldMap) Delete(key string) bool { return m.delete(key) }

func (m *orderedFieldMap) delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

func (m *orderedFieldMap) Keys() []string {
	return m.keys
}

func (m *orderedFieldMap) Values() []*FieldNode {
	out := make([]*FieldNode, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.values[k]
	}
	return out
}

func (m *orderedFieldMap) Len() int {
	return len(m.keys)
}

func (m *orderedFieldMap) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range m.keys {
		kv, err := json.Marshal(map[string]*FieldNode{k: m.values[k]})
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, kv[1:len(kv)-1]...)
	}
	return append(buf, '}'), nil
}

func (m *orderedFieldMap) UnmarshalJSON(data []byte) error {
	*m = *newOrderedFieldMap()
	return decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var v *FieldNode
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		m.set(key, v)
		return nil
	})
}

// orderedArgMap preserves argument-insertion order for a FieldNode's args,
// since the renderer emits arguments in the order they were set.
type orderedArgMap struct {
	keys   []string
	values map[string]*ArgValue
}

func newOrderedArgMap() *orderedArgMap {
	return &orderedArgMap{values: map[string]*ArgValue{}}
}

func (m *orderedArgMap) set(key string, v *ArgValue) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *orderedArgMap) get(key string) (*ArgValue, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Get returns the ArgValue stored for key.
func (m *orderedArgMap) Get(key string) (*ArgValue, bool) { return m.get(key) }

// Set stores v for key, appending key to the insertion order on first
// use.
func (m *orderedArgMap) Set(key string, v *ArgValue) { m.set(key, v) }

func (m *orderedArgMap) Keys() []string {
	return m.keys
}

func (m *orderedArgMap) Len() int {
	return len(m.keys)
}

func (m *orderedArgMap) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range m.keys {
		kv, err := json.Marshal(map[string]*ArgValue{k: m.values[k]})
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, kv[1:len(kv)-1]...)
	}
	return append(buf, '}'), nil
}

func (m *orderedArgMap) UnmarshalJSON(data []byte) error {
	*m = *newOrderedArgMap()
	return decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var v *ArgValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		m.set(key, v)
		return nil
	})
}
