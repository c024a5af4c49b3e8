package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Kind identifies which member of the Value union is set
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindList
	KindMap
)

// String returns a human-readable kind name for error messages
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a closed tagged union over the parameter shapes the engine accepts:
// string, number, boolean, ordered list of Value, and string-keyed map of Value.
// Anything else (functions, arbitrary objects, code-carrying payloads) is
// rejected at the boundary by FromAny.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
}

// Constructors

func String(s string) Value  { return Value{kind: KindString, str: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }

func List(items ...Value) Value {
	return Value{kind: KindList, list: items}
}

func Map(m map[string]Value) Value {
	if m == nil {
		m = make(map[string]Value)
	}
	return Value{kind: KindMap, m: m}
}

// Accessors

func (v Value) Kind() Kind { return v.kind }

func (v Value) Str() string           { return v.str }
func (v Value) Num() float64          { return v.num }
func (v Value) BoolVal() bool         { return v.b }
func (v Value) Items() []Value        { return v.list }
func (v Value) Fields() map[string]Value { return v.m }

// Field returns a named field of a map value and whether it was present.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	val, ok := v.m[name]
	return val, ok
}

// Render returns the textual form of a scalar value as it appears in
// generated source. Lists and maps have no single textual form.
func (v Value) Render() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Equal reports deep equality between two values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, val := range v.m {
			o, ok := other.m[k]
			if !ok || !val.Equal(o) {
				return false
			}
		}
		return true
	}
	return false
}

// codePattern flags string values that look like executable code rather than
// data. Parameters are substituted verbatim into generated source, so a value
// carrying statements or template syntax would turn the parameter channel into
// an injection path.
var codePattern = regexp.MustCompile(`(?i)(\bfunction\b|=>|\beval\b|\brequire\s*\(|\bimport\s|<script|\{\{|\}\})`)

// FromAny validates an arbitrary decoded value (typically from JSON or YAML)
// into the closed Value union. Unsupported shapes return a *ValidationError.
func FromAny(name string, raw any) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Value{}, &ValidationError{
			Param:      name,
			Message:    "null is not an accepted parameter value",
			Suggestion: "omit the parameter or provide a concrete value",
		}
	case string:
		if codePattern.MatchString(val) {
			return Value{}, &ValidationError{
				Param:      name,
				Message:    fmt.Sprintf("value %q looks like executable code", truncate(val, 40)),
				Suggestion: "parameters must be plain data, not code fragments",
			}
		}
		return String(val), nil
	case bool:
		return Bool(val), nil
	case float64:
		return Number(val), nil
	case int:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Value{}, &ValidationError{Param: name, Message: fmt.Sprintf("invalid number %q", val.String())}
		}
		return Number(f), nil
	case []any:
		items := make([]Value, 0, len(val))
		for i, item := range val {
			v, err := FromAny(fmt.Sprintf("%s[%d]", name, i), item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return List(items...), nil
	case map[string]any:
		m := make(map[string]Value, len(val))
		for k, item := range val {
			v, err := FromAny(name+"."+k, item)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return Map(m), nil
	default:
		return Value{}, &ValidationError{
			Param:      name,
			Message:    fmt.Sprintf("unsupported value type %T", raw),
			Suggestion: "use strings, numbers, booleans, arrays, or plain objects",
		}
	}
}

// MarshalJSON encodes a Value into its natural JSON shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		// Sort keys for deterministic output
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, _ := json.Marshal(k)
			vb, err := json.Marshal(v.m[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			buf = append(buf, vb...)
		}
		return append(buf, '}'), nil
	}
	return nil, fmt.Errorf("cannot marshal value of kind %v", v.kind)
}

// UnmarshalJSON decodes JSON into the Value union, rejecting shapes outside it.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny("", raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
