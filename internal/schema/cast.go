package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// CastFunc normalizes a raw request value into the form stored in the database.
type CastFunc func(v any) (any, error)

// CastError reports a value that could not be cast.
type CastError struct {
	Value any
	Want  string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("expected %s but found %v (%T)", e.Want, e.Value, e.Value)
}

// RID is a record identifier: the cluster and the position inside it.
type RID struct {
	Cluster  int64
	Position int64
}

// String renders the identifier as #cluster:position.
func (r RID) String() string {
	return fmt.Sprintf("#%d:%d", r.Cluster, r.Position)
}

// MarshalJSON encodes the identifier as its string form.
func (r RID) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// ParseRID accepts "#12:3" or "12:3".
func ParseRID(s string) (RID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	cluster, position, ok := strings.Cut(s, ":")
	if !ok {
		return RID{}, &CastError{Value: s, Want: "a record id (#cluster:position)"}
	}
	c, err := strconv.ParseInt(cluster, 10, 64)
	if err != nil {
		return RID{}, &CastError{Value: s, Want: "a record id (#cluster:position)"}
	}
	p, err := strconv.ParseInt(position, 10, 64)
	if err != nil {
		return RID{}, &CastError{Value: s, Want: "a record id (#cluster:position)"}
	}
	return RID{Cluster: c, Position: p}, nil
}

// CastString trims strings and stringifies numbers and booleans.
func CastString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	return nil, &CastError{Value: v, Want: "a string"}
}

// CastLowercase is CastString followed by lower-casing.
func CastLowercase(v any) (any, error) {
	s, err := CastString(v)
	if err != nil {
		return nil, err
	}
	return strings.ToLower(s.(string)), nil
}

// CastDecimalInteger accepts integral numbers and base-10 integer strings.
func CastDecimalInteger(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case int32:
		return int(x), nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int(x), nil
		}
	case json.Number:
		if n, err := strconv.Atoi(x.String()); err == nil {
			return n, nil
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, nil
		}
	}
	return nil, &CastError{Value: v, Want: "an integer"}
}

// CastBoolean accepts booleans and the strings t/true/1 and f/false/0/null.
func CastBoolean(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	s := strings.ToLower(fmt.Sprint(v))
	switch s {
	case "t", "true", "1":
		return true, nil
	case "f", "false", "0", "null":
		return false, nil
	}
	return nil, &CastError{Value: v, Want: "a boolean value"}
}

// CastToRID accepts an RID, its string form, or a record object carrying @rid.
func CastToRID(v any) (any, error) {
	switch x := v.(type) {
	case RID:
		return x, nil
	case *RID:
		if x != nil {
			return *x, nil
		}
	case string:
		return ParseRID(x)
	case map[string]any:
		if inner, ok := x["@rid"]; ok {
			return CastToRID(inner)
		}
	}
	return nil, &CastError{Value: v, Want: "a record id (#cluster:position)"}
}

// CastNullableLink is CastToRID that also accepts nil and the string "null".
func CastNullableLink(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.EqualFold(strings.TrimSpace(s), "null") {
		return nil, nil
	}
	return CastToRID(v)
}

// CastUUID validates a UUID and returns its canonical lower-case form.
func CastUUID(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, &CastError{Value: v, Want: "a uuid"}
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, &CastError{Value: v, Want: "a uuid"}
	}
	return id.String(), nil
}

var casts = map[string]CastFunc{
	"string":        CastString,
	"lowercase":     CastLowercase,
	"integer":       CastDecimalInteger,
	"boolean":       CastBoolean,
	"rid":           CastToRID,
	"nullable_link": CastNullableLink,
	"uuid":          CastUUID,
}

// LookupCast returns the named cast function.
func LookupCast(name string) (CastFunc, bool) {
	c, ok := casts[strings.ToLower(name)]
	return c, ok
}

// typeDefaults maps a property type to its default cast name and iterability.
var typeDefaults = map[string]struct {
	cast     string
	iterable bool
}{
	"string":       {"", false},
	"integer":      {"integer", false},
	"long":         {"integer", false},
	"boolean":      {"boolean", false},
	"link":         {"rid", false},
	"linkset":      {"rid", true},
	"linklist":     {"rid", true},
	"linkbag":      {"rid", true},
	"embeddedset":  {"", true},
	"embeddedlist": {"", true},
	"embedded":     {"", false},
	"datetime":     {"", false},
	"long_date":    {"integer", false},
}

// ApplyTypeDefaults fills Cast and Iterable from the property type when they
// have not been set explicitly.
func ApplyTypeDefaults(p *Property) error {
	if p.CastName != "" && p.Cast == nil {
		c, ok := LookupCast(p.CastName)
		if !ok {
			return fmt.Errorf("property %s: unknown cast %q", p.Name, p.CastName)
		}
		p.Cast = c
	}
	def, ok := typeDefaults[strings.ToLower(p.Type)]
	if !ok {
		if p.Type == "" {
			return nil
		}
		return fmt.Errorf("property %s: unknown type %q", p.Name, p.Type)
	}
	if def.iterable {
		p.Iterable = true
	}
	if p.Cast == nil && def.cast != "" {
		p.CastName = def.cast
		p.Cast = casts[def.cast]
	}
	return nil
}
