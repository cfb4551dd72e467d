package query

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/DeusData/kb-query/internal/schema"
)

// Request is the untrusted JSON description of a query.
type Request struct {
	Class            string     `json:"class,omitempty"`
	Where            Conditions `json:"where,omitempty"`
	ReturnProperties []string   `json:"returnProperties,omitempty"`
	Skip             *int       `json:"skip,omitempty"`
	Limit            *int       `json:"limit,omitempty"`
	OrderBy          []string   `json:"orderBy,omitempty"`
	OrderByDirection string     `json:"orderByDirection,omitempty"`
	ActiveOnly       *bool      `json:"activeOnly,omitempty"`
	Neighbors        *int       `json:"neighbors,omitempty"`
	Type             string     `json:"type,omitempty"`
	Edges            []string   `json:"edges,omitempty"`
	Depth            *int       `json:"depth,omitempty"`
}

// DecodeRequest parses a JSON request body.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Conditions accepts either a single condition object or a list of them.
type Conditions []Condition

func (c *Conditions) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []Condition
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*c = list
		return nil
	}
	var single Condition
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*c = Conditions{single}
	return nil
}

// Condition is a where-entry: exactly one of Comparison or Clause is set.
// The kind is decided once, here: an object with "comparisons" or without
// "attr" is a clause.
type Condition struct {
	Comparison *ComparisonSpec
	Clause     *ClauseSpec
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return attrErrorf("where conditions must be objects: %v", err)
	}
	_, hasComparisons := keys["comparisons"]
	_, hasAttr := keys["attr"]
	if hasComparisons || !hasAttr {
		var cl ClauseSpec
		if err := json.Unmarshal(data, &cl); err != nil {
			return err
		}
		c.Clause = &cl
		return nil
	}
	var cmp ComparisonSpec
	if err := json.Unmarshal(data, &cmp); err != nil {
		return err
	}
	c.Comparison = &cmp
	return nil
}

func (c Condition) MarshalJSON() ([]byte, error) {
	if c.Comparison != nil {
		return json.Marshal(c.Comparison)
	}
	if c.Clause != nil {
		return json.Marshal(c.Clause)
	}
	return []byte("null"), nil
}

// ClauseSpec is the JSON form of a Clause.
type ClauseSpec struct {
	Operator    string      `json:"operator,omitempty"`
	Comparisons []Condition `json:"comparisons"`
}

// ComparisonSpec is the JSON form of a Comparison.
type ComparisonSpec struct {
	Attr     *TraversalSpec `json:"attr"`
	Value    Value          `json:"value"`
	Operator string         `json:"operator,omitempty"`
	Negate   bool           `json:"negate,omitempty"`
}

// Value is a comparison value: a literal, or a sub-query when Query is set.
type Value struct {
	Literal any
	Query   *Request
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return json.Unmarshal(data, &v.Literal)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	if _, ok := keys["class"]; ok {
		var sub Request
		if err := json.Unmarshal(data, &sub); err != nil {
			return err
		}
		v.Query = &sub
		return nil
	}
	if raw, ok := keys["@rid"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return attrErrorf("@rid must be a string: %v", err)
		}
		rid, err := schema.ParseRID(s)
		if err != nil {
			return attrErrorf("%v", err)
		}
		v.Literal = rid
		return nil
	}
	return attrErrorf("value for a comparison must be a primitive value or a subquery; subqueries must contain the `class` attribute")
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Query != nil {
		return json.Marshal(v.Query)
	}
	return json.Marshal(v.Literal)
}

// TraversalSpec is the structured description of a traversal. A JSON string
// is kept as path notation and expanded when the traversal is parsed.
type TraversalSpec struct {
	Attr      string         `json:"attr,omitempty"`
	Type      TraversalType  `json:"type,omitempty"`
	Child     *TraversalSpec `json:"child,omitempty"`
	Edges     []string       `json:"edges,omitempty"`
	Direction string         `json:"direction,omitempty"`
	Cast      string         `json:"cast,omitempty"`

	notation bool
}

// Notation wraps a path-notation string.
func Notation(path string) *TraversalSpec {
	return &TraversalSpec{Attr: path, notation: true}
}

func (t *TraversalSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TraversalSpec{Attr: s, notation: true}
		return nil
	}
	type plain TraversalSpec
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("traversal: %w", err)
	}
	*t = TraversalSpec(p)
	return nil
}

// isEdge reports whether the spec describes an edge step.
func (t *TraversalSpec) isEdge() bool {
	return t.Type == TraversalEdge || t.Edges != nil || t.Direction != ""
}
