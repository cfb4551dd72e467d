package query

import (
	"errors"
	"strings"

	"github.com/DeusData/kb-query/internal/schema"
)

// NewComparison builds a comparison. An empty operator defaults to CONTAINS
// when the attribute is iterable and the value is not a list, otherwise to =.
func NewComparison(attr *Traversal, value any, operator string, negate bool) (*Comparison, error) {
	if attr == nil {
		return nil, attrErrorf("comparison requires an attribute")
	}
	op := OpEQ
	if operator == "" {
		if prop := attr.TerminalProperty(); prop != nil && prop.Iterable {
			if _, isList := asList(value); !isList {
				op = OpContains
			}
		}
	} else {
		var ok bool
		op, ok = lookupOperator(operator)
		if !ok || op.isBoolean() {
			return nil, attrErrorf("invalid operator (%s). Must be one of (%s)", operator, legalOperators())
		}
	}
	return &Comparison{Attr: attr, Value: value, Operator: op, Negate: negate}, nil
}

// Direct is a Direct traversal with no schema property attached.
func Direct(attr string) *Traversal {
	return &Traversal{Type: TraversalDirect, Attr: attr}
}

// ParseComparison resolves a comparison description against model.
func ParseComparison(s *schema.Schema, model *schema.Model, spec *ComparisonSpec) (*Comparison, error) {
	attr, err := ParseTraversal(s, model, spec.Attr)
	if err != nil {
		return nil, err
	}
	var value any = spec.Value.Literal
	if spec.Value.Query != nil {
		subModel, ok := s.Get(spec.Value.Query.Class)
		if !ok {
			subModel = model
		}
		if subModel == nil {
			return nil, attrErrorf("subquery class (%s) is not a known class", spec.Value.Query.Class)
		}
		sub, err := Parse(s, subModel, spec.Value.Query)
		if err != nil {
			return nil, err
		}
		value = sub
	}
	return NewComparison(attr, value, spec.Operator, spec.Negate)
}

// Validate casts the compared values and checks that the operator suits both
// the value and the property it is compared against.
func (c *Comparison) Validate() error {
	prop := c.Attr.TerminalProperty()
	cast := c.Attr.TerminalCast()
	if prop != nil && prop.Cast != nil {
		cast = prop.Cast
	}

	validateValue := func(v any) (any, error) {
		if prop != nil && v != nil && !prop.HasChoice(v) {
			return nil, attrErrorf("expect the property (%s) to be restricted to enum values but found: %v", prop.Name, v)
		}
		if cast == nil {
			return v, nil
		}
		out, err := cast(v)
		if err != nil {
			var ce *schema.CastError
			if errors.As(err, &ce) {
				return nil, attrErrorf("invalid value for (%s): %v", c.Attr, err)
			}
			return nil, err
		}
		return out, nil
	}

	if prop != nil && c.Operator.isRange() && prop.Iterable {
		return attrErrorf("non-equality operator (%s) cannot be used in conjunction with an iterable property (%s)", c.Operator, prop.Name)
	}

	if sub, ok := c.Value.(*Query); ok {
		return sub.Validate()
	}
	if list, ok := asList(c.Value); ok {
		values := make([]any, len(list))
		for i, v := range list {
			if v == nil {
				continue
			}
			out, err := validateValue(v)
			if err != nil {
				return err
			}
			values[i] = out
		}
		c.Value = values
		if prop != nil {
			if c.Operator == OpEQ && !prop.Iterable {
				return attrErrorf("using a direct comparison (%s) of a non-iterable property (%s) against a list or set", c.Operator, prop.Name)
			}
			if c.Operator == OpContains {
				return attrErrorf("CONTAINS should be used with non-iterable values (%s). To compare two iterables for intersecting values use IN instead", prop.Name)
			}
		}
		return nil
	}
	if c.Value == nil {
		if c.Operator != OpEQ && c.Operator != OpIs {
			return attrErrorf("invalid operator (%s) used for NULL comparison", c.Operator)
		}
		return nil
	}

	v, err := validateValue(c.Value)
	if err != nil {
		return err
	}
	c.Value = v
	if c.Operator == OpContains && prop != nil && !prop.Iterable {
		return attrErrorf("CONTAINS can only be used with iterable properties (%s). To check for a substring, use CONTAINSTEXT instead", prop.Name)
	}
	if c.Operator == OpIn {
		return attrErrorf("IN should only be used with iterable values")
	}
	if c.Operator == OpEQ && prop != nil && prop.Iterable {
		return attrErrorf("a direct comparison (%s) to an iterable property (%s) must be against an iterable value (%v)", c.Operator, prop.Name, c.Value)
	}
	return nil
}

// Render serializes the comparison with parameters numbered from paramIndex.
func (c *Comparison) Render(paramIndex int) (Statement, error) {
	text, b, err := c.render(newBinder(paramIndex))
	if err != nil {
		return Statement{}, err
	}
	return Statement{Query: text, Params: b.params}, nil
}

func (c *Comparison) render(b binder) (string, binder, error) {
	attr := c.Attr.String()
	var text string
	switch v := c.Value.(type) {
	case *Query:
		sub, next, err := v.render(b)
		if err != nil {
			return "", b, err
		}
		b = next
		text = attr + " " + string(OpIn) + " (" + sub + ")"
	case nil:
		text = attr + " " + string(OpIs) + " NULL"
	default:
		if list, ok := asList(v); ok {
			names := make([]string, len(list))
			for i, elem := range list {
				names[i], b = b.bind(elem)
			}
			text = attr + " " + string(c.Operator) + " [" + strings.Join(names, ", ") + "]"
		} else {
			var name string
			name, b = b.bind(v)
			text = attr + " " + string(c.Operator) + " " + name
		}
	}
	if c.Negate {
		text = "NOT (" + text + ")"
	}
	return text, b, nil
}

func (c *Comparison) terms() int { return 1 }

// asList normalizes the list shapes a value may take.
func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out, true
	case []schema.RID:
		out := make([]any, len(x))
		for i, r := range x {
			out[i] = r
		}
		return out, true
	}
	return nil, false
}
