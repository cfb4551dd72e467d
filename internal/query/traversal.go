package query

import (
	"strings"

	"github.com/DeusData/kb-query/internal/schema"
)

// builtinAccessor recognizes the single-step vertex accessors in, out, both,
// their V-suffixed forms, and both with a trailing "()". It returns the
// canonical rendered form, e.g. "inV()".
func builtinAccessor(attr string) (string, bool) {
	base := strings.TrimSuffix(attr, "()")
	base = strings.TrimSuffix(base, "V")
	switch Direction(base) {
	case DirectionIn, DirectionOut, DirectionBoth:
		return base + "V()", true
	}
	return "", false
}

// ParseTraversalString parses path notation against model.
func ParseTraversalString(s *schema.Schema, model *schema.Model, path string) (*Traversal, error) {
	return ParseTraversal(s, model, Notation(path))
}

// ParseTraversal resolves a traversal description against the schema. model
// may be nil when the starting class is unknown (after an edge step).
func ParseTraversal(s *schema.Schema, model *schema.Model, spec *TraversalSpec) (*Traversal, error) {
	if spec == nil {
		return nil, attrErrorf("missing traversal")
	}
	if spec.notation {
		expanded, err := ParseNotation(spec.Attr)
		if err != nil {
			return nil, err
		}
		spec = expanded
	}
	local := *spec
	spec = &local
	spec.Type = TraversalType(strings.ToUpper(string(spec.Type)))

	var props map[string]*schema.Property
	if model != nil {
		props = model.QueryProperties()
	} else {
		props = s.UnanchoredProperties()
	}

	cast, err := specCast(spec)
	if err != nil {
		return nil, err
	}

	if spec.isEdge() {
		return parseEdge(s, spec, cast)
	}

	prop := props[spec.Attr]
	accessor, isBuiltin := builtinAccessor(spec.Attr)
	t := &Traversal{Attr: spec.Attr, Cast: cast}
	if isBuiltin && prop == nil {
		t.Attr = accessor
		if t.Cast == nil {
			t.Cast = schema.CastToRID
		}
	}

	if spec.Child != nil {
		if spec.Attr == "" {
			return nil, attrErrorf("attr is a required property for link-type traversals")
		}
		t.Type = TraversalLink
		switch {
		case prop != nil:
			t.Property = prop
			if prop.LinkedClass == "" {
				return nil, attrErrorf("the traversal (%s) was defined as a link but the property (%s) does not have a linkedClass", spec.Attr, prop.Name)
			}
			linked, ok := s.Get(prop.LinkedClass)
			if !ok {
				return nil, attrErrorf("the property (%s) links to an unknown class (%s)", prop.Name, prop.LinkedClass)
			}
			if t.Child, err = ParseTraversal(s, linked, spec.Child); err != nil {
				return nil, err
			}
		case isBuiltin:
			if t.Child, err = ParseTraversal(s, nil, spec.Child); err != nil {
				return nil, err
			}
		default:
			return nil, attrErrorf("the expected property (%s) has no definition", spec.Attr)
		}
		return t, nil
	}

	t.Type = TraversalDirect
	switch {
	case prop != nil:
		t.Property = prop
	case spec.Attr == SizeComputation:
		if t.Cast == nil {
			t.Cast = schema.CastDecimalInteger
		}
	case isBuiltin:
	default:
		return nil, attrErrorf("the expected property (%s) has no property on the current model (%s)", spec.Attr, modelName(model))
	}
	return t, nil
}

func parseEdge(s *schema.Schema, spec *TraversalSpec, cast schema.CastFunc) (*Traversal, error) {
	if spec.Attr != "" {
		return nil, attrErrorf("edges do not require the attr property since they are not named")
	}
	for _, name := range spec.Edges {
		if !s.Has(name) {
			return nil, attrErrorf("invalid edge class: %s", name)
		}
	}
	dir, ok := parseDirection(spec.Direction)
	if !ok {
		return nil, attrErrorf("invalid direction (%s)", spec.Direction)
	}
	if cast == nil {
		cast = schema.CastToRID
	}
	t := &Traversal{
		Type:      TraversalEdge,
		Edges:     append([]string{}, spec.Edges...),
		Direction: dir,
		Cast:      cast,
	}
	if spec.Child != nil {
		child := *spec.Child
		switch {
		case child.Attr == vertexSentinel:
			child = TraversalSpec{Attr: dir.vertexAccessor(), Child: child.Child}
		case child.notation && strings.HasPrefix(child.Attr, vertexSentinel+"."):
			child.Attr = dir.vertexAccessor() + strings.TrimPrefix(child.Attr, vertexSentinel)
		}
		var err error
		if t.Child, err = ParseTraversal(s, nil, &child); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func specCast(spec *TraversalSpec) (schema.CastFunc, error) {
	if spec.Cast == "" {
		return nil, nil
	}
	c, ok := schema.LookupCast(spec.Cast)
	if !ok {
		return nil, attrErrorf("unknown cast (%s)", spec.Cast)
	}
	return c, nil
}

func modelName(m *schema.Model) string {
	if m == nil {
		return "unanchored"
	}
	return m.Name
}

// String renders the traversal in statement syntax.
func (t *Traversal) String() string {
	switch t.Type {
	case TraversalEdge:
		base := string(t.Direction) + "E(" + quotedList(t.Edges) + ")"
		if t.Child != nil {
			return base + "." + t.Child.String()
		}
		return base
	case TraversalLink:
		if t.Child != nil {
			return t.Attr + "." + t.Child.String()
		}
	}
	return t.Attr
}

// TerminalProperty is the property resolved by the last step of the chain.
func (t *Traversal) TerminalProperty() *schema.Property {
	for t.Child != nil {
		t = t.Child
	}
	return t.Property
}

// TerminalCast is the cast function of the last step of the chain.
func (t *Traversal) TerminalCast() schema.CastFunc {
	for t.Child != nil {
		t = t.Child
	}
	return t.Cast
}

func quoteWrap(s string) string {
	return "'" + s + "'"
}
