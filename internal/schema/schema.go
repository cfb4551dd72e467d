package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Names of the abstract base classes every edge and vertex class inherits from.
const (
	EdgeBase   = "E"
	VertexBase = "V"
)

// Property describes a single queryable attribute of a class.
type Property struct {
	Name        string
	Type        string   // e.g. "string", "integer", "link", "linkset", "embeddedset"
	Iterable    bool     // set/list/bag valued
	LinkedClass string   // name of the referenced class (link-typed properties only)
	Cast        CastFunc // optional; applied to values compared against this property
	CastName    string   // registry name of Cast, kept for persistence
	Choices     []string // optional enumeration of legal values
}

// HasChoice reports whether v is one of the declared choices.
// A property without choices accepts everything.
func (p *Property) HasChoice(v any) bool {
	if len(p.Choices) == 0 {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, c := range p.Choices {
		if c == s {
			return true
		}
	}
	return false
}

// Model is a class definition in the schema snapshot.
type Model struct {
	Name       string
	Inherits   []string
	IsEdge     bool
	IsAbstract bool
	Properties map[string]*Property // own properties only

	queryProps map[string]*Property // own + inherited, resolved by NewSchema
}

// QueryProperties returns every property that may be referenced in a query
// against this class, including inherited ones.
func (m *Model) QueryProperties() map[string]*Property {
	if m.queryProps != nil {
		return m.queryProps
	}
	return m.Properties
}

// Property looks up a query property by name.
func (m *Model) Property(name string) (*Property, bool) {
	p, ok := m.QueryProperties()[name]
	return p, ok
}

// Schema is an immutable, already-resolved snapshot of the class registry.
// It is safe for concurrent reads.
type Schema struct {
	models map[string]*Model // keyed by lower-cased name
	names  []string          // sorted canonical names
}

// NewSchema resolves inheritance and linked-class references and returns the
// snapshot. Models are not copied; callers must not mutate them afterwards.
func NewSchema(models ...*Model) (*Schema, error) {
	s := &Schema{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		if m == nil || m.Name == "" {
			return nil, fmt.Errorf("model without a name")
		}
		key := strings.ToLower(m.Name)
		if _, dup := s.models[key]; dup {
			return nil, fmt.Errorf("duplicate class %q", m.Name)
		}
		if m.Properties == nil {
			m.Properties = map[string]*Property{}
		}
		s.models[key] = m
		s.names = append(s.names, m.Name)
	}
	sort.Strings(s.names)

	for _, name := range s.names {
		m := s.models[strings.ToLower(name)]
		props, err := s.resolve(m, map[string]bool{})
		if err != nil {
			return nil, err
		}
		m.queryProps = props
	}

	for _, name := range s.names {
		m := s.models[strings.ToLower(name)]
		for _, p := range m.Properties {
			if p.LinkedClass != "" && !s.Has(p.LinkedClass) {
				return nil, fmt.Errorf("property %s.%s links to unknown class %q", m.Name, p.Name, p.LinkedClass)
			}
		}
	}
	return s, nil
}

// resolve merges inherited properties, parents first so own definitions win.
func (s *Schema) resolve(m *Model, visiting map[string]bool) (map[string]*Property, error) {
	if visiting[m.Name] {
		return nil, fmt.Errorf("inheritance cycle at class %q", m.Name)
	}
	visiting[m.Name] = true
	defer delete(visiting, m.Name)

	props := map[string]*Property{}
	for _, parentName := range m.Inherits {
		parent, ok := s.Get(parentName)
		if !ok {
			return nil, fmt.Errorf("class %q inherits unknown class %q", m.Name, parentName)
		}
		inherited, err := s.resolve(parent, visiting)
		if err != nil {
			return nil, err
		}
		if parent.IsEdge {
			m.IsEdge = true
		}
		for k, v := range inherited {
			props[k] = v
		}
	}
	for k, v := range m.Properties {
		props[k] = v
	}
	return props, nil
}

// Get looks up a class by name, ignoring case.
func (s *Schema) Get(name string) (*Model, bool) {
	m, ok := s.models[strings.ToLower(name)]
	return m, ok
}

// Has reports whether a class with the given name exists, ignoring case.
func (s *Schema) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Names returns the canonical class names in sorted order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Models returns every class sorted by name.
func (s *Schema) Models() []*Model {
	out := make([]*Model, 0, len(s.names))
	for _, n := range s.names {
		out = append(out, s.models[strings.ToLower(n)])
	}
	return out
}

// UnanchoredProperties is the property set used when the class of the current
// record is not known, e.g. after stepping over an edge. Vertex definitions win
// over edge definitions of the same name.
func (s *Schema) UnanchoredProperties() map[string]*Property {
	props := map[string]*Property{}
	if e, ok := s.Get(EdgeBase); ok {
		for k, v := range e.QueryProperties() {
			props[k] = v
		}
	}
	if v, ok := s.Get(VertexBase); ok {
		for k, p := range v.QueryProperties() {
			props[k] = p
		}
	}
	return props
}

func sortedKeys(props map[string]*Property) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PropertyNames returns the query property names of m in sorted order.
func PropertyNames(m *Model) []string {
	return sortedKeys(m.QueryProperties())
}
