package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the YAML form of a schema snapshot.
type Document struct {
	Classes []ClassDoc `yaml:"classes" json:"classes"`
}

// ClassDoc is the YAML form of a single class.
type ClassDoc struct {
	Name       string        `yaml:"name" json:"name"`
	Inherits   []string      `yaml:"inherits,omitempty" json:"inherits,omitempty"`
	Edge       bool          `yaml:"edge,omitempty" json:"edge,omitempty"`
	Abstract   bool          `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Properties []PropertyDoc `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// PropertyDoc is the YAML form of a single property.
type PropertyDoc struct {
	Name        string   `yaml:"name" json:"name"`
	Type        string   `yaml:"type,omitempty" json:"type,omitempty"`
	Iterable    bool     `yaml:"iterable,omitempty" json:"iterable,omitempty"`
	LinkedClass string   `yaml:"linked_class,omitempty" json:"linked_class,omitempty"`
	Cast        string   `yaml:"cast,omitempty" json:"cast,omitempty"`
	Choices     []string `yaml:"choices,omitempty" json:"choices,omitempty"`
}

// LoadFile reads a YAML schema document from disk.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Load(data)
}

// Load parses a YAML schema document.
func Load(data []byte) (*Schema, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return doc.Build()
}

// Build converts the document into a resolved snapshot.
func (d *Document) Build() (*Schema, error) {
	models := make([]*Model, 0, len(d.Classes))
	for _, c := range d.Classes {
		m := &Model{
			Name:       c.Name,
			Inherits:   c.Inherits,
			IsEdge:     c.Edge,
			IsAbstract: c.Abstract,
			Properties: make(map[string]*Property, len(c.Properties)),
		}
		for _, pd := range c.Properties {
			p := &Property{
				Name:        pd.Name,
				Type:        pd.Type,
				Iterable:    pd.Iterable,
				LinkedClass: pd.LinkedClass,
				CastName:    pd.Cast,
				Choices:     pd.Choices,
			}
			if err := ApplyTypeDefaults(p); err != nil {
				return nil, fmt.Errorf("class %s: %w", c.Name, err)
			}
			m.Properties[p.Name] = p
		}
		models = append(models, m)
	}
	return NewSchema(models...)
}

// Describe converts a snapshot back into its document form.
func Describe(s *Schema) *Document {
	doc := &Document{}
	for _, m := range s.Models() {
		c := ClassDoc{
			Name:     m.Name,
			Inherits: m.Inherits,
			Edge:     m.IsEdge,
			Abstract: m.IsAbstract,
		}
		for _, name := range sortedKeys(m.Properties) {
			p := m.Properties[name]
			c.Properties = append(c.Properties, PropertyDoc{
				Name:        p.Name,
				Type:        p.Type,
				Iterable:    p.Iterable,
				LinkedClass: p.LinkedClass,
				Cast:        p.CastName,
				Choices:     p.Choices,
			})
		}
		doc.Classes = append(doc.Classes, c)
	}
	return doc
}
