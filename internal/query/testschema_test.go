package query

import (
	"encoding/json"
	"testing"

	"github.com/DeusData/kb-query/internal/schema"
)

const testSchemaYAML = `
classes:
  - name: V
    abstract: true
    properties:
      - {name: "@rid", type: link}
      - {name: "@class", type: string}
      - {name: uuid, type: string, cast: uuid}
      - {name: createdAt, type: long}
      - {name: deletedAt, type: long}
      - {name: name, type: string}
  - name: E
    abstract: true
    edge: true
    properties:
      - {name: "@rid", type: link}
      - {name: "@class", type: string}
      - {name: deletedAt, type: long}
      - {name: level, type: link, linked_class: EvidenceLevel}
  - name: Source
    inherits: [V]
    properties:
      - {name: name, type: string, cast: lowercase}
      - {name: url, type: string}
  - name: Ontology
    inherits: [V]
    abstract: true
    properties:
      - {name: name, type: string, cast: lowercase}
      - {name: sourceId, type: string, cast: lowercase}
      - {name: source, type: link, linked_class: Source}
      - {name: subsets, type: embeddedset, cast: lowercase}
      - {name: deprecated, type: boolean}
      - {name: dependency, type: link, linked_class: Ontology}
  - {name: Disease, inherits: [Ontology]}
  - {name: EvidenceLevel, inherits: [Ontology]}
  - {name: Vocabulary, inherits: [Ontology]}
  - name: Feature
    inherits: [Ontology]
    properties:
      - {name: biotype, type: string, choices: [gene, protein, transcript]}
  - name: Variant
    inherits: [V]
    properties:
      - {name: type, type: link, linked_class: Vocabulary}
      - {name: reference1, type: link, linked_class: Feature}
      - {name: reference2, type: link, linked_class: Feature}
      - {name: zygosity, type: string, choices: [heterozygous, homozygous]}
      - {name: break1Start, type: integer}
  - name: Statement
    inherits: [V]
    properties:
      - {name: appliesTo, type: link, linked_class: Ontology}
      - {name: relevance, type: link, linked_class: Vocabulary}
      - {name: conditions, type: linkset, linked_class: V}
  - {name: AliasOf, inherits: [E]}
  - {name: SubclassOf, inherits: [E]}
  - {name: ImpliedBy, inherits: [E]}
  - {name: SupportedBy, inherits: [E]}
  - {name: GeneralizationOf, inherits: [E]}
  - {name: DeprecatedBy, inherits: [E]}
  - {name: CrossReferenceOf, inherits: [E]}
  - {name: ElementOf, inherits: [E]}
`

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Load([]byte(testSchemaYAML))
	if err != nil {
		t.Fatalf("load test schema: %v", err)
	}
	return s
}

func testModel(t *testing.T, s *schema.Schema, name string) *schema.Model {
	t.Helper()
	m, ok := s.Get(name)
	if !ok {
		t.Fatalf("test schema has no class %s", name)
	}
	return m
}

func decode[T any](t *testing.T, data string) *T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return &v
}
