package query

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func compileRequest(t *testing.T, body string) (*Query, Statement) {
	t.Helper()
	s := testSchema(t)
	req, err := DecodeRequest([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	q, stmt, err := Compile(s, testModel(t, s, req.Class), req, 0)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return q, stmt
}

func compileError(t *testing.T, body string) error {
	t.Helper()
	s := testSchema(t)
	req, err := DecodeRequest([]byte(body))
	if err != nil {
		return err
	}
	_, _, err = Compile(s, testModel(t, s, req.Class), req, 0)
	if err == nil {
		t.Fatalf("expected error compiling %s", body)
	}
	return err
}

func TestCompileStatements(t *testing.T) {
	neighborhoodEdges := "'AliasOf', 'GeneralizationOf', 'DeprecatedBy', 'CrossReferenceOf', 'ElementOf'"
	tests := []struct {
		name   string
		body   string
		want   string
		params map[string]any
	}{
		{
			"active only",
			`{"class": "Disease", "where": [{"attr": "name", "value": "thing"}]}`,
			"SELECT * FROM Disease WHERE name = :param0 AND deletedAt IS NULL",
			map[string]any{"param0": "thing"},
		},
		{
			"no conditions",
			`{"class": "Disease", "activeOnly": false}`,
			"SELECT * FROM Disease",
			map[string]any{},
		},
		{
			"order by",
			`{"class": "Disease", "orderBy": ["@rid"], "activeOnly": false}`,
			"SELECT * FROM Disease ORDER BY @rid ASC",
			map[string]any{},
		},
		{
			"order by multiple descending",
			`{"class": "Disease", "orderBy": ["@rid", "@class"], "orderByDirection": "DESC", "activeOnly": false}`,
			"SELECT * FROM Disease ORDER BY @rid, @class DESC",
			map[string]any{},
		},
		{
			"return properties with skip",
			`{"class": "Disease", "returnProperties": ["name", "source.name"], "skip": 10, "limit": 100, "activeOnly": false}`,
			"SELECT name, source.name FROM Disease SKIP 10",
			map[string]any{},
		},
		{
			"zero skip is omitted",
			`{"class": "Disease", "skip": 0, "activeOnly": false}`,
			"SELECT * FROM Disease",
			map[string]any{},
		},
		{
			"single where object",
			`{"class": "Disease", "where": {"attr": "name", "value": "Thing"}, "activeOnly": false}`,
			"SELECT * FROM Disease WHERE name = :param0",
			map[string]any{"param0": "thing"},
		},
		{
			"subquery",
			`{"class": "Disease", "where": [{"attr": "source", "value": {"class": "Source", "where": [{"attr": "name", "value": "disease-ontology"}]}}]}`,
			"SELECT * FROM Disease WHERE source IN (SELECT * FROM Source WHERE name = :param0 AND deletedAt IS NULL) AND deletedAt IS NULL",
			map[string]any{"param0": "disease-ontology"},
		},
		{
			"neighborhood subquery",
			`{"class": "Disease", "activeOnly": false, "where": [{"attr": "source", "value": {"class": "Source", "type": "neighborhood", "activeOnly": false, "where": [{"attr": "name", "value": "disease-ontology"}]}}]}`,
			"SELECT * FROM Disease WHERE source IN (SELECT * FROM (MATCH {class: Source, WHERE: (name = :param0)}.both(" +
				neighborhoodEdges + "){WHILE: ($depth < 3)} RETURN $pathElements))",
			map[string]any{"param0": "disease-ontology"},
		},
		{
			"edge traversal into neighborhood",
			`{"class": "V", "limit": 1000, "neighbors": 3, "where": {"attr": "inE(ImpliedBy).vertex", "value": {"type": "neighborhood", "class": "Feature", "where": [{"attr": "name", "value": "KRAS"}], "depth": 3}}}`,
			"SELECT * FROM V WHERE inE('ImpliedBy').outV() IN (SELECT * FROM (MATCH {class: Feature, WHERE: (name = :param0 AND deletedAt IS NULL)}.both(" +
				neighborhoodEdges + "){WHILE: ($depth < 3)} RETURN $pathElements)) AND deletedAt IS NULL",
			map[string]any{"param0": "kras"},
		},
		{
			"nested clause",
			`{"class": "Disease", "activeOnly": false, "where": [
				{"attr": "deprecated", "value": false},
				{"operator": "OR", "comparisons": [{"attr": "name", "value": "a"}, {"attr": "sourceId", "value": "b"}]}
			]}`,
			"SELECT * FROM Disease WHERE deprecated = :param0 AND (name = :param1 OR sourceId = :param2)",
			map[string]any{"param0": false, "param1": "a", "param2": "b"},
		},
		{
			"size of edges",
			`{"class": "Disease", "activeOnly": false, "where": [{"attr": "out(AliasOf).size()", "value": "2", "operator": ">"}]}`,
			"SELECT * FROM Disease WHERE outE('AliasOf').size() > :param0",
			map[string]any{"param0": 2},
		},
		{
			"null comparison",
			`{"class": "Disease", "activeOnly": false, "where": [{"attr": "source", "value": null}]}`,
			"SELECT * FROM Disease WHERE source IS NULL",
			map[string]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stmt := compileRequest(t, tt.body)
			if stmt.Query != tt.want {
				t.Errorf("expected\n  %s\ngot\n  %s", tt.want, stmt.Query)
			}
			if !reflect.DeepEqual(stmt.Params, tt.params) {
				t.Errorf("expected params %v, got %v", tt.params, stmt.Params)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"bad direction", `{"class": "Disease", "orderByDirection": "SIDEWAYS"}`, "orderByDirection"},
		{"bad return property", `{"class": "Disease", "returnProperties": ["blargh"]}`, "invalid return/ordering property"},
		{"bad order by", `{"class": "Disease", "orderBy": ["blargh.name"]}`, "invalid return/ordering property"},
		{"return property with trailing text", `{"class": "Disease", "returnProperties": ["source.name FROM Statement WHERE 1=1 --"]}`, "invalid return/ordering property"},
		{"order by with direction", `{"class": "Disease", "orderBy": ["name DESC, @rid"]}`, "invalid return/ordering property"},
		{"empty where object", `{"class": "Disease", "where": {}}`, "at least one comparison"},
		{"empty nested clause", `{"class": "Disease", "where": [{"operator": "OR", "comparisons": []}, {"attr": "name", "value": "x"}]}`, "at least one comparison"},
		{"negative skip", `{"class": "Disease", "skip": -1}`, "skip"},
		{"limit too small", `{"class": "Disease", "limit": 0}`, "invalid limit"},
		{"limit too large", `{"class": "Disease", "limit": 1001}`, "invalid limit"},
		{"neighbors too large", `{"class": "Disease", "neighbors": 5}`, "invalid neighbors"},
		{"unknown type", `{"class": "Disease", "type": "sideways"}`, "unknown query type"},
		{"unknown edge", `{"class": "Disease", "type": "ancestors", "edges": ["blargh"]}`, "invalid edge class"},
		{"neighborhood too deep", `{"class": "Disease", "type": "neighborhood", "depth": 5}`, "invalid depth"},
		{"tree too deep", `{"class": "Disease", "type": "descendants", "depth": 51}`, "invalid depth"},
		{"bad choice", `{"class": "Feature", "where": [{"attr": "biotype", "value": "monkey"}]}`, "enum values"},
		{"unknown attribute", `{"class": "Disease", "where": [{"attr": "blargh", "value": 1}]}`, "has no property"},
		{"bad operator", `{"class": "Disease", "where": [{"attr": "name", "value": "x", "operator": "!"}]}`, "invalid operator"},
		{"range on iterable", `{"class": "Disease", "where": [{"attr": "subsets", "value": "x", "operator": ">"}]}`, "iterable property"},
		{"bad rid", `{"class": "Disease", "where": [{"attr": "source", "value": "nope"}]}`, "invalid value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := compileError(t, tt.body)
			var ae *AttributeError
			if !errors.As(err, &ae) {
				t.Errorf("expected *AttributeError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("expected %q in error, got %q", tt.msg, err)
			}
		})
	}
}

func TestCompileKeepsLimitOutOfStatement(t *testing.T) {
	q, stmt := compileRequest(t, `{"class": "Disease", "limit": 25}`)
	if q.Limit == nil || *q.Limit != 25 {
		t.Fatalf("expected limit 25 on query, got %v", q.Limit)
	}
	if strings.Contains(stmt.Query, "LIMIT") {
		t.Errorf("limit must not be rendered: %s", stmt.Query)
	}
}

func TestCompileParamIndexOffset(t *testing.T) {
	s := testSchema(t)
	req, err := DecodeRequest([]byte(`{"class": "Disease", "type": "neighborhood", "where": [{"attr": "name", "value": "x"}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	_, stmt, err := Compile(s, testModel(t, s, "Disease"), req, 7)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(stmt.Query, "name = :param7 AND deletedAt IS NULL") {
		t.Errorf("unexpected query %s", stmt.Query)
	}
	if stmt.Params["param7"] != "x" || len(stmt.Params) != 1 {
		t.Errorf("unexpected params %v", stmt.Params)
	}
}

func TestQueryRenderIsIdempotent(t *testing.T) {
	q, first := compileRequest(t, `{"class": "Variant", "type": "ancestors", "where": [{"attr": "reference1.name", "value": "KRAS"}]}`)
	second, err := q.Render(0)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("renders differ: %+v vs %+v", first, second)
	}
}

func TestParseRecord(t *testing.T) {
	s := testSchema(t)
	off := false
	q, err := ParseRecord(s, testModel(t, s, "Disease"), map[string]any{
		"sourceId": "1234",
		"name":     "Cancer",
	}, &Request{ActiveOnly: &off})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := q.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	stmt, err := q.Render(0)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "SELECT * FROM Disease WHERE name = :param0 AND sourceId = :param1"
	if stmt.Query != want {
		t.Errorf("expected %q, got %q", want, stmt.Query)
	}
	if stmt.Params["param0"] != "cancer" || stmt.Params["param1"] != "1234" {
		t.Errorf("unexpected params %v", stmt.Params)
	}
}

func TestQueryDisplay(t *testing.T) {
	q, _ := compileRequest(t, `{"class": "Disease", "where": [{"attr": "name", "value": "thing"}, {"attr": "source", "value": {"@rid": "#12:3"}}]}`)
	got, err := q.Display()
	if err != nil {
		t.Fatalf("display: %v", err)
	}
	want := "SELECT * FROM Disease WHERE name = 'thing' AND source = #12:3 AND deletedAt IS NULL"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParseRequiresModel(t *testing.T) {
	if _, err := Parse(testSchema(t), nil, &Request{}); err == nil {
		t.Fatal("expected error without a model")
	}
}
