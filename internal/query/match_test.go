package query

import (
	"strings"
	"testing"
)

func nameEquals(t *testing.T, v string) *Comparison {
	t.Helper()
	c, err := NewComparison(Direct("name"), v, "", false)
	if err != nil {
		t.Fatalf("new comparison: %v", err)
	}
	return c
}

func TestNeighborhood(t *testing.T) {
	stmt, err := Neighborhood(MatchOptions{
		Where:     nameEquals(t, "blargh"),
		ModelName: "Disease",
		Edges:     []string{"AliasOf"},
		Depth:     2,
	})
	if err != nil {
		t.Fatalf("neighborhood: %v", err)
	}
	want := "SELECT * FROM (MATCH {class: Disease, WHERE: (name = :param0)}.both('AliasOf'){WHILE: ($depth < 2)} RETURN $pathElements)"
	if stmt.Query != want {
		t.Errorf("expected\n  %s\ngot\n  %s", want, stmt.Query)
	}
	if stmt.Params["param0"] != "blargh" {
		t.Errorf("unexpected params %v", stmt.Params)
	}
}

func TestNeighborhoodDefaults(t *testing.T) {
	stmt, err := Neighborhood(MatchOptions{ModelName: "Disease"})
	if err != nil {
		t.Fatalf("neighborhood: %v", err)
	}
	want := "SELECT * FROM (MATCH {class: Disease}.both('AliasOf', 'GeneralizationOf', 'DeprecatedBy', 'CrossReferenceOf', 'ElementOf'){WHILE: ($depth < 3)} RETURN $pathElements)"
	if stmt.Query != want {
		t.Errorf("expected\n  %s\ngot\n  %s", want, stmt.Query)
	}
	if len(stmt.Params) != 0 {
		t.Errorf("expected no params, got %v", stmt.Params)
	}
}

func TestNeighborhoodDepthRange(t *testing.T) {
	if _, err := Neighborhood(MatchOptions{ModelName: "Disease", Depth: 5}); err == nil {
		t.Error("expected error for depth 5")
	}
	if _, err := Neighborhood(MatchOptions{ModelName: "Disease", Depth: -1}); err == nil {
		t.Error("expected error for depth -1")
	}
}

func TestAncestorsDefaults(t *testing.T) {
	stmt, err := Ancestors(MatchOptions{Where: nameEquals(t, "kras"), ModelName: "Variant"})
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	want := "SELECT * FROM (MATCH {class: Variant, WHERE: (name = :param0)}.in('SubclassOf'){WHILE: (in('SubclassOf').size() > 0 AND $depth < 50)} RETURN $pathElements)"
	if stmt.Query != want {
		t.Errorf("expected\n  %s\ngot\n  %s", want, stmt.Query)
	}
}

func TestDescendants(t *testing.T) {
	stmt, err := Descendants(MatchOptions{
		Where:      NewClause(OpAnd, nameEquals(t, "a"), nameEquals(t, "b")),
		ModelName:  "Disease",
		Edges:      []string{"SubclassOf", "AliasOf"},
		Depth:      4,
		ParamIndex: 2,
	})
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	for _, want := range []string{
		"WHERE: (name = :param2 AND name = :param3)",
		".out('SubclassOf', 'AliasOf'){WHILE: (out('SubclassOf', 'AliasOf').size() > 0 AND $depth < 4)}",
	} {
		if !strings.Contains(stmt.Query, want) {
			t.Errorf("expected %q in %s", want, stmt.Query)
		}
	}
}

func TestTreeQueryDirection(t *testing.T) {
	if _, err := TreeQuery(MatchOptions{ModelName: "Disease", Direction: DirectionBoth}); err == nil {
		t.Error("expected error for direction both")
	}
	if _, err := TreeQuery(MatchOptions{ModelName: "Disease", Direction: DirectionOut, Depth: 51}); err == nil {
		t.Error("expected error for depth 51")
	}
}

func TestCastRangeInt(t *testing.T) {
	if v, err := CastRangeInt(3, 1, 3); err != nil || v != 3 {
		t.Errorf("expected 3, got %d (%v)", v, err)
	}
	if _, err := CastRangeInt(0, 1, 3); err == nil {
		t.Error("expected error below range")
	}
	if _, err := CastRangeInt(4, 1, 3); err == nil {
		t.Error("expected error above range")
	}
}
