package query

import "strings"

const (
	// DefaultNeighbors is the default depth of a neighborhood walk.
	DefaultNeighbors = 3
	// MaxNeighbors caps the depth of a neighborhood walk.
	MaxNeighbors = 4
	// MaxTravelDepth caps ancestor/descendant walks.
	MaxTravelDepth = 50
	// MaxLimit is the largest page size a request may ask for.
	MaxLimit = 1000
	// ParamPrefix prefixes every bound parameter name.
	ParamPrefix = "param"
	// SizeComputation is the cardinality pseudo-attribute.
	SizeComputation = "size()"
	// vertexSentinel marks "the vertex at the other end of this edge" in requests.
	vertexSentinel = "vertex"
)

// NeighborhoodEdges are followed by a neighborhood query when no edges are given.
var NeighborhoodEdges = []string{
	"AliasOf",
	"GeneralizationOf",
	"DeprecatedBy",
	"CrossReferenceOf",
	"ElementOf",
}

// FuzzyClasses are the edges followed when matching loosely (aliases and deprecations).
var FuzzyClasses = []string{"AliasOf", "DeprecatedBy"}

// DefaultTreeEdges are followed by ancestor/descendant queries when no edges are given.
var DefaultTreeEdges = []string{"SubclassOf"}

// Direction is the direction of an edge step.
type Direction string

const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"
)

func parseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(s)) {
	case DirectionOut:
		return DirectionOut, true
	case DirectionIn:
		return DirectionIn, true
	case DirectionBoth, "":
		return DirectionBoth, true
	}
	return Direction(s), false
}

// vertexAccessor is the accessor reading the far endpoint of an edge walked in d.
func (d Direction) vertexAccessor() string {
	switch d {
	case DirectionOut:
		return "inV"
	case DirectionIn:
		return "outV"
	}
	return "bothV"
}

// Operator is a comparison or boolean operator as rendered in a statement.
type Operator string

const (
	OpEQ           Operator = "="
	OpContains     Operator = "CONTAINS"
	OpContainsAll  Operator = "CONTAINSALL"
	OpContainsText Operator = "CONTAINSTEXT"
	OpIn           Operator = "IN"
	OpGTE          Operator = ">="
	OpGT           Operator = ">"
	OpLTE          Operator = "<="
	OpLT           Operator = "<"
	OpIs           Operator = "IS"
	OpOr           Operator = "OR"
	OpAnd          Operator = "AND"
)

// operatorNames maps upper-case operator names to their rendered form.
var operatorNames = map[string]Operator{
	"EQ":           OpEQ,
	"CONTAINS":     OpContains,
	"CONTAINSALL":  OpContainsAll,
	"CONTAINSTEXT": OpContainsText,
	"IN":           OpIn,
	"GTE":          OpGTE,
	"GT":           OpGT,
	"LTE":          OpLTE,
	"LT":           OpLT,
	"IS":           OpIs,
	"OR":           OpOr,
	"AND":          OpAnd,
}

// lookupOperator accepts either the rendered form ("=", ">=") or the name ("EQ", "GTE").
func lookupOperator(s string) (Operator, bool) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if op, ok := operatorNames[up]; ok {
		return op, true
	}
	for _, op := range operatorNames {
		if string(op) == up {
			return op, true
		}
	}
	return Operator(s), false
}

func (op Operator) isRange() bool {
	return op == OpGT || op == OpGTE || op == OpLT || op == OpLTE
}

func (op Operator) isBoolean() bool {
	return op == OpAnd || op == OpOr
}

func legalOperators() string {
	return "=, CONTAINS, CONTAINSALL, CONTAINSTEXT, IN, >=, >, <=, <, IS"
}
