package query

import "github.com/DeusData/kb-query/internal/schema"

// TraversalType tags the kind of a traversal step.
type TraversalType string

const (
	TraversalDirect TraversalType = "DIRECT" // a property or computed value of the current record
	TraversalLink   TraversalType = "LINK"   // follow a link property, then continue with Child
	TraversalEdge   TraversalType = "EDGE"   // follow edges of the given classes in Direction
)

// Traversal is one step of a path from a starting class to a compared value.
// Steps own their children; there are no back references.
type Traversal struct {
	Type      TraversalType
	Attr      string    // Direct and Link only
	Child     *Traversal
	Edges     []string  // Edge only; empty means every edge class
	Direction Direction // Edge only
	Cast      schema.CastFunc
	Property  *schema.Property
}

// Expression is a node of a where tree: a *Comparison or a *Clause.
type Expression interface {
	Validate() error
	Render(paramIndex int) (Statement, error)

	render(b binder) (string, binder, error)
	terms() int
}

// Comparison is a leaf predicate: Attr Operator Value.
type Comparison struct {
	Attr     *Traversal
	Value    any // literal, []any, nil, schema.RID or *Query
	Operator Operator
	Negate   bool
}

// Clause joins expressions with a single boolean operator.
type Clause struct {
	Operator Operator
	Items    []Expression
}

// Mode selects a prefabricated graph-walk statement instead of a plain SELECT.
type Mode string

const (
	ModeNone         Mode = ""
	ModeNeighborhood Mode = "neighborhood"
	ModeAncestors    Mode = "ancestors"
	ModeDescendants  Mode = "descendants"
)

// Query is the top level of a compiled request.
type Query struct {
	ModelName        string
	Where            *Clause
	ReturnProperties []string
	Skip             *int
	Limit            *int // applied by the execution layer, never rendered
	OrderBy          []string
	OrderByDirection string
	ActiveOnly       bool
	Neighbors        int
	Mode             Mode
	Edges            []string
	Depth            int // 0 selects the mode's default
}
