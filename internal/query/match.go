package query

import (
	"strconv"
	"strings"
)

// MatchOptions configures a graph-walk statement.
type MatchOptions struct {
	Where      Expression // conditions selecting the starting records
	ModelName  string
	Edges      []string // defaults depend on the statement
	Depth      int      // 0 selects the statement's default
	Direction  Direction
	ParamIndex int
}

// CastRangeInt checks lo <= v <= hi.
func CastRangeInt(v, lo, hi int) (int, error) {
	if v < lo {
		return 0, attrErrorf("value (%d) must be greater than or equal to %d", v, lo)
	}
	if v > hi {
		return 0, attrErrorf("value (%d) must be less than or equal to %d", v, hi)
	}
	return v, nil
}

// TreeQuery walks a single direction from the matched records while the
// frontier still has edges and the depth bound has not been reached.
func TreeQuery(opt MatchOptions) (Statement, error) {
	if opt.Direction != DirectionOut && opt.Direction != DirectionIn {
		return Statement{}, attrErrorf("direction (%s) must be in or out", opt.Direction)
	}
	edges := opt.Edges
	if len(edges) == 0 {
		edges = DefaultTreeEdges
	}
	depth := opt.Depth
	if depth == 0 {
		depth = MaxTravelDepth
	}
	depth, err := CastRangeInt(depth, 1, MaxTravelDepth)
	if err != nil {
		return Statement{}, err
	}

	where, params, err := renderMatchWhere(opt)
	if err != nil {
		return Statement{}, err
	}
	dir := string(opt.Direction)
	edgeList := quotedList(edges)
	walk := "." + dir + "(" + edgeList + "){WHILE: (" + dir + "(" + edgeList + ").size() > 0 AND $depth < " + strconv.Itoa(depth) + ")}"
	return Statement{Query: matchStatement(opt.ModelName, where, walk), Params: params}, nil
}

// Neighborhood walks both directions from the matched records up to depth jumps.
func Neighborhood(opt MatchOptions) (Statement, error) {
	edges := opt.Edges
	if len(edges) == 0 {
		edges = NeighborhoodEdges
	}
	depth := opt.Depth
	if depth == 0 {
		depth = DefaultNeighbors
	}
	depth, err := CastRangeInt(depth, 0, MaxNeighbors)
	if err != nil {
		return Statement{}, err
	}

	where, params, err := renderMatchWhere(opt)
	if err != nil {
		return Statement{}, err
	}
	walk := ".both(" + quotedList(edges) + "){WHILE: ($depth < " + strconv.Itoa(depth) + ")}"
	return Statement{Query: matchStatement(opt.ModelName, where, walk), Params: params}, nil
}

// Ancestors follows incoming edges (by default SubclassOf) from the matched records.
func Ancestors(opt MatchOptions) (Statement, error) {
	opt.Direction = DirectionIn
	return TreeQuery(opt)
}

// Descendants follows outgoing edges (by default SubclassOf) from the matched records.
func Descendants(opt MatchOptions) (Statement, error) {
	opt.Direction = DirectionOut
	return TreeQuery(opt)
}

func renderMatchWhere(opt MatchOptions) (string, map[string]any, error) {
	if opt.Where == nil {
		return "", map[string]any{}, nil
	}
	text, b, err := opt.Where.render(newBinder(opt.ParamIndex))
	if err != nil {
		return "", nil, err
	}
	return text, b.params, nil
}

func matchStatement(modelName, where, walk string) string {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM (MATCH {class: ")
	sb.WriteString(modelName)
	if where != "" {
		sb.WriteString(", WHERE: (")
		sb.WriteString(where)
		sb.WriteString(")")
	}
	sb.WriteString("}")
	sb.WriteString(walk)
	sb.WriteString(" RETURN $pathElements)")
	return sb.String()
}

func quotedList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteWrap(n)
	}
	return strings.Join(quoted, ", ")
}
