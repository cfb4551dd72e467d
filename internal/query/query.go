package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/DeusData/kb-query/internal/schema"
)

// NewQuery builds a query selecting from modelName. A nil where is an empty
// conjunction.
func NewQuery(modelName string, where *Clause) *Query {
	if where == nil {
		where = NewClause(OpAnd)
	}
	return &Query{
		ModelName:        modelName,
		Where:            where,
		OrderByDirection: "ASC",
		ActiveOnly:       true,
	}
}

// Parse builds a query against model from an untrusted request. When the
// request is active-only (the default) a deletedAt IS NULL condition is added.
func Parse(s *schema.Schema, model *schema.Model, req *Request) (*Query, error) {
	if model == nil {
		return nil, attrErrorf("a query requires a target class")
	}
	if req == nil {
		req = &Request{}
	}

	q := NewQuery(model.Name, nil)
	if req.OrderByDirection != "" {
		q.OrderByDirection = req.OrderByDirection
	}
	if q.OrderByDirection != "ASC" && q.OrderByDirection != "DESC" {
		return nil, attrErrorf("orderByDirection must be ASC or DESC not %s", q.OrderByDirection)
	}
	if req.ActiveOnly != nil {
		q.ActiveOnly = *req.ActiveOnly
	}
	if req.Skip != nil {
		if *req.Skip < 0 {
			return nil, attrErrorf("skip (%d) must be greater than or equal to 0", *req.Skip)
		}
		skip := *req.Skip
		q.Skip = &skip
	}
	if req.Limit != nil {
		limit, err := CastRangeInt(*req.Limit, 1, MaxLimit)
		if err != nil {
			return nil, attrErrorf("invalid limit: %v", err)
		}
		q.Limit = &limit
	}
	if req.Neighbors != nil {
		n, err := CastRangeInt(*req.Neighbors, 0, MaxNeighbors)
		if err != nil {
			return nil, attrErrorf("invalid neighbors: %v", err)
		}
		q.Neighbors = n
	}
	if err := q.setMode(s, req); err != nil {
		return nil, err
	}

	for i := range req.Where {
		item, err := parseCondition(s, model, &req.Where[i])
		if err != nil {
			return nil, err
		}
		q.Where.Push(item)
	}

	var err error
	if q.ReturnProperties, err = resolveFields(s, model, req.ReturnProperties); err != nil {
		return nil, err
	}
	if q.OrderBy, err = resolveFields(s, model, req.OrderBy); err != nil {
		return nil, err
	}

	if q.ActiveOnly {
		q.Where.Push(&Comparison{Attr: Direct("deletedAt"), Value: nil, Operator: OpIs})
	}
	return q, nil
}

// resolveFields parses return/ordering names as path notation and returns
// their rendered forms, so only schema-resolved text reaches the statement.
func resolveFields(s *schema.Schema, model *schema.Model, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		t, err := ParseTraversalString(s, model, name)
		if err != nil {
			return nil, attrErrorf("invalid return/ordering property '%s' is not a valid member of class '%s': %v", name, model.Name, err)
		}
		out = append(out, t.String())
	}
	return out, nil
}

func (q *Query) setMode(s *schema.Schema, req *Request) error {
	switch Mode(req.Type) {
	case ModeNone:
		return nil
	case ModeNeighborhood, ModeAncestors, ModeDescendants:
		q.Mode = Mode(req.Type)
	default:
		return attrErrorf("unknown query type (%s). Must be one of (neighborhood, ancestors, descendants)", req.Type)
	}
	for _, e := range req.Edges {
		if !s.Has(e) {
			return attrErrorf("invalid edge class: %s", e)
		}
	}
	if len(req.Edges) > 0 {
		q.Edges = append([]string{}, req.Edges...)
	}
	if req.Depth != nil {
		q.Depth = *req.Depth
		lo, hi := 1, MaxTravelDepth
		if q.Mode == ModeNeighborhood {
			lo, hi = 0, MaxNeighbors
		}
		if _, err := CastRangeInt(q.Depth, lo, hi); err != nil {
			return attrErrorf("invalid depth: %v", err)
		}
	}
	return nil
}

// ParseRecord builds an equality query matching every field of a record.
func ParseRecord(s *schema.Schema, model *schema.Model, content map[string]any, opt *Request) (*Query, error) {
	req := Request{}
	if opt != nil {
		req = *opt
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	req.Where = make(Conditions, 0, len(keys))
	for _, k := range keys {
		req.Where = append(req.Where, Condition{Comparison: &ComparisonSpec{
			Attr:  Notation(k),
			Value: Value{Literal: content[k]},
		}})
	}
	return Parse(s, model, &req)
}

// Validate casts and checks every comparison of the where clause.
func (q *Query) Validate() error {
	return q.Where.Validate()
}

// Render serializes the query with parameters numbered from paramIndex.
// Limit is not rendered; the execution layer applies it.
func (q *Query) Render(paramIndex int) (Statement, error) {
	text, b, err := q.render(newBinder(paramIndex))
	if err != nil {
		return Statement{}, err
	}
	return Statement{Query: text, Params: b.params}, nil
}

func (q *Query) render(b binder) (string, binder, error) {
	if q.Mode != ModeNone {
		opt := MatchOptions{
			Where:      q.Where,
			ModelName:  q.ModelName,
			Edges:      q.Edges,
			Depth:      q.Depth,
			ParamIndex: b.next,
		}
		var (
			stmt Statement
			err  error
		)
		switch q.Mode {
		case ModeNeighborhood:
			stmt, err = Neighborhood(opt)
		case ModeAncestors:
			stmt, err = Ancestors(opt)
		case ModeDescendants:
			stmt, err = Descendants(opt)
		default:
			err = attrErrorf("unknown query type (%s)", q.Mode)
		}
		if err != nil {
			return "", b, err
		}
		for k, v := range stmt.Params {
			b.params[k] = v
		}
		b.next += len(stmt.Params)
		return stmt.Query, b, nil
	}

	fields := "*"
	if len(q.ReturnProperties) > 0 {
		fields = strings.Join(q.ReturnProperties, ", ")
	}
	var sb strings.Builder
	sb.WriteString("SELECT " + fields + " FROM " + q.ModelName)
	where, next, err := q.Where.render(b)
	if err != nil {
		return "", b, err
	}
	b = next
	if where != "" {
		sb.WriteString(" WHERE " + where)
	}
	if len(q.OrderBy) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(q.OrderBy, ", ") + " " + q.OrderByDirection)
	}
	if q.Skip != nil && *q.Skip > 0 {
		sb.WriteString(" SKIP " + strconv.Itoa(*q.Skip))
	}
	return sb.String(), b, nil
}

// Display renders the query with its parameters substituted, for logging only.
func (q *Query) Display() (string, error) {
	stmt, err := q.Render(0)
	if err != nil {
		return "", err
	}
	return stmt.Display(), nil
}

// Compile parses, validates and renders a request in one step.
func Compile(s *schema.Schema, model *schema.Model, req *Request, paramIndex int) (*Query, Statement, error) {
	q, err := Parse(s, model, req)
	if err != nil {
		return nil, Statement{}, err
	}
	if err := q.Validate(); err != nil {
		return nil, Statement{}, err
	}
	stmt, err := q.Render(paramIndex)
	if err != nil {
		return nil, Statement{}, err
	}
	return q, stmt, nil
}

// CompileRequest compiles a request whose target class is named by req.Class.
func CompileRequest(s *schema.Schema, req *Request, paramIndex int) (*Query, Statement, error) {
	if req == nil || req.Class == "" {
		return nil, Statement{}, attrErrorf("a query requires a target class")
	}
	model, ok := s.Get(req.Class)
	if !ok {
		return nil, Statement{}, attrErrorf("unknown class (%s)", req.Class)
	}
	return Compile(s, model, req, paramIndex)
}
