package query

import (
	"strings"

	"github.com/DeusData/kb-query/internal/schema"
)

// NewClause joins items with op (AND or OR).
func NewClause(op Operator, items ...Expression) *Clause {
	return &Clause{Operator: op, Items: items}
}

// ParseClause resolves a clause description against model. A clause without
// an operator is a disjunction.
func ParseClause(s *schema.Schema, model *schema.Model, spec *ClauseSpec) (*Clause, error) {
	op := OpOr
	if spec.Operator != "" {
		parsed, ok := lookupOperator(spec.Operator)
		if !ok || !parsed.isBoolean() {
			return nil, attrErrorf("invalid clause operator (%s). Must be AND or OR", spec.Operator)
		}
		op = parsed
	}
	if len(spec.Comparisons) == 0 {
		return nil, attrErrorf("a where clause requires at least one comparison")
	}
	clause := NewClause(op)
	for i := range spec.Comparisons {
		item, err := parseCondition(s, model, &spec.Comparisons[i])
		if err != nil {
			return nil, err
		}
		clause.Push(item)
	}
	return clause, nil
}

func parseCondition(s *schema.Schema, model *schema.Model, c *Condition) (Expression, error) {
	switch {
	case c.Comparison != nil:
		return ParseComparison(s, model, c.Comparison)
	case c.Clause != nil:
		return ParseClause(s, model, c.Clause)
	}
	return nil, attrErrorf("empty where condition")
}

// Push appends an item.
func (c *Clause) Push(item Expression) {
	c.Items = append(c.Items, item)
}

// Len is the number of direct children.
func (c *Clause) Len() int {
	return len(c.Items)
}

// Validate validates every child.
func (c *Clause) Validate() error {
	for _, item := range c.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Render serializes the clause with parameters numbered from paramIndex,
// left to right and depth first.
func (c *Clause) Render(paramIndex int) (Statement, error) {
	text, b, err := c.render(newBinder(paramIndex))
	if err != nil {
		return Statement{}, err
	}
	return Statement{Query: text, Params: b.params}, nil
}

func (c *Clause) render(b binder) (string, binder, error) {
	parts := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		text, next, err := item.render(b)
		if err != nil {
			return "", b, err
		}
		b = next
		if text == "" {
			continue
		}
		if _, nested := item.(*Clause); nested && item.terms() > 1 {
			text = "(" + text + ")"
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " "+string(c.Operator)+" "), b, nil
}

func (c *Clause) terms() int { return len(c.Items) }
