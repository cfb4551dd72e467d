package query

import (
	"strconv"
	"strings"
)

// keywordAttrs are the ontology attributes searched by KeywordSearch.
var keywordAttrs = []string{"name", "sourceId"}

// KeywordSearch builds the general keyword search: ontology terms whose name
// or sourceId contain every keyword, the variants built on them, and the
// statements implied by or supported by either.
func KeywordSearch(keywords []string, skip int) (Statement, error) {
	if len(keywords) == 0 {
		return Statement{}, attrErrorf("keyword search requires at least one keyword")
	}
	if skip < 0 {
		return Statement{}, attrErrorf("skip (%d) must be greater than or equal to 0", skip)
	}
	b := newBinder(0)
	names := make([]string, len(keywords))
	for i, kw := range keywords {
		names[i], b = b.bind(kw)
	}

	subqueries := make([]string, 0, len(keywordAttrs))
	vars := make([]string, 0, len(keywordAttrs))
	for _, attr := range keywordAttrs {
		terms := make([]string, len(names))
		for i, n := range names {
			terms[i] = attr + " " + string(OpContainsText) + " " + n
		}
		where := strings.Join(terms, " AND ")
		if len(terms) > 1 {
			where = "(" + where + ")"
		}
		v := "$ont" + attr
		vars = append(vars, v)
		subqueries = append(subqueries, v+" = (SELECT * FROM Ontology WHERE "+where+")")
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM (SELECT expand($v) LET ")
	sb.WriteString(strings.Join(subqueries, ", "))
	sb.WriteString(", $ont = UNIONALL(" + strings.Join(vars, ", ") + ")")
	sb.WriteString(", $variants = (SELECT * FROM Variant WHERE type IN $ont OR reference1 IN $ont OR reference2 IN $ont)")
	sb.WriteString(", $implicable = UNIONALL($ont, $variants)")
	sb.WriteString(", $statements = (SELECT * FROM Statement WHERE inE('impliedBy').outV() IN $implicable" +
		" OR outE('supportedBy').inV() IN $ont OR appliesTo IN $implicable OR relevance IN $implicable)")
	sb.WriteString(", $v = UNIONALL($statements, $variants, $ont)) WHERE deletedAt IS NULL")
	if skip > 0 {
		sb.WriteString(" SKIP " + strconv.Itoa(skip))
	}
	return Statement{Query: sb.String(), Params: b.params}, nil
}
