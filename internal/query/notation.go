package query

import (
	"fmt"
	"strings"
)

// notationParser expands path notation into a TraversalSpec chain.
//
//	path    := segment ('.' segment)*
//	segment := name ['(' [name (',' name)*] ')']
type notationParser struct {
	tokens []Token
	pos    int
}

// ParseNotation expands shorthand such as "out(AliasOf).vertex.name" into the
// structured traversal it abbreviates.
func ParseNotation(input string) (*TraversalSpec, error) {
	tokens, err := Lex(input)
	if err != nil {
		return nil, attrErrorf("invalid traversal %q: %v", input, err)
	}
	p := &notationParser{tokens: tokens}
	spec, err := p.parsePath()
	if err != nil {
		return nil, attrErrorf("invalid traversal %q: %v", input, err)
	}
	return spec, nil
}

func (p *notationParser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokEOF}
	}
	return p.tokens[p.pos]
}

func (p *notationParser) advance() Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *notationParser) expect(typ TokenType) (Token, error) {
	t := p.advance()
	if t.Type != typ {
		return t, fmt.Errorf("expected %s, got %s (%q) at pos %d", typ, t.Type, t.Value, t.Pos)
	}
	return t, nil
}

func (p *notationParser) parsePath() (*TraversalSpec, error) {
	root := &TraversalSpec{}
	curr := root
	for {
		next, err := p.parseSegment(curr)
		if err != nil {
			return nil, err
		}
		if curr != root && !curr.isEdge() {
			curr.Type = TraversalLink
		}
		curr.Child = next
		curr = next

		if p.peek().Type == TokEOF {
			break
		}
		if _, err := p.expect(TokDot); err != nil {
			return nil, err
		}
	}
	return root.Child, nil
}

// parseSegment reads one dotted segment. prev is the node the segment will
// be attached to; it decides how the vertex shorthand resolves.
func (p *notationParser) parseSegment(prev *TraversalSpec) (*TraversalSpec, error) {
	t := p.advance()
	if t.Type != TokIdent && t.Type != TokString {
		return nil, fmt.Errorf("expected attribute name, got %s at pos %d", t.Type, t.Pos)
	}
	name := t.Value

	var args []string
	hasParens := false
	if p.peek().Type == TokLParen {
		hasParens = true
		p.advance()
		var err error
		if args, err = p.parseArgs(); err != nil {
			return nil, err
		}
	}

	if dir, ok := edgeStep(name, hasParens); ok {
		spec := &TraversalSpec{Type: TraversalEdge, Direction: string(dir)}
		if hasParens {
			spec.Edges = args
			if spec.Edges == nil {
				spec.Edges = []string{}
			}
		}
		return spec, nil
	}

	if name == vertexSentinel && !hasParens {
		if prev.Type != TraversalEdge {
			return nil, fmt.Errorf("vertex may only follow an edge traversal (pos %d)", t.Pos)
		}
		dir, _ := parseDirection(prev.Direction)
		return &TraversalSpec{Attr: dir.vertexAccessor()}, nil
	}

	if hasParens {
		if len(args) > 0 {
			return nil, fmt.Errorf("%s does not take arguments (pos %d)", name, t.Pos)
		}
		name += "()"
	}
	return &TraversalSpec{Attr: name}, nil
}

func (p *notationParser) parseArgs() ([]string, error) {
	var args []string
	if p.peek().Type == TokRParen {
		p.advance()
		return args, nil
	}
	for {
		t := p.advance()
		if t.Type != TokIdent && t.Type != TokString {
			return nil, fmt.Errorf("expected class name, got %s at pos %d", t.Type, t.Pos)
		}
		if v := strings.TrimSpace(t.Value); v != "" {
			args = append(args, v)
		}
		switch p.peek().Type {
		case TokComma:
			p.advance()
		case TokRParen:
			p.advance()
			return args, nil
		default:
			next := p.peek()
			return nil, fmt.Errorf("expected ',' or ')', got %s at pos %d", next.Type, next.Pos)
		}
	}
}

// edgeStep recognizes in(...), out(...), both(...), and the E-suffixed forms
// inE, outE(...), bothE(...).
func edgeStep(name string, hasParens bool) (Direction, bool) {
	base, hasE := strings.CutSuffix(name, "E")
	if !hasE && !hasParens {
		return "", false
	}
	switch Direction(base) {
	case DirectionIn, DirectionOut, DirectionBoth:
		return Direction(base), true
	}
	return "", false
}
