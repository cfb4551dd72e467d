package query

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType classifies a path-notation token.
type TokenType int

const (
	TokIdent  TokenType = iota // name, @rid, AliasOf
	TokString                  // 'AliasOf' or "AliasOf"
	TokLParen                  // (
	TokRParen                  // )
	TokComma                   // ,
	TokDot                     // .
	TokEOF                     // end of input
)

func (t TokenType) String() string {
	switch t {
	case TokIdent:
		return "identifier"
	case TokString:
		return "string"
	case TokLParen:
		return "'('"
	case TokRParen:
		return "')'"
	case TokComma:
		return "','"
	case TokDot:
		return "'.'"
	}
	return "end of input"
}

// Token is a single path-notation token.
type Token struct {
	Type  TokenType
	Value string
	Pos   int // byte offset in the input
}

var singleCharTokens = map[byte]TokenType{
	'(': TokLParen,
	')': TokRParen,
	',': TokComma,
	'.': TokDot,
}

type lexer struct {
	input  string
	pos    int
	tokens []Token
}

// Lex tokenizes a path-notation string such as out(AliasOf).vertex.name.
func Lex(input string) ([]Token, error) {
	l := &lexer{input: input}
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if unicode.IsSpace(rune(ch)) {
			l.pos++
			continue
		}
		if err := l.lexNextToken(ch); err != nil {
			return nil, err
		}
	}
	l.tokens = append(l.tokens, Token{Type: TokEOF, Pos: l.pos})
	return l.tokens, nil
}

func (l *lexer) lexNextToken(ch byte) error {
	if tok, ok := singleCharTokens[ch]; ok {
		l.tokens = append(l.tokens, Token{Type: tok, Value: string(ch), Pos: l.pos})
		l.pos++
		return nil
	}
	switch {
	case ch == '"' || ch == '\'':
		return l.lexString(ch)
	case isIdentStart(ch):
		l.lexIdent()
	default:
		return fmt.Errorf("unexpected char %q at pos %d", string(ch), l.pos)
	}
	return nil
}

func (l *lexer) lexString(quote byte) error {
	start := l.pos
	l.pos++ // skip opening quote
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == quote {
			l.tokens = append(l.tokens, Token{Type: TokString, Value: sb.String(), Pos: start})
			l.pos++
			return nil
		}
		sb.WriteByte(ch)
		l.pos++
	}
	return fmt.Errorf("unterminated string at pos %d", start)
}

func (l *lexer) lexIdent() {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	l.tokens = append(l.tokens, Token{Type: TokIdent, Value: l.input[start:l.pos], Pos: start})
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '@' || ch == '$'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '-'
}
