package sql

import "fmt"

// ParseError reports a syntax error together with the token position at
// which parsing failed.
type ParseError struct {
	Reason string
	Pos    Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sql: parse error at %s: %s", e.Pos, e.Reason)
}

// ClauseKind discriminates the top-level statements the parser produces.
// The grammar has exactly two: SHOW TABLES and SELECT.
type ClauseKind int

const (
	ClauseShowTables ClauseKind = iota
	ClauseSelect
)

// Clause is the top-level statement a query parses to.
type Clause struct {
	Kind        ClauseKind
	Projections []Expression // ClauseSelect
	Tables      []string     // ClauseSelect, empty when FROM is absent
}

// Parser turns SQL text into a single Clause.
type Parser struct {
	lex *Lexer
}

// NewParser constructs a Parser over src.
func NewParser(src string) *Parser {
	return &Parser{lex: NewLexer(src)}
}

// Parse parses the one statement in src.
func Parse(src string) (Clause, error) {
	return NewParser(src).Parse()
}

func (p *Parser) peek() (Token, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		if IsEOF(err) {
			return Token{Type: EOF}, nil
		}
		return Token{}, err
	}
	return tok, nil
}

func (p *Parser) next() (Token, error) {
	tok, err := p.lex.Next()
	if err != nil {
		if IsEOF(err) {
			return Token{Type: EOF}, nil
		}
		return Token{}, err
	}
	return tok, nil
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	tok, err := p.next()
	if err != nil {
		return Token{}, err
	}
	if tok.Type != tt {
		return Token{}, &ParseError{Reason: fmt.Sprintf("expected %s, got %s", tt, tok.Type), Pos: tok.Pos}
	}
	return tok, nil
}

// peekIsKeyword reports whether the next token is an IDENTIFIER spelling
// kw. AS is contextual rather than reserved, so it's recognized this way
// instead of getting its own TokenType.
func (p *Parser) peekIsKeyword(kw string) (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	return tok.Type == IDENTIFIER && tok.Str == kw, nil
}

// Parse consumes exactly one statement, an optional trailing TERMINATE,
// and returns the resulting Clause.
func (p *Parser) Parse() (Clause, error) {
	tok, err := p.next()
	if err != nil {
		return Clause{}, err
	}

	var clause Clause
	switch tok.Type {
	case SHOW:
		clause, err = p.parseShowTables()
	case SELECT:
		clause, err = p.parseSelect()
	default:
		return Clause{}, &ParseError{Reason: fmt.Sprintf("expected a statement, got %s", tok.Type), Pos: tok.Pos}
	}
	if err != nil {
		return Clause{}, err
	}

	if next, err := p.peek(); err != nil {
		return Clause{}, err
	} else if next.Type == TERMINATE {
		if _, err := p.next(); err != nil {
			return Clause{}, err
		}
	}
	if next, err := p.peek(); err != nil {
		return Clause{}, err
	} else if next.Type != EOF {
		return Clause{}, &ParseError{Reason: fmt.Sprintf("unexpected trailing token %s", next.Type), Pos: next.Pos}
	}
	return clause, nil
}

func (p *Parser) parseShowTables() (Clause, error) {
	if _, err := p.expect(TABLES); err != nil {
		return Clause{}, err
	}
	return Clause{Kind: ClauseShowTables}, nil
}

// parseSelect implements:
//
//	SELECT expr (',' expr)* (FROM identifier (',' identifier)*)?
func (p *Parser) parseSelect() (Clause, error) {
	projections, err := p.parseProjectionList()
	if err != nil {
		return Clause{}, err
	}

	hasFrom, err := p.peekIsType(FROM)
	if err != nil {
		return Clause{}, err
	}
	var tables []string
	if hasFrom {
		if _, err := p.next(); err != nil {
			return Clause{}, err
		}
		tables, err = p.parseTableList()
		if err != nil {
			return Clause{}, err
		}
	}
	return Clause{Kind: ClauseSelect, Projections: projections, Tables: tables}, nil
}

func (p *Parser) peekIsType(tt TokenType) (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	return tok.Type == tt, nil
}

func (p *Parser) parseProjectionList() ([]Expression, error) {
	var out []Expression
	for {
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if isAs, err := p.peekIsKeyword("as"); err != nil {
			return nil, err
		} else if isAs {
			if _, err := p.next(); err != nil {
				return nil, err
			}
			alias, err := p.expect(IDENTIFIER)
			if err != nil {
				return nil, err
			}
			expr = As{Inner: expr, Alias: alias.Str}
		}
		out = append(out, expr)

		isComma, err := p.peekIsType(COMMA)
		if err != nil {
			return nil, err
		}
		if !isComma {
			break
		}
		if _, err := p.next(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Parser) parseTableList() ([]string, error) {
	var out []string
	for {
		tok, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		out = append(out, tok.Str)

		isComma, err := p.peekIsType(COMMA)
		if err != nil {
			return nil, err
		}
		if !isComma {
			break
		}
		if _, err := p.next(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// parseExpression is the Pratt loop: it parses a nud, then repeatedly
// extends it with led for as long as the next token's rbp exceeds rbp.
func (p *Parser) parseExpression(rbp int) (Expression, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	left, err := p.nud(tok)
	if err != nil {
		return nil, err
	}

	for {
		peeked, err := p.peek()
		if err != nil {
			return nil, err
		}
		if peeked.Type.rbp() <= rbp {
			break
		}
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		left, err = p.led(tok, left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) nud(tok Token) (Expression, error) {
	switch tok.Type {
	case INTEGER:
		return IntegerLeaf{Value: tok.Int}, nil
	case MINUS:
		// Negation's operand is parsed at MINUS's own rbp, so a following
		// binary + or - (also rbp 5) stops the operand rather than being
		// swallowed by it: -1 - 2 parses as (-1) - 2, not -(1 - 2).
		operand, err := p.parseExpression(tok.Type.rbp())
		if err != nil {
			return nil, err
		}
		return Negate{Operand: operand}, nil
	case LPARENS:
		// The matching RPARENS is consumed by its own led, not here: the
		// recursive call's loop sees RPARENS' rbp(1) > 0 and calls
		// led(RPARENS, inner), which advances past it and returns inner
		// unchanged.
		return p.parseExpression(0)
	case IDENTIFIER:
		return Reference{Name: tok.Str}, nil
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("unexpected token %s in expression position", tok.Type), Pos: tok.Pos}
	}
}

func (p *Parser) led(tok Token, left Expression) (Expression, error) {
	switch tok.Type {
	case PLUS, MINUS:
		right, err := p.parseExpression(tok.Type.rbp())
		if err != nil {
			return nil, err
		}
		return BinOp{Op: tok.Type, Left: left, Right: right}, nil
	case RPARENS:
		return left, nil
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("token %s cannot follow an expression", tok.Type), Pos: tok.Pos}
	}
}
