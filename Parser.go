package cellgrid

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxFormulaDepth bounds expression nesting so adversarial input cannot
// exhaust the goroutine stack during recursive descent.
const MaxFormulaDepth = 64

// exprNode is the closed set of AST node kinds. Parsing consumes the whole
// token stream once; evaluation walks only the branches that are actually
// selected, which is what keeps IF/AND/OR short-circuiting genuine.
type exprNode interface {
	eval(ctx *evalContext) Value
}

type numberNode struct {
	value decimal.Decimal
}

type stringNode struct {
	value string
}

type boolNode struct {
	value bool
}

type refNode struct {
	row int
	col int
}

// rangeNode is only legal as a direct function argument; corners are
// normalized at parse time.
type rangeNode struct {
	startRow int
	startCol int
	endRow   int
	endCol   int
}

type unaryNode struct {
	op      string
	operand exprNode
}

type binaryNode struct {
	op    string
	left  exprNode
	right exprNode
}

type callNode struct {
	name string
	args []exprNode
}

var knownFunctions = map[string]bool{
	"SUM": true, "AVERAGE": true, "COUNT": true, "MIN": true, "MAX": true,
	"ABS": true, "ROUND": true, "FLOOR": true, "CEILING": true,
	"IF": true, "AND": true, "OR": true, "NOT": true, "VLOOKUP": true,
}

type parser struct {
	tokens []Token
	pos    int
	depth  int
}

// ParseFormula parses a formula body (leading "=" stripped) into an AST.
func ParseFormula(expression string) (exprNode, *FormulaError) {
	tokens, err := Tokenize(expression)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, refError()
	}
	return node, nil
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) peekKindAt(offset int, kind TokenKind) bool {
	if p.pos+offset >= len(p.tokens) {
		return false
	}
	return p.tokens[p.pos+offset].Kind == kind
}

func (p *parser) next() (Token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *parser) expect(kind TokenKind) (Token, *FormulaError) {
	tok, ok := p.next()
	if !ok || tok.Kind != kind {
		return Token{}, refError()
	}
	return tok, nil
}

// parseComparison is the grammar root: a single-level comparison over
// additive expressions. Comparison chaining is not part of the language.
func (p *parser) parseComparison() (exprNode, *FormulaError) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxFormulaDepth {
		return nil, refError()
	}

	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	if tok, ok := p.peek(); ok && tok.Kind == TokenCompare {
		p.pos++
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: tok.Text, left: left, right: right}, nil
	}

	return left, nil
}

func (p *parser) parseAdditive() (exprNode, *FormulaError) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != TokenOp || (tok.Text != "+" && tok.Text != "-") {
			return left, nil
		}
		p.pos++

		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.Text, left: left, right: right}
	}
}

func (p *parser) parseMultiplicative() (exprNode, *FormulaError) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != TokenOp || (tok.Text != "*" && tok.Text != "/") {
			return left, nil
		}
		p.pos++

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.Text, left: left, right: right}
	}
}

func (p *parser) parseUnary() (exprNode, *FormulaError) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxFormulaDepth {
		return nil, refError()
	}

	if tok, ok := p.peek(); ok && tok.Kind == TokenOp && (tok.Text == "+" || tok.Text == "-") {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: tok.Text, operand: operand}, nil
	}

	return p.parsePrimary()
}

func (p *parser) parsePrimary() (exprNode, *FormulaError) {
	tok, ok := p.next()
	if !ok {
		return nil, refError()
	}

	switch tok.Kind {
	case TokenNumber:
		value, err := decimal.NewFromString(tok.Text)
		if err != nil {
			return nil, refError()
		}
		return &numberNode{value: value}, nil

	case TokenString:
		return &stringNode{value: tok.Text}, nil

	case TokenRef:
		row, col, err := ReferenceToIndexes(tok.Text)
		if err != nil {
			return nil, err
		}
		return &refNode{row: row, col: col}, nil

	case TokenLParen:
		node, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return node, nil

	case TokenIdent:
		name := strings.ToUpper(tok.Text)
		switch name {
		case "TRUE":
			return &boolNode{value: true}, nil
		case "FALSE":
			return &boolNode{value: false}, nil
		}
		if !knownFunctions[name] {
			return nil, refError()
		}
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		return &callNode{name: name, args: args}, nil
	}

	return nil, refError()
}

// parseArguments parses "(" [arg {"," arg}] ")" where an argument may be a
// start:end range in addition to any expression.
func (p *parser) parseArguments() ([]exprNode, *FormulaError) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	args := make([]exprNode, 0, 3)
	if tok, ok := p.peek(); ok && tok.Kind == TokenRParen {
		p.pos++
		return args, nil
	}

	for {
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok, ok := p.next()
		if !ok {
			return nil, refError()
		}
		switch tok.Kind {
		case TokenComma:
			continue
		case TokenRParen:
			return args, nil
		default:
			return nil, refError()
		}
	}
}

func (p *parser) parseArgument() (exprNode, *FormulaError) {
	if p.peekKindAt(0, TokenRef) && p.peekKindAt(1, TokenColon) {
		start, _ := p.next()
		p.pos++ // colon
		end, err := p.expect(TokenRef)
		if err != nil {
			return nil, err
		}

		startRow, startCol, decodeErr := ReferenceToIndexes(start.Text)
		if decodeErr != nil {
			return nil, decodeErr
		}
		endRow, endCol, decodeErr := ReferenceToIndexes(end.Text)
		if decodeErr != nil {
			return nil, decodeErr
		}

		if startRow > endRow {
			startRow, endRow = endRow, startRow
		}
		if startCol > endCol {
			startCol, endCol = endCol, startCol
		}
		return &rangeNode{startRow: startRow, startCol: startCol, endRow: endRow, endCol: endCol}, nil
	}

	return p.parseComparison()
}
