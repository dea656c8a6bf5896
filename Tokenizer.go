package cellgrid

// TokenKind enumerates the token classes of the formula language.
type TokenKind uint8

const (
	TokenNumber TokenKind = iota
	TokenString
	TokenIdent
	TokenRef
	TokenOp
	TokenCompare
	TokenLParen
	TokenRParen
	TokenComma
	TokenColon
)

// Token is one lexical unit of a formula body.
type Token struct {
	Kind TokenKind
	Text string
}

// Tokenize scans formula text (with the leading "=" already stripped) into a
// flat token stream. Any unrecognized character and any unterminated string
// literal fail with #REF!.
func Tokenize(input string) ([]Token, *FormulaError) {
	runes := []rune(input)
	tokens := make([]Token, 0, len(runes)/2+1)

	pos := 0
	for pos < len(runes) {
		ch := runes[pos]

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			pos++

		case ch == '"':
			start := pos + 1
			end := start
			for end < len(runes) && runes[end] != '"' {
				end++
			}
			if end >= len(runes) {
				return nil, refError()
			}
			tokens = append(tokens, Token{Kind: TokenString, Text: string(runes[start:end])})
			pos = end + 1

		case ch == '<':
			if pos+1 < len(runes) && (runes[pos+1] == '=' || runes[pos+1] == '>') {
				tokens = append(tokens, Token{Kind: TokenCompare, Text: string(runes[pos : pos+2])})
				pos += 2
			} else {
				tokens = append(tokens, Token{Kind: TokenCompare, Text: "<"})
				pos++
			}

		case ch == '>':
			if pos+1 < len(runes) && runes[pos+1] == '=' {
				tokens = append(tokens, Token{Kind: TokenCompare, Text: ">="})
				pos += 2
			} else {
				tokens = append(tokens, Token{Kind: TokenCompare, Text: ">"})
				pos++
			}

		case ch == '=':
			tokens = append(tokens, Token{Kind: TokenCompare, Text: "="})
			pos++

		case ch == '+' || ch == '-' || ch == '*' || ch == '/':
			tokens = append(tokens, Token{Kind: TokenOp, Text: string(ch)})
			pos++

		case ch == '(':
			tokens = append(tokens, Token{Kind: TokenLParen, Text: "("})
			pos++

		case ch == ')':
			tokens = append(tokens, Token{Kind: TokenRParen, Text: ")"})
			pos++

		case ch == ',':
			tokens = append(tokens, Token{Kind: TokenComma, Text: ","})
			pos++

		case ch == ':':
			tokens = append(tokens, Token{Kind: TokenColon, Text: ":"})
			pos++

		case isDigit(ch) || ch == '.':
			start := pos
			for pos < len(runes) && (isDigit(runes[pos]) || runes[pos] == '.') {
				pos++
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Text: string(runes[start:pos])})

		case isLetter(ch):
			start := pos
			for pos < len(runes) && isLetter(runes[pos]) {
				pos++
			}
			if pos < len(runes) && isDigit(runes[pos]) {
				for pos < len(runes) && isDigit(runes[pos]) {
					pos++
				}
				tokens = append(tokens, Token{Kind: TokenRef, Text: string(runes[start:pos])})
			} else {
				tokens = append(tokens, Token{Kind: TokenIdent, Text: string(runes[start:pos])})
			}

		default:
			return nil, refError()
		}
	}

	return tokens, nil
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
