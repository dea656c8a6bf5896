package cellgrid

import (
	"testing"

	"cellgrid/contracts"
	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	t.Run("arithmetic", func(t *testing.T) {
		tokens, err := Tokenize("1+2*3")
		assert.Nil(t, err)
		assert.Equal(t, []Token{
			{TokenNumber, "1"},
			{TokenOp, "+"},
			{TokenNumber, "2"},
			{TokenOp, "*"},
			{TokenNumber, "3"},
		}, tokens)
	})

	t.Run("whitespace_skipped", func(t *testing.T) {
		tokens, err := Tokenize("  1 +\t2 ")
		assert.Nil(t, err)
		assert.Len(t, tokens, 3)
	})

	t.Run("references_and_idents", func(t *testing.T) {
		tokens, err := Tokenize("SUM(A1:AB12)+rest")
		assert.Nil(t, err)
		assert.Equal(t, []Token{
			{TokenIdent, "SUM"},
			{TokenLParen, "("},
			{TokenRef, "A1"},
			{TokenColon, ":"},
			{TokenRef, "AB12"},
			{TokenRParen, ")"},
			{TokenOp, "+"},
			{TokenIdent, "rest"},
		}, tokens)
	})

	t.Run("comparisons", func(t *testing.T) {
		tokens, err := Tokenize("a1<=2<>3>=4<5>6=7")
		assert.Nil(t, err)

		compares := make([]string, 0)
		for _, tok := range tokens {
			if tok.Kind == TokenCompare {
				compares = append(compares, tok.Text)
			}
		}
		assert.Equal(t, []string{"<=", "<>", ">=", "<", ">", "="}, compares)
	})

	t.Run("string_literal", func(t *testing.T) {
		tokens, err := Tokenize(`"hello world"`)
		assert.Nil(t, err)
		assert.Equal(t, []Token{{TokenString, "hello world"}}, tokens)
	})

	t.Run("unterminated_string", func(t *testing.T) {
		_, err := Tokenize(`"dangling`)
		assert.NotNil(t, err)
		assert.Equal(t, contracts.ErrorCodeRef, err.Code)
	})

	t.Run("unknown_character", func(t *testing.T) {
		_, err := Tokenize("1 & 2")
		assert.NotNil(t, err)
		assert.Equal(t, contracts.ErrorCodeRef, err.Code)
	})

	t.Run("letter_run_without_digits_is_ident", func(t *testing.T) {
		tokens, err := Tokenize("TRUE")
		assert.Nil(t, err)
		assert.Equal(t, []Token{{TokenIdent, "TRUE"}}, tokens)
	})
}
