package cellgrid

import (
	"strconv"
	"strings"

	"cellgrid/contracts"
)

// FormulaPrefix marks raw input as a formula.
const FormulaPrefix = "="

// CurrencySymbols are the symbols recognized when inferring a shared currency
// across a formula's references.
var CurrencySymbols = []string{"$", "¥", "€", "£"}

// ReferenceToIndexes decodes an "A1"-style reference into zero-based (row,
// col) indexes. Column letters are base-26 with A=1. Malformed input fails
// with #REF!.
func ReferenceToIndexes(ref string) (int, int, *FormulaError) {
	letters := 0
	for letters < len(ref) {
		ch := ref[letters]
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
			letters++
		} else {
			break
		}
	}
	if letters == 0 || letters == len(ref) {
		return 0, 0, refError()
	}

	col := 0
	for i := 0; i < letters; i++ {
		ch := ref[i]
		if ch >= 'a' {
			ch -= 'a' - 'A'
		}
		col = col*26 + int(ch-'A'+1)
	}

	row, err := strconv.Atoi(ref[letters:])
	if err != nil || row < 1 {
		return 0, 0, refError()
	}

	return row - 1, col - 1, nil
}

// IndexesToReference encodes zero-based (row, col) indexes back into the
// canonical upper-case "A1" form.
func IndexesToReference(row, col int) string {
	letters := make([]byte, 0, 3)
	n := col + 1
	for n > 0 {
		n--
		letters = append(letters, byte('A'+n%26))
		n /= 26
	}
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters) + strconv.Itoa(row+1)
}

// ExtractReferences returns every cell reference mentioned by a formula, in
// source order, with start:end ranges expanded into individual addresses in
// row-major order. Non-formula input and untokenizable input yield an empty
// list.
func ExtractReferences(rawInput string) []string {
	refs := make([]string, 0)
	if !strings.HasPrefix(rawInput, FormulaPrefix) {
		return refs
	}

	tokens, err := Tokenize(strings.TrimPrefix(rawInput, FormulaPrefix))
	if err != nil {
		return refs
	}

	for i := 0; i < len(tokens); i++ {
		if tokens[i].Kind != TokenRef {
			continue
		}

		startRow, startCol, decodeErr := ReferenceToIndexes(tokens[i].Text)
		if decodeErr != nil {
			continue
		}

		if i+2 < len(tokens) && tokens[i+1].Kind == TokenColon && tokens[i+2].Kind == TokenRef {
			endRow, endCol, endErr := ReferenceToIndexes(tokens[i+2].Text)
			if endErr == nil {
				refs = append(refs, expandRange(startRow, startCol, endRow, endCol)...)
				i += 2
				continue
			}
		}

		refs = append(refs, IndexesToReference(startRow, startCol))
	}

	return refs
}

// expandRange lists every address of the rectangle in row-major order, with
// corners normalized so that A3:A1 expands the same way as A1:A3.
func expandRange(startRow, startCol, endRow, endCol int) []string {
	if startRow > endRow {
		startRow, endRow = endRow, startRow
	}
	if startCol > endCol {
		startCol, endCol = endCol, startCol
	}

	refs := make([]string, 0, (endRow-startRow+1)*(endCol-startCol+1))
	for row := startRow; row <= endRow; row++ {
		for col := startCol; col <= endCol; col++ {
			refs = append(refs, IndexesToReference(row, col))
		}
	}
	return refs
}

// inferCurrency scans the referenced cells' raw text for a shared currency
// symbol prefix. Exactly one distinct symbol across all references yields
// that symbol; more than one is a #VALUE! conflict; none yields "".
func inferCurrency(refs []string, sheet contracts.SheetReader) (string, *FormulaError) {
	found := ""
	for _, ref := range refs {
		row, col, err := ReferenceToIndexes(ref)
		if err != nil {
			continue
		}

		snap := sheet.CellAt(contracts.Position{Row: row, Col: col})
		if snap == nil {
			continue
		}

		for _, symbol := range CurrencySymbols {
			if strings.HasPrefix(snap.RawInput, symbol) {
				if found != "" && found != symbol {
					return "", valueError()
				}
				found = symbol
				break
			}
		}
	}
	return found, nil
}
