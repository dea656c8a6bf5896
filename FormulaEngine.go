package cellgrid

import (
	"strings"

	"cellgrid/contracts"
	"github.com/shopspring/decimal"
)

// FormulaResult is the evaluator's pure output: a computed type tag plus the
// corresponding payload or error code.
type FormulaResult struct {
	Type      contracts.ComputedType
	Number    decimal.Decimal
	Text      string
	ErrorCode string
}

// FormulaEngine evaluates formula text against a sheet snapshot. It holds no
// state of its own; every call is a pure function of its arguments.
type FormulaEngine struct{}

func NewFormulaEngine() *FormulaEngine {
	return &FormulaEngine{}
}

func (e *FormulaEngine) IsFormula(rawInput string) bool {
	return strings.HasPrefix(rawInput, FormulaPrefix)
}

// Evaluate computes a formula against the given sheet. It never returns a Go
// error: every failure mode is one of the five stable error codes on the
// result.
func (e *FormulaEngine) Evaluate(rawInput string, sheet contracts.SheetReader) FormulaResult {
	node, err := ParseFormula(strings.TrimPrefix(rawInput, FormulaPrefix))
	if err != nil {
		return errorResult(err.Code)
	}

	value := node.eval(&evalContext{sheet: sheet})

	switch value.Kind {
	case KindNumber:
		symbol, currencyErr := inferCurrency(ExtractReferences(rawInput), sheet)
		if currencyErr != nil {
			return errorResult(currencyErr.Code)
		}
		result := FormulaResult{Type: contracts.ComputedNumber, Number: quantize(value.Num)}
		if symbol != "" {
			result.Text = symbol + FormatNumber(value.Num)
		}
		return result
	case KindString:
		return FormulaResult{Type: contracts.ComputedString, Text: value.Str}
	case KindBoolean:
		return FormulaResult{Type: contracts.ComputedBoolean, Text: boolText(value.Bool)}
	case KindError:
		return errorResult(value.Code)
	}
	return FormulaResult{Type: contracts.ComputedEmpty}
}

// ClassifyRawInput builds the stored record for non-formula input and the
// uncomputed record for formula input. Numbers may carry a single currency
// symbol prefix, which stays in the raw text.
func (e *FormulaEngine) ClassifyRawInput(rawInput string) *contracts.CellSnapshot {
	snap := &contracts.CellSnapshot{RawInput: rawInput}

	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		snap.ValueType = contracts.ValueEmpty
		snap.ComputedType = contracts.ComputedEmpty
		return snap
	}

	if e.IsFormula(rawInput) {
		snap.ValueType = contracts.ValueFormula
		return snap
	}

	switch strings.ToUpper(trimmed) {
	case "TRUE", "FALSE":
		snap.ValueType = contracts.ValueBoolean
		snap.ComputedType = contracts.ComputedBoolean
		snap.ComputedString = strings.ToUpper(trimmed)
		return snap
	}

	numeric := trimmed
	symbol := ""
	for _, s := range CurrencySymbols {
		if strings.HasPrefix(numeric, s) {
			numeric = strings.TrimPrefix(numeric, s)
			symbol = s
			break
		}
	}
	if d, err := decimal.NewFromString(numeric); err == nil {
		snap.ValueType = contracts.ValueNumber
		snap.ComputedType = contracts.ComputedNumber
		snap.ComputedNumber = FormatNumber(d)
		if symbol != "" {
			snap.ComputedString = symbol + FormatNumber(d)
		}
		return snap
	}

	snap.ValueType = contracts.ValueString
	snap.ComputedType = contracts.ComputedString
	snap.ComputedString = rawInput
	return snap
}

// ApplyResult folds an evaluation result into a cell record's computed
// fields, clearing whatever the previous evaluation left behind.
func ApplyResult(snap *contracts.CellSnapshot, result FormulaResult) {
	snap.ComputedType = result.Type
	snap.ComputedNumber = ""
	snap.ComputedString = ""
	snap.ErrorCode = ""

	switch result.Type {
	case contracts.ComputedNumber:
		snap.ComputedNumber = FormatNumber(result.Number)
		snap.ComputedString = result.Text
	case contracts.ComputedString, contracts.ComputedBoolean:
		snap.ComputedString = result.Text
	case contracts.ComputedError:
		snap.ErrorCode = result.ErrorCode
	}
}

func errorResult(code string) FormulaResult {
	return FormulaResult{Type: contracts.ComputedError, ErrorCode: code}
}

func boolText(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
