package cellgrid

import (
	"strings"

	"cellgrid/contracts"
	"github.com/shopspring/decimal"
)

// DecimalScale is the fixed decimal scale of the store. Every arithmetic
// result is re-quantized to this scale.
const DecimalScale = 6

// ValueKind tags the payload held by a Value.
type ValueKind uint8

const (
	KindEmpty ValueKind = iota
	KindNumber
	KindString
	KindBoolean
	KindError
)

// Value is the evaluator's tagged union result. Exactly one payload field is
// meaningful, selected by Kind.
type Value struct {
	Kind ValueKind
	Num  decimal.Decimal
	Str  string
	Bool bool
	Code string
}

// FormulaError is a typed engine failure carrying one of the five stable
// error codes. It never escapes FormulaEngine.Evaluate as a Go error.
type FormulaError struct {
	Code string
}

func (e *FormulaError) Error() string {
	return e.Code
}

func refError() *FormulaError   { return &FormulaError{Code: contracts.ErrorCodeRef} }
func valueError() *FormulaError { return &FormulaError{Code: contracts.ErrorCodeValue} }

func EmptyValue() Value {
	return Value{Kind: KindEmpty}
}

func NumberValue(d decimal.Decimal) Value {
	return Value{Kind: KindNumber, Num: quantize(d)}
}

func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s}
}

func BoolValue(b bool) Value {
	return Value{Kind: KindBoolean, Bool: b}
}

func ErrorValue(code string) Value {
	return Value{Kind: KindError, Code: code}
}

func quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(DecimalScale)
}

// FormatNumber renders a quantized number without trailing fraction zeros.
func FormatNumber(d decimal.Decimal) string {
	s := quantize(d).String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// Truthy reports the boolean interpretation of v: numbers are truthy iff
// nonzero, strings iff non-empty, empty is falsy. Error values propagate.
func (v Value) Truthy() (bool, *FormulaError) {
	switch v.Kind {
	case KindBoolean:
		return v.Bool, nil
	case KindNumber:
		return !v.Num.IsZero(), nil
	case KindString:
		return v.Str != "", nil
	case KindEmpty:
		return false, nil
	case KindError:
		return false, &FormulaError{Code: v.Code}
	}
	return false, valueError()
}

// AsNumber forces v to a number. Empty, string and boolean operands do not
// coerce outside aggregate functions.
func (v Value) AsNumber() (decimal.Decimal, *FormulaError) {
	switch v.Kind {
	case KindNumber:
		return v.Num, nil
	case KindError:
		return decimal.Zero, &FormulaError{Code: v.Code}
	}
	return decimal.Zero, valueError()
}

// compareValues applies a single-level comparison operator to two operands.
// Operands must share a kind; the only cross-kind special case is the pair of
// empty operands under "=" and "<>".
func compareValues(op string, left, right Value) Value {
	if left.Kind == KindError {
		return left
	}
	if right.Kind == KindError {
		return right
	}

	if left.Kind == KindEmpty || right.Kind == KindEmpty {
		if left.Kind == KindEmpty && right.Kind == KindEmpty {
			switch op {
			case "=":
				return BoolValue(true)
			case "<>":
				return BoolValue(false)
			}
		}
		return ErrorValue(contracts.ErrorCodeValue)
	}

	if left.Kind != right.Kind {
		return ErrorValue(contracts.ErrorCodeValue)
	}

	var cmp int
	switch left.Kind {
	case KindNumber:
		cmp = left.Num.Cmp(right.Num)
	case KindString:
		cmp = strings.Compare(left.Str, right.Str)
	case KindBoolean:
		cmp = boolOrd(left.Bool) - boolOrd(right.Bool)
	default:
		return ErrorValue(contracts.ErrorCodeValue)
	}

	switch op {
	case "=":
		return BoolValue(cmp == 0)
	case "<>":
		return BoolValue(cmp != 0)
	case "<":
		return BoolValue(cmp < 0)
	case "<=":
		return BoolValue(cmp <= 0)
	case ">":
		return BoolValue(cmp > 0)
	case ">=":
		return BoolValue(cmp >= 0)
	}
	return ErrorValue(contracts.ErrorCodeValue)
}

// valuesEqual is the kind-aware exact equality used by VLOOKUP key matching:
// number=number, string=string, boolean=boolean, empty=empty.
func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNumber:
		return a.Num.Equal(b.Num)
	case KindString:
		return a.Str == b.Str
	case KindBoolean:
		return a.Bool == b.Bool
	case KindEmpty:
		return true
	}
	return false
}

func boolOrd(b bool) int {
	if b {
		return 1
	}
	return 0
}
