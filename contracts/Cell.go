package contracts

import "errors"

// ValueType classifies a cell's raw input.
type ValueType uint8

const (
	ValueEmpty ValueType = iota
	ValueString
	ValueNumber
	ValueBoolean
	ValueFormula
)

// ComputedType classifies a cell's evaluated result. It is a cache derived
// from RawInput plus the referenced cells at evaluation time, never a second
// source of truth.
type ComputedType uint8

const (
	ComputedEmpty ComputedType = iota
	ComputedNumber
	ComputedString
	ComputedBoolean
	ComputedError
)

// Stable error codes, surfaced verbatim to callers.
const (
	ErrorCodeRef   = "#REF!"
	ErrorCodeValue = "#VALUE!"
	ErrorCodeDiv0  = "#DIV/0!"
	ErrorCodeNA    = "#N/A"
	ErrorCodeCycle = "#CYCLE!"
)

var SheetNotFoundError = errors.New("sheet not found")

var CellNotFoundError = errors.New("cell not found")

var CellAddressError = errors.New("invalid cell address")

// CellSnapshot is the stored shape of one cell: classification of the raw
// input plus the cached evaluation result. Formula cells keep the leading "="
// in RawInput.
type CellSnapshot struct {
	ValueType      ValueType    `json:"value_type"`
	RawInput       string       `json:"raw_input"`
	ComputedType   ComputedType `json:"computed_type"`
	ComputedNumber string       `json:"computed_number,omitempty"`
	ComputedString string       `json:"computed_string,omitempty"`
	ErrorCode      string       `json:"error_code,omitempty"`
}
