package cellgrid

import (
	"testing"

	"cellgrid/contracts"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateCurrencyInference(t *testing.T) {
	sheet := newFakeSheet()
	sheet.set("A1", "$5")
	sheet.set("A2", "3")
	sheet.set("B1", "€2")

	t.Run("single_shared_symbol", func(t *testing.T) {
		result := evalOn(t, sheet, "A1+A2")
		assertNumber(t, "8", result)
		assert.Equal(t, "$8", result.Text)
	})

	t.Run("symbol_through_range", func(t *testing.T) {
		result := evalOn(t, sheet, "SUM(A1:A2)")
		assert.Equal(t, "$8", result.Text)
	})

	t.Run("no_symbol", func(t *testing.T) {
		result := evalOn(t, sheet, "A2*2")
		assertNumber(t, "6", result)
		assert.Equal(t, "", result.Text)
	})

	t.Run("conflicting_symbols", func(t *testing.T) {
		assertError(t, contracts.ErrorCodeValue, evalOn(t, sheet, "A1+B1"))
	})

	t.Run("non_numeric_result_skips_inference", func(t *testing.T) {
		result := evalOn(t, sheet, "A1>B1")
		assert.Equal(t, contracts.ComputedBoolean, result.Type)
	})
}

func TestClassifyRawInput(t *testing.T) {
	engine := NewFormulaEngine()

	t.Run("whitespace_only_is_empty", func(t *testing.T) {
		snap := engine.ClassifyRawInput("   ")
		assert.Equal(t, contracts.ValueEmpty, snap.ValueType)
		assert.Equal(t, contracts.ComputedEmpty, snap.ComputedType)
	})

	t.Run("number", func(t *testing.T) {
		snap := engine.ClassifyRawInput(" 12.50 ")
		assert.Equal(t, contracts.ValueNumber, snap.ValueType)
		assert.Equal(t, "12.5", snap.ComputedNumber)
		assert.Equal(t, " 12.50 ", snap.RawInput)
	})

	t.Run("currency_prefixed_number", func(t *testing.T) {
		snap := engine.ClassifyRawInput("$12.50")
		assert.Equal(t, contracts.ValueNumber, snap.ValueType)
		assert.Equal(t, "12.5", snap.ComputedNumber)
		assert.Equal(t, "$12.5", snap.ComputedString)
	})

	t.Run("boolean", func(t *testing.T) {
		snap := engine.ClassifyRawInput("true")
		assert.Equal(t, contracts.ValueBoolean, snap.ValueType)
		assert.Equal(t, "TRUE", snap.ComputedString)
	})

	t.Run("formula_waits_for_evaluation", func(t *testing.T) {
		snap := engine.ClassifyRawInput("=1+2")
		assert.Equal(t, contracts.ValueFormula, snap.ValueType)
		assert.Equal(t, contracts.ComputedEmpty, snap.ComputedType)
	})

	t.Run("anything_else_is_string", func(t *testing.T) {
		snap := engine.ClassifyRawInput("hello $5")
		assert.Equal(t, contracts.ValueString, snap.ValueType)
		assert.Equal(t, "hello $5", snap.ComputedString)
	})
}

func TestEvaluateNeverReturnsGoError(t *testing.T) {
	sheet := newFakeSheet()

	for _, formula := range []string{"=", "=)", "=1+", "=SUM(", `="x`, "=@", "=A0"} {
		result := NewFormulaEngine().Evaluate(formula, sheet)
		assert.Equal(t, contracts.ComputedError, result.Type, formula)
		assert.Equal(t, contracts.ErrorCodeRef, result.ErrorCode, formula)
	}
}
