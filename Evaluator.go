package cellgrid

import (
	"cellgrid/contracts"
	"github.com/shopspring/decimal"
)

type evalContext struct {
	sheet contracts.SheetReader
}

func (n *numberNode) eval(_ *evalContext) Value {
	return NumberValue(n.value)
}

func (n *stringNode) eval(_ *evalContext) Value {
	return StringValue(n.value)
}

func (n *boolNode) eval(_ *evalContext) Value {
	return BoolValue(n.value)
}

// eval resolves a single cell reference. A position whose row or column
// object does not exist is #REF!; a live but never-written cell is Empty.
func (n *refNode) eval(ctx *evalContext) Value {
	if !ctx.sheet.RowExists(n.row) || !ctx.sheet.ColExists(n.col) {
		return ErrorValue(contracts.ErrorCodeRef)
	}
	return snapshotToValue(ctx.sheet.CellAt(contracts.Position{Row: n.row, Col: n.col}))
}

// eval of a bare range outside a function argument position.
func (n *rangeNode) eval(_ *evalContext) Value {
	return ErrorValue(contracts.ErrorCodeValue)
}

func (n *unaryNode) eval(ctx *evalContext) Value {
	operand, err := n.operand.eval(ctx).AsNumber()
	if err != nil {
		return ErrorValue(err.Code)
	}
	if n.op == "-" {
		return NumberValue(operand.Neg())
	}
	return NumberValue(operand)
}

func (n *binaryNode) eval(ctx *evalContext) Value {
	left := n.left.eval(ctx)
	if left.Kind == KindError {
		return left
	}
	right := n.right.eval(ctx)
	if right.Kind == KindError && !isArithmeticOp(n.op) {
		return right
	}

	if !isArithmeticOp(n.op) {
		return compareValues(n.op, left, right)
	}

	leftNum, err := left.AsNumber()
	if err != nil {
		return ErrorValue(err.Code)
	}
	rightNum, err := right.AsNumber()
	if err != nil {
		return ErrorValue(err.Code)
	}

	switch n.op {
	case "+":
		return NumberValue(leftNum.Add(rightNum))
	case "-":
		return NumberValue(leftNum.Sub(rightNum))
	case "*":
		return NumberValue(leftNum.Mul(rightNum))
	case "/":
		if rightNum.IsZero() {
			return ErrorValue(contracts.ErrorCodeDiv0)
		}
		return NumberValue(leftNum.Div(rightNum))
	}
	return ErrorValue(contracts.ErrorCodeValue)
}

func isArithmeticOp(op string) bool {
	switch op {
	case "+", "-", "*", "/":
		return true
	}
	return false
}

func (n *callNode) eval(ctx *evalContext) Value {
	switch n.name {
	case "IF":
		return n.evalIf(ctx)
	case "AND", "OR":
		return n.evalAndOr(ctx)
	case "NOT":
		return n.evalNot(ctx)
	case "ABS":
		return n.evalAbs(ctx)
	case "ROUND":
		return n.evalRound(ctx)
	case "FLOOR", "CEILING":
		return n.evalFloorCeiling(ctx)
	case "SUM", "AVERAGE", "COUNT":
		return n.evalNumericAggregate(ctx)
	case "MIN", "MAX":
		return n.evalMinMax(ctx)
	case "VLOOKUP":
		return n.evalVlookup(ctx)
	}
	return ErrorValue(contracts.ErrorCodeRef)
}

// evalIf evaluates only the selected branch. The other branch was consumed by
// the parse, so IF(1=0, 1/0, 42) never raises #DIV/0!.
func (n *callNode) evalIf(ctx *evalContext) Value {
	if len(n.args) != 3 {
		return ErrorValue(contracts.ErrorCodeValue)
	}

	cond, err := n.args[0].eval(ctx).Truthy()
	if err != nil {
		return ErrorValue(err.Code)
	}
	if cond {
		return n.args[1].eval(ctx)
	}
	return n.args[2].eval(ctx)
}

// evalAndOr short-circuits across the argument list: AND stops at the first
// falsy argument, OR at the first truthy one; the rest stay unevaluated.
func (n *callNode) evalAndOr(ctx *evalContext) Value {
	if len(n.args) == 0 {
		return ErrorValue(contracts.ErrorCodeValue)
	}

	for _, arg := range n.args {
		truthy, err := arg.eval(ctx).Truthy()
		if err != nil {
			return ErrorValue(err.Code)
		}
		if n.name == "AND" && !truthy {
			return BoolValue(false)
		}
		if n.name == "OR" && truthy {
			return BoolValue(true)
		}
	}
	return BoolValue(n.name == "AND")
}

func (n *callNode) evalNot(ctx *evalContext) Value {
	if len(n.args) != 1 {
		return ErrorValue(contracts.ErrorCodeValue)
	}
	truthy, err := n.args[0].eval(ctx).Truthy()
	if err != nil {
		return ErrorValue(err.Code)
	}
	return BoolValue(!truthy)
}

func (n *callNode) evalAbs(ctx *evalContext) Value {
	if len(n.args) != 1 {
		return ErrorValue(contracts.ErrorCodeValue)
	}
	operand, err := n.args[0].eval(ctx).AsNumber()
	if err != nil {
		return ErrorValue(err.Code)
	}
	return NumberValue(operand.Abs())
}

// evalRound applies half-up rounding at the given digit count.
func (n *callNode) evalRound(ctx *evalContext) Value {
	if len(n.args) != 2 {
		return ErrorValue(contracts.ErrorCodeValue)
	}

	operand, err := n.args[0].eval(ctx).AsNumber()
	if err != nil {
		return ErrorValue(err.Code)
	}
	digits, digitsErr := integerArg(n.args[1].eval(ctx))
	if digitsErr != nil {
		return ErrorValue(digitsErr.Code)
	}

	return NumberValue(operand.Round(int32(digits)))
}

// evalFloorCeiling rounds toward the nearest multiple of the significance
// argument. Zero significance is #VALUE!.
func (n *callNode) evalFloorCeiling(ctx *evalContext) Value {
	if len(n.args) != 2 {
		return ErrorValue(contracts.ErrorCodeValue)
	}

	operand, err := n.args[0].eval(ctx).AsNumber()
	if err != nil {
		return ErrorValue(err.Code)
	}
	significance, err := n.args[1].eval(ctx).AsNumber()
	if err != nil {
		return ErrorValue(err.Code)
	}
	if significance.IsZero() {
		return ErrorValue(contracts.ErrorCodeValue)
	}

	quotient := operand.Div(significance)
	if n.name == "FLOOR" {
		quotient = quotient.Floor()
	} else {
		quotient = quotient.Ceil()
	}
	return NumberValue(quotient.Mul(significance))
}

// evalNumericAggregate implements SUM, AVERAGE and COUNT over a mix of scalar
// arguments and ranges. Missing cells in ranges count as zero for SUM and
// AVERAGE; COUNT counts only numeric cells.
func (n *callNode) evalNumericAggregate(ctx *evalContext) Value {
	if len(n.args) == 0 {
		return ErrorValue(contracts.ErrorCodeValue)
	}

	total := decimal.Zero
	items := 0
	numeric := 0

	consume := func(v Value, inRange bool) *FormulaError {
		switch v.Kind {
		case KindNumber:
			total = total.Add(v.Num)
			numeric++
			return nil
		case KindEmpty:
			return nil
		case KindError:
			if n.name == "COUNT" && inRange {
				// COUNT skips non-numeric cells, error cells included
				return nil
			}
			return &FormulaError{Code: v.Code}
		}
		if n.name == "COUNT" {
			return nil
		}
		return valueError()
	}

	for _, arg := range n.args {
		if r, ok := arg.(*rangeNode); ok {
			cells := ctx.sheet.RangeAt(
				contracts.Position{Row: r.startRow, Col: r.startCol},
				contracts.Position{Row: r.endRow, Col: r.endCol},
			)
			for row := r.startRow; row <= r.endRow; row++ {
				for col := r.startCol; col <= r.endCol; col++ {
					items++
					v := snapshotToValue(cells[contracts.Position{Row: row, Col: col}])
					if err := consume(v, true); err != nil {
						return ErrorValue(err.Code)
					}
				}
			}
			continue
		}

		items++
		if err := consume(arg.eval(ctx), false); err != nil {
			return ErrorValue(err.Code)
		}
	}

	switch n.name {
	case "SUM":
		return NumberValue(total)
	case "COUNT":
		return NumberValue(decimal.NewFromInt(int64(numeric)))
	}
	return NumberValue(total.Div(decimal.NewFromInt(int64(items))))
}

// evalMinMax folds an implicit zero whenever a range has fewer populated
// cells than its rectangular size, or a scalar reference resolves empty.
func (n *callNode) evalMinMax(ctx *evalContext) Value {
	if len(n.args) == 0 {
		return ErrorValue(contracts.ErrorCodeValue)
	}

	var values []decimal.Decimal
	implicitZero := false

	consume := func(v Value) *FormulaError {
		switch v.Kind {
		case KindNumber:
			values = append(values, v.Num)
			return nil
		case KindEmpty:
			implicitZero = true
			return nil
		case KindError:
			return &FormulaError{Code: v.Code}
		}
		return valueError()
	}

	for _, arg := range n.args {
		if r, ok := arg.(*rangeNode); ok {
			cells := ctx.sheet.RangeAt(
				contracts.Position{Row: r.startRow, Col: r.startCol},
				contracts.Position{Row: r.endRow, Col: r.endCol},
			)
			for row := r.startRow; row <= r.endRow; row++ {
				for col := r.startCol; col <= r.endCol; col++ {
					v := snapshotToValue(cells[contracts.Position{Row: row, Col: col}])
					if err := consume(v); err != nil {
						return ErrorValue(err.Code)
					}
				}
			}
			continue
		}

		if err := consume(arg.eval(ctx)); err != nil {
			return ErrorValue(err.Code)
		}
	}

	if implicitZero {
		values = append(values, decimal.Zero)
	}

	best := values[0]
	for _, v := range values[1:] {
		if (n.name == "MIN" && v.LessThan(best)) || (n.name == "MAX" && v.GreaterThan(best)) {
			best = v
		}
	}
	return NumberValue(best)
}

// evalVlookup scans the first column of the range row by row for an exact
// kind-aware match. Sorted-mode lookup (truthy 4th argument) is unsupported.
func (n *callNode) evalVlookup(ctx *evalContext) Value {
	if len(n.args) != 3 && len(n.args) != 4 {
		return ErrorValue(contracts.ErrorCodeValue)
	}

	key := n.args[0].eval(ctx)
	if key.Kind == KindError {
		return key
	}

	table, ok := n.args[1].(*rangeNode)
	if !ok {
		return ErrorValue(contracts.ErrorCodeValue)
	}

	colIndex, err := integerArg(n.args[2].eval(ctx))
	if err != nil {
		return ErrorValue(err.Code)
	}

	if len(n.args) == 4 {
		sorted, sortedErr := n.args[3].eval(ctx).Truthy()
		if sortedErr != nil {
			return ErrorValue(sortedErr.Code)
		}
		if sorted {
			return ErrorValue(contracts.ErrorCodeValue)
		}
	}

	width := table.endCol - table.startCol + 1
	if colIndex < 1 || int(colIndex) > width {
		return ErrorValue(contracts.ErrorCodeRef)
	}

	cells := ctx.sheet.RangeAt(
		contracts.Position{Row: table.startRow, Col: table.startCol},
		contracts.Position{Row: table.endRow, Col: table.endCol},
	)
	for row := table.startRow; row <= table.endRow; row++ {
		candidate := snapshotToValue(cells[contracts.Position{Row: row, Col: table.startCol}])
		if valuesEqual(key, candidate) {
			target := contracts.Position{Row: row, Col: table.startCol + int(colIndex) - 1}
			return snapshotToValue(cells[target])
		}
	}
	return ErrorValue(contracts.ErrorCodeNA)
}

// integerArg forces a value to an integral number within a sane magnitude,
// for digit counts and column indexes.
func integerArg(v Value) (int64, *FormulaError) {
	num, err := v.AsNumber()
	if err != nil {
		return 0, err
	}
	if !num.IsInteger() || num.Abs().GreaterThan(decimal.NewFromInt(1_000_000)) {
		return 0, valueError()
	}
	return num.IntPart(), nil
}

// snapshotToValue interprets a stored cell record as an evaluator value. A
// nil record reads as Empty.
func snapshotToValue(snap *contracts.CellSnapshot) Value {
	if snap == nil {
		return EmptyValue()
	}

	switch snap.ComputedType {
	case contracts.ComputedNumber:
		d, err := decimal.NewFromString(snap.ComputedNumber)
		if err != nil {
			return ErrorValue(contracts.ErrorCodeValue)
		}
		return NumberValue(d)
	case contracts.ComputedString:
		return StringValue(snap.ComputedString)
	case contracts.ComputedBoolean:
		return BoolValue(snap.ComputedString == "TRUE")
	case contracts.ComputedError:
		return ErrorValue(snap.ErrorCode)
	}
	return EmptyValue()
}
