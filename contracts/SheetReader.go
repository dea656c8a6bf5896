package contracts

// Position addresses a cell inside one sheet, zero-based.
type Position struct {
	Row int
	Col int
}

// SheetReader is the evaluator's read-only view of one sheet, bound by the
// caller to whatever transaction or snapshot the surrounding batch runs in.
type SheetReader interface {
	// CellAt returns the stored record at pos, nil when no record exists.
	CellAt(pos Position) *CellSnapshot

	// RangeAt returns every stored record inside the rectangle [start, end]
	// (corners inclusive), keyed by position. Positions without a record are
	// absent from the map.
	RangeAt(start, end Position) map[Position]*CellSnapshot

	// RowExists reports whether a row object has been created at row.
	RowExists(row int) bool

	// ColExists reports whether a column object has been created at col.
	ColExists(col int) bool
}
