package cellgrid

import (
	"fmt"
	"strings"

	"cellgrid/contracts"
	"go.etcd.io/bbolt"
)

// LiteralPrefix marks raw input that must be stored as literal text even when
// it would otherwise classify as a formula or number.
const LiteralPrefix = "'"

// SheetRepository is the storage-facing half of the batch orchestrator: one
// write transaction per cell edit, covering classification, the dependency
// edge rewrite and the recalculation pass. Concurrent writers are serialized
// by bbolt's single writer lock.
type SheetRepository struct {
	db     *bbolt.DB
	engine *FormulaEngine
	store  *SheetStore
	recalc *Recalculator
}

func NewSheetRepository(db *bbolt.DB, engine *FormulaEngine, store *SheetStore, recalc *Recalculator) *SheetRepository {
	return &SheetRepository{db: db, engine: engine, store: store, recalc: recalc}
}

// SetCell writes rawInput into the addressed cell and recalculates every
// transitively-dependent formula cell. Row and column objects are created for
// the written position only; referenced positions stay as they are.
func (s *SheetRepository) SetCell(sheetID string, cellRef string, rawInput string) (*contracts.CellSnapshot, error) {
	sheetIDBytes := []byte(strings.ToLower(sheetID))

	row, col, refErr := ReferenceToIndexes(cellRef)
	if refErr != nil {
		return nil, fmt.Errorf("%s: %w", cellRef, contracts.CellAddressError)
	}
	addr := IndexesToReference(row, col)

	snap := s.classify(rawInput)

	unchanged := false
	var result *contracts.CellSnapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		if existing := s.store.GetCell(tx, sheetIDBytes, addr); existing != nil && existing.RawInput == rawInput {
			unchanged = true
			result = existing
		}
		return nil
	})
	if err != nil || unchanged {
		return result, err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := s.store.EnsureRow(tx, sheetIDBytes, row); err != nil {
			return err
		}
		if err := s.store.EnsureCol(tx, sheetIDBytes, col); err != nil {
			return err
		}
		if err := s.store.PutCell(tx, sheetIDBytes, addr, snap); err != nil {
			return err
		}
		if err := s.recalc.Recalculate(tx, sheetIDBytes, addr, snap.RawInput); err != nil {
			return err
		}

		result = s.store.GetCell(tx, sheetIDBytes, addr)
		return nil
	})
	return result, err
}

func (s *SheetRepository) GetCell(sheetID string, cellRef string) (*contracts.CellSnapshot, error) {
	sheetIDBytes := []byte(strings.ToLower(sheetID))

	row, col, refErr := ReferenceToIndexes(cellRef)
	if refErr != nil {
		return nil, fmt.Errorf("%s: %w", cellRef, contracts.CellAddressError)
	}
	addr := IndexesToReference(row, col)

	var snap *contracts.CellSnapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		if !s.store.SheetExists(tx, sheetIDBytes) {
			return fmt.Errorf("%s: %w", sheetID, contracts.SheetNotFoundError)
		}
		if snap = s.store.GetCell(tx, sheetIDBytes, addr); snap == nil {
			return fmt.Errorf("%s: %w", addr, contracts.CellNotFoundError)
		}
		return nil
	})
	return snap, err
}

// GetSheet lists every stored cell record of a sheet keyed by canonical
// address.
func (s *SheetRepository) GetSheet(sheetID string) (map[string]*contracts.CellSnapshot, error) {
	sheetIDBytes := []byte(strings.ToLower(sheetID))

	cells := make(map[string]*contracts.CellSnapshot)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(sheetIDBytes)
		if bucket == nil {
			return fmt.Errorf("%s: %w", sheetID, contracts.SheetNotFoundError)
		}

		return bucket.ForEach(func(k, v []byte) error {
			snap, err := s.store.codec.Unmarshal(v)
			if err != nil {
				return err
			}
			cells[string(k)] = snap
			return nil
		})
	})
	return cells, err
}

// classify applies the leading-apostrophe literal convention before the
// engine's raw-input classification.
func (s *SheetRepository) classify(rawInput string) *contracts.CellSnapshot {
	if strings.HasPrefix(rawInput, LiteralPrefix) {
		return &contracts.CellSnapshot{
			ValueType:      contracts.ValueString,
			RawInput:       rawInput,
			ComputedType:   contracts.ComputedString,
			ComputedString: strings.TrimPrefix(rawInput, LiteralPrefix),
		}
	}
	return s.engine.ClassifyRawInput(rawInput)
}
