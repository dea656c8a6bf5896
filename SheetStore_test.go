package cellgrid

import (
	"testing"

	"cellgrid/contracts"
	"github.com/stretchr/testify/assert"
	"go.etcd.io/bbolt"
)

func TestSheetStore(t *testing.T) {
	db, closeDb := _createTmpDb()
	defer closeDb()

	store := NewSheetStore(NewCellCodec())
	sheetID := []byte("s")

	t.Run("cells_round_trip_through_codec", func(t *testing.T) {
		err := db.Update(func(tx *bbolt.Tx) error {
			return store.PutCell(tx, sheetID, "A1", &contracts.CellSnapshot{
				ValueType:      contracts.ValueNumber,
				RawInput:       "$5",
				ComputedType:   contracts.ComputedNumber,
				ComputedNumber: "5",
				ComputedString: "$5",
			})
		})
		assert.NoError(t, err)

		db.View(func(tx *bbolt.Tx) error {
			snap := store.GetCell(tx, sheetID, "A1")
			assert.NotNil(t, snap)
			assert.Equal(t, "$5", snap.RawInput)
			assert.Equal(t, "5", snap.ComputedNumber)

			assert.Nil(t, store.GetCell(tx, sheetID, "A2"))
			assert.Nil(t, store.GetCell(tx, []byte("other"), "A1"))
			return nil
		})
	})

	t.Run("row_and_column_objects_are_sparse", func(t *testing.T) {
		db.Update(func(tx *bbolt.Tx) error {
			assert.NoError(t, store.EnsureRow(tx, sheetID, 0))
			assert.NoError(t, store.EnsureCol(tx, sheetID, 3))
			return nil
		})

		db.View(func(tx *bbolt.Tx) error {
			assert.True(t, store.RowExists(tx, sheetID, 0))
			assert.False(t, store.RowExists(tx, sheetID, 1))
			assert.True(t, store.ColExists(tx, sheetID, 3))
			assert.False(t, store.ColExists(tx, sheetID, 0))
			return nil
		})
	})

	t.Run("reader_is_bound_to_sheet_and_tx", func(t *testing.T) {
		db.View(func(tx *bbolt.Tx) error {
			reader := store.Reader(tx, sheetID)

			snap := reader.CellAt(contracts.Position{Row: 0, Col: 0})
			assert.NotNil(t, snap)
			assert.Equal(t, "$5", snap.RawInput)

			cells := reader.RangeAt(contracts.Position{Row: 0, Col: 0}, contracts.Position{Row: 2, Col: 1})
			assert.Len(t, cells, 1)
			assert.Contains(t, cells, contracts.Position{Row: 0, Col: 0})
			return nil
		})
	})

	t.Run("corrupt_record_reads_as_missing", func(t *testing.T) {
		db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(sheetID).Put([]byte("Z9"), []byte("{not json"))
		})

		db.View(func(tx *bbolt.Tx) error {
			assert.Nil(t, store.GetCell(tx, sheetID, "Z9"))
			return nil
		})
	})
}

func TestCellCodec_Unmarshal(t *testing.T) {
	codec := NewCellCodec()

	_, err := codec.Unmarshal([]byte("nope"))
	assert.ErrorIs(t, err, SerializerError)
}
