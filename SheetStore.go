package cellgrid

import (
	"strconv"

	"cellgrid/contracts"
	"go.etcd.io/bbolt"
)

var rowBucketPrefix = [4]byte{'_', '_', 'r', '_'}
var colBucketPrefix = [4]byte{'_', '_', 'c', '_'}

// SheetStore is the sparse-grid Cell Store: cell records live in one bucket
// per sheet under canonical "A1" keys, row and column objects in prefixed
// sibling buckets. All operations are scoped to a caller-owned transaction.
type SheetStore struct {
	codec *CellCodec
}

func NewSheetStore(codec *CellCodec) *SheetStore {
	return &SheetStore{codec: codec}
}

func (s *SheetStore) SheetExists(tx *bbolt.Tx, sheetID []byte) bool {
	return tx.Bucket(sheetID) != nil
}

func (s *SheetStore) PutCell(tx *bbolt.Tx, sheetID []byte, addr string, snap *contracts.CellSnapshot) error {
	bucket, err := tx.CreateBucketIfNotExists(sheetID)
	if err != nil {
		return err
	}

	data, err := s.codec.Marshal(snap)
	if err != nil {
		return err
	}
	return bucket.Put([]byte(addr), data)
}

// GetCell returns the stored record at addr, nil when the sheet or the cell
// has no record.
func (s *SheetStore) GetCell(tx *bbolt.Tx, sheetID []byte, addr string) *contracts.CellSnapshot {
	bucket := tx.Bucket(sheetID)
	if bucket == nil {
		return nil
	}

	data := bucket.Get([]byte(addr))
	if data == nil {
		return nil
	}

	snap, err := s.codec.Unmarshal(data)
	if err != nil {
		return nil
	}
	return snap
}

func (s *SheetStore) EnsureRow(tx *bbolt.Tx, sheetID []byte, row int) error {
	bucket, err := tx.CreateBucketIfNotExists(prefixedBucketID(rowBucketPrefix, sheetID))
	if err != nil {
		return err
	}
	return bucket.Put([]byte(strconv.Itoa(row)), []byte{})
}

func (s *SheetStore) EnsureCol(tx *bbolt.Tx, sheetID []byte, col int) error {
	bucket, err := tx.CreateBucketIfNotExists(prefixedBucketID(colBucketPrefix, sheetID))
	if err != nil {
		return err
	}
	return bucket.Put([]byte(strconv.Itoa(col)), []byte{})
}

func (s *SheetStore) RowExists(tx *bbolt.Tx, sheetID []byte, row int) bool {
	bucket := tx.Bucket(prefixedBucketID(rowBucketPrefix, sheetID))
	return bucket != nil && bucket.Get([]byte(strconv.Itoa(row))) != nil
}

func (s *SheetStore) ColExists(tx *bbolt.Tx, sheetID []byte, col int) bool {
	bucket := tx.Bucket(prefixedBucketID(colBucketPrefix, sheetID))
	return bucket != nil && bucket.Get([]byte(strconv.Itoa(col))) != nil
}

// Reader binds a contracts.SheetReader to one transaction and sheet.
func (s *SheetStore) Reader(tx *bbolt.Tx, sheetID []byte) contracts.SheetReader {
	return &txSheetReader{store: s, tx: tx, sheetID: sheetID}
}

func prefixedBucketID(prefix [4]byte, sheetID []byte) []byte {
	return append(prefix[:], sheetID...)
}

type txSheetReader struct {
	store   *SheetStore
	tx      *bbolt.Tx
	sheetID []byte
}

func (r *txSheetReader) CellAt(pos contracts.Position) *contracts.CellSnapshot {
	return r.store.GetCell(r.tx, r.sheetID, IndexesToReference(pos.Row, pos.Col))
}

func (r *txSheetReader) RangeAt(start, end contracts.Position) map[contracts.Position]*contracts.CellSnapshot {
	cells := make(map[contracts.Position]*contracts.CellSnapshot)
	for row := start.Row; row <= end.Row; row++ {
		for col := start.Col; col <= end.Col; col++ {
			pos := contracts.Position{Row: row, Col: col}
			if snap := r.CellAt(pos); snap != nil {
				cells[pos] = snap
			}
		}
	}
	return cells
}

func (r *txSheetReader) RowExists(row int) bool {
	return r.store.RowExists(r.tx, r.sheetID, row)
}

func (r *txSheetReader) ColExists(col int) bool {
	return r.store.ColExists(r.tx, r.sheetID, col)
}
