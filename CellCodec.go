package cellgrid

import (
	"errors"
	"fmt"

	"cellgrid/contracts"
	json "github.com/bytedance/sonic"
)

var SerializerError = errors.New("invalid serialized cell record")

// CellCodec encodes cell records for storage.
type CellCodec struct{}

func NewCellCodec() *CellCodec {
	return &CellCodec{}
}

func (c *CellCodec) Marshal(snap *contracts.CellSnapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", SerializerError, err)
	}
	return data, nil
}

func (c *CellCodec) Unmarshal(data []byte) (*contracts.CellSnapshot, error) {
	snap := &contracts.CellSnapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("%w: %v (data: %s)", SerializerError, err, string(data))
	}
	return snap, nil
}
