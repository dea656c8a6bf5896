package cellgrid

import (
	"go.etcd.io/bbolt"
)

// ServiceContainer wires the engine, store and recalculator around one
// database handle.
type ServiceContainer struct {
	Database     *bbolt.DB
	Engine       *FormulaEngine
	Store        *SheetStore
	Recalculator *Recalculator
	Sheets       *SheetRepository
}

func BuildServiceContainer(dbPath string) (container ServiceContainer, err error) {
	container.Database, err = bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return
	}

	container.Engine = NewFormulaEngine()
	container.Store = NewSheetStore(NewCellCodec())
	container.Recalculator = NewRecalculator(container.Engine, &CellDependencyTree{}, container.Store)
	container.Sheets = NewSheetRepository(container.Database, container.Engine, container.Store, container.Recalculator)

	return
}
