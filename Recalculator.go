package cellgrid

import (
	"sort"

	"cellgrid/contracts"
	"go.etcd.io/bbolt"
)

// Recalculator keeps every formula cell consistent after a write. It runs
// entirely inside the caller's write transaction, so an aborted batch leaves
// no partial recalculation behind.
type Recalculator struct {
	engine *FormulaEngine
	tree   *CellDependencyTree
	store  *SheetStore
}

func NewRecalculator(engine *FormulaEngine, tree *CellDependencyTree, store *SheetStore) *Recalculator {
	return &Recalculator{engine: engine, tree: tree, store: store}
}

// Recalculate handles one raw-input change at addr: the cell's outgoing
// dependency edges are replaced from the new formula text, the affected set
// (the cell plus all transitive dependants) is ordered with Kahn's algorithm
// restricted to intra-set edges, orderable formula cells are re-evaluated in
// that order, and every member of a residual cycle is marked #CYCLE!.
func (r *Recalculator) Recalculate(tx *bbolt.Tx, sheetID []byte, addr string, rawInput string) error {
	references := ExtractReferences(rawInput)
	if err := r.tree.ReplaceEdges(tx, sheetID, addr, references); err != nil {
		return err
	}

	// referenced cells become placeholder empty records so every edge has a
	// live endpoint; row/column objects are never created here
	for _, ref := range references {
		if r.store.GetCell(tx, sheetID, ref) == nil {
			empty := &contracts.CellSnapshot{ValueType: contracts.ValueEmpty}
			if err := r.store.PutCell(tx, sheetID, ref, empty); err != nil {
				return err
			}
		}
	}

	affected := map[string]bool{addr: true}
	for _, dependant := range r.tree.Dependants(tx, sheetID, addr) {
		affected[dependant] = true
	}

	ordered, cyclic := r.orderAffected(tx, sheetID, affected)

	for _, member := range cyclic {
		if err := r.markCycle(tx, sheetID, member); err != nil {
			return err
		}
	}

	reader := r.store.Reader(tx, sheetID)
	for _, member := range ordered {
		snap := r.store.GetCell(tx, sheetID, member)
		if snap == nil || snap.ValueType != contracts.ValueFormula {
			// non-formula cells in the affected set are never re-evaluated
			continue
		}

		ApplyResult(snap, r.engine.Evaluate(snap.RawInput, reader))
		if err := r.store.PutCell(tx, sheetID, member, snap); err != nil {
			return err
		}
	}

	return nil
}

// orderAffected runs Kahn's algorithm over the affected set, counting only
// edges whose both endpoints lie in the set. Cells it could not order are the
// members of dependency cycles.
func (r *Recalculator) orderAffected(tx *bbolt.Tx, sheetID []byte, affected map[string]bool) (ordered, cyclic []string) {
	indegree := make(map[string]int, len(affected))
	dependants := make(map[string][]string, len(affected))

	for member := range affected {
		count := 0
		for _, target := range r.tree.DependsOn(tx, sheetID, member) {
			if !affected[target] {
				continue
			}
			count++
			dependants[target] = append(dependants[target], member)
		}
		indegree[member] = count
	}

	ready := make([]string, 0, len(affected))
	for member, degree := range indegree {
		if degree == 0 {
			ready = append(ready, member)
		}
	}
	sort.Strings(ready)

	ordered = make([]string, 0, len(affected))
	for len(ready) > 0 {
		member := ready[0]
		ready = ready[1:]
		ordered = append(ordered, member)

		released := make([]string, 0, len(dependants[member]))
		for _, dependant := range dependants[member] {
			indegree[dependant]--
			if indegree[dependant] == 0 {
				released = append(released, dependant)
			}
		}
		sort.Strings(released)
		ready = append(ready, released...)
	}

	if len(ordered) < len(affected) {
		for member, degree := range indegree {
			if degree > 0 {
				cyclic = append(cyclic, member)
			}
		}
		sort.Strings(cyclic)
	}
	return ordered, cyclic
}

// markCycle flags one cycle member; cycle detection is "all members fail",
// never a best-effort value for any of them.
func (r *Recalculator) markCycle(tx *bbolt.Tx, sheetID []byte, addr string) error {
	snap := r.store.GetCell(tx, sheetID, addr)
	if snap == nil || snap.ValueType != contracts.ValueFormula {
		return nil
	}

	ApplyResult(snap, errorResult(contracts.ErrorCodeCycle))
	return r.store.PutCell(tx, sheetID, addr, snap)
}
