package cellgrid

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.etcd.io/bbolt"
)

// txDependencyTree wraps every tree call in its own transaction so tests read
// naturally.
type txDependencyTree struct {
	t    *testing.T
	db   *bbolt.DB
	tree CellDependencyTree
}

func (d *txDependencyTree) replaceEdges(sheetID []byte, source string, targets []string) {
	tx, err := d.db.Begin(true)
	assert.NoError(d.t, err)

	assert.NoError(d.t, d.tree.ReplaceEdges(tx, sheetID, source, targets))
	assert.NoError(d.t, tx.Commit())
}

func (d *txDependencyTree) dependants(sheetID []byte, target string) (result []string) {
	tx, err := d.db.Begin(false)
	assert.NoError(d.t, err)

	result = d.tree.Dependants(tx, sheetID, target)
	assert.NoError(d.t, tx.Rollback())
	return
}

func (d *txDependencyTree) dependsOn(sheetID []byte, source string) (result []string) {
	tx, err := d.db.Begin(false)
	assert.NoError(d.t, err)

	result = d.tree.DependsOn(tx, sheetID, source)
	assert.NoError(d.t, tx.Rollback())
	return
}

func _createTmpDb() (*bbolt.DB, func()) {
	f, _ := os.CreateTemp("", "db_*.db")
	os.Remove(f.Name())

	db, dbErr := bbolt.Open(f.Name(), 0600, nil)
	if dbErr != nil {
		panic(dbErr)
	}

	return db, func() {
		db.Close()
		os.Remove(f.Name())
	}
}

func TestCellDependencyTree(t *testing.T) {
	db, closeDb := _createTmpDb()
	defer closeDb()

	t.Run("direct_dependants", func(t *testing.T) {
		tree := &txDependencyTree{t: t, db: db}
		sheetID := []byte(t.Name())

		tree.replaceEdges(sheetID, "B1", []string{"A1", "A2"})

		assert.Empty(t, tree.dependants(sheetID, "B1"))
		assert.Equal(t, []string{"B1"}, tree.dependants(sheetID, "A1"))
		assert.Equal(t, []string{"B1"}, tree.dependants(sheetID, "A2"))
		assert.Equal(t, []string{"A1", "A2"}, tree.dependsOn(sheetID, "B1"))
	})

	t.Run("edges_fully_replaced_on_rewrite", func(t *testing.T) {
		tree := &txDependencyTree{t: t, db: db}
		sheetID := []byte(t.Name())

		tree.replaceEdges(sheetID, "B1", []string{"A1", "A2"})
		tree.replaceEdges(sheetID, "B1", []string{"A2", "A3"})

		assert.Empty(t, tree.dependants(sheetID, "A1"))
		assert.Equal(t, []string{"B1"}, tree.dependants(sheetID, "A2"))
		assert.Equal(t, []string{"B1"}, tree.dependants(sheetID, "A3"))
	})

	t.Run("clearing_edges", func(t *testing.T) {
		tree := &txDependencyTree{t: t, db: db}
		sheetID := []byte(t.Name())

		tree.replaceEdges(sheetID, "B1", []string{"A1"})
		tree.replaceEdges(sheetID, "B1", nil)

		assert.Empty(t, tree.dependants(sheetID, "A1"))
		assert.Empty(t, tree.dependsOn(sheetID, "B1"))
	})

	t.Run("duplicate_targets_collapse", func(t *testing.T) {
		tree := &txDependencyTree{t: t, db: db}
		sheetID := []byte(t.Name())

		tree.replaceEdges(sheetID, "B1", []string{"A1", "A1", "A1"})

		assert.Equal(t, []string{"A1"}, tree.dependsOn(sheetID, "B1"))
		assert.Equal(t, []string{"B1"}, tree.dependants(sheetID, "A1"))
	})

	t.Run("transitive_dependants", func(t *testing.T) {
		tree := &txDependencyTree{t: t, db: db}
		sheetID := []byte(t.Name())

		tree.replaceEdges(sheetID, "B1", []string{"A1"})
		tree.replaceEdges(sheetID, "C1", []string{"B1"})
		tree.replaceEdges(sheetID, "D1", []string{"C1", "A1"})

		dependants := tree.dependants(sheetID, "A1")
		assert.ElementsMatch(t, []string{"B1", "C1", "D1"}, unique(dependants))
	})

	t.Run("self_reference_terminates", func(t *testing.T) {
		tree := &txDependencyTree{t: t, db: db}
		sheetID := []byte(t.Name())

		tree.replaceEdges(sheetID, "A1", []string{"A1"})

		assert.Equal(t, []string{"A1"}, tree.dependants(sheetID, "A1"))
	})

	t.Run("sheets_are_isolated", func(t *testing.T) {
		tree := &txDependencyTree{t: t, db: db}

		tree.replaceEdges([]byte("one"), "B1", []string{"A1"})
		assert.Empty(t, tree.dependants([]byte("two"), "A1"))
	})
}

func unique(values []string) []string {
	seen := map[string]bool{}
	result := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}
