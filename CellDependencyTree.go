package cellgrid

import (
	"bytes"

	"go.etcd.io/bbolt"
)

// CellDependencyTree persists formula→referenced-cell edges per sheet in a
// dedicated bucket. The forward edge list of a cell sits under a
// double-delimiter key; every reverse edge is its own prefix-scannable
// "target<delim>source" key, so collecting dependants of a cell is a cursor
// seek.
type CellDependencyTree struct{}

const depDelimiter = byte(0x00)

var depBucketPrefix = [4]byte{'_', '_', 'd', '_'}

// ReplaceEdges swaps the full outgoing edge set of source: edges to targets
// no longer referenced are invalidated, new ones inserted. Duplicate targets
// collapse to one edge.
func (t *CellDependencyTree) ReplaceEdges(tx *bbolt.Tx, sheetID []byte, source string, targets []string) error {
	bucket, err := tx.CreateBucketIfNotExists(prefixedBucketID(depBucketPrefix, sheetID))
	if err != nil {
		return err
	}

	stale := map[string]bool{}
	if previous := bucket.Get(forwardKey(source)); previous != nil {
		for _, target := range bytes.Split(previous, []byte{depDelimiter}) {
			stale[string(target)] = true
		}
	}

	seen := map[string]bool{}
	kept := make([][]byte, 0, len(targets))
	for _, target := range targets {
		if seen[target] {
			continue
		}
		seen[target] = true
		kept = append(kept, []byte(target))

		if stale[target] {
			delete(stale, target)
			continue
		}
		if err = bucket.Put(reverseKey(target, source), []byte{}); err != nil {
			return err
		}
	}

	for target := range stale {
		if err = bucket.Delete(reverseKey(target, source)); err != nil {
			return err
		}
	}

	if len(kept) == 0 {
		return bucket.Delete(forwardKey(source))
	}
	return bucket.Put(forwardKey(source), bytes.Join(kept, []byte{depDelimiter}))
}

// DependsOn returns the direct forward edge list of source.
func (t *CellDependencyTree) DependsOn(tx *bbolt.Tx, sheetID []byte, source string) []string {
	bucket := tx.Bucket(prefixedBucketID(depBucketPrefix, sheetID))
	if bucket == nil {
		return nil
	}

	data := bucket.Get(forwardKey(source))
	if data == nil {
		return nil
	}

	parts := bytes.Split(data, []byte{depDelimiter})
	targets := make([]string, 0, len(parts))
	for _, part := range parts {
		targets = append(targets, string(part))
	}
	return targets
}

// Dependants returns every cell whose formula depends on target, directly or
// transitively, by walking reverse edges with a visited set.
func (t *CellDependencyTree) Dependants(tx *bbolt.Tx, sheetID []byte, target string) []string {
	bucket := tx.Bucket(prefixedBucketID(depBucketPrefix, sheetID))
	if bucket == nil {
		return []string{}
	}

	return t.collectDependants(bucket, target, map[string]bool{target: true})
}

func (t *CellDependencyTree) collectDependants(bucket *bbolt.Bucket, target string, visited map[string]bool) []string {
	dependants := t.directDependants(bucket, target)

	for _, dependant := range dependants {
		if !visited[dependant] {
			visited[dependant] = true
			dependants = append(dependants, t.collectDependants(bucket, dependant, visited)...)
		}
	}
	return dependants
}

func (t *CellDependencyTree) directDependants(bucket *bbolt.Bucket, target string) []string {
	dependants := make([]string, 0, 4)

	prefix := append([]byte(target), depDelimiter)
	c := bucket.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		dependants = append(dependants, string(k[len(prefix):]))
	}
	return dependants
}

func forwardKey(source string) []byte {
	return append([]byte{depDelimiter, depDelimiter}, []byte(source)...)
}

func reverseKey(target, source string) []byte {
	key := append([]byte(target), depDelimiter)
	return append(key, []byte(source)...)
}
