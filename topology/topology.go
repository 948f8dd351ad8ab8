// Package topology implements the mesh topology engine: per-dimension entity
// index maps, lazily computed connectivity between dimension pairs, and the
// orientation permutations consumed by assembly kernels.
package topology

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/notargets/gofem/graph"
)

// ErrNotInitialized reports a query for entities or connectivity that have
// not been created. This is a build-order defect in the caller, not a
// recoverable runtime condition.
var ErrNotInitialized = errors.New("topology not initialized")

// ErrFrozen reports an attempt to compute new topology data after Freeze.
var ErrFrozen = errors.New("topology is frozen")

const maxDim = 3

// Topology stores the connectivity of a mesh: an index map per created
// dimension and an adjacency list per created (d0,d1) pair. Absent
// connectivity means "not yet computed", distinct from computed-but-empty.
//
// The Create* methods mutate cached state and form a single-threaded build
// phase; after Freeze (or once any concurrent entity loop starts) the
// structure must be treated as immutable.
type Topology struct {
	cellType CellType

	indexMaps    [maxDim + 1]*IndexMap
	connectivity [maxDim + 1][maxDim + 1]*graph.AdjacencyList

	// Orientation data, computed by CreateEntityPermutations.
	cellPermutations  []uint32
	facetPermutations []uint8 // [cell*NumFacets + localFacet]
	permutationsSet   bool

	// Facet classification, computed with (tdim-1, tdim) connectivity.
	interiorFacets []bool

	frozen bool
}

// New creates an empty topology for the given cell type.
func New(cellType CellType) *Topology {
	return &Topology{cellType: cellType}
}

// Dim returns the topological dimension.
func (t *Topology) Dim() int {
	return t.cellType.Dim()
}

// CellType returns the reference cell type.
func (t *Topology) CellType() CellType {
	return t.cellType
}

// SetIndexMap attaches the index map for dimension d.
func (t *Topology) SetIndexMap(d int, m *IndexMap) {
	t.indexMaps[d] = m
}

// IndexMap returns the index map for dimension d, or nil if entities at d
// have not been created.
func (t *Topology) IndexMap(d int) *IndexMap {
	return t.indexMaps[d]
}

// SetConnectivity attaches the (d0,d1) adjacency list.
func (t *Topology) SetConnectivity(adj *graph.AdjacencyList, d0, d1 int) {
	t.connectivity[d0][d1] = adj
}

// Connectivity returns the (d0,d1) adjacency list, or nil if not computed.
func (t *Topology) Connectivity(d0, d1 int) *graph.AdjacencyList {
	return t.connectivity[d0][d1]
}

// NumEntities returns the local entity count (owned plus ghost) at dimension
// d. Entities must have been created first.
func (t *Topology) NumEntities(d int) (int32, error) {
	m := t.indexMaps[d]
	if m == nil {
		return 0, fmt.Errorf("%w: entities of dimension %d have not been created",
			ErrNotInitialized, d)
	}
	return m.NumEntitiesTotal(), nil
}

// CellPermutationInfo returns one orientation bitmask per local cell.
func (t *Topology) CellPermutationInfo() ([]uint32, error) {
	if !t.permutationsSet {
		return nil, fmt.Errorf("%w: entity permutations have not been computed",
			ErrNotInitialized)
	}
	return t.cellPermutations, nil
}

// FacetPermutations returns the facet orientation bytes, stored as
// [cell*NumFacets + localFacet].
func (t *Topology) FacetPermutations() ([]uint8, error) {
	if !t.permutationsSet {
		return nil, fmt.Errorf("%w: entity permutations have not been computed",
			ErrNotInitialized)
	}
	return t.facetPermutations, nil
}

// FacetPermutation returns the orientation byte of facet localFacet as seen
// from cell.
func (t *Topology) FacetPermutation(localFacet int, cell int32) uint8 {
	return t.facetPermutations[int(cell)*t.cellType.NumFacets()+localFacet]
}

// InteriorFacets returns, per facet, whether exactly two cells are incident.
// Requires (tdim-1, tdim) connectivity.
func (t *Topology) InteriorFacets() ([]bool, error) {
	if t.interiorFacets == nil {
		return nil, fmt.Errorf("%w: connectivity (%d,%d) has not been created",
			ErrNotInitialized, t.Dim()-1, t.Dim())
	}
	return t.interiorFacets, nil
}

// Freeze ends the build phase. Subsequent Create* calls fail unless the
// requested data already exists.
func (t *Topology) Freeze() {
	t.frozen = true
}

// Clone returns a deep copy.
func (t *Topology) Clone() *Topology {
	c := New(t.cellType)
	for d := 0; d <= maxDim; d++ {
		if t.indexMaps[d] != nil {
			c.indexMaps[d] = t.indexMaps[d].Clone()
		}
		for d1 := 0; d1 <= maxDim; d1++ {
			if t.connectivity[d][d1] != nil {
				c.connectivity[d][d1] = t.connectivity[d][d1].Clone()
			}
		}
	}
	if t.permutationsSet {
		c.cellPermutations = append([]uint32(nil), t.cellPermutations...)
		c.facetPermutations = append([]uint8(nil), t.facetPermutations...)
		c.permutationsSet = true
	}
	if t.interiorFacets != nil {
		c.interiorFacets = append([]bool(nil), t.interiorFacets...)
	}
	return c
}

// Hash returns a content hash of the cell-vertex connectivity, used for mesh
// consistency checks.
func (t *Topology) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte{byte(t.cellType)})
	if cv := t.connectivity[t.Dim()][0]; cv != nil {
		var buf [8]byte
		v := cv.Hash()
		for i := range buf {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	return h.Sum64()
}
