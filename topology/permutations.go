package topology

import "fmt"

// Orientation encoding. A facet permutation byte is rot<<1 | refl, where rot
// counts the rotations taking the local vertex order to the canonical order
// (lowest global vertex first) and refl marks a reversed traversal
// direction. The per-cell bitmask packs 3 bits per face (3D) followed by one
// reflection bit per edge; 2D cells carry edge bits only.

// facePermutation computes rot<<1|refl for a triangle or quadrilateral face
// given the global vertex ids in cell-local face order.
func facePermutation(g []int32) uint8 {
	n := len(g)
	rot := 0
	for i := 1; i < n; i++ {
		if g[i] < g[rot] {
			rot = i
		}
	}
	// Reflected if walking backwards from the minimal vertex meets a smaller
	// neighbour than walking forwards.
	next := g[(rot+1)%n]
	prev := g[(rot+n-1)%n]
	refl := uint8(0)
	if prev < next {
		refl = 1
	}
	return uint8(rot)<<1 | refl
}

// edgeReflected reports whether an edge's local vertex order disagrees with
// the canonical (increasing global id) order.
func edgeReflected(g0, g1 int32) bool {
	return g0 > g1
}

// CreateEntityPermutations computes the per-cell orientation bitmasks and the
// per-(local facet, cell) permutation bytes from the global vertex numbering.
// Entities at every dimension below tdim must exist. Idempotent.
func (t *Topology) CreateEntityPermutations() error {
	if t.permutationsSet {
		return nil
	}
	tdim := t.Dim()
	for d := 0; d < tdim; d++ {
		if t.indexMaps[d] == nil {
			return fmt.Errorf("%w: entities of dimension %d required for permutations",
				ErrNotInitialized, d)
		}
	}
	if t.frozen {
		return fmt.Errorf("%w: cannot create entity permutations", ErrFrozen)
	}

	cv := t.connectivity[tdim][0]
	cellMap := t.indexMaps[tdim]
	if cv == nil || cellMap == nil {
		return fmt.Errorf("%w: cell-vertex connectivity required for permutations",
			ErrNotInitialized)
	}
	numCells := int(cellMap.NumEntitiesTotal())
	numFacets := t.cellType.NumFacets()

	cellInfo := make([]uint32, numCells)
	facetPerms := make([]uint8, numCells*numFacets)

	edges := t.cellType.EntityVertices(1)

	switch tdim {
	case 1:
		// Interval cells: facets are vertices, no orientation freedom.

	case 2:
		for c := 0; c < numCells; c++ {
			g := cv.Links(int32(c))
			var info uint32
			for e, lv := range edges {
				if edgeReflected(g[lv[0]], g[lv[1]]) {
					info |= 1 << uint(e)
					facetPerms[c*numFacets+e] = 1
				}
			}
			cellInfo[c] = info
		}

	case 3:
		faceTable := t.cellType.EntityVertices(2)
		scratch := make([]int32, 4)
		for c := 0; c < numCells; c++ {
			g := cv.Links(int32(c))
			var info uint32
			for f, lv := range faceTable {
				fg := scratch[:len(lv)]
				for i, v := range lv {
					fg[i] = g[v]
				}
				p := facePermutation(fg)
				info |= uint32(p) << uint(3*f)
				facetPerms[c*numFacets+f] = p
			}
			for e, lv := range edges {
				if edgeReflected(g[lv[0]], g[lv[1]]) {
					info |= 1 << uint(3*len(faceTable)+e)
				}
			}
			cellInfo[c] = info
		}
	}

	t.cellPermutations = cellInfo
	t.facetPermutations = facetPerms
	t.permutationsSet = true
	return nil
}
