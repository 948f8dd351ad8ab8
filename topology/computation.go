package topology

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/notargets/gofem/graph"
)

// entityKey builds the canonical (sorted) vertex signature used to identify
// an entity shared between cells.
func entityKey(verts []int32) string {
	s := append([]int32(nil), verts...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	var b strings.Builder
	for i, v := range s {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(strconv.Itoa(int(v)))
	}
	return b.String()
}

// CreateEntities computes the entities of dimension dim from the cell-vertex
// connectivity, producing the (tdim,dim) and (dim,0) adjacency lists and the
// dimension-dim index map. Entities incident to at least one owned cell are
// owned and numbered before ghost entities.
//
// Vertices (dim 0) and cells (dim tdim) are construction inputs and must
// already exist. Returns the owned entity count, or -1 if the entities were
// already present.
func (t *Topology) CreateEntities(dim int) (int32, error) {
	tdim := t.Dim()
	if dim < 0 || dim > tdim {
		return 0, fmt.Errorf("invalid entity dimension %d for %s topology",
			dim, t.cellType)
	}
	if dim == 0 || dim == tdim {
		if t.indexMaps[dim] == nil {
			return 0, fmt.Errorf("%w: entities of dimension %d must be set at construction",
				ErrNotInitialized, dim)
		}
		return -1, nil
	}
	if t.connectivity[dim][0] != nil {
		return -1, nil
	}
	if t.frozen {
		return 0, fmt.Errorf("%w: cannot create entities of dimension %d",
			ErrFrozen, dim)
	}

	cv := t.connectivity[tdim][0]
	cellMap := t.indexMaps[tdim]
	if cv == nil || cellMap == nil || t.indexMaps[0] == nil {
		return 0, fmt.Errorf("%w: cell-vertex connectivity required to create dimension %d entities",
			ErrNotInitialized, dim)
	}

	localVerts := t.cellType.EntityVertices(dim)
	perCell := len(localVerts)
	numCells := cellMap.NumEntitiesTotal()

	type entity struct {
		vertices []int32
		owned    bool
	}
	index := make(map[string]int32)
	var entities []entity
	cellEnt := make([]int32, int(numCells)*perCell)

	for c := int32(0); c < numCells; c++ {
		cvs := cv.Links(c)
		for e, lv := range localVerts {
			verts := make([]int32, len(lv))
			for i, v := range lv {
				verts[i] = cvs[v]
			}
			key := entityKey(verts)
			id, ok := index[key]
			if !ok {
				id = int32(len(entities))
				// The first-seen cell-local orientation defines the
				// entity's vertex order.
				entities = append(entities, entity{vertices: verts})
				index[key] = id
			}
			if cellMap.IsOwned(c) {
				entities[id].owned = true
			}
			cellEnt[int(c)*perCell+e] = id
		}
	}

	// Renumber so owned entities precede ghosts.
	renum := make([]int32, len(entities))
	var owned int32
	for i := range entities {
		if entities[i].owned {
			renum[i] = owned
			owned++
		}
	}
	next := owned
	for i := range entities {
		if !entities[i].owned {
			renum[i] = next
			next++
		}
	}

	for i := range cellEnt {
		cellEnt[i] = renum[cellEnt[i]]
	}
	cellEntity, err := graph.NewFixed(cellEnt, perCell)
	if err != nil {
		return 0, err
	}

	rows := make([][]int32, len(entities))
	for i := range entities {
		rows[renum[i]] = entities[i].vertices
	}

	t.connectivity[tdim][dim] = cellEntity
	t.connectivity[dim][0] = graph.New(rows)
	t.indexMaps[dim] = NewIndexMap(owned, next-owned, int64(owned))
	return owned, nil
}

// CreateConnectivity ensures entities at d0 and d1 exist and computes the
// (d0,d1) adjacency. When the computation produces the (d1,d0) list as a
// byproduct, both are cached. For (tdim-1, tdim) the interior/exterior facet
// classification is also computed.
func (t *Topology) CreateConnectivity(d0, d1 int) error {
	tdim := t.Dim()
	if d0 < 0 || d0 > tdim || d1 < 0 || d1 > tdim {
		return fmt.Errorf("invalid connectivity pair (%d,%d) for %s topology",
			d0, d1, t.cellType)
	}
	if t.connectivity[d0][d1] != nil {
		if d0 == tdim-1 && d1 == tdim && t.interiorFacets == nil {
			t.computeInteriorFacets()
		}
		return nil
	}
	if t.frozen {
		return fmt.Errorf("%w: cannot create connectivity (%d,%d)", ErrFrozen, d0, d1)
	}

	if _, err := t.CreateEntities(d0); err != nil {
		return err
	}
	if _, err := t.CreateEntities(d1); err != nil {
		return err
	}

	switch {
	case d0 == d1:
		n, err := t.NumEntities(d0)
		if err != nil {
			return err
		}
		flat := make([]int32, n)
		for i := range flat {
			flat[i] = int32(i)
		}
		if n == 0 {
			t.connectivity[d0][d1] = graph.New(nil)
			break
		}
		identity, err := graph.NewFixed(flat, 1)
		if err != nil {
			return err
		}
		t.connectivity[d0][d1] = identity

	case d1 == 0, d0 == tdim:
		// Produced by entity creation; absence here means the build order
		// contract was violated.
		if t.connectivity[d0][d1] == nil {
			return fmt.Errorf("%w: connectivity (%d,%d) missing after entity creation",
				ErrNotInitialized, d0, d1)
		}

	case d0 < d1:
		// Compute the (d1,d0) list first and keep it; (d0,d1) is its
		// transpose.
		if err := t.CreateConnectivity(d1, d0); err != nil {
			return err
		}
		n0, err := t.NumEntities(d0)
		if err != nil {
			return err
		}
		t.connectivity[d0][d1] = t.connectivity[d1][d0].Transpose(n0)

	default:
		if err := t.computeFromCells(d0, d1); err != nil {
			return err
		}
	}

	if d0 == tdim-1 && d1 == tdim {
		t.computeInteriorFacets()
	}
	return nil
}

// computeFromCells computes (d0,d1) for 0 < d1 < d0 < tdim by locating each
// d0-entity inside one of its cells and collecting the cell's d1-subentities
// whose vertices it contains.
func (t *Topology) computeFromCells(d0, d1 int) error {
	tdim := t.Dim()
	cellD0 := t.connectivity[tdim][d0]
	cellD1 := t.connectivity[tdim][d1]
	cv := t.connectivity[tdim][0]

	n0, err := t.NumEntities(d0)
	if err != nil {
		return err
	}
	if t.connectivity[d0][tdim] == nil {
		// Byproduct: keep the entity-to-cell transpose.
		t.connectivity[d0][tdim] = cellD0.Transpose(n0)
	}
	e0ToCell := t.connectivity[d0][tdim]
	e0Verts := t.connectivity[d0][0]
	subVerts := t.cellType.EntityVertices(d1)

	rows := make([][]int32, n0)
	vset := make(map[int32]bool)
	for e := int32(0); e < n0; e++ {
		clear(vset)
		for _, v := range e0Verts.Links(e) {
			vset[v] = true
		}
		cells := e0ToCell.Links(e)
		if len(cells) == 0 {
			continue
		}
		c := cells[0]
		cvs := cv.Links(c)
		for le, lv := range subVerts {
			contained := true
			for _, v := range lv {
				if !vset[cvs[v]] {
					contained = false
					break
				}
			}
			if contained {
				rows[e] = append(rows[e], cellD1.Links(c)[le])
			}
		}
	}
	t.connectivity[d0][d1] = graph.New(rows)
	return nil
}

// computeInteriorFacets classifies each facet: interior iff exactly two cells
// are incident in the local connectivity. Facets on a partition boundary of a
// ghost-free submesh have one incident cell and classify exterior.
func (t *Topology) computeInteriorFacets() {
	fc := t.connectivity[t.Dim()-1][t.Dim()]
	flags := make([]bool, fc.NumNodes())
	for f := range flags {
		flags[f] = fc.NumLinks(int32(f)) == 2
	}
	t.interiorFacets = flags
}

// CreateConnectivityAll computes every entity dimension and every
// connectivity pair.
func (t *Topology) CreateConnectivityAll() error {
	tdim := t.Dim()
	for d := 0; d <= tdim; d++ {
		if _, err := t.CreateEntities(d); err != nil {
			return err
		}
	}
	for d0 := 0; d0 <= tdim; d0++ {
		for d1 := 0; d1 <= tdim; d1++ {
			if err := t.CreateConnectivity(d0, d1); err != nil {
				return err
			}
		}
	}
	return nil
}
