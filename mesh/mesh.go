package mesh

import (
	"errors"
	"fmt"

	"github.com/notargets/gofem/graph"
	"github.com/notargets/gofem/topology"
)

// ErrEmptyMesh reports a derived-metric query on a mesh without cells.
var ErrEmptyMesh = errors.New("mesh has no cells")

// Mesh owns one Topology and one Geometry. Entities and connectivity beyond
// vertices and cells are created lazily through the topology build phase and
// cached for the lifetime of the mesh; cached data is never recomputed or
// evicted.
type Mesh struct {
	topology *topology.Topology
	geometry *Geometry
}

// New builds a mesh from cell-vertex connectivity and vertex coordinates
// (row-major, three components per vertex). The geometry uses the vertices
// as coordinate nodes. All cells are owned.
func New(cellType topology.CellType, cells *graph.AdjacencyList, x []float64, gdim int) (*Mesh, error) {
	n := cells.NumNodes()
	return NewWithCellIndexMap(cellType, cells,
		topology.NewIndexMap(n, 0, int64(n)), x, gdim)
}

// NewWithCellIndexMap builds a mesh whose cell ownership layout is given
// explicitly, e.g. a partition-local mesh whose trailing cells are ghosts.
func NewWithCellIndexMap(cellType topology.CellType, cells *graph.AdjacencyList,
	cellMap *topology.IndexMap, x []float64, gdim int) (*Mesh, error) {

	if cells.Degree() != cellType.NumVertices() {
		return nil, fmt.Errorf("cell connectivity degree %d does not match %s (%d vertices)",
			cells.Degree(), cellType, cellType.NumVertices())
	}
	if cellMap.NumEntitiesTotal() != cells.NumNodes() {
		return nil, fmt.Errorf("cell index map covers %d cells, connectivity has %d",
			cellMap.NumEntitiesTotal(), cells.NumNodes())
	}
	numVertices := int32(len(x) / 3)

	tdim := cellType.Dim()
	top := topology.New(cellType)
	top.SetIndexMap(0, topology.NewIndexMap(numVertices, 0, int64(numVertices)))
	top.SetIndexMap(tdim, cellMap)
	top.SetConnectivity(cells.Clone(), tdim, 0)

	geom, err := NewGeometry(x, gdim, cells.Clone())
	if err != nil {
		return nil, err
	}
	return &Mesh{topology: top, geometry: geom}, nil
}

// Compose builds a mesh from an existing topology/geometry pair, taking
// ownership of both.
func Compose(top *topology.Topology, geom *Geometry) *Mesh {
	return &Mesh{topology: top, geometry: geom}
}

// Copy returns a deep copy; cached topology data carries over but the copies
// evolve independently afterwards.
func (m *Mesh) Copy() *Mesh {
	return &Mesh{
		topology: m.topology.Clone(),
		geometry: m.geometry.Clone(),
	}
}

// Topology returns the mesh topology.
func (m *Mesh) Topology() *topology.Topology {
	return m.topology
}

// Geometry returns the mesh geometry.
func (m *Mesh) Geometry() *Geometry {
	return m.geometry
}

// NumEntities returns the local entity count (owned plus ghost) at dimension
// d; the entities must have been created.
func (m *Mesh) NumEntities(d int) (int32, error) {
	return m.topology.NumEntities(d)
}

// NumEntitiesGlobal returns the global entity count at dimension d.
func (m *Mesh) NumEntitiesGlobal(d int) (int64, error) {
	im := m.topology.IndexMap(d)
	if im == nil {
		return 0, fmt.Errorf("%w: entities of dimension %d have not been created",
			topology.ErrNotInitialized, d)
	}
	return im.SizeGlobal, nil
}

// CreateEntities computes entities of dimension dim; see
// Topology.CreateEntities.
func (m *Mesh) CreateEntities(dim int) (int32, error) {
	return m.topology.CreateEntities(dim)
}

// CreateConnectivity computes (d0,d1) connectivity; see
// Topology.CreateConnectivity.
func (m *Mesh) CreateConnectivity(d0, d1 int) error {
	return m.topology.CreateConnectivity(d0, d1)
}

// CreateEntityPermutations computes orientation data for all cells. Entities
// at every dimension below the cell dimension are created first.
func (m *Mesh) CreateEntityPermutations() error {
	for d := 0; d < m.topology.Dim(); d++ {
		if _, err := m.topology.CreateEntities(d); err != nil {
			return err
		}
	}
	return m.topology.CreateEntityPermutations()
}

// Hash combines the topology and geometry content hashes with the Cantor
// pairing, for partition-independent consistency checks on identical local
// data.
func (m *Mesh) Hash() uint64 {
	kt := m.topology.Hash()
	kg := m.geometry.Hash()
	return (kt+kg)*(kt+kg+1)/2 + kg
}
