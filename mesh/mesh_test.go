package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	dg3d "github.com/notargets/gocfd/DG3D/mesh"
	"github.com/notargets/gocfd/utils"

	"github.com/notargets/gofem/graph"
	"github.com/notargets/gofem/topology"
)

func TestUnitSquareMeshCounts(t *testing.T) {
	m, err := UnitSquareMesh(2, 2)
	require.NoError(t, err)

	nCells, err := m.NumEntities(2)
	require.NoError(t, err)
	assert.Equal(t, int32(8), nCells)

	nVerts, err := m.NumEntities(0)
	require.NoError(t, err)
	assert.Equal(t, int32(9), nVerts)

	require.NoError(t, m.CreateConnectivity(1, 2))
	nEdges, err := m.NumEntities(1)
	require.NoError(t, err)
	assert.Equal(t, int32(16), nEdges)
}

func TestUnitCubeMeshCounts(t *testing.T) {
	m, err := UnitCubeMesh(1, 1, 1)
	require.NoError(t, err)

	nCells, err := m.NumEntities(3)
	require.NoError(t, err)
	assert.Equal(t, int32(6), nCells)

	require.NoError(t, m.CreateConnectivity(2, 3))
	interior, err := m.Topology().InteriorFacets()
	require.NoError(t, err)

	nInterior := 0
	for _, in := range interior {
		if in {
			nInterior++
		}
	}
	// 6 tets, 24 faces total, 12 on the cube surface: (24-12)/2=6 shared.
	assert.Equal(t, 6, nInterior)
	assert.Len(t, interior, 18)
}

func TestDiagnostics(t *testing.T) {
	m, err := UnitSquareMesh(1, 1)
	require.NoError(t, err)

	hmin, err := m.Hmin()
	require.NoError(t, err)
	hmax, err := m.Hmax()
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, hmin, 1e-12)
	assert.InDelta(t, math.Sqrt2, hmax, 1e-12)

	// Right isoceles triangle with unit legs: r = (a+b-c)/2.
	rmin, err := m.Rmin()
	require.NoError(t, err)
	assert.InDelta(t, (2-math.Sqrt2)/2, rmin, 1e-12)
}

func TestDiagnosticsIntervalAndCube(t *testing.T) {
	m, err := UnitIntervalMesh(4)
	require.NoError(t, err)
	hmin, err := m.Hmin()
	require.NoError(t, err)
	assert.InDelta(t, 0.25, hmin, 1e-12)
	rmax, err := m.Rmax()
	require.NoError(t, err)
	assert.InDelta(t, 0.125, rmax, 1e-12)

	mc, err := UnitCubeMesh(1, 1, 1)
	require.NoError(t, err)
	hmax, err := mc.Hmax()
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(3), hmax, 1e-12)
}

func TestEmptyMeshDiagnostics(t *testing.T) {
	cells := graph.New(nil)
	top := topology.New(topology.Triangle)
	top.SetIndexMap(0, topology.NewIndexMap(0, 0, 0))
	top.SetIndexMap(2, topology.NewIndexMap(0, 0, 0))
	top.SetConnectivity(cells, 2, 0)
	geom := &Geometry{Dim: 2, Dofmap: cells}
	m := Compose(top, geom)

	_, err := m.Hmin()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyMesh))
}

func TestCopyIndependence(t *testing.T) {
	m, err := UnitSquareMesh(2, 1)
	require.NoError(t, err)
	cp := m.Copy()

	assert.Equal(t, m.Hash(), cp.Hash())

	require.NoError(t, cp.CreateConnectivity(1, 2))
	assert.NotNil(t, cp.Topology().Connectivity(1, 2))
	assert.Nil(t, m.Topology().Connectivity(1, 2))

	cp.Geometry().X[0] = 42
	assert.Equal(t, 0.0, m.Geometry().X[0])
	assert.NotEqual(t, m.Hash(), cp.Hash())
}

func TestLazyBuildEquivalence(t *testing.T) {
	a, err := UnitSquareMesh(3, 3)
	require.NoError(t, err)
	b := a.Copy()

	require.NoError(t, a.CreateConnectivity(1, 2))
	require.NoError(t, a.CreateEntityPermutations())

	// b builds the same data in a different order.
	require.NoError(t, b.CreateEntityPermutations())
	require.NoError(t, b.CreateConnectivity(1, 2))

	fa := a.Topology().Connectivity(1, 2)
	fb := b.Topology().Connectivity(1, 2)
	assert.Equal(t, fa.Hash(), fb.Hash())

	pa, err := a.Topology().CellPermutationInfo()
	require.NoError(t, err)
	pb, err := b.Topology().CellPermutationInfo()
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestCellCoordinatesGather(t *testing.T) {
	m, err := UnitSquareMesh(1, 1)
	require.NoError(t, err)

	g := m.Geometry()
	buf := make([]float64, g.NumDofsPerCell()*g.Dim)
	g.CellCoordinates(0, buf)
	// Cell 0 = {v00, v10, v11} of the unit square.
	assert.Equal(t, []float64{0, 0, 1, 0, 1, 1}, buf)
}

func TestCoordinateMapPushForward(t *testing.T) {
	// Affine P1 tabulation at the triangle midpoint.
	phi := mat.NewDense(1, 3, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3})
	cm := NewCoordinateMap(phi)

	cellCoords := mat.NewDense(3, 2, []float64{0, 0, 1, 0, 1, 1})
	out := cm.PushForward(cellCoords)
	assert.InDelta(t, 2.0/3, out.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0/3, out.At(0, 1), 1e-12)
}

func TestFromGocfd(t *testing.T) {
	src := &dg3d.Mesh{
		Vertices: [][]float64{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1},
		},
		EtoV:         [][]int{{0, 1, 2, 3}, {1, 2, 3, 4}},
		ElementTypes: []utils.ElementType{utils.Tet, utils.Tet},
		NumElements:  2,
		NumVertices:  5,
	}
	m, err := FromGocfd(src)
	require.NoError(t, err)
	assert.Equal(t, topology.Tetrahedron, m.Topology().CellType())

	nCells, err := m.NumEntities(3)
	require.NoError(t, err)
	assert.Equal(t, int32(2), nCells)
	assert.Equal(t, [3]float64{1, 1, 1}, m.Geometry().Point(4))

	src.ElementTypes[1] = utils.Hex
	_, err = FromGocfd(src)
	assert.Error(t, err)
}
