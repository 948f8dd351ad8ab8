// Package mesh composes the topology engine with physical geometry and
// exposes the derived diagnostics assembly depends on.
package mesh

import (
	"fmt"
	"hash/fnv"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofem/graph"
)

// Geometry owns the physical coordinates of the geometry nodes and the
// cell-to-node coordinate dofmap. Coordinates are stored with three
// components per node regardless of the geometric dimension. Immutable after
// mesh construction.
type Geometry struct {
	// X holds node coordinates, row-major [numNodes][3].
	X []float64

	// Dim is the geometric dimension, 1 <= Dim <= 3.
	Dim int

	// Dofmap maps each cell to its geometry node indices with a fixed
	// degree.
	Dofmap *graph.AdjacencyList
}

// NewGeometry validates and builds a Geometry. The coordinate array is
// copied.
func NewGeometry(x []float64, gdim int, dofmap *graph.AdjacencyList) (*Geometry, error) {
	if gdim < 1 || gdim > 3 {
		return nil, fmt.Errorf("invalid geometric dimension %d", gdim)
	}
	if len(x)%3 != 0 {
		return nil, fmt.Errorf("coordinate array length %d is not a multiple of 3", len(x))
	}
	if dofmap.Degree() <= 0 {
		return nil, fmt.Errorf("coordinate dofmap must have fixed degree")
	}
	numNodes := int32(len(x) / 3)
	for _, d := range dofmap.Array() {
		if d < 0 || d >= numNodes {
			return nil, fmt.Errorf("coordinate dof %d out of range (have %d nodes)",
				d, numNodes)
		}
	}
	g := &Geometry{
		X:      append([]float64(nil), x...),
		Dim:    gdim,
		Dofmap: dofmap,
	}
	return g, nil
}

// NumNodes returns the geometry node count.
func (g *Geometry) NumNodes() int32 {
	return int32(len(g.X) / 3)
}

// NumDofsPerCell returns the coordinate dofs per cell.
func (g *Geometry) NumDofsPerCell() int {
	return g.Dofmap.Degree()
}

// Point returns the three stored components of node i.
func (g *Geometry) Point(i int32) [3]float64 {
	return [3]float64{g.X[3*i], g.X[3*i+1], g.X[3*i+2]}
}

// CellCoordinates gathers cell c's node coordinates, truncated to Dim
// components, into dst (row-major [NumDofsPerCell][Dim]). This is the
// per-entity gather used by the assembly loops.
func (g *Geometry) CellCoordinates(c int32, dst []float64) {
	dofs := g.Dofmap.Links(c)
	for i, d := range dofs {
		for k := 0; k < g.Dim; k++ {
			dst[i*g.Dim+k] = g.X[3*int(d)+k]
		}
	}
}

// Clone returns a deep copy.
func (g *Geometry) Clone() *Geometry {
	return &Geometry{
		X:      append([]float64(nil), g.X...),
		Dim:    g.Dim,
		Dofmap: g.Dofmap.Clone(),
	}
}

// Hash returns a content hash of the coordinates and the dofmap.
func (g *Geometry) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range g.X {
		bits := math.Float64bits(v)
		for i := range buf {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf[:])
	}
	dh := g.Dofmap.Hash()
	for i := range buf {
		buf[i] = byte(dh >> (8 * i))
	}
	h.Write(buf[:])
	return h.Sum64()
}

// CoordinateMap pushes reference-cell points forward to physical space. Phi
// is the basis tabulation at the reference points, [numPoints][numDofsG],
// supplied by the element library.
type CoordinateMap struct {
	Phi *mat.Dense
}

// NewCoordinateMap wraps a tabulation matrix.
func NewCoordinateMap(phi *mat.Dense) *CoordinateMap {
	return &CoordinateMap{Phi: phi}
}

// PushForward computes x = Phi * cellCoords, mapping the tabulated reference
// points into physical space for one cell. cellCoords is
// [numDofsG][gdim] as produced by Geometry.CellCoordinates; the result is
// [numPoints][gdim].
func (cm *CoordinateMap) PushForward(cellCoords *mat.Dense) *mat.Dense {
	np, _ := cm.Phi.Dims()
	_, gdim := cellCoords.Dims()
	out := mat.NewDense(np, gdim, nil)
	out.Mul(cm.Phi, cellCoords)
	return out
}
