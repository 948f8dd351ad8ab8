package mesh

import (
	"fmt"

	"github.com/notargets/gofem/graph"
	"github.com/notargets/gofem/topology"
)

// Structured unit-domain generators, mainly for tests and examples.

// UnitIntervalMesh returns a mesh of [0,1] with n interval cells.
func UnitIntervalMesh(n int) (*Mesh, error) {
	if n < 1 {
		return nil, fmt.Errorf("invalid cell count %d", n)
	}
	x := make([]float64, 3*(n+1))
	for i := 0; i <= n; i++ {
		x[3*i] = float64(i) / float64(n)
	}
	flat := make([]int32, 2*n)
	for c := 0; c < n; c++ {
		flat[2*c] = int32(c)
		flat[2*c+1] = int32(c + 1)
	}
	cells, err := graph.NewFixed(flat, 2)
	if err != nil {
		return nil, err
	}
	return New(topology.Interval, cells, x, 1)
}

// UnitSquareMesh returns a triangulation of [0,1]^2 with nx*ny quads each
// split into two triangles (2*nx*ny cells, (nx+1)*(ny+1) vertices).
func UnitSquareMesh(nx, ny int) (*Mesh, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("invalid cell counts (%d,%d)", nx, ny)
	}
	vid := func(i, j int) int32 { return int32(j*(nx+1) + i) }
	x := make([]float64, 3*(nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			v := vid(i, j)
			x[3*v] = float64(i) / float64(nx)
			x[3*v+1] = float64(j) / float64(ny)
		}
	}
	flat := make([]int32, 0, 6*nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v00, v10 := vid(i, j), vid(i+1, j)
			v01, v11 := vid(i, j+1), vid(i+1, j+1)
			flat = append(flat, v00, v10, v11)
			flat = append(flat, v00, v11, v01)
		}
	}
	cells, err := graph.NewFixed(flat, 3)
	if err != nil {
		return nil, err
	}
	return New(topology.Triangle, cells, x, 2)
}

// UnitCubeMesh returns a tetrahedral mesh of [0,1]^3 with each of the
// nx*ny*nz boxes split into six tets (Kuhn subdivision), matching the cell
// count of the classic box mesh.
func UnitCubeMesh(nx, ny, nz int) (*Mesh, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("invalid cell counts (%d,%d,%d)", nx, ny, nz)
	}
	vid := func(i, j, k int) int32 {
		return int32((k*(ny+1)+j)*(nx+1) + i)
	}
	x := make([]float64, 3*(nx+1)*(ny+1)*(nz+1))
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				v := vid(i, j, k)
				x[3*v] = float64(i) / float64(nx)
				x[3*v+1] = float64(j) / float64(ny)
				x[3*v+2] = float64(k) / float64(nz)
			}
		}
	}
	flat := make([]int32, 0, 24*nx*ny*nz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				v0 := vid(i, j, k)
				v1 := vid(i+1, j, k)
				v2 := vid(i, j+1, k)
				v3 := vid(i+1, j+1, k)
				v4 := vid(i, j, k+1)
				v5 := vid(i+1, j, k+1)
				v6 := vid(i, j+1, k+1)
				v7 := vid(i+1, j+1, k+1)
				flat = append(flat,
					v0, v1, v3, v7,
					v0, v1, v7, v5,
					v0, v5, v7, v4,
					v0, v3, v2, v7,
					v0, v6, v4, v7,
					v0, v2, v6, v7)
			}
		}
	}
	cells, err := graph.NewFixed(flat, 4)
	if err != nil {
		return nil, err
	}
	return New(topology.Tetrahedron, cells, x, 3)
}
