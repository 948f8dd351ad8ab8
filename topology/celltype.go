package topology

import "fmt"

// CellType identifies the reference cell of a mesh.
type CellType uint8

const (
	Interval CellType = iota
	Triangle
	Quadrilateral
	Tetrahedron
	Hexahedron
)

func (ct CellType) String() string {
	switch ct {
	case Interval:
		return "interval"
	case Triangle:
		return "triangle"
	case Quadrilateral:
		return "quadrilateral"
	case Tetrahedron:
		return "tetrahedron"
	case Hexahedron:
		return "hexahedron"
	}
	return fmt.Sprintf("celltype(%d)", uint8(ct))
}

// Dim returns the topological dimension.
func (ct CellType) Dim() int {
	switch ct {
	case Interval:
		return 1
	case Triangle, Quadrilateral:
		return 2
	default:
		return 3
	}
}

// NumVertices returns the vertex count of the reference cell.
func (ct CellType) NumVertices() int {
	switch ct {
	case Interval:
		return 2
	case Triangle:
		return 3
	case Quadrilateral, Tetrahedron:
		return 4
	case Hexahedron:
		return 8
	}
	return 0
}

// NumFacets returns the number of facets (entities of dimension Dim-1).
func (ct CellType) NumFacets() int {
	return len(ct.EntityVertices(ct.Dim() - 1))
}

// NumEntities returns the number of sub-entities of dimension d.
func (ct CellType) NumEntities(d int) int {
	if d == ct.Dim() {
		return 1
	}
	return len(ct.EntityVertices(d))
}

// Edge and face numbering follows the mesh conventions used across the
// notargets codes: counterclockwise edges in 2D, and the tet/hex face tables
// of the gocfd mesh readers.
var (
	intervalVertices = [][]int{{0}, {1}}

	triangleEdges = [][]int{{0, 1}, {1, 2}, {2, 0}}

	quadEdges = [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}

	tetEdges = [][]int{{0, 1}, {1, 2}, {0, 2}, {0, 3}, {1, 3}, {2, 3}}
	tetFaces = [][]int{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {0, 3, 2}}

	hexEdges = [][]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	hexFaces = [][]int{
		{0, 3, 2, 1}, {4, 5, 6, 7},
		{0, 1, 5, 4}, {1, 2, 6, 5},
		{2, 3, 7, 6}, {3, 0, 4, 7},
	}
)

// EntityVertices returns, for each sub-entity of dimension d, its cell-local
// vertex indices. For d equal to the cell dimension it returns a single row
// enumerating all vertices.
func (ct CellType) EntityVertices(d int) [][]int {
	if d == ct.Dim() {
		self := make([]int, ct.NumVertices())
		for i := range self {
			self[i] = i
		}
		return [][]int{self}
	}
	if d == 0 {
		verts := make([][]int, ct.NumVertices())
		for i := range verts {
			verts[i] = []int{i}
		}
		return verts
	}
	switch ct {
	case Interval:
		if d == 0 {
			return intervalVertices
		}
	case Triangle:
		if d == 1 {
			return triangleEdges
		}
	case Quadrilateral:
		if d == 1 {
			return quadEdges
		}
	case Tetrahedron:
		switch d {
		case 1:
			return tetEdges
		case 2:
			return tetFaces
		}
	case Hexahedron:
		switch d {
		case 1:
			return hexEdges
		case 2:
			return hexFaces
		}
	}
	return nil
}

// FacetType returns the cell type of the facets.
func (ct CellType) FacetType() CellType {
	switch ct {
	case Triangle, Quadrilateral:
		return Interval
	case Tetrahedron:
		return Triangle
	case Hexahedron:
		return Quadrilateral
	}
	// Interval facets are vertices; callers never ask for their type.
	return Interval
}

// CellTypeForVertices maps a (dimension, vertex count) pair to a cell type,
// used when constructing meshes from raw connectivity.
func CellTypeForVertices(dim, numVertices int) (CellType, error) {
	switch {
	case dim == 1 && numVertices == 2:
		return Interval, nil
	case dim == 2 && numVertices == 3:
		return Triangle, nil
	case dim == 2 && numVertices == 4:
		return Quadrilateral, nil
	case dim == 3 && numVertices == 4:
		return Tetrahedron, nil
	case dim == 3 && numVertices == 8:
		return Hexahedron, nil
	}
	return Interval, fmt.Errorf("no cell type with dimension %d and %d vertices",
		dim, numVertices)
}
