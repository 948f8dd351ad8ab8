package mesh

import (
	"fmt"

	dg3d "github.com/notargets/gocfd/DG3D/mesh"
	"github.com/notargets/gocfd/DG3D/mesh/readers"
	"github.com/notargets/gocfd/utils"

	"github.com/notargets/gofem/graph"
	"github.com/notargets/gofem/topology"
)

// cellTypeFromGocfd maps the gocfd element types this engine supports.
func cellTypeFromGocfd(et utils.ElementType) (topology.CellType, error) {
	switch et {
	case utils.Triangle:
		return topology.Triangle, nil
	case utils.Quad:
		return topology.Quadrilateral, nil
	case utils.Tet:
		return topology.Tetrahedron, nil
	case utils.Hex:
		return topology.Hexahedron, nil
	}
	return 0, fmt.Errorf("unsupported gocfd element type %s", et)
}

// FromGocfd converts a mesh produced by the gocfd readers into a Mesh. The
// source must contain a single element type; mixed meshes are rejected.
func FromGocfd(src *dg3d.Mesh) (*Mesh, error) {
	if src.NumElements == 0 {
		return nil, fmt.Errorf("%w: gocfd mesh has no elements", ErrEmptyMesh)
	}
	ct, err := cellTypeFromGocfd(src.ElementTypes[0])
	if err != nil {
		return nil, err
	}
	for i, et := range src.ElementTypes {
		if et != src.ElementTypes[0] {
			return nil, fmt.Errorf("mixed element types (%s at element %d); single type required",
				et, i)
		}
	}

	nv := ct.NumVertices()
	flat := make([]int32, 0, src.NumElements*nv)
	for e, verts := range src.EtoV {
		if len(verts) != nv {
			return nil, fmt.Errorf("element %d has %d vertices, %s needs %d",
				e, len(verts), ct, nv)
		}
		for _, v := range verts {
			flat = append(flat, int32(v))
		}
	}
	cells, err := graph.NewFixed(flat, nv)
	if err != nil {
		return nil, err
	}

	x := make([]float64, 3*src.NumVertices)
	for i, p := range src.Vertices {
		copy(x[3*i:3*i+3], p)
	}
	return New(ct, cells, x, 3)
}

// FromMeshFile reads a gambit/gmsh/su2 mesh through the gocfd readers and
// converts it.
func FromMeshFile(path string) (*Mesh, error) {
	src, err := readers.ReadMeshFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return FromGocfd(src)
}
