package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gofem/topology"
)

// cellVertexCoords returns the full 3-component coordinates of cell c's
// geometry nodes.
func (m *Mesh) cellVertexCoords(c int32) [][3]float64 {
	dofs := m.geometry.Dofmap.Links(c)
	pts := make([][3]float64, len(dofs))
	for i, d := range dofs {
		pts[i] = m.geometry.Point(d)
	}
	return pts
}

func dist(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func norm(a [3]float64) float64 {
	return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// CellH returns the size of cell c, the greatest distance between two of its
// geometry nodes.
func (m *Mesh) CellH(c int32) float64 {
	pts := m.cellVertexCoords(c)
	h := 0.0
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if d := dist(pts[i], pts[j]); d > h {
				h = d
			}
		}
	}
	return h
}

// CellInradius returns the inradius of simplex cell c.
func (m *Mesh) CellInradius(c int32) (float64, error) {
	pts := m.cellVertexCoords(c)
	switch m.topology.CellType() {
	case topology.Interval:
		return dist(pts[0], pts[1]) / 2, nil
	case topology.Triangle:
		a := dist(pts[1], pts[2])
		b := dist(pts[0], pts[2])
		cc := dist(pts[0], pts[1])
		area := norm(cross(sub(pts[1], pts[0]), sub(pts[2], pts[0]))) / 2
		return 2 * area / (a + b + cc), nil
	case topology.Tetrahedron:
		e1 := sub(pts[1], pts[0])
		e2 := sub(pts[2], pts[0])
		e3 := sub(pts[3], pts[0])
		vol := math.Abs(dot(e1, cross(e2, e3))) / 6
		faceArea := func(i, j, k int) float64 {
			return norm(cross(sub(pts[j], pts[i]), sub(pts[k], pts[i]))) / 2
		}
		total := faceArea(0, 1, 2) + faceArea(0, 1, 3) +
			faceArea(0, 2, 3) + faceArea(1, 2, 3)
		return 3 * vol / total, nil
	}
	return 0, fmt.Errorf("inradius is only defined for simplex cells, have %s",
		m.topology.CellType())
}

// cellValues evaluates f over every local cell.
func (m *Mesh) cellValues(f func(int32) (float64, error)) ([]float64, error) {
	im := m.topology.IndexMap(m.topology.Dim())
	if im == nil || im.NumEntitiesTotal() == 0 {
		return nil, fmt.Errorf("%w: cannot compute cell metric", ErrEmptyMesh)
	}
	vals := make([]float64, im.NumEntitiesTotal())
	for c := range vals {
		v, err := f(int32(c))
		if err != nil {
			return nil, err
		}
		vals[c] = v
	}
	return vals, nil
}

// Hmin returns the smallest cell size.
func (m *Mesh) Hmin() (float64, error) {
	vals, err := m.cellValues(func(c int32) (float64, error) { return m.CellH(c), nil })
	if err != nil {
		return 0, err
	}
	return floats.Min(vals), nil
}

// Hmax returns the largest cell size.
func (m *Mesh) Hmax() (float64, error) {
	vals, err := m.cellValues(func(c int32) (float64, error) { return m.CellH(c), nil })
	if err != nil {
		return 0, err
	}
	return floats.Max(vals), nil
}

// Rmin returns the smallest cell inradius.
func (m *Mesh) Rmin() (float64, error) {
	vals, err := m.cellValues(m.CellInradius)
	if err != nil {
		return 0, err
	}
	return floats.Min(vals), nil
}

// Rmax returns the largest cell inradius.
func (m *Mesh) Rmax() (float64, error) {
	vals, err := m.cellValues(m.CellInradius)
	if err != nil {
		return 0, err
	}
	return floats.Max(vals), nil
}
