// Package fem defines variational forms over a mesh and the scalar assembly
// dispatcher that reduces them.
package fem

import (
	"fmt"

	"github.com/notargets/gofem/mesh"
)

// Scalar constrains the kernel output type.
type Scalar interface {
	~float64 | ~complex128
}

// Kernel is the opaque numerical kernel supplied by the element library. It
// is a pure function of its inputs with a single side effect, accumulating
// into acc. entityLocalIndex and perms are nil for cell integrals, hold one
// entry for exterior-facet integrals and two for interior-facet integrals.
// Kernels never mutate topology and may be invoked in any order, which is
// what permits sharding the entity loop after the topology build phase.
type Kernel[T Scalar] func(acc *T, coeffs []T, constants []T, coords []float64,
	entityLocalIndex []int32, perms []uint8, cellInfo uint32)

// IntegralType selects the entity kind an integral runs over.
type IntegralType int

const (
	CellIntegral IntegralType = iota
	ExteriorFacetIntegral
	InteriorFacetIntegral
)

func (it IntegralType) String() string {
	switch it {
	case CellIntegral:
		return "cell"
	case ExteriorFacetIntegral:
		return "exterior facet"
	case InteriorFacetIntegral:
		return "interior facet"
	}
	return fmt.Sprintf("integral(%d)", int(it))
}

// Integral pairs a kernel with its integration domain. ActiveEntities is the
// domain restriction; the dispatcher iterates it in the given order and never
// reorders it.
type Integral[T Scalar] struct {
	Kernel         Kernel[T]
	ActiveEntities []int32
}

// Constant holds a fixed value shared by all entities. A nil Value marks an
// unset constant; assembly refuses to run until every constant is set.
type Constant[T Scalar] struct {
	Value []T
}

// Coefficient supplies per-cell degrees of freedom for one field entering
// the form.
type Coefficient[T Scalar] interface {
	NumDofsPerCell() int
	// Eval writes the cell's dof values into dst (length NumDofsPerCell).
	Eval(cell int32, dst []T)
}

// Form describes the integrals of one functional over a mesh: per integral
// kind a list of kernels with their domains, plus the coefficient and
// constant data shared across integrals.
type Form[T Scalar] struct {
	mesh         *mesh.Mesh
	integrals    map[IntegralType][]Integral[T]
	coefficients []Coefficient[T]
	constants    []*Constant[T]
}

// NewForm creates an empty form over m.
func NewForm[T Scalar](m *mesh.Mesh) *Form[T] {
	return &Form[T]{
		mesh:      m,
		integrals: make(map[IntegralType][]Integral[T]),
	}
}

// Mesh returns the form's mesh.
func (f *Form[T]) Mesh() *mesh.Mesh {
	return f.mesh
}

// AddIntegral appends an integral of the given kind.
func (f *Form[T]) AddIntegral(kind IntegralType, integral Integral[T]) {
	f.integrals[kind] = append(f.integrals[kind], integral)
}

// Integrals returns the integrals of one kind.
func (f *Form[T]) Integrals(kind IntegralType) []Integral[T] {
	return f.integrals[kind]
}

// AddCoefficient appends a coefficient; packing order follows insertion
// order.
func (f *Form[T]) AddCoefficient(c Coefficient[T]) {
	f.coefficients = append(f.coefficients, c)
}

// Coefficients returns the form's coefficients.
func (f *Form[T]) Coefficients() []Coefficient[T] {
	return f.coefficients
}

// AddConstant appends a constant.
func (f *Form[T]) AddConstant(c *Constant[T]) {
	f.constants = append(f.constants, c)
}

// Constants returns the form's constants.
func (f *Form[T]) Constants() []*Constant[T] {
	return f.constants
}

// AllConstantsSet reports whether every constant has a value.
func (f *Form[T]) AllConstantsSet() bool {
	for _, c := range f.constants {
		if c == nil || c.Value == nil {
			return false
		}
	}
	return true
}

// CoefficientOffsets returns the column boundaries of each coefficient's dof
// block in a packed row, length len(coefficients)+1.
func (f *Form[T]) CoefficientOffsets() []int {
	offsets := make([]int, len(f.coefficients)+1)
	for i, c := range f.coefficients {
		offsets[i+1] = offsets[i] + c.NumDofsPerCell()
	}
	return offsets
}

// AllOwnedCells returns the default cell-integral domain: all owned cells in
// index order.
func AllOwnedCells(m *mesh.Mesh) []int32 {
	im := m.Topology().IndexMap(m.Topology().Dim())
	cells := make([]int32, im.SizeLocal)
	for i := range cells {
		cells[i] = int32(i)
	}
	return cells
}

// ExteriorFacetIndices returns the facets with exactly one incident cell,
// creating facet connectivity if needed.
func ExteriorFacetIndices(m *mesh.Mesh) ([]int32, error) {
	return facetIndices(m, false)
}

// InteriorFacetIndices returns the facets with exactly two incident cells,
// creating facet connectivity if needed.
func InteriorFacetIndices(m *mesh.Mesh) ([]int32, error) {
	return facetIndices(m, true)
}

func facetIndices(m *mesh.Mesh, interior bool) ([]int32, error) {
	tdim := m.Topology().Dim()
	if err := m.CreateConnectivity(tdim-1, tdim); err != nil {
		return nil, err
	}
	flags, err := m.Topology().InteriorFacets()
	if err != nil {
		return nil, err
	}
	var out []int32
	for f, in := range flags {
		if in == interior {
			out = append(out, int32(f))
		}
	}
	return out, nil
}
