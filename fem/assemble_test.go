package fem

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gofem/mesh"
)

// testCoefficient assigns value(cell, dof) to each per-cell dof.
type testCoefficient struct {
	ndofs int
	value func(cell int32, dof int) float64
}

func (c *testCoefficient) NumDofsPerCell() int { return c.ndofs }

func (c *testCoefficient) Eval(cell int32, dst []float64) {
	for j := range dst {
		dst[j] = c.value(cell, j)
	}
}

func constKernel(k float64) Kernel[float64] {
	return func(acc *float64, _, _ []float64, _ []float64, _ []int32, _ []uint8, _ uint32) {
		*acc += k
	}
}

func TestAssembleCellConstant(t *testing.T) {
	m, err := mesh.UnitSquareMesh(4, 4)
	require.NoError(t, err)

	f := NewForm[float64](m)
	active := AllOwnedCells(m)
	f.AddIntegral(CellIntegral, Integral[float64]{
		Kernel:         constKernel(2.5),
		ActiveEntities: active,
	})

	v, err := AssembleScalar(f)
	require.NoError(t, err)
	assert.Equal(t, 2.5*float64(len(active)), v)
}

func TestAssembleZeroKernel(t *testing.T) {
	m, err := mesh.UnitSquareMesh(3, 2)
	require.NoError(t, err)

	f := NewForm[float64](m)
	f.AddIntegral(CellIntegral, Integral[float64]{
		Kernel:         constKernel(0),
		ActiveEntities: AllOwnedCells(m),
	})

	v, err := AssembleScalar(f)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

// areaKernel integrates 1 over a P1 triangle: half the cross product of the
// edge vectors. Coordinates arrive row-major [3][2].
func areaKernel(acc *float64, _, _ []float64, coords []float64, _ []int32, _ []uint8, _ uint32) {
	ax, ay := coords[2]-coords[0], coords[3]-coords[1]
	bx, by := coords[4]-coords[0], coords[5]-coords[1]
	*acc += math.Abs(ax*by-ay*bx) / 2
}

func TestAssembleDomainArea(t *testing.T) {
	m, err := mesh.UnitSquareMesh(5, 3)
	require.NoError(t, err)

	f := NewForm[float64](m)
	f.AddIntegral(CellIntegral, Integral[float64]{
		Kernel:         areaKernel,
		ActiveEntities: AllOwnedCells(m),
	})

	v, err := AssembleScalar(f)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)
}

// edgeLengthKernel integrates 1 over an exterior edge of a P1 triangle.
func edgeLengthKernel(acc *float64, _, _ []float64, coords []float64,
	localFacet []int32, _ []uint8, _ uint32) {

	edges := [3][2]int{{0, 1}, {1, 2}, {2, 0}}
	e := edges[localFacet[0]]
	dx := coords[2*e[1]] - coords[2*e[0]]
	dy := coords[2*e[1]+1] - coords[2*e[0]+1]
	*acc += math.Hypot(dx, dy)
}

func TestAssembleExteriorFacetPerimeter(t *testing.T) {
	m, err := mesh.UnitSquareMesh(4, 2)
	require.NoError(t, err)

	active, err := ExteriorFacetIndices(m)
	require.NoError(t, err)

	f := NewForm[float64](m)
	f.AddIntegral(ExteriorFacetIntegral, Integral[float64]{
		Kernel:         edgeLengthKernel,
		ActiveEntities: active,
	})

	v, err := AssembleScalar(f)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, v, 1e-12)
}

func TestAssembleInteriorFacetInvocation(t *testing.T) {
	m, err := mesh.UnitSquareMesh(2, 2)
	require.NoError(t, err)

	active, err := InteriorFacetIndices(m)
	require.NoError(t, err)
	require.NotEmpty(t, active)

	calls := 0
	kern := func(acc *float64, _, _ []float64, coords []float64,
		localFacet []int32, perms []uint8, _ uint32) {
		calls++
		assert.Len(t, localFacet, 2)
		assert.Len(t, perms, 2)
		assert.Len(t, coords, 2*3*2) // two cells, three nodes, gdim 2
		*acc++
	}

	f := NewForm[float64](m)
	f.AddIntegral(InteriorFacetIntegral, Integral[float64]{
		Kernel:         kern,
		ActiveEntities: active,
	})

	v, err := AssembleScalar(f)
	require.NoError(t, err)
	assert.Equal(t, float64(len(active)), v)
	assert.Equal(t, len(active), calls)
}

func TestInteriorFacetCoefficientLayout(t *testing.T) {
	m, err := mesh.UnitSquareMesh(2, 1)
	require.NoError(t, err)

	encode := func(coeff int, cell int32, dof int) float64 {
		return float64(1000*coeff) + float64(10*cell) + float64(dof)
	}
	f := NewForm[float64](m)
	f.AddCoefficient(&testCoefficient{ndofs: 2,
		value: func(c int32, j int) float64 { return encode(0, c, j) }})
	f.AddCoefficient(&testCoefficient{ndofs: 3,
		value: func(c int32, j int) float64 { return encode(1, c, j) }})

	active, err := InteriorFacetIndices(m)
	require.NoError(t, err)
	require.NotEmpty(t, active)

	offsets := f.CoefficientOffsets()
	require.Equal(t, []int{0, 2, 5}, offsets)

	type call struct{ coeffs []float64 }
	var calls []call
	kern := func(acc *float64, coeffs, _ []float64, _ []float64,
		_ []int32, _ []uint8, _ uint32) {
		calls = append(calls, call{coeffs: append([]float64(nil), coeffs...)})
	}
	f.AddIntegral(InteriorFacetIntegral, Integral[float64]{
		Kernel:         kern,
		ActiveEntities: active,
	})

	_, err = AssembleScalar(f)
	require.NoError(t, err)
	require.Len(t, calls, len(active))

	fToC := m.Topology().Connectivity(1, 2)
	for i, facet := range active {
		cells := fToC.Links(facet)
		require.Len(t, cells, 2)
		coeffs := calls[i].coeffs
		require.Len(t, coeffs, 2*offsets[len(offsets)-1])
		// Layout [coeff][restriction][dof]: restriction r of coefficient
		// i lives at 2*offsets[i] + r*(offsets[i+1]-offsets[i]).
		for ci := 0; ci < 2; ci++ {
			n := offsets[ci+1] - offsets[ci]
			for r := 0; r < 2; r++ {
				base := 2*offsets[ci] + r*n
				for j := 0; j < n; j++ {
					assert.Equal(t, encode(ci, cells[r], j), coeffs[base+j],
						"coeff %d restriction %d dof %d of facet %d", ci, r, j, facet)
				}
			}
		}
	}
}

func TestAssembleOrderInvariance(t *testing.T) {
	m, err := mesh.UnitSquareMesh(3, 3)
	require.NoError(t, err)

	active := AllOwnedCells(m)
	reversed := make([]int32, len(active))
	for i, c := range active {
		reversed[len(active)-1-i] = c
	}

	sum := func(domain []int32) float64 {
		f := NewForm[float64](m.Copy())
		f.AddIntegral(CellIntegral, Integral[float64]{
			Kernel: func(acc *float64, _, _ []float64, _ []float64,
				_ []int32, _ []uint8, _ uint32) {
				*acc += 3 // exactly representable
			},
			ActiveEntities: domain,
		})
		v, err := AssembleScalar(f)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, sum(active), sum(reversed))
}

func TestLazyBuildMatchesPrebuild(t *testing.T) {
	build := func(pre bool) float64 {
		m, err := mesh.UnitSquareMesh(3, 2)
		require.NoError(t, err)
		if pre {
			require.NoError(t, m.CreateConnectivity(1, 2))
			require.NoError(t, m.CreateEntityPermutations())
		}
		active, err := ExteriorFacetIndices(m)
		require.NoError(t, err)
		f := NewForm[float64](m)
		f.AddIntegral(ExteriorFacetIntegral, Integral[float64]{
			Kernel:         edgeLengthKernel,
			ActiveEntities: active,
		})
		v, err := AssembleScalar(f)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, build(true), build(false))
}

func TestUnsetConstant(t *testing.T) {
	m, err := mesh.UnitSquareMesh(1, 1)
	require.NoError(t, err)

	f := NewForm[float64](m)
	f.AddConstant(&Constant[float64]{Value: []float64{1}})
	f.AddConstant(&Constant[float64]{}) // unset
	f.AddIntegral(CellIntegral, Integral[float64]{
		Kernel:         constKernel(1),
		ActiveEntities: AllOwnedCells(m),
	})

	_, err = AssembleScalar(f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsetConstant))
}

func TestConstantsReachKernel(t *testing.T) {
	m, err := mesh.UnitSquareMesh(1, 1)
	require.NoError(t, err)

	f := NewForm[float64](m)
	f.AddConstant(&Constant[float64]{Value: []float64{2, 3}})
	f.AddConstant(&Constant[float64]{Value: []float64{5}})
	f.AddIntegral(CellIntegral, Integral[float64]{
		Kernel: func(acc *float64, _, constants []float64, _ []float64,
			_ []int32, _ []uint8, _ uint32) {
			require.Equal(t, []float64{2, 3, 5}, constants)
			*acc += constants[2]
		},
		ActiveEntities: AllOwnedCells(m),
	})

	v, err := AssembleScalar(f)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
}

func TestInconsistentTopology(t *testing.T) {
	m, err := mesh.UnitSquareMesh(2, 2)
	require.NoError(t, err)

	interior, err := InteriorFacetIndices(m)
	require.NoError(t, err)
	require.NotEmpty(t, interior)

	// An interior facet in an exterior-facet domain has two incident cells.
	f := NewForm[float64](m)
	f.AddIntegral(ExteriorFacetIntegral, Integral[float64]{
		Kernel:         constKernel(1),
		ActiveEntities: interior[:1],
	})
	_, err = AssembleScalar(f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistentTopology))

	// And an exterior facet in an interior-facet domain has one.
	exterior, err := ExteriorFacetIndices(m)
	require.NoError(t, err)
	f2 := NewForm[float64](m)
	f2.AddIntegral(InteriorFacetIntegral, Integral[float64]{
		Kernel:         constKernel(1),
		ActiveEntities: exterior[:1],
	})
	_, err = AssembleScalar(f2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistentTopology))
}

func TestAssembleComplexScalar(t *testing.T) {
	m, err := mesh.UnitSquareMesh(2, 1)
	require.NoError(t, err)

	f := NewForm[complex128](m)
	f.AddConstant(&Constant[complex128]{Value: []complex128{1 + 2i}})
	f.AddIntegral(CellIntegral, Integral[complex128]{
		Kernel: func(acc *complex128, _, constants []complex128, _ []float64,
			_ []int32, _ []uint8, _ uint32) {
			*acc += constants[0]
		},
		ActiveEntities: AllOwnedCells(m),
	})

	v, err := AssembleScalar(f)
	require.NoError(t, err)
	assert.Equal(t, complex128(4+8i), v)
}

func TestAssembleMultipleIntegralKinds(t *testing.T) {
	m, err := mesh.UnitSquareMesh(2, 2)
	require.NoError(t, err)

	exterior, err := ExteriorFacetIndices(m)
	require.NoError(t, err)
	interior, err := InteriorFacetIndices(m)
	require.NoError(t, err)

	f := NewForm[float64](m)
	f.AddIntegral(CellIntegral, Integral[float64]{
		Kernel: constKernel(1), ActiveEntities: AllOwnedCells(m)})
	f.AddIntegral(ExteriorFacetIntegral, Integral[float64]{
		Kernel: constKernel(1), ActiveEntities: exterior})
	f.AddIntegral(InteriorFacetIntegral, Integral[float64]{
		Kernel: constKernel(1), ActiveEntities: interior})

	v, err := AssembleScalar(f)
	require.NoError(t, err)
	want := float64(8 + len(exterior) + len(interior))
	assert.Equal(t, want, v)
}
