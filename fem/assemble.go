package fem

import (
	"errors"
	"fmt"

	"github.com/notargets/gofem/mesh"
)

// ErrUnsetConstant reports assembly of a form with an unassigned constant.
var ErrUnsetConstant = errors.New("unset constant in form")

// ErrInconsistentTopology reports a facet whose incident-cell structure
// contradicts its integral kind: an exterior facet without exactly one
// incident cell, an interior facet without exactly two, or a facet missing
// from its cell's facet list. Always a data or programming defect.
var ErrInconsistentTopology = errors.New("inconsistent mesh topology")

// AssembleScalar evaluates every integral of the form and returns the local
// reduction: a plain running sum over active entities in list order. The
// result is this process's partial value; summing across processes is the
// caller's responsibility.
//
// The dispatcher creates any missing entities, connectivity and permutations
// itself, so assembling a freshly constructed mesh and a fully pre-built one
// give identical results.
func AssembleScalar[T Scalar](f *Form[T]) (T, error) {
	var value T
	if !f.AllConstantsSet() {
		return value, fmt.Errorf("%w: cannot assemble", ErrUnsetConstant)
	}
	constants, err := PackConstants(f)
	if err != nil {
		return value, err
	}
	coeffs, cols := PackCoefficients(f)

	for _, integral := range f.Integrals(CellIntegral) {
		v, err := assembleCells(f.mesh, integral, coeffs, cols, constants)
		if err != nil {
			return value, err
		}
		value += v
	}
	for _, integral := range f.Integrals(ExteriorFacetIntegral) {
		v, err := assembleExteriorFacets(f.mesh, integral, coeffs, cols, constants)
		if err != nil {
			return value, err
		}
		value += v
	}
	offsets := f.CoefficientOffsets()
	for _, integral := range f.Integrals(InteriorFacetIntegral) {
		v, err := assembleInteriorFacets(f.mesh, integral, coeffs, cols, offsets, constants)
		if err != nil {
			return value, err
		}
		value += v
	}
	return value, nil
}

// coeffRow slices cell c's packed coefficient row.
func coeffRow[T Scalar](coeffs []T, cols int, c int32) []T {
	return coeffs[int(c)*cols : (int(c)+1)*cols]
}

func assembleCells[T Scalar](m *mesh.Mesh, integral Integral[T],
	coeffs []T, cols int, constants []T) (T, error) {

	var value T
	top := m.Topology()
	tdim := top.Dim()
	if _, err := top.CreateEntities(tdim); err != nil {
		return value, err
	}
	if err := m.CreateEntityPermutations(); err != nil {
		return value, err
	}
	cellInfo, err := top.CellPermutationInfo()
	if err != nil {
		return value, err
	}

	geom := m.Geometry()
	coordBuf := make([]float64, geom.NumDofsPerCell()*geom.Dim)

	for _, c := range integral.ActiveEntities {
		geom.CellCoordinates(c, coordBuf)
		integral.Kernel(&value, coeffRow(coeffs, cols, c), constants, coordBuf,
			nil, nil, cellInfo[c])
	}
	return value, nil
}

// localFacetIndex resolves facet within cell's facet list by linear search.
// A facet id appears at most once per cell by construction.
func localFacetIndex(cellFacets []int32, facet int32) (int32, error) {
	for i, f := range cellFacets {
		if f == facet {
			return int32(i), nil
		}
	}
	return -1, fmt.Errorf("%w: facet %d not found in cell facet list",
		ErrInconsistentTopology, facet)
}

func assembleExteriorFacets[T Scalar](m *mesh.Mesh, integral Integral[T],
	coeffs []T, cols int, constants []T) (T, error) {

	var value T
	top := m.Topology()
	tdim := top.Dim()
	if _, err := top.CreateEntities(tdim - 1); err != nil {
		return value, err
	}
	if err := top.CreateConnectivity(tdim-1, tdim); err != nil {
		return value, err
	}
	if err := m.CreateEntityPermutations(); err != nil {
		return value, err
	}
	cellInfo, err := top.CellPermutationInfo()
	if err != nil {
		return value, err
	}

	fToC := top.Connectivity(tdim-1, tdim)
	cToF := top.Connectivity(tdim, tdim-1)

	geom := m.Geometry()
	coordBuf := make([]float64, geom.NumDofsPerCell()*geom.Dim)
	var localFacet [1]int32
	var perm [1]uint8

	for _, facet := range integral.ActiveEntities {
		cells := fToC.Links(facet)
		if len(cells) != 1 {
			return value, fmt.Errorf("%w: exterior facet %d has %d incident cells, want 1",
				ErrInconsistentTopology, facet, len(cells))
		}
		cell := cells[0]

		lf, err := localFacetIndex(cToF.Links(cell), facet)
		if err != nil {
			return value, err
		}
		localFacet[0] = lf
		perm[0] = top.FacetPermutation(int(lf), cell)

		geom.CellCoordinates(cell, coordBuf)
		integral.Kernel(&value, coeffRow(coeffs, cols, cell), constants, coordBuf,
			localFacet[:], perm[:], cellInfo[cell])
	}
	return value, nil
}

func assembleInteriorFacets[T Scalar](m *mesh.Mesh, integral Integral[T],
	coeffs []T, cols int, offsets []int, constants []T) (T, error) {

	var value T
	top := m.Topology()
	tdim := top.Dim()
	if _, err := top.CreateEntities(tdim - 1); err != nil {
		return value, err
	}
	if err := top.CreateConnectivity(tdim-1, tdim); err != nil {
		return value, err
	}
	if err := m.CreateEntityPermutations(); err != nil {
		return value, err
	}
	cellInfo, err := top.CellPermutationInfo()
	if err != nil {
		return value, err
	}

	fToC := top.Connectivity(tdim-1, tdim)
	cToF := top.Connectivity(tdim, tdim-1)

	geom := m.Geometry()
	numDofsG := geom.NumDofsPerCell()
	gdim := geom.Dim
	coordBuf := make([]float64, 2*numDofsG*gdim)

	// Restricted coefficient layout is [coefficient][restriction][dof].
	coeffBuf := make([]T, 2*offsets[len(offsets)-1])
	var localFacet [2]int32
	var perm [2]uint8

	for _, facet := range integral.ActiveEntities {
		cells := fToC.Links(facet)
		if len(cells) != 2 {
			return value, fmt.Errorf("%w: interior facet %d has %d incident cells, want 2",
				ErrInconsistentTopology, facet, len(cells))
		}

		for i := 0; i < 2; i++ {
			lf, err := localFacetIndex(cToF.Links(cells[i]), facet)
			if err != nil {
				return value, err
			}
			localFacet[i] = lf
			perm[i] = top.FacetPermutation(int(lf), cells[i])
		}

		geom.CellCoordinates(cells[0], coordBuf[:numDofsG*gdim])
		geom.CellCoordinates(cells[1], coordBuf[numDofsG*gdim:])

		row0 := coeffRow(coeffs, cols, cells[0])
		row1 := coeffRow(coeffs, cols, cells[1])
		for i := 0; i < len(offsets)-1; i++ {
			n := offsets[i+1] - offsets[i]
			copy(coeffBuf[2*offsets[i]:], row0[offsets[i]:offsets[i+1]])
			copy(coeffBuf[offsets[i+1]+offsets[i]:offsets[i+1]+offsets[i]+n],
				row1[offsets[i]:offsets[i+1]])
		}

		// Only side 0's cell orientation bitmask reaches the kernel.
		integral.Kernel(&value, coeffBuf, constants, coordBuf,
			localFacet[:], perm[:], cellInfo[cells[0]])
	}
	return value, nil
}
