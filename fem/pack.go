package fem

import "fmt"

// PackConstants concatenates all constant values into one flat buffer in
// insertion order.
func PackConstants[T Scalar](f *Form[T]) ([]T, error) {
	var out []T
	for i, c := range f.constants {
		if c == nil || c.Value == nil {
			return nil, fmt.Errorf("%w: constant %d", ErrUnsetConstant, i)
		}
		out = append(out, c.Value...)
	}
	return out, nil
}

// PackCoefficients builds the dense coefficient buffer consumed by kernels:
// one row per local cell (owned plus ghost), columns the concatenation of
// each coefficient's per-cell dofs as delimited by CoefficientOffsets.
// Returns the flat row-major buffer and the row width.
func PackCoefficients[T Scalar](f *Form[T]) ([]T, int) {
	offsets := f.CoefficientOffsets()
	cols := offsets[len(offsets)-1]

	tdim := f.mesh.Topology().Dim()
	numCells := int(f.mesh.Topology().IndexMap(tdim).NumEntitiesTotal())
	values := make([]T, numCells*cols)
	if cols == 0 {
		return values, 0
	}
	for c := 0; c < numCells; c++ {
		row := values[c*cols : (c+1)*cols]
		for i, coeff := range f.coefficients {
			coeff.Eval(int32(c), row[offsets[i]:offsets[i+1]])
		}
	}
	return values, cols
}
