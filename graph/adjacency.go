// Package graph provides the index-only adjacency structure used by the mesh
// topology and geometry layers.
package graph

import (
	"fmt"
	"hash/fnv"
)

// AdjacencyList maps a contiguous node range [0,N) to ordered lists of int32
// targets. Rows may have different degrees, but a row's degree never changes
// after construction. The structure is immutable; the owning Topology or
// Geometry is the only holder.
type AdjacencyList struct {
	array   []int32
	offsets []int32
	degree  int // > 0 when every row has the same degree
}

// New builds an adjacency list from per-node target slices.
func New(data [][]int32) *AdjacencyList {
	offsets := make([]int32, len(data)+1)
	total := 0
	for i, row := range data {
		total += len(row)
		offsets[i+1] = int32(total)
	}
	array := make([]int32, 0, total)
	for _, row := range data {
		array = append(array, row...)
	}

	degree := -1
	if len(data) > 0 {
		degree = len(data[0])
		for _, row := range data[1:] {
			if len(row) != degree {
				degree = -1
				break
			}
		}
	}
	return &AdjacencyList{array: array, offsets: offsets, degree: degree}
}

// NewFixed builds an adjacency list where every node has exactly degree
// targets, from a flattened row-major array.
func NewFixed(flat []int32, degree int) (*AdjacencyList, error) {
	if degree <= 0 {
		return nil, fmt.Errorf("invalid degree %d", degree)
	}
	if len(flat)%degree != 0 {
		return nil, fmt.Errorf("array length %d not divisible by degree %d",
			len(flat), degree)
	}
	n := len(flat) / degree
	offsets := make([]int32, n+1)
	for i := 0; i <= n; i++ {
		offsets[i] = int32(i * degree)
	}
	array := make([]int32, len(flat))
	copy(array, flat)
	return &AdjacencyList{array: array, offsets: offsets, degree: degree}, nil
}

// NumNodes returns the size of the node range.
func (a *AdjacencyList) NumNodes() int32 {
	return int32(len(a.offsets) - 1)
}

// NumLinks returns the degree of node i.
func (a *AdjacencyList) NumLinks(i int32) int {
	return int(a.offsets[i+1] - a.offsets[i])
}

// Links returns the targets of node i. The slice aliases internal storage and
// must not be modified.
func (a *AdjacencyList) Links(i int32) []int32 {
	return a.array[a.offsets[i]:a.offsets[i+1]]
}

// Degree returns the uniform row degree, or -1 if rows differ.
func (a *AdjacencyList) Degree() int {
	return a.degree
}

// Array returns the flattened target array. Read-only.
func (a *AdjacencyList) Array() []int32 {
	return a.array
}

// Offsets returns the row offset array (length NumNodes+1). Read-only.
func (a *AdjacencyList) Offsets() []int32 {
	return a.offsets
}

// Clone returns a deep copy.
func (a *AdjacencyList) Clone() *AdjacencyList {
	b := &AdjacencyList{
		array:   make([]int32, len(a.array)),
		offsets: make([]int32, len(a.offsets)),
		degree:  a.degree,
	}
	copy(b.array, a.array)
	copy(b.offsets, a.offsets)
	return b
}

// Hash returns a content hash of the list, used for mesh consistency checks.
func (a *AdjacencyList) Hash() uint64 {
	h := fnv.New64a()
	var buf [4]byte
	put := func(v int32) {
		buf[0] = byte(v)
		buf[1] = byte(v >> 8)
		buf[2] = byte(v >> 16)
		buf[3] = byte(v >> 24)
		h.Write(buf[:])
	}
	for _, v := range a.offsets {
		put(v)
	}
	for _, v := range a.array {
		put(v)
	}
	return h.Sum64()
}

// Transpose returns the reverse mapping onto a target range of size
// numTargets. Row order within each target follows source node order, so the
// result is deterministic for a given input.
func (a *AdjacencyList) Transpose(numTargets int32) *AdjacencyList {
	counts := make([]int32, numTargets+1)
	for _, t := range a.array {
		counts[t+1]++
	}
	offsets := make([]int32, numTargets+1)
	for i := int32(0); i < numTargets; i++ {
		offsets[i+1] = offsets[i] + counts[i+1]
	}
	array := make([]int32, len(a.array))
	pos := make([]int32, numTargets)
	for src := int32(0); src < a.NumNodes(); src++ {
		for _, t := range a.Links(src) {
			array[offsets[t]+pos[t]] = src
			pos[t]++
		}
	}
	return &AdjacencyList{array: array, offsets: offsets, degree: -1}
}
