package partitions

import (
	"fmt"
)

// PickBuffer lists the local cell rows a partition sends to one target.
type PickBuffer struct {
	Indices         []int32 // local cell indices on the owning partition
	TargetPartition int
}

// PlaceBuffer lists the local ghost rows a partition fills from one source.
type PlaceBuffer struct {
	Indices         []int32 // local ghost cell indices on the receiving partition
	SourcePartition int
}

// Exchanger moves per-cell data rows from owning partitions to the ghost
// copies held by their neighbours. Pick and place index arrays are built
// once; Exchange then runs as plain copies.
type Exchanger struct {
	NumPartitions int
	Stride        int // values per cell row

	// [source][target] and [target][source], index-aligned pairwise.
	pick  [][]PickBuffer
	place [][]PlaceBuffer

	numOwned  []int32
	numGhosts []int32
}

// NewExchanger derives the owner-to-ghost communication pattern from the
// partition-local meshes. stride is the number of values carried per cell.
func NewExchanger(layout *PartitionLayout, locals []*LocalMesh, stride int) (*Exchanger, error) {
	if len(locals) != layout.NumPartitions {
		return nil, fmt.Errorf("have %d local meshes for %d partitions",
			len(locals), layout.NumPartitions)
	}
	if stride <= 0 {
		return nil, fmt.Errorf("invalid stride %d", stride)
	}

	n := layout.NumPartitions
	ex := &Exchanger{
		NumPartitions: n,
		Stride:        stride,
		pick:          make([][]PickBuffer, n),
		place:         make([][]PlaceBuffer, n),
		numOwned:      make([]int32, n),
		numGhosts:     make([]int32, n),
	}
	for p := 0; p < n; p++ {
		ex.pick[p] = make([]PickBuffer, n)
		ex.place[p] = make([]PlaceBuffer, n)
		for q := 0; q < n; q++ {
			ex.pick[p][q].TargetPartition = q
			ex.place[p][q].SourcePartition = q
		}
		ex.numOwned[p] = locals[p].NumOwned
		ex.numGhosts[p] = int32(len(locals[p].GlobalCells)) - locals[p].NumOwned
	}

	for q := 0; q < n; q++ {
		lm := locals[q]
		for local := lm.NumOwned; local < int32(len(lm.GlobalCells)); local++ {
			global := lm.GlobalCells[local]
			owner := layout.EToP[global]
			ownerLocal, ok := locals[owner].LocalCell(global)
			if !ok {
				return nil, fmt.Errorf("cell %d owned by partition %d is missing from its local mesh",
					global, owner)
			}
			ex.pick[owner][q].Indices = append(ex.pick[owner][q].Indices, ownerLocal)
			ex.place[q][owner].Indices = append(ex.place[q][owner].Indices, local)
		}
	}

	if err := ex.Verify(); err != nil {
		return nil, err
	}
	return ex, nil
}

// PickIndices returns the rows source sends to target.
func (ex *Exchanger) PickIndices(source, target int) []int32 {
	if source < 0 || source >= ex.NumPartitions || target < 0 || target >= ex.NumPartitions {
		return nil
	}
	return ex.pick[source][target].Indices
}

// PlaceIndices returns the ghost rows target fills from source.
func (ex *Exchanger) PlaceIndices(target, source int) []int32 {
	if target < 0 || target >= ex.NumPartitions || source < 0 || source >= ex.NumPartitions {
		return nil
	}
	return ex.place[target][source].Indices
}

// Verify checks index bounds, pick/place correspondence, and that every
// ghost row is filled exactly once.
func (ex *Exchanger) Verify() error {
	for p := 0; p < ex.NumPartitions; p++ {
		for q := 0; q < ex.NumPartitions; q++ {
			for _, idx := range ex.pick[p][q].Indices {
				if idx < 0 || idx >= ex.numOwned[p] {
					return fmt.Errorf("pick index %d on partition %d outside owned range [0,%d)",
						idx, p, ex.numOwned[p])
				}
			}
			total := ex.numOwned[q] + ex.numGhosts[q]
			for _, idx := range ex.place[q][p].Indices {
				if idx < ex.numOwned[q] || idx >= total {
					return fmt.Errorf("place index %d on partition %d outside ghost range [%d,%d)",
						idx, q, ex.numOwned[q], total)
				}
			}
			if len(ex.pick[p][q].Indices) != len(ex.place[q][p].Indices) {
				return fmt.Errorf("length mismatch: pick[%d][%d]=%d, place[%d][%d]=%d",
					p, q, len(ex.pick[p][q].Indices), q, p, len(ex.place[q][p].Indices))
			}
		}
	}

	totalPlaced := 0
	for q := 0; q < ex.NumPartitions; q++ {
		for p := 0; p < ex.NumPartitions; p++ {
			totalPlaced += len(ex.place[q][p].Indices)
		}
	}
	totalGhosts := 0
	for q := 0; q < ex.NumPartitions; q++ {
		totalGhosts += int(ex.numGhosts[q])
	}
	if totalPlaced != totalGhosts {
		return fmt.Errorf("conservation error: %d placed rows for %d ghost cells",
			totalPlaced, totalGhosts)
	}
	return nil
}

// Exchange copies owned rows into the matching ghost rows across all
// partitions. fields[p] holds partition p's data, one Stride-sized row per
// local cell including ghosts.
func (ex *Exchanger) Exchange(fields [][]float64) error {
	for p := range fields {
		want := int(ex.numOwned[p]+ex.numGhosts[p]) * ex.Stride
		if len(fields[p]) != want {
			return fmt.Errorf("partition %d field has %d values, expected %d",
				p, len(fields[p]), want)
		}
	}
	for p := 0; p < ex.NumPartitions; p++ {
		for q := 0; q < ex.NumPartitions; q++ {
			picks := ex.pick[p][q].Indices
			places := ex.place[q][p].Indices
			for k := range picks {
				src := int(picks[k]) * ex.Stride
				dst := int(places[k]) * ex.Stride
				copy(fields[q][dst:dst+ex.Stride], fields[p][src:src+ex.Stride])
			}
		}
	}
	return nil
}
