// Package partitions decomposes a mesh into cell partitions for parallel
// assembly, extracts the partition-local meshes with ghost cells, and builds
// the owner-to-ghost exchange pattern for coefficient data.
package partitions

import (
	"fmt"
	"math"
)

// Partition is one piece of a mesh decomposition.
type Partition struct {
	// Unique identifier, equal to the partition's index in the layout.
	ID int

	// Global cell indices assigned to this partition, owned cells only.
	Cells []int32
}

// NumCells returns the number of cells owned by the partition.
func (p *Partition) NumCells() int { return len(p.Cells) }

// PartitionLayout is a complete decomposition of a mesh's cells.
type PartitionLayout struct {
	Partitions []Partition

	// EToP maps each global cell to the partition that owns it.
	EToP []int32

	NumPartitions int
	TotalCells    int
}

// CellPartition returns the partition owning global cell c, or -1 if c is
// out of range.
func (pl *PartitionLayout) CellPartition(c int32) int32 {
	if c < 0 || int(c) >= len(pl.EToP) {
		return -1
	}
	return pl.EToP[c]
}

// Validate checks that the layout covers every cell exactly once and that
// the per-partition cell lists agree with EToP.
func (pl *PartitionLayout) Validate() error {
	if len(pl.EToP) != pl.TotalCells {
		return fmt.Errorf("EToP length %d does not match TotalCells %d",
			len(pl.EToP), pl.TotalCells)
	}
	if len(pl.Partitions) != pl.NumPartitions {
		return fmt.Errorf("layout holds %d partitions, NumPartitions is %d",
			len(pl.Partitions), pl.NumPartitions)
	}

	counted := 0
	for i := range pl.Partitions {
		p := &pl.Partitions[i]
		if p.ID != i {
			return fmt.Errorf("partition at index %d has ID %d", i, p.ID)
		}
		for _, c := range p.Cells {
			if c < 0 || int(c) >= pl.TotalCells {
				return fmt.Errorf("partition %d holds out-of-range cell %d", i, c)
			}
			if pl.EToP[c] != int32(i) {
				return fmt.Errorf("cell %d listed in partition %d but EToP assigns it to %d",
					c, i, pl.EToP[c])
			}
		}
		counted += len(p.Cells)
	}
	if counted != pl.TotalCells {
		return fmt.Errorf("partitions hold %d cells, mesh has %d", counted, pl.TotalCells)
	}
	return nil
}

// PartitionStats summarizes the load balance of a layout.
type PartitionStats struct {
	NumPartitions int
	MinCells      int
	MaxCells      int
	AvgCells      float64
	Imbalance     float64 // MaxCells / AvgCells
}

// Statistics computes load balance metrics for the layout.
func (pl *PartitionLayout) Statistics() PartitionStats {
	stats := PartitionStats{
		NumPartitions: pl.NumPartitions,
		MinCells:      math.MaxInt32,
		AvgCells:      float64(pl.TotalCells) / float64(pl.NumPartitions),
	}
	for i := range pl.Partitions {
		n := pl.Partitions[i].NumCells()
		if n < stats.MinCells {
			stats.MinCells = n
		}
		if n > stats.MaxCells {
			stats.MaxCells = n
		}
	}
	if stats.AvgCells > 0 {
		stats.Imbalance = float64(stats.MaxCells) / stats.AvgCells
	}
	return stats
}
