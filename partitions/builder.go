package partitions

import (
	"fmt"

	metis "github.com/notargets/go-metis"

	"github.com/notargets/gofem/mesh"
)

// PartitionStrategy selects how cells are assigned to partitions.
type PartitionStrategy int

const (
	// BlockPartition assigns consecutive runs of cells.
	BlockPartition PartitionStrategy = iota
	// RoundRobin distributes cells cyclically.
	RoundRobin
	// GraphPartition minimizes facet cut using METIS on the cell dual graph.
	GraphPartition
)

// Config holds partitioning parameters.
type Config struct {
	NumPartitions   int32
	Strategy        PartitionStrategy
	ImbalanceFactor float32 // e.g. 1.05 for 5% imbalance (graph strategy)
	UseEdgeWeights  bool    // weight dual edges by shared-facet vertex count
	Objective       string  // "cut" or "vol"
}

// DefaultConfig returns the standard graph-partitioning configuration.
func DefaultConfig(nparts int32) *Config {
	return &Config{
		NumPartitions:   nparts,
		Strategy:        GraphPartition,
		ImbalanceFactor: 1.05,
		UseEdgeWeights:  true,
		Objective:       "vol",
	}
}

// Builder constructs partition layouts from mesh connectivity.
type Builder struct {
	mesh   *mesh.Mesh
	config *Config
}

// NewBuilder creates a builder for the given mesh.
func NewBuilder(m *mesh.Mesh, config *Config) (*Builder, error) {
	if config.NumPartitions < 1 {
		return nil, fmt.Errorf("invalid partition count %d", config.NumPartitions)
	}
	numCells, err := m.Topology().NumEntities(m.Topology().Dim())
	if err != nil {
		return nil, err
	}
	if numCells == 0 {
		return nil, fmt.Errorf("cannot partition a mesh with no cells")
	}
	return &Builder{mesh: m, config: config}, nil
}

// Build assigns every cell to a partition and returns the validated layout.
func (b *Builder) Build() (*PartitionLayout, error) {
	tdim := b.mesh.Topology().Dim()
	numCells, err := b.mesh.Topology().NumEntities(tdim)
	if err != nil {
		return nil, err
	}
	nparts := int(b.config.NumPartitions)

	var eToP []int32
	switch b.config.Strategy {
	case BlockPartition:
		eToP = blockAssign(int(numCells), nparts)
	case RoundRobin:
		eToP = roundRobinAssign(int(numCells), nparts)
	case GraphPartition:
		eToP, err = b.graphAssign(int(numCells), nparts)
		if err != nil {
			return nil, fmt.Errorf("graph partitioning: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown partition strategy %d", b.config.Strategy)
	}

	partitions := make([]Partition, nparts)
	for i := range partitions {
		partitions[i].ID = i
	}
	for c, p := range eToP {
		partitions[p].Cells = append(partitions[p].Cells, int32(c))
	}

	layout := &PartitionLayout{
		Partitions:    partitions,
		EToP:          eToP,
		NumPartitions: nparts,
		TotalCells:    int(numCells),
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

func blockAssign(numCells, nparts int) []int32 {
	eToP := make([]int32, numCells)
	perPart := (numCells + nparts - 1) / nparts
	for c := range eToP {
		p := c / perPart
		if p >= nparts {
			p = nparts - 1
		}
		eToP[c] = int32(p)
	}
	return eToP
}

func roundRobinAssign(numCells, nparts int) []int32 {
	eToP := make([]int32, numCells)
	for c := range eToP {
		eToP[c] = int32(c % nparts)
	}
	return eToP
}

// graphAssign partitions the facet dual graph with METIS.
func (b *Builder) graphAssign(numCells, nparts int) ([]int32, error) {
	if nparts == 1 {
		return make([]int32, numCells), nil
	}

	xadj, adjncy, vwgt, adjwgt, err := b.buildDualGraph(numCells)
	if err != nil {
		return nil, err
	}

	opts := make([]int32, metis.NoOptions)
	if err := metis.SetDefaultOptions(opts); err != nil {
		return nil, fmt.Errorf("failed to set METIS options: %w", err)
	}
	if b.config.Objective == "vol" {
		opts[metis.OptionObjType] = metis.ObjTypeVol
	} else {
		opts[metis.OptionObjType] = metis.ObjTypeCut
	}

	imbalance := b.config.ImbalanceFactor
	if imbalance <= 1 {
		imbalance = 1.05
	}
	ubvec := []float32{imbalance}

	var adjwgtPtr []int32
	if b.config.UseEdgeWeights {
		adjwgtPtr = adjwgt
	}

	part, _, err := metis.PartGraphKwayWeighted(
		xadj, adjncy, vwgt, adjwgtPtr,
		b.config.NumPartitions, nil, ubvec, opts,
	)
	if err != nil {
		return nil, fmt.Errorf("METIS partitioning failed: %w", err)
	}
	return part, nil
}

// buildDualGraph assembles the CSR cell adjacency graph where two cells are
// linked when they share a facet. Weights reflect per-cell work (vertex
// count) and per-facet communication volume.
func (b *Builder) buildDualGraph(numCells int) (xadj, adjncy, vwgt, adjwgt []int32, err error) {
	top := b.mesh.Topology()
	tdim := top.Dim()
	if err = b.mesh.CreateConnectivity(tdim, tdim-1); err != nil {
		return nil, nil, nil, nil, err
	}
	if err = b.mesh.CreateConnectivity(tdim-1, tdim); err != nil {
		return nil, nil, nil, nil, err
	}
	cToF := top.Connectivity(tdim, tdim-1)
	fToC := top.Connectivity(tdim-1, tdim)

	facetCost := int32(top.CellType().FacetType().NumVertices())
	cellCost := int32(top.CellType().NumVertices())

	xadj = make([]int32, numCells+1)
	vwgt = make([]int32, numCells)
	for c := 0; c < numCells; c++ {
		vwgt[c] = cellCost
		for _, f := range cToF.Links(int32(c)) {
			if len(fToC.Links(f)) == 2 {
				xadj[c+1]++
			}
		}
	}
	for c := 0; c < numCells; c++ {
		xadj[c+1] += xadj[c]
	}

	adjncy = make([]int32, xadj[numCells])
	adjwgt = make([]int32, xadj[numCells])
	pos := make([]int32, numCells)
	copy(pos, xadj[:numCells])
	for c := 0; c < numCells; c++ {
		for _, f := range cToF.Links(int32(c)) {
			incident := fToC.Links(f)
			if len(incident) != 2 {
				continue
			}
			other := incident[0]
			if other == int32(c) {
				other = incident[1]
			}
			adjncy[pos[c]] = other
			adjwgt[pos[c]] = facetCost
			pos[c]++
		}
	}
	return xadj, adjncy, vwgt, adjwgt, nil
}
