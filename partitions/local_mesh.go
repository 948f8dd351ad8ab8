package partitions

import (
	"fmt"

	"github.com/notargets/gofem/graph"
	"github.com/notargets/gofem/mesh"
	"github.com/notargets/gofem/topology"
)

// LocalMesh is the submesh seen by one partition: its owned cells followed
// by one layer of ghost cells, those from other partitions sharing a facet
// with an owned cell.
type LocalMesh struct {
	Mesh        *mesh.Mesh
	PartitionID int

	// GlobalCells maps local cell index to global cell index. Owned cells
	// occupy [0, NumOwned), ghosts follow.
	GlobalCells []int32
	NumOwned    int32

	// GlobalVertices maps local vertex index to global vertex index.
	GlobalVertices []int32

	globalToLocal map[int32]int32
}

// LocalCell returns the local index of a global cell, if present.
func (lm *LocalMesh) LocalCell(global int32) (int32, bool) {
	local, ok := lm.globalToLocal[global]
	return local, ok
}

// ExtractLocalMesh builds the partition-local mesh for partID, with ghost
// cells discovered through facet adjacency.
func ExtractLocalMesh(m *mesh.Mesh, layout *PartitionLayout, partID int) (*LocalMesh, error) {
	if partID < 0 || partID >= layout.NumPartitions {
		return nil, fmt.Errorf("partition %d out of range [0,%d)", partID, layout.NumPartitions)
	}
	top := m.Topology()
	tdim := top.Dim()
	if err := m.CreateConnectivity(tdim, tdim-1); err != nil {
		return nil, err
	}
	if err := m.CreateConnectivity(tdim-1, tdim); err != nil {
		return nil, err
	}
	cToF := top.Connectivity(tdim, tdim-1)
	fToC := top.Connectivity(tdim-1, tdim)
	cToV := top.Connectivity(tdim, 0)

	owned := layout.Partitions[partID].Cells
	globalToLocal := make(map[int32]int32, len(owned))
	globalCells := make([]int32, 0, len(owned))
	for _, c := range owned {
		globalToLocal[c] = int32(len(globalCells))
		globalCells = append(globalCells, c)
	}

	// Ghost layer: facet neighbours owned elsewhere, in discovery order.
	for _, c := range owned {
		for _, f := range cToF.Links(c) {
			for _, nb := range fToC.Links(f) {
				if layout.EToP[nb] == int32(partID) {
					continue
				}
				if _, seen := globalToLocal[nb]; !seen {
					globalToLocal[nb] = int32(len(globalCells))
					globalCells = append(globalCells, nb)
				}
			}
		}
	}

	// Compact vertices in first-seen order over local cells.
	nv := top.CellType().NumVertices()
	vertexToLocal := make(map[int32]int32)
	globalVertices := make([]int32, 0)
	localCells := make([]int32, 0, len(globalCells)*nv)
	for _, c := range globalCells {
		for _, v := range cToV.Links(c) {
			lv, seen := vertexToLocal[v]
			if !seen {
				lv = int32(len(globalVertices))
				vertexToLocal[v] = lv
				globalVertices = append(globalVertices, v)
			}
			localCells = append(localCells, lv)
		}
	}

	x := make([]float64, 3*len(globalVertices))
	for lv, gv := range globalVertices {
		p := m.Geometry().Point(gv)
		copy(x[3*lv:3*lv+3], p[:])
	}

	cells, err := graph.NewFixed(localCells, nv)
	if err != nil {
		return nil, err
	}
	numOwned := int32(len(owned))
	numGhosts := int32(len(globalCells)) - numOwned
	cellMap := topology.NewIndexMap(numOwned, numGhosts, int64(layout.TotalCells))

	local, err := mesh.NewWithCellIndexMap(top.CellType(), cells, cellMap, x, m.Geometry().Dim)
	if err != nil {
		return nil, err
	}
	return &LocalMesh{
		Mesh:           local,
		PartitionID:    partID,
		GlobalCells:    globalCells,
		NumOwned:       numOwned,
		GlobalVertices: globalVertices,
		globalToLocal:  globalToLocal,
	}, nil
}
