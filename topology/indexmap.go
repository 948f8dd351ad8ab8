package topology

// IndexMap describes the ownership layout of one entity dimension. Local
// indices [0, SizeLocal) are owned by this process; [SizeLocal,
// SizeLocal+NumGhosts) are ghosts whose global identity is negotiated by the
// partitioning layer. The map is consumed as trusted input; this package
// never validates ownership against other processes.
type IndexMap struct {
	SizeLocal  int32
	NumGhosts  int32
	SizeGlobal int64
	BlockSize  int
}

// NewIndexMap returns an index map with block size 1.
func NewIndexMap(sizeLocal, numGhosts int32, sizeGlobal int64) *IndexMap {
	return &IndexMap{
		SizeLocal:  sizeLocal,
		NumGhosts:  numGhosts,
		SizeGlobal: sizeGlobal,
		BlockSize:  1,
	}
}

// NumEntitiesTotal returns the entity count for assembly purposes, owned plus
// ghost.
func (m *IndexMap) NumEntitiesTotal() int32 {
	return m.SizeLocal + m.NumGhosts
}

// IsOwned reports whether local index i is owned.
func (m *IndexMap) IsOwned(i int32) bool {
	return i < m.SizeLocal
}

// Clone returns a copy.
func (m *IndexMap) Clone() *IndexMap {
	c := *m
	return &c
}
