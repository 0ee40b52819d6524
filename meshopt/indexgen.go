package meshopt

import (
	"bytes"
	"hash/maphash"
	"math/bits"
)

// vertexTable is an open addressing hash set of vertex records, keyed by the
// raw bytes of the record and storing the id of the first record seen.
type vertexTable struct {
	seed     maphash.Seed
	vertices []byte
	size     int
	slots    []uint32 // 0 means empty, otherwise id+1
}

func newVertexTable(vertices []byte, vertexSize, vertexCount int) *vertexTable {
	// power of two, load factor at most 1/2
	capacity := 1 << bits.Len(uint(vertexCount*2))
	if capacity < 16 {
		capacity = 16
	}
	return &vertexTable{
		seed:     maphash.MakeSeed(),
		vertices: vertices,
		size:     vertexSize,
		slots:    make([]uint32, capacity),
	}
}

func (t *vertexTable) record(i int) []byte {
	return t.vertices[i*t.size : (i+1)*t.size]
}

// find returns the slot holding a record equal to record i, or the empty slot
// where it belongs. owner maps ids to a representative record position.
func (t *vertexTable) find(i int, owner []int) int {
	key := t.record(i)
	mask := len(t.slots) - 1
	slot := int(maphash.Bytes(t.seed, key)) & mask
	for probe := 1; ; probe++ {
		id := t.slots[slot]
		if id == 0 || bytes.Equal(t.record(owner[id-1]), key) {
			return slot
		}
		// triangular probing visits every slot of a power of two table
		slot = (slot + probe) & mask
	}
}

// GenerateIndexBuffer deduplicates an unindexed vertex stream. For every input
// record it writes to dst the id of the first record with identical bytes;
// ids are assigned in first-seen order. It returns the number of unique
// records. len(dst) must equal the number of records in vertices. dst is left
// untouched when an error is returned.
func GenerateIndexBuffer[T Index](dst []T, vertices []byte, vertexSize int) (int, error) {
	vertexCount, err := vertexCountOf(vertices, vertexSize)
	if err != nil {
		return 0, err
	}
	if len(dst) != vertexCount {
		return 0, invalidf("destination holds %d indices, stream has %d vertices", len(dst), vertexCount)
	}

	table := newVertexTable(vertices, vertexSize, vertexCount)
	owner := make([]int, 0, vertexCount)
	limit := maxIndex[T]()

	// ids are staged when the stream could overflow T
	out := dst
	if uint64(vertexCount) > limit+1 {
		out = make([]T, vertexCount)
	}

	for i := 0; i < vertexCount; i++ {
		slot := table.find(i, owner)
		if id := table.slots[slot]; id != 0 {
			out[i] = T(id - 1)
			continue
		}
		if uint64(len(owner)) > limit {
			return 0, invalidf("more than %d unique vertices do not fit the index type", limit+1)
		}
		out[i] = T(len(owner))
		owner = append(owner, i)
		table.slots[slot] = uint32(len(owner))
	}

	copy(dst, out)
	return len(owner), nil
}

// GenerateVertexBuffer writes one record per unique id produced by
// GenerateIndexBuffer. indices and vertices are the generator's output and
// input; dst must hold exactly (max(indices)+1) records.
func GenerateVertexBuffer[T Index](dst []byte, indices []T, vertices []byte, vertexSize int) error {
	vertexCount, err := vertexCountOf(vertices, vertexSize)
	if err != nil {
		return err
	}
	if len(indices) != vertexCount {
		return invalidf("%d indices for a stream of %d vertices", len(indices), vertexCount)
	}

	uniqueCount := 0
	for _, idx := range indices {
		uniqueCount = max(uniqueCount, int(idx)+1)
	}
	if len(dst) != uniqueCount*vertexSize {
		return invalidf("destination holds %d bytes, %d unique vertices need %d", len(dst), uniqueCount, uniqueCount*vertexSize)
	}

	for i, idx := range indices {
		copy(dst[int(idx)*vertexSize:], vertices[i*vertexSize:(i+1)*vertexSize])
	}
	return nil
}
