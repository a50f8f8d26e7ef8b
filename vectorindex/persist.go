package vectorindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// On-disk layout, little-endian:
//
//	magic "SVIX" | version u32 | dim u32 | nextID u64 | count u32
//	then per entry: id u64 | deleted u8 | float32[dim]
const (
	indexMagic   = "SVIX"
	indexVersion = 1
)

func (i *Index) marshal() []byte {
	size := 4 + 4 + 4 + 8 + 4 + len(i.entries)*(8+1+4*i.dim)
	out := make([]byte, 0, size)
	out = append(out, indexMagic...)
	out = binary.LittleEndian.AppendUint32(out, indexVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(i.dim))
	out = binary.LittleEndian.AppendUint64(out, i.nextID)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(i.entries)))
	for _, e := range i.entries {
		out = binary.LittleEndian.AppendUint64(out, e.id)
		if e.deleted {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
		for _, v := range e.vec {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
		}
	}
	return out
}

func (i *Index) unmarshal(data []byte) error {
	if len(data) < 24 {
		return errors.New("truncated header")
	}
	if string(data[:4]) != indexMagic {
		return errors.New("not an index file")
	}
	off := 4
	getU32 := func() uint32 { v := binary.LittleEndian.Uint32(data[off : off+4]); off += 4; return v }
	if v := getU32(); v != indexVersion {
		return fmt.Errorf("unsupported index version %d", v)
	}
	dim := int(getU32())
	if dim != i.dim {
		return fmt.Errorf("index file dimension %d does not match configured dimension %d", dim, i.dim)
	}
	nextID := binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	count := int(getU32())
	entrySize := 8 + 1 + 4*dim
	if len(data)-off < count*entrySize {
		return errors.New("truncated entries")
	}
	entries := make([]entry, count)
	for n := 0; n < count; n++ {
		id := binary.LittleEndian.Uint64(data[off : off+8])
		off += 8
		deleted := data[off] != 0
		off++
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		entries[n] = entry{id: id, vec: vec, mag: magnitude(vec), deleted: deleted}
	}
	i.nextID = nextID
	i.entries = entries
	return nil
}

// save rewrites the full index file. The write goes to a temp file first and
// is renamed into place so a crash cannot leave a half-written index.
func (i *Index) save() error {
	if err := os.MkdirAll(filepath.Dir(i.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp := i.path + ".tmp"
	if err := os.WriteFile(tmp, i.marshal(), 0o644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := os.Rename(tmp, i.path); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}
