// Package memorytest builds small sparse memory images for tests.
package memorytest

import (
	"encoding/binary"
	"sort"

	"netscan/infrastructure/memory"
)

const pageSize = 0x1000

// Builder writes little endian values into lazily allocated pages.
type Builder struct {
	kind  memory.Kind
	bits  int
	pages map[uint64][]byte
}

func New(bits int) *Builder {
	return &Builder{kind: memory.Paged, bits: bits, pages: make(map[uint64][]byte)}
}

// WithKind overrides the layer kind, paged by default.
func (b *Builder) WithKind(kind memory.Kind) *Builder {
	b.kind = kind
	return b
}

// Put copies data to addr, mapping every page it touches.
func (b *Builder) Put(addr uint64, data []byte) *Builder {
	for i, v := range data {
		a := addr + uint64(i)
		base := a &^ (pageSize - 1)
		page, ok := b.pages[base]
		if !ok {
			page = make([]byte, pageSize)
			b.pages[base] = page
		}
		page[a-base] = v
	}
	return b
}

// Map maps length zero bytes at addr.
func (b *Builder) Map(addr uint64, length int) *Builder {
	return b.Put(addr, make([]byte, length))
}

func (b *Builder) PutUint16(addr uint64, v uint16) *Builder {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return b.Put(addr, buf)
}

func (b *Builder) PutUint16BE(addr uint64, v uint16) *Builder {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)
	return b.Put(addr, buf)
}

func (b *Builder) PutUint32(addr uint64, v uint32) *Builder {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return b.Put(addr, buf)
}

func (b *Builder) PutUint64(addr uint64, v uint64) *Builder {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return b.Put(addr, buf)
}

// PutPointer writes a pointer of the builder's register width.
func (b *Builder) PutPointer(addr uint64, v uint64) *Builder {
	if b.bits == 32 {
		return b.PutUint32(addr, uint32(v))
	}
	return b.PutUint64(addr, v)
}

// Bytes returns length bytes at addr; unmapped bytes read as zero.
func (b *Builder) Bytes(addr uint64, length int) []byte {
	out := make([]byte, length)
	for i := range out {
		a := addr + uint64(i)
		base := a &^ (pageSize - 1)
		if page, ok := b.pages[base]; ok {
			out[i] = page[a-base]
		}
	}
	return out
}

// Layer merges adjacent pages into segments.
func (b *Builder) Layer() *memory.SegmentLayer {
	bases := make([]uint64, 0, len(b.pages))
	for base := range b.pages {
		bases = append(bases, base)
	}
	sort.Slice(bases, func(i, j int) bool { return bases[i] < bases[j] })

	var segments []memory.Segment
	for _, base := range bases {
		page := make([]byte, pageSize)
		copy(page, b.pages[base])
		n := len(segments)
		if n > 0 && segments[n-1].Start+uint64(len(segments[n-1].Data)) == base {
			segments[n-1].Data = append(segments[n-1].Data, page...)
			continue
		}
		segments = append(segments, memory.Segment{Start: base, Data: page})
	}
	return memory.NewSegmentLayer(b.kind, b.bits, segments...)
}
