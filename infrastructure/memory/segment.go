package memory

import (
	"sort"

	"golang.org/x/xerrors"
)

// Segment is a contiguous block of image data mapped at a virtual address.
type Segment struct {
	Start uint64
	Data  []byte
}

// SegmentLayer is a sparse in-memory layer. Reads must fall inside one segment.
type SegmentLayer struct {
	kind     Kind
	bits     int
	segments []Segment
}

func NewSegmentLayer(kind Kind, bits int, segments ...Segment) *SegmentLayer {
	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	return &SegmentLayer{kind: kind, bits: bits, segments: sorted}
}

func (l *SegmentLayer) Kind() Kind {
	return l.kind
}

func (l *SegmentLayer) BitsPerRegister() int {
	return l.bits
}

func (l *SegmentLayer) Read(offset uint64, length int) ([]byte, error) {
	for _, s := range l.segments {
		r := Range{Start: s.Start, Length: uint64(len(s.Data))}
		if r.Contains(offset, length) {
			start := offset - s.Start
			out := make([]byte, length)
			copy(out, s.Data[start:start+uint64(length)])
			return out, nil
		}
	}
	return nil, xerrors.Errorf("read 0x%x+%d: %w", offset, length, ErrUnmappable)
}

func (l *SegmentLayer) Ranges() []Range {
	ranges := make([]Range, 0, len(l.segments))
	for _, s := range l.segments {
		ranges = append(ranges, Range{Start: s.Start, Length: uint64(len(s.Data))})
	}
	return ranges
}
