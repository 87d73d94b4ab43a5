package memory

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// ErrUnmappable is returned when an address is not backed by the image.
var ErrUnmappable = xerrors.New("address not mapped")

// Kind is the kind of translation a layer performs.
type Kind string

const (
	Physical Kind = "physical"
	Paged    Kind = "paged"
)

// Layer is a byte-addressable view of a memory image. Implementations never
// mutate the image.
type Layer interface {
	Read(offset uint64, length int) ([]byte, error)
	Kind() Kind
	BitsPerRegister() int
}

// Ranger is implemented by layers that can enumerate their mapped ranges.
type Ranger interface {
	Ranges() []Range
}

// Range is a mapped virtual range.
type Range struct {
	Start  uint64
	Length uint64
}

func (r Range) End() uint64 {
	return r.Start + r.Length
}

func (r Range) Contains(offset uint64, length int) bool {
	return offset >= r.Start && length >= 0 && offset+uint64(length) <= r.End() && offset+uint64(length) >= offset
}

// ReadPointer reads a little endian pointer of width bytes at offset.
func ReadPointer(l Layer, offset uint64, width int) (uint64, error) {
	b, err := l.Read(offset, width)
	if err != nil {
		return 0, xerrors.Errorf("failed to read pointer at 0x%x: %w", offset, err)
	}
	switch width {
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case 8:
		return binary.LittleEndian.Uint64(b), nil
	}
	return 0, xerrors.Errorf("unsupported pointer width: %d", width)
}
