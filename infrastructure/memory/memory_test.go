package memory

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestSegmentLayer_Read(t *testing.T) {
	l := NewSegmentLayer(Paged, 64,
		Segment{Start: 0x2000, Data: []byte{9, 9}},
		Segment{Start: 0x1000, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
	)
	tests := []struct {
		name    string
		offset  uint64
		length  int
		want    []byte
		wantErr bool
	}{
		{name: "Read inside a segment.", offset: 0x1002, length: 3, want: []byte{3, 4, 5}},
		{name: "Read a whole segment.", offset: 0x2000, length: 2, want: []byte{9, 9}},
		{name: "Read across the end of a segment fails.", offset: 0x1006, length: 4, wantErr: true},
		{name: "Read of an unmapped address fails.", offset: 0x3000, length: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Read(tt.offset, tt.length)
			if tt.wantErr {
				assert.True(t, xerrors.Is(err, ErrUnmappable))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, []Range{{Start: 0x1000, Length: 8}, {Start: 0x2000, Length: 2}}, l.Ranges())
}

func TestReadPointer(t *testing.T) {
	l := NewSegmentLayer(Paged, 64, Segment{Start: 0x10, Data: []byte{0x78, 0x56, 0x34, 0x12, 0, 0, 0xff, 0xff}})

	p, err := ReadPointer(l, 0x10, 8)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0xffff000012345678), p)

	p, err = ReadPointer(l, 0x10, 4)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x12345678), p)

	_, err = ReadPointer(l, 0x14, 8)
	assert.True(t, xerrors.Is(err, ErrUnmappable))
}

func TestRunLayer_Read(t *testing.T) {
	m, err := ParseRunMap([]byte(`
bits: 32
runs:
 - virtual: 0x80000000
   file_offset: 0x4
   length: 0x4
 - virtual: 0x90000000
   file_offset: 0x6
   length: 0x10
`))
	require.NoError(t, err)
	assert.Equal(t, Paged, m.Kind)

	l := NewRunLayer(bytes.NewReader([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}), m)
	assert.Equal(t, 32, l.BitsPerRegister())

	got, err := l.Read(0x80000001, 3)
	assert.NoError(t, err)
	assert.Equal(t, []byte{5, 6, 7}, got)

	// The second run claims more bytes than the file holds.
	_, err = l.Read(0x90000000, 8)
	assert.True(t, xerrors.Is(err, ErrUnmappable))

	_, err = l.Read(0x70000000, 1)
	assert.True(t, xerrors.Is(err, ErrUnmappable))
}
