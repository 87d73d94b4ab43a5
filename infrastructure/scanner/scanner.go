package scanner

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/xerrors"

	"netscan/domain/entity"
	"netscan/domain/valueobject"
	"netscan/infrastructure/log"
	"netscan/infrastructure/memory"
)

// ErrNotEnumerable is returned for layers that cannot list their mapped ranges.
var ErrNotEnumerable = xerrors.New("layer cannot enumerate its ranges")

// chunkSize is how much of a range is read at once while looking for headers.
const chunkSize = 0x10000

// Driver yields the pool allocations that satisfy any of the constraints.
type Driver interface {
	Scan(constraints []*entity.PoolConstraint) Iterator
}

// Iterator is a pull-based stream of candidates. Err reports the error that
// ended the iteration early, if any.
type Iterator interface {
	Next() (*valueobject.Candidate, bool)
	Err() error
}

// PoolScanner finds pool blocks by walking every mapped range at pool
// alignment and checking each _POOL_HEADER.
type PoolScanner struct {
	layer  memory.Layer
	ranger memory.Ranger
	logger log.Logger

	headerSize int
	blockUnit  int
}

func NewPoolScanner(layer memory.Layer, logger log.Logger) (*PoolScanner, error) {
	ranger, ok := layer.(memory.Ranger)
	if !ok {
		return nil, ErrNotEnumerable
	}
	s := &PoolScanner{layer: layer, ranger: ranger, logger: logger}
	switch layer.BitsPerRegister() {
	case 32:
		s.headerSize, s.blockUnit = 8, 8
	case 64:
		s.headerSize, s.blockUnit = 16, 16
	default:
		return nil, xerrors.Errorf("pool scanner for %d bit layer: %w", layer.BitsPerRegister(), ErrNotEnumerable)
	}
	return s, nil
}

func (s *PoolScanner) Scan(constraints []*entity.PoolConstraint) Iterator {
	byTag := make(map[string][]*entity.PoolConstraint)
	for _, c := range constraints {
		byTag[c.TagString()] = append(byTag[c.TagString()], c)
	}
	return &poolIterator{
		scanner: s,
		byTag:   byTag,
		ranges:  s.ranger.Ranges(),
	}
}

// poolTypeMatches reports whether the header's pool type is accepted by flags.
// Type 0 is a free block, odd types are non-paged.
func poolTypeMatches(poolType int, flags entity.PoolType) bool {
	switch {
	case poolType == 0:
		return flags.Has(entity.PoolFree)
	case poolType%2 == 1:
		return flags.Has(entity.PoolNonPaged)
	default:
		return flags.Has(entity.PoolPaged)
	}
}

func (s *PoolScanner) decodeHeader(b []byte) (h valueobject.PoolHeader, err error) {
	if s.headerSize == 8 {
		h = &valueobject.PoolHeader32{}
	} else {
		h = &valueobject.PoolHeader64{}
	}
	err = binary.Read(bytes.NewReader(b), binary.LittleEndian, h)
	if err != nil {
		err = xerrors.Errorf("failed to decode pool header: %w", err)
	}
	return
}

type poolIterator struct {
	scanner *PoolScanner
	byTag   map[string][]*entity.PoolConstraint
	ranges  []memory.Range

	rangeIdx   int
	chunk      []byte
	chunkStart uint64
	pos        int
	err        error
}

// nextChunk loads the next aligned chunk, moving across ranges as needed.
func (it *poolIterator) nextChunk() bool {
	s := it.scanner
	unit := uint64(s.blockUnit)
	for it.rangeIdx < len(it.ranges) {
		r := it.ranges[it.rangeIdx]
		start := it.chunkStart + uint64(len(it.chunk))
		if it.chunk == nil {
			start = (r.Start + unit - 1) &^ (unit - 1)
		}
		if start+uint64(s.headerSize) > r.End() || start < r.Start {
			it.rangeIdx++
			it.chunk = nil
			continue
		}
		length := r.End() - start
		if length > chunkSize {
			length = chunkSize
		}
		b, err := s.layer.Read(start, int(length))
		if err != nil {
			s.logger.Debugf("skipping unreadable chunk at 0x%x: %+v", start, err)
			it.chunkStart, it.chunk = start, make([]byte, length)
			continue
		}
		it.chunkStart, it.chunk, it.pos = start, b, 0
		return true
	}
	return false
}

func (it *poolIterator) Next() (*valueobject.Candidate, bool) {
	s := it.scanner
	if it.err != nil {
		return nil, false
	}
	for {
		if it.chunk == nil || it.pos+s.headerSize > len(it.chunk) {
			if !it.nextChunk() {
				return nil, false
			}
			continue
		}
		offset := it.chunkStart + uint64(it.pos)
		header := it.chunk[it.pos : it.pos+s.headerSize]
		it.pos += s.blockUnit

		constraints, ok := it.byTag[string(header[4:8])]
		if !ok {
			continue
		}
		h, err := s.decodeHeader(header)
		if err != nil {
			it.err = err
			return nil, false
		}
		if candidate := it.match(offset, h, constraints); candidate != nil {
			return candidate, true
		}
	}
}

func (it *poolIterator) match(offset uint64, h valueobject.PoolHeader, constraints []*entity.PoolConstraint) *valueobject.Candidate {
	s := it.scanner
	bodySize := h.BlockSize()*s.blockUnit - s.headerSize
	for _, c := range constraints {
		if !poolTypeMatches(h.PoolType(), c.PoolFlags) || bodySize < c.MinSize {
			continue
		}
		body, err := s.layer.Read(offset+uint64(s.headerSize), bodySize)
		if err != nil {
			s.logger.Debugf("skipping %s block at 0x%x: %+v", h.Tag(), offset, err)
			return nil
		}
		return &valueobject.Candidate{
			Offset:     offset + uint64(s.headerSize),
			Raw:        body,
			Constraint: c,
		}
	}
	return nil
}

func (it *poolIterator) Err() error {
	return it.err
}
