package memory

import (
	"io"
	"os"
	"sort"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// Run maps a virtual range onto a file offset of the raw image.
type Run struct {
	Virtual    uint64 `yaml:"virtual"`
	FileOffset int64  `yaml:"file_offset"`
	Length     uint64 `yaml:"length"`
}

// RunMap is the YAML description of how a raw image is laid out.
type RunMap struct {
	Kind Kind  `yaml:"kind"`
	Bits int   `yaml:"bits"`
	Runs []Run `yaml:"runs"`
}

// RunLayer serves reads from an io.ReaderAt through a run list.
type RunLayer struct {
	src    io.ReaderAt
	closer io.Closer
	kind   Kind
	bits   int
	runs   []Run
}

func NewRunLayer(src io.ReaderAt, m *RunMap) *RunLayer {
	runs := make([]Run, len(m.Runs))
	copy(runs, m.Runs)
	sort.Slice(runs, func(i, j int) bool { return runs[i].Virtual < runs[j].Virtual })
	return &RunLayer{src: src, kind: m.Kind, bits: m.Bits, runs: runs}
}

// ParseRunMap parses the YAML run map.
func ParseRunMap(raw []byte) (m *RunMap, err error) {
	m = &RunMap{}
	err = yaml.Unmarshal(raw, m)
	if err != nil {
		err = xerrors.Errorf("failed to unmarshal run map: %w", err)
		return
	}
	if m.Kind == "" {
		m.Kind = Paged
	}
	return
}

// OpenRunLayer opens the raw image at imagePath described by the run map at mapPath.
func OpenRunLayer(imagePath, mapPath string) (*RunLayer, error) {
	raw, err := os.ReadFile(mapPath)
	if err != nil {
		return nil, xerrors.Errorf("failed to read run map: %s, err: %w", mapPath, err)
	}
	m, err := ParseRunMap(raw)
	if err != nil {
		return nil, xerrors.Errorf(": %w", err)
	}
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, xerrors.Errorf("failed to open image: %s, err: %w", imagePath, err)
	}
	l := NewRunLayer(f, m)
	l.closer = f
	return l, nil
}

func (l *RunLayer) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *RunLayer) Kind() Kind {
	return l.kind
}

func (l *RunLayer) BitsPerRegister() int {
	return l.bits
}

func (l *RunLayer) Read(offset uint64, length int) ([]byte, error) {
	for _, run := range l.runs {
		r := Range{Start: run.Virtual, Length: run.Length}
		if !r.Contains(offset, length) {
			continue
		}
		out := make([]byte, length)
		n, err := l.src.ReadAt(out, run.FileOffset+int64(offset-run.Virtual))
		if n < length {
			if err == nil || err == io.EOF {
				err = ErrUnmappable
			}
			return nil, xerrors.Errorf("read 0x%x+%d: %w", offset, length, err)
		}
		return out, nil
	}
	return nil, xerrors.Errorf("read 0x%x+%d: %w", offset, length, ErrUnmappable)
}

func (l *RunLayer) Ranges() []Range {
	ranges := make([]Range, 0, len(l.runs))
	for _, run := range l.runs {
		ranges = append(ranges, Range{Start: run.Virtual, Length: run.Length})
	}
	return ranges
}
