package symbol

import (
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"netscan/constant"
)

// Resolver resolves kernel symbols and structure field offsets.
type Resolver interface {
	Lookup(name string) (uint64, error)
	FieldOffset(typeName, field string) (int, error)
}

// File is a Resolver backed by a YAML symbol file:
//
//	symbols:
//	  KdVersionBlock: 0xfffff80002a3e0a8
//	types:
//	  _EPROCESS:
//	    UniqueProcessId: 0x180
//	    ImageFileName: 0x2e0
type File struct {
	Symbols map[string]uint64         `yaml:"symbols"`
	Types   map[string]map[string]int `yaml:"types"`
}

// Parse decodes a YAML symbol file.
func Parse(raw []byte) (f *File, err error) {
	f = &File{}
	err = yaml.Unmarshal(raw, f)
	if err != nil {
		err = xerrors.Errorf("failed to unmarshal symbol file: %w", err)
		return
	}
	return
}

// Load reads and parses the symbol file at path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read symbol file: %s, err: %w", path, err)
	}
	f, err := Parse(raw)
	if err != nil {
		return nil, xerrors.Errorf(": %w", err)
	}
	return f, nil
}

func (f *File) Lookup(name string) (uint64, error) {
	addr, ok := f.Symbols[name]
	if !ok {
		return 0, xerrors.Errorf("symbol %s: %w", name, constant.ErrSymbolUnavailable)
	}
	return addr, nil
}

func (f *File) FieldOffset(typeName, field string) (int, error) {
	offset, ok := f.Types[typeName][field]
	if !ok {
		return 0, xerrors.Errorf("field %s.%s: %w", typeName, field, constant.ErrSymbolUnavailable)
	}
	return offset, nil
}
