package convert

import (
	"encoding/binary"

	"golang.org/x/xerrors"

	"netscan/domain/entity"
)

// ReadField decodes the field f from raw according to its decode rule.
func ReadField(raw []byte, f entity.FieldDescriptor) (uint64, error) {
	if f.Offset < 0 || f.Width <= 0 || f.Offset+f.Width > len(raw) {
		return 0, xerrors.Errorf("field %s out of range: offset %d width %d size %d", f.Name, f.Offset, f.Width, len(raw))
	}
	b := raw[f.Offset : f.Offset+f.Width]
	switch f.Rule {
	case entity.RuleU16BE:
		return uint64(binary.BigEndian.Uint16(b)), nil
	case entity.RuleU16LE:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case entity.RuleU32LE:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case entity.RulePointer, entity.RuleWinTime:
		return Uint(b)
	}
	return 0, xerrors.Errorf("unknown decode rule %q for field %s", f.Rule, f.Name)
}

// Uint decodes a little endian value of 2, 4 or 8 bytes.
func Uint(b []byte) (uint64, error) {
	switch len(b) {
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case 8:
		return binary.LittleEndian.Uint64(b), nil
	}
	return 0, xerrors.Errorf("unsupported integer width: %d", len(b))
}
