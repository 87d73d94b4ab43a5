package version

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/xerrors"

	"netscan/constant"
	"netscan/domain/entity"
	"netscan/domain/valueobject"
	"netscan/infrastructure/log"
	"netscan/infrastructure/memory"
	"netscan/infrastructure/symbol"
)

// Resolver determines the kernel version of a memory image and selects the
// matching network object layout.
type Resolver struct {
	logger log.Logger
}

func NewResolver(logger log.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// ArchitectureOf maps the register width of a layer to an architecture.
func ArchitectureOf(layer memory.Layer) (entity.Architecture, error) {
	switch layer.BitsPerRegister() {
	case 32:
		return entity.X86, nil
	case 64:
		return entity.X64, nil
	}
	return "", xerrors.Errorf("%d bits per register: %w", layer.BitsPerRegister(), constant.ErrUnsupportedArchitecture)
}

func kuserAddress(arch entity.Architecture) uint64 {
	if arch == entity.X64 {
		return constant.KUserSharedDataX64
	}
	return constant.KUserSharedDataX86
}

// Resolve reads _KUSER_SHARED_DATA and the debug version block. Every error
// returned is fatal for the scan.
func (r *Resolver) Resolve(layer memory.Layer, symbols symbol.Resolver) (*entity.OsVersionProfile, error) {
	if layer.Kind() != memory.Paged {
		return nil, xerrors.Errorf("layer kind %q: %w", layer.Kind(), constant.ErrLayerTypeMismatch)
	}
	arch, err := ArchitectureOf(layer)
	if err != nil {
		return nil, xerrors.Errorf(": %w", err)
	}

	versOffset, err := symbols.Lookup(constant.VersionBlockSymbol)
	if err != nil {
		return nil, xerrors.Errorf("failed to locate the debug version block: %w", err)
	}
	var block valueobject.DebugVersionBlock
	raw, err := layer.Read(versOffset, binary.Size(block))
	if err != nil {
		return nil, xerrors.Errorf("failed to read _DBGKD_GET_VERSION64: %w", err)
	}
	if err = binary.Read(bytes.NewReader(raw), binary.LittleEndian, &block); err != nil {
		return nil, xerrors.Errorf("failed to decode _DBGKD_GET_VERSION64: %w", err)
	}
	r.logger.Debugf("determined OS major/minor version: %d.%d", block.MajorVersion, block.MinorVersion)

	var kuser valueobject.KUserVersion
	raw, err = layer.Read(kuserAddress(arch)+constant.KUserNtMajorVersionOffset, binary.Size(kuser))
	if err != nil {
		return nil, xerrors.Errorf("failed to read _KUSER_SHARED_DATA: %w", err)
	}
	if err = binary.Read(bytes.NewReader(raw), binary.LittleEndian, &kuser); err != nil {
		return nil, xerrors.Errorf("failed to decode _KUSER_SHARED_DATA: %w", err)
	}

	profile := &entity.OsVersionProfile{
		Major:        int(kuser.NtMajorVersion),
		Minor:        int(kuser.NtMinorVersion),
		Build:        int(block.MinorVersion),
		Architecture: arch,
	}
	r.logger.Debugf("resolved profile: %s", profile)
	return profile, nil
}

// Select returns the layout name and tag set for profile. Versions outside the
// table are rejected with constant.ErrUnknownVersion rather than guessed.
func Select(profile *entity.OsVersionProfile) (name string, tagSet string, err error) {
	arch := profile.Architecture
	tagSet = constant.DefaultTagSet

	switch profile.Major {
	case 6:
		switch profile.Minor {
		case 0:
			name = fmt.Sprintf("vista %s", arch)
		case 1:
			name = fmt.Sprintf("win7 %s", arch)
		case 2:
			name = fmt.Sprintf("win8 %s", arch)
		case 3:
			name = fmt.Sprintf("win81 %s", arch)
		}
	case 10:
		if arch == entity.X64 {
			tagSet = constant.ExtendedTagSet
		}
		switch {
		case profile.Build < 14393:
			name = fmt.Sprintf("win10 %s", arch)
		case profile.Build < 15063:
			if arch == entity.X64 {
				name = "win10 x64"
			} else {
				name = "win10 14393 x86"
			}
		default:
			name = fmt.Sprintf("win10 15063 %s", arch)
		}
	}

	if name == "" {
		err = xerrors.Errorf("%s: %w", profile, constant.ErrUnknownVersion)
		tagSet = ""
	}
	return
}
