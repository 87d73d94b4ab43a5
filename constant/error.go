package constant

import "golang.org/x/xerrors"

var (
	// ErrLayerTypeMismatch is returned when the memory layer is not a paged virtual layer.
	ErrLayerTypeMismatch = xerrors.New("layer is not a paged virtual layer")

	// ErrSymbolUnavailable is returned when a required kernel symbol cannot be resolved.
	ErrSymbolUnavailable = xerrors.New("symbol unavailable")

	// ErrUnknownVersion is returned for kernel versions with no known network object layout.
	ErrUnknownVersion = xerrors.New("unknown kernel version")

	// ErrLayoutNotFound is returned when the catalog has no layout with the requested name.
	ErrLayoutNotFound = xerrors.New("layout not found")

	// ErrUnsupportedArchitecture is returned for register widths other than 32 and 64.
	ErrUnsupportedArchitecture = xerrors.New("unsupported architecture")

	// ErrImplausibleProcess is returned when the bytes behind an owner pointer do not look like a process.
	ErrImplausibleProcess = xerrors.New("implausible process")
)
