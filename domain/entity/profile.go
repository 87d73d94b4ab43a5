package entity

import "fmt"

type Architecture string

const (
	X86 Architecture = "x86"
	X64 Architecture = "x64"
)

// PointerWidth returns the size of a kernel pointer in bytes.
func (a Architecture) PointerWidth() int {
	if a == X64 {
		return 8
	}
	return 4
}

// OsVersionProfile identifies the running kernel of a memory image.
type OsVersionProfile struct {
	Major        int
	Minor        int
	Build        int
	Architecture Architecture
}

func (p *OsVersionProfile) String() string {
	return fmt.Sprintf("{Major: %d Minor: %d Build: %d Architecture: %s}", p.Major, p.Minor, p.Build, p.Architecture)
}
