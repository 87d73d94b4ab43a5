package entity

import "fmt"

// Process is the owner of a network object, decoded from _EPROCESS.
type Process struct {
	Address       uint64
	Pid           uint64
	ImageFileName string
}

func (p *Process) String() string {
	return fmt.Sprintf("{Address: 0x%x Pid: %d ImageFileName: %s}", p.Address, p.Pid, p.ImageFileName)
}
