package entity

import (
	"fmt"
	"time"
)

type Protocol string

const (
	TCPv4       Protocol = "TCPv4"
	TCPv6       Protocol = "TCPv6"
	UDPv4       Protocol = "UDPv4"
	UDPv6       Protocol = "UDPv6"
	TCPvUnknown Protocol = "TCPv?"
	UDPvUnknown Protocol = "UDPv?"
)

// NetworkRecord is one logical socket recovered from the image.
type NetworkRecord struct {
	Offset     uint64
	Protocol   Protocol
	LocalAddr  Field[string]
	LocalPort  uint16
	RemoteAddr Field[string]
	RemotePort uint16
	State      Field[string]
	OwnerPID   Field[uint64]
	OwnerName  Field[string]
	CreatedAt  Field[time.Time]
}

func (r *NetworkRecord) String() string {
	return fmt.Sprintf("{Offset: 0x%x Protocol: %s LocalAddr: %s LocalPort: %d RemoteAddr: %s RemotePort: %d State: %s OwnerPID: %s OwnerName: %s CreatedAt: %s}",
		r.Offset, r.Protocol, r.LocalAddr, r.LocalPort, r.RemoteAddr, r.RemotePort, r.State, r.OwnerPID, r.OwnerName, r.CreatedAt)
}
