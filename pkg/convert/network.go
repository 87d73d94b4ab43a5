package convert

import (
	"fmt"
	"net/netip"

	"golang.org/x/xerrors"

	"netscan/constant"
)

// IPVersionToString returns the protocol suffix for an in-memory address family.
func IPVersionToString(family uint16) (ipVersion string) {
	if family == constant.AFInet {
		ipVersion = "v4"
	} else if family == constant.AFInet6 {
		ipVersion = "v6"
	} else {
		ipVersion = "v?"
	}
	return
}

// Inet4Ntop formats 4 bytes in network order as dotted decimal.
func Inet4Ntop(b []byte) (string, error) {
	if len(b) != constant.IPv4Length {
		return "", xerrors.Errorf("invalid length of packed IPv4 address: %d", len(b))
	}
	return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3]), nil
}

// Inet6Ntop formats 16 bytes as an IPv6 address. IPv4-compatible (::a.b.c.d)
// and IPv4-mapped (::ffff:a.b.c.d) addresses keep the dotted tail.
func Inet6Ntop(b []byte) (string, error) {
	if len(b) != constant.IPv6Length {
		return "", xerrors.Errorf("invalid length of packed IPv6 address: %d", len(b))
	}
	var a [16]byte
	copy(a[:], b)
	addr := netip.AddrFrom16(a)
	if addr.Is4In6() {
		return "::ffff:" + addr.Unmap().String(), nil
	}
	if isV4Compatible(a) {
		v4, _ := Inet4Ntop(a[12:])
		return "::" + v4, nil
	}
	return addr.String(), nil
}

// isV4Compatible reports an address of the form ::a.b.c.d whose upper half of
// the IPv4 part is non-zero, so that ::1 and :: stay in hex form.
func isV4Compatible(a [16]byte) bool {
	for _, v := range a[:12] {
		if v != 0 {
			return false
		}
	}
	return a[12] != 0 || a[13] != 0
}

// InetNtop formats b according to the in-memory address family.
func InetNtop(family uint16, b []byte) (string, error) {
	switch family {
	case constant.AFInet:
		return Inet4Ntop(b)
	case constant.AFInet6:
		return Inet6Ntop(b)
	}
	return "", xerrors.Errorf("address family not supported: %d", family)
}

// AddrLength returns the size of the _IN_ADDR payload for family, 0 if unknown.
func AddrLength(family uint16) int {
	switch family {
	case constant.AFInet:
		return constant.IPv4Length
	case constant.AFInet6:
		return constant.IPv6Length
	}
	return 0
}
