package constant

const (
	// ProgName is the name of this program
	ProgName string = "netscan"

	// AFInet is the IPv4 address family as stored by the Windows kernel.
	AFInet uint16 = 2

	// AFInet6 is Microsoft's AF_INET6 (0x17), not the host's value.
	AFInet6 uint16 = 0x17

	// IPv4Length is the byte length of a address of ipv4
	IPv4Length int = 4

	// IPv6Length is the byte length of a address of ipv6
	IPv6Length int = 16

	// KUserSharedDataX86 is the hard-coded address of _KUSER_SHARED_DATA on 32-bit kernels.
	KUserSharedDataX86 uint64 = 0xFFDF0000

	// KUserSharedDataX64 is the hard-coded address of _KUSER_SHARED_DATA on 64-bit kernels.
	KUserSharedDataX64 uint64 = 0xFFFFF78000000000

	// KUserNtMajorVersionOffset and KUserNtMinorVersionOffset locate the version numbers inside _KUSER_SHARED_DATA.
	KUserNtMajorVersionOffset uint64 = 0x26C
	KUserNtMinorVersionOffset uint64 = 0x270

	// VersionBlockSymbol is the kernel symbol pointing at _DBGKD_GET_VERSION64.
	VersionBlockSymbol string = "KdVersionBlock"

	// ProcessTypeName is the kernel structure referenced by the Owner field of network objects.
	ProcessTypeName string = "_EPROCESS"

	// ImageFileNameLen is the length of _EPROCESS.ImageFileName
	ImageFileNameLen int = 15

	// OwnerCacheSize bounds the number of owner processes cached during one scan.
	OwnerCacheSize int = 1024

	// MaxEndpointPID is the largest pid accepted for an endpoint that lacks a local address.
	MaxEndpointPID uint64 = 65535

	// WildcardRemote is the remote address shown for UDP endpoints.
	WildcardRemote string = "*"

	// InaddrAny and Inaddr6Any are the text forms of the IPv4 and IPv6 wildcard addresses.
	InaddrAny  string = "0.0.0.0"
	Inaddr6Any string = "::"

	// ListeningState is the state shown for every TCP listener.
	ListeningState string = "LISTENING"

	// Tag sets selectable in the layout catalog.
	DefaultTagSet  string = "default"
	ExtendedTagSet string = "extended"
)

// TCPStates maps the kernel's TCB state codes to their names.
var TCPStates = map[uint32]string{
	0:  "CLOSED",
	1:  "LISTENING",
	2:  "SYN_SENT",
	3:  "SYN_RCVD",
	4:  "ESTABLISHED",
	5:  "FIN_WAIT1",
	6:  "FIN_WAIT2",
	7:  "CLOSE_WAIT",
	8:  "CLOSING",
	9:  "LAST_ACK",
	12: "TIME_WAIT",
	13: "DELETE_TCB",
}
