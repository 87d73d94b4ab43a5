package valueobject

// DebugVersionBlock is the head of _DBGKD_GET_VERSION64. MinorVersion holds the build number.
type DebugVersionBlock struct {
	MajorVersion    uint16
	MinorVersion    uint16
	ProtocolVersion uint8
	KdSecondaryVer  uint8
	Flags           uint16
	MachineType     uint16
}

// KUserVersion is the NtMajorVersion/NtMinorVersion pair of _KUSER_SHARED_DATA.
type KUserVersion struct {
	NtMajorVersion uint32
	NtMinorVersion uint32
}
