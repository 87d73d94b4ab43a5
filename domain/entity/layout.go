package entity

import (
	"fmt"

	"github.com/thoas/go-funk"
)

// RecordKind is one of the pooled network object kinds.
type RecordKind int

const (
	UnknownKind RecordKind = iota
	TCPListener
	TCPEndpoint
	UDPEndpoint
)

// RecordKinds lists the known kinds in constraint order.
var RecordKinds = []RecordKind{TCPListener, TCPEndpoint, UDPEndpoint}

func (k RecordKind) String() string {
	switch k {
	case TCPListener:
		return "_TCP_LISTENER"
	case TCPEndpoint:
		return "_TCP_ENDPOINT"
	case UDPEndpoint:
		return "_UDP_ENDPOINT"
	default:
		return "unknown"
	}
}

// DecodeRule tells how the bytes of a field are interpreted.
type DecodeRule string

const (
	RulePointer DecodeRule = "pointer"
	RuleU16BE   DecodeRule = "u16be"
	RuleU16LE   DecodeRule = "u16le"
	RuleU32LE   DecodeRule = "u32le"
	RuleWinTime DecodeRule = "wintime"
)

// Field names used by the network object layouts.
const (
	FieldOwner      = "Owner"
	FieldCreateTime = "CreateTime"
	FieldLocalAddr  = "LocalAddr"
	FieldInetAF     = "InetAF"
	FieldPort       = "Port"
	FieldAddrInfo   = "AddrInfo"
	FieldState      = "State"
	FieldLocalPort  = "LocalPort"
	FieldRemotePort = "RemotePort"
)

type FieldDescriptor struct {
	Name   string
	Offset int
	Width  int
	Rule   DecodeRule
}

// KindLayout describes one record kind for one layout.
type KindLayout struct {
	Size   int
	Fields map[string]FieldDescriptor
}

func (k *KindLayout) Field(name string) (FieldDescriptor, bool) {
	f, ok := k.Fields[name]
	return f, ok
}

// LocalAddressLayout describes _LOCAL_ADDRESS. Indirection is the number of
// pointers between pData and the _IN_ADDR.
type LocalAddressLayout struct {
	PData       int
	Indirection int
}

// StructLayout is a named layout profile selected for an OsVersionProfile.
// It is read-only once built.
type StructLayout struct {
	Name         string
	Architecture Architecture
	Kinds        map[RecordKind]*KindLayout
	Tags         map[RecordKind][]string

	// Auxiliary structures reached through pointers.
	InetAFFamily   int
	LocalAddress   map[RecordKind]LocalAddressLayout
	AddrInfoLocal  int
	AddrInfoRemote int
}

func (l *StructLayout) String() string {
	return fmt.Sprintf("{Name: %s Architecture: %s Tags: %v}", l.Name, l.Architecture, l.Tags)
}

func (l *StructLayout) Kind(kind RecordKind) *KindLayout {
	return l.Kinds[kind]
}

// HasTag reports whether tag is valid for kind in this layout.
func (l *StructLayout) HasTag(kind RecordKind, tag string) bool {
	return funk.ContainsString(l.Tags[kind], tag)
}

func (l *StructLayout) PointerWidth() int {
	return l.Architecture.PointerWidth()
}
