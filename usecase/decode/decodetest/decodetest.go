// Package decodetest lays network objects out in a sparse test image the way
// the kernel pool would hold them.
package decodetest

import (
	"encoding/binary"
	"net/netip"

	"netscan/constant"
	"netscan/domain/entity"
	"netscan/domain/valueobject"
	"netscan/infrastructure/memory"
	"netscan/infrastructure/memory/memorytest"
	"netscan/infrastructure/symbol"
)

const (
	PidOffset  = 0x180
	NameOffset = 0x2e0

	versionBlockOffset = 0x100
	eprocessSize       = 0x400
)

// Object describes one network object. A nil Local leaves the socket unbound,
// a zero Owner leaves the Owner pointer null.
type Object struct {
	Kind       entity.RecordKind
	Tag        string
	Family     uint16
	Local      []byte
	Remote     []byte
	State      uint32
	Port       uint16
	LocalPort  uint16
	RemotePort uint16
	Owner      uint64
	CreateTime uint64
	// DanglingPData, when set, points the _LOCAL_ADDRESS pData at this
	// address instead of a real chain.
	DanglingPData uint64
	// Slack is appended to the structure inside the pool block.
	Slack int
}

type Fixture struct {
	Layout  *entity.StructLayout
	Image   *memorytest.Builder
	Symbols *symbol.File

	pool uint64
	aux  uint64
}

func New(layout *entity.StructLayout) *Fixture {
	bits := 64
	pool, aux := uint64(0xfffffa8001000000), uint64(0xfffffa8003000000)
	if layout.Architecture == entity.X86 {
		bits = 32
		pool, aux = 0x85000000, 0x87000000
	}
	return &Fixture{
		Layout: layout,
		Image:  memorytest.New(bits),
		Symbols: &symbol.File{
			Symbols: map[string]uint64{},
			Types: map[string]map[string]int{
				constant.ProcessTypeName: {"UniqueProcessId": PidOffset, "ImageFileName": NameOffset},
			},
		},
		pool: pool,
		aux:  aux,
	}
}

func (f *Fixture) width() int {
	return f.Layout.PointerWidth()
}

// alloc reserves size bytes of auxiliary memory.
func (f *Fixture) alloc(size int) uint64 {
	addr := f.aux
	f.aux += uint64((size + 0xf) &^ 0xf)
	f.Image.Map(addr, size)
	return addr
}

// Version writes _KUSER_SHARED_DATA and the debugger version block.
func (f *Fixture) Version(major, minor uint32, build uint16) *Fixture {
	kuser := constant.KUserSharedDataX64
	if f.Layout.Architecture == entity.X86 {
		kuser = constant.KUserSharedDataX86
	}
	f.Image.PutUint32(kuser+constant.KUserNtMajorVersionOffset, major)
	f.Image.PutUint32(kuser+constant.KUserNtMinorVersionOffset, minor)

	block := f.alloc(versionBlockOffset)
	f.Image.PutUint16(block, 0xF)
	f.Image.PutUint16(block+2, build)
	f.Symbols.Symbols[constant.VersionBlockSymbol] = block
	return f
}

// Process allocates an _EPROCESS and returns its address.
func (f *Fixture) Process(pid uint64, name string) uint64 {
	addr := f.alloc(eprocessSize)
	f.Image.PutPointer(addr+PidOffset, pid)
	f.Image.Put(addr+NameOffset, []byte(name))
	return addr
}

// InAddr formats an address literal as the bytes of an _IN_ADDR.
func InAddr(s string) []byte {
	addr := netip.MustParseAddr(s)
	if addr.Is4() {
		b := addr.As4()
		return b[:]
	}
	b := addr.As16()
	return b[:]
}

func (f *Fixture) inetAF(family uint16) uint64 {
	addr := f.alloc(f.Layout.InetAFFamily + 2)
	f.Image.PutUint16(addr+uint64(f.Layout.InetAFFamily), family)
	return addr
}

// localAddress builds a _LOCAL_ADDRESS chain of the kind's indirection depth.
func (f *Fixture) localAddress(kind entity.RecordKind, inAddr []byte) uint64 {
	local := f.Layout.LocalAddress[kind]
	target := f.alloc(len(inAddr))
	f.Image.Put(target, inAddr)
	for i := 1; i < local.Indirection; i++ {
		ptr := f.alloc(f.width())
		f.Image.PutPointer(ptr, target)
		target = ptr
	}
	addr := f.alloc(local.PData + f.width())
	f.Image.PutPointer(addr+uint64(local.PData), target)
	return addr
}

func (f *Fixture) danglingLocalAddress(kind entity.RecordKind, pData uint64) uint64 {
	local := f.Layout.LocalAddress[kind]
	addr := f.alloc(local.PData + f.width())
	f.Image.PutPointer(addr+uint64(local.PData), pData)
	return addr
}

func (f *Fixture) addrInfo(obj Object) uint64 {
	size := f.Layout.AddrInfoLocal
	if f.Layout.AddrInfoRemote > size {
		size = f.Layout.AddrInfoRemote
	}
	addr := f.alloc(size + f.width())
	if obj.Local != nil {
		f.Image.PutPointer(addr+uint64(f.Layout.AddrInfoLocal), f.localAddress(entity.TCPEndpoint, obj.Local))
	}
	if obj.Remote != nil {
		remote := f.alloc(len(obj.Remote))
		f.Image.Put(remote, obj.Remote)
		f.Image.PutPointer(addr+uint64(f.Layout.AddrInfoRemote), remote)
	}
	return addr
}

func (f *Fixture) set(raw []byte, kindLayout *entity.KindLayout, name string, v uint64) {
	field, ok := kindLayout.Field(name)
	if !ok {
		return
	}
	b := raw[field.Offset : field.Offset+field.Width]
	switch {
	case field.Rule == entity.RuleU16BE:
		binary.BigEndian.PutUint16(b, uint16(v))
	case field.Width == 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case field.Width == 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, v)
	}
}

// Raw encodes obj, allocating the structures it points to.
func (f *Fixture) Raw(obj Object) []byte {
	kindLayout := f.Layout.Kind(obj.Kind)
	raw := make([]byte, kindLayout.Size+obj.Slack)

	if obj.Family != 0 {
		f.set(raw, kindLayout, entity.FieldInetAF, f.inetAF(obj.Family))
	}
	f.set(raw, kindLayout, entity.FieldOwner, obj.Owner)
	f.set(raw, kindLayout, entity.FieldCreateTime, obj.CreateTime)

	switch obj.Kind {
	case entity.TCPEndpoint:
		f.set(raw, kindLayout, entity.FieldAddrInfo, f.addrInfo(obj))
		f.set(raw, kindLayout, entity.FieldState, uint64(obj.State))
		f.set(raw, kindLayout, entity.FieldLocalPort, uint64(obj.LocalPort))
		f.set(raw, kindLayout, entity.FieldRemotePort, uint64(obj.RemotePort))
	default:
		switch {
		case obj.DanglingPData != 0:
			f.set(raw, kindLayout, entity.FieldLocalAddr, f.danglingLocalAddress(obj.Kind, obj.DanglingPData))
		case obj.Local != nil:
			f.set(raw, kindLayout, entity.FieldLocalAddr, f.localAddress(obj.Kind, obj.Local))
		}
		f.set(raw, kindLayout, entity.FieldPort, uint64(obj.Port))
	}
	return raw
}

// Record encodes obj as a classified record without placing it in the pool.
func (f *Fixture) Record(obj Object) *valueobject.ClassifiedRecord {
	return &valueobject.ClassifiedRecord{
		Kind:   obj.Kind,
		Offset: f.alloc(0x10),
		Raw:    f.Raw(obj),
		Layout: f.Layout,
	}
}

// Pool places obj in a non-paged pool block and returns the body address.
func (f *Fixture) Pool(obj Object) uint64 {
	return f.PoolBlock(obj.Tag, 1, f.Raw(obj))
}

// PoolBlock writes a pool header of poolType followed by body and returns
// the body address.
func (f *Fixture) PoolBlock(tag string, poolType uint32, body []byte) uint64 {
	header, unit := 8, 8
	if f.Layout.Architecture == entity.X64 {
		header, unit = 16, 16
	}
	blocks := (header + len(body) + unit - 1) / unit

	start := f.pool
	f.pool += uint64(blocks * unit)

	var ulong1 uint32
	if f.Layout.Architecture == entity.X64 {
		ulong1 = uint32(blocks&0xff)<<16 | (poolType&0xff)<<24
	} else {
		ulong1 = uint32(blocks&0x1ff)<<16 | (poolType&0x7f)<<25
	}
	f.Image.Map(start, blocks*unit)
	f.Image.PutUint32(start, ulong1)
	f.Image.Put(start+4, []byte(tag))
	f.Image.Put(start+uint64(header), body)
	return start + uint64(header)
}

// Layer builds the image written so far.
func (f *Fixture) Layer() memory.Layer {
	return f.Image.Layer()
}
