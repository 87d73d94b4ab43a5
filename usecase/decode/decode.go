// Package decode follows the pointers of classified network objects into the
// memory image.
package decode

import (
	"time"

	"golang.org/x/xerrors"

	"netscan/domain/entity"
	"netscan/domain/valueobject"
	"netscan/infrastructure/memory"
	"netscan/infrastructure/repository/interface/process"
	"netscan/pkg/convert"
)

// ErrFieldMissing is returned for a field the record's layout does not define.
var ErrFieldMissing = xerrors.New("field not in layout")

type Decoder struct {
	layer     memory.Layer
	processes process.Repository
}

func NewDecoder(layer memory.Layer, processes process.Repository) *Decoder {
	return &Decoder{
		layer:     layer,
		processes: processes,
	}
}

// Uint decodes a field held in the record's own bytes.
func (d *Decoder) Uint(record *valueobject.ClassifiedRecord, name string) (uint64, error) {
	kindLayout := record.KindLayout()
	if kindLayout == nil {
		return 0, xerrors.Errorf("%s of %s: %w", name, record.Kind, ErrFieldMissing)
	}
	f, ok := kindLayout.Field(name)
	if !ok {
		return 0, xerrors.Errorf("%s of %s: %w", name, record.Kind, ErrFieldMissing)
	}
	v, err := convert.ReadField(record.Raw, f)
	if err != nil {
		return 0, xerrors.Errorf(": %w", err)
	}
	return v, nil
}

func (d *Decoder) pointer(address uint64, width int) (uint64, error) {
	return memory.ReadPointer(d.layer, address, width)
}

// AddressFamily reads the family out of the _INETAF the record points to.
func (d *Decoder) AddressFamily(record *valueobject.ClassifiedRecord) (family uint16, err error) {
	var inetAF uint64
	inetAF, err = d.Uint(record, entity.FieldInetAF)
	if err != nil {
		err = xerrors.Errorf("failed to read InetAF: %w", err)
		return
	}
	var b []byte
	b, err = d.layer.Read(inetAF+uint64(record.Layout.InetAFFamily), 2)
	if err != nil {
		err = xerrors.Errorf("failed to read address family: %w", err)
		return
	}
	var v uint64
	v, err = convert.Uint(b)
	family = uint16(v)
	return
}

// OwnerAddress returns the raw Owner pointer, 0 when the object has no owner.
func (d *Decoder) OwnerAddress(record *valueobject.ClassifiedRecord) (uint64, error) {
	return d.Uint(record, entity.FieldOwner)
}

// Owner returns the owning process. A null Owner pointer yields (nil, nil).
func (d *Decoder) Owner(record *valueobject.ClassifiedRecord) (*entity.Process, error) {
	address, err := d.OwnerAddress(record)
	if err != nil {
		return nil, xerrors.Errorf("failed to read Owner: %w", err)
	}
	if address == 0 {
		return nil, nil
	}
	proc, err := d.processes.FindByAddress(address)
	if err != nil {
		return nil, xerrors.Errorf(": %w", err)
	}
	return proc, nil
}

// inAddr formats the _IN_ADDR at address.
func (d *Decoder) inAddr(address uint64, family uint16) entity.Field[string] {
	length := convert.AddrLength(family)
	if length == 0 {
		return entity.Unreadable[string]()
	}
	b, err := d.layer.Read(address, length)
	if err != nil {
		return entity.Unreadable[string]()
	}
	s, err := convert.InetNtop(family, b)
	if err != nil {
		return entity.Unreadable[string]()
	}
	return entity.Present(s)
}

// localAddress follows a _LOCAL_ADDRESS at address down to its _IN_ADDR. A
// null pointer anywhere on the way means the socket is not bound.
func (d *Decoder) localAddress(record *valueobject.ClassifiedRecord, address uint64, family uint16) entity.Field[string] {
	if address == 0 {
		return entity.Absent[string]()
	}
	width := record.Layout.PointerWidth()
	local := record.Layout.LocalAddress[record.Kind]

	ptr, err := d.pointer(address+uint64(local.PData), width)
	if err != nil {
		return entity.Unreadable[string]()
	}
	for i := 1; i < local.Indirection && ptr != 0; i++ {
		ptr, err = d.pointer(ptr, width)
		if err != nil {
			return entity.Unreadable[string]()
		}
	}
	if ptr == 0 {
		return entity.Absent[string]()
	}
	return d.inAddr(ptr, family)
}

// LocalAddress decodes the local address of the record. The result is Absent
// for a socket bound to every address of its family.
func (d *Decoder) LocalAddress(record *valueobject.ClassifiedRecord, family uint16) entity.Field[string] {
	if record.Kind == entity.TCPEndpoint {
		return d.endpointLocalAddress(record, family)
	}
	address, err := d.Uint(record, entity.FieldLocalAddr)
	if err != nil {
		return entity.Unreadable[string]()
	}
	return d.localAddress(record, address, family)
}

func (d *Decoder) addrInfo(record *valueobject.ClassifiedRecord, offset int) (uint64, error) {
	addrInfo, err := d.Uint(record, entity.FieldAddrInfo)
	if err != nil {
		return 0, xerrors.Errorf("failed to read AddrInfo: %w", err)
	}
	if addrInfo == 0 {
		return 0, xerrors.Errorf("null AddrInfo: %w", memory.ErrUnmappable)
	}
	return d.pointer(addrInfo+uint64(offset), record.Layout.PointerWidth())
}

// endpointLocalAddress follows AddrInfo.Local. Endpoints are always bound, so
// a broken chain is unreadable rather than a wildcard.
func (d *Decoder) endpointLocalAddress(record *valueobject.ClassifiedRecord, family uint16) entity.Field[string] {
	local, err := d.addrInfo(record, record.Layout.AddrInfoLocal)
	if err != nil {
		return entity.Unreadable[string]()
	}
	addr := d.localAddress(record, local, family)
	if !addr.IsPresent() {
		return entity.Unreadable[string]()
	}
	return addr
}

// RemoteAddress follows AddrInfo.Remote of a TCP endpoint.
func (d *Decoder) RemoteAddress(record *valueobject.ClassifiedRecord, family uint16) entity.Field[string] {
	remote, err := d.addrInfo(record, record.Layout.AddrInfoRemote)
	if err != nil || remote == 0 {
		return entity.Unreadable[string]()
	}
	return d.inAddr(remote, family)
}

// State returns the raw TCB state of a TCP endpoint.
func (d *Decoder) State(record *valueobject.ClassifiedRecord) (uint32, error) {
	v, err := d.Uint(record, entity.FieldState)
	return uint32(v), err
}

// Port decodes a port field.
func (d *Decoder) Port(record *valueobject.ClassifiedRecord, name string) (uint16, error) {
	v, err := d.Uint(record, name)
	if err != nil {
		return 0, xerrors.Errorf("failed to read %s: %w", name, err)
	}
	return uint16(v), nil
}

// CreatedAt decodes CreateTime. Layouts without the field and zero timestamps
// are Absent, timestamps outside the plausible window are Unreadable.
func (d *Decoder) CreatedAt(record *valueobject.ClassifiedRecord) entity.Field[time.Time] {
	v, err := d.Uint(record, entity.FieldCreateTime)
	if err != nil {
		if xerrors.Is(err, ErrFieldMissing) {
			return entity.Absent[time.Time]()
		}
		return entity.Unreadable[time.Time]()
	}
	t, ok := convert.WinTimeToTime(v)
	if !ok {
		return entity.Absent[time.Time]()
	}
	if !convert.PlausibleTime(t) {
		return entity.Unreadable[time.Time]()
	}
	return entity.Present(t)
}
