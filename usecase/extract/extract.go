package extract

import (
	"netscan/constant"
	"netscan/domain/entity"
	"netscan/domain/valueobject"
	"netscan/infrastructure/log"
	"netscan/pkg/convert"
	"netscan/usecase/decode"
)

type Extractor struct {
	decoder *decode.Decoder
	logger  log.Logger
}

func NewExtractor(decoder *decode.Decoder, logger log.Logger) *Extractor {
	return &Extractor{
		decoder: decoder,
		logger:  logger,
	}
}

// Extract turns a classified record into one or two network records. Unknown
// records yield nothing.
func (e *Extractor) Extract(record *valueobject.ClassifiedRecord) []*entity.NetworkRecord {
	switch record.Kind {
	case entity.UDPEndpoint:
		return e.extractUDP(record)
	case entity.TCPEndpoint:
		return []*entity.NetworkRecord{e.extractEndpoint(record)}
	case entity.TCPListener:
		return e.extractListener(record)
	}
	return nil
}

// base fills the fields every kind shares.
func (e *Extractor) base(record *valueobject.ClassifiedRecord) *entity.NetworkRecord {
	r := &entity.NetworkRecord{
		Offset:    record.Offset,
		CreatedAt: e.decoder.CreatedAt(record),
	}
	proc, err := e.decoder.Owner(record)
	switch {
	case err != nil:
		e.logger.Debugf("unreadable owner of %s at 0x%x: %+v", record.Kind, record.Offset, err)
		r.OwnerPID = entity.Unreadable[uint64]()
		r.OwnerName = entity.Unreadable[string]()
	case proc == nil:
		r.OwnerPID = entity.Absent[uint64]()
		r.OwnerName = entity.Absent[string]()
	default:
		r.OwnerPID = entity.Present(proc.Pid)
		r.OwnerName = entity.Present(proc.ImageFileName)
	}
	return r
}

func (e *Extractor) family(record *valueobject.ClassifiedRecord) uint16 {
	family, err := e.decoder.AddressFamily(record)
	if err != nil {
		e.logger.Debugf("unreadable address family of %s at 0x%x: %+v", record.Kind, record.Offset, err)
		return 0
	}
	return family
}

// port has no unreadable form in a record, so a failed read shows as 0 and
// is logged.
func (e *Extractor) port(record *valueobject.ClassifiedRecord, name string) uint16 {
	port, err := e.decoder.Port(record, name)
	if err != nil {
		e.logger.Debugf("unreadable %s of %s at 0x%x: %+v", name, record.Kind, record.Offset, err)
	}
	return port
}

func (e *Extractor) extractEndpoint(record *valueobject.ClassifiedRecord) *entity.NetworkRecord {
	r := e.base(record)
	family := e.family(record)
	r.Protocol = entity.Protocol("TCP" + convert.IPVersionToString(family))
	r.LocalAddr = e.decoder.LocalAddress(record, family)
	r.RemoteAddr = e.decoder.RemoteAddress(record, family)
	r.LocalPort = e.port(record, entity.FieldLocalPort)
	r.RemotePort = e.port(record, entity.FieldRemotePort)

	r.State = entity.Unreadable[string]()
	if state, err := e.decoder.State(record); err == nil {
		if name, ok := constant.TCPStates[state]; ok {
			r.State = entity.Present(name)
		}
	}
	return r
}

func (e *Extractor) extractListener(record *valueobject.ClassifiedRecord) []*entity.NetworkRecord {
	records := e.dualStack(record, "TCP")
	for _, r := range records {
		r.State = entity.Present(constant.ListeningState)
	}
	return records
}

func (e *Extractor) extractUDP(record *valueobject.ClassifiedRecord) []*entity.NetworkRecord {
	records := e.dualStack(record, "UDP")
	for _, r := range records {
		r.State = entity.Present("")
		r.RemoteAddr = entity.Present(constant.WildcardRemote)
	}
	return records
}

// dualStack expands a listening socket. A socket not bound to an address
// listens on every IPv4 address, and on every IPv6 address too when its family
// is AF_INET6.
func (e *Extractor) dualStack(record *valueobject.ClassifiedRecord, proto string) []*entity.NetworkRecord {
	family := e.family(record)
	port := e.port(record, entity.FieldPort)
	local := e.decoder.LocalAddress(record, family)
	shared := e.base(record)

	newRecord := func(family uint16, localAddr entity.Field[string]) *entity.NetworkRecord {
		r := *shared
		r.Protocol = entity.Protocol(proto + convert.IPVersionToString(family))
		r.LocalAddr = localAddr
		r.LocalPort = port
		r.RemoteAddr = entity.Present(wildcard(family))
		return &r
	}

	switch local.Status() {
	case entity.StatusPresent, entity.StatusUnreadable:
		r := newRecord(family, local)
		if convert.AddrLength(family) == 0 {
			r.RemoteAddr = entity.Unreadable[string]()
		}
		return []*entity.NetworkRecord{r}
	}

	records := []*entity.NetworkRecord{newRecord(constant.AFInet, entity.Present(constant.InaddrAny))}
	if family == constant.AFInet6 {
		records = append(records, newRecord(constant.AFInet6, entity.Present(constant.Inaddr6Any)))
	}
	return records
}

func wildcard(family uint16) string {
	if family == constant.AFInet6 {
		return constant.Inaddr6Any
	}
	return constant.InaddrAny
}
