package validate

import (
	"netscan/constant"
	"netscan/domain/entity"
	"netscan/domain/valueobject"
	"netscan/infrastructure/log"
	"netscan/usecase/decode"
)

// Validator filters classified records that are unlikely to be live objects.
// With includeCorrupt set every record passes.
type Validator struct {
	includeCorrupt bool
	decoder        *decode.Decoder
	logger         log.Logger
}

func New(includeCorrupt bool, decoder *decode.Decoder, logger log.Logger) *Validator {
	return &Validator{
		includeCorrupt: includeCorrupt,
		decoder:        decoder,
		logger:         logger,
	}
}

func (v *Validator) IsValid(record *valueobject.ClassifiedRecord) bool {
	if v.includeCorrupt {
		return true
	}
	if reason := v.reject(record); reason != "" {
		v.logger.Debugf("invalid %s at 0x%x: %s", record.Kind, record.Offset, reason)
		return false
	}
	return true
}

// reject returns why record is invalid, or "" for a valid record.
func (v *Validator) reject(record *valueobject.ClassifiedRecord) string {
	if record.Kind == entity.UnknownKind || record.KindLayout() == nil {
		return "unknown kind"
	}

	if record.Kind == entity.TCPEndpoint {
		state, err := v.decoder.State(record)
		if err != nil {
			return "unreadable tcp state"
		}
		if _, ok := constant.TCPStates[state]; !ok {
			return "invalid tcp state"
		}
	}

	family, err := v.decoder.AddressFamily(record)
	if err != nil {
		return "unreadable address family"
	}
	if family != constant.AFInet && family != constant.AFInet6 {
		return "invalid address family"
	}

	owner, err := v.decoder.OwnerAddress(record)
	if err != nil || owner == 0 {
		return "no owner"
	}

	if record.Kind == entity.TCPEndpoint && !v.decoder.LocalAddress(record, family).IsPresent() {
		proc, err := v.decoder.Owner(record)
		if err != nil || proc == nil || proc.Pid == 0 || proc.Pid > constant.MaxEndpointPID {
			return "invalid owner data"
		}
	}
	return ""
}
