package classify

import (
	"netscan/domain/entity"
	"netscan/domain/valueobject"
	"netscan/infrastructure/log"
)

// order in which shapes are tested against a candidate.
var order = []entity.RecordKind{entity.UDPEndpoint, entity.TCPEndpoint, entity.TCPListener}

type Classifier struct {
	layout *entity.StructLayout
	logger log.Logger
}

func NewClassifier(layout *entity.StructLayout, logger log.Logger) *Classifier {
	return &Classifier{
		layout: layout,
		logger: logger,
	}
}

// Classify decides which network object kind the candidate holds. The first
// kind whose tag matches and whose structure fits in the raw bytes wins;
// otherwise the record is Unknown.
func (c *Classifier) Classify(candidate *valueobject.Candidate) *valueobject.ClassifiedRecord {
	record := &valueobject.ClassifiedRecord{
		Kind:   entity.UnknownKind,
		Offset: candidate.Offset,
		Raw:    candidate.Raw,
		Layout: c.layout,
	}

	tag := ""
	if candidate.Constraint != nil {
		tag = candidate.Constraint.TagString()
	}
	for _, kind := range order {
		if c.matches(kind, tag, candidate.Raw) {
			record.Kind = kind
			return record
		}
	}

	c.logger.Debugf("unknown object at 0x%x with tag %q and size %d", candidate.Offset, tag, len(candidate.Raw))
	return record
}

func (c *Classifier) matches(kind entity.RecordKind, tag string, raw []byte) bool {
	kindLayout := c.layout.Kind(kind)
	if kindLayout == nil {
		return false
	}
	return c.layout.HasTag(kind, tag) && len(raw) >= kindLayout.Size
}
