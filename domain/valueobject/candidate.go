package valueobject

import (
	"fmt"

	"netscan/domain/entity"
)

// Candidate is a byte region yielded by the pool scanner. Offset is the
// virtual address of the object body.
type Candidate struct {
	Offset     uint64
	Raw        []byte
	Constraint *entity.PoolConstraint
}

func (c *Candidate) String() string {
	return fmt.Sprintf("{Offset: 0x%x Size: %d Constraint: %s}", c.Offset, len(c.Raw), c.Constraint)
}

// ClassifiedRecord is a candidate viewed through the layout of exactly one kind.
type ClassifiedRecord struct {
	Kind   entity.RecordKind
	Offset uint64
	Raw    []byte
	Layout *entity.StructLayout
}

// KindLayout returns the layout of the record's own kind, nil for unknown records.
func (r *ClassifiedRecord) KindLayout() *entity.KindLayout {
	if r.Layout == nil {
		return nil
	}
	return r.Layout.Kind(r.Kind)
}

func (r *ClassifiedRecord) String() string {
	return fmt.Sprintf("{Kind: %s Offset: 0x%x}", r.Kind, r.Offset)
}
