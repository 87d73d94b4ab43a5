package constraint

import (
	"netscan/domain/entity"
)

// Build returns one pool constraint per (kind, tag) of layout, ordered by
// kind: listeners, endpoints, then UDP endpoints.
func Build(layout *entity.StructLayout) (constraints []*entity.PoolConstraint) {
	for _, kind := range entity.RecordKinds {
		kindLayout := layout.Kind(kind)
		if kindLayout == nil {
			continue
		}
		for _, tag := range layout.Tags[kind] {
			c := &entity.PoolConstraint{
				TypeName:  kind.String(),
				Kind:      kind,
				MinSize:   kindLayout.Size,
				PoolFlags: entity.PoolNonPaged | entity.PoolFree,
			}
			copy(c.Tag[:], tag)
			constraints = append(constraints, c)
		}
	}
	return
}
