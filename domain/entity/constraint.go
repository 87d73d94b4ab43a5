package entity

import "fmt"

// PoolType is a bitset of the pool regions a constraint accepts.
type PoolType uint8

const (
	PoolPaged PoolType = 1 << iota
	PoolNonPaged
	PoolFree
)

func (p PoolType) Has(flag PoolType) bool {
	return p&flag != 0
}

// PoolConstraint describes the allocations the scanner should yield for one record kind.
// There is no upper size bound, pool slack makes larger allocations legal.
type PoolConstraint struct {
	Tag       [4]byte
	TypeName  string
	Kind      RecordKind
	MinSize   int
	PoolFlags PoolType
}

func (c *PoolConstraint) TagString() string {
	return string(c.Tag[:])
}

func (c *PoolConstraint) String() string {
	return fmt.Sprintf("{Tag: %s TypeName: %s MinSize: %d PoolFlags: %d}", c.TagString(), c.TypeName, c.MinSize, c.PoolFlags)
}
