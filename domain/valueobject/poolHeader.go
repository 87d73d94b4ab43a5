package valueobject

// PoolHeader32 is the 8-byte _POOL_HEADER of 32-bit kernels.
// Bits: PreviousSize:9 PoolIndex:7 BlockSize:9 PoolType:7.
type PoolHeader32 struct {
	Ulong1  uint32
	PoolTag [4]byte
}

func (h *PoolHeader32) BlockSize() int {
	return int((h.Ulong1 >> 16) & 0x1FF)
}

func (h *PoolHeader32) PoolType() int {
	return int(h.Ulong1 >> 25)
}

// PoolHeader64 is the 16-byte _POOL_HEADER of 64-bit kernels.
// Bits: PreviousSize:8 PoolIndex:8 BlockSize:8 PoolType:8.
type PoolHeader64 struct {
	Ulong1        uint32
	PoolTag       [4]byte
	ProcessBilled uint64
}

func (h *PoolHeader64) BlockSize() int {
	return int((h.Ulong1 >> 16) & 0xFF)
}

func (h *PoolHeader64) PoolType() int {
	return int(h.Ulong1 >> 24)
}

func (h *PoolHeader32) Tag() string {
	return string(h.PoolTag[:])
}

func (h *PoolHeader64) Tag() string {
	return string(h.PoolTag[:])
}

// PoolHeader is implemented by both header layouts.
type PoolHeader interface {
	BlockSize() int
	PoolType() int
	Tag() string
}
