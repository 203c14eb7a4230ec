package session

// Handle is an opaque 64-bit session identifier handed across the boundary
// instead of a raw pointer: the table slot index lives in the low 32 bits and
// a per-slot generation counter in the high 32 bits. A released slot bumps its
// generation, so a stale handle can never resolve to a recycled session.
type Handle uint64

// NilHandle is the failure sentinel returned by Create. Generations start at
// one, so no live handle ever equals it.
const NilHandle Handle = 0

func makeHandle(slot, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(slot))
}

func (h Handle) slot() uint32 { return uint32(h) }

func (h Handle) generation() uint32 { return uint32(h >> 32) }

// IsNil reports whether h is the failure sentinel.
func (h Handle) IsNil() bool { return h == NilHandle }
