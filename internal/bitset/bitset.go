// Package bitset implements a fixed-capacity bit array used to
// represent vertex sets: candidate domains during search and the
// precomputed adjacency rows of the model. Bit n set means vertex n
// is in the set.
package bitset

import (
	mb "math/bits"
	"strconv"
	"strings"
)

const wordBits = 64

// Bits holds a fixed number of bits over a []uint64 backing array.
// Bit 0 is the LSB of word 0. Bits beyond Num in the last word are
// always kept zero, so word-wise operations need no masking.
type Bits struct {
	Num   int
	Words []uint64
}

// New returns a Bits value with capacity for num bits, all zero.
func New(num int) Bits {
	if num < 0 {
		panic("bitset: negative size")
	}
	return Bits{Num: num, Words: make([]uint64, (num+wordBits-1)/wordBits)}
}

// NewGivens returns a Bits of capacity num with the listed bits set.
func NewGivens(num int, nums ...int) Bits {
	b := New(num)
	for _, n := range nums {
		b.SetBit(n)
	}
	return b
}

// Clone returns an independent copy of b.
func (b Bits) Clone() Bits {
	w := make([]uint64, len(b.Words))
	copy(w, b.Words)
	return Bits{Num: b.Num, Words: w}
}

// CopyFrom overwrites b's contents with those of o. The two must have
// the same capacity.
func (b Bits) CopyFrom(o Bits) {
	copy(b.Words, o.Words)
}

// SetBit sets bit n to 1.
func (b Bits) SetBit(n int) {
	b.Words[n/wordBits] |= 1 << uint(n%wordBits)
}

// ClearBit sets bit n to 0.
func (b Bits) ClearBit(n int) {
	b.Words[n/wordBits] &^= 1 << uint(n%wordBits)
}

// Bit reports whether bit n is set.
func (b Bits) Bit(n int) bool {
	return b.Words[n/wordBits]&(1<<uint(n%wordBits)) != 0
}

// SetAll sets every bit in [0, Num).
func (b Bits) SetAll() {
	for i := range b.Words {
		b.Words[i] = ^uint64(0)
	}
	b.clearTail()
}

// ClearAll zeroes every bit.
func (b Bits) ClearAll() {
	for i := range b.Words {
		b.Words[i] = 0
	}
}

// And intersects b with o in place.
func (b Bits) And(o Bits) {
	for i := range b.Words {
		b.Words[i] &= o.Words[i]
	}
}

// AndNot intersects b with the complement of o in place.
func (b Bits) AndNot(o Bits) {
	for i := range b.Words {
		b.Words[i] &^= o.Words[i]
	}
}

// Or unions o into b in place.
func (b Bits) Or(o Bits) {
	for i := range b.Words {
		b.Words[i] |= o.Words[i]
	}
}

// OnesCount returns the number of set bits.
func (b Bits) OnesCount() (c int) {
	for _, w := range b.Words {
		c += mb.OnesCount64(w)
	}
	return c
}

// Any reports whether at least one bit is set.
func (b Bits) Any() bool {
	for _, w := range b.Words {
		if w != 0 {
			return true
		}
	}
	return false
}

// Empty reports whether no bit is set.
func (b Bits) Empty() bool {
	return !b.Any()
}

// FirstOne returns the lowest set bit, or -1 if the set is empty.
func (b Bits) FirstOne() int {
	for i, w := range b.Words {
		if w != 0 {
			return i*wordBits + mb.TrailingZeros64(w)
		}
	}
	return -1
}

// LastOne returns the highest set bit, or -1 if the set is empty.
// Equivalent to repeated FirstOne extraction, but a single scan.
func (b Bits) LastOne() int {
	for i := len(b.Words) - 1; i >= 0; i-- {
		if w := b.Words[i]; w != 0 {
			return i*wordBits + wordBits - 1 - mb.LeadingZeros64(w)
		}
	}
	return -1
}

// IterateOnes calls v for each set bit in ascending order until v
// returns false. It reports whether the iteration ran to completion.
func (b Bits) IterateOnes(v func(int) bool) bool {
	for i, w := range b.Words {
		for w != 0 {
			n := i*wordBits + mb.TrailingZeros64(w)
			if !v(n) {
				return false
			}
			w &= w - 1
		}
	}
	return true
}

// Slice returns the set bits in ascending order.
func (b Bits) Slice() []int {
	s := make([]int, 0, b.OnesCount())
	b.IterateOnes(func(n int) bool {
		s = append(s, n)
		return true
	})
	return s
}

// Equal reports whether b and o hold the same set.
func (b Bits) Equal(o Bits) bool {
	if b.Num != o.Num {
		return false
	}
	for i := range b.Words {
		if b.Words[i] != o.Words[i] {
			return false
		}
	}
	return true
}

// String renders the set as {a, b, c} for debugging.
func (b Bits) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	b.IterateOnes(func(n int) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(strconv.Itoa(n))
		return true
	})
	sb.WriteByte('}')
	return sb.String()
}

func (b Bits) clearTail() {
	if b.Num%wordBits != 0 && len(b.Words) > 0 {
		b.Words[len(b.Words)-1] &= (1 << uint(b.Num%wordBits)) - 1
	}
}
