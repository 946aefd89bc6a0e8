package kernel

import "strings"

// Flags selects which partial derivatives a kernel call computes.
// Bit i set means "compute the gradient for operand i".
type Flags uint64

// FlagsOf builds a Flags value from per-operand booleans, in operand order.
func FlagsOf(want ...bool) Flags {
	var f Flags
	for i, w := range want {
		if w {
			f = f.With(i)
		}
	}
	return f
}

// Has reports whether the gradient for operand i is requested.
func (f Flags) Has(i int) bool {
	return i >= 0 && i < 64 && f&(1<<uint(i)) != 0
}

// With returns f with operand i requested.
func (f Flags) With(i int) Flags {
	if i < 0 || i >= 64 {
		return f
	}
	return f | 1<<uint(i)
}

// Any reports whether any gradient is requested.
func (f Flags) Any() bool {
	return f != 0
}

// String renders the low n bits as e.g. "10" (operand 0 wanted, operand 1 not).
func (f Flags) String() string {
	n := 0
	for i := 0; i < 64; i++ {
		if f.Has(i) {
			n = i + 1
		}
	}
	if n < 2 {
		n = 2
	}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if f.Has(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
