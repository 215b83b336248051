package icc

import (
	"fmt"
	"math"
)

var _ = fmt.Print

func IfElse[T any](condition bool, if_val T, else_val T) T {
	if condition {
		return if_val
	}
	return else_val
}

// UnitClip clamps v to [0, 1]. NaN becomes 0.
func UnitClip(v Float) Float {
	switch {
	case !(v >= 0):
		return 0
	case v > 1:
		return 1
	}
	return v
}

// IsUnity reports whether v is within the tolerance used for identity
// detection of 1.
func IsUnity(v Float) bool {
	return v > 0.99999 && v < 1.00001
}

func align_to_4(x int) int {
	if extra := x % 4; extra > 0 {
		x += 4 - extra
	}
	return x
}

func pow(x, y Float) Float {
	return Float(math.Pow(float64(x), float64(y)))
}

func cbrt(x Float) Float { return Float(math.Cbrt(float64(x))) }

// fixed_string decodes a NUL padded fixed width ASCII field.
func fixed_string(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// put_fixed_string encodes s into a NUL padded field of width n, truncating
// so that at least one NUL terminator remains.
func put_fixed_string(s string, n int) []byte {
	ans := make([]byte, n)
	copy(ans[:n-1], s)
	return ans
}
