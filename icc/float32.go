//go:build !iccfloat64

package icc

// Float is the type of all pixel, sample and coefficient values. Build with
// the iccfloat64 tag to use double precision.
type Float = float32
