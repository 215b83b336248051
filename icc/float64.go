//go:build iccfloat64

package icc

// Float is the type of all pixel, sample and coefficient values.
type Float = float64
