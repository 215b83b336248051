package cmm

import (
	"fmt"
)

var _ = fmt.Print

// Status is the result of building or using a CMM. Every failure returned by
// this package wraps one of these values so callers can use errors.Is.
type Status int

const (
	StatusOK Status = iota
	StatusCantOpenProfile
	StatusBadSpaceLink
	StatusInvalidProfile
	StatusBadXform
	StatusInvalidLut
	StatusProfileMissingTag
	StatusColorNotFound
	StatusIncorrectApply
	StatusBadColorEncoding
	StatusAllocErr
	StatusBadLutType
)

var status_names = [...]string{
	StatusOK:                "ok",
	StatusCantOpenProfile:   "cannot open profile",
	StatusBadSpaceLink:      "color spaces of adjacent profiles do not match",
	StatusInvalidProfile:    "invalid profile",
	StatusBadXform:          "invalid transform",
	StatusInvalidLut:        "invalid LUT",
	StatusProfileMissingTag: "profile is missing a required tag",
	StatusColorNotFound:     "color not found",
	StatusIncorrectApply:    "operation not supported in this state",
	StatusBadColorEncoding:  "unsupported color encoding",
	StatusAllocErr:          "allocation failed",
	StatusBadLutType:        "unsupported LUT type",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(status_names) {
		return status_names[s]
	}
	return fmt.Sprintf("unknown status (%d)", int(s))
}

func (s Status) Error() string { return "cmm: " + s.String() }

// wrap annotates a status with context, keeping it matchable with errors.Is.
func wrap(s Status, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), s)
}
