/*
Package iccmm is a color management engine for ICC profiles.

The profile model lives in the icc package, pixel transforms built by chaining
profiles in the cmm package. The convert package applies a transform to Go
images and meta extracts profiles embedded in image files.
*/
package iccmm

import "fmt"

type LibraryVersion struct {
	Major, Minor, Patch uint
}

func (v LibraryVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v LibraryVersion) Equal(o LibraryVersion) bool {
	return v.Major == o.Major && v.Minor == o.Minor && v.Patch == o.Patch
}

func (v LibraryVersion) After(o LibraryVersion) bool {
	switch {
	case v.Major != o.Major:
		return v.Major > o.Major
	case v.Minor != o.Minor:
		return v.Minor > o.Minor
	}
	return v.Patch > o.Patch
}

func (v LibraryVersion) Before(o LibraryVersion) bool {
	return !v.Equal(o) && !v.After(o)
}

var Version = LibraryVersion{0, 9, 0}
