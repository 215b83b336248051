// Package meta finds the ICC profiles embedded in image files.
package meta

import (
	"fmt"
	"sync"

	"github.com/kovidgoyal/iccmm/icc"
)

var _ = fmt.Println

// Data is the metadata of an image that matters for color management.
type Data struct {
	Format           Format
	PixelWidth       uint32
	PixelHeight      uint32
	BitsPerComponent uint32
	CICP             CodingIndependentCodePoints

	mutex       sync.Mutex
	icc_data    []byte
	icc_err     error
	icc_profile *icc.Profile
}

// ICCProfile parses the embedded ICC profile, once. If no profile data was
// found nil is returned without an error.
func (md *Data) ICCProfile(opts ...icc.ReadOption) (*icc.Profile, error) {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	if md.icc_err != nil {
		return nil, md.icc_err
	}
	if md.icc_profile != nil || len(md.icc_data) == 0 {
		return md.icc_profile, nil
	}
	md.icc_profile, md.icc_err = icc.ReadProfile(md.icc_data, opts...)
	return md.icc_profile, md.icc_err
}

// ICCProfileData returns the raw embedded profile, or the error that
// prevented extracting it.
func (md *Data) ICCProfileData() ([]byte, error) {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	return md.icc_data, md.icc_err
}

func (md *Data) SetICCProfileData(data []byte) {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	md.icc_data = data
	md.icc_err = nil
	md.icc_profile = nil
}

func (md *Data) SetICCProfileError(err error) {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	md.icc_data = nil
	md.icc_profile = nil
	md.icc_err = err
}

// Profile returns the profile describing the image colors: the embedded ICC
// profile if any, else the one implied by the CICP values. It returns nil
// when the image carries no color information, callers usually assume sRGB.
func (md *Data) Profile(opts ...icc.ReadOption) (*icc.Profile, error) {
	p, err := md.ICCProfile(opts...)
	if p != nil || err != nil {
		return p, err
	}
	if wk := md.CICP.WellKnownProfile(); wk != icc.UnknownProfile {
		return wk.NewProfile()
	}
	return nil, nil
}
