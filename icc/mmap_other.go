//go:build !unix

package icc

import (
	"os"
)

func map_file(path string) (data []byte, release func() error, err error) {
	if data, err = os.ReadFile(path); err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
