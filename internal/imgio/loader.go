// Package imgio loads raster images from disk into GoCV Mats.
package imgio

import (
	"errors"
	"fmt"
	"os"

	"gocv.io/x/gocv"
)

// ErrDecode is returned when a file exists but its contents do not decode
// to a raster image.
var ErrDecode = errors.New("not a decodable image")

// Load reads and decodes the image at path into a BGR Mat.
//
// The file is read into memory first and decoded from the byte buffer.
// Decoding from bytes instead of handing the path to OpenCV sidesteps
// path-encoding problems with non-ASCII directory names.
// The returned Mat is owned by the caller and must be closed.
func Load(path string) (gocv.Mat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("read image %s: %w", path, err)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode image %s: %w", path, err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, fmt.Errorf("decode image %s: %w", path, ErrDecode)
	}

	return mat, nil
}
