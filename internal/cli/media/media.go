// Package media loads local photos selected for upload.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/webp"

	"WishBoard/internal/cli/model"
)

// ErrNotImage — файл не распознан ни одним из зарегистрированных декодеров.
var ErrNotImage = errors.New("media: not a supported image")

// LoadFile reads the photo at path and fills in its size and dimensions.
// Size limits are enforced by the caller, not here.
func LoadFile(path string) (model.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.File{}, fmt.Errorf("media: read %s: %w", path, err)
	}
	return FromBytes(filepath.Base(path), data)
}

// FromBytes wraps in-memory image data as an upload file.
func FromBytes(name string, data []byte) (model.File, error) {
	if len(data) == 0 {
		return model.File{}, fmt.Errorf("media: %s: empty image data", name)
	}
	w, h, err := decodeDimensions(bytes.NewReader(data))
	if err != nil {
		return model.File{}, fmt.Errorf("%w: %s", ErrNotImage, name)
	}
	return model.File{
		Name:   name,
		Size:   int64(len(data)),
		Width:  w,
		Height: h,
		Reader: bytes.NewReader(data),
	}, nil
}

func decodeDimensions(r io.Reader) (int, int, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}
