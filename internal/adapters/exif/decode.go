package exif

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
)

func decodeConfig(r io.Reader) (image.Config, string, error) {
	return image.DecodeConfig(r)
}
