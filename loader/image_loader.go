// Package loader decodes external assets into raw blobs for the renderer.
// The render core treats it as an opaque producer.
package loader

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// ImageLoadData is a decoded image as tightly packed RGBA8.
type ImageLoadData struct {
	Buffer []byte
	Width  uint32
	Height uint32
}

// GetRowPitch is the byte size of one row.
func (d *ImageLoadData) GetRowPitch() uint64 { return uint64(d.Width) * 4 }

// GetSlicePitch is the byte size of the whole image.
func (d *ImageLoadData) GetSlicePitch() uint64 { return uint64(d.Width) * uint64(d.Height) * 4 }

// LoadImageFile decodes a PNG or JPEG file into RGBA8.
func LoadImageFile(path string) (*ImageLoadData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	decoded, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return convertToRGBA(decoded), nil
}

// LoadImageFileResized decodes and rescales to width x height.
func LoadImageFileResized(path string, width, height uint32) (*ImageLoadData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	decoded, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	draw.BiLinear.Scale(dst, dst.Bounds(), decoded, decoded.Bounds(), draw.Src, nil)
	return rgbaToLoadData(dst), nil
}

func convertToRGBA(src image.Image) *ImageLoadData {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Stride == rgba.Bounds().Dx()*4 {
		return rgbaToLoadData(rgba)
	}
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return rgbaToLoadData(dst)
}

func rgbaToLoadData(img *image.RGBA) *ImageLoadData {
	return &ImageLoadData{
		Buffer: img.Pix,
		Width:  uint32(img.Bounds().Dx()),
		Height: uint32(img.Bounds().Dy()),
	}
}
