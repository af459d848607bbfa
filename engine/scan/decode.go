package scan

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeImage decodes a projection image of any registered format (PNG, JPEG, GIF, TIFF, BMP, WebP)
// and converts it to single-channel intensity in [0, 1].
//
// Parameters:
//   - r: the encoded image bytes
//
// Returns:
//   - Image: the decoded luma image
//   - string: the detected format name
//   - error: an error if the format is unknown or the data is corrupt
func DecodeImage(r io.Reader) (Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return Image{}, "", fmt.Errorf("decode projection: %w", err)
	}
	return toLuma(img), format, nil
}

func toLuma(img image.Image) Image {
	b := img.Bounds()
	out := Image{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    make([]float32, b.Dx()*b.Dy()),
	}

	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				out.Pix[y*out.Width+x] = float32(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y) / 0xffff
			}
		}
	case *image.Gray:
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				out.Pix[y*out.Width+x] = float32(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y) / 0xff
			}
		}
	default:
		for y := 0; y < out.Height; y++ {
			for x := 0; x < out.Width; x++ {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				out.Pix[y*out.Width+x] = float32(g.Y) / 0xffff
			}
		}
	}
	return out
}
