package texture

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/HugoSmits86/nativewebp"
	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
)

// LoadTexture reads an image file (PNG, JPEG, BMP or TGA, by registered
// decoder) and converts it to a 4-channel Sampler with values in [0,1].
func LoadTexture(path string) (*Sampler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texture: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	return FromImage(img), nil
}

// FromImage converts an arbitrary image.Image to a 4-channel (R,G,B,A)
// Sampler with values in [0,1], going through NRGBA via image/draw so
// formats with indexed or non-alpha color models convert uniformly.
func FromImage(img image.Image) *Sampler {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	s := New(w, h, 4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := nrgba.PixOffset(x, y)
			px := nrgba.Pix[o : o+4]
			dst := s.At(x, y)
			for k := 0; k < 4; k++ {
				dst[k] = float64(px[k]) / 255
			}
		}
	}
	return s
}

// ToImage renders a Sampler back to an image.NRGBA, clamping channel
// values to [0,1] before scaling to 8 bits. A 1-channel Sampler is written
// as gray (its channel copied into R, G and B); otherwise channels map to
// R, G, B, A in order and missing color channels are 0. Alpha is 1 unless
// the Sampler has a fourth channel.
func (s *Sampler) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			src := s.At(x, y)
			var rgba [4]float64
			rgba[3] = 1
			for k := 0; k < 4 && k < s.Channels; k++ {
				rgba[k] = src[k]
			}
			if s.Channels == 1 {
				rgba[1], rgba[2] = rgba[0], rgba[0]
			}
			o := img.PixOffset(x, y)
			for k := 0; k < 4; k++ {
				v := rgba[k]
				if v < 0 {
					v = 0
				}
				if v > 1 {
					v = 1
				}
				img.Pix[o+k] = uint8(v * 255)
			}
		}
	}
	return img
}

// SavePNG writes the Sampler to path as a PNG.
func (s *Sampler) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("texture: create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, s.ToImage()); err != nil {
		return fmt.Errorf("texture: png encode %s: %w", path, err)
	}
	return nil
}

// SaveJPEG writes the Sampler to path as a JPEG at the given quality.
func (s *Sampler) SaveJPEG(path string, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("texture: create %s: %w", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, s.ToImage(), &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("texture: jpeg encode %s: %w", path, err)
	}
	return nil
}

// SaveWebP writes the Sampler to path as a lossless WebP image.
func (s *Sampler) SaveWebP(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("texture: create %s: %w", path, err)
	}
	defer f.Close()
	if err := nativewebp.Encode(f, s.ToImage(), nil); err != nil {
		return fmt.Errorf("texture: webp encode %s: %w", path, err)
	}
	return nil
}
