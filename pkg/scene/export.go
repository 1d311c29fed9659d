package scene

import "github.com/go-deodr/deodr/pkg/texture"

// imageToSampler wraps a rendered (Height, Width, NbColors) image buffer as
// a texture.Sampler so it can go through the same codec paths as a loaded
// texture, rather than duplicating PNG/WebP/JPEG encoding here.
func imageToSampler(s *Scene, image []float64) *texture.Sampler {
	return &texture.Sampler{Width: s.Width, Height: s.Height, Channels: s.NbColors, Data: image}
}

// SaveImagePNG writes a rendered image buffer (as produced by
// RenderForward) to path as a PNG.
func SaveImagePNG(s *Scene, image []float64, path string) error {
	return imageToSampler(s, image).SavePNG(path)
}

// SaveImageJPEG writes a rendered image buffer to path as a JPEG at the
// given quality.
func SaveImageJPEG(s *Scene, image []float64, path string, quality int) error {
	return imageToSampler(s, image).SaveJPEG(path, quality)
}

// SaveImageWebP writes a rendered image buffer to path as a lossless WebP
// image.
func SaveImageWebP(s *Scene, image []float64, path string) error {
	return imageToSampler(s, image).SaveWebP(path)
}
