// Package texture implements bilinear sampling of a multi-channel image
// buffer, paired with a reverse-mode adjoint, plus optional codecs for
// loading and saving that buffer from/to common image formats.
package texture

import "math"

// WrapMode selects how out-of-range sample coordinates are resolved.
type WrapMode int

const (
	// WrapClamp projects the sample point to the nearest edge texel. This
	// is the only mode the core rasterizer ever relies on (spec.md S5).
	WrapClamp WrapMode = iota
	// WrapRepeat periodizes the sample point, wrapping it back into range.
	WrapRepeat
)

// Sampler is a (Height x Width x Channels) array of doubles addressed in
// row-major order: Data[(y*Width+x)*Channels+k]. Width/Height are kept
// independent of Channels so the same sampling code serves any channel
// count, matching the original's Texture_size/nb_colors split.
type Sampler struct {
	Width, Height, Channels int
	Data                    []float64
	Wrap                    WrapMode
}

// New allocates a Sampler backed by a zeroed buffer.
func New(width, height, channels int) *Sampler {
	return &Sampler{
		Width:    width,
		Height:   height,
		Channels: channels,
		Data:     make([]float64, width*height*channels),
	}
}

// At returns the channel values at integer texel (x,y).
func (s *Sampler) At(x, y int) []float64 {
	o := (y*s.Width + x) * s.Channels
	return s.Data[o : o+s.Channels]
}

// resolve computes the clamped/wrapped lower-left texel and fractional
// offset for a single axis, exactly as bilinear_sample's per-axis branch.
func resolve(p float64, size int, wrap WrapMode) (fp int, e float64) {
	f := math.Floor(p)
	fp = int(f)
	e = p - f
	switch wrap {
	case WrapRepeat:
		fp = ((fp % size) + size) % size
		if fp > size-2 {
			// size-1 wraps to texel 0 for the +1 sample; approximate by
			// pinning the fractional sample at the last valid pair.
			fp = size - 2
			if fp < 0 {
				fp = 0
			}
		}
	default:
		if fp < 0 {
			fp, e = 0, 0
		}
		if fp > size-2 {
			fp, e = size-2, 1
		}
	}
	return fp, e
}

// Sample returns the bilinearly-interpolated channel values at real-valued
// coordinate p = (x,y), clamping (or wrapping) the lower-left texel to
// [0, size-2] so both corner samples stay in bounds.
func (s *Sampler) Sample(px, py float64) []float64 {
	fx, ex := resolve(px, s.Width, s.Wrap)
	fy, ey := resolve(py, s.Height, s.Wrap)

	i00 := s.Channels * (fx + s.Width*fy)
	i10 := s.Channels * (fx + 1 + s.Width*fy)
	i01 := s.Channels * (fx + s.Width*(fy+1))
	i11 := s.Channels * (fx + 1 + s.Width*(fy+1))

	out := make([]float64, s.Channels)
	for k := 0; k < s.Channels; k++ {
		t1 := (1-ex)*s.Data[i00+k] + ex*s.Data[i10+k]
		t2 := (1-ex)*s.Data[i01+k] + ex*s.Data[i11+k]
		out[k] = t1*(1-ey) + t2*ey
	}
	return out
}

// SampleAdjoint accumulates into dataAdj (same shape as s.Data) and into
// pAdj the adjoints of the texture and the sample point, given the sample
// point and the adjoint of Sample's output. Samples resolved against a
// clamped axis do not backpropagate into that axis of pAdj, matching the
// original's `out[k]` gate.
func (s *Sampler) SampleAdjoint(px, py float64, outAdj []float64, dataAdj []float64, pAdj *[2]float64) {
	fx0, ex := resolve(px, s.Width, s.Wrap)
	fy0, ey := resolve(py, s.Height, s.Wrap)
	clampedX := s.Wrap == WrapClamp && (math.Floor(px) < 0 || math.Floor(px) > float64(s.Width-2))
	clampedY := s.Wrap == WrapClamp && (math.Floor(py) < 0 || math.Floor(py) > float64(s.Height-2))

	i00 := s.Channels * (fx0 + s.Width*fy0)
	i10 := s.Channels * (fx0 + 1 + s.Width*fy0)
	i01 := s.Channels * (fx0 + s.Width*(fy0+1))
	i11 := s.Channels * (fx0 + 1 + s.Width*(fy0+1))

	var exAdj, eyAdj float64
	for k := 0; k < s.Channels; k++ {
		t1 := (1-ex)*s.Data[i00+k] + ex*s.Data[i10+k]
		t2 := (1-ex)*s.Data[i01+k] + ex*s.Data[i11+k]

		eyAdj += -outAdj[k] * t1
		eyAdj += outAdj[k] * t2

		t1Adj := outAdj[k] * (1 - ey)
		t2Adj := outAdj[k] * ey

		exAdj += t1Adj * (s.Data[i10+k] - s.Data[i00+k])
		exAdj += t2Adj * (s.Data[i11+k] - s.Data[i01+k])

		dataAdj[i00+k] += (1 - ex) * (1 - ey) * outAdj[k]
		dataAdj[i10+k] += ex * (1 - ey) * outAdj[k]
		dataAdj[i01+k] += (1 - ex) * ey * outAdj[k]
		dataAdj[i11+k] += ex * ey * outAdj[k]
	}
	if !clampedX {
		pAdj[0] += exAdj
	}
	if !clampedY {
		pAdj[1] += eyAdj
	}
}
