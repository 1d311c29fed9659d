package scene

import (
	"math"
	"sort"

	"github.com/go-deodr/deodr/pkg/linalg"
	"github.com/go-deodr/deodr/pkg/raster"
	"github.com/go-deodr/deodr/pkg/texture"
)

type triangleOrder struct {
	sumDepth float64
	index    int
}

// sortedTriangles computes the painter's-algorithm draw order (furthest
// summed vertex depth first, stable on ties) and, for every triangle, the
// signed image-space area used to gate both rendering and its gradient.
// A triangle with any vertex behind the camera gets area exactly zero, so
// the area>0 test always drops its edges and, when BackfaceCulling is set,
// its interior too.
func sortedTriangles(s *Scene) ([]triangleOrder, []float64) {
	order := make([]triangleOrder, s.NbTriangles)
	area := make([]float64, s.NbTriangles)

	for k := 0; k < s.NbTriangles; k++ {
		face := s.Faces[k*3 : k*3+3]
		allFront := true
		var sum float64
		for i := 0; i < 3; i++ {
			d := s.Depths[face[i]]
			if d < 0 {
				allFront = false
			}
			sum += d
		}
		order[k] = triangleOrder{sumDepth: sum, index: k}

		if allFront {
			var ij [3][2]float64
			for i := 0; i < 3; i++ {
				ij[i][0] = s.IJ[face[i]*2+0]
				ij[i][1] = s.IJ[face[i]*2+1]
			}
			area[k] = signedArea(ij, s.Clockwise)
		} else {
			area[k] = 0
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].sumDepth > order[j].sumDepth })
	return order, area
}

func vec2Array(v []float64, idx uint32) linalg.Vec2 {
	return linalg.V2(v[idx*2+0], v[idx*2+1])
}

// gatherUV reads the UV coordinate at faceUV[idx], shifting it from the
// caller's one-based storage to the zero-based, already-texel-space
// coordinate the rasterizer samples directly (spec.md's UV convention).
// The shift happens here, at read time, rather than once over the whole
// UV buffer up front.
func gatherUV(s *Scene, faceUV []uint32, idx int) linalg.Vec2 {
	i := faceUV[idx]
	return linalg.V2(s.UV[i*2+0]-1, s.UV[i*2+1]-1)
}

// RenderForward fills image by depth-testing every triangle's interior in
// index order, then overdrawing silhouette edges back to front for
// antialiasing. zBuffer must be
// Height*Width long; it is overwritten. Use RenderForwardError instead for
// the error-buffer variant that compares against opts.Observed.
func RenderForward(s *Scene, opts Options, image, zBuffer []float64) error {
	if err := Validate(s, nil); err != nil {
		return err
	}

	copy(image, s.Background)
	for i := range zBuffer {
		zBuffer[i] = math.Inf(1)
	}

	order, area := sortedTriangles(s)
	tex := &texture.Sampler{Width: s.TextureWidth, Height: s.TextureHeight, Channels: s.NbColors, Data: s.Texture}

	for k := 0; k < s.NbTriangles; k++ {
		if area[k] <= 0 && s.BackfaceCulling {
			continue
		}
		face := s.Faces[k*3 : k*3+3]
		var ij [3]linalg.Vec2
		var depths [3]float64
		for i := 0; i < 3; i++ {
			ij[i] = vec2Array(s.IJ, face[i])
			depths[i] = s.Depths[face[i]]
		}
		st := raster.BuildTriangleStencil(ij)

		if s.Textured[k] && s.Shaded[k] {
			faceUV := s.FacesUV[k*3 : k*3+3]
			var shade [3][]float64
			var uv [3]linalg.Vec2
			for i := 0; i < 3; i++ {
				shade[i] = replicate(s.Shade[face[i]], s.NbColors)
				uv[i] = gatherUV(s, faceUV, i)
			}
			raster.RasterizeTexturedGouraud(st, depths, shade, uv, tex, zBuffer, image, s.Height, s.Width, s.NbColors)
		}
		if !s.Textured[k] {
			var colors [3][]float64
			for i := 0; i < 3; i++ {
				colors[i] = s.Colors[face[i]*uint32(s.NbColors) : face[i]*uint32(s.NbColors)+uint32(s.NbColors)]
			}
			raster.RasterizeInterpolated(st, depths, colors, zBuffer, image, s.Height, s.Width, s.NbColors)
		}
	}

	if opts.Sigma > 0 {
		for _, o := range order {
			k := o.index
			if area[k] <= 0 {
				continue
			}
			face := s.Faces[k*3 : k*3+3]
			for n := 0; n < 3; n++ {
				if !s.EdgeFlags[n+k*3] {
					continue
				}
				sub := edgeVertexOrder[n]
				var ij2 [2]linalg.Vec2
				var depths2 [2]float64
				for i := 0; i < 2; i++ {
					ij2[i] = vec2Array(s.IJ, face[sub[i]])
					depths2[i] = s.Depths[face[sub[i]]]
				}
				es := raster.BuildEdgeStencil(ij2[0], ij2[1], opts.Sigma, s.Clockwise, s.Height, s.Width)

				if s.Textured[k] && s.Shaded[k] {
					faceUV := s.FacesUV[k*3 : k*3+3]
					var shade [2][]float64
					var uv [2]linalg.Vec2
					for i := 0; i < 2; i++ {
						shade[i] = replicate(s.Shade[face[sub[i]]], s.NbColors)
						uv[i] = gatherUV(s, faceUV, sub[i])
					}
					raster.RasterizeEdgeTexturedGouraud(es, depths2, shade, uv, tex, zBuffer, image, s.Width, s.NbColors)
				} else {
					var colors [2][]float64
					for i := 0; i < 2; i++ {
						colors[i] = s.Colors[face[sub[i]]*uint32(s.NbColors) : face[sub[i]]*uint32(s.NbColors)+uint32(s.NbColors)]
					}
					raster.RasterizeEdgeInterpolated(es, depths2, colors, zBuffer, image, s.Width, s.NbColors)
				}
			}
		}
	}

	return nil
}

// RenderForwardError is RenderForward's error-buffer variant: it composites
// the interior pass into image exactly like RenderForward (the caller must
// keep this buffer to seed RenderReverseError later), then accumulates the
// squared difference against opts.Observed into errBuffer, blending
// silhouette edges directly against opts.Observed rather than into image.
func RenderForwardError(s *Scene, opts Options, image, zBuffer, errBuffer []float64) error {
	if err := Validate(s, nil); err != nil {
		return err
	}
	if len(opts.Observed) != s.Height*s.Width*s.NbColors {
		return &MissingBufferError{Field: "Options.Observed"}
	}

	copy(image, s.Background)
	for i := range zBuffer {
		zBuffer[i] = math.Inf(1)
	}

	order, area := sortedTriangles(s)
	tex := &texture.Sampler{Width: s.TextureWidth, Height: s.TextureHeight, Channels: s.NbColors, Data: s.Texture}

	for k := 0; k < s.NbTriangles; k++ {
		if area[k] <= 0 && s.BackfaceCulling {
			continue
		}
		face := s.Faces[k*3 : k*3+3]
		var ij [3]linalg.Vec2
		var depths [3]float64
		for i := 0; i < 3; i++ {
			ij[i] = vec2Array(s.IJ, face[i])
			depths[i] = s.Depths[face[i]]
		}
		st := raster.BuildTriangleStencil(ij)

		if s.Textured[k] && s.Shaded[k] {
			faceUV := s.FacesUV[k*3 : k*3+3]
			var shade [3][]float64
			var uv [3]linalg.Vec2
			for i := 0; i < 3; i++ {
				shade[i] = replicate(s.Shade[face[i]], s.NbColors)
				uv[i] = gatherUV(s, faceUV, i)
			}
			raster.RasterizeTexturedGouraud(st, depths, shade, uv, tex, zBuffer, image, s.Height, s.Width, s.NbColors)
		}
		if !s.Textured[k] {
			var colors [3][]float64
			for i := 0; i < 3; i++ {
				colors[i] = s.Colors[face[i]*uint32(s.NbColors) : face[i]*uint32(s.NbColors)+uint32(s.NbColors)]
			}
			raster.RasterizeInterpolated(st, depths, colors, zBuffer, image, s.Height, s.Width, s.NbColors)
		}
	}

	for idx := 0; idx < s.Height*s.Width; idx++ {
		var sum float64
		for c := 0; c < s.NbColors; c++ {
			d := image[s.NbColors*idx+c] - opts.Observed[s.NbColors*idx+c]
			sum += d * d
		}
		errBuffer[idx] = sum
	}

	if opts.Sigma > 0 {
		for _, o := range order {
			k := o.index
			if area[k] <= 0 {
				continue
			}
			face := s.Faces[k*3 : k*3+3]
			for n := 0; n < 3; n++ {
				if !s.EdgeFlags[n+k*3] {
					continue
				}
				sub := edgeVertexOrder[n]
				var ij2 [2]linalg.Vec2
				var depths2 [2]float64
				for i := 0; i < 2; i++ {
					ij2[i] = vec2Array(s.IJ, face[sub[i]])
					depths2[i] = s.Depths[face[sub[i]]]
				}
				es := raster.BuildEdgeStencil(ij2[0], ij2[1], opts.Sigma, s.Clockwise, s.Height, s.Width)

				if s.Textured[k] && s.Shaded[k] {
					faceUV := s.FacesUV[k*3 : k*3+3]
					var shade [2][]float64
					var uv [2]linalg.Vec2
					for i := 0; i < 2; i++ {
						shade[i] = replicate(s.Shade[face[sub[i]]], s.NbColors)
						uv[i] = gatherUV(s, faceUV, sub[i])
					}
					raster.RasterizeEdgeTexturedGouraudError(es, depths2, shade, uv, tex, zBuffer, opts.Observed, errBuffer, s.Width, s.NbColors)
				} else {
					var colors [2][]float64
					for i := 0; i < 2; i++ {
						colors[i] = s.Colors[face[sub[i]]*uint32(s.NbColors) : face[sub[i]]*uint32(s.NbColors)+uint32(s.NbColors)]
					}
					raster.RasterizeEdgeInterpolatedError(es, depths2, colors, zBuffer, opts.Observed, errBuffer, s.Width, s.NbColors)
				}
			}
		}
	}

	return nil
}

func replicate(v float64, n int) []float64 {
	r := make([]float64, n)
	for i := range r {
		r[i] = v
	}
	return r
}
