package scene

import (
	"github.com/go-deodr/deodr/pkg/linalg"
	"github.com/go-deodr/deodr/pkg/raster"
	"github.com/go-deodr/deodr/pkg/texture"
)

// RenderReverse propagates imageAdj back into adj. It must be called with
// the same image, zBuffer and opts that RenderForward produced, and walks
// triangles and edges in the exact reverse of the forward order: edges
// from nearest to furthest, sub-edges {2,1,0}, then interiors from last
// triangle index to first. Use RenderReverseError instead for the
// error-buffer variant seeded from errBufferAdj.
func RenderReverse(s *Scene, adj *Adjoints, opts Options, image, zBuffer, imageAdj []float64) error {
	if err := Validate(s, adj); err != nil {
		return err
	}

	order, area := sortedTriangles(s)
	tex := &texture.Sampler{Width: s.TextureWidth, Height: s.TextureHeight, Channels: s.NbColors, Data: s.Texture}

	if opts.Sigma > 0 {
		for it := len(order) - 1; it >= 0; it-- {
			k := order[it].index
			if area[k] <= 0 {
				continue
			}
			face := s.Faces[k*3 : k*3+3]
			for n := 2; n >= 0; n-- {
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

				var v0Adj, v1Adj linalg.Vec2
				if s.Textured[k] && s.Shaded[k] {
					faceUV := s.FacesUV[k*3 : k*3+3]
					var shade [2][]float64
					var uv [2]linalg.Vec2
					for i := 0; i < 2; i++ {
						shade[i] = replicate(s.Shade[face[sub[i]]], s.NbColors)
						uv[i] = gatherUV(s, faceUV, sub[i])
					}
					var shadeAdj [2][]float64
					for i := 0; i < 2; i++ {
						shadeAdj[i] = make([]float64, s.NbColors)
					}
					var uvAdj [2]linalg.Vec2
					raster.RasterizeEdgeTexturedGouraudAdjoint(es, depths2, shade, uv, tex, zBuffer, image, imageAdj, s.Width, s.NbColors, &shadeAdj, &uvAdj, adj.Texture, &v0Adj, &v1Adj)
					for i := 0; i < 2; i++ {
						var sum float64
						for c := 0; c < s.NbColors; c++ {
							sum += shadeAdj[i][c]
						}
						adj.Shade[face[sub[i]]] += sum
						adj.UV[faceUV[sub[i]]*2+0] += uvAdj[i].X
						adj.UV[faceUV[sub[i]]*2+1] += uvAdj[i].Y
					}
				} else {
					colorsAdjSlices := [2][]float64{
						adj.Colors[face[sub[0]]*uint32(s.NbColors) : face[sub[0]]*uint32(s.NbColors)+uint32(s.NbColors)],
						adj.Colors[face[sub[1]]*uint32(s.NbColors) : face[sub[1]]*uint32(s.NbColors)+uint32(s.NbColors)],
					}
					var colors [2][]float64
					for i := 0; i < 2; i++ {
						colors[i] = s.Colors[face[sub[i]]*uint32(s.NbColors) : face[sub[i]]*uint32(s.NbColors)+uint32(s.NbColors)]
					}
					raster.RasterizeEdgeInterpolatedAdjoint(es, depths2, colors, zBuffer, image, imageAdj, s.Width, s.NbColors, &colorsAdjSlices, &v0Adj, &v1Adj)
				}
				adj.IJ[face[sub[0]]*2+0] += v0Adj.X
				adj.IJ[face[sub[0]]*2+1] += v0Adj.Y
				adj.IJ[face[sub[1]]*2+0] += v1Adj.X
				adj.IJ[face[sub[1]]*2+1] += v1Adj.Y
			}
		}
	}

	for k := s.NbTriangles - 1; k >= 0; k-- {
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
		var vAdj [3]linalg.Vec2

		if s.Textured[k] && s.Shaded[k] {
			faceUV := s.FacesUV[k*3 : k*3+3]
			var shade [3][]float64
			var uv [3]linalg.Vec2
			for i := 0; i < 3; i++ {
				shade[i] = replicate(s.Shade[face[i]], s.NbColors)
				uv[i] = gatherUV(s, faceUV, i)
			}
			var shadeAdj [3][]float64
			for i := 0; i < 3; i++ {
				shadeAdj[i] = make([]float64, s.NbColors)
			}
			var uvAdj [3]linalg.Vec2
			raster.RasterizeTexturedGouraudAdjoint(st, depths, shade, uv, tex, zBuffer, image, imageAdj, s.Height, s.Width, s.NbColors, &shadeAdj, &uvAdj, adj.Texture, &vAdj)
			for i := 0; i < 3; i++ {
				var sum float64
				for c := 0; c < s.NbColors; c++ {
					sum += shadeAdj[i][c]
				}
				adj.Shade[face[i]] += sum
				adj.UV[faceUV[i]*2+0] += uvAdj[i].X
				adj.UV[faceUV[i]*2+1] += uvAdj[i].Y
			}
		}
		if !s.Textured[k] {
			var colors [3][]float64
			colorsAdjSlices := [3][]float64{}
			for i := 0; i < 3; i++ {
				colors[i] = s.Colors[face[i]*uint32(s.NbColors) : face[i]*uint32(s.NbColors)+uint32(s.NbColors)]
				colorsAdjSlices[i] = adj.Colors[face[i]*uint32(s.NbColors) : face[i]*uint32(s.NbColors)+uint32(s.NbColors)]
			}
			raster.RasterizeInterpolatedAdjoint(st, depths, colors, zBuffer, image, imageAdj, s.Height, s.Width, s.NbColors, &colorsAdjSlices, &vAdj)
		}

		for i := 0; i < 3; i++ {
			adj.IJ[face[i]*2+0] += vAdj[i].X
			adj.IJ[face[i]*2+1] += vAdj[i].Y
		}
	}

	return nil
}

// RenderReverseError is RenderReverse's error-buffer counterpart: it walks
// the edges in reverse through the error-buffer edge adjoints, then
// synthesizes the implicit image adjoint from errBufferAdj (the same way
// the forward error pass synthesizes errBuffer from image), then walks the
// interiors in reverse exactly as RenderReverse does.
func RenderReverseError(s *Scene, adj *Adjoints, opts Options, image, zBuffer, errBuffer, errBufferAdj []float64) error {
	if err := Validate(s, adj); err != nil {
		return err
	}
	if len(opts.Observed) != s.Height*s.Width*s.NbColors {
		return &MissingBufferError{Field: "Options.Observed"}
	}

	order, area := sortedTriangles(s)
	tex := &texture.Sampler{Width: s.TextureWidth, Height: s.TextureHeight, Channels: s.NbColors, Data: s.Texture}

	if opts.Sigma > 0 {
		for it := len(order) - 1; it >= 0; it-- {
			k := order[it].index
			if area[k] <= 0 {
				continue
			}
			face := s.Faces[k*3 : k*3+3]
			for n := 2; n >= 0; n-- {
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

				var v0Adj, v1Adj linalg.Vec2
				if s.Textured[k] && s.Shaded[k] {
					faceUV := s.FacesUV[k*3 : k*3+3]
					var shade [2][]float64
					var uv [2]linalg.Vec2
					for i := 0; i < 2; i++ {
						shade[i] = replicate(s.Shade[face[sub[i]]], s.NbColors)
						uv[i] = gatherUV(s, faceUV, sub[i])
					}
					var shadeAdj [2][]float64
					for i := 0; i < 2; i++ {
						shadeAdj[i] = make([]float64, s.NbColors)
					}
					var uvAdj [2]linalg.Vec2
					raster.RasterizeEdgeTexturedGouraudErrorAdjoint(es, depths2, shade, uv, tex, zBuffer, opts.Observed, errBuffer, errBufferAdj, s.Width, s.NbColors, &shadeAdj, &uvAdj, adj.Texture, &v0Adj, &v1Adj)
					for i := 0; i < 2; i++ {
						var sum float64
						for c := 0; c < s.NbColors; c++ {
							sum += shadeAdj[i][c]
						}
						adj.Shade[face[sub[i]]] += sum
						adj.UV[faceUV[sub[i]]*2+0] += uvAdj[i].X
						adj.UV[faceUV[sub[i]]*2+1] += uvAdj[i].Y
					}
				} else {
					colorsAdjSlices := [2][]float64{
						adj.Colors[face[sub[0]]*uint32(s.NbColors) : face[sub[0]]*uint32(s.NbColors)+uint32(s.NbColors)],
						adj.Colors[face[sub[1]]*uint32(s.NbColors) : face[sub[1]]*uint32(s.NbColors)+uint32(s.NbColors)],
					}
					var colors [2][]float64
					for i := 0; i < 2; i++ {
						colors[i] = s.Colors[face[sub[i]]*uint32(s.NbColors) : face[sub[i]]*uint32(s.NbColors)+uint32(s.NbColors)]
					}
					raster.RasterizeEdgeInterpolatedErrorAdjoint(es, depths2, colors, zBuffer, opts.Observed, errBuffer, errBufferAdj, s.Width, s.NbColors, &colorsAdjSlices, &v0Adj, &v1Adj)
				}
				adj.IJ[face[sub[0]]*2+0] += v0Adj.X
				adj.IJ[face[sub[0]]*2+1] += v0Adj.Y
				adj.IJ[face[sub[1]]*2+0] += v1Adj.X
				adj.IJ[face[sub[1]]*2+1] += v1Adj.Y
			}
		}
	}

	imageAdj := make([]float64, len(image))
	for idx := 0; idx < s.Height*s.Width; idx++ {
		for c := 0; c < s.NbColors; c++ {
			imageAdj[s.NbColors*idx+c] = -2 * (opts.Observed[s.NbColors*idx+c] - image[s.NbColors*idx+c]) * errBufferAdj[idx]
		}
	}

	for k := s.NbTriangles - 1; k >= 0; k-- {
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
		var vAdj [3]linalg.Vec2

		if s.Textured[k] && s.Shaded[k] {
			faceUV := s.FacesUV[k*3 : k*3+3]
			var shade [3][]float64
			var uv [3]linalg.Vec2
			for i := 0; i < 3; i++ {
				shade[i] = replicate(s.Shade[face[i]], s.NbColors)
				uv[i] = gatherUV(s, faceUV, i)
			}
			var shadeAdj [3][]float64
			for i := 0; i < 3; i++ {
				shadeAdj[i] = make([]float64, s.NbColors)
			}
			var uvAdj [3]linalg.Vec2
			raster.RasterizeTexturedGouraudAdjoint(st, depths, shade, uv, tex, zBuffer, image, imageAdj, s.Height, s.Width, s.NbColors, &shadeAdj, &uvAdj, adj.Texture, &vAdj)
			for i := 0; i < 3; i++ {
				var sum float64
				for c := 0; c < s.NbColors; c++ {
					sum += shadeAdj[i][c]
				}
				adj.Shade[face[i]] += sum
				adj.UV[faceUV[i]*2+0] += uvAdj[i].X
				adj.UV[faceUV[i]*2+1] += uvAdj[i].Y
			}
		}
		if !s.Textured[k] {
			var colors [3][]float64
			colorsAdjSlices := [3][]float64{}
			for i := 0; i < 3; i++ {
				colors[i] = s.Colors[face[i]*uint32(s.NbColors) : face[i]*uint32(s.NbColors)+uint32(s.NbColors)]
				colorsAdjSlices[i] = adj.Colors[face[i]*uint32(s.NbColors) : face[i]*uint32(s.NbColors)+uint32(s.NbColors)]
			}
			raster.RasterizeInterpolatedAdjoint(st, depths, colors, zBuffer, image, imageAdj, s.Height, s.Width, s.NbColors, &colorsAdjSlices, &vAdj)
		}

		for i := 0; i < 3; i++ {
			adj.IJ[face[i]*2+0] += vAdj[i].X
			adj.IJ[face[i]*2+1] += vAdj[i].Y
		}
	}

	return nil
}
