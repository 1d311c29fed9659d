// Package scene assembles triangles, per-vertex attributes, and a texture
// into a renderable scene, and drives the forward and reverse rasterization
// passes over pkg/raster.
package scene

// Scene holds a batch of triangles and the per-vertex attributes needed to
// rasterize them: 2D projected position (IJ), depth, per-vertex flat color,
// texture coordinates and Gouraud shading weight, and one texture shared by
// every textured triangle. Validate requires every buffer to be non-empty,
// including UV, Shade and Texture when no triangle is textured.
//
// Index buffers (Faces, FacesUV) and flag buffers (EdgeFlags, Textured,
// Shaded) are one entry (or 3, for per-triangle-corner buffers) per
// triangle; per-vertex buffers (Depths, IJ, Shade, Colors) are indexed by
// Faces; per-uv buffers (UV) are indexed by FacesUV.
type Scene struct {
	Faces   []uint32 // NbTriangles*3
	FacesUV []uint32 // NbTriangles*3

	Depths []float64 // NbVertices
	IJ     []float64 // NbVertices*2
	Shade  []float64 // NbVertices
	Colors []float64 // NbVertices*NbColors
	UV     []float64 // NbUV*2, one-based: callers store coordinates shifted by +1

	EdgeFlags []bool // NbTriangles*3
	Textured  []bool // NbTriangles
	Shaded    []bool // NbTriangles

	NbTriangles     int
	NbVertices      int
	NbUV            int
	NbColors        int
	Height          int
	Width           int
	Clockwise       bool
	BackfaceCulling bool

	Texture       []float64 // TextureWidth*TextureHeight*NbColors
	TextureWidth  int
	TextureHeight int

	Background []float64 // Height*Width*NbColors
}

// Adjoints mirrors the differentiable buffers of Scene: one gradient
// accumulator per forward buffer that RenderReverse writes into.
type Adjoints struct {
	UV      []float64
	IJ      []float64
	Shade   []float64
	Colors  []float64
	Texture []float64
}

// NewAdjoints allocates zeroed adjoint buffers sized to match scene.
func NewAdjoints(s *Scene) *Adjoints {
	return &Adjoints{
		UV:      make([]float64, len(s.UV)),
		IJ:      make([]float64, len(s.IJ)),
		Shade:   make([]float64, len(s.Shade)),
		Colors:  make([]float64, len(s.Colors)),
		Texture: make([]float64, len(s.Texture)),
	}
}

// Options configures the antialiasing behavior of a render pass. It is
// plain, JSON-serializable configuration: it carries no buffers beyond
// Observed and has no CLI surface of its own. Error-buffer mode is chosen
// by calling RenderForwardError/RenderReverseError instead of
// RenderForward/RenderReverse, not by a field here.
type Options struct {
	// Sigma is the half-width, in pixels, of the silhouette-edge
	// antialiasing band. Zero disables edge antialiasing entirely.
	Sigma float64 `json:"sigma"`
	// Observed is the target image RenderForwardError/RenderReverseError
	// compare against.
	Observed []float64 `json:"-"`
}

func signedArea(ij [3][2]float64, clockwise bool) float64 {
	ux := ij[1][0] - ij[0][0]
	uy := ij[1][1] - ij[0][1]
	vx := ij[2][0] - ij[0][0]
	vy := ij[2][1] - ij[0][1]
	area := 0.5 * (ux*vy - vx*uy)
	if !clockwise {
		area = -area
	}
	return area
}

var edgeVertexOrder = [3][2]int{{1, 0}, {2, 1}, {0, 2}}
