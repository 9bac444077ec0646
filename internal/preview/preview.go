// Package preview renders flat-shaded orthographic thumbnails of triangle
// meshes, used to eyeball simplification results.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	gomath "math"

	"golang.org/x/image/draw"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

// Preview errors.
var (
	ErrEmptyMesh   = errors.New("nothing to render")
	ErrInvalidSize = errors.New("invalid preview size")
)

// Options controls a render.
type Options struct {
	Size        int     // output edge length in pixels
	Supersample int     // render at Size*Supersample, then downscale
	Yaw         float32 // degrees around +Y
	Pitch       float32 // degrees around +X, applied after yaw
	Background  color.NRGBA
	Color       color.NRGBA
}

// DefaultOptions returns a 512px three-quarter view on a dark background.
func DefaultOptions() Options {
	return Options{
		Size:        512,
		Supersample: 2,
		Yaw:         30,
		Pitch:       20,
		Background:  color.NRGBA{R: 32, G: 32, B: 36, A: 255},
		Color:       color.NRGBA{R: 170, G: 170, B: 180, A: 255},
	}
}

// Render draws the triangles of a mesh into a Size x Size image. The mesh
// is centered and scaled so that any orientation fits the frame.
func Render(positions []math.Vec3, indices []uint32, opts Options) (*image.NRGBA, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, opts.Size)
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	if len(positions) == 0 || len(indices) < 3 {
		return nil, ErrEmptyMesh
	}

	renderSize := opts.Size * opts.Supersample

	center, radius := boundingSphere(positions)
	model := math.Orbit(opts.Yaw, opts.Pitch).ToMat4().
		Mul(math.Scale(0.9 / radius)).
		Mul(math.Translate(center.Neg()))
	viewport := math.Viewport(renderSize, renderSize)

	view := make([]math.Vec3, len(positions))
	screen := make([]math.Vec3, len(positions))
	for i, p := range positions {
		view[i] = model.TransformPoint(p)
		screen[i] = viewport.TransformPoint(view[i])
	}

	fb := newFrameBuffer(renderSize, renderSize, opts.Background)
	for i := 0; i+2 < len(indices); i += 3 {
		tri := [3]uint32{indices[i], indices[i+1], indices[i+2]}
		if int(tri[0]) >= len(positions) || int(tri[1]) >= len(positions) || int(tri[2]) >= len(positions) {
			continue
		}
		fb.rasterize(view, screen, tri, opts.Color)
	}

	return downsample(fb.img, opts.Size), nil
}

// boundingSphere returns the bounding box center and the largest distance
// from it, never zero.
func boundingSphere(positions []math.Vec3) (math.Vec3, float32) {
	lo, hi := positions[0], positions[0]
	for _, p := range positions[1:] {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	center := lo.Mid(hi)

	var radius float32
	for _, p := range positions {
		if d := p.Distance(center); d > radius {
			radius = d
		}
	}
	if radius < 1e-6 {
		radius = 1
	}
	return center, radius
}

// downsample scales img to size x size with CatmullRom filtering.
func downsample(img *image.NRGBA, size int) *image.NRGBA {
	if img.Bounds().Dx() == size && img.Bounds().Dy() == size {
		return img
	}

	// Scale in premultiplied space so transparent backgrounds do not halo.
	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	out := image.NewNRGBA(scaled.Bounds())
	draw.Draw(out, out.Bounds(), scaled, image.Point{}, draw.Src)
	return out
}

// SideBySide places a and b next to each other, top-aligned.
func SideBySide(a, b image.Image) *image.NRGBA {
	ab, bb := a.Bounds(), b.Bounds()
	h := gomath.Max(float64(ab.Dy()), float64(bb.Dy()))
	out := image.NewNRGBA(image.Rect(0, 0, ab.Dx()+bb.Dx(), int(h)))

	draw.Draw(out, image.Rect(0, 0, ab.Dx(), ab.Dy()), a, ab.Min, draw.Src)
	draw.Draw(out, image.Rect(ab.Dx(), 0, ab.Dx()+bb.Dx(), bb.Dy()), b, bb.Min, draw.Src)
	return out
}
