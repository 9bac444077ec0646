package preview

import (
	"image"
	"image/color"
	gomath "math"

	"github.com/Faultbox/midgard-lod/pkg/math"
)

// Light setup: two-sided key light plus ambient.
var lightDir = math.Vec3{X: 0.35, Y: 0.55, Z: 0.75}.Normalize()

const (
	ambient = 0.25
	diffuse = 0.75

	edgeEpsilon = -0.001 // barycentric slack so shared edges leave no cracks
)

type frameBuffer struct {
	img  *image.NRGBA
	zbuf []float64 // larger is nearer, initialized to -inf
}

func newFrameBuffer(w, h int, bg color.NRGBA) *frameBuffer {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = bg.R
		img.Pix[i+1] = bg.G
		img.Pix[i+2] = bg.B
		img.Pix[i+3] = bg.A
	}

	zbuf := make([]float64, w*h)
	for i := range zbuf {
		zbuf[i] = gomath.Inf(-1)
	}
	return &frameBuffer{img: img, zbuf: zbuf}
}

// rasterize fills one flat-shaded triangle. view holds camera space
// positions for lighting, screen the pixel space ones.
func (fb *frameBuffer) rasterize(view, screen []math.Vec3, tri [3]uint32, c color.NRGBA) {
	n := view[tri[1]].Sub(view[tri[0]]).Cross(view[tri[2]].Sub(view[tri[0]]))
	if n.Length() < 1e-12 {
		return
	}
	ndl := gomath.Abs(float64(n.Normalize().Dot(lightDir)))
	shade := ambient + diffuse*ndl

	r := clamp255(float64(c.R) * shade)
	g := clamp255(float64(c.G) * shade)
	b := clamp255(float64(c.B) * shade)

	x0, y0, z0 := screen[tri[0]].Float64()
	x1, y1, z1 := screen[tri[1]].Float64()
	x2, y2, z2 := screen[tri[2]].Float64()

	w, h := fb.img.Rect.Dx(), fb.img.Rect.Dy()
	minX := max(int(gomath.Floor(min(x0, x1, x2))), 0)
	maxX := min(int(gomath.Ceil(max(x0, x1, x2))), w-1)
	minY := max(int(gomath.Floor(min(y0, y1, y2))), 0)
	maxY := min(int(gomath.Ceil(max(y0, y1, y2))), h-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-12 && det < 1e-12 {
		return
	}
	invDet := 1 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		row := sy * w
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < edgeEpsilon || w1 < edgeEpsilon || w2 < edgeEpsilon {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zi := row + sx
			if z <= fb.zbuf[zi] {
				continue
			}
			fb.zbuf[zi] = z

			pi := zi * 4
			fb.img.Pix[pi] = r
			fb.img.Pix[pi+1] = g
			fb.img.Pix[pi+2] = b
			fb.img.Pix[pi+3] = c.A
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
