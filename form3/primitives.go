// Package form3 provides signed distance functions evaluated in batches on the
// CPU. They are the usual input to the surface nets renderer.
package form3

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

// SDF3 is a signed distance function evaluated over a batch of positions.
// Negative distances are inside the shape.
type SDF3 interface {
	Evaluate(pos []ms3.Vec, dist []float32, userData any) error
	Bounds() ms3.Box
}

type sphere struct {
	r float32
}

// Sphere returns a sphere of radius r centered at the origin.
func Sphere(r float32) (SDF3, error) {
	if r <= 0 {
		return nil, errors.New("zero or negative sphere radius")
	}
	return &sphere{r: r}, nil
}

func (s *sphere) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	r := s.r
	for i, p := range pos {
		dist[i] = ms3.Norm(p) - r
	}
	return nil
}

func (s *sphere) Bounds() ms3.Box {
	return ms3.Box{
		Min: ms3.Vec{X: -s.r, Y: -s.r, Z: -s.r},
		Max: ms3.Vec{X: s.r, Y: s.r, Z: s.r},
	}
}

type box struct {
	dims  ms3.Vec
	round float32
}

// Box returns an origin centered box of size x,y,z with edges rounded by round.
func Box(x, y, z, round float32) (SDF3, error) {
	if round < 0 || round > x/2 || round > y/2 || round > z/2 {
		return nil, errors.New("invalid box rounding value")
	} else if x <= 0 || y <= 0 || z <= 0 {
		return nil, errors.New("zero or negative box dimension")
	}
	return &box{dims: ms3.Vec{X: x, Y: y, Z: z}, round: round}, nil
}

func (b *box) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	d := ms3.Scale(0.5, b.dims)
	r := b.round
	for i, p := range pos {
		q := ms3.Add(ms3.Sub(ms3.AbsElem(p), d), ms3.Vec{X: r, Y: r, Z: r})
		dist[i] = ms3.Norm(ms3.MaxElem(q, ms3.Vec{})) + math32.Min(math32.Max(q.X, math32.Max(q.Y, q.Z)), 0) - r
	}
	return nil
}

func (b *box) Bounds() ms3.Box {
	return ms3.Box{Min: ms3.Scale(-0.5, b.dims), Max: ms3.Scale(0.5, b.dims)}
}

type torus struct {
	rGreater float32
	rRing    float32
}

// Torus returns a torus lying on the XY plane. rGreater is the outer radius
// and rRing the radius of the ring's cross section.
func Torus(rGreater, rRing float32) (SDF3, error) {
	if rRing <= 0 || rGreater <= 0 {
		return nil, errors.New("zero or negative torus radius")
	} else if 2*rRing > rGreater {
		return nil, errors.New("torus ring too thick for outer radius")
	}
	return &torus{rGreater: rGreater, rRing: rRing}, nil
}

func (t *torus) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	t1 := t.rGreater - t.rRing
	t2 := t.rRing
	for i, p := range pos {
		q1 := math32.Hypot(p.X, p.Y) - t1
		dist[i] = math32.Hypot(q1, p.Z) - t2
	}
	return nil
}

func (t *torus) Bounds() ms3.Box {
	R, r := t.rGreater, t.rRing
	return ms3.Box{
		Min: ms3.Vec{X: -R, Y: -R, Z: -r},
		Max: ms3.Vec{X: R, Y: R, Z: r},
	}
}

type gyroid struct {
	bb     ms3.Box
	period float32
	thick  float32
}

// Gyroid returns a gyroid sheet of the given thickness repeating every
// period units. The surface is infinite and is cut by bb.
func Gyroid(bb ms3.Box, period, thickness float32) (SDF3, error) {
	if period <= 0 || thickness <= 0 {
		return nil, errors.New("zero or negative gyroid period or thickness")
	}
	sz := bb.Size()
	if sz.X <= 0 || sz.Y <= 0 || sz.Z <= 0 {
		return nil, errors.New("empty gyroid bounds")
	}
	return &gyroid{bb: bb, period: period, thick: thickness}, nil
}

func (g *gyroid) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	k := 2 * math32.Pi / g.period
	// The gyroid function's gradient peaks near 1.5*k; scale to keep distances roughly metric.
	norm := 1 / (1.5 * k)
	for i, p := range pos {
		x, y, z := k*p.X, k*p.Y, k*p.Z
		v := math32.Sin(x)*math32.Cos(y) + math32.Sin(y)*math32.Cos(z) + math32.Sin(z)*math32.Cos(x)
		dist[i] = math32.Abs(v)*norm - g.thick/2
	}
	return nil
}

func (g *gyroid) Bounds() ms3.Box { return g.bb }
