package render

import (
	"errors"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/surfnet/form3"
	"gonum.org/v1/gonum/spatial/r3"
)

// FromR3 adapts a float64 distance function over gonum vectors to a form3.SDF3
// so it can be rendered with SurfaceNets.
func FromR3(f func(r3.Vec) float64, bounds r3.Box) (form3.SDF3, error) {
	if f == nil {
		return nil, errors.New("nil distance function")
	}
	sz := r3.Sub(bounds.Max, bounds.Min)
	if sz.X <= 0 || sz.Y <= 0 || sz.Z <= 0 {
		return nil, errors.New("empty bounds")
	}
	return &r3SDF{f: f, bb: bounds}, nil
}

type r3SDF struct {
	f  func(r3.Vec) float64
	bb r3.Box
}

func (s *r3SDF) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	for i, p := range pos {
		dist[i] = float32(s.f(r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}))
	}
	return nil
}

func (s *r3SDF) Bounds() ms3.Box {
	return ms3.Box{
		Min: ms3.Vec{X: float32(s.bb.Min.X), Y: float32(s.bb.Min.Y), Z: float32(s.bb.Min.Z)},
		Max: ms3.Vec{X: float32(s.bb.Max.X), Y: float32(s.bb.Max.Y), Z: float32(s.bb.Max.Z)},
	}
}
