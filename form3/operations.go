package form3

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
)

type union struct {
	s1, s2 SDF3
}

// Union joins two shapes.
func Union(s1, s2 SDF3) (SDF3, error) {
	if s1 == nil || s2 == nil {
		return nil, errors.New("nil argument to Union")
	}
	return &union{s1: s1, s2: s2}, nil
}

func (u *union) Bounds() ms3.Box {
	a, b := u.s1.Bounds(), u.s2.Bounds()
	return ms3.Box{Min: minElem(a.Min, b.Min), Max: ms3.MaxElem(a.Max, b.Max)}
}

func (u *union) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	return evaluateBinary(u.s1, u.s2, pos, dist, userData, math32.Min)
}

type diff struct {
	s1, s2 SDF3
}

// Difference removes s2 from s1.
func Difference(s1, s2 SDF3) (SDF3, error) {
	if s1 == nil || s2 == nil {
		return nil, errors.New("nil argument to Difference")
	}
	return &diff{s1: s1, s2: s2}, nil
}

func (d *diff) Bounds() ms3.Box { return d.s1.Bounds() }

func (d *diff) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	return evaluateBinary(d.s1, d.s2, pos, dist, userData, func(a, b float32) float32 {
		return math32.Max(a, -b)
	})
}

type intersect struct {
	s1, s2 SDF3
}

// Intersection keeps the volume common to both shapes.
func Intersection(s1, s2 SDF3) (SDF3, error) {
	if s1 == nil || s2 == nil {
		return nil, errors.New("nil argument to Intersection")
	}
	bb := intersectBox(s1.Bounds(), s2.Bounds())
	sz := bb.Size()
	if sz.X < 0 || sz.Y < 0 || sz.Z < 0 {
		return nil, errors.New("intersection of disjoint shapes")
	}
	return &intersect{s1: s1, s2: s2}, nil
}

func (i *intersect) Bounds() ms3.Box { return intersectBox(i.s1.Bounds(), i.s2.Bounds()) }

func (i *intersect) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	return evaluateBinary(i.s1, i.s2, pos, dist, userData, math32.Max)
}

type translate struct {
	s SDF3
	p ms3.Vec
}

// Translate moves s by p.
func Translate(s SDF3, p ms3.Vec) SDF3 {
	return &translate{s: s, p: p}
}

func (t *translate) Bounds() ms3.Box {
	bb := t.s.Bounds()
	return ms3.Box{Min: ms3.Add(bb.Min, t.p), Max: ms3.Add(bb.Max, t.p)}
}

func (t *translate) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	if len(pos) == 0 {
		return nil
	}
	vp, err := GetVecPool(userData)
	if err != nil {
		return err
	}
	shifted := vp.V3.Acquire(len(pos))
	defer vp.V3.Release(shifted)
	for i, p := range pos {
		shifted[i] = ms3.Sub(p, t.p)
	}
	return t.s.Evaluate(shifted, dist, userData)
}

// evaluateBinary evaluates s1 into dist and s2 into a pooled buffer and
// combines them with op.
func evaluateBinary(s1, s2 SDF3, pos []ms3.Vec, dist []float32, userData any, op func(a, b float32) float32) error {
	if len(pos) == 0 {
		return nil
	}
	vp, err := GetVecPool(userData)
	if err != nil {
		return err
	}
	d2 := vp.Float.Acquire(len(dist))
	defer vp.Float.Release(d2)
	err = s1.Evaluate(pos, dist, userData)
	if err != nil {
		return err
	}
	err = s2.Evaluate(pos, d2, userData)
	if err != nil {
		return err
	}
	for i := range dist {
		dist[i] = op(dist[i], d2[i])
	}
	return nil
}

func minElem(a, b ms3.Vec) ms3.Vec {
	return ms3.Vec{X: math32.Min(a.X, b.X), Y: math32.Min(a.Y, b.Y), Z: math32.Min(a.Z, b.Z)}
}

func intersectBox(a, b ms3.Box) ms3.Box {
	return ms3.Box{Min: ms3.MaxElem(a.Min, b.Min), Max: minElem(a.Max, b.Max)}
}
