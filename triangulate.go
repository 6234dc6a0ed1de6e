package surfnet

import "github.com/soypat/glgl/math/ms3"

type face uint8

const (
	noFace face = iota
	// facePositive: the cell corner is air and its neighbor along the axis is solid.
	facePositive
	// faceNegative: the cell corner is solid and its neighbor along the axis is air.
	faceNegative
)

// quadAxes holds, for each lattice axis, the axis followed by its two
// orthogonal axes in cyclic order so that axis1 × axis2 = axis.
var quadAxes = [3][3]ivec{
	{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
}

type triangulator struct {
	s             *sampler
	net           *vertexNet
	fixedDiagonal bool
}

// isFace tests the lattice edge from c to c+axis for a sign change.
func (tr *triangulator) isFace(c, axis ivec) face {
	solid := tr.s.sampleAt(c) < 0
	neighborSolid := tr.s.sampleAt(c.Add(axis)) < 0
	switch {
	case !solid && neighborSolid:
		return facePositive
	case solid && !neighborSolid:
		return faceNegative
	}
	return noFace
}

// triangulate emits triangles for every cell in scan order. With workers > 1
// x-slabs are processed concurrently and joined in ascending x.
func (tr *triangulator) triangulate(workers int) []uint32 {
	res := tr.s.resolution
	if workers <= 1 {
		var indices []uint32
		for x := 0; x < res; x++ {
			indices = tr.appendSlab(indices, x)
		}
		return indices
	}
	slabs := make([][]uint32, res)
	forEachSlab(workers, res, func(x int) {
		slabs[x] = tr.appendSlab(nil, x)
	})
	total := 0
	for _, slab := range slabs {
		total += len(slab)
	}
	indices := make([]uint32, 0, total)
	for _, slab := range slabs {
		indices = append(indices, slab...)
	}
	return indices
}

func (tr *triangulator) appendSlab(dst []uint32, x int) []uint32 {
	res := tr.s.resolution
	for y := 0; y < res; y++ {
		for z := 0; z < res; z++ {
			c := ivec{x, y, z}
			for _, axes := range quadAxes {
				// Edges on the lower boundary faces have no cells behind them.
				if c.along(axes[1]) == 0 || c.along(axes[2]) == 0 {
					continue
				}
				dst = tr.appendQuad(dst, c, axes[0], axes[1], axes[2])
			}
		}
	}
	return dst
}

// appendQuad joins the vertices of the 4 cells sharing the lattice edge from c
// to c+axis into two triangles whose right handed normals point from the
// solid side towards the air side.
func (tr *triangulator) appendQuad(dst []uint32, c, axis, axis1, axis2 ivec) []uint32 {
	f := tr.isFace(c, axis)
	if f == noFace {
		return dst
	}
	idx := tr.net.index
	v1 := idx.At(c.x, c.y, c.z)
	c2 := c.Sub(axis1)
	v2 := idx.At(c2.x, c2.y, c2.z)
	c3 := c.Sub(axis2)
	v3 := idx.At(c3.x, c3.y, c3.z)
	c4 := c2.Sub(axis2)
	v4 := idx.At(c4.x, c4.y, c4.z)
	if v1 == NoVertex || v2 == NoVertex || v3 == NoVertex || v4 == NoVertex {
		return dst
	}
	// Around the edge the quad is v1→v2→v4→v3 counter clockwise seen from +axis.
	splitV2V3 := !tr.fixedDiagonal && tr.dist2(v2, v3) < tr.dist2(v1, v4)
	switch {
	case f == facePositive && !splitV2V3:
		dst = append(dst, v1, v3, v4, v1, v4, v2)
	case f == facePositive:
		dst = append(dst, v1, v3, v2, v3, v4, v2)
	case !splitV2V3:
		dst = append(dst, v1, v2, v4, v1, v4, v3)
	default:
		dst = append(dst, v1, v2, v3, v2, v4, v3)
	}
	return dst
}

// dist2 returns the squared distance between two placed vertices.
func (tr *triangulator) dist2(a, b uint32) float32 {
	d := ms3.Sub(tr.net.vertices[a], tr.net.vertices[b])
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}
