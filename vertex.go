package surfnet

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/surfnet/internal/grid"
)

type ivec struct {
	x int
	y int
	z int
}

func (a ivec) Add(b ivec) ivec { return ivec{x: a.x + b.x, y: a.y + b.y, z: a.z + b.z} }
func (a ivec) Sub(b ivec) ivec { return ivec{x: a.x - b.x, y: a.y - b.y, z: a.z - b.z} }
func (a ivec) Vec() ms3.Vec    { return ms3.Vec{X: float32(a.x), Y: float32(a.y), Z: float32(a.z)} }

// along returns the component of a along the unit axis.
func (a ivec) along(axis ivec) int { return a.x*axis.x + a.y*axis.y + a.z*axis.z }

// corner returns the index of a {0,1}³ offset within a cell's corner array.
func (a ivec) corner() int { return a.x<<2 | a.y<<1 | a.z }

// cubeEdges lists the 12 edges of the unit cube as pairs of corner offsets.
var cubeEdges = [12][2]ivec{
	{{0, 0, 0}, {0, 0, 1}},
	{{0, 0, 0}, {0, 1, 0}},
	{{0, 0, 0}, {1, 0, 0}},
	{{0, 0, 1}, {0, 1, 1}},
	{{0, 0, 1}, {1, 0, 1}},
	{{0, 1, 0}, {0, 1, 1}},
	{{0, 1, 0}, {1, 1, 0}},
	{{0, 1, 1}, {1, 1, 1}},
	{{1, 0, 0}, {1, 0, 1}},
	{{1, 0, 0}, {1, 1, 0}},
	{{1, 0, 1}, {1, 1, 1}},
	{{1, 1, 0}, {1, 1, 1}},
}

// cellVertex is the result of vertex placement for a single cell.
type cellVertex struct {
	pos        ms3.Vec
	normal     ms3.Vec
	active     bool
	degenerate bool
}

// cellCorners reads the 8 corner samples of cell c indexed by ivec.corner.
func cellCorners(s *sampler, c ivec) (corners [8]float32) {
	for i := range corners {
		corners[i] = s.sample(c.x+i>>2, c.y+(i>>1)&1, c.z+i&1)
	}
	return corners
}

// findEdge returns the zero crossing along the edge o1→o2 in cell local
// coordinates, if the edge endpoints differ in sign.
func findEdge(corners *[8]float32, o1, o2 ivec) (ms3.Vec, bool) {
	v1 := corners[o1.corner()]
	v2 := corners[o2.corner()]
	if (v1 < 0) == (v2 < 0) {
		return ms3.Vec{}, false
	}
	t := crossing(v1, v2)
	return ms3.Vec{
		X: float32(o1.x)*(1-t) + float32(o2.x)*t,
		Y: float32(o1.y)*(1-t) + float32(o2.y)*t,
		Z: float32(o1.z)*(1-t) + float32(o2.z)*t,
	}, true
}

// crossing returns where the linear interpolation between v1 and v2 reaches
// zero. An infinite sample pulls the crossing onto the finite endpoint.
func crossing(v1, v2 float32) float32 {
	inf1, inf2 := math32.IsInf(v1, 0), math32.IsInf(v2, 0)
	switch {
	case inf1 && inf2:
		return 0.5
	case inf1:
		return 1
	case inf2:
		return 0
	}
	return v1 / (v1 - v2)
}

// findCenter places the vertex of cell c at the mean of its edge crossings.
func findCenter(corners *[8]float32, c ivec) (ms3.Vec, bool) {
	var sum ms3.Vec
	count := 0
	for _, edge := range cubeEdges {
		p, ok := findEdge(corners, edge[0], edge[1])
		if !ok {
			continue
		}
		sum = ms3.Add(sum, p)
		count++
	}
	if count == 0 {
		return ms3.Vec{}, false
	}
	n := float32(count)
	local := ms3.Vec{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}
	return ms3.Add(local, c.Vec()), true
}

// cornerGradient is the central difference gradient over a cell's corners:
// per axis, the sum of the 4 corners on the high side minus the 4 on the low side.
func cornerGradient(corners *[8]float32) ms3.Vec {
	var hi, lo [3]float32
	for i, v := range corners {
		for axis := 0; axis < 3; axis++ {
			if i&(4>>axis) != 0 {
				hi[axis] += v
			} else {
				lo[axis] += v
			}
		}
	}
	return ms3.Vec{X: hi[0] - lo[0], Y: hi[1] - lo[1], Z: hi[2] - lo[2]}
}

// cellNormal normalizes the corner gradient. A zero or non-finite gradient,
// as produced by infinite samples, yields the zero vector and ok=false.
func cellNormal(corners *[8]float32) (n ms3.Vec, ok bool) {
	g := cornerGradient(corners)
	length := math32.Sqrt(g.X*g.X + g.Y*g.Y + g.Z*g.Z)
	if length == 0 || math32.IsInf(length, 0) || math32.IsNaN(length) {
		return ms3.Vec{}, false
	}
	return ms3.Vec{X: g.X / length, Y: g.Y / length, Z: g.Z / length}, true
}

func placeVertex(s *sampler, c ivec) cellVertex {
	corners := cellCorners(s, c)
	pos, active := findCenter(&corners, c)
	if !active {
		return cellVertex{}
	}
	normal, ok := cellNormal(&corners)
	return cellVertex{pos: pos, normal: normal, active: true, degenerate: !ok}
}

// vertexNet holds the placed vertices and the cell to vertex index grid.
type vertexNet struct {
	vertices   []ms3.Vec
	normals    []ms3.Vec
	index      *grid.Array[uint32]
	degenerate int
}

func (net *vertexNet) add(cv cellVertex) uint32 {
	if !cv.active {
		return NoVertex
	}
	idx := uint32(len(net.vertices))
	net.vertices = append(net.vertices, cv.pos)
	net.normals = append(net.normals, cv.normal)
	if cv.degenerate {
		net.degenerate++
	}
	return idx
}

// placeVertices runs vertex placement over all cells. Vertex indices are
// assigned in ascending x,y,z order regardless of workers: in parallel mode
// cells are placed concurrently and numbered afterwards in a sequential pass.
func placeVertices(s *sampler, workers int) vertexNet {
	res := s.resolution
	var net vertexNet
	if workers <= 1 {
		net.index = grid.Generate(res, func(x, y, z int) uint32 {
			return net.add(placeVertex(s, ivec{x, y, z}))
		})
		return net
	}
	placed := grid.New[cellVertex](res)
	forEachSlab(workers, res, func(x int) {
		for y := 0; y < res; y++ {
			for z := 0; z < res; z++ {
				placed.Set(x, y, z, placeVertex(s, ivec{x, y, z}))
			}
		}
	})
	net.index = grid.Generate(res, func(x, y, z int) uint32 {
		return net.add(placed.At(x, y, z))
	})
	return net
}
