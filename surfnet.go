// Package surfnet extracts polygonal meshes from scalar fields sampled on a
// regular cubic lattice using the surface nets algorithm. Unlike marching cubes,
// surface nets places exactly one vertex inside every cell the surface crosses
// and stitches the vertices of the four cells around every crossed lattice edge
// into a quad.
//
// Fields follow the convention that negative values are solid (interior)
// and zero or positive values are air (exterior).
package surfnet

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/surfnet/internal/grid"
)

// Field is a scalar field sampled at integer lattice coordinates, each in
// [0, resolution]. It must be pure and deterministic since values may be cached
// and each lattice point is read several times. Values below zero are solid.
type Field func(x, y, z int) float32

// NoVertex is the index grid value of cells the surface does not cross.
// It is never a valid vertex index.
const NoVertex = math.MaxUint32

// MaxResolution is the largest supported resolution. It keeps every cell
// index below NoVertex.
const MaxResolution = 1625

var (
	// ErrInvalidResolution is returned for resolutions below 1.
	ErrInvalidResolution = errors.New("surfnet: resolution must be 1 or larger")
	// ErrResolutionTooLarge is returned for resolutions above MaxResolution.
	ErrResolutionTooLarge = errors.New("surfnet: resolution too large for 32 bit vertex indices")
	// ErrNilField is returned when meshing a nil Field.
	ErrNilField = errors.New("surfnet: nil field")
)

// Mesh is the output of the surface nets algorithm. Positions are in lattice
// units: the vertex of cell (x,y,z) lies inside the box [x,x+1]×[y,y+1]×[z,z+1].
type Mesh struct {
	// Vertices holds one position per active cell in ascending x,y,z scan order.
	Vertices []ms3.Vec
	// Normals holds the unit field gradient at each vertex. Vertices whose
	// corner gradient vanishes get the zero vector.
	Normals []ms3.Vec
	// Indices is a flat triangle list into Vertices.
	Indices []uint32
	// DegenerateNormals counts zero vectors in Normals.
	DegenerateNormals int
}

// TriangleCount returns len(Indices)/3.
func (m Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Triangle returns the vertex indices of the ith triangle.
func (m Mesh) Triangle(i int) [3]uint32 {
	return [3]uint32{m.Indices[3*i], m.Indices[3*i+1], m.Indices[3*i+2]}
}

// Triangles resolves the index list into positioned triangles.
func (m Mesh) Triangles() []ms3.Triangle {
	tris := make([]ms3.Triangle, m.TriangleCount())
	for i := range tris {
		t := m.Triangle(i)
		tris[i] = ms3.Triangle{m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]}
	}
	return tris
}

// Validate checks the structural invariants of the mesh.
func (m Mesh) Validate() error {
	if m.Normals != nil && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("%d normals for %d vertices", len(m.Normals), len(m.Vertices))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("index count %d not a multiple of 3", len(m.Indices))
	}
	nv := uint32(len(m.Vertices))
	for i := 0; i < m.TriangleCount(); i++ {
		t := m.Triangle(i)
		if t[0] >= nv || t[1] >= nv || t[2] >= nv {
			return fmt.Errorf("triangle %d %v indexes past %d vertices", i, t, nv)
		}
		if t[0] == t[1] || t[1] == t[2] || t[2] == t[0] {
			return fmt.Errorf("triangle %d %v repeats a vertex", i, t)
		}
	}
	return nil
}

// SurfaceNet meshes the zero level surface of field over a cube of resolution³
// cells. When memoize is true every lattice point is evaluated exactly once
// up front, which pays off for expensive fields. The result does not depend
// on memoize.
func SurfaceNet(resolution int, field Field, memoize bool) (Mesh, error) {
	m := Mesher{Memoize: memoize}
	return m.Mesh(resolution, field)
}

// Mesher configures a surface nets run. The zero value is a sequential,
// non-memoizing mesher that splits quads along their shorter diagonal.
type Mesher struct {
	// Memoize caches all (resolution+1)³ field samples before meshing.
	Memoize bool
	// Workers is the number of goroutines used for sampling, vertex placement
	// and triangulation. Values of 1 or less run sequentially. When larger than
	// 1 the Field must be safe for concurrent use. Output does not depend on Workers.
	Workers int
	// FixedDiagonal always splits quads along the diagonal joining the current
	// cell and its opposite neighbor instead of the shorter one.
	FixedDiagonal bool
}

// Mesh runs surface nets over field. It returns a complete mesh or an error,
// never a partial result.
func (m *Mesher) Mesh(resolution int, field Field) (mesh Mesh, err error) {
	if resolution < 1 {
		return Mesh{}, ErrInvalidResolution
	} else if resolution > MaxResolution {
		return Mesh{}, ErrResolutionTooLarge
	} else if field == nil {
		return Mesh{}, ErrNilField
	}
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(*grid.RangeError)
			if !ok {
				panic(r)
			}
			mesh = Mesh{}
			err = fmt.Errorf("surfnet: lattice access: %w", rerr)
		}
	}()
	workers := m.Workers
	if workers < 1 {
		workers = 1
	}
	s := newSampler(resolution, field, m.Memoize, workers)
	net := placeVertices(s, workers)
	tr := triangulator{
		s:             s,
		net:           &net,
		fixedDiagonal: m.FixedDiagonal,
	}
	indices := tr.triangulate(workers)
	return Mesh{
		Vertices:          net.vertices,
		Normals:           net.normals,
		Indices:           indices,
		DegenerateNormals: net.degenerate,
	}, nil
}
