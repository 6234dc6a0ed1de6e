// Package render turns signed distance functions into triangle meshes using
// surface nets and writes them out in common mesh file formats.
package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/surfnet"
	"github.com/soypat/surfnet/form3"
	"github.com/soypat/surfnet/internal/grid"
)

// Renderer streams the triangles of a model. ReadTriangles returns io.EOF
// once all triangles have been read.
type Renderer interface {
	ReadTriangles(dst []ms3.Triangle) (n int, err error)
}

// SurfaceNetsConfig configures a SurfaceNets renderer.
type SurfaceNetsConfig struct {
	// Resolution is the number of cells along the longest side of the
	// shape's bounding box.
	Resolution int
	// Workers sets the parallelism of the meshing phases. Values below 2
	// mesh on the calling goroutine.
	Workers int
	// FixedDiagonal splits every quad along the same diagonal.
	FixedDiagonal bool
}

// SurfaceNets renders an SDF3 by sampling it over a cubic lattice that
// encloses its bounds and meshing the lattice with surface nets.
type SurfaceNets struct {
	s        form3.SDF3
	cfg      SurfaceNetsConfig
	origin   ms3.Vec
	cellSize float32

	meshed bool
	mesh   surfnet.Mesh
	// next is the index of the next triangle to be read.
	next int
}

// NewSurfaceNets returns a renderer for s.
func NewSurfaceNets(s form3.SDF3, cfg SurfaceNetsConfig) (*SurfaceNets, error) {
	if s == nil {
		return nil, errors.New("nil SDF3")
	} else if cfg.Resolution < 2 {
		return nil, errors.New("surface nets resolution must be 2 or larger")
	} else if cfg.Resolution > surfnet.MaxResolution {
		return nil, fmt.Errorf("resolution %d: %w", cfg.Resolution, surfnet.ErrResolutionTooLarge)
	}
	// Scale the bounding box about the center so the boundaries are not on
	// the object surface.
	bb := s.Bounds()
	size := ms3.Sub(bb.Max, bb.Min)
	longAxis := 1.01 * math32.Max(size.X, math32.Max(size.Y, size.Z))
	if !(longAxis > 0) || math32.IsInf(longAxis, 0) {
		return nil, fmt.Errorf("bad SDF3 bounds %+v", bb)
	}
	center := ms3.Scale(0.5, ms3.Add(bb.Min, bb.Max))
	half := ms3.Vec{X: longAxis / 2, Y: longAxis / 2, Z: longAxis / 2}
	return &SurfaceNets{
		s:        s,
		cfg:      cfg,
		origin:   ms3.Sub(center, half),
		cellSize: longAxis / float32(cfg.Resolution),
	}, nil
}

// CellSize returns the world-space edge length of a lattice cell.
func (sn *SurfaceNets) CellSize() float32 { return sn.cellSize }

// Mesh returns the indexed mesh in world coordinates. Vertex normals are
// the normals of the sampled lattice, which is uniformly scaled. The returned
// slices are copies and may be modified freely.
func (sn *SurfaceNets) Mesh() (surfnet.Mesh, error) {
	mesh, err := sn.cachedMesh()
	if err != nil {
		return surfnet.Mesh{}, err
	}
	return surfnet.Mesh{
		Vertices:          append([]ms3.Vec(nil), mesh.Vertices...),
		Normals:           append([]ms3.Vec(nil), mesh.Normals...),
		Indices:           append([]uint32(nil), mesh.Indices...),
		DegenerateNormals: mesh.DegenerateNormals,
	}, nil
}

func (sn *SurfaceNets) cachedMesh() (surfnet.Mesh, error) {
	if sn.meshed {
		return sn.mesh, nil
	}
	lattice, err := sn.sample()
	if err != nil {
		return surfnet.Mesh{}, err
	}
	mesher := surfnet.Mesher{
		Workers:       sn.cfg.Workers,
		FixedDiagonal: sn.cfg.FixedDiagonal,
	}
	mesh, err := mesher.Mesh(sn.cfg.Resolution, lattice.At)
	if err != nil {
		return surfnet.Mesh{}, err
	}
	for i, v := range mesh.Vertices {
		mesh.Vertices[i] = sn.toWorld(v)
	}
	sn.mesh = mesh
	sn.meshed = true
	return mesh, nil
}

// ReadTriangles implements Renderer. The mesh is computed on the first call.
func (sn *SurfaceNets) ReadTriangles(dst []ms3.Triangle) (n int, err error) {
	if len(dst) == 0 {
		return 0, io.ErrShortBuffer
	}
	mesh, err := sn.cachedMesh()
	if err != nil {
		return 0, err
	}
	nt := mesh.TriangleCount()
	for n < len(dst) && sn.next < nt {
		idx := mesh.Triangle(sn.next)
		dst[n] = ms3.Triangle{mesh.Vertices[idx[0]], mesh.Vertices[idx[1]], mesh.Vertices[idx[2]]}
		n++
		sn.next++
	}
	if sn.next == nt {
		return n, io.EOF
	}
	return n, nil
}

// sample evaluates the SDF on the (N+1)³ lattice, one batched call per x slab.
func (sn *SurfaceNets) sample() (*grid.Array[float32], error) {
	size := sn.cfg.Resolution + 1
	lattice := grid.New[float32](size)
	slabLen := size * size
	pos := make([]ms3.Vec, slabLen)
	var vp form3.VecPool
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				pos[y*size+z] = sn.toWorld(ms3.Vec{X: float32(x), Y: float32(y), Z: float32(z)})
			}
		}
		// Slabs are contiguous in scan order.
		dist := lattice.Data()[x*slabLen : (x+1)*slabLen]
		err := sn.s.Evaluate(pos, dist, &vp)
		if err != nil {
			return nil, fmt.Errorf("evaluating slab x=%d: %w", x, err)
		}
	}
	if err := vp.AssertAllReleased(); err != nil {
		return nil, err
	}
	return lattice, nil
}

func (sn *SurfaceNets) toWorld(p ms3.Vec) ms3.Vec {
	return ms3.Add(sn.origin, ms3.Scale(sn.cellSize, p))
}

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like the io.ReadAll implementation.
func RenderAll(r Renderer) ([]ms3.Triangle, error) {
	var err error
	var nt int
	result := make([]ms3.Triangle, 0, 1<<12)
	buf := make([]ms3.Triangle, 1024)
	for err == nil {
		nt, err = r.ReadTriangles(buf)
		result = append(result, buf[:nt]...)
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}
