package surfnet

import (
	"sync"

	"github.com/soypat/surfnet/internal/grid"
	"github.com/unixpickle/essentials"
)

// sampler serves field values on the (resolution+1)³ lattice, either straight
// from the field or from a cache filled once up front.
type sampler struct {
	resolution int
	field      Field
	cache      *grid.Array[float32]
}

func newSampler(resolution int, field Field, memoize bool, workers int) *sampler {
	s := &sampler{resolution: resolution, field: field}
	if !memoize {
		return s
	}
	size := resolution + 1
	if workers <= 1 {
		s.cache = grid.Generate[float32](size, field)
		return s
	}
	cache := grid.New[float32](size)
	forEachSlab(workers, size, func(x int) {
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				cache.Set(x, y, z, field(x, y, z))
			}
		}
	})
	s.cache = cache
	return s
}

// sample returns the field value at lattice point (x,y,z).
func (s *sampler) sample(x, y, z int) float32 {
	if s.cache != nil {
		return s.cache.At(x, y, z)
	}
	if n := uint(s.resolution); uint(x) > n || uint(y) > n || uint(z) > n {
		panic(&grid.RangeError{Size: s.resolution + 1, X: x, Y: y, Z: z})
	}
	return s.field(x, y, z)
}

func (s *sampler) sampleAt(p ivec) float32 { return s.sample(p.x, p.y, p.z) }

// forEachSlab calls fn for every x in [0,n) using up to workers goroutines.
// A panic in any call is re-raised on the calling goroutine once all calls return.
func forEachSlab(workers, n int, fn func(x int)) {
	if workers <= 1 {
		for x := 0; x < n; x++ {
			fn(x)
		}
		return
	}
	var (
		mu       sync.Mutex
		panicked any
	)
	essentials.ConcurrentMap(workers, n, func(x int) {
		defer func() {
			if r := recover(); r != nil {
				mu.Lock()
				if panicked == nil {
					panicked = r
				}
				mu.Unlock()
			}
		}()
		fn(x)
	})
	if panicked != nil {
		panic(panicked)
	}
}
