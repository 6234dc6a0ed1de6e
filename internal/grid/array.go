// Package grid implements a dense cubic 3D array indexed by integer triplets.
package grid

import "fmt"

// Array is a cube of Size()³ elements stored in x, y, z scan order so that
// element (x,y,z) lives at x*S*S + y*S + z.
type Array[T any] struct {
	size    int
	backing []T
}

// RangeError is the panic value of out of range accesses on an Array.
// Out of range accesses are bugs in the caller's scan bounds.
type RangeError struct {
	Size    int
	X, Y, Z int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("index out of range (size %d): %d, %d, %d", e.Size, e.X, e.Y, e.Z)
}

// New returns a zero valued Array of side size.
func New[T any](size int) *Array[T] {
	if size < 0 {
		panic("negative grid size")
	}
	return &Array[T]{size: size, backing: make([]T, size*size*size)}
}

// Generate builds an Array of side size calling fn exactly once per coordinate
// in ascending x, then y, then z order. fn may have side effects that depend on
// that order.
func Generate[T any](size int, fn func(x, y, z int) T) *Array[T] {
	a := New[T](size)
	i := 0
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				a.backing[i] = fn(x, y, z)
				i++
			}
		}
	}
	return a
}

// FromSlice wraps data as an Array of side size. len(data) must be size³.
func FromSlice[T any](size int, data []T) (*Array[T], error) {
	if size < 0 || len(data) != size*size*size {
		return nil, fmt.Errorf("grid: backing length %d does not match size %d", len(data), size)
	}
	return &Array[T]{size: size, backing: data}, nil
}

func (a *Array[T]) Size() int { return a.size }

// Len returns the number of elements, Size()³.
func (a *Array[T]) Len() int { return len(a.backing) }

// Data returns the backing slice in scan order.
func (a *Array[T]) Data() []T { return a.backing }

// Contains reports whether (x,y,z) is a valid coordinate.
func (a *Array[T]) Contains(x, y, z int) bool {
	return uint(x) < uint(a.size) && uint(y) < uint(a.size) && uint(z) < uint(a.size)
}

// At returns the element at (x,y,z). It panics with a *RangeError if any
// coordinate is outside [0, Size()).
func (a *Array[T]) At(x, y, z int) T {
	return a.backing[a.offset(x, y, z)]
}

// Set sets the element at (x,y,z). Same bounds rules as At.
func (a *Array[T]) Set(x, y, z int, v T) {
	a.backing[a.offset(x, y, z)] = v
}

func (a *Array[T]) offset(x, y, z int) int {
	if !a.Contains(x, y, z) {
		panic(&RangeError{Size: a.size, X: x, Y: y, Z: z})
	}
	return a.size*a.size*x + a.size*y + z
}
