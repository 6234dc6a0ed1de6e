package form3

import (
	"errors"
	"fmt"

	"github.com/soypat/glgl/math/ms3"
)

// VecPool serves as a pool of ms3.Vec and float32 slices for evaluating
// composite SDFs while reducing garbage generation.
type VecPool struct {
	V3    bufPool[ms3.Vec]
	Float bufPool[float32]
}

// AssertAllReleased checks all buffers are not in use. Should be called
// after ending a run to find leaks.
func (vp *VecPool) AssertAllReleased() error {
	err := vp.Float.assertAllReleased()
	if err != nil {
		return err
	}
	return vp.V3.assertAllReleased()
}

// GetVecPool asserts the userData as a VecPool. If assert fails then
// an error is returned with information on what went wrong.
func GetVecPool(userData any) (*VecPool, error) {
	vp, ok := userData.(*VecPool)
	if !ok {
		vper, ok := userData.(interface{ VecPool() *VecPool })
		if !ok {
			return nil, fmt.Errorf("want userData type *form3.VecPool for evaluation, got %T", userData)
		}
		vp = vper.VecPool()
		if vp == nil {
			return nil, fmt.Errorf("nil return value from VecPool method of %T", userData)
		}
	}
	return vp, nil
}

type bufPool[T any] struct {
	_ins      [][]T
	_acquired []bool
}

// Acquire returns an unused buffer of length minLength, reusing a released one if possible.
func (bp *bufPool[T]) Acquire(minLength int) []T {
	for i, locked := range bp._acquired {
		if !locked && len(bp._ins[i]) >= minLength {
			bp._acquired[i] = true
			return bp._ins[i][:minLength]
		}
	}
	newSlice := make([]T, max(minLength, 1))
	bp._ins = append(bp._ins, newSlice)
	bp._acquired = append(bp._acquired, true)
	return newSlice[:minLength]
}

// Release returns a buffer obtained from Acquire to the pool.
func (bp *bufPool[T]) Release(buf []T) error {
	if cap(buf) == 0 {
		return errors.New("release of empty buffer")
	}
	buf = buf[:1]
	for i, instance := range bp._ins {
		if &instance[0] == &buf[0] {
			if !bp._acquired[i] {
				return errors.New("release of unacquired resource")
			}
			bp._acquired[i] = false
			return nil
		}
	}
	return errors.New("release of nonexistent resource")
}

func (bp *bufPool[T]) assertAllReleased() error {
	for _, locked := range bp._acquired {
		if locked {
			return fmt.Errorf("locked %T resource found in form3.bufPool.assertAllReleased, leak?", *new(T))
		}
	}
	return nil
}
