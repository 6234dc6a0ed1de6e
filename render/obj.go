package render

import (
	"bufio"
	"errors"
	"io"
	"strconv"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/surfnet"
)

// WriteOBJ writes an indexed mesh in Wavefront OBJ format. Each vertex is
// followed by its normal and faces reference both with 1-based indices.
func WriteOBJ(w io.Writer, mesh surfnet.Mesh) error {
	if len(mesh.Normals) != len(mesh.Vertices) {
		return errors.New("mesh has mismatched vertex and normal count")
	}
	bw := bufio.NewWriter(w)
	var line []byte
	for i, v := range mesh.Vertices {
		line = appendVec(append(line[:0], 'v'), v)
		line = appendVec(append(line, "\nvn"...), mesh.Normals[i])
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	nv := uint64(len(mesh.Vertices))
	for i := 0; i < mesh.TriangleCount(); i++ {
		line = append(line[:0], 'f')
		for _, idx := range mesh.Triangle(i) {
			if uint64(idx) >= nv {
				return errors.New("mesh index out of range")
			}
			k := uint64(idx) + 1
			line = append(line, ' ')
			line = strconv.AppendUint(line, k, 10)
			line = append(line, "//"...)
			line = strconv.AppendUint(line, k, 10)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func appendVec(b []byte, v ms3.Vec) []byte {
	for _, f := range [3]float32{v.X, v.Y, v.Z} {
		b = append(b, ' ')
		b = strconv.AppendFloat(b, float64(f), 'g', -1, 32)
	}
	return b
}
