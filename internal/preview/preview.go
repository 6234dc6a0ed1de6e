// Package preview rasterizes triangle meshes to images for quick visual
// inspection of rendered models.
package preview

import (
	"bytes"
	"errors"
	"image"
	"image/png"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/glgl/math/ms3"
	"gonum.org/v1/plot/cmpimg"
)

// View configures the camera. The mesh is fit into a bi-unit cube centered
// at the origin before drawing so positions are in that frame.
type View struct {
	// Eye is where the camera is located.
	Eye ms3.Vec
	// LookAt is the point the camera is looking at.
	LookAt ms3.Vec
	// Up is the camera's up direction.
	Up        ms3.Vec
	Near, Far float64
	// Width and Height of the output image in pixels.
	Width, Height int
	// Supersampling factor used for anti-aliasing.
	Scale int
}

// DefaultView looks at the origin from a corner with Z up.
func DefaultView(width, height int) View {
	return View{
		Eye:    ms3.Vec{X: 3, Y: 3, Z: 3},
		Up:     ms3.Vec{Z: 1},
		Near:   1,
		Far:    10,
		Width:  width,
		Height: height,
		Scale:  2,
	}
}

// Image draws the triangles with a phong shader.
func Image(model []ms3.Triangle, view View) (image.Image, error) {
	if len(model) == 0 {
		return nil, errors.New("empty triangle slice")
	} else if view.Width <= 0 || view.Height <= 0 {
		return nil, errors.New("invalid image dimensions")
	}
	scale := max(view.Scale, 1)
	const fovy = 30 // vertical field of view in degrees
	var (
		eye    = fauxglVec(view.Eye)
		center = fauxglVec(view.LookAt)
		up     = fauxglVec(view.Up)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
		color  = fauxgl.HexColor("#468966")
	)
	tris := make([]*fauxgl.Triangle, len(model))
	for i, t := range model {
		tris[i] = fauxgl.NewTriangleForPoints(fauxglVec(t[0]), fauxglVec(t[1]), fauxglVec(t[2]))
	}
	mesh := fauxgl.NewTriangleMesh(tris)
	mesh.BiUnitCube()

	context := fauxgl.NewContext(view.Width*scale, view.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(mesh)
	// Downsample for antialiasing.
	img := context.Image()
	if scale > 1 {
		img = resize.Resize(uint(view.Width), uint(view.Height), img, resize.Bilinear)
	}
	return img, nil
}

// WritePNG draws the triangles and saves the image as a PNG file at path.
func WritePNG(path string, model []ms3.Triangle, view View) error {
	img, err := Image(model, view)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}

// EncodePNG draws the triangles and returns the PNG encoded image.
func EncodePNG(model []ms3.Triangle, view View) ([]byte, error) {
	img, err := Image(model, view)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	err = png.Encode(&b, img)
	if err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// EqualPNG reports whether two PNG encoded images match. delta is normalized
// so that 0 requires a perfect match and 1 is a loose match.
func EqualPNG(png1, png2 []byte, delta float64) (bool, error) {
	return cmpimg.EqualApprox("png", png1, png2, delta)
}

func fauxglVec(v ms3.Vec) fauxgl.Vector {
	return fauxgl.V(float64(v.X), float64(v.Y), float64(v.Z))
}
