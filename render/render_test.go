package render_test

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/deadsy/sdfx/obj"
	sdfxrender "github.com/deadsy/sdfx/render"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/surfnet"
	"github.com/soypat/surfnet/form3"
	"github.com/soypat/surfnet/render"
	"gonum.org/v1/gonum/spatial/r3"
)

const benchQuality = 200

func newSphereRenderer(t testing.TB, r float32, cfg render.SurfaceNetsConfig) *render.SurfaceNets {
	t.Helper()
	s, err := form3.Sphere(r)
	if err != nil {
		t.Fatal(err)
	}
	sn, err := render.NewSurfaceNets(s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return sn
}

func TestSurfaceNetsSphere(t *testing.T) {
	const r = 1
	sn := newSphereRenderer(t, r, render.SurfaceNetsConfig{Resolution: 32})
	mesh, err := sn.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if err := mesh.Validate(); err != nil {
		t.Fatal(err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("no triangles")
	}
	tol := sn.CellSize()
	for i, v := range mesh.Vertices {
		if d := math32.Abs(ms3.Norm(v) - r); d > tol {
			t.Fatalf("vertex %d at %v is %f off the surface", i, v, d)
		}
		if ms3.Norm(mesh.Normals[i]) == 0 || dot(mesh.Normals[i], v) <= 0 {
			t.Fatalf("normal %d does not point outwards", i)
		}
	}
	tris, err := render.RenderAll(sn)
	if err != nil {
		t.Fatal(err)
	}
	if len(tris) != mesh.TriangleCount() {
		t.Fatalf("read %d triangles, mesh has %d", len(tris), mesh.TriangleCount())
	}
	if !reflect.DeepEqual(tris, mesh.Triangles()) {
		t.Error("streamed triangles differ from mesh triangles")
	}
	// Renderer is exhausted.
	n, err := sn.ReadTriangles(make([]ms3.Triangle, 8))
	if n != 0 || err != io.EOF {
		t.Errorf("got %d, %v after end of model, want 0, io.EOF", n, err)
	}
}

func TestSurfaceNetsMeshIsCopy(t *testing.T) {
	sn := newSphereRenderer(t, 1, render.SurfaceNetsConfig{Resolution: 10})
	mesh, err := sn.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	want := mesh.Triangles()
	for i := range mesh.Vertices {
		mesh.Vertices[i] = ms3.Vec{}
	}
	for i := range mesh.Indices {
		mesh.Indices[i] = 0
	}
	got, err := render.RenderAll(sn)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Error("modifying the returned mesh changed the rendered triangles")
	}
}

func TestSurfaceNetsParallel(t *testing.T) {
	a, _ := form3.Sphere(1)
	b := form3.Translate(a, ms3.Vec{X: 1.2, Z: 0.3})
	u, err := form3.Union(a, b)
	if err != nil {
		t.Fatal(err)
	}
	var meshes []surfnet.Mesh
	for _, workers := range []int{1, 4} {
		sn, err := render.NewSurfaceNets(u, render.SurfaceNetsConfig{Resolution: 24, Workers: workers})
		if err != nil {
			t.Fatal(err)
		}
		mesh, err := sn.Mesh()
		if err != nil {
			t.Fatal(err)
		}
		meshes = append(meshes, mesh)
	}
	if !reflect.DeepEqual(meshes[0], meshes[1]) {
		t.Error("parallel rendering changed the mesh")
	}
}

type failingSDF struct{ form3.SDF3 }

var errEval = errors.New("evaluation failed")

func (failingSDF) Evaluate(pos []ms3.Vec, dist []float32, userData any) error { return errEval }

func TestSurfaceNetsErrors(t *testing.T) {
	s, _ := form3.Sphere(1)
	if _, err := render.NewSurfaceNets(s, render.SurfaceNetsConfig{Resolution: 1}); err == nil {
		t.Error("expected error for resolution 1")
	}
	if _, err := render.NewSurfaceNets(nil, render.SurfaceNetsConfig{Resolution: 8}); err == nil {
		t.Error("expected error for nil SDF")
	}
	_, err := render.NewSurfaceNets(s, render.SurfaceNetsConfig{Resolution: surfnet.MaxResolution + 1})
	if !errors.Is(err, surfnet.ErrResolutionTooLarge) {
		t.Errorf("got %v, want ErrResolutionTooLarge", err)
	}
	_, err = render.NewSurfaceNets(s, render.SurfaceNetsConfig{Resolution: 100000})
	if !errors.Is(err, surfnet.ErrResolutionTooLarge) {
		t.Errorf("got %v, want ErrResolutionTooLarge", err)
	}
	sn, err := render.NewSurfaceNets(failingSDF{s}, render.SurfaceNetsConfig{Resolution: 8})
	if err != nil {
		t.Fatal(err)
	}
	_, err = render.RenderAll(sn)
	if !errors.Is(err, errEval) {
		t.Errorf("got %v, want evaluation error", err)
	}
	if _, err := sn.ReadTriangles(nil); err != io.ErrShortBuffer {
		t.Errorf("got %v, want io.ErrShortBuffer", err)
	}
}

func TestSTLCreateWriteRead(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "sphere.stl")
	err := render.CreateSTL(filename, newSphereRenderer(t, 2, render.SurfaceNetsConfig{Resolution: 20}))
	if err != nil {
		t.Fatal(err)
	}
	bfile, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	model, err := render.RenderAll(newSphereRenderer(t, 2, render.SurfaceNetsConfig{Resolution: 20}))
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	n, err := render.WriteBinarySTL(&b, model)
	if err != nil {
		t.Fatal(err)
	}
	if n != 84+50*len(model) || b.Len() != len(bfile) {
		t.Fatal("WriteBinarySTL and CreateSTL output length mismatch")
	}
	if !bytes.Equal(b.Bytes(), bfile) {
		t.Fatal("WriteBinarySTL and CreateSTL output mismatch")
	}
	got, err := render.ReadBinarySTL(bytes.NewReader(bfile))
	if err != nil && !errors.Is(err, render.ErrNormalMismatch) {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, model) {
		t.Error("STL round trip changed the model")
	}
}

func TestReadBinarySTLErrors(t *testing.T) {
	if _, err := render.ReadBinarySTL(bytes.NewReader(make([]byte, 10))); err == nil {
		t.Error("expected error for truncated header")
	}
	if _, err := render.ReadBinarySTL(bytes.NewReader(make([]byte, 84))); err == nil {
		t.Error("expected error for zero triangle count")
	}
	tri := []ms3.Triangle{{{}, {X: 1}, {Y: 1}}}
	var b bytes.Buffer
	render.WriteBinarySTL(&b, tri)
	if _, err := render.ReadBinarySTL(bytes.NewReader(b.Bytes()[:b.Len()-10])); err == nil {
		t.Error("expected error for truncated triangle")
	}
	if _, err := render.WriteBinarySTL(&b, nil); err == nil {
		t.Error("expected error writing empty model")
	}
}

func TestWriteOBJ(t *testing.T) {
	sn := newSphereRenderer(t, 1, render.SurfaceNetsConfig{Resolution: 12})
	mesh, err := sn.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	err = render.WriteOBJ(&b, mesh)
	if err != nil {
		t.Fatal(err)
	}
	counts := make(map[string]int)
	var firstFace string
	scanner := bufio.NewScanner(&b)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		counts[fields[0]]++
		if fields[0] == "f" && firstFace == "" {
			firstFace = scanner.Text()
		}
	}
	if counts["v"] != len(mesh.Vertices) || counts["vn"] != len(mesh.Normals) || counts["f"] != mesh.TriangleCount() {
		t.Errorf("got record counts %v for %d vertices and %d triangles", counts, len(mesh.Vertices), mesh.TriangleCount())
	}
	idx := mesh.Triangle(0)
	var want strings.Builder
	want.WriteString("f")
	for _, i := range idx {
		k := strconv.FormatUint(uint64(i)+1, 10)
		want.WriteString(" " + k + "//" + k)
	}
	if firstFace != want.String() {
		t.Errorf("got face %q, want %q", firstFace, want.String())
	}

	mesh.Normals = mesh.Normals[1:]
	if err := render.WriteOBJ(io.Discard, mesh); err == nil {
		t.Error("expected error for mismatched normals")
	}
}

func TestFromR3(t *testing.T) {
	const r = 1.5
	sphere := func(p r3.Vec) float64 { return r3.Norm(p) - r }
	bb := r3.Box{Min: r3.Vec{X: -r, Y: -r, Z: -r}, Max: r3.Vec{X: r, Y: r, Z: r}}
	s, err := render.FromR3(sphere, bb)
	if err != nil {
		t.Fatal(err)
	}
	sn, err := render.NewSurfaceNets(s, render.SurfaceNetsConfig{Resolution: 16})
	if err != nil {
		t.Fatal(err)
	}
	mesh, err := sn.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range mesh.Vertices {
		if d := math.Abs(float64(ms3.Norm(v)) - r); d > float64(sn.CellSize()) {
			t.Fatalf("vertex %v is %f off the surface", v, d)
		}
	}
	if _, err := render.FromR3(sphere, r3.Box{}); err == nil {
		t.Error("expected error for empty bounds")
	}
}

func dot(a, b ms3.Vec) float32 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func BenchmarkSDFXBolt(b *testing.B) {
	stdout := os.Stdout
	defer func() {
		os.Stdout = stdout // pesky sdfx prints out stuff
	}()
	os.Stdout, _ = os.Open(os.DevNull)
	output := filepath.Join(b.TempDir(), "sdfx_bolt.stl")
	object, _ := obj.Bolt(&obj.BoltParms{
		Thread:      "npt_1/2",
		Style:       "hex",
		Tolerance:   0.1,
		TotalLength: 20,
		ShankLength: 10,
	})
	for i := 0; i < b.N; i++ {
		sdfxrender.ToSTL(object, benchQuality, output, &sdfxrender.MarchingCubesOctree{})
	}
}

func BenchmarkSurfaceNetsGyroid(b *testing.B) {
	output := filepath.Join(b.TempDir(), "gyroid.stl")
	bb := ms3.Box{Min: ms3.Vec{X: -10, Y: -10, Z: -10}, Max: ms3.Vec{X: 10, Y: 10, Z: 10}}
	g, _ := form3.Gyroid(bb, 8, 1)
	s, _ := form3.Sphere(10)
	object, _ := form3.Intersection(g, s)
	for i := 0; i < b.N; i++ {
		sn, _ := render.NewSurfaceNets(object, render.SurfaceNetsConfig{Resolution: benchQuality, Workers: 4})
		err := render.CreateSTL(output, sn)
		if err != nil {
			b.Fatal(err)
		}
	}
}
