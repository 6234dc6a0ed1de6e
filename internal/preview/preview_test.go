package preview_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/surfnet/form3"
	"github.com/soypat/surfnet/internal/preview"
	"github.com/soypat/surfnet/render"
)

const (
	// imgDelta a normalized imgDelta parameter to describe how close the matching
	// should be performed (imgDelta=0: perfect match, imgDelta=1, loose match)
	imgDelta = 0
	width    = 160
	height   = 120
)

func torusModel(t *testing.T) []ms3.Triangle {
	t.Helper()
	s, err := form3.Torus(2, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	sn, err := render.NewSurfaceNets(s, render.SurfaceNetsConfig{Resolution: 24})
	if err != nil {
		t.Fatal(err)
	}
	model, err := render.RenderAll(sn)
	if err != nil {
		t.Fatal(err)
	}
	return model
}

func TestPreviewDeterministic(t *testing.T) {
	model := torusModel(t)
	view := preview.DefaultView(width, height)
	png1, err := preview.EncodePNG(model, view)
	if err != nil {
		t.Fatal(err)
	}
	png2, err := preview.EncodePNG(model, view)
	if err != nil {
		t.Fatal(err)
	}
	equal, err := preview.EqualPNG(png1, png2, imgDelta)
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("same model and view rendered different images")
	}

	view.Eye = ms3.Vec{X: 0.1, Y: -3, Z: 0.5}
	png3, err := preview.EncodePNG(model, view)
	if err != nil {
		t.Fatal(err)
	}
	equal, err = preview.EqualPNG(png1, png3, imgDelta)
	if err != nil {
		t.Fatal(err)
	}
	if equal {
		t.Error("different views rendered the same image")
	}
}

func TestWritePNG(t *testing.T) {
	name := filepath.Join(t.TempDir(), "torus.png")
	err := preview.WritePNG(name, torusModel(t), preview.DefaultView(width, height))
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(name)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty PNG file")
	}
}

func TestImageErrors(t *testing.T) {
	if _, err := preview.Image(nil, preview.DefaultView(width, height)); err == nil {
		t.Error("expected error for empty model")
	}
	model := []ms3.Triangle{{{}, {X: 1}, {Y: 1}}}
	if _, err := preview.Image(model, preview.DefaultView(0, height)); err == nil {
		t.Error("expected error for zero width")
	}
}
