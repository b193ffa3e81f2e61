package pbrt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScene(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.pbrt")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFileSimpleScene(t *testing.T) {
	path := writeScene(t, `
LookAt 0 0 -5  0 0 0  0 1 0
Camera "perspective" "float fov" [30]
Sampler "halton" "integer pixelsamples" [16]
Integrator "path"
Film "image" "string filename" "out.exr"

WorldBegin
Material "matte" "rgb Kd" [0.8 0.2 0.2]
Shape "sphere" "float radius" [1]
WorldEnd`)

	scene, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(scene.Shapes) != 1 {
		t.Fatalf("len(Shapes) = %d, want 1", len(scene.Shapes))
	}
	if scene.Camera.Kind != "perspective" {
		t.Errorf("Camera.Kind = %q", scene.Camera.Kind)
	}
	if scene.Film.Kind != "image" {
		t.Errorf("Film.Kind = %q", scene.Film.Kind)
	}
}

func TestOpenParseTakeSceneLifecycle(t *testing.T) {
	path := writeScene(t, `WorldBegin WorldEnd`)
	l, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := l.Parse(); err != ErrAlreadyParsed {
		t.Errorf("second Parse() = %v, want ErrAlreadyParsed", err)
	}
	s := l.TakeScene()
	if s == nil {
		t.Fatal("TakeScene returned nil")
	}
	if l.BorrowScene() != nil {
		t.Error("BorrowScene should be nil after TakeScene")
	}
}

func TestParseErrorReportsFileAndOffset(t *testing.T) {
	path := writeScene(t, `NotADirective`)
	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	var perr *ParseError
	if pe, ok := err.(*ParseError); ok {
		perr = pe
	} else {
		t.Fatalf("error is not *ParseError: %T", err)
	}
	if perr.File != path {
		t.Errorf("File = %q, want %q", perr.File, path)
	}
	if perr.Offset != 0 {
		t.Errorf("Offset = %d, want 0 (the unknown directive starts the file)", perr.Offset)
	}
}

func TestUndefinedNamedMaterialFailsFastByDefault(t *testing.T) {
	path := writeScene(t, `
WorldBegin
NamedMaterial "never_defined"
Shape "sphere"
WorldEnd`)
	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected a forward-reference error under the default FailFast policy")
	}
}

func TestLoadFromReader(t *testing.T) {
	src := `
WorldBegin
Material "matte" "rgb Kd" [0.1 0.2 0.3]
Shape "sphere" "float radius" [2]
WorldEnd`
	scene, err := Load(strings.NewReader(src), "<memory>")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(scene.Shapes) != 1 {
		t.Fatalf("len(Shapes) = %d, want 1", len(scene.Shapes))
	}
	if scene.Shapes[0].Entity.Kind != "sphere" {
		t.Errorf("Shapes[0].Kind = %q, want sphere", scene.Shapes[0].Entity.Kind)
	}
}

func TestUndefinedNamedMaterialWarnsUnderWarnAndIgnore(t *testing.T) {
	path := writeScene(t, `
WorldBegin
NamedMaterial "never_defined"
Shape "sphere"
WorldEnd`)
	l, err := Open(path, Options{ForwardRefPolicy: WarnAndIgnore})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(l.Warnings()) == 0 {
		t.Error("expected at least one warning")
	}
}
