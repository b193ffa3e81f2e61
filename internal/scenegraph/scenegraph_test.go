package scenegraph

import "testing"

func TestNewSceneInitializesNamedMedia(t *testing.T) {
	s := NewScene()
	if s.NamedMedia == nil {
		t.Fatal("NamedMedia not initialized")
	}
	if len(s.Shapes) != 0 {
		t.Errorf("Shapes = %v, want empty", s.Shapes)
	}
}

func TestAddersReturnSequentialIndices(t *testing.T) {
	s := NewScene()
	i0 := s.AddShape(Shape{Entity: Entity{Kind: "sphere"}})
	i1 := s.AddShape(Shape{Entity: Entity{Kind: "trianglemesh"}})
	if i0 != 0 || i1 != 1 {
		t.Fatalf("AddShape indices = %d, %d, want 0, 1", i0, i1)
	}
	if len(s.Shapes) != 2 {
		t.Fatalf("len(Shapes) = %d, want 2", len(s.Shapes))
	}

	m0 := s.AddMaterial(Material{Entity: Entity{Kind: "matte"}})
	m1 := s.AddMaterial(Material{Entity: Entity{Kind: "glass"}})
	if m0 != 0 || m1 != 1 {
		t.Fatalf("AddMaterial indices = %d, %d, want 0, 1", m0, m1)
	}

	l0 := s.AddLight(Light{Entity: Entity{Kind: "point"}})
	if l0 != 0 {
		t.Fatalf("AddLight index = %d, want 0", l0)
	}

	a0 := s.AddAreaLight(AreaLight{Entity: Entity{Kind: "diffuse"}})
	if a0 != 0 {
		t.Fatalf("AddAreaLight index = %d, want 0", a0)
	}

	t0 := s.AddTexture(Texture{Entity: Entity{Kind: "constant"}, DataType: "float"})
	if t0 != 0 {
		t.Fatalf("AddTexture index = %d, want 0", t0)
	}

	md0 := s.AddMedium(Medium{Entity: Entity{Kind: "homogeneous"}})
	if md0 != 0 {
		t.Fatalf("AddMedium index = %d, want 0", md0)
	}
}

func TestNoIndexIsAllOnes(t *testing.T) {
	if NoIndex != Index(0xFFFFFFFF) {
		t.Errorf("NoIndex = %#x, want 0xFFFFFFFF", uint32(NoIndex))
	}
}
