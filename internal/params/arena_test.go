package params

import "testing"

func TestArenaPushAndFind(t *testing.T) {
	a := NewArena()
	a.PushFloats("Kd", RGB, []float64{0.5, 0.5, 0.5})
	a.PushString("filename", String, "mesh.ply")

	info, ok := a.Find("Kd", RGB)
	if !ok {
		t.Fatal("Find(Kd) not found")
	}
	got := a.Floats(info)
	want := []float64{0.5, 0.5, 0.5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Floats()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if _, ok := a.Find("Kd", Int); ok {
		t.Error("Find(Kd, Int) should fail: Kd is RGB not Int")
	}

	fn, ok := a.Find("filename", String)
	if !ok || a.String(fn) != "mesh.ply" {
		t.Errorf("filename = %q, ok=%v", a.String(fn), ok)
	}
}

func TestArenaClearResetsAndShrinks(t *testing.T) {
	a := NewArena()
	big := make([]float64, (softCapBytes/8)+100)
	a.PushFloats("big", Float, big)
	a.Clear()
	if len(a.infos) != 0 {
		t.Errorf("infos not cleared: %d entries remain", len(a.infos))
	}
	if cap(a.temp) > softCapBytes {
		t.Errorf("temp not shrunk: cap=%d, want <= %d", cap(a.temp), softCapBytes)
	}
}

func TestLookupTypeAliases(t *testing.T) {
	cases := map[string]Type{
		"point":   Point3,
		"vector":  Vector3,
		"normal":  Normal3,
		"color":   RGB,
		"integer": Int,
	}
	for name, want := range cases {
		got, ok := LookupType(name)
		if !ok || got != want {
			t.Errorf("LookupType(%q) = (%v,%v), want (%v,true)", name, got, ok, want)
		}
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()
	a := in.Intern("Kd")
	b := in.Intern("Kd")
	if a != b {
		t.Errorf("Intern did not return canonical string")
	}
}
