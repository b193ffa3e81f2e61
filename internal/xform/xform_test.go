package xform

import (
	"testing"

	"github.com/deepteams/pbrtload/internal/mat4"
)

func TestPushPopPreservesFrame(t *testing.T) {
	s := NewStack()
	s.Apply(mat4.Translate(1, 2, 3))
	before := s.Current()
	if err := s.Push(); err != nil {
		t.Fatal(err)
	}
	s.Apply(mat4.Scale(2, 2, 2))
	if err := s.Pop(); err != nil {
		t.Fatal(err)
	}
	after := s.Current()
	if after != before {
		t.Errorf("frame after push/apply/pop = %v, want %v", after, before)
	}
}

func TestPopUnderflow(t *testing.T) {
	s := NewStack()
	if err := s.Pop(); err != ErrStackUnderflow {
		t.Errorf("Pop() on depth-1 stack = %v, want ErrStackUnderflow", err)
	}
}

func TestPushOverflow(t *testing.T) {
	s := NewStack()
	for i := 0; i < MaxDepth-1; i++ {
		if err := s.Push(); err != nil {
			t.Fatalf("unexpected overflow at depth %d: %v", i, err)
		}
	}
	if err := s.Push(); err != ErrStackOverflow {
		t.Errorf("Push() past MaxDepth = %v, want ErrStackOverflow", err)
	}
}

func TestCoordinateSystemRoundTrip(t *testing.T) {
	s := NewStack()
	s.Apply(mat4.Translate(5, 0, 0))
	s.CoordinateSystem("a")
	s.Clear()
	if err := s.CoordSysTransform("a"); err != nil {
		t.Fatal(err)
	}
	got := s.Current().Start
	want := mat4.Translate(5, 0, 0)
	if got != want {
		t.Errorf("CoordSysTransform restored %v, want %v", got, want)
	}
}

func TestCoordSysTransformUnknown(t *testing.T) {
	s := NewStack()
	if err := s.CoordSysTransform("nope"); err != ErrUnknownCoordSys {
		t.Errorf("CoordSysTransform(unknown) = %v, want ErrUnknownCoordSys", err)
	}
}

func TestActiveSelectorLimitsApply(t *testing.T) {
	s := NewStack()
	s.SetActive(true, false)
	s.Apply(mat4.Translate(1, 0, 0))
	f := s.Current()
	if f.Start == f.End {
		t.Error("Apply with active=(true,false) affected End, want only Start changed")
	}
}
