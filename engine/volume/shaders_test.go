package volume

import (
	"strings"
	"testing"

	"github.com/gogpu/naga"
)

func compileWGSL(t *testing.T, name, source string) {
	t.Helper()
	spirv, err := naga.Compile(source)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
			t.Skipf("Skipping: naga feature not yet implemented: %v", err)
		}
		t.Fatalf("failed to compile %s: %v", name, err)
	}
	if len(spirv) < 4 {
		t.Fatalf("%s: SPIR-V too short", name)
	}
	magic := uint32(spirv[0]) | uint32(spirv[1])<<8 | uint32(spirv[2])<<16 | uint32(spirv[3])<<24
	if magic != 0x07230203 {
		t.Errorf("%s: SPIR-V magic %#x, want 0x07230203", name, magic)
	}
}

func TestVertexShaderCompiles(t *testing.T) {
	s := NewVertexShader()
	compileWGSL(t, s.Key(), s.Source())

	layout := s.VertexLayout(0)
	if len(layout) != 1 || layout[0].ArrayStride != 16 {
		t.Errorf("vertex layout %+v does not match QuadVertex", layout)
	}
}

func TestFragmentShaderCompiles(t *testing.T) {
	s := NewFragmentShader()
	if strings.Contains(s.Source(), "@oxy:group") {
		t.Fatal("group annotations left in the processed source")
	}
	compileWGSL(t, s.Key(), s.Source())
}
