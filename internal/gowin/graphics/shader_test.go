package graphics

import (
	"testing"

	"github.com/tinyrange/fbview/internal/gowin/gl/softgl"
)

func TestCompileProgram(t *testing.T) {
	c := softgl.New(4, 4)
	program, err := CompileProgram(c, testFlatVS, testFlatFS)
	if err != nil {
		t.Fatalf("CompileProgram: %v", err)
	}
	if program == 0 {
		t.Fatal("program = 0")
	}
	if loc := c.GetUniformLocation(program, "u_color"); loc < 0 {
		t.Errorf("u_color location = %d", loc)
	}
	// Shader objects are released once linked.
	if live := c.Live(); live.Shaders != 0 || live.Programs != 1 {
		t.Errorf("live = %+v, want only the program", live)
	}
	c.DeleteProgram(program)
}

func TestCompileProgramFailure(t *testing.T) {
	c := softgl.New(4, 4)
	c.RejectShaders(true)
	if _, err := CompileProgram(c, testFlatVS, testFlatFS); err == nil {
		t.Fatal("CompileProgram succeeded")
	}
	if live := c.Live(); live != (softgl.Counts{}) {
		t.Errorf("live = %+v, want none", live)
	}
	if errs := c.Errors(); len(errs) != 0 {
		t.Errorf("GL errors = %v", errs)
	}
}
