package graphics

import (
	"errors"
	"fmt"

	glpkg "github.com/tinyrange/fbview/internal/gowin/gl"
)

// CompileProgram compiles and links a vertex and fragment shader pair. The
// shader objects are deleted once the program is linked or on failure.
func CompileProgram(gl glpkg.OpenGL, vertexSrc, fragmentSrc string) (uint32, error) {
	vertexShader, err := compileShader(gl, glpkg.VertexShader, vertexSrc)
	if err != nil {
		return 0, fmt.Errorf("vertex shader compilation failed: %w", err)
	}

	fragmentShader, err := compileShader(gl, glpkg.FragmentShader, fragmentSrc)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, fmt.Errorf("fragment shader compilation failed: %w", err)
	}

	// Create program and link
	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	// Shaders can be deleted after linking
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, glpkg.LinkStatus, &status)
	if status == 0 {
		log := gl.GetProgramInfoLog(program)
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("program linking failed: %s", log)
	}

	return program, nil
}

func compileShader(gl glpkg.OpenGL, kind uint32, src string) (uint32, error) {
	shader := gl.CreateShader(kind)
	gl.ShaderSource(shader, src)
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, glpkg.CompileStatus, &status)
	if status == 0 {
		log := gl.GetShaderInfoLog(shader)
		gl.DeleteShader(shader)
		return 0, errors.New(log)
	}
	return shader, nil
}
