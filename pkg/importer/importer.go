// Package importer builds meshes from common text mesh formats (Wavefront
// OBJ and OFF) so they can be written into blocks files.
package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/blocks/pkg/math"
	"github.com/Faultbox/blocks/pkg/mesh"
	"github.com/Faultbox/blocks/pkg/serial"
)

// Import errors.
var (
	ErrSyntax        = errors.New("import syntax error")
	ErrLimitExceeded = errors.New("import exceeds mesh limits")
)

// maxLineLength allows face records with the maximum number of corners.
const maxLineLength = 1 << 20

// rawFace is a face as read, before its vertex ids are checked.
type rawFace struct {
	vertexIDs  []int
	materialID int
}

// lineReader yields the fields of non-empty lines with '#' comments removed.
type lineReader struct {
	scanner *bufio.Scanner
	line    int
}

func newLineReader(r io.Reader) *lineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &lineReader{scanner: scanner}
}

// next returns the fields of the next non-empty line. At end of input it
// returns io.EOF, or the scanner's error if reading failed.
func (lr *lineReader) next() ([]string, error) {
	for lr.scanner.Scan() {
		lr.line++
		text := lr.scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		if fields := strings.Fields(text); len(fields) > 0 {
			return fields, nil
		}
	}
	if err := lr.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (lr *lineReader) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, lr.line, fmt.Sprintf(format, args...))
}

func parseFloat(s string) (float32, bool) {
	f, err := strconv.ParseFloat(s, 32)
	return float32(f), err == nil
}

// parseVec3 parses three coordinates starting at fields[0].
func parseVec3(fields []string) (math.Vec3, bool) {
	if len(fields) < 3 {
		return math.Vec3{}, false
	}
	x, okX := parseFloat(fields[0])
	y, okY := parseFloat(fields[1])
	z, okZ := parseFloat(fields[2])
	v := math.Vec3{X: x, Y: y, Z: z}
	return v, okX && okY && okZ && v.IsFinite()
}

// checkVertexCount rejects meshes the container could not hold.
func checkVertexCount(n int) error {
	if n > serial.MaxVerticesPerMesh {
		return fmt.Errorf("%w: more than %d vertices", ErrLimitExceeded, serial.MaxVerticesPerMesh)
	}
	return nil
}

func checkFaceCount(n int) error {
	if n > serial.MaxFacesPerMesh {
		return fmt.Errorf("%w: more than %d faces", ErrLimitExceeded, serial.MaxFacesPerMesh)
	}
	return nil
}

// buildMesh checks the parsed faces against the vertices and assembles the mesh.
func buildMesh(meshID int, vertices []mesh.Vertex, faces []rawFace) (*mesh.MMesh, error) {
	lookup := make(map[int]mesh.Vertex, len(vertices))
	for _, v := range vertices {
		lookup[v.ID()] = v
	}
	built := make([]*mesh.Face, 0, len(faces))
	for i, f := range faces {
		face, err := mesh.NewFace(i, f.vertexIDs, lookup, mesh.Properties{MaterialID: f.materialID})
		if err != nil {
			return nil, err
		}
		built = append(built, face)
	}
	return mesh.New(meshID, math.Zero, math.QuatIdentity(), mesh.GroupNone, vertices, built)
}
