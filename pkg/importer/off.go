package importer

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/Faultbox/blocks/pkg/math"
	"github.com/Faultbox/blocks/pkg/mesh"
	"github.com/Faultbox/blocks/pkg/serial"
)

// OFFMaterialID is the material given to every face of an OFF import.
const OFFMaterialID = 0

var offHeader = regexp.MustCompile(`^(ST)?(C)?(N)?(4)?(n)?OFF$`)

// offLayout describes the optional columns of each vertex record.
type offLayout struct {
	dim         int
	homogeneous bool
	normals     bool
	colors      bool
	texCoords   bool
}

// columns returns how many numbers a vertex record must carry.
func (l offLayout) columns() int {
	n := l.dim
	if l.homogeneous {
		n++
	}
	if l.normals {
		n += l.dim
	}
	if l.colors {
		n += 4
	}
	if l.texCoords {
		n += 2
	}
	return n
}

// ParseOFF reads an Object File Format document into one mesh with the
// given id. The [ST][C][N][4][n]OFF header variants are accepted; normals,
// colors and texture coordinates are validated and dropped. Homogeneous
// coordinates are divided through by w. Face indices are 0-based.
func ParseOFF(r io.Reader, meshID int) (*mesh.MMesh, error) {
	lr := newLineReader(r)
	fields, err := lr.next()
	if err != nil {
		return nil, offEOF(lr, err, "header")
	}
	m := offHeader.FindStringSubmatch(fields[0])
	if len(fields) != 1 || m == nil {
		return nil, lr.errorf("bad OFF header %q", fields[0])
	}
	layout := offLayout{
		dim:         3,
		texCoords:   m[1] != "",
		colors:      m[2] != "",
		normals:     m[3] != "",
		homogeneous: m[4] != "",
	}

	if m[5] != "" {
		if fields, err = lr.next(); err != nil {
			return nil, offEOF(lr, err, "dimension")
		}
		dim, err := strconv.Atoi(fields[0])
		if len(fields) != 1 || err != nil || dim < 1 || dim > 3 {
			return nil, lr.errorf("dimension must be 1, 2 or 3")
		}
		layout.dim = dim
	}

	if fields, err = lr.next(); err != nil {
		return nil, offEOF(lr, err, "counts")
	}
	if len(fields) < 2 {
		return nil, lr.errorf("expected vertex and face counts")
	}
	vertexCount, errV := strconv.Atoi(fields[0])
	faceCount, errF := strconv.Atoi(fields[1])
	if errV != nil || errF != nil || vertexCount < 0 || faceCount < 0 {
		return nil, lr.errorf("bad counts %q %q", fields[0], fields[1])
	}
	if err := checkVertexCount(vertexCount); err != nil {
		return nil, err
	}
	if err := checkFaceCount(faceCount); err != nil {
		return nil, err
	}

	// Counts come from the file; let the slices grow past a small start.
	vertices := make([]mesh.Vertex, 0, min(vertexCount, 4096))
	for i := 0; i < vertexCount; i++ {
		if fields, err = lr.next(); err != nil {
			return nil, offEOF(lr, err, "vertex")
		}
		loc, err := parseOFFVertex(fields, layout)
		if err != nil {
			return nil, lr.errorf("%v", err)
		}
		vertices = append(vertices, mesh.NewVertex(i, loc))
	}

	faces := make([]rawFace, 0, min(faceCount, 4096))
	for i := 0; i < faceCount; i++ {
		if fields, err = lr.next(); err != nil {
			return nil, offEOF(lr, err, "face")
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 0 {
			return nil, lr.errorf("bad face size %q", fields[0])
		}
		if n > serial.MaxVerticesPerFace {
			return nil, fmt.Errorf("%w: line %d: face has %d vertices", ErrLimitExceeded, lr.line, n)
		}
		if len(fields) < n+1 {
			return nil, lr.errorf("face lists %d of %d vertices", len(fields)-1, n)
		}
		// Anything after the indices is a face color, which is dropped.
		ids := make([]int, n)
		for j := range ids {
			if ids[j], err = strconv.Atoi(fields[j+1]); err != nil {
				return nil, lr.errorf("bad face index %q", fields[j+1])
			}
		}
		faces = append(faces, rawFace{vertexIDs: ids, materialID: OFFMaterialID})
	}

	return buildMesh(meshID, vertices, faces)
}

func parseOFFVertex(fields []string, layout offLayout) (math.Vec3, error) {
	if len(fields) < layout.columns() {
		return math.Vec3{}, fmt.Errorf("vertex has %d values, expected %d", len(fields), layout.columns())
	}
	values := make([]float32, layout.columns())
	for i := range values {
		v, ok := parseFloat(fields[i])
		if !ok {
			return math.Vec3{}, fmt.Errorf("bad number %q", fields[i])
		}
		values[i] = v
	}

	var coords [3]float32
	copy(coords[:], values[:layout.dim])
	loc := math.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}
	if layout.homogeneous {
		w := values[layout.dim]
		if w == 0 {
			return math.Vec3{}, errors.New("homogeneous coordinate w is 0")
		}
		loc = loc.Scale(1 / w)
	}
	if !loc.IsFinite() {
		return math.Vec3{}, errors.New("vertex is not finite")
	}
	return loc, nil
}

// offEOF turns a premature end of input into a syntax error.
func offEOF(lr *lineReader, err error, what string) error {
	if errors.Is(err, io.EOF) {
		return lr.errorf("unexpected end of file, expected %s", what)
	}
	return err
}
