package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/blocks/pkg/mesh"
	"github.com/Faultbox/blocks/pkg/serial"
)

// DefaultMaterialName is the material in effect before the first usemtl.
const DefaultMaterialName = "mat0"

// MaterialResolver maps an OBJ material name to a material id.
type MaterialResolver func(name string) int

// ResolveMaterialName maps names of the form "matN" to N. Any other name
// resolves to material 1.
func ResolveMaterialName(name string) int {
	if rest, ok := strings.CutPrefix(name, "mat"); ok {
		if id, err := strconv.Atoi(rest); err == nil {
			return id
		}
	}
	return 1
}

// ParseOBJ reads a Wavefront OBJ document into one mesh with the given id.
// Only geometry and material assignment are kept: v, f and usemtl records.
// Texture coordinates, normals and grouping records are ignored. A nil
// resolve uses ResolveMaterialName.
//
// Face vertices keep the order they have in the file. Indices are 1-based;
// negative indices count back from the most recent vertex.
func ParseOBJ(r io.Reader, meshID int, resolve MaterialResolver) (*mesh.MMesh, error) {
	if resolve == nil {
		resolve = ResolveMaterialName
	}
	lr := newLineReader(r)
	material := resolve(DefaultMaterialName)

	var vertices []mesh.Vertex
	var faces []rawFace
	for {
		fields, err := lr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch fields[0] {
		case "v":
			loc, ok := parseVec3(fields[1:])
			if !ok {
				return nil, lr.errorf("bad vertex %q", strings.Join(fields[1:], " "))
			}
			if err := checkVertexCount(len(vertices) + 1); err != nil {
				return nil, err
			}
			vertices = append(vertices, mesh.NewVertex(len(vertices), loc))

		case "f":
			if len(fields) < 4 {
				return nil, lr.errorf("face needs at least 3 vertices, has %d", len(fields)-1)
			}
			if len(fields)-1 > serial.MaxVerticesPerFace {
				return nil, fmt.Errorf("%w: line %d: face has %d vertices", ErrLimitExceeded, lr.line, len(fields)-1)
			}
			if err := checkFaceCount(len(faces) + 1); err != nil {
				return nil, err
			}
			ids := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				id, err := objVertexIndex(tok, len(vertices))
				if err != nil {
					return nil, lr.errorf("%v", err)
				}
				ids = append(ids, id)
			}
			faces = append(faces, rawFace{vertexIDs: ids, materialID: material})

		case "usemtl":
			if len(fields) < 2 {
				return nil, lr.errorf("usemtl without a name")
			}
			name := fields[1]
			// Some exporters write "library:name".
			if _, after, ok := strings.Cut(name, ":"); ok && after != "" {
				name = after
			}
			material = resolve(name)
		}
	}

	return buildMesh(meshID, vertices, faces)
}

// objVertexIndex converts one face token ("v", "v/vt", "v//vn", "v/vt/vn")
// to a 0-based vertex id. seen is the number of vertices read so far.
func objVertexIndex(tok string, seen int) (int, error) {
	head, _, _ := strings.Cut(tok, "/")
	idx, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("bad face index %q", tok)
	}
	switch {
	case idx > 0:
		// Forward references are resolved when the mesh is built.
		return idx - 1, nil
	case idx < 0 && -idx <= seen:
		return seen + idx, nil
	default:
		return 0, fmt.Errorf("face index %d out of range", idx)
	}
}
