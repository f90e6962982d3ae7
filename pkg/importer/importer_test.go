package importer

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/Faultbox/blocks/pkg/math"
	"github.com/Faultbox/blocks/pkg/mesh"
)

const cubeOBJ = `# unit cube
mtllib cube.mtl
o Cube
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
v 1 0 1
v 1 1 1
v 0 1 1
vt 0 0
vn 0 0 -1
usemtl mat3
f 1 4 3 2
f 5/1 6/1 7/1 8/1
usemtl palette:mat7
f 1//1 2//1 6//1 5//1
f 2/1/1 3/1/1 7/1/1 6/1/1
usemtl wood
f -5 -1 -2 -6
s off
f 1 5 8 4   # trailing comment
`

func TestParseOBJ_Cube(t *testing.T) {
	m, err := ParseOBJ(strings.NewReader(cubeOBJ), 12, nil)
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if m.ID() != 12 || m.VertexCount() != 8 || m.FaceCount() != 6 {
		t.Fatalf("got id %d, %d vertices, %d faces", m.ID(), m.VertexCount(), m.FaceCount())
	}

	tests := []struct {
		face     int
		ids      []int
		material int
	}{
		{0, []int{0, 3, 2, 1}, 3},
		{1, []int{4, 5, 6, 7}, 3},
		{2, []int{0, 1, 5, 4}, 7},
		{3, []int{1, 2, 6, 5}, 7},
		{4, []int{3, 7, 6, 2}, 1},
		{5, []int{0, 4, 7, 3}, 1},
	}
	for _, tt := range tests {
		f, ok := m.FaceByID(tt.face)
		if !ok {
			t.Fatalf("face %d missing", tt.face)
		}
		if !slices.Equal(f.VertexIDs(), tt.ids) {
			t.Errorf("face %d ids = %v, want %v", tt.face, f.VertexIDs(), tt.ids)
		}
		if f.MaterialID() != tt.material {
			t.Errorf("face %d material = %d, want %d", tt.face, f.MaterialID(), tt.material)
		}
	}

	bottom, _ := m.FaceByID(0)
	if !bottom.Normal().ApproxEqual(math.Vec3{Z: -1}, 1e-6) {
		t.Errorf("bottom normal = %v, want -Z", bottom.Normal())
	}
	if v, _ := m.VertexByID(6); v.Loc() != (math.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("vertex 6 = %v", v.Loc())
	}
}

func TestParseOBJ_Resolver(t *testing.T) {
	var seen []string
	resolve := func(name string) int {
		seen = append(seen, name)
		return len(seen) * 10
	}
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\nusemtl red\nf 3 2 1\n"
	m, err := ParseOBJ(strings.NewReader(src), 1, resolve)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(seen, []string{DefaultMaterialName, "red"}) {
		t.Errorf("resolver saw %v", seen)
	}
	if got := m.MaterialIDs(); !slices.Equal(got, []int{10, 20}) {
		t.Errorf("materials = %v", got)
	}
}

func TestResolveMaterialName(t *testing.T) {
	tests := map[string]int{
		"mat0":  0,
		"mat12": 12,
		"mat":   1,
		"matX":  1,
		"wood":  1,
	}
	for name, want := range tests {
		if got := ResolveMaterialName(name); got != want {
			t.Errorf("ResolveMaterialName(%q) = %d, want %d", name, got, want)
		}
	}
}

func TestParseOBJ_ForwardReference(t *testing.T) {
	src := "f 1 2 3\nv 0 0 0\nv 1 0 0\nv 0 1 0\n"
	m, err := ParseOBJ(strings.NewReader(src), 1, nil)
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if m.FaceCount() != 1 {
		t.Errorf("expected 1 face, got %d", m.FaceCount())
	}
}

func TestParseOBJ_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"short vertex", "v 1 2\n", ErrSyntax},
		{"bad number", "v 1 2 x\n", ErrSyntax},
		{"infinite vertex", "v 1 2 1e99\n", ErrSyntax},
		{"two corner face", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrSyntax},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrSyntax},
		{"negative past start", "v 0 0 0\nf -1 -2 -3\n", ErrSyntax},
		{"bad index", "v 0 0 0\nf a b c\n", ErrSyntax},
		{"dangling index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n", mesh.ErrUnknownVertex},
		{"usemtl without name", "usemtl\n", ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseOBJ(strings.NewReader(tt.src), 1, nil); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseOBJ_ErrorHasLine(t *testing.T) {
	_, err := ParseOBJ(strings.NewReader("v 0 0 0\n\n# note\nv nope 0 0\n"), 1, nil)
	if err == nil || !strings.Contains(err.Error(), "line 4") {
		t.Errorf("expected an error on line 4, got %v", err)
	}
}

func TestParseOBJ_Empty(t *testing.T) {
	m, err := ParseOBJ(strings.NewReader(""), 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.VertexCount() != 0 || m.FaceCount() != 0 {
		t.Error("expected an empty mesh")
	}
}

const tetraOFF = `OFF
# tetrahedron
4 4 6
0 0 0
1 0 0
0 1 0
0 0 1
3 0 2 1
3 0 1 3
3 0 3 2   0.5 0.5 0.5
3 1 2 3
`

func TestParseOFF_Tetrahedron(t *testing.T) {
	m, err := ParseOFF(strings.NewReader(tetraOFF), 5)
	if err != nil {
		t.Fatalf("ParseOFF failed: %v", err)
	}
	if m.ID() != 5 || m.VertexCount() != 4 || m.FaceCount() != 4 {
		t.Fatalf("got id %d, %d vertices, %d faces", m.ID(), m.VertexCount(), m.FaceCount())
	}
	f, _ := m.FaceByID(2)
	if !slices.Equal(f.VertexIDs(), []int{0, 3, 2}) {
		t.Errorf("face 2 ids = %v", f.VertexIDs())
	}
	if f.MaterialID() != OFFMaterialID {
		t.Errorf("material = %d", f.MaterialID())
	}
	bottom, _ := m.FaceByID(0)
	if !bottom.Normal().ApproxEqual(math.Vec3{Z: -1}, 1e-6) {
		t.Errorf("bottom normal = %v, want -Z", bottom.Normal())
	}
}

func TestParseOFF_Variants(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want math.Vec3
	}{
		{"normals", "NOFF\n1 0 0\n1 2 3 0 0 1\n", math.Vec3{X: 1, Y: 2, Z: 3}},
		{"colors", "COFF\n1 0 0\n1 2 3 0.1 0.2 0.3 1\n", math.Vec3{X: 1, Y: 2, Z: 3}},
		{"texture", "STOFF\n1 0 0\n1 2 3 0.5 0.5\n", math.Vec3{X: 1, Y: 2, Z: 3}},
		{"homogeneous", "4OFF\n1 0 0\n2 4 6 2\n", math.Vec3{X: 1, Y: 2, Z: 3}},
		{"two dimensions", "nOFF\n2\n1 0 0\n7 8\n", math.Vec3{X: 7, Y: 8}},
		{"everything", "STCN4nOFF\n3\n1 0 0\n2 4 6 2 0 0 1 1 1 1 1 0 0\n", math.Vec3{X: 1, Y: 2, Z: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseOFF(strings.NewReader(tt.src), 1)
			if err != nil {
				t.Fatalf("ParseOFF failed: %v", err)
			}
			v, ok := m.VertexByID(0)
			if !ok || !v.Loc().ApproxEqual(tt.want, 1e-6) {
				t.Errorf("vertex = %v, want %v", v.Loc(), tt.want)
			}
		})
	}
}

func TestParseOFF_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"empty", "", ErrSyntax},
		{"bad header", "PLY\n", ErrSyntax},
		{"header with extra", "OFF 1 0 0\n", ErrSyntax},
		{"dimension too large", "nOFF\n4\n0 0 0\n", ErrSyntax},
		{"missing counts", "OFF\n", ErrSyntax},
		{"negative count", "OFF\n-1 0 0\n", ErrSyntax},
		{"too many vertices", "OFF\n2000000 0 0\n", ErrLimitExceeded},
		{"too many faces", "OFF\n0 2000000 0\n", ErrLimitExceeded},
		{"missing vertex", "OFF\n2 0 0\n0 0 0\n", ErrSyntax},
		{"short vertex", "OFF\n1 0 0\n0 0\n", ErrSyntax},
		{"zero w", "4OFF\n1 0 0\n1 1 1 0\n", ErrSyntax},
		{"short face", "OFF\n3 1 0\n0 0 0\n1 0 0\n0 1 0\n3 0 1\n", ErrSyntax},
		{"bad face index", "OFF\n3 1 0\n0 0 0\n1 0 0\n0 1 0\n3 0 1 z\n", ErrSyntax},
		{"dangling face index", "OFF\n3 1 0\n0 0 0\n1 0 0\n0 1 0\n3 0 1 7\n", mesh.ErrUnknownVertex},
		{"huge face", "OFF\n0 1 0\n20000\n", ErrLimitExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseOFF(strings.NewReader(tt.src), 1); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
