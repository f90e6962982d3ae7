// Package mesh holds the in-memory polygon mesh model stored in blocks files:
// vertices, faces and MMesh, the mesh as placed in a model.
package mesh

import (
	"cmp"
	"errors"
	"fmt"
	stdmath "math"
	"slices"

	"github.com/Faultbox/blocks/pkg/math"
	"github.com/Faultbox/blocks/pkg/serial"
)

// GroupNone is the group id of a mesh that belongs to no group.
const GroupNone = 0

// Mesh construction errors.
var (
	ErrUnknownVertex  = errors.New("face references unknown vertex")
	ErrDuplicateID    = errors.New("duplicate id")
	ErrIDOutOfRange   = errors.New("id does not fit in 32 bits")
	ErrLimitExceeded  = errors.New("mesh exceeds format limits")
	ErrInvalidRemixID = errors.New("invalid remix id")
	ErrNotFinite      = errors.New("coordinate is NaN or infinite")
)

// Limits shared with the reader, so any mesh that can be built can be loaded back.
const (
	maxVerticesPerMesh = serial.MaxVerticesPerMesh
	maxFacesPerMesh    = serial.MaxFacesPerMesh
	maxVerticesPerFace = serial.MaxVerticesPerFace
	maxRemixIDs        = serial.MaxRemixIDsPerMesh
)

// MMesh is a mesh in the model. Named MMesh to keep it apart from render meshes.
//
// An MMesh is immutable once built. Its vertex and face tables are private
// to it; meshes derived with WithRemixIDs share those tables read-only.
type MMesh struct {
	id       int
	offset   math.Vec3
	rotation math.Quat
	groupID  int

	verticesByID map[int]Vertex
	facesByID    map[int]*Face

	// remixIDs tracks model ancestry. nil means the mesh carries none, which
	// is different from an empty set: only a non-nil set is written out.
	remixIDs map[string]struct{}
}

// New builds a mesh. Ids must be unique within their kind and every face may
// only reference vertices of this mesh. Coordinates must be finite. Face
// normals are taken from this mesh's vertex positions, whatever lookup the
// faces were built against.
func New(id int, offset math.Vec3, rotation math.Quat, groupID int, vertices []Vertex, faces []*Face) (*MMesh, error) {
	if err := checkID("mesh", id); err != nil {
		return nil, err
	}
	if err := checkID("group", groupID); err != nil {
		return nil, err
	}
	if !offset.IsFinite() || !rotation.IsFinite() {
		return nil, fmt.Errorf("%w: mesh %d placement %v %v", ErrNotFinite, id, offset, rotation)
	}
	if len(vertices) > maxVerticesPerMesh {
		return nil, fmt.Errorf("%w: %d vertices, max %d", ErrLimitExceeded, len(vertices), maxVerticesPerMesh)
	}
	if len(faces) > maxFacesPerMesh {
		return nil, fmt.Errorf("%w: %d faces, max %d", ErrLimitExceeded, len(faces), maxFacesPerMesh)
	}

	m := &MMesh{
		id:           id,
		offset:       offset,
		rotation:     rotation,
		groupID:      groupID,
		verticesByID: make(map[int]Vertex, len(vertices)),
		facesByID:    make(map[int]*Face, len(faces)),
	}
	for _, v := range vertices {
		if err := checkID("vertex", v.id); err != nil {
			return nil, err
		}
		if _, dup := m.verticesByID[v.id]; dup {
			return nil, fmt.Errorf("%w: vertex %d in mesh %d", ErrDuplicateID, v.id, id)
		}
		if !v.loc.IsFinite() {
			return nil, fmt.Errorf("%w: vertex %d in mesh %d at %v", ErrNotFinite, v.id, id, v.loc)
		}
		m.verticesByID[v.id] = v
	}
	for _, f := range faces {
		if _, dup := m.facesByID[f.id]; dup {
			return nil, fmt.Errorf("%w: face %d in mesh %d", ErrDuplicateID, f.id, id)
		}
		for _, vid := range f.vertexIDs {
			if _, ok := m.verticesByID[vid]; !ok {
				return nil, fmt.Errorf("%w: face %d references vertex %d in mesh %d", ErrUnknownVertex, f.id, vid, id)
			}
		}
		m.facesByID[f.id] = f.withNormalFrom(m.verticesByID)
	}
	return m, nil
}

// WithRemixIDs returns a copy of the mesh whose remix id set is the current
// set plus ids. The copy always carries a set, even when ids is empty.
func (m *MMesh) WithRemixIDs(ids ...string) (*MMesh, error) {
	set := make(map[string]struct{}, len(m.remixIDs)+len(ids))
	for r := range m.remixIDs {
		set[r] = struct{}{}
	}
	for _, r := range ids {
		if len(r) > serial.MaxStringLength {
			return nil, fmt.Errorf("%w: %d bytes, max %d", ErrInvalidRemixID, len(r), serial.MaxStringLength)
		}
		set[r] = struct{}{}
	}
	if len(set) > maxRemixIDs {
		return nil, fmt.Errorf("%w: %d remix ids, max %d", ErrLimitExceeded, len(set), maxRemixIDs)
	}
	cp := *m
	cp.remixIDs = set
	return &cp, nil
}

func checkID(kind string, id int) error {
	if id < stdmath.MinInt32 || id > stdmath.MaxInt32 {
		return fmt.Errorf("%w: %s id %d", ErrIDOutOfRange, kind, id)
	}
	return nil
}

// ID returns the mesh id, unique within its model.
func (m *MMesh) ID() int { return m.id }

// Offset returns the mesh position in model space.
func (m *MMesh) Offset() math.Vec3 { return m.offset }

// Rotation returns the mesh rotation in model space.
func (m *MMesh) Rotation() math.Quat { return m.rotation }

// GroupID returns the mesh group, or GroupNone.
func (m *MMesh) GroupID() int { return m.groupID }

// VertexCount returns the number of vertices.
func (m *MMesh) VertexCount() int { return len(m.verticesByID) }

// FaceCount returns the number of faces.
func (m *MMesh) FaceCount() int { return len(m.facesByID) }

// Vertices returns all vertices ordered by id.
func (m *MMesh) Vertices() []Vertex {
	out := make([]Vertex, 0, len(m.verticesByID))
	for _, v := range m.verticesByID {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b Vertex) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Faces returns all faces ordered by id.
func (m *MMesh) Faces() []*Face {
	out := make([]*Face, 0, len(m.facesByID))
	for _, f := range m.facesByID {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *Face) int { return cmp.Compare(a.id, b.id) })
	return out
}

// VertexByID returns the vertex with the given id.
func (m *MMesh) VertexByID(id int) (Vertex, bool) {
	v, ok := m.verticesByID[id]
	return v, ok
}

// FaceByID returns the face with the given id.
func (m *MMesh) FaceByID(id int) (*Face, bool) {
	f, ok := m.facesByID[id]
	return f, ok
}

// VertexPositionInModelSpace returns a vertex position after the mesh
// rotation and offset are applied. The rotation is normalized first.
func (m *MMesh) VertexPositionInModelSpace(id int) (math.Vec3, bool) {
	v, ok := m.verticesByID[id]
	if !ok {
		return math.Vec3{}, false
	}
	return m.rotation.Normalize().Rotate(v.loc).Add(m.offset), true
}

// HasRemixIDs reports whether the mesh carries a remix id set (possibly empty).
func (m *MMesh) HasRemixIDs() bool { return m.remixIDs != nil }

// RemixIDs returns the remix ids in sorted order, or nil if the mesh has none.
func (m *MMesh) RemixIDs() []string {
	if m.remixIDs == nil {
		return nil
	}
	out := make([]string, 0, len(m.remixIDs))
	for r := range m.remixIDs {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// MaterialIDs returns the distinct material ids used by the mesh's faces, sorted.
func (m *MMesh) MaterialIDs() []int {
	seen := make(map[int]struct{})
	for _, f := range m.facesByID {
		seen[f.properties.MaterialID] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
