package mesh

import (
	"fmt"
	"slices"

	"github.com/Faultbox/blocks/pkg/serial"
)

// Serialize writes the mesh as one MMESH chunk. When the mesh carries a remix
// id set, an MMESH_EXT_REMIX_IDS chunk follows it; readers that predate remix
// ids skip that chunk by its length.
func (m *MMesh) Serialize(s *serial.Serializer) {
	s.StartWritingChunk(serial.LabelMMesh)
	s.WriteInt(m.id)
	s.WriteVec3(m.offset)
	s.WriteQuat(m.rotation)
	s.WriteInt(m.groupID)

	vertices := m.Vertices()
	s.WriteCount(len(vertices))
	for _, v := range vertices {
		s.WriteInt(v.id)
		s.WriteVec3(v.loc)
	}

	faces := m.Faces()
	s.WriteCount(len(faces))
	for _, f := range faces {
		s.WriteInt(f.id)
		s.WriteInt(f.properties.MaterialID)
		s.WriteIntList(f.vertexIDs)
		// Older readers expect one normal per vertex.
		s.WriteRepeatedVec3(f.normal, len(f.vertexIDs))
		// Holes are deprecated and never written.
		s.WriteCount(0)
	}
	s.FinishWritingChunk(serial.LabelMMesh)

	if m.remixIDs != nil {
		s.StartWritingChunk(serial.LabelMMeshExtRemixIDs)
		s.WriteStringSet(m.remixIDs)
		s.FinishWritingChunk(serial.LabelMMeshExtRemixIDs)
	}
}

// ReadMMesh reads one MMESH chunk. It does not look at what follows: the
// caller decides whether a remix extension chunk belongs to this mesh.
// Normals are recomputed from the vertex positions; the stored per-vertex
// normals and any legacy hole data are read and discarded.
func ReadMMesh(s *serial.Serializer) (*MMesh, error) {
	if err := s.StartReadingChunk(serial.LabelMMesh); err != nil {
		return nil, err
	}
	m := &MMesh{
		id:       s.ReadInt(),
		offset:   s.ReadVec3(),
		rotation: s.ReadQuat(),
		groupID:  s.ReadInt(),
	}
	if s.Err() == nil && (!m.offset.IsFinite() || !m.rotation.IsFinite()) {
		return nil, fmt.Errorf("%w: %w: mesh %d placement", serial.ErrInvalidValue, ErrNotFinite, m.id)
	}

	vertexCount := s.ReadCount(0, serial.MaxVerticesPerMesh, "vertexCount")
	m.verticesByID = make(map[int]Vertex, min(vertexCount, s.Remaining()/estimatePerVertex))
	for i := 0; i < vertexCount; i++ {
		id := s.ReadInt()
		loc := s.ReadVec3()
		if s.Err() != nil {
			return nil, s.Err()
		}
		if _, dup := m.verticesByID[id]; dup {
			return nil, fmt.Errorf("%w: %w: vertex %d in mesh %d", serial.ErrCorruptData, ErrDuplicateID, id, m.id)
		}
		if !loc.IsFinite() {
			return nil, fmt.Errorf("%w: %w: vertex %d in mesh %d", serial.ErrInvalidValue, ErrNotFinite, id, m.id)
		}
		m.verticesByID[id] = Vertex{id: id, loc: loc}
	}

	faceCount := s.ReadCount(0, serial.MaxFacesPerMesh, "faceCount")
	m.facesByID = make(map[int]*Face, min(faceCount, s.Remaining()/estimatePerFace))
	for i := 0; i < faceCount; i++ {
		id := s.ReadInt()
		materialID := s.ReadInt()
		vertexIDs := s.ReadIntList(0, serial.MaxVerticesPerFace, "vertexIds")
		s.ReadVec3List(0, serial.MaxVerticesPerFace, "normals")
		skipHoles(s)
		if s.Err() != nil {
			return nil, s.Err()
		}
		if _, dup := m.facesByID[id]; dup {
			return nil, fmt.Errorf("%w: %w: face %d in mesh %d", serial.ErrCorruptData, ErrDuplicateID, id, m.id)
		}
		f, err := NewFace(id, vertexIDs, m.verticesByID, Properties{MaterialID: materialID})
		if err != nil {
			return nil, fmt.Errorf("%w: mesh %d: %w", serial.ErrCorruptData, m.id, err)
		}
		m.facesByID[id] = f
	}

	if err := s.FinishReadingChunk(serial.LabelMMesh); err != nil {
		return nil, err
	}
	return m, nil
}

// skipHoles consumes the deprecated per-face hole records. Old files may
// still carry them; their contents are not used.
func skipHoles(s *serial.Serializer) {
	holeCount := s.ReadCount(0, serial.MaxHolesPerFace, "holes")
	for j := 0; j < holeCount && s.Err() == nil; j++ {
		s.ReadIntList(0, serial.MaxVerticesPerHole, "hole vertexIds")
		s.ReadVec3List(0, serial.MaxVerticesPerHole, "hole normals")
	}
}

// ReadRemixIDs reads an MMESH_EXT_REMIX_IDS chunk and returns its ids sorted.
func ReadRemixIDs(s *serial.Serializer) ([]string, error) {
	if err := s.StartReadingChunk(serial.LabelMMeshExtRemixIDs); err != nil {
		return nil, err
	}
	set := s.ReadStringSet(0, serial.MaxRemixIDsPerMesh, "remixIds")
	if err := s.FinishReadingChunk(serial.LabelMMeshExtRemixIDs); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(set))
	for r := range set {
		ids = append(ids, r)
	}
	slices.Sort(ids)
	return ids, nil
}
