package mesh

import (
	"fmt"
	"slices"

	"github.com/Faultbox/blocks/pkg/math"
)

// Properties are the per-face attributes that travel with a face.
type Properties struct {
	MaterialID int
}

// Face is a closed polygon of a mesh. Vertex ids are listed clockwise.
// The normal is computed once, when the face is built, from the positions of
// its vertices; the face keeps no reference to the mesh's vertex table.
type Face struct {
	id         int
	vertexIDs  []int
	normal     math.Vec3
	properties Properties
}

// NewFace builds a face from vertex ids in clockwise order. Every id must be
// present in vertices.
func NewFace(id int, vertexIDs []int, vertices map[int]Vertex, properties Properties) (*Face, error) {
	if err := checkID("face", id); err != nil {
		return nil, err
	}
	if err := checkID("material", properties.MaterialID); err != nil {
		return nil, err
	}
	if len(vertexIDs) > maxVerticesPerFace {
		return nil, fmt.Errorf("%w: face %d has %d vertices, max %d",
			ErrLimitExceeded, id, len(vertexIDs), maxVerticesPerFace)
	}
	positions := make([]math.Vec3, len(vertexIDs))
	for i, vid := range vertexIDs {
		v, ok := vertices[vid]
		if !ok {
			return nil, fmt.Errorf("%w: face %d references vertex %d", ErrUnknownVertex, id, vid)
		}
		positions[i] = v.loc
	}
	return &Face{
		id:         id,
		vertexIDs:  slices.Clone(vertexIDs),
		normal:     ComputeNormal(positions),
		properties: properties,
	}, nil
}

// ID returns the face id.
func (f *Face) ID() int { return f.id }

// VertexIDs returns a copy of the face's vertex ids in clockwise order.
func (f *Face) VertexIDs() []int { return slices.Clone(f.vertexIDs) }

// VertexCount returns the number of corners.
func (f *Face) VertexCount() int { return len(f.vertexIDs) }

// Normal returns the unit face normal (zero for a face without vertices).
func (f *Face) Normal() math.Vec3 { return f.normal }

// Properties returns the face properties.
func (f *Face) Properties() Properties { return f.properties }

// withNormalFrom returns f, or a copy of it, whose normal is computed from
// the given vertex positions. Every vertex id of f must be present.
func (f *Face) withNormalFrom(vertices map[int]Vertex) *Face {
	positions := make([]math.Vec3, len(f.vertexIDs))
	for i, vid := range f.vertexIDs {
		positions[i] = vertices[vid].loc
	}
	n := ComputeNormal(positions)
	if n == f.normal {
		return f
	}
	cp := *f
	cp.normal = n
	return &cp
}

// MaterialID returns the id of the face's material.
func (f *Face) MaterialID() int { return f.properties.MaterialID }
