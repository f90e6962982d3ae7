package mesh

import "github.com/Faultbox/blocks/pkg/math"

// Vertex is a point of a mesh, in mesh-local coordinates. Vertex ids are
// unique within their mesh only.
type Vertex struct {
	id  int
	loc math.Vec3
}

// NewVertex returns a vertex with the given id and location.
func NewVertex(id int, loc math.Vec3) Vertex {
	return Vertex{id: id, loc: loc}
}

// ID returns the vertex id.
func (v Vertex) ID() int { return v.id }

// Loc returns the vertex position in mesh-local space.
func (v Vertex) Loc() math.Vec3 { return v.loc }
