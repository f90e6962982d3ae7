package mesh

import "github.com/Faultbox/blocks/pkg/math"

// ComputeNormal returns the unit normal of a polygon given its corner
// positions in winding order, using Newell's method. The result is area
// weighted before normalization, so it is correct for any simple polygon,
// planar or nearly so, without triangulating it first. Fewer than three
// distinct corners give the zero vector.
func ComputeNormal(positions []math.Vec3) math.Vec3 {
	count := len(positions)
	if count == 0 {
		return math.Zero
	}
	var n math.Vec3
	this := positions[0]
	for i, next := 0, 1; i < count; i, next = i+1, next+1 {
		if next == count {
			next = 0
		}
		that := positions[next]
		n.X += (this.Y - that.Y) * (this.Z + that.Z)
		n.Y += (this.Z - that.Z) * (this.X + that.X)
		n.Z += (this.X - that.X) * (this.Y + that.Y)
		this = that
	}
	return n.NormalizeScaled()
}
