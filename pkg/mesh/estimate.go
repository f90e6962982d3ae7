package mesh

// Size estimate constants. The estimate only pre-sizes the write buffer, so
// it errs high: a low estimate costs a reallocation, a high one only costs
// transient memory.
const (
	estimateMeshOverhead   = 256 // chunk headers, id, offset, rotation, group id
	estimateVertexTable    = 8   // vertex count
	estimatePerVertex      = 16  // id + 3 floats
	estimatePerFace        = 32  // id, material id, hole count, slack
	estimateFaceList       = 8   // count prefix of each per-face list
	estimatePerFaceVertex  = 4   // one vertex id
	estimatePerFaceNormal  = 12  // one repeated normal
	estimateRemixOverhead  = 32  // remix chunk header and count
	estimatePerRemixPrefix = 4   // length prefix of each remix id
)

// SerializedSizeEstimate returns a generous estimate of the bytes Serialize
// will write for this mesh, including its remix extension chunk.
func (m *MMesh) SerializedSizeEstimate() int {
	estimate := estimateMeshOverhead
	estimate += estimateVertexTable + len(m.verticesByID)*estimatePerVertex
	for _, f := range m.facesByID {
		n := len(f.vertexIDs)
		estimate += estimatePerFace
		estimate += estimateFaceList + n*estimatePerFaceVertex
		estimate += estimateFaceList + n*estimatePerFaceNormal
	}
	if m.remixIDs != nil {
		estimate += estimateRemixOverhead
		for r := range m.remixIDs {
			estimate += estimatePerRemixPrefix + len(r)
		}
	}
	return estimate
}
