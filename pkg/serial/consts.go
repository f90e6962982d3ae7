package serial

import "fmt"

// Label identifies a chunk. Label values are part of the on-disk format and
// must never be renumbered; new data gets a new label.
type Label uint32

// Chunk labels.
const (
	LabelMetadata           Label = 100
	LabelZoomFactor         Label = 101
	LabelMaterials          Label = 102
	LabelExtDisplayRotation Label = 110
	LabelExtProperties      Label = 111
	LabelMMesh              Label = 200
	LabelMMeshExtRemixIDs   Label = 201
	LabelMeshesEnd          Label = 299 // closes the mesh section, payload is the mesh count
)

// String returns a human-readable label name.
func (l Label) String() string {
	switch l {
	case LabelMetadata:
		return "METADATA"
	case LabelZoomFactor:
		return "ZOOM_FACTOR"
	case LabelMaterials:
		return "MATERIALS"
	case LabelExtDisplayRotation:
		return "EXT_DISPLAY_ROTATION"
	case LabelExtProperties:
		return "EXT_PROPERTIES"
	case LabelMMesh:
		return "MMESH"
	case LabelMMeshExtRemixIDs:
		return "MMESH_EXT_REMIX_IDS"
	case LabelMeshesEnd:
		return "MESHES_END"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(l))
	}
}

// Header layout.
const (
	Magic        = "PLTZ"
	VersionMajor = 1
	VersionMinor = 0

	HeaderSize      = 8 // magic[4] + major u16 + minor u16
	ChunkHeaderSize = 8 // label u32 + length u32
)

// Read-side bounds. A count above its bound means the file is corrupt or
// hostile; nothing is allocated for it.
const (
	MaxVerticesPerMesh = 1000000
	MaxFacesPerMesh    = 1000000
	MaxVerticesPerFace = 10000
	MaxHolesPerFace    = 10000
	MaxVerticesPerHole = 10000
	MaxRemixIDsPerMesh = 10000
	MaxMaterials       = 10000
	MaxMeshesPerFile   = 1000000
	MaxStringLength    = 65536
	MaxPropertiesSize  = 65536
)

// Encoded sizes of primitives.
const (
	intSize   = 4
	floatSize = 4
	vec3Size  = 3 * floatSize
	quatSize  = 4 * floatSize
)
