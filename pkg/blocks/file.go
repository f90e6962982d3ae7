// Package blocks assembles and reads whole blocks files: metadata, the
// material table and the mesh list, framed by the serial container.
//
// Encode and Decode are the error-returning core. Serialize, Deserialize,
// SaveToFile and LoadFromFile wrap them with the boolean outcomes used by
// editor code, logging the reason for any failure.
package blocks

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Faultbox/blocks/pkg/mesh"
	"github.com/Faultbox/blocks/pkg/serial"
)

// DateLayout is the layout of Metadata.CreationDate.
const DateLayout = "2006-01-02 15:04:05"

// Extensions lists the file extensions that hold a blocks container.
var Extensions = []string{".blocks", ".poly", ".peltzer"}

// Decode failure roots, re-exported so callers need only this package.
var (
	ErrFormatMismatch = serial.ErrFormatMismatch
	ErrCorruptData    = serial.ErrCorruptData
)

// Metadata describes who wrote a file and when.
type Metadata struct {
	CreatorName  string
	CreationDate string
	Version      string
}

// CreatedAt parses CreationDate. ok is false when the stored text is not in DateLayout.
func (m Metadata) CreatedAt() (t time.Time, ok bool) {
	t, err := time.ParseInLocation(DateLayout, m.CreationDate, time.Local)
	return t, err == nil
}

// File is one decoded or about-to-be-encoded document.
type File struct {
	Metadata   Metadata
	ZoomFactor float32

	// MaterialIDs holds each material id used by any face exactly once, ascending.
	MaterialIDs []int

	// DisplayRotation is the recommended display rotation in degrees, if stored.
	DisplayRotation *float32

	// Properties are free-form key/value pairs. nil when the file has none.
	Properties map[string]string

	Meshes []*mesh.MMesh
}

// MeshByID returns the mesh with the given id.
func (f *File) MeshByID(id int) (*mesh.MMesh, bool) {
	for _, m := range f.Meshes {
		if m.ID() == id {
			return m, true
		}
	}
	return nil, false
}

// TotalVertices returns the vertex count summed over all meshes.
func (f *File) TotalVertices() int {
	n := 0
	for _, m := range f.Meshes {
		n += m.VertexCount()
	}
	return n
}

// TotalFaces returns the face count summed over all meshes.
func (f *File) TotalFaces() int {
	n := 0
	for _, m := range f.Meshes {
		n += m.FaceCount()
	}
	return n
}

// HasContainerExtension reports whether path ends in one of Extensions.
func HasContainerExtension(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// collectMaterialIDs returns the distinct material ids used across meshes, sorted.
func collectMaterialIDs(meshes []*mesh.MMesh) []int {
	seen := make(map[int]struct{})
	for _, m := range meshes {
		for _, id := range m.MaterialIDs() {
			seen[id] = struct{}{}
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
