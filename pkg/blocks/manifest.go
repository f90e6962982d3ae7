package blocks

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/blocks/pkg/serial"
)

// Manifest is a printable summary of a file, with a digest of its bytes.
type Manifest struct {
	Creator         string            `yaml:"creator"`
	Created         string            `yaml:"created"`
	Version         string            `yaml:"version"`
	FormatVersion   string            `yaml:"format_version"`
	ZoomFactor      float32           `yaml:"zoom_factor"`
	DisplayRotation *float32          `yaml:"display_rotation,omitempty"`
	MaterialIDs     []int             `yaml:"materials,flow"`
	Properties      map[string]string `yaml:"properties,omitempty"`
	Meshes          []MeshSummary     `yaml:"meshes"`
	TotalVertices   int               `yaml:"total_vertices"`
	TotalFaces      int               `yaml:"total_faces"`
	EncodedSize     int               `yaml:"encoded_size"`
	Compression     string            `yaml:"compression"`
	Digest          string            `yaml:"blake3"`
}

// MeshSummary describes one mesh of a Manifest.
type MeshSummary struct {
	ID       int      `yaml:"id"`
	Group    int      `yaml:"group"`
	Vertices int      `yaml:"vertices"`
	Faces    int      `yaml:"faces"`
	RemixIDs []string `yaml:"remix_ids,omitempty,flow"`
}

// Summarize builds the manifest of f. raw is the data f was decoded from,
// envelope included, and is what the digest and size describe.
func Summarize(f *File, raw []byte) Manifest {
	m := Manifest{
		Creator:         f.Metadata.CreatorName,
		Created:         f.Metadata.CreationDate,
		Version:         f.Metadata.Version,
		ZoomFactor:      f.ZoomFactor,
		DisplayRotation: f.DisplayRotation,
		MaterialIDs:     f.MaterialIDs,
		Properties:      f.Properties,
		Meshes:          make([]MeshSummary, 0, len(f.Meshes)),
		TotalVertices:   f.TotalVertices(),
		TotalFaces:      f.TotalFaces(),
		EncodedSize:     len(raw),
		Compression:     CodecNone.String(),
		Digest:          Digest(raw),
	}

	container := raw
	if codec, _, err := EnvelopeInfo(raw); err == nil {
		m.Compression = codec.String()
		if inner, err := Decompress(raw); err == nil {
			container = inner
		}
	}
	if major, minor, ok := serial.ReadVersion(container); ok {
		m.FormatVersion = fmt.Sprintf("%d.%d", major, minor)
	}

	for _, mesh := range f.Meshes {
		m.Meshes = append(m.Meshes, MeshSummary{
			ID:       mesh.ID(),
			Group:    mesh.GroupID(),
			Vertices: mesh.VertexCount(),
			Faces:    mesh.FaceCount(),
			RemixIDs: mesh.RemixIDs(),
		})
	}
	return m
}

// YAML renders the manifest.
func (m Manifest) YAML() ([]byte, error) {
	return yaml.Marshal(m)
}

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
