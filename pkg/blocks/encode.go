package blocks

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/blocks/internal/logger"
	"github.com/Faultbox/blocks/pkg/mesh"
	"github.com/Faultbox/blocks/pkg/serial"
)

// Mesh list errors returned by Encode.
var (
	ErrNilMesh          = errors.New("nil mesh")
	ErrDuplicateMeshID  = errors.New("duplicate mesh id")
	ErrTooManyMeshes    = fmt.Errorf("more than %d meshes", serial.MaxMeshesPerFile)
	ErrTooManyMaterials = fmt.Errorf("more than %d distinct materials", serial.MaxMaterials)
)

// Size estimate for everything outside the meshes.
const (
	estimateFileOverhead  = 256 // header, chunk headers, zoom, rotation, counts, end marker
	estimatePerString     = 4
	estimatePerMaterialID = 4
)

// Encode writes meshes into a new raw container. The returned slice holds
// exactly the encoded bytes. Invalid input is reported before anything is
// written; Encode never returns a partial container.
func Encode(meshes []*mesh.MMesh, opts Options) ([]byte, error) {
	opts, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	if err := checkMeshes(meshes); err != nil {
		return nil, err
	}
	materialIDs := collectMaterialIDs(meshes)
	if len(materialIDs) > serial.MaxMaterials {
		return nil, fmt.Errorf("%w: %d", ErrTooManyMaterials, len(materialIDs))
	}
	var props []byte
	if opts.Properties != nil {
		if props, err = marshalProperties(opts.Properties); err != nil {
			return nil, err
		}
	}

	meta := Metadata{
		CreatorName:  opts.CreatorName,
		CreationDate: opts.Now().Format(DateLayout),
		Version:      opts.Version,
	}
	estimate := sizeEstimate(meta, materialIDs, props, meshes)

	s := serial.NewSerializer()
	s.SetupForWriting(estimate + opts.ExtraCapacity)

	s.StartWritingChunk(serial.LabelMetadata)
	s.WriteString(meta.CreatorName)
	s.WriteString(meta.CreationDate)
	s.WriteString(meta.Version)
	s.FinishWritingChunk(serial.LabelMetadata)

	s.StartWritingChunk(serial.LabelZoomFactor)
	s.WriteFloat(opts.ZoomFactor)
	s.FinishWritingChunk(serial.LabelZoomFactor)

	s.StartWritingChunk(serial.LabelMaterials)
	s.WriteIntList(materialIDs)
	s.FinishWritingChunk(serial.LabelMaterials)

	if opts.DisplayRotation != nil {
		s.StartWritingChunk(serial.LabelExtDisplayRotation)
		s.WriteFloat(*opts.DisplayRotation)
		s.FinishWritingChunk(serial.LabelExtDisplayRotation)
	}
	if props != nil {
		s.StartWritingChunk(serial.LabelExtProperties)
		s.WriteBytes(props)
		s.FinishWritingChunk(serial.LabelExtProperties)
	}

	for _, m := range meshes {
		m.Serialize(s)
	}
	s.StartWritingChunk(serial.LabelMeshesEnd)
	s.WriteCount(len(meshes))
	s.FinishWritingChunk(serial.LabelMeshesEnd)
	s.FinishWriting()

	if s.Grows() > 0 {
		logger.Warn("serialized size exceeded estimate",
			zap.Int("estimate", estimate),
			zap.Int("actual", s.Len()),
			zap.Int("grows", s.Grows()),
			zap.Int("extra_capacity", opts.ExtraCapacity),
			zap.Int("meshes", len(meshes)))
	}
	return s.ToByteArray(), nil
}

// checkMeshes rejects lists the reader would refuse to load back.
func checkMeshes(meshes []*mesh.MMesh) error {
	if len(meshes) > serial.MaxMeshesPerFile {
		return fmt.Errorf("%w: %d", ErrTooManyMeshes, len(meshes))
	}
	seen := make(map[int]struct{}, len(meshes))
	for i, m := range meshes {
		if m == nil {
			return fmt.Errorf("%w at index %d", ErrNilMesh, i)
		}
		if _, dup := seen[m.ID()]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateMeshID, m.ID())
		}
		seen[m.ID()] = struct{}{}
	}
	return nil
}

// sizeEstimate is swapped out by tests that need a low estimate.
var sizeEstimate = estimateSize

// estimateSize returns a generous size for the whole container.
func estimateSize(meta Metadata, materialIDs []int, props []byte, meshes []*mesh.MMesh) int {
	estimate := estimateFileOverhead
	estimate += 3*estimatePerString + len(meta.CreatorName) + len(meta.CreationDate) + len(meta.Version)
	estimate += len(materialIDs) * estimatePerMaterialID
	estimate += len(props)
	for _, m := range meshes {
		estimate += m.SerializedSizeEstimate()
	}
	return estimate
}
