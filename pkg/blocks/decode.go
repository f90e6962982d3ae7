package blocks

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Faultbox/blocks/pkg/mesh"
	"github.com/Faultbox/blocks/pkg/serial"
)

// Decode reads a container, unwrapping a compressed envelope first if
// there is one. It returns an error wrapping ErrFormatMismatch when data is
// not a blocks container at all, and one wrapping ErrCorruptData when it is
// but cannot be read. No partial File is ever returned.
func Decode(data []byte) (*File, error) {
	if IsCompressedContainer(data) {
		raw, err := Decompress(data)
		if err != nil {
			return nil, err
		}
		f, err := decodeRaw(raw)
		if errors.Is(err, ErrFormatMismatch) {
			// The envelope was ours, so its contents are too.
			return nil, fmt.Errorf("%w: envelope holds foreign data: %w", ErrCorruptData, err)
		}
		return f, err
	}
	return decodeRaw(data)
}

func decodeRaw(data []byte) (*File, error) {
	s := serial.NewSerializer()
	if err := s.SetupForReading(data, 0, len(data)); err != nil {
		return nil, err
	}
	d := &decoder{s: s, file: &File{}}
	if err := d.decode(); err != nil {
		if !errors.Is(err, ErrCorruptData) {
			err = fmt.Errorf("%w: %w", ErrCorruptData, err)
		}
		return nil, err
	}
	return d.file, nil
}

// chunk is one top-level item following the material table.
type chunk interface {
	isChunk()
}

type (
	meshChunk            struct{ mesh *mesh.MMesh }
	remixChunk           struct{ ids []string }
	displayRotationChunk struct{ degrees float32 }
	propertiesChunk      struct{ props map[string]string }
	unknownChunk         struct{ label serial.Label }
	meshesEndChunk       struct{ meshCount int }
)

func (meshChunk) isChunk()            {}
func (remixChunk) isChunk()           {}
func (displayRotationChunk) isChunk() {}
func (propertiesChunk) isChunk()      {}
func (unknownChunk) isChunk()         {}
func (meshesEndChunk) isChunk()       {}

type decoder struct {
	s    *serial.Serializer
	file *File
}

func (d *decoder) decode() error {
	if err := d.readMetadata(); err != nil {
		return err
	}
	if err := d.readZoomFactor(); err != nil {
		return err
	}
	if err := d.readMaterials(); err != nil {
		return err
	}

	meshIDs := make(map[int]struct{})
	// last is the mesh a remix chunk may attach to: the one just read, if it
	// has not taken one already.
	var last *mesh.MMesh
	for {
		c, err := d.next()
		if err != nil {
			return err
		}
		switch c := c.(type) {
		case meshesEndChunk:
			if c.meshCount != len(d.file.Meshes) {
				return fmt.Errorf("%w: %s records %d meshes, read %d",
					serial.ErrInvalidValue, serial.LabelMeshesEnd, c.meshCount, len(d.file.Meshes))
			}
			if !d.s.AtEnd() {
				return fmt.Errorf("%w: %d bytes after %s", serial.ErrInvalidValue, d.s.Remaining(), serial.LabelMeshesEnd)
			}
			return nil
		case meshChunk:
			if _, dup := meshIDs[c.mesh.ID()]; dup {
				return fmt.Errorf("%w: %w: %d", serial.ErrInvalidValue, ErrDuplicateMeshID, c.mesh.ID())
			}
			meshIDs[c.mesh.ID()] = struct{}{}
			d.file.Meshes = append(d.file.Meshes, c.mesh)
			last = c.mesh
			continue
		case remixChunk:
			if last == nil {
				return fmt.Errorf("%w: remix ids without a preceding mesh", serial.ErrInvalidValue)
			}
			withIDs, err := last.WithRemixIDs(c.ids...)
			if err != nil {
				return fmt.Errorf("%w: %w", serial.ErrInvalidValue, err)
			}
			d.file.Meshes[len(d.file.Meshes)-1] = withIDs
		case displayRotationChunk:
			if d.file.DisplayRotation != nil {
				return fmt.Errorf("%w: repeated %s chunk", serial.ErrInvalidValue, serial.LabelExtDisplayRotation)
			}
			d.file.DisplayRotation = &c.degrees
		case propertiesChunk:
			if d.file.Properties != nil {
				return fmt.Errorf("%w: repeated %s chunk", serial.ErrInvalidValue, serial.LabelExtProperties)
			}
			d.file.Properties = c.props
		case unknownChunk:
			// Written by a newer version; already skipped.
		default:
			panic(fmt.Sprintf("blocks: unhandled chunk %T", c))
		}
		last = nil
	}
}

// next reads the next top-level chunk.
func (d *decoder) next() (chunk, error) {
	label, ok := d.s.GetNextChunkLabel()
	if !ok {
		if d.s.AtEnd() {
			return nil, fmt.Errorf("%w: mesh section has no %s chunk", serial.ErrTruncated, serial.LabelMeshesEnd)
		}
		// A few stray bytes: let SkipChunk report the truncation.
		_, err := d.s.SkipChunk()
		return nil, err
	}

	switch label {
	case serial.LabelMMesh:
		m, err := mesh.ReadMMesh(d.s)
		if err != nil {
			return nil, err
		}
		return meshChunk{mesh: m}, nil

	case serial.LabelMMeshExtRemixIDs:
		ids, err := mesh.ReadRemixIDs(d.s)
		if err != nil {
			return nil, err
		}
		return remixChunk{ids: ids}, nil

	case serial.LabelExtDisplayRotation:
		if err := d.s.StartReadingChunk(label); err != nil {
			return nil, err
		}
		degrees := d.s.ReadFloat()
		if err := d.s.FinishReadingChunk(label); err != nil {
			return nil, err
		}
		if !finite(degrees) {
			return nil, fmt.Errorf("%w: display rotation %v", serial.ErrInvalidValue, degrees)
		}
		return displayRotationChunk{degrees: degrees}, nil

	case serial.LabelExtProperties:
		if err := d.s.StartReadingChunk(label); err != nil {
			return nil, err
		}
		blob := d.s.ReadBytes(MaxPropertiesSize, "properties")
		if err := d.s.FinishReadingChunk(label); err != nil {
			return nil, err
		}
		props, err := unmarshalProperties(blob)
		if err != nil {
			return nil, err
		}
		return propertiesChunk{props: props}, nil

	case serial.LabelMeshesEnd:
		if err := d.s.StartReadingChunk(label); err != nil {
			return nil, err
		}
		count := d.s.ReadCount(0, serial.MaxMeshesPerFile, "meshCount")
		if err := d.s.FinishReadingChunk(label); err != nil {
			return nil, err
		}
		return meshesEndChunk{meshCount: count}, nil

	case serial.LabelMetadata, serial.LabelZoomFactor, serial.LabelMaterials:
		return nil, fmt.Errorf("%w: %s chunk after the material table", serial.ErrInvalidValue, label)

	default:
		if _, err := d.s.SkipChunk(); err != nil {
			return nil, err
		}
		return unknownChunk{label: label}, nil
	}
}

func (d *decoder) readMetadata() error {
	if err := d.s.StartReadingChunk(serial.LabelMetadata); err != nil {
		return err
	}
	d.file.Metadata = Metadata{
		CreatorName:  d.s.ReadString("creatorName"),
		CreationDate: d.s.ReadString("creationDate"),
		Version:      d.s.ReadString("version"),
	}
	return d.s.FinishReadingChunk(serial.LabelMetadata)
}

func (d *decoder) readZoomFactor() error {
	if err := d.s.StartReadingChunk(serial.LabelZoomFactor); err != nil {
		return err
	}
	zoom := d.s.ReadFloat()
	if err := d.s.FinishReadingChunk(serial.LabelZoomFactor); err != nil {
		return err
	}
	if !validZoom(zoom) {
		return fmt.Errorf("%w: zoom factor %v", serial.ErrInvalidValue, zoom)
	}
	d.file.ZoomFactor = zoom
	return nil
}

func (d *decoder) readMaterials() error {
	if err := d.s.StartReadingChunk(serial.LabelMaterials); err != nil {
		return err
	}
	ids := d.s.ReadIntList(0, serial.MaxMaterials, "materialCount")
	if err := d.s.FinishReadingChunk(serial.LabelMaterials); err != nil {
		return err
	}
	slices.Sort(ids)
	d.file.MaterialIDs = slices.Compact(ids)
	return nil
}
