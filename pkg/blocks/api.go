package blocks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/blocks/internal/logger"
	"github.com/Faultbox/blocks/pkg/mesh"
	"github.com/Faultbox/blocks/pkg/serial"
)

// IsValidContainer reports whether data starts with a raw container header.
// It only looks at the header: it never allocates, never panics, and
// accepts empty or random input. Use IsCompressedContainer to probe for an
// envelope.
func IsValidContainer(data []byte) bool {
	return serial.HasValidHeader(data, 0, len(data))
}

// Serialize encodes meshes with the given creator and version strings,
// falling back to the defaults for empty ones. It returns nil if the meshes
// cannot be encoded; the reason is logged.
func Serialize(meshes []*mesh.MMesh, creatorName, version string) []byte {
	data, err := Encode(meshes, Options{CreatorName: creatorName, Version: version})
	if err != nil {
		logger.Error("failed to serialize meshes", zap.Int("meshes", len(meshes)), zap.Error(err))
		return nil
	}
	return data
}

// Deserialize decodes data. ok is false when data is not a blocks container
// or is corrupt; the log says which.
func Deserialize(data []byte) (f *File, ok bool) {
	f, err := Decode(data)
	if err != nil {
		logLoadFailure("buffer", err)
		return nil, false
	}
	return f, true
}

// SaveToFile encodes meshes and writes them to path. An existing file at
// path is only replaced once the new contents are fully on disk.
func SaveToFile(path string, meshes []*mesh.MMesh, creatorName, version string) bool {
	if err := WriteFile(path, meshes, Options{CreatorName: creatorName, Version: version}); err != nil {
		logger.Error("failed to save blocks file", zap.String("path", path), zap.Error(err))
		return false
	}
	return true
}

// LoadFromFile reads and decodes the file at path. ok is false when the
// file is missing, unreadable, not a blocks container or corrupt.
func LoadFromFile(path string) (f *File, ok bool) {
	f, err := ReadFile(path)
	if err != nil {
		logLoadFailure(path, err)
		return nil, false
	}
	return f, true
}

// WriteFile encodes meshes, wraps them in an envelope if opts.Compression
// asks for one, and atomically replaces path with the result.
func WriteFile(path string, meshes []*mesh.MMesh, opts Options) error {
	data, err := Encode(meshes, opts)
	if err != nil {
		return err
	}
	if opts.Compression != CodecNone {
		if data, err = Compress(data, opts.Compression); err != nil {
			return err
		}
	}
	return WriteFileAtomic(path, data, 0o644)
}

// ReadFile reads and decodes the file at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it over path. On any failure path is left as it was.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// logLoadFailure logs a format mismatch as a routing signal and anything
// else as a real failure.
func logLoadFailure(source string, err error) {
	switch {
	case errors.Is(err, ErrFormatMismatch):
		logger.Info("not a blocks container", zap.String("source", source), zap.Error(err))
	case errors.Is(err, ErrCorruptData):
		logger.Error("corrupt blocks data", zap.String("source", source), zap.Error(err))
	default:
		logger.Error("failed to load blocks file", zap.String("source", source), zap.Error(err))
	}
}
