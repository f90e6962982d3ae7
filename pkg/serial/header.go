package serial

import "encoding/binary"

// HasValidHeader reports whether data[offset:offset+length] starts with a
// container header this package can read. It never allocates and never
// panics, whatever the input.
func HasValidHeader(data []byte, offset, length int) bool {
	if offset < 0 || length < HeaderSize || offset > len(data) || length > len(data)-offset {
		return false
	}
	h := data[offset : offset+HeaderSize]
	if string(h[0:4]) != Magic {
		return false
	}
	// Minor revisions only add optional chunks, so any minor is readable.
	return binary.LittleEndian.Uint16(h[4:6]) == VersionMajor
}

// ReadVersion returns the major and minor format version of a container.
// ok is false when the header is not valid.
func ReadVersion(data []byte) (major, minor uint16, ok bool) {
	if !HasValidHeader(data, 0, len(data)) {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint16(data[4:6]), binary.LittleEndian.Uint16(data[6:8]), true
}

func appendHeader(buf []byte) []byte {
	buf = append(buf, Magic...)
	buf = binary.LittleEndian.AppendUint16(buf, VersionMajor)
	return binary.LittleEndian.AppendUint16(buf, VersionMinor)
}
