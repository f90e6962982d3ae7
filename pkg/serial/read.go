package serial

import (
	"encoding/binary"
	stdmath "math"

	"github.com/Faultbox/blocks/pkg/math"
)

// ReadInt reads a 32-bit signed integer.
func (s *Serializer) ReadInt() int {
	s.mustBe(modeReading, "ReadInt")
	b := s.take(intSize, "int")
	if b == nil {
		return 0
	}
	return int(int32(binary.LittleEndian.Uint32(b)))
}

// ReadCount reads a collection length and checks min <= n <= max. An out of
// range count fails with ErrCountOutOfRange and returns 0, so callers never
// allocate for it. field names the count in the error.
func (s *Serializer) ReadCount(min, max int, field string) int {
	n := s.ReadInt()
	if s.err != nil {
		return 0
	}
	if n < min || n > max {
		s.pos -= intSize
		s.fail(ErrCountOutOfRange, "%s = %d, allowed [%d, %d]", field, n, min, max)
		return 0
	}
	return n
}

// readSizedCount is ReadCount plus a check that count elements of elemSize
// bytes fit in what is left of the region.
func (s *Serializer) readSizedCount(min, max, elemSize int, field string) int {
	n := s.ReadCount(min, max, field)
	if s.err != nil {
		return 0
	}
	if n*elemSize > s.remaining() {
		s.fail(ErrTruncated, "%s = %d needs %d bytes, have %d", field, n, n*elemSize, s.remaining())
		return 0
	}
	return n
}

// ReadFloat reads an IEEE-754 float32.
func (s *Serializer) ReadFloat() float32 {
	s.mustBe(modeReading, "ReadFloat")
	b := s.take(floatSize, "float")
	if b == nil {
		return 0
	}
	return stdmath.Float32frombits(binary.LittleEndian.Uint32(b))
}

// ReadVec3 reads X, Y, Z.
func (s *Serializer) ReadVec3() math.Vec3 {
	return math.Vec3{X: s.ReadFloat(), Y: s.ReadFloat(), Z: s.ReadFloat()}
}

// ReadQuat reads X, Y, Z, W.
func (s *Serializer) ReadQuat() math.Quat {
	return math.Quat{X: s.ReadFloat(), Y: s.ReadFloat(), Z: s.ReadFloat(), W: s.ReadFloat()}
}

// ReadBytes reads a count-prefixed byte blob of at most max bytes. The
// result is a copy and does not alias the input buffer.
func (s *Serializer) ReadBytes(max int, field string) []byte {
	s.mustBe(modeReading, "ReadBytes")
	n := s.readSizedCount(0, max, 1, field)
	b := s.take(n, field)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// ReadString reads a count-prefixed string of at most MaxStringLength bytes.
func (s *Serializer) ReadString(field string) string {
	s.mustBe(modeReading, "ReadString")
	n := s.readSizedCount(0, MaxStringLength, 1, field)
	b := s.take(n, field)
	if b == nil {
		return ""
	}
	return string(b)
}

// ReadIntList reads a count-prefixed list of ints.
func (s *Serializer) ReadIntList(min, max int, field string) []int {
	s.mustBe(modeReading, "ReadIntList")
	n := s.readSizedCount(min, max, intSize, field)
	if s.err != nil {
		return nil
	}
	values := make([]int, n)
	for i := range values {
		values[i] = s.ReadInt()
	}
	return values
}

// ReadVec3List reads a count-prefixed list of vectors.
func (s *Serializer) ReadVec3List(min, max int, field string) []math.Vec3 {
	s.mustBe(modeReading, "ReadVec3List")
	n := s.readSizedCount(min, max, vec3Size, field)
	if s.err != nil {
		return nil
	}
	values := make([]math.Vec3, n)
	for i := range values {
		values[i] = s.ReadVec3()
	}
	return values
}

// ReadStringSet reads a count-prefixed set of strings. Duplicates collapse.
func (s *Serializer) ReadStringSet(min, max int, field string) map[string]struct{} {
	s.mustBe(modeReading, "ReadStringSet")
	// Every member carries at least its own length prefix.
	n := s.readSizedCount(min, max, intSize, field)
	if s.err != nil {
		return nil
	}
	set := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		str := s.ReadString(field)
		if s.err != nil {
			return nil
		}
		set[str] = struct{}{}
	}
	return set
}
