package serial

import (
	"encoding/binary"
	"fmt"
	stdmath "math"
	"slices"

	"github.com/Faultbox/blocks/pkg/math"
)

// WriteInt writes a 32-bit signed integer. Values outside int32 are a
// programmer error: models are validated before they reach the serializer.
func (s *Serializer) WriteInt(v int) {
	s.mustBe(modeWriting, "WriteInt")
	if v < stdmath.MinInt32 || v > stdmath.MaxInt32 {
		panic(fmt.Sprintf("serial: WriteInt(%d) overflows int32", v))
	}
	s.ensure(intSize)
	s.buf = binary.LittleEndian.AppendUint32(s.buf, uint32(int32(v)))
}

// WriteCount writes a collection length. Readers bound it with ReadCount.
func (s *Serializer) WriteCount(n int) {
	if n < 0 {
		panic(fmt.Sprintf("serial: WriteCount(%d) is negative", n))
	}
	s.WriteInt(n)
}

// WriteFloat writes an IEEE-754 float32.
func (s *Serializer) WriteFloat(v float32) {
	s.mustBe(modeWriting, "WriteFloat")
	s.ensure(floatSize)
	s.buf = binary.LittleEndian.AppendUint32(s.buf, stdmath.Float32bits(v))
}

// WriteVec3 writes X, Y, Z.
func (s *Serializer) WriteVec3(v math.Vec3) {
	s.ensure(vec3Size)
	s.WriteFloat(v.X)
	s.WriteFloat(v.Y)
	s.WriteFloat(v.Z)
}

// WriteQuat writes X, Y, Z, W.
func (s *Serializer) WriteQuat(q math.Quat) {
	s.ensure(quatSize)
	s.WriteFloat(q.X)
	s.WriteFloat(q.Y)
	s.WriteFloat(q.Z)
	s.WriteFloat(q.W)
}

// WriteBytes writes a count-prefixed byte blob.
func (s *Serializer) WriteBytes(b []byte) {
	s.WriteCount(len(b))
	s.ensure(len(b))
	s.buf = append(s.buf, b...)
}

// WriteString writes a count-prefixed UTF-8 string of at most MaxStringLength bytes.
func (s *Serializer) WriteString(str string) {
	if len(str) > MaxStringLength {
		panic(fmt.Sprintf("serial: WriteString of %d bytes exceeds %d", len(str), MaxStringLength))
	}
	s.WriteCount(len(str))
	s.ensure(len(str))
	s.buf = append(s.buf, str...)
}

// WriteIntList writes a count-prefixed list of ints.
func (s *Serializer) WriteIntList(values []int) {
	s.WriteCount(len(values))
	s.ensure(len(values) * intSize)
	for _, v := range values {
		s.WriteInt(v)
	}
}

// WriteVec3List writes a count-prefixed list of vectors.
func (s *Serializer) WriteVec3List(values []math.Vec3) {
	s.WriteCount(len(values))
	s.ensure(len(values) * vec3Size)
	for _, v := range values {
		s.WriteVec3(v)
	}
}

// WriteRepeatedVec3 writes a count-prefixed list holding v n times.
func (s *Serializer) WriteRepeatedVec3(v math.Vec3, n int) {
	s.WriteCount(n)
	s.ensure(n * vec3Size)
	for i := 0; i < n; i++ {
		s.WriteVec3(v)
	}
}

// WriteStringSet writes a count-prefixed set of strings. Members are written
// in sorted order so equal sets always encode to equal bytes.
func (s *Serializer) WriteStringSet(set map[string]struct{}) {
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	slices.Sort(members)
	s.WriteCount(len(members))
	for _, m := range members {
		s.WriteString(m)
	}
}
