// Package serial implements the chunked binary container used by blocks files.
//
// A Serializer is a cursor over a byte buffer that is either writing or
// reading for its whole setup, never both. Data is framed into chunks:
//
//	Header { magic "PLTZ", major u16, minor u16 }
//	Chunk  { label u32, length u32, payload [length]byte }
//
// Because every chunk declares its own length, a reader can step over any
// chunk it does not understand. New optional data is always added as a new
// chunk, which keeps old readers working on new files.
//
// Write errors are programmer errors and panic. Read errors are sticky: the
// first failure is remembered, later reads return zero values, and Err
// reports the failure. Chunk framing calls return the sticky error directly.
package serial

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/blocks/internal/logger"
)

type mode int

const (
	modeIdle mode = iota
	modeWriting
	modeReading
)

func (m mode) String() string {
	switch m {
	case modeWriting:
		return "writing"
	case modeReading:
		return "reading"
	default:
		return "idle"
	}
}

// openChunk is an entry of the chunk stack. When writing, offset is where
// the chunk header starts. When reading, offset is where the payload ends.
type openChunk struct {
	label  Label
	offset int
}

// Serializer reads or writes one container. It is not safe for concurrent use.
// The zero value is idle; call SetupForWriting or SetupForReading first.
type Serializer struct {
	mode   mode
	buf    []byte
	chunks []openChunk

	// writing
	initialCapacity int
	grows           int
	finished        bool

	// reading
	pos   int
	limit int // end of the innermost open chunk, or of the region
	end   int // end of the region
	err   error
}

// NewSerializer returns an idle serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// SetupForWriting prepares the serializer to write a new container into a
// fresh buffer of at least minInitialCapacity bytes. The header is written
// immediately. Growing past the initial capacity is legal but is counted
// and logged, since it means the caller's size estimate was low.
func (s *Serializer) SetupForWriting(minInitialCapacity int) {
	if minInitialCapacity < HeaderSize {
		minInitialCapacity = HeaderSize
	}
	*s = Serializer{
		mode:            modeWriting,
		buf:             make([]byte, 0, minInitialCapacity),
		chunks:          s.chunks[:0],
		initialCapacity: minInitialCapacity,
	}
	s.buf = appendHeader(s.buf)
}

// SetupForReading binds the serializer to data[offset:offset+length] without
// copying it. The header is checked; a foreign buffer yields ErrFormatMismatch.
func (s *Serializer) SetupForReading(data []byte, offset, length int) error {
	if offset < 0 || length < 0 || offset > len(data) || length > len(data)-offset {
		return fmt.Errorf("%w: offset %d, length %d, buffer %d", ErrInvalidRegion, offset, length, len(data))
	}
	*s = Serializer{
		mode:   modeReading,
		buf:    data,
		chunks: s.chunks[:0],
		pos:    offset,
		limit:  offset + length,
		end:    offset + length,
	}
	if !HasValidHeader(data, offset, length) {
		s.err = ErrFormatMismatch
		return s.err
	}
	s.pos += HeaderSize
	return nil
}

func (s *Serializer) mustBe(m mode, op string) {
	if s.mode != m {
		panic(fmt.Sprintf("serial: %s called while %s", op, s.mode))
	}
}

// --- Writing ---

// ensure makes room for n more bytes, growing the buffer if the estimate was short.
func (s *Serializer) ensure(n int) {
	if len(s.buf)+n <= cap(s.buf) {
		return
	}
	newCap := 2 * cap(s.buf)
	if newCap < len(s.buf)+n {
		newCap = len(s.buf) + n
	}
	grown := make([]byte, len(s.buf), newCap)
	copy(grown, s.buf)
	s.buf = grown
	s.grows++
	logger.Debug("serializer buffer grew",
		zap.Int("initial_capacity", s.initialCapacity),
		zap.Int("new_capacity", newCap),
		zap.Int("grows", s.grows))
}

// StartWritingChunk opens a chunk. Its length is filled in by the matching
// FinishWritingChunk. Chunks may nest but must be closed in reverse order.
func (s *Serializer) StartWritingChunk(label Label) {
	s.mustBe(modeWriting, "StartWritingChunk")
	if s.finished {
		panic("serial: StartWritingChunk after FinishWriting")
	}
	s.ensure(ChunkHeaderSize)
	s.chunks = append(s.chunks, openChunk{label: label, offset: len(s.buf)})
	s.buf = binary.LittleEndian.AppendUint32(s.buf, uint32(label))
	s.buf = binary.LittleEndian.AppendUint32(s.buf, 0)
}

// FinishWritingChunk closes the innermost open chunk and backpatches its length.
func (s *Serializer) FinishWritingChunk(label Label) {
	s.mustBe(modeWriting, "FinishWritingChunk")
	if len(s.chunks) == 0 {
		panic(fmt.Sprintf("serial: FinishWritingChunk(%s) with no open chunk", label))
	}
	top := s.chunks[len(s.chunks)-1]
	if top.label != label {
		panic(fmt.Sprintf("serial: FinishWritingChunk(%s) but innermost open chunk is %s", label, top.label))
	}
	s.chunks = s.chunks[:len(s.chunks)-1]
	length := len(s.buf) - top.offset - ChunkHeaderSize
	if uint64(length) > 0xFFFFFFFF {
		panic(fmt.Sprintf("serial: chunk %s is %d bytes, too large to frame", label, length))
	}
	binary.LittleEndian.PutUint32(s.buf[top.offset+4:], uint32(length))
}

// FinishWriting seals the container. Every chunk must be closed.
func (s *Serializer) FinishWriting() {
	s.mustBe(modeWriting, "FinishWriting")
	if len(s.chunks) != 0 {
		panic(fmt.Sprintf("serial: FinishWriting with %d open chunk(s), innermost %s",
			len(s.chunks), s.chunks[len(s.chunks)-1].label))
	}
	s.finished = true
}

// ToByteArray returns exactly the bytes written, never the spare capacity.
// The serializer gives up the buffer: the next SetupForWriting allocates anew.
func (s *Serializer) ToByteArray() []byte {
	s.mustBe(modeWriting, "ToByteArray")
	if !s.finished {
		panic("serial: ToByteArray before FinishWriting")
	}
	out := s.buf[:len(s.buf):len(s.buf)]
	s.buf = nil
	s.mode = modeIdle
	return out
}

// Len returns the number of bytes written so far.
func (s *Serializer) Len() int {
	return len(s.buf)
}

// Grows returns how many times the write buffer had to be reallocated.
func (s *Serializer) Grows() int {
	return s.grows
}

// --- Reading ---

// Err returns the first read failure, if any.
func (s *Serializer) Err() error {
	return s.err
}

func (s *Serializer) fail(sentinel error, format string, args ...any) {
	if s.err != nil {
		return
	}
	s.err = fmt.Errorf("%w: %s (offset %d)", sentinel, fmt.Sprintf(format, args...), s.pos)
}

// remaining is the number of unread bytes in the innermost open region.
func (s *Serializer) remaining() int {
	return s.limit - s.pos
}

// take consumes n bytes of the innermost region, or fails with ErrTruncated.
func (s *Serializer) take(n int, what string) []byte {
	if s.err != nil {
		return nil
	}
	if n < 0 || n > s.remaining() {
		s.fail(ErrTruncated, "reading %s: need %d bytes, have %d", what, n, s.remaining())
		return nil
	}
	b := s.buf[s.pos : s.pos+n]
	s.pos += n
	return b
}

// GetNextChunkLabel peeks at the label of the next chunk in the innermost
// region without consuming it. ok is false at the end of the region, when
// too few bytes remain for a chunk header, or after a read failure.
func (s *Serializer) GetNextChunkLabel() (label Label, ok bool) {
	s.mustBe(modeReading, "GetNextChunkLabel")
	if s.err != nil || s.remaining() < ChunkHeaderSize {
		return 0, false
	}
	return Label(binary.LittleEndian.Uint32(s.buf[s.pos:])), true
}

// Remaining returns the number of unread bytes in the innermost region.
// Decoders use it to cap preallocation.
func (s *Serializer) Remaining() int {
	s.mustBe(modeReading, "Remaining")
	return s.remaining()
}

// AtEnd reports whether the innermost region has been fully consumed.
func (s *Serializer) AtEnd() bool {
	s.mustBe(modeReading, "AtEnd")
	return s.remaining() == 0
}

// readChunkHeader consumes a chunk header and validates the declared length.
func (s *Serializer) readChunkHeader() (Label, int, error) {
	h := s.take(ChunkHeaderSize, "chunk header")
	if h == nil {
		return 0, 0, s.err
	}
	label := Label(binary.LittleEndian.Uint32(h[0:4]))
	length := binary.LittleEndian.Uint32(h[4:8])
	if uint64(length) > uint64(s.remaining()) {
		s.fail(ErrChunkOverrun, "chunk %s declares %d bytes, %d remain", label, length, s.remaining())
		return 0, 0, s.err
	}
	return label, int(length), nil
}

// StartReadingChunk consumes the next chunk header, which must carry label,
// and restricts reads to that chunk's payload until FinishReadingChunk.
func (s *Serializer) StartReadingChunk(label Label) error {
	s.mustBe(modeReading, "StartReadingChunk")
	if s.err != nil {
		return s.err
	}
	start := s.pos
	got, length, err := s.readChunkHeader()
	if err != nil {
		return err
	}
	if got != label {
		s.pos = start
		s.fail(ErrLabelMismatch, "expected chunk %s, found %s", label, got)
		return s.err
	}
	s.chunks = append(s.chunks, openChunk{label: label, offset: s.pos + length})
	s.limit = s.pos + length
	return nil
}

// FinishReadingChunk leaves the innermost chunk, skipping any payload bytes
// that were not read. Trailing data appended by newer writers is dropped here.
func (s *Serializer) FinishReadingChunk(label Label) error {
	s.mustBe(modeReading, "FinishReadingChunk")
	if s.err != nil {
		return s.err
	}
	if len(s.chunks) == 0 {
		panic(fmt.Sprintf("serial: FinishReadingChunk(%s) with no open chunk", label))
	}
	top := s.chunks[len(s.chunks)-1]
	if top.label != label {
		panic(fmt.Sprintf("serial: FinishReadingChunk(%s) but innermost open chunk is %s", label, top.label))
	}
	s.chunks = s.chunks[:len(s.chunks)-1]
	s.pos = top.offset
	if len(s.chunks) > 0 {
		s.limit = s.chunks[len(s.chunks)-1].offset
	} else {
		s.limit = s.end
	}
	return nil
}

// SkipChunk consumes the next chunk whatever its label and returns the label.
func (s *Serializer) SkipChunk() (Label, error) {
	s.mustBe(modeReading, "SkipChunk")
	if s.err != nil {
		return 0, s.err
	}
	label, length, err := s.readChunkHeader()
	if err != nil {
		return 0, err
	}
	s.pos += length
	return label, nil
}
