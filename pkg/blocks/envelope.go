package blocks

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/Faultbox/blocks/pkg/serial"
)

// Codec identifies the compression of an envelope. The values are stored
// in the envelope header and must not change.
type Codec uint8

const (
	CodecNone Codec = 0
	CodecLZ4  Codec = 1
	CodecZstd Codec = 2
)

// String returns the codec name used in config files and flags.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

func (c Codec) valid() bool {
	return c <= CodecZstd
}

// ParseCodec parses a codec name. The empty string means CodecNone.
func ParseCodec(name string) (Codec, error) {
	switch name {
	case "", "none":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression codec: %q", name)
	}
}

// Envelope layout: magic[4] codec u8 reserved[3] uncompressed-length u32.
const (
	EnvelopeMagic      = "PLTC"
	envelopeHeaderSize = 12

	// MaxUncompressedSize bounds what an envelope may expand to.
	MaxUncompressedSize = 256 << 20
)

var errIncompressible = errors.New("data is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("blocks: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxUncompressedSize))
	if err != nil {
		panic("blocks: zstd decoder initialization failed: " + err.Error())
	}
}

// IsCompressedContainer reports whether data starts with an envelope
// header. Like IsValidContainer it never allocates and never panics.
func IsCompressedContainer(data []byte) bool {
	return len(data) >= envelopeHeaderSize && string(data[:4]) == EnvelopeMagic
}

// Compress wraps a raw container in an envelope. If the codec does not
// make the container smaller, the envelope stores it with CodecNone.
func Compress(container []byte, codec Codec) ([]byte, error) {
	if !serial.HasValidHeader(container, 0, len(container)) {
		return nil, fmt.Errorf("%w: refusing to wrap unknown data", ErrFormatMismatch)
	}
	if len(container) > MaxUncompressedSize {
		return nil, fmt.Errorf("container of %d bytes exceeds envelope limit %d", len(container), MaxUncompressedSize)
	}

	var payload []byte
	var err error
	switch codec {
	case CodecNone:
		payload = container
	case CodecLZ4:
		payload, err = compressLZ4(container)
	case CodecZstd:
		payload, err = compressZstd(container)
	default:
		return nil, fmt.Errorf("unsupported compression codec: %s", codec)
	}
	if errors.Is(err, errIncompressible) {
		codec, payload, err = CodecNone, container, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, envelopeHeaderSize+len(payload))
	out = append(out, EnvelopeMagic...)
	out = append(out, byte(codec), 0, 0, 0)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(container)))
	return append(out, payload...), nil
}

// Decompress unwraps an envelope and returns the raw container inside.
// Data without an envelope header yields ErrFormatMismatch; a damaged
// envelope yields ErrCorruptData.
func Decompress(data []byte) ([]byte, error) {
	codec, size, err := EnvelopeInfo(data)
	if err != nil {
		return nil, err
	}
	payload := data[envelopeHeaderSize:]

	var out []byte
	switch codec {
	case CodecNone:
		if len(payload) != size {
			return nil, fmt.Errorf("%w: stored payload is %d bytes, header says %d", ErrCorruptData, len(payload), size)
		}
		out = payload
	case CodecLZ4:
		out, err = decompressLZ4(payload, size)
	case CodecZstd:
		out, err = decompressZstd(payload, size)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptData, err)
	}
	return out, nil
}

// EnvelopeInfo returns the codec and uncompressed size recorded in an
// envelope header without decompressing anything.
func EnvelopeInfo(data []byte) (Codec, int, error) {
	if !IsCompressedContainer(data) {
		return 0, 0, fmt.Errorf("%w: no envelope header", ErrFormatMismatch)
	}
	codec := Codec(data[4])
	if !codec.valid() {
		return 0, 0, fmt.Errorf("%w: envelope codec %d", ErrCorruptData, data[4])
	}
	size := binary.LittleEndian.Uint32(data[8:12])
	if size > MaxUncompressedSize {
		return 0, 0, fmt.Errorf("%w: envelope expands to %d bytes, max %d", ErrCorruptData, size, MaxUncompressedSize)
	}
	return codec, int(size), nil
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for incompressible input.
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

// lz4MaxRatio is the largest expansion an LZ4 block can achieve.
const lz4MaxRatio = 255

func decompressLZ4(compressed []byte, size int) ([]byte, error) {
	if size > lz4MaxRatio*len(compressed)+16 {
		return nil, fmt.Errorf("lz4 decompress: %d bytes cannot expand to %d", len(compressed), size)
	}
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(compressed, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", n, size)
	}
	return dst, nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, size int) ([]byte, error) {
	// The header size is untrusted until the frame decodes, so start small.
	out, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, min(size, 4*len(compressed)+1024)))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), size)
	}
	return out, nil
}
