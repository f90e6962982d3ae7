package blocks

import (
	"errors"
	"fmt"
	stdmath "math"
	"time"

	"github.com/Faultbox/blocks/pkg/serial"
)

// Defaults applied to zero-valued Options fields.
const (
	DefaultCreatorName = "unknown"
	DefaultVersion     = "1.0"
	DefaultZoomFactor  = 1
)

// ErrInvalidOptions is returned by Encode when Options cannot be written.
var ErrInvalidOptions = errors.New("invalid save options")

// Options control how a file is written. The zero value is usable.
type Options struct {
	CreatorName string
	Version     string

	// ZoomFactor must be finite and non-negative. Zero means DefaultZoomFactor.
	ZoomFactor float32

	DisplayRotation *float32

	// Properties is written whenever it is non-nil, so an empty map
	// survives a round trip as an empty map.
	Properties map[string]string

	// Compression wraps the container in a compressed envelope when
	// writing files. Encode itself always returns a raw container.
	Compression Codec

	// ExtraCapacity is added to the size estimate before the write buffer
	// is allocated. Raise it if estimate misses show up in the logs.
	ExtraCapacity int

	// Now stamps the creation date. Defaults to time.Now.
	Now func() time.Time
}

// resolve fills defaults and checks that every field can be written.
func (o Options) resolve() (Options, error) {
	if o.CreatorName == "" {
		o.CreatorName = DefaultCreatorName
	}
	if o.Version == "" {
		o.Version = DefaultVersion
	}
	if o.ZoomFactor == 0 {
		o.ZoomFactor = DefaultZoomFactor
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	if len(o.CreatorName) > serial.MaxStringLength || len(o.Version) > serial.MaxStringLength {
		return o, fmt.Errorf("%w: creator or version longer than %d bytes", ErrInvalidOptions, serial.MaxStringLength)
	}
	if !validZoom(o.ZoomFactor) {
		return o, fmt.Errorf("%w: zoom factor %v", ErrInvalidOptions, o.ZoomFactor)
	}
	if o.DisplayRotation != nil && !finite(*o.DisplayRotation) {
		return o, fmt.Errorf("%w: display rotation %v", ErrInvalidOptions, *o.DisplayRotation)
	}
	if o.ExtraCapacity < 0 {
		return o, fmt.Errorf("%w: extra capacity %d", ErrInvalidOptions, o.ExtraCapacity)
	}
	if !o.Compression.valid() {
		return o, fmt.Errorf("%w: compression %s", ErrInvalidOptions, o.Compression)
	}
	return o, nil
}

func finite(f float32) bool {
	return !stdmath.IsNaN(float64(f)) && !stdmath.IsInf(float64(f), 0)
}

func validZoom(f float32) bool {
	return finite(f) && f >= 0
}
