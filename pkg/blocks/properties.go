package blocks

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/Faultbox/blocks/pkg/serial"
)

// Bounds on the file properties extension.
const (
	MaxPropertyPairs  = 1024
	MaxPropertiesSize = serial.MaxPropertiesSize
)

// propsEncMode uses Core Deterministic Encoding so equal property maps
// always encode to equal bytes, whatever Go's map iteration order.
var propsEncMode cbor.EncMode

// propsDecMode rejects duplicate keys and caps the pair count before
// anything is allocated for the map.
var propsDecMode cbor.DecMode

func init() {
	var err error
	propsEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("blocks: CBOR encoder initialization failed: " + err.Error())
	}
	propsDecMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		MaxMapPairs: MaxPropertyPairs,
	}.DecMode()
	if err != nil {
		panic("blocks: CBOR decoder initialization failed: " + err.Error())
	}
}

// marshalProperties encodes props as a CBOR map of text strings.
func marshalProperties(props map[string]string) ([]byte, error) {
	if len(props) > MaxPropertyPairs {
		return nil, fmt.Errorf("%w: %d properties, max %d", ErrInvalidOptions, len(props), MaxPropertyPairs)
	}
	data, err := propsEncMode.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("%w: properties: %w", ErrInvalidOptions, err)
	}
	if len(data) > MaxPropertiesSize {
		return nil, fmt.Errorf("%w: properties encode to %d bytes, max %d", ErrInvalidOptions, len(data), MaxPropertiesSize)
	}
	return data, nil
}

// unmarshalProperties decodes the payload of an EXT_PROPERTIES chunk.
func unmarshalProperties(data []byte) (map[string]string, error) {
	var props map[string]string
	if err := propsDecMode.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("%w: properties: %w", serial.ErrInvalidValue, err)
	}
	if props == nil {
		props = map[string]string{}
	}
	return props, nil
}
