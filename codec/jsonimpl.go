package codec

import (
	"encoding/json"
)

// NewJSONCodec creates a codec using JSON. Mainly useful for debugging
// against servers configured for JSON payloads, numbers decode as float64.
func NewJSONCodec() Codec {
	return &jsonCodecImpl{}
}

// jsonCodecImpl implements Codec using the standard library JSON encoder
type jsonCodecImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (c *jsonCodecImpl) GetName() string {
	return "json"
}

func (c *jsonCodecImpl) Pack(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *jsonCodecImpl) Unpack(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
