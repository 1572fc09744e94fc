package codec

import (
	"github.com/vmihailenco/msgpack/v5"
)

// NewMsgpackCodec creates the default codec using the MessagePack format.
func NewMsgpackCodec() Codec {
	return &msgpackCodecImpl{}
}

// msgpackCodecImpl implements Codec using MessagePack
type msgpackCodecImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (c *msgpackCodecImpl) GetName() string {
	return "msgpack"
}

func (c *msgpackCodecImpl) Pack(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (c *msgpackCodecImpl) Unpack(data []byte) (any, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
