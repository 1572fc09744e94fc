package codec

// Codec converts structured payload values to and from the opaque payload
// bytes carried inside wire frames. The protocol core never inspects payload
// bytes beyond their length, so codecs are interchangeable as long as client
// and server agree.
type Codec interface {
	// Pack serializes a value into payload bytes
	Pack(v any) ([]byte, error)

	// Unpack deserializes payload bytes into a value
	Unpack(data []byte) (any, error)

	// GetName returns the name of the codec (e.g. "msgpack", "json")
	GetName() string
}
