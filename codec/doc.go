// Package codec provides payload value serialization for the ChronoDB wire
// protocol. It defines a common interface and multiple implementations for
// packing and unpacking the structured values carried inside frame payloads.
//
// The MessagePack implementation is the default and matches what ChronoDB
// servers speak, the JSON implementation exists for debugging setups.
package codec
