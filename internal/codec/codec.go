// Package codec abstracts the wire encodings used by the gateway (JSON) and
// the realtime channel (CBOR by default, JSON as fallback).
package codec

type Marshaler interface {
	Marshal(v any) ([]byte, error)
}

type Unmarshaler interface {
	Unmarshal(data []byte, dst any) error
}
