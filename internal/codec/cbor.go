package codec

import "github.com/fxamacker/cbor/v2"

// CBOR implements Marshaler and Unmarshaler using fxamacker/cbor.
type CBOR struct{}

func (CBOR) Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func (CBOR) Unmarshal(data []byte, dst any) error {
	return cbor.Unmarshal(data, dst)
}
