package repositories

import "github.com/fxamacker/cbor/v2"

// Stored values are CBOR with Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length items.
// Same logical record always produces identical bytes.
var encMode cbor.EncMode

func init() {
	options := cbor.CoreDetEncOptions()
	// Timestamps keep nanosecond precision; the default epoch-seconds
	// encoding would truncate created_at and break ordering round-trips.
	options.Time = cbor.TimeRFC3339Nano

	var err error
	encMode, err = options.EncMode()
	if err != nil {
		panic("repositories: CBOR encoder initialization failed: " + err.Error())
	}
}

func marshalValue(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unknown fields are silently ignored on decode for forward compatibility.
func unmarshalValue(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}
