// Package codec holds the single canonical CBOR encoding mode shared by
// every entity's content-hash computation, set up once at package init the
// same way the teacher's storage layer sets up its codec and compressor.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Canonical is the deterministic CBOR encoding mode used for every
// canonical byte encoding in the entity graph. CBOR's canonical mode sorts
// map keys and uses the shortest-form integer and length encodings, which
// is exactly the deterministic attribute ordering Id.Build depends on.
var Canonical cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Errorf("codec: could not initialize canonical encoding mode: %w", err))
	}
	Canonical = mode
}

// Marshal encodes v using the canonical encoding mode.
func Marshal(v interface{}) ([]byte, error) {
	data, err := Canonical.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: could not marshal: %w", err)
	}
	return data, nil
}

// Unmarshal decodes data produced by Marshal.
func Unmarshal(data []byte, v interface{}) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: could not unmarshal: %w", err)
	}
	return nil
}
