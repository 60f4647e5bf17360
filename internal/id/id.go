// Package id implements the content-hash identity used throughout the
// catalog core: every entity's identity is the digest of its own canonical
// encoding, so equal content always yields an equal Id and storage is
// naturally deduplicated.
package id

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
)

// Size is the fixed width of an Id in bytes.
//
// A single deterministic digest of this exact width is all Build needs;
// crypto/sha1 already produces 20 bytes without any truncation logic, so no
// third-party hashing library earns its place here.
const Size = 20

// Empty is the distinguished zero Id, used as the sentinel parent of a
// repository's very first commit and as the Id of the canonical empty L1.
var Empty = Id{}

// Id is a fixed-width content hash.
type Id [Size]byte

// Build computes the content Id of an already-canonically-encoded byte
// slice. Callers are responsible for producing a deterministic encoding;
// see the entity package for the canonical CBOR encodings used throughout
// the catalog.
func Build(canonical []byte) Id {
	sum := sha1.Sum(canonical)
	var out Id
	copy(out[:], sum[:])
	return out
}

// IsEmpty reports whether the Id equals Empty.
func (i Id) IsEmpty() bool {
	return i == Empty
}

// Compare returns -1, 0 or 1 comparing i and other bytewise, matching
// bytes.Compare's contract.
func (i Id) Compare(other Id) int {
	return bytes.Compare(i[:], other[:])
}

// String returns the hex encoding of the Id.
func (i Id) String() string {
	return hex.EncodeToString(i[:])
}

// MarshalText implements encoding.TextMarshaler so an Id round-trips cleanly
// through CBOR's canonical map-key ordering and through JSON debug dumps.
func (i Id) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Id) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("id: invalid hex encoding: %w", err)
	}
	if len(decoded) != Size {
		return fmt.Errorf("id: expected %d bytes, got %d", Size, len(decoded))
	}
	copy(i[:], decoded)
	return nil
}

// ErrCorrupt is returned by EnsureConsistent when a loaded entity's stored
// Id does not match the Id computed from its own canonical encoding. This
// is always fatal: it indicates either storage corruption or a bug in the
// canonical encoder, never a condition a caller can usefully retry.
var ErrCorrupt = errors.New("id: stored id does not match computed id")

// EnsureConsistent recomputes the Id of a canonical encoding and compares it
// against the Id the entity claims, in the spirit of every loader in this
// codebase that trusts content only after verifying it against its own hash.
func EnsureConsistent(claimed Id, canonical []byte) error {
	computed := Build(canonical)
	if computed != claimed {
		return fmt.Errorf("%w: claimed %s, computed %s", ErrCorrupt, claimed, computed)
	}
	return nil
}
