// Package entity implements the immutable, content-addressed entity graph:
// Values, commit metadata, and the L1/L2/L3 tree tiers that summarise a
// branch's state at a given commit.
package entity

import (
	"github.com/projectnessie/nessie-core/internal/codec"
	"github.com/projectnessie/nessie-core/internal/id"
)

// Kind tags which of the five payload variants a Value holds. The core
// never parses or validates the payload itself; it only hashes and stores
// it, exactly as spec'd for Iceberg, Delta Lake, Hive and SQL view content.
type Kind string

const (
	KindIceberg      Kind = "ICEBERG_TABLE"
	KindHiveTable    Kind = "HIVE_TABLE"
	KindHiveDatabase Kind = "HIVE_DATABASE"
	KindSQLView      Kind = "SQL_VIEW"
	KindDeltaLake    Kind = "DELTA_LAKE_TABLE"
)

// Value is an opaque, content-addressed leaf payload. Its Id is the hash of
// its canonical encoding; its Data is stored and returned verbatim.
type Value struct {
	id   id.Id
	Kind Kind
	Data []byte
}

type valueEncoding struct {
	Kind Kind   `cbor:"kind"`
	Data []byte `cbor:"data"`
}

// NewValue builds a Value and computes its content Id.
func NewValue(kind Kind, data []byte) (Value, error) {
	canonical, err := codec.Marshal(valueEncoding{Kind: kind, Data: data})
	if err != nil {
		return Value{}, err
	}
	return Value{id: id.Build(canonical), Kind: kind, Data: data}, nil
}

// Id returns the Value's content Id.
func (v Value) Id() id.Id {
	return v.id
}

// Encode returns the canonical bytes for this Value, for use by a Store's
// SaveOp.
func (v Value) Encode() ([]byte, error) {
	return codec.Marshal(valueEncoding{Kind: v.Kind, Data: v.Data})
}

// DecodeValue decodes canonical bytes into a Value and verifies the claimed
// Id against the recomputed one.
func DecodeValue(claimed id.Id, canonical []byte) (Value, error) {
	if err := id.EnsureConsistent(claimed, canonical); err != nil {
		return Value{}, err
	}
	var enc valueEncoding
	if err := codec.Unmarshal(canonical, &enc); err != nil {
		return Value{}, err
	}
	return Value{id: claimed, Kind: enc.Kind, Data: enc.Data}, nil
}
