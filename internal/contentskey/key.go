// Package contentskey implements ContentsKey: the ordered list of string
// segments that identifies a table, view or namespace in the catalog.
package contentskey

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNulByte is returned when a segment contains the NUL byte, which is
// reserved as the path-encoding escape for a literal dot.
var ErrNulByte = errors.New("contentskey: segment may not contain a NUL byte")

// Key is an ordered sequence of string segments. Empty segments are
// accepted.
type Key struct {
	segments []string
}

// Of builds a Key from its segments, rejecting any segment containing a NUL
// byte.
func Of(segments ...string) (Key, error) {
	for _, s := range segments {
		if strings.ContainsRune(s, 0) {
			return Key{}, fmt.Errorf("%w: %q", ErrNulByte, s)
		}
	}
	out := make([]string, len(segments))
	copy(out, segments)
	return Key{segments: out}, nil
}

// Segments returns a copy of the key's segments.
func (k Key) Segments() []string {
	out := make([]string, len(k.segments))
	copy(out, k.segments)
	return out
}

// Equal reports whether two keys have the same segments in the same order.
func (k Key) Equal(other Key) bool {
	if len(k.segments) != len(other.segments) {
		return false
	}
	for i := range k.segments {
		if k.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}

// ToPathString encodes the key for use as a single URL path component:
// segments are joined by '.', and any literal '.' within a segment is
// replaced by NUL so it cannot be confused with the segment separator.
func (k Key) ToPathString() string {
	escaped := make([]string, len(k.segments))
	for i, s := range k.segments {
		escaped[i] = strings.ReplaceAll(s, ".", "\x00")
	}
	return strings.Join(escaped, ".")
}

// FromPathString inverts ToPathString exactly.
func FromPathString(s string) (Key, error) {
	parts := strings.Split(s, ".")
	segments := make([]string, len(parts))
	for i, p := range parts {
		segments[i] = strings.ReplaceAll(p, "\x00", ".")
	}
	return Of(segments...)
}

// String renders the key in dotted form for logging, e.g. "a.b.c". This is
// not the wire encoding; use ToPathString for that.
func (k Key) String() string {
	return strings.Join(k.segments, ".")
}
