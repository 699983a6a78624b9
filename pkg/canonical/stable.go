// Package canonical implements the single, shared canonicalization and
// hashing protocol that every other Atlas package builds on: stable JSON
// bytes, stable SHA-256 hex digests, and a stable generic sort helper.
//
// Everything here is pure and synchronous. No wall-clock time, no
// randomness, no I/O. Cross-process reproducibility of manifests, cursors,
// cache keys, and catalog entries all derive from these primitives — do not
// introduce a second hashing or serialization path anywhere else in the
// module.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// StableJSONBytes serializes v to JSON bytes whose object keys are
// recursively sorted in ascending Unicode codepoint order. Arrays preserve
// their original order. This is the ONLY serialization path permitted to
// feed a hash, a cursor, or a manifest checksum.
func StableJSONBytes(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonical: decode for normalization: %w", err)
	}

	normalized := normalize(generic)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, fmt.Errorf("canonical: encode normalized value: %w", err)
	}
	// json.Encoder.Encode appends a trailing newline; the canonical form
	// never carries one.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// normalize walks a decoded JSON value (as produced by a json.Decoder with
// UseNumber) and returns an equivalent value whose map keys will serialize
// in sorted order. json.Marshal already sorts map[string]any keys, so the
// only work here is to decode into that shape consistently at every level.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = normalize(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = normalize(child)
		}
		return out
	default:
		return val
	}
}

// StableHashHex returns the lowercase-hex SHA-256 digest of bytes. This is
// the only hashing primitive permitted in the core.
func StableHashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// StableJSONHashHex is StableHashHex(StableJSONBytes(v)).
func StableJSONHashHex(v any) (string, error) {
	b, err := StableJSONBytes(v)
	if err != nil {
		return "", err
	}
	return StableHashHex(b), nil
}
