package canonical

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodeCursorPayload encodes p as unpadded base64url over its stable JSON
// bytes. Signing and verification of the resulting token are the cursor
// layer's responsibility (pkg/query); this function only handles the
// canonical payload encoding.
func EncodeCursorPayload(p any) (string, error) {
	b, err := StableJSONBytes(p)
	if err != nil {
		return "", fmt.Errorf("canonical: encode cursor payload: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursorPayload reverses EncodeCursorPayload, returning the decoded
// JSON value as a generic map. Callers that need a typed payload should
// re-marshal/unmarshal into their own struct; this keeps decode failures
// distinct from signature-verification failures.
func DecodeCursorPayload(token string) (map[string]any, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("canonical: cursor base64 decode failed: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("canonical: cursor json decode failed: %w", err)
	}
	return out, nil
}

// NumberAsUint64 converts a decoded cursor field (a json.Number, as
// produced by DecodeCursorPayload's UseNumber decoder) to a uint64.
func NumberAsUint64(v any) (uint64, error) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("canonical: value is not a json.Number")
	}
	n, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("canonical: number is not an integer: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("canonical: number must be non-negative")
	}
	return uint64(n), nil
}
