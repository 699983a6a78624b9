package query

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bijux/atlas/pkg/atlaserr"
	"github.com/bijux/atlas/pkg/canonical"
)

// MaxCursorLength is the maximum accepted encoded cursor length, in bytes.
const MaxCursorLength = 1024

// CursorPayload is the resume position for a paginated query, bound to the
// query it was sealed for via QueryHash.
type CursorPayload struct {
	Order      SortKey `json:"order"`
	LastSeqId  *string `json:"last_seqid,omitempty"`
	LastStart  *uint64 `json:"last_start,omitempty"`
	LastGeneId string  `json:"last_gene_id"`
	QueryHash  string  `json:"query_hash"`
}

// EncodeCursor seals payload with key: base64url(stable_json_bytes(payload))
// + "." + base64url(hmac_sha256(key, payload_bytes)).
func EncodeCursor(payload CursorPayload, key []byte) (string, error) {
	payloadBytes, err := canonical.StableJSONBytes(payload)
	if err != nil {
		return "", fmt.Errorf("query: encode cursor payload: %w", err)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(payloadBytes)
	sig := mac.Sum(nil)
	return base64.RawURLEncoding.EncodeToString(payloadBytes) + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// DecodeCursor verifies and decodes token against key and expectedQueryHash.
// Rejection order matches the spec exactly: length, base64/format, HMAC
// signature (constant-time), order, then query hash.
func DecodeCursor(token string, key []byte, expectedOrder SortKey, expectedQueryHash string) (CursorPayload, error) {
	if len(token) > MaxCursorLength {
		return CursorPayload{}, atlaserr.New(atlaserr.CursorInvalidFormat, "cursor token exceeds max length")
	}
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return CursorPayload{}, atlaserr.New(atlaserr.CursorInvalidFormat, "cursor token missing signature separator")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return CursorPayload{}, atlaserr.New(atlaserr.CursorInvalidFormat, "cursor payload is not valid base64url")
	}
	sigBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return CursorPayload{}, atlaserr.New(atlaserr.CursorInvalidFormat, "cursor signature is not valid base64url")
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(payloadBytes)
	expectedSig := mac.Sum(nil)
	if !hmac.Equal(sigBytes, expectedSig) {
		return CursorPayload{}, atlaserr.New(atlaserr.CursorInvalidSignature, "cursor signature mismatch")
	}

	dec := json.NewDecoder(bytes.NewReader(payloadBytes))
	dec.UseNumber()
	var decoded map[string]any
	if err := dec.Decode(&decoded); err != nil {
		return CursorPayload{}, atlaserr.New(atlaserr.CursorInvalidFormat, "cursor payload is not valid json")
	}
	payload, err := cursorPayloadFromMap(decoded)
	if err != nil {
		return CursorPayload{}, atlaserr.New(atlaserr.CursorInvalidFormat, err.Error())
	}

	if payload.Order != expectedOrder {
		return CursorPayload{}, atlaserr.New(atlaserr.CursorInvalidFormat, "cursor order does not match requested sort key")
	}
	if payload.QueryHash != expectedQueryHash {
		return CursorPayload{}, atlaserr.New(atlaserr.CursorInvalidCursor, "cursor query_hash does not match current query")
	}
	return payload, nil
}

func cursorPayloadFromMap(m map[string]any) (CursorPayload, error) {
	order, _ := m["order"].(string)
	if order == "" {
		return CursorPayload{}, fmt.Errorf("cursor payload missing order")
	}
	lastGeneId, _ := m["last_gene_id"].(string)
	if lastGeneId == "" {
		return CursorPayload{}, fmt.Errorf("cursor payload missing last_gene_id")
	}
	queryHash, _ := m["query_hash"].(string)
	if queryHash == "" {
		return CursorPayload{}, fmt.Errorf("cursor payload missing query_hash")
	}
	payload := CursorPayload{Order: SortKey(order), LastGeneId: lastGeneId, QueryHash: queryHash}
	if v, ok := m["last_seqid"].(string); ok {
		payload.LastSeqId = &v
	}
	if v, ok := m["last_start"]; ok {
		n, err := canonical.NumberAsUint64(v)
		if err != nil {
			return CursorPayload{}, fmt.Errorf("cursor payload last_start: %w", err)
		}
		payload.LastStart = &n
	}
	return payload, nil
}
