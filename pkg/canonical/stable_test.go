package canonical

import (
	"testing"
)

func TestStableJSONBytesOrdersKeysRecursively(t *testing.T) {
	value := map[string]any{
		"z": 1,
		"a": map[string]any{
			"d": 4,
			"b": 2,
		},
		"arr": []any{
			map[string]any{"k2": 2, "k1": 1},
		},
	}

	got, err := StableJSONBytes(value)
	if err != nil {
		t.Fatalf("StableJSONBytes: %v", err)
	}

	want := `{"a":{"b":2,"d":4},"arr":[{"k1":1,"k2":2}],"z":1}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestStableJSONBytesIgnoresInputKeyOrder(t *testing.T) {
	v1 := map[string]any{"b": 2, "a": 1}
	v2 := map[string]any{"a": 1, "b": 2}

	b1, err := StableJSONBytes(v1)
	if err != nil {
		t.Fatalf("v1: %v", err)
	}
	b2, err := StableJSONBytes(v2)
	if err != nil {
		t.Fatalf("v2: %v", err)
	}
	if string(b1) != string(b2) {
		t.Fatalf("expected identical bytes, got %s vs %s", b1, b2)
	}
}

func TestStableHashHexIsDeterministic(t *testing.T) {
	v := map[string]any{"b": 2, "a": 1}
	h1, err := StableJSONHashHex(v)
	if err != nil {
		t.Fatalf("hash 1: %v", err)
	}
	h2, err := StableJSONHashHex(v)
	if err != nil {
		t.Fatalf("hash 2: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("hashes differ: %s vs %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h1))
	}
}

func TestStableSortByKeyIsStable(t *testing.T) {
	type row struct {
		key int
		tag string
	}
	rows := []row{
		{1, "a"}, {1, "b"}, {0, "c"}, {1, "d"},
	}
	sorted := StableSortByKey(rows, func(r row) int { return r.key })
	want := []string{"c", "a", "b", "d"}
	for i, r := range sorted {
		if r.tag != want[i] {
			t.Fatalf("index %d: got %s want %s", i, r.tag, want[i])
		}
	}
}

func TestCursorPayloadRoundTrip(t *testing.T) {
	payload := map[string]any{
		"order":        "gene_id",
		"last_gene_id": "g1",
		"query_hash":   "h",
	}
	token, err := EncodeCursorPayload(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeCursorPayload(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["last_gene_id"] != "g1" {
		t.Fatalf("round trip mismatch: %v", decoded)
	}
}

func TestDecodeCursorPayloadRejectsBadBase64(t *testing.T) {
	if _, err := DecodeCursorPayload("not base64 url!!"); err == nil {
		t.Fatal("expected decode error")
	}
}
