package query

import (
	"strings"
	"testing"

	"github.com/bijux/atlas/pkg/model"
)

func ptr[T any](v T) *T { return &v }

func TestValidateRejectsZeroLimitAndOverLimit(t *testing.T) {
	limits := DefaultLimits()
	req := GeneQueryRequest{Limit: 0, AllowFullScan: true}
	if err := Validate(req, limits); err == nil {
		t.Fatal("expected error for zero limit")
	}
	req.Limit = limits.MaxLimit + 1
	if err := Validate(req, limits); err == nil {
		t.Fatal("expected error for over-limit request")
	}
}

func TestValidateRejectsFullScanWithoutOptIn(t *testing.T) {
	limits := DefaultLimits()
	req := GeneQueryRequest{Limit: 10}
	if err := Validate(req, limits); err == nil {
		t.Fatal("expected error for full scan without allow_full_scan")
	}
	req.AllowFullScan = true
	if err := Validate(req, limits); err != nil {
		t.Fatalf("expected allowed full scan to validate, got %v", err)
	}
}

func TestClassifyMatchesFilterShape(t *testing.T) {
	geneID, err := model.ParseGeneId("ENSG00000001")
	if err != nil {
		t.Fatalf("ParseGeneId: %v", err)
	}
	if Classify(GeneQueryRequest{Limit: 1, Filter: Filter{GeneId: &geneID}}) != QueryClassCheap {
		t.Fatal("expected cheap for gene_id lookup")
	}
	if Classify(GeneQueryRequest{Limit: 1, Filter: Filter{NamePrefix: ptr("BRCA")}}) != QueryClassHeavy {
		t.Fatal("expected heavy for name_prefix")
	}
	if Classify(GeneQueryRequest{Limit: 1, Filter: Filter{Biotype: ptr("protein_coding")}}) != QueryClassMedium {
		t.Fatal("expected medium for biotype-only")
	}
}

func TestEstimatePrefixMatchCostGrowsAsPrefixShortens(t *testing.T) {
	short := GeneQueryRequest{Limit: 10, Filter: Filter{NamePrefix: ptr("B")}}
	long := GeneQueryRequest{Limit: 10, Filter: Filter{NamePrefix: ptr("BRCA12345")}}
	if EstimatePrefixMatchCost(short) <= EstimatePrefixMatchCost(long) {
		t.Fatal("expected shorter prefix to cost more")
	}
}

func TestNormalizeRequestClearsCursorAndFields(t *testing.T) {
	cursor := "abc.def"
	req := GeneQueryRequest{Limit: 5, Cursor: &cursor, Fields: Fields{Coords: true}, Filter: Filter{Biotype: ptr("x")}}
	normalized := NormalizeRequest(req)
	if normalized.Cursor != nil {
		t.Fatal("expected cursor cleared")
	}
	if normalized.Fields != (Fields{}) {
		t.Fatal("expected fields cleared")
	}
}

func TestNormalizedQueryHashIgnoresFieldsAndCursor(t *testing.T) {
	cursorA := "a.b"
	cursorB := "c.d"
	reqA := GeneQueryRequest{Limit: 5, Cursor: &cursorA, Fields: Fields{Coords: true}, Filter: Filter{Biotype: ptr("x")}}
	reqB := GeneQueryRequest{Limit: 5, Cursor: &cursorB, Fields: Fields{Length: true}, Filter: Filter{Biotype: ptr("x")}}
	hashA, err := NormalizedQueryHash(reqA)
	if err != nil {
		t.Fatalf("hash A: %v", err)
	}
	hashB, err := NormalizedQueryHash(reqB)
	if err != nil {
		t.Fatalf("hash B: %v", err)
	}
	if hashA != hashB {
		t.Fatalf("expected equal hashes ignoring cursor/fields, got %s vs %s", hashA, hashB)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	key := []byte("secret")
	payload := CursorPayload{Order: SortKeyGeneId, LastGeneId: "g1", QueryHash: "h"}
	token, err := EncodeCursor(payload, key)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeCursor(token, key, SortKeyGeneId, "h")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != payload {
		t.Fatalf("round trip mismatch: %+v vs %+v", decoded, payload)
	}
}

func TestCursorTamperDetected(t *testing.T) {
	key := []byte("secret")
	payload := CursorPayload{Order: SortKeyGeneId, LastGeneId: "g1", QueryHash: "h"}
	token, err := EncodeCursor(payload, key)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tampered := strings.Replace(token, token[:1], flipFirstChar(token[:1]), 1)
	if _, err := DecodeCursor(tampered, key, SortKeyGeneId, "h"); err == nil {
		t.Fatal("expected error for tampered token")
	}
}

func TestCursorQueryHashMismatchRejected(t *testing.T) {
	key := []byte("secret")
	payload := CursorPayload{Order: SortKeyGeneId, LastGeneId: "g1", QueryHash: "h1"}
	token, err := EncodeCursor(payload, key)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeCursor(token, key, SortKeyGeneId, "h2"); err == nil {
		t.Fatal("expected error for mismatched query hash")
	}
}

func flipFirstChar(s string) string {
	if s == "a" {
		return "b"
	}
	return "a"
}
