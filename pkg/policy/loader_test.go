package policy

import (
	"context"
	"testing"
)

func TestLoadValidatesFixtureDocument(t *testing.T) {
	doc, report, err := Load(context.Background(), "../../configs/policy", "../../configs/policy/policy.json")
	if err != nil {
		t.Fatalf("Load: %v (report: %+v)", err, report)
	}
	if doc.SchemaVersion != SchemaVersion {
		t.Fatalf("expected schema version %s, got %s", SchemaVersion, doc.SchemaVersion)
	}
	if doc.QueryBudget.MaxLimit != 500 {
		t.Fatalf("expected max_limit 500, got %d", doc.QueryBudget.MaxLimit)
	}
	if doc.ConcurrencyBulkheads.Heavy != 4 {
		t.Fatalf("expected heavy bulkhead 4, got %d", doc.ConcurrencyBulkheads.Heavy)
	}
	if report.HasErrors() {
		t.Fatalf("expected no schema errors, got %+v", report.Violations)
	}
}

func TestParseDocumentRejectsUnknownField(t *testing.T) {
	raw := []byte(`{"schema_version":"3","unknown_field":true}`)
	if _, err := ParseDocument(raw); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidateProductionRejectsMismatchedSchemaVersion(t *testing.T) {
	doc := Document{SchemaVersion: "1"}
	if err := doc.ValidateProduction(); err == nil {
		t.Fatal("expected error for mismatched schema_version")
	}
}

func TestValidateProductionRejectsAllowOverride(t *testing.T) {
	doc := Document{SchemaVersion: SchemaVersion, AllowOverride: true}
	if err := doc.ValidateProduction(); err == nil {
		t.Fatal("expected error for allow_override=true")
	}
}
