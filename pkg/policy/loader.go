package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/bijux/atlas/pkg/contracts"
)

// SchemaRelPath is the schema file name Load expects to find under
// schemaRoot, relative to that root.
const SchemaRelPath = "policy.schema.json"

// Load reads the policy document at path, validates it structurally against
// the compiled JSON Schema rooted at schemaRoot, then checks the production
// semantic invariants (pinned schema_version, allow_override and
// network_in_unit_tests both false). It is grounded on the teacher's
// pkg/config layered-loader discipline: decode strictly, then validate in
// two passes (structural, then semantic) before returning a usable value.
func Load(ctx context.Context, schemaRoot, path string) (Document, contracts.Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, contracts.Report{}, fmt.Errorf("policy: read %s: %w", path, err)
	}

	store, err := contracts.NewStore(schemaRoot, contracts.StoreOptions{})
	if err != nil {
		return Document{}, contracts.Report{}, fmt.Errorf("policy: schema store: %w", err)
	}
	compiled, err := store.Compile(ctx, SchemaRelPath)
	if err != nil {
		return Document{}, contracts.Report{}, fmt.Errorf("policy: compile schema: %w", err)
	}

	// Decode numbers as json.Number: the validator's "integer" check does
	// not accept float64.
	var instance any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&instance); err != nil {
		return Document{}, contracts.Report{}, fmt.Errorf("policy: parse %s: %w", path, err)
	}
	validator := contracts.NewValidator(contracts.VOptions{})
	report := validator.Validate(ctx, compiled, instance)
	if report.HasErrors() {
		return Document{}, report, fmt.Errorf("policy: %s fails schema validation (%d errors)", path, report.Errors)
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		return Document{}, report, err
	}
	if err := doc.ValidateProduction(); err != nil {
		return Document{}, report, err
	}
	return doc, report, nil
}
