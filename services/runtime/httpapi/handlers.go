package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/bijux/atlas/pkg/atlaserr"
	"github.com/bijux/atlas/pkg/model"
	"github.com/bijux/atlas/pkg/query"
	"github.com/bijux/atlas/pkg/query/project"
)

// GeneQueryService is the handler's view of the serving runtime: build a
// plan from a request, admit it under bulkheads/rate limits/shedding, and
// execute it against the appropriate shard. Concrete wiring lives in
// cmd/atlas-server; this interface keeps handlers testable without a real
// cache or database.
type GeneQueryService interface {
	RunGeneQuery(r *http.Request, dataset model.DatasetId, req query.GeneQueryRequest) ([]query.RawGeneRow, *string, error)
}

type HandlerSet struct {
	Service GeneQueryService
}

// GeneQuery handles GET /v1/datasets/{release}/{species}/{assembly}/genes.
// Query-string parameters map onto query.GeneQueryRequest; the handler's
// only job is request decoding and response shaping — admission,
// validation, and execution are delegated to Service.
func (h HandlerSet) GeneQuery(w http.ResponseWriter, r *http.Request, release, species, assembly string) {
	requestID := RequestID(r)

	dataset, err := model.NewDatasetId(release, species, assembly)
	if err != nil {
		WriteError(w, requestID, atlaserr.Newf(atlaserr.ValidationMissingDim, "invalid dataset dimensions: %v", err))
		return
	}

	req, err := decodeGeneQueryRequest(r)
	if err != nil {
		WriteError(w, requestID, atlaserr.Newf(atlaserr.Validation, "invalid query request: %v", err))
		return
	}

	rows, nextCursor, err := h.Service.RunGeneQuery(r, dataset, req)
	if err != nil {
		WriteError(w, requestID, err)
		return
	}

	fields := project.Fields{Coords: req.Fields.Coords, Biotype: req.Fields.Biotype, Counts: req.Fields.Counts, Length: req.Fields.Length}
	body := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		body = append(body, project.GeneRow(model.GeneSummary{
			GeneId:          row.GeneId,
			Name:            row.Name,
			SeqId:           row.SeqId,
			Start:           row.Start,
			End:             row.End,
			Biotype:         row.Biotype,
			TranscriptCount: row.TranscriptCount,
			SequenceLength:  row.SequenceLength,
		}, fields))
	}

	WriteJSON(w, map[string]any{
		"genes":       body,
		"next_cursor": nextCursor,
	})
}

func decodeGeneQueryRequest(r *http.Request) (query.GeneQueryRequest, error) {
	var req query.GeneQueryRequest
	q := r.URL.Query()

	if v := q.Get("request"); v != "" {
		if err := json.Unmarshal([]byte(v), &req); err != nil {
			return query.GeneQueryRequest{}, err
		}
		return req, nil
	}

	if v := q.Get("gene_id"); v != "" {
		id, err := model.ParseGeneId(v)
		if err != nil {
			return query.GeneQueryRequest{}, err
		}
		req.Filter.GeneId = &id
	}
	if v := q.Get("name"); v != "" {
		req.Filter.Name = &v
	}
	if v := q.Get("name_prefix"); v != "" {
		req.Filter.NamePrefix = &v
	}
	if v := q.Get("biotype"); v != "" {
		req.Filter.Biotype = &v
	}
	if v := q.Get("cursor"); v != "" {
		req.Cursor = &v
	}
	if v := q.Get("allow_full_scan"); v == "true" {
		req.AllowFullScan = true
	}
	req.Limit = 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			req.Limit = n
		}
	}
	return req, nil
}
