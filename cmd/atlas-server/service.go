package main

import (
	"net/http"
	"time"

	"github.com/bijux/atlas/pkg/atlaserr"
	"github.com/bijux/atlas/pkg/model"
	"github.com/bijux/atlas/pkg/policy"
	"github.com/bijux/atlas/pkg/query"
	"github.com/bijux/atlas/services/runtime/bulkhead"
	"github.com/bijux/atlas/services/runtime/cache"
	"github.com/bijux/atlas/services/runtime/ratelimit"
	"github.com/bijux/atlas/services/runtime/shedding"
)

// service implements httpapi.GeneQueryService, wiring the admission chain
// (rate limit -> shedding -> bulkhead) around plan/execute, the one place
// these runtime concerns compose — everything upstream of it stays
// transport- and runtime-agnostic per the spec's non-goals.
type service struct {
	cache        *cache.DatasetCache
	bulkheads    *bulkhead.Bulkheads
	shedder      *shedding.Shedder
	limiter      *ratelimit.Limiter
	limits       query.Limits
	requestTimeout time.Duration
	cursorKey    []byte
}

func newService(c *cache.DatasetCache, b *bulkhead.Bulkheads, s *shedding.Shedder, rl *ratelimit.Limiter, doc policy.Document, cursorKey []byte) *service {
	return &service{
		cache:          c,
		bulkheads:      b,
		shedder:        s,
		limiter:        rl,
		limits:         query.LimitsFromPolicy(doc),
		requestTimeout: 2 * time.Second,
		cursorKey:      cursorKey,
	}
}

func (s *service) RunGeneQuery(r *http.Request, dataset model.DatasetId, req query.GeneQueryRequest) ([]query.RawGeneRow, *string, error) {
	ctx := r.Context()

	plan, err := query.BuildPlan(req, s.limits)
	if err != nil {
		return nil, nil, err
	}

	ip := clientIP(r)
	if allowed, retryAfter := s.limiter.Allow(ip); !allowed {
		return nil, nil, atlaserr.Newf(atlaserr.RateLimited, "rate limit exceeded, retry after %s", retryAfter)
	}

	if d := s.shedder.Decide(plan.Class); d.Action == "shed" {
		return nil, nil, atlaserr.Newf(atlaserr.PolicyRejectedByBulkhead, "shed: %s", d.Reason)
	}

	permit, err := s.bulkheads.Acquire(ctx, plan.Class, s.requestTimeout)
	if err != nil {
		return nil, nil, err
	}
	defer permit.Release()

	entry, err := s.cache.Get(ctx, dataset)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	var cursor *query.CursorPayload
	if req.Cursor != nil {
		decoded, err := query.DecodeCursor(*req.Cursor, s.cursorKey, plan.Ast.SortKey, plan.QueryHash)
		if err != nil {
			return nil, nil, err
		}
		cursor = &decoded
	}

	rows, err := query.Execute(ctx, entry.Shard.DB(), plan, cursor)
	s.shedder.Observe(time.Since(start))
	if err != nil {
		return nil, nil, atlaserr.Newf(atlaserr.TimeoutSQL, "execute query: %v", err)
	}

	var nextCursor *string
	if len(rows) == int(plan.Ast.Limit) {
		last := rows[len(rows)-1]
		payload := query.CursorPayload{
			Order:      plan.Ast.SortKey,
			LastGeneId: string(last.GeneId),
			QueryHash:  plan.QueryHash,
		}
		if plan.Ast.SortKey == query.SortKeyRegion {
			seq := string(last.SeqId)
			payload.LastSeqId = &seq
			payload.LastStart = &last.Start
		}
		token, err := query.EncodeCursor(payload, s.cursorKey)
		if err == nil {
			nextCursor = &token
		}
	}

	return rows, nextCursor, nil
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("x-forwarded-for"); xf != "" {
		return xf
	}
	return r.RemoteAddr
}
