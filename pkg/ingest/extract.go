package ingest

import (
	"fmt"
	"strings"

	"github.com/bijux/atlas/pkg/model"
)

// ExtractResult is Extract's full output: validated rows, plus every
// rejection accumulated when Strictness permits continuing past one.
type ExtractResult struct {
	Genes       []model.GeneSummary
	Transcripts []model.TranscriptSummary
	Exons       []model.ExonSummary
	Rejections  []model.IngestRejection
}

type geneAccum struct {
	summary      model.GeneSummary
	rawID        string
	seenSeqIds   map[model.SeqId]bool
}

type transcriptAccum struct {
	summary model.TranscriptSummary
	rawID   string
}

// extract walks the parsed GFF3 records in three passes (genes, then
// transcripts linked to genes via the GFF3 Parent attribute, then exons
// linked to transcripts), resolving identifiers/names/biotypes through the
// configured policies and validating coordinates against contigs. Rows
// that fail validation become IngestRejections; in Strict mode the first
// rejection aborts the run, matching §4.4 step 3.
func extract(records []Gff3Record, contigs ContigIndex, opts Options, log *EventLog) (ExtractResult, error) {
	genesByRawID := make(map[string]*geneAccum)
	genesByFinalID := make(map[model.GeneId]*geneAccum)
	transcriptsByRawID := make(map[string]*transcriptAccum)
	transcriptsByFinalID := make(map[model.TranscriptId]*transcriptAccum)
	exonCountByTranscript := make(map[model.TranscriptId]uint64)
	cdsPresentByRawTranscript := make(map[string]bool)

	var rejections []model.IngestRejection
	reject := func(ref, reason string) error {
		rejections = append(rejections, model.IngestRejection{RecordRef: ref, Reason: reason})
		log.emit(StageExtract, "rejected record", map[string]any{"ref": ref, "reason": reason})
		if opts.Strictness == model.StrictnessStrict {
			return ingestErrf(codeInvalidCoordinate, "strict mode requires no rejections: %s: %s", ref, reason)
		}
		return nil
	}

	// Pass 1: genes.
	for _, rec := range records {
		if rec.Type != featureTypeGene {
			continue
		}
		ref := fmt.Sprintf("line %d", rec.Line)
		seqid, err := normalizeAndValidateSeqId(rec.SeqId, opts.SeqidNormalization)
		if err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}
		length, err := contigLengthOf(contigs, seqid)
		if err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}
		if err := validateCoordinates(rec.Start, rec.End, length); err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}

		geneID, rawID, err := resolveGeneID(rec, opts)
		if err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}

		if existing, dup := genesByFinalID[geneID]; dup {
			handled, err := applyDuplicateGeneIdPolicy(opts.DuplicateGeneId, existing, geneID, seqid, rec, opts.AllowOverlapAcrossContigs)
			if err != nil {
				if rerr := reject(ref, err.Error()); rerr != nil {
					return ExtractResult{}, rerr
				}
				continue
			}
			if !handled {
				continue // keep_first: ignore this record entirely
			}
			// keep_last falls through to overwrite below.
		}

		name := resolveGeneName(rec, geneID, opts.GeneName)
		biotype, err := resolveBiotype(rec, opts.Biotype)
		if err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}

		acc := &geneAccum{
			summary: model.GeneSummary{
				GeneId:  geneID,
				Name:    name,
				SeqId:   seqid,
				Start:   rec.Start,
				End:     rec.End,
				Biotype: biotype,
			},
			rawID:      rawID,
			seenSeqIds: map[model.SeqId]bool{seqid: true},
		}
		genesByRawID[rawID] = acc
		genesByFinalID[geneID] = acc
	}

	// Pass 2: transcripts (mRNA), linked via Parent -> gene raw ID.
	for _, rec := range records {
		if rec.Type != featureTypeTranscript {
			continue
		}
		ref := fmt.Sprintf("line %d", rec.Line)
		parentRaw, ok := rec.Attr([]string{"Parent"})
		if !ok {
			if rerr := reject(ref, "transcript record missing Parent attribute"); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}
		geneAcc, ok := genesByRawID[parentRaw]
		if !ok {
			if rerr := reject(ref, "transcript references unknown parent gene"); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}

		seqid, err := normalizeAndValidateSeqId(rec.SeqId, opts.SeqidNormalization)
		if err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}
		length, err := contigLengthOf(contigs, seqid)
		if err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}
		if err := validateCoordinates(rec.Start, rec.End, length); err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}

		transcriptID, rawID, err := resolveTranscriptID(rec, opts)
		if err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}
		if opts.FeatureIdUniqueness.RequireDisjointGeneTranscriptIds {
			if _, clash := genesByFinalID[model.GeneId(transcriptID)]; clash {
				if rerr := reject(ref, "transcript_id collides with a gene_id under require_disjoint_gene_transcript_ids"); rerr != nil {
					return ExtractResult{}, rerr
				}
				continue
			}
		}

		if _, dup := transcriptsByFinalID[transcriptID]; dup {
			switch opts.DuplicateTranscriptId {
			case model.DuplicateTranscriptIdReject:
				if rerr := reject(ref, "duplicate transcript_id"); rerr != nil {
					return ExtractResult{}, rerr
				}
				continue
			case model.DuplicateTranscriptIdKeepFirst:
				continue
			case model.DuplicateTranscriptIdKeepLast:
				// fall through, overwrite below
			}
		}

		biotype, err := resolveBiotype(rec, opts.Biotype)
		if err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}
		transcriptType := resolveTranscriptType(rec, opts.TranscriptType)

		tAcc := &transcriptAccum{
			summary: model.TranscriptSummary{
				TranscriptId:   transcriptID,
				ParentGeneId:   geneAcc.summary.GeneId,
				TranscriptType: transcriptType,
				Biotype:        biotype,
				SeqId:          seqid,
				Start:          rec.Start,
				End:            rec.End,
			},
			rawID: rawID,
		}
		transcriptsByRawID[rawID] = tAcc
		transcriptsByFinalID[transcriptID] = tAcc
	}

	// Pass 3: exons and CDS, linked via Parent -> transcript raw ID.
	exonIndex := make(map[string]uint64)
	var exons []model.ExonSummary
	for _, rec := range records {
		if rec.Type != featureTypeExon && rec.Type != "CDS" {
			continue
		}
		ref := fmt.Sprintf("line %d", rec.Line)
		parentRaw, ok := rec.Attr([]string{"Parent"})
		if !ok {
			continue // exons/CDS without a linkable parent are silently skipped
		}
		tAcc, ok := transcriptsByRawID[parentRaw]
		if !ok {
			continue
		}
		if rec.Type == "CDS" {
			cdsPresentByRawTranscript[parentRaw] = true
			continue
		}

		seqid, err := normalizeAndValidateSeqId(rec.SeqId, opts.SeqidNormalization)
		if err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}
		length, err := contigLengthOf(contigs, seqid)
		if err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}
		if err := validateCoordinates(rec.Start, rec.End, length); err != nil {
			if rerr := reject(ref, err.Error()); rerr != nil {
				return ExtractResult{}, rerr
			}
			continue
		}

		idx := exonIndex[parentRaw]
		exonIndex[parentRaw] = idx + 1
		exonID, _ := rec.Attr([]string{"ID"})
		if exonID == "" {
			exonID = fmt.Sprintf("%s.exon%d", tAcc.summary.TranscriptId, idx+1)
		}

		exons = append(exons, model.ExonSummary{
			ExonId:       exonID,
			TranscriptId: tAcc.summary.TranscriptId,
			SeqId:        seqid,
			Start:        rec.Start,
			End:          rec.End,
			Index:        idx,
		})
		exonCountByTranscript[tAcc.summary.TranscriptId]++
	}

	// Roll up transcript-level exon stats and CDS presence.
	for rawID, tAcc := range transcriptsByRawID {
		tAcc.summary.ExonCount = exonCountByTranscript[tAcc.summary.TranscriptId]
		tAcc.summary.CDSPresent = cdsPresentByRawTranscript[rawID]
	}
	var totalExonSpan = make(map[model.TranscriptId]uint64)
	for _, e := range exons {
		totalExonSpan[e.TranscriptId] += e.End - e.Start + 1
	}
	for _, tAcc := range transcriptsByRawID {
		tAcc.summary.TotalExonSpan = totalExonSpan[tAcc.summary.TranscriptId]
	}

	// Roll up gene-level transcript count and sequence length (sum of each
	// transcript's own span, matching the tabular store's documented
	// gene_summary.sequence_length column).
	transcriptCountByGene := make(map[model.GeneId]uint64)
	sequenceLengthByGene := make(map[model.GeneId]uint64)
	for _, tAcc := range transcriptsByRawID {
		transcriptCountByGene[tAcc.summary.ParentGeneId]++
		sequenceLengthByGene[tAcc.summary.ParentGeneId] += tAcc.summary.End - tAcc.summary.Start + 1
	}

	genes := make([]model.GeneSummary, 0, len(genesByRawID))
	for _, acc := range genesByRawID {
		g := acc.summary
		g.TranscriptCount = transcriptCountByGene[g.GeneId]
		g.SequenceLength = sequenceLengthByGene[g.GeneId]
		genes = append(genes, g)
	}

	transcripts := make([]model.TranscriptSummary, 0, len(transcriptsByRawID))
	for _, tAcc := range transcriptsByRawID {
		transcripts = append(transcripts, tAcc.summary)
	}

	if opts.FailOnWarn && len(rejections) > 0 {
		return ExtractResult{}, ingestErrf(codeStrictMode, "strict mode requires zero anomalies (fail_on_warn): %d rejections", len(rejections))
	}

	return ExtractResult{Genes: genes, Transcripts: transcripts, Exons: exons, Rejections: rejections}, nil
}

func normalizeAndValidateSeqId(raw string, policy model.SeqidNormalizationPolicy) (model.SeqId, error) {
	normalized := policy.Normalize(raw)
	return model.ParseSeqId(normalized)
}

func validateCoordinates(start, end, contigLength uint64) error {
	if start < 1 || end < start {
		return ingestErrf(codeInvalidCoordinate, "invalid coordinate: start=%d end=%d", start, end)
	}
	if end > contigLength {
		return ingestErrf(codeExceedsContig, "exceeds contig: end=%d contig_length=%d", end, contigLength)
	}
	return nil
}

func resolveGeneID(rec Gff3Record, opts Options) (model.GeneId, string, error) {
	rawID, hasID := rec.Attr([]string{"ID"})
	switch opts.GeneIdentifier.Kind {
	case model.GeneIdentifierPreferEnsemblStableId:
		if stable, ok := rec.Attr(opts.GeneIdentifier.AttributeKeys); ok {
			if opts.Strictness == model.StrictnessStrict && !strings.HasPrefix(stable, "ENS") {
				return "", "", ingestErrf(codeStrictMode, "strict mode requires ENS-prefixed stable id, got %q", stable)
			}
			id, err := model.ParseGeneId(stable)
			if err != nil {
				return "", "", err
			}
			if !hasID {
				rawID = stable
			}
			return id, rawID, nil
		}
		if !opts.GeneIdentifier.FallbackToGff3Id {
			return "", "", ingestErrf(codeIO, "no ensembl stable id attribute found and fallback_to_gff3_id is false")
		}
		fallthrough
	default:
		if !hasID {
			return "", "", ingestErrf(codeIO, "gene record missing ID attribute")
		}
		id, err := model.ParseGeneId(rawID)
		if err != nil {
			return "", "", err
		}
		return id, rawID, nil
	}
}

func resolveTranscriptID(rec Gff3Record, opts Options) (model.TranscriptId, string, error) {
	rawID, hasID := rec.Attr([]string{"ID"})
	switch opts.TranscriptId.Kind {
	case model.GeneIdentifierPreferEnsemblStableId:
		if stable, ok := rec.Attr(opts.TranscriptId.AttributeKeys); ok {
			id, err := model.ParseTranscriptId(stable)
			if err != nil {
				return "", "", err
			}
			if !hasID {
				rawID = stable
			}
			return id, rawID, nil
		}
		if !opts.TranscriptId.FallbackToGff3Id {
			return "", "", ingestErrf(codeIO, "no ensembl stable transcript id attribute found and fallback_to_gff3_id is false")
		}
		fallthrough
	default:
		if !hasID {
			return "", "", ingestErrf(codeIO, "transcript record missing ID attribute")
		}
		id, err := model.ParseTranscriptId(rawID)
		if err != nil {
			return "", "", err
		}
		return id, rawID, nil
	}
}

func resolveGeneName(rec Gff3Record, geneID model.GeneId, policy model.GeneNamePolicy) string {
	if name, ok := rec.Attr(policy.AttributeKeys); ok {
		return name
	}
	if policy.FallbackToGeneId {
		return string(geneID)
	}
	return ""
}

func resolveBiotype(rec Gff3Record, policy model.BiotypePolicy) (string, error) {
	if bt, ok := rec.Attr(policy.AttributeKeys); ok {
		return bt, nil
	}
	if policy.RejectUnknown {
		return "", ingestErrf(codeIO, "no biotype attribute found and reject_unknown is set")
	}
	return policy.DefaultBiotype, nil
}

func resolveTranscriptType(rec Gff3Record, policy model.TranscriptTypePolicy) string {
	if tt, ok := rec.Attr(policy.AttributeKeys); ok {
		return tt
	}
	return policy.DefaultTranscriptType
}

// applyDuplicateGeneIdPolicy decides whether a duplicate gene_id sighting
// should overwrite the previously-seen gene (true) or be ignored (false),
// honoring AllowOverlapAcrossContigs: when set, the first sighting of a
// gene_id on a seqid it has not been seen on before is not rejected, but it
// is skipped (false) and the first gene is kept; genes are keyed by gene_id
// alone, so the later seqid's gene does not appear in the output. A repeat
// on an already-seen seqid goes through the duplicate policy as usual.
func applyDuplicateGeneIdPolicy(policy model.DuplicateGeneIdPolicy, existing *geneAccum, geneID model.GeneId, seqid model.SeqId, rec Gff3Record, allowOverlapAcrossContigs bool) (bool, error) {
	if allowOverlapAcrossContigs && !existing.seenSeqIds[seqid] {
		existing.seenSeqIds[seqid] = true
		return false, nil
	}
	switch policy {
	case model.DuplicateGeneIdReject:
		return false, ingestErrf(codeDuplicatePolicy, "duplicate gene_id %q at line %d", geneID, rec.Line)
	case model.DuplicateGeneIdKeepFirst:
		return false, nil
	case model.DuplicateGeneIdKeepLast:
		return true, nil
	default:
		return false, ingestErrf(codeDuplicatePolicy, "unrecognized duplicate gene id policy %q", policy)
	}
}
