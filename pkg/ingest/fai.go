package ingest

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/bijux/atlas/pkg/model"
)

// ContigIndex maps a seqid to its contig length, as read from a FAI file
// (or synthesized by scanFastaLengths when AutoGenerateFai is set).
type ContigIndex map[model.SeqId]uint64

// readFai parses a samtools-style .fai index: five tab-separated columns
// per line (name, length, offset, linebases, linewidth); only the first
// two are needed here.
func readFai(path string) (ContigIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ingestErrf(codeIO, "open fai %s: %v", path, err)
	}
	defer f.Close()

	idx := make(ContigIndex)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 2 {
			return nil, ingestErrf(codeIO, "fai %s:%d: expected at least 2 columns", path, lineNo)
		}
		seqid, err := model.ParseSeqId(cols[0])
		if err != nil {
			return nil, ingestErrf(codeIO, "fai %s:%d: %v", path, lineNo, err)
		}
		length, err := strconv.ParseUint(cols[1], 10, 64)
		if err != nil {
			return nil, ingestErrf(codeIO, "fai %s:%d: invalid length %q", path, lineNo, cols[1])
		}
		idx[seqid] = length
	}
	if err := sc.Err(); err != nil {
		return nil, ingestErrf(codeIO, "read fai %s: %v", path, err)
	}
	return idx, nil
}

// scanFastaLengths derives a ContigIndex directly from a FASTA file by
// counting sequence bytes per record, for AutoGenerateFai's dev-only path.
// It never writes a .fai file back to disk; it only stands in for one in
// memory so Decode can proceed.
func scanFastaLengths(path string) (ContigIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ingestErrf(codeIO, "open fasta %s: %v", path, err)
	}
	defer f.Close()

	idx := make(ContigIndex)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var current model.SeqId
	var length uint64
	flush := func() {
		if current != "" {
			idx[current] = length
		}
	}
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, ">") {
			flush()
			name := strings.TrimPrefix(line, ">")
			if sp := strings.IndexAny(name, " \t"); sp >= 0 {
				name = name[:sp]
			}
			seqid, err := model.ParseSeqId(name)
			if err != nil {
				return nil, ingestErrf(codeIO, "fasta %s: %v", path, err)
			}
			current = seqid
			length = 0
			continue
		}
		length += uint64(len(strings.TrimSpace(line)))
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, ingestErrf(codeIO, "read fasta %s: %v", path, err)
	}
	if len(idx) == 0 {
		return nil, ingestErrf(codeIO, "fasta %s: no sequences found", path)
	}
	return idx, nil
}

// ContigStats is an optional per-contig GC/N-fraction summary, bounded by
// Options.FastaScanMaxBases.
type ContigStats struct {
	GCFraction float64
	NFraction  float64
	BasesScanned uint64
}

// scanFastaComposition computes GC/N fractions per seqid, stopping once
// maxBases total bases have been examined across the whole file. A
// maxBases of 0 disables the scan.
func scanFastaComposition(path string, maxBases uint64) (map[model.SeqId]ContigStats, error) {
	out := make(map[model.SeqId]ContigStats)
	if maxBases == 0 {
		return out, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, ingestErrf(codeIO, "open fasta %s: %v", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var current model.SeqId
	var gc, n, total uint64
	var scannedTotal uint64
	flush := func() {
		if current == "" || total == 0 {
			return
		}
		out[current] = ContigStats{
			GCFraction:   float64(gc) / float64(total),
			NFraction:    float64(n) / float64(total),
			BasesScanned: total,
		}
	}
	for sc.Scan() && scannedTotal < maxBases {
		line := sc.Text()
		if strings.HasPrefix(line, ">") {
			flush()
			name := strings.TrimPrefix(line, ">")
			if sp := strings.IndexAny(name, " \t"); sp >= 0 {
				name = name[:sp]
			}
			seqid, err := model.ParseSeqId(name)
			if err != nil {
				return nil, ingestErrf(codeIO, "fasta %s: %v", path, err)
			}
			current = seqid
			gc, n, total = 0, 0, 0
			continue
		}
		for _, c := range strings.ToUpper(strings.TrimSpace(line)) {
			if scannedTotal >= maxBases {
				break
			}
			total++
			scannedTotal++
			switch c {
			case 'G', 'C':
				gc++
			case 'N':
				n++
			}
		}
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, ingestErrf(codeIO, "read fasta %s: %v", path, err)
	}
	return out, nil
}

func contigLengthOf(idx ContigIndex, seqid model.SeqId) (uint64, error) {
	length, ok := idx[seqid]
	if !ok {
		return 0, ingestErrf(codeExceedsContig, "seqid %q not present in contig index", seqid)
	}
	return length, nil
}
