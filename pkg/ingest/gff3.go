package ingest

import (
	"bufio"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/bijux/atlas/pkg/model"
)

// Gff3Record is one 9-column GFF3 feature line, already coordinate-typed.
// Attributes are stored verbatim (URL-decoded) in the key=value form the
// spec attribute-priority lookups (GeneName, Biotype, GeneIdentifier,
// TranscriptType) walk over.
type Gff3Record struct {
	Line       int
	SeqId      string
	Source     string
	Type       string
	Start      uint64
	End        uint64
	Score      string
	Strand     model.Strand
	Phase      string
	Attributes map[string]string
	AttributeOrder []string
}

// Attr returns the first populated attribute among keys, and whether one
// was found — the shared primitive behind every attribute-priority policy.
func (r Gff3Record) Attr(keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := r.Attributes[k]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// parseGff3 reads a GFF3 file into records, skipping blank lines, comment
// lines ("#"), and the "##FASTA" inline-sequence directive (anything from
// that line onward is ignored — an Atlas bundle's sequences always come
// from a separate FASTA input).
func parseGff3(path string) ([]Gff3Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ingestErrf(codeIO, "open gff3 %s: %v", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var records []Gff3Record
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == "##FASTA" {
			break
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		rec, err := parseGff3Line(trimmed, lineNo)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, ingestErrf(codeIO, "read gff3 %s: %v", path, err)
	}
	return records, nil
}

func parseGff3Line(line string, lineNo int) (Gff3Record, error) {
	cols := strings.Split(line, "\t")
	if len(cols) != 9 {
		return Gff3Record{}, ingestErrf(codeIO, "gff3 line %d: expected 9 columns, got %d", lineNo, len(cols))
	}
	start, err := strconv.ParseUint(cols[3], 10, 64)
	if err != nil {
		return Gff3Record{}, ingestErrf(codeInvalidCoordinate, "gff3 line %d: invalid start %q", lineNo, cols[3])
	}
	end, err := strconv.ParseUint(cols[4], 10, 64)
	if err != nil {
		return Gff3Record{}, ingestErrf(codeInvalidCoordinate, "gff3 line %d: invalid end %q", lineNo, cols[4])
	}
	strand, err := model.ParseStrand(cols[6])
	if err != nil {
		strand = model.StrandUnknown
	}
	attrs, order := parseGff3Attributes(cols[8])
	return Gff3Record{
		Line:           lineNo,
		SeqId:          cols[0],
		Source:         cols[1],
		Type:           cols[2],
		Start:          start,
		End:            end,
		Score:          cols[5],
		Strand:         strand,
		Phase:          cols[7],
		Attributes:     attrs,
		AttributeOrder: order,
	}, nil
}

// parseGff3Attributes splits the column-9 "key=value;key=value" form,
// URL-decoding each value per the GFF3 spec's percent-encoding rule for
// reserved characters.
func parseGff3Attributes(col string) (map[string]string, []string) {
	attrs := make(map[string]string)
	var order []string
	col = strings.TrimSpace(col)
	if col == "" || col == "." {
		return attrs, order
	}
	for _, pair := range strings.Split(col, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		key := strings.TrimSpace(kv[0])
		if key == "" {
			continue
		}
		var value string
		if len(kv) == 2 {
			if decoded, err := url.QueryUnescape(kv[1]); err == nil {
				value = decoded
			} else {
				value = kv[1]
			}
		}
		if _, dup := attrs[key]; !dup {
			order = append(order, key)
		}
		attrs[key] = value
	}
	return attrs, order
}

const (
	featureTypeGene       = "gene"
	featureTypeTranscript = "mRNA"
	featureTypeExon       = "exon"
)
