// Package revision reconstructs a PDF's incremental-update history and
// classifies each revision, following spec.md section 4.4. It is wholly new
// relative to the teacher: the teacher (github.com/digitorus/pdfsign) only
// ever writes one incremental update per invocation and never needs to walk
// history backwards, but it establishes the PDF-structure vocabulary this
// package inverts from write to read — sign/pdfxref_table.go's entry shape,
// and sign/pdfcatalog.go/pdftrailer.go's root-dictionary and trailer
// handling.
package revision

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"

	"github.com/digitorus/svtpades/internal/core"
)

// ErrNoPriorRevision is returned by SignedDocumentPrefix for a signature
// applied in the document's first revision, per spec.md section 4.4's
// "no-prior-revision" error kind.
var ErrNoPriorRevision = errors.New("no-prior-revision")

// SignatureRef is what the caller (the C5 signature verifier) tells the
// revision analyzer about one signature dictionary it found while walking
// the final, fully-parsed document: the total covered length of its byte
// range (b+c in spec.md's notation) and whether its SubFilter is
// ETSI.RFC3161. Discover uses TotalLength to identify which revision
// introduced the signature.
type SignatureRef struct {
	TotalLength    int64
	IsDocTimestamp bool
}

// Discover scans pdfBytes backwards for %%EOF markers to find every
// revision, reparses each revision prefix independently, diffs consecutive
// revisions' xref tables and root dictionaries, and classifies each
// revision. Revisions that fail to reparse (including ones whose newest
// xref section is a cross-reference stream, which this package's offset
// parser does not decode — see xref.go) are silently discarded, per
// spec.md section 4.4: "A revision that fails to parse is discarded."
func Discover(pdfBytes []byte, signatures []SignatureRef) ([]*core.RevisionRecord, error) {
	lengths := findEOFBoundaries(pdfBytes)
	if len(lengths) == 0 {
		return nil, fmt.Errorf("no %%%%EOF marker found")
	}

	type parsed struct {
		length     int64
		trailerRdr *pdf.Reader
		xref       map[core.ObjectKey]int64
	}

	var revs []parsed
	for _, length := range lengths {
		prefix := pdfBytes[:length]
		xrefOffsets, err := classicXrefOffsets(prefix)
		if err != nil {
			continue
		}
		buf := filebuffer.New(prefix)
		rdr, err := pdf.NewReader(buf, length)
		if err != nil {
			buf.Close()
			continue
		}
		revs = append(revs, parsed{length: length, trailerRdr: rdr, xref: xrefOffsets})
	}

	sort.Slice(revs, func(i, j int) bool { return revs[i].length < revs[j].length })

	records := make([]*core.RevisionRecord, 0, len(revs))
	for i, r := range revs {
		rec := &core.RevisionRecord{
			Length:    r.length,
			XrefTable: r.xref,
		}

		root := r.trailerRdr.Trailer().Key("Root")
		rootID, ok := rootObjectID(pdfBytes[:r.length])
		if ok {
			rec.RootObjectID = rootID
		}
		rec.RootObject = toRootDict(root)
		rec.LegalRootObject = true

		for _, sig := range signatures {
			if sig.TotalLength == r.length {
				rec.IsSignature = true
				if sig.IsDocTimestamp {
					rec.IsDocTimestamp = true
				}
			}
		}

		if i > 0 {
			prev := records[i-1]
			rec.ChangedXref, rec.AddedXref = diffXref(prev.XrefTable, rec.XrefTable)
			_, rec.RootUpdate = rec.ChangedXref[rec.RootObjectID]
			for k := range rec.ChangedXref {
				if k != rec.RootObjectID {
					rec.NonRootUpdate = true
					break
				}
			}

			if rec.RootUpdate {
				rec.ChangedRootItems, rec.AddedRootItems, rec.LegalRootObject = diffRoot(prev.RootObject, rec.RootObject)
			}
		} else {
			rec.ChangedXref = map[core.ObjectKey]int64{}
			rec.AddedXref = map[core.ObjectKey]int64{}
		}

		classify(rec)
		records = append(records, rec)
	}

	return records, nil
}

// findEOFBoundaries returns, for each %%EOF marker found scanning the
// document, the byte length of the revision it terminates (the offset just
// past the marker's trailing newline). Per spec.md section 4.4, iteration
// stops at the first %%EOF encountered scanning forward (equivalently, the
// last one found scanning backwards is the final, complete document).
func findEOFBoundaries(pdfBytes []byte) []int64 {
	const marker = "%%EOF"
	var lengths []int64
	search := pdfBytes
	base := 0
	for {
		idx := bytes.Index(search, []byte(marker))
		if idx < 0 {
			break
		}
		end := base + idx + len(marker)
		// Consume a lone LF, or a CR only when immediately followed by an
		// LF; a bare trailing CR is left unconsumed. A CRLF-only writer
		// (pdftrailer.go: "%%EOF\n") never exercises the bare-CR case, but
		// documents built with classic Mac line endings do.
		var first, second byte
		if end < len(pdfBytes) {
			first = pdfBytes[end]
		}
		if end+1 < len(pdfBytes) {
			second = pdfBytes[end+1]
		}
		switch {
		case first == '\n':
			end++
		case first == '\r' && second == '\n':
			end += 2
		}
		lengths = append(lengths, int64(end))
		search = pdfBytes[end:]
		base = end
	}
	return lengths
}
