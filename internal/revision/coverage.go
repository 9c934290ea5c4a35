package revision

import (
	"fmt"

	"github.com/digitorus/svtpades/internal/core"
)

// CoversDocument implements spec.md section 4.4's "Coverage" rule: a
// signature at revision index i covers the document iff every later
// revision is a safe_update.
func CoversDocument(records []*core.RevisionRecord, index int) bool {
	for j := index + 1; j < len(records); j++ {
		if !records[j].SafeUpdate {
			return false
		}
	}
	return true
}

// ExtendedByNonSignatureUpdate reports whether any revision after index is
// neither a signature or document timestamp nor a valid DSS update — content
// changed for a reason other than adding validation material. Unlike
// CoversDocument, an AcroForm-only safe_update still trips this: it asks
// whether the document was touched at all after this signature, not merely
// whether that touch left the signed content intact.
func ExtendedByNonSignatureUpdate(records []*core.RevisionRecord, index int) bool {
	for j := index + 1; j < len(records); j++ {
		r := records[j]
		if !r.IsSignature && !r.IsDocTimestamp && !r.ValidDSS {
			return true
		}
	}
	return false
}

// IndexForLength returns the index of the revision record whose Length
// equals the given total ByteRange length ("b+c" in spec.md section 4.4's
// terms), the revision in which a signature with that total length was
// applied.
func IndexForLength(records []*core.RevisionRecord, length int64) (int, bool) {
	for i, r := range records {
		if r.Length == length {
			return i, true
		}
	}
	return 0, false
}

// SignedDocumentPrefix implements spec.md section 4.4's "Signed-bytes
// extraction": the byte prefix of pdfBytes as it existed immediately before
// the revision at signatureRevisionIndex was applied.
func SignedDocumentPrefix(pdfBytes []byte, records []*core.RevisionRecord, signatureRevisionIndex int) ([]byte, error) {
	if signatureRevisionIndex <= 0 {
		return nil, fmt.Errorf("%w: signature applied in the first revision", ErrNoPriorRevision)
	}
	priorLength := records[signatureRevisionIndex-1].Length
	if priorLength > int64(len(pdfBytes)) {
		return nil, fmt.Errorf("prior revision length %d exceeds document size %d", priorLength, len(pdfBytes))
	}
	return pdfBytes[:priorLength], nil
}
