// Package aggregate reduces per-signature validation results into a single
// document-level verdict (spec.md section 4.8). It is a pure function with
// no I/O and no dependency on any other component beyond internal/core.
package aggregate

import "github.com/digitorus/svtpades/internal/core"

// Aggregate implements spec.md section 4.8: no-signatures when the document
// carries none, ok when every signature validated successfully,
// none-valid when none did, some-invalid otherwise.
func Aggregate(results []*core.SignatureResult) *core.DocumentResult {
	doc := &core.DocumentResult{
		SignatureCount: len(results),
		Results:        results,
	}

	if len(results) == 0 {
		doc.Status = core.DocNoSignatures
		return doc
	}

	for _, r := range results {
		if r.Success {
			doc.ValidCount++
		}
	}

	switch {
	case doc.ValidCount == len(results):
		doc.Status = core.DocOK
	case doc.ValidCount == 0:
		doc.Status = core.DocNoneValid
	default:
		doc.Status = core.DocSomeInvalid
	}
	return doc
}
