// Package svtpades validates PAdES signatures embedded in PDF documents and
// the Signature Validation Tokens (SVTs) that can attest to a prior full
// validation of one, and issues new SVTs from a set of validation results.
//
// Grounded on the teacher's root-level entry point
// (github.com/digitorus/pdfsign's verify.go): a Verifier is built once with
// its trust configuration — a certificate-path validator plus the policy
// knobs spec.md section 4.5 requires — mirroring the teacher's
// functional-options VerifyOption pattern, and its methods can then be
// called repeatedly against different documents without re-stating that
// configuration each time, per spec.md section 6 ("path validator and SVT
// trust are injected at construction").
package svtpades

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"

	"github.com/digitorus/svtpades/internal/aggregate"
	"github.com/digitorus/svtpades/internal/core"
)

// ErrNoSignatures is returned by Validate and IsSigned's underlying scan
// when a PDF carries no AcroForm signature fields at all, per spec.md
// section 7's "no-signatures" error kind.
var ErrNoSignatures = errors.New("no-signatures")

// ErrBadPDF wraps a structural failure to parse the PDF itself, per
// spec.md section 7's "bad-pdf" error kind.
var ErrBadPDF = errors.New("bad-pdf")

// PathValidator builds and validates a certificate path from a signer
// certificate (content signature or SVT issuer) and the certificate set
// carried alongside it, at a given reference time, reporting the policy
// outcomes applied along the way. A single implementation — typically
// internal/revocationhint.Validator — satisfies this, pdfverify.PathValidator
// and svt.PathValidator identically by structural typing; the type is
// declared separately in each package so that none of them import each
// other, per spec.md section 1.
type PathValidator interface {
	ValidatePath(ctx context.Context, leaf *x509.Certificate, chain []*x509.Certificate, referenceTime time.Time) (path []*x509.Certificate, policyResults []core.PolicyResult, err error)
}

// signatureEntry is one signature dictionary found while walking the
// document's cross-reference table, alongside the data Validate needs to
// classify and dispatch it.
type signatureEntry struct {
	value          pdf.Value
	totalLength    int64
	isDocTimestamp bool
	rawContents    []byte
}

// findSignatures locates every signature dictionary in the document, in
// ascending order of covered length — which, for a document built purely
// through incremental updates, is also the order in which the signatures
// were applied (spec.md section 5's "document order").
func findSignatures(rdr *pdf.Reader) ([]signatureEntry, error) {
	sigFlags := rdr.Trailer().Key("Root").Key("AcroForm").Key("SigFlags")
	if sigFlags.IsNull() {
		return nil, ErrNoSignatures
	}

	var entries []signatureEntry
	for _, x := range rdr.Xref() {
		val := rdr.Resolve(x.Ptr(), x.Ptr())
		if val.Key("Filter").Name() != "Adobe.PPKLite" {
			continue
		}
		br := val.Key("ByteRange")
		if br.Len() < 2 {
			continue
		}
		totalLength := br.Index(br.Len()-2).Int64() + br.Index(br.Len()-1).Int64()
		entries = append(entries, signatureEntry{
			value:          val,
			totalLength:    totalLength,
			isDocTimestamp: val.Key("SubFilter").Name() == "ETSI.RFC3161",
			rawContents:    []byte(val.Key("Contents").RawString()),
		})
	}
	if len(entries) == 0 {
		return nil, ErrNoSignatures
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].totalLength < entries[j].totalLength })
	return entries, nil
}

// IsSigned reports whether pdfBytes carries at least one AcroForm signature
// field, per spec.md section 6's is_signed(pdf_bytes) -> bool.
func IsSigned(pdfBytes []byte) (bool, error) {
	rdr, err := pdf.NewReader(filebuffer.New(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBadPDF, err)
	}
	sigFlags := rdr.Trailer().Key("Root").Key("AcroForm").Key("SigFlags")
	return !sigFlags.IsNull(), nil
}

// Aggregate folds a list of per-signature results into a single document
// verdict, per spec.md section 6's aggregate(results) -> document_result.
func Aggregate(results []*core.SignatureResult) *core.DocumentResult {
	return aggregate.Aggregate(results)
}
