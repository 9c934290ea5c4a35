package svtpades

import (
	"context"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"

	"github.com/digitorus/svtpades/internal/core"
	"github.com/digitorus/svtpades/internal/pdfverify"
	"github.com/digitorus/svtpades/internal/revision"
	"github.com/digitorus/svtpades/internal/svt"
)

// VerifierOption configures a Verifier at construction, mirroring the
// teacher's VerifyOption functional-options pattern (verify.go).
type VerifierOption func(*verifierOptions)

type verifierOptions struct {
	referenceTime             *time.Time
	requireDigitalSignatureKU bool
	requireNonRepudiation     bool
	requiredEKUs              []x509.ExtKeyUsage
	allowedEKUs               []x509.ExtKeyUsage
}

// AtTime fixes the reference time used for certificate-path validation of
// signatures that carry no signing-time or genTime of their own, in place
// of the wall clock. Useful for reproducing a validation performed in the
// past.
func AtTime(t time.Time) VerifierOption {
	return func(o *verifierOptions) { o.referenceTime = &t }
}

// RequireDigitalSignatureKU requires the signer certificate's key usage
// extension, when present, to include digitalSignature.
func RequireDigitalSignatureKU(require bool) VerifierOption {
	return func(o *verifierOptions) { o.requireDigitalSignatureKU = require }
}

// RequireNonRepudiation additionally requires the nonRepudiation key usage
// bit, for profiles that mandate it for qualified signatures.
func RequireNonRepudiation(require bool) VerifierOption {
	return func(o *verifierOptions) { o.requireNonRepudiation = require }
}

// RequiredEKUs overrides the extended key usages a signer certificate must
// carry at least one of. The default is pdfverify.DocumentSigningEKUs().
func RequiredEKUs(ekus ...x509.ExtKeyUsage) VerifierOption {
	return func(o *verifierOptions) { o.requiredEKUs = ekus }
}

// AllowedEKUs overrides the extended key usages a signer certificate may
// additionally carry without being rejected.
func AllowedEKUs(ekus ...x509.ExtKeyUsage) VerifierOption {
	return func(o *verifierOptions) { o.allowedEKUs = ekus }
}

// Verifier validates PAdES signatures and SVTs in PDF documents. Its
// certificate-path validator is fixed at construction and reused,
// unmodified, across every Validate call; the same validator backs both
// content-signature trust decisions and SVT-issuer trust decisions, per
// spec.md section 6.
type Verifier struct {
	validator PathValidator
	opts      verifierOptions
}

// NewVerifier constructs a Verifier. validator may be nil, in which case
// certificate-path policy results are simply omitted — useful for tests
// that only exercise cryptographic verification.
func NewVerifier(validator PathValidator, opts ...VerifierOption) *Verifier {
	o := verifierOptions{
		requireDigitalSignatureKU: true,
		requiredEKUs:              pdfverify.DocumentSigningEKUs(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Verifier{validator: validator, opts: o}
}

func (v *Verifier) referenceTime() time.Time {
	if v.opts.referenceTime != nil {
		return *v.opts.referenceTime
	}
	return time.Now()
}

func (v *Verifier) pdfverifyOptions() pdfverify.Options {
	return pdfverify.Options{
		Validator:                 v.validator,
		ReferenceTime:             v.opts.referenceTime,
		RequireDigitalSignatureKU: v.opts.requireDigitalSignatureKU,
		RequireNonRepudiation:     v.opts.requireNonRepudiation,
		RequiredEKUs:              v.opts.requiredEKUs,
		AllowedEKUs:               v.opts.allowedEKUs,
	}
}

// Validate implements spec.md section 6's validate(pdf_bytes) ->
// list<signature_result>: it discovers every signature dictionary and the
// document's revision history, tries to bind each content signature to an
// embedded SVT (C6), and falls through to full CMS and certificate-path
// verification (C5) for every signature an SVT did not cover. Results are
// returned in document order.
func (v *Verifier) Validate(ctx context.Context, pdfBytes []byte) ([]*core.SignatureResult, error) {
	rdr, err := pdf.NewReader(filebuffer.New(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPDF, err)
	}

	entries, err := findSignatures(rdr)
	if err != nil {
		return nil, err
	}

	refs := make([]revision.SignatureRef, len(entries))
	for i, e := range entries {
		refs[i] = revision.SignatureRef{TotalLength: e.totalLength, IsDocTimestamp: e.isDocTimestamp}
	}
	records, err := revision.Discover(pdfBytes, refs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPDF, err)
	}

	var candidates []svt.Candidate
	candidateOf := make(map[int]int, len(entries))
	var tokens []string
	for i, e := range entries {
		if e.isDocTimestamp {
			if toks, err := svt.ExtractTokens(e.rawContents); err == nil {
				tokens = append(tokens, toks...)
			}
			continue
		}
		candidateOf[i] = len(candidates)
		candidates = append(candidates, svt.Candidate{RawContents: e.rawContents})
	}

	bound, diagnostics := svt.Match(ctx, candidates, tokens, v.validator, v.referenceTime())

	results := make([]*core.SignatureResult, len(entries))
	for i, e := range entries {
		if !e.isDocTimestamp {
			if res, ok := bound[candidateOf[i]]; ok {
				results[i] = res
				continue
			}
		}

		revisionIndex, ok := revision.IndexForLength(records, e.totalLength)
		if !ok {
			results[i] = &core.SignatureResult{Status: core.StatusBadFormat, Message: "signature's revision could not be reconstructed"}
			continue
		}
		results[i] = pdfverify.Verify(ctx, pdfBytes, e.value, records, revisionIndex, v.pdfverifyOptions())

		if !e.isDocTimestamp && len(diagnostics) > 0 {
			results[i].PolicyValidationResults = append(results[i].PolicyValidationResults, diagnostics...)
		}
	}

	return results, nil
}
