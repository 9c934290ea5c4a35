// Package pdfverify drives per-signature validation of a single PDF
// signature dictionary: it classifies the signature, obtains its signed
// bytes from the revision analyzer, runs CMS verification, consults an
// externally supplied certificate-path validator, and folds embedded
// signature timestamps and policy checks into a core.SignatureResult
// (spec.md section 4.5).
//
// Grounded on the teacher's verify/signature.go (VerifySignature,
// processByteRange, processTimestamp, checkDocMDP) and verify/keyusage.go
// (validateKeyUsage) — reworked so that certificate-path trust decisions are
// made by an injected PathValidator rather than built in-package, per
// spec.md section 1.
package pdfverify

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/asn1"
	"fmt"
	"time"

	"github.com/digitorus/pdf"
	"github.com/digitorus/pkcs7"
	"github.com/digitorus/timestamp"

	"github.com/digitorus/svtpades/internal/cms"
	"github.com/digitorus/svtpades/internal/core"
	"github.com/digitorus/svtpades/internal/revision"
)

var oidTimestampToken = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 14}

// PathValidator builds and validates a certificate path from a signer
// certificate and the certificate set carried alongside it, at a given
// reference time, and reports the policy outcomes it applied along the
// way (trust anchoring, revocation, validity period). It is supplied by
// the caller; this package never constructs or trusts a path on its own
// (spec.md section 1).
type PathValidator interface {
	ValidatePath(ctx context.Context, leaf *x509.Certificate, chain []*x509.Certificate, referenceTime time.Time) (path []*x509.Certificate, policyResults []core.PolicyResult, err error)
}

// Options configures a single call to Verify.
type Options struct {
	Validator PathValidator

	// ReferenceTime, when set, is used in place of time.Now for signatures
	// that carry no timestamp of their own.
	ReferenceTime *time.Time

	RequireDigitalSignatureKU bool
	RequireNonRepudiation     bool
	RequiredEKUs              []x509.ExtKeyUsage
	AllowedEKUs               []x509.ExtKeyUsage
}

// Verify implements spec.md section 4.5 for one signature dictionary sig
// found at revisions[revisionIndex]. It always returns a result — failures
// surface as Success=false with the most specific Status, never as a Go
// error, so that callers can continue validating the document's remaining
// signatures.
func Verify(ctx context.Context, pdfBytes []byte, sig pdf.Value, revisions []*core.RevisionRecord, revisionIndex int, opts Options) *core.SignatureResult {
	res := &core.SignatureResult{Status: core.StatusBadFormat}

	isDocTimestamp := sig.Key("SubFilter").Name() == "ETSI.RFC3161"

	signedBytes, err := signedBytesFor(pdfBytes, sig, revisions, revisionIndex, isDocTimestamp)
	if err != nil {
		res.Message = fmt.Sprintf("failed to obtain signed bytes: %v", err)
		return res
	}

	rawContents := []byte(sig.Key("Contents").RawString())
	cmsResult, err := cms.Verify(rawContents, signedBytes)
	if err != nil {
		res.Message = err.Error()
		return res
	}

	res.SignerCertificate = cmsResult.SignerCertificate
	res.SignatureCertificateChain = cmsResult.SignatureCertificateChain
	res.InvalidSignCert = cmsResult.InvalidSignCert
	res.IsPAdES = cmsResult.IsPAdES
	res.PublicKeyType = cmsResult.PublicKeyType
	res.KeyLength = cmsResult.KeyLength
	res.NamedCurve = cmsResult.NamedCurve
	res.SignatureAlgorithmURI = cmsResult.SignatureAlgorithmURI
	res.CMSDigestAlg = cmsResult.CMSDigestAlg
	res.CMSSigAlg = cmsResult.CMSSigAlg
	res.CMSAlgoProtectionDigestAlg = cmsResult.CMSAlgoProtectionDigestAlg
	res.CMSAlgoProtectionSigAlg = cmsResult.CMSAlgoProtectionSigAlg
	res.ClaimedSigningTime = cmsResult.ClaimedSigningTime
	res.SignatureValue = cmsResult.SignatureValue
	res.SignedBytes = signedBytes

	if cmsResult.InvalidSignCert {
		res.Status = core.StatusSignerInvalid
		res.Message = "PAdES signing-certificate binding does not match signer certificate"
		return res
	}

	referenceTime := referenceTimeFor(sig, opts)

	if opts.Validator != nil && res.SignerCertificate != nil {
		path, policyResults, err := opts.Validator.ValidatePath(ctx, res.SignerCertificate, res.SignatureCertificateChain, referenceTime)
		if err != nil {
			res.Status = core.StatusSignerInvalid
			res.Message = fmt.Sprintf("certificate path validation failed: %v", err)
			return res
		}
		res.ValidatedCertificatePath = path
		res.PolicyValidationResults = append(res.PolicyValidationResults, policyResults...)
	}

	if res.SignerCertificate != nil {
		res.PolicyValidationResults = append(res.PolicyValidationResults, keyUsagePolicy(res.SignerCertificate, opts))
	}

	if !isDocTimestamp {
		res.PolicyValidationResults = append(res.PolicyValidationResults, docMDPPolicy(sig, int64(len(pdfBytes)))...)
	}

	tsList, err := embeddedTimestamps(rawContents)
	if err != nil {
		res.Message = fmt.Sprintf("embedded timestamp verification failed: %v", err)
		res.Status = core.StatusInvalidSignature
		return res
	}
	res.SignatureTimestampList = tsList
	res.TimeValidationResults = append(res.TimeValidationResults, tsList...)

	if pr := embeddedRevocationPolicy(rawContents); pr != nil {
		res.PolicyValidationResults = append(res.PolicyValidationResults, *pr)
	}

	res.CoversDocument = revision.CoversDocument(revisions, revisionIndex)
	res.ExtendedByNonSignatureUpdate = revision.ExtendedByNonSignatureUpdate(revisions, revisionIndex)

	res.Status = core.StatusSuccess
	res.Success = true
	for _, pr := range res.PolicyValidationResults {
		if pr.Conclusion == core.Failed {
			res.Success = false
			res.Status = core.StatusInvalidSignature
			res.Message = fmt.Sprintf("policy %q failed", pr.PolicyID)
			break
		}
	}
	return res
}

func referenceTimeFor(sig pdf.Value, opts Options) time.Time {
	if m := sig.Key("M"); !m.IsNull() {
		if t, err := parseDate(m.Text()); err == nil {
			return t
		}
	}
	if opts.ReferenceTime != nil {
		return *opts.ReferenceTime
	}
	return time.Now()
}

// signedBytesFor implements spec.md section 4.5 step 2: content signatures
// are verified against the byte prefix the revision analyzer reports as
// preceding this signature's revision; document timestamps are verified
// against their full declared ByteRange (their TSTInfo message imprint
// covers exactly the bytes named there, including the revision's own
// closing xref/trailer).
func signedBytesFor(pdfBytes []byte, sig pdf.Value, revisions []*core.RevisionRecord, revisionIndex int, isDocTimestamp bool) ([]byte, error) {
	if isDocTimestamp {
		return byteRangeContent(pdfBytes, sig)
	}
	return revision.SignedDocumentPrefix(pdfBytes, revisions, revisionIndex)
}

func byteRangeContent(pdfBytes []byte, sig pdf.Value) ([]byte, error) {
	br := sig.Key("ByteRange")
	if br.Len()%2 != 0 || br.Len() == 0 {
		return nil, fmt.Errorf("invalid ByteRange length: %d", br.Len())
	}
	var content []byte
	for i := 0; i < br.Len(); i += 2 {
		offset := br.Index(i).Int64()
		length := br.Index(i + 1).Int64()
		if offset < 0 || length < 0 || offset+length > int64(len(pdfBytes)) {
			return nil, fmt.Errorf("ByteRange segment [%d,%d) out of bounds", offset, offset+length)
		}
		content = append(content, pdfBytes[offset:offset+length]...)
	}
	return content, nil
}

// embeddedTimestamps implements spec.md section 4.5 step 5: recursively
// verify every RFC 3161 timestamp token carried as an unsigned attribute of
// the CMS SignerInfo, over the hash of the signer's signature value.
func embeddedTimestamps(rawContents []byte) ([]core.TimeValidationResult, error) {
	p7, err := pkcs7.Parse(rawContents)
	if err != nil {
		return nil, err
	}
	var results []core.TimeValidationResult
	for _, s := range p7.Signers {
		for _, attr := range s.UnauthenticatedAttributes {
			if !attr.Type.Equal(oidTimestampToken) {
				continue
			}
			ts, err := timestamp.Parse(attr.Value.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse embedded timestamp: %w", err)
			}
			h := ts.HashAlgorithm.New()
			h.Write(s.EncryptedDigest)
			if !bytes.Equal(h.Sum(nil), ts.HashedMessage) {
				return nil, fmt.Errorf("embedded timestamp hash does not match signature value")
			}
			results = append(results, core.TimeValidationResult{
				Time: ts.Time.Unix(),
				Type: core.TimeTypeTSA,
				PolicyResults: []core.PolicyResult{
					{PolicyID: "tsa-signature", Conclusion: core.Passed},
				},
			})
		}
	}
	return results, nil
}
