package svt

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/digitorus/pkcs7"

	"github.com/digitorus/svtpades/internal/algorithm"
	"github.com/digitorus/svtpades/internal/core"
)

// Candidate is one content signature eligible for SVT binding: the raw CMS
// SignedData bytes of its Contents entry, from which the signature-value
// octet string is extracted for the "Signature fingerprint" comparison in
// spec.md section 3.
type Candidate struct {
	RawContents []byte
}

// Match implements spec.md section 4.6: for every discovered SVT JWS
// token, verify it, then walk its "sig" entries in order and bind each one
// to the first still-unbound candidate whose signature-value digest
// (computed under the algorithm the SVT's own JWS header implies) equals
// the entry's sig_ref.sig_hash. Candidates are addressed by their index in
// the slice passed in; the caller (the top-level verifier) is expected to
// pass candidates in the same document order it will use to index its own
// signature list, and to fall through to C5 (pdfverify.Verify) for any
// index absent from the returned map.
//
// A token that fails to verify binds nothing and is otherwise ignored: an
// unusable SVT never blocks a signature from falling through to live CMS
// verification. The one exception is an unsupported JWS alg, which is
// surfaced as an svt-algorithm-unsupported diagnostic in the returned slice
// rather than silently dropped, since it points at a registry gap the
// caller can act on rather than a bad token.
func Match(ctx context.Context, candidates []Candidate, tokens []string, validator PathValidator, referenceTime time.Time) (map[int]*core.SignatureResult, []core.PolicyResult) {
	bound := make(map[int]*core.SignatureResult)
	var diagnostics []core.PolicyResult

	for _, token := range tokens {
		payload, algInfo, certs, err := Verify(ctx, token, validator, referenceTime)
		if err != nil {
			if errors.Is(err, algorithm.ErrUnsupported) {
				diagnostics = append(diagnostics, core.PolicyResult{PolicyID: "svt-algorithm-unsupported", Conclusion: core.Failed})
			}
			continue
		}
		for _, entry := range payload.Sig {
			for i, cand := range candidates {
				if _, taken := bound[i]; taken {
					continue
				}
				hash, err := signatureValueDigest(cand.RawContents, algInfo)
				if err != nil {
					continue
				}
				if hash != entry.SigRef.SigHash {
					continue
				}
				bound[i] = bindResult(entry, payload, algInfo, certs)
				break
			}
		}
	}

	return bound, diagnostics
}

func signatureValueDigest(rawContents []byte, algInfo algorithm.Info) (string, error) {
	p7, err := pkcs7.Parse(rawContents)
	if err != nil {
		return "", err
	}
	if len(p7.Signers) == 0 {
		return "", fmt.Errorf("no SignerInfo present")
	}
	h := algInfo.Digest.New()
	h.Write(p7.Signers[0].EncryptedDigest)
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// bindResult produces the SignatureResult for a bound signature, per
// spec.md section 4.6's field-by-field carry-over rule: sig_val becomes
// policy_validation_results, time_val is carried forward with one
// additional entry appended for the SVT's own issuance, the reported
// algorithm/key fields are replaced with the SVT JWS's own, and
// signature_timestamp_list is cleared since the SVT itself now vouches for
// time.
func bindResult(entry core.ClaimSet, payload *Payload, algInfo algorithm.Info, certs []*x509.Certificate) *core.SignatureResult {
	res := &core.SignatureResult{
		SVTClaims:               claimSetCopy(entry),
		PolicyValidationResults: entry.SigVal,
		SignatureAlgorithmURI:   algInfo.URI,
	}

	if len(certs) > 0 {
		res.SignerCertificate = certs[0]
		if len(certs) > 1 {
			res.SignatureCertificateChain = certs[1:]
		}
		if keyType, bits, curve, err := algorithm.KeyParameters(certs[0]); err == nil {
			res.PublicKeyType, res.KeyLength, res.NamedCurve = keyType, bits, curve
		}
	}

	res.TimeValidationResults = append(res.TimeValidationResults, entry.TimeVal...)
	res.TimeValidationResults = append(res.TimeValidationResults, core.TimeValidationResult{
		Issuer:        payload.Issuer,
		Time:          issuedAtUnix(payload),
		Type:          core.TimeTypeSVT,
		ID:            payload.ID,
		PolicyResults: []core.PolicyResult{{PolicyID: "pkix-validation", Conclusion: core.Passed}},
	})

	res.Success = allPassed(entry.SigVal)
	if res.Success {
		res.Status = core.StatusSuccess
	} else {
		res.Status = core.StatusInvalidSignature
		res.Message = "SVT-bound signature carries a failed policy conclusion"
	}
	return res
}

func claimSetCopy(c core.ClaimSet) *core.ClaimSet {
	cp := c
	return &cp
}

func allPassed(results []core.PolicyResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.Conclusion != core.Passed {
			return false
		}
	}
	return true
}

func issuedAtUnix(p *Payload) int64 {
	if p.IssuedAt == nil {
		return 0
	}
	return p.IssuedAt.Unix()
}
