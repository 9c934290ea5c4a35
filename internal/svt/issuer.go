package svt

import (
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/digitorus/svtpades/internal/algorithm"
	"github.com/digitorus/svtpades/internal/certref"
	"github.com/digitorus/svtpades/internal/core"
)

// IssuanceInput is one signature's material for SVT issuance: its already
// computed validation result plus the two raw byte strings the claim set's
// sig_ref hashes over (spec.md section 3, "Signature fingerprint", and
// section 4.2's cert_ref inputs).
type IssuanceInput struct {
	Result *core.SignatureResult

	// SignatureValue is the raw CMS signature value octet string
	// (cms.Result.SignatureValue, the SignerInfo's EncryptedDigest).
	SignatureValue []byte

	// SignedBytes is the byte string the signature covers, as returned by
	// the revision analyzer or the ByteRange reader.
	SignedBytes []byte
}

// IssuerOptions configures Issue.
type IssuerOptions struct {
	Issuer       string // iss claim
	Key          any    // private key matching JWSAlg's concrete type
	JWSAlg       string
	Certificates []*x509.Certificate // issuer's own certificate chain, carried in x5c
	IssuedAt     time.Time

	// InjectBasicValidation supplies a synthetic "basic-validation: passed"
	// sig_val entry for any input whose validation result carried no
	// policy_validation_results at all, per spec.md section 4.7 step 3.
	InjectBasicValidation bool
}

// Issue implements spec.md section 4.7: builds one claim set per input and
// signs the batch as a single SVT JWS. It is idempotent in the sense that
// section describes: the same inputs and IssuedAt produce byte-identical
// claim sets, differing only in the fresh jti minted on each call.
func Issue(inputs []IssuanceInput, opts IssuerOptions) (string, error) {
	algInfo, err := algorithm.LookupJWSAlg(opts.JWSAlg)
	if err != nil {
		return "", err
	}

	claims := make([]core.ClaimSet, 0, len(inputs))
	for i, in := range inputs {
		cs, err := buildClaimSet(in, algInfo, opts)
		if err != nil {
			return "", fmt.Errorf("svt: issuance input %d: %w", i, err)
		}
		claims = append(claims, cs)
	}

	payload := Payload{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   opts.Issuer,
			IssuedAt: jwt.NewNumericDate(opts.IssuedAt),
			ID:       uuid.NewString(),
		},
		Sig: claims,
	}

	return Sign(payload, opts.Key, opts.JWSAlg, opts.Certificates)
}

func buildClaimSet(in IssuanceInput, algInfo algorithm.Info, opts IssuerOptions) (core.ClaimSet, error) {
	if in.Result == nil {
		return core.ClaimSet{}, fmt.Errorf("issuance input carries no validation result")
	}

	h := algInfo.Digest.New()
	h.Write(in.SignatureValue)
	sigHash := base64.StdEncoding.EncodeToString(h.Sum(nil))

	h2 := algInfo.Digest.New()
	h2.Write(in.SignedBytes)
	sbHash := base64.StdEncoding.EncodeToString(h2.Sum(nil))

	cr := certref.Encode(in.Result.SignerCertificate, in.Result.SignatureCertificateChain, in.Result.ValidatedCertificatePath, algInfo.Digest)

	sigVal := in.Result.PolicyValidationResults
	if len(sigVal) == 0 && opts.InjectBasicValidation {
		conclusion := core.Failed
		if in.Result.Success {
			conclusion = core.Passed
		}
		sigVal = []core.PolicyResult{{PolicyID: "basic-validation", Conclusion: conclusion}}
	}

	return core.ClaimSet{
		SigRef:  core.SigRef{SigHash: sigHash, SbHash: sbHash},
		SigVal:  sigVal,
		TimeVal: filterPassed(in.Result.TimeValidationResults),
		CertRef: cr,
	}, nil
}

// filterPassed keeps only the time_val entries carrying at least one
// passed policy outcome, per spec.md section 4.7 step 3.
func filterPassed(results []core.TimeValidationResult) []core.TimeValidationResult {
	var out []core.TimeValidationResult
	for _, r := range results {
		for _, p := range r.PolicyResults {
			if p.Conclusion == core.Passed {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
