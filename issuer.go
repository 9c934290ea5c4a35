package svtpades

import (
	"crypto/x509"
	"fmt"
	"time"

	"github.com/digitorus/svtpades/internal/core"
	"github.com/digitorus/svtpades/internal/svt"
)

// IssuerOption configures an Issuer at construction.
type IssuerOption func(*issuerOptions)

type issuerOptions struct {
	injectBasicValidation bool
	now                   func() time.Time
}

// InjectBasicValidation configures the issuer to fall back to a single
// {pol: basic-validation} claim when a signature result carries no policy
// outcomes of its own, per spec.md section 4.7 step 3.
func InjectBasicValidation(inject bool) IssuerOption {
	return func(o *issuerOptions) { o.injectBasicValidation = inject }
}

// Issuer signs SVT claim sets over previously produced validation results.
// The signing key, target algorithm and issuer certificate chain are fixed
// per call to Issue, matching spec.md section 6's
// issue(validation_results, key, algorithm, issuer_certs) -> signed_svt.
type Issuer struct {
	issuer string
	opts   issuerOptions
}

// NewIssuer constructs an Issuer that identifies itself as issuerName in
// the SVT's iss claim.
func NewIssuer(issuerName string, opts ...IssuerOption) *Issuer {
	o := issuerOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Issuer{issuer: issuerName, opts: o}
}

// Issue signs an SVT over results, using key under jwsAlg, carrying
// issuerCerts in the token's x5c header. A result whose SignatureValue or
// SignedBytes is empty (never populated because the signature fell through
// C5 without reaching CMS verification) is rejected, since no sig_ref can
// be computed for it.
func (iss *Issuer) Issue(results []*core.SignatureResult, key any, jwsAlg string, issuerCerts []*x509.Certificate) (string, error) {
	inputs := make([]svt.IssuanceInput, len(results))
	for i, res := range results {
		if res == nil || len(res.SignatureValue) == 0 || len(res.SignedBytes) == 0 {
			return "", fmt.Errorf("svtpades: issuance input %d carries no signature material to reference", i)
		}
		inputs[i] = svt.IssuanceInput{
			Result:         res,
			SignatureValue: res.SignatureValue,
			SignedBytes:    res.SignedBytes,
		}
	}

	return svt.Issue(inputs, svt.IssuerOptions{
		Issuer:                iss.issuer,
		Key:                   key,
		JWSAlg:                jwsAlg,
		Certificates:          issuerCerts,
		IssuedAt:              iss.opts.now(),
		InjectBasicValidation: iss.opts.injectBasicValidation,
	})
}
