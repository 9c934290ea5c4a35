package revocationhint

import (
	"context"
	"crypto/x509"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/ocsp"

	"github.com/digitorus/svtpades/internal/core"
)

// Validator is a concrete certificate-path validator satisfying the
// PathValidator shape both internal/pdfverify and internal/svt declare:
// it builds a trust path from leaf to one of Roots using crypto/x509's own
// chain verification, then checks every non-root certificate on that path
// for revocation, trying OCSP first and falling back to CRL, per the
// teacher's verify/external_revocation.go. Path construction and trust
// live here, outside the CMS/SVT packages, per spec.md section 1.
type Validator struct {
	Roots         *x509.CertPool
	Intermediates *x509.CertPool
	Client        *http.Client

	// KeyUsages restricts the certificate's extended key usages accepted
	// during chain verification; nil means x509.ExtKeyUsageAny.
	KeyUsages []x509.ExtKeyUsage
}

// ValidatePath implements pdfverify.PathValidator and svt.PathValidator.
func (v *Validator) ValidatePath(ctx context.Context, leaf *x509.Certificate, chain []*x509.Certificate, referenceTime time.Time) ([]*x509.Certificate, []core.PolicyResult, error) {
	intermediates := x509.NewCertPool()
	if v.Intermediates != nil {
		intermediates = v.Intermediates.Clone()
	}
	for _, c := range chain {
		intermediates.AddCert(c)
	}

	keyUsages := v.KeyUsages
	if len(keyUsages) == 0 {
		keyUsages = []x509.ExtKeyUsage{x509.ExtKeyUsageAny}
	}

	chains, err := leaf.Verify(x509.VerifyOptions{
		Roots:         v.Roots,
		Intermediates: intermediates,
		CurrentTime:   referenceTime,
		KeyUsages:     keyUsages,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("certificate chain verification failed: %w", err)
	}

	path := chains[0]
	results := []core.PolicyResult{{PolicyID: "certificate-path", Conclusion: core.Passed}}
	results = append(results, v.checkRevocation(ctx, path, referenceTime)...)

	for _, r := range results {
		if r.Conclusion == core.Failed {
			return path, results, fmt.Errorf("revocation check failed for certificate path")
		}
	}
	return path, results, nil
}

// checkRevocation walks path from leaf towards (but excluding) the trust
// anchor, checking each certificate against its issuer. referenceTime is
// the time the signature is being evaluated at (spec.md section 1's LTV
// scenario: validating a signature after the signing or CA key has since
// been revoked), so a certificate revoked only after referenceTime must
// not fail the signature it once legitimately produced.
func (v *Validator) checkRevocation(ctx context.Context, path []*x509.Certificate, referenceTime time.Time) []core.PolicyResult {
	results := make([]core.PolicyResult, 0, len(path)-1)
	for i := 0; i < len(path)-1; i++ {
		results = append(results, v.checkCertRevocation(ctx, path[i], path[i+1], referenceTime))
	}
	return results
}

// checkCertRevocation determines whether cert (issued by issuer) was
// revoked as of referenceTime. A certificate revoked strictly after
// referenceTime is reported as passing: it was still trustworthy at the
// time the signature it backs was produced, per the original
// PDFSignaturePolicyValidator's guidance that a revoked-certificate result
// is allowed if the signature predates the revocation.
func (v *Validator) checkCertRevocation(ctx context.Context, cert, issuer *x509.Certificate, referenceTime time.Time) core.PolicyResult {
	for _, url := range cert.OCSPServer {
		resp, err := FetchOCSP(ctx, v.Client, url, cert, issuer)
		if err != nil {
			continue
		}
		switch resp.Status {
		case ocsp.Good:
			return core.PolicyResult{PolicyID: "revocation", Conclusion: core.Passed}
		case ocsp.Revoked:
			if resp.RevokedAt.After(referenceTime) {
				return core.PolicyResult{PolicyID: "revocation", Conclusion: core.Passed}
			}
			return core.PolicyResult{PolicyID: "revocation", Conclusion: core.Failed}
		}
	}

	for _, url := range cert.CRLDistributionPoints {
		crl, err := FetchCRL(ctx, v.Client, url)
		if err != nil {
			continue
		}
		if revokedAt, revoked := RevokedByCRL(crl, cert); revoked {
			if revokedAt.After(referenceTime) {
				return core.PolicyResult{PolicyID: "revocation", Conclusion: core.Passed}
			}
			return core.PolicyResult{PolicyID: "revocation", Conclusion: core.Failed}
		}
		return core.PolicyResult{PolicyID: "revocation", Conclusion: core.Passed}
	}

	return core.PolicyResult{PolicyID: "revocation", Conclusion: core.Indeterminate}
}
