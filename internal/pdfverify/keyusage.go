package pdfverify

import (
	"crypto/x509"

	"github.com/digitorus/svtpades/internal/core"
)

// keyUsagePolicy validates certificate Key Usage and Extended Key Usage for
// PDF signing per RFC 9336, adapted from the teacher's validateKeyUsage
// into a single policy_validation_results entry.
func keyUsagePolicy(cert *x509.Certificate, opts Options) core.PolicyResult {
	if opts.RequireDigitalSignatureKU && (cert.KeyUsage&x509.KeyUsageDigitalSignature) == 0 {
		return core.PolicyResult{PolicyID: "key-usage", Conclusion: core.Failed}
	}
	if opts.RequireNonRepudiation && (cert.KeyUsage&x509.KeyUsageContentCommitment) == 0 {
		return core.PolicyResult{PolicyID: "key-usage", Conclusion: core.Failed}
	}

	if len(opts.RequiredEKUs) == 0 && len(opts.AllowedEKUs) == 0 {
		return core.PolicyResult{PolicyID: "key-usage", Conclusion: core.Passed}
	}

	if hasAnyEKU(cert, opts.RequiredEKUs) || hasAnyEKU(cert, opts.AllowedEKUs) {
		return core.PolicyResult{PolicyID: "key-usage", Conclusion: core.Passed}
	}
	return core.PolicyResult{PolicyID: "key-usage", Conclusion: core.Failed}
}

func hasAnyEKU(cert *x509.Certificate, want []x509.ExtKeyUsage) bool {
	for _, w := range want {
		for _, have := range cert.ExtKeyUsage {
			if have == w {
				return true
			}
		}
	}
	return false
}

// DocumentSigningEKUs returns the Extended Key Usages accepted for PDF
// signing by default: the Document Signing EKU (RFC 9336) plus the two
// alternatives commonly issued in practice.
func DocumentSigningEKUs() []x509.ExtKeyUsage {
	return []x509.ExtKeyUsage{
		x509.ExtKeyUsage(36),
		x509.ExtKeyUsageEmailProtection,
		x509.ExtKeyUsageClientAuth,
	}
}
