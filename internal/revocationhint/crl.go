// Package revocationhint supplies a concrete certificate-path validator
// (spec.md section 1's externally injected PathValidator) built on CRL and
// OCSP revocation checks, adapted from the teacher's
// verify/external_revocation.go into a context-aware, VerifyOptions-free
// form this module's pdfverify and svt packages can consume by structural
// typing.
package revocationhint

import (
	"context"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FetchCRL downloads and parses a CRL, adapted from the teacher's
// performExternalCRLCheck.
func FetchCRL(ctx context.Context, client *http.Client, url string) (*x509.RevocationList, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch CRL from %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CRL server %s returned status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read CRL from %s: %w", url, err)
	}
	return x509.ParseRevocationList(body)
}

// RevokedByCRL reports whether cert's serial number appears in crl, and if
// so, the revocation time recorded for it.
func RevokedByCRL(crl *x509.RevocationList, cert *x509.Certificate) (time.Time, bool) {
	for _, entry := range crl.RevokedCertificateEntries {
		if entry.SerialNumber.Cmp(cert.SerialNumber) == 0 {
			return entry.RevocationTime, true
		}
	}
	return time.Time{}, false
}
