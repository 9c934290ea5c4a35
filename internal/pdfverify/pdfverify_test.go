package pdfverify

import (
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/svtpades/internal/core"
	"github.com/digitorus/svtpades/internal/testpki"
)

func TestParseDate(t *testing.T) {
	got, err := parseDate("D:20240115120000+02'00'")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.Month(1), got.Month())
	assert.Equal(t, 15, got.Day())
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := parseDate("not a date")
	assert.Error(t, err)
}

func newLeaf(t *testing.T) *x509.Certificate {
	t.Helper()
	pki := testpki.NewTestPKIWithConfig(t, testpki.TestPKIConfig{Profile: testpki.ECDSA_P256, IntermediateCAs: 1})
	pki.StartCRLServer()
	t.Cleanup(pki.Close)
	_, cert := pki.IssueLeaf("keyusage-subject")
	return cert
}

func TestKeyUsagePolicyRequiresDigitalSignature(t *testing.T) {
	cert := newLeaf(t)
	cert.KeyUsage = x509.KeyUsageContentCommitment

	res := keyUsagePolicy(cert, Options{RequireDigitalSignatureKU: true})
	assert.Equal(t, core.Failed, res.Conclusion)
}

func TestKeyUsagePolicyPassesWithNoConstraints(t *testing.T) {
	cert := newLeaf(t)
	res := keyUsagePolicy(cert, Options{})
	assert.Equal(t, core.Passed, res.Conclusion)
}

func TestKeyUsagePolicyRequiredEKU(t *testing.T) {
	cert := newLeaf(t)
	cert.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}

	res := keyUsagePolicy(cert, Options{RequiredEKUs: DocumentSigningEKUs()})
	assert.Equal(t, core.Failed, res.Conclusion)

	cert.ExtKeyUsage = DocumentSigningEKUs()
	res = keyUsagePolicy(cert, Options{RequiredEKUs: DocumentSigningEKUs()})
	assert.Equal(t, core.Passed, res.Conclusion)
}

// docMDPPolicy and byteRangeContent both take a concrete pdf.Value from the
// digitorus/pdf library, which (like the teacher's own pdf.Value consumers,
// see verify/signature_unit_test.go) exposes no interface a test can
// substitute; the two functions above are exercised end to end through
// Verify in higher-level fixtures once a full signed-PDF builder exists,
// following the same limitation the teacher's own unit tests accept.
