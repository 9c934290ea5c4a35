package svtpades

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"testing"
	"time"

	"github.com/digitorus/pkcs7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/svtpades/internal/core"
	"github.com/digitorus/svtpades/internal/svt"
	"github.com/digitorus/svtpades/internal/testpki"
)

type acceptAllValidator struct{}

func (acceptAllValidator) ValidatePath(ctx context.Context, leaf *x509.Certificate, chain []*x509.Certificate, referenceTime time.Time) ([]*x509.Certificate, []core.PolicyResult, error) {
	return append([]*x509.Certificate{leaf}, chain...), nil, nil
}

func newIssuerFixture(t *testing.T) (*ecdsa.PrivateKey, *x509.Certificate, *core.SignatureResult) {
	t.Helper()
	pki := testpki.NewTestPKIWithConfig(t, testpki.TestPKIConfig{Profile: testpki.ECDSA_P256, IntermediateCAs: 1})
	pki.StartCRLServer()
	t.Cleanup(pki.Close)

	contentSigner, contentCert := pki.IssueLeaf("issuer-fixture-signer")
	signedBytes := []byte("issuer fixture document bytes")

	sd, err := pkcs7.NewSignedData(signedBytes)
	require.NoError(t, err)
	require.NoError(t, sd.AddSignerChain(contentCert, contentSigner, nil, pkcs7.SignerInfoConfig{}))
	sd.Detach()
	der, err := sd.Finish()
	require.NoError(t, err)
	p7, err := pkcs7.Parse(der)
	require.NoError(t, err)

	issuerSigner, issuerCert := pki.IssueLeaf("issuer-fixture-issuer")

	result := &core.SignatureResult{
		Success:                 true,
		Status:                  core.StatusSuccess,
		SignerCertificate:       contentCert,
		PolicyValidationResults: []core.PolicyResult{{PolicyID: "cms-verify", Conclusion: core.Passed}},
		SignatureValue:          p7.Signers[0].EncryptedDigest,
		SignedBytes:             signedBytes,
	}

	return issuerSigner.(*ecdsa.PrivateKey), issuerCert, result
}

func TestIssuerIssueProducesVerifiableSVT(t *testing.T) {
	issuerKey, issuerCert, result := newIssuerFixture(t)

	iss := NewIssuer("svtpades-test-issuer")
	token, err := iss.Issue([]*core.SignatureResult{result}, issuerKey, "ES256", []*x509.Certificate{issuerCert})
	require.NoError(t, err)

	payload, algInfo, certs, err := svt.Verify(context.Background(), token, acceptAllValidator{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ES256", algInfo.JWSAlg)
	assert.Equal(t, "svtpades-test-issuer", payload.Issuer)
	require.Len(t, certs, 1)
	require.Len(t, payload.Sig, 1)
	assert.NotEmpty(t, payload.Sig[0].SigRef.SigHash)
	assert.NotEmpty(t, payload.Sig[0].SigRef.SbHash)
}

func TestIssuerInjectsBasicValidation(t *testing.T) {
	issuerKey, issuerCert, result := newIssuerFixture(t)
	result.PolicyValidationResults = nil

	iss := NewIssuer("svtpades-test-issuer", InjectBasicValidation(true))
	token, err := iss.Issue([]*core.SignatureResult{result}, issuerKey, "ES256", []*x509.Certificate{issuerCert})
	require.NoError(t, err)

	payload, _, _, err := svt.Verify(context.Background(), token, acceptAllValidator{}, time.Now())
	require.NoError(t, err)
	require.Len(t, payload.Sig[0].SigVal, 1)
	assert.Equal(t, "basic-validation", payload.Sig[0].SigVal[0].PolicyID)
}

func TestIssuerRejectsResultMissingSignatureMaterial(t *testing.T) {
	issuerKey, issuerCert, _ := newIssuerFixture(t)

	iss := NewIssuer("svtpades-test-issuer")
	_, err := iss.Issue([]*core.SignatureResult{{SignerCertificate: nil}}, issuerKey, "ES256", []*x509.Certificate{issuerCert})
	assert.Error(t, err)
}
