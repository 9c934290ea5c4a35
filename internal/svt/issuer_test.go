package svt

import (
	"context"
	"crypto/x509"
	"testing"
	"time"

	"github.com/digitorus/pkcs7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/svtpades/internal/core"
)

func TestIssueProducesVerifiableToken(t *testing.T) {
	_, contentKey, contentCert := newSignerPKI(t)
	der := buildSignedContent(t, contentKey, contentCert, []byte("issued document bytes"))
	p7, err := pkcs7.Parse(der)
	require.NoError(t, err)

	_, issuerKey, issuerCert := newSignerPKI(t)

	result := &core.SignatureResult{
		SignerCertificate:       contentCert,
		PolicyValidationResults: []core.PolicyResult{{PolicyID: "cms-verify", Conclusion: core.Passed}},
		TimeValidationResults: []core.TimeValidationResult{
			{Issuer: "tsa-a", Time: time.Now().Unix(), Type: core.TimeTypeTSA, PolicyResults: []core.PolicyResult{{PolicyID: "tsa-signature", Conclusion: core.Passed}}},
			{Issuer: "tsa-b", Time: time.Now().Unix(), Type: core.TimeTypeTSA, PolicyResults: []core.PolicyResult{{PolicyID: "tsa-signature", Conclusion: core.Failed}}},
		},
	}

	issuedAt := time.Now()
	token, err := Issue([]IssuanceInput{{
		Result:         result,
		SignatureValue: p7.Signers[0].EncryptedDigest,
		SignedBytes:    []byte("issued document bytes"),
	}}, IssuerOptions{
		Issuer:       "svt-issuer",
		Key:          issuerKey,
		JWSAlg:       "ES256",
		Certificates: []*x509.Certificate{issuerCert},
		IssuedAt:     issuedAt,
	})
	require.NoError(t, err)

	payload, algInfo, certs, err := Verify(context.Background(), token, acceptAllValidator{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ES256", algInfo.JWSAlg)
	assert.Equal(t, "svt-issuer", payload.Issuer)
	require.Len(t, certs, 1)

	require.Len(t, payload.Sig, 1)
	claim := payload.Sig[0]
	assert.NotEmpty(t, claim.SigRef.SigHash)
	assert.NotEmpty(t, claim.SigRef.SbHash)
	assert.Equal(t, result.PolicyValidationResults, claim.SigVal)
	require.Len(t, claim.TimeVal, 1)
	assert.Equal(t, "tsa-a", claim.TimeVal[0].Issuer)
	assert.Equal(t, core.CertRefChainHash, claim.CertRef.Type)
}

func TestIssueInjectsBasicValidationWhenConfigured(t *testing.T) {
	_, contentKey, contentCert := newSignerPKI(t)
	der := buildSignedContent(t, contentKey, contentCert, []byte("bare document"))
	p7, err := pkcs7.Parse(der)
	require.NoError(t, err)

	_, issuerKey, issuerCert := newSignerPKI(t)

	result := &core.SignatureResult{SignerCertificate: contentCert}

	token, err := Issue([]IssuanceInput{{
		Result:         result,
		SignatureValue: p7.Signers[0].EncryptedDigest,
		SignedBytes:    []byte("bare document"),
	}}, IssuerOptions{
		Issuer:                "svt-issuer",
		Key:                   issuerKey,
		JWSAlg:                "ES256",
		Certificates:          []*x509.Certificate{issuerCert},
		IssuedAt:              time.Now(),
		InjectBasicValidation: true,
	})
	require.NoError(t, err)

	payload, _, _, err := Verify(context.Background(), token, acceptAllValidator{}, time.Now())
	require.NoError(t, err)
	require.Len(t, payload.Sig[0].SigVal, 1)
	assert.Equal(t, "basic-validation", payload.Sig[0].SigVal[0].PolicyID)
	assert.Equal(t, core.Failed, payload.Sig[0].SigVal[0].Conclusion, "result.Success was false")
}

func TestIssueInjectsBasicValidationPassedWhenResultSucceeded(t *testing.T) {
	_, contentKey, contentCert := newSignerPKI(t)
	der := buildSignedContent(t, contentKey, contentCert, []byte("bare document"))
	p7, err := pkcs7.Parse(der)
	require.NoError(t, err)

	_, issuerKey, issuerCert := newSignerPKI(t)

	result := &core.SignatureResult{SignerCertificate: contentCert, Success: true}

	token, err := Issue([]IssuanceInput{{
		Result:         result,
		SignatureValue: p7.Signers[0].EncryptedDigest,
		SignedBytes:    []byte("bare document"),
	}}, IssuerOptions{
		Issuer:                "svt-issuer",
		Key:                   issuerKey,
		JWSAlg:                "ES256",
		Certificates:          []*x509.Certificate{issuerCert},
		IssuedAt:              time.Now(),
		InjectBasicValidation: true,
	})
	require.NoError(t, err)

	payload, _, _, err := Verify(context.Background(), token, acceptAllValidator{}, time.Now())
	require.NoError(t, err)
	require.Len(t, payload.Sig[0].SigVal, 1)
	assert.Equal(t, core.Passed, payload.Sig[0].SigVal[0].Conclusion)
}

func TestIssueRejectsMissingResult(t *testing.T) {
	_, issuerKey, issuerCert := newSignerPKI(t)
	_, err := Issue([]IssuanceInput{{}}, IssuerOptions{
		Issuer:       "svt-issuer",
		Key:          issuerKey,
		JWSAlg:       "ES256",
		Certificates: []*x509.Certificate{issuerCert},
		IssuedAt:     time.Now(),
	})
	assert.Error(t, err)
}

func TestIssueRejectsUnsupportedAlg(t *testing.T) {
	_, issuerKey, issuerCert := newSignerPKI(t)
	_, err := Issue(nil, IssuerOptions{
		Issuer:       "svt-issuer",
		Key:          issuerKey,
		JWSAlg:       "HS256",
		Certificates: []*x509.Certificate{issuerCert},
		IssuedAt:     time.Now(),
	})
	assert.Error(t, err)
}
