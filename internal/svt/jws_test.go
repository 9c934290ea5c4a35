package svt

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/svtpades/internal/algorithm"
	"github.com/digitorus/svtpades/internal/core"
	"github.com/digitorus/svtpades/internal/testpki"
)

type acceptAllValidator struct{}

func (acceptAllValidator) ValidatePath(ctx context.Context, leaf *x509.Certificate, chain []*x509.Certificate, referenceTime time.Time) ([]*x509.Certificate, []core.PolicyResult, error) {
	return append([]*x509.Certificate{leaf}, chain...), nil, nil
}

type rejectingValidator struct{}

func (rejectingValidator) ValidatePath(ctx context.Context, leaf *x509.Certificate, chain []*x509.Certificate, referenceTime time.Time) ([]*x509.Certificate, []core.PolicyResult, error) {
	return nil, nil, errors.New("path rejected")
}

func newSignerPKI(t *testing.T) (*testpki.TestPKI, *ecdsa.PrivateKey, *x509.Certificate) {
	t.Helper()
	pki := testpki.NewTestPKIWithConfig(t, testpki.TestPKIConfig{Profile: testpki.ECDSA_P256, IntermediateCAs: 1})
	pki.StartCRLServer()
	t.Cleanup(pki.Close)
	signer, cert := pki.IssueLeaf("svt-test-signer")
	return pki, signer.(*ecdsa.PrivateKey), cert
}

func TestSignVerifyRoundTrip(t *testing.T) {
	_, key, cert := newSignerPKI(t)

	payload := Payload{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "svt-issuer",
			IssuedAt: jwt.NewNumericDate(time.Now()),
			ID:       "round-trip-jti",
		},
		Sig: []core.ClaimSet{{SigRef: core.SigRef{SigHash: "abc"}}},
	}

	token, err := Sign(payload, key, "ES256", []*x509.Certificate{cert})
	require.NoError(t, err)

	got, algInfo, certs, err := Verify(context.Background(), token, acceptAllValidator{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ES256", algInfo.JWSAlg)
	assert.Equal(t, "svt-issuer", got.Issuer)
	assert.Equal(t, "round-trip-jti", got.ID)
	require.Len(t, got.Sig, 1)
	assert.Equal(t, "abc", got.Sig[0].SigRef.SigHash)
	require.Len(t, certs, 1)
	assert.Equal(t, cert.Raw, certs[0].Raw)
}

func TestVerifyRejectsUntrustedIssuer(t *testing.T) {
	_, key, cert := newSignerPKI(t)

	payload := Payload{RegisteredClaims: jwt.RegisteredClaims{Issuer: "svt-issuer"}}
	token, err := Sign(payload, key, "ES256", []*x509.Certificate{cert})
	require.NoError(t, err)

	_, _, _, err = Verify(context.Background(), token, rejectingValidator{}, time.Now())
	assert.Error(t, err)
}

func TestVerifyRejectsUnsupportedAlg(t *testing.T) {
	payload := Payload{RegisteredClaims: jwt.RegisteredClaims{Issuer: "svt-issuer"}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	signed, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, _, _, err = Verify(context.Background(), signed, acceptAllValidator{}, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, algorithm.ErrUnsupported))
}

func TestSignRejectsUnsupportedAlg(t *testing.T) {
	_, _, cert := newSignerPKI(t)
	_, err := Sign(Payload{}, nil, "HS256", []*x509.Certificate{cert})
	require.Error(t, err)
	assert.True(t, errors.Is(err, algorithm.ErrUnsupported))
}

func TestSignRejectsEmptyIssuerChain(t *testing.T) {
	_, key, _ := newSignerPKI(t)
	_, err := Sign(Payload{}, key, "ES256", nil)
	assert.Error(t, err)
}
