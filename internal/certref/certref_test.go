package certref

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func selfSigned(t *testing.T, cn string, serial int64) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: cn},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func TestEncodeChainHashSingleCert(t *testing.T) {
	signer := selfSigned(t, "signer", 1)

	ref := Encode(signer, []*x509.Certificate{signer}, nil, crypto.SHA256)
	require.Equal(t, "chain_hash", string(ref.Type))
	require.Len(t, ref.Ref, 1)

	h := crypto.SHA256.New()
	h.Write(signer.Raw)
	require.Equal(t, base64.StdEncoding.EncodeToString(h.Sum(nil)), ref.Ref[0])
}

func TestEncodeChainHashTwoCerts(t *testing.T) {
	signer := selfSigned(t, "signer", 1)
	ica := selfSigned(t, "ica", 2)
	chain := []*x509.Certificate{signer, ica}

	ref := Encode(signer, chain, nil, crypto.SHA256)
	require.Equal(t, "chain_hash", string(ref.Type))
	require.Len(t, ref.Ref, 2)

	h1 := crypto.SHA256.New()
	h1.Write(signer.Raw)
	require.Equal(t, base64.StdEncoding.EncodeToString(h1.Sum(nil)), ref.Ref[0])

	h2 := crypto.SHA256.New()
	h2.Write(signer.Raw)
	h2.Write(ica.Raw)
	require.Equal(t, base64.StdEncoding.EncodeToString(h2.Sum(nil)), ref.Ref[1])
}

func TestEncodeFullChainWhenPathNotSubsetOfCarried(t *testing.T) {
	signer := selfSigned(t, "signer", 1)
	carriedICA := selfSigned(t, "carried-ica", 2)
	validatedICA := selfSigned(t, "validated-ica", 3) // different cert than carried
	root := selfSigned(t, "root", 4)

	chain := []*x509.Certificate{signer, carriedICA}
	path := []*x509.Certificate{signer, validatedICA, root}

	ref := Encode(signer, chain, path, crypto.SHA256)
	require.Equal(t, "chain", string(ref.Type))
	require.Len(t, ref.Ref, 3)
	require.Equal(t, base64.StdEncoding.EncodeToString(signer.Raw), ref.Ref[0])
	require.Equal(t, base64.StdEncoding.EncodeToString(validatedICA.Raw), ref.Ref[1])
	require.Equal(t, base64.StdEncoding.EncodeToString(root.Raw), ref.Ref[2])
}

func TestEncodeChainHashWhenPathIsSubsetOfCarried(t *testing.T) {
	signer := selfSigned(t, "signer", 1)
	ica := selfSigned(t, "ica", 2)
	root := selfSigned(t, "root", 3)

	chain := []*x509.Certificate{signer, ica, root}
	path := []*x509.Certificate{signer, ica} // subset of carried chain

	ref := Encode(signer, chain, path, crypto.SHA256)
	require.Equal(t, "chain_hash", string(ref.Type))
}
