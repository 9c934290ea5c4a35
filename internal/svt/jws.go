package svt

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/digitorus/svtpades/internal/algorithm"
	"github.com/digitorus/svtpades/internal/core"
)

// PathValidator mirrors pdfverify.PathValidator's method exactly, so a
// single caller-supplied implementation of the certificate-path validator
// serves both content-signature trust decisions and SVT-issuer trust
// decisions without either package importing the other.
type PathValidator interface {
	ValidatePath(ctx context.Context, leaf *x509.Certificate, chain []*x509.Certificate, referenceTime time.Time) (path []*x509.Certificate, policyResults []core.PolicyResult, err error)
}

var signingMethods = map[string]jwt.SigningMethod{
	"RS256": jwt.SigningMethodRS256,
	"RS384": jwt.SigningMethodRS384,
	"RS512": jwt.SigningMethodRS512,
	"PS256": jwt.SigningMethodPS256,
	"ES256": jwt.SigningMethodES256,
	"ES384": jwt.SigningMethodES384,
	"ES512": jwt.SigningMethodES512,
	"EdDSA": jwt.SigningMethodEdDSA,
}

// Sign builds and signs the SVT JWS, carrying the issuer's certificate
// chain in the x5c header per spec.md section 4.7 step 5 ("assemble the
// JOSE header with alg and an x5c carrying the issuer's certificate
// chain"). key must be the concrete private key type golang-jwt's signing
// method for alg expects (*rsa.PrivateKey, *ecdsa.PrivateKey or
// ed25519.PrivateKey).
func Sign(payload Payload, key any, jwsAlg string, issuerCerts []*x509.Certificate) (string, error) {
	method, ok := signingMethods[jwsAlg]
	if !ok {
		return "", fmt.Errorf("%w: JWS alg %s", algorithm.ErrUnsupported, jwsAlg)
	}
	if len(issuerCerts) == 0 {
		return "", errors.New("svt: issuer certificate chain is empty")
	}

	token := jwt.NewWithClaims(method, payload)
	token.Header["x5c"] = encodeX5C(issuerCerts)

	return token.SignedString(key)
}

// Verify parses and cryptographically verifies an SVT JWS: the signing key
// comes from the leaf certificate in the token's x5c header, and that
// certificate's path is checked against validator before the signature is
// trusted, per spec.md section 4.6 step 1 ("verify the SVT's own JWS
// signature against the issuer's key, validated via the external
// certificate-path validator over the JWS's x5c header"). It returns the
// parsed payload, the registry entry for the JWS alg (whose Digest field
// gives the algorithm implied for claim-set hashing), and the certificate
// chain from x5c.
func Verify(ctx context.Context, token string, validator PathValidator, referenceTime time.Time) (*Payload, algorithm.Info, []*x509.Certificate, error) {
	var payload Payload
	var certs []*x509.Certificate
	var algInfo algorithm.Info

	parsed, err := jwt.ParseWithClaims(token, &payload, func(t *jwt.Token) (interface{}, error) {
		alg, _ := t.Header["alg"].(string)
		info, err := algorithm.LookupJWSAlg(alg)
		if err != nil {
			return nil, err
		}
		algInfo = info

		chain, err := decodeX5C(t.Header["x5c"])
		if err != nil {
			return nil, fmt.Errorf("svt: %w", err)
		}
		if len(chain) == 0 {
			return nil, errors.New("svt: x5c header carries no certificates")
		}
		certs = chain

		if validator != nil {
			if _, _, err := validator.ValidatePath(ctx, chain[0], chain[1:], referenceTime); err != nil {
				return nil, fmt.Errorf("svt: issuer certificate path invalid: %w", err)
			}
		}

		return chain[0].PublicKey, nil
	})
	if err != nil {
		return nil, algorithm.Info{}, nil, err
	}
	if !parsed.Valid {
		return nil, algorithm.Info{}, nil, errors.New("svt: JWS signature verification failed")
	}

	return &payload, algInfo, certs, nil
}

func encodeX5C(certs []*x509.Certificate) []string {
	out := make([]string, len(certs))
	for i, c := range certs {
		out[i] = base64.StdEncoding.EncodeToString(c.Raw)
	}
	return out
}

func decodeX5C(raw interface{}) ([]*x509.Certificate, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, errors.New("missing or malformed x5c header")
	}
	certs := make([]*x509.Certificate, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, errors.New("x5c entry is not a string")
		}
		der, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("x5c entry is not valid base64: %w", err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("x5c entry is not a valid certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	return certs, nil
}
