// Package cms parses and cryptographically verifies the CMS SignedData
// structure carried in a PDF signature dictionary's Contents entry,
// including its PAdES ESS signing-certificate binding and CMS
// algorithm-protection attribute (spec.md section 4.3).
//
// Grounded on the teacher's verify/signature.go and verify/certificate.go
// (VerifySignature, verifyAlgorithmAndKeySize): the certificate-chain-building
// machinery in those files is intentionally not carried over here, since
// spec.md section 1 delegates path construction/trust to an externally
// injected validator. Only the CMS-level parse/verify/ESS/algorithm-protection
// logic survives, generalized into a standalone package this module's
// pdfverify component (C5) can call per signature.
package cms

import (
	"bytes"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
	"time"

	"github.com/digitorus/pkcs7"

	"github.com/digitorus/svtpades/internal/algorithm"
	"github.com/digitorus/svtpades/internal/core"
)

var (
	// ErrParse covers any failure to decode the SignedData structure or its
	// signed attributes, spec.md section 7's "cms-parse-error".
	ErrParse = errors.New("cms-parse-error")

	// ErrVerify covers a structurally sound SignedData whose cryptographic
	// verification or algorithm cross-checks fail, spec.md section 7's
	// "cms-verify-error".
	ErrVerify = errors.New("cms-verify-error")
)

var (
	oidMessageDigest      = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 4}
	oidSigningTime        = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 5}
	oidSigningCertificate = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 12}
	oidSigningCertV2      = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 47}
	oidAlgorithmProtection = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 52}
)

// Result is the CMS-level fragment of a signature validation, populated by
// Verify and merged into a core.SignatureResult by the caller (C5).
type Result struct {
	SignerCertificate         *x509.Certificate
	SignatureCertificateChain []*x509.Certificate

	SignatureValue []byte // the raw EncryptedDigest octets, used by C6/C7 for sig_hash

	IsPAdES         bool
	InvalidSignCert bool

	PublicKeyType core.PublicKeyType
	KeyLength     int
	NamedCurve    string

	SignatureAlgorithmURI      string
	CMSDigestAlg               string
	CMSSigAlg                  string
	CMSAlgoProtectionDigestAlg string
	CMSAlgoProtectionSigAlg    string

	ClaimedSigningTime *int64
}

// Verify parses contents as a DER-encoded CMS SignedData over the detached
// content signedBytes, checks the PAdES ESS binding and algorithm-protection
// attribute, and cryptographically verifies the signature. It never performs
// certificate-path validation: that is the caller's job via an externally
// injected validator, per spec.md section 1.
func Verify(contents []byte, signedBytes []byte) (*Result, error) {
	p7, err := pkcs7.Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(p7.Signers) == 0 {
		return nil, fmt.Errorf("%w: no SignerInfo present", ErrParse)
	}
	si := p7.Signers[0]

	signer := findSigner(p7.Certificates, si)
	if signer == nil {
		return nil, fmt.Errorf("%w: signer certificate not found among embedded certificates", ErrParse)
	}

	p7.Content = signedBytes

	res := &Result{
		SignerCertificate:         signer,
		SignatureCertificateChain: p7.Certificates,
		SignatureValue:            si.EncryptedDigest,
	}

	if t, err := parseSigningTime(si); err == nil {
		ms := t.UnixMilli()
		res.ClaimedSigningTime = &ms
	}

	if err := populateAlgorithms(si, res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	if err := checkAlgorithmProtection(si, res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerify, err)
	}

	if err := checkESSBinding(si, signer, res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	keyType, bits, curve, err := algorithm.KeyParameters(signer)
	if err == nil {
		res.PublicKeyType, res.KeyLength, res.NamedCurve = keyType, bits, curve
	}

	if err := p7.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerify, err)
	}

	return res, nil
}

func findSigner(certs []*x509.Certificate, si pkcs7.SignerInfo) *x509.Certificate {
	for _, c := range certs {
		if bytes.Equal(c.RawIssuer, si.IssuerAndSerialNumber.IssuerName.FullBytes) &&
			c.SerialNumber.Cmp(si.IssuerAndSerialNumber.SerialNumber) == 0 {
			return c
		}
	}
	return nil
}

func parseSigningTime(si pkcs7.SignerInfo) (time.Time, error) {
	var t time.Time
	for _, attr := range si.AuthenticatedAttributes {
		if attr.Type.Equal(oidSigningTime) {
			if _, err := asn1.Unmarshal(attr.Value.FullBytes, &t); err != nil {
				return time.Time{}, fmt.Errorf("signing-time attribute: %w", err)
			}
			return t, nil
		}
	}
	return time.Time{}, errors.New("no signing-time attribute")
}

func populateAlgorithms(si pkcs7.SignerInfo, res *Result) error {
	digestOID := si.DigestAlgorithm.Algorithm
	sigOID := si.DigestEncryptionAlgorithm.Algorithm

	if name, err := algorithm.DigestOIDName(digestOID); err == nil {
		res.CMSDigestAlg = name
	} else {
		res.CMSDigestAlg = digestOID.String()
	}

	res.CMSSigAlg = sigOID.String()

	// RSASSA-PSS's OID never names the digest by itself (RFC 4055 section
	// 3.1); it has to be read from the AlgorithmIdentifier's parameters.
	var info algorithm.Info
	var err error
	if sigOID.Equal(algorithm.OIDRSASSAPSS) {
		info, err = algorithm.LookupRSAPSS(si.DigestEncryptionAlgorithm.Parameters)
	} else {
		info, err = algorithm.LookupOID(sigOID)
	}
	if err == nil {
		res.SignatureAlgorithmURI = info.URI
	}
	return nil
}

// checkAlgorithmProtection implements spec.md section 4.3 step 4: when the
// RFC 6211 CMS algorithm-protection signed attribute is present, its stated
// digest and signature algorithms must match those the SignerInfo actually
// used.
func checkAlgorithmProtection(si pkcs7.SignerInfo, res *Result) error {
	var raw *asn1.RawValue
	for _, attr := range si.AuthenticatedAttributes {
		if attr.Type.Equal(oidAlgorithmProtection) {
			raw = &attr.Value
			break
		}
	}
	if raw == nil {
		return nil
	}

	var protection cmsAlgorithmProtection
	if _, err := asn1.Unmarshal(raw.FullBytes, &protection); err != nil {
		return fmt.Errorf("algorithm-protection attribute: %w", err)
	}

	if name, err := algorithm.DigestOIDName(protection.DigestAlgorithm.Algorithm); err == nil {
		res.CMSAlgoProtectionDigestAlg = name
	} else {
		res.CMSAlgoProtectionDigestAlg = protection.DigestAlgorithm.Algorithm.String()
	}
	res.CMSAlgoProtectionSigAlg = protection.SignatureAlgorithm.Algorithm.String()

	if !protection.DigestAlgorithm.Algorithm.Equal(si.DigestAlgorithm.Algorithm) {
		return fmt.Errorf("algorithm-protection digest mismatch: attribute claims %s, SignerInfo uses %s",
			protection.DigestAlgorithm.Algorithm, si.DigestAlgorithm.Algorithm)
	}
	if len(protection.SignatureAlgorithm.Algorithm) > 0 &&
		!protection.SignatureAlgorithm.Algorithm.Equal(si.DigestEncryptionAlgorithm.Algorithm) {
		return fmt.Errorf("algorithm-protection signature-algorithm mismatch: attribute claims %s, SignerInfo uses %s",
			protection.SignatureAlgorithm.Algorithm, si.DigestEncryptionAlgorithm.Algorithm)
	}
	return nil
}

// cmsAlgorithmProtection mirrors RFC 6211's CMSAlgorithmProtection SEQUENCE.
// The signature algorithm field is context-tagged [1] and optional, since a
// MACed (rather than signed) SignedData omits it in favor of a [2] mac field
// this module never produces or consumes.
type cmsAlgorithmProtection struct {
	DigestAlgorithm    pkixAlgorithmIdentifier
	SignatureAlgorithm pkixAlgorithmIdentifier `asn1:"optional,tag:1"`
}

type pkixAlgorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.RawValue `asn1:"optional"`
}

// checkESSBinding implements spec.md section 4.3 step 3.
func checkESSBinding(si pkcs7.SignerInfo, signer *x509.Certificate, res *Result) error {
	var raw *asn1.RawValue
	v2 := false
	for _, attr := range si.AuthenticatedAttributes {
		if attr.Type.Equal(oidSigningCertV2) {
			raw = &attr.Value
			v2 = true
			break
		}
		if attr.Type.Equal(oidSigningCertificate) {
			raw = &attr.Value
			break
		}
	}
	if raw == nil {
		res.IsPAdES = false
		res.InvalidSignCert = false
		return nil
	}

	hashAlg, storedHash, err := parseESSCertID(raw.FullBytes, v2)
	if err != nil {
		return fmt.Errorf("ESS signing-certificate attribute: %w", err)
	}

	h := hashAlg.New()
	h.Write(signer.Raw)
	computed := h.Sum(nil)

	if !bytes.Equal(computed, storedHash) {
		res.InvalidSignCert = true
		res.IsPAdES = true
		return nil
	}
	res.InvalidSignCert = false
	res.IsPAdES = true
	return nil
}
