package cms

import (
	"crypto"
	"encoding/asn1"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// parseESSCertID parses the value of a SigningCertificate (v1) or
// SigningCertificateV2 attribute and returns the hash algorithm and
// certificate hash of its first ESSCertID(v2) entry, per spec.md section
// 4.3 step 3.
//
// ESSCertID  ::= SEQUENCE { certHash Hash, issuerSerial IssuerSerial OPTIONAL }
// ESSCertIDv2 ::= SEQUENCE {
//     hashAlgorithm AlgorithmIdentifier DEFAULT { algorithm sha-256 },
//     certHash Hash, issuerSerial IssuerSerial OPTIONAL }
// SigningCertificate(V2) ::= SEQUENCE { certs SEQUENCE OF ESSCertID(v2), policies ... OPTIONAL }
//
// Mirrors, in reverse, the ESS attribute construction the teacher performs
// in sign/pdfsignature.go via the same cryptobyte builder API. ESSCertIDv2's
// hashAlgorithm is DEFAULT-omittable, so implementations must inspect the
// first element of the inner SEQUENCE: if it is itself a SEQUENCE, it is the
// AlgorithmIdentifier; if it is an OCTET STRING, the algorithm was omitted
// and defaults to SHA-256.
func parseESSCertID(value []byte, v2 bool) (crypto.Hash, []byte, error) {
	outer := cryptobyte.String(value)
	var signingCert cryptobyte.String
	if !outer.ReadASN1(&signingCert, cryptobyte_asn1.SEQUENCE) {
		return 0, nil, fmt.Errorf("malformed SigningCertificate: not a SEQUENCE")
	}

	var certs cryptobyte.String
	if !signingCert.ReadASN1(&certs, cryptobyte_asn1.SEQUENCE) {
		return 0, nil, fmt.Errorf("malformed SigningCertificate.certs: not a SEQUENCE OF")
	}

	var essCertID cryptobyte.String
	if !certs.ReadASN1(&essCertID, cryptobyte_asn1.SEQUENCE) {
		return 0, nil, fmt.Errorf("malformed ESSCertID: not a SEQUENCE, or certs empty")
	}

	if !v2 {
		// ESSCertID always uses SHA-1, no optional algorithm identifier.
		var certHash cryptobyte.String
		if !essCertID.ReadASN1(&certHash, cryptobyte_asn1.OCTET_STRING) {
			return 0, nil, fmt.Errorf("malformed ESSCertID.certHash")
		}
		return crypto.SHA1, []byte(certHash), nil
	}

	// ESSCertIDv2: detect whether the first element is the optional
	// AlgorithmIdentifier (a SEQUENCE) or the certHash itself (an OCTET
	// STRING, meaning the SHA-256 default applies).
	hashAlg := crypto.SHA256
	if essCertID.PeekASN1Tag(cryptobyte_asn1.SEQUENCE) {
		var algID cryptobyte.String
		if !essCertID.ReadASN1(&algID, cryptobyte_asn1.SEQUENCE) {
			return 0, nil, fmt.Errorf("malformed ESSCertIDv2.hashAlgorithm")
		}
		var oid asn1.ObjectIdentifier
		if !algID.ReadASN1ObjectIdentifier(&oid) {
			return 0, nil, fmt.Errorf("malformed ESSCertIDv2.hashAlgorithm.algorithm")
		}
		alg, err := digestOIDToHash(oid)
		if err != nil {
			return 0, nil, err
		}
		hashAlg = alg
	}

	var certHash cryptobyte.String
	if !essCertID.ReadASN1(&certHash, cryptobyte_asn1.OCTET_STRING) {
		return 0, nil, fmt.Errorf("malformed ESSCertIDv2.certHash")
	}

	return hashAlg, []byte(certHash), nil
}

func digestOIDToHash(oid asn1.ObjectIdentifier) (crypto.Hash, error) {
	switch {
	case oid.Equal(asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}):
		return crypto.SHA1, nil
	case oid.Equal(asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}):
		return crypto.SHA256, nil
	case oid.Equal(asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}):
		return crypto.SHA384, nil
	case oid.Equal(asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}):
		return crypto.SHA512, nil
	default:
		return 0, fmt.Errorf("unsupported ESSCertIDv2 hash algorithm OID %s", oid)
	}
}
