// Package algorithm is the process-wide table mapping between the three
// algorithm identifier spaces this module has to reconcile: ASN.1 OIDs (as
// carried in CMS SignedData and X.509 certificates), XAdES/XMLDSIG-style
// canonical URIs (as recorded in a signature_algorithm_uri claim), and JWS
// "alg" identifiers (as used by the SVT JWS envelope). It also resolves EC
// curve OIDs to a name and key length.
//
// The table is built once at package init, matching spec.md section 5:
// "Algorithm registries are process-wide immutable tables initialized once
// at startup; registration extensions ... must happen before the first
// validation call." Register is exported for that pre-startup extension
// point; it is not safe to call concurrently with lookups.
package algorithm

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"fmt"

	"github.com/digitorus/svtpades/internal/core"
)

// ErrUnsupported is returned by every lookup that misses the table, per
// spec.md section 7's "unsupported-algorithm" error kind.
var ErrUnsupported = fmt.Errorf("unsupported-algorithm")

// OIDRSASSAPSS is RSASSA-PSS's generic signature algorithm OID (RFC 4055
// section 3.1). Unlike PKCS#1 v1.5's per-digest OIDs, this single OID
// covers PS256/PS384/PS512 alike; the digest lives in the
// AlgorithmIdentifier's parameters. See LookupRSAPSS.
var OIDRSASSAPSS = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}

// Info describes one signature algorithm across all three identifier
// spaces.
type Info struct {
	OID     asn1.ObjectIdentifier
	KeyType core.PublicKeyType
	Digest  crypto.Hash
	URI     string
	JWSAlg  string
}

// CurveInfo describes one elliptic curve.
type CurveInfo struct {
	Name      string
	KeyLength int
}

var (
	byOID    = map[string]Info{}
	byURI    = map[string]Info{}
	byJWSAlg = map[string]Info{}
	byCurve  = map[string]CurveInfo{}
)

func oidKey(oid asn1.ObjectIdentifier) string { return oid.String() }

// Register adds or replaces an algorithm entry across all three lookup
// tables. Must be called before the first Validate/Issue call in a
// process, per spec.md section 5.
func Register(info Info) {
	byOID[oidKey(info.OID)] = info
	byURI[info.URI] = info
	byJWSAlg[info.JWSAlg] = info
}

// registerVariant adds an Info's URI and JWS-alg entries without touching
// byOID, for algorithms that share an OID already claimed by a prior
// Register call (RSASSA-PSS's three digest variants all carry the same
// OID; the digest lives in the AlgorithmIdentifier's parameters instead).
func registerVariant(info Info) {
	byURI[info.URI] = info
	byJWSAlg[info.JWSAlg] = info
}

// RegisterCurve adds or replaces a curve entry.
func RegisterCurve(oid asn1.ObjectIdentifier, info CurveInfo) {
	byCurve[oidKey(oid)] = info
}

func init() {
	rsaSHA := func(oid asn1.ObjectIdentifier, digest crypto.Hash, uri, jwsAlg string) Info {
		return Info{OID: oid, KeyType: core.KeyTypeRSA, Digest: digest, URI: uri, JWSAlg: jwsAlg}
	}
	ecSHA := func(oid asn1.ObjectIdentifier, digest crypto.Hash, uri, jwsAlg string) Info {
		return Info{OID: oid, KeyType: core.KeyTypeEC, Digest: digest, URI: uri, JWSAlg: jwsAlg}
	}

	// RSA PKCS#1 v1.5, OIDs from RFC 4055 / PKCS#1.
	Register(rsaSHA(asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}, crypto.SHA256,
		"http://www.w3.org/2001/04/xmldsig-more#rsa-sha256", "RS256"))
	Register(rsaSHA(asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}, crypto.SHA384,
		"http://www.w3.org/2001/04/xmldsig-more#rsa-sha384", "RS384"))
	Register(rsaSHA(asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}, crypto.SHA512,
		"http://www.w3.org/2001/04/xmldsig-more#rsa-sha512", "RS512"))

	// RSASSA-PSS, generic OID (RFC 4055); the actual digest is carried in
	// the AlgorithmIdentifier's parameters, not the OID, so all three
	// variants share OIDRSASSAPSS. Only PS256 goes through Register, so
	// byOID resolves the shared OID to PS256 for callers that don't care
	// which digest (LookupOID); callers that need the true digest parse
	// the parameters via LookupRSAPSS instead. byURI and byJWSAlg get all
	// three since those keys are already per-digest.
	Register(rsaSHA(OIDRSASSAPSS, crypto.SHA256,
		"http://www.w3.org/2007/05/xmldsig-more#sha256-rsa-MGF1", "PS256"))
	registerVariant(rsaSHA(OIDRSASSAPSS, crypto.SHA384,
		"http://www.w3.org/2007/05/xmldsig-more#sha384-rsa-MGF1", "PS384"))
	registerVariant(rsaSHA(OIDRSASSAPSS, crypto.SHA512,
		"http://www.w3.org/2007/05/xmldsig-more#sha512-rsa-MGF1", "PS512"))

	// ECDSA, OIDs from RFC 5758.
	Register(ecSHA(asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}, crypto.SHA256,
		"http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha256", "ES256"))
	Register(ecSHA(asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}, crypto.SHA384,
		"http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha384", "ES384"))
	Register(ecSHA(asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}, crypto.SHA512,
		"http://www.w3.org/2001/04/xmldsig-more#ecdsa-sha512", "ES512"))

	// Ed25519, OID from RFC 8410.
	Register(Info{
		OID: asn1.ObjectIdentifier{1, 3, 101, 112}, KeyType: core.KeyTypeEdDSA, Digest: crypto.SHA512,
		URI: "http://www.w3.org/2021/04/xmldsig-more#eddsa-ed25519", JWSAlg: "EdDSA",
	})

	// Curve OIDs (SEC 2 / RFC 5480).
	RegisterCurve(asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}, CurveInfo{Name: "P-256", KeyLength: 256})
	RegisterCurve(asn1.ObjectIdentifier{1, 3, 132, 0, 34}, CurveInfo{Name: "P-384", KeyLength: 384})
	RegisterCurve(asn1.ObjectIdentifier{1, 3, 132, 0, 35}, CurveInfo{Name: "P-521", KeyLength: 521})
}

// LookupOID resolves a CMS/X.509 signature algorithm OID.
func LookupOID(oid asn1.ObjectIdentifier) (Info, error) {
	if info, ok := byOID[oidKey(oid)]; ok {
		return info, nil
	}
	return Info{}, fmt.Errorf("%w: OID %s", ErrUnsupported, oid.String())
}

// LookupURI resolves a canonical signature-algorithm URI to its JWS "alg".
func LookupURI(uri string) (Info, error) {
	if info, ok := byURI[uri]; ok {
		return info, nil
	}
	return Info{}, fmt.Errorf("%w: URI %s", ErrUnsupported, uri)
}

// LookupJWSAlg resolves a JWS "alg" back to the shared Info record,
// including the digest algorithm it implies for SVT claim-set hashing
// (spec.md section 6: "The digest algorithm used for all hashes inside the
// claim set is implied by the JWS alg via the algorithm registry").
func LookupJWSAlg(alg string) (Info, error) {
	if info, ok := byJWSAlg[alg]; ok {
		return info, nil
	}
	return Info{}, fmt.Errorf("%w: JWS alg %s", ErrUnsupported, alg)
}

// LookupCurve resolves an EC named-curve OID.
func LookupCurve(oid asn1.ObjectIdentifier) (CurveInfo, error) {
	if info, ok := byCurve[oidKey(oid)]; ok {
		return info, nil
	}
	return CurveInfo{}, fmt.Errorf("%w: curve OID %s", ErrUnsupported, oid.String())
}

// KeyParameters reports the public-key type, bit length and (for EC keys)
// named curve for a certificate's public key, for the reporting fields in
// spec.md section 3 ("public_key_type", "key_length", "named_curve").
// Adapted from the teacher's sign/keysize.go (PublicKeySignatureSize),
// generalized here to describe the key itself rather than the maximum
// signature size it can produce.
func KeyParameters(cert *x509.Certificate) (keyType core.PublicKeyType, bits int, curve string, err error) {
	switch pub := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return core.KeyTypeRSA, pub.N.BitLen(), "", nil
	case *ecdsa.PublicKey:
		curveOID, ok := curveOIDForName(pub.Curve.Params().Name)
		if !ok {
			return core.KeyTypeEC, pub.Params().BitSize, pub.Curve.Params().Name, nil
		}
		info, lookupErr := LookupCurve(curveOID)
		if lookupErr != nil {
			return core.KeyTypeEC, pub.Params().BitSize, pub.Curve.Params().Name, nil
		}
		return core.KeyTypeEC, info.KeyLength, info.Name, nil
	case ed25519.PublicKey:
		return core.KeyTypeEdDSA, 256, "", nil
	default:
		return core.KeyTypeOther, 0, "", fmt.Errorf("%w: unrecognized public key type %T", ErrUnsupported, pub)
	}
}

var digestOIDNames = map[string]string{
	"1.3.14.3.2.26":               "sha1",
	"2.16.840.1.101.3.4.2.1":      "sha256",
	"2.16.840.1.101.3.4.2.2":      "sha384",
	"2.16.840.1.101.3.4.2.3":      "sha512",
}

// DigestOIDName returns a short name for a message-digest OID, used to
// populate the cms_digest_alg reporting field.
func DigestOIDName(oid asn1.ObjectIdentifier) (string, error) {
	if name, ok := digestOIDNames[oidKey(oid)]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: digest OID %s", ErrUnsupported, oid.String())
}

var pssDigestOIDs = map[string]crypto.Hash{
	"1.3.14.3.2.26":          crypto.SHA1,
	"2.16.840.1.101.3.4.2.1": crypto.SHA256,
	"2.16.840.1.101.3.4.2.2": crypto.SHA384,
	"2.16.840.1.101.3.4.2.3": crypto.SHA512,
}

// pssAlgorithmIdentifier mirrors pkix.AlgorithmIdentifier's shape, used to
// decode RSASSA-PSS-params' hashAlgorithm field; its own parameters (e.g.
// MGF1's inner hash) aren't needed here and are left unparsed.
type pssAlgorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.RawValue `asn1:"optional"`
}

// rsaPSSParams is RFC 4055 section 3.1's RSASSA-PSS-params, trimmed to the
// hashAlgorithm field: maskGenAlgorithm, saltLength and trailerField all
// follow the hash in the profiles this module accepts, so they're skipped.
//
//	RSASSA-PSS-params ::= SEQUENCE {
//	  hashAlgorithm [0] HashAlgorithm DEFAULT sha1Identifier, ... }
type rsaPSSParams struct {
	Hash pssAlgorithmIdentifier `asn1:"optional,explicit,tag:0"`
}

// LookupRSAPSS resolves an RSASSA-PSS AlgorithmIdentifier's parameters to
// the matching PS256/PS384/PS512 Info. OIDRSASSAPSS alone never identifies
// the digest; RFC 4055 carries it in the parameters' hashAlgorithm field
// instead. Parameters that omit the field, or omit the parameters
// entirely, resolve to PS256: RFC 4055 defaults an absent hashAlgorithm to
// SHA-1, but PAdES signers that omit it in practice are overwhelmingly
// SHA-256.
func LookupRSAPSS(params asn1.RawValue) (Info, error) {
	digest := crypto.SHA256
	if len(params.FullBytes) > 0 {
		var p rsaPSSParams
		if _, err := asn1.Unmarshal(params.FullBytes, &p); err == nil && len(p.Hash.Algorithm) > 0 {
			if h, ok := pssDigestOIDs[oidKey(p.Hash.Algorithm)]; ok {
				digest = h
			}
		}
	}
	switch digest {
	case crypto.SHA384:
		return LookupJWSAlg("PS384")
	case crypto.SHA512:
		return LookupJWSAlg("PS512")
	default:
		return LookupJWSAlg("PS256")
	}
}

func curveOIDForName(name string) (asn1.ObjectIdentifier, bool) {
	switch name {
	case "P-256":
		return asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7}, true
	case "P-384":
		return asn1.ObjectIdentifier{1, 3, 132, 0, 34}, true
	case "P-521":
		return asn1.ObjectIdentifier{1, 3, 132, 0, 35}, true
	default:
		return nil, false
	}
}
