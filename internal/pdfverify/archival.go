package pdfverify

import (
	"encoding/asn1"

	"github.com/digitorus/pkcs7"

	"github.com/digitorus/svtpades/internal/core"
)

// oidRevocationInfoArchival is Adobe's adbe-revocationInfoArchival attribute
// (1.2.840.113583.1.1.8): a signer's own bundle of the CRL and OCSP
// responses it was validated against at signing time, carried alongside the
// signature so a relying party without live network access can still check
// revocation.
var oidRevocationInfoArchival = asn1.ObjectIdentifier{1, 2, 840, 113583, 1, 1, 8}

// revocationInfoArchival mirrors the RevocationInfoArchival ASN.1 SEQUENCE:
//
//	RevocationInfoArchival ::= SEQUENCE {
//	    crl          [0] EXPLICIT SEQUENCE OF CertificateList OPTIONAL,
//	    ocsp         [1] EXPLICIT SEQUENCE OF OCSPResponse OPTIONAL,
//	    otherRevInfo [2] EXPLICIT SEQUENCE OF OtherRevInfo OPTIONAL }
type revocationInfoArchival struct {
	CRL   []asn1.RawValue `asn1:"tag:0,optional,explicit"`
	OCSP  []asn1.RawValue `asn1:"tag:1,optional,explicit"`
	Other []asn1.RawValue `asn1:"tag:2,optional,explicit"`
}

// embeddedRevocationPolicy implements spec.md's carried-over ambient
// requirement that C5 note whether revocation evidence was embedded
// alongside a signature, independent of whatever the injected PathValidator
// finds live. Acrobat places the attribute among the signed attributes;
// some other implementations place it among the unsigned ones, so both sets
// are searched. A missing or unparsable attribute is not an error: most
// signatures carry no archival evidence at all, and this check is purely
// informational.
func embeddedRevocationPolicy(rawContents []byte) *core.PolicyResult {
	p7, err := pkcs7.Parse(rawContents)
	if err != nil || len(p7.Signers) == 0 {
		return nil
	}

	s := p7.Signers[0]
	attrs := make([]pkcs7.Attribute, 0, len(s.AuthenticatedAttributes)+len(s.UnauthenticatedAttributes))
	attrs = append(attrs, s.AuthenticatedAttributes...)
	attrs = append(attrs, s.UnauthenticatedAttributes...)

	for _, attr := range attrs {
		if !attr.Type.Equal(oidRevocationInfoArchival) {
			continue
		}
		var archival revocationInfoArchival
		if _, err := asn1.Unmarshal(attr.Value.Bytes, &archival); err != nil {
			continue
		}
		if len(archival.CRL) == 0 && len(archival.OCSP) == 0 {
			continue
		}
		return &core.PolicyResult{PolicyID: "revocation-info-embedded", Conclusion: core.Passed}
	}
	return nil
}
