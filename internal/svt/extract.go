package svt

import (
	"encoding/asn1"

	"github.com/digitorus/pkcs7"
)

// oidSVTAttribute names the unsigned CMS attribute a document-timestamp's
// own SignerInfo carries an SVT JWS under. There is no public PKCS#9
// registration for an SVT attribute, so this uses RFC 5612's private
// enterprise number 32473 — reserved by IANA specifically for use in
// documentation and non-production examples like this one — rather than
// colliding with a real registered id-aa attribute such as
// id-aa-signingCertificateV2 (internal/cms.oidSigningCertV2).
var oidSVTAttribute = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 32473, 1, 1}

// ExtractTokens implements spec.md section 4.6's SVT discovery step: given
// the raw CMS SignedData of a document-timestamp signature (SubFilter
// ETSI.RFC3161), returns every SVT JWS carried as an unsigned attribute of
// its SignerInfo. A timestamp with no such attribute yields an empty,
// non-error result: most document timestamps carry no SVT at all.
func ExtractTokens(rawContents []byte) ([]string, error) {
	p7, err := pkcs7.Parse(rawContents)
	if err != nil {
		return nil, err
	}
	var tokens []string
	for _, s := range p7.Signers {
		for _, attr := range s.UnauthenticatedAttributes {
			if !attr.Type.Equal(oidSVTAttribute) {
				continue
			}
			tokens = append(tokens, string(attr.Value.Bytes))
		}
	}
	return tokens, nil
}
