package testpki

import (
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"testing"

	"github.com/digitorus/pkcs7"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var digestOIDs = map[crypto.Hash]asn1.ObjectIdentifier{
	crypto.SHA1:   {1, 3, 14, 3, 2, 26},
	crypto.SHA256: {2, 16, 840, 1, 101, 3, 4, 2, 1},
	crypto.SHA384: {2, 16, 840, 1, 101, 3, 4, 2, 2},
	crypto.SHA512: {2, 16, 840, 1, 101, 3, 4, 2, 3},
}

var (
	oidSigningCertificate  = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 12}
	oidSigningCertV2       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 2, 47}
	oidAlgorithmProtection = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 52}
)

// CMSFixture bundles the inputs for building a detached CMS SignedData
// fixture, mirroring the teacher's own signature-construction path
// (sign/pdfsignature.go's createSigningCertificateAttribute/createSignature)
// closely enough to exercise the same wire shape a real PDF signature
// dictionary carries.
type CMSFixture struct {
	Signer      crypto.Signer
	Certificate *x509.Certificate
	Chain       []*x509.Certificate // intermediates/root, does not include Certificate
	Content     []byte
	Digest      crypto.Hash

	// TamperESSHash corrupts the stored certificate hash inside the ESS
	// attribute, for exercising the invalid_sign_cert path.
	TamperESSHash bool

	// OmitESS skips the ESS signing-certificate attribute entirely, for
	// exercising the is_pades=false path.
	OmitESS bool
}

// SignCMS builds and returns the DER-encoded, detached CMS SignedData.
func (f CMSFixture) SignCMS(t *testing.T) []byte {
	t.Helper()

	signedData, err := pkcs7.NewSignedData(f.Content)
	if err != nil {
		t.Fatalf("pkcs7.NewSignedData: %v", err)
	}
	signedData.SetDigestAlgorithm(digestOIDs[f.Digest])

	var extra []pkcs7.Attribute
	if !f.OmitESS {
		essAttr, err := f.essAttribute()
		if err != nil {
			t.Fatalf("build ESS attribute: %v", err)
		}
		extra = append(extra, *essAttr)
	}

	config := pkcs7.SignerInfoConfig{ExtraSignedAttributes: extra}
	if err := signedData.AddSignerChain(f.Certificate, f.Signer, f.Chain, config); err != nil {
		t.Fatalf("AddSignerChain: %v", err)
	}
	signedData.Detach()

	der, err := signedData.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return der
}

func (f CMSFixture) essAttribute() (*pkcs7.Attribute, error) {
	hash := f.Digest.New()
	hash.Write(f.Certificate.Raw)
	sum := hash.Sum(nil)
	if f.TamperESSHash {
		sum[0] ^= 0xFF
	}

	v2 := f.Digest != crypto.SHA1

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // SigningCertificate(V2)
		b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // certs
			b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) { // ESSCertID(v2)
				if v2 && f.Digest != crypto.SHA256 { // SHA-256 is the DEFAULT, omit it
					b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
						b.AddASN1ObjectIdentifier(digestOIDs[f.Digest])
					})
				}
				b.AddASN1OctetString(sum)
			})
		})
	})

	value, err := b.Bytes()
	if err != nil {
		return nil, err
	}

	attrType := oidSigningCertificate
	if v2 {
		attrType = oidSigningCertV2
	}
	return &pkcs7.Attribute{
		Type:  attrType,
		Value: asn1.RawValue{FullBytes: value},
	}, nil
}
