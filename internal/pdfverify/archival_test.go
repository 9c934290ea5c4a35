package pdfverify

import (
	"encoding/asn1"
	"testing"

	"github.com/digitorus/pkcs7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/svtpades/internal/core"
	"github.com/digitorus/svtpades/internal/testpki"
)

func signedContentsWithArchival(t *testing.T, archival *revocationInfoArchival) []byte {
	t.Helper()
	pki := testpki.NewTestPKIWithConfig(t, testpki.TestPKIConfig{Profile: testpki.ECDSA_P256, IntermediateCAs: 1})
	pki.StartCRLServer()
	t.Cleanup(pki.Close)
	signer, cert := pki.IssueLeaf("archival-subject")

	cfg := pkcs7.SignerInfoConfig{}
	if archival != nil {
		cfg.ExtraSignedAttributes = []pkcs7.Attribute{
			{Type: oidRevocationInfoArchival, Value: *archival},
		}
	}

	sd, err := pkcs7.NewSignedData([]byte("archival fixture content"))
	require.NoError(t, err)
	require.NoError(t, sd.AddSignerChain(cert, signer, nil, cfg))
	sd.Detach()
	der, err := sd.Finish()
	require.NoError(t, err)
	return der
}

func TestEmbeddedRevocationPolicyReportsEmbeddedEvidence(t *testing.T) {
	der := signedContentsWithArchival(t, &revocationInfoArchival{
		CRL: []asn1.RawValue{{FullBytes: []byte{0x30, 0x03, 0x02, 0x01, 0x01}}},
	})

	pr := embeddedRevocationPolicy(der)
	require.NotNil(t, pr)
	assert.Equal(t, "revocation-info-embedded", pr.PolicyID)
	assert.Equal(t, core.Passed, pr.Conclusion)
}

func TestEmbeddedRevocationPolicyNilWithoutAttribute(t *testing.T) {
	der := signedContentsWithArchival(t, nil)
	assert.Nil(t, embeddedRevocationPolicy(der))
}

func TestEmbeddedRevocationPolicyNilOnGarbage(t *testing.T) {
	assert.Nil(t, embeddedRevocationPolicy([]byte("not cms")))
}
