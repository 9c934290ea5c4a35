// Package core holds the value types shared by every validation and
// issuance component: signature results, revision records, and SVT claim
// sets. Nothing in this package performs I/O or cryptography; it exists so
// the CMS parser, the revision analyzer, the SVT matcher and the SVT issuer
// can all speak the same shapes without importing each other.
package core

import (
	"crypto/x509"
)

// Status is the outcome enumeration for a single signature validation.
type Status int

const (
	StatusSuccess Status = iota
	StatusBadFormat
	StatusSignerInvalid
	StatusInvalidSignature
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusBadFormat:
		return "error_bad_format"
	case StatusSignerInvalid:
		return "error_signer_invalid"
	case StatusInvalidSignature:
		return "error_invalid_signature"
	default:
		return "unknown"
	}
}

// PublicKeyType classifies the signer's public key algorithm family.
type PublicKeyType int

const (
	KeyTypeOther PublicKeyType = iota
	KeyTypeRSA
	KeyTypeEC
	KeyTypeEdDSA
)

func (k PublicKeyType) String() string {
	switch k {
	case KeyTypeRSA:
		return "RSA"
	case KeyTypeEC:
		return "EC"
	case KeyTypeEdDSA:
		return "EdDSA"
	default:
		return "other"
	}
}

// PolicyConclusion is the outcome of a single named policy check.
type PolicyConclusion int

const (
	Indeterminate PolicyConclusion = iota
	Passed
	Failed
)

func (c PolicyConclusion) String() string {
	switch c {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	default:
		return "indeterminate"
	}
}

// PolicyResult names one policy check and its conclusion.
type PolicyResult struct {
	PolicyID   string           `json:"pol"`
	Conclusion PolicyConclusion `json:"res"`
}

// TimeValidationType distinguishes the source of a verified time.
type TimeValidationType int

const (
	TimeTypeTSA TimeValidationType = iota
	TimeTypeSVT
)

func (t TimeValidationType) String() string {
	if t == TimeTypeSVT {
		return "svt"
	}
	return "tsa"
}

// TimeValidationResult records one independently verified point in time,
// either from an RFC 3161 timestamp or from an SVT document-timestamp
// carrier (spec.md section 4.6).
type TimeValidationResult struct {
	Issuer        string         `json:"iss"`
	Time          int64          `json:"time"` // epoch seconds
	Type          TimeValidationType `json:"type"`
	ID            string         `json:"id"`
	PolicyResults []PolicyResult `json:"val"`
}

// SigRef identifies the signature an SVT claim set is about.
type SigRef struct {
	SigHash string `json:"sig_hash"` // base64(digest(signature value octets))
	SbHash  string `json:"sb_hash"`  // base64(digest(signed bytes))
}

// CertRefType is the compact-encoding discriminant used by CertRef.
type CertRefType string

const (
	CertRefChain     CertRefType = "chain"
	CertRefChainHash CertRefType = "chain_hash"
)

// CertRef is the compact certificate reference produced by the cert
// reference encoder (spec.md section 4.2).
type CertRef struct {
	Type CertRefType `json:"type"`
	Ref  []string    `json:"ref"`
}

// ClaimSet is the SVT payload, signed as a JWS by the issuer and consumed
// by the matcher (spec.md section 3).
type ClaimSet struct {
	SigRef  SigRef                 `json:"sig_ref"`
	SigVal  []PolicyResult         `json:"sig_val"`
	TimeVal []TimeValidationResult `json:"time_val"`
	CertRef CertRef                `json:"cert_ref"`
	Ext     map[string]any         `json:"ext,omitempty"`
}

// SignatureResult is the per-signature outcome of validating a PDF
// signature, whether validation used a live CMS/path-validator check or an
// SVT match. Field names and semantics follow spec.md section 3.
type SignatureResult struct {
	Success bool
	Status  Status

	SignerCertificate          *x509.Certificate
	SignatureCertificateChain  []*x509.Certificate
	ValidatedCertificatePath   []*x509.Certificate

	CoversDocument               bool
	ExtendedByNonSignatureUpdate bool
	InvalidSignCert              bool
	IsPAdES                      bool

	PublicKeyType PublicKeyType
	KeyLength     int
	NamedCurve    string

	SignatureAlgorithmURI      string
	CMSDigestAlg               string
	CMSSigAlg                  string
	CMSAlgoProtectionDigestAlg string
	CMSAlgoProtectionSigAlg    string

	ClaimedSigningTime *int64 // epoch ms

	SignatureTimestampList []TimeValidationResult
	TimeValidationResults  []TimeValidationResult
	PolicyValidationResults []PolicyResult

	SVTClaims *ClaimSet
	SVTJWT    string

	// SignatureValue and SignedBytes are the raw material sig_ref's hashes
	// are computed over. Kept on the result so an SVT can be issued for this
	// signature later without re-deriving them from the PDF a second time
	// (spec.md section 4.7 step 1).
	SignatureValue []byte `json:"-"`
	SignedBytes    []byte `json:"-"`

	// Message carries a human-readable explanation when Success is false.
	// Not part of spec.md's data model proper, but every teacher error path
	// threads a message alongside a typed status (verify/errors.go).
	Message string
}

// DocumentStatus is the aggregate verdict produced by the result
// aggregator (spec.md section 4.8).
type DocumentStatus int

const (
	DocNoSignatures DocumentStatus = iota
	DocOK
	DocSomeInvalid
	DocNoneValid
)

func (d DocumentStatus) String() string {
	switch d {
	case DocNoSignatures:
		return "no-signatures"
	case DocOK:
		return "ok"
	case DocSomeInvalid:
		return "some-invalid"
	case DocNoneValid:
		return "none-valid"
	default:
		return "unknown"
	}
}

// DocumentResult is the document-level verdict produced by Aggregate.
type DocumentResult struct {
	Status          DocumentStatus
	SignatureCount  int
	ValidCount      int
	Results         []*SignatureResult
}
