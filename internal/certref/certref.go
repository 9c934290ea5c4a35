// Package certref implements the compact certificate reference encoding
// used by the SVT claim set's cert_ref field (spec.md section 4.2).
package certref

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/base64"

	"github.com/digitorus/svtpades/internal/core"
)

// Encode produces the cert_ref claim for a signer certificate S, the
// signature chain C as carried in the CMS structure, and the validated
// path V returned by the external path validator, following the rule in
// spec.md section 4.2:
//
//   - If V is non-empty and not a subset of C (DER byte set equality),
//     emit {type: chain, ref: [base64(der(v)) ...]} in path order.
//   - Else if len(C) < 2, emit {type: chain_hash, ref: [base64(D(der(S)))]}.
//   - Else emit {type: chain_hash, ref: [base64(D(der(S))), base64(D(concat(der(c) for c in C)))]}.
func Encode(signer *x509.Certificate, chain, validatedPath []*x509.Certificate, digest crypto.Hash) core.CertRef {
	if len(validatedPath) > 0 && !isSubsetDER(validatedPath, chain) {
		ref := make([]string, len(validatedPath))
		for i, v := range validatedPath {
			ref[i] = base64.StdEncoding.EncodeToString(v.Raw)
		}
		return core.CertRef{Type: core.CertRefChain, Ref: ref}
	}

	h := digest.New()
	h.Write(signer.Raw)
	signerHash := base64.StdEncoding.EncodeToString(h.Sum(nil))

	if len(chain) < 2 {
		return core.CertRef{Type: core.CertRefChainHash, Ref: []string{signerHash}}
	}

	h2 := digest.New()
	for _, c := range chain {
		h2.Write(c.Raw)
	}
	chainHash := base64.StdEncoding.EncodeToString(h2.Sum(nil))

	return core.CertRef{Type: core.CertRefChainHash, Ref: []string{signerHash, chainHash}}
}

// isSubsetDER reports whether every certificate in v (by DER bytes) is
// present in c, i.e. v ⊆ c under set equality on DER encodings.
func isSubsetDER(v, c []*x509.Certificate) bool {
	for _, vc := range v {
		found := false
		for _, cc := range c {
			if bytes.Equal(vc.Raw, cc.Raw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
