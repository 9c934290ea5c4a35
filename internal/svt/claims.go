// Package svt implements the Signature Validation Token: matching an
// already-embedded SVT JWS against the content signatures it covers
// (spec.md section 4.6), and issuing a fresh one from a set of validation
// results (spec.md section 4.7).
//
// Grounded on the teacher's overall typed-result style (verify/errors.go)
// and on the pack's confirmed golang-jwt/jwt/v5 usage
// (orange-dot-attenditev2/internal/shared/auth/middleware.go): a claims
// struct embeds jwt.RegisteredClaims for the standard iss/iat/jti envelope,
// and jwt.ParseWithClaims/NewWithClaims drive parse and sign.
package svt

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/digitorus/svtpades/internal/core"
)

// Payload is the JWS claim set produced by the issuer and consumed by the
// matcher: the standard registered-claims envelope (iss, iat, jti) wrapping
// the list of per-signature claim sets defined in spec.md section 3. A
// single SVT can cover more than one PDF signature, so Sig is a list.
type Payload struct {
	jwt.RegisteredClaims
	Sig []core.ClaimSet `json:"sig"`
}
