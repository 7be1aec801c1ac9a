// Package signer produces signed credential and presentation JWS tokens,
// injecting the JWT claims the verifier core checks (iat/nbf/exp/kid/cnf/
// aud/nonce).
//
// The actual token construction mirrors the teacher's own
// pkg/jose/jwt.go MakeJWT: a jwt.SigningMethod bound to an *ecdsa.PrivateKey,
// with header fields merged over the method's defaults.
package signer

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vc-trust/vpvc/pkg/keys"
)

// DefaultPresentationValidity is the one-hour default validity window
// applied to a presentation's exp when the caller does not supply one.
const DefaultPresentationValidity = time.Hour

// ErrAlgorithmMismatch is returned when the signing key's algorithm has no
// ES256/ES384 signing method. Options carries no alg of its own: the header
// alg is always taken from the key.
var ErrAlgorithmMismatch = errors.New("signer: algorithm mismatch")

// Options configures a single signing operation.
type Options struct {
	// Kid is the key id to place in the header. Required.
	Kid string

	// IssuanceTime, if set, is used for iat. Otherwise iat defaults to now.
	IssuanceTime *time.Time

	// Nbf/Exp explicitly set the not-before/expiry claims. For
	// presentations, Exp defaults to Iat+DefaultPresentationValidity when
	// unset. For credentials, Exp/Nbf are left unset unless ValidUntil/
	// ValidFrom are provided (see below) — credentials are long-lived by
	// default.
	Nbf *time.Time
	Exp *time.Time

	// ValidFrom/ValidUntil are credential-only conveniences that translate
	// to Nbf/Exp respectively when Nbf/Exp are not explicitly set.
	ValidFrom  *time.Time
	ValidUntil *time.Time

	// Cnf, if set, is embedded as the confirmation-key claim binding a
	// holder key to a credential, e.g. map[string]any{"kid": holderKid}.
	Cnf map[string]any

	// Aud is the audience claim: a string or a []string.
	Aud any

	// Nonce is the replay-protection nonce claim.
	Nonce string
}

func (o Options) issuedAt() time.Time {
	if o.IssuanceTime != nil {
		return *o.IssuanceTime
	}
	return time.Now()
}

func signingMethod(alg keys.Algorithm) (*jwt.SigningMethodECDSA, error) {
	switch alg {
	case keys.P256SHA256:
		return jwt.SigningMethodES256, nil
	case keys.P384SHA384:
		return jwt.SigningMethodES384, nil
	default:
		return nil, fmt.Errorf("%w: unsupported key algorithm %s", ErrAlgorithmMismatch, alg)
	}
}

// SignCredential signs a credential payload. claims is the caller-supplied
// set of application claims (iss, cnf, credentialSubject, ...); JWT time
// claims and kid are injected per Options.
func SignCredential(priv *keys.PrivateKey, claims map[string]any, opts Options) (string, error) {
	body := cloneClaims(claims)
	iat := opts.issuedAt()
	body["iat"] = iat.Unix()

	nbf := opts.Nbf
	if nbf == nil && opts.ValidFrom != nil {
		nbf = opts.ValidFrom
	}
	if nbf != nil {
		body["nbf"] = nbf.Unix()
	}

	exp := opts.Exp
	if exp == nil && opts.ValidUntil != nil {
		exp = opts.ValidUntil
	}
	if exp != nil {
		body["exp"] = exp.Unix()
	}

	if opts.Cnf != nil {
		body["cnf"] = opts.Cnf
	}
	if opts.Aud != nil {
		body["aud"] = opts.Aud
	}
	if opts.Nonce != "" {
		body["nonce"] = opts.Nonce
	}

	return sign(priv, body, opts.Kid)
}

// SignPresentation signs a presentation payload. Unlike SignCredential, a
// missing Exp defaults to iat + one hour, per spec.
func SignPresentation(priv *keys.PrivateKey, claims map[string]any, opts Options) (string, error) {
	body := cloneClaims(claims)
	iat := opts.issuedAt()
	body["iat"] = iat.Unix()

	if opts.Nbf != nil {
		body["nbf"] = opts.Nbf.Unix()
	}

	exp := opts.Exp
	if exp == nil {
		defaulted := iat.Add(DefaultPresentationValidity)
		exp = &defaulted
	}
	body["exp"] = exp.Unix()

	if opts.Cnf != nil {
		body["cnf"] = opts.Cnf
	}
	if opts.Aud != nil {
		body["aud"] = opts.Aud
	}
	if opts.Nonce != "" {
		body["nonce"] = opts.Nonce
	}

	return sign(priv, body, opts.Kid)
}

func sign(priv *keys.PrivateKey, body map[string]any, kid string) (string, error) {
	if priv == nil || priv.ECDSA() == nil {
		return "", errors.New("signer: nil private key")
	}
	method, err := signingMethod(priv.Alg)
	if err != nil {
		return "", err
	}

	header := jwt.MapClaims{
		"alg": method.Alg(),
		"kid": kid,
	}
	token := jwt.NewWithClaims(method, jwt.MapClaims(body))
	maps.Copy(token.Header, header)

	signed, err := token.SignedString(priv.ECDSA())
	if err != nil {
		return "", fmt.Errorf("signer: sign: %w", err)
	}
	return signed, nil
}

func cloneClaims(claims map[string]any) map[string]any {
	out := make(map[string]any, len(claims)+6)
	maps.Copy(out, claims)
	return out
}

// GenerateNonce produces a URL-safe random nonce, falling back to a UUID if
// the system CSPRNG is unavailable. Mirrors the teacher's
// pkg/openid4vp/jwthelpers.GenerateNonce.
func GenerateNonce() string {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(nonce)
}
