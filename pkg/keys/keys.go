// Package keys implements the ECDSA P-256/P-384 key primitives VPVC signs
// and verifies with: generation, public export, RFC 7638 thumbprinting, and
// raw (IEEE-P1363 concatenated r||s) sign/verify.
package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm enumerates the two signature algorithms VPVC supports.
type Algorithm string

const (
	P256SHA256 Algorithm = "ES256"
	P384SHA384 Algorithm = "ES384"
)

var (
	ErrUnsupportedAlgorithm = errors.New("keys: unsupported algorithm")
	ErrKeyAlgorithmMismatch = errors.New("keys: key does not match declared algorithm")
)

func (a Algorithm) curve() (elliptic.Curve, error) {
	switch a {
	case P256SHA256:
		return elliptic.P256(), nil
	case P384SHA384:
		return elliptic.P384(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, a)
	}
}

func (a Algorithm) crvName() string {
	switch a {
	case P256SHA256:
		return "P-256"
	case P384SHA384:
		return "P-384"
	default:
		return ""
	}
}

func (a Algorithm) coordSize() int {
	switch a {
	case P256SHA256:
		return 32
	case P384SHA384:
		return 48
	default:
		return 0
	}
}

func (a Algorithm) signingMethod() (*jwt.SigningMethodECDSA, error) {
	switch a {
	case P256SHA256:
		return jwt.SigningMethodES256, nil
	case P384SHA384:
		return jwt.SigningMethodES384, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, a)
	}
}

func algorithmFromCurveName(name string) (Algorithm, error) {
	switch name {
	case "P-256":
		return P256SHA256, nil
	case "P-384":
		return P384SHA384, nil
	default:
		return "", fmt.Errorf("%w: curve %s", ErrUnsupportedAlgorithm, name)
	}
}

// AlgorithmFromCurveName maps a JWK "crv" value (e.g. "P-256") to its
// Algorithm. Exported for resolver implementations that decode a curve name
// out of embedded key material (did:jwk and similar).
func AlgorithmFromCurveName(name string) (Algorithm, error) {
	return algorithmFromCurveName(name)
}

// PublicKey is a JWK-shaped ECDSA public key record.
type PublicKey struct {
	KTY string    `json:"kty"`
	CRV string    `json:"crv"`
	Alg Algorithm `json:"alg"`
	Kid string    `json:"kid"`
	X   string    `json:"x"`
	Y   string    `json:"y"`

	ecdsaKey *ecdsa.PublicKey
}

// PrivateKey is a JWK-shaped ECDSA private key record; it embeds the public
// components and additionally carries D.
type PrivateKey struct {
	PublicKey
	D string `json:"d"`

	ecdsaKey *ecdsa.PrivateKey
}

// GenerateKey produces a fresh ECDSA private key for the given algorithm and
// sets Kid to the RFC 7638 thumbprint over {crv, kty, x, y}.
func GenerateKey(alg Algorithm) (*PrivateKey, error) {
	curve, err := alg.curve()
	if err != nil {
		return nil, err
	}
	ecdsaKey, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keys: generate: %w", err)
	}
	return newPrivateKey(alg, ecdsaKey)
}

// ImportPrivateKey wraps a raw *ecdsa.PrivateKey, inferring the algorithm
// from the curve and computing its thumbprint-derived Kid.
func ImportPrivateKey(ecdsaKey *ecdsa.PrivateKey) (*PrivateKey, error) {
	if ecdsaKey == nil {
		return nil, errors.New("keys: nil private key")
	}
	alg, err := algorithmFromCurveName(ecdsaKey.Curve.Params().Name)
	if err != nil {
		return nil, err
	}
	return newPrivateKey(alg, ecdsaKey)
}

func newPrivateKey(alg Algorithm, ecdsaKey *ecdsa.PrivateKey) (*PrivateKey, error) {
	size := alg.coordSize()
	pub := PublicKey{
		KTY:      "EC",
		CRV:      alg.crvName(),
		Alg:      alg,
		X:        base64.RawURLEncoding.EncodeToString(fixedBytes(ecdsaKey.X, size)),
		Y:        base64.RawURLEncoding.EncodeToString(fixedBytes(ecdsaKey.Y, size)),
		ecdsaKey: &ecdsaKey.PublicKey,
	}
	kid, err := Thumbprint(&pub)
	if err != nil {
		return nil, err
	}
	pub.Kid = kid

	priv := &PrivateKey{
		PublicKey: pub,
		D:         base64.RawURLEncoding.EncodeToString(fixedBytes(ecdsaKey.D, size)),
		ecdsaKey:  ecdsaKey,
	}
	return priv, nil
}

// ExportPublic produces the corresponding public key, preserving Kid.
func (p *PrivateKey) ExportPublic() *PublicKey {
	pub := p.PublicKey
	return &pub
}

// ECDSA returns the underlying *ecdsa.PublicKey.
func (p *PublicKey) ECDSA() *ecdsa.PublicKey {
	return p.ecdsaKey
}

// ECDSA returns the underlying *ecdsa.PrivateKey.
func (p *PrivateKey) ECDSA() *ecdsa.PrivateKey {
	return p.ecdsaKey
}

// thumbprintMembers holds exactly the RFC 7638-required members in their
// required lexicographic order (crv, kty, x, y) so that encoding/json's
// field-order-preserving marshaling produces the canonical form directly.
type thumbprintMembers struct {
	Crv string `json:"crv"`
	Kty string `json:"kty"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// Thumbprint computes the canonical RFC 7638 thumbprint of a public key:
// SHA-256 over the compact JSON serialization of {crv, kty, x, y} in that
// member order, base64url-encoded without padding.
func Thumbprint(pub *PublicKey) (string, error) {
	if pub == nil {
		return "", errors.New("keys: nil public key")
	}
	members := thumbprintMembers{Crv: pub.CRV, Kty: pub.KTY, X: pub.X, Y: pub.Y}
	canonical, err := json.Marshal(members)
	if err != nil {
		return "", fmt.Errorf("keys: thumbprint marshal: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

func fixedBytes(n *big.Int, size int) []byte {
	b := n.Bytes()
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// Signer produces raw ECDSA signatures in IEEE-P1363 concatenated (r||s)
// form, as required for JWS ES256/ES384.
type Signer struct {
	priv *PrivateKey
}

// NewSigner binds a signer to a private key.
func NewSigner(priv *PrivateKey) (*Signer, error) {
	if priv == nil || priv.ecdsaKey == nil {
		return nil, errors.New("keys: nil private key")
	}
	return &Signer{priv: priv}, nil
}

// Sign returns the raw signature over data using the key's algorithm.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	method, err := s.priv.Alg.signingMethod()
	if err != nil {
		return nil, err
	}
	sig, err := method.Sign(string(data), s.priv.ecdsaKey)
	if err != nil {
		return nil, fmt.Errorf("keys: sign: %w", err)
	}
	return sig, nil
}

// Algorithm returns the algorithm this signer signs with.
func (s *Signer) Algorithm() Algorithm {
	return s.priv.Alg
}

// Verifier verifies raw ECDSA IEEE-P1363 signatures against a public key.
type Verifier struct {
	pub *PublicKey
}

// NewVerifier binds a verifier to a public key.
func NewVerifier(pub *PublicKey) (*Verifier, error) {
	if pub == nil || pub.ecdsaKey == nil {
		return nil, errors.New("keys: nil public key")
	}
	return &Verifier{pub: pub}, nil
}

// Verify reports whether sig is a valid signature over data. It never
// returns an error for a bad signature — only a false result — but does
// surface an error if the declared algorithm is unsupported or the header
// algorithm does not match the key's own algorithm, per spec.md §8's
// "algorithm binding" property (mismatches must never silently succeed).
func (v *Verifier) Verify(headerAlg string, data, sig []byte) (bool, error) {
	if Algorithm(headerAlg) != v.pub.Alg {
		return false, fmt.Errorf("%w: header alg %s, key alg %s", ErrKeyAlgorithmMismatch, headerAlg, v.pub.Alg)
	}
	method, err := v.pub.Alg.signingMethod()
	if err != nil {
		return false, err
	}
	if err := method.Verify(string(data), sig, v.pub.ecdsaKey); err != nil {
		return false, nil
	}
	return true, nil
}

// Algorithm returns the algorithm this verifier checks against.
func (v *Verifier) Algorithm() Algorithm {
	return v.pub.Alg
}

// NewPublicKeyFromCoordinates reconstructs a public key from base64url
// (unpadded) encoded x/y coordinates, computing its thumbprint-derived Kid.
// Used by resolver implementations that decode embedded JWK coordinates
// (did:jwk and similar) rather than a Multikey blob.
func NewPublicKeyFromCoordinates(alg Algorithm, xB64, yB64 string) (*PublicKey, error) {
	curve, err := alg.curve()
	if err != nil {
		return nil, err
	}
	size := alg.coordSize()

	xBytes, err := base64.RawURLEncoding.DecodeString(xB64)
	if err != nil {
		return nil, fmt.Errorf("keys: decode x: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(yB64)
	if err != nil {
		return nil, fmt.Errorf("keys: decode y: %w", err)
	}

	x := new(big.Int).SetBytes(xBytes)
	y := new(big.Int).SetBytes(yBytes)
	if !curve.IsOnCurve(x, y) {
		return nil, errors.New("keys: point is not on curve")
	}

	pub := &PublicKey{
		KTY:      "EC",
		CRV:      alg.crvName(),
		Alg:      alg,
		X:        base64.RawURLEncoding.EncodeToString(fixedBytes(x, size)),
		Y:        base64.RawURLEncoding.EncodeToString(fixedBytes(y, size)),
		ecdsaKey: &ecdsa.PublicKey{Curve: curve, X: x, Y: y},
	}
	kid, err := Thumbprint(pub)
	if err != nil {
		return nil, err
	}
	pub.Kid = kid
	return pub, nil
}
