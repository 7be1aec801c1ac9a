package keys

import (
	"context"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/multiformats/go-multibase"
)

// ParsePrivateKeyPEM imports an ECDSA private key from PEM bytes, mirroring
// the teacher's own ParseSigningKey/CreateJWK pair in pkg/jose/jwk.go.
func ParsePrivateKeyPEM(pemBytes []byte) (*PrivateKey, error) {
	if len(pemBytes) == 0 {
		return nil, errors.New("keys: private key PEM is empty")
	}
	ecdsaKey, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("keys: parse PEM: %w", err)
	}
	return ImportPrivateKey(ecdsaKey)
}

// ExportJWKComponents re-derives the JWK member map (kty/crv/x/y) for a
// public key via lestrrat-go/jwx, matching the teacher's CreateJWK idiom.
// This is a convenience for interop with consumers of that library; the
// core's own JWK fields are populated directly in GenerateKey/ImportPrivateKey.
func ExportJWKComponents(pub *PublicKey) (map[string]string, error) {
	if pub == nil || pub.ecdsaKey == nil {
		return nil, errors.New("keys: nil public key")
	}
	key, err := jwk.New(pub.ecdsaKey)
	if err != nil {
		return nil, fmt.Errorf("keys: jwk.New: %w", err)
	}
	m, err := key.AsMap(context.Background())
	if err != nil {
		return nil, fmt.Errorf("keys: jwk.AsMap: %w", err)
	}

	out := make(map[string]string, 4)
	for k, v := range m {
		switch k {
		case "x":
			out["x"] = base64.RawURLEncoding.EncodeToString(v.([]byte))
		case "y":
			out["y"] = base64.RawURLEncoding.EncodeToString(v.([]byte))
		case "crv":
			out["crv"] = v.(jwa.EllipticCurveAlgorithm).String()
		case "kty":
			out["kty"] = v.(jwa.KeyType).String()
		}
	}
	return out, nil
}

// Multikey multicodec prefixes for ECDSA public keys, per the W3C
// Data Integrity Multikey convention (see the teacher's
// pkg/vc20/crypto/keys/keys.go, which this is adapted from).
const (
	multicodecP256PubKey uint64 = 0x1200
	multicodecP384PubKey uint64 = 0x1201
)

// ToMultikey encodes a public key in multibase base58-btc Multikey form,
// e.g. for use as the key material embedded in a did:key identifier.
func ToMultikey(pub *PublicKey) (string, error) {
	if pub == nil || pub.ecdsaKey == nil {
		return "", errors.New("keys: nil public key")
	}
	var multicodec uint64
	size := pub.Alg.coordSize()
	switch pub.Alg {
	case P256SHA256:
		multicodec = multicodecP256PubKey
	case P384SHA384:
		multicodec = multicodecP384PubKey
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, pub.Alg)
	}

	xBytes := fixedBytes(pub.ecdsaKey.X, size)
	yBytes := fixedBytes(pub.ecdsaKey.Y, size)

	prefix := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(prefix, multicodec)

	buf := make([]byte, 0, n+1+len(xBytes)+len(yBytes))
	buf = append(buf, prefix[:n]...)
	buf = append(buf, 0x04) // uncompressed point indicator
	buf = append(buf, xBytes...)
	buf = append(buf, yBytes...)

	encoded, err := multibase.Encode(multibase.Base58BTC, buf)
	if err != nil {
		return "", fmt.Errorf("keys: multibase encode: %w", err)
	}
	return encoded, nil
}

// FromMultikey decodes a multibase-encoded Multikey string back into a
// public key. Supports P-256 and P-384, uncompressed point encoding.
func FromMultikey(multikey string) (*PublicKey, error) {
	if multikey == "" {
		return nil, errors.New("keys: empty multikey")
	}
	_, decoded, err := multibase.Decode(multikey)
	if err != nil {
		return nil, fmt.Errorf("keys: multibase decode: %w", err)
	}
	if len(decoded) < 3 {
		return nil, errors.New("keys: multikey too short")
	}

	multicodec, n := binary.Uvarint(decoded)
	if n <= 0 {
		return nil, errors.New("keys: invalid multicodec varint")
	}
	rest := decoded[n:]
	if len(rest) == 0 {
		return nil, errors.New("keys: no key bytes after multicodec")
	}

	var alg Algorithm
	switch multicodec {
	case multicodecP256PubKey:
		alg = P256SHA256
	case multicodecP384PubKey:
		alg = P384SHA384
	default:
		return nil, fmt.Errorf("keys: unsupported multicodec 0x%x", multicodec)
	}
	size := alg.coordSize()

	if rest[0] != 0x04 {
		return nil, fmt.Errorf("keys: unsupported key format prefix 0x%02x (only uncompressed supported)", rest[0])
	}
	rest = rest[1:]
	if len(rest) != size*2 {
		return nil, fmt.Errorf("keys: invalid key length: got %d, want %d", len(rest), size*2)
	}

	x := new(big.Int).SetBytes(rest[:size])
	y := new(big.Int).SetBytes(rest[size:])

	curve, err := alg.curve()
	if err != nil {
		return nil, err
	}
	if !curve.IsOnCurve(x, y) {
		return nil, errors.New("keys: point is not on curve")
	}

	ecdsaPub := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	pub := &PublicKey{
		KTY:      "EC",
		CRV:      alg.crvName(),
		Alg:      alg,
		X:        base64.RawURLEncoding.EncodeToString(fixedBytes(x, size)),
		Y:        base64.RawURLEncoding.EncodeToString(fixedBytes(y, size)),
		ecdsaKey: ecdsaPub,
	}
	kid, err := Thumbprint(pub)
	if err != nil {
		return nil, err
	}
	pub.Kid = kid
	return pub, nil
}
