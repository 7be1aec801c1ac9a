// Package jwscore provides base64url encoding and compact JWS parsing.
//
// It intentionally does not depend on any JOSE library: the only contract
// callers need is "split three segments, decode two of them as JSON, keep
// the original segment text around for signature verification."
package jwscore

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Errors returned while parsing a compact JWS.
var (
	ErrMalformedToken  = errors.New("jwscore: malformed token")
	ErrInvalidHeader   = errors.New("jwscore: invalid header")
	ErrInvalidPayload  = errors.New("jwscore: invalid payload")
)

// EncodeSegment base64url-encodes (no padding) an arbitrary byte sequence.
func EncodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeSegment base64url-decodes (no padding) a segment.
func DecodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// Header is the minimal set of protected-header fields the core inspects.
// Unknown fields are preserved in Raw for callers that need them.
type Header struct {
	Alg string
	Kid string
	Typ string
	Raw map[string]any
}

// Token is a parsed (but not yet cryptographically verified) compact JWS.
type Token struct {
	// HeaderSegment and PayloadSegment are the original, as-transmitted
	// base64url text of the first two segments. The signature covers
	// HeaderSegment + "." + PayloadSegment exactly as received.
	HeaderSegment  string
	PayloadSegment string
	SignatureSegment string

	Header  Header
	Payload map[string]any

	// Signature is the decoded raw signature bytes.
	Signature []byte
}

// SigningInput returns the ASCII byte sequence that was signed.
func (t *Token) SigningInput() []byte {
	return []byte(t.HeaderSegment + "." + t.PayloadSegment)
}

// Parse splits a compact JWS into its three segments and decodes the header
// and payload as JSON documents. It does not verify the signature.
func Parse(token string) (*Token, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: segment %d is empty", ErrMalformedToken, i)
		}
	}

	headerBytes, err := DecodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	payloadBytes, err := DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	sigBytes, err := DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var rawHeader map[string]any
	if err := json.Unmarshal(headerBytes, &rawHeader); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	var payload map[string]any
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	h := Header{Raw: rawHeader}
	if v, ok := rawHeader["alg"].(string); ok {
		h.Alg = v
	}
	if v, ok := rawHeader["kid"].(string); ok {
		h.Kid = v
	}
	if v, ok := rawHeader["typ"].(string); ok {
		h.Typ = v
	}

	return &Token{
		HeaderSegment:    parts[0],
		PayloadSegment:   parts[1],
		SignatureSegment: parts[2],
		Header:           h,
		Payload:          payload,
		Signature:        sigBytes,
	}, nil
}

// StringClaim reads a string-valued claim from a payload map, returning ""
// and false if it is absent or not a string.
func StringClaim(payload map[string]any, key string) (string, bool) {
	v, ok := payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// NumberClaim reads a numeric claim (JSON numbers decode to float64).
func NumberClaim(payload map[string]any, key string) (float64, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
