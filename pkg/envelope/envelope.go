// Package envelope implements the enveloped-credential wrapper: a W3C VC 2.0
// convention for embedding a signed credential JWS inside a presentation
// payload as a data: URI.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// DataURIPrefix is the exact prefix an enveloped credential's id must
	// carry. The invariant is exact-match, not prefix-plus-slop.
	DataURIPrefix = "data:application/vc+jwt,"

	// TypeEnvelopedVerifiableCredential is the required type value on the
	// object form of an enveloped credential.
	TypeEnvelopedVerifiableCredential = "EnvelopedVerifiableCredential"
)

// ErrInvalidEnvelope is returned when an enveloped credential is malformed:
// missing the data: URI prefix, or carrying the wrong type.
var ErrInvalidEnvelope = errors.New("envelope: invalid enveloped credential")

// Credential is the object form of an enveloped credential.
type Credential struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Encode wraps a JWS as an enveloped-credential object.
func Encode(jws string) Credential {
	return Credential{
		ID:   DataURIPrefix + jws,
		Type: TypeEnvelopedVerifiableCredential,
	}
}

// Decode extracts the inner JWS from an enveloped credential. It accepts
// both the legacy bare-string form (a raw data: URI) and the object form
// ({id, type, ...}); any other shape fails with ErrInvalidEnvelope.
func Decode(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return decodeDataURI(v)
	case map[string]any:
		idVal, ok := v["id"]
		if !ok {
			return "", fmt.Errorf("%w: object form missing id", ErrInvalidEnvelope)
		}
		id, ok := idVal.(string)
		if !ok {
			return "", fmt.Errorf("%w: id is not a string", ErrInvalidEnvelope)
		}
		// An absent or empty type is tolerated here for parity with the bare-
		// string form, which carries no type at all; only a present-but-wrong
		// type is rejected.
		if typ, ok := v["type"].(string); ok && typ != "" && typ != TypeEnvelopedVerifiableCredential {
			return "", fmt.Errorf("%w: unexpected type %q", ErrInvalidEnvelope, typ)
		}
		return decodeDataURI(id)
	case Credential:
		if v.Type != "" && v.Type != TypeEnvelopedVerifiableCredential {
			return "", fmt.Errorf("%w: unexpected type %q", ErrInvalidEnvelope, v.Type)
		}
		return decodeDataURI(v.ID)
	case json.RawMessage:
		return decodeRawJSON(v)
	case []byte:
		return decodeRawJSON(v)
	default:
		return "", fmt.Errorf("%w: unsupported representation %T", ErrInvalidEnvelope, raw)
	}
}

func decodeRawJSON(b []byte) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		var s string
		if err2 := json.Unmarshal(b, &s); err2 == nil {
			return decodeDataURI(s)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return Decode(m)
}

func decodeDataURI(s string) (string, error) {
	if !strings.HasPrefix(s, DataURIPrefix) {
		return "", fmt.Errorf("%w: missing prefix %q", ErrInvalidEnvelope, DataURIPrefix)
	}
	jws := strings.TrimPrefix(s, DataURIPrefix)
	if jws == "" {
		return "", fmt.Errorf("%w: empty JWS after prefix", ErrInvalidEnvelope)
	}
	return jws, nil
}
