package resolver

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/vc-trust/vpvc/pkg/keys"
)

const (
	didKeyPrefix = "did:key:"
	didJwkPrefix = "did:jwk:"
)

// CanResolveLocally reports whether identifier names a did:key or did:jwk
// controller, the two self-certifying forms LocalControllerDocument decodes
// without any network access.
func CanResolveLocally(identifier string) bool {
	_, ok := decodeLocalKey(identifier)
	return ok
}

// LocalControllerDocument synthesizes a single-key ControllerDocument for a
// self-certifying controller id (did:key or did:jwk): the key embedded in
// the identifier itself, authorized for both the assertion and
// authentication relations, since a self-certifying identifier has no
// separate authority to scope those relations more narrowly. This is the
// §3.1 supplement — a pure function of the identifier string, never a
// network lookup — consulted by InMemoryResolver as a fallback for
// identifiers that were never registered via AddController.
func LocalControllerDocument(controllerID string) (*ControllerDocument, bool) {
	pub, ok := decodeLocalKey(controllerID)
	if !ok {
		return nil, false
	}

	vmID := controllerID + "#" + pub.Kid
	vm := VerificationMethod{ID: vmID, Controller: controllerID, Key: pub}
	return &ControllerDocument{
		ID:                 controllerID,
		VerificationMethod: []VerificationMethod{vm},
		Assertion:          []string{vmID},
		Authentication:     []string{vmID},
	}, true
}

func decodeLocalKey(controllerID string) (*keys.PublicKey, bool) {
	switch {
	case strings.HasPrefix(controllerID, didKeyPrefix):
		pub, err := keys.FromMultikey(strings.TrimPrefix(controllerID, didKeyPrefix))
		if err != nil {
			return nil, false
		}
		return pub, true
	case strings.HasPrefix(controllerID, didJwkPrefix):
		pub, err := decodeDidJwk(strings.TrimPrefix(controllerID, didJwkPrefix))
		if err != nil {
			return nil, false
		}
		return pub, true
	default:
		return nil, false
	}
}

// didJwkJSON is the subset of JWK fields a did:jwk identifier's embedded key
// carries.
type didJwkJSON struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

func decodeDidJwk(encoded string) (*keys.PublicKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	var jwk didJwkJSON
	if err := json.Unmarshal(raw, &jwk); err != nil {
		return nil, err
	}
	alg, err := keys.AlgorithmFromCurveName(jwk.Crv)
	if err != nil {
		return nil, err
	}
	return keys.NewPublicKeyFromCoordinates(alg, jwk.X, jwk.Y)
}
