// Package resolver maps a controller identifier to a controller document,
// and a verification-method id within that document to a verifier bound to
// one of two purpose-typed relations: assertion (credentials) or
// authentication (presentations). Trust evaluation — whether a resolved key
// *should* be trusted — stays out of scope; this package only answers
// "what key does this id name, and is it authorized for this relation."
package resolver

import (
	"strings"

	"github.com/vc-trust/vpvc/pkg/keys"
)

// Relation names one of the two capabilities a verification method can be
// authorized for.
type Relation string

const (
	RelationAssertion      Relation = "assertion"
	RelationAuthentication Relation = "authentication"
)

// VerificationMethod binds a key id to its public key and declares which
// controller it belongs to.
type VerificationMethod struct {
	ID         string `json:"id"`
	Controller string `json:"controller"`

	// Key is the decoded public key for this verification method.
	Key *keys.PublicKey `json:"-"`
}

// ControllerDocument is a controller's published key material: an id, its
// verification methods, and the assertion/authentication relation lists
// referencing those methods by id.
type ControllerDocument struct {
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	Assertion          []string             `json:"assertionMethod,omitempty"`
	Authentication     []string             `json:"authentication,omitempty"`
}

func (doc *ControllerDocument) verificationMethodByID(id string) (*VerificationMethod, bool) {
	for i := range doc.VerificationMethod {
		if doc.VerificationMethod[i].ID == id {
			return &doc.VerificationMethod[i], true
		}
	}
	return nil, false
}

// fragmentPart returns the substring after the last '#' in id, or id itself
// if it carries no fragment. This lets a bare thumbprint and a full
// controller#fragment id compare equal on their fragment alone — the
// key-id-normalization idiom spec.md §9 calls for, built at lookup time
// rather than a separate stored index, since these documents are small.
func fragmentPart(id string) string {
	if i := strings.LastIndexByte(id, '#'); i >= 0 {
		return id[i+1:]
	}
	return id
}

// findByEitherForm resolves kid against this document's verification
// methods, accepting either the full verification-method id or its bare
// fragment/thumbprint, in either direction (kid may be given in either form,
// and the document may have registered its verification methods in either
// form too).
func (doc *ControllerDocument) findByEitherForm(kid string) (*VerificationMethod, bool) {
	if vm, ok := doc.verificationMethodByID(kid); ok {
		return vm, true
	}
	wanted := fragmentPart(kid)
	for i := range doc.VerificationMethod {
		if fragmentPart(doc.VerificationMethod[i].ID) == wanted {
			return &doc.VerificationMethod[i], true
		}
	}
	return nil, false
}

func (doc *ControllerDocument) relationList(rel Relation) []string {
	switch rel {
	case RelationAssertion:
		return doc.Assertion
	case RelationAuthentication:
		return doc.Authentication
	default:
		return nil
	}
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
