package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vc-trust/vpvc/pkg/keys"
)

var (
	// ErrUnknownController is returned when resolveController cannot find
	// any document (registered or locally-decodable) for an identifier.
	// Per spec.md §7, this is an abort condition at the verifier layer, not
	// a recorded problem: a trust store missing an entire controller is a
	// caller-configuration defect, not a property of the token.
	ErrUnknownController = errors.New("resolver: unknown controller")

	// ErrUnknownKey is returned when a verification-method id matches no
	// entry in the resolved controller's key list, under either the full
	// id or the bare-fragment form.
	ErrUnknownKey = errors.New("resolver: unknown key")

	// ErrKeyNotAuthorizedForRelation is returned when a verification method
	// exists but is not listed in the relation being resolved (e.g. a key
	// that may sign credentials being used to verify a presentation).
	ErrKeyNotAuthorizedForRelation = errors.New("resolver: key not authorized for relation")
)

// Resolver abstracts the mapping from a controller identifier (or a
// verification-method id, from which the controller id is derived by
// stripping any #fragment) to a ResolvedController.
type Resolver interface {
	ResolveController(ctx context.Context, identifier string) (*ResolvedController, error)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(ctx context.Context, identifier string) (*ResolvedController, error)

// ResolveController implements Resolver.
func (f ResolverFunc) ResolveController(ctx context.Context, identifier string) (*ResolvedController, error) {
	return f(ctx, identifier)
}

// ResolvedController is a controller document bound into verifiers, one per
// verification method, lazily constructed on lookup.
type ResolvedController struct {
	doc *ControllerDocument
}

// ResolveAssertionKey resolves kid to a Verifier authorized for the
// assertion relation (credential signing).
func (rc *ResolvedController) ResolveAssertionKey(kid string) (*keys.Verifier, error) {
	return rc.resolveKey(kid, RelationAssertion)
}

// ResolveAuthenticationKey resolves kid to a Verifier authorized for the
// authentication relation (presentation signing).
func (rc *ResolvedController) ResolveAuthenticationKey(kid string) (*keys.Verifier, error) {
	return rc.resolveKey(kid, RelationAuthentication)
}

func (rc *ResolvedController) resolveKey(kid string, rel Relation) (*keys.Verifier, error) {
	vm, ok := rc.doc.findByEitherForm(kid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
	}
	if !contains(rc.doc.relationList(rel), vm.ID) {
		return nil, fmt.Errorf("%w: %s not authorized for %s", ErrKeyNotAuthorizedForRelation, vm.ID, rel)
	}
	if vm.Key == nil {
		return nil, fmt.Errorf("%w: %s has no decoded key", ErrUnknownKey, vm.ID)
	}
	return keys.NewVerifier(vm.Key)
}

// Document returns the underlying controller document.
func (rc *ResolvedController) Document() *ControllerDocument {
	return rc.doc
}

// controllerIDOf derives the controller id from a verification-method id or
// bare controller id by stripping any #fragment.
func controllerIDOf(identifier string) string {
	if i := strings.IndexByte(identifier, '#'); i >= 0 {
		return identifier[:i]
	}
	return identifier
}

// InMemoryResolver is the generic Resolver implementation: a fixed set of
// registered controller documents, keyed by controller id, consulted under
// a read-write mutex so registration and concurrent resolution are both
// safe. This mirrors the teacher's LocalResolver/StaticResolver combination
// in pkg/keyresolver/resolver.go, collapsed into one concrete type since
// network-backed resolution is out of scope here.
type InMemoryResolver struct {
	mu         sync.RWMutex
	documents  map[string]*ControllerDocument
	allowLocal bool
}

// NewInMemoryResolver constructs an empty resolver. Use AddController to
// populate it. allowLocal enables the §3.1 local convenience forms
// (did:key, did:jwk) as a fallback for identifiers that aren't registered
// explicitly; a bare multibase Multikey string is not recognized as a
// controller id. Pass false for a resolver that only ever answers from its
// explicit trust store.
func NewInMemoryResolver(allowLocal bool) *InMemoryResolver {
	return &InMemoryResolver{
		documents:  make(map[string]*ControllerDocument),
		allowLocal: allowLocal,
	}
}

// AddController registers a controller document under its own id.
func (r *InMemoryResolver) AddController(doc *ControllerDocument) error {
	if doc == nil || doc.ID == "" {
		return errors.New("resolver: document missing id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[doc.ID] = doc
	return nil
}

// ResolveController implements Resolver.
func (r *InMemoryResolver) ResolveController(_ context.Context, identifier string) (*ResolvedController, error) {
	controllerID := controllerIDOf(identifier)

	r.mu.RLock()
	doc, ok := r.documents[controllerID]
	r.mu.RUnlock()
	if ok {
		return &ResolvedController{doc: doc}, nil
	}

	if r.allowLocal {
		if doc, ok := LocalControllerDocument(controllerID); ok {
			return &ResolvedController{doc: doc}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownController, identifier)
}

// MultiResolver tries each of its resolvers in order, returning the first
// successful resolution. Mirrors the teacher's MultiResolver composition in
// pkg/keyresolver/resolver.go.
type MultiResolver struct {
	resolvers []Resolver
}

// NewMultiResolver builds a MultiResolver over the given resolvers, tried in
// order.
func NewMultiResolver(resolvers ...Resolver) *MultiResolver {
	return &MultiResolver{resolvers: resolvers}
}

// ResolveController implements Resolver.
func (m *MultiResolver) ResolveController(ctx context.Context, identifier string) (*ResolvedController, error) {
	var lastErr error
	for _, r := range m.resolvers {
		rc, err := r.ResolveController(ctx, identifier)
		if err == nil {
			return rc, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrUnknownController
	}
	return nil, lastErr
}
