package verifier

import "errors"

// Abort conditions: per spec.md §7, these represent a state from which no
// useful aggregate result can be produced, so Verify returns (nil, error)
// rather than a Result with Verified=false.
var (
	ErrMalformedToken    = errors.New("verifier: malformed presentation token")
	ErrMissingKID        = errors.New("verifier: presentation header missing kid")
	ErrUnknownController = errors.New("verifier: unknown controller in trust store")
	ErrNonceMismatch     = errors.New("verifier: presentation nonce does not match expected value")
	ErrAudienceMismatch  = errors.New("verifier: presentation audience does not match expected value")
	ErrInvalidOptions    = errors.New("verifier: invalid verification options")
)
