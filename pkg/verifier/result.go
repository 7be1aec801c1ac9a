package verifier

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vc-trust/vpvc/pkg/claims"
	"github.com/vc-trust/vpvc/pkg/logging"
	"github.com/vc-trust/vpvc/pkg/problems"
)

// Options configures a single Verify call. VerificationTime is required;
// ExpectedNonce/ExpectedAudience are optional protocol-level assertions the
// caller is entitled to require of the presentation.
type Options struct {
	VerificationTime time.Time `validate:"required"`
	ExpectedNonce    string

	// ExpectedAudience is the acceptable audience(s) for the presentation's
	// aud claim: a scalar string, a []string, or nil/"" to disable the
	// check. Matches spec.md's `expectedAudience?: string | set<string>`.
	ExpectedAudience          any
	ValidateCredentialSchemas bool

	// SchemaValidators maps a credentialSchema.id to a compiled validator.
	// Only consulted when ValidateCredentialSchemas is true; a credential
	// referencing a schema id absent from this map is treated as a schema
	// violation, since schema *fetching* is out of scope and the caller was
	// expected to pre-populate this registry.
	SchemaValidators map[string]claims.SchemaValidator

	// Logger receives diagnostic trace of each check as Verify performs it.
	// Defaults to a no-op logger when nil.
	Logger *logging.Log
}

func (o Options) logger() *logging.Log {
	if o.Logger == nil {
		return logging.Noop()
	}
	return o.Logger
}

func (o Options) validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(o); err != nil {
		return err
	}
	return nil
}

// CredentialResult is the sub-result for one enveloped credential inside a
// presentation.
type CredentialResult struct {
	// Verified is the conjunction of every sub-check below.
	Verified bool

	Problems problems.Result

	IsCredentialSignatureValid bool
	IsWithinValidityPeriod     bool
	IsIssPrefixOfKid           bool

	// Header/Payload are populated whenever the credential's JWS parsed,
	// regardless of whether it verified — sub-results are diagnostic, only
	// the overall Result withholds payload on failure.
	Header  map[string]any
	Payload map[string]any
}

// Result is the Detailed Verification Result spec.md §3 describes: an
// overall boolean, the accumulated problems that explain it, one
// CredentialResult per enveloped credential, and — only when Verified is
// true — the authenticated presentation header and payload.
type Result struct {
	Verified bool
	Problems problems.Result

	IsPresentationSignatureValid bool
	IsWithinValidityPeriod       bool
	IsSignedByConfirmationKey    bool
	IsCredentialVerified         bool

	Credentials []*CredentialResult

	// Header/Payload are populated only when Verified is true.
	Header  map[string]any
	Payload map[string]any
}
