// Package verifier implements the verification core: it orchestrates
// parsing, key resolution, cryptographic verification, and claim
// validation over a signed presentation and the credentials enveloped
// inside it, producing one aggregate, non-throwing result.
package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/vc-trust/vpvc/pkg/claims"
	"github.com/vc-trust/vpvc/pkg/envelope"
	"github.com/vc-trust/vpvc/pkg/jwscore"
	"github.com/vc-trust/vpvc/pkg/problems"
	"github.com/vc-trust/vpvc/pkg/resolver"
)

// Verify decides whether the presentation token is trustworthy under the
// given resolver (trust store) and options, implementing the nine-step
// algorithm: parse, extract kid, resolve the holder key, verify the
// presentation signature, validate presentation time claims, validate
// nonce/audience, iterate enveloped credentials, check confirmation-key
// binding, and aggregate.
//
// Verify returns a non-nil error only for the abort conditions of
// spec.md §7 (malformed token, missing kid, an unresolvable controller,
// or a requested nonce/audience mismatch) and for Options that fail
// validation (ErrInvalidOptions); every other defect is recorded as a
// Problem on the returned Result.
func Verify(ctx context.Context, token string, res resolver.Resolver, opts Options) (*Result, error) {
	log := opts.logger()

	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	// 1. Parse.
	tok, err := jwscore.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	// 2. Extract kid.
	if tok.Header.Kid == "" {
		return nil, ErrMissingKID
	}
	log.Debug("parsed presentation", "kid", tok.Header.Kid, "alg", tok.Header.Alg)

	result := &Result{}

	// 3. Resolve holder key.
	holderController, err := res.ResolveController(ctx, tok.Header.Kid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownController, err)
	}

	authVerifier, err := holderController.ResolveAuthenticationKey(tok.Header.Kid)
	if err != nil {
		result.Problems.Addf(problems.CategoryKeyResolution, "is_presentation_signature_valid", 400,
			"holder key resolution failed: %v", err)
		result.IsPresentationSignatureValid = false
	} else {
		// 4. Signature check (presentation).
		ok, err := authVerifier.Verify(tok.Header.Alg, tok.SigningInput(), tok.Signature)
		if err != nil || !ok {
			detail := "signature did not verify"
			if err != nil {
				detail = err.Error()
			}
			result.Problems.Addf(problems.CategorySignature, "is_presentation_signature_valid", 400, "%s", detail)
			result.IsPresentationSignatureValid = false
		} else {
			result.IsPresentationSignatureValid = true
		}
	}
	log.Debug("presentation signature checked", "valid", result.IsPresentationSignatureValid)

	// 5. Presentation time-claims.
	tc, tcProblems := claims.ExtractTimeClaims(tok.Payload)
	tcProblems = append(tcProblems, claims.ValidateTimeClaims(tc, opts.VerificationTime)...)
	if len(tcProblems) > 0 {
		result.IsWithinValidityPeriod = false
		for _, p := range tcProblems {
			result.Problems.Addf(problems.CategoryTimeClaims, "is_within_validity_period", 422, "%s", p.Detail)
		}
	} else {
		result.IsWithinValidityPeriod = true
	}

	// 6. Nonce / audience: requested checks throw on mismatch.
	if nonceProblems := claims.ValidateNonce(tok.Payload, opts.ExpectedNonce); len(nonceProblems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNonceMismatch, nonceProblems[0].Detail)
	}
	if audProblems := claims.ValidateAudience(tok.Payload, opts.ExpectedAudience); len(audProblems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAudienceMismatch, audProblems[0].Detail)
	}

	// 7. Iterate enveloped credentials.
	rawCredentials, _ := tok.Payload["verifiableCredential"].([]any)
	result.Credentials = make([]*CredentialResult, 0, len(rawCredentials))
	for _, raw := range rawCredentials {
		cred, err := verifyCredential(ctx, raw, res, opts)
		if err != nil {
			return nil, err
		}
		result.Credentials = append(result.Credentials, cred)
	}

	// 8. Confirmation-key binding.
	result.IsSignedByConfirmationKey = true
	for _, cred := range result.Credentials {
		cnfKid, ok := claims.ConfirmationKeyID(cred.Payload)
		if !ok {
			continue
		}
		if cnfKid != tok.Header.Kid {
			result.IsSignedByConfirmationKey = false
			result.Problems.Addf(problems.CategoryConfirmation, "is_signed_by_confirmation_key", 403,
				"credential cnf.kid %q does not match presentation signer %q", cnfKid, tok.Header.Kid)
		}
	}

	// 9. Aggregate.
	result.IsCredentialVerified = true
	for _, cred := range result.Credentials {
		if !cred.Verified {
			result.IsCredentialVerified = false
			break
		}
	}
	if !result.IsCredentialVerified {
		result.Problems.Addf(problems.CategorySignature, "is_credential_verified", 400,
			"at least one enveloped credential failed verification")
	}

	result.Verified = result.IsPresentationSignatureValid &&
		result.IsWithinValidityPeriod &&
		result.IsSignedByConfirmationKey &&
		result.IsCredentialVerified

	if result.Verified {
		result.Header = tok.Header.Raw
		result.Payload = tok.Payload
	}

	log.Debug("verification complete", "verified", result.Verified, "problems", len(result.Problems.Problems))
	return result, nil
}

func verifyCredential(ctx context.Context, raw any, res resolver.Resolver, opts Options) (*CredentialResult, error) {
	log := opts.logger()
	cred := &CredentialResult{}

	jws, err := envelope.Decode(raw)
	if err != nil {
		cred.Problems.Addf(problems.CategoryEnvelope, "MalformedCredential", 400, "%s", err.Error())
		return cred, nil
	}

	tok, err := jwscore.Parse(jws)
	if err != nil {
		cred.Problems.Addf(problems.CategoryEnvelope, "MalformedCredential", 400, "%s", err.Error())
		return cred, nil
	}
	cred.Header = tok.Header.Raw
	cred.Payload = tok.Payload

	kid := tok.Header.Kid
	iss, _ := tok.Payload["iss"].(string)
	log.Debug("checking enveloped credential", "kid", kid, "iss", iss)

	// d. Issuer-prefix-of-kid.
	cred.IsIssPrefixOfKid = iss != "" && strings.HasPrefix(kid, iss)
	if !cred.IsIssPrefixOfKid {
		cred.Problems.Addf(problems.CategoryIssuerBinding, "is_iss_prefix_of_kid", 400,
			"kid %q does not start with issuer %q", kid, iss)
	}

	// e. Resolve issuer controller, resolve its assertion key by kid.
	issuerController, err := res.ResolveController(ctx, iss)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownController, err)
	}

	assertionVerifier, err := issuerController.ResolveAssertionKey(kid)
	if err != nil {
		cred.Problems.Addf(problems.CategoryKeyResolution, "is_credential_signature_valid", 400,
			"issuer key resolution failed: %v", err)
		cred.IsCredentialSignatureValid = false
	} else {
		// f. Verify inner signature.
		ok, err := assertionVerifier.Verify(tok.Header.Alg, tok.SigningInput(), tok.Signature)
		if err != nil || !ok {
			detail := "signature did not verify"
			if err != nil {
				detail = err.Error()
			}
			cred.Problems.Addf(problems.CategorySignature, "is_credential_signature_valid", 400, "%s", detail)
			cred.IsCredentialSignatureValid = false
		} else {
			cred.IsCredentialSignatureValid = true
		}
	}

	// g. Time claims.
	tc, tcProblems := claims.ExtractTimeClaims(tok.Payload)
	tcProblems = append(tcProblems, claims.ValidateTimeClaims(tc, opts.VerificationTime)...)
	if len(tcProblems) > 0 {
		cred.IsWithinValidityPeriod = false
		for _, p := range tcProblems {
			cred.Problems.Addf(problems.CategoryTimeClaims, "is_within_validity_period", 422, "%s", p.Detail)
		}
	} else {
		cred.IsWithinValidityPeriod = true
	}

	// h. Schema validation, only if enabled and prior checks passed.
	schemaOK := true
	if opts.ValidateCredentialSchemas && cred.IsIssPrefixOfKid && cred.IsCredentialSignatureValid && cred.IsWithinValidityPeriod {
		schemaOK = validateCredentialSchema(tok.Payload, opts.SchemaValidators, cred)
	}

	// i. Sub-result verified = AND(all sub-checks).
	cred.Verified = cred.IsIssPrefixOfKid && cred.IsCredentialSignatureValid && cred.IsWithinValidityPeriod && schemaOK
	return cred, nil
}

func validateCredentialSchema(payload map[string]any, validators map[string]claims.SchemaValidator, cred *CredentialResult) bool {
	schemaRef, ok := payload["credentialSchema"].(map[string]any)
	if !ok {
		return true
	}
	schemaID, _ := schemaRef["id"].(string)
	if schemaID == "" {
		return true
	}

	v, ok := validators[schemaID]
	if !ok {
		cred.Problems.Addf(problems.CategorySchema, "SchemaViolation", 422,
			"no compiled validator registered for schema %q", schemaID)
		return false
	}

	schemaProblems := v.Validate(payload)
	if len(schemaProblems) == 0 {
		return true
	}
	for _, p := range schemaProblems {
		cred.Problems.Addf(problems.CategorySchema, "SchemaViolation", 422, "%s", p.Detail)
	}
	return false
}
