// Package claims validates the JWT-style time claims, nonce, and audience
// carried by a verified JWS payload, and extracts its confirmation-key
// (cnf.kid) claim; comparing that key with the presentation signer is left
// to the caller. Each validator reports a problem code rather than failing
// fast, so the verifier core can accumulate every defect a token exhibits in
// one pass.
package claims

import (
	"time"
)

// ClockSkew is the tolerance applied when a claim's value could only be
// invalid due to clock drift between issuer and verifier. Per spec, skew is
// applied only to iat-in-the-future checks, not to nbf/exp, since a
// credential intentionally not-yet-valid or already-expired is a real
// rejection, not a clock artifact.
const ClockSkew = 60 * time.Second

// Code enumerates the specific claim-validation failures this package
// detects.
type Code string

const (
	CodeIatInFuture    Code = "iat_in_future"
	CodeNotYetValid    Code = "not_yet_valid"
	CodeExpired        Code = "expired"
	CodeNonceMismatch  Code = "nonce_mismatch"
	CodeNonceMissing   Code = "nonce_missing"
	CodeAudienceMiss   Code = "audience_mismatch"
	CodeMissingClaim   Code = "missing_claim"
	CodeMalformedClaim Code = "malformed_claim"
)

// Problem is a single claim-validation failure.
type Problem struct {
	Code   Code
	Claim  string
	Detail string
}

func (p Problem) Error() string {
	return string(p.Code) + ": " + p.Detail
}

func problem(code Code, claim, detail string) Problem {
	return Problem{Code: code, Claim: claim, Detail: detail}
}

// TimeClaims is the decoded form of a payload's iat/nbf/exp, each nil when
// absent.
type TimeClaims struct {
	Iat *time.Time
	Nbf *time.Time
	Exp *time.Time
}

// ExtractTimeClaims reads iat/nbf/exp from a JSON-decoded payload (numbers
// decode to float64 per encoding/json), returning a problem for any present
// but non-numeric claim.
func ExtractTimeClaims(payload map[string]any) (TimeClaims, []Problem) {
	var tc TimeClaims
	var problems []Problem

	if v, ok := payload["iat"]; ok {
		t, err := numericClaimToTime(v)
		if err != nil {
			problems = append(problems, problem(CodeMalformedClaim, "iat", err.Error()))
		} else {
			tc.Iat = &t
		}
	}
	if v, ok := payload["nbf"]; ok {
		t, err := numericClaimToTime(v)
		if err != nil {
			problems = append(problems, problem(CodeMalformedClaim, "nbf", err.Error()))
		} else {
			tc.Nbf = &t
		}
	}
	if v, ok := payload["exp"]; ok {
		t, err := numericClaimToTime(v)
		if err != nil {
			problems = append(problems, problem(CodeMalformedClaim, "exp", err.Error()))
		} else {
			tc.Exp = &t
		}
	}
	return tc, problems
}

func numericClaimToTime(v any) (time.Time, error) {
	switch n := v.(type) {
	case float64:
		return time.Unix(int64(n), 0).UTC(), nil
	case int64:
		return time.Unix(n, 0).UTC(), nil
	default:
		return time.Time{}, errNotNumeric
	}
}

var errNotNumeric = malformedErr("claim is not a numeric timestamp")

type malformedErr string

func (m malformedErr) Error() string { return string(m) }

// ValidateTimeClaims checks iat/nbf/exp against now, applying ClockSkew only
// to the iat-in-the-future check.
func ValidateTimeClaims(tc TimeClaims, now time.Time) []Problem {
	var problems []Problem

	if tc.Iat != nil && tc.Iat.After(now.Add(ClockSkew)) {
		problems = append(problems, problem(CodeIatInFuture, "iat", "issued-at is in the future"))
	}
	if tc.Nbf != nil && tc.Nbf.After(now) {
		problems = append(problems, problem(CodeNotYetValid, "nbf", "token is not yet valid"))
	}
	if tc.Exp != nil && tc.Exp.Before(now) {
		problems = append(problems, problem(CodeExpired, "exp", "token has expired"))
	}
	return problems
}

// ValidateNonce checks that payload's nonce claim matches expected exactly.
// An empty expected disables the check (the caller did not send a nonce and
// does not require one back).
func ValidateNonce(payload map[string]any, expected string) []Problem {
	if expected == "" {
		return nil
	}
	v, ok := payload["nonce"]
	if !ok {
		return []Problem{problem(CodeNonceMissing, "nonce", "expected nonce claim is absent")}
	}
	got, ok := v.(string)
	if !ok || got != expected {
		return []Problem{problem(CodeNonceMismatch, "nonce", "nonce does not match expected value")}
	}
	return nil
}

// ValidateAudience checks that payload's aud claim (a scalar string or array
// of strings) intersects expected, which itself may be a scalar string or a
// set (string, []string, or []any of strings). A nil or empty expected
// disables the check.
func ValidateAudience(payload map[string]any, expected any) []Problem {
	expectedSet := toStringSet(expected)
	if len(expectedSet) == 0 {
		return nil
	}
	v, ok := payload["aud"]
	if !ok {
		return []Problem{problem(CodeMissingClaim, "aud", "expected audience claim is absent")}
	}

	audSet := toStringSet(v)
	for _, want := range expectedSet {
		for _, got := range audSet {
			if want == got {
				return nil
			}
		}
	}
	return []Problem{problem(CodeAudienceMiss, "aud", "audience does not contain expected value")}
}

// toStringSet normalizes a scalar string, a []string, or a []any of strings
// into a flat string slice, ignoring any non-string elements. A nil or
// empty-string input yields an empty set.
func toStringSet(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// ConfirmationKeyID extracts the cnf.kid claim, if any.
func ConfirmationKeyID(payload map[string]any) (string, bool) {
	v, ok := payload["cnf"]
	if !ok {
		return "", false
	}
	cnf, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	kid, ok := cnf["kid"].(string)
	if !ok || kid == "" {
		return "", false
	}
	return kid, true
}
