package claims

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payloadWithTimes(iat, nbf, exp *int64) map[string]any {
	p := map[string]any{}
	if iat != nil {
		p["iat"] = float64(*iat)
	}
	if nbf != nil {
		p["nbf"] = float64(*nbf)
	}
	if exp != nil {
		p["exp"] = float64(*exp)
	}
	return p
}

func unixPtr(t time.Time) *int64 {
	v := t.Unix()
	return &v
}

func TestValidateTimeClaims_AllValid(t *testing.T) {
	now := time.Now()
	iat := now.Add(-time.Hour)
	nbf := now.Add(-time.Minute)
	exp := now.Add(time.Hour)

	payload := payloadWithTimes(unixPtr(iat), unixPtr(nbf), unixPtr(exp))
	tc, problems := ExtractTimeClaims(payload)
	require.Empty(t, problems)

	got := ValidateTimeClaims(tc, now)
	assert.Empty(t, got)
}

func TestValidateTimeClaims_Expired(t *testing.T) {
	now := time.Now()
	exp := now.Add(-time.Minute)

	payload := payloadWithTimes(nil, nil, unixPtr(exp))
	tc, _ := ExtractTimeClaims(payload)

	got := ValidateTimeClaims(tc, now)
	require.Len(t, got, 1)
	assert.Equal(t, CodeExpired, got[0].Code)
}

func TestValidateTimeClaims_ExactlyAtExpiryIsStillValid(t *testing.T) {
	// Both sides pinned to the same whole-second Unix timestamp: exp
	// round-trips through the numeric claim encoding without losing
	// precision, so t == exp compares exactly equal, not merely close.
	now := time.Unix(1_700_000_000, 0).UTC()
	exp := now

	payload := payloadWithTimes(nil, nil, unixPtr(exp))
	tc, _ := ExtractTimeClaims(payload)

	got := ValidateTimeClaims(tc, now)
	assert.Empty(t, got, "t == exp must verify; only t > exp expires")
}

func TestValidateTimeClaims_NotYetValid(t *testing.T) {
	now := time.Now()
	nbf := now.Add(time.Hour)

	payload := payloadWithTimes(nil, unixPtr(nbf), nil)
	tc, _ := ExtractTimeClaims(payload)

	got := ValidateTimeClaims(tc, now)
	require.Len(t, got, 1)
	assert.Equal(t, CodeNotYetValid, got[0].Code)
}

func TestValidateTimeClaims_IatInFutureBeyondSkew(t *testing.T) {
	now := time.Now()
	iat := now.Add(5 * time.Minute)

	payload := payloadWithTimes(unixPtr(iat), nil, nil)
	tc, _ := ExtractTimeClaims(payload)

	got := ValidateTimeClaims(tc, now)
	require.Len(t, got, 1)
	assert.Equal(t, CodeIatInFuture, got[0].Code)
}

func TestValidateTimeClaims_IatWithinSkewTolerated(t *testing.T) {
	now := time.Now()
	iat := now.Add(30 * time.Second)

	payload := payloadWithTimes(unixPtr(iat), nil, nil)
	tc, _ := ExtractTimeClaims(payload)

	got := ValidateTimeClaims(tc, now)
	assert.Empty(t, got)
}

func TestExtractTimeClaims_MalformedValue(t *testing.T) {
	payload := map[string]any{"iat": "not-a-number"}
	_, problems := ExtractTimeClaims(payload)
	require.Len(t, problems, 1)
	assert.Equal(t, CodeMalformedClaim, problems[0].Code)
}

func TestValidateNonce(t *testing.T) {
	assert.Empty(t, ValidateNonce(map[string]any{}, ""))

	problems := ValidateNonce(map[string]any{}, "expected-nonce")
	require.Len(t, problems, 1)
	assert.Equal(t, CodeNonceMissing, problems[0].Code)

	problems = ValidateNonce(map[string]any{"nonce": "wrong"}, "expected-nonce")
	require.Len(t, problems, 1)
	assert.Equal(t, CodeNonceMismatch, problems[0].Code)

	assert.Empty(t, ValidateNonce(map[string]any{"nonce": "expected-nonce"}, "expected-nonce"))
}

func TestValidateAudience(t *testing.T) {
	assert.Empty(t, ValidateAudience(map[string]any{}, ""))
	assert.Empty(t, ValidateAudience(map[string]any{}, nil))

	problems := ValidateAudience(map[string]any{}, "verifier.example")
	require.Len(t, problems, 1)
	assert.Equal(t, CodeMissingClaim, problems[0].Code)

	assert.Empty(t, ValidateAudience(map[string]any{"aud": "verifier.example"}, "verifier.example"))

	assert.Empty(t, ValidateAudience(map[string]any{
		"aud": []any{"other.example", "verifier.example"},
	}, "verifier.example"))

	problems = ValidateAudience(map[string]any{"aud": "someone.else"}, "verifier.example")
	require.Len(t, problems, 1)
	assert.Equal(t, CodeAudienceMiss, problems[0].Code)

	want := []Problem{problem(CodeAudienceMiss, "aud", "audience does not contain expected value")}
	if diff := cmp.Diff(want, problems); diff != "" {
		t.Errorf("ValidateAudience() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateAudience_ExpectedSetIntersectsScalarClaim(t *testing.T) {
	// A caller willing to accept any of several audiences (expected as a
	// set) against a presentation that names only one of them.
	assert.Empty(t, ValidateAudience(map[string]any{"aud": "verifier-b.example"}, []string{
		"verifier-a.example", "verifier-b.example",
	}))

	problems := ValidateAudience(map[string]any{"aud": "someone.else"}, []string{
		"verifier-a.example", "verifier-b.example",
	})
	require.Len(t, problems, 1)
	assert.Equal(t, CodeAudienceMiss, problems[0].Code)
}

func TestValidateAudience_ExpectedSetIntersectsClaimSet(t *testing.T) {
	// Both sides are sets; any overlap satisfies the check.
	assert.Empty(t, ValidateAudience(map[string]any{
		"aud": []any{"other.example", "verifier-b.example"},
	}, []string{"verifier-a.example", "verifier-b.example"}))

	problems := ValidateAudience(map[string]any{
		"aud": []any{"other.example", "unrelated.example"},
	}, []string{"verifier-a.example", "verifier-b.example"})
	require.Len(t, problems, 1)
	assert.Equal(t, CodeAudienceMiss, problems[0].Code)
}

func TestConfirmationKeyID(t *testing.T) {
	kid, ok := ConfirmationKeyID(map[string]any{"cnf": map[string]any{"kid": "holder-key-1"}})
	require.True(t, ok)
	assert.Equal(t, "holder-key-1", kid)

	_, ok = ConfirmationKeyID(map[string]any{})
	assert.False(t, ok)

	_, ok = ConfirmationKeyID(map[string]any{"cnf": map[string]any{}})
	assert.False(t, ok)
}
